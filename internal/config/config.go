package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/felixheck/bissle/paging"
)

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		Driver string
		DSN    string
	}
	Log struct {
		Level  string
		Format string
	}
	Paging paging.Config
	// Routes holds per-endpoint paging options keyed by route id.
	Routes map[string]paging.Options
}

// RouteOptions returns the options configured for id, or the zero Options.
func (c *Config) RouteOptions(id string) paging.Options {
	return c.Routes[id]
}

var pagingKeys = []string{
	"paging.absolute",
	"paging.param_names.per_page",
	"paging.param_names.page",
	"paging.param_names.total",
}

// Load reads config from environment (BISSLE_ prefix) and optional bissle.yaml.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BISSLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("bissle")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read bissle.yaml: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper builds the config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("db.driver", "sqlite3")
	v.SetDefault("db.dsn", "file:bissle.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("paging.absolute", false)
	v.SetDefault("paging.param_names.per_page", paging.DefaultPerPageParam)
	v.SetDefault("paging.param_names.page", paging.DefaultPageParam)
	v.SetDefault("paging.param_names.total", paging.DefaultTotalParam)

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.DB.Driver = v.GetString("db.driver")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")

	if cfg.DB.Driver == "" {
		return nil, fmt.Errorf("BISSLE_DB_DRIVER is required (sqlite3, mysql, postgres)")
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("BISSLE_DB_DSN is required")
	}

	unknown := lo.Filter(v.AllKeys(), func(k string, _ int) bool {
		return strings.HasPrefix(k, "paging.") &&
			!strings.HasPrefix(k, "paging.routes.") &&
			!lo.Contains(pagingKeys, k)
	})
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, errors.WithHintf(paging.ErrInvalidConfiguration, "unknown keys: %s", strings.Join(unknown, ", "))
	}

	pc, err := paging.NewConfig(v.GetBool("paging.absolute"), paging.ParamNames{
		PerPage: v.GetString("paging.param_names.per_page"),
		Page:    v.GetString("paging.param_names.page"),
		Total:   v.GetString("paging.param_names.total"),
	})
	if err != nil {
		return nil, err
	}
	cfg.Paging = pc

	cfg.Routes = make(map[string]paging.Options)
	for id, raw := range v.GetStringMap("paging.routes") {
		section, ok := raw.(map[string]any)
		if !ok {
			return nil, errors.WithHintf(paging.ErrInvalidOptions, "paging.routes.%s must be a mapping", id)
		}
		opts, err := paging.DecodeOptions(section)
		if err == nil {
			err = pc.CheckOptions(opts)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "paging.routes.%s", id)
		}
		cfg.Routes[id] = opts
	}

	return cfg, nil
}
