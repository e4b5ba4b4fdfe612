package paging

// ParamSchema describes one accepted query parameter.
type ParamSchema struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Minimum int    `json:"minimum"`
	Maximum int    `json:"maximum,omitempty"`
	Default int    `json:"default"`
}

// Schema describes the paging parameters an endpoint accepts, keyed by their
// configured names, together with the active configuration.
type Schema struct {
	Params map[string]ParamSchema `json:"params"`
	Config ConfigSchema           `json:"config"`
}

// ConfigSchema is the JSON view of Config.
type ConfigSchema struct {
	Absolute   bool              `json:"absolute"`
	ParamNames map[string]string `json:"param_names"`
}

// Schema returns the parameter schema for an endpoint using o.
func (c Config) Schema(o Options) Schema {
	o = o.WithDefaults()
	names := c.ParamNames
	return Schema{
		Params: map[string]ParamSchema{
			names.Page: {
				Name:    names.Page,
				Type:    "integer",
				Minimum: FirstPage,
				Default: FirstPage,
			},
			names.PerPage: {
				Name:    names.PerPage,
				Type:    "integer",
				Minimum: MinPerPage,
				Maximum: MaxPerPage,
				Default: o.PerPage,
			},
		},
		Config: ConfigSchema{
			Absolute: c.Absolute,
			ParamNames: map[string]string{
				"per_page": names.PerPage,
				"page":     names.Page,
				"total":    names.Total,
			},
		},
	}
}
