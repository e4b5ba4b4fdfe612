package main

import (
	"github.com/spf13/cobra"

	"github.com/felixheck/bissle/internal/api"
	"github.com/felixheck/bissle/internal/store"
)

func newSeedCmd() *cobra.Command {
	var (
		collection string
		prefix     string
		count      int
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert numbered sample items into a collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.ValidateCollection(collection); err != nil {
				return err
			}
			_, logger, database, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			items := store.NewItemStore(database)
			if err := items.Seed(cmd.Context(), collection, prefix, count); err != nil {
				return err
			}
			logger.Info().Str("collection", collection).Int("count", count).Msg("seeded items")
			return nil
		},
	}
	cmd.Flags().StringVar(&collection, "collection", api.DefaultCollection, "collection to seed")
	cmd.Flags().StringVar(&prefix, "prefix", "", "prefix for the generated item ids")
	cmd.Flags().IntVar(&count, "count", 9, "number of items")
	return cmd
}
