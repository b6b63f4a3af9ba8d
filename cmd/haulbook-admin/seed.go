package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"haulbook/internal/seed"
	"haulbook/internal/services"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the book with fixture data",
		Long: `Empties every collection and loads fixtures from a YAML file, or the
built-in demo data when --file is not given. Owner ledgers are replayed
afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fixtures, err := loadFixtures(file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			be, err := opts.openBook(ctx)
			if err != nil {
				return err
			}
			defer be.Close()

			n, err := seed.Apply(ctx, be.Repository, fixtures)
			if err != nil {
				return fmt.Errorf("apply fixtures: %w", err)
			}
			drift, err := services.New(be.Repository, services.Options{}).Reconcile.Run(ctx, true)
			if err != nil {
				return fmt.Errorf("replay owner ledgers: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "seeded %d documents: %d parties, %d brokers, %d owners, %d trips, %d payments, %d labours, %d product receives\n",
				n.Total(), n.Parties, n.Brokers, n.Owners, n.Trips, n.Payments, n.Labours, n.ProductReceives)
			fmt.Fprintf(out, "owner ledgers replayed: %d\n", len(drift))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML fixtures file")
	return cmd
}

func loadFixtures(path string) (*seed.Fixtures, error) {
	if path == "" {
		return seed.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return seed.Parse(data)
}
