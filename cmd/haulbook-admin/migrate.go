package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"haulbook/internal/storage"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.resolveDB()
			if err := storage.RunMigrations(path); err != nil {
				return err
			}
			version, dirty, err := storage.MigrationVersion(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t) at %s\n", version, dirty, path)
			return nil
		},
	}
}
