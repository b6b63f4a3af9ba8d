package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"haulbook/internal/services"
)

func newReconcileCmd(opts *rootOptions) *cobra.Command {
	var (
		repair bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare stored owner ledgers with a replay of trips and payments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			be, err := opts.openBook(ctx)
			if err != nil {
				return err
			}
			defer be.Close()

			drift, err := services.New(be.Repository, services.Options{}).Reconcile.Run(ctx, repair)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if drift == nil {
					drift = []services.OwnerDrift{}
				}
				return enc.Encode(drift)
			}
			if len(drift) == 0 {
				fmt.Fprintln(out, "all owner ledgers match")
				return nil
			}
			for _, d := range drift {
				state := "drifted"
				if d.Repaired {
					state = "repaired"
				}
				fmt.Fprintf(out, "%s (%s) %s: %s\n", d.OwnerName, d.OwnerID, state, strings.Join(d.Fields, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&repair, "repair", false, "Overwrite drifted ledgers with the replayed values")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the drift report as JSON")
	return cmd
}
