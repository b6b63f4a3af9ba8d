// Command haulbook-admin runs maintenance tasks against the SQLite book.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"haulbook/internal/backend"
	"haulbook/internal/cli"
	"haulbook/internal/config"
	"haulbook/internal/log"
)

type rootOptions struct {
	dbPath  string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "haulbook-admin",
		Short:         "Maintenance commands for the haulbook database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (default: SQLITE_DB_PATH)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newMigrateCmd(opts))
	root.AddCommand(newSeedCmd(opts))
	root.AddCommand(newReconcileCmd(opts))
	return root
}

// resolveDB falls back to SQLITE_DB_PATH when --db is not given.
func (o *rootOptions) resolveDB() string {
	if o.dbPath != "" {
		return o.dbPath
	}
	return config.Load().SQLiteDBPath
}

func (o *rootOptions) logger() *log.Logger {
	lc := log.DefaultConfig()
	lc.Component = log.ComponentAdmin
	lc.Output = os.Stderr
	if o.verbose {
		lc.Level = log.ParseLevel("debug")
	}
	return log.New(lc)
}

// openBook opens the SQLite book without a broker; admin writes are not
// announced as ledger events.
func (o *rootOptions) openBook(ctx context.Context) (*backend.BackendResult, error) {
	return backend.NewFactory(o.logger().Logger).CreateBackend(ctx, backend.Config{
		Type:         backend.SQLiteBackend,
		SQLiteDBPath: o.resolveDB(),
	})
}

func main() {
	cli.LoadEnvFile()
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
