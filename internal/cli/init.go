package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdxmph/scheduler-tui/internal/storage/sqlite"
)

func (a *app) initCmd() *cobra.Command {
	var fixtures bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the sqlite database",
		Long: `Create the sqlite database at the configured storage path.
With --fixtures the database is seeded with a demo account and a week of sample tasks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Storage.Backend != "sqlite" {
				return fmt.Errorf("init only applies to the sqlite backend (configured: %s)", a.cfg.Storage.Backend)
			}

			path := a.cfg.Storage.Path
			out := cmd.OutOrStdout()
			if fixtures {
				if err := sqlite.CreateFixturesDatabase(path); err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ Database with demo data created at %s\n", path)
				fmt.Fprintf(out, "  Log in as %s / %s\n", sqlite.FixtureEmail, sqlite.FixturePassword)
				return nil
			}

			if err := sqlite.Initialize(path); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Database created at %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fixtures, "fixtures", false, "Seed a demo account and sample tasks")
	return cmd
}
