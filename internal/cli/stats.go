package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdxmph/scheduler-tui/internal/progression"
	"github.com/pdxmph/scheduler-tui/internal/storage"
)

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show level, XP and rank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context(), cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer s.close()

			snap := s.planner.Snapshot()
			info := snap.Progress
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Account:   %s\n", snap.User.Email)
			fmt.Fprintf(out, "Level:     %d\n", info.Level)
			fmt.Fprintf(out, "XP:        %d (%.0f%% of level, %d to next)\n", info.XP, info.Percent, info.XPToNextLevel)
			if snap.Tier.IsZero() {
				fmt.Fprintf(out, "Rank:      Unranked (Bronze at level %d)\n", progression.Tiers[0].Threshold)
			} else {
				fmt.Fprintf(out, "Rank:      %s, %s\n", snap.Tier.Name, snap.Tier.Title)
			}
			fmt.Fprintf(out, "Completed: %d tasks\n", snap.Completed)
			fmt.Fprintf(out, "Theme:     %s\n", snap.Theme)
			return nil
		},
	}
}

func (a *app) backendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List available storage backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range storage.List() {
				marker := " "
				if a.cfg != nil && name == a.cfg.Storage.Backend {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\n", marker, name)
			}
			return nil
		},
	}
}
