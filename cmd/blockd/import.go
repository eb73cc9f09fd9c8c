package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/blockd/internal/snapshot"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <export.json>",
		Short: "Import tasks, time blocks and sessions from a JSON export",
		Long: `Import a JSON export with tasks, time_blocks, pomodoro_sessions, categories
and projects arrays. Records with unreadable timestamps or values are skipped.
Importing the same file again updates records in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, report, err := snapshot.ReadFile(args[0], snapshot.Options{Location: a.loc})
			if err != nil {
				return err
			}
			for kind, n := range report.Skipped {
				a.logger.Warn("skipped records", "kind", kind, "count", n)
			}

			repo, err := a.openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()

			stats, err := repo.ImportSnapshot(cmd.Context(), snap)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			a.logger.Info("import finished", "tasks", stats.Tasks, "blocks", stats.Blocks, "sessions", stats.Sessions)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d task(s), %d block(s), %d session(s), %d categor(ies), %d project(s), %d assignment(s); skipped %d\n",
				stats.Tasks, stats.Blocks, stats.Sessions, stats.Categories, stats.Projects, stats.Assignments, report.SkippedTotal())
			return nil
		},
	}
}
