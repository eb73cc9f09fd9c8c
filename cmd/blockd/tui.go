package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/blockd/internal/scheduler"
	"github.com/sandeepkv93/blockd/internal/tui"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive planner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()

			s, err := a.session(cmd.Context(), repo)
			if err != nil {
				return err
			}
			if _, err := s.Refresh(cmd.Context()); err != nil {
				return err
			}

			engine := scheduler.NewEngine(a.cfg.SchedulerBuffer)
			engine.Start()
			defer engine.Stop()
			if err := engine.ScheduleRefresh(a.cfg.RefreshInterval); err != nil {
				return err
			}

			program := tea.NewProgram(tui.New(cmd.Context(), s, engine), tea.WithAltScreen())
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("tui: %w", err)
			}
			if engine.Dropped() > 0 {
				a.logger.Warn("scheduler dropped events", "count", engine.Dropped())
			}
			return nil
		},
	}
}
