package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newApplyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <command>",
		Short: "Run a planner command against the current plan",
		Long: `Run one command against the plan for --date, for example:

  blockd apply accept 1
  blockd apply resolve 2
  blockd apply block 2026-03-02 14:00 15:00 GROWTH
  blockd apply assign <task-id> <block-id>
  blockd apply estimate <task-id> 2`,
		Args: cobra.MinimumNArgs(1),
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
			input := strings.Join(args, " ")
			res, err := s.Run(cmd.Context(), input)
			if err != nil {
				return err
			}
			a.logger.Debug("command applied", "input", input)
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
}
