package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/blockd/internal/views"
)

func newPlanCmd(a *app) *cobra.Command {
	var raw bool
	var out string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the full plan for a day",
		Long:  `Show time blocks, conflicts, recommendations and productivity metrics for a day as a markdown report.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.plan(cmd.Context())
			if err != nil {
				return err
			}
			md := views.Markdown(plan)
			if out != "" {
				if err := os.WriteFile(out, []byte(md), 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				a.logger.Info("report written", "path", out)
				return nil
			}
			if raw {
				fmt.Fprint(cmd.OutOrStdout(), md)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), views.RenderMarkdown(md, 100))
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without rendering")
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the markdown report to a file")
	return cmd
}

func newRecommendCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "recommend",
		Aliases: []string{"rec"},
		Short:   "Rank what to work on next",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit > 0 {
				a.cfg.MaxRecommendations = limit
			}
			plan, err := a.plan(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), views.RenderRecommendationsPanel(plan.Recommendations, 0))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of recommendations")
	return cmd
}

func newConflictsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts",
		Short: "List scheduling conflicts for a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.plan(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), views.RenderConflictsPanel(plan.Conflicts))
			if plan.Conflicts.Skipped > 0 {
				a.logger.Warn("blocks skipped", "count", plan.Conflicts.Skipped)
			}
			return nil
		},
	}
}

func newMetricsCmd(a *app) *cobra.Command {
	var markdown bool
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show productivity metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.plan(cmd.Context())
			if err != nil {
				return err
			}
			if markdown {
				fmt.Fprint(cmd.OutOrStdout(), views.MetricsMarkdown(plan.Metrics))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), views.RenderMetricsPanel(plan.Metrics))
			return nil
		},
	}
	cmd.Flags().BoolVar(&markdown, "markdown", false, "print as markdown")
	return cmd
}
