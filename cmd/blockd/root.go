package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/blockd/internal/config"
	"github.com/sandeepkv93/blockd/internal/metrics"
	"github.com/sandeepkv93/blockd/internal/planner"
	"github.com/sandeepkv93/blockd/internal/session"
	"github.com/sandeepkv93/blockd/internal/storage"
)

// app carries what every subcommand needs once flags and config are read.
type app struct {
	now        func() time.Time
	configPath string
	dbPath     string
	dateFlag   string
	rangeFlag  string
	verbose    bool

	cfg    config.Config
	loc    *time.Location
	logger *log.Logger
}

func newRootCmd(now func() time.Time) *cobra.Command {
	a := &app{now: now}
	root := &cobra.Command{
		Use:           "blockd",
		Short:         "Plan your day in time blocks",
		Long:          `blockd checks time blocks for conflicts, recommends what to work on next and tracks productivity.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.config/blockd/config.json)")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path")
	root.PersistentFlags().StringVar(&a.dateFlag, "date", "", "day to plan, YYYY-MM-DD (default today)")
	root.PersistentFlags().StringVar(&a.rangeFlag, "range", "", "metrics range: today, 7d, 30d, quarter or all")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newPlanCmd(a),
		newRecommendCmd(a),
		newConflictsCmd(a),
		newMetricsCmd(a),
		newImportCmd(a),
		newApplyCmd(a),
		newTUICmd(a),
	)
	return root
}

func (a *app) setup(stderr io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	if a.rangeFlag != "" {
		preset, err := metrics.ParsePreset(a.rangeFlag)
		if err != nil {
			return err
		}
		cfg.Window = preset
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	a.cfg, a.loc = cfg, loc

	a.logger = log.NewWithOptions(stderr, log.Options{Prefix: "blockd", ReportTimestamp: true})
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	if a.verbose {
		level = log.DebugLevel
	}
	a.logger.SetLevel(level)
	a.logger.Debug("config loaded", "db", cfg.DBPath, "window", cfg.Window, "timezone", loc)
	return nil
}

func (a *app) openRepo() (*storage.SQLiteRepository, error) {
	if dir := filepath.Dir(a.cfg.DBPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	repo, err := storage.OpenSQLite(a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return repo.WithLocation(a.loc), nil
}

func (a *app) statePath() string {
	return filepath.Join(filepath.Dir(a.cfg.DBPath), "decisions.json")
}

// date is the --date flag in the configured zone, or today.
func (a *app) date() (time.Time, error) {
	if strings.TrimSpace(a.dateFlag) == "" {
		return a.now().In(a.loc), nil
	}
	day, err := time.ParseInLocation("2006-01-02", a.dateFlag, a.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: %w", a.dateFlag, err)
	}
	return day, nil
}

func (a *app) planner() *planner.Planner {
	return planner.New(a.cfg.Planner())
}

// plan loads the database and computes the plan for --date, with saved
// accept and ignore decisions applied.
func (a *app) plan(ctx context.Context) (planner.Plan, error) {
	repo, err := a.openRepo()
	if err != nil {
		return planner.Plan{}, err
	}
	defer repo.Close()

	s, err := a.session(ctx, repo)
	if err != nil {
		return planner.Plan{}, err
	}
	plan, err := s.Refresh(ctx)
	if err != nil {
		return planner.Plan{}, err
	}
	a.logger.Debug("plan computed",
		"date", plan.Date.Format("2006-01-02"),
		"blocks", len(plan.Blocks),
		"conflicts", len(plan.Conflicts.Conflicts),
		"recommendations", len(plan.Recommendations.Items),
	)
	return plan, nil
}

func (a *app) session(ctx context.Context, repo *storage.SQLiteRepository) (*session.Session, error) {
	date, err := a.date()
	if err != nil {
		return nil, err
	}
	return session.New(a.planner(), repo, storage.NewApplier(repo).Handlers(ctx), session.Options{
		Location:  a.loc,
		Now:       a.now,
		Date:      date,
		Window:    metrics.PresetWindow(a.cfg.Window),
		StatePath: a.statePath(),
	})
}
