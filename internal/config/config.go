// Package config resolves runtime settings from defaults, an optional JSON
// file under the user's config directory, and BLOCKD_* environment
// variables, in that order.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/blockd/internal/conflict"
	"github.com/sandeepkv93/blockd/internal/metrics"
	"github.com/sandeepkv93/blockd/internal/model"
	"github.com/sandeepkv93/blockd/internal/planner"
	"github.com/sandeepkv93/blockd/internal/recommend"
)

const (
	appName    = "blockd"
	configFile = "config.json"
)

var ErrInvalidConfig = errors.New("config: invalid value")

type Config struct {
	DBPath             string
	LogLevel           string
	Timezone           string
	RefreshInterval    time.Duration
	SchedulerBuffer    int
	MaxRecommendations int
	MinScore           float64
	MaxTasksPerBlock   int
	ImportantKinds     []model.CategoryKind
	Window             metrics.Preset
}

func Default() Config {
	rec := recommend.DefaultConfig()
	return Config{
		DBPath:             defaultDBPath(),
		LogLevel:           "info",
		RefreshInterval:    time.Minute,
		SchedulerBuffer:    64,
		MaxRecommendations: rec.MaxRecommendations,
		MinScore:           rec.MinScore,
		MaxTasksPerBlock:   conflict.DefaultOptions().MaxTasksPerBlock,
		ImportantKinds:     rec.ImportantKinds,
		Window:             metrics.PresetWeek,
	}
}

// Load layers the config file at path (when it exists) and then the
// environment over the defaults. An empty path uses Path().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if p, err := Path(); err == nil {
			path = p
		}
	}
	if path != "" {
		var err error
		if cfg, err = FromFile(cfg, path); err != nil {
			return Config{}, err
		}
	}
	cfg = FromEnv(cfg)
	return cfg, cfg.Validate()
}

// Path is ~/.config/blockd/config.json.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, configFile), nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return appName + ".db"
	}
	return filepath.Join(home, ".local", "share", appName, appName+".db")
}

type fileConfig struct {
	DBPath             *string  `json:"db_path"`
	LogLevel           *string  `json:"log_level"`
	Timezone           *string  `json:"timezone"`
	RefreshInterval    *string  `json:"refresh_interval"`
	SchedulerBuffer    *int     `json:"scheduler_buffer"`
	MaxRecommendations *int     `json:"max_recommendations"`
	MinScore           *float64 `json:"min_score"`
	MaxTasksPerBlock   *int     `json:"max_tasks_per_block"`
	ImportantKinds     []string `json:"important_kinds"`
	Window             *string  `json:"window"`
}

// FromFile overlays the keys present in the file. A missing file is not
// an error.
func FromFile(base Config, path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return base, err
	}
	defer f.Close()

	var fc fileConfig
	if err := json.NewDecoder(f).Decode(&fc); err != nil {
		return base, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg := base
	if fc.DBPath != nil {
		cfg.DBPath = *fc.DBPath
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.Timezone != nil {
		cfg.Timezone = *fc.Timezone
	}
	if fc.RefreshInterval != nil {
		d, err := time.ParseDuration(*fc.RefreshInterval)
		if err != nil {
			return base, fmt.Errorf("%w: refresh_interval %q", ErrInvalidConfig, *fc.RefreshInterval)
		}
		cfg.RefreshInterval = d
	}
	if fc.SchedulerBuffer != nil {
		cfg.SchedulerBuffer = *fc.SchedulerBuffer
	}
	if fc.MaxRecommendations != nil {
		cfg.MaxRecommendations = *fc.MaxRecommendations
	}
	if fc.MinScore != nil {
		cfg.MinScore = *fc.MinScore
	}
	if fc.MaxTasksPerBlock != nil {
		cfg.MaxTasksPerBlock = *fc.MaxTasksPerBlock
	}
	if fc.ImportantKinds != nil {
		cfg.ImportantKinds = parseKinds(fc.ImportantKinds)
	}
	if fc.Window != nil {
		cfg.Window = metrics.Preset(*fc.Window)
	}
	return cfg, nil
}

// FromEnv ignores unset or unparsable variables.
func FromEnv(base Config) Config {
	cfg := base
	if v, ok := getEnvString("BLOCKD_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := getEnvString("BLOCKD_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := getEnvString("BLOCKD_TIMEZONE"); ok {
		cfg.Timezone = v
	}
	if v, ok := getEnvDuration("BLOCKD_REFRESH_INTERVAL"); ok && v > 0 {
		cfg.RefreshInterval = v
	}
	if v, ok := getEnvInt("BLOCKD_SCHEDULER_BUFFER"); ok && v > 0 {
		cfg.SchedulerBuffer = v
	}
	if v, ok := getEnvInt("BLOCKD_MAX_RECOMMENDATIONS"); ok && v > 0 {
		cfg.MaxRecommendations = v
	}
	if v, ok := getEnvFloat("BLOCKD_MIN_SCORE"); ok && v >= 0 {
		cfg.MinScore = v
	}
	if v, ok := getEnvInt("BLOCKD_MAX_TASKS_PER_BLOCK"); ok && v >= 0 {
		cfg.MaxTasksPerBlock = v
	}
	if v, ok := getEnvString("BLOCKD_IMPORTANT_KINDS"); ok {
		cfg.ImportantKinds = parseKinds(strings.Split(v, ","))
	}
	if v, ok := getEnvString("BLOCKD_WINDOW"); ok {
		if p, err := metrics.ParsePreset(v); err == nil {
			cfg.Window = p
		}
	}
	return cfg
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("%w: db path is empty", ErrInvalidConfig)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("%w: refresh interval %s", ErrInvalidConfig, c.RefreshInterval)
	}
	if c.MaxRecommendations <= 0 {
		return fmt.Errorf("%w: max recommendations %d", ErrInvalidConfig, c.MaxRecommendations)
	}
	if c.MinScore < 0 || c.MinScore > 1.2 {
		return fmt.Errorf("%w: min score %.2f", ErrInvalidConfig, c.MinScore)
	}
	if c.MaxTasksPerBlock < 0 {
		return fmt.Errorf("%w: max tasks per block %d", ErrInvalidConfig, c.MaxTasksPerBlock)
	}
	if !c.Window.IsValid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, metrics.ErrInvalidPreset, c.Window)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: timezone %q", ErrInvalidConfig, c.Timezone)
	}
	return nil
}

// Location resolves Timezone; empty means the local zone.
func (c Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c Config) Planner() planner.Config {
	pc := planner.DefaultConfig()
	pc.Recommend.MinScore = c.MinScore
	pc.Recommend.MaxRecommendations = c.MaxRecommendations
	pc.Recommend.ImportantKinds = c.ImportantKinds
	pc.Conflict.MaxTasksPerBlock = c.MaxTasksPerBlock
	return pc
}

func parseKinds(values []string) []model.CategoryKind {
	out := make([]model.CategoryKind, 0, len(values))
	for _, v := range values {
		k := model.CategoryKind(strings.ToLower(strings.TrimSpace(v)))
		if k.IsValid() {
			out = append(out, k)
		}
	}
	return out
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	return raw, raw != ""
}

func getEnvInt(name string) (int, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvFloat(name string) (float64, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvDuration(name string) (time.Duration, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return 0, false
	}
	if v, err := time.ParseDuration(raw); err == nil {
		return v, true
	}
	// bare numbers are seconds
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second, true
	}
	return 0, false
}
