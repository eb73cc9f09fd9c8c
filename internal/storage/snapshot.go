package storage

import (
	"context"
	"fmt"

	"github.com/sandeepkv93/blockd/internal/model"
)

// LoadSnapshot reads every source record the planner computes over.
func (r *SQLiteRepository) LoadSnapshot(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot
	var err error
	if snap.Tasks, err = r.ListTasks(ctx, TaskListFilter{}); err != nil {
		return model.Snapshot{}, fmt.Errorf("load tasks: %w", err)
	}
	if snap.Blocks, err = r.ListBlocks(ctx, BlockListFilter{}); err != nil {
		return model.Snapshot{}, fmt.Errorf("load time blocks: %w", err)
	}
	if snap.Sessions, err = r.ListSessions(ctx, SessionListFilter{}); err != nil {
		return model.Snapshot{}, fmt.Errorf("load sessions: %w", err)
	}
	if snap.Categories, err = r.ListCategories(ctx); err != nil {
		return model.Snapshot{}, fmt.Errorf("load categories: %w", err)
	}
	if snap.Projects, err = r.ListProjects(ctx); err != nil {
		return model.Snapshot{}, fmt.Errorf("load projects: %w", err)
	}
	return snap, nil
}

// ImportSnapshot upserts every record in one transaction. Records that fail
// validation are skipped, not fatal. Block assignments come from both
// TimeBlock.ScheduledTasks and Task.ScheduledBlockID; the block list wins.
func (r *SQLiteRepository) ImportSnapshot(ctx context.Context, snap model.Snapshot) (ImportStats, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportStats{}, err
	}
	stats, err := importSnapshot(ctx, tx, snap)
	if err != nil {
		_ = tx.Rollback()
		return ImportStats{}, err
	}
	return stats, tx.Commit()
}

func importSnapshot(ctx context.Context, tx dbtx, snap model.Snapshot) (ImportStats, error) {
	var stats ImportStats
	for _, c := range snap.Categories {
		if c.ID == "" {
			continue
		}
		if err := upsertCategory(ctx, tx, c); err != nil {
			return stats, fmt.Errorf("import category %s: %w", c.ID, err)
		}
		stats.Categories++
	}
	for _, p := range snap.Projects {
		if p.ID == "" {
			continue
		}
		if err := upsertProject(ctx, tx, p); err != nil {
			return stats, fmt.Errorf("import project %s: %w", p.ID, err)
		}
		stats.Projects++
	}

	tasks := make(map[string]bool, len(snap.Tasks))
	for _, t := range snap.Tasks {
		if t.Validate() != nil {
			continue
		}
		if err := insertTask(ctx, tx, t, true); err != nil {
			return stats, fmt.Errorf("import task %s: %w", t.ID, err)
		}
		tasks[t.ID] = true
		stats.Tasks++
	}

	blocks := make(map[string]bool, len(snap.Blocks))
	for _, b := range snap.Blocks {
		if b.Validate() != nil {
			continue
		}
		if err := insertBlock(ctx, tx, b, true); err != nil {
			return stats, fmt.Errorf("import time block %s: %w", b.ID, err)
		}
		blocks[b.ID] = true
		stats.Blocks++
	}

	assigned := make(map[string]bool)
	for _, b := range snap.Blocks {
		if !blocks[b.ID] {
			continue
		}
		for _, t := range b.ScheduledTasks {
			if !tasks[t.ID] || assigned[t.ID] {
				continue
			}
			if err := assignTask(ctx, tx, t.ID, b.ID); err != nil {
				return stats, fmt.Errorf("assign task %s: %w", t.ID, err)
			}
			assigned[t.ID] = true
			stats.Assignments++
		}
	}
	for _, t := range snap.Tasks {
		if t.ScheduledBlockID == "" || !tasks[t.ID] || !blocks[t.ScheduledBlockID] || assigned[t.ID] {
			continue
		}
		if err := assignTask(ctx, tx, t.ID, t.ScheduledBlockID); err != nil {
			return stats, fmt.Errorf("assign task %s: %w", t.ID, err)
		}
		assigned[t.ID] = true
		stats.Assignments++
	}

	for _, s := range snap.Sessions {
		if s.Validate() != nil {
			continue
		}
		if err := insertSession(ctx, tx, s, true); err != nil {
			return stats, fmt.Errorf("import session %s: %w", s.ID, err)
		}
		stats.Sessions++
	}
	return stats, nil
}
