package scheduler

import (
	"strings"
	"time"

	"github.com/sandeepkv93/blockd/internal/model"
)

const (
	refreshEventID   = "refresh"
	blockEventPrefix = "block:"
)

// ScheduleRefresh arms the periodic refresh, first firing one interval
// from now.
func (e *Engine) ScheduleRefresh(every time.Duration) error {
	if every <= 0 {
		return ErrInvalidTriggerTime
	}
	return e.Schedule(Event{ID: refreshEventID, Kind: KindRefresh, At: e.now().Add(every), Every: every})
}

// SyncBlocks replaces the pending block events with start and end events
// for the blocks that have not ended yet. It returns how many were queued.
func (e *Engine) SyncBlocks(blocks []model.TimeBlock) (int, error) {
	for _, id := range e.Pending() {
		if strings.HasPrefix(id, blockEventPrefix) {
			e.Cancel(id)
		}
	}

	now := e.now()
	queued := 0
	for _, b := range blocks {
		if !b.Valid() || !b.EndTime.After(now) {
			continue
		}
		if b.StartTime.After(now) {
			if err := e.Schedule(Event{ID: blockEventPrefix + b.ID + ":start", Kind: KindBlockStart, BlockID: b.ID, At: b.StartTime}); err != nil {
				return queued, err
			}
			queued++
		}
		if err := e.Schedule(Event{ID: blockEventPrefix + b.ID + ":end", Kind: KindBlockEnd, BlockID: b.ID, At: b.EndTime}); err != nil {
			return queued, err
		}
		queued++
	}
	return queued, nil
}
