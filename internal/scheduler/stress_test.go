package scheduler

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/blockd/internal/model"
)

// Concurrent resyncs of the same day must leave exactly one start and one
// end event per block.
func TestEngineStressConcurrentSync(t *testing.T) {
	engine := NewEngine(1024)
	engine.Start()
	defer engine.Stop()

	const blockCount = 40
	const workers = 8
	const syncsPerWorker = 25

	base := time.Now().Add(500 * time.Millisecond)
	blocks := make([]model.TimeBlock, 0, blockCount)
	for i := 0; i < blockCount; i++ {
		start := base.Add(time.Duration(i) * 5 * time.Millisecond)
		blocks = append(blocks, model.TimeBlock{
			ID:        fmt.Sprintf("b-%02d", i),
			StartTime: start,
			EndTime:   start.Add(20 * time.Millisecond),
			BlockType: model.BlockTypeResearch,
		})
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < syncsPerWorker; i++ {
				if _, err := engine.SyncBlocks(blocks); err != nil {
					t.Errorf("sync failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := len(engine.Pending()); got != 2*blockCount {
		t.Fatalf("expected %d pending events after resync, got %d", 2*blockCount, got)
	}

	seen := make(map[string]int)
	deadline := time.After(5 * time.Second)
	for len(seen) < 2*blockCount {
		select {
		case <-deadline:
			t.Fatalf("timeout waiting events: seen=%d dropped=%d", len(seen), engine.Dropped())
		case ev := <-engine.C():
			seen[ev.ID]++
		}
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("event %s delivered %d times", id, n)
		}
	}
	if engine.Dropped() != 0 {
		t.Fatalf("expected zero drops with active consumer, got=%d", engine.Dropped())
	}
}
