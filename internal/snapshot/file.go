package snapshot

import (
	"fmt"
	"os"

	"github.com/sandeepkv93/blockd/internal/model"
)

// ReadFile decodes the export at path.
func ReadFile(path string, opts Options) (model.Snapshot, Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Snapshot{}, Report{}, fmt.Errorf("read snapshot: %w", err)
	}
	snap, report, err := Decode(data, opts)
	if err != nil {
		return model.Snapshot{}, Report{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return snap, report, nil
}
