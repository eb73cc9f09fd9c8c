package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sandeepkv93/blockd/internal/recommend"
)

type decision struct {
	ID     string           `json:"id"`
	Status recommend.Status `json:"status"`
}

type stateFile struct {
	Decisions []decision `json:"decisions"`
}

func saveStatuses(path string, statuses map[string]recommend.Status) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	out := stateFile{Decisions: make([]decision, 0, len(statuses))}
	for id, status := range statuses {
		if strings.TrimSpace(id) == "" || status == recommend.StatusPending {
			continue
		}
		out.Decisions = append(out.Decisions, decision{ID: id, Status: status})
	}
	sort.Slice(out.Decisions, func(i, j int) bool { return out.Decisions[i].ID < out.Decisions[j].ID })
	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func loadStatuses(path string) (map[string]recommend.Status, error) {
	out := make(map[string]recommend.Status)
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return out, nil
	}
	raw, err := os.ReadFile(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, err
	}
	if strings.TrimSpace(string(raw)) == "" {
		return out, nil
	}
	var state stateFile
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	for _, d := range state.Decisions {
		if strings.TrimSpace(d.ID) == "" || !d.Status.IsValid() {
			continue
		}
		out[d.ID] = d.Status
	}
	return out, nil
}
