// Package stats keeps a JSONL history of script replays.
package stats

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/msalah0e/nodecanvas/internal/config"
)

// Entry is one replayed script.
type Entry struct {
	Timestamp  time.Time `json:"ts"`
	Script     string    `json:"script"`
	Path       string    `json:"path,omitempty"`
	Frames     int       `json:"frames"`
	Mismatches int       `json:"mismatches,omitempty"`
	OK         bool      `json:"ok"`
	Elapsed    float64   `json:"elapsed_ms,omitempty"`
}

// Summary holds aggregated replay history.
type Summary struct {
	TotalRuns int
	Passed    int
	Failed    int
	Frames    int
	Scripts   int
	LastRun   time.Time

	// Unstable lists scripts that have both passed and failed.
	Unstable []string
}

func historyPath() string {
	return filepath.Join(config.ConfigDir(), "replays.jsonl")
}

// Record appends an entry to the history file.
func Record(e Entry) error {
	path := historyPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return json.NewEncoder(f).Encode(e)
}

// Summarize reads history and returns aggregated stats. Reading stops at
// the first corrupt line.
func Summarize() (*Summary, error) {
	path := historyPath()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Summary{}, nil
		}
		return nil, err
	}
	defer f.Close()

	s := &Summary{}
	outcomes := make(map[string][2]bool) // script -> passed, failed
	dec := json.NewDecoder(f)
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			break
		}
		s.TotalRuns++
		s.Frames += e.Frames
		if e.Timestamp.After(s.LastRun) {
			s.LastRun = e.Timestamp
		}
		o := outcomes[e.Script]
		if e.OK {
			s.Passed++
			o[0] = true
		} else {
			s.Failed++
			o[1] = true
		}
		outcomes[e.Script] = o
	}
	s.Scripts = len(outcomes)
	for name, o := range outcomes {
		if o[0] && o[1] {
			s.Unstable = append(s.Unstable, name)
		}
	}
	sort.Strings(s.Unstable)
	return s, nil
}
