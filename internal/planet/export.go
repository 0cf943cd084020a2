package planet

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Status enumerates the watch states used by anime-planet.com exports.
type Status string

const (
	StatusWatched   Status = "watched"
	StatusWatching  Status = "watching"
	StatusPlan      Status = "want to watch"
	StatusStalled   Status = "stalled"
	StatusDropped   Status = "dropped"
	StatusWontWatch Status = "won't watch"
)

// Supported reports whether entries with this status are carried into the export.
func (s Status) Supported() bool {
	return s != StatusWontWatch
}

// Entry is one record from an anime-planet.com export. Entries are immutable
// inputs; resolution results are tracked separately.
type Entry struct {
	Name      string   `json:"name"`
	Status    Status   `json:"status"`
	Episodes  int      `json:"eps"`
	Started   string   `json:"started"`
	Completed string   `json:"completed"`
	Rating    *float64 `json:"rating"`
	Times     int      `json:"times"`
}

// Export is the top-level structure of an anime-planet.com JSON export.
type Export struct {
	User struct {
		Name string `json:"name"`
	} `json:"user"`
	Entries []Entry `json:"entries"`
}

// Load parses an anime-planet.com export file.
func Load(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}

	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}

	entries := export.Entries[:0]
	for _, entry := range export.Entries {
		if strings.TrimSpace(entry.Name) == "" {
			continue
		}
		entries = append(entries, entry)
	}
	export.Entries = entries

	return &export, nil
}
