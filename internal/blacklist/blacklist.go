package blacklist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"

	"anitransfer/internal/logging"
)

// List holds titles known to have no valid target in the external catalog.
// It is acquired as a scoped resource: Open loads the file once, lookups and
// adds run against memory, and Close persists the sorted result. This bounds
// I/O to one read and one write per batch.
type List struct {
	path   string
	logger *slog.Logger
	names  map[string]struct{}
	dirty  bool
	closed bool
}

// Open loads the blacklist file. A missing file yields an empty list.
func Open(path string, logger *slog.Logger) (*List, error) {
	l := &List{
		path:   path,
		logger: logging.NewComponentLogger(logger, "blacklist"),
		names:  make(map[string]struct{}),
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return l, nil
		}
		return nil, fmt.Errorf("open blacklist: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse blacklist: %w", err)
	}
	for _, record := range records {
		if len(record) == 0 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		l.names[record[0]] = struct{}{}
	}

	return l, nil
}

// Lookup reports whether name is blacklisted.
func (l *List) Lookup(name string) bool {
	_, found := l.names[name]
	if found {
		l.logger.Debug("blacklist hit", logging.String(logging.FieldEntry, name))
	}
	return found
}

// Add records name as non-mappable. The addition becomes durable when Close
// persists the list.
func (l *List) Add(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if _, exists := l.names[name]; exists {
		return
	}
	l.names[name] = struct{}{}
	l.dirty = true
	l.logger.Debug("blacklist entry added", logging.String(logging.FieldEntry, name))
}

// Len returns the number of blacklisted titles.
func (l *List) Len() int {
	return len(l.names)
}

// Close persists the list, sorted, if it changed since Open.
func (l *List) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	if !l.dirty {
		return nil
	}

	names := make([]string, 0, len(l.names))
	for name := range l.names {
		names = append(names, name)
	}
	sort.Strings(names)

	var builder strings.Builder
	for _, name := range names {
		builder.WriteByte('"')
		builder.WriteString(strings.ReplaceAll(name, `"`, `""`))
		builder.WriteString("\"\r\n")
	}

	tmpPath := l.path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(builder.String()), 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
