package mappings

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

// Store persists confirmed title-to-ID resolutions as a sorted CSV table.
// Rows are kept sorted by name so diffs of the on-disk file stay stable.
// Not safe for concurrent writers; a run owns its mapping file exclusively.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a store backed by the given CSV file. The file is created
// on the first Add.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logging.NewComponentLogger(logger, "mappings"),
	}
}

// Lookup returns the identifier recorded for name, if any. The table is read
// in full on every call; at the expected scale (thousands of rows) this is
// cheaper than keeping state coherent across adds.
func (s *Store) Lookup(name string) (string, bool, error) {
	rows, err := s.read()
	if err != nil {
		return "", false, err
	}
	for _, row := range rows {
		if row[0] == name {
			s.logger.Debug("mapping found",
				logging.String(logging.FieldEntry, name),
				logging.String("mal_id", row[1]))
			return row[1], true, nil
		}
	}
	return "", false, nil
}

// Add records name → id and rewrites the table sorted by name. Adding a name
// that already exists overwrites its identifier; the table never holds
// duplicate names. Every Add is a durability point.
func (s *Store) Add(name, id string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("mapping name cannot be empty")
	}
	if strings.TrimSpace(id) == "" {
		return errors.New("mapping id cannot be empty")
	}

	rows, err := s.read()
	if err != nil {
		return err
	}

	replaced := false
	for i, row := range rows {
		if row[0] == name {
			rows[i] = []string{name, id}
			replaced = true
			break
		}
	}
	if !replaced {
		rows = append(rows, []string{name, id})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })

	if err := writeQuotedCSV(s.path, rows); err != nil {
		return fmt.Errorf("persist mappings: %w", err)
	}

	s.logger.Debug("mapping added",
		logging.String(logging.FieldEntry, name),
		logging.String("mal_id", id))
	return nil
}

// All returns every row as (name, id) pairs in on-disk order.
func (s *Store) All() ([][2]string, error) {
	rows, err := s.read()
	if err != nil {
		return nil, err
	}
	out := make([][2]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, [2]string{row[0], row[1]})
	}
	return out, nil
}

// Remove deletes the row for name if present.
func (s *Store) Remove(name string) error {
	rows, err := s.read()
	if err != nil {
		return err
	}
	kept := rows[:0]
	found := false
	for _, row := range rows {
		if row[0] == name {
			found = true
			continue
		}
		kept = append(kept, row)
	}
	if !found {
		return fmt.Errorf("mapping %q not found", name)
	}
	if err := writeQuotedCSV(s.path, kept); err != nil {
		return fmt.Errorf("persist mappings: %w", err)
	}
	return nil
}

func (s *Store) read() ([][]string, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open mapping file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse mapping file: %w", err)
	}

	rows := make([][]string, 0, len(records))
	for _, record := range records {
		if len(record) < 2 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		rows = append(rows, []string{record[0], record[1]})
	}
	return rows, nil
}

// writeQuotedCSV writes rows with every field quoted, matching the format of
// mapping files produced by earlier versions of the tool, and replaces the
// target atomically.
func writeQuotedCSV(path string, rows [][]string) error {
	var builder strings.Builder
	for _, row := range rows {
		for i, field := range row {
			if i > 0 {
				builder.WriteByte(',')
			}
			builder.WriteByte('"')
			builder.WriteString(strings.ReplaceAll(field, `"`, `""`))
			builder.WriteByte('"')
		}
		builder.WriteString("\r\n")
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(builder.String()), 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
