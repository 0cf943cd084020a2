package malxml

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"anitransfer/internal/planet"
	"anitransfer/internal/services"
)

// statusNames maps anime-planet watch states onto their myanimelist.net
// equivalents. "won't watch" has none and is filtered before export.
var statusNames = map[planet.Status]string{
	planet.StatusWatched:  "Completed",
	planet.StatusWatching: "Watching",
	planet.StatusPlan:     "Plan to Watch",
	planet.StatusStalled:  "On-Hold",
	planet.StatusDropped:  "Dropped",
}

const emptyDate = "0000-00-00"

// Record is one <anime> element of a MAL import file.
type Record struct {
	SeriesAnimeDBID string `xml:"series_animedb_id"`
	SeriesTitle     string `xml:"series_title"`
	WatchedEpisodes int    `xml:"my_watched_episodes"`
	StartDate       string `xml:"my_start_date"`
	FinishDate      string `xml:"my_finish_date"`
	Score           int    `xml:"my_score"`
	Status          string `xml:"my_status"`
	TimesWatched    int    `xml:"my_times_watched"`
}

type myinfo struct {
	UserName   string `xml:"user_name"`
	TotalAnime int    `xml:"user_total_anime"`
}

type document struct {
	XMLName xml.Name `xml:"myanimelist"`
	Info    myinfo   `xml:"myinfo"`
	Anime   []Record `xml:"anime"`
}

// FromEntry converts a resolved export entry into a MAL record. It rescales
// the 0.5-5 rating onto MAL's 1-10 scale and converts total watch counts to
// MAL's rewatch counts.
func FromEntry(entry planet.Entry, id string) (Record, error) {
	status, ok := statusNames[entry.Status]
	if !ok {
		return Record{}, services.Wrap(services.ErrUnsupportedKind, "malxml", "convert",
			fmt.Sprintf("status %q has no MAL equivalent", entry.Status), nil)
	}

	score := 0
	if entry.Rating != nil {
		score = int(*entry.Rating * 2)
	}

	rewatches := entry.Times
	if rewatches >= 1 {
		rewatches--
	}
	if rewatches < 0 {
		rewatches = 0
	}

	return Record{
		SeriesAnimeDBID: id,
		SeriesTitle:     entry.Name,
		WatchedEpisodes: entry.Episodes,
		StartDate:       fillDate(entry.Started),
		FinishDate:      fillDate(entry.Completed),
		Score:           score,
		Status:          status,
		TimesWatched:    rewatches,
	}, nil
}

// fillDate strips the time component from a site timestamp, defaulting to
// MAL's zero date.
func fillDate(date string) string {
	fields := strings.Fields(date)
	if len(fields) == 0 {
		return emptyDate
	}
	return fields[0]
}

// Exporter accumulates resolved records and renders them as a MAL XML
// import file.
type Exporter struct {
	username string
	records  []Record
}

// NewExporter creates an exporter for the given account name.
func NewExporter(username string) *Exporter {
	return &Exporter{username: username}
}

// Add appends one resolved entry.
func (e *Exporter) Add(entry planet.Entry, id string) error {
	record, err := FromEntry(entry, id)
	if err != nil {
		return err
	}
	e.records = append(e.records, record)
	return nil
}

// Len reports how many records the export holds.
func (e *Exporter) Len() int {
	return len(e.records)
}

// Render returns the XML document bytes.
func (e *Exporter) Render() ([]byte, error) {
	doc := document{
		Info:  myinfo{UserName: e.username, TotalAnime: len(e.records)},
		Anime: e.records,
	}
	body, err := xml.MarshalIndent(doc, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("render export: %w", err)
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

// WriteFile renders the export and writes it atomically.
func (e *Exporter) WriteFile(path string) error {
	data, err := e.Render()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalize export: %w", err)
	}
	return nil
}
