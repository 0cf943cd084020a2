package malxml_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"anitransfer/internal/malxml"
	"anitransfer/internal/planet"
)

func ratingOf(value float64) *float64 {
	return &value
}

func TestFromEntryMapsFields(t *testing.T) {
	entry := planet.Entry{
		Name:      "Cowboy Bebop",
		Status:    planet.StatusWatched,
		Episodes:  26,
		Started:   "2021-01-02 00:00:00",
		Completed: "2021-02-03 00:00:00",
		Rating:    ratingOf(4.5),
		Times:     3,
	}

	record, err := malxml.FromEntry(entry, "1")
	if err != nil {
		t.Fatalf("FromEntry returned error: %v", err)
	}
	if record.SeriesAnimeDBID != "1" || record.SeriesTitle != "Cowboy Bebop" {
		t.Fatalf("unexpected identity fields: %+v", record)
	}
	if record.Status != "Completed" {
		t.Fatalf("Status = %q", record.Status)
	}
	if record.Score != 9 {
		t.Fatalf("Score = %d, want 9 (4.5 doubled)", record.Score)
	}
	if record.StartDate != "2021-01-02" || record.FinishDate != "2021-02-03" {
		t.Fatalf("unexpected dates: %q %q", record.StartDate, record.FinishDate)
	}
	// Total watch counts become rewatch counts.
	if record.TimesWatched != 2 {
		t.Fatalf("TimesWatched = %d, want 2", record.TimesWatched)
	}
}

func TestFromEntryDefaults(t *testing.T) {
	record, err := malxml.FromEntry(planet.Entry{Name: "X", Status: planet.StatusPlan}, "5")
	if err != nil {
		t.Fatalf("FromEntry returned error: %v", err)
	}
	if record.Score != 0 {
		t.Fatalf("Score = %d, want 0 without rating", record.Score)
	}
	if record.StartDate != "0000-00-00" || record.FinishDate != "0000-00-00" {
		t.Fatalf("unexpected default dates: %+v", record)
	}
	if record.TimesWatched != 0 {
		t.Fatalf("TimesWatched = %d, want 0", record.TimesWatched)
	}
	if record.Status != "Plan to Watch" {
		t.Fatalf("Status = %q", record.Status)
	}
}

func TestFromEntryRejectsUnsupportedStatus(t *testing.T) {
	if _, err := malxml.FromEntry(planet.Entry{Name: "X", Status: planet.StatusWontWatch}, "5"); err == nil {
		t.Fatal("expected error for unsupported status")
	}
}

func TestExporterWriteFile(t *testing.T) {
	exporter := malxml.NewExporter("testuser")
	if err := exporter.Add(planet.Entry{Name: "Cowboy Bebop", Status: planet.StatusWatched, Episodes: 26}, "1"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := exporter.Add(planet.Entry{Name: "Trigun", Status: planet.StatusWatching, Episodes: 4}, "6"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if exporter.Len() != 2 {
		t.Fatalf("Len = %d", exporter.Len())
	}

	path := filepath.Join(t.TempDir(), "out", "convert.xml")
	if err := exporter.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	content := string(data)
	for _, want := range []string{
		"<myanimelist>",
		"<user_name>testuser</user_name>",
		"<user_total_anime>2</user_total_anime>",
		"<series_animedb_id>1</series_animedb_id>",
		"<my_status>Watching</my_status>",
		"<my_watched_episodes>26</my_watched_episodes>",
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("export missing %q:\n%s", want, content)
		}
	}
	if !strings.HasPrefix(content, "<?xml") {
		t.Fatal("export missing XML declaration")
	}
}
