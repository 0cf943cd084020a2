package stats

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type summaryRow struct {
	section string
	action  string
	counter Counter
}

// Rows are grouped the way the end-of-run report presents them; counters not
// listed here (if any are ever added) still show up in Snapshot.
var summaryRows = []summaryRow{
	{"Entries", "processed", EntriesProcessed},
	{"Entries", "unmatched", EntriesUnmatched},
	{"Entries", "dropped due to unsupported status", EntriesUnsupported},
	{"Entries", "added manually", EntriesAddedManually},
	{"Matches", "matched via search", MatchedBySearch},
	{"Matches", "matched via cache", MatchedByCache},
	{"Matches", "excluded via blacklist", MatchedByBlacklist},
	{"Matches", "matched manually", MatchedManually},
	{"Requests", "requests made", RequestsTotal},
	{"Requests", "requests skipped due to cache", RequestsCached},
	{"Requests", "requests failed", RequestsFailed},
	{"Time", "spent waiting (ms)", MillisWaiting},
}

// Summary renders the end-of-run counter report as a table.
func (s *Stats) Summary() string {
	snapshot := s.Snapshot()

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("anitransfer summary")
	tw.AppendHeader(table.Row{"Section", "Action", "Count"})
	for _, row := range summaryRows {
		tw.AppendRow(table.Row{row.section, row.action, strconv.FormatInt(snapshot[row.counter], 10)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
