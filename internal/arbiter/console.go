package arbiter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"anitransfer/internal/resolver"
)

// Console arbitrates on a terminal. It renders candidates as tables and
// reads single-line answers; EOF on the input is treated as an abort so a
// closed stdin cannot wedge a run.
type Console struct {
	in         *bufio.Reader
	out        io.Writer
	maxChoices int
	exhausted  bool
}

// NewConsole creates a terminal arbiter. maxChoices bounds how many
// candidates the shortlist shows.
func NewConsole(in io.Reader, out io.Writer, maxChoices int) *Console {
	if maxChoices < 1 {
		maxChoices = 1
	}
	return &Console{
		in:         bufio.NewReader(in),
		out:        out,
		maxChoices: maxChoices,
	}
}

func (c *Console) ReviewSuggestion(ctx context.Context, name string, best resolver.Candidate, altTitles []string) (Verdict, error) {
	fmt.Fprintf(c.out, "\nNo exact match for %q. Best suggestion:\n", name)
	c.renderCandidates([]resolver.Candidate{best}, false)
	if len(altTitles) > 0 {
		fmt.Fprintf(c.out, "Also known as: %s\n", strings.Join(altTitles, ", "))
	}

	for {
		answer, err := c.prompt(ctx, "Accept this match? [y]es, [n]o, [b]ad (never map), [s]kip, [q]uit: ")
		if err != nil {
			return Verdict{}, err
		}
		switch answer {
		case "y", "yes":
			return Verdict{Decision: DecisionAccept}, nil
		case "n", "no":
			return Verdict{Decision: DecisionReject}, nil
		case "b", "bad":
			return Verdict{Decision: DecisionBlacklist}, nil
		case "s", "skip":
			return Verdict{Decision: DecisionSkip}, nil
		case "q", "quit":
			return Verdict{Decision: DecisionAbort}, nil
		}
		fmt.Fprintln(c.out, "Please answer y, n, b, s or q.")
	}
}

func (c *Console) ReviewCandidates(ctx context.Context, name string, candidates []resolver.Candidate) (Verdict, error) {
	shown := candidates
	if len(shown) > c.maxChoices {
		shown = shown[:c.maxChoices]
	}

	fmt.Fprintf(c.out, "\nCandidates for %q:\n", name)
	c.renderCandidates(shown, true)

	for {
		answer, err := c.prompt(ctx, fmt.Sprintf("Select 1-%d, [m]anual id, [b]ad (never map), [s]kip, [q]uit: ", len(shown)))
		if err != nil {
			return Verdict{}, err
		}
		switch answer {
		case "m", "manual":
			id, err := c.promptRaw(ctx, "Enter MyAnimeList id: ")
			if err != nil {
				return Verdict{}, err
			}
			if id == "" {
				fmt.Fprintln(c.out, "Id must not be empty.")
				continue
			}
			return Verdict{Decision: DecisionManualID, ID: id}, nil
		case "b", "bad":
			return Verdict{Decision: DecisionBlacklist}, nil
		case "s", "skip":
			return Verdict{Decision: DecisionSkip}, nil
		case "q", "quit":
			return Verdict{Decision: DecisionAbort}, nil
		}
		if index, err := strconv.Atoi(answer); err == nil && index >= 1 && index <= len(shown) {
			return Verdict{Decision: DecisionSelect, Index: index - 1}, nil
		}
		fmt.Fprintf(c.out, "Please answer 1-%d, m, b, s or q.\n", len(shown))
	}
}

func (c *Console) renderCandidates(candidates []resolver.Candidate, numbered bool) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := table.Row{"MAL ID", "Title", "Type", "Episodes", "URL"}
	if numbered {
		header = append(table.Row{"#"}, header...)
	}
	tw.AppendHeader(header)

	for i, candidate := range candidates {
		row := table.Row{candidate.ID, candidate.PrimaryTitle, candidate.Type, candidate.Episodes, candidate.URL}
		if numbered {
			row = append(table.Row{i + 1}, row...)
		}
		tw.AppendRow(row)
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "MAL ID", Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Name: "Episodes", Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	fmt.Fprintln(c.out, tw.Render())
}

// prompt reads one menu answer, lowercased. EOF maps to "q" so a closed
// input aborts instead of looping forever.
func (c *Console) prompt(ctx context.Context, question string) (string, error) {
	line, err := c.promptRaw(ctx, question)
	if err != nil {
		return "", err
	}
	if line == "" && c.exhausted {
		return "q", nil
	}
	return strings.ToLower(line), nil
}

// promptRaw reads one trimmed line verbatim; operator-supplied identifiers
// must not be case-folded.
func (c *Console) promptRaw(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(c.out, question)
	line, err := c.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read answer: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			c.exhausted = true
		}
	}
	return strings.TrimSpace(line), nil
}
