package arbiter

import (
	"context"

	"anitransfer/internal/resolver"
)

// Decision is the operator's ruling on an unresolved title.
type Decision int

const (
	// DecisionSkip leaves the title unmatched for this run.
	DecisionSkip Decision = iota
	// DecisionAccept confirms the offered candidate.
	DecisionAccept
	// DecisionSelect picks a candidate by index from the shortlist.
	DecisionSelect
	// DecisionManualID supplies an identifier by hand.
	DecisionManualID
	// DecisionBlacklist marks the title as permanently non-mappable.
	DecisionBlacklist
	// DecisionReject declines the single suggestion; escalate to the list.
	DecisionReject
	// DecisionAbort stops arbitration for the rest of the run.
	DecisionAbort
)

// Verdict carries a decision plus its argument: Index for DecisionSelect,
// ID for DecisionManualID.
type Verdict struct {
	Decision Decision
	Index    int
	ID       string
}

// Arbiter resolves titles the automatic matcher could not. ReviewSuggestion
// offers the single best candidate; on rejection the caller escalates to
// ReviewCandidates with the full shortlist. Implementations must return
// DecisionAbort when the operator wants out, never an error for that.
type Arbiter interface {
	ReviewSuggestion(ctx context.Context, name string, best resolver.Candidate, altTitles []string) (Verdict, error)
	ReviewCandidates(ctx context.Context, name string, candidates []resolver.Candidate) (Verdict, error)
}

// Noop is the non-interactive arbiter: every title stays unmatched. Used
// when stdin is not a terminal or the operator asked for a hands-off run.
type Noop struct{}

func (Noop) ReviewSuggestion(context.Context, string, resolver.Candidate, []string) (Verdict, error) {
	return Verdict{Decision: DecisionSkip}, nil
}

func (Noop) ReviewCandidates(context.Context, string, []resolver.Candidate) (Verdict, error) {
	return Verdict{Decision: DecisionSkip}, nil
}
