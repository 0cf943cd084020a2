package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"anitransfer/internal/arbiter"
	"anitransfer/internal/blacklist"
	"anitransfer/internal/logging"
	"anitransfer/internal/mappings"
	"anitransfer/internal/planet"
	"anitransfer/internal/resolver"
	"anitransfer/internal/services"
	"anitransfer/internal/stats"
)

// Resolver is the lookup surface the coordinator drives. Satisfied by
// *resolver.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, name string) (resolver.Result, error)
	AlternateTitles(ctx context.Context, candidate resolver.Candidate) []string
}

// Resolution is one entry successfully mapped to an identifier.
type Resolution struct {
	Entry planet.Entry
	ID    string
}

// Miss is one entry that ends the run without an identifier.
type Miss struct {
	Entry  planet.Entry
	Reason resolver.Reason
}

// Report summarizes a batch run. Resolved and Unmatched preserve input
// order so repeated runs produce identical exports.
type Report struct {
	Resolved    []Resolution
	Unmatched   []Miss
	Unsupported []planet.Entry
	Aborted     bool
}

// Coordinator runs a watch list through resolution: bounded retry passes
// for transient failures, then interactive arbitration for everything the
// matcher could not decide. All confirmed matches, automatic and manual,
// are persisted through the same funnel so the next run takes the fast
// path.
type Coordinator struct {
	resolver  Resolver
	arbiter   arbiter.Arbiter
	mappings  *mappings.Store
	blacklist *blacklist.List
	stats     *stats.Stats
	logger    *slog.Logger
	maxPasses int
}

// New creates a coordinator. maxPasses bounds how often transiently failed
// entries are retried within one run.
func New(
	res Resolver,
	arb arbiter.Arbiter,
	store *mappings.Store,
	bl *blacklist.List,
	st *stats.Stats,
	logger *slog.Logger,
	maxPasses int,
) *Coordinator {
	if maxPasses < 1 {
		maxPasses = 1
	}
	return &Coordinator{
		resolver:  res,
		arbiter:   arb,
		mappings:  store,
		blacklist: bl,
		stats:     st,
		logger:    logging.NewComponentLogger(logger, "batch"),
		maxPasses: maxPasses,
	}
}

// item tracks one entry through the run. index is the entry's position in
// the input, used to restore input order in the report.
type item struct {
	index  int
	entry  planet.Entry
	result resolver.Result
}

// Run resolves all supported entries. It returns an error only for
// unrecoverable failures (store corruption, arbitration I/O); per-entry
// problems land in the report instead.
func (c *Coordinator) Run(ctx context.Context, entries []planet.Entry) (*Report, error) {
	logger := logging.WithContext(ctx, c.logger)
	report := &Report{}

	var pending []item
	for index, entry := range entries {
		c.stats.Increment(stats.EntriesProcessed)
		if !entry.Status.Supported() {
			logger.Info("skipping unsupported status",
				logging.String(logging.FieldEntry, entry.Name),
				logging.String(logging.FieldReason, string(entry.Status)))
			c.stats.Increment(stats.EntriesUnsupported)
			report.Unsupported = append(report.Unsupported, entry)
			continue
		}
		pending = append(pending, item{index: index, entry: entry})
	}

	var resolved []item
	var misses []item
	var review []item

	for pass := 1; len(pending) > 0; pass++ {
		logger.Info("resolution pass",
			logging.Int("pass", pass),
			logging.Int("pending", len(pending)))

		var retry []item
		for _, it := range pending {
			entryCtx := services.WithEntryName(ctx, it.entry.Name)
			result, err := c.resolver.Resolve(entryCtx, it.entry.Name)
			if err != nil {
				if !services.IsTransient(err) {
					return nil, err
				}
				logger.Warn("lookup failed, will retry",
					logging.String(logging.FieldEntry, it.entry.Name),
					logging.Error(err))
				retry = append(retry, it)
				continue
			}

			it.result = result
			switch {
			case result.Matched():
				if result.FromStore {
					c.stats.Increment(stats.MatchedByCache)
				} else {
					c.stats.Increment(stats.MatchedBySearch)
				}
				if err := c.saveMatch(it.entry.Name, result); err != nil {
					return nil, err
				}
				resolved = append(resolved, it)
			case result.Reason == resolver.ReasonBlacklisted:
				c.stats.Increment(stats.MatchedByBlacklist)
				misses = append(misses, it)
			case result.Reason == resolver.ReasonNoMatch && len(result.Candidates) > 0:
				review = append(review, it)
			default:
				misses = append(misses, it)
			}
		}

		// Every entry gets at least one retry; the no-progress guard only
		// short-circuits once a retry pass repeats the same failure set.
		if pass >= c.maxPasses || (pass > 1 && len(retry) == len(pending)) {
			for _, it := range retry {
				it.result = resolver.Result{Name: it.entry.Name, Reason: resolver.ReasonLookupFailed}
				misses = append(misses, it)
			}
			break
		}
		pending = retry
	}

	arbitrated, skipped, aborted, err := c.arbitrate(ctx, review)
	if err != nil {
		return nil, err
	}
	resolved = append(resolved, arbitrated...)
	misses = append(misses, skipped...)
	report.Aborted = aborted

	sort.Slice(resolved, func(i, j int) bool { return resolved[i].index < resolved[j].index })
	sort.Slice(misses, func(i, j int) bool { return misses[i].index < misses[j].index })

	for _, it := range resolved {
		report.Resolved = append(report.Resolved, Resolution{Entry: it.entry, ID: it.result.ID})
	}
	for _, it := range misses {
		c.stats.Increment(stats.EntriesUnmatched)
		report.Unmatched = append(report.Unmatched, Miss{Entry: it.entry, Reason: it.result.Reason})
	}
	return report, nil
}

// arbitrate walks the undecided entries through the operator. After an
// abort every remaining entry stays unmatched; earlier decisions are kept.
func (c *Coordinator) arbitrate(ctx context.Context, review []item) (resolved, misses []item, aborted bool, err error) {
	for _, it := range review {
		if aborted {
			it.result.Reason = resolver.ReasonAborted
			misses = append(misses, it)
			continue
		}

		outcome, quit, err := c.reviewOne(ctx, it)
		if err != nil {
			return nil, nil, false, err
		}
		aborted = aborted || quit
		it.result = outcome
		if outcome.Matched() {
			if err := c.saveMatch(it.entry.Name, outcome); err != nil {
				return nil, nil, false, err
			}
			resolved = append(resolved, it)
		} else {
			misses = append(misses, it)
		}
	}
	return resolved, misses, aborted, nil
}

// reviewOne applies the two-step review to a single entry and folds the
// verdicts into a resolver.Result. quit reports an operator abort.
func (c *Coordinator) reviewOne(ctx context.Context, it item) (result resolver.Result, quit bool, err error) {
	name := it.entry.Name
	best := it.result.Candidates[0]
	titles := c.resolver.AlternateTitles(ctx, best)

	verdict, err := c.arbiter.ReviewSuggestion(ctx, name, best, titles)
	if err != nil {
		return resolver.Result{}, false, fmt.Errorf("review suggestion for %q: %w", name, err)
	}
	if verdict.Decision == arbiter.DecisionReject {
		verdict, err = c.arbiter.ReviewCandidates(ctx, name, it.result.Candidates)
		if err != nil {
			return resolver.Result{}, false, fmt.Errorf("review candidates for %q: %w", name, err)
		}
	}

	result = it.result
	switch verdict.Decision {
	case arbiter.DecisionAccept:
		c.stats.Increment(stats.MatchedManually)
		return matchOf(result, best), false, nil
	case arbiter.DecisionSelect:
		if verdict.Index < 0 || verdict.Index >= len(result.Candidates) {
			result.Reason = resolver.ReasonSkipped
			return result, false, nil
		}
		c.stats.Increment(stats.MatchedManually)
		return matchOf(result, result.Candidates[verdict.Index]), false, nil
	case arbiter.DecisionManualID:
		c.stats.Increment(stats.EntriesAddedManually)
		result.ID = verdict.ID
		result.MatchedTitle = name
		result.Reason = ""
		return result, false, nil
	case arbiter.DecisionBlacklist:
		c.blacklist.Add(name)
		c.stats.Increment(stats.MatchedByBlacklist)
		result.Reason = resolver.ReasonBlacklisted
		return result, false, nil
	case arbiter.DecisionAbort:
		result.Reason = resolver.ReasonAborted
		return result, true, nil
	default:
		result.Reason = resolver.ReasonSkipped
		return result, false, nil
	}
}

// matchOf turns a reviewed candidate into a matched result.
func matchOf(result resolver.Result, candidate resolver.Candidate) resolver.Result {
	result.ID = strconv.FormatInt(candidate.ID, 10)
	result.MatchedTitle = candidate.PrimaryTitle
	result.Reason = ""
	return result
}

// saveMatch is the single persistence funnel for confirmed matches. Store
// hits are already persisted; everything else is written back so the next
// run resolves instantly.
func (c *Coordinator) saveMatch(name string, result resolver.Result) error {
	if result.FromStore {
		return nil
	}
	return c.mappings.Add(name, result.ID)
}
