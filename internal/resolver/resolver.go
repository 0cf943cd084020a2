package resolver

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"anitransfer/internal/blacklist"
	"anitransfer/internal/logging"
	"anitransfer/internal/mappings"
	"anitransfer/internal/pacer"
	"anitransfer/internal/requestcache"
	"anitransfer/internal/resolver/jikan"
	"anitransfer/internal/services"
	"anitransfer/internal/stats"
)

// minQueryLength is the shortest title worth sending to the search endpoint;
// anything shorter returns far too much noise to match against.
const minQueryLength = 3

// SearchClient is the subset of the Jikan client the resolver depends on.
type SearchClient interface {
	Search(ctx context.Context, query string) (*jikan.Payload, error)
	Anime(ctx context.Context, id int64) (*jikan.Payload, error)
}

// Candidate is one tentative match returned by a search call. Candidates are
// transient; only the winning identifier is persisted.
type Candidate struct {
	ID           int64
	PrimaryTitle string
	Type         string
	Episodes     int
	URL          string
	ImageURL     string
}

// Reason classifies why a resolution produced no match.
type Reason string

const (
	ReasonTooShort    Reason = "title too short for search"
	ReasonBlacklisted Reason = "known non-mappable"
	ReasonNoResults   Reason = "no search results"
	ReasonNoMatch     Reason = "no confident automatic match"
	// ReasonLookupFailed marks entries whose lookups kept failing after all
	// retry passes. Assigned by the batch coordinator, never by Resolve.
	ReasonLookupFailed Reason = "lookup failed"
	// ReasonAborted marks entries left unreviewed when the operator quit
	// arbitration. Assigned by the batch coordinator, never by Resolve.
	ReasonAborted Reason = "arbitration aborted"
	// ReasonSkipped marks entries the operator declined to map.
	ReasonSkipped Reason = "skipped by operator"
)

// Result is the outcome of resolving one name. Either ID is set (matched) or
// Reason explains the miss. Candidates carry the ranked search results for
// the interactive fallback when automatic matching was inconclusive.
type Result struct {
	Name         string
	ID           string
	MatchedTitle string
	FromStore    bool
	Reason       Reason
	Candidates   []Candidate
}

// Matched reports whether the resolution produced an identifier.
func (r Result) Matched() bool {
	return r.ID != ""
}

// Resolver decides, for each input title, whether an identifier is already
// known, queries the external service under the rate budget when it is not,
// and disambiguates among candidates deterministically. It never persists
// matches itself; persistence is the caller's funnel so interactive and
// automatic confirmations take the same path.
type Resolver struct {
	client    SearchClient
	cache     *requestcache.Cache
	mappings  *mappings.Store
	blacklist *blacklist.List
	pacer     *pacer.Pacer
	stats     *stats.Stats
	logger    *slog.Logger
	attempts  int
}

// New creates a resolver. attempts bounds how many top-ranked candidates are
// evaluated for an automatic match; relevance ranking beyond that is noise.
func New(
	client SearchClient,
	cache *requestcache.Cache,
	store *mappings.Store,
	bl *blacklist.List,
	gate *pacer.Pacer,
	st *stats.Stats,
	logger *slog.Logger,
	attempts int,
) *Resolver {
	if attempts < 1 {
		attempts = 1
	}
	return &Resolver{
		client:    client,
		cache:     cache,
		mappings:  store,
		blacklist: bl,
		pacer:     gate,
		stats:     st,
		logger:    logging.NewComponentLogger(logger, "resolver"),
		attempts:  attempts,
	}
}

// Resolve maps a free-text title to a MAL identifier. The fast paths (length
// gate, blacklist, mapping store) never touch the network. A returned error
// tagged services.ErrTransient means the failure is retryable; any other
// error is a store or programming failure the caller should not retry.
func (r *Resolver) Resolve(ctx context.Context, name string) (Result, error) {
	logger := logging.WithContext(ctx, r.logger)

	if utf8.RuneCountInString(name) < minQueryLength {
		logger.Info("title too short for search", logging.String(logging.FieldEntry, name))
		return Result{Name: name, Reason: ReasonTooShort}, nil
	}

	if r.blacklist.Lookup(name) {
		return Result{Name: name, Reason: ReasonBlacklisted}, nil
	}

	if id, found, err := r.mappings.Lookup(name); err != nil {
		return Result{}, err
	} else if found {
		return Result{Name: name, ID: id, MatchedTitle: name, FromStore: true}, nil
	}

	// Search backends have a history of mishandling ampersands.
	normalized := strings.ReplaceAll(name, "&", "and")
	logger.Info("looking up title", logging.String(logging.FieldEntry, normalized))

	search, err := r.fetchSearch(ctx, name, normalized)
	if err != nil {
		return Result{}, err
	}

	if len(search.Data) == 0 {
		logger.Info("no search results", logging.String(logging.FieldEntry, name))
		return Result{Name: name, Reason: ReasonNoResults}, nil
	}

	candidates := make([]Candidate, 0, len(search.Data))
	for _, entry := range search.Data {
		candidates = append(candidates, Candidate{
			ID:           entry.MalID,
			PrimaryTitle: entry.Title,
			Type:         entry.Type,
			Episodes:     entry.Episodes,
			URL:          entry.URL,
			ImageURL:     entry.Images.JPG.ImageURL,
		})
	}

	matchIndex, err := r.verify(ctx, name, search.Data)
	if err != nil {
		return Result{}, err
	}
	if matchIndex < 0 {
		logger.Info("matching failed", logging.String(logging.FieldEntry, name))
		return Result{Name: name, Reason: ReasonNoMatch, Candidates: candidates}, nil
	}

	winner := search.Data[matchIndex]
	logger.Info("matched title",
		logging.String(logging.FieldEntry, name),
		logging.Int64("mal_id", winner.MalID),
		logging.String("mal_title", winner.Title))
	return Result{
		Name:         name,
		ID:           strconv.FormatInt(winner.MalID, 10),
		MatchedTitle: winner.Title,
		Candidates:   candidates,
	}, nil
}

// verify evaluates the top-ranked candidates for an exact title match and
// returns the winning index, or -1. Match priority is strictly candidate
// rank first, then title-field priority within a candidate (primary >
// English > German > synonym). The first satisfying pair wins.
func (r *Resolver) verify(ctx context.Context, name string, results []jikan.Anime) (int, error) {
	logger := logging.WithContext(ctx, r.logger)

	limit := min(r.attempts, len(results))
	for index := 0; index < limit; index++ {
		entry := results[index]
		if strings.EqualFold(name, entry.Title) {
			return index, nil
		}
		logger.Debug("trying to match",
			logging.String(logging.FieldEntry, name),
			logging.String("suggestion", entry.Title))

		detail, err := r.fetchDetail(ctx, entry.MalID)
		if err != nil {
			return -1, err
		}

		if titleMatches(name, detail.Data) {
			return index, nil
		}
	}
	return -1, nil
}

// titleMatches tests a candidate's alternate titles in field-priority order.
// The German title is only consulted when no English title exists, matching
// the candidate set's origin as an initially German catalog.
func titleMatches(name string, detail jikan.Anime) bool {
	if detail.TitleEnglish != "" {
		if strings.EqualFold(name, detail.TitleEnglish) {
			return true
		}
	} else if german := detail.LocalizedTitle("german"); german != "" {
		if strings.EqualFold(name, german) {
			return true
		}
	}
	for _, synonym := range detail.TitleSynonyms {
		if strings.EqualFold(name, synonym) {
			return true
		}
	}
	return false
}

// AlternateTitles returns the cached alternate titles for a candidate, used
// by the interactive fallback to describe a suggestion. Failures degrade to
// an empty list; arbitration can proceed on the primary title alone.
func (r *Resolver) AlternateTitles(ctx context.Context, candidate Candidate) []string {
	detail, err := r.fetchDetail(ctx, candidate.ID)
	if err != nil {
		return nil
	}
	titles := make([]string, 0, 1+len(detail.Data.TitleSynonyms))
	if detail.Data.TitleEnglish != "" {
		titles = append(titles, detail.Data.TitleEnglish)
	}
	titles = append(titles, detail.Data.TitleSynonyms...)
	return titles
}

func (r *Resolver) fetchSearch(ctx context.Context, name, normalized string) (*jikan.SearchResponse, error) {
	// Keyed by the raw name, not the normalized query: titles differing
	// only in "&" vs "and" cache separately. Existing cache files depend
	// on this keying.
	key := requestcache.StringKey(name)

	envelope, hit, err := r.cache.Lookup(requestcache.KindSearch, key)
	if err != nil {
		return nil, err
	}
	if hit {
		r.stats.Increment(stats.RequestsCached)
		return jikan.ParseSearch(envelope.Payload)
	}

	if err := r.pacer.Wait(ctx); err != nil {
		return nil, services.Wrap(services.ErrTransient, "resolver", "search", "interrupted while waiting for rate budget", err)
	}
	payload, err := r.client.Search(ctx, normalized)
	r.stats.Increment(stats.RequestsTotal)
	if err != nil {
		r.stats.Increment(stats.RequestsFailed)
		return nil, services.Wrap(services.ErrTransient, "resolver", "search", "Jikan search failed", err)
	}

	if err := r.cache.Store(requestcache.KindSearch, key, payload.Body, payload.ExpiresAt); err != nil {
		return nil, err
	}
	return jikan.ParseSearch(payload.Body)
}

func (r *Resolver) fetchDetail(ctx context.Context, id int64) (*jikan.DetailResponse, error) {
	key := requestcache.IDKey(id)

	envelope, hit, err := r.cache.Lookup(requestcache.KindDetail, key)
	if err != nil {
		return nil, err
	}
	if hit {
		r.stats.Increment(stats.RequestsCached)
		return jikan.ParseDetail(envelope.Payload)
	}

	if err := r.pacer.Wait(ctx); err != nil {
		return nil, services.Wrap(services.ErrTransient, "resolver", "detail", "interrupted while waiting for rate budget", err)
	}
	payload, err := r.client.Anime(ctx, id)
	r.stats.Increment(stats.RequestsTotal)
	if err != nil {
		r.stats.Increment(stats.RequestsFailed)
		return nil, services.Wrap(services.ErrTransient, "resolver", "detail", "Jikan detail fetch failed", err)
	}

	if err := r.cache.Store(requestcache.KindDetail, key, payload.Body, payload.ExpiresAt); err != nil {
		return nil, err
	}
	return jikan.ParseDetail(payload.Body)
}
