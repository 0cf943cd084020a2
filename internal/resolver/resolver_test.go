package resolver_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"anitransfer/internal/blacklist"
	"anitransfer/internal/logging"
	"anitransfer/internal/mappings"
	"anitransfer/internal/pacer"
	"anitransfer/internal/requestcache"
	"anitransfer/internal/resolver"
	"anitransfer/internal/resolver/jikan"
	"anitransfer/internal/services"
	"anitransfer/internal/stats"
)

type fakeClient struct {
	searches    map[string][]byte
	details     map[int64][]byte
	searchErr   error
	detailErr   error
	searchCalls int
	detailCalls int
}

func (f *fakeClient) Search(_ context.Context, query string) (*jikan.Payload, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	body, ok := f.searches[query]
	if !ok {
		return nil, fmt.Errorf("unexpected search query %q", query)
	}
	return &jikan.Payload{Body: body}, nil
}

func (f *fakeClient) Anime(_ context.Context, id int64) (*jikan.Payload, error) {
	f.detailCalls++
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	body, ok := f.details[id]
	if !ok {
		return nil, fmt.Errorf("unexpected detail fetch for id %d", id)
	}
	return &jikan.Payload{Body: body}, nil
}

type harness struct {
	resolver  *resolver.Resolver
	client    *fakeClient
	mappings  *mappings.Store
	blacklist *blacklist.List
	stats     *stats.Stats
	cacheDir  string
}

func newHarness(t *testing.T, client *fakeClient, attempts int) *harness {
	t.Helper()
	dir := t.TempDir()
	logger := logging.NewNop()
	st := stats.New()

	cache := requestcache.New(filepath.Join(dir, "cache"), true, logger)
	store := mappings.NewStore(filepath.Join(dir, "cache.csv"), logger)
	bl, err := blacklist.Open(filepath.Join(dir, "bad.csv"), logger)
	if err != nil {
		t.Fatalf("open blacklist: %v", err)
	}
	t.Cleanup(func() { _ = bl.Close() })

	gate := pacer.New(0, logger, st)
	return &harness{
		resolver:  resolver.New(client, cache, store, bl, gate, st, logger, attempts),
		client:    client,
		mappings:  store,
		blacklist: bl,
		stats:     st,
		cacheDir:  filepath.Join(dir, "cache"),
	}
}

func searchBody(entries ...string) []byte {
	out := `{"data":[`
	for i, entry := range entries {
		if i > 0 {
			out += ","
		}
		out += entry
	}
	return []byte(out + `]}`)
}

func TestResolveShortTitleSkipsSearch(t *testing.T) {
	h := newHarness(t, &fakeClient{}, 2)

	result, err := h.resolver.Resolve(context.Background(), "Yu")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.Matched() || result.Reason != resolver.ReasonTooShort {
		t.Fatalf("unexpected result: %+v", result)
	}
	if h.client.searchCalls != 0 {
		t.Fatalf("expected no search calls, got %d", h.client.searchCalls)
	}
}

func TestResolveBlacklistedTitle(t *testing.T) {
	h := newHarness(t, &fakeClient{}, 2)
	h.blacklist.Add("Some Unmappable OVA")

	result, err := h.resolver.Resolve(context.Background(), "Some Unmappable OVA")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.Reason != resolver.ReasonBlacklisted {
		t.Fatalf("unexpected reason: %q", result.Reason)
	}
	if h.client.searchCalls != 0 {
		t.Fatal("blacklisted title must not hit the network")
	}
}

func TestResolveMappingStoreHit(t *testing.T) {
	h := newHarness(t, &fakeClient{}, 2)
	if err := h.mappings.Add("Cowboy Bebop", "1"); err != nil {
		t.Fatalf("seed mapping: %v", err)
	}

	result, err := h.resolver.Resolve(context.Background(), "Cowboy Bebop")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !result.Matched() || result.ID != "1" || !result.FromStore {
		t.Fatalf("unexpected result: %+v", result)
	}
	if h.client.searchCalls != 0 {
		t.Fatal("mapped title must not hit the network")
	}
}

func TestResolveMatchesPrimaryTitle(t *testing.T) {
	client := &fakeClient{
		searches: map[string][]byte{
			"cowboy bebop": searchBody(`{"mal_id":1,"title":"Cowboy Bebop"}`),
		},
	}
	h := newHarness(t, client, 2)

	result, err := h.resolver.Resolve(context.Background(), "cowboy bebop")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.ID != "1" || result.MatchedTitle != "Cowboy Bebop" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if client.searchCalls != 1 || client.detailCalls != 0 {
		t.Fatalf("expected exactly one search and no detail calls, got %d/%d",
			client.searchCalls, client.detailCalls)
	}
}

func TestResolveMatchesEnglishTitle(t *testing.T) {
	client := &fakeClient{
		searches: map[string][]byte{
			"Attack on Titan": searchBody(`{"mal_id":16498,"title":"Shingeki no Kyojin"}`),
		},
		details: map[int64][]byte{
			16498: []byte(`{"data":{"mal_id":16498,"title":"Shingeki no Kyojin","title_english":"Attack on Titan"}}`),
		},
	}
	h := newHarness(t, client, 2)

	result, err := h.resolver.Resolve(context.Background(), "Attack on Titan")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.ID != "16498" || result.MatchedTitle != "Shingeki no Kyojin" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestResolveGermanTitleOnlyWithoutEnglish(t *testing.T) {
	client := &fakeClient{
		searches: map[string][]byte{
			"Die Melancholie": searchBody(
				`{"mal_id":5,"title":"Original Five"}`,
				`{"mal_id":6,"title":"Original Six"}`,
			),
		},
		details: map[int64][]byte{
			// English title present, so the German entry must be ignored.
			5: []byte(`{"data":{"mal_id":5,"title":"Original Five","title_english":"Something Else","titles":[{"type":"German","title":"Die Melancholie"}]}}`),
			6: []byte(`{"data":{"mal_id":6,"title":"Original Six","titles":[{"type":"German","title":"Die Melancholie"}]}}`),
		},
	}
	h := newHarness(t, client, 2)

	result, err := h.resolver.Resolve(context.Background(), "Die Melancholie")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.ID != "6" {
		t.Fatalf("expected German match on id 6, got %+v", result)
	}
}

func TestResolveMatchesSynonym(t *testing.T) {
	client := &fakeClient{
		searches: map[string][]byte{
			"NGE": searchBody(`{"mal_id":30,"title":"Neon Genesis Evangelion"}`),
		},
		details: map[int64][]byte{
			30: []byte(`{"data":{"mal_id":30,"title":"Neon Genesis Evangelion","title_english":"Neon Genesis Evangelion","title_synonyms":["NGE"]}}`),
		},
	}
	h := newHarness(t, client, 2)

	result, err := h.resolver.Resolve(context.Background(), "NGE")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.ID != "30" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestResolveRankBeatsFieldPriority(t *testing.T) {
	client := &fakeClient{
		searches: map[string][]byte{
			"Berserk": searchBody(
				`{"mal_id":7,"title":"Kenpuu Denki Berserk"}`,
				`{"mal_id":8,"title":"Berserk"}`,
			),
		},
		details: map[int64][]byte{
			7: []byte(`{"data":{"mal_id":7,"title":"Kenpuu Denki Berserk","title_synonyms":["Berserk"]}}`),
		},
	}
	h := newHarness(t, client, 2)

	result, err := h.resolver.Resolve(context.Background(), "Berserk")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.ID != "7" {
		t.Fatalf("higher-ranked synonym match must beat lower-ranked primary match, got %+v", result)
	}
}

func TestResolveNoResults(t *testing.T) {
	client := &fakeClient{
		searches: map[string][]byte{"Unknown Show": searchBody()},
	}
	h := newHarness(t, client, 2)

	result, err := h.resolver.Resolve(context.Background(), "Unknown Show")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.Reason != resolver.ReasonNoResults || len(result.Candidates) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestResolveNoMatchKeepsCandidates(t *testing.T) {
	client := &fakeClient{
		searches: map[string][]byte{
			"My Show": searchBody(
				`{"mal_id":11,"title":"Other Show"}`,
				`{"mal_id":12,"title":"Another Show"}`,
				`{"mal_id":13,"title":"Third Show"}`,
			),
		},
		details: map[int64][]byte{
			11: []byte(`{"data":{"mal_id":11,"title":"Other Show"}}`),
			12: []byte(`{"data":{"mal_id":12,"title":"Another Show"}}`),
		},
	}
	h := newHarness(t, client, 2)

	result, err := h.resolver.Resolve(context.Background(), "My Show")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.Reason != resolver.ReasonNoMatch {
		t.Fatalf("unexpected reason: %q", result.Reason)
	}
	if len(result.Candidates) != 3 {
		t.Fatalf("expected all candidates preserved, got %d", len(result.Candidates))
	}
	// Only the top-ranked candidates get detail lookups.
	if client.detailCalls != 2 {
		t.Fatalf("expected 2 detail calls, got %d", client.detailCalls)
	}
}

func TestResolveNormalizesAmpersand(t *testing.T) {
	client := &fakeClient{
		searches: map[string][]byte{
			"Panty and Stocking": searchBody(`{"mal_id":8795,"title":"Panty & Stocking"}`),
		},
	}
	h := newHarness(t, client, 2)

	result, err := h.resolver.Resolve(context.Background(), "Panty & Stocking")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.ID != "8795" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestResolveSearchFailureIsTransient(t *testing.T) {
	client := &fakeClient{searchErr: errors.New("boom")}
	h := newHarness(t, client, 2)

	_, err := h.resolver.Resolve(context.Background(), "Cowboy Bebop")
	if err == nil {
		t.Fatal("expected error")
	}
	if !services.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if got := h.stats.Get(stats.RequestsFailed); got != 1 {
		t.Fatalf("RequestsFailed = %d, want 1", got)
	}
}

func TestResolveServesRepeatLookupsFromCache(t *testing.T) {
	client := &fakeClient{
		searches: map[string][]byte{
			"Trigun": searchBody(`{"mal_id":6,"title":"Trigun"}`),
		},
	}
	h := newHarness(t, client, 2)

	if _, err := h.resolver.Resolve(context.Background(), "Trigun"); err != nil {
		t.Fatalf("first Resolve: %v", err)
	}

	// Break the network path; the cached response must carry the lookup.
	client.searchErr = errors.New("network down")
	result, err := h.resolver.Resolve(context.Background(), "Trigun")
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if result.ID != "6" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := h.stats.Get(stats.RequestsCached); got != 1 {
		t.Fatalf("RequestsCached = %d, want 1", got)
	}
}

func TestAlternateTitles(t *testing.T) {
	client := &fakeClient{
		details: map[int64][]byte{
			30: []byte(`{"data":{"mal_id":30,"title":"Neon Genesis Evangelion","title_english":"Neon Genesis Evangelion","title_synonyms":["NGE","Shin Seiki Evangelion"]}}`),
		},
	}
	h := newHarness(t, client, 2)

	titles := h.resolver.AlternateTitles(context.Background(), resolver.Candidate{ID: 30})
	if len(titles) != 3 {
		t.Fatalf("expected 3 alternate titles, got %v", titles)
	}

	if titles := h.resolver.AlternateTitles(context.Background(), resolver.Candidate{ID: 999}); titles != nil {
		t.Fatalf("expected nil titles on fetch failure, got %v", titles)
	}
}
