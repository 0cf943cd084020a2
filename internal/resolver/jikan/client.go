package jikan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Anime describes one anime record as returned by the Jikan v4 API, both in
// search results and detail responses.
type Anime struct {
	MalID         int64        `json:"mal_id"`
	URL           string       `json:"url"`
	Title         string       `json:"title"`
	TitleEnglish  string       `json:"title_english"`
	TitleJapanese string       `json:"title_japanese"`
	TitleSynonyms []string     `json:"title_synonyms"`
	Titles        []TitleEntry `json:"titles"`
	Type          string       `json:"type"`
	Episodes      int          `json:"episodes"`
	Images        struct {
		JPG struct {
			ImageURL string `json:"image_url"`
		} `json:"jpg"`
	} `json:"images"`
}

// TitleEntry is one entry of the typed titles list (Default, English,
// Japanese, German, Synonym, ...).
type TitleEntry struct {
	Type  string `json:"type"`
	Title string `json:"title"`
}

// LocalizedTitle returns the first title of the given type, if any.
func (a Anime) LocalizedTitle(titleType string) string {
	for _, entry := range a.Titles {
		if strings.EqualFold(entry.Type, titleType) {
			return entry.Title
		}
	}
	return ""
}

// SearchResponse models the payload of GET /anime?q=...
type SearchResponse struct {
	Data []Anime `json:"data"`
}

// DetailResponse models the payload of GET /anime/{id}.
type DetailResponse struct {
	Data Anime `json:"data"`
}

// Payload carries a raw API response body together with the expiry the
// service advertised for it, so callers can cache the bytes verbatim.
type Payload struct {
	Body      []byte
	ExpiresAt time.Time
}

// ParseSearch decodes a search payload body.
func ParseSearch(body []byte) (*SearchResponse, error) {
	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &resp, nil
}

// ParseDetail decodes a detail payload body.
func ParseDetail(body []byte) (*DetailResponse, error) {
	var resp DetailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode detail response: %w", err)
	}
	return &resp, nil
}

// Client provides access to the Jikan API.
type Client struct {
	baseURL     string
	searchLimit int
	httpClient  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a Jikan client.
func New(baseURL string, searchLimit int, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("jikan base url required")
	}
	if searchLimit < 1 {
		return nil, errors.New("jikan search limit must be positive")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		searchLimit: searchLimit,
		httpClient:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Search queries the anime search endpoint.
func (c *Client) Search(ctx context.Context, query string) (*Payload, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(c.searchLimit))
	return c.get(ctx, "/anime", params)
}

// Anime fetches the detail record for one MAL ID.
func (c *Client) Anime(ctx context.Context, id int64) (*Payload, error) {
	if id <= 0 {
		return nil, errors.New("anime id must be positive")
	}
	return c.get(ctx, fmt.Sprintf("/anime/%d", id), nil)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*Payload, error) {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse jikan url: %w", err)
	}
	if params != nil {
		endpoint.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jikan returned %d for %s (latency=%v)", resp.StatusCode, path, latency)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read jikan response: %w", err)
	}

	return &Payload{Body: body, ExpiresAt: parseExpiry(resp.Header)}, nil
}

// parseExpiry derives an expiry timestamp from the response's caching
// headers. A zero time means the payload carries no expiry.
func parseExpiry(header http.Header) time.Time {
	if value := header.Get("Expires"); value != "" {
		if t, err := http.ParseTime(value); err == nil {
			return t
		}
	}
	return time.Time{}
}
