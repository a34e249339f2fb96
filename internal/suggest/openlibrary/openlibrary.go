// Package openlibrary suggests books from the OpenLibrary APIs: the Books
// API for identifier lookups (ISBN, OCLC, LCCN, OLID) and the search API for
// free text.
package openlibrary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	"bibliography/internal/citation"
	"bibliography/internal/logging"
	"bibliography/internal/suggest"
)

// DefaultBaseURL is the public OpenLibrary endpoint.
const DefaultBaseURL = "https://openlibrary.org"

// Options configure a Client.
type Options struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	CacheSize  int
	CacheTTL   time.Duration
	MaxResults int

	// Processor, when set, formats suggestion labels as citations.
	Processor citation.Processor
	Citation  citation.Options

	HTTPClient *http.Client
}

// Stats counts cache activity.
type Stats struct {
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
	Requests uint64 `json:"requests"`
}

// Client is a suggest.Suggester backed by OpenLibrary.
type Client struct {
	opts   Options
	client *http.Client
	cache  *expirable.LRU[string, []suggest.Suggestion]
	group  singleflight.Group

	hits, misses, requests atomic.Uint64
}

// New creates a client, applying defaults for zero options.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 512
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 10
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		opts:   opts,
		client: hc,
		cache:  expirable.NewLRU[string, []suggest.Suggestion](opts.CacheSize, nil, opts.CacheTTL),
	}
}

// Stats returns cache counters.
func (c *Client) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Requests: c.requests.Load()}
}

// CacheStats returns the counters as plain values for metrics exporters.
func (c *Client) CacheStats() (hits, misses, requests uint64) {
	s := c.Stats()
	return s.Hits, s.Misses, s.Requests
}

// Suggest implements suggest.Suggester. Results are cached per normalized
// query and concurrent identical lookups share one request.
func (c *Client) Suggest(ctx context.Context, query string) ([]suggest.Suggestion, error) {
	key := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if key == "" {
		return nil, nil
	}

	if cached, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		logging.SuggestDebug("OpenLibrary cache hit for %q", key)
		return clone(cached), nil
	}
	c.misses.Add(1)

	ch := c.group.DoChan(key, func() (any, error) {
		// Detached so one caller giving up does not fail the others.
		res, err := c.lookup(context.WithoutCancel(ctx), query)
		if err != nil {
			return nil, err
		}
		c.cache.Add(key, res)
		return res, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return clone(r.Val.([]suggest.Suggestion)), nil
	}
}

func clone(in []suggest.Suggestion) []suggest.Suggestion {
	if in == nil {
		return nil
	}
	return append([]suggest.Suggestion(nil), in...)
}

func (c *Client) lookup(ctx context.Context, query string) ([]suggest.Suggestion, error) {
	timer := logging.StartTimer(logging.CategorySuggest, "OpenLibrary.lookup")
	defer timer.StopWithThreshold(3 * time.Second)

	if bibkey, ok := ParseIdentifier(query); ok {
		logging.SuggestDebug("OpenLibrary identifier lookup %s", bibkey)
		return c.lookupBibkey(ctx, bibkey)
	}
	logging.SuggestDebug("OpenLibrary free-text search %q", query)
	return c.search(ctx, query)
}

func (c *Client) lookupBibkey(ctx context.Context, bibkey string) ([]suggest.Suggestion, error) {
	q := url.Values{}
	q.Set("bibkeys", bibkey)
	q.Set("format", "json")
	q.Set("jscmd", "data")

	body, err := c.get(ctx, "/api/books?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var out []suggest.Suggestion
	gjson.ParseBytes(body).ForEach(func(key, book gjson.Result) bool {
		item := bookItem(key.String(), book)
		out = append(out, c.suggestion(ctx, item, book.Get("key").String(), bookInfo(book)))
		return true
	})
	return out, nil
}

func (c *Client) search(ctx context.Context, query string) ([]suggest.Suggestion, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(c.opts.MaxResults))
	q.Set("fields", "key,title,subtitle,author_name,first_publish_year,publisher,publish_place,isbn,number_of_pages_median")

	body, err := c.get(ctx, "/search.json?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var out []suggest.Suggestion
	for _, doc := range gjson.GetBytes(body, "docs").Array() {
		item := searchItem(doc)
		out = append(out, c.suggestion(ctx, item, doc.Get("key").String(), searchInfo(doc)))
	}
	return suggest.Rank(query, out, c.opts.MaxResults), nil
}

func (c *Client) get(ctx context.Context, pathAndQuery string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+pathAndQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	c.requests.Add(1)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openlibrary request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read openlibrary response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openlibrary returned status %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("openlibrary returned invalid JSON")
	}
	return body, nil
}

func (c *Client) suggestion(ctx context.Context, item citation.Item, key, info string) suggest.Suggestion {
	label := citation.PlainLabel(item)
	if c.opts.Processor != nil {
		opts := c.opts.Citation
		if opts.Style == "" {
			opts.Style = citation.DefaultStyle
		}
		formatted, err := c.opts.Processor.Render(ctx, item, opts)
		if err != nil {
			logging.Get(logging.CategorySuggest).Warn("Citation label failed for %s: %v", item.ID, err)
		} else if text := citation.PlainText(formatted); text != "" {
			label = text
		}
	}

	uri := item.URL
	if key != "" {
		uri = c.opts.BaseURL + key
	}
	return suggest.Suggestion{Value: label, Data: suggest.Data{URI: uri, Info: info}}
}

// bookItem maps a Books API record (jscmd=data) to a CSL item.
func bookItem(bibkey string, book gjson.Result) citation.Item {
	item := citation.Item{
		ID:    bibkey,
		Type:  citation.TypeBook,
		Title: joinTitle(book.Get("title").String(), book.Get("subtitle").String()),
		URL:   book.Get("url").String(),
	}
	for _, a := range book.Get("authors.#.name").Array() {
		item.Author = append(item.Author, citation.Name{Literal: a.String()})
	}
	item.Issued = citation.YearDate(book.Get("publish_date").String())
	item.Publisher = book.Get("publishers.0.name").String()
	item.PublisherPlace = book.Get("publish_places.0.name").String()
	if n := book.Get("number_of_pages"); n.Exists() {
		item.NumberOfPages = n.String()
	}
	item.ISBN = firstOf(book, "identifiers.isbn_13.0", "identifiers.isbn_10.0")
	return item
}

// searchItem maps a search.json doc to a CSL item.
func searchItem(doc gjson.Result) citation.Item {
	item := citation.Item{
		ID:    doc.Get("key").String(),
		Type:  citation.TypeBook,
		Title: joinTitle(doc.Get("title").String(), doc.Get("subtitle").String()),
	}
	for _, a := range doc.Get("author_name").Array() {
		item.Author = append(item.Author, citation.Name{Literal: a.String()})
	}
	if y := doc.Get("first_publish_year").Int(); y > 0 {
		item.Issued = &citation.Date{DateParts: [][]int{{int(y)}}}
	}
	item.Publisher = doc.Get("publisher.0").String()
	item.PublisherPlace = doc.Get("publish_place.0").String()
	if n := doc.Get("number_of_pages_median").Int(); n > 0 {
		item.NumberOfPages = strconv.FormatInt(n, 10)
	}
	item.ISBN = doc.Get("isbn.0").String()
	return item
}

func bookInfo(book gjson.Result) string {
	return info(
		"ISBN", firstOf(book, "identifiers.isbn_13.0", "identifiers.isbn_10.0"),
		"Publisher", book.Get("publishers.0.name").String(),
		"Date", book.Get("publish_date").String(),
		"Pages", book.Get("number_of_pages").String(),
	)
}

func searchInfo(doc gjson.Result) string {
	return info(
		"ISBN", doc.Get("isbn.0").String(),
		"Publisher", doc.Get("publisher.0").String(),
		"First published", doc.Get("first_publish_year").String(),
	)
}

// info joins non-empty label/value pairs as "Label: value; Label: value".
func info(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if v := strings.TrimSpace(pairs[i+1]); v != "" {
			parts = append(parts, pairs[i]+": "+v)
		}
	}
	return strings.Join(parts, "; ")
}

func joinTitle(title, subtitle string) string {
	if subtitle == "" {
		return title
	}
	return title + ": " + subtitle
}

func firstOf(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
