package citation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bibliography/internal/logging"
)

// ErrNoProcessor is returned when rendering is requested but no CSL
// processor is configured.
var ErrNoProcessor = errors.New("no citation processor configured")

// Options select how an item is formatted.
type Options struct {
	Style            string `json:"style"`
	Locale           string `json:"locale,omitempty"`
	AppendSite       bool   `json:"append_site,omitempty"`
	AppendAccessDate bool   `json:"append_access_date,omitempty"`
	// Bibliographic renders a bibliography entry rather than a note citation.
	Bibliographic bool `json:"bibliographic,omitempty"`
}

// Processor formats items with a CSL engine.
type Processor interface {
	Render(ctx context.Context, item Item, opts Options) (string, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, item Item, opts Options) (string, error)

// Render implements Processor.
func (f ProcessorFunc) Render(ctx context.Context, item Item, opts Options) (string, error) {
	return f(ctx, item, opts)
}

// HTTPProcessor delegates formatting to a citeproc server: items are posted
// as CSL-JSON and the formatted HTML is returned.
type HTTPProcessor struct {
	endpoint string
	client   *http.Client
}

// NewHTTPProcessor creates a processor posting to endpoint.
func NewHTTPProcessor(endpoint string, timeout time.Duration) (*HTTPProcessor, error) {
	if endpoint == "" {
		return nil, ErrNoProcessor
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid processor url: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProcessor{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}, nil
}

type processorRequest struct {
	Items map[string]Item `json:"items"`
}

// Render implements Processor.
func (p *HTTPProcessor) Render(ctx context.Context, item Item, opts Options) (string, error) {
	timer := logging.StartTimer(logging.CategoryCitation, "HTTPProcessor.Render")
	defer timer.StopWithThreshold(2 * time.Second)

	if item.ID == "" {
		item.ID = "ITEM-1"
	}
	body, err := json.Marshal(processorRequest{Items: map[string]Item{item.ID: item}})
	if err != nil {
		return "", fmt.Errorf("failed to marshal item: %w", err)
	}

	q := url.Values{}
	q.Set("responseformat", "html")
	q.Set("style", opts.Style)
	if opts.Locale != "" {
		q.Set("locale", opts.Locale)
	}
	if opts.Bibliographic {
		q.Set("bibliography", "1")
	} else {
		q.Set("citations", "1")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/html")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("citation processor request failed: %w", err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read processor response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("citation processor returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(out)))
	}

	logging.CitationDebug("Rendered %s with style %s", item.ID, opts.Style)
	return strings.TrimSpace(string(out)), nil
}
