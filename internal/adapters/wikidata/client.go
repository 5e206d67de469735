// internal/adapters/wikidata/client.go
package wikidata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"city_tourism/internal/adapters/observability"
	"city_tourism/internal/domain"
)

const (
	resultsMediaType = "application/sparql-results+json"
	maxBodyBytes     = 32 << 20
	maxErrBodyBytes  = 4096
)

// Client talks to a SPARQL query endpoint. Failed queries are not retried:
// a non-2xx answer or a transport error becomes a *domain.RetrievalError.
type Client struct {
	endpoint string
	hc       *http.Client
	ua       string
	rl       *rate.Limiter
}

func New(endpoint, userAgent string, timeout time.Duration, rps int) (*Client, error) {
	if _, err := url.Parse(endpoint); err != nil || endpoint == "" {
		return nil, fmt.Errorf("invalid sparql endpoint %q", endpoint)
	}
	if userAgent == "" {
		return nil, errors.New("user agent is required")
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		endpoint: endpoint,
		hc:       &http.Client{Timeout: timeout},
		ua:       userAgent,
		rl:       rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// Select runs query and returns the raw results document.
func (c *Client) Select(ctx context.Context, query string) ([]byte, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, &domain.RetrievalError{Err: err}
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, &domain.RetrievalError{Err: err}
	}
	q := u.Query()
	q.Set("query", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &domain.RetrievalError{Err: err}
	}
	req.Header.Set("Accept", resultsMediaType)
	req.Header.Set("User-Agent", c.ua)

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("wikidata", 0, time.Since(start))
		return nil, &domain.RetrievalError{Err: err}
	}
	defer resp.Body.Close()
	observability.ObserveExternal("wikidata", resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// keep a bounded slice of the error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBodyBytes))
		return nil, &domain.RetrievalError{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(b)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.RetrievalError{Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}
