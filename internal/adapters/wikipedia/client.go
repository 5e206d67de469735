package wikipedia

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"city_tourism/internal/adapters/observability"
)

// Client resolves a representative image through the REST page summary API.
type Client struct {
	base string
	hc   *http.Client
	ua   string
	rl   *rate.Limiter
}

// New returns a summary client. The API rejects requests with an empty or
// library-default User-Agent, so userAgent should identify the application.
func New(base, userAgent string, timeout time.Duration, rps int) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: timeout},
		ua:   userAgent,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}
}

type summary struct {
	OriginalImage *struct {
		Source string `json:"source"`
	} `json:"originalimage"`
}

// FindImage returns originalimage.source of the page summary for title.
// Every failure is reported as ok == false and never escalated.
func (c *Client) FindImage(ctx context.Context, title string) (string, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", false
	}
	src, ok := c.lookup(ctx, title)
	observability.ObserveEnrichment(ok)
	return src, ok
}

func (c *Client) lookup(ctx context.Context, title string) (string, bool) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/"+url.PathEscape(title), nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.ua)

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("wikipedia", 0, time.Since(start))
		log.Debug().Err(err).Str("title", title).Msg("summary lookup failed")
		return "", false
	}
	defer resp.Body.Close()
	observability.ObserveExternal("wikipedia", resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		log.Debug().Int("status", resp.StatusCode).Str("title", title).Msg("summary lookup rejected")
		return "", false
	}

	var s summary
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&s); err != nil {
		log.Debug().Err(err).Str("title", title).Msg("summary decode failed")
		return "", false
	}
	if s.OriginalImage == nil || s.OriginalImage.Source == "" {
		return "", false
	}
	return s.OriginalImage.Source, true
}
