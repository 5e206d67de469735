package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ---- fakes ----

type fakeGraph struct {
	mu      sync.Mutex
	body    []byte
	err     error
	queries []string
	block   chan struct{} // when set, Select waits for it to close
}

func (g *fakeGraph) Select(ctx context.Context, query string) ([]byte, error) {
	g.mu.Lock()
	g.queries = append(g.queries, query)
	body, err, block := g.body, g.err, g.block
	g.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return body, err
}

func (g *fakeGraph) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queries)
}

func (g *fakeGraph) lastQuery() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.queries) == 0 {
		return ""
	}
	return g.queries[len(g.queries)-1]
}

func (g *fakeGraph) respond(body []byte, err error) {
	g.mu.Lock()
	g.body, g.err = body, err
	g.mu.Unlock()
}

type fakeImages struct {
	mu      sync.Mutex
	urls    map[string]string
	calls   []string
	delay   time.Duration
	panicOn string

	inFlight    int32
	maxInFlight int32
}

func (f *fakeImages) FindImage(ctx context.Context, name string) (string, bool) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		m := atomic.LoadInt32(&f.maxInFlight)
		if n <= m || atomic.CompareAndSwapInt32(&f.maxInFlight, m, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, name)
	u, ok := f.urls[name]
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if name == f.panicOn {
		panic("boom")
	}
	return u, ok
}

func (f *fakeImages) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

var errCacheDown = errors.New("cache down")

// fakeCache keeps JSON like the real backends so hits never alias stored values.
type fakeCache struct {
	mu     sync.Mutex
	store  map[string][]byte
	ttls   map[string]int
	getErr error
	setErr error
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return false, c.getErr
	}
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	if c.store == nil {
		c.store = map[string][]byte{}
		c.ttls = map[string]int{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	c.ttls[key] = ttlSec
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.store[key]
	return ok
}

// ---- helpers ----

// row is one SPARQL binding; a missing key means the variable is unbound.
type row map[string]string

func sparqlJSON(rows ...row) []byte {
	bindings := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		b := map[string]any{}
		for k, v := range r {
			b[k] = map[string]string{"type": "literal", "value": v}
		}
		bindings = append(bindings, b)
	}
	out, _ := json.Marshal(map[string]any{
		"head":    map[string]any{"vars": []string{"city", "cityLabel", "enCityLabel", "totalVisitors", "attractionCount", "coord", "logo"}},
		"results": map[string]any{"bindings": bindings},
	})
	return out
}

const (
	kyivURI  = "http://www.wikidata.org/entity/Q1899"
	kyivLogo = "https://upload.wikimedia.org/wikipedia/commons/9/9e/Logo_of_Kyiv%2C_Ukraine_%28English%29.svg"
)

func kyivRow(logo string) row {
	r := row{
		"city":            kyivURI,
		"cityLabel":       "Київ",
		"enCityLabel":     "Kyiv",
		"totalVisitors":   "5000000",
		"attractionCount": "34",
		"coord":           "Point(30.5234 50.4501)",
	}
	if logo != "" {
		r["logo"] = logo
	}
	return r
}
