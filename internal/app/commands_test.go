package app_test

import (
	"context"
	"errors"
	"testing"

	"city_tourism/internal/app"
	"city_tourism/internal/domain"
)

func TestRefreshRanking_OverwritesCachedEntry(t *testing.T) {
	g := &fakeGraph{body: sparqlJSON(kyivRow(kyivLogo))}
	cache := &fakeCache{}
	q := app.NewRankingService(g, &fakeImages{}, cache)
	r := app.NewRefreshService(q, cache)
	ctx := context.Background()

	if _, err := q.GetCityRanking(ctx, 2); err != nil {
		t.Fatalf("err: %v", err)
	}

	lviv := row{"city": "http://www.wikidata.org/entity/Q36036", "cityLabel": "Львів", "logo": "https://example/lviv.svg"}
	g.respond(sparqlJSON(lviv, kyivRow(kyivLogo)), nil)

	n, err := r.RefreshRanking(ctx, 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 cities, got %d", n)
	}

	got, _ := q.GetCityRanking(ctx, 2)
	if len(got) != 2 || got[0].Label != "Львів" {
		t.Fatalf("expected refreshed ranking, got %+v", got)
	}
	if g.calls() != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", g.calls())
	}
}

func TestRefreshRanking_FailureKeepsPreviousEntry(t *testing.T) {
	g := &fakeGraph{body: sparqlJSON(kyivRow(kyivLogo))}
	cache := &fakeCache{}
	q := app.NewRankingService(g, &fakeImages{}, cache)
	r := app.NewRefreshService(q, cache)
	ctx := context.Background()

	if _, err := q.GetCityRanking(ctx, 2); err != nil {
		t.Fatalf("err: %v", err)
	}
	g.respond(nil, &domain.RetrievalError{Status: 502, Body: "bad gateway"})

	if _, err := r.RefreshRanking(ctx, 2); !errors.Is(err, domain.ErrRetrieval) {
		t.Fatalf("expected retrieval error, got %v", err)
	}
	got, err := q.GetCityRanking(ctx, 2)
	if err != nil || len(got) != 1 || got[0].Label != "Київ" {
		t.Fatalf("expected previous entry to survive, got %+v err=%v", got, err)
	}
}

func TestRefreshRanking_InvalidLimit(t *testing.T) {
	g := &fakeGraph{}
	cache := &fakeCache{}
	r := app.NewRefreshService(app.NewRankingService(g, &fakeImages{}, cache), cache)

	if _, err := r.RefreshRanking(context.Background(), 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected client error, got %v", err)
	}
	if g.calls() != 0 {
		t.Fatalf("no upstream call expected")
	}
}

func TestRefreshCity_EvictsVanishedCity(t *testing.T) {
	g := &fakeGraph{body: sparqlJSON(kyivRow(kyivLogo))}
	cache := &fakeCache{}
	q := app.NewRankingService(g, &fakeImages{}, cache)
	r := app.NewRefreshService(q, cache)
	ctx := context.Background()

	found, err := r.RefreshCity(ctx, "Kyiv")
	if err != nil || !found {
		t.Fatalf("expected found, got %v err=%v", found, err)
	}
	if !cache.has("tourism:city:kyiv") {
		t.Fatalf("expected cached city")
	}

	g.respond(sparqlJSON(), nil)
	found, err = r.RefreshCity(ctx, "kyiv")
	if err != nil || found {
		t.Fatalf("expected not found, got %v err=%v", found, err)
	}
	if cache.has("tourism:city:kyiv") {
		t.Fatalf("expected stale entry to be evicted")
	}
}

func TestRefreshCity_BlankName(t *testing.T) {
	cache := &fakeCache{}
	r := app.NewRefreshService(app.NewRankingService(&fakeGraph{}, &fakeImages{}, cache), cache)
	if _, err := r.RefreshCity(context.Background(), " "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected client error, got %v", err)
	}
}
