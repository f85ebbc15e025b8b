package storage

import (
	"context"
	"testing"

	"github.com/filtra-ar/filtrabot/internal/domain/entity"
	"github.com/filtra-ar/filtrabot/internal/usecase"
)

func seedCatalog(t *testing.T, vehicles ...entity.Vehicle) *MemoryCatalog {
	t.Helper()
	c := NewMemoryCatalog()
	for _, v := range vehicles {
		if err := c.UpsertVehicle(context.Background(), v); err != nil {
			t.Fatalf("seed vehicle %s: %v", v.ID, err)
		}
	}
	return c
}

func search(t *testing.T, c *MemoryCatalog, text string) []entity.Vehicle {
	t.Helper()
	parser := usecase.NewQueryParser(usecase.ParserOptions{})
	filter := usecase.BuildFilter(parser.Parse(text))
	out, err := c.Search(context.Background(), filter)
	if err != nil {
		t.Fatalf("search %q: %v", text, err)
	}
	return out
}

// Short tokens are word-anchored: "mio" must hit "Clio Mío" and never
// "Kamion".
func TestSearchShortTokenBoundaries(t *testing.T) {
	c := seedCatalog(t,
		entity.Vehicle{ID: "clio", Brand: "Renault", Model: "Clio Mío", YearFrom: 2012},
		entity.Vehicle{ID: "kamion", Brand: "Kamion", Model: "X", YearFrom: 2012},
	)

	got := search(t, c, "mio")
	if len(got) != 1 || got[0].ID != "clio" {
		t.Fatalf("search mio = %+v, want only clio", got)
	}
}

func TestSearchAccentInsensitive(t *testing.T) {
	c := seedCatalog(t,
		entity.Vehicle{ID: "kangoo", Brand: "Renault", Model: "Kangoo Ñandú", YearFrom: 2010},
	)

	for _, query := range []string{"nandu", "ñandú", "ÑANDU"} {
		if got := search(t, c, query); len(got) != 1 {
			t.Errorf("search %q = %d results, want 1", query, len(got))
		}
	}
}

func TestSearchYearRange(t *testing.T) {
	yearTo := 2014
	c := seedCatalog(t,
		entity.Vehicle{ID: "old", Brand: "Toyota", Model: "Hilux", YearFrom: 2005, YearTo: &yearTo},
		entity.Vehicle{ID: "new", Brand: "Toyota", Model: "Hilux", YearFrom: 2015},
	)

	got := search(t, c, "hilux 2016")
	if len(got) != 1 || got[0].ID != "new" {
		t.Fatalf("search hilux 2016 = %+v, want only new", got)
	}

	got = search(t, c, "hilux 2010")
	if len(got) != 1 || got[0].ID != "old" {
		t.Fatalf("search hilux 2010 = %+v, want only old", got)
	}
}

// A year filter also matches model names that contain the digits, so
// "2008 2015" still finds the Peugeot 2008... except 2008 is
// whitelisted as a model; guard the raw predicate directly instead.
func TestSearchYearMatchesModelName(t *testing.T) {
	year := 2008
	c := seedCatalog(t,
		entity.Vehicle{ID: "suv", Brand: "Peugeot", Model: "2008", YearFrom: 2015},
	)

	out, err := c.Search(context.Background(), entity.VehicleFilter{Year: &year, Limit: 15})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("results = %d, want 1 (year digits appear in model name)", len(out))
	}
}

func TestSearchEngineEquality(t *testing.T) {
	c := seedCatalog(t,
		entity.Vehicle{ID: "g16", Brand: "VW", Model: "Gol", YearFrom: 2010, EngineDisp: "1.6"},
		entity.Vehicle{ID: "g14", Brand: "VW", Model: "Gol", YearFrom: 2010, EngineDisp: "1.4"},
	)

	got := search(t, c, "gol 1.6")
	if len(got) != 1 || got[0].ID != "g16" {
		t.Fatalf("search gol 1.6 = %+v, want only g16", got)
	}
}

func TestSearchTokensAndAcrossGroups(t *testing.T) {
	c := seedCatalog(t,
		entity.Vehicle{ID: "trend", Brand: "Volkswagen", Model: "Gol Trend", YearFrom: 2012},
		entity.Vehicle{ID: "plain", Brand: "Volkswagen", Model: "Gol", YearFrom: 2005},
	)

	got := search(t, c, "gol trend")
	if len(got) != 1 || got[0].ID != "trend" {
		t.Fatalf("search gol trend = %+v, want only trend", got)
	}
}

func TestSearchLimit(t *testing.T) {
	c := NewMemoryCatalog()
	for i := 0; i < 20; i++ {
		v := entity.Vehicle{ID: string(rune('a' + i)), Brand: "Fiat", Model: "Uno", YearFrom: 1990 + i}
		if err := c.UpsertVehicle(context.Background(), v); err != nil {
			t.Fatal(err)
		}
	}

	got := search(t, c, "uno")
	if len(got) != 15 {
		t.Fatalf("results = %d, want capped at 15", len(got))
	}
}

func TestPartsForReturnsLinks(t *testing.T) {
	c := seedCatalog(t, entity.Vehicle{ID: "v1", Brand: "VW", Model: "Gol", YearFrom: 2010})
	ctx := context.Background()

	if err := c.UpsertPart(ctx, entity.Part{ID: "p1", Brand: "Mann", Code: "W 712", Type: "oil"}); err != nil {
		t.Fatal(err)
	}
	if err := c.LinkPart(ctx, entity.VehiclePart{VehicleID: "v1", Part: entity.Part{ID: "p1"}, Role: "primary"}); err != nil {
		t.Fatal(err)
	}

	links, err := c.PartsFor(ctx, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 1 {
		t.Fatalf("links = %d, want 1", len(links))
	}
	// LinkPart resolves the bare id into the stored part.
	if links[0].Part.Brand != "Mann" || links[0].Part.Type != "oil" {
		t.Errorf("link part = %+v", links[0].Part)
	}
}

func TestGetVehicleUnknown(t *testing.T) {
	c := NewMemoryCatalog()
	v, err := c.GetVehicle(context.Background(), "nope")
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Errorf("vehicle = %+v, want nil", v)
	}
}
