package search

import (
	"testing"

	"github.com/praeterii/radio/internal/domain"
)

func testStations() []domain.Station {
	return []domain.Station{
		{ID: "1", Name: "Jazz Radio", Tags: []string{"jazz", "swing"}},
		{ID: "2", Name: "Rock Antenne", Tags: []string{"rock"}},
		{ID: "3", Name: "Klassik FM", Tags: []string{"classical", "jazz"}},
		{ID: "4", Name: "News 24"},
	}
}

func TestStationIndex_BlankQueryReturnsAll(t *testing.T) {
	idx := NewStationIndex(testStations())
	got := idx.Filter("  ")
	if len(got) != 4 {
		t.Fatalf("expected all 4 stations, got %d", len(got))
	}
	for i, m := range got {
		if m.Station.ID != testStations()[i].ID {
			t.Errorf("expected original order, got %s at %d", m.Station.ID, i)
		}
	}
}

func TestStationIndex_MatchesNameCaseInsensitive(t *testing.T) {
	idx := NewStationIndex(testStations())
	got := idx.Filter("ROCK")
	if len(got) != 1 || got[0].Station.ID != "2" {
		t.Fatalf("expected only Rock Antenne, got %+v", got)
	}
	if len(got[0].MatchedIndexes) != 4 {
		t.Errorf("expected 4 highlighted characters, got %v", got[0].MatchedIndexes)
	}
}

func TestStationIndex_MatchesTags(t *testing.T) {
	idx := NewStationIndex(testStations())
	got := idx.Filter("jazz")

	ids := map[string]bool{}
	for _, m := range got {
		ids[m.Station.ID] = true
	}
	if !ids["1"] || !ids["3"] {
		t.Errorf("expected stations 1 and 3 for tag jazz, got %v", ids)
	}
	if got[0].Station.ID != "1" {
		t.Errorf("expected name match first, got %s", got[0].Station.ID)
	}
	for _, m := range got {
		for _, i := range m.MatchedIndexes {
			if i >= len(m.Station.Name) {
				t.Errorf("highlight %d outside name %q", i, m.Station.Name)
			}
		}
	}
}

func TestStationIndex_NoMatch(t *testing.T) {
	idx := NewStationIndex(testStations())
	if got := idx.Filter("xq"); len(got) != 0 {
		t.Errorf("expected no matches, got %d", len(got))
	}
}

func TestFilterCountries(t *testing.T) {
	countries := []domain.Country{
		{Name: "Austria", Code: "AT"},
		{Name: "Germany", Code: "DE"},
		{Name: "Poland", Code: "PL"},
		{Name: "United Kingdom", Code: "GB"},
		{Name: "United States", Code: "US"},
	}

	tests := []struct {
		name  string
		query string
		first string
		count int
	}{
		{"blank returns all", "", "AT", 5},
		{"prefix", "germ", "DE", 1},
		{"case insensitive", "POLAND", "PL", 1},
		{"exact code first", "at", "AT", 2},
		{"closest name first", "united", "US", 2},
		{"no match", "xyz", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterCountries(tt.query, countries)
			if len(got) != tt.count {
				t.Fatalf("expected %d countries, got %d: %+v", tt.count, len(got), got)
			}
			if tt.count > 0 && got[0].Code != tt.first {
				t.Errorf("expected %s first, got %s", tt.first, got[0].Code)
			}
		})
	}
}
