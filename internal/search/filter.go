// Package search filters already-loaded lists locally, without a request.
package search

import (
	"sort"
	"strings"

	countryfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/praeterii/radio/internal/domain"
)

// StationMatch is a filtered station with the name positions that matched
type StationMatch struct {
	Station        domain.Station
	MatchedIndexes []int // Character positions in Name, for highlighting
}

// StationIndex implements sahilm/fuzzy.Source over station names and tags
type StationIndex struct {
	stations []domain.Station
	keys     []string // Pre-computed lowercase search keys
}

// NewStationIndex builds an index over stations. Tags are appended after
// the name so "jazz" finds stations tagged jazz.
func NewStationIndex(stations []domain.Station) *StationIndex {
	keys := make([]string, len(stations))
	for i, s := range stations {
		key := s.Name
		if len(s.Tags) > 0 {
			key += " " + strings.Join(s.Tags, " ")
		}
		keys[i] = strings.ToLower(key)
	}
	return &StationIndex{stations: stations, keys: keys}
}

// String returns the search key at index i (implements fuzzy.Source)
func (idx *StationIndex) String(i int) string { return idx.keys[i] }

// Len returns the number of stations (implements fuzzy.Source)
func (idx *StationIndex) Len() int { return len(idx.stations) }

// Filter returns stations matching query, best first.
// A blank query returns every station in its original order.
func (idx *StationIndex) Filter(query string) []StationMatch {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		out := make([]StationMatch, len(idx.stations))
		for i, s := range idx.stations {
			out[i] = StationMatch{Station: s}
		}
		return out
	}

	matches := fuzzy.FindFrom(query, idx)
	out := make([]StationMatch, 0, len(matches))
	for _, m := range matches {
		s := idx.stations[m.Index]
		out = append(out, StationMatch{
			Station:        s,
			MatchedIndexes: nameIndexes(m.MatchedIndexes, len(s.Name)),
		})
	}
	return out
}

// nameIndexes drops match positions that fall in the tag suffix
func nameIndexes(idx []int, nameLen int) []int {
	var out []int
	for _, i := range idx {
		if i < nameLen {
			out = append(out, i)
		}
	}
	return out
}

// FilterCountries returns countries whose name or code matches query,
// closest first. Ties keep the input order.
func FilterCountries(query string, countries []domain.Country) []domain.Country {
	query = strings.TrimSpace(query)
	if query == "" {
		return countries
	}

	// An exact code match ("DE") always wins
	var exact []domain.Country
	for _, c := range countries {
		if strings.EqualFold(c.Code, query) {
			exact = append(exact, c)
		}
	}

	names := make([]string, len(countries))
	for i, c := range countries {
		names[i] = c.Name
	}
	ranks := countryfuzzy.RankFindFold(query, names)
	// Ranks come back in input order, so a stable sort keeps ties alphabetical
	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].Distance < ranks[j].Distance })

	out := exact
	for _, r := range ranks {
		c := countries[r.OriginalIndex]
		if strings.EqualFold(c.Code, query) {
			continue
		}
		out = append(out, c)
	}
	return out
}
