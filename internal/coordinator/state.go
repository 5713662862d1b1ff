package coordinator

import "github.com/praeterii/radio/internal/domain"

// UiState is everything the presentation renders. Snapshots share slices
// with the coordinator; lists are always replaced, never edited in place.
type UiState struct {
	Stations     []domain.Station
	Loading      bool
	ErrorMessage string // empty when there is no error

	Countries        []domain.Country
	CountriesLoading bool
	CountryCode      string

	// SearchQuery is the active name search, empty when browsing by country
	SearchQuery string

	Playback          domain.PlaybackState
	NowPlayingVisible bool
}

// StateObserver is notified on the UI goroutine after every state change
type StateObserver interface {
	StateChanged(state UiState)
}

// ObserverFunc adapts a function to StateObserver
type ObserverFunc func(UiState)

func (f ObserverFunc) StateChanged(state UiState) { f(state) }
