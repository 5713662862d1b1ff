package domain

import (
	"context"
)

// StationDirectory provides read-only access to the remote station catalog
type StationDirectory interface {
	// ListCountries returns all countries known to the directory
	ListCountries(ctx context.Context, order StationOrder) ([]Country, error)

	// ListStationsByCountry returns stations for an exact country code.
	// Only stations with a secure stream URL are returned.
	ListStationsByCountry(ctx context.Context, query StationQuery) ([]Station, error)

	// SearchStationsByName returns stations whose name matches text.
	// Returns ErrEmptyQuery without a request when text is blank.
	SearchStationsByName(ctx context.Context, text string, offset, limit int) ([]Station, error)

	// RegisterClick records a play of the station for directory statistics
	RegisterClick(ctx context.Context, stationID string) (*ClickResult, error)
}

// PreferenceStore is a small persistent key/value store for user preferences
type PreferenceStore interface {
	GetString(key string) (string, bool)
	SetString(key, value string) error
	Close() error
}

// SessionLink is an established connection to an out-of-process playback session.
// Commands are fire-and-forget from the caller's point of view; events are
// delivered on an arbitrary goroutine.
type SessionLink interface {
	SetItem(item PlaybackItem) error
	Prepare() error
	Play() error
	Pause() error

	// IsPlaying returns the last known playing state
	IsPlaying() bool

	// CurrentItem returns the item the session is currently on, or nil
	CurrentItem() *PlaybackItem

	// Subscribe registers the event callback; a later call replaces it
	Subscribe(fn func(SessionEvent))

	// Done is closed when the link drops
	Done() <-chan struct{}

	Close() error
}
