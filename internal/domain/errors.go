package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrDirectoryFailure wraps any network, status or decode failure of a directory call
	ErrDirectoryFailure = errors.New("station directory request failed")

	// ErrEmptyQuery indicates a name search was issued with blank text
	ErrEmptyQuery = errors.New("search cannot be empty")

	// ErrInvalidStationID indicates a station ID that is not a directory UUID
	ErrInvalidStationID = errors.New("invalid station id")

	// ErrInvalidCountryCode indicates a country code that is not two ASCII letters
	ErrInvalidCountryCode = errors.New("invalid country code")

	// ErrNoActiveSession indicates a playback command was sent before the session connected
	ErrNoActiveSession = errors.New("no active playback session")

	// ErrSessionClosed indicates the playback session link has been closed
	ErrSessionClosed = errors.New("playback session closed")

	// ErrStaleResult marks a completion that was superseded by a newer request
	ErrStaleResult = errors.New("stale result")
)
