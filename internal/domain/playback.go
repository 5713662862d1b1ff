package domain

// StreamType hints the player which demuxer to use
type StreamType int

const (
	StreamTypeDefault StreamType = iota
	StreamTypeHLS
)

// String returns the hint as used in logs
func (t StreamType) String() string {
	switch t {
	case StreamTypeHLS:
		return "hls"
	default:
		return "default"
	}
}

// PlaybackItem is what the session is asked to play
type PlaybackItem struct {
	ID         string
	URL        string
	Title      string
	ArtworkURL string
	StreamType StreamType
}

// PlaybackState mirrors the session's last reported state.
// Written only from session events, never guessed.
type PlaybackState struct {
	Item      *PlaybackItem // nil when nothing is loaded
	Playing   bool
	Buffering bool
}

// SessionEventKind identifies a session notification
type SessionEventKind int

const (
	EventItemChanged SessionEventKind = iota
	EventPlayingChanged
	EventBufferingChanged
)

// SessionEvent is a change notification emitted by a session link
type SessionEvent struct {
	Kind      SessionEventKind
	Item      *PlaybackItem // EventItemChanged
	Playing   bool          // EventPlayingChanged
	Buffering bool          // EventBufferingChanged
}
