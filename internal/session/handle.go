// Package session owns the connection to the playback session.
//
// A Handle starts disconnected, connects asynchronously and only then
// forwards commands. A failed connect or a dropped link is retried with
// backoff until Release. Every method must be called from the goroutine
// that consumes the dispatcher; link callbacks are posted back to it.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/praeterii/radio/internal/domain"
)

// Connector establishes a link to the playback session
type Connector interface {
	Connect(ctx context.Context) (domain.SessionLink, error)
}

// Dispatcher runs closures on the UI goroutine in post order
type Dispatcher interface {
	Post(fn func())
}

// Listener receives session state changes on the UI goroutine
type Listener interface {
	OnItemChanged(item *domain.PlaybackItem)
	OnPlayingChanged(playing bool)
	OnBufferingChanged(buffering bool)
}

// quitter is implemented by links that can stop the player process itself
type quitter interface {
	Quit() error
}

type buffering interface {
	IsBuffering() bool
}

// state is one of disconnected, connecting, connected or released
type state interface {
	name() string
}

type disconnected struct{}

type connecting struct {
	cancel context.CancelFunc
}

type connected struct {
	link domain.SessionLink
}

type released struct{}

func (disconnected) name() string { return "disconnected" }
func (connecting) name() string   { return "connecting" }
func (connected) name() string    { return "connected" }
func (released) name() string     { return "released" }

const (
	defaultRetryDelay = time.Second
	maxRetryDelay     = 30 * time.Second
)

// Options configures a Handle
type Options struct {
	// KeepAlive leaves a playing session running after Release
	KeepAlive bool

	// RetryDelay is the first reconnect delay after a failed connect or a
	// dropped link. It doubles per attempt up to 30s.
	RetryDelay time.Duration
	Logger     *slog.Logger
}

// Handle is the two-phase proxy to the playback session
type Handle struct {
	connector Connector
	dispatch  Dispatcher
	listener  Listener
	keepAlive bool
	logger    *slog.Logger

	retryDelay time.Duration
	retries    int
	retryTimer *time.Timer

	state state
}

// NewHandle creates a disconnected handle
func NewHandle(connector Connector, dispatch Dispatcher, opts Options) *Handle {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	return &Handle{
		connector:  connector,
		dispatch:   dispatch,
		keepAlive:  opts.KeepAlive,
		logger:     logger,
		retryDelay: retryDelay,
		state:      disconnected{},
	}
}

// SetListener sets the single receiver of session events
func (h *Handle) SetListener(l Listener) {
	h.listener = l
}

// State returns the handle's phase, for logs and tests
func (h *Handle) State() string {
	return h.state.name()
}

// Connect starts connecting in the background. Ignored unless disconnected.
func (h *Handle) Connect() {
	if _, ok := h.state.(disconnected); !ok {
		h.logger.Debug("session connect ignored", "state", h.state.name())
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.state = connecting{cancel: cancel}

	go func() {
		link, err := h.connector.Connect(ctx)
		h.dispatch.Post(func() { h.onConnected(ctx, link, err) })
	}()
}

func (h *Handle) onConnected(ctx context.Context, link domain.SessionLink, err error) {
	c, ok := h.state.(connecting)
	current := ok && ctx.Err() == nil
	if current {
		c.cancel()
	}

	if err != nil {
		h.logger.Warn("failed to connect to playback session", "error", err)
		if current {
			h.state = disconnected{}
			h.scheduleReconnect()
		}
		return
	}
	if !current {
		// Released (or superseded) while connecting
		h.logger.Debug("discarding late session link", "state", h.state.name())
		h.releaseLink(link)
		return
	}

	h.state = connected{link: link}
	h.retries = 0
	link.Subscribe(func(ev domain.SessionEvent) {
		h.dispatch.Post(func() { h.onEvent(link, ev) })
	})
	go func() {
		<-link.Done()
		h.dispatch.Post(func() { h.onDropped(link) })
	}()

	h.logger.Info("playback session connected")

	// The player may already be playing from a previous run
	if h.listener != nil {
		h.listener.OnItemChanged(link.CurrentItem())
		h.listener.OnPlayingChanged(link.IsPlaying())
		if b, ok := link.(buffering); ok {
			h.listener.OnBufferingChanged(b.IsBuffering())
		}
	}
}

func (h *Handle) isCurrent(link domain.SessionLink) bool {
	c, ok := h.state.(connected)
	return ok && c.link == link
}

func (h *Handle) onEvent(link domain.SessionLink, ev domain.SessionEvent) {
	if !h.isCurrent(link) || h.listener == nil {
		return
	}
	switch ev.Kind {
	case domain.EventItemChanged:
		h.listener.OnItemChanged(ev.Item)
	case domain.EventPlayingChanged:
		h.listener.OnPlayingChanged(ev.Playing)
	case domain.EventBufferingChanged:
		h.listener.OnBufferingChanged(ev.Buffering)
	}
}

func (h *Handle) onDropped(link domain.SessionLink) {
	if !h.isCurrent(link) {
		return
	}
	h.logger.Warn("playback session disconnected")
	h.state = disconnected{}
	if h.listener != nil {
		h.listener.OnItemChanged(nil)
		h.listener.OnPlayingChanged(false)
		h.listener.OnBufferingChanged(false)
	}
	h.scheduleReconnect()
}

// scheduleReconnect connects again after a backoff delay. The handle keeps
// retrying until a link is up or Release is called.
func (h *Handle) scheduleReconnect() {
	delay := h.retryDelay * time.Duration(1<<h.retries)
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	} else {
		h.retries++
	}
	if h.retryTimer != nil {
		h.retryTimer.Stop()
	}
	h.logger.Debug("session reconnect scheduled", "delay", delay, "attempt", h.retries)
	h.retryTimer = time.AfterFunc(delay, func() {
		h.dispatch.Post(h.reconnect)
	})
}

func (h *Handle) reconnect() {
	if _, ok := h.state.(disconnected); !ok {
		return
	}
	h.Connect()
}

// withLink runs fn against the live link; a no-op when not connected
func (h *Handle) withLink(op string, fn func(domain.SessionLink) error) {
	c, ok := h.state.(connected)
	if !ok {
		h.logger.Debug("session command dropped", "op", op, "state", h.state.name())
		return
	}
	if err := fn(c.link); err != nil {
		h.logger.Warn("session command failed", "op", op, "error", err)
	}
}

func (h *Handle) SetActiveItem(item domain.PlaybackItem) {
	h.withLink("set_item", func(l domain.SessionLink) error { return l.SetItem(item) })
}

func (h *Handle) Prepare() {
	h.withLink("prepare", func(l domain.SessionLink) error { return l.Prepare() })
}

func (h *Handle) Play() {
	h.withLink("play", func(l domain.SessionLink) error { return l.Play() })
}

func (h *Handle) Pause() {
	h.withLink("pause", func(l domain.SessionLink) error { return l.Pause() })
}

// IsPlaying returns the session's playing state; ok is false when not connected
func (h *Handle) IsPlaying() (playing, ok bool) {
	c, connected := h.state.(connected)
	if !connected {
		return false, false
	}
	return c.link.IsPlaying(), true
}

// Release detaches the listener and lets go of the session. Idempotent.
func (h *Handle) Release() {
	if h.retryTimer != nil {
		h.retryTimer.Stop()
		h.retryTimer = nil
	}
	switch s := h.state.(type) {
	case released:
		return
	case connecting:
		s.cancel()
	case connected:
		h.releaseLink(s.link)
	}
	h.state = released{}
	h.listener = nil
	h.logger.Debug("playback session released")
}

// releaseLink stops the player when nothing is playing or keep-alive is
// off; otherwise it only drops the connection so playback continues.
func (h *Handle) releaseLink(link domain.SessionLink) {
	q, canQuit := link.(quitter)
	if canQuit && (!h.keepAlive || !link.IsPlaying()) {
		h.logger.Info("stopping player", "keepAlive", h.keepAlive)
		if err := q.Quit(); err != nil {
			h.logger.Debug("player quit failed", "error", err)
		}
		return
	}
	if err := link.Close(); err != nil {
		h.logger.Debug("closing session link failed", "error", err)
	}
}
