// Package mpv drives an out-of-process mpv player over its JSON IPC socket.
package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/praeterii/radio/internal/domain"
)

const writeTimeout = 2 * time.Second

// observed lists the properties whose changes drive the session state
var observed = []string{"pause", "idle-active", "paused-for-cache", "path", "media-title"}

// request is a single IPC command line
type request struct {
	Command   []interface{} `json:"command"`
	RequestID int64         `json:"request_id"`
}

// message is either a command reply or an event; mpv uses one line format for both
type message struct {
	Event     string          `json:"event"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
	Reason    string          `json:"reason"`
	FileError string          `json:"file_error"`
	RequestID int64           `json:"request_id"`
	Error     string          `json:"error"`
}

type reply struct {
	data json.RawMessage
	err  error
}

// errPropertyUnavailable is what mpv answers for get_property on e.g. path while idle
var errPropertyUnavailable = errors.New("property unavailable")

// Conn implements domain.SessionLink over an mpv IPC connection.
// State is cached from property-change events so reads never block.
type Conn struct {
	conn   net.Conn
	logger *slog.Logger

	writeMu sync.Mutex
	nextID  atomic.Int64

	mu        sync.Mutex
	pending   map[int64]chan reply
	items     map[string]domain.PlaybackItem // items we loaded, keyed by URL
	queued    *domain.PlaybackItem           // set by SetItem, loaded by Prepare
	paused    bool
	idle      bool
	path      string
	title     string
	buffering bool
	playing   bool
	current   *domain.PlaybackItem
	listener  func(domain.SessionEvent)

	done      chan struct{}
	closeOnce sync.Once
}

func newConn(conn net.Conn, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Conn{
		conn:    conn,
		logger:  logger,
		pending: make(map[int64]chan reply),
		items:   make(map[string]domain.PlaybackItem),
		idle:    true,
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// start subscribes to the observed properties and seeds the cached state
// so CurrentItem and IsPlaying are accurate as soon as Connect returns.
func (c *Conn) start(ctx context.Context) error {
	for i, name := range observed {
		if _, err := c.call(ctx, "observe_property", i+1, name); err != nil {
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}
	for _, name := range observed {
		data, err := c.call(ctx, "get_property", name)
		if err != nil && !errors.Is(err, errPropertyUnavailable) {
			return fmt.Errorf("get %s: %w", name, err)
		}
		c.applyProperty(name, data)
	}
	return nil
}

func (c *Conn) readLoop() {
	defer c.shutdown()

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			c.logger.Debug("ignoring malformed ipc line", "error", err)
			continue
		}
		c.dispatch(msg)
	}
	if err := scanner.Err(); err != nil {
		c.logger.Debug("ipc read ended", "error", err)
	}
}

func (c *Conn) dispatch(msg message) {
	switch msg.Event {
	case "":
		c.mu.Lock()
		ch, ok := c.pending[msg.RequestID]
		delete(c.pending, msg.RequestID)
		c.mu.Unlock()

		err := replyError(msg.Error)
		if ok {
			ch <- reply{data: msg.Data, err: err}
		} else if err != nil {
			c.logger.Warn("player command failed", "requestID", msg.RequestID, "error", err)
		}
	case "property-change":
		c.applyProperty(msg.Name, msg.Data)
	case "end-file":
		if msg.Reason == "error" {
			c.logger.Warn("player failed to open stream", "error", msg.FileError)
		}
	}
}

func replyError(s string) error {
	switch s {
	case "", "success":
		return nil
	case "property unavailable":
		return errPropertyUnavailable
	default:
		return fmt.Errorf("mpv: %s", s)
	}
}

// applyProperty folds a property value into the cached state and emits
// an event for every derived value that changed.
func (c *Conn) applyProperty(name string, data json.RawMessage) {
	var events []domain.SessionEvent

	c.mu.Lock()
	switch name {
	case "pause":
		c.paused = decodeBool(data)
	case "idle-active":
		c.idle = decodeBool(data)
	case "paused-for-cache":
		if b := decodeBool(data); b != c.buffering {
			c.buffering = b
			events = append(events, domain.SessionEvent{Kind: domain.EventBufferingChanged, Buffering: b})
		}
	case "path":
		if p := decodeString(data); p != c.path {
			c.path = p
			c.current = c.itemForPath(p)
			events = append(events, domain.SessionEvent{Kind: domain.EventItemChanged, Item: copyItem(c.current)})
		}
	case "media-title":
		c.title = decodeString(data)
		// Titles of items we loaded are forced; only foreign files pick up mpv's title
		if c.current != nil && c.title != "" && c.current.Title != c.title {
			if _, ours := c.items[c.current.URL]; !ours {
				c.current.Title = c.title
				events = append(events, domain.SessionEvent{Kind: domain.EventItemChanged, Item: copyItem(c.current)})
			}
		}
	}

	if playing := !c.paused && !c.idle && c.path != ""; playing != c.playing {
		c.playing = playing
		events = append(events, domain.SessionEvent{Kind: domain.EventPlayingChanged, Playing: playing})
	}
	listener := c.listener
	c.mu.Unlock()

	if listener == nil {
		return
	}
	for _, ev := range events {
		listener(ev)
	}
}

// itemForPath must be called with c.mu held
func (c *Conn) itemForPath(path string) *domain.PlaybackItem {
	if path == "" {
		return nil
	}
	if item, ok := c.items[path]; ok {
		return &item
	}
	return &domain.PlaybackItem{URL: path, Title: path}
}

func copyItem(item *domain.PlaybackItem) *domain.PlaybackItem {
	if item == nil {
		return nil
	}
	cp := *item
	return &cp
}

func decodeBool(data json.RawMessage) bool {
	var b bool
	json.Unmarshal(data, &b)
	return b
}

func decodeString(data json.RawMessage) string {
	var s string
	json.Unmarshal(data, &s)
	return s
}

func (c *Conn) write(id int64, args []interface{}) error {
	select {
	case <-c.done:
		return domain.ErrSessionClosed
	default:
	}

	data, err := json.Marshal(request{Command: args, RequestID: id})
	if err != nil {
		return err
	}
	data = append(data, '\n')

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("mpv ipc write: %w", err)
	}
	return nil
}

// send writes a command without waiting for the reply; failures reported
// by mpv are logged by the reader.
func (c *Conn) send(args ...interface{}) error {
	return c.write(c.nextID.Add(1), args)
}

// call writes a command and waits for its reply
func (c *Conn) call(ctx context.Context, args ...interface{}) (json.RawMessage, error) {
	id := c.nextID.Add(1)
	ch := make(chan reply, 1)

	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()

	if err := c.write(id, args); err != nil {
		c.forget(id)
		return nil, err
	}

	select {
	case r := <-ch:
		return r.data, r.err
	case <-c.done:
		return nil, domain.ErrSessionClosed
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	}
}

func (c *Conn) forget(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// loadOptions builds the per-file option list for loadfile.
// Values use mpv's %len% quoting so commas in titles survive.
func loadOptions(item domain.PlaybackItem) string {
	var opts []string
	if item.Title != "" {
		opts = append(opts, "force-media-title="+quoteOption(item.Title))
	}
	if item.StreamType == domain.StreamTypeHLS {
		opts = append(opts, "demuxer-lavf-format=hls")
	}
	return strings.Join(opts, ",")
}

func quoteOption(v string) string {
	return "%" + strconv.Itoa(len(v)) + "%" + v
}

// SetItem makes item the one Prepare will load
func (c *Conn) SetItem(item domain.PlaybackItem) error {
	if item.URL == "" {
		return fmt.Errorf("playback item %q has no url", item.ID)
	}
	select {
	case <-c.done:
		return domain.ErrSessionClosed
	default:
	}

	c.mu.Lock()
	c.items[item.URL] = item
	c.queued = &item
	c.mu.Unlock()
	return nil
}

// Prepare loads the queued item paused, so the stream starts buffering
func (c *Conn) Prepare() error {
	c.mu.Lock()
	item := c.queued
	c.queued = nil
	c.mu.Unlock()

	if item == nil {
		return nil
	}
	if err := c.send("set_property", "pause", true); err != nil {
		return err
	}
	c.logger.Debug("loading stream", "url", item.URL, "streamType", item.StreamType.String())
	return c.send("loadfile", item.URL, "replace", -1, loadOptions(*item))
}

func (c *Conn) Play() error {
	return c.send("set_property", "pause", false)
}

func (c *Conn) Pause() error {
	return c.send("set_property", "pause", true)
}

func (c *Conn) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

func (c *Conn) IsBuffering() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffering
}

func (c *Conn) CurrentItem() *domain.PlaybackItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyItem(c.current)
}

func (c *Conn) Subscribe(fn func(domain.SessionEvent)) {
	c.mu.Lock()
	c.listener = fn
	c.mu.Unlock()
}

func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close drops the connection and leaves the player running
func (c *Conn) Close() error {
	c.shutdown()
	return nil
}

// Quit asks the player process to exit, then closes the connection
func (c *Conn) Quit() error {
	err := c.send("quit")
	c.shutdown()
	return err
}

func (c *Conn) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()

		c.mu.Lock()
		for id, ch := range c.pending {
			ch <- reply{err: domain.ErrSessionClosed}
			delete(c.pending, id)
		}
		c.mu.Unlock()
	})
}

var _ domain.SessionLink = (*Conn)(nil)
