package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/praeterii/radio/internal/domain"
)

// fakeMPV answers IPC requests the way a real player would, from a fixed
// property table, and records every command it receives.
type fakeMPV struct {
	socket string
	ln     net.Listener
	props  map[string]interface{}

	mu       sync.Mutex
	commands [][]interface{}
	conn     net.Conn

	writeMu sync.Mutex
}

func startFakeMPV(t *testing.T, props map[string]interface{}) *fakeMPV {
	t.Helper()
	socket := filepath.Join(t.TempDir(), "mpv.sock")
	ln, err := net.Listen("unix", socket)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	f := &fakeMPV{socket: socket, ln: ln, props: props}
	go f.serve()
	t.Cleanup(func() {
		ln.Close()
		f.mu.Lock()
		if f.conn != nil {
			f.conn.Close()
		}
		f.mu.Unlock()
	})
	return f
}

func (f *fakeMPV) serve() {
	conn, err := f.ln.Accept()
	if err != nil {
		return
	}
	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var req request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			continue
		}
		resp := map[string]interface{}{"request_id": req.RequestID, "error": "success"}

		f.mu.Lock()
		f.commands = append(f.commands, req.Command)
		if len(req.Command) == 2 && req.Command[0] == "get_property" {
			if v, ok := f.props[req.Command[1].(string)]; ok {
				resp["data"] = v
			} else {
				resp["error"] = "property unavailable"
			}
		}
		f.mu.Unlock()

		f.push(resp)
	}
}

func (f *fakeMPV) push(v interface{}) {
	f.mu.Lock()
	conn := f.conn
	f.mu.Unlock()

	data, _ := json.Marshal(v)
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	conn.Write(append(data, '\n'))
}

func (f *fakeMPV) disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conn.Close()
}

// find returns the first recorded command named name
func (f *fakeMPV) find(name string) []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.commands {
		if len(c) > 0 && c[0] == name {
			return c
		}
	}
	return nil
}

func (f *fakeMPV) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.commands {
		if len(c) > 0 && c[0] == name {
			n++
		}
	}
	return n
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func connect(t *testing.T, f *fakeMPV) *Conn {
	t.Helper()
	link, err := NewConnector(f.socket, nil, time.Second, nil).Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { link.Close() })
	return link.(*Conn)
}

func TestConnector_SeedsStateFromRunningPlayer(t *testing.T) {
	f := startFakeMPV(t, map[string]interface{}{
		"pause":            false,
		"idle-active":      false,
		"paused-for-cache": false,
		"path":             "https://stream.example/live",
		"media-title":      "Morning Show",
	})

	c := connect(t, f)

	if !c.IsPlaying() {
		t.Error("expected playing state from running player")
	}
	item := c.CurrentItem()
	if item == nil || item.URL != "https://stream.example/live" {
		t.Fatalf("unexpected current item %+v", item)
	}
	if item.Title != "Morning Show" {
		t.Errorf("expected media title for foreign item, got %q", item.Title)
	}
	if n := f.count("observe_property"); n != len(observed) {
		t.Errorf("expected %d observe_property commands, got %d", len(observed), n)
	}
}

func TestConnector_IdlePlayer(t *testing.T) {
	f := startFakeMPV(t, map[string]interface{}{
		"pause":            false,
		"idle-active":      true,
		"paused-for-cache": false,
	})

	c := connect(t, f)

	if c.IsPlaying() {
		t.Error("idle player must not report playing")
	}
	if c.CurrentItem() != nil {
		t.Errorf("expected no current item, got %+v", c.CurrentItem())
	}
}

func TestConnector_NoPlayerNoLauncher(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "missing.sock")
	_, err := NewConnector(socket, nil, 200*time.Millisecond, nil).Connect(context.Background())
	if err == nil {
		t.Fatal("expected connect error")
	}
}

func TestConn_PrepareLoadsQueuedItem(t *testing.T) {
	f := startFakeMPV(t, map[string]interface{}{"pause": true, "idle-active": true})
	c := connect(t, f)

	item := domain.PlaybackItem{
		ID:         "a",
		URL:        "https://stream.example/hls/master.m3u8",
		Title:      "Radio, FM",
		StreamType: domain.StreamTypeHLS,
	}
	if err := c.SetItem(item); err != nil {
		t.Fatalf("SetItem failed: %v", err)
	}
	if f.find("loadfile") != nil {
		t.Fatal("SetItem alone must not load anything")
	}
	if err := c.Prepare(); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := c.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	waitFor(t, "loadfile", func() bool { return f.find("loadfile") != nil })
	load := f.find("loadfile")
	if load[1] != item.URL || load[2] != "replace" {
		t.Errorf("unexpected loadfile %v", load)
	}
	opts, _ := load[4].(string)
	if !strings.Contains(opts, "force-media-title=%9%Radio, FM") {
		t.Errorf("expected quoted title option, got %q", opts)
	}
	if !strings.Contains(opts, "demuxer-lavf-format=hls") {
		t.Errorf("expected hls demuxer hint, got %q", opts)
	}

	waitFor(t, "unpause", func() bool { return f.count("set_property") == 2 })
}

func TestConn_PropertyEvents(t *testing.T) {
	f := startFakeMPV(t, map[string]interface{}{"pause": false, "idle-active": true})
	c := connect(t, f)

	events := make(chan domain.SessionEvent, 10)
	c.Subscribe(func(ev domain.SessionEvent) { events <- ev })

	c.SetItem(domain.PlaybackItem{ID: "a", URL: "https://a/live", Title: "A"})
	c.Prepare()

	f.push(map[string]interface{}{"event": "property-change", "name": "path", "data": "https://a/live"})
	ev := <-events
	if ev.Kind != domain.EventItemChanged || ev.Item == nil || ev.Item.ID != "a" {
		t.Fatalf("expected item changed to a, got %+v", ev)
	}

	f.push(map[string]interface{}{"event": "property-change", "name": "idle-active", "data": false})
	ev = <-events
	if ev.Kind != domain.EventPlayingChanged || !ev.Playing {
		t.Fatalf("expected playing=true, got %+v", ev)
	}

	f.push(map[string]interface{}{"event": "property-change", "name": "paused-for-cache", "data": true})
	ev = <-events
	if ev.Kind != domain.EventBufferingChanged || !ev.Buffering {
		t.Fatalf("expected buffering=true, got %+v", ev)
	}

	f.push(map[string]interface{}{"event": "property-change", "name": "media-title", "data": "Song - Artist"})
	f.push(map[string]interface{}{"event": "property-change", "name": "pause", "data": true})
	ev = <-events
	if ev.Kind != domain.EventPlayingChanged || ev.Playing {
		t.Fatalf("expected playing=false after pause, got %+v", ev)
	}
	if c.CurrentItem().Title != "A" {
		t.Errorf("forced title must not be replaced, got %q", c.CurrentItem().Title)
	}
}

func TestConn_DropClosesDone(t *testing.T) {
	f := startFakeMPV(t, map[string]interface{}{"pause": false, "idle-active": true})
	c := connect(t, f)

	f.disconnect()

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done not closed after disconnect")
	}
	if err := c.Play(); !errors.Is(err, domain.ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
}

func TestConn_QuitSendsQuit(t *testing.T) {
	f := startFakeMPV(t, map[string]interface{}{"pause": false, "idle-active": true})
	c := connect(t, f)

	if err := c.Quit(); err != nil {
		t.Fatalf("Quit failed: %v", err)
	}
	waitFor(t, "quit", func() bool { return f.find("quit") != nil })

	select {
	case <-c.Done():
	default:
		t.Error("expected Done closed after Quit")
	}
}

func TestLoadOptions(t *testing.T) {
	tests := []struct {
		name string
		item domain.PlaybackItem
		want string
	}{
		{"plain", domain.PlaybackItem{Title: "Jazz"}, "force-media-title=%4%Jazz"},
		{"hls", domain.PlaybackItem{Title: "X", StreamType: domain.StreamTypeHLS}, "force-media-title=%1%X,demuxer-lavf-format=hls"},
		{"untitled", domain.PlaybackItem{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := loadOptions(tt.item); got != tt.want {
				t.Errorf("loadOptions() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLauncher_BuildArgs(t *testing.T) {
	l := NewLauncher("mpv", []string{"--volume=40"}, "/run/user/1000/radio-mpv.sock", nil)
	args := l.buildArgs()

	want := []string{"--idle=yes", "--no-video", "--input-ipc-server=/run/user/1000/radio-mpv.sock"}
	for _, w := range want {
		found := false
		for _, a := range args {
			if a == w {
				found = true
			}
		}
		if !found {
			t.Errorf("missing %q in %v", w, args)
		}
	}
	if args[len(args)-1] != "--volume=40" {
		t.Errorf("user args must come last, got %v", args)
	}
}

func TestLauncher_MissingCommand(t *testing.T) {
	l := NewLauncher("definitely-not-a-player-binary", nil, filepath.Join(t.TempDir(), "s.sock"), nil)
	if err := l.Launch(); err == nil {
		t.Error("expected error for missing command")
	}
}

func TestSupportedPlatform(t *testing.T) {
	tests := []struct {
		goos string
		want bool
	}{
		{"linux", true},
		{"darwin", true},
		{"freebsd", true},
		{"windows", false},
	}
	for _, tt := range tests {
		if got := supportedPlatform(tt.goos); got != tt.want {
			t.Errorf("supportedPlatform(%q) = %v, want %v", tt.goos, got, tt.want)
		}
	}
	if _, ok := candidateCommands["windows"]; ok {
		t.Error("no player candidates should be listed for windows")
	}
}
