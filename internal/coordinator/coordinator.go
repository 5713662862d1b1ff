// Package coordinator owns the observable UI state and mediates between
// user intents, the station directory and the playback session.
//
// Every exported method must be called on the UI goroutine, the one that
// consumes the Dispatcher. Background work posts its completion back
// through the Dispatcher, so state is never touched concurrently.
package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/praeterii/radio/internal/domain"
	"github.com/praeterii/radio/internal/service"
	"github.com/praeterii/radio/internal/session"
)

const (
	defaultStationLimit   = 1000
	loadStationsFailedMsg = "Failed to load stations"
)

// CountryPreferences resolves and stores the selected country
type CountryPreferences interface {
	CurrentCountryCode() string
	SetCountryCode(code string) error
}

// Session is the playback session handle as the coordinator drives it
type Session interface {
	Connect()
	SetActiveItem(item domain.PlaybackItem)
	Prepare()
	Play()
	Pause()
	IsPlaying() (playing, ok bool)
	SetListener(l session.Listener)
	Release()
}

// Dispatcher runs closures on the UI goroutine in post order
type Dispatcher interface {
	Post(fn func())
}

// Deps are the coordinator's collaborators, all injected
type Deps struct {
	Directory    domain.StationDirectory
	Preferences  CountryPreferences
	Session      Session
	Dispatcher   Dispatcher
	StationLimit int  // Max stations per country request, 0 for the default
	HideBroken   bool // Ask the directory to drop stations failing its checks
	Logger       *slog.Logger
}

// Coordinator is the playback-and-station-state coordinator
type Coordinator struct {
	directory  domain.StationDirectory
	prefs      CountryPreferences
	session    Session
	dispatch   Dispatcher
	playback   *service.PlaybackService
	limit      int
	hideBroken bool
	logger     *slog.Logger

	// ctx is cancelled on Close so in-flight requests stop early
	ctx    context.Context
	cancel context.CancelFunc

	state    UiState
	observer StateObserver
	closed   bool

	// stationsSeq identifies the latest station request; older completions are stale
	stationsSeq      uint64
	countriesLoading bool
	countriesLoaded  bool
}

// New creates a coordinator and registers it as the session listener
func New(d Deps) *Coordinator {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := d.StationLimit
	if limit <= 0 {
		limit = defaultStationLimit
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		directory:  d.Directory,
		prefs:      d.Preferences,
		session:    d.Session,
		dispatch:   d.Dispatcher,
		playback:   service.NewPlaybackService(d.Directory, logger),
		limit:      limit,
		hideBroken: d.HideBroken,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
	c.state.CountryCode = d.Preferences.CurrentCountryCode()
	c.session.SetListener(sessionListener{c})
	return c
}

// SetObserver sets the single observer of state changes
func (c *Coordinator) SetObserver(o StateObserver) {
	c.observer = o
}

// State returns a snapshot of the current state
func (c *Coordinator) State() UiState {
	return c.state
}

func (c *Coordinator) changed() {
	if c.observer != nil && !c.closed {
		c.observer.StateChanged(c.state)
	}
}

// Start connects the playback session
func (c *Coordinator) Start() {
	c.session.Connect()
}

// Close tears the coordinator down. Results of in-flight requests are
// discarded and session events stop reaching the state. Idempotent.
func (c *Coordinator) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	c.session.Release()
	c.logger.Debug("coordinator closed")
}

// === Stations ===

// LoadStations requests the most clicked stations of the current country
func (c *Coordinator) LoadStations() {
	c.loadStations()
	c.changed()
}

func (c *Coordinator) loadStations() {
	query := domain.StationQuery{
		CountryCode: c.state.CountryCode,
		Order:       domain.OrderClickCount,
		Reverse:     true,
		Limit:       c.limit,
		HideBroken:  c.hideBroken,
	}
	c.state.SearchQuery = ""
	c.requestStations("country", func(ctx context.Context) ([]domain.Station, error) {
		return c.directory.ListStationsByCountry(ctx, query)
	})
}

// SearchStations replaces the list with stations matching text by name.
// Blank text goes back to the country list.
func (c *Coordinator) SearchStations(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		c.LoadStations()
		return
	}

	limit := c.limit
	c.state.SearchQuery = text
	c.requestStations("search", func(ctx context.Context) ([]domain.Station, error) {
		return c.directory.SearchStationsByName(ctx, text, 0, limit)
	})
	c.changed()
}

// requestStations runs fetch in the background under a new sequence number.
// Only the completion of the latest request is applied.
func (c *Coordinator) requestStations(kind string, fetch func(context.Context) ([]domain.Station, error)) {
	if c.closed {
		return
	}
	c.stationsSeq++
	seq := c.stationsSeq

	c.state.ErrorMessage = ""
	c.state.Loading = true
	c.logger.Debug("loading stations", "kind", kind, "seq", seq, "countryCode", c.state.CountryCode)

	ctx := c.ctx
	go func() {
		stations, err := fetch(ctx)
		c.dispatch.Post(func() { c.applyStations(seq, stations, err) })
	}()
}

func (c *Coordinator) applyStations(seq uint64, stations []domain.Station, err error) {
	if c.closed {
		c.logger.Debug("discarding station result after close", "seq", seq)
		return
	}
	if seq != c.stationsSeq {
		c.logger.Debug("discarding station result", "error", domain.ErrStaleResult, "seq", seq, "latest", c.stationsSeq)
		return
	}

	c.state.Loading = false
	if err != nil {
		c.logger.Error("failed to load stations", "error", err, "seq", seq)
		c.state.ErrorMessage = errorMessage(err)
	} else {
		c.state.Stations = stations
		c.logger.Info("stations loaded", "count", len(stations), "seq", seq)
	}
	c.changed()
}

// errorMessage returns the text shown to the user for a failed load
func errorMessage(err error) string {
	if err == nil || strings.TrimSpace(err.Error()) == "" {
		return loadStationsFailedMsg
	}
	if errors.Is(err, context.Canceled) {
		return loadStationsFailedMsg
	}
	return err.Error()
}

// === Countries ===

// LoadCountries fetches the country list once. Repeated calls while the
// list is loading or loaded do nothing.
func (c *Coordinator) LoadCountries() {
	if c.closed || c.countriesLoading || c.countriesLoaded {
		return
	}
	c.countriesLoading = true
	c.state.CountriesLoading = true

	ctx := c.ctx
	go func() {
		countries, err := c.directory.ListCountries(ctx, domain.OrderName)
		c.dispatch.Post(func() { c.applyCountries(countries, err) })
	}()
	c.changed()
}

func (c *Coordinator) applyCountries(countries []domain.Country, err error) {
	if c.closed {
		return
	}
	c.countriesLoading = false
	c.state.CountriesLoading = false

	if err != nil {
		// Secondary feature: no banner, the picker just stays empty
		c.logger.Warn("failed to load countries", "error", err)
	} else {
		sorted := make([]domain.Country, len(countries))
		copy(sorted, countries)
		sort.SliceStable(sorted, func(i, j int) bool {
			return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
		})
		c.state.Countries = sorted
		c.countriesLoaded = true
		c.logger.Info("countries loaded", "count", len(sorted))
	}
	c.changed()
}

// SelectCountry switches to country and reloads its stations. The change
// and the reload land in the same state update.
func (c *Coordinator) SelectCountry(country domain.Country) {
	if c.closed {
		return
	}
	if err := c.prefs.SetCountryCode(country.Code); err != nil {
		if errors.Is(err, domain.ErrInvalidCountryCode) {
			c.logger.Warn("ignoring country selection", "error", err)
			return
		}
		c.logger.Error("failed to save country preference", "error", err, "countryCode", country.Code)
	}
	c.state.CountryCode = strings.ToUpper(strings.TrimSpace(country.Code))
	c.state.Stations = nil
	c.loadStations()
	c.changed()
}

// === Playback ===

// PlayStation starts playing station. Actual playing state arrives later
// through session events.
func (c *Coordinator) PlayStation(station domain.Station) {
	if c.closed {
		return
	}
	item := c.playback.ItemForStation(station)
	c.logger.Info("playing station", "stationID", station.ID, "name", station.Name, "streamType", item.StreamType.String())

	c.state.NowPlayingVisible = true
	c.session.SetActiveItem(item)
	c.session.Prepare()
	c.session.Play()
	c.changed()

	ctx := c.ctx
	go c.playback.ReportPlay(ctx, station)
}

// TogglePlayPause pauses a playing session and resumes a paused one.
// Does nothing without a connected session.
func (c *Coordinator) TogglePlayPause() {
	playing, ok := c.session.IsPlaying()
	if !ok {
		c.logger.Debug("toggle ignored", "error", domain.ErrNoActiveSession)
		return
	}
	if playing {
		c.session.Pause()
	} else {
		c.session.Play()
	}
}

// sessionListener feeds session events into the coordinator. These are
// the only writers of the playback state.
type sessionListener struct {
	c *Coordinator
}

func (l sessionListener) OnItemChanged(item *domain.PlaybackItem) {
	if l.c.closed {
		return
	}
	l.c.state.Playback.Item = item
	if item != nil {
		l.c.state.NowPlayingVisible = true
	}
	l.c.changed()
}

func (l sessionListener) OnPlayingChanged(playing bool) {
	if l.c.closed {
		return
	}
	l.c.state.Playback.Playing = playing
	l.c.changed()
}

func (l sessionListener) OnBufferingChanged(buffering bool) {
	if l.c.closed {
		return
	}
	l.c.state.Playback.Buffering = buffering
	l.c.changed()
}
