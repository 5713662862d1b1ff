package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/praeterii/radio/internal/coordinator"
	"github.com/praeterii/radio/internal/domain"
	"github.com/praeterii/radio/internal/search"
	"github.com/praeterii/radio/internal/tui/styles"
)

// Coordinator is the part of the coordinator the UI drives
type Coordinator interface {
	State() coordinator.UiState
	LoadStations()
	SearchStations(text string)
	LoadCountries()
	SelectCountry(country domain.Country)
	PlayStation(station domain.Station)
	TogglePlayPause()
}

// Mode is what the keyboard currently controls
type Mode int

const (
	ModeBrowse Mode = iota
	ModeFilter
	ModeSearch
	ModeCountries
)

// chromeHeight is header + now playing bar + footer
const chromeHeight = 6

// Model is the Bubble Tea model for the station browser
type Model struct {
	ui  coordinator.UiState // last snapshot
	ctl Coordinator

	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	input   textinput.Model
	mode    Mode

	// Local filter over the loaded stations
	index    *search.StationIndex
	filter   string
	filtered []search.StationMatch
	cursor   int
	offset   int

	// Country picker
	countries     []domain.Country
	countryCursor int

	width  int
	height int
}

// NewModel creates the model around a coordinator
func NewModel(ctl Coordinator) Model {
	ti := textinput.New()
	ti.CharLimit = 80
	ti.Prompt = ""
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	m := Model{
		ctl:     ctl,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		input:   ti,
		width:   80,
		height:  24,
	}
	m.sync()
	return m
}

// Init starts the spinner; loading is kicked off by the caller
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Mode returns the current input mode
func (m Model) Mode() Mode {
	return m.mode
}

// Selected returns the station under the cursor
func (m Model) Selected() (domain.Station, bool) {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return domain.Station{}, false
	}
	return m.filtered[m.cursor].Station, true
}

// sync pulls the coordinator's state and refilters when the list changed
func (m *Model) sync() {
	prev := m.ui.Stations
	m.ui = m.ctl.State()
	if m.index == nil || !sameStations(prev, m.ui.Stations) {
		m.index = search.NewStationIndex(m.ui.Stations)
		m.refilter()
	}
	if m.mode == ModeCountries {
		m.refilterCountries()
	}
}

func sameStations(a, b []domain.Station) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

func (m *Model) refilter() {
	m.filtered = m.index.Filter(m.filter)
	m.clampCursor()
}

func (m *Model) refilterCountries() {
	m.countries = search.FilterCountries(m.input.Value(), m.ui.Countries)
	if m.countryCursor >= len(m.countries) {
		m.countryCursor = len(m.countries) - 1
	}
	if m.countryCursor < 0 {
		m.countryCursor = 0
	}
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.filtered) {
		m.cursor = len(m.filtered) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	visible := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m Model) listHeight() int {
	h := m.height - chromeHeight
	if h < 1 {
		h = 1
	}
	return h
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dispatchMsg:
		msg.fn()
		m.sync()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.clampCursor()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		var cmd tea.Cmd
		switch m.mode {
		case ModeFilter:
			cmd = m.handleFilterKey(msg)
		case ModeSearch:
			cmd = m.handleSearchKey(msg)
		case ModeCountries:
			cmd = m.handleCountryKey(msg)
		default:
			cmd = m.handleBrowseKey(msg)
		}
		m.sync()
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleBrowseKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.listHeight())
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.listHeight())
	case key.Matches(msg, m.keys.Home):
		m.moveCursor(-len(m.filtered))
	case key.Matches(msg, m.keys.End):
		m.moveCursor(len(m.filtered))
	case key.Matches(msg, m.keys.Play):
		if station, ok := m.Selected(); ok {
			m.ctl.PlayStation(station)
		}
	case key.Matches(msg, m.keys.Toggle):
		m.ctl.TogglePlayPause()
	case key.Matches(msg, m.keys.Retry):
		m.ctl.LoadStations()
	case key.Matches(msg, m.keys.Country):
		m.ctl.LoadCountries()
		m.mode = ModeCountries
		m.countryCursor = 0
		return m.openInput("country name or code")
	case key.Matches(msg, m.keys.Filter):
		m.mode = ModeFilter
		cmd := m.openInput("filter loaded stations")
		m.input.SetValue(m.filter)
		return cmd
	case key.Matches(msg, m.keys.Search):
		m.mode = ModeSearch
		cmd := m.openInput("station name")
		m.input.SetValue(m.ui.SearchQuery)
		return cmd
	case key.Matches(msg, m.keys.Escape):
		if m.filter != "" {
			m.filter = ""
			m.refilter()
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

func (m *Model) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.filter = ""
		m.closeInput()
		m.refilter()
		return nil
	case tea.KeyEnter:
		m.closeInput()
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != m.filter {
		m.filter = v
		m.cursor = 0
		m.refilter()
	}
	return cmd
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeInput()
		return nil
	case tea.KeyEnter:
		text := m.input.Value()
		m.closeInput()
		m.filter = ""
		m.cursor = 0
		m.ctl.SearchStations(text)
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) handleCountryKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeInput()
		return nil
	case tea.KeyEnter:
		if m.countryCursor < len(m.countries) {
			country := m.countries[m.countryCursor]
			m.closeInput()
			m.filter = ""
			m.cursor = 0
			m.ctl.SelectCountry(country)
		}
		return nil
	case tea.KeyUp:
		if m.countryCursor > 0 {
			m.countryCursor--
		}
		return nil
	case tea.KeyDown:
		if m.countryCursor < len(m.countries)-1 {
			m.countryCursor++
		}
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.countryCursor = 0
	m.refilterCountries()
	return cmd
}

func (m *Model) openInput(placeholder string) tea.Cmd {
	m.input.Placeholder = placeholder
	m.input.SetValue("")
	return m.input.Focus()
}

func (m *Model) closeInput() {
	m.mode = ModeBrowse
	m.input.Blur()
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}
