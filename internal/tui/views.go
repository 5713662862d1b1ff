package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/praeterii/radio/internal/domain"
	"github.com/praeterii/radio/internal/tui/styles"
)

// View renders the whole screen
func (m Model) View() string {
	if m.mode == ModeCountries {
		return m.renderCountryPicker()
	}

	sections := []string{
		m.renderHeader(),
		m.renderBody(),
	}
	if m.ui.NowPlayingVisible {
		sections = append(sections, m.renderNowPlaying())
	}
	sections = append(sections, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	title := styles.TitleStyle.Render("radio")

	context := styles.AccentStyle.Render(m.ui.CountryCode)
	if m.ui.SearchQuery != "" {
		context = styles.AccentStyle.Render(fmt.Sprintf("search %q", m.ui.SearchQuery))
	}

	count := fmt.Sprintf("%d stations", len(m.ui.Stations))
	if m.filter != "" {
		count = fmt.Sprintf("%d of %d stations", len(m.filtered), len(m.ui.Stations))
	}

	return styles.HeaderStyle.Render(title + "  " + context + "  " + styles.DimStyle.Render(count))
}

func (m Model) renderBody() string {
	height := m.listHeight()

	var content string
	switch {
	case m.ui.Loading:
		content = m.spinner.View() + " " + styles.DimStyle.Render("Loading stations...")
	case m.ui.ErrorMessage != "":
		content = styles.ErrorStyle.Render(m.ui.ErrorMessage) + "\n" +
			styles.DimStyle.Render("press ") + styles.AccentStyle.Render("r") + styles.DimStyle.Render(" to retry")
	case len(m.filtered) == 0 && m.filter != "":
		content = styles.DimStyle.Render("No matches")
	case len(m.filtered) == 0:
		content = styles.DimStyle.Render("No stations")
	default:
		content = m.renderStationList(height)
	}

	return lipgloss.NewStyle().Height(height).Render(content)
}

func (m Model) renderStationList(height int) string {
	end := m.offset + height
	if end > len(m.filtered) {
		end = len(m.filtered)
	}

	width := m.width - 2
	if width < 20 {
		width = 20
	}

	var playingID string
	if item := m.ui.Playback.Item; item != nil {
		playingID = item.ID
	}

	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		match := m.filtered[i]
		lines = append(lines, renderStationRow(match.Station, match.MatchedIndexes, i == m.cursor, match.Station.ID == playingID, width))
	}
	return strings.Join(lines, "\n")
}

func renderStationRow(s domain.Station, matched []int, selected, playing bool, width int) string {
	base := styles.NormalItemStyle
	if selected {
		base = styles.SelectedItemStyle
	}

	marker := "  "
	if playing {
		marker = "♪ "
	}

	detail := s.Description()
	nameWidth := width - len([]rune(detail)) - 4
	if nameWidth < 10 {
		nameWidth = 10
		detail = ""
	}

	name := styles.Truncate(s.Name, nameWidth)
	if name != s.Name {
		matched = nil
	}
	row := base.Render(marker) + styles.Highlight(name, matched, base)

	pad := width - lipgloss.Width(marker+name) - len([]rune(detail))
	if pad < 1 {
		pad = 1
	}
	return row + base.Render(strings.Repeat(" ", pad)) + base.Foreground(styles.DimGray).Render(detail)
}

func (m Model) renderNowPlaying() string {
	p := m.ui.Playback

	icon := styles.DimStyle.Render("■")
	status := "stopped"
	switch {
	case p.Buffering:
		icon = m.spinner.View()
		status = "buffering"
	case p.Playing:
		icon = styles.PlayingStyle.Render("▶")
		status = "playing"
	case p.Item != nil:
		icon = styles.AccentStyle.Render("❚❚")
		status = "paused"
	}

	title := "Connecting to player..."
	if p.Item != nil {
		title = p.Item.Title
		if title == "" {
			title = p.Item.URL
		}
	}

	width := m.width - 4
	if width < 20 {
		width = 20
	}
	line := icon + " " + styles.TitleStyle.Render(styles.Truncate(title, width-14)) + "  " + styles.DimStyle.Render(status)
	return styles.NowPlayingStyle.Width(width).Render(line)
}

func (m Model) renderFooter() string {
	switch m.mode {
	case ModeFilter:
		return styles.AccentStyle.Render("/ ") + m.input.View()
	case ModeSearch:
		return styles.AccentStyle.Render("search: ") + m.input.View()
	}
	return m.help.View(m.keys)
}

func (m Model) renderCountryPicker() string {
	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render("Select country"))
	b.WriteString("\n")
	b.WriteString(styles.AccentStyle.Render("> ") + m.input.View())
	b.WriteString("\n\n")

	visible := m.height - 10
	if visible < 3 {
		visible = 3
	}

	switch {
	case m.ui.CountriesLoading:
		b.WriteString(m.spinner.View() + " " + styles.DimStyle.Render("Loading countries..."))
	case len(m.countries) == 0:
		b.WriteString(styles.DimStyle.Render("No countries"))
	default:
		start := 0
		if m.countryCursor >= visible {
			start = m.countryCursor - visible + 1
		}
		end := start + visible
		if end > len(m.countries) {
			end = len(m.countries)
		}
		for i := start; i < end; i++ {
			c := m.countries[i]
			line := fmt.Sprintf("%s  %-32s %6d", c.Code, styles.Truncate(c.Name, 32), c.StationCount)
			if c.Code == m.ui.CountryCode {
				line = styles.AccentStyle.Render(line)
			}
			if i == m.countryCursor {
				line = styles.SelectedItemStyle.Render(line)
			} else {
				line = styles.NormalItemStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}
	}

	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(b.String()))
}
