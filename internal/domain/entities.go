package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// StationOrder is the ordering key understood by the station directory
type StationOrder string

const (
	OrderName         StationOrder = "name"
	OrderStationCount StationOrder = "stationcount"
	OrderClickCount   StationOrder = "clickcount"
)

// Station is a single internet radio stream entry in the directory.
// Values are created from directory responses and never mutated.
type Station struct {
	ID          string   // Directory UUID (stationuuid)
	Name        string   // Display name
	URL         string   // Stream URL as registered
	ResolvedURL string   // Stream URL after playlist resolution by the directory
	Homepage    string   // Station website
	IconURL     string   // Favicon / artwork
	Tags        []string // Free-form genre tags
	Country     string   // Country display name
	CountryCode string   // ISO 3166-1 alpha-2
	Language    string
	Codec       string // e.g. "MP3", "AAC"
	Bitrate     int    // kbps, 0 if unknown
	Votes       int
	ClickCount  int
	LastCheckOK bool
}

// IsSecure reports whether the stream URL uses secure transport
func (s Station) IsSecure() bool {
	u, err := url.Parse(strings.TrimSpace(s.URL))
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, "https")
}

// IsHLS reports whether the stream URL points at an HLS manifest
func (s Station) IsHLS() bool {
	return strings.Contains(strings.ToLower(s.URL), ".m3u8")
}

// Description returns secondary info for list rendering (e.g. "AAC 128k · jazz, swing")
func (s Station) Description() string {
	var parts []string
	if s.Codec != "" {
		codec := s.Codec
		if s.Bitrate > 0 {
			codec += " " + strconv.Itoa(s.Bitrate) + "k"
		}
		parts = append(parts, codec)
	}
	if len(s.Tags) > 0 {
		tags := s.Tags
		if len(tags) > 3 {
			tags = tags[:3]
		}
		parts = append(parts, strings.Join(tags, ", "))
	}
	return strings.Join(parts, " · ")
}

// Country is a directory country entry. Identity is Code.
type Country struct {
	Name         string // Display name
	Code         string // ISO 3166-1 alpha-2
	StationCount int
}

// StationQuery holds the parameters of a by-country station request.
// Built per request, never persisted.
type StationQuery struct {
	CountryCode string
	Order       StationOrder
	Offset      int
	Limit       int
	Reverse     bool
	HideBroken  bool
}

// ClickResult is the directory's answer to a click registration
type ClickResult struct {
	OK        bool
	Message   string
	StationID string
	Name      string
	URL       string
}
