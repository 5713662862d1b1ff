package radiobrowser

import (
	"bytes"
	"strconv"
	"strings"
)

// StationDTO is a station record as returned by the /json/stations endpoints.
// Only the fields the app uses are declared; the rest are ignored.
type StationDTO struct {
	StationUUID string   `json:"stationuuid"`
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	URLResolved string   `json:"url_resolved"`
	Homepage    string   `json:"homepage"`
	Favicon     string   `json:"favicon"`
	Tags        string   `json:"tags"` // Comma separated
	Country     string   `json:"country"`
	CountryCode string   `json:"countrycode"`
	Language    string   `json:"language"`
	Codec       string   `json:"codec"`
	Bitrate     flexInt  `json:"bitrate"`
	Votes       flexInt  `json:"votes"`
	ClickCount  flexInt  `json:"clickcount"`
	LastCheckOK flexBool `json:"lastcheckok"`
}

// CountryDTO is a record from /json/countries
type CountryDTO struct {
	Name         string  `json:"name"`
	ISO3166_1    string  `json:"iso_3166_1"`
	StationCount flexInt `json:"stationcount"`
}

// ClickResponse is the response of /json/url/{stationuuid}.
// Mirrors disagree on whether "ok" is a bool or a string.
type ClickResponse struct {
	OK          flexBool `json:"ok"`
	Message     string   `json:"message"`
	StationUUID string   `json:"stationuuid"`
	Name        string   `json:"name"`
	URL         string   `json:"url"`
}

// flexInt decodes a JSON number, a numeric string or null. Anything else is 0.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(b), `"`))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

// flexBool decodes true/false, 1/0 and their string forms. Anything else is false.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	s := strings.ToLower(string(bytes.Trim(bytes.TrimSpace(b), `"`)))
	switch s {
	case "true", "1", "yes":
		*f = true
	default:
		*f = false
	}
	return nil
}
