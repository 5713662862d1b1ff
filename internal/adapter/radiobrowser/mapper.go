package radiobrowser

import (
	"strings"

	"github.com/praeterii/radio/internal/domain"
)

// MapStation converts a directory record to a domain station
func MapStation(dto StationDTO) domain.Station {
	return domain.Station{
		ID:          dto.StationUUID,
		Name:        strings.TrimSpace(dto.Name),
		URL:         strings.TrimSpace(dto.URL),
		ResolvedURL: strings.TrimSpace(dto.URLResolved),
		Homepage:    dto.Homepage,
		IconURL:     dto.Favicon,
		Tags:        splitTags(dto.Tags),
		Country:     dto.Country,
		CountryCode: strings.ToUpper(dto.CountryCode),
		Language:    dto.Language,
		Codec:       dto.Codec,
		Bitrate:     int(dto.Bitrate),
		Votes:       int(dto.Votes),
		ClickCount:  int(dto.ClickCount),
		LastCheckOK: bool(dto.LastCheckOK),
	}
}

// MapStations converts a slice of directory records
func MapStations(dtos []StationDTO) []domain.Station {
	stations := make([]domain.Station, 0, len(dtos))
	for _, dto := range dtos {
		stations = append(stations, MapStation(dto))
	}
	return stations
}

// MapCountries converts country records, dropping entries without a code
func MapCountries(dtos []CountryDTO) []domain.Country {
	countries := make([]domain.Country, 0, len(dtos))
	for _, dto := range dtos {
		code := strings.ToUpper(strings.TrimSpace(dto.ISO3166_1))
		if code == "" {
			continue
		}
		countries = append(countries, domain.Country{
			Name:         strings.TrimSpace(dto.Name),
			Code:         code,
			StationCount: int(dto.StationCount),
		})
	}
	return countries
}

// MapClickResult converts a click registration response
func MapClickResult(resp ClickResponse) *domain.ClickResult {
	return &domain.ClickResult{
		OK:        bool(resp.OK),
		Message:   resp.Message,
		StationID: resp.StationUUID,
		Name:      resp.Name,
		URL:       resp.URL,
	}
}

// secureOnly keeps stations whose stream URL uses https
func secureOnly(stations []domain.Station) []domain.Station {
	filtered := make([]domain.Station, 0, len(stations))
	for _, s := range stations {
		if s.IsSecure() {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func splitTags(tags string) []string {
	if strings.TrimSpace(tags) == "" {
		return nil
	}
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
