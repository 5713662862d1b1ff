package service

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jeandeaual/go-locale"
	"github.com/praeterii/radio/internal/domain"
)

const (
	// countryCodeKey is the preference key holding the selected country
	countryCodeKey = "country_code"

	// fallbackCountryCode is used when neither a preference nor a device region exists
	fallbackCountryCode = "US"
)

// LocaleService resolves and persists the user's selected country code
type LocaleService struct {
	prefs    domain.PreferenceStore
	region   func() (string, error) // Device region lookup
	override string                 // Session-only override, never persisted
	logger   *slog.Logger
}

// NewLocaleService creates a locale service backed by the given store
func NewLocaleService(prefs domain.PreferenceStore, logger *slog.Logger) *LocaleService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocaleService{
		prefs:  prefs,
		region: locale.GetRegion,
		logger: logger,
	}
}

// UseOverride makes CurrentCountryCode return code until SetCountryCode is called.
// Used for the config/flag override, which must not clobber the stored choice.
func (s *LocaleService) UseOverride(code string) {
	s.override = normalizeCountryCode(code)
}

// CurrentCountryCode returns the override, the stored preference, the device
// region, or "US", in that order.
func (s *LocaleService) CurrentCountryCode() string {
	if s.override != "" {
		return s.override
	}
	if saved, ok := s.prefs.GetString(countryCodeKey); ok {
		if code := normalizeCountryCode(saved); code != "" {
			return code
		}
	}
	return s.deviceCountryCode()
}

// SetCountryCode persists code as the selected country. Codes that are not
// two letters are rejected with domain.ErrInvalidCountryCode and nothing
// is stored.
func (s *LocaleService) SetCountryCode(code string) error {
	normalized := normalizeCountryCode(code)
	if normalized == "" {
		return fmt.Errorf("%w: %q", domain.ErrInvalidCountryCode, code)
	}
	code = normalized
	s.override = ""
	if err := s.prefs.SetString(countryCodeKey, code); err != nil {
		return err
	}
	s.logger.Info("saved country preference", "countryCode", code)
	return nil
}

func (s *LocaleService) deviceCountryCode() string {
	region, err := s.region()
	if err != nil {
		s.logger.Debug("device region unavailable", "error", err)
	}
	if code := normalizeCountryCode(region); code != "" {
		return code
	}
	return fallbackCountryCode
}

// normalizeCountryCode upper-cases a two letter code and rejects anything else
func normalizeCountryCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return ""
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return ""
		}
	}
	return code
}
