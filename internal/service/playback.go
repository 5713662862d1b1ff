package service

import (
	"context"
	"log/slog"

	"github.com/praeterii/radio/internal/domain"
)

// clickRegistrar abstracts directory play telemetry (consumer-defined interface)
type clickRegistrar interface {
	RegisterClick(ctx context.Context, stationID string) (*domain.ClickResult, error)
}

// PlaybackService turns stations into playback items and reports plays
type PlaybackService struct {
	clicks clickRegistrar
	logger *slog.Logger
}

// NewPlaybackService creates a new playback service
func NewPlaybackService(clicks clickRegistrar, logger *slog.Logger) *PlaybackService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaybackService{
		clicks: clicks,
		logger: logger,
	}
}

// ItemForStation builds the session item for a station.
// HLS manifests are tagged so the player picks the right demuxer.
func (s *PlaybackService) ItemForStation(station domain.Station) domain.PlaybackItem {
	item := domain.PlaybackItem{
		ID:         station.ID,
		URL:        station.URL,
		Title:      station.Name,
		ArtworkURL: station.IconURL,
	}
	if station.IsHLS() {
		item.StreamType = domain.StreamTypeHLS
	}
	return item
}

// ReportPlay registers a click for the station. Failures are logged only.
func (s *PlaybackService) ReportPlay(ctx context.Context, station domain.Station) {
	if s.clicks == nil {
		return
	}
	result, err := s.clicks.RegisterClick(ctx, station.ID)
	if err != nil {
		s.logger.Warn("failed to register station click", "error", err, "stationID", station.ID)
		return
	}
	s.logger.Debug("registered station click", "stationID", station.ID, "ok", result.OK, "message", result.Message)
}
