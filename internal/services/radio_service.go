package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/essenza/backend/internal/config"
	"github.com/essenza/backend/internal/models"
	"github.com/essenza/backend/internal/radio"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const radioConfigCacheKey = "radio:config"

type RadioService struct {
	db    *gorm.DB
	redis *redis.Client
	cfg   *config.Config
}

func NewRadioService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *RadioService {
	return &RadioService{db: db, redis: redisClient, cfg: cfg}
}

// GetConfig reads the singleton broadcast config. Every listening session
// polls this a few times a minute, so reads go through a short-TTL Redis
// cache; the database stays the source of truth and a cache miss or a Redis
// outage just falls through to Postgres.
func (s *RadioService) GetConfig(ctx context.Context) (*models.RadioConfig, error) {
	if s.redis != nil {
		if data, err := s.redis.Get(ctx, radioConfigCacheKey).Bytes(); err == nil {
			var rc models.RadioConfig
			if json.Unmarshal(data, &rc) == nil {
				return &rc, nil
			}
		}
	}

	var rc models.RadioConfig
	if err := s.db.First(&rc, models.RadioConfigID).Error; err != nil {
		return nil, fmt.Errorf("failed to load radio config: %w", err)
	}

	if s.redis != nil {
		if data, err := json.Marshal(&rc); err == nil {
			if err := s.redis.Set(ctx, radioConfigCacheKey, data, s.cfg.RadioConfigCacheTTL).Err(); err != nil {
				log.Printf("WARN: failed to cache radio config: %v", err)
			}
		}
	}
	return &rc, nil
}

// SetLive flips the broadcast flag. Turning the station on stamps a fresh
// loop-start epoch, which is a hard reset of the rotation to track 0 for
// every listener at once; turning it off leaves the epoch untouched. This is
// the only write path to the config row, so a plain overwrite is safe.
func (s *RadioService) SetLive(ctx context.Context, live bool) (*models.RadioConfig, error) {
	updates := map[string]interface{}{"is_live": live}
	if live {
		updates["loop_start_epoch"] = time.Now().Unix()
	}

	result := s.db.Model(&models.RadioConfig{}).
		Where("id = ?", models.RadioConfigID).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, errors.New("radio config not seeded")
	}

	if s.redis != nil {
		if err := s.redis.Del(ctx, radioConfigCacheKey).Err(); err != nil {
			log.Printf("WARN: failed to invalidate radio config cache: %v", err)
		}
	}

	var rc models.RadioConfig
	if err := s.db.First(&rc, models.RadioConfigID).Error; err != nil {
		return nil, err
	}
	return &rc, nil
}

// GetRotation returns the active tracks in rotation order.
func (s *RadioService) GetRotation() ([]*models.Track, error) {
	var tracks []*models.Track
	err := s.db.Where("is_active = ?", true).
		Order("sort_order ASC, created_at ASC").
		Find(&tracks).Error
	if err != nil {
		return nil, err
	}
	return tracks, nil
}

// RotationSnapshot maps the catalog rows into the clock's immutable entries.
func (s *RadioService) RotationSnapshot() ([]radio.Track, error) {
	tracks, err := s.GetRotation()
	if err != nil {
		return nil, err
	}
	rotation := make([]radio.Track, 0, len(tracks))
	for _, t := range tracks {
		rotation = append(rotation, radio.Track{
			ID:              t.ID,
			Title:           t.Title,
			Artist:          t.Artist,
			DurationSeconds: int64(t.DurationSeconds),
			VideoID:         t.VideoID,
		})
	}
	return rotation, nil
}

// NowPlayingInfo is the public now-playing payload.
type NowPlayingInfo struct {
	Live            bool          `json:"live"`
	LoopStartEpoch  int64         `json:"loop_start_epoch,omitempty"`
	Track           *models.Track `json:"track,omitempty"`
	TrackIndex      int           `json:"track_index,omitempty"`
	PositionSeconds int64         `json:"position_seconds,omitempty"`
}

// NowPlaying computes what the station is broadcasting right now. A station
// that is offline, or whose rotation is degenerate, yields Live=false /
// Track=nil rather than an error: the storefront shows "radio unavailable"
// and nothing breaks.
func (s *RadioService) NowPlaying(ctx context.Context) (*NowPlayingInfo, error) {
	rc, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	if !rc.IsLive {
		return &NowPlayingInfo{Live: false}, nil
	}

	tracks, err := s.GetRotation()
	if err != nil {
		return nil, err
	}
	rotation := make([]radio.Track, 0, len(tracks))
	for _, t := range tracks {
		rotation = append(rotation, radio.Track{
			ID:              t.ID,
			Title:           t.Title,
			Artist:          t.Artist,
			DurationSeconds: int64(t.DurationSeconds),
			VideoID:         t.VideoID,
		})
	}

	state := radio.ComputeState(rotation, rc.LoopStartEpoch, time.Now().Unix())
	if state == nil {
		return &NowPlayingInfo{Live: true, LoopStartEpoch: rc.LoopStartEpoch}, nil
	}

	return &NowPlayingInfo{
		Live:            true,
		LoopStartEpoch:  rc.LoopStartEpoch,
		Track:           tracks[state.Index],
		TrackIndex:      state.Index,
		PositionSeconds: state.Position,
	}, nil
}

// TrackInput carries the admin-supplied track fields.
type TrackInput struct {
	Title           string
	Artist          string
	DurationSeconds int
	YouTubeURL      string
	AudioAssetID    *uuid.UUID
	IsActive        bool
	SortOrder       int
}

// CreateTrack adds a track to the catalog. A YouTube URL is resolved to its
// video ID here so sessions never parse URLs.
func (s *RadioService) CreateTrack(input TrackInput) (*models.Track, error) {
	if input.Title == "" {
		return nil, errors.New("title is required")
	}
	if input.DurationSeconds < 0 {
		return nil, errors.New("duration cannot be negative")
	}

	track := &models.Track{
		Title:           input.Title,
		Artist:          input.Artist,
		DurationSeconds: input.DurationSeconds,
		YouTubeURL:      input.YouTubeURL,
		AudioAssetID:    input.AudioAssetID,
		IsActive:        input.IsActive,
		SortOrder:       input.SortOrder,
	}

	if input.YouTubeURL != "" {
		videoID, ok := radio.ExtractVideoID(input.YouTubeURL)
		if !ok {
			return nil, errors.New("unrecognized YouTube URL")
		}
		track.VideoID = videoID
	}

	if track.VideoID == "" && track.AudioAssetID == nil {
		return nil, errors.New("track needs either a YouTube URL or an audio asset")
	}

	if err := s.db.Create(track).Error; err != nil {
		return nil, fmt.Errorf("failed to create track: %w", err)
	}
	return track, nil
}

// UpdateTrack updates an existing track's metadata.
func (s *RadioService) UpdateTrack(trackID uuid.UUID, input TrackInput) (*models.Track, error) {
	var track models.Track
	if err := s.db.First(&track, "id = ?", trackID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("track not found")
		}
		return nil, err
	}

	if input.Title == "" {
		return nil, errors.New("title is required")
	}
	if input.DurationSeconds < 0 {
		return nil, errors.New("duration cannot be negative")
	}

	track.Title = input.Title
	track.Artist = input.Artist
	track.DurationSeconds = input.DurationSeconds
	track.AudioAssetID = input.AudioAssetID
	track.IsActive = input.IsActive
	track.SortOrder = input.SortOrder
	track.YouTubeURL = input.YouTubeURL
	track.VideoID = ""
	if input.YouTubeURL != "" {
		videoID, ok := radio.ExtractVideoID(input.YouTubeURL)
		if !ok {
			return nil, errors.New("unrecognized YouTube URL")
		}
		track.VideoID = videoID
	}

	if err := s.db.Save(&track).Error; err != nil {
		return nil, err
	}
	return &track, nil
}

// DeleteTrack removes a track from the catalog. Running sessions keep their
// pinned rotation until the next epoch reset, so deletion never yanks audio
// mid-listen.
func (s *RadioService) DeleteTrack(trackID uuid.UUID) error {
	result := s.db.Delete(&models.Track{}, "id = ?", trackID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("track not found")
	}
	return nil
}

// ReorderTracks rewrites sort_order to match the given ID sequence.
func (s *RadioService) ReorderTracks(trackIDs []uuid.UUID) error {
	if len(trackIDs) == 0 {
		return errors.New("no track order given")
	}

	tx := s.db.Begin()
	for i, id := range trackIDs {
		result := tx.Model(&models.Track{}).Where("id = ?", id).Update("sort_order", i)
		if result.Error != nil {
			tx.Rollback()
			return result.Error
		}
		if result.RowsAffected == 0 {
			tx.Rollback()
			return fmt.Errorf("track %s not found", id)
		}
	}
	return tx.Commit().Error
}

// GetAllTracks returns the full catalog (admin view, inactive included).
func (s *RadioService) GetAllTracks() ([]*models.Track, error) {
	var tracks []*models.Track
	err := s.db.Order("sort_order ASC, created_at ASC").Find(&tracks).Error
	if err != nil {
		return nil, err
	}
	return tracks, nil
}

// stationSource adapts the service to the session controller's read-only
// view of the shared state.
type stationSource struct {
	svc *RadioService
}

// Source returns a radio.StationSource backed by this service, for
// server-side listening sessions (simulators, kiosk playback).
func (s *RadioService) Source() radio.StationSource {
	return &stationSource{svc: s}
}

func (src *stationSource) Config(ctx context.Context) (radio.StationConfig, error) {
	rc, err := src.svc.GetConfig(ctx)
	if err != nil {
		return radio.StationConfig{}, err
	}
	return radio.StationConfig{Live: rc.IsLive, LoopStartEpoch: rc.LoopStartEpoch}, nil
}

func (src *stationSource) Rotation(ctx context.Context) ([]radio.Track, error) {
	return src.svc.RotationSnapshot()
}
