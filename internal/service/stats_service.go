package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nepallicenseprep/likhit-backend/internal/config"
	"github.com/nepallicenseprep/likhit-backend/internal/model"
)

// ErrStatsUnavailable is returned when no analytics store is configured.
var ErrStatsUnavailable = errors.New("statistics unavailable")

const statsCacheTTL = time.Minute

// StatsReader aggregates finished results.
type StatsReader interface {
	Stats(ctx context.Context, flow model.Flow) ([]model.CategoryStats, error)
}

// StatsService serves aggregate pass rates, cached briefly in Redis.
type StatsService struct {
	reader StatsReader
	rdb    *redis.Client
	log    zerolog.Logger
}

// NewStatsService creates a new StatsService. reader and rdb may be nil.
func NewStatsService(reader StatsReader, rdb *redis.Client, log zerolog.Logger) *StatsService {
	return &StatsService{reader: reader, rdb: rdb, log: log.With().Str("component", "stats_service").Logger()}
}

// Get returns statistics for one flow, or all flows when flow is empty.
func (s *StatsService) Get(ctx context.Context, flow model.Flow) ([]model.CategoryStats, error) {
	if flow != "" && !flow.IsValid() {
		return nil, ErrUnknownFlow
	}
	if s.reader == nil {
		return nil, ErrStatsUnavailable
	}

	key := config.CacheKey.StatsKey(string(flow))
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
			var cached []model.CategoryStats
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Msg("Stats cache read failed")
		}
	}

	stats, err := s.reader.Stats(ctx, flow)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.rdb.Set(ctx, key, raw, statsCacheTTL).Err(); err != nil {
				s.log.Warn().Err(err).Msg("Stats cache write failed")
			}
		}
	}
	return stats, nil
}
