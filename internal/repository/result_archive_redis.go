package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nepallicenseprep/likhit-backend/internal/config"
	"github.com/nepallicenseprep/likhit-backend/internal/model"
)

// ErrArchiveContention is returned when concurrent writers kept invalidating
// the optimistic transaction.
var ErrArchiveContention = errors.New("archive write contention")

const archiveMaxRetries = 3

// RedisResultArchive stores each history as one JSON array under
// config.CacheKey.ArchiveKey.
type RedisResultArchive struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisResultArchive creates a new RedisResultArchive.
func NewRedisResultArchive(rdb *redis.Client, log zerolog.Logger) *RedisResultArchive {
	return &RedisResultArchive{
		rdb: rdb,
		log: log.With().Str("component", "result_archive").Logger(),
	}
}

func archiveKey(key model.ArchiveKey) string {
	return config.CacheKey.ArchiveKey(key.Owner, string(key.Flow), string(key.Category))
}

// Load returns the history for key, newest first. Missing, unreadable or
// malformed data is reported as an empty history.
func (a *RedisResultArchive) Load(ctx context.Context, key model.ArchiveKey) []model.SessionResult {
	raw, err := a.rdb.Get(ctx, archiveKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			a.log.Warn().Err(err).Str("key", archiveKey(key)).Msg("Failed to read archive")
		}
		return []model.SessionResult{}
	}
	return a.decode(key, raw)
}

func (a *RedisResultArchive) decode(key model.ArchiveKey, raw []byte) []model.SessionResult {
	var results []model.SessionResult
	if err := json.Unmarshal(raw, &results); err != nil {
		a.log.Warn().Err(err).Str("key", archiveKey(key)).Msg("Discarding malformed archive")
		return []model.SessionResult{}
	}
	if results == nil {
		return []model.SessionResult{}
	}
	return results
}

// Append prepends r inside a WATCH transaction so concurrent appends for the
// same key never overwrite each other.
func (a *RedisResultArchive) Append(ctx context.Context, key model.ArchiveKey, r model.SessionResult) error {
	k := archiveKey(key)

	txf := func(tx *redis.Tx) error {
		var existing []model.SessionResult
		raw, err := tx.Get(ctx, k).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			existing = a.decode(key, raw)
		}

		payload, err := json.Marshal(prependCapped(existing, r))
		if err != nil {
			return fmt.Errorf("encode archive: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, payload, 0)
			return nil
		})
		return err
	}

	for range archiveMaxRetries {
		err := a.rdb.Watch(ctx, txf, k)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("append archive: %w", err)
	}
	return ErrArchiveContention
}
