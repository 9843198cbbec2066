package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nepallicenseprep/likhit-backend/internal/config"
	"github.com/nepallicenseprep/likhit-backend/internal/model"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultStore persists finished-session analytics rows.
type ResultStore interface {
	BulkInsert(ctx context.Context, batch []model.ResultRecord) error
	Insert(ctx context.Context, rec model.ResultRecord) error
}

// ResultWorker drains persist_results_queue into Postgres in batches.
type ResultWorker struct {
	store ResultStore
	rdb   *redis.Client
	log   zerolog.Logger

	batchSize    int
	batchTimeout time.Duration
	pollTimeout  time.Duration
}

func NewResultWorker(store ResultStore, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		store:        store,
		rdb:          rdb,
		log:          log.With().Str("component", "result_worker").Logger(),
		batchSize:    ResultBatchSize,
		batchTimeout: ResultBatchTimeout,
		pollTimeout:  ResultPollTimeout,
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start blocks until ctx is cancelled, then flushes what it holds.
func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]model.ResultRecord, 0, w.batchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= w.batchSize || time.Since(lastFlush) >= w.batchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, w.pollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
					time.Sleep(w.pollTimeout)
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var rec model.ResultRecord
			if err := json.Unmarshal([]byte(item[1]), &rec); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, rec)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert wrapper
// ----------------------------------------------------------------

func (w *ResultWorker) flushSafe(ctx context.Context, batch []model.ResultRecord) {
	if len(batch) == 0 {
		return
	}

	if err := w.store.BulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("size", len(batch)).Msg("bulk result insert failed, using fallback")

		for _, rec := range batch {
			if err := w.store.Insert(ctx, rec); err != nil {
				w.log.Error().Err(err).Str("result_id", rec.ID.String()).Msg("persistSingle failed, requeueing")
				w.requeue(ctx, rec)
			}
		}
	}

	w.clearStatsCache(ctx, batch)
}

// requeue pushes a record back for the next batch. A record that cannot be
// requeued is lost from analytics, so the failure is logged with its id.
func (w *ResultWorker) requeue(ctx context.Context, rec model.ResultRecord) {
	raw, err := json.Marshal(rec)
	if err != nil {
		w.log.Error().Err(err).Str("result_id", rec.ID.String()).Msg("encode result for requeue failed, record dropped")
		return
	}
	if err := w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err(); err != nil {
		w.log.Error().Err(err).Str("result_id", rec.ID.String()).Msg("requeue failed, record dropped")
	}
}

// clearStatsCache drops the cached aggregates touched by the batch so the
// next stats request reads fresh numbers.
func (w *ResultWorker) clearStatsCache(ctx context.Context, batch []model.ResultRecord) {
	pipe := w.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.StatsKey(""))

	seen := make(map[model.Flow]bool)
	for _, rec := range batch {
		if !seen[rec.Flow] {
			seen[rec.Flow] = true
			pipe.Del(ctx, config.CacheKey.StatsKey(string(rec.Flow)))
		}
	}

	_, _ = pipe.Exec(ctx)
}
