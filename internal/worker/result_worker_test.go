package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nepallicenseprep/likhit-backend/internal/config"
	"github.com/nepallicenseprep/likhit-backend/internal/model"
)

type fakeStore struct {
	mu        sync.Mutex
	bulkErr   error
	failIDs   map[uuid.UUID]bool
	inserted  []model.ResultRecord
	bulkCalls int
}

func (s *fakeStore) BulkInsert(_ context.Context, batch []model.ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bulkCalls++
	if s.bulkErr != nil {
		return s.bulkErr
	}
	s.inserted = append(s.inserted, batch...)
	return nil
}

func (s *fakeStore) Insert(_ context.Context, rec model.ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIDs[rec.ID] {
		return errors.New("insert failed")
	}
	s.inserted = append(s.inserted, rec)
	return nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inserted)
}

func newWorker(t *testing.T, store ResultStore) (*ResultWorker, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	w := NewResultWorker(store, rdb, zerolog.Nop())
	w.batchTimeout = 10 * time.Millisecond
	return w, mr, rdb
}

func record(flow model.Flow) model.ResultRecord {
	return model.ResultRecord{
		ID:             uuid.New(),
		Owner:          "client",
		Flow:           flow,
		Category:       model.CategoryA,
		Score:          18,
		TotalQuestions: 20,
		Passed:         true,
		FinishedAt:     time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestResultWorkerDrainsQueue(t *testing.T) {
	store := &fakeStore{}
	w, _, rdb := newWorker(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	for range 3 {
		raw, _ := json.Marshal(record(model.FlowMock))
		if err := rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err(); err != nil {
			t.Fatal(err)
		}
	}
	rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, "not json")

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for store.count() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("persisted %d records", store.count())
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}

	if n, _ := rdb.LLen(context.Background(), config.WorkerKey.PersistResultsQueue).Result(); n != 0 {
		t.Fatalf("queue length = %d", n)
	}
}

func TestFlushFallsBackAndRequeues(t *testing.T) {
	bad := record(model.FlowReal)
	store := &fakeStore{bulkErr: errors.New("bulk failed"), failIDs: map[uuid.UUID]bool{bad.ID: true}}
	w, mr, rdb := newWorker(t, store)
	ctx := context.Background()

	mr.Set(config.CacheKey.StatsKey(""), "cached")
	mr.Set(config.CacheKey.StatsKey("real"), "cached")

	w.flushSafe(ctx, []model.ResultRecord{record(model.FlowReal), bad})

	if store.count() != 1 {
		t.Fatalf("inserted = %d, want 1", store.count())
	}
	items, err := rdb.LRange(ctx, config.WorkerKey.PersistResultsQueue, 0, -1).Result()
	if err != nil || len(items) != 1 {
		t.Fatalf("requeued = %v, %v", items, err)
	}
	var requeued model.ResultRecord
	if err := json.Unmarshal([]byte(items[0]), &requeued); err != nil || requeued.ID != bad.ID {
		t.Fatalf("requeued = %+v, %v", requeued, err)
	}
	if mr.Exists(config.CacheKey.StatsKey("")) || mr.Exists(config.CacheKey.StatsKey("real")) {
		t.Fatal("stats cache not cleared")
	}
}

func TestFailedRequeueIsLogged(t *testing.T) {
	bad := record(model.FlowMock)
	store := &fakeStore{bulkErr: errors.New("bulk failed"), failIDs: map[uuid.UUID]bool{bad.ID: true}}
	w, mr, _ := newWorker(t, store)

	var buf bytes.Buffer
	w.log = zerolog.New(&buf)

	// A string value at the queue key makes RPUSH fail with WRONGTYPE.
	mr.Set(config.WorkerKey.PersistResultsQueue, "occupied")

	w.flushSafe(context.Background(), []model.ResultRecord{bad})

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line %q: %v", line, err)
		}
		if entry["message"] == "requeue failed, record dropped" {
			found = entry["level"] == "error" && entry["result_id"] == bad.ID.String()
		}
	}
	if !found {
		t.Fatalf("requeue failure not logged: %s", buf.String())
	}
}
