package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/nepallicenseprep/likhit-backend/internal/model"
)

// ArchiveCap is the number of results kept per archive key.
const ArchiveCap = 10

// prependCapped returns a new slice with r first, truncated to ArchiveCap.
func prependCapped(existing []model.SessionResult, r model.SessionResult) []model.SessionResult {
	out := make([]model.SessionResult, 0, min(len(existing)+1, ArchiveCap))
	out = append(out, r)
	for _, e := range existing {
		if len(out) == ArchiveCap {
			break
		}
		out = append(out, e)
	}
	return out
}

// MemoryResultArchive keeps result histories in process memory.
type MemoryResultArchive struct {
	mu      sync.Mutex
	entries map[model.ArchiveKey][]model.SessionResult
}

// NewMemoryResultArchive creates an empty in-memory archive.
func NewMemoryResultArchive() *MemoryResultArchive {
	return &MemoryResultArchive{entries: make(map[model.ArchiveKey][]model.SessionResult)}
}

// Load returns the history for key, newest first.
func (a *MemoryResultArchive) Load(_ context.Context, key model.ArchiveKey) []model.SessionResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.entries[key])
}

// Append prepends r and drops anything past the cap.
func (a *MemoryResultArchive) Append(_ context.Context, key model.ArchiveKey, r model.SessionResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries[key] = prependCapped(a.entries[key], r)
	return nil
}
