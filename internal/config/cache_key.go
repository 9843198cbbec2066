package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ArchiveKey returns the key holding a client's result history for one flow
// and category, stored as a JSON array newest first.
func (r *CacheKeyStruct) ArchiveKey(owner, flow, category string) string {
	return fmt.Sprintf("archive:%s:%s:%s", owner, flow, category)
}

// StatsKey returns the cache key for aggregated result statistics
func (r *CacheKeyStruct) StatsKey(flow string) string {
	if flow == "" {
		flow = "all"
	}
	return fmt.Sprintf("stats:%s", flow)
}

var CacheKey = NewCacheKeyStruct()
