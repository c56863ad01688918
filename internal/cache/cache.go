package cache

import "time"

// Store is the unified TTL cache consumed by the clustering engine and the
// statistics generator. Implementations must be safe for concurrent use;
// writers upsert with last-writer-wins semantics.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
}

const (
	KeyClusters   = "disaster_watch:clusters"
	KeyStatistics = "disaster_watch:statistics"
)
