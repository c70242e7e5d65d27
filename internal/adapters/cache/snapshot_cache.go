package cache

import (
	"fmt"
	"simex/internal/domain"

	"github.com/dgraph-io/ristretto"
)

// RistrettoSnapshotCache keeps parsed historical snapshots so repeated
// history queries don't re-read the source. Cost of an entry is the number
// of rates it holds.
type RistrettoSnapshotCache struct {
	cache *ristretto.Cache
}

func NewSnapshotCache(maxRates int64) (*RistrettoSnapshotCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        10 * maxRates,
		MaxCost:            maxRates,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create snapshot cache failed: %w", err)
	}
	return &RistrettoSnapshotCache{cache: c}, nil
}

func (c *RistrettoSnapshotCache) Get(tick int) (domain.Snapshot, bool) {
	if v, ok := c.cache.Get(tick); ok {
		snapshot, ok := v.(domain.Snapshot)
		return snapshot, ok
	}
	return nil, false
}

func (c *RistrettoSnapshotCache) Set(tick int, snapshot domain.Snapshot) {
	c.cache.Set(tick, snapshot, cost(snapshot))
}

func (c *RistrettoSnapshotCache) Wait() { c.cache.Wait() }

func (c *RistrettoSnapshotCache) Close() { c.cache.Close() }

func cost(snapshot domain.Snapshot) int64 {
	var n int64 = 1
	for _, table := range snapshot {
		n += int64(len(table))
	}
	return n
}
