package adapters

import (
	"context"
	"simex/internal/domain"
)

// SnapshotSource is a time-indexed store of rate snapshots. Names returned by
// Index are opaque; their lexicographic order defines the time axis.
type SnapshotSource interface {
	Index(ctx context.Context) ([]string, error)
	Load(ctx context.Context, name string) ([]domain.RateRecord, error)
}

type SnapshotCache interface {
	Get(tick int) (domain.Snapshot, bool)
	Set(tick int, snapshot domain.Snapshot)
}
