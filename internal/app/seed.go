package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"simex/internal/adapters"
	"simex/internal/domain"

	"github.com/sirupsen/logrus"
)

type snapshotWriter interface {
	adapters.SnapshotSource
	Insert(ctx context.Context, name string, records []domain.RateRecord) error
}

// seedSnapshots copies the snapshots of from that the store doesn't hold yet.
// Each snapshot is inserted atomically, so a seed interrupted halfway is
// completed on the next start. A missing seed directory is ignored.
func seedSnapshots(ctx context.Context, from adapters.SnapshotSource, into snapshotWriter) error {
	existing, err := into.Index(ctx)
	if err != nil {
		return fmt.Errorf("failed to index stored snapshots: %w", err)
	}
	stored := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		stored[name] = struct{}{}
	}

	names, err := from.Index(ctx)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to index seed snapshots: %w", err)
	}

	seeded := 0
	for _, name := range names {
		if _, ok := stored[name]; ok {
			continue
		}
		records, loadErr := from.Load(ctx, name)
		if loadErr != nil {
			return fmt.Errorf("failed to read seed snapshot %s: %w", name, loadErr)
		}
		if insertErr := into.Insert(ctx, name, records); insertErr != nil {
			return fmt.Errorf("failed to store snapshot %s: %w", name, insertErr)
		}
		seeded++
	}
	if seeded > 0 {
		logrus.Infof("✅ Seeded %d snapshots", seeded)
	}
	return nil
}
