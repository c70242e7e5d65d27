package rate

import (
	"context"
	"fmt"
	"slices"

	"simex/internal/adapters"
	"simex/internal/domain"

	"github.com/sirupsen/logrus"
)

// Store turns the source's snapshot index into a logical time axis: tick t is
// the t-th snapshot name in lexicographic order. The current tick is owned by
// the caller and passed into every query; Store only keeps the snapshot last
// loaded by Refresh.
type Store struct {
	source  adapters.SnapshotSource
	history adapters.SnapshotCache
	index   []string
	current domain.Snapshot
}

// NewStore reads the snapshot index once. history may be nil, in which case
// every past-tick query re-reads the source.
func NewStore(ctx context.Context, source adapters.SnapshotSource, history adapters.SnapshotCache) (*Store, error) {
	names, err := source.Index(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to index snapshots: %w", err)
	}
	index := slices.Clone(names)
	slices.Sort(index)

	return &Store{
		source:  source,
		history: history,
		index:   index,
		current: domain.Snapshot{},
	}, nil
}

// Len is the number of ticks available.
func (s *Store) Len() int {
	return len(s.index)
}

func (s *Store) SnapshotAt(ctx context.Context, t int) (domain.Snapshot, error) {
	if t < 0 || t >= len(s.index) {
		return nil, fmt.Errorf("%w: tick %d, %d snapshots", domain.ErrSnapshotOutOfRange, t, len(s.index))
	}

	name := s.index[t]
	records, err := s.source.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot for tick %d: %w", t, err)
	}

	snapshot, skipped := ParseSnapshot(records)
	for _, reason := range skipped {
		logrus.WithFields(logrus.Fields{"snapshot": name, "tick": t}).Warnf("Skipping record: %v", reason)
	}
	logrus.Debugf("Loaded snapshot %s (tick %d) with %d base currencies", name, t, len(snapshot))
	return snapshot, nil
}

// Refresh replaces the current snapshot with the one at tick t. On error the
// previous snapshot stays current.
func (s *Store) Refresh(ctx context.Context, t int) error {
	snapshot, err := s.SnapshotAt(ctx, t)
	if err != nil {
		return err
	}
	s.current = snapshot
	return nil
}

func (s *Store) Current() domain.Snapshot {
	return s.current
}

// Query returns currency's table at tick t. Tick now is served from the
// current snapshot; older ticks go through the history cache.
func (s *Store) Query(ctx context.Context, currency string, t, now int) (domain.RateTable, error) {
	snapshot := s.current
	if t != now {
		var err error
		if snapshot, err = s.historical(ctx, t); err != nil {
			return nil, fmt.Errorf("%w: %s at tick %d: %w", domain.ErrRateNotFound, currency, t, err)
		}
	}

	table, ok := snapshot[currency]
	if !ok {
		return nil, fmt.Errorf("%w: %s at tick %d", domain.ErrRateNotFound, currency, t)
	}
	return table.Clone(), nil
}

// QueryHistory returns ageMs/1000 tables for the ticks preceding now, oldest
// first. A tick that can't be served yields an empty table instead of an
// error, so the result length depends only on ageMs. Ticks before the first
// snapshot are included with negative timestamps.
//
// An age reaching back more than now+Len() ticks is rejected with
// ErrHistoryAgeTooLarge.
func (s *Store) QueryHistory(ctx context.Context, currency string, ageMs int64, now int) ([]domain.TimedRateTable, error) {
	if ageMs < 0 {
		ageMs = 0
	}
	limit := int64(now) + int64(len(s.index))
	if ageMs/1000 > limit {
		return nil, fmt.Errorf("%w: %d ms reaches back more than %d ticks", domain.ErrHistoryAgeTooLarge, ageMs, limit)
	}
	ticks := int(ageMs / 1000)

	history := make([]domain.TimedRateTable, 0, ticks)
	for t := now - ticks; t < now; t++ {
		table, err := s.Query(ctx, currency, t, now)
		if err != nil {
			logrus.WithError(err).Debugf("History gap for %s at tick %d", currency, t)
			table = domain.RateTable{}
		}
		history = append(history, domain.TimedRateTable{Values: table, Timestamp: domain.TickTimestamp(t)})
	}
	return history, nil
}

func (s *Store) historical(ctx context.Context, t int) (domain.Snapshot, error) {
	if s.history != nil {
		if snapshot, ok := s.history.Get(t); ok {
			return snapshot, nil
		}
	}
	snapshot, err := s.SnapshotAt(ctx, t)
	if err != nil {
		return nil, err
	}
	if s.history != nil {
		s.history.Set(t, snapshot)
	}
	return snapshot, nil
}
