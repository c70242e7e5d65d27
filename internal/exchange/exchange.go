package exchange

import (
	"context"
	"fmt"
	"slices"

	"simex/internal/domain"
	"simex/internal/ledger"
	"simex/internal/rate"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Exchange is the simulated venue: a logical clock over the store's snapshot
// history plus the ledger of conversions. The clock only moves through Tick.
// Exchange is not safe for concurrent use.
type Exchange struct {
	id         uuid.UUID
	store      *rate.Store
	ledger     *ledger.Ledger
	time       int
	currencies map[string]struct{}
}

func (e *Exchange) ID() uuid.UUID {
	return e.id
}

func (e *Exchange) Time() int {
	return e.time
}

// Tick moves the clock one snapshot forward. When the history has no more
// snapshots it returns domain.ErrHistoryExhausted and the clock stays put.
func (e *Exchange) Tick(ctx context.Context) error {
	next := e.time + 1
	if next >= e.store.Len() {
		return fmt.Errorf("%w: tick %d", domain.ErrHistoryExhausted, next)
	}
	if err := e.store.Refresh(ctx, next); err != nil {
		return fmt.Errorf("failed to advance to tick %d: %w", next, err)
	}
	e.time = next
	e.observe()
	return nil
}

// Currencies lists every base currency seen so far. The set only grows.
func (e *Exchange) Currencies() []string {
	codes := make([]string, 0, len(e.currencies))
	for code := range e.currencies {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

func (e *Exchange) RatesForAllCurrencies() []domain.RateUpdate {
	current := e.store.Current()
	timestamp := domain.TickTimestamp(e.time)

	updates := make([]domain.RateUpdate, 0, len(e.currencies))
	for _, code := range e.Currencies() {
		updates = append(updates, domain.RateUpdate{
			ExchangeID: e.id,
			Currency:   code,
			Rates:      current[code].Clone(),
			Timestamp:  timestamp,
		})
	}
	return updates
}

func (e *Exchange) Query(ctx context.Context, currency string) (domain.RateTable, error) {
	return e.store.Query(ctx, rate.NormalizeCode(currency), e.time, e.time)
}

func (e *Exchange) QueryAt(ctx context.Context, currency string, t int) (domain.RateTable, error) {
	return e.store.Query(ctx, rate.NormalizeCode(currency), t, e.time)
}

func (e *Exchange) QueryHistory(ctx context.Context, currency string, ageMs int64) ([]domain.TimedRateTable, error) {
	return e.store.QueryHistory(ctx, rate.NormalizeCode(currency), ageMs, e.time)
}

func (e *Exchange) InitiateTransaction(order domain.Order) (domain.Invoice, error) {
	order.From = rate.NormalizeCode(order.From)
	order.To = rate.NormalizeCode(order.To)
	for _, code := range []string{order.From, order.To} {
		if err := rate.ValidateCode(code); err != nil {
			return domain.Invoice{}, fmt.Errorf("%w: %q: %w", domain.ErrInvalidOrder, code, err)
		}
	}
	return e.ledger.Initiate(order, e.time)
}

// FinalizeTransaction settles address at the rates of the current tick,
// whatever tick the transaction was initiated at.
func (e *Exchange) FinalizeTransaction(ctx context.Context, address string) (domain.Settlement, error) {
	lookup := func(from, to string) (float64, error) {
		if from == to {
			return 1, nil
		}
		table, err := e.Query(ctx, from)
		if err != nil {
			return 0, err
		}
		value, ok := table[to]
		if !ok {
			return 0, fmt.Errorf("%w: %s_%s at tick %d", domain.ErrRateNotFound, from, to, e.time)
		}
		return value, nil
	}
	return e.ledger.Finalize(address, lookup, e.time)
}

func (e *Exchange) TransactionStatus(address string) (domain.TransactionStatus, error) {
	return e.ledger.Status(address)
}

// Transactions reports the ledger size and how many entries are pending.
func (e *Exchange) Transactions() (total, pending int) {
	return e.ledger.Len(), e.ledger.Pending()
}

func (e *Exchange) observe() {
	for code := range e.store.Current() {
		if _, ok := e.currencies[code]; !ok {
			logrus.WithFields(logrus.Fields{"currency": code, "tick": e.time}).Info("New currency listed")
			e.currencies[code] = struct{}{}
		}
	}
}

// New starts the clock at tick 0 with snapshot 0 loaded.
func New(ctx context.Context, store *rate.Store, l *ledger.Ledger) (*Exchange, error) {
	if store.Len() == 0 {
		return nil, domain.ErrHistoryEmpty
	}
	if err := store.Refresh(ctx, 0); err != nil {
		return nil, fmt.Errorf("failed to load first snapshot: %w", err)
	}

	e := &Exchange{
		id:         uuid.New(),
		store:      store,
		ledger:     l,
		currencies: make(map[string]struct{}),
	}
	e.observe()
	return e, nil
}
