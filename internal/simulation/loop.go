package simulation

import (
	"context"
	"errors"
	"fmt"

	"simex/internal/domain"

	"github.com/sirupsen/logrus"
)

type Clock interface {
	Tick(ctx context.Context) error
	Time() int
}

type TickServer interface {
	ServeTick(ctx context.Context) error
}

// Loop alternates serving a tick and advancing the clock. It is the only
// goroutine that touches the exchange.
type Loop struct {
	clock  Clock
	server TickServer
}

// Run returns nil once the history is replayed or ctx is canceled.
func (l *Loop) Run(ctx context.Context) error {
	logrus.WithField("tick", l.clock.Time()).Info("✅ Simulation started")
	for {
		if err := l.server.ServeTick(ctx); err != nil {
			if ctx.Err() != nil {
				logrus.WithField("tick", l.clock.Time()).Info("Simulation stopped")
				return nil
			}
			return fmt.Errorf("tick %d: %w", l.clock.Time(), err)
		}

		if err := l.clock.Tick(ctx); err != nil {
			if errors.Is(err, domain.ErrHistoryExhausted) {
				logrus.WithField("tick", l.clock.Time()).Info("History replayed, simulation finished")
				return nil
			}
			return err
		}
	}
}

func NewLoop(clock Clock, server TickServer) *Loop {
	return &Loop{clock: clock, server: server}
}
