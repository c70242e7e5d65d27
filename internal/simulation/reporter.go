package simulation

import (
	"context"
	"sync"
	"time"

	"simex/internal/comm"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

const defaultReportInterval = 30 * time.Second

// StatsSource is read from the report job's goroutine and must be safe for
// concurrent use.
type StatsSource interface {
	Snapshot() comm.StatsSnapshot
}

type Reporter struct {
	stats    StatsSource
	clients  func() int
	interval time.Duration
	// -----
	mu    sync.Mutex
	sched gocron.Scheduler
}

func (r *Reporter) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(r.report),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.sched = scheduler
	r.mu.Unlock()
	scheduler.Start()

	// Stop scheduler when the provided context is canceled.
	go func() {
		<-ctx.Done()
		if sdErr := r.Shutdown(); sdErr != nil {
			logrus.Errorf("Reporter shutdown error: %v", sdErr)
		}
	}()
	return nil
}

func (r *Reporter) report() {
	s := r.stats.Snapshot()
	logrus.WithFields(logrus.Fields{
		"ticks":            s.Ticks,
		"starved_ticks":    s.StarvedTicks,
		"broadcasts":       s.Broadcasts,
		"publish_failures": s.PublishFailures,
		"requests":         s.Requests,
		"payments":         s.Payments,
		"decode_failures":  s.DecodeFailures,
		"abandoned":        s.Abandoned,
		"subscribers":      r.clients(),
	}).Info("Simulation stats")
}

func (r *Reporter) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sched == nil {
		return nil
	}
	err := r.sched.Shutdown()
	r.sched = nil
	return err
}

func (r *Reporter) running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sched != nil
}

// NewReporter logs stats every interval; a non-positive interval falls back
// to 30 seconds. clients may be nil.
func NewReporter(stats StatsSource, clients func() int, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = defaultReportInterval
	}
	if clients == nil {
		clients = func() int { return 0 }
	}
	return &Reporter{stats: stats, clients: clients, interval: interval}
}
