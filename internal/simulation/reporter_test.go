package simulation

import (
	"context"
	"testing"
	"time"

	"simex/internal/comm"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStatsSource struct{ mock.Mock }

func (m *MockStatsSource) Snapshot() comm.StatsSnapshot {
	args := m.Called()
	s, _ := args.Get(0).(comm.StatsSnapshot)
	return s
}

func TestNewReporter_Constructs(t *testing.T) {
	r := NewReporter(new(MockStatsSource), nil, 10*time.Second)
	require.NotNil(t, r)
	require.False(t, r.running())
	require.Equal(t, 10*time.Second, r.interval)
	require.Zero(t, r.clients())
}

func TestNewReporter_DefaultsIntervalWhenInvalid(t *testing.T) {
	r := NewReporter(new(MockStatsSource), nil, 0)
	require.Equal(t, defaultReportInterval, r.interval)
}

func TestReporter_Shutdown_NoScheduler_ReturnsNil(t *testing.T) {
	r := NewReporter(new(MockStatsSource), nil, time.Second)
	require.NoError(t, r.Shutdown())
	require.False(t, r.running())
}

func TestReporter_Start_And_ContextCancel_ShutsDown(t *testing.T) {
	stats := new(MockStatsSource)
	stats.On("Snapshot").Return(comm.StatsSnapshot{}).Maybe()
	r := NewReporter(stats, nil, 10*time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, r.Start(ctx))
	require.True(t, r.running())

	cancel()

	require.Eventually(t, func() bool { return !r.running() }, 2*time.Second, 10*time.Millisecond,
		"expected scheduler to be shutdown after ctx cancel")
}

func TestReporter_Shutdown_AfterStart_Idempotent(t *testing.T) {
	stats := new(MockStatsSource)
	stats.On("Snapshot").Return(comm.StatsSnapshot{}).Maybe()
	r := NewReporter(stats, nil, 10*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, r.Start(ctx))
	require.NoError(t, r.Shutdown())
	require.False(t, r.running())
	require.NoError(t, r.Shutdown())
}

func TestReporter_ReportsPeriodically(t *testing.T) {
	stats := new(MockStatsSource)
	reported := make(chan struct{}, 8)
	stats.On("Snapshot").Return(comm.StatsSnapshot{Ticks: 3}).Run(func(mock.Arguments) {
		select {
		case reported <- struct{}{}:
		default:
		}
	})
	clients := func() int { return 2 }
	r := NewReporter(stats, clients, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, r.Start(ctx))
	defer func() { _ = r.Shutdown() }()

	for i := 0; i < 2; i++ {
		select {
		case <-reported:
		case <-time.After(2 * time.Second):
			t.Fatal("stats were not reported")
		}
	}
}
