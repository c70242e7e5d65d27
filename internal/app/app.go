package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"simex/internal/adapters"
	"simex/internal/adapters/cache"
	"simex/internal/adapters/httpclient"
	"simex/internal/adapters/postgres"
	"simex/internal/adapters/snapshotdir"
	"simex/internal/adapters/websocket"
	"simex/internal/api"
	"simex/internal/comm"
	"simex/internal/comm/handler"
	"simex/internal/config"
	"simex/internal/exchange"
	"simex/internal/ledger"
	"simex/internal/platform/db"
	httpserver "simex/internal/platform/http"
	"simex/internal/platform/logging"
	"simex/internal/rate"
	"simex/internal/simulation"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Run wires the application components, then runs the tick loop, the HTTP
// server and the stats reporter until the history is replayed or a signal
// arrives.
func Run(configPath string) error {
	appCfg, err := config.Init(configPath)
	if err != nil {
		return err
	}
	if err = logging.Configure(logrus.StandardLogger(), appCfg.Logging); err != nil {
		return err
	}
	logrus.Info("✅ Config initialization successful")

	// Root context bound to OS signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bounded context for startup operations (DB connect, snapshot index)
	startupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	source, closeSource, err := openSnapshotSource(startupCtx, appCfg)
	if err != nil {
		logrus.WithError(err).Error("Failed to open snapshot source")
		return err
	}
	defer closeSource()

	var history adapters.SnapshotCache
	if appCfg.Simulation.HistoryCacheMax > 0 {
		snapshotCache, cacheErr := cache.NewSnapshotCache(appCfg.Simulation.HistoryCacheMax)
		if cacheErr != nil {
			return cacheErr
		}
		defer snapshotCache.Close()
		history = snapshotCache
	}

	store, err := rate.NewStore(startupCtx, source, history)
	if err != nil {
		logrus.WithError(err).Error("Failed to index rate history")
		return err
	}
	venue, err := exchange.New(startupCtx, store, ledger.NewLedger())
	if err != nil {
		logrus.WithError(err).Error("Failed to start exchange")
		return err
	}
	logrus.WithFields(logrus.Fields{"exchange_id": venue.ID(), "ticks": store.Len()}).Info("✅ Rate history loaded")

	// Endpoints
	hub := websocket.NewHub(appCfg.Broadcast.SendBuffer)
	defer hub.Close()
	requests := comm.NewQueue(appCfg.Simulation.QueueSize)
	payments := comm.NewQueue(appCfg.Simulation.QueueSize)
	channel := comm.NewChannel(venue, hub, requests, payments, appCfg.Simulation.TickPeriod())

	reporter := simulation.NewReporter(channel.Stats(), hub.Clients, time.Duration(appCfg.Report.IntervalSec)*time.Second)
	defer func() {
		if shutDownErr := reporter.Shutdown(); shutDownErr != nil {
			logrus.Errorf("Reporter shutdown error: %v", shutDownErr)
		}
	}()
	if startErr := reporter.Start(ctx); startErr != nil {
		logrus.WithError(startErr).Error("Failed to start reporter")
		return startErr
	}
	logrus.Info("✅ Reporter activation successful")

	venueHandler := handler.NewHandler(requests, payments, appCfg.Simulation.ReplyTimeout())
	router := api.NewRouter(venueHandler, hub)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return httpserver.Start(groupCtx, appCfg.HTTPServer, router)
	})
	group.Go(func() error {
		if loopErr := simulation.NewLoop(venue, channel).Run(groupCtx); loopErr != nil {
			return loopErr
		}
		// The server stops with the loop.
		stop()
		return nil
	})

	if runErr := group.Wait(); runErr != nil {
		logrus.Errorf("Simulation error: %v", runErr)
		return runErr
	}
	return nil
}

// openSnapshotSource builds the configured history source. The returned
// func releases whatever the source holds open.
func openSnapshotSource(ctx context.Context, appCfg *config.AppConfig) (adapters.SnapshotSource, func(), error) {
	noop := func() {}

	switch appCfg.Snapshots.Source {
	case "dir":
		logrus.Infof("✅ Reading snapshots from directory %s", appCfg.Snapshots.Dir)
		return snapshotdir.NewSource(appCfg.Snapshots.Dir), noop, nil

	case "http":
		httpTimeout := time.Duration(appCfg.HTTPClient.TimeoutSeconds) * time.Second
		if httpTimeout <= 0 {
			httpTimeout = 10 * time.Second
		}
		baseURL := strings.TrimSuffix(appCfg.Snapshots.BaseURL, "/")
		logrus.Infof("✅ Reading snapshots from %s", baseURL)
		return httpclient.NewSnapshotClient(&http.Client{Timeout: httpTimeout}, baseURL), noop, nil

	case "postgres":
		if appCfg.DbServer.Migrate {
			if err := db.Migrate(ctx, appCfg.DbServer.GetConnectionStr()); err != nil {
				return nil, noop, err
			}
			logrus.Info("✅ Migrations applied")
		}
		pool, err := db.CreatePoolAndPing(ctx, appCfg.DbServer)
		if err != nil {
			logrus.WithError(err).Error("Error connecting to db")
			return nil, noop, err
		}
		logrus.Info("✅ Postgres connection successful")

		repo := postgres.NewSnapshotRepository(pool)
		if appCfg.Snapshots.Dir != "" {
			if err = seedSnapshots(ctx, snapshotdir.NewSource(appCfg.Snapshots.Dir), repo); err != nil {
				pool.Close()
				return nil, noop, err
			}
		}
		return repo, pool.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown snapshots.source %q", appCfg.Snapshots.Source)
	}
}
