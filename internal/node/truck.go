// Package node wires the building blocks into the two long-running processes:
// a Truck that advertises itself and serves pings, and a Consumer that tracks
// nearby trucks and pings them.
package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"truckping/internal/config"
	"truckping/internal/dispatcher"
	"truckping/internal/journal"
	"truckping/internal/position"
	"truckping/internal/presence"
	"truckping/internal/util/logger/sl"
	"truckping/internal/wire"
)

type Truck struct {
	cfg *config.Truck
	log *slog.Logger

	Tracker     *position.Tracker
	Journal     journal.Store
	Dispatcher  *dispatcher.Dispatcher
	Broadcaster *presence.Broadcaster

	feed *position.FileFeed
}

// NewTruck opens every resource the truck needs. Any failure is a setup error
// and everything opened so far is released.
func NewTruck(cfg *config.Truck, log *slog.Logger) (_ *Truck, err error) {
	const op = "node.NewTruck"

	t := &Truck{
		cfg:     cfg,
		log:     log,
		Tracker: position.NewTracker(cfg.Position.StartLat, cfg.Position.StartLon),
	}
	defer func() {
		if err != nil {
			t.Close()
		}
	}()

	if cfg.Journal.Driver != journal.DriverNone && cfg.Journal.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Journal.Path), 0o755); err != nil {
			return nil, fmt.Errorf("%s: journal dir: %w", op, err)
		}
	}
	if t.Journal, err = journal.Open(cfg.Journal, log); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.Position.FixFile != "" {
		if t.feed, err = position.NewFileFeed(cfg.Position.FixFile, t.Tracker, 0, log); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	id := wire.MakeID(cfg.TruckID)
	t.Dispatcher = dispatcher.New(dispatcher.Config{
		VendorID:     id,
		Addr:         cfg.Dispatch.ListenAddr,
		ReadTimeout:  cfg.Dispatch.ReadTimeout,
		WriteTimeout: cfg.Dispatch.WriteTimeout,
		BaseETA:      cfg.Dispatch.BaseETA,
	}, t.Tracker, journal.NewRecorder(t.Journal), log)
	if err = t.Dispatcher.Listen(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	t.Broadcaster, err = presence.NewBroadcaster(presence.BroadcasterConfig{
		Group:    cfg.Presence.Group,
		Interval: cfg.Presence.Interval,
		TruckID:  id,
		Port:     t.Dispatcher.Port(),
	}, t.Tracker, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return t, nil
}

// Run blocks until ctx is done and every loop has returned.
func (t *Truck) Run(ctx context.Context) error {
	t.log.Info("truck started",
		slog.String("truck_id", t.cfg.TruckID),
		slog.Int("tcp_port", t.Dispatcher.Port()),
		slog.String("group", t.cfg.Presence.Group),
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if t.feed != nil {
			t.feed.Run(ctx)
			return
		}
		t.Tracker.Run(ctx, position.NewWalker(t.cfg.Position.MaxStepMeters), t.cfg.Position.StepInterval)
	}()
	go func() {
		defer wg.Done()
		t.Broadcaster.Run(ctx)
	}()

	err := t.Dispatcher.Serve(ctx)
	wg.Wait()

	t.log.Info("truck stopped",
		slog.Any("dispatcher", t.Dispatcher.Metrics()),
		slog.Any("presence", t.Broadcaster.Metrics()),
	)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (t *Truck) Close() error {
	var errs []error
	if t.Dispatcher != nil {
		errs = append(errs, t.Dispatcher.Close())
	}
	if t.Broadcaster != nil {
		errs = append(errs, t.Broadcaster.Close())
	}
	if t.feed != nil {
		errs = append(errs, t.feed.Close())
	}
	if t.Journal != nil {
		if err := t.Journal.Close(); err != nil {
			t.log.Warn("failed to close journal", sl.Err(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
