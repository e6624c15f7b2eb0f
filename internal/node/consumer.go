package node

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"truckping/internal/client"
	"truckping/internal/config"
	"truckping/internal/presence"
	"truckping/internal/registry"
	"truckping/internal/view"
	"truckping/internal/wire"
)

type Consumer struct {
	cfg *config.Client
	log *slog.Logger

	Registry *registry.Registry
	Listener *presence.Listener
	Client   *client.Client
}

// NewConsumer joins the presence group. Failing to join is a setup error.
func NewConsumer(cfg *config.Client, log *slog.Logger) (*Consumer, error) {
	const op = "node.NewConsumer"

	reg := registry.New(registry.Config{
		StaleAfter: cfg.StaleAfter,
		MaxEntries: cfg.MaxEntries,
	})

	l, err := presence.ListenMulticast(cfg.Group, presence.ListenerConfig{}, reg, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return newConsumer(cfg, reg, l, log), nil
}

func newConsumer(cfg *config.Client, reg *registry.Registry, l *presence.Listener, log *slog.Logger) *Consumer {
	return &Consumer{
		cfg:      cfg,
		log:      log,
		Registry: reg,
		Listener: l,
		Client: client.New(reg, client.Config{
			ConnectTimeout: cfg.Request.ConnectTimeout,
			SendTimeout:    cfg.Request.SendTimeout,
			ReceiveTimeout: cfg.Request.ReceiveTimeout,
		}, log),
	}
}

// List keeps redrawing the ranked table on w until ctx is done.
func (c *Consumer) List(ctx context.Context, w io.Writer, opts view.Options) error {
	if opts.NearKM <= 0 {
		opts.NearKM = c.cfg.NearKM
	}
	table := view.NewTable(w, opts)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Listener.Run(ctx)
	}()
	defer func() { <-done }()

	refresh := c.cfg.Refresh
	if refresh <= 0 {
		refresh = time.Second
	}
	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := table.Render(c.Registry.SnapshotRanked(c.cfg.Lat, c.cfg.Lon)); err != nil {
				return fmt.Errorf("render: %w", err)
			}
		}
	}
}

// Ping listens for WarmUp so the registry can fill, then sends one request.
func (c *Consumer) Ping(ctx context.Context, req wire.Request) (wire.Acknowledge, error) {
	lctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Listener.Run(lctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	if c.cfg.WarmUp > 0 {
		select {
		case <-ctx.Done():
			return wire.Acknowledge{}, ctx.Err()
		case <-time.After(c.cfg.WarmUp):
		}
	}

	c.log.Info("pinging truck",
		slog.String("truck_id", req.TruckID.String()),
		slog.Int("known_trucks", c.Registry.Len()),
	)
	return c.Client.Ping(ctx, req)
}

func (c *Consumer) Close() error {
	return c.Listener.Close()
}
