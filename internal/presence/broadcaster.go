package presence

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"truckping/internal/util/logger/sl"
	"truckping/internal/wire"
)

// Broadcaster periodically multicasts the truck's heartbeat.
type Broadcaster struct {
	cfg     BroadcasterConfig
	loc     Locator
	conn    net.Conn
	log     *slog.Logger
	now     func() time.Time
	metrics BroadcasterMetrics
}

// NewBroadcaster opens the sending socket. A failure here is a setup error.
func NewBroadcaster(cfg BroadcasterConfig, loc Locator, log *slog.Logger) (*Broadcaster, error) {
	const op = "presence.NewBroadcaster"

	if cfg.Group == "" {
		cfg.Group = DefaultGroup
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	addr, err := net.ResolveUDPAddr("udp", cfg.Group)
	if err != nil {
		return nil, fmt.Errorf("%s: resolve %s: %w", op, cfg.Group, err)
	}

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("%s: dial %s: %w", op, cfg.Group, err)
	}

	return &Broadcaster{
		cfg:  cfg,
		loc:  loc,
		conn: conn,
		log:  log.With(slog.String("component", "presence_broadcaster")),
		now:  time.Now,
	}, nil
}

// Run sends one heartbeat right away and then one per interval until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info("broadcasting presence",
		slog.String("group", b.cfg.Group),
		slog.String("truck_id", b.cfg.TruckID.String()),
		slog.Int("port", b.cfg.Port),
		slog.Duration("interval", b.cfg.Interval),
	)

	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	buf := make([]byte, 0, wire.MaxLineLen)
	for {
		buf = b.send(buf)

		select {
		case <-ctx.Done():
			b.log.Info("presence broadcast stopped")
			return
		case <-ticker.C:
		}
	}
}

func (b *Broadcaster) send(buf []byte) []byte {
	lat, lon := b.loc.Position()
	buf = wire.AppendPresence(buf[:0], wire.Presence{
		TruckID:   b.cfg.TruckID,
		Lat:       lat,
		Lon:       lon,
		Timestamp: b.now().Unix(),
		Port:      b.cfg.Port,
	})

	if err := b.conn.SetWriteDeadline(b.now().Add(b.cfg.Interval)); err != nil {
		b.log.Debug("failed to set write deadline", sl.Err(err))
	}
	if _, err := b.conn.Write(buf); err != nil {
		b.metrics.recordFailed()
		b.log.Warn("heartbeat send failed", sl.Err(err))
		return buf
	}
	b.metrics.recordSent()
	return buf
}

func (b *Broadcaster) Metrics() map[string]int64 {
	return b.metrics.GetStats()
}

func (b *Broadcaster) Close() error {
	return b.conn.Close()
}
