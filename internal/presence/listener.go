package presence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"time"

	"truckping/internal/backoff"
	"truckping/internal/registry"
	"truckping/internal/util/logger/sl"
	"truckping/internal/wire"
)

// Listener receives heartbeats and upserts them into the registry. Bad
// datagrams are dropped and read errors never stop the loop.
type Listener struct {
	cfg     ListenerConfig
	conn    net.PacketConn
	reg     Upserter
	log     *slog.Logger
	now     func() time.Time
	metrics ListenerMetrics
}

// ListenMulticast joins group on the default interface. A failure here is a
// setup error.
func ListenMulticast(group string, cfg ListenerConfig, reg Upserter, log *slog.Logger) (*Listener, error) {
	const op = "presence.ListenMulticast"

	if group == "" {
		group = DefaultGroup
	}

	addr, err := net.ResolveUDPAddr("udp", group)
	if err != nil {
		return nil, fmt.Errorf("%s: resolve %s: %w", op, group, err)
	}

	conn, err := net.ListenMulticastUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("%s: join %s: %w", op, group, err)
	}

	if err := conn.SetReadBuffer(readBufferSize); err != nil {
		log.Warn("failed to set read buffer", sl.Err(err))
	}

	return NewListener(conn, cfg, reg, log), nil
}

// NewListener wraps an already bound packet connection.
func NewListener(conn net.PacketConn, cfg ListenerConfig, reg Upserter, log *slog.Logger) *Listener {
	cfg.setDefaults()

	return &Listener{
		cfg:  cfg,
		conn: conn,
		reg:  reg,
		log:  log.With(slog.String("component", "presence_listener")),
		now:  time.Now,
	}
}

// Run receives until ctx is done or the connection is closed.
func (l *Listener) Run(ctx context.Context) {
	l.log.Info("listening for presence", slog.String("addr", l.conn.LocalAddr().String()))

	// One spare byte tells a full line from an oversized datagram.
	buf := make([]byte, wire.MaxLineLen+1)
	bo := backoff.New(l.cfg.BackoffBase, l.cfg.BackoffMax)

	for {
		if ctx.Err() != nil {
			l.log.Info("presence listener stopped")
			return
		}

		if err := l.conn.SetReadDeadline(l.now().Add(l.cfg.PollInterval)); err != nil {
			l.log.Debug("failed to set read deadline", sl.Err(err))
		}

		n, addr, err := l.conn.ReadFrom(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				l.log.Info("presence socket closed")
				return
			}
			l.metrics.recordReadError()
			l.log.Debug("presence read failed", sl.Err(err))
			if !bo.Wait(ctx) {
				return
			}
			continue
		}
		if n == 0 {
			if !bo.Wait(ctx) {
				return
			}
			continue
		}
		bo.Reset()

		l.handleDatagram(buf[:n], addr)
	}
}

func (l *Listener) handleDatagram(data []byte, addr net.Addr) {
	l.metrics.recordReceived()

	if len(data) > wire.MaxLineLen {
		l.metrics.recordDiscarded()
		return
	}

	p, err := wire.DecodePresence(string(data))
	if err != nil {
		l.metrics.recordDiscarded()
		return
	}

	rec := registry.FromPresence(p, l.now(), sourceIP(addr))
	if err := l.reg.Upsert(rec); err != nil {
		l.metrics.recordRejected()
		l.log.Debug("heartbeat dropped", slog.String("truck_id", p.TruckID.String()), sl.Err(err))
		return
	}
	l.metrics.recordAccepted()
}

func (l *Listener) Metrics() map[string]int64 {
	return l.metrics.GetStats()
}

func (l *Listener) LocalAddr() net.Addr {
	return l.conn.LocalAddr()
}

func (l *Listener) Close() error {
	return l.conn.Close()
}

func sourceIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.UDPAddr:
		return slices.Clone(a.IP)
	case *net.IPAddr:
		return slices.Clone(a.IP)
	}
	return nil
}
