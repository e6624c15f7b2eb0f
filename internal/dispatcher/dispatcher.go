package dispatcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"truckping/internal/backoff"
	"truckping/internal/journal"
	"truckping/internal/util/logger/sl"
	"truckping/internal/wire"
)

// Dispatcher serves one request per connection, each on its own goroutine.
type Dispatcher struct {
	cfg     Config
	queue   Queue
	loc     Locator
	rec     Recorder
	log     *slog.Logger
	metrics Metrics
	now     func() time.Time

	ln *net.TCPListener
	wg sync.WaitGroup
}

// New returns a Dispatcher. rec may be nil.
func New(cfg Config, loc Locator, rec Recorder, log *slog.Logger) *Dispatcher {
	cfg.setDefaults()

	return &Dispatcher{
		cfg: cfg,
		loc: loc,
		rec: rec,
		log: log.With(slog.String("component", "dispatcher")),
		now: time.Now,
	}
}

// Listen binds the TCP socket. A failure here is a setup error.
func (d *Dispatcher) Listen() error {
	const op = "dispatcher.Listen"

	tcpAddr, err := net.ResolveTCPAddr("tcp", d.cfg.Addr)
	if err != nil {
		return fmt.Errorf("%s: resolve %q: %w", op, d.cfg.Addr, err)
	}

	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return fmt.Errorf("%s: listen %s: %w", op, tcpAddr, err)
	}

	d.ln = ln
	return nil
}

// Addr is the bound address, or nil before Listen.
func (d *Dispatcher) Addr() net.Addr {
	if d.ln == nil {
		return nil
	}
	return d.ln.Addr()
}

// Port is the bound TCP port, the one trucks advertise.
func (d *Dispatcher) Port() int {
	if d.ln == nil {
		return 0
	}
	return d.ln.Addr().(*net.TCPAddr).Port
}

// Serve accepts connections until ctx is done, then waits for in-flight
// handlers and closes the socket.
func (d *Dispatcher) Serve(ctx context.Context) error {
	const op = "dispatcher.Serve"
	log := d.log.With(slog.String("op", op))

	if d.ln == nil {
		return ErrNotListening
	}
	defer d.ln.Close()

	log.Info("dispatcher started",
		slog.String("addr", d.ln.Addr().String()),
		slog.String("truck_id", d.cfg.VendorID.String()),
	)

	bo := backoff.New(d.cfg.BackoffBase, d.cfg.BackoffMax)
	for {
		if ctx.Err() != nil {
			log.Info("shutting down dispatcher")
			d.wg.Wait()
			return nil
		}

		if err := d.ln.SetDeadline(d.now().Add(d.cfg.AcceptPoll)); err != nil {
			log.Warn("failed to set accept deadline", sl.Err(err))
		}

		conn, err := d.ln.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				d.wg.Wait()
				return fmt.Errorf("%s: %w", op, err)
			}
			log.Warn("error accepting connection", sl.Err(err))
			bo.Wait(ctx)
			continue
		}
		bo.Reset()
		d.metrics.recordAccepted()

		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.handle(ctx, conn)
		}()
	}
}

func (d *Dispatcher) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	log := d.log.With(slog.String("remote", conn.RemoteAddr().String()))

	line, err := d.readRequest(conn)
	if err != nil {
		var ne net.Error
		switch {
		case errors.Is(err, errLineTooLong):
			d.metrics.recordMalformed()
			log.Warn("malformed request", sl.Err(err))
		case errors.As(err, &ne) && ne.Timeout():
			d.metrics.recordTimeout()
			log.Debug("request read timed out")
		case errors.Is(err, io.EOF):
			log.Debug("client closed before sending a request")
		default:
			log.Debug("request read failed", sl.Err(err))
		}
		return
	}

	req, err := wire.DecodeRequest(line)
	if err != nil {
		d.metrics.recordMalformed()
		log.Warn("malformed request", sl.Err(err))
		return
	}

	q := d.queue.Enter()
	defer d.queue.Leave()

	ack := wire.Acknowledge{
		TruckID:    d.cfg.VendorID,
		ETAMinutes: ETA(d.cfg.BaseETA, q),
		Queued:     q,
	}

	log = log.With(
		slog.String("user_id", req.UserID.String()),
		slog.Int("queued", ack.Queued),
		slog.Int("eta_min", ack.ETAMinutes),
	)
	log.Info("request received", slog.String("addr", string(req.Address)), slog.String("note", string(req.Note)))

	d.record(ctx, req, ack, log)

	if err := conn.SetWriteDeadline(d.now().Add(d.cfg.WriteTimeout)); err != nil {
		log.Debug("failed to set write deadline", sl.Err(err))
	}
	if _, err := conn.Write(wire.EncodeAcknowledge(ack)); err != nil {
		d.metrics.recordSendFailure()
		log.Warn("failed to send acknowledge", sl.Err(err))
		return
	}
	d.metrics.recordAcknowledged()
}

// readRequest reads a single line within ReadTimeout. A final line without a
// newline is accepted when the peer closes right after it.
func (d *Dispatcher) readRequest(conn net.Conn) (string, error) {
	if err := conn.SetReadDeadline(d.now().Add(d.cfg.ReadTimeout)); err != nil {
		return "", err
	}

	r := bufio.NewReaderSize(conn, wire.MaxLineLen)
	line, err := r.ReadSlice('\n')
	switch {
	case err == nil:
		return string(line), nil
	case errors.Is(err, bufio.ErrBufferFull):
		return "", errLineTooLong
	case errors.Is(err, io.EOF) && len(line) > 0:
		return string(line), nil
	}
	return "", err
}

func (d *Dispatcher) record(ctx context.Context, req wire.Request, ack wire.Acknowledge, log *slog.Logger) {
	if d.rec == nil {
		return
	}

	var lat, lon float64
	if d.loc != nil {
		lat, lon = d.loc.Position()
	}

	// Requests in flight at shutdown are still journaled.
	err := d.rec.Record(context.WithoutCancel(ctx), journal.Entry{
		At:         d.now(),
		VendorID:   d.cfg.VendorID.String(),
		UserID:     req.UserID.String(),
		Address:    string(req.Address),
		Note:       string(req.Note),
		VendorLat:  lat,
		VendorLon:  lon,
		ETAMinutes: ack.ETAMinutes,
		Queued:     ack.Queued,
	})
	if err != nil {
		log.Error("failed to journal request", sl.Err(err))
	}
}

// Close releases the listening socket. Serve also closes it on return.
func (d *Dispatcher) Close() error {
	if d.ln == nil {
		return nil
	}
	if err := d.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func (d *Dispatcher) Queue() *Queue {
	return &d.queue
}

func (d *Dispatcher) Metrics() map[string]int64 {
	return d.metrics.GetStats()
}
