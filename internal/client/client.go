// Package client is the consumer side of the request protocol.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"truckping/internal/registry"
	"truckping/internal/wire"
)

const (
	DefaultConnectTimeout = 2 * time.Second
	DefaultSendTimeout    = 2 * time.Second
	DefaultReceiveTimeout = 2 * time.Second
)

// Directory resolves a truck ID to its last known record.
type Directory interface {
	Lookup(id wire.ID) (registry.VendorRecord, bool)
}

type Config struct {
	ConnectTimeout time.Duration
	SendTimeout    time.Duration
	ReceiveTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = DefaultSendTimeout
	}
	if c.ReceiveTimeout <= 0 {
		c.ReceiveTimeout = DefaultReceiveTimeout
	}
}

type Client struct {
	dir Directory
	cfg Config
	log *slog.Logger
}

func New(dir Directory, cfg Config, log *slog.Logger) *Client {
	cfg.setDefaults()
	return &Client{
		dir: dir,
		cfg: cfg,
		log: log.With(slog.String("component", "request_client")),
	}
}

// Session is one open request connection awaiting its acknowledge.
type Session struct {
	conn    net.Conn
	timeout time.Duration
	vendor  registry.VendorRecord
}

// SendRequest looks up req.TruckID, connects and sends the PING line. On
// error no connection is left open.
func (c *Client) SendRequest(ctx context.Context, req wire.Request) (*Session, error) {
	const op = "client.SendRequest"

	rec, ok := c.dir.Lookup(req.TruckID)
	if !ok {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrVendorUnknown, req.TruckID)
	}

	endpoint := rec.Endpoint()
	dialer := net.Dialer{Timeout: c.cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s: %v", op, ErrConnectFailed, endpoint, err)
	}

	if err := conn.SetWriteDeadline(time.Now().Add(c.cfg.SendTimeout)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w: %v", op, ErrSendFailed, err)
	}
	if _, err := conn.Write(wire.EncodeRequest(req)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w: %v", op, ErrSendFailed, err)
	}

	c.log.Debug("request sent",
		slog.String("truck_id", req.TruckID.String()),
		slog.String("user_id", req.UserID.String()),
		slog.String("endpoint", endpoint),
	)

	return &Session{conn: conn, timeout: c.cfg.ReceiveTimeout, vendor: rec}, nil
}

// AwaitAcknowledge reads the single reply line.
func (s *Session) AwaitAcknowledge() (wire.Acknowledge, error) {
	const op = "client.AwaitAcknowledge"

	if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
		return wire.Acknowledge{}, fmt.Errorf("%s: %w: %v", op, ErrNoAcknowledge, err)
	}

	line, err := bufio.NewReaderSize(s.conn, wire.MaxLineLen).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return wire.Acknowledge{}, fmt.Errorf("%s: %w: %v", op, ErrNoAcknowledge, err)
	}

	ack, err := wire.DecodeAcknowledge(line)
	if err != nil {
		return wire.Acknowledge{}, fmt.Errorf("%s: %w: %v", op, ErrMalformedAcknowledge, err)
	}
	return ack, nil
}

// Vendor is the registry record the request was sent to.
func (s *Session) Vendor() registry.VendorRecord {
	return s.vendor
}

func (s *Session) Close() error {
	return s.conn.Close()
}

// Ping sends req and waits for the acknowledge. The connection is always closed.
func (c *Client) Ping(ctx context.Context, req wire.Request) (wire.Acknowledge, error) {
	s, err := c.SendRequest(ctx, req)
	if err != nil {
		return wire.Acknowledge{}, err
	}
	defer s.Close()

	return s.AwaitAcknowledge()
}
