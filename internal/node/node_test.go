package node

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"truckping/internal/config"
	"truckping/internal/journal"
	"truckping/internal/presence"
	"truckping/internal/registry"
	"truckping/internal/util/logger/handlers/slogdiscard"
	"truckping/internal/view"
	"truckping/internal/wire"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func truckConfig(t *testing.T, group string) *config.Truck {
	t.Helper()

	return &config.Truck{
		TruckID: "TRK01",
		Presence: config.Presence{
			Group:    group,
			Interval: 50 * time.Millisecond,
		},
		Dispatch: config.Dispatch{
			ListenAddr:   "127.0.0.1:0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			BaseETA:      5,
		},
		Position: config.Position{
			StartLat:      31.956,
			StartLon:      35.945,
			MaxStepMeters: 3,
			StepInterval:  20 * time.Millisecond,
		},
		Journal: journal.Config{
			Driver: journal.DriverBolt,
			Path:   filepath.Join(t.TempDir(), "storage", "journal.db"),
		},
	}
}

func clientConfig() *config.Client {
	return &config.Client{
		UserID:     "USR1",
		Lat:        31.956,
		Lon:        35.945,
		NearKM:     0.5,
		StaleAfter: 3 * time.Second,
		Refresh:    50 * time.Millisecond,
		WarmUp:     300 * time.Millisecond,
	}
}

// loopbackConsumer listens for heartbeats on a unicast loopback socket.
func loopbackConsumer(t *testing.T, cfg *config.Client) *Consumer {
	t.Helper()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	reg := registry.New(registry.Config{StaleAfter: cfg.StaleAfter})
	log := slogdiscard.NewDiscardLogger()
	l := presence.NewListener(conn, presence.ListenerConfig{PollInterval: 20 * time.Millisecond}, reg, log)

	c := newConsumer(cfg, reg, l, log)
	t.Cleanup(func() { c.Close() })
	return c
}

func startTruck(t *testing.T, cfg *config.Truck) *Truck {
	t.Helper()

	tr, err := NewTruck(cfg, slogdiscard.NewDiscardLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Error("truck did not stop")
		}
		tr.Close()
	})
	return tr
}

func TestTruckAndConsumer_PingRoundTrip(t *testing.T) {
	consumer := loopbackConsumer(t, clientConfig())

	cfg := truckConfig(t, consumer.Listener.LocalAddr().String())
	cfg.Position.FixFile = filepath.Join(t.TempDir(), "fix.txt")
	require.NoError(t, os.WriteFile(cfg.Position.FixFile, []byte("31.9601 35.9502\n"), 0o644))
	tr := startTruck(t, cfg)

	ack, err := consumer.Ping(context.Background(), wire.Request{
		TruckID: "TRK01",
		UserID:  "USR1",
		Address: wire.MakeAddress("12 Main St, Apt 4"),
		Note:    wire.MakeNote("no onions"),
	})
	require.NoError(t, err)
	assert.Equal(t, wire.Acknowledge{TruckID: "TRK01", ETAMinutes: 5, Queued: 1}, ack)

	require.Eventually(t, func() bool {
		rec, ok := consumer.Registry.Lookup("TRK01")
		return ok && rec.Lat == 31.9601 && rec.Lon == 35.9502
	}, time.Second, 10*time.Millisecond)

	rec, ok := consumer.Registry.Lookup("TRK01")
	require.True(t, ok)
	assert.Equal(t, tr.Dispatcher.Port(), rec.Port)
	assert.True(t, rec.Source.IsLoopback())

	require.Eventually(t, func() bool {
		entries, err := tr.Journal.Recent(context.Background(), 10)
		return err == nil && len(entries) == 1
	}, time.Second, 10*time.Millisecond)

	entries, err := tr.Journal.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "USR1", entries[0].UserID)
	assert.Equal(t, "no onions", entries[0].Note)
	assert.Equal(t, 31.9601, entries[0].VendorLat)
	assert.Equal(t, 35.9502, entries[0].VendorLon)
	assert.NotEmpty(t, entries[0].ID)
}

func TestConsumer_PingUnknownTruck(t *testing.T) {
	cfg := clientConfig()
	cfg.WarmUp = 50 * time.Millisecond
	consumer := loopbackConsumer(t, cfg)

	_, err := consumer.Ping(context.Background(), wire.Request{TruckID: "NOPE", UserID: "USR1"})
	assert.Error(t, err)
}

func TestConsumer_ListShowsNearbyTruck(t *testing.T) {
	consumer := loopbackConsumer(t, clientConfig())
	startTruck(t, truckConfig(t, consumer.Listener.LocalAddr().String()))

	var out syncBuffer
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.List(ctx, &out, view.Options{}) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), ">> TRK01 is nearby!")
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("list did not stop")
	}
	assert.Contains(t, out.String(), "truck_id       distance_km")
}

func TestNewTruck_SetupFailure(t *testing.T) {
	cfg := truckConfig(t, "127.0.0.1:9")
	cfg.Dispatch.ListenAddr = "not-an-address"

	_, err := NewTruck(cfg, slogdiscard.NewDiscardLogger())
	assert.Error(t, err)
}

func TestNewTruck_FileFeed(t *testing.T) {
	cfg := truckConfig(t, "127.0.0.1:9")
	cfg.Journal = journal.Config{Driver: journal.DriverNone}
	cfg.Position.FixFile = filepath.Join(t.TempDir(), "fix.txt")

	tr, err := NewTruck(cfg, slogdiscard.NewDiscardLogger())
	require.NoError(t, err)
	assert.NotNil(t, tr.feed)
	assert.NoError(t, tr.Close())
}
