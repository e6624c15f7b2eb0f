package view

import (
	"bytes"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"truckping/internal/registry"
	"truckping/internal/wire"
)

var now = time.Unix(1700000100, 0)

func ranked(id string, dist float64, age time.Duration, port int) registry.Ranked {
	return registry.Ranked{
		DistanceKm: dist,
		Record: registry.VendorRecord{
			ID:       wire.ID(id),
			Port:     port,
			LastSeen: now.Add(-age),
			Source:   net.ParseIP("192.168.1.20"),
		},
	}
}

func render(t *testing.T, opts Options, rows []registry.Ranked) []string {
	t.Helper()

	var buf bytes.Buffer
	tbl := NewTable(&buf, opts)
	tbl.now = func() time.Time { return now }
	require.NoError(t, tbl.Render(rows))

	return strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
}

func TestRender_Rows(t *testing.T) {
	lines := render(t, Options{}, []registry.Ranked{
		ranked("TRK01", 1.25, 2*time.Second, 6012),
		ranked("TRK02", 3.5, 0, 6013),
	})

	require.Len(t, lines, 4)
	assert.Empty(t, lines[0])
	assert.Equal(t, header, lines[1])
	assert.Equal(t, "TRK01                1.250           2     6012 192.168.1.20", lines[2])
	assert.Equal(t, "TRK02                3.500           0     6013 192.168.1.20", lines[3])
}

func TestRender_NearbyAlert(t *testing.T) {
	lines := render(t, Options{NearKM: 0.5, Bell: true}, []registry.Ranked{
		ranked("CLOSE", 0.2, 0, 6012),
		ranked("EDGE", 0.5, 0, 6013),
	})

	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[2], "CLOSE"))
	assert.Equal(t, "\a>> CLOSE is nearby!", lines[3])
	assert.True(t, strings.HasPrefix(lines[4], "EDGE"))
}

func TestRender_NoBell(t *testing.T) {
	lines := render(t, Options{}, []registry.Ranked{ranked("CLOSE", 0.1, 0, 6012)})

	require.Len(t, lines, 4)
	assert.Equal(t, ">> CLOSE is nearby!", lines[3])
}

func TestRender_ColorHighlightsNearby(t *testing.T) {
	lines := render(t, Options{Color: true}, []registry.Ranked{
		ranked("CLOSE", 0.1, 0, 6012),
		ranked("FAR", 9, 0, 6013),
	})

	require.Len(t, lines, 5)
	assert.Contains(t, lines[2], "\x1b[")
	assert.NotContains(t, lines[4], "\x1b[")
}

func TestRender_Empty(t *testing.T) {
	lines := render(t, Options{}, nil)
	assert.Equal(t, []string{"", header}, lines)
}

func TestRender_MissingSource(t *testing.T) {
	row := ranked("TRK01", 1, 0, 6012)
	row.Record.Source = nil

	lines := render(t, Options{}, []registry.Ranked{row})
	assert.True(t, strings.HasSuffix(lines[2], " -"))
}

func TestFormatAcknowledge(t *testing.T) {
	got := FormatAcknowledge(wire.Acknowledge{TruckID: "TRK01", ETAMinutes: 5, Queued: 1})
	assert.Equal(t, "ACK from TRK01: eta=5 min queued=1", got)
}

func TestIsTerminal_RegularFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, IsTerminal(f))
}
