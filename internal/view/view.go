// Package view renders the consumer's ranked truck table.
package view

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"truckping/internal/registry"
	"truckping/internal/wire"
)

const (
	DefaultNearKM = 0.5

	header = "truck_id       distance_km last_seen_s tcp_port ip"
)

type Options struct {
	// NearKM marks rows strictly closer than this distance.
	NearKM float64
	Color  bool
	// Bell rings the terminal bell with each nearby alert.
	Bell bool
}

// Table writes one block per Render call.
type Table struct {
	w    io.Writer
	opts Options
	now  func() time.Time

	headerColor *color.Color
	nearColor   *color.Color
	alertColor  *color.Color
}

func NewTable(w io.Writer, opts Options) *Table {
	if opts.NearKM <= 0 {
		opts.NearKM = DefaultNearKM
	}

	t := &Table{
		w:           w,
		opts:        opts,
		now:         time.Now,
		headerColor: color.New(color.Bold),
		nearColor:   color.New(color.FgGreen),
		alertColor:  color.New(color.FgYellow, color.Bold),
	}
	for _, c := range []*color.Color{t.headerColor, t.nearColor, t.alertColor} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return t
}

// Render prints the header, then each row in the given order followed by an
// alert line for every nearby truck.
func (t *Table) Render(rows []registry.Ranked) error {
	now := t.now()

	if _, err := fmt.Fprintf(t.w, "\n%s\n", t.headerColor.Sprint(header)); err != nil {
		return err
	}

	for _, row := range rows {
		rec := row.Record
		line := fmt.Sprintf("%-14s %11.3f %11d %8d %s",
			rec.ID, row.DistanceKm, int64(now.Sub(rec.LastSeen).Seconds()), rec.Port, ipString(rec))

		near := row.DistanceKm < t.opts.NearKM
		if near {
			line = t.nearColor.Sprint(line)
		}
		if _, err := fmt.Fprintln(t.w, line); err != nil {
			return err
		}

		if near {
			bell := ""
			if t.opts.Bell {
				bell = "\a"
			}
			if _, err := fmt.Fprintf(t.w, "%s%s\n", bell, t.alertColor.Sprintf(">> %s is nearby!", rec.ID)); err != nil {
				return err
			}
		}
	}
	return nil
}

// FormatAcknowledge is the one-line summary printed after a ping.
func FormatAcknowledge(ack wire.Acknowledge) string {
	return fmt.Sprintf("ACK from %s: eta=%d min queued=%d", ack.TruckID, ack.ETAMinutes, ack.Queued)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func ipString(rec registry.VendorRecord) string {
	if rec.Source == nil {
		return "-"
	}
	return rec.Source.String()
}
