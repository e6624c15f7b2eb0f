package position

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"truckping/internal/util/logger/sl"
)

const DefaultDebounceDuration = 100 * time.Millisecond

var ErrInvalidFix = errors.New("invalid position fix")

// FileFeed keeps a Tracker in sync with a fix file written by an external GPS
// reader. The file holds "lat lon" or "lat,lon" on its first line.
type FileFeed struct {
	path      string
	tracker   *Tracker
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	log       *slog.Logger
}

// NewFileFeed watches the directory containing path, so that editors and
// writers that replace the file atomically are picked up too.
func NewFileFeed(path string, tracker *Tracker, debounce time.Duration, log *slog.Logger) (*FileFeed, error) {
	if debounce <= 0 {
		debounce = DefaultDebounceDuration
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	return &FileFeed{
		path:      filepath.Clean(path),
		tracker:   tracker,
		watcher:   watcher,
		debouncer: newDebouncer(debounce),
		log:       log.With(slog.String("component", "position_feed"), slog.String("path", path)),
	}, nil
}

// Run loads the current fix and then follows changes until ctx is done.
func (f *FileFeed) Run(ctx context.Context) {
	f.load()

	for {
		select {
		case <-ctx.Done():
			f.debouncer.stop()
			return
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			f.debouncer.debounce(f.path, f.load)
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.log.Warn("watcher error", sl.Err(err))
		}
	}
}

func (f *FileFeed) Close() error {
	f.debouncer.stop()
	return f.watcher.Close()
}

func (f *FileFeed) load() {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.log.Warn("failed to read fix", sl.Err(err))
		}
		return
	}

	lat, lon, err := ParseFix(string(data))
	if err != nil {
		f.log.Warn("ignoring fix", sl.Err(err))
		return
	}

	f.tracker.Set(lat, lon)
	f.log.Debug("position updated", slog.Float64("lat", lat), slog.Float64("lon", lon))
}

// ParseFix reads "lat lon" or "lat,lon" from the first line of data.
func ParseFix(data string) (float64, float64, error) {
	line, _, _ := strings.Cut(data, "\n")
	parts := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\r'
	})
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: want 2 fields, got %d", ErrInvalidFix, len(parts))
	}

	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil || math.IsNaN(lat) || lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("%w: latitude %q", ErrInvalidFix, parts[0])
	}
	lon, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || math.IsNaN(lon) || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("%w: longitude %q", ErrInvalidFix, parts[1])
	}
	return lat, lon, nil
}
