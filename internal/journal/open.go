package journal

import (
	"fmt"
	"log/slog"
)

const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
	DriverNone   = "none"

	EncodingGob  = "gob"
	EncodingCBOR = "cbor"
)

// Config selects and configures the backing store.
type Config struct {
	Driver   string `yaml:"driver" env:"JOURNAL_DRIVER" env-default:"bolt"`
	Path     string `yaml:"path" env:"JOURNAL_PATH" env-default:"./storage/journal.db"`
	Encoding string `yaml:"encoding" env:"JOURNAL_ENCODING" env-default:"gob"`
}

// Open returns the store named by cfg.Driver.
func Open(cfg Config, log *slog.Logger) (Store, error) {
	const op = "journal.Open"

	switch cfg.Driver {
	case DriverBolt, "":
		ser, err := serializerFor(cfg.Encoding)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s, err := NewBoltStore(BoltConfig{Path: cfg.Path, Serializer: ser})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return s, nil
	case DriverSQLite:
		s, err := NewSQLiteStore(cfg.Path, log)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return s, nil
	case DriverNone:
		return Discard{}, nil
	default:
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownDriver, cfg.Driver)
	}
}

func serializerFor(encoding string) (Serializer, error) {
	switch encoding {
	case EncodingGob, "":
		return &GobSerializer{}, nil
	case EncodingCBOR:
		return NewCBORSerializer()
	default:
		return nil, fmt.Errorf("unknown encoding %q", encoding)
	}
}
