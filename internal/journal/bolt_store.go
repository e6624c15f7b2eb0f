package journal

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"go.etcd.io/bbolt"
)

const PingsBucket = "pings"

// BoltConfig configures a BoltStore.
type BoltConfig struct {
	Path       string
	FileMode   os.FileMode
	Timeout    time.Duration
	Serializer Serializer
}

// BoltStore keeps entries in a single bbolt bucket keyed by an increasing
// sequence, so cursor order is insertion order.
type BoltStore struct {
	db         *bbolt.DB
	serializer Serializer
}

func NewBoltStore(cfg BoltConfig) (*BoltStore, error) {
	if cfg.Serializer == nil {
		cfg.Serializer = &GobSerializer{}
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0600
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}

	db, err := bbolt.Open(cfg.Path, cfg.FileMode, &bbolt.Options{Timeout: cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(PingsBucket)); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &BoltStore{db: db, serializer: cfg.Serializer}, nil
}

func (s *BoltStore) Append(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := s.serializer.Serialize(&e)
	if err != nil {
		return fmt.Errorf("serialize entry: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(PingsBucket))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(seqKey(seq), data)
	})
}

func (s *BoltStore) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}

	entries := make([]Entry, 0, min(n, recentPrealloc))
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(PingsBucket)).Cursor()
		for k, v := c.Last(); k != nil && len(entries) < n; k, v = c.Prev() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var e Entry
			if err := s.serializer.Deserialize(v, &e); err != nil {
				return fmt.Errorf("%w: key %x: %v", ErrCorruptEntry, k, err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *BoltStore) Close() error {
	if s.db == nil {
		return ErrNilDB
	}
	return s.db.Close()
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
