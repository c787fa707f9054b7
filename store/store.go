// Package store persists one rate snapshot per calendar date in an embedded bbolt database, together
// with the current pointer: a sentinel record naming the most recent committed date.
//
// Keys come from datekey, so a cursor walk over the bucket visits snapshots in calendar order.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/robotomize/fxcache/internal/datekey"
	"github.com/robotomize/fxcache/internal/logging"
	"github.com/robotomize/fxcache/snapshot"
	bolt "go.etcd.io/bbolt"
)

var (
	// ErrCorrupt the stored data violates the pointer/snapshot invariant or can not be decoded
	ErrCorrupt = errors.New("store is corrupt")
	// ErrIO the storage engine failed
	ErrIO = errors.New("store i/o failure")
	// ErrNoCurrent the current pointer was never written
	ErrNoCurrent = errors.New("current pointer not found")
)

const (
	DefaultOpenTimeout = 5 * time.Second
	fileMode           = 0o600
)

var bucketName = []byte("rates")

type Option func(*options)

type options struct {
	workers     int
	noSync      bool
	openTimeout time.Duration
}

// WithWorkers set the maximum number of concurrent store operations
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithNoSync skips fsync on every commit. Durability is then only guaranteed by Flush
func WithNoSync(noSync bool) Option {
	return func(o *options) {
		o.noSync = noSync
	}
}

// WithOpenTimeout set how long Open waits for the file lock held by another process
func WithOpenTimeout(d time.Duration) Option {
	return func(o *options) {
		o.openTimeout = d
	}
}

// Store is safe for concurrent use. bbolt serializes writers and runs readers on MVCC snapshots,
// so a reader never sees a pointer committed after the snapshot it names was committed
type Store struct {
	db   *bolt.DB
	exec *executor
}

// Open opens or creates the database at path
func Open(path string, opts ...Option) (*Store, error) {
	o := newOptions(opts)

	db, err := bolt.Open(path, fileMode, &bolt.Options{Timeout: o.openTimeout, NoSync: o.noSync})
	if err != nil {
		return nil, fmt.Errorf("bolt open %s: %w: %w", path, ErrIO, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w: %w", ErrIO, err)
	}

	return &Store{db: db, exec: newExecutor(o.workers)}, nil
}

func newOptions(opts []Option) options {
	o := options{
		workers:     defaultWorkers,
		openTimeout: DefaultOpenTimeout,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// Exists reports whether a usable store lives at path. A file without the current pointer, or one
// bbolt does not recognize as a database, is left over from an interrupted bootstrap and does not count.
// A lock held by another process past the open timeout is an error
func Exists(ctx context.Context, path string, opts ...Option) (bool, error) {
	o := newOptions(opts)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	if info.Size() == 0 {
		return false, nil
	}

	db, err := bolt.Open(path, fileMode, &bolt.Options{ReadOnly: true, Timeout: o.openTimeout})
	if err != nil {
		if isInvalidFile(err) {
			logging.FromContext(ctx).Warn("store file is not a valid database", "path", path, "error", err)
			return false, nil
		}

		return false, fmt.Errorf("bolt open %s: %w: %w", path, ErrIO, err)
	}
	defer db.Close()

	var found bool
	if err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		found = b != nil && b.Get(datekey.Current) != nil
		return nil
	}); err != nil {
		return false, fmt.Errorf("view: %w: %w", ErrIO, err)
	}

	return found, nil
}

// Put writes every snapshot under its date key in a single transaction. Existing dates are overwritten
func (s *Store) Put(ctx context.Context, snaps ...snapshot.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	type kv struct {
		key, value []byte
	}

	encoded := make([]kv, 0, len(snaps))
	for _, snap := range snaps {
		if err := snap.Validate(); err != nil {
			return fmt.Errorf("put %s: %w", snap.Date, err)
		}

		value, err := encodeRecord(snap)
		if err != nil {
			return fmt.Errorf("put %s: %w", snap.Date, err)
		}

		encoded = append(encoded, kv{key: datekey.Encode(snap.Date), value: value})
	}

	return s.exec.do(ctx, func() error {
		return s.update("put", func(b *bolt.Bucket) error {
			for _, item := range encoded {
				if err := b.Put(item.key, item.value); err != nil {
					return fmt.Errorf("bucket put: %w: %w", ErrIO, err)
				}
			}

			return nil
		})
	})
}

// Get returns the snapshot stored for d. A missing date is reported with false and no error
func (s *Store) Get(ctx context.Context, d snapshot.Date) (snapshot.Snapshot, bool, error) {
	var (
		snap  snapshot.Snapshot
		found bool
	)

	key := datekey.Encode(d)
	err := s.exec.do(ctx, func() error {
		return s.view("get", func(b *bolt.Bucket) error {
			v := b.Get(key)
			if v == nil {
				return nil
			}

			decoded, err := decodeRecord(key, v)
			if err != nil {
				return err
			}

			snap, found = decoded, true

			return nil
		})
	})
	if err != nil {
		return snapshot.Snapshot{}, false, err
	}

	return snap, found, nil
}

// Current returns the snapshot the current pointer names
func (s *Store) Current(ctx context.Context) (snapshot.Snapshot, error) {
	var snap snapshot.Snapshot

	err := s.exec.do(ctx, func() error {
		return s.view("current", func(b *bolt.Bucket) error {
			key, err := currentKey(b)
			if err != nil {
				return err
			}

			v := b.Get(key)
			if v == nil {
				return fmt.Errorf("%w: current pointer names %x which has no snapshot", ErrCorrupt, key)
			}

			snap, err = decodeRecord(key, v)

			return err
		})
	})
	if err != nil {
		return snapshot.Snapshot{}, err
	}

	return snap, nil
}

// CurrentDate returns the date of the current pointer without decoding its snapshot
func (s *Store) CurrentDate(ctx context.Context) (snapshot.Date, error) {
	var d snapshot.Date

	err := s.exec.do(ctx, func() error {
		return s.view("current date", func(b *bolt.Bucket) error {
			key, err := currentKey(b)
			if err != nil {
				return err
			}

			if b.Get(key) == nil {
				return fmt.Errorf("%w: current pointer names %x which has no snapshot", ErrCorrupt, key)
			}

			d, err = datekey.Decode(key)

			return err
		})
	})
	if err != nil {
		return snapshot.Date{}, err
	}

	return d, nil
}

// SetCurrent moves the pointer to d. The snapshot for d must already be committed
func (s *Store) SetCurrent(ctx context.Context, d snapshot.Date) error {
	key := datekey.Encode(d)

	return s.exec.do(ctx, func() error {
		return s.update("set current", func(b *bolt.Bucket) error {
			if b.Get(key) == nil {
				return fmt.Errorf("%w: no snapshot committed for %s", ErrCorrupt, d)
			}

			if err := b.Put(datekey.Current, key); err != nil {
				return fmt.Errorf("bucket put: %w: %w", ErrIO, err)
			}

			return nil
		})
	})
}

// Range returns the snapshots between start and end inclusive in ascending date order
func (s *Store) Range(ctx context.Context, start, end snapshot.Date) ([]snapshot.Snapshot, error) {
	list := make([]snapshot.Snapshot, 0)
	if start.After(end) {
		return list, nil
	}

	from, to := datekey.Encode(start), datekey.Encode(end)
	err := s.exec.do(ctx, func() error {
		return s.view("range", func(b *bolt.Bucket) error {
			c := b.Cursor()
			for k, v := c.Seek(from); k != nil && bytes.Compare(k, to) <= 0; k, v = c.Next() {
				if !datekey.IsDateKey(k) {
					continue
				}

				if _, err := datekey.Decode(k); err != nil {
					return err
				}

				snap, err := decodeRecord(k, v)
				if err != nil {
					return err
				}

				list = append(list, snap)
			}

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return list, nil
}

// Count returns the number of stored snapshots
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int

	err := s.exec.do(ctx, func() error {
		return s.view("count", func(b *bolt.Bucket) error {
			c := b.Cursor()
			for k, _ := c.First(); k != nil; k, _ = c.Next() {
				if datekey.IsDateKey(k) {
					n++
				}
			}

			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	return n, nil
}

// Flush returns once every committed write is on stable storage
func (s *Store) Flush(ctx context.Context) error {
	return s.exec.do(ctx, func() error {
		if err := s.db.Sync(); err != nil {
			return fmt.Errorf("sync: %w: %w", ErrIO, err)
		}

		return nil
	})
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("bolt close: %w: %w", ErrIO, err)
	}

	return nil
}

func (s *Store) view(op string, fn func(b *bolt.Bucket) error) error {
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return fmt.Errorf("%w: bucket %s is missing", ErrCorrupt, bucketName)
		}

		return fn(b)
	})

	return classify(op, err)
}

func (s *Store) update(op string, fn func(b *bolt.Bucket) error) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return fmt.Errorf("%w: bucket %s is missing", ErrCorrupt, bucketName)
		}

		return fn(b)
	})

	return classify(op, err)
}

func isInvalidFile(err error) bool {
	return errors.Is(err, bolt.ErrInvalid) || errors.Is(err, bolt.ErrVersionMismatch) ||
		errors.Is(err, bolt.ErrChecksum)
}

func currentKey(b *bolt.Bucket) ([]byte, error) {
	key := b.Get(datekey.Current)
	if key == nil {
		return nil, ErrNoCurrent
	}

	if !datekey.IsDateKey(key) {
		return nil, fmt.Errorf("%w: current pointer holds %x", ErrCorrupt, key)
	}

	return key, nil
}

// classify tags engine errors, such as a failed commit, with ErrIO. Errors raised by the store itself
// already carry their kind
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrCorrupt), errors.Is(err, ErrIO), errors.Is(err, ErrNoCurrent),
		errors.Is(err, datekey.ErrMalformedKey):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrIO, err)
	}
}
