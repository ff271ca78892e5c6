// Package bolt stores the authoritative key set in a bbolt database.
package bolt

import (
	"encoding/binary"
	"errors"
	"time"

	bbolt "go.etcd.io/bbolt"
	bberrors "go.etcd.io/bbolt/errors"

	"github.com/haukened/bloomset/internal/keyset"
)

var (
	bucketKeys = []byte("keys")
	bucketMeta = []byte("meta")

	metaVersion = []byte("version")
	metaUpdated = []byte("updated")

	present = []byte{1}
)

// ErrEmptyKey is returned when writing a zero-length key, which bbolt rejects.
var ErrEmptyKey = errors.New("bolt: empty key")

// boltStore implements keyset.Store using bbolt.
type boltStore struct {
	db *bbolt.DB
}

// New opens (or creates) a Bolt database at path and ensures buckets exist.
func New(path string) (keyset.Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketKeys, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Close() error { return s.db.Close() }

func (s *boltStore) Has(key string) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketKeys)
		if b == nil {
			return nil
		}
		found = b.Get([]byte(key)) != nil
		return nil
	})
	return found, err
}

func (s *boltStore) Put(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketKeys).Put([]byte(key), present)
	})
}

// RebuildAll drops and refills the keys bucket and rewrites metadata in a
// single transaction, so readers see either the old or the new snapshot.
func (s *boltStore) RebuildAll(keys []string, version uint64, updatedUnix int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketKeys); err != nil && !errors.Is(err, bberrors.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket(bucketKeys)
		if err != nil {
			return err
		}
		for _, k := range keys {
			if k == "" {
				return ErrEmptyKey
			}
			if err := b.Put([]byte(k), present); err != nil {
				return err
			}
		}
		return putMeta(tx.Bucket(bucketMeta), version, updatedUnix)
	})
}

func putMeta(b *bbolt.Bucket, version uint64, updatedUnix int64) error {
	vbuf := make([]byte, 8)
	ubuf := make([]byte, 8)
	binary.BigEndian.PutUint64(vbuf, version)
	binary.BigEndian.PutUint64(ubuf, uint64(updatedUnix))
	if err := b.Put(metaVersion, vbuf); err != nil {
		return err
	}
	return b.Put(metaUpdated, ubuf)
}

func (s *boltStore) Stats() keyset.StoreStats {
	st := keyset.StoreStats{}
	_ = s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketKeys); b != nil {
			st.Keys = uint64(b.Stats().KeyN)
		}
		if b := tx.Bucket(bucketMeta); b != nil {
			if v := b.Get(metaVersion); len(v) == 8 {
				st.Version = binary.BigEndian.Uint64(v)
			}
			if v := b.Get(metaUpdated); len(v) == 8 {
				st.UpdatedUnix = int64(binary.BigEndian.Uint64(v))
			}
		}
		return nil
	})
	return st
}
