package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/caldog20/tempnet/pkg/keys"
	"github.com/caldog20/tempnet/server/internal/peer"
)

var recordsBucket = []byte("records")

type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (b *BoltStore) RecordCreated(_ context.Context, p peer.Peer) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(recordsBucket)

		id, err := bkt.NextSequence()
		if err != nil {
			return err
		}
		rec := recordFromPeer(p)
		rec.ID = id
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return bkt.Put(itob(id), data)
	})
}

// RecordEvicted marks the newest open record for key as evicted.
func (b *BoltStore) RecordEvicted(_ context.Context, key keys.PublicKey, at time.Time, cause string) error {
	encoded := key.EncodeToString()
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(recordsBucket)
		c := bkt.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if rec.PublicKey != encoded || rec.EvictCause != "" {
				continue
			}
			rec.EvictedAt = &at
			rec.EvictCause = cause
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			return bkt.Put(k, data)
		}
		return ErrNotFound
	})
}

// ListRecords returns up to limit records, newest first.
func (b *BoltStore) ListRecords(_ context.Context, limit int) ([]Record, error) {
	limit = normalizeLimit(limit)
	records := make([]Record, 0)
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(recordsBucket).Cursor()
		for k, v := c.Last(); k != nil && len(records) < limit; k, v = c.Prev() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (b *BoltStore) Close() error {
	return b.db.Close()
}

// itob returns an 8-byte big endian representation of v.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
