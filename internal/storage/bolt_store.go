package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/samvad-hq/mtg-card-harvester/internal/domain"
)

// Layout: seen_cards/<query id>/<card id> -> JSON seenRecord.
var rootBucket = []byte("seen_cards")

var errNoRoot = errors.New("seen_cards bucket missing")

// seenRecord is what gets stored for a published card. Name and set are kept
// so the database can be inspected without the API.
type seenRecord struct {
	Name      string    `json:"name"`
	SetName   string    `json:"set_name"`
	MarkedAt  time.Time `json:"marked_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (r seenRecord) live(now time.Time) bool { return r.ExpiresAt.After(now) }

type boltStore struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time

	sweepEvery time.Duration
	sweepMu    sync.Mutex
	lastSweep  time.Time
}

func openBolt(path string, opts Options) (*boltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	}); err != nil {
		return nil, errors.Join(fmt.Errorf("init bbolt db: %w", err), db.Close())
	}

	return &boltStore{
		db:         db,
		ttl:        opts.CardTTL,
		now:        time.Now,
		sweepEvery: opts.CleanupInterval,
		lastSweep:  time.Now(),
	}, nil
}

func (b *boltStore) Close() error { return b.db.Close() }

// SeenCard reports whether cardID was marked for queryID and has not expired.
// An expired or unreadable record is removed on the way.
func (b *boltStore) SeenCard(queryID, cardID string) (bool, error) {
	now := b.now()
	if err := b.sweep(now); err != nil {
		return false, err
	}

	var seen bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		qb, err := queryBucket(tx, queryID, false)
		if qb == nil || err != nil {
			return err
		}
		raw := qb.Get([]byte(cardID))
		if raw == nil {
			return nil
		}
		var rec seenRecord
		if json.Unmarshal(raw, &rec) == nil && rec.live(now) {
			seen = true
			return nil
		}
		return qb.Delete([]byte(cardID))
	})
	if err != nil {
		return false, fmt.Errorf("seen %s/%s: %w", queryID, cardID, err)
	}
	return seen, nil
}

// MarkCard records card as published for queryID until now plus the TTL.
func (b *boltStore) MarkCard(queryID string, card domain.Card) error {
	now := b.now()
	if err := b.sweep(now); err != nil {
		return err
	}

	raw, err := json.Marshal(seenRecord{
		Name:      card.Name,
		SetName:   card.SetName,
		MarkedAt:  now.UTC(),
		ExpiresAt: now.Add(b.ttl).UTC(),
	})
	if err != nil {
		return err
	}
	err = b.db.Update(func(tx *bolt.Tx) error {
		qb, err := queryBucket(tx, queryID, true)
		if err != nil {
			return err
		}
		return qb.Put([]byte(card.ID()), raw)
	})
	if err != nil {
		return fmt.Errorf("mark %s/%s: %w", queryID, card.ID(), err)
	}
	return nil
}

// Count includes expired records that have not been swept yet.
func (b *boltStore) Count(queryID string) (int, error) {
	var n int
	err := b.db.View(func(tx *bolt.Tx) error {
		if queryID != "" {
			qb, err := queryBucket(tx, queryID, false)
			if qb != nil {
				n = qb.Stats().KeyN
			}
			return err
		}
		root := tx.Bucket(rootBucket)
		if root == nil {
			return errNoRoot
		}
		return root.ForEachBucket(func(name []byte) error {
			n += root.Bucket(name).Stats().KeyN
			return nil
		})
	})
	return n, err
}

// sweep drops expired records, and query buckets left empty, at most once
// per cleanup interval.
func (b *boltStore) sweep(now time.Time) error {
	b.sweepMu.Lock()
	defer b.sweepMu.Unlock()
	if now.Sub(b.lastSweep) < b.sweepEvery {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(rootBucket)
		if root == nil {
			return errNoRoot
		}
		var empty [][]byte
		err := root.ForEachBucket(func(name []byte) error {
			qb := root.Bucket(name)
			var expired [][]byte
			kept := 0
			_ = qb.ForEach(func(k, v []byte) error {
				var rec seenRecord
				if json.Unmarshal(v, &rec) != nil || !rec.live(now) {
					expired = append(expired, append([]byte(nil), k...))
				} else {
					kept++
				}
				return nil
			})
			for _, k := range expired {
				if err := qb.Delete(k); err != nil {
					return err
				}
			}
			if kept == 0 {
				empty = append(empty, append([]byte(nil), name...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, name := range empty {
			if err := root.DeleteBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sweep expired cards: %w", err)
	}
	b.lastSweep = now
	return nil
}

// queryBucket returns the nested bucket for queryID. Without create a missing
// bucket yields nil and no error.
func queryBucket(tx *bolt.Tx, queryID string, create bool) (*bolt.Bucket, error) {
	if queryID == "" {
		return nil, errors.New("query id is required")
	}
	root := tx.Bucket(rootBucket)
	if root == nil {
		return nil, errNoRoot
	}
	if create {
		return root.CreateBucketIfNotExists([]byte(queryID))
	}
	return root.Bucket([]byte(queryID)), nil
}
