package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
	"talibgen/internal/domain"
)

var (
	bucketArtifacts = []byte("artifacts")
	bucketMeta      = []byte("meta")
)

// BoltStore records what each generation run wrote.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketArtifacts, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) DB() *bbolt.DB {
	return s.db
}

// ListArtifacts returns the recorded artifacts ordered by module name.
func (s *BoltStore) ListArtifacts() ([]domain.ArtifactRecord, error) {
	var records []domain.ArtifactRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketArtifacts).ForEach(func(k, v []byte) error {
			var rec domain.ArtifactRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("corrupt record %s: %w", k, err)
			}
			records = append(records, rec)
			return nil
		})
	})
	return records, err
}

func (s *BoltStore) GetArtifact(module string) (domain.ArtifactRecord, bool, error) {
	var rec domain.ArtifactRecord
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketArtifacts).Get([]byte(module))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &rec)
	})
	return rec, found, err
}

// ReplaceArtifacts clears the recorded set and stores records.
func (s *BoltStore) ReplaceArtifacts(records []domain.ArtifactRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketArtifacts); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		b, err := tx.CreateBucket(bucketArtifacts)
		if err != nil {
			return err
		}
		for _, rec := range records {
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(rec.Module), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
