// Package store caches trained model artifacts in BoltDB so repeated runs
// can skip retraining. The cache is a pure memoization layer: entries are
// keyed by model name and validated against a dataset fingerprint, and a
// mismatch or decode failure simply falls back to training.
package store

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.etcd.io/bbolt"

	"github.com/ptressel/PracticalMLCourseProject/internal/model"
)

const modelsBucket = "models"

// Store is a BoltDB-backed model artifact cache.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open model cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(modelsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create models bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// LookupOrTrain returns the cached classifier for name when its stored
// fingerprint matches, otherwise calls train and caches the result.
// The boolean reports whether the cache was hit.
func (s *Store) LookupOrTrain(name string, fingerprint uint64, train func() (model.Classifier, error)) (model.Classifier, bool, error) {
	if cached := s.lookup(name, fingerprint); cached != nil {
		log.Info().Str("model", name).Msg("Loaded cached model artifact")
		return cached, true, nil
	}

	trained, err := train()
	if err != nil {
		return nil, false, err
	}

	if err := s.put(name, fingerprint, trained); err != nil {
		// A write failure costs a retrain next run, nothing else.
		log.Warn().Err(err).Str("model", name).Msg("Failed to cache model artifact")
	}
	return trained, false, nil
}

func (s *Store) lookup(name string, fingerprint uint64) model.Classifier {
	var c model.Classifier
	_ = s.db.View(func(tx *bbolt.Tx) error {
		value := tx.Bucket([]byte(modelsBucket)).Get([]byte(name))
		if len(value) < 8 {
			return nil
		}
		if binary.BigEndian.Uint64(value[:8]) != fingerprint {
			log.Info().Str("model", name).Msg("Cached artifact fingerprint mismatch, retraining")
			return nil
		}
		decoded, err := model.Unmarshal(value[8:])
		if err != nil {
			log.Warn().Err(err).Str("model", name).Msg("Cached artifact unreadable, retraining")
			return nil
		}
		c = decoded
		return nil
	})
	return c
}

func (s *Store) put(name string, fingerprint uint64, c model.Classifier) error {
	data, err := model.Marshal(c)
	if err != nil {
		return err
	}
	value := make([]byte, 8+len(data))
	binary.BigEndian.PutUint64(value[:8], fingerprint)
	copy(value[8:], data)

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(modelsBucket)).Put([]byte(name), value)
	})
}
