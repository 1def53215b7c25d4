// Package journal persists demo runs and their hops in a bbolt database so
// the extracted scripts can be revisited after the node has moved on.
package journal

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

var (
	bucketRuns      = []byte("runs")
	bucketRunsOrder = []byte("runs_order")
	bucketHops      = []byte("hops")
)

// Store wraps a bbolt database holding runs and hops.
type Store struct {
	db *bbolt.DB
}

// NewRunID returns a fresh random run id.
func NewRunID() string { return uuid.NewString() }

// Open opens or creates the journal at path.
// The parent directory is created if it does not exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("journal: create directory: %w", err)
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("journal: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketRuns, bucketRunsOrder, bucketHops} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("journal: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func validateRunID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidRunID, id)
	}
	return nil
}

// PutRun inserts or updates a run. New runs are appended to the run order.
func (s *Store) PutRun(run *Run) error {
	if run == nil {
		return fmt.Errorf("%w: nil run", ErrInvalidRunID)
	}
	if err := validateRunID(run.ID); err != nil {
		return err
	}
	data, err := encodeGob(run)
	if err != nil {
		return fmt.Errorf("journal: encode run: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		runs := tx.Bucket(bucketRuns)
		isNew := runs.Get([]byte(run.ID)) == nil
		if err := runs.Put([]byte(run.ID), data); err != nil {
			return fmt.Errorf("journal: put run: %w", err)
		}
		if !isNew {
			return nil
		}
		order := tx.Bucket(bucketRunsOrder)
		seq, err := order.NextSequence()
		if err != nil {
			return fmt.Errorf("journal: next sequence: %w", err)
		}
		if err := order.Put(seqKey(seq), []byte(run.ID)); err != nil {
			return fmt.Errorf("journal: put run order: %w", err)
		}
		return nil
	})
}

// GetRun returns the run stored under id.
func (s *Store) GetRun(id string) (*Run, error) {
	var run Run
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketRuns).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		if err := decodeGob(data, &run); err != nil {
			return fmt.Errorf("journal: decode run: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns all runs, oldest first.
func (s *Store) ListRuns() ([]*Run, error) {
	var runs []*Run
	err := s.db.View(func(tx *bbolt.Tx) error {
		byID := tx.Bucket(bucketRuns)
		return tx.Bucket(bucketRunsOrder).ForEach(func(_, id []byte) error {
			data := byID.Get(id)
			if data == nil {
				return nil
			}
			var run Run
			if err := decodeGob(data, &run); err != nil {
				return fmt.Errorf("journal: decode run %s: %w", id, err)
			}
			runs = append(runs, &run)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// PutHop stores hop under runID. The run must already exist.
func (s *Store) PutHop(runID string, hop *Hop) error {
	if hop == nil {
		return errors.New("journal: nil hop")
	}
	if hop.Index < 0 {
		return fmt.Errorf("journal: negative hop index %d", hop.Index)
	}
	data, err := encodeGob(hop)
	if err != nil {
		return fmt.Errorf("journal: encode hop: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketRuns).Get([]byte(runID)) == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		if err := tx.Bucket(bucketHops).Put(hopKey(runID, hop.Index), data); err != nil {
			return fmt.Errorf("journal: put hop: %w", err)
		}
		return nil
	})
}

// Hops returns the hops of runID ordered by index.
func (s *Store) Hops(runID string) ([]*Hop, error) {
	prefix := hopPrefix(runID)
	var hops []*Hop
	err := s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketRuns).Get([]byte(runID)) == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		c := tx.Bucket(bucketHops).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var hop Hop
			if err := decodeGob(v, &hop); err != nil {
				return fmt.Errorf("journal: decode hop: %w", err)
			}
			hops = append(hops, &hop)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hops, nil
}

// seqKey encodes a sequence number as an 8-byte big-endian key for sorted storage.
func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

func hopPrefix(runID string) []byte {
	return append([]byte(runID), '/')
}

func hopKey(runID string, index int) []byte {
	k := hopPrefix(runID)
	return binary.BigEndian.AppendUint32(k, uint32(index))
}

// encodeGob serializes a value using gob encoding.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
