package boltdb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/Heetpatel09/TimeWise-sub001/core"
)

var (
	bucketSubjects   = []byte("Subjects")
	bucketSections   = []byte("Sections")
	bucketTeachers   = []byte("Teachers")
	bucketAllotments = []byte("Allotments")

	allBuckets = [][]byte{bucketSubjects, bucketSections, bucketTeachers, bucketAllotments}
)

// DB is a single-file store; every value is stored as JSON under its record ID.
type DB struct {
	bolt *bbolt.DB
}

// Open opens (or creates) the store at path and makes sure all buckets exist.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating data directory")
	}

	bdb, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "opening bolt file")
	}

	err = bdb.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = bdb.Close()
		return nil, errors.Wrap(err, "creating buckets")
	}
	return &DB{bolt: bdb}, nil
}

func (db *DB) Close() error {
	return db.bolt.Close()
}

func (db *DB) view(fn func(tx *bbolt.Tx) error) error {
	return closedAsShutdown(db.bolt.View(fn))
}

func (db *DB) update(fn func(tx *bbolt.Tx) error) error {
	return closedAsShutdown(db.bolt.Update(fn))
}

// a closed file is never reopened in-process
func closedAsShutdown(err error) error {
	if err == bbolt.ErrDatabaseNotOpen {
		return core.NewShutdownError("bolt store is closed")
	}
	return err
}

func put[T any](tx *bbolt.Tx, bucket []byte, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return tx.Bucket(bucket).Put([]byte(key), data)
}

// get returns (nil, nil) when key does not exist.
func get[T any](tx *bbolt.Tx, bucket []byte, key string) (*T, error) {
	v := tx.Bucket(bucket).Get([]byte(key))
	if v == nil {
		return nil, nil
	}
	var out T
	if err := json.Unmarshal(v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func list[T any](tx *bbolt.Tx, bucket []byte) ([]T, error) {
	results := make([]T, 0)
	err := tx.Bucket(bucket).ForEach(func(_, v []byte) error {
		var out T
		if err := json.Unmarshal(v, &out); err != nil {
			return err
		}
		results = append(results, out)
		return nil
	})
	return results, err
}

// deleteKeys deletes the existing keys and returns how many there were.
func deleteKeys(tx *bbolt.Tx, bucket []byte, keys ...string) (int, error) {
	b := tx.Bucket(bucket)
	var cnt int
	for _, key := range keys {
		if b.Get([]byte(key)) == nil {
			continue
		}
		if err := b.Delete([]byte(key)); err != nil {
			return cnt, err
		}
		cnt++
	}
	return cnt, nil
}
