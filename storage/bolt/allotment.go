package boltdb

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/Heetpatel09/TimeWise-sub001/core/allocation"
)

type allotmentRepository struct {
	db *DB
}

var _ allocation.Repository = (*allotmentRepository)(nil) // interface compliance check

func NewAllotmentRepository(db *DB) allocation.Repository {
	return &allotmentRepository{db: db}
}

func (repo *allotmentRepository) ReplaceAllotments(_ context.Context, allotments []allocation.Allotment) error {
	err := repo.db.update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketAllotments); err != nil {
			return err
		}
		if _, err := tx.CreateBucket(bucketAllotments); err != nil {
			return err
		}
		for i, at := range allotments {
			// zero-padded keys keep the insertion order on iteration
			if err := put(tx, bucketAllotments, fmt.Sprintf("%08d", i), at); err != nil {
				return err
			}
		}
		return nil
	})
	return errors.Wrap(err, "replacing allotments")
}

func (repo *allotmentRepository) QueryAllotments(_ context.Context) ([]allocation.Allotment, error) {
	var allotments []allocation.Allotment
	err := repo.db.view(func(tx *bbolt.Tx) error {
		var err error
		allotments, err = list[allocation.Allotment](tx, bucketAllotments)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying allotments")
	}
	return allotments, nil
}
