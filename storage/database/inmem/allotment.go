package inmemdb

import (
	"context"

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
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.allotments = append(make([]allocation.Allotment, 0, len(allotments)), allotments...)
	return nil
}

func (repo *allotmentRepository) QueryAllotments(_ context.Context) ([]allocation.Allotment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return append(make([]allocation.Allotment, 0, len(repo.db.allotments)), repo.db.allotments...), nil
}
