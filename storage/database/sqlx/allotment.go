package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Heetpatel09/TimeWise-sub001/core/allocation"
)

type allotmentRow struct {
	RunID     string      `db:"run_id"`
	SubjectID string      `db:"subject_id"`
	TeacherID null.String `db:"teacher_id"`
	SectionID string      `db:"section_id"`
	CreatedAt time.Time   `db:"created_at"`
}

var allotmentColumns = []string{"run_id", "subject_id", "teacher_id", "section_id", "created_at"}

type allotmentRepository struct {
	db *sqlx.DB
}

var _ allocation.Repository = (*allotmentRepository)(nil) // interface compliance check

func NewAllotmentRepository(db *sqlx.DB) allocation.Repository {
	return &allotmentRepository{db: db}
}

// ReplaceAllotments swaps the snapshot in one transaction. Rows are streamed with COPY, so the
// snapshot size is not bound by the 65535 parameters a single INSERT may carry.
func (repo *allotmentRepository) ReplaceAllotments(ctx context.Context, allotments []allocation.Allotment) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }() // no-op after Commit

	if _, err = tx.ExecContext(ctx, "DELETE FROM allotment"); err != nil {
		return errors.Wrap(err, "clearing allotments")
	}

	if len(allotments) > 0 {
		if err = copyAllotments(ctx, tx, allotments); err != nil {
			return errors.Wrap(err, "inserting allotments")
		}
	}
	return errors.Wrap(tx.Commit(), "committing allotments")
}

func copyAllotments(ctx context.Context, tx *sqlx.Tx, allotments []allocation.Allotment) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("allotment", allotmentColumns...))
	if err != nil {
		return errors.Wrap(err, "preparing copy")
	}
	defer func() { _ = stmt.Close() }()

	for _, at := range allotments {
		if _, err = stmt.ExecContext(ctx, at.RunID, at.SubjectID, at.TeacherID, at.SectionID, at.CreatedAt.UTC()); err != nil {
			return errors.Wrap(err, "copying allotment")
		}
	}
	_, err = stmt.ExecContext(ctx) // flush
	return errors.Wrap(err, "flushing copy")
}

func (repo *allotmentRepository) QueryAllotments(ctx context.Context) ([]allocation.Allotment, error) {
	var rows []allotmentRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT run_id, subject_id, teacher_id, section_id, created_at
		FROM allotment
		ORDER BY subject_id, teacher_id NULLS FIRST, section_id`)
	if err != nil {
		return nil, errors.Wrap(err, "querying allotments")
	}

	allotments := make([]allocation.Allotment, 0, len(rows))
	for _, row := range rows {
		allotments = append(allotments, allocation.Allotment{
			RunID:     row.RunID,
			SubjectID: row.SubjectID,
			TeacherID: row.TeacherID,
			SectionID: row.SectionID,
			CreatedAt: row.CreatedAt,
		})
	}
	return allotments, nil
}
