package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Heetpatel09/TimeWise-sub001/core"
	"github.com/Heetpatel09/TimeWise-sub001/core/roster"
)

type (
	subjectRow struct {
		ID        string    `db:"id"`
		Name      string    `db:"name"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	sectionRow subjectRow

	teacherRow struct {
		ID                string         `db:"id"`
		Name              string         `db:"name"`
		Email             null.String    `db:"email"`
		QualifiedSubjects pq.StringArray `db:"qualified_subjects"`
		CreatedAt         time.Time      `db:"created_at"`
		UpdatedAt         time.Time      `db:"updated_at"`
	}
)

const selectTeachers = `
SELECT t.id, t.name, t.email, t.created_at, t.updated_at,
       COALESCE(array_agg(ts.subject_id::text) FILTER (WHERE ts.subject_id IS NOT NULL), '{}') AS qualified_subjects
FROM teacher t
LEFT JOIN teacher_subject ts ON ts.teacher_id = t.id`

type rosterRepository struct {
	db *sqlx.DB
}

var _ roster.Repository = (*rosterRepository)(nil) // interface compliance check

func NewRosterRepository(db *sqlx.DB) roster.Repository {
	return &rosterRepository{db: db}
}

func unboilSubject(row subjectRow) roster.Subject {
	return roster.Subject{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}
}

func unboilSection(row sectionRow) roster.Section {
	return roster.Section{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}
}

func unboilTeacher(row teacherRow) roster.Teacher {
	quals := []string(row.QualifiedSubjects)
	if quals == nil {
		quals = []string{}
	}
	return roster.Teacher{
		ID:                row.ID,
		Name:              row.Name,
		Email:             row.Email.String,
		QualifiedSubjects: quals,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

// orderBy renders an ORDER BY clause; name ascending when no ordering is given.
// Orderings must have been cleaned with core.CleanOrderings.
func orderBy(ordering []core.DBOrdering, prefix string) string {
	if len(ordering) == 0 {
		ordering = roster.DefaultOrdering
	}
	orderList := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		orderList = append(orderList, prefix+ord.String())
	}
	orderList = append(orderList, prefix+"id ASC")
	return " ORDER BY " + strings.Join(orderList, ", ")
}

// validIDs drops ids that are not UUIDs; they cannot match any row.
func validIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	return valid
}

func kindTable(kind roster.Kind) (string, error) {
	switch kind {
	case roster.KindSubject:
		return "subject", nil
	case roster.KindSection:
		return "section", nil
	case roster.KindTeacher:
		return "teacher", nil
	}
	return "", errors.Errorf("unknown roster kind %q", kind)
}

func (repo *rosterRepository) CheckNameUniqueness(ctx context.Context, kind roster.Kind, name string, excludedIDs ...string) error {
	table, err := kindTable(kind)
	if err != nil {
		return err
	}
	q := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE name = $1 AND NOT (id = ANY($2::uuid[])))", table)

	var exists bool
	if err = repo.db.GetContext(ctx, &exists, q, name, pq.Array(validIDs(excludedIDs))); err != nil {
		return errors.Wrap(err, "checking name uniqueness")
	}
	if exists {
		return roster.ErrNameExists
	}
	return nil
}

func (repo *rosterRepository) deleteByID(ctx context.Context, table string, ids []string) (int, error) {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := repo.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1::uuid[])", table), pq.Array(ids))
	if err != nil {
		return 0, err
	}
	cnt, err := res.RowsAffected()
	return int(cnt), err
}

// Subjects

func (repo *rosterRepository) CreateSubject(ctx context.Context, subj roster.Subject) (roster.Subject, error) {
	subj.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO subject (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)",
		subj.ID, subj.Name, subj.CreatedAt.UTC(), subj.UpdatedAt.UTC())
	if err != nil {
		return roster.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return subj, nil
}

func (repo *rosterRepository) QuerySubjects(ctx context.Context, ordering []core.DBOrdering) ([]roster.Subject, error) {
	var rows []subjectRow
	q := "SELECT id, name, created_at, updated_at FROM subject" + orderBy(ordering, "")
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	subjects := make([]roster.Subject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, unboilSubject(row))
	}
	return subjects, nil
}

func (repo *rosterRepository) GetSubject(ctx context.Context, id string) (roster.Subject, error) {
	if _, err := uuid.Parse(id); err != nil {
		return roster.Subject{}, roster.ErrSubjectNotFound
	}
	var row subjectRow
	err := repo.db.GetContext(ctx, &row, "SELECT id, name, created_at, updated_at FROM subject WHERE id = $1", id)
	if err != nil {
		return roster.Subject{}, trapNoRowsErr(err, roster.ErrSubjectNotFound, "finding subject")
	}
	return unboilSubject(row), nil
}

// DeleteSubjectsByID relies on ON DELETE CASCADE to drop teacher qualifications.
func (repo *rosterRepository) DeleteSubjectsByID(ctx context.Context, ids ...string) (int, error) {
	cnt, err := repo.deleteByID(ctx, "subject", ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting subjects")
	}
	return cnt, nil
}

// Sections

func (repo *rosterRepository) CreateSection(ctx context.Context, sec roster.Section) (roster.Section, error) {
	sec.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO section (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)",
		sec.ID, sec.Name, sec.CreatedAt.UTC(), sec.UpdatedAt.UTC())
	if err != nil {
		return roster.Section{}, errors.Wrap(err, "inserting section")
	}
	return sec, nil
}

func (repo *rosterRepository) QuerySections(ctx context.Context, ordering []core.DBOrdering) ([]roster.Section, error) {
	var rows []sectionRow
	q := "SELECT id, name, created_at, updated_at FROM section" + orderBy(ordering, "")
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying sections")
	}
	sections := make([]roster.Section, 0, len(rows))
	for _, row := range rows {
		sections = append(sections, unboilSection(row))
	}
	return sections, nil
}

func (repo *rosterRepository) GetSection(ctx context.Context, id string) (roster.Section, error) {
	if _, err := uuid.Parse(id); err != nil {
		return roster.Section{}, roster.ErrSectionNotFound
	}
	var row sectionRow
	err := repo.db.GetContext(ctx, &row, "SELECT id, name, created_at, updated_at FROM section WHERE id = $1", id)
	if err != nil {
		return roster.Section{}, trapNoRowsErr(err, roster.ErrSectionNotFound, "finding section")
	}
	return unboilSection(row), nil
}

func (repo *rosterRepository) DeleteSectionsByID(ctx context.Context, ids ...string) (int, error) {
	cnt, err := repo.deleteByID(ctx, "section", ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting sections")
	}
	return cnt, nil
}

// Teachers

func setQualifications(ctx context.Context, tx *sqlx.Tx, teacherID string, subjectIDs []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM teacher_subject WHERE teacher_id = $1", teacherID); err != nil {
		return err
	}
	if len(subjectIDs) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		"INSERT INTO teacher_subject (teacher_id, subject_id) SELECT $1, UNNEST($2::uuid[])",
		teacherID, pq.Array(subjectIDs))
	return err
}

func getTeacher(ctx context.Context, q sqlx.QueryerContext, id string) (roster.Teacher, error) {
	var row teacherRow
	err := sqlx.GetContext(ctx, q, &row, selectTeachers+" WHERE t.id = $1 GROUP BY t.id", id)
	if err != nil {
		return roster.Teacher{}, trapNoRowsErr(err, roster.ErrTeacherNotFound, "finding teacher")
	}
	return unboilTeacher(row), nil
}

func (repo *rosterRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (repo *rosterRepository) CreateTeacher(ctx context.Context, tchr roster.Teacher) (roster.Teacher, error) {
	tchr.ID = uuid.New().String()
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO teacher (id, name, email, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)",
			tchr.ID, tchr.Name, null.NewString(tchr.Email, tchr.Email != ""), tchr.CreatedAt.UTC(), tchr.UpdatedAt.UTC())
		if err != nil {
			return errors.Wrap(err, "inserting teacher")
		}
		return errors.Wrap(setQualifications(ctx, tx, tchr.ID, tchr.QualifiedSubjects), "inserting qualifications")
	})
	if err != nil {
		return roster.Teacher{}, err
	}
	if tchr.QualifiedSubjects == nil {
		tchr.QualifiedSubjects = []string{}
	}
	return tchr, nil
}

func (repo *rosterRepository) QueryTeachers(ctx context.Context, ordering []core.DBOrdering) ([]roster.Teacher, error) {
	var rows []teacherRow
	q := selectTeachers + " GROUP BY t.id" + orderBy(ordering, "t.")
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	teachers := make([]roster.Teacher, 0, len(rows))
	for _, row := range rows {
		teachers = append(teachers, unboilTeacher(row))
	}
	return teachers, nil
}

func (repo *rosterRepository) GetTeacher(ctx context.Context, id string) (roster.Teacher, error) {
	if _, err := uuid.Parse(id); err != nil {
		return roster.Teacher{}, roster.ErrTeacherNotFound
	}
	return getTeacher(ctx, repo.db, id)
}

func (repo *rosterRepository) UpdateTeacher(ctx context.Context, tchr roster.Teacher) (roster.Teacher, error) {
	if _, err := uuid.Parse(tchr.ID); err != nil {
		return roster.Teacher{}, roster.ErrTeacherNotFound
	}

	var updated roster.Teacher
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE teacher SET name = $2, email = $3, updated_at = $4 WHERE id = $1",
			tchr.ID, tchr.Name, null.NewString(tchr.Email, tchr.Email != ""), tchr.UpdatedAt.UTC())
		if err != nil {
			return errors.Wrap(err, "updating teacher")
		}
		if cnt, err := res.RowsAffected(); err != nil {
			return errors.Wrap(err, "updating teacher")
		} else if cnt == 0 {
			return roster.ErrTeacherNotFound
		}

		if tchr.QualifiedSubjects != nil {
			if err = setQualifications(ctx, tx, tchr.ID, tchr.QualifiedSubjects); err != nil {
				return errors.Wrap(err, "updating qualifications")
			}
		}
		updated, err = getTeacher(ctx, tx, tchr.ID)
		return err
	})
	if err != nil {
		return roster.Teacher{}, err
	}
	return updated, nil
}

func (repo *rosterRepository) AddQualifications(ctx context.Context, teacherID string, subjectIDs []string, updatedAt time.Time) (bool, error) {
	var changed bool
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM teacher WHERE id = $1)", teacherID); err != nil {
			return errors.Wrap(err, "finding teacher")
		}
		if !exists {
			return roster.ErrTeacherNotFound
		}
		if len(subjectIDs) == 0 {
			return nil
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO teacher_subject (teacher_id, subject_id) SELECT $1, UNNEST($2::uuid[])
			ON CONFLICT DO NOTHING`,
			teacherID, pq.Array(subjectIDs))
		if err != nil {
			return errors.Wrap(err, "inserting qualifications")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "counting inserted qualifications")
		}
		if changed = n > 0; !changed {
			return nil
		}

		_, err = tx.ExecContext(ctx, "UPDATE teacher SET updated_at = $2 WHERE id = $1", teacherID, updatedAt.UTC())
		return errors.Wrap(err, "touching teacher")
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

func (repo *rosterRepository) DeleteTeachersByID(ctx context.Context, ids ...string) (int, error) {
	cnt, err := repo.deleteByID(ctx, "teacher", ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting teachers")
	}
	return cnt, nil
}

// trapNoRowsErr maps psql "no rows" err to notFound
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}
