package boltdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/Heetpatel09/TimeWise-sub001/core"
	"github.com/Heetpatel09/TimeWise-sub001/core/roster"
)

type rosterRepository struct {
	db *DB
}

var _ roster.Repository = (*rosterRepository)(nil) // interface compliance check

func NewRosterRepository(db *DB) roster.Repository {
	return &rosterRepository{db: db}
}

// named is the common shape of every roster record.
type named struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func kindBucket(kind roster.Kind) ([]byte, error) {
	switch kind {
	case roster.KindSubject:
		return bucketSubjects, nil
	case roster.KindSection:
		return bucketSections, nil
	case roster.KindTeacher:
		return bucketTeachers, nil
	}
	return nil, errors.Errorf("unknown roster kind %q", kind)
}

func (repo *rosterRepository) CheckNameUniqueness(_ context.Context, kind roster.Kind, name string, excludedIDs ...string) error {
	bucket, err := kindBucket(kind)
	if err != nil {
		return err
	}

	var exists bool
	err = repo.db.view(func(tx *bbolt.Tx) error {
		records, err := list[named](tx, bucket)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if rec.Name == name && !isExcluded(rec.ID, excludedIDs) {
				exists = true
				break
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "checking name uniqueness")
	}
	if exists {
		return roster.ErrNameExists
	}
	return nil
}

// Subjects

func (repo *rosterRepository) CreateSubject(_ context.Context, subj roster.Subject) (roster.Subject, error) {
	subj.ID = uuid.New().String()
	err := repo.db.update(func(tx *bbolt.Tx) error {
		return put(tx, bucketSubjects, subj.ID, subj)
	})
	if err != nil {
		return roster.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return subj, nil
}

func (repo *rosterRepository) QuerySubjects(_ context.Context, ordering []core.DBOrdering) ([]roster.Subject, error) {
	var subjects []roster.Subject
	err := repo.db.view(func(tx *bbolt.Tx) error {
		var err error
		subjects, err = list[roster.Subject](tx, bucketSubjects)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	roster.SortSubjects(subjects, ordering)
	return subjects, nil
}

func (repo *rosterRepository) GetSubject(_ context.Context, id string) (roster.Subject, error) {
	var subj *roster.Subject
	err := repo.db.view(func(tx *bbolt.Tx) error {
		var err error
		subj, err = get[roster.Subject](tx, bucketSubjects, id)
		return err
	})
	if err != nil {
		return roster.Subject{}, errors.Wrap(err, "finding subject")
	}
	if subj == nil {
		return roster.Subject{}, roster.ErrSubjectNotFound
	}
	return *subj, nil
}

func (repo *rosterRepository) DeleteSubjectsByID(_ context.Context, ids ...string) (int, error) {
	var cnt int
	err := repo.db.update(func(tx *bbolt.Tx) error {
		var err error
		if cnt, err = deleteKeys(tx, bucketSubjects, ids...); err != nil {
			return err
		}

		// drop the deleted subjects from every teacher's qualifications
		teachers, err := list[roster.Teacher](tx, bucketTeachers)
		if err != nil {
			return err
		}
		for _, tchr := range teachers {
			quals := make([]string, 0, len(tchr.QualifiedSubjects))
			for _, subjID := range tchr.QualifiedSubjects {
				if !isExcluded(subjID, ids) {
					quals = append(quals, subjID)
				}
			}
			if len(quals) == len(tchr.QualifiedSubjects) {
				continue
			}
			tchr.QualifiedSubjects = quals
			if err = put(tx, bucketTeachers, tchr.ID, tchr); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "deleting subjects")
	}
	return cnt, nil
}

// Sections

func (repo *rosterRepository) CreateSection(_ context.Context, sec roster.Section) (roster.Section, error) {
	sec.ID = uuid.New().String()
	err := repo.db.update(func(tx *bbolt.Tx) error {
		return put(tx, bucketSections, sec.ID, sec)
	})
	if err != nil {
		return roster.Section{}, errors.Wrap(err, "inserting section")
	}
	return sec, nil
}

func (repo *rosterRepository) QuerySections(_ context.Context, ordering []core.DBOrdering) ([]roster.Section, error) {
	var sections []roster.Section
	err := repo.db.view(func(tx *bbolt.Tx) error {
		var err error
		sections, err = list[roster.Section](tx, bucketSections)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying sections")
	}
	roster.SortSections(sections, ordering)
	return sections, nil
}

func (repo *rosterRepository) GetSection(_ context.Context, id string) (roster.Section, error) {
	var sec *roster.Section
	err := repo.db.view(func(tx *bbolt.Tx) error {
		var err error
		sec, err = get[roster.Section](tx, bucketSections, id)
		return err
	})
	if err != nil {
		return roster.Section{}, errors.Wrap(err, "finding section")
	}
	if sec == nil {
		return roster.Section{}, roster.ErrSectionNotFound
	}
	return *sec, nil
}

func (repo *rosterRepository) DeleteSectionsByID(_ context.Context, ids ...string) (int, error) {
	var cnt int
	err := repo.db.update(func(tx *bbolt.Tx) error {
		var err error
		cnt, err = deleteKeys(tx, bucketSections, ids...)
		return err
	})
	if err != nil {
		return 0, errors.Wrap(err, "deleting sections")
	}
	return cnt, nil
}

// Teachers

func (repo *rosterRepository) CreateTeacher(_ context.Context, tchr roster.Teacher) (roster.Teacher, error) {
	tchr.ID = uuid.New().String()
	if tchr.QualifiedSubjects == nil {
		tchr.QualifiedSubjects = []string{}
	}
	err := repo.db.update(func(tx *bbolt.Tx) error {
		return put(tx, bucketTeachers, tchr.ID, tchr)
	})
	if err != nil {
		return roster.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	return tchr, nil
}

func (repo *rosterRepository) QueryTeachers(_ context.Context, ordering []core.DBOrdering) ([]roster.Teacher, error) {
	var teachers []roster.Teacher
	err := repo.db.view(func(tx *bbolt.Tx) error {
		var err error
		teachers, err = list[roster.Teacher](tx, bucketTeachers)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	roster.SortTeachers(teachers, ordering)
	return teachers, nil
}

func (repo *rosterRepository) GetTeacher(_ context.Context, id string) (roster.Teacher, error) {
	var tchr *roster.Teacher
	err := repo.db.view(func(tx *bbolt.Tx) error {
		var err error
		tchr, err = get[roster.Teacher](tx, bucketTeachers, id)
		return err
	})
	if err != nil {
		return roster.Teacher{}, errors.Wrap(err, "finding teacher")
	}
	if tchr == nil {
		return roster.Teacher{}, roster.ErrTeacherNotFound
	}
	return *tchr, nil
}

func (repo *rosterRepository) UpdateTeacher(_ context.Context, tchr roster.Teacher) (roster.Teacher, error) {
	var updated roster.Teacher
	err := repo.db.update(func(tx *bbolt.Tx) error {
		origTchr, err := get[roster.Teacher](tx, bucketTeachers, tchr.ID)
		if err != nil {
			return err
		}
		if origTchr == nil {
			return roster.ErrTeacherNotFound
		}
		origTchr.Name = tchr.Name
		origTchr.Email = tchr.Email
		if tchr.QualifiedSubjects != nil {
			origTchr.QualifiedSubjects = tchr.QualifiedSubjects
		}
		origTchr.UpdatedAt = tchr.UpdatedAt
		updated = *origTchr
		return put(tx, bucketTeachers, origTchr.ID, origTchr)
	})
	if err != nil {
		if err == roster.ErrTeacherNotFound {
			return roster.Teacher{}, err
		}
		return roster.Teacher{}, errors.Wrap(err, "updating teacher")
	}
	return updated, nil
}

func (repo *rosterRepository) AddQualifications(_ context.Context, teacherID string, subjectIDs []string, updatedAt time.Time) (bool, error) {
	var changed bool
	err := repo.db.update(func(tx *bbolt.Tx) error {
		tchr, err := get[roster.Teacher](tx, bucketTeachers, teacherID)
		if err != nil {
			return err
		}
		if tchr == nil {
			return roster.ErrTeacherNotFound
		}
		if changed = tchr.AddQualifications(subjectIDs...); !changed {
			return nil
		}
		tchr.UpdatedAt = updatedAt
		return put(tx, bucketTeachers, tchr.ID, tchr)
	})
	if err != nil {
		if err == roster.ErrTeacherNotFound {
			return false, err
		}
		return false, errors.Wrap(err, "adding qualifications")
	}
	return changed, nil
}

func (repo *rosterRepository) DeleteTeachersByID(_ context.Context, ids ...string) (int, error) {
	var cnt int
	err := repo.db.update(func(tx *bbolt.Tx) error {
		var err error
		cnt, err = deleteKeys(tx, bucketTeachers, ids...)
		return err
	})
	if err != nil {
		return 0, errors.Wrap(err, "deleting teachers")
	}
	return cnt, nil
}

func isExcluded(id string, excludedIDs []string) bool {
	for _, exclID := range excludedIDs {
		if id == exclID {
			return true
		}
	}
	return false
}
