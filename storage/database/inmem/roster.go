package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

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

func (repo *rosterRepository) names(kind roster.Kind) map[string]string {
	names := make(map[string]string) // {id: name}
	switch kind {
	case roster.KindSubject:
		for id, subj := range repo.db.subjects {
			names[id] = subj.Name
		}
	case roster.KindSection:
		for id, sec := range repo.db.sections {
			names[id] = sec.Name
		}
	case roster.KindTeacher:
		for id, tchr := range repo.db.teachers {
			names[id] = tchr.Name
		}
	}
	return names
}

func (repo *rosterRepository) CheckNameUniqueness(_ context.Context, kind roster.Kind, name string, excludedIDs ...string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for id, n := range repo.names(kind) {
		if n == name && !isExcluded(id, excludedIDs) {
			return roster.ErrNameExists
		}
	}
	return nil
}

// Subjects

func (repo *rosterRepository) CreateSubject(_ context.Context, subj roster.Subject) (roster.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	subj.ID = uuid.New().String()
	repo.db.subjects[subj.ID] = &subj
	return subj, nil
}

func (repo *rosterRepository) QuerySubjects(_ context.Context, ordering []core.DBOrdering) ([]roster.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subjects := make([]roster.Subject, 0, len(repo.db.subjects))
	for _, subj := range repo.db.subjects {
		subjects = append(subjects, *subj)
	}
	roster.SortSubjects(subjects, ordering)
	return subjects, nil
}

func (repo *rosterRepository) GetSubject(_ context.Context, id string) (roster.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if subj, ok := repo.db.subjects[id]; ok {
		return *subj, nil
	}
	return roster.Subject{}, roster.ErrSubjectNotFound
}

func (repo *rosterRepository) DeleteSubjectsByID(_ context.Context, ids ...string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.subjects[id]; ok {
			delete(repo.db.subjects, id)
			cnt++
		}
	}
	for _, tchr := range repo.db.teachers {
		quals := make([]string, 0, len(tchr.QualifiedSubjects))
		for _, subjID := range tchr.QualifiedSubjects {
			if !isExcluded(subjID, ids) {
				quals = append(quals, subjID)
			}
		}
		tchr.QualifiedSubjects = quals
	}
	return cnt, nil
}

// Sections

func (repo *rosterRepository) CreateSection(_ context.Context, sec roster.Section) (roster.Section, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sec.ID = uuid.New().String()
	repo.db.sections[sec.ID] = &sec
	return sec, nil
}

func (repo *rosterRepository) QuerySections(_ context.Context, ordering []core.DBOrdering) ([]roster.Section, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sections := make([]roster.Section, 0, len(repo.db.sections))
	for _, sec := range repo.db.sections {
		sections = append(sections, *sec)
	}
	roster.SortSections(sections, ordering)
	return sections, nil
}

func (repo *rosterRepository) GetSection(_ context.Context, id string) (roster.Section, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sec, ok := repo.db.sections[id]; ok {
		return *sec, nil
	}
	return roster.Section{}, roster.ErrSectionNotFound
}

func (repo *rosterRepository) DeleteSectionsByID(_ context.Context, ids ...string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.sections[id]; ok {
			delete(repo.db.sections, id)
			cnt++
		}
	}
	return cnt, nil
}

// Teachers

func (repo *rosterRepository) CreateTeacher(_ context.Context, tchr roster.Teacher) (roster.Teacher, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	tchr = tchr.Clone()
	tchr.ID = uuid.New().String()
	repo.db.teachers[tchr.ID] = &tchr
	return tchr.Clone(), nil
}

func (repo *rosterRepository) QueryTeachers(_ context.Context, ordering []core.DBOrdering) ([]roster.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	teachers := make([]roster.Teacher, 0, len(repo.db.teachers))
	for _, tchr := range repo.db.teachers {
		teachers = append(teachers, tchr.Clone())
	}
	roster.SortTeachers(teachers, ordering)
	return teachers, nil
}

func (repo *rosterRepository) GetTeacher(_ context.Context, id string) (roster.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if tchr, ok := repo.db.teachers[id]; ok {
		return tchr.Clone(), nil
	}
	return roster.Teacher{}, roster.ErrTeacherNotFound
}

func (repo *rosterRepository) UpdateTeacher(_ context.Context, tchr roster.Teacher) (roster.Teacher, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	origTchr, ok := repo.db.teachers[tchr.ID]
	if !ok {
		return roster.Teacher{}, roster.ErrTeacherNotFound
	}
	origTchr.Name = tchr.Name
	origTchr.Email = tchr.Email
	if tchr.QualifiedSubjects != nil {
		origTchr.QualifiedSubjects = tchr.Clone().QualifiedSubjects
	}
	origTchr.UpdatedAt = tchr.UpdatedAt
	return origTchr.Clone(), nil
}

func (repo *rosterRepository) AddQualifications(_ context.Context, teacherID string, subjectIDs []string, updatedAt time.Time) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	tchr, ok := repo.db.teachers[teacherID]
	if !ok {
		return false, roster.ErrTeacherNotFound
	}
	if !tchr.AddQualifications(subjectIDs...) {
		return false, nil
	}
	tchr.UpdatedAt = updatedAt
	return true, nil
}

func (repo *rosterRepository) DeleteTeachersByID(_ context.Context, ids ...string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.teachers[id]; ok {
			delete(repo.db.teachers, id)
			cnt++
		}
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
