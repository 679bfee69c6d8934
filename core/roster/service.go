package roster

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Heetpatel09/TimeWise-sub001/core"
)

var (
	// errors
	ErrSubjectNotFound = errors.New("subject not found")
	ErrSectionNotFound = errors.New("section not found")
	ErrTeacherNotFound = errors.New("teacher not found")
	ErrNameExists      = errors.New("a record with this name already exists")
)

// IsNotFound reports whether err is one of the roster "not found" errors.
func IsNotFound(err error) bool {
	switch errors.Cause(err) {
	case ErrSubjectNotFound, ErrSectionNotFound, ErrTeacherNotFound:
		return true
	}
	return false
}

type (
	Repository interface {
		// CheckNameUniqueness returns ErrNameExists when another record of `kind`
		// (other than the excluded ones) is already named `name`.
		CheckNameUniqueness(ctx context.Context, kind Kind, name string, excludedIDs ...string) error

		CreateSubject(ctx context.Context, subj Subject) (Subject, error)
		QuerySubjects(ctx context.Context, ordering []core.DBOrdering) ([]Subject, error)
		GetSubject(ctx context.Context, id string) (Subject, error)
		// DeleteSubjectsByID also removes the subjects from every teacher's qualifications.
		DeleteSubjectsByID(ctx context.Context, ids ...string) (int, error)

		CreateSection(ctx context.Context, sec Section) (Section, error)
		QuerySections(ctx context.Context, ordering []core.DBOrdering) ([]Section, error)
		GetSection(ctx context.Context, id string) (Section, error)
		DeleteSectionsByID(ctx context.Context, ids ...string) (int, error)

		CreateTeacher(ctx context.Context, tchr Teacher) (Teacher, error)
		QueryTeachers(ctx context.Context, ordering []core.DBOrdering) ([]Teacher, error)
		GetTeacher(ctx context.Context, id string) (Teacher, error)
		UpdateTeacher(ctx context.Context, tchr Teacher) (Teacher, error)
		// AddQualifications unions subjectIDs into the stored qualifications of the teacher in one
		// atomic step, touching updatedAt only when the set grew. Qualifications are never removed.
		AddQualifications(ctx context.Context, teacherID string, subjectIDs []string, updatedAt time.Time) (bool, error)
		DeleteTeachersByID(ctx context.Context, ids ...string) (int, error)
	}

	Service struct {
		repo    Repository
		nowFunc func() time.Time
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo, nowFunc: time.Now}
}

func (svc *Service) now() time.Time {
	return svc.nowFunc().UTC()
}

func (svc *Service) CheckUniqueness(ctx context.Context, kind Kind, name string, excludedIDs ...string) error {
	if err := svc.repo.CheckNameUniqueness(ctx, kind, name, excludedIDs...); err != nil {
		if errors.Cause(err) == ErrNameExists {
			return core.NewValidationError(err, core.FieldError{
				Field: "name",
				Error: "a " + string(kind) + " with this name already exists",
			})
		}
		return errors.Wrap(err, "checking name uniqueness")
	}
	return nil
}

// CheckSubjectsExist returns a validation error on "qualified_subjects" if any ID is unknown.
func (svc *Service) CheckSubjectsExist(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, err := svc.repo.GetSubject(ctx, id); err != nil {
			if errors.Cause(err) == ErrSubjectNotFound {
				return core.NewValidationError(err, core.FieldError{
					Field: "qualified_subjects",
					Error: "unknown subject: " + id,
				})
			}
			return errors.Wrap(err, "finding subject")
		}
	}
	return nil
}

// Subjects

func (svc *Service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	now := svc.now()
	return svc.repo.CreateSubject(ctx, Subject{
		Name:      ns.Name,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) QuerySubjects(ctx context.Context, ordering []core.DBOrdering) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx, core.CleanOrderings(ordering, OrderingFields...))
}

func (svc *Service) GetSubject(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

func (svc *Service) DeleteSubjects(ctx context.Context, ids ...string) (int, error) {
	return svc.repo.DeleteSubjectsByID(ctx, ids...)
}

// Sections

func (svc *Service) CreateSection(ctx context.Context, ns NewSection) (Section, error) {
	now := svc.now()
	return svc.repo.CreateSection(ctx, Section{
		Name:      ns.Name,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) QuerySections(ctx context.Context, ordering []core.DBOrdering) ([]Section, error) {
	return svc.repo.QuerySections(ctx, core.CleanOrderings(ordering, OrderingFields...))
}

func (svc *Service) GetSection(ctx context.Context, id string) (Section, error) {
	return svc.repo.GetSection(ctx, id)
}

func (svc *Service) DeleteSections(ctx context.Context, ids ...string) (int, error) {
	return svc.repo.DeleteSectionsByID(ctx, ids...)
}

// Teachers

func (svc *Service) CreateTeacher(ctx context.Context, nt NewTeacher) (Teacher, error) {
	now := svc.now()
	quals := nt.QualifiedSubjects
	if quals == nil {
		quals = []string{}
	}
	return svc.repo.CreateTeacher(ctx, Teacher{
		Name:              nt.Name,
		Email:             nt.Email,
		QualifiedSubjects: quals,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
}

func (svc *Service) QueryTeachers(ctx context.Context, ordering []core.DBOrdering) ([]Teacher, error) {
	return svc.repo.QueryTeachers(ctx, core.CleanOrderings(ordering, OrderingFields...))
}

func (svc *Service) GetTeacher(ctx context.Context, id string) (Teacher, error) {
	return svc.repo.GetTeacher(ctx, id)
}

func (svc *Service) UpdateTeacher(ctx context.Context, id string, upd UpdateTeacher) (Teacher, error) {
	tchr, err := svc.repo.GetTeacher(ctx, id)
	if err != nil {
		return Teacher{}, err
	}
	tchr.Name = upd.Name
	tchr.Email = upd.Email
	if upd.QualifiedSubjects != nil {
		tchr.QualifiedSubjects = upd.QualifiedSubjects
	}
	tchr.UpdatedAt = svc.now()
	return svc.repo.UpdateTeacher(ctx, tchr)
}

func (svc *Service) DeleteTeachers(ctx context.Context, ids ...string) (int, error) {
	return svc.repo.DeleteTeachersByID(ctx, ids...)
}
