package roster

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Heetpatel09/TimeWise-sub001/core"
)

// Kind identifies a roster record type.
type Kind string

const (
	KindSubject Kind = "subject"
	KindSection Kind = "section"
	KindTeacher Kind = "teacher"
)

// Orderable fields
const (
	FieldName      = "name"
	FieldCreatedAt = "created_at"
)

var (
	OrderingFields  = []string{FieldName, FieldCreatedAt}
	DefaultOrdering = []core.DBOrdering{{Field: FieldName, Ascending: true}}
)

// Subject is a course taught to every section.
type Subject struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Section is a group of students taught as a unit; the unit of allocation.
type Section struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Teacher is a staff member qualified for zero or more subjects.
type Teacher struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	QualifiedSubjects []string  `json:"qualified_subjects"` // Subject IDs; unordered, unique
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsQualified reports whether the teacher may teach the subject with the given ID.
func (t Teacher) IsQualified(subjectID string) bool {
	for _, id := range t.QualifiedSubjects {
		if id == subjectID {
			return true
		}
	}
	return false
}

// AddQualifications adds the subject IDs t is not qualified for yet and reports whether any was added.
func (t *Teacher) AddQualifications(subjectIDs ...string) bool {
	var added bool
	for _, id := range subjectIDs {
		if !t.IsQualified(id) {
			t.QualifiedSubjects = append(t.QualifiedSubjects, id)
			added = true
		}
	}
	return added
}

// Clone returns a copy of t that shares no memory with it.
func (t Teacher) Clone() Teacher {
	c := t
	if t.QualifiedSubjects != nil {
		c.QualifiedSubjects = append(make([]string, 0, len(t.QualifiedSubjects)), t.QualifiedSubjects...)
	}
	return c
}

// NewSubject contains information needed to create a new Subject.
type NewSubject struct {
	Name string `json:"name" validate:"required,max=100,displayname"`
}

func (ns *NewSubject) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	ns.Name = core.CleanString(ns.Name)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, KindSubject, ns.Name)
}

// NewSection contains information needed to create a new Section.
type NewSection struct {
	Name string `json:"name" validate:"required,max=100,displayname"`
}

func (ns *NewSection) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	ns.Name = core.CleanString(ns.Name)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, KindSection, ns.Name)
}

// NewTeacher contains information needed to create a new Teacher.
type NewTeacher struct {
	Name              string   `json:"name" validate:"required,max=100,displayname"`
	Email             string   `json:"email" validate:"omitempty,email"`
	QualifiedSubjects []string `json:"qualified_subjects" validate:"omitempty,unique,dive,uuid4"`
}

func (nt *NewTeacher) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)

	if err := validate.Struct(nt); err != nil {
		return err
	}
	if err := svc.CheckUniqueness(ctx, KindTeacher, nt.Name); err != nil {
		return err
	}
	return svc.CheckSubjectsExist(ctx, nt.QualifiedSubjects)
}

// UpdateTeacher defines what information may be provided to modify an existing Teacher.
// Empty fields keep their current value; a non-nil QualifiedSubjects replaces the whole set.
type UpdateTeacher struct {
	Name              string   `json:"name" validate:"omitempty,max=100,displayname"`
	Email             string   `json:"email" validate:"omitempty,email"`
	QualifiedSubjects []string `json:"qualified_subjects" validate:"omitempty,unique,dive,uuid4"`
}

func (upd *UpdateTeacher) Validate(ctx context.Context, origTeacher Teacher, validate *validator.Validate, svc *Service) error {
	if name := core.CleanString(upd.Name); name != "" {
		upd.Name = name
	} else {
		upd.Name = origTeacher.Name
	}

	if email := core.CleanString(upd.Email, true /* lower */); email != "" {
		upd.Email = email
	} else {
		upd.Email = origTeacher.Email
	}

	if err := validate.Struct(upd); err != nil {
		return err
	}
	if err := svc.CheckUniqueness(ctx, KindTeacher, upd.Name, origTeacher.ID); err != nil {
		return err
	}
	return svc.CheckSubjectsExist(ctx, upd.QualifiedSubjects)
}

type sortKey struct {
	id        string
	name      string
	createdAt time.Time
}

func lessFunc(ordering []core.DBOrdering, key func(i int) sortKey) func(i, j int) bool {
	if len(ordering) == 0 {
		ordering = DefaultOrdering
	}
	return func(i, j int) bool {
		ki, kj := key(i), key(j)
		for _, ord := range ordering {
			var c int
			switch ord.Field {
			case FieldName:
				c = strings.Compare(ki.name, kj.name)
			case FieldCreatedAt:
				c = ki.createdAt.Compare(kj.createdAt)
			}
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return ki.id < kj.id
	}
}

// SortSubjects sorts subjects in place; name ascending when no ordering is given.
func SortSubjects(subjects []Subject, ordering []core.DBOrdering) {
	sort.SliceStable(subjects, lessFunc(ordering, func(i int) sortKey {
		return sortKey{subjects[i].ID, subjects[i].Name, subjects[i].CreatedAt}
	}))
}

// SortSections sorts sections in place; name ascending when no ordering is given.
func SortSections(sections []Section, ordering []core.DBOrdering) {
	sort.SliceStable(sections, lessFunc(ordering, func(i int) sortKey {
		return sortKey{sections[i].ID, sections[i].Name, sections[i].CreatedAt}
	}))
}

// SortTeachers sorts teachers in place; name ascending when no ordering is given.
func SortTeachers(teachers []Teacher, ordering []core.DBOrdering) {
	sort.SliceStable(teachers, lessFunc(ordering, func(i int) sortKey {
		return sortKey{teachers[i].ID, teachers[i].Name, teachers[i].CreatedAt}
	}))
}
