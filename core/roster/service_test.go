package roster_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Heetpatel09/TimeWise-sub001/core"
	"github.com/Heetpatel09/TimeWise-sub001/core/roster"
	inmemdb "github.com/Heetpatel09/TimeWise-sub001/storage/database/inmem"
	testutil "github.com/Heetpatel09/TimeWise-sub001/tests"
)

func setup(t *testing.T) (roster.Repository, *roster.Service, *validator.Validate) {
	db, err := inmemdb.Open()
	require.NoError(t, err)
	repo := inmemdb.NewRosterRepository(db)

	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	return repo, roster.NewService(repo), validate
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	flds := make(map[string]string)
	switch e := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		for _, fe := range e {
			flds[fe.Field()] = fe.Tag()
		}
	case *core.ValidationError:
		for _, fe := range e.Fields {
			flds[fe.Field] = fe.Error
		}
	default:
		t.Fatalf("not a validation error: %v", err)
	}
	return flds
}

func TestNewSubject_Validate(t *testing.T) {
	ctx := context.Background()
	repo, svc, validate := setup(t)
	testutil.CreateSubject(t, repo, "Math")

	tests := []struct {
		name    string
		input   string
		wantErr map[string]string
	}{
		{"valid", "  Physics ", nil},
		{"valid with symbols", "Arts & Crafts (II)", nil},
		{"blank", "   ", map[string]string{"name": "required"}},
		{"invalid chars", "Math<script>", map[string]string{"name": "displayname"}},
		{"too long", strings.Repeat("a", 101), map[string]string{"name": "max"}},
		{"duplicate", "Math", map[string]string{"name": "a subject with this name already exists"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ns := roster.NewSubject{Name: tc.input}
			err := ns.Validate(ctx, validate, svc)
			if tc.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, core.CleanString(tc.input), ns.Name)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.wantErr, fieldErrors(t, err))
		})
	}
}

func TestNewSection_Validate_duplicate(t *testing.T) {
	repo, svc, validate := setup(t)
	testutil.CreateSection(t, repo, "Grade 10-A")
	// names are unique per kind only
	testutil.CreateSubject(t, repo, "Grade 10-B")

	ns := roster.NewSection{Name: "Grade 10-A"}
	err := ns.Validate(context.Background(), validate, svc)
	require.Error(t, err)
	assert.Equal(t, map[string]string{"name": "a section with this name already exists"}, fieldErrors(t, err))

	ns = roster.NewSection{Name: "Grade 10-B"}
	require.NoError(t, ns.Validate(context.Background(), validate, svc))
}

func TestNewTeacher_Validate(t *testing.T) {
	ctx := context.Background()
	repo, svc, validate := setup(t)
	math := testutil.CreateSubject(t, repo, "Math")
	testutil.CreateTeacher(t, repo, "Alice", "")

	tests := []struct {
		name      string
		input     roster.NewTeacher
		wantField string
	}{
		{"valid", roster.NewTeacher{Name: "Bob", Email: " Bob@Example.com ", QualifiedSubjects: []string{math.ID}}, ""},
		{"no subjects", roster.NewTeacher{Name: "Carol"}, ""},
		{"missing name", roster.NewTeacher{Email: "x@example.com"}, "name"},
		{"bad email", roster.NewTeacher{Name: "Dan", Email: "not-an-email"}, "email"},
		{"duplicate name", roster.NewTeacher{Name: "Alice"}, "name"},
		{"duplicate subject", roster.NewTeacher{Name: "Eve", QualifiedSubjects: []string{math.ID, math.ID}}, "qualified_subjects"},
		{"malformed subject", roster.NewTeacher{Name: "Eve", QualifiedSubjects: []string{"math"}}, "qualified_subjects[0]"},
		{"unknown subject", roster.NewTeacher{Name: "Eve", QualifiedSubjects: []string{"8a3c3c1e-5d0e-4d6b-9d5b-2f1b5f7c3a11"}}, "qualified_subjects"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			nt := tc.input
			err := nt.Validate(ctx, validate, svc)
			if tc.wantField == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, fieldErrors(t, err), tc.wantField)
		})
	}

	t.Run("email is lowered", func(t *testing.T) {
		nt := roster.NewTeacher{Name: "Frank", Email: " Frank@Example.COM"}
		require.NoError(t, nt.Validate(ctx, validate, svc))
		assert.Equal(t, "frank@example.com", nt.Email)
	})
}

func TestUpdateTeacher_Validate(t *testing.T) {
	ctx := context.Background()
	repo, svc, validate := setup(t)
	alice := testutil.CreateTeacher(t, repo, "Alice", "alice@example.com")
	testutil.CreateTeacher(t, repo, "Bob", "")

	t.Run("blank fields keep current values", func(t *testing.T) {
		upd := roster.UpdateTeacher{}
		require.NoError(t, upd.Validate(ctx, alice, validate, svc))
		assert.Equal(t, "Alice", upd.Name)
		assert.Equal(t, "alice@example.com", upd.Email)
		assert.Nil(t, upd.QualifiedSubjects)
	})

	t.Run("own name is not a duplicate", func(t *testing.T) {
		upd := roster.UpdateTeacher{Name: "Alice"}
		require.NoError(t, upd.Validate(ctx, alice, validate, svc))
	})

	t.Run("other teacher's name", func(t *testing.T) {
		upd := roster.UpdateTeacher{Name: "Bob"}
		err := upd.Validate(ctx, alice, validate, svc)
		require.Error(t, err)
		assert.Contains(t, fieldErrors(t, err), "name")
	})
}

func TestService_Subjects(t *testing.T) {
	ctx := context.Background()
	_, svc, _ := setup(t)

	chem, err := svc.CreateSubject(ctx, roster.NewSubject{Name: "Chem"})
	require.NoError(t, err)
	assert.NotEmpty(t, chem.ID)
	assert.False(t, chem.CreatedAt.IsZero())

	_, err = svc.CreateSubject(ctx, roster.NewSubject{Name: "Art"})
	require.NoError(t, err)

	subjects, err := svc.QuerySubjects(ctx, nil)
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "Art", subjects[0].Name)

	got, err := svc.GetSubject(ctx, chem.ID)
	require.NoError(t, err)
	assert.Equal(t, chem, got)

	cnt, err := svc.DeleteSubjects(ctx, chem.ID, "unknown")
	require.NoError(t, err)
	assert.Equal(t, 1, cnt)

	_, err = svc.GetSubject(ctx, chem.ID)
	assert.True(t, roster.IsNotFound(err))
}

func TestService_QuerySections_ordering(t *testing.T) {
	ctx := context.Background()
	repo, svc, _ := setup(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testutil.CreateSection(t, repo, "B", base)
	testutil.CreateSection(t, repo, "A", base.Add(time.Hour))
	testutil.CreateSection(t, repo, "C", base.Add(time.Hour))

	names := func(secs []roster.Section) []string {
		n := make([]string, 0, len(secs))
		for _, sec := range secs {
			n = append(n, sec.Name)
		}
		return n
	}

	tests := []struct {
		name     string
		ordering []core.DBOrdering
		want     []string
	}{
		{"default", nil, []string{"A", "B", "C"}},
		{"name desc", []core.DBOrdering{{Field: roster.FieldName}}, []string{"C", "B", "A"}},
		{"created_at desc then name", []core.DBOrdering{
			{Field: roster.FieldCreatedAt},
			{Field: roster.FieldName, Ascending: true},
		}, []string{"A", "C", "B"}},
		{"unknown field dropped", []core.DBOrdering{{Field: "id; DROP TABLE section"}}, []string{"A", "B", "C"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			secs, err := svc.QuerySections(ctx, tc.ordering)
			require.NoError(t, err)
			assert.Equal(t, tc.want, names(secs))
		})
	}
}

func TestService_Teachers(t *testing.T) {
	ctx := context.Background()
	repo, svc, _ := setup(t)
	math := testutil.CreateSubject(t, repo, "Math")
	chem := testutil.CreateSubject(t, repo, "Chem")

	tchr, err := svc.CreateTeacher(ctx, roster.NewTeacher{Name: "Alice"})
	require.NoError(t, err)
	assert.NotNil(t, tchr.QualifiedSubjects)
	assert.Empty(t, tchr.QualifiedSubjects)

	t.Run("update keeps qualifications when omitted", func(t *testing.T) {
		_, err := svc.UpdateTeacher(ctx, tchr.ID, roster.UpdateTeacher{Name: "Alice", QualifiedSubjects: []string{math.ID}})
		require.NoError(t, err)

		got, err := svc.UpdateTeacher(ctx, tchr.ID, roster.UpdateTeacher{Name: "Alice B.", Email: "alice@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "Alice B.", got.Name)
		assert.Equal(t, []string{math.ID}, got.QualifiedSubjects)
	})

	t.Run("update replaces qualifications", func(t *testing.T) {
		got, err := svc.UpdateTeacher(ctx, tchr.ID, roster.UpdateTeacher{Name: "Alice B.", QualifiedSubjects: []string{chem.ID}})
		require.NoError(t, err)
		assert.Equal(t, []string{chem.ID}, got.QualifiedSubjects)
	})

	t.Run("deleting a subject drops it from qualifications", func(t *testing.T) {
		_, err := svc.DeleteSubjects(ctx, chem.ID)
		require.NoError(t, err)

		got, err := svc.GetTeacher(ctx, tchr.ID)
		require.NoError(t, err)
		assert.Empty(t, got.QualifiedSubjects)
	})

	t.Run("unknown teacher", func(t *testing.T) {
		_, err := svc.UpdateTeacher(ctx, "unknown", roster.UpdateTeacher{Name: "X"})
		assert.True(t, roster.IsNotFound(err))
		assert.Equal(t, roster.ErrTeacherNotFound, errors.Cause(err))
	})

	t.Run("delete", func(t *testing.T) {
		cnt, err := svc.DeleteTeachers(ctx, tchr.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, cnt)

		teachers, err := svc.QueryTeachers(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, teachers)
	})
}

func TestTeacher_Clone(t *testing.T) {
	orig := roster.Teacher{ID: "1", Name: "Alice", QualifiedSubjects: []string{"a", "b"}}
	c := orig.Clone()
	c.QualifiedSubjects[0] = "z"
	assert.Equal(t, []string{"a", "b"}, orig.QualifiedSubjects)
	assert.True(t, orig.IsQualified("b"))
	assert.False(t, orig.IsQualified("z"))
}
