package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/Heetpatel09/TimeWise-sub001/core"
	"github.com/Heetpatel09/TimeWise-sub001/core/allocation"
	"github.com/Heetpatel09/TimeWise-sub001/core/roster"
)

// RosterRepositoryContract runs the behaviour every roster.Repository must share against a fresh store.
func RosterRepositoryContract(t *testing.T, newRepo func(t *testing.T) roster.Repository) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	t.Run("subjects", func(t *testing.T) {
		repo := newRepo(t)
		math := CreateSubject(t, repo, "Math", base)
		art := CreateSubject(t, repo, "Art", base.Add(time.Minute))
		require.NotEmpty(t, math.ID)

		got, err := repo.GetSubject(ctx, math.ID)
		require.NoError(t, err)
		assert.Equal(t, math.Name, got.Name)
		assert.True(t, math.CreatedAt.Equal(got.CreatedAt))

		subjects, err := repo.QuerySubjects(ctx, nil)
		require.NoError(t, err)
		require.Len(t, subjects, 2)
		assert.Equal(t, []string{"Art", "Math"}, []string{subjects[0].Name, subjects[1].Name})

		subjects, err = repo.QuerySubjects(ctx, []core.DBOrdering{{Field: roster.FieldCreatedAt}})
		require.NoError(t, err)
		assert.Equal(t, art.ID, subjects[0].ID)

		cnt, err := repo.DeleteSubjectsByID(ctx, math.ID, math.ID, "00000000-0000-4000-8000-000000000000")
		require.NoError(t, err)
		assert.Equal(t, 1, cnt)

		_, err = repo.GetSubject(ctx, math.ID)
		assert.Equal(t, roster.ErrSubjectNotFound, errors.Cause(err))
	})

	t.Run("sections", func(t *testing.T) {
		repo := newRepo(t)
		secs := Sections(t, repo, "Grade 9", 3)

		got, err := repo.QuerySections(ctx, []core.DBOrdering{{Field: roster.FieldName}})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "Grade 9-3", got[0].Name)

		cnt, err := repo.DeleteSectionsByID(ctx, secs[0].ID, secs[1].ID)
		require.NoError(t, err)
		assert.Equal(t, 2, cnt)

		_, err = repo.GetSection(ctx, secs[0].ID)
		assert.Equal(t, roster.ErrSectionNotFound, errors.Cause(err))
		_, err = repo.GetSection(ctx, secs[2].ID)
		assert.NoError(t, err)
	})

	t.Run("teachers", func(t *testing.T) {
		repo := newRepo(t)
		math := CreateSubject(t, repo, "Math")
		chem := CreateSubject(t, repo, "Chem")
		alice := CreateTeacher(t, repo, "Alice", "alice@example.com", math)
		bob := CreateTeacher(t, repo, "Bob", "")

		got, err := repo.GetTeacher(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", got.Email)
		assert.Equal(t, []string{math.ID}, got.QualifiedSubjects)

		got, err = repo.GetTeacher(ctx, bob.ID)
		require.NoError(t, err)
		assert.NotNil(t, got.QualifiedSubjects)
		assert.Empty(t, got.QualifiedSubjects)

		alice.QualifiedSubjects = []string{math.ID, chem.ID}
		alice.Email = ""
		updated, err := repo.UpdateTeacher(ctx, alice)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{math.ID, chem.ID}, updated.QualifiedSubjects)
		assert.Empty(t, updated.Email)

		_, err = repo.UpdateTeacher(ctx, roster.Teacher{ID: "00000000-0000-4000-8000-000000000000", Name: "Ghost"})
		assert.Equal(t, roster.ErrTeacherNotFound, errors.Cause(err))

		teachers, err := repo.QueryTeachers(ctx, nil)
		require.NoError(t, err)
		require.Len(t, teachers, 2)
		assert.Equal(t, "Alice", teachers[0].Name)

		// removing a subject removes it from qualifications
		_, err = repo.DeleteSubjectsByID(ctx, math.ID)
		require.NoError(t, err)
		got, err = repo.GetTeacher(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{chem.ID}, got.QualifiedSubjects)

		cnt, err := repo.DeleteTeachersByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, cnt)
		_, err = repo.GetTeacher(ctx, bob.ID)
		assert.True(t, roster.IsNotFound(err))
	})

	t.Run("qualification union", func(t *testing.T) {
		repo := newRepo(t)
		math := CreateSubject(t, repo, "Math")
		chem := CreateSubject(t, repo, "Chem")
		alice := CreateTeacher(t, repo, "Alice", "", math)
		later := alice.UpdatedAt.Add(time.Hour)

		changed, err := repo.AddQualifications(ctx, alice.ID, []string{math.ID, chem.ID}, later)
		require.NoError(t, err)
		assert.True(t, changed)

		got, err := repo.GetTeacher(ctx, alice.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{math.ID, chem.ID}, got.QualifiedSubjects)
		assert.True(t, later.Equal(got.UpdatedAt))

		changed, err = repo.AddQualifications(ctx, alice.ID, []string{chem.ID}, later.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, changed)
		got, err = repo.GetTeacher(ctx, alice.ID)
		require.NoError(t, err)
		assert.Len(t, got.QualifiedSubjects, 2)
		assert.True(t, later.Equal(got.UpdatedAt), "unchanged sets keep their timestamp")

		_, err = repo.AddQualifications(ctx, "00000000-0000-4000-8000-000000000000", []string{math.ID}, later)
		assert.Equal(t, roster.ErrTeacherNotFound, errors.Cause(err))
	})

	t.Run("name uniqueness", func(t *testing.T) {
		repo := newRepo(t)
		math := CreateSubject(t, repo, "Math")
		CreateSection(t, repo, "A")

		assert.Equal(t, roster.ErrNameExists, errors.Cause(repo.CheckNameUniqueness(ctx, roster.KindSubject, "Math")))
		assert.NoError(t, repo.CheckNameUniqueness(ctx, roster.KindSubject, "Math", math.ID))
		assert.NoError(t, repo.CheckNameUniqueness(ctx, roster.KindSubject, "math"))
		assert.NoError(t, repo.CheckNameUniqueness(ctx, roster.KindTeacher, "Math"))
		assert.Equal(t, roster.ErrNameExists, errors.Cause(repo.CheckNameUniqueness(ctx, roster.KindSection, "A")))
	})
}

// AllotmentRepositoryContract runs the behaviour every allocation.Repository must share against a fresh store.
func AllotmentRepositoryContract(t *testing.T, newRepo func(t *testing.T) allocation.Repository) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	repo := newRepo(t)
	got, err := repo.QueryAllotments(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	first := []allocation.Allotment{
		{RunID: "run-1", SubjectID: "s1", TeacherID: null.StringFrom("t1"), SectionID: "a", CreatedAt: now},
		{RunID: "run-1", SubjectID: "s2", SectionID: "a", CreatedAt: now},
	}
	require.NoError(t, repo.ReplaceAllotments(ctx, first))

	got, err = repo.QueryAllotments(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t1", got[0].TeacherID.String)
	assert.False(t, got[1].TeacherID.Valid, "unassigned rows keep a null teacher")
	assert.True(t, now.Equal(got[0].CreatedAt))

	second := []allocation.Allotment{
		{RunID: "run-2", SubjectID: "s1", TeacherID: null.StringFrom("t2"), SectionID: "b", CreatedAt: now},
	}
	require.NoError(t, repo.ReplaceAllotments(ctx, second))

	got, err = repo.QueryAllotments(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "run-2", got[0].RunID)

	require.NoError(t, repo.ReplaceAllotments(ctx, nil))
	got, err = repo.QueryAllotments(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
