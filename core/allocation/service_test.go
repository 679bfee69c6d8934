package allocation_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Heetpatel09/TimeWise-sub001/core"
	"github.com/Heetpatel09/TimeWise-sub001/core/allocation"
	"github.com/Heetpatel09/TimeWise-sub001/core/roster"
	inmemdb "github.com/Heetpatel09/TimeWise-sub001/storage/database/inmem"
	testutil "github.com/Heetpatel09/TimeWise-sub001/tests"
)

type recordingMetrics struct {
	runs, saves     int
	lastSubjects    int
	lastUnassigned  int
	updatedTeachers int
}

func (m *recordingMetrics) ObserveRun(subjects, unassigned int, _ time.Duration) {
	m.runs++
	m.lastSubjects, m.lastUnassigned = subjects, unassigned
}

func (m *recordingMetrics) IncSaved(updatedTeachers int) {
	m.saves++
	m.updatedTeachers += updatedTeachers
}

type failingAllotmentRepo struct{}

func (failingAllotmentRepo) ReplaceAllotments(context.Context, []allocation.Allotment) error {
	return errors.New("disk full")
}

func (failingAllotmentRepo) QueryAllotments(context.Context) ([]allocation.Allotment, error) {
	return nil, errors.New("disk full")
}

type fixture struct {
	rosterRepo roster.Repository
	svc        *allocation.Service
	logger     *testutil.Logger
	metrics    *recordingMetrics
}

func newFixture(t *testing.T) fixture {
	db, err := inmemdb.Open()
	require.NoError(t, err)

	f := fixture{
		rosterRepo: inmemdb.NewRosterRepository(db),
		logger:     testutil.NewLogger(t),
		metrics:    &recordingMetrics{},
	}
	f.svc = allocation.NewService(
		f.rosterRepo,
		inmemdb.NewAllotmentRepository(db),
		allocation.NewAllocator(rand.NewSource(1)),
		f.logger,
		f.metrics,
	)
	return f
}

func TestService_Generate(t *testing.T) {
	f := newFixture(t)
	math := testutil.CreateSubject(t, f.rosterRepo, "Math")
	testutil.CreateSubject(t, f.rosterRepo, "Physics")
	testutil.Sections(t, f.rosterRepo, "Grade 10", 5)
	testutil.CreateTeacher(t, f.rosterRepo, "Alice", "", math)
	testutil.CreateTeacher(t, f.rosterRepo, "Bob", "", math)

	run, err := f.svc.Generate(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())
	assert.Equal(t, []string{"Physics"}, run.Unassigned)
	require.Len(t, run.Allocation, 2)
	assert.Len(t, run.Allocation["Physics"][allocation.Unassigned], 5)

	mathBuckets := run.Allocation["Math"]
	require.Len(t, mathBuckets, 2)
	assert.Equal(t, 5, len(mathBuckets["Alice"])+len(mathBuckets["Bob"]))
	assert.InDelta(t, len(mathBuckets["Alice"]), len(mathBuckets["Bob"]), 1)

	warnings := f.logger.Entries("WARN")
	require.Len(t, warnings, 1)
	assert.Equal(t, "no eligible teacher for subject", warnings[0].Msg)
	assert.Equal(t, []interface{}{core.Fields{"subject": "Physics"}}, warnings[0].Args)

	assert.Equal(t, 1, f.metrics.runs)
	assert.Equal(t, 2, f.metrics.lastSubjects)
	assert.Equal(t, 1, f.metrics.lastUnassigned)
}

func TestService_Generate_emptyRoster(t *testing.T) {
	f := newFixture(t)

	run, err := f.svc.Generate(context.Background())
	require.NoError(t, err)

	assert.Empty(t, run.Allocation)
	assert.NotNil(t, run.Unassigned)
	assert.Empty(t, run.Unassigned)
}

func TestService_Generate_doesNotPersist(t *testing.T) {
	f := newFixture(t)
	math := testutil.CreateSubject(t, f.rosterRepo, "Math")
	testutil.Sections(t, f.rosterRepo, "S", 3)
	testutil.CreateTeacher(t, f.rosterRepo, "Alice", "", math)

	_, err := f.svc.Generate(context.Background())
	require.NoError(t, err)

	_, err = f.svc.Latest(context.Background())
	assert.Equal(t, allocation.ErrNoAllotments, errors.Cause(err))
}

func TestService_Save(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	math := testutil.CreateSubject(t, f.rosterRepo, "Math")
	chem := testutil.CreateSubject(t, f.rosterRepo, "Chem")
	testutil.CreateSubject(t, f.rosterRepo, "Art")
	testutil.Sections(t, f.rosterRepo, "S", 4)
	alice := testutil.CreateTeacher(t, f.rosterRepo, "Alice", "alice@example.com", math)
	bob := testutil.CreateTeacher(t, f.rosterRepo, "Bob", "")

	alloc := allocation.Allocation{
		"Math": {"Alice": {"S-1", "S-2"}, "Bob": {"S-3", "S-4"}},
		"Chem": {"Alice": {"S-1", "S-2", "S-3", "S-4"}},
		"Art":  {allocation.Unassigned: {"S-1", "S-2", "S-3", "S-4"}},
	}

	res, err := f.svc.Save(ctx, alloc)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 2, res.UpdatedTeachers)
	assert.Equal(t, 12, res.Allotments)

	gotAlice, err := f.rosterRepo.GetTeacher(ctx, alice.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{math.ID, chem.ID}, gotAlice.QualifiedSubjects)
	assert.Equal(t, "alice@example.com", gotAlice.Email)

	gotBob, err := f.rosterRepo.GetTeacher(ctx, bob.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{math.ID}, gotBob.QualifiedSubjects)

	assert.Equal(t, 1, f.metrics.saves)
	assert.Equal(t, 2, f.metrics.updatedTeachers)
	assert.Len(t, f.logger.Entries("INFO"), 1)

	latest, err := f.svc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.RunID, latest.ID)
	assert.Equal(t, alloc, latest.Allocation)
	assert.Equal(t, []string{"Art"}, latest.Unassigned)
}

func TestService_Save_unchangedTeachersSkipped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	math := testutil.CreateSubject(t, f.rosterRepo, "Math")
	testutil.Sections(t, f.rosterRepo, "S", 3)
	alice := testutil.CreateTeacher(t, f.rosterRepo, "Alice", "", math)

	run, err := f.svc.Generate(ctx)
	require.NoError(t, err)

	res, err := f.svc.Save(ctx, run.Allocation)
	require.NoError(t, err)
	assert.Zero(t, res.UpdatedTeachers)
	assert.Equal(t, 3, res.Allotments)

	got, err := f.rosterRepo.GetTeacher(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.UpdatedAt, got.UpdatedAt)
}

func TestService_Save_replacesSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	math := testutil.CreateSubject(t, f.rosterRepo, "Math")
	testutil.Sections(t, f.rosterRepo, "S", 2)
	testutil.CreateTeacher(t, f.rosterRepo, "Alice", "", math)
	testutil.CreateTeacher(t, f.rosterRepo, "Bob", "", math)

	_, err := f.svc.Save(ctx, allocation.Allocation{"Math": {"Alice": {"S-1", "S-2"}}})
	require.NoError(t, err)
	second, err := f.svc.Save(ctx, allocation.Allocation{"Math": {"Bob": {"S-1", "S-2"}}})
	require.NoError(t, err)

	latest, err := f.svc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.RunID, latest.ID)
	assert.Equal(t, allocation.Allocation{"Math": {"Bob": {"S-1", "S-2"}}}, latest.Allocation)
}

func TestService_Save_validation(t *testing.T) {
	f := newFixture(t)
	testutil.CreateSubject(t, f.rosterRepo, "Math")
	testutil.Sections(t, f.rosterRepo, "S", 2)
	testutil.CreateTeacher(t, f.rosterRepo, "Alice", "")

	tests := []struct {
		name   string
		alloc  allocation.Allocation
		fields []core.FieldError
	}{
		{
			name:   "unknown subject",
			alloc:  allocation.Allocation{"History": {"Alice": {"S-1"}}},
			fields: []core.FieldError{{Field: "History", Error: "unknown subject"}},
		},
		{
			name:   "unknown teacher",
			alloc:  allocation.Allocation{"Math": {"Nobody": {"S-1"}}},
			fields: []core.FieldError{{Field: "Math.Nobody", Error: "unknown teacher"}},
		},
		{
			name:   "unknown section",
			alloc:  allocation.Allocation{"Math": {"Alice": {"S-9"}}},
			fields: []core.FieldError{{Field: "Math.Alice.S-9", Error: "unknown section"}},
		},
		{
			name:  "section assigned twice",
			alloc: allocation.Allocation{"Math": {"Alice": {"S-1"}, allocation.Unassigned: {"S-1"}}},
			fields: []core.FieldError{
				{Field: "Math." + allocation.Unassigned + ".S-1", Error: "section assigned more than once"},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Save(context.Background(), tc.alloc)
			require.Error(t, err)

			var vErr *core.ValidationError
			require.True(t, errors.As(err, &vErr), "want ValidationError, got %v", err)
			assert.Equal(t, tc.fields, vErr.Fields)
		})
	}

	_, err := f.svc.Latest(context.Background())
	assert.Equal(t, allocation.ErrNoAllotments, errors.Cause(err), "failed saves persist nothing")
}

func TestService_Save_repositoryError(t *testing.T) {
	db, err := inmemdb.Open()
	require.NoError(t, err)
	rosterRepo := inmemdb.NewRosterRepository(db)
	svc := allocation.NewService(rosterRepo, failingAllotmentRepo{}, nil, testutil.NewLogger(t), nil)

	_, err = svc.Save(context.Background(), allocation.Allocation{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	_, err = svc.Latest(context.Background())
	require.Error(t, err)
	assert.NotEqual(t, allocation.ErrNoAllotments, errors.Cause(err))
}

func TestService_Latest_dropsDeletedRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	math := testutil.CreateSubject(t, f.rosterRepo, "Math")
	chem := testutil.CreateSubject(t, f.rosterRepo, "Chem")
	secs := testutil.Sections(t, f.rosterRepo, "S", 3)
	testutil.CreateTeacher(t, f.rosterRepo, "Alice", "", math, chem)
	bob := testutil.CreateTeacher(t, f.rosterRepo, "Bob", "", math)

	_, err := f.svc.Save(ctx, allocation.Allocation{
		"Math": {"Alice": {"S-1"}, "Bob": {"S-2", "S-3"}},
		"Chem": {"Alice": {"S-1", "S-2", "S-3"}},
	})
	require.NoError(t, err)

	_, err = f.rosterRepo.DeleteSubjectsByID(ctx, chem.ID)
	require.NoError(t, err)
	_, err = f.rosterRepo.DeleteTeachersByID(ctx, bob.ID)
	require.NoError(t, err)
	_, err = f.rosterRepo.DeleteSectionsByID(ctx, secs[2].ID)
	require.NoError(t, err)

	latest, err := f.svc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, allocation.Allocation{"Math": {"Alice": {"S-1"}}}, latest.Allocation)
	assert.Empty(t, latest.Unassigned)
}

func TestService_Latest_sortsSections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	math := testutil.CreateSubject(t, f.rosterRepo, "Math")
	testutil.Sections(t, f.rosterRepo, "S", 3)
	testutil.CreateTeacher(t, f.rosterRepo, "Alice", "", math)

	_, err := f.svc.Save(ctx, allocation.Allocation{"Math": {"Alice": {"S-3", "S-1", "S-2"}}})
	require.NoError(t, err)

	latest, err := f.svc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"S-1", "S-2", "S-3"}, latest.Allocation["Math"]["Alice"])
}

// racingRosterRepo replaces the qualifications of one teacher right after the roster was read,
// the way a concurrent teacher update would.
type racingRosterRepo struct {
	roster.Repository
	teacherID string
	quals     []string
	raced     bool
}

func (repo *racingRosterRepo) QueryTeachers(ctx context.Context, ordering []core.DBOrdering) ([]roster.Teacher, error) {
	teachers, err := repo.Repository.QueryTeachers(ctx, ordering)
	if err != nil || repo.raced {
		return teachers, err
	}
	repo.raced = true

	tchr, err := repo.Repository.GetTeacher(ctx, repo.teacherID)
	if err != nil {
		return nil, err
	}
	tchr.QualifiedSubjects = repo.quals
	if _, err = repo.Repository.UpdateTeacher(ctx, tchr); err != nil {
		return nil, err
	}
	return teachers, nil
}

func TestService_Save_keepsConcurrentQualifications(t *testing.T) {
	ctx := context.Background()
	db, err := inmemdb.Open()
	require.NoError(t, err)
	inner := inmemdb.NewRosterRepository(db)

	math := testutil.CreateSubject(t, inner, "Math")
	art := testutil.CreateSubject(t, inner, "Art")
	testutil.Sections(t, inner, "S", 1)
	tchr := testutil.CreateTeacher(t, inner, "T1", "")

	rosterRepo := &racingRosterRepo{Repository: inner, teacherID: tchr.ID, quals: []string{art.ID}}
	svc := allocation.NewService(rosterRepo, inmemdb.NewAllotmentRepository(db), nil, testutil.NewLogger(t), nil)

	res, err := svc.Save(ctx, allocation.Allocation{"Math": {"T1": {"S-1"}}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.UpdatedTeachers)
	require.True(t, rosterRepo.raced)

	got, err := inner.GetTeacher(ctx, tchr.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{art.ID, math.ID}, got.QualifiedSubjects)
}

func TestService_Save_concurrentlyAddedSameSubject(t *testing.T) {
	ctx := context.Background()
	db, err := inmemdb.Open()
	require.NoError(t, err)
	inner := inmemdb.NewRosterRepository(db)

	math := testutil.CreateSubject(t, inner, "Math")
	testutil.Sections(t, inner, "S", 1)
	tchr := testutil.CreateTeacher(t, inner, "T1", "")

	rosterRepo := &racingRosterRepo{Repository: inner, teacherID: tchr.ID, quals: []string{math.ID}}
	svc := allocation.NewService(rosterRepo, inmemdb.NewAllotmentRepository(db), nil, testutil.NewLogger(t), nil)

	res, err := svc.Save(ctx, allocation.Allocation{"Math": {"T1": {"S-1"}}})
	require.NoError(t, err)
	assert.Zero(t, res.UpdatedTeachers, "the store already held the subject")

	got, err := inner.GetTeacher(ctx, tchr.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{math.ID}, got.QualifiedSubjects)
}

func TestService_Save_allotmentFailureKeepsMergedQualifications(t *testing.T) {
	ctx := context.Background()
	db, err := inmemdb.Open()
	require.NoError(t, err)
	rosterRepo := inmemdb.NewRosterRepository(db)
	math := testutil.CreateSubject(t, rosterRepo, "Math")
	testutil.Sections(t, rosterRepo, "S", 1)
	tchr := testutil.CreateTeacher(t, rosterRepo, "T1", "")

	failing := allocation.NewService(rosterRepo, failingAllotmentRepo{}, nil, testutil.NewLogger(t), nil)
	_, err = failing.Save(ctx, allocation.Allocation{"Math": {"T1": {"S-1"}}})
	require.Error(t, err)

	got, err := rosterRepo.GetTeacher(ctx, tchr.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{math.ID}, got.QualifiedSubjects)

	// retrying against a working store adds nothing twice
	svc := allocation.NewService(rosterRepo, inmemdb.NewAllotmentRepository(db), nil, testutil.NewLogger(t), nil)
	res, err := svc.Save(ctx, allocation.Allocation{"Math": {"T1": {"S-1"}}})
	require.NoError(t, err)
	assert.Zero(t, res.UpdatedTeachers)
	assert.Equal(t, 1, res.Allotments)
}

func TestService_Latest_everyRecordDeleted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	math := testutil.CreateSubject(t, f.rosterRepo, "Math")
	testutil.Sections(t, f.rosterRepo, "S", 2)
	testutil.CreateTeacher(t, f.rosterRepo, "Alice", "", math)

	_, err := f.svc.Save(ctx, allocation.Allocation{"Math": {"Alice": {"S-1", "S-2"}}})
	require.NoError(t, err)
	_, err = f.rosterRepo.DeleteSubjectsByID(ctx, math.ID)
	require.NoError(t, err)

	_, err = f.svc.Latest(ctx)
	assert.Equal(t, allocation.ErrNoAllotments, errors.Cause(err))
}
