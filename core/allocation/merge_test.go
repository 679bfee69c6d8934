package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Heetpatel09/TimeWise-sub001/core/roster"
)

func TestMergeQualifications(t *testing.T) {
	math, physics, chem := subject("Math"), subject("Physics"), subject("Chem")
	subjects := []roster.Subject{math, physics, chem}

	tests := []struct {
		name     string
		teachers []roster.Teacher
		alloc    Allocation
		want     []roster.Teacher
	}{
		{
			name:     "gains subject",
			teachers: []roster.Teacher{teacher("T1", math), teacher("T2")},
			alloc:    Allocation{"Physics": {"T2": {"A"}}},
			want:     []roster.Teacher{teacher("T2", physics)},
		},
		{
			name:     "already qualified is unchanged",
			teachers: []roster.Teacher{teacher("T1", math)},
			alloc:    Allocation{"Math": {"T1": {"A", "B"}}},
			want:     nil,
		},
		{
			name:     "existing qualifications kept",
			teachers: []roster.Teacher{teacher("T1", math)},
			alloc:    Allocation{"Chem": {"T1": {"A"}}, "Physics": {"T1": {"B"}}},
			want:     []roster.Teacher{teacher("T1", math, chem, physics)},
		},
		{
			name:     "unassigned bucket skipped",
			teachers: []roster.Teacher{teacher("T1")},
			alloc:    Allocation{"Math": {Unassigned: {"A", "B"}}},
			want:     nil,
		},
		{
			name:     "empty bucket skipped",
			teachers: []roster.Teacher{teacher("T1")},
			alloc:    Allocation{"Math": {"T1": {}}},
			want:     nil,
		},
		{
			name:     "unknown names skipped",
			teachers: []roster.Teacher{teacher("T1")},
			alloc:    Allocation{"History": {"T1": {"A"}}, "Math": {"Nobody": {"A"}}},
			want:     nil,
		},
		{
			name:     "input order preserved",
			teachers: []roster.Teacher{teacher("T1"), teacher("T2"), teacher("T3")},
			alloc:    Allocation{"Math": {"T3": {"A"}, "T1": {"B"}}},
			want:     []roster.Teacher{teacher("T1", math), teacher("T3", math)},
		},
		{
			name:     "empty allocation",
			teachers: []roster.Teacher{teacher("T1")},
			alloc:    Allocation{},
			want:     nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := MergeQualifications(subjects, tc.teachers, tc.alloc)
			if tc.want == nil {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, len(tc.want))
			for i := range tc.want {
				assert.Equal(t, tc.want[i].ID, got[i].ID)
				assert.ElementsMatch(t, tc.want[i].QualifiedSubjects, got[i].QualifiedSubjects)
			}
		})
	}
}

func TestMergeQualifications_doesNotMutateInputs(t *testing.T) {
	math, physics := subject("Math"), subject("Physics")
	teachers := []roster.Teacher{teacher("T1", math), teacher("T2")}
	alloc := Allocation{"Physics": {"T1": {"A"}, "T2": {"B"}}}

	got := MergeQualifications([]roster.Subject{math, physics}, teachers, alloc)

	require.Len(t, got, 2)
	assert.Equal(t, []string{math.ID}, teachers[0].QualifiedSubjects)
	assert.Empty(t, teachers[1].QualifiedSubjects)
	assert.Equal(t, Allocation{"Physics": {"T1": {"A"}, "T2": {"B"}}}, alloc)

	// the returned copies do not alias the inputs
	got[0].QualifiedSubjects[0] = "changed"
	assert.Equal(t, math.ID, teachers[0].QualifiedSubjects[0])
}

func TestMergeQualifications_duplicateTeacherNames(t *testing.T) {
	math := subject("Math")
	twin1 := roster.Teacher{ID: "1", Name: "Twin"}
	twin2 := roster.Teacher{ID: "2", Name: "Twin", QualifiedSubjects: []string{math.ID}}

	got := MergeQualifications([]roster.Subject{math}, []roster.Teacher{twin1, twin2}, Allocation{"Math": {"Twin": {"A"}}})

	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, []string{math.ID}, got[0].QualifiedSubjects)
}

func TestMergeQualifications_roundTrip(t *testing.T) {
	math, chem := subject("Math"), subject("Chem")
	subjects := []roster.Subject{math, chem}
	teachers := []roster.Teacher{teacher("T1", math), teacher("T2", math, chem), teacher("T3")}

	// every teacher that receives sections from Allocate is already qualified
	alloc := Allocate(subjects, numberedSections(6), teachers)
	assert.Empty(t, MergeQualifications(subjects, teachers, alloc))
}
