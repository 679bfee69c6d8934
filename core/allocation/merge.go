package allocation

import (
	"sort"

	"github.com/Heetpatel09/TimeWise-sub001/core/roster"
)

// MergeQualifications folds an Allocation back into teacher qualifications.
//
// Subject and teacher names are resolved by exact match; the Unassigned bucket and unknown names
// are skipped. Every teacher holding at least one section of a subject gains that subject
// (set union: existing qualifications are kept). Only teachers whose set actually grew are
// returned, as copies; the inputs are left untouched.
func MergeQualifications(subjects []roster.Subject, teachers []roster.Teacher, alloc Allocation) []roster.Teacher {
	subjectIDs := make(map[string]string, len(subjects))
	for _, subj := range subjects {
		subjectIDs[subj.Name] = subj.ID
	}
	teacherIdx := make(map[string][]int, len(teachers))
	for i, tchr := range teachers {
		teacherIdx[tchr.Name] = append(teacherIdx[tchr.Name], i)
	}

	changed := make(map[int]roster.Teacher)
	order := make([]int, 0)

	for subjName, buckets := range alloc {
		subjID, ok := subjectIDs[subjName]
		if !ok {
			continue
		}
		for tchrName, sections := range buckets {
			if tchrName == Unassigned || len(sections) == 0 {
				continue
			}
			for _, idx := range teacherIdx[tchrName] {
				tchr, seen := changed[idx]
				if !seen {
					tchr = teachers[idx]
				}
				if tchr.IsQualified(subjID) {
					continue
				}
				if !seen {
					tchr = tchr.Clone()
					order = append(order, idx)
				}
				tchr.QualifiedSubjects = append(tchr.QualifiedSubjects, subjID)
				changed[idx] = tchr
			}
		}
	}

	if len(order) == 0 {
		return nil
	}
	sort.Ints(order)
	merged := make([]roster.Teacher, 0, len(order))
	for _, idx := range order {
		merged = append(merged, changed[idx])
	}
	return merged
}
