package allocation

import (
	"math/rand"
	"sync"

	"github.com/Heetpatel09/TimeWise-sub001/core/roster"
)

// Unassigned is the bucket holding every section of a subject no teacher is qualified for.
const Unassigned = "No Teacher Assigned"

// Allocation maps a subject name to its buckets: teacher name (or Unassigned) -> section names.
// Bucket lists are never nil.
type Allocation map[string]map[string][]string

// Allocator partitions sections across the qualified teachers of every subject.
// The zero value is not usable; see NewAllocator.
type Allocator struct {
	mu  sync.Mutex
	rnd *rand.Rand // nil: global source
}

// NewAllocator returns an Allocator shuffling with src, or with the global
// random source when src is nil. It is safe for concurrent use.
func NewAllocator(src rand.Source) *Allocator {
	a := &Allocator{}
	if src != nil {
		a.rnd = rand.New(src)
	}
	return a
}

var defaultAllocator = NewAllocator(nil)

// Allocate is a shorthand for an unseeded Allocator's Allocate.
func Allocate(subjects []roster.Subject, sections []roster.Section, teachers []roster.Teacher) Allocation {
	return defaultAllocator.Allocate(subjects, sections, teachers)
}

func (a *Allocator) shuffle(n int, swap func(i, j int)) {
	if a.rnd == nil {
		rand.Shuffle(n, swap)
		return
	}
	a.mu.Lock()
	a.rnd.Shuffle(n, swap)
	a.mu.Unlock()
}

// Allocate assigns, for each subject, every section to exactly one eligible teacher so that
// assigned counts differ by at most one between any two teachers. Teacher and section order is
// shuffled on every call. Subjects without eligible teachers get all sections under Unassigned.
// Inputs are never modified.
func (a *Allocator) Allocate(subjects []roster.Subject, sections []roster.Section, teachers []roster.Teacher) Allocation {
	alloc := make(Allocation, len(subjects))

	for _, subj := range subjects {
		names := sectionNames(sections)

		eligible := eligibleTeachers(subj.ID, teachers)
		if len(eligible) == 0 {
			alloc[subj.Name] = map[string][]string{Unassigned: names}
			continue
		}

		a.shuffle(len(eligible), func(i, j int) { eligible[i], eligible[j] = eligible[j], eligible[i] })
		a.shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })

		base, remainder := len(names)/len(eligible), len(names)%len(eligible)
		buckets := make(map[string][]string, len(eligible))
		start := 0
		for i, tchr := range eligible {
			workload := base
			if i < remainder {
				workload++
			}
			bucket, ok := buckets[tchr]
			if !ok {
				bucket = make([]string, 0, workload)
			}
			// same-named teachers share a bucket, keeping the partition intact
			buckets[tchr] = append(bucket, names[start:start+workload]...)
			start += workload
		}
		alloc[subj.Name] = buckets
	}
	return alloc
}

// eligibleTeachers returns the names of teachers qualified for the subject.
func eligibleTeachers(subjectID string, teachers []roster.Teacher) []string {
	eligible := make([]string, 0, len(teachers))
	for _, tchr := range teachers {
		if tchr.IsQualified(subjectID) {
			eligible = append(eligible, tchr.Name)
		}
	}
	return eligible
}

func sectionNames(sections []roster.Section) []string {
	names := make([]string, 0, len(sections))
	for _, sec := range sections {
		names = append(names, sec.Name)
	}
	return names
}

// UnassignedSubjects returns the subjects that fell into the Unassigned bucket.
func (alloc Allocation) UnassignedSubjects() []string {
	var subjects []string
	for subj, buckets := range alloc {
		if _, ok := buckets[Unassigned]; ok {
			subjects = append(subjects, subj)
		}
	}
	return subjects
}
