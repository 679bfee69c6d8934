package allocation

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Heetpatel09/TimeWise-sub001/core"
	"github.com/Heetpatel09/TimeWise-sub001/core/roster"
)

var ErrNoAllotments = errors.New("no allocation has been saved yet")

type Service struct {
	rosterRepo roster.Repository
	repo       Repository
	allocator  *Allocator
	logger     core.Logger
	metrics    Metrics
	nowFunc    func() time.Time
}

func NewService(rosterRepo roster.Repository, repo Repository, allocator *Allocator, logger core.Logger, metrics Metrics) *Service {
	if allocator == nil {
		allocator = defaultAllocator
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Service{
		rosterRepo: rosterRepo,
		repo:       repo,
		allocator:  allocator,
		logger:     logger,
		metrics:    metrics,
		nowFunc:    time.Now,
	}
}

type rosterSnapshot struct {
	subjects []roster.Subject
	sections []roster.Section
	teachers []roster.Teacher
}

func (svc *Service) loadRoster(ctx context.Context) (rosterSnapshot, error) {
	var snap rosterSnapshot
	var err error
	if snap.subjects, err = svc.rosterRepo.QuerySubjects(ctx, nil); err != nil {
		return snap, errors.Wrap(err, "querying subjects")
	}
	if snap.sections, err = svc.rosterRepo.QuerySections(ctx, nil); err != nil {
		return snap, errors.Wrap(err, "querying sections")
	}
	if snap.teachers, err = svc.rosterRepo.QueryTeachers(ctx, nil); err != nil {
		return snap, errors.Wrap(err, "querying teachers")
	}
	return snap, nil
}

// Generate allocates the current roster. Nothing is persisted.
func (svc *Service) Generate(ctx context.Context) (Run, error) {
	start := svc.nowFunc()

	snap, err := svc.loadRoster(ctx)
	if err != nil {
		return Run{}, err
	}

	alloc := svc.allocator.Allocate(snap.subjects, snap.sections, snap.teachers)
	unassigned := alloc.UnassignedSubjects()
	sort.Strings(unassigned)
	if unassigned == nil {
		unassigned = []string{}
	}
	for _, subj := range unassigned {
		svc.logger.Warn("no eligible teacher for subject", core.Fields{"subject": subj})
	}

	svc.metrics.ObserveRun(len(snap.subjects), len(unassigned), svc.nowFunc().Sub(start))

	return Run{
		ID:         uuid.New().String(),
		CreatedAt:  start.UTC(),
		Allocation: alloc,
		Unassigned: unassigned,
	}, nil
}

// Save merges the allocation into teacher qualifications and replaces the saved allotments.
// Every subject, teacher and section name must resolve to a roster record.
//
// Qualifications are merged first, each teacher through an atomic union in the store, so
// concurrent qualification edits are kept. If replacing the allotments then fails, the merged
// qualifications stay; saving again is safe since the merge only ever adds.
func (svc *Service) Save(ctx context.Context, alloc Allocation) (SaveResult, error) {
	snap, err := svc.loadRoster(ctx)
	if err != nil {
		return SaveResult{}, err
	}

	subjectIDs := make(map[string]string, len(snap.subjects))
	for _, subj := range snap.subjects {
		subjectIDs[subj.Name] = subj.ID
	}
	sectionIDs := make(map[string]string, len(snap.sections))
	for _, sec := range snap.sections {
		sectionIDs[sec.Name] = sec.ID
	}
	teacherIDs := make(map[string]string, len(snap.teachers))
	for _, tchr := range snap.teachers {
		if _, ok := teacherIDs[tchr.Name]; !ok {
			teacherIDs[tchr.Name] = tchr.ID
		}
	}

	if err = validateAllocation(alloc, subjectIDs, sectionIDs, teacherIDs); err != nil {
		return SaveResult{}, err
	}

	now := svc.nowFunc().UTC()
	origTeachers := make(map[string]roster.Teacher, len(snap.teachers))
	for _, tchr := range snap.teachers {
		origTeachers[tchr.ID] = tchr
	}
	var updated int
	for _, tchr := range MergeQualifications(snap.subjects, snap.teachers, alloc) {
		added := addedQualifications(origTeachers[tchr.ID], tchr)
		changed, err := svc.rosterRepo.AddQualifications(ctx, tchr.ID, added, now)
		if err != nil {
			return SaveResult{}, errors.Wrap(err, "adding teacher qualifications")
		}
		if changed {
			updated++
		}
	}

	runID := uuid.New().String()
	allotments := make([]Allotment, 0)
	for _, subjName := range sortedKeys(alloc) {
		buckets := alloc[subjName]
		for _, bucket := range sortedKeys(buckets) {
			tchrID := null.StringFrom(teacherIDs[bucket])
			if bucket == Unassigned {
				tchrID = null.String{}
			}
			for _, secName := range buckets[bucket] {
				allotments = append(allotments, Allotment{
					RunID:     runID,
					SubjectID: subjectIDs[subjName],
					TeacherID: tchrID,
					SectionID: sectionIDs[secName],
					CreatedAt: now,
				})
			}
		}
	}
	if err = svc.repo.ReplaceAllotments(ctx, allotments); err != nil {
		return SaveResult{}, errors.Wrap(err, "replacing allotments")
	}

	svc.metrics.IncSaved(updated)
	svc.logger.Info("allocation saved", core.Fields{
		"run_id":           runID,
		"updated_teachers": updated,
		"allotments":       len(allotments),
	})

	return SaveResult{
		RunID:           runID,
		UpdatedTeachers: updated,
		Allotments:      len(allotments),
	}, nil
}

// addedQualifications lists the subject IDs merged holds and orig does not.
func addedQualifications(orig, merged roster.Teacher) []string {
	added := make([]string, 0, len(merged.QualifiedSubjects)-len(orig.QualifiedSubjects))
	for _, id := range merged.QualifiedSubjects {
		if !orig.IsQualified(id) {
			added = append(added, id)
		}
	}
	return added
}

func validateAllocation(alloc Allocation, subjectIDs, sectionIDs, teacherIDs map[string]string) error {
	var fldErrs core.FieldErrors
	for _, subjName := range sortedKeys(alloc) {
		if _, ok := subjectIDs[subjName]; !ok {
			fldErrs.Add(subjName, "unknown subject")
			continue
		}
		seen := make(map[string]bool)
		buckets := alloc[subjName]
		for _, bucket := range sortedKeys(buckets) {
			if _, ok := teacherIDs[bucket]; !ok && bucket != Unassigned {
				fldErrs.Add(subjName+"."+bucket, "unknown teacher")
				continue
			}
			for _, secName := range buckets[bucket] {
				fld := subjName + "." + bucket + "." + secName
				if _, ok := sectionIDs[secName]; !ok {
					fldErrs.Add(fld, "unknown section")
				} else if seen[secName] {
					fldErrs.Add(fld, "section assigned more than once")
				}
				seen[secName] = true
			}
		}
	}
	return fldErrs.Err("invalid allocation")
}

// Latest rebuilds the saved allocation with the current roster names.
// Allotments pointing at deleted records are dropped.
func (svc *Service) Latest(ctx context.Context) (Run, error) {
	allotments, err := svc.repo.QueryAllotments(ctx)
	if err != nil {
		return Run{}, errors.Wrap(err, "querying allotments")
	}
	if len(allotments) == 0 {
		return Run{}, ErrNoAllotments
	}

	snap, err := svc.loadRoster(ctx)
	if err != nil {
		return Run{}, err
	}
	subjectNames := make(map[string]string, len(snap.subjects))
	for _, subj := range snap.subjects {
		subjectNames[subj.ID] = subj.Name
	}
	sectionNames := make(map[string]string, len(snap.sections))
	for _, sec := range snap.sections {
		sectionNames[sec.ID] = sec.Name
	}
	teacherNames := make(map[string]string, len(snap.teachers))
	for _, tchr := range snap.teachers {
		teacherNames[tchr.ID] = tchr.Name
	}

	alloc := make(Allocation)
	for _, at := range allotments {
		subjName, ok := subjectNames[at.SubjectID]
		if !ok {
			continue
		}
		secName, ok := sectionNames[at.SectionID]
		if !ok {
			continue
		}
		bucket := Unassigned
		if at.TeacherID.Valid {
			if bucket, ok = teacherNames[at.TeacherID.String]; !ok {
				continue
			}
		}
		if alloc[subjName] == nil {
			alloc[subjName] = make(map[string][]string)
		}
		alloc[subjName][bucket] = append(alloc[subjName][bucket], secName)
	}
	if len(alloc) == 0 { // every saved row points at a deleted record
		return Run{}, ErrNoAllotments
	}
	for _, buckets := range alloc {
		for _, secs := range buckets {
			sort.Strings(secs)
		}
	}

	unassigned := alloc.UnassignedSubjects()
	sort.Strings(unassigned)
	if unassigned == nil {
		unassigned = []string{}
	}
	return Run{
		ID:         allotments[0].RunID,
		CreatedAt:  allotments[0].CreatedAt,
		Allocation: alloc,
		Unassigned: unassigned,
	}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
