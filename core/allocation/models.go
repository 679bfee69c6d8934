package allocation

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"
)

// Run is one generated allocation.
type Run struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	Allocation Allocation `json:"allocation"`
	Unassigned []string   `json:"unassigned"` // subject names without any eligible teacher
}

// Allotment is one persisted row of a saved Allocation.
type Allotment struct {
	RunID     string      `json:"run_id"`
	SubjectID string      `json:"subject_id"`
	TeacherID null.String `json:"teacher_id"` // null: Unassigned
	SectionID string      `json:"section_id"`
	CreatedAt time.Time   `json:"created_at"`
}

// SaveResult summarizes a saved Allocation.
type SaveResult struct {
	RunID           string `json:"run_id"`
	UpdatedTeachers int    `json:"updated_teachers"`
	Allotments      int    `json:"allotments"`
}

type (
	Repository interface {
		// ReplaceAllotments atomically swaps the saved snapshot for `allotments`.
		ReplaceAllotments(ctx context.Context, allotments []Allotment) error
		QueryAllotments(ctx context.Context) ([]Allotment, error)
	}

	// Metrics records allocation activity.
	Metrics interface {
		ObserveRun(subjects, unassigned int, d time.Duration)
		IncSaved(updatedTeachers int)
	}
)

// NopMetrics discards all metrics.
type NopMetrics struct{}

var _ Metrics = NopMetrics{}

func (NopMetrics) ObserveRun(_ /* subjects */, _ /* unassigned */ int, _ time.Duration) {}
func (NopMetrics) IncSaved(_ /* updatedTeachers */ int)                                {}
