// Package pipeline is the teacher-side attendance workflow: load a class
// roster, collect present/absent decisions by hand or from a spreadsheet,
// and submit them to the attendance store as one batch.
package pipeline

import (
	"time"

	"github.com/cmlabs-hris/school-backend-go/internal/pkg/validator"
)

// Student is a read-only roster entry
type Student struct {
	ID         string
	Name       string
	RollNumber string
}

// Mark is one attendance decision inside a submitted batch
type Mark struct {
	StudentID string
	IsPresent bool
	Date      time.Time
}

// Batch is the unit submitted to the store. Marks follow roster order.
type Batch struct {
	ClassID string
	Date    time.Time
	Marks   []Mark
}

// Present counts marks flagged present
func (b Batch) Present() int {
	n := 0
	for _, m := range b.Marks {
		if m.IsPresent {
			n++
		}
	}
	return n
}

type State int

const (
	StateUnselected State = iota
	StateRosterLoading
	StateRosterLoaded
	StateManualEditing
	StateImportPending
	StateSubmitting
	StateSubmittedOk
	StateSubmitFailed
)

func (s State) String() string {
	switch s {
	case StateUnselected:
		return "unselected"
	case StateRosterLoading:
		return "roster_loading"
	case StateRosterLoaded:
		return "roster_loaded"
	case StateManualEditing:
		return "manual_editing"
	case StateImportPending:
		return "import_pending"
	case StateSubmitting:
		return "submitting"
	case StateSubmittedOk:
		return "submitted_ok"
	case StateSubmitFailed:
		return "submit_failed"
	default:
		return "unknown"
	}
}

// CivilDate drops the clock and zone from t, keeping its calendar day
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar day
func ParseDate(s string) (time.Time, error) {
	return time.Parse(validator.DateLayout, s)
}
