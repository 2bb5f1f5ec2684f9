package pipeline

import (
	"context"
	"fmt"
	"time"
)

type SubmitResult struct {
	Batch       Batch
	Receipt     Receipt
	SubmittedAt time.Time
}

// Submit sends the current marks as one batch. On success the marks are
// reset to absent and the success indicator is shown; on failure the marks
// stay as they were. Submitting twice stores two batches.
func (s *Session) Submit(ctx context.Context) (SubmitResult, error) {
	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return SubmitResult{}, err
	}
	if len(s.students) == 0 {
		s.mu.Unlock()
		return SubmitResult{}, ErrEmptyRoster
	}
	batch := s.buildBatchLocked()
	gen := s.generation
	prev := s.state
	s.submitting = true
	s.setState(StateSubmitting)
	s.mu.Unlock()

	receipt, err := s.store.SubmitBatch(ctx, batch)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.logger.Debug("Discarding stale submission result", "class", batch.ClassID)
		return SubmitResult{Batch: batch, Receipt: receipt}, ErrStale
	}
	s.submitting = false

	if err != nil {
		s.setState(StateSubmitFailed)
		s.setState(prev)
		s.logger.Warn("Attendance submission failed", "class", batch.ClassID, "error", err)
		return SubmitResult{Batch: batch}, fmt.Errorf("%w: class %s: %w", ErrSubmissionFailed, batch.ClassID, err)
	}

	now := s.now()
	s.lastSuccess = now
	s.marks = baseMarks(s.students, false)
	s.setState(StateSubmittedOk)
	s.setState(StateRosterLoaded)

	s.logger.Info("Attendance submitted",
		"class", batch.ClassID,
		"batch_id", receipt.BatchID,
		"recorded", len(batch.Marks),
		"present", batch.Present(),
	)
	return SubmitResult{Batch: batch, Receipt: receipt, SubmittedAt: now}, nil
}

// buildBatchLocked walks the roster, so a mark left over for a student no
// longer on it can never be sent
func (s *Session) buildBatchLocked() Batch {
	batch := Batch{
		ClassID: s.classID,
		Date:    s.date,
		Marks:   make([]Mark, 0, len(s.students)),
	}
	for _, st := range s.students {
		batch.Marks = append(batch.Marks, Mark{
			StudentID: st.ID,
			IsPresent: s.marks[st.ID],
			Date:      s.date,
		})
	}
	return batch
}
