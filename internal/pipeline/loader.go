package pipeline

import (
	"context"
	"fmt"
)

// LoadRoster fetches the roster of the selected class and resets every
// mark to absent. With no class selected it does nothing. On failure the
// previous roster, marks and state are kept.
func (s *Session) LoadRoster(ctx context.Context) error {
	s.mu.Lock()
	if s.classID == "" {
		s.mu.Unlock()
		return nil
	}
	if s.loading || s.submitting {
		s.mu.Unlock()
		return ErrBusy
	}
	classID := s.classID
	gen := s.generation
	prev := s.state
	s.loading = true
	s.setState(StateRosterLoading)
	s.mu.Unlock()

	students, err := s.roster.FetchRoster(ctx, classID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.logger.Debug("Discarding stale roster", "class", classID)
		return ErrStale
	}
	s.loading = false

	if err != nil {
		s.setState(prev)
		s.logger.Warn("Roster fetch failed", "class", classID, "error", err)
		return fmt.Errorf("%w: class %s: %w", ErrRosterFetchFailed, classID, err)
	}

	if students == nil {
		students = []Student{}
	}
	s.students = students
	s.marks = baseMarks(students, false)
	s.setState(StateRosterLoaded)

	s.logger.Info("Roster loaded", "class", classID, "students", len(students))
	return nil
}
