package pipeline

import "fmt"

// Toggle flips the mark of one student on the loaded roster
func (s *Session) Toggle(studentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editableLocked(); err != nil {
		return err
	}
	current, ok := s.marks[studentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStudent, studentID)
	}

	next := make(map[string]bool, len(s.marks))
	for id, present := range s.marks {
		next[id] = present
	}
	next[studentID] = !current

	s.marks = next
	s.setState(StateManualEditing)
	return nil
}

// MarkAll sets the mark of every student on the roster to present
func (s *Session) MarkAll(present bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editableLocked(); err != nil {
		return err
	}

	s.marks = baseMarks(s.students, present)
	s.setState(StateManualEditing)
	return nil
}
