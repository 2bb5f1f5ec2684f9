package pipeline

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

const DefaultSuccessDisplay = 3 * time.Second

// Session holds one teacher's in-memory attendance state for a selected
// class and date. Methods are safe for concurrent use. Loading and
// submitting are each exclusive; completions that arrive after the class
// selection changed are discarded with ErrStale.
type Session struct {
	mu sync.Mutex

	roster RosterProvider
	store  AttendanceStore
	logger *slog.Logger
	now    func() time.Time

	successDisplay time.Duration
	onTransition   func(from, to State)

	classID  string
	date     time.Time
	students []Student
	marks    map[string]bool
	state    State

	// generation changes on every class selection or reset
	generation  uint64
	loading     bool
	submitting  bool
	lastSuccess time.Time
}

type Option func(*Session)

// WithClock replaces time.Now, for the success indicator and default date
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithSuccessDisplay sets how long SuccessVisible stays true after a submit
func WithSuccessDisplay(d time.Duration) Option {
	return func(s *Session) { s.successDisplay = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithTransitionHook observes every state change, including the transient
// submitted and failed states. The hook runs under the session lock and
// must not call back into the Session.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(s *Session) { s.onTransition = fn }
}

func NewSession(roster RosterProvider, store AttendanceStore, opts ...Option) *Session {
	s := &Session{
		roster:         roster,
		store:          store,
		logger:         slog.Default(),
		now:            time.Now,
		successDisplay: DefaultSuccessDisplay,
		state:          StateUnselected,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.date = CivilDate(s.now())
	return s
}

// SelectClass switches the session to classID. Any roster, marks and
// in-flight operation of the previous class are abandoned.
func (s *Session) SelectClass(classID string) {
	classID = strings.TrimSpace(classID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if classID == s.classID {
		return
	}
	s.classID = classID
	s.resetLocked()
}

// Reset drops the roster and marks, keeping class and date
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	s.generation++
	s.students = nil
	s.marks = nil
	s.loading = false
	s.submitting = false
	s.lastSuccess = time.Time{}
	s.setState(StateUnselected)
}

// SelectDate sets the calendar day stamped on every mark
func (s *Session) SelectDate(date time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.date = CivilDate(date)
}

func (s *Session) ClassID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.classID
}

func (s *Session) Date() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Roster returns a copy of the loaded roster in provider order
func (s *Session) Roster() []Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.students == nil {
		return nil
	}
	out := make([]Student, len(s.students))
	copy(out, s.students)
	return out
}

// Marks returns a copy of the current present flags keyed by student ID
func (s *Session) Marks() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.marks))
	for id, present := range s.marks {
		out[id] = present
	}
	return out
}

// IsPresent reports the mark of one student; ok is false off the roster
func (s *Session) IsPresent(studentID string) (present, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	present, ok = s.marks[studentID]
	return present, ok
}

// SuccessVisible reports whether the last successful submit happened within
// the success display window
func (s *Session) SuccessVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSuccess.IsZero() {
		return false
	}
	return s.now().Sub(s.lastSuccess) < s.successDisplay
}

func (s *Session) setState(to State) {
	from := s.state
	s.state = to
	if s.onTransition != nil && from != to {
		s.onTransition(from, to)
	}
}

// editableLocked returns nil when the roster can be read or changed
func (s *Session) editableLocked() error {
	if s.loading || s.submitting {
		return ErrBusy
	}
	if s.students == nil {
		return ErrNoRoster
	}
	return nil
}

func baseMarks(students []Student, present bool) map[string]bool {
	marks := make(map[string]bool, len(students))
	for _, st := range students {
		marks[st.ID] = present
	}
	return marks
}
