package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/cmlabs-hris/school-backend-go/internal/pkg/spreadsheet"
)

// UnmatchedRow is a sheet row whose roll number is not on the roster
type UnmatchedRow struct {
	Row        int
	RollNumber string
}

type ImportResult struct {
	Matched   int
	Unmatched []UnmatchedRow
	Submit    SubmitResult
}

// Import reads attendance from an .xlsx or .xls sheet and submits it.
// Every student starts absent; rows are matched to the roster by exact
// roll number and their Attendance cell is normalized. Rows that match no
// student are skipped and listed in the result. A file that cannot be
// parsed leaves the session untouched.
func (s *Session) Import(ctx context.Context, r io.Reader, filename string) (ImportResult, error) {
	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return ImportResult{}, err
	}
	gen := s.generation
	students := s.students
	s.mu.Unlock()

	table, err := spreadsheet.Read(r, filename)
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: %s: %w", ErrFileParseFailed, filename, err)
	}
	for _, col := range []string{ColumnRollNo, ColumnAttendance} {
		if !table.HasColumn(col) {
			return ImportResult{}, fmt.Errorf("%w: %s: missing %q column", ErrFileParseFailed, filename, col)
		}
	}

	byRoll := make(map[string]string, len(students))
	for _, st := range students {
		if _, dup := byRoll[st.RollNumber]; !dup {
			byRoll[st.RollNumber] = st.ID
		}
	}

	var result ImportResult
	marks := baseMarks(students, false)
	matched := make(map[string]struct{}, len(students))
	for _, row := range table.Rows {
		roll := row.Get(ColumnRollNo)
		id, ok := byRoll[roll]
		if !ok {
			result.Unmatched = append(result.Unmatched, UnmatchedRow{Row: row.Number, RollNumber: roll})
			continue
		}
		// a later row for the same roll number wins
		marks[id] = NormalizeAttendance(row.Get(ColumnAttendance))
		matched[id] = struct{}{}
	}
	result.Matched = len(matched)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return result, ErrStale
	}
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return result, err
	}
	s.marks = marks
	s.setState(StateImportPending)
	s.mu.Unlock()

	if len(result.Unmatched) > 0 {
		s.logger.Warn("Import skipped rows with unknown roll numbers",
			"file", filename,
			"unmatched", len(result.Unmatched),
		)
	}

	result.Submit, err = s.Submit(ctx)
	return result, err
}
