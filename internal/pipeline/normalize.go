package pipeline

import "strings"

// NormalizeAttendance maps a spreadsheet cell to a present flag. Only
// "present" and "p" count as present, ignoring case and surrounding space;
// anything else, including blanks and typos, is absent.
func NormalizeAttendance(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "present", "p":
		return true
	default:
		return false
	}
}
