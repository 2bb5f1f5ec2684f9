package pipeline

import "errors"

var (
	ErrRosterFetchFailed = errors.New("roster fetch failed")
	ErrSubmissionFailed  = errors.New("attendance submission failed")
	ErrFileParseFailed   = errors.New("attendance file could not be parsed")

	ErrNoRoster       = errors.New("no roster loaded")
	ErrEmptyRoster    = errors.New("roster has no students")
	ErrBusy           = errors.New("another operation is in progress")
	ErrStale          = errors.New("result discarded: class selection changed")
	ErrUnknownStudent = errors.New("student is not on the loaded roster")
)
