package commands

import (
	"errors"

	"github.com/arclang/arc/internal/model"
)

// CodedError pins a concrete process exit code to an error, the way run.go
// reports a task failure versus a configuration error (§4.I, §6).
type CodedError struct {
	Code int
	Err  error
}

func (e *CodedError) Error() string { return e.Err.Error() }
func (e *CodedError) Unwrap() error { return e.Err }

// ExitCode maps err to the process exit code §6 specifies: 0 on nil, 1 for a
// reported task failure, 2 for a configuration/script/selection error, 3 for
// anything else (treated as a user/flag error).
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	if errors.Is(err, model.ErrNotValid) || errors.Is(err, model.ErrNotFound) {
		return 2
	}
	return 3
}
