package pipeline

import (
	"errors"
	"fmt"

	"github.com/Promptonauts/relpipe/pkg/descriptor"
	"github.com/Promptonauts/relpipe/pkg/runner"
)

type FailureKind string

const (
	MissingFile                FailureKind = "MissingFile"
	MalformedDocument          FailureKind = "MalformedDocument"
	ExternalCommandFailure     FailureKind = "ExternalCommandFailure"
	FilesystemOperationFailure FailureKind = "FilesystemOperationFailure"
	UnclassifiedFailure        FailureKind = "UnclassifiedFailure"
)

// Error is the fatal outcome of a run. Per-item cleanup failures never
// become an Error; they are listed in Report.Cleanup instead.
type Error struct {
	Kind FailureKind
	Step Step
	Err  error
}

func (e *Error) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Step, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the failure kind of err, or "" for nil.
func KindOf(err error) FailureKind {
	if err == nil {
		return ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return classify(err)
}

func classify(err error) FailureKind {
	var exitErr *runner.ExitError
	switch {
	case errors.Is(err, descriptor.ErrMissingFile):
		return MissingFile
	case errors.Is(err, descriptor.ErrMalformed):
		return MalformedDocument
	case errors.As(err, &exitErr):
		return ExternalCommandFailure
	default:
		return UnclassifiedFailure
	}
}

// Describe renders err as the one-line message shown to the user.
func Describe(err error, descriptorName string) string {
	var exitErr *runner.ExitError
	switch KindOf(err) {
	case "":
		return ""
	case MissingFile:
		return fmt.Sprintf("Error: %s not found.", descriptorName)
	case MalformedDocument:
		return fmt.Sprintf("Error: Invalid JSON in %s. (%v)", descriptorName, errors.Unwrap(err))
	case ExternalCommandFailure:
		if errors.As(err, &exitErr) {
			return fmt.Sprintf("Error: %s failed with error code %d. Output: %s",
				exitErr.Command, exitErr.ExitCode, exitErr.Stderr)
		}
	case FilesystemOperationFailure:
		return fmt.Sprintf("Error: %v", errors.Unwrap(err))
	}
	return fmt.Sprintf("An unexpected error occurred: %v", err)
}
