package deps

import (
	"errors"
	"fmt"
	"strings"
)

// MissingDependencyError reports a required tool or SDK that is not installed.
type MissingDependencyError struct {
	Name string
}

func (e *MissingDependencyError) Error() string {
	return e.Name + " is not installed"
}

func missingDependency(name string) error {
	return &MissingDependencyError{Name: name}
}

// IsMissingDependency reports whether err, or any error it wraps, is a
// *MissingDependencyError.
func IsMissingDependency(err error) bool {
	var e *MissingDependencyError
	return errors.As(err, &e)
}

// BuildStepError reports an external command that exited unsuccessfully.
type BuildStepError struct {
	Name string
	Args []string
	Err  error
}

func (e *BuildStepError) Error() string {
	return fmt.Sprintf("command failed: %s: %v", e.CommandLine(), e.Err)
}

func (e *BuildStepError) Unwrap() error {
	return e.Err
}

// CommandLine returns the failed command joined with spaces.
func (e *BuildStepError) CommandLine() string {
	return strings.Join(append([]string{e.Name}, e.Args...), " ")
}

// ErrUnsupportedArtifactKind is returned for module descriptors whose artifact
// kind the sequencer cannot map to an install path.
var ErrUnsupportedArtifactKind = errors.New("unsupported artifact kind")
