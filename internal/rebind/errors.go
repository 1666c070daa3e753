package rebind

import (
	"errors"
	"fmt"
)

var (
	// ErrCompile matches every *CompileError.
	ErrCompile = errors.New("compile failed")
	// ErrMissingDefinition matches every *MissingDefinitionError.
	ErrMissingDefinition = errors.New("canonical definition missing")
)

// CompileError reports that the transformed source unit could not be parsed
// or evaluated. Source is the text that was handed to the interpreter.
type CompileError struct {
	File   string
	Line   int
	Source string
	Err    error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s:%d: compile rewritten routine: %v", e.File, e.Line, e.Err)
}

func (e *CompileError) Unwrap() []error {
	return []error{ErrCompile, e.Err}
}

// MissingDefinitionError reports that evaluation succeeded but did not
// introduce a function under the canonical name.
type MissingDefinitionError struct {
	File      string
	Name      string
	Canonical string
}

func (e *MissingDefinitionError) Error() string {
	return fmt.Sprintf("%s: routine %s did not define %s", e.File, e.Name, e.Canonical)
}

func (e *MissingDefinitionError) Is(target error) bool {
	return target == ErrMissingDefinition
}
