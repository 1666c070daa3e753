package rebind

import (
	"fmt"
	"reflect"

	"footnote/internal/object"
	"footnote/internal/source"
)

// Callable is a recompiled routine. It carries the identity of the routine it
// replaces so callers see the original name, doc and location.
type Callable struct {
	Name    string
	Doc     string
	File    string
	Line    int
	Wrapped *source.Routine
	Source  string // transformed text
	Program string // full unit handed to the interpreter

	fn reflect.Value
}

// Func returns the interpreted function value.
func (c *Callable) Func() reflect.Value {
	return c.fn
}

// Interface returns the function as a Go value that can be type-asserted,
// e.g. c.Interface().(func(int) int).
func (c *Callable) Interface() any {
	return c.fn.Interface()
}

// Call invokes the function with reflective argument coercion.
func (c *Callable) Call(args ...any) ([]any, error) {
	out, err := object.Invoke(c.fn, args...)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", c.Name, err)
	}
	return out, nil
}

func (c *Callable) String() string {
	return fmt.Sprintf("%s (%s:%d)", c.Name, c.File, c.Line)
}
