// Package format defines the formatter contract: the pluggable piece that
// decides what code text replaces a directive comment.
package format

import (
	"fmt"
	"io"
	"strings"

	"footnote/internal/scope"

	"go.uber.org/zap"
)

// Formatter renders one directive into the code text spliced in place of the
// comment. The text is inserted verbatim and must be valid at that point.
type Formatter interface {
	Format(prefix, text string, args ...string) string
}

// ContextProvider is implemented by formatters whose generated code refers to
// bindings they supply.
type ContextProvider interface {
	Context() scope.Scope
}

// PrefixFilter is implemented by formatters that only handle some prefixes.
// Comments with a rejected prefix are left untouched.
type PrefixFilter interface {
	Accepts(prefix string) bool
}

// Func adapts a plain function to Formatter.
type Func func(prefix, text string, args ...string) string

func (f Func) Format(prefix, text string, args ...string) string {
	return f(prefix, text, args...)
}

// ContextOf returns the formatter's bindings, or an empty scope.
func ContextOf(f Formatter) scope.Scope {
	if cp, ok := f.(ContextProvider); ok {
		if s := cp.Context(); s != nil {
			return s
		}
	}
	return scope.Scope{}
}

// Accepts reports whether f handles prefix.
func Accepts(f Formatter, prefix string) bool {
	if pf, ok := f.(PrefixFilter); ok {
		return pf.Accepts(prefix)
	}
	return true
}

// Options configures the built-in formatters.
type Options struct {
	Prefixes  []string
	WriterVar string
	LoggerVar string
	Out       io.Writer
	Logger    *zap.Logger
}

// New builds a built-in formatter by kind.
func New(kind string, opts Options) (Formatter, error) {
	switch kind {
	case "printf":
		return &Printf{Prefixes: opts.Prefixes, Var: opts.WriterVar, Out: opts.Out}, nil
	case "zap":
		z := &Zap{Prefixes: opts.Prefixes, Var: opts.LoggerVar}
		if opts.Logger != nil {
			z.Logger = opts.Logger.Sugar()
		}
		return z, nil
	default:
		return nil, fmt.Errorf("unknown formatter kind %q", kind)
	}
}

func allowed(prefixes []string, prefix string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if p == prefix {
			return true
		}
	}
	return false
}

func argList(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return ", " + strings.Join(args, ", ")
}
