// Package rebind recompiles a captured routine after the text pipeline has
// rewritten it, and binds the result to a merged execution context.
//
// Evaluation uses the yaegi interpreter. Each Inject call builds a fresh
// interpreter, so calls share no state and may run concurrently.
package rebind

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"
	"time"

	"footnote/internal/capture"
	"footnote/internal/format"
	"footnote/internal/logging"
	"footnote/internal/object"
	"footnote/internal/scope"
	"footnote/internal/source"
	"footnote/internal/transform"

	"github.com/google/uuid"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// DefaultCanonical is the name every rewritten routine is defined under.
const DefaultCanonical = "patchedFn"

// Binder turns routines into Callables.
type Binder struct {
	formatter format.Formatter
	pipeline  *transform.Pipeline
	engine    string
	canonical string
	exports   []interp.Exports
	stdout    io.Writer
	stderr    io.Writer

	indexOnce sync.Once
	index     packageIndex
}

// Option configures a Binder.
type Option func(*Binder)

// WithEngine sets the engine name used in the annotation marker.
func WithEngine(name string) Option {
	return func(b *Binder) { b.engine = name }
}

// WithCanonical sets the name the rewritten routine is defined under.
func WithCanonical(name string) Option {
	return func(b *Binder) { b.canonical = name }
}

// WithPipeline replaces the default pipeline.
func WithPipeline(p transform.Pipeline) Option {
	return func(b *Binder) { b.pipeline = &p }
}

// WithExports makes extra packages importable by interpreted code.
func WithExports(tables ...interp.Exports) Option {
	return func(b *Binder) { b.exports = append(b.exports, tables...) }
}

// WithOutput redirects the interpreter's standard output and error.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(b *Binder) { b.stdout, b.stderr = stdout, stderr }
}

// New returns a Binder rendering directives with f.
func New(f format.Formatter, opts ...Option) *Binder {
	b := &Binder{
		formatter: f,
		engine:    capture.DefaultEngine,
		canonical: DefaultCanonical,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.pipeline == nil {
		p := transform.Default(f, b.engine, b.canonical)
		b.pipeline = &p
	}
	return b
}

func (b *Binder) Canonical() string            { return b.canonical }
func (b *Binder) Engine() string               { return b.engine }
func (b *Binder) Formatter() format.Formatter  { return b.formatter }
func (b *Binder) Pipeline() transform.Pipeline { return *b.pipeline }

func (b *Binder) tables() []interp.Exports {
	return append([]interp.Exports{stdlib.Symbols, object.Symbols}, b.exports...)
}

func (b *Binder) packages() packageIndex {
	b.indexOnce.Do(func() {
		b.index = newPackageIndex(b.tables()...)
	})
	return b.index
}

// Inject rewrites r, evaluates it against the routine's globals overlaid by
// extra and then by the formatter's context, and returns the function defined
// under the canonical name.
func (b *Binder) Inject(r *source.Routine, extra scope.Scope) (*Callable, error) {
	if r == nil {
		return nil, errors.New("inject: nil routine")
	}
	log := logging.Get(logging.CategoryBinder).With("call", uuid.NewString(), "routine", r.Name)
	start := time.Now()

	text := b.pipeline.Run(r.Source)

	chain := scope.Chain{
		{Name: scope.LayerGlobals, Bindings: r.Globals},
		{Name: scope.LayerExtra, Bindings: extra},
		{Name: scope.LayerFormatter, Bindings: format.ContextOf(b.formatter)},
	}
	ctx := chain.Merge()
	if err := ctx.Validate(); err != nil {
		return nil, fmt.Errorf("inject %s: %w", r.Name, err)
	}
	for key, layer := range chain.Overrides() {
		log.Debug("binding %s taken from %s layer", key, layer)
	}

	u, err := assemble(r, text, ctx, b.canonical, b.packages())
	if err != nil {
		log.Error("parse failed: %v", err)
		return nil, &CompileError{File: r.File, Line: r.Line, Source: text, Err: err}
	}
	log.Debug("program assembled: %d bindings, %d imports, %d sibling declarations", len(u.bindings), len(u.imports), len(u.decls))

	fn, err := b.evaluate(u, ctx)
	if err != nil {
		err = u.lines.wrap(err, u.offset)
		log.Error("evaluation failed: %v", err)
		return nil, &CompileError{File: r.File, Line: r.Line, Source: text, Err: err}
	}
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		log.Error("no %s after evaluation", b.canonical)
		return nil, &MissingDefinitionError{File: r.File, Name: r.Name, Canonical: b.canonical}
	}

	log.Info("rebound %s in %v", r.Name, time.Since(start))
	return &Callable{
		Name:    r.Name,
		Doc:     r.Doc,
		File:    r.File,
		Line:    r.Line,
		Wrapped: r,
		Source:  text,
		Program: u.program,
		fn:      fn,
	}, nil
}

// evaluate runs the program in a fresh interpreter. It returns an invalid
// value, and no error, when the program does not declare the canonical name.
func (b *Binder) evaluate(u *unit, ctx scope.Scope) (fn reflect.Value, err error) {
	defer func() {
		if p := recover(); p != nil {
			fn, err = reflect.Value{}, fmt.Errorf("interpreter panic: %v", p)
		}
	}()

	i := interp.New(interp.Options{Stdout: b.stdout, Stderr: b.stderr})
	tables := b.tables()
	if len(u.bindings) > 0 {
		tables = append(tables, bindingExports(ctx, u.bindings))
	}
	for _, t := range tables {
		if err := i.Use(t); err != nil {
			return reflect.Value{}, fmt.Errorf("load symbols: %w", err)
		}
	}

	if _, err := i.Eval(u.program); err != nil {
		return reflect.Value{}, err
	}
	if !u.defines {
		return reflect.Value{}, nil
	}
	return i.Eval("main." + b.canonical)
}
