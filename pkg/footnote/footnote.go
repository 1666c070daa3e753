// Package footnote is the public entry point to the footnote engine. It
// re-exports the types of the internal packages so programs outside this
// module, and interpreted routines, can use the engine without importing
// internal/ paths.
//
// Usage:
//
//	eng := footnote.New(&footnote.Printf{Out: os.Stdout})
//	fn, err := eng.InjectFile("demo.go", "Greet", nil)
//	out, err := fn.Call("bob")
package footnote

import (
	"context"
	"fmt"
	"io"
	"reflect"

	"footnote/internal/capture"
	"footnote/internal/codegen"
	"footnote/internal/config"
	"footnote/internal/directive"
	"footnote/internal/format"
	"footnote/internal/object"
	"footnote/internal/rebind"
	"footnote/internal/scope"
	"footnote/internal/source"
	"footnote/internal/spread"
	"footnote/internal/transform"

	"go.uber.org/zap"
)

// Re-export core types
type (
	Callable  = rebind.Callable
	Class     = object.Class
	Instance  = object.Instance
	Member    = object.Member
	Kind      = object.Kind
	Builder   = object.Builder
	Routine   = source.Routine
	Import    = source.Import
	Scope     = scope.Scope
	Directive = directive.Directive
	Formatter = format.Formatter
	Printf    = format.Printf
	Zap       = format.Zap
	Pipeline  = transform.Pipeline
	Result    = codegen.Result

	CompileError           = rebind.CompileError
	MissingDefinitionError = rebind.MissingDefinitionError
)

const (
	KindValue  = object.KindValue
	KindMethod = object.KindMethod
	KindStatic = object.KindStatic

	DefaultEngine    = capture.DefaultEngine
	DefaultCanonical = rebind.DefaultCanonical
)

var (
	ErrCompile           = rebind.ErrCompile
	ErrMissingDefinition = rebind.ErrMissingDefinition
	ErrInvalidKey        = scope.ErrInvalidKey

	Define         = object.Define
	NewClass       = object.NewClass
	NewRoutine     = source.New
	ParseDirective = directive.Parse
	Demangle       = spread.Demangle
)

// Symbols exports this package to the interpreter, so rewritten routines may
// import "footnote/pkg/footnote" to name *footnote.Instance and friends.
var Symbols = map[string]map[string]reflect.Value{
	"footnote/pkg/footnote/footnote": {
		"Class":    reflect.ValueOf((*object.Class)(nil)),
		"Instance": reflect.ValueOf((*object.Instance)(nil)),
		"Member":   reflect.ValueOf((*object.Member)(nil)),
		"Kind":     reflect.ValueOf((*object.Kind)(nil)),
		"Builder":  reflect.ValueOf((*object.Builder)(nil)),

		"Define":     reflect.ValueOf(object.Define),
		"NewClass":   reflect.ValueOf(object.NewClass),
		"KindValue":  reflect.ValueOf(object.KindValue),
		"KindMethod": reflect.ValueOf(object.KindMethod),
		"KindStatic": reflect.ValueOf(object.KindStatic),
	},
}

// Engine bundles a formatter with the binder, spreader and rewriter built on
// it.
type Engine struct {
	name      string
	canonical string
	formatter Formatter
	logger    *zap.Logger
	limit     int
	binderOps []rebind.Option

	binder   *rebind.Binder
	spreader *spread.Spreader
	rewriter *codegen.Rewriter
}

// Option configures an Engine.
type Option func(*Engine)

// WithName sets the engine name matched by the @<name>.inject marker.
func WithName(name string) Option {
	return func(e *Engine) { e.name = name }
}

// WithCanonical sets the canonical function name.
func WithCanonical(name string) Option {
	return func(e *Engine) { e.canonical = name }
}

// WithLogger sets the logger engine-level calls are reported to.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithConcurrency bounds how many class members compile at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) { e.limit = n }
}

// WithOutput redirects standard output of interpreted code.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(e *Engine) { e.binderOps = append(e.binderOps, rebind.WithOutput(stdout, stderr)) }
}

// New creates an engine.
func New(f Formatter, opts ...Option) *Engine {
	e := &Engine{
		name:      DefaultEngine,
		canonical: DefaultCanonical,
		formatter: f,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	bopts := append([]rebind.Option{
		rebind.WithEngine(e.name),
		rebind.WithCanonical(e.canonical),
		rebind.WithExports(Symbols),
	}, e.binderOps...)
	e.binder = rebind.New(f, bopts...)
	e.spreader = spread.New(e.binder, e.limit)
	e.rewriter = &codegen.Rewriter{Formatter: f, Engine: e.name}
	e.logger = e.logger.Named("footnote")
	return e
}

// NewFromConfig builds the configured formatter and an engine around it. out
// receives printf output and logger receives zap output; either may be nil.
func NewFromConfig(cfg *config.Config, out io.Writer, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f, err := format.New(cfg.Formatter.Kind, format.Options{
		Prefixes:  cfg.Formatter.Prefixes,
		WriterVar: cfg.Formatter.WriterVar,
		LoggerVar: cfg.Formatter.LoggerVar,
		Out:       out,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	opts := []Option{WithName(cfg.Engine), WithCanonical(cfg.Canonical)}
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}
	return New(f, opts...), nil
}

func (e *Engine) Name() string         { return e.name }
func (e *Engine) Canonical() string    { return e.canonical }
func (e *Engine) Formatter() Formatter { return e.formatter }

// Pipeline returns the text pipeline Inject applies.
func (e *Engine) Pipeline() Pipeline {
	return e.binder.Pipeline()
}

// Inject recompiles r with extra bindings.
func (e *Engine) Inject(r *Routine, extra Scope) (*Callable, error) {
	c, err := e.binder.Inject(r, extra)
	if err != nil {
		e.logger.Warn("inject failed", zap.String("routine", routineName(r)), zap.Error(err))
		return nil, err
	}
	e.logger.Debug("injected", zap.String("routine", c.Name), zap.String("file", c.File))
	return c, nil
}

// Capture reads the top-level functions of a Go file.
func (e *Engine) Capture(path string) ([]*Routine, error) {
	return capture.ParseFile(path, capture.WithEngine(e.name))
}

// InjectFile captures the function name from a Go file and recompiles it.
func (e *Engine) InjectFile(path, name string, extra Scope) (*Callable, error) {
	routines, err := e.Capture(path)
	if err != nil {
		return nil, err
	}
	r, ok := capture.Find(routines, name)
	if !ok {
		return nil, fmt.Errorf("%s: no function %s", path, name)
	}
	return e.Inject(r, extra)
}

// Spread returns the class projector bound to global.
func (e *Engine) Spread(global Scope) func(*Class) (*Class, error) {
	return func(c *Class) (*Class, error) {
		return e.SpreadContext(context.Background(), c, global)
	}
}

// SpreadContext projects c, stopping early when ctx is done.
func (e *Engine) SpreadContext(ctx context.Context, c *Class, global Scope) (*Class, error) {
	proj, err := e.spreader.Project(ctx, c, global)
	if err != nil {
		e.logger.Warn("spread failed", zap.String("class", c.Name), zap.Error(err))
		return nil, err
	}
	return proj, nil
}

// Rewrite rewrites the marked functions of a Go file for a normal build.
func (e *Engine) Rewrite(filename string, src []byte) (Result, error) {
	return e.rewriter.Rewrite(filename, src)
}

// RewriteFile reads and rewrites one file.
func (e *Engine) RewriteFile(path string) (Result, error) {
	return e.rewriter.RewriteFile(path)
}

// RewriteFiles rewrites many files concurrently.
func (e *Engine) RewriteFiles(ctx context.Context, paths []string, write codegen.WriteFunc) error {
	return e.rewriter.RewriteFiles(ctx, paths, write)
}

func routineName(r *Routine) string {
	if r == nil {
		return ""
	}
	return r.Name
}
