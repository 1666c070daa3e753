// Package codegen is the build-stage counterpart of rebind: it rewrites the
// marked functions of Go files in place and emits source for a normal
// go build.
package codegen

import (
	"bytes"
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"footnote/internal/capture"
	"footnote/internal/directive"
	"footnote/internal/format"
	"footnote/internal/logging"
	"footnote/internal/transform"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"
)

// Result is one rewritten file.
type Result struct {
	Source     []byte
	Functions  []string // rewritten functions in source order
	Directives int      // directive comments replaced
}

// Changed reports whether anything was rewritten.
func (r Result) Changed() bool {
	return len(r.Functions) > 0
}

// Rewriter rewrites marked functions using Formatter. Unlike Inject, headers
// keep their names and bodies keep their indentation.
type Rewriter struct {
	Formatter format.Formatter
	Engine    string
}

// New returns a Rewriter for the default engine name.
func New(f format.Formatter) *Rewriter {
	return &Rewriter{Formatter: f, Engine: capture.DefaultEngine}
}

func (rw *Rewriter) engine() string {
	if rw.Engine == "" {
		return capture.DefaultEngine
	}
	return rw.Engine
}

// Pipeline returns the stages applied to each marked function.
func (rw *Rewriter) Pipeline() transform.Pipeline {
	return transform.Pipeline{Stages: []transform.NamedStage{
		{Name: "substitute", Run: transform.Substitute(rw.Formatter)},
		{Name: "strip-marker", Run: transform.StripMarkerLines(rw.engine())},
	}}
}

type span struct {
	name     string
	from, to int
}

// Rewrite rewrites src. Files without marked functions are returned as is;
// otherwise the output has its imports fixed and is gofmt-formatted.
func (rw *Rewriter) Rewrite(filename string, src []byte) (Result, error) {
	start := time.Now()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return Result{}, fmt.Errorf("parse %s: %w", filename, err)
	}

	marker := capture.MarkerPattern(rw.engine())
	var spans []span
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil || fn.Doc == nil || !marker.MatchString(fn.Doc.Text()) {
			continue
		}
		spans = append(spans, span{
			name: funcName(fn),
			from: lineStart(src, fset.Position(fn.Doc.Pos()).Offset),
			to:   lineEnd(src, fset.Position(fn.End()).Offset),
		})
	}

	res := Result{Source: src}
	if len(spans) == 0 {
		return res, nil
	}

	p := rw.Pipeline()
	out := append([]byte(nil), src...)
	for i := len(spans) - 1; i >= 0; i-- {
		sp := spans[i]
		text := string(out[sp.from:sp.to])
		for _, d := range directive.Directives(text) {
			if format.Accepts(rw.Formatter, d.Directive.Prefix) {
				res.Directives++
			}
		}
		replaced := p.Run(text)
		logging.CodegenDebug("%s: rewrote %s", filepath.Base(filename), sp.name)
		out = append(out[:sp.from], append([]byte(replaced), out[sp.to:]...)...)
	}
	for _, sp := range spans {
		res.Functions = append(res.Functions, sp.name)
	}

	formatted, err := imports.Process(filename, out, &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return Result{}, fmt.Errorf("format %s: %w", filename, err)
	}
	res.Source = formatted

	logging.Codegen("rewrote %s: %d functions, %d directives in %v",
		filepath.Base(filename), len(res.Functions), res.Directives, time.Since(start))
	return res, nil
}

// RewriteFile reads and rewrites path.
func (rw *Rewriter) RewriteFile(path string) (Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	return rw.Rewrite(path, src)
}

// WriteFunc receives each rewritten file.
type WriteFunc func(path string, res Result) error

// RewriteFiles rewrites paths concurrently and hands each result to write.
// write may be called from several goroutines at once. The first error
// cancels the remaining files.
func (rw *Rewriter) RewriteFiles(ctx context.Context, paths []string, write WriteFunc) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for _, path := range paths {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			res, err := rw.RewriteFile(path)
			if err != nil {
				return err
			}
			return write(path, res)
		})
	}
	return eg.Wait()
}

// OutputPath places path under dir, keeping its base name.
func OutputPath(dir, path string) string {
	return filepath.Join(dir, filepath.Base(path))
}

// WriteTo returns a WriteFunc that writes every result into dir.
func WriteTo(dir string) WriteFunc {
	return func(path string, res Result) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		return os.WriteFile(OutputPath(dir, path), res.Source, 0o644)
	}
}

// WriteInPlace returns a WriteFunc that overwrites changed files.
func WriteInPlace() WriteFunc {
	return func(path string, res Result) error {
		if !res.Changed() {
			return nil
		}
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		return os.WriteFile(path, res.Source, info.Mode().Perm())
	}
}

func funcName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return fn.Name.Name
	}
	var buf bytes.Buffer
	recv := fn.Recv.List[0].Type
	if star, ok := recv.(*ast.StarExpr); ok {
		recv = star.X
	}
	if idx, ok := recv.(*ast.IndexExpr); ok {
		recv = idx.X
	}
	if id, ok := recv.(*ast.Ident); ok {
		buf.WriteString(id.Name + ".")
	}
	buf.WriteString(fn.Name.Name)
	return buf.String()
}

func lineStart(src []byte, offset int) int {
	for offset > 0 && src[offset-1] != '\n' {
		offset--
	}
	return offset
}

func lineEnd(src []byte, offset int) int {
	for offset < len(src) && src[offset] != '\n' {
		offset++
	}
	if offset < len(src) {
		offset++
	}
	return offset
}
