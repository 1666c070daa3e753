// Package capture extracts routines from Go source files. Each receiver-less
// top-level function becomes a source.Routine whose text spans whole lines,
// from its doc comment (where the annotation marker lives) to its closing
// brace.
package capture

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"footnote/internal/logging"
	"footnote/internal/source"
)

// DefaultEngine is the engine name used in the marker when none is given.
const DefaultEngine = "Footnote"

type options struct {
	engine string
}

// Option configures capture.
type Option func(*options)

// WithEngine sets the engine name recognized in @<engine>.inject markers.
func WithEngine(name string) Option {
	return func(o *options) { o.engine = name }
}

// MarkerPattern matches the annotation marker for engine.
func MarkerPattern(engine string) *regexp.Regexp {
	return regexp.MustCompile(`@` + regexp.QuoteMeta(engine) + `\.inject\b`)
}

// ParseFile reads and parses path.
func ParseFile(path string, opts ...Option) ([]*source.Routine, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(path, content, opts...)
}

// Parse extracts routines from src. filename is recorded on every routine so
// diagnostics point at the real file.
func Parse(filename string, src []byte, opts ...Option) ([]*source.Routine, error) {
	start := time.Now()
	o := options{engine: DefaultEngine}
	for _, opt := range opts {
		opt(&o)
	}
	marker := MarkerPattern(o.engine)

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		logging.Get(logging.CategoryCapture).Error("parse failed: %s - %v", filename, err)
		return nil, err
	}

	imports := fileImports(file)
	decls := fileDecls(fset, file, src)

	var routines []*source.Routine
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil || fn.Body == nil {
			continue
		}

		first := fn.Pos()
		if fn.Doc != nil {
			first = fn.Doc.Pos()
		}
		from := lineStart(src, fset.Position(first).Offset)
		to := lineEnd(src, fset.Position(fn.End()).Offset)

		r := &source.Routine{
			Name:    fn.Name.Name,
			File:    filename,
			Line:    fset.Position(first).Line,
			Source:  string(src[from:to]),
			Imports: imports,
			Decls:   without(decls, fn.Name.Name),
		}
		if fn.Doc != nil {
			r.Doc, r.Marked = docText(fn.Doc, marker)
		}
		routines = append(routines, r)
	}

	logging.CaptureDebug("captured %d routines from %s in %v", len(routines), filepath.Base(filename), time.Since(start))
	return routines, nil
}

// Find returns the routine named name.
func Find(routines []*source.Routine, name string) (*source.Routine, bool) {
	for _, r := range routines {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// Marked filters routines carrying the annotation marker.
func Marked(routines []*source.Routine) []*source.Routine {
	var out []*source.Routine
	for _, r := range routines {
		if r.Marked {
			out = append(out, r)
		}
	}
	return out
}

func fileImports(file *ast.File) []source.Import {
	var imports []source.Import
	for _, spec := range file.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		imp := source.Import{Path: p}
		if spec.Name != nil {
			imp.Name = spec.Name.Name
		}
		imports = append(imports, imp)
	}
	return imports
}

// fileDecls returns the top-level declarations of file other than imports,
// init and main, each spanning whole lines from its doc comment.
func fileDecls(fset *token.FileSet, file *ast.File, src []byte) []source.Decl {
	var decls []source.Decl
	for _, decl := range file.Decls {
		var (
			d   source.Decl
			doc *ast.CommentGroup
		)
		switch decl := decl.(type) {
		case *ast.GenDecl:
			if decl.Tok == token.IMPORT {
				continue
			}
			doc = decl.Doc
			for _, spec := range decl.Specs {
				switch spec := spec.(type) {
				case *ast.ValueSpec:
					for _, id := range spec.Names {
						d.Names = append(d.Names, id.Name)
					}
				case *ast.TypeSpec:
					d.Names = append(d.Names, spec.Name.Name)
				}
			}
		case *ast.FuncDecl:
			if decl.Body == nil {
				continue
			}
			doc = decl.Doc
			if decl.Recv != nil {
				name, ok := receiverType(decl.Recv)
				if !ok {
					continue
				}
				d.Names, d.Method = []string{name}, true
				break
			}
			if decl.Name.Name == "init" || decl.Name.Name == "main" {
				continue
			}
			d.Names = []string{decl.Name.Name}
		default:
			continue
		}

		first := decl.Pos()
		if doc != nil {
			first = doc.Pos()
		}
		from := lineStart(src, fset.Position(first).Offset)
		to := lineEnd(src, fset.Position(decl.End()).Offset)
		d.Line = fset.Position(first).Line
		d.Source = string(src[from:to])
		decls = append(decls, d)
	}
	return decls
}

// receiverType returns the base type name of a method receiver.
func receiverType(recv *ast.FieldList) (string, bool) {
	if recv == nil || len(recv.List) == 0 {
		return "", false
	}
	expr := recv.List[0].Type
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		case *ast.Ident:
			return e.Name, true
		default:
			return "", false
		}
	}
}

// without drops the declaration of name. Package-level names are declared
// once per file, so that is the routine itself.
func without(decls []source.Decl, name string) []source.Decl {
	out := make([]source.Decl, 0, len(decls))
	for _, d := range decls {
		if !d.Method && len(d.Names) == 1 && d.Names[0] == name {
			continue
		}
		out = append(out, d)
	}
	return out
}

// docText returns the doc comment without marker lines.
func docText(doc *ast.CommentGroup, marker *regexp.Regexp) (string, bool) {
	marked := false
	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if marker.MatchString(line) {
			marked = true
			if strings.TrimSpace(marker.ReplaceAllString(line, "")) == "" {
				continue
			}
			line = strings.TrimSpace(marker.ReplaceAllString(line, ""))
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), marked
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
