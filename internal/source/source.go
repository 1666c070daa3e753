// Package source holds the captured definition of a routine: its text and
// the bindings it was declared against.
package source

import (
	"path"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"footnote/internal/scope"
)

// Import is one import of the file a routine was declared in.
type Import struct {
	Name string // explicit name, empty when the package name is implied
	Path string
}

// Ident returns the identifier the import is referred to by.
func (i Import) Ident() string {
	if i.Name != "" {
		return i.Name
	}
	return assumedName(i.Path)
}

// assumedName guesses a package name from its import path the way goimports
// does: major version suffixes and a go- prefix are dropped, and the name ends
// at the first non-identifier character.
func assumedName(importPath string) string {
	base := path.Base(importPath)
	if strings.HasPrefix(base, "v") {
		if _, err := strconv.Atoi(base[1:]); err == nil {
			if dir := path.Dir(importPath); dir != "." {
				base = path.Base(dir)
			}
		}
	}
	base = strings.TrimPrefix(base, "go-")
	if i := strings.IndexFunc(base, notIdentifier); i >= 0 {
		base = base[:i]
	}
	return base
}

func notIdentifier(ch rune) bool {
	return !('a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' ||
		'0' <= ch && ch <= '9' ||
		ch == '_' ||
		ch >= utf8.RuneSelf && (unicode.IsLetter(ch) || unicode.IsDigit(ch)))
}

// Spec renders the import as it appears in an import block.
func (i Import) Spec() string {
	if i.Name != "" {
		return i.Name + " " + strconv.Quote(i.Path)
	}
	return strconv.Quote(i.Path)
}

// Routine is a captured function definition. It is never mutated after
// capture; transforms produce new text.
type Routine struct {
	Name    string
	Doc     string
	File    string
	Line    int // line of the first captured line in File
	Source  string
	Imports []Import
	Globals scope.Scope
	Decls   []Decl // other top-level declarations of File
	Marked  bool
}

// Decl is a top-level declaration of the file a routine was captured from:
// a const, var or type group, a function, or a method. Names lists the
// identifiers it declares; for a method it holds the receiver's type name.
type Decl struct {
	Names  []string
	Method bool
	Line   int
	Source string
}

// New builds a routine from bare source text, as a test or an embedding
// program would.
func New(name, src string) *Routine {
	return &Routine{Name: name, File: name + ".go", Line: 1, Source: src}
}

// WithImports returns a copy of r with imports appended.
func (r *Routine) WithImports(imports ...Import) *Routine {
	c := *r
	c.Imports = append(append([]Import(nil), r.Imports...), imports...)
	return &c
}

// WithDecls returns a copy of r with decls appended.
func (r *Routine) WithDecls(decls ...Decl) *Routine {
	c := *r
	c.Decls = append(append([]Decl(nil), r.Decls...), decls...)
	return &c
}

// WithGlobals returns a copy of r whose globals are merged with g.
func (r *Routine) WithGlobals(g scope.Scope) *Routine {
	c := *r
	c.Globals = scope.Merge(r.Globals, g)
	return &c
}
