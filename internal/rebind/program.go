package rebind

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"reflect"
	"sort"
	"strings"

	"footnote/internal/scope"
	"footnote/internal/source"

	"github.com/traefik/yaegi/interp"
)

const (
	bindingsPath  = "footnote/bindings"
	bindingsAlias = "__bindings"
	symbolPrefix  = "B_"
)

// unit is one assembled program: package clause, imports, a package variable
// per binding, the transformed routine, then the sibling declarations it
// uses. lines maps body lines back to the captured file and offset is the
// number of program lines before the body.
type unit struct {
	program  string
	bindings []string
	imports  []source.Import
	decls    []source.Decl
	defines  bool
	lines    *lineMap
	offset   int
}

// assemble builds the program for r. The routine is followed by the sibling
// declarations it uses. Imports are reduced to the ones the program refers
// to, and packages it refers to without importing are looked up in the
// interpreter's export tables by name.
func assemble(r *source.Routine, text string, ctx scope.Scope, canonical string, pkgs packageIndex) (*unit, error) {
	var keys []string
	for _, k := range ctx.Keys() {
		if k == canonical || k == bindingsAlias {
			continue
		}
		keys = append(keys, k)
	}

	decls := siblings(text, r.Decls, ctx, canonical)

	lines := &lineMap{file: r.File}
	var body strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&body, "var %s = %s.%s%s\n", k, bindingsAlias, symbolPrefix, k)
	}
	write := func(src string, line int) {
		body.WriteString("\n")
		lines.mark(strings.Count(body.String(), "\n")+1, line)
		body.WriteString(src)
		if !strings.HasSuffix(src, "\n") {
			body.WriteString("\n")
		}
	}
	write(text, r.Line)
	for _, d := range decls {
		write(d.Source, d.Line)
	}

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, r.File, "package main\n"+body.String(), parser.ParseComments)
	if err != nil {
		return nil, lines.wrap(err, 1)
	}

	refs := packageRefs(f)
	var imports []source.Import
	covered := make(map[string]bool)
	for _, imp := range r.Imports {
		id := imp.Ident()
		if id == "_" || id == "." {
			continue
		}
		if _, shadowed := ctx[id]; shadowed || !refs[id] || covered[id] {
			continue
		}
		covered[id] = true
		imports = append(imports, imp)
	}
	for _, name := range sortedKeys(refs) {
		if covered[name] {
			continue
		}
		if p, ok := pkgs.lookup(name); ok {
			imp := source.Import{Path: p}
			if imp.Ident() != name {
				imp.Name = name
			}
			imports = append(imports, imp)
		}
	}
	if len(keys) > 0 {
		imports = append(imports, source.Import{Name: bindingsAlias, Path: bindingsPath})
	}

	var prog strings.Builder
	prog.WriteString("package main\n\n")
	if len(imports) > 0 {
		prog.WriteString("import (\n")
		for _, imp := range imports {
			prog.WriteString("\t" + imp.Spec() + "\n")
		}
		prog.WriteString(")\n\n")
	}
	offset := strings.Count(prog.String(), "\n")
	prog.WriteString(body.String())

	return &unit{
		program:  prog.String(),
		bindings: keys,
		imports:  imports,
		decls:    decls,
		defines:  declares(f, canonical),
		lines:    lines,
		offset:   offset,
	}, nil
}

// packageRefs returns the names used as the left side of a selector that do
// not resolve to anything declared in the file.
func packageRefs(f *ast.File) map[string]bool {
	unresolved := make(map[*ast.Ident]bool, len(f.Unresolved))
	for _, id := range f.Unresolved {
		unresolved[id] = true
	}
	refs := make(map[string]bool)
	ast.Inspect(f, func(n ast.Node) bool {
		if sel, ok := n.(*ast.SelectorExpr); ok {
			if id, ok := sel.X.(*ast.Ident); ok && unresolved[id] {
				refs[id.Name] = true
			}
		}
		return true
	})
	return refs
}

func declares(f *ast.File, name string) bool {
	for _, d := range f.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok && fd.Recv == nil && fd.Name.Name == name {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// packageIndex maps a package name to the import path the interpreter knows
// it under.
type packageIndex map[string]string

// newPackageIndex indexes export tables keyed "importpath/name". When several
// paths share a name the path ending in that name wins, then the shortest,
// then the lexically first.
func newPackageIndex(tables ...interp.Exports) packageIndex {
	idx := make(packageIndex)
	for _, t := range tables {
		for key := range t {
			i := strings.LastIndexByte(key, '/')
			if i <= 0 {
				continue
			}
			p, name := key[:i], key[i+1:]
			if cur, ok := idx[name]; !ok || better(p, cur, name) {
				idx[name] = p
			}
		}
	}
	return idx
}

func better(p, cur, name string) bool {
	if pb, cb := path.Base(p) == name, path.Base(cur) == name; pb != cb {
		return pb
	}
	if len(p) != len(cur) {
		return len(p) < len(cur)
	}
	return p < cur
}

func (idx packageIndex) lookup(name string) (string, bool) {
	p, ok := idx[name]
	return p, ok
}

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// bindingExports publishes ctx as addressable package variables of the
// bindings package.
func bindingExports(ctx scope.Scope, keys []string) interp.Exports {
	syms := make(map[string]reflect.Value, len(keys))
	for _, k := range keys {
		syms[symbolPrefix+k] = variable(ctx[k])
	}
	return interp.Exports{bindingsPath + "/" + path.Base(bindingsPath): syms}
}

func variable(v any) reflect.Value {
	if v == nil {
		return reflect.New(anyType).Elem()
	}
	rv := reflect.ValueOf(v)
	t := rv.Type()
	// The interpreter reads a nil pointer in an export table as a type.
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		t = anyType
	}
	out := reflect.New(t).Elem()
	out.Set(rv)
	return out
}
