package rebind

import (
	"go/ast"
	"go/parser"
	"go/token"
	"sort"

	"footnote/internal/scope"
	"footnote/internal/source"
)

// freeNames returns the identifiers src uses without declaring them. src is
// parsed as the body of a main package; on a parse error nil is returned and
// the caller reports the error when it parses the whole program.
func freeNames(src string) []string {
	f, err := parser.ParseFile(token.NewFileSet(), "", "package main\n"+src, 0)
	if err != nil {
		return nil
	}
	return unresolved(f)
}

func unresolved(f *ast.File) []string {
	seen := make(map[string]bool, len(f.Unresolved))
	var out []string
	for _, id := range f.Unresolved {
		if !seen[id.Name] {
			seen[id.Name] = true
			out = append(out, id.Name)
		}
	}
	return out
}

// siblings selects the declarations the routine text depends on, following
// references from one declaration to the next. Methods come along with their
// receiver type. A declaration is left out when any of its names is bound in
// ctx, so bindings take precedence over the file's own declarations.
func siblings(text string, decls []source.Decl, ctx scope.Scope, canonical string) []source.Decl {
	if len(decls) == 0 {
		return nil
	}

	byName := make(map[string][]int)
	methods := make(map[string][]int)
	for i, d := range decls {
		if shadowedDecl(d, ctx, canonical) {
			continue
		}
		for _, n := range d.Names {
			if d.Method {
				methods[n] = append(methods[n], i)
			} else {
				byName[n] = append(byName[n], i)
			}
		}
	}

	picked := make(map[int]bool)
	queue := freeNames(text)
	include := func(i int) {
		if picked[i] {
			return
		}
		picked[i] = true
		queue = append(queue, freeNames(decls[i].Source)...)
	}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, i := range byName[name] {
			include(i)
		}
		for _, i := range methods[name] {
			include(i)
		}
	}

	idx := make([]int, 0, len(picked))
	for i := range picked {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]source.Decl, len(idx))
	for j, i := range idx {
		out[j] = decls[i]
	}
	return out
}

func shadowedDecl(d source.Decl, ctx scope.Scope, canonical string) bool {
	if d.Method {
		return bound(ctx, d.Names[0])
	}
	for _, n := range d.Names {
		if bound(ctx, n) || n == canonical {
			return true
		}
	}
	return false
}

func bound(ctx scope.Scope, name string) bool {
	_, ok := ctx[name]
	return ok
}
