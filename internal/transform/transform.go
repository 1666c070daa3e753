// Package transform implements the ordered text pipeline applied to a
// captured Source Unit before it is recompiled: directive substitution,
// annotation-marker removal, header canonicalization and dedent.
package transform

import (
	"go/scanner"
	"go/token"
	"regexp"
	"strings"
	"time"

	"footnote/internal/directive"
	"footnote/internal/format"
	"footnote/internal/logging"
)

// Stage is a pure text-to-text transform.
type Stage func(string) string

// NamedStage pairs a stage with the name it is logged under.
type NamedStage struct {
	Name string
	Run  Stage
}

// Pipeline applies its stages as a left fold.
type Pipeline struct {
	Stages []NamedStage
}

// Default assembles the standard pipeline. Substitution runs first so that
// inserted code is de-indented along with the block around it.
func Default(f format.Formatter, engine, canonical string) Pipeline {
	return Pipeline{Stages: []NamedStage{
		{Name: "substitute", Run: Substitute(f)},
		{Name: "remove-marker", Run: RemoveMarker(engine)},
		{Name: "rename-header", Run: RenameHeader(canonical)},
		{Name: "dedent", Run: Dedent},
	}}
}

// Run applies every stage in order.
func (p Pipeline) Run(src string) string {
	for _, st := range p.Stages {
		start := time.Now()
		src = st.Run(src)
		logging.PipelineDebug("stage %s done in %v", st.Name, time.Since(start))
	}
	return src
}

// Substitute replaces every directive comment, including its line terminator,
// with the formatter's code followed by a newline. Other comments, and
// directives whose prefix the formatter rejects, are left verbatim.
func Substitute(f format.Formatter) Stage {
	return func(src string) string {
		var b strings.Builder
		last := 0
		for _, sp := range directive.Find(src) {
			if !sp.IsDirective || !format.Accepts(f, sp.Directive.Prefix) {
				continue
			}
			d := sp.Directive
			code := f.Format(d.Prefix, d.Template, d.Args...)
			logging.DirectiveDebug("line %d: %s -> %s", sp.Line, d, code)

			b.WriteString(src[last:sp.Start])
			b.WriteString(code)
			b.WriteString("\n")
			last = sp.End
		}
		if last == 0 {
			return src
		}
		b.WriteString(src[last:])
		return b.String()
	}
}

// RemoveMarker deletes every @<engine>.inject token.
func RemoveMarker(engine string) Stage {
	re := regexp.MustCompile(`@` + regexp.QuoteMeta(engine) + `\.inject\b`)
	return func(src string) string {
		return re.ReplaceAllString(src, "")
	}
}

// StripMarkerLines deletes whole comment lines that hold nothing but the
// marker. Generated files use it so no empty comments are left behind.
func StripMarkerLines(engine string) Stage {
	re := regexp.MustCompile(`(?m)^[ \t]*//[ \t]*@` + regexp.QuoteMeta(engine) + `\.inject\b[ \t]*\r?\n`)
	remove := RemoveMarker(engine)
	return func(src string) string {
		return remove(re.ReplaceAllString(src, ""))
	}
}

// RenameHeader renames the first named function header to canonical, so the
// definition can be found after evaluation regardless of its original name.
// Method headers and function literals have no name directly after the func
// keyword and are skipped.
func RenameHeader(canonical string) Stage {
	return func(src string) string {
		fset := token.NewFileSet()
		file := fset.AddFile("", fset.Base(), len(src))

		var s scanner.Scanner
		s.Init(file, []byte(src), nil, 0)

		afterFunc := false
		for {
			pos, tok, lit := s.Scan()
			if tok == token.EOF {
				return src
			}
			if afterFunc && tok == token.IDENT {
				off := file.Offset(pos)
				return src[:off] + canonical + src[off+len(lit):]
			}
			afterFunc = tok == token.FUNC
		}
	}
}

// Dedent removes the leading whitespace shared by every non-blank line.
// Lines holding only whitespace are emptied.
func Dedent(src string) string {
	lines := strings.SplitAfter(src, "\n")

	margin := ""
	first := true
	for _, line := range lines {
		content := strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(content) == "" {
			continue
		}
		indent := content[:len(content)-len(strings.TrimLeft(content, " \t"))]
		if first {
			margin, first = indent, false
			continue
		}
		margin = commonPrefix(margin, indent)
		if margin == "" {
			break
		}
	}

	var b strings.Builder
	b.Grow(len(src))
	for _, line := range lines {
		content := strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(content) == "" {
			b.WriteString(line[len(content):])
			continue
		}
		b.WriteString(strings.TrimPrefix(line, margin))
	}
	return b.String()
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}
