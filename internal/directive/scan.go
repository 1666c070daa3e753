package directive

import (
	"go/scanner"
	"go/token"
	"strings"
)

// Span is one line comment found in a piece of Go source.
type Span struct {
	Start, End  int    // byte range; End includes the line terminator when present
	Line        int    // 1-based line within the scanned text
	Text        string // comment body with the marker stripped and trimmed
	Directive   Directive
	IsDirective bool
}

// Find lexes src and returns every // comment in order. The text does not
// need to be a complete Go file; lexical errors are ignored.
func Find(src string) []Span {
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))

	var s scanner.Scanner
	s.Init(file, []byte(src), func(token.Position, string) {}, scanner.ScanComments)

	var spans []Span
	for {
		pos, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		if tok != token.COMMENT || !strings.HasPrefix(lit, "//") {
			continue
		}

		start := file.Offset(pos)
		end := strings.IndexByte(src[start:], '\n')
		if end < 0 {
			end = len(src)
		} else {
			end += start + 1
		}

		body := strings.TrimSpace(strings.TrimPrefix(strings.TrimRight(src[start:end], "\r\n"), "//"))
		d, ok := Parse(body)
		spans = append(spans, Span{
			Start:       start,
			End:         end,
			Line:        file.Line(pos),
			Text:        body,
			Directive:   d,
			IsDirective: ok,
		})
	}
	return spans
}

// Directives returns only the spans that parsed as directives.
func Directives(src string) []Span {
	var out []Span
	for _, sp := range Find(src) {
		if sp.IsDirective {
			out = append(out, sp)
		}
	}
	return out
}
