package format

import (
	"fmt"
	"io"

	"footnote/internal/scope"
)

// DefaultWriterVar is the binding name Printf writes through.
const DefaultWriterVar = "footnoteOut"

// Printf renders directives as fmt print calls. With Out set the call writes
// to a bound io.Writer; without it the call prints to standard output, which
// is what generated source wants.
type Printf struct {
	Prefixes []string
	Var      string
	Out      io.Writer
}

func (p *Printf) varName() string {
	if p.Var == "" {
		return DefaultWriterVar
	}
	return p.Var
}

func (p *Printf) Format(prefix, text string, args ...string) string {
	if p.Out == nil {
		return fmt.Sprintf(`fmt.Printf("%s\n"%s)`, text, argList(args))
	}
	return fmt.Sprintf(`fmt.Fprintf(%s, "%s\n"%s)`, p.varName(), text, argList(args))
}

func (p *Printf) Accepts(prefix string) bool {
	return allowed(p.Prefixes, prefix)
}

func (p *Printf) Context() scope.Scope {
	if p.Out == nil {
		return nil
	}
	return scope.Scope{p.varName(): p.Out}
}
