// Package directive recognizes comment-encoded directives such as
//
//	// log: Value is ${x}
//
// and decomposes them into a prefix, a fmt-style template and the ordered
// placeholder expressions.
package directive

import (
	"fmt"
	"regexp"
	"strings"
)

// Slot is the anonymous substitution slot placed where a placeholder stood.
const Slot = "%v"

var (
	// placeholderRe matches ${...} whose interior is word characters,
	// whitespace and - + . ( ) { }. Unbalanced braces are not special-cased.
	placeholderRe = regexp.MustCompile(`\$\{[\s\p{L}\p{Nd}_\-\+\.\(\)\{\}]+\}`)

	prefixRe = regexp.MustCompile(`^[\p{L}\p{Nd}_]+:`)
)

// Directive is one parsed comment directive.
type Directive struct {
	Prefix   string
	Template string
	Args     []string
}

// String renders the directive for diagnostics.
func (d Directive) String() string {
	if len(d.Args) == 0 {
		return fmt.Sprintf("%s: %s", d.Prefix, d.Template)
	}
	return fmt.Sprintf("%s: %s %v", d.Prefix, d.Template, d.Args)
}

// Parse decomposes a comment body (the text after the comment marker, already
// trimmed). It reports false when the body does not start with <identifier>:.
func Parse(comment string) (Directive, bool) {
	m := prefixRe.FindString(comment)
	if m == "" {
		return Directive{}, false
	}

	template := strings.TrimSpace(prefixRe.ReplaceAllString(replacePlaceholders(comment), ""))

	return Directive{
		Prefix:   m[:len(m)-1],
		Template: template,
		Args:     findArgs(comment),
	}, true
}

// replacePlaceholders swaps every placeholder for Slot and escapes the literal
// text in between so the result embeds in a Go interpreted string literal and
// reads as a fmt format string.
func replacePlaceholders(s string) string {
	var b strings.Builder
	last := 0
	for _, loc := range placeholderRe.FindAllStringIndex(s, -1) {
		b.WriteString(escape(s[last:loc[0]]))
		b.WriteString(Slot)
		last = loc[1]
	}
	b.WriteString(escape(s[last:]))
	return b.String()
}

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `%`, `%%`)

func escape(s string) string {
	return escaper.Replace(s)
}

func findArgs(s string) []string {
	matches := placeholderRe.FindAllString(s, -1)
	if len(matches) == 0 {
		return nil
	}
	args := make([]string, 0, len(matches))
	for _, m := range matches {
		args = append(args, m[2:len(m)-1])
	}
	return args
}
