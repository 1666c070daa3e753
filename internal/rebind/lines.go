package rebind

import (
	"regexp"
	"strconv"
)

// lineMap relates lines of an assembled program back to the file the
// routine and its sibling declarations were captured from. The interpreter
// only sees the program, so its diagnostics are rewritten through the map.
type lineMap struct {
	file  string
	marks []lineMark
}

// lineMark says that program line prog holds line file of the source file.
// Marks are in increasing prog order and describe lines relative to the
// start of the program body.
type lineMark struct {
	prog int
	file int
}

func (m *lineMap) mark(prog, file int) {
	m.marks = append(m.marks, lineMark{prog: prog, file: file})
}

// lookup maps body line n to a source line. Lines before the first mark
// are generated binding declarations and have no source line.
func (m *lineMap) lookup(n int) (int, bool) {
	for i := len(m.marks) - 1; i >= 0; i-- {
		if mk := m.marks[i]; mk.prog <= n {
			return mk.file + n - mk.prog, true
		}
	}
	return 0, false
}

// posRe matches a "file.go:line:col:" or "line:col:" position at the start
// of a message or after a space.
var posRe = regexp.MustCompile(`(^|[\s(])((?:[^\s:()]+\.go:)?)(\d+):(\d+):`)

// translate rewrites the positions in msg. offset is the number of program
// lines that precede the body in the text the positions refer to.
func (m *lineMap) translate(msg string, offset int) string {
	return posRe.ReplaceAllStringFunc(msg, func(match string) string {
		sub := posRe.FindStringSubmatch(match)
		n, err := strconv.Atoi(sub[3])
		if err != nil {
			return match
		}
		line, ok := m.lookup(n - offset)
		if !ok {
			return match
		}
		return sub[1] + m.file + ":" + strconv.Itoa(line) + ":" + sub[4] + ":"
	})
}

// positionError carries a diagnostic whose positions point into the
// captured file.
type positionError struct {
	msg string
	err error
}

func (e *positionError) Error() string { return e.msg }
func (e *positionError) Unwrap() error { return e.err }

func (m *lineMap) wrap(err error, offset int) error {
	if err == nil {
		return nil
	}
	return &positionError{msg: m.translate(err.Error(), offset), err: err}
}
