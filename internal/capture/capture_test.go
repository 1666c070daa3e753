package capture

import (
	"os"
	"path/filepath"
	"testing"

	"footnote/internal/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const file = `package demo

import (
	"fmt"
	str "strings"
)

// Greet says hello.
// @Footnote.inject
func Greet(name string) string {
	// log: greeting ${name}
	return fmt.Sprintf("hello %s", str.ToUpper(name))
}

func plain() int { return 1 }

type T struct{}

func (T) Method() {}

// Other is marked for another engine.
// @Trace.inject
func Other() {}
`

func TestParse(t *testing.T) {
	routines, err := Parse("demo.go", []byte(file))
	require.NoError(t, err)
	require.Len(t, routines, 3, "methods are not captured")

	greet, ok := Find(routines, "Greet")
	require.True(t, ok)
	assert.Equal(t, "demo.go", greet.File)
	assert.Equal(t, 8, greet.Line)
	assert.Equal(t, "Greet says hello.", greet.Doc)
	assert.True(t, greet.Marked)
	assert.Equal(t, `// Greet says hello.
// @Footnote.inject
func Greet(name string) string {
	// log: greeting ${name}
	return fmt.Sprintf("hello %s", str.ToUpper(name))
}
`, greet.Source)
	assert.Equal(t, []source.Import{{Path: "fmt"}, {Name: "str", Path: "strings"}}, greet.Imports)

	plain, ok := Find(routines, "plain")
	require.True(t, ok)
	assert.Equal(t, "func plain() int { return 1 }\n", plain.Source)
	assert.Equal(t, 15, plain.Line)
	assert.False(t, plain.Marked)
	assert.Empty(t, plain.Doc)

	other, _ := Find(routines, "Other")
	assert.False(t, other.Marked)

	_, ok = Find(routines, "Method")
	assert.False(t, ok)
}

func TestParseWithEngine(t *testing.T) {
	routines, err := Parse("demo.go", []byte(file), WithEngine("Trace"))
	require.NoError(t, err)

	marked := Marked(routines)
	require.Len(t, marked, 1)
	assert.Equal(t, "Other", marked[0].Name)
	assert.Equal(t, "Other is marked for another engine.", marked[0].Doc)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.go")
	require.NoError(t, os.WriteFile(path, []byte(file), 0644))

	routines, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, Marked(routines), 1)
	assert.Equal(t, path, routines[0].File)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.go"))
	assert.Error(t, err)
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse("bad.go", []byte("package bad\nfunc {"))
	assert.Error(t, err)
}

func TestParseNestedIndentationKeptVerbatim(t *testing.T) {
	src := "package demo\n\n\t// @Footnote.inject\n\tfunc Indented() {\n\t}\n"
	routines, err := Parse("demo.go", []byte(src))
	require.NoError(t, err)
	require.Len(t, routines, 1)
	assert.Equal(t, "\t// @Footnote.inject\n\tfunc Indented() {\n\t}\n", routines[0].Source)
	assert.True(t, routines[0].Marked)
	assert.Empty(t, routines[0].Doc)
}

func TestParseRecordsSiblingDeclarations(t *testing.T) {
	src := `package demo

import "fmt"

// limit caps output.
const (
	limit = 3
	name  = "demo"
)

var a, b = 1, 2

type box[T any] struct{ v T }

func (b *box[T]) get() T { return b.v }

func init() {}

func helper() {}

func Run() { fmt.Println(helper, limit) }
`
	routines, err := Parse("demo.go", []byte(src))
	require.NoError(t, err)

	run, ok := Find(routines, "Run")
	require.True(t, ok)
	assert.Equal(t, []source.Decl{
		{Names: []string{"limit", "name"}, Line: 5, Source: "// limit caps output.\nconst (\n\tlimit = 3\n\tname  = \"demo\"\n)\n"},
		{Names: []string{"a", "b"}, Line: 11, Source: "var a, b = 1, 2\n"},
		{Names: []string{"box"}, Line: 13, Source: "type box[T any] struct{ v T }\n"},
		{Names: []string{"box"}, Method: true, Line: 15, Source: "func (b *box[T]) get() T { return b.v }\n"},
		{Names: []string{"helper"}, Line: 19, Source: "func helper() {}\n"},
	}, run.Decls)

	helper, _ := Find(routines, "helper")
	for _, d := range helper.Decls {
		assert.NotEqual(t, []string{"helper"}, d.Names, "a routine is not its own sibling")
	}
	assert.Len(t, helper.Decls, 5)
}
