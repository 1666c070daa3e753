package codegen

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"footnote/internal/format"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoSrc = `package demo

// Plain is not marked.
func Plain(x int) int {
	// log: untouched ${x}
	return x
}

// Double doubles x.
// @Footnote.inject
func Double(x int) int {
	// log: doubling ${x}
	// just a note
	return x * 2
}

type T struct{}

// @Footnote.inject
func (t *T) Name(n string) string {
	// debug: name=${n}
	return n
}
`

func TestRewrite(t *testing.T) {
	res, err := New(&format.Printf{}).Rewrite("demo.go", []byte(demoSrc))
	require.NoError(t, err)

	out := string(res.Source)
	assert.Equal(t, []string{"Double", "T.Name"}, res.Functions)
	assert.Equal(t, 2, res.Directives)
	assert.True(t, res.Changed())

	assert.Contains(t, out, `import "fmt"`)
	assert.Contains(t, out, "\tfmt.Printf(\"doubling %v\\n\", x)\n")
	assert.Contains(t, out, "\tfmt.Printf(\"name=%v\\n\", n)\n")
	assert.Contains(t, out, "// log: untouched ${x}")
	assert.Contains(t, out, "// just a note")
	assert.Contains(t, out, "// Double doubles x.\nfunc Double(x int) int {")
	assert.NotContains(t, out, "@Footnote.inject")
}

func TestRewriteUnmarkedFileUnchanged(t *testing.T) {
	src := []byte("package demo\n\nfunc  A() {\n\t// log: hi\n}\n")
	res, err := New(&format.Printf{}).Rewrite("a.go", src)
	require.NoError(t, err)
	assert.Equal(t, src, res.Source)
	assert.False(t, res.Changed())
	assert.Zero(t, res.Directives)
}

func TestRewritePrefixFilter(t *testing.T) {
	src := `package demo

var footnoteLog interface{ Infof(string, ...any) }

// @Footnote.inject
func F() {
	// Deprecated: kept as a comment
	// info: ran
}
`
	f := &format.Zap{Prefixes: []string{"info"}}
	res, err := New(f).Rewrite("f.go", []byte(src))
	require.NoError(t, err)
	out := string(res.Source)
	assert.Equal(t, 1, res.Directives)
	assert.Contains(t, out, "// Deprecated: kept as a comment")
	assert.Contains(t, out, `footnoteLog.Infof("ran")`)
}

func TestRewriteCustomEngine(t *testing.T) {
	src := "package demo\n\n// @Trace.inject\nfunc F() {\n\t// log: x\n}\n"
	rw := &Rewriter{Formatter: &format.Printf{}, Engine: "Trace"}
	res, err := rw.Rewrite("f.go", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"F"}, res.Functions)

	res, err = New(&format.Printf{}).Rewrite("f.go", []byte(src))
	require.NoError(t, err)
	assert.Empty(t, res.Functions)
}

func TestRewriteParseError(t *testing.T) {
	_, err := New(&format.Printf{}).Rewrite("bad.go", []byte("package demo\nfunc {"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.go")
}

func TestRewriteFiles(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.go", "b.go", "c.go"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(demoSrc), 0o644))
		paths = append(paths, p)
	}

	var mu sync.Mutex
	seen := make(map[string]int)
	err := New(&format.Printf{}).RewriteFiles(context.Background(), paths, func(path string, res Result) error {
		mu.Lock()
		defer mu.Unlock()
		seen[filepath.Base(path)] = res.Directives
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a.go": 2, "b.go": 2, "c.go": 2}, seen)
}

func TestRewriteFilesMissing(t *testing.T) {
	err := New(&format.Printf{}).RewriteFiles(context.Background(),
		[]string{filepath.Join(t.TempDir(), "nope.go")},
		func(string, Result) error { return nil })
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteTo(t *testing.T) {
	src := filepath.Join(t.TempDir(), "demo.go")
	require.NoError(t, os.WriteFile(src, []byte(demoSrc), 0o644))
	out := filepath.Join(t.TempDir(), "gen")

	rw := New(&format.Printf{})
	require.NoError(t, rw.RewriteFiles(context.Background(), []string{src}, WriteTo(out)))

	data, err := os.ReadFile(filepath.Join(out, "demo.go"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `fmt.Printf("doubling %v\n", x)`)
}

func TestWriteInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.go")
	require.NoError(t, os.WriteFile(path, []byte(demoSrc), 0o600))

	rw := New(&format.Printf{})
	require.NoError(t, rw.RewriteFiles(context.Background(), []string{path}, WriteInPlace()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "@Footnote.inject")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
