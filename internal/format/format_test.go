package format

import (
	"bytes"
	"testing"

	"footnote/internal/scope"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPrintf(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		p := &Printf{}
		assert.Equal(t, `fmt.Printf("Value is %v\n", x)`, p.Format("log", "Value is %v", "x"))
		assert.Equal(t, `fmt.Printf("ready\n")`, p.Format("log", "ready"))
		assert.Empty(t, ContextOf(p))
	})

	t.Run("bound writer", func(t *testing.T) {
		var buf bytes.Buffer
		p := &Printf{Out: &buf, Var: "out"}
		assert.Equal(t, `fmt.Fprintf(out, "a=%v b=%v\n", a, b+1)`, p.Format("log", "a=%v b=%v", "a", "b+1"))
		assert.Equal(t, scope.Scope{"out": &buf}, ContextOf(p))
	})

	t.Run("default var", func(t *testing.T) {
		var buf bytes.Buffer
		p := &Printf{Out: &buf}
		assert.Contains(t, ContextOf(p), DefaultWriterVar)
	})

	t.Run("prefix filter", func(t *testing.T) {
		p := &Printf{Prefixes: []string{"log"}}
		assert.True(t, Accepts(p, "log"))
		assert.False(t, Accepts(p, "TODO"))
		assert.True(t, Accepts(&Printf{}, "anything"))
	})
}

func TestZap(t *testing.T) {
	logger := zap.NewNop().Sugar()
	z := &Zap{Logger: logger}

	assert.Equal(t, `footnoteLog.Infof("Value is %v", x)`, z.Format("log", "Value is %v", "x"))
	assert.Equal(t, `footnoteLog.Debugf("n=%v", n)`, z.Format("debug", "n=%v", "n"))
	assert.Equal(t, `footnoteLog.Warnf("low")`, z.Format("warn", "low"))
	assert.Equal(t, `footnoteLog.Errorf("bad %v", err)`, z.Format("error", "bad %v", "err"))

	assert.True(t, z.Accepts("info"))
	assert.False(t, z.Accepts("TODO"), "prefixes without a level are not directives")

	restricted := &Zap{Prefixes: []string{"debug"}}
	assert.True(t, restricted.Accepts("debug"))
	assert.False(t, restricted.Accepts("info"))

	assert.Equal(t, scope.Scope{DefaultLoggerVar: logger}, z.Context())
	assert.Nil(t, (&Zap{}).Context())
}

func TestFuncAdapter(t *testing.T) {
	f := Func(func(prefix, text string, args ...string) string {
		return prefix + "|" + text
	})
	assert.Equal(t, "log|hi", f.Format("log", "hi"))
	assert.True(t, Accepts(f, "log"))
	assert.Empty(t, ContextOf(f))
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	f, err := New("printf", Options{Out: &buf, WriterVar: "w", Prefixes: []string{"log"}})
	require.NoError(t, err)
	p, ok := f.(*Printf)
	require.True(t, ok)
	assert.Equal(t, "w", p.Var)

	f, err = New("zap", Options{Logger: zap.NewNop(), LoggerVar: "lg"})
	require.NoError(t, err)
	z, ok := f.(*Zap)
	require.True(t, ok)
	assert.NotNil(t, z.Logger)
	assert.Equal(t, "lg", z.Var)

	_, err = New("xml", Options{})
	assert.ErrorContains(t, err, "unknown formatter kind")
}
