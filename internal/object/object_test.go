package object

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"footnote/internal/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustClass(t *testing.T, name string, bases ...*Class) *Class {
	t.Helper()
	c, err := NewClass(name, bases...)
	require.NoError(t, err)
	return c
}

func mroNames(c *Class) []string {
	var out []string
	for _, k := range c.MRO() {
		out = append(out, k.Name)
	}
	return out
}

func TestMRODiamond(t *testing.T) {
	o := mustClass(t, "O")
	a := mustClass(t, "A", o)
	b := mustClass(t, "B", o)
	c := mustClass(t, "C", a, b)

	assert.Equal(t, []string{"C", "A", "B", "O"}, mroNames(c))
	assert.True(t, c.IsSubclass(o))
	assert.False(t, a.IsSubclass(b))
	assert.Equal(t, []*Class{a, b}, c.Bases())
}

func TestMROClassic(t *testing.T) {
	// The standard C3 example.
	o := mustClass(t, "O")
	a := mustClass(t, "A", o)
	b := mustClass(t, "B", o)
	c := mustClass(t, "C", o)
	d := mustClass(t, "D", o)
	e := mustClass(t, "E", o)
	k1 := mustClass(t, "K1", a, b, c)
	k2 := mustClass(t, "K2", d, b, e)
	k3 := mustClass(t, "K3", d, a)
	z := mustClass(t, "Z", k1, k2, k3)

	assert.Equal(t, []string{"Z", "K1", "K2", "K3", "D", "A", "B", "C", "E", "O"}, mroNames(z))
}

func TestMROInconsistent(t *testing.T) {
	o := mustClass(t, "O")
	a := mustClass(t, "A", o)
	b := mustClass(t, "B", a)

	_, err := NewClass("Bad", a, b)
	require.ErrorIs(t, err, ErrInconsistentMRO)
	assert.Contains(t, err.Error(), "(A, B)")
}

func TestLookupAlongMRO(t *testing.T) {
	base, err := Define("Base").
		Value("greeting", "hello").
		Value("shared", 1).
		Bind("Describe", KindStatic, func() string { return "base" }).
		Build()
	require.NoError(t, err)

	child, err := Define("Child", base).
		Value("shared", 2).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "hello", child.Get("greeting"))
	assert.Equal(t, 2, child.Get("shared"))
	assert.Nil(t, child.Get("missing"))

	m, owner, ok := child.Lookup("Describe")
	require.True(t, ok)
	assert.Equal(t, base, owner)
	assert.Equal(t, KindStatic, m.Kind)

	out, err := child.Call("Describe")
	require.NoError(t, err)
	assert.Equal(t, []any{"base"}, out)

	assert.Equal(t, map[string]any{"shared": 2}, child.Values())
}

func TestClassCallErrors(t *testing.T) {
	c, err := Define("C").
		Value("x", 1).
		Static(source.New("later", "func later() {}")).
		Build()
	require.NoError(t, err)

	_, err = c.Call("missing")
	assert.ErrorIs(t, err, ErrNoMember)

	_, err = c.Call("x")
	assert.ErrorIs(t, err, ErrNotCallable)

	_, err = c.Call("later")
	assert.ErrorIs(t, err, ErrUnbound)
}

func TestInstance(t *testing.T) {
	c, err := Define("Counter").
		Value("step", 2).
		Bind("Add", KindMethod, func(self *Instance, n int) int {
			total := self.Get("total").(int) + n*self.Get("step").(int)
			self.Set("total", total)
			return total
		}).
		Bind("Zero", KindStatic, func() int { return 0 }).
		Build()
	require.NoError(t, err)

	inst := c.New(map[string]any{"total": 0})
	assert.Equal(t, c, inst.Class())

	out, err := inst.Call("Add", 3)
	require.NoError(t, err)
	assert.Equal(t, []any{6}, out)
	assert.Equal(t, 6, inst.Get("total"))

	out, err = inst.Call("Zero")
	require.NoError(t, err)
	assert.Equal(t, []any{0}, out)

	_, err = inst.Call("step")
	assert.ErrorIs(t, err, ErrNotCallable)

	inst.Set("step", 10)
	assert.Equal(t, 10, inst.Get("step"))
	assert.Equal(t, 2, c.Get("step"), "instance attributes do not leak to the class")
	assert.Equal(t, map[string]any{"total": 6, "step": 10}, inst.Attrs())
}

func TestInstanceConcurrentAccess(t *testing.T) {
	c, err := Define("C").Build()
	require.NoError(t, err)
	inst := c.New(nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inst.Set("k", i)
			_ = inst.Get("k")
		}(i)
	}
	wg.Wait()
	assert.Contains(t, inst.Attrs(), "k")
}

func TestSetReplacesInPlace(t *testing.T) {
	c, err := Define("C").Value("a", 1).Value("b", 2).Build()
	require.NoError(t, err)

	c.Set(Member{Name: "a", Kind: KindValue, Value: 10})
	members := c.Members()
	require.Len(t, members, 2)
	assert.Equal(t, "a", members[0].Name)
	assert.Equal(t, 10, members[0].Value)

	m, ok := c.Own("b")
	require.True(t, ok)
	assert.Equal(t, 2, m.Value)
	_, ok = c.Own("zzz")
	assert.False(t, ok)
}

func TestBuilderErrors(t *testing.T) {
	_, err := Define("C").Bind("x", KindValue, func() {}).Build()
	assert.ErrorIs(t, err, ErrNotCallable)

	_, err = Define("C").Bind("x", KindStatic, 42).Build()
	assert.ErrorIs(t, err, ErrNotCallable)

	_, err = Define("C").Method(nil).Build()
	assert.ErrorContains(t, err, "nil routine")
}

func TestBuilderPrivate(t *testing.T) {
	c, err := Define("C").Private("secret", 42).Build()
	require.NoError(t, err)
	m, ok := c.Own("secret")
	require.True(t, ok)
	assert.True(t, m.Private)
	assert.False(t, m.Bound())
}

func TestInvoke(t *testing.T) {
	add := reflect.ValueOf(func(a, b float64) float64 { return a + b })
	out, err := Invoke(add, 1, 2.5)
	require.NoError(t, err)
	assert.Equal(t, []any{3.5}, out)

	join := reflect.ValueOf(func(sep string, parts ...string) string {
		s := ""
		for i, p := range parts {
			if i > 0 {
				s += sep
			}
			s += p
		}
		return s
	})
	out, err = Invoke(join, "-", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, []any{"a-b"}, out)

	out, err = Invoke(join, "-")
	require.NoError(t, err)
	assert.Equal(t, []any{""}, out)

	ptr := reflect.ValueOf(func(p *int) bool { return p == nil })
	out, err = Invoke(ptr, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{true}, out)

	_, err = Invoke(add, 1)
	assert.ErrorIs(t, err, ErrArguments)

	_, err = Invoke(add, "1", 2)
	assert.ErrorIs(t, err, ErrArguments)

	_, err = Invoke(reflect.ValueOf(42))
	assert.ErrorIs(t, err, ErrNotCallable)

	boom := reflect.ValueOf(func() { panic(errors.New("boom")) })
	_, err = Invoke(boom)
	assert.ErrorContains(t, err, "panic: boom")
}

func TestSymbols(t *testing.T) {
	syms, ok := Symbols["footnote/internal/object/object"]
	require.True(t, ok)
	assert.Contains(t, syms, "Class")
	assert.Contains(t, syms, "Instance")
	assert.Equal(t, reflect.TypeOf((*Instance)(nil)), syms["Instance"].Type())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "value", KindValue.String())
	assert.Equal(t, "method", KindMethod.String())
	assert.Equal(t, "static", KindStatic.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
	assert.True(t, KindStatic.IsRoutine())
	assert.False(t, KindValue.IsRoutine())
}
