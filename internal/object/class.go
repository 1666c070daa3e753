// Package object is the explicit class model used by the class spreader: a
// class is a descriptor holding an ordered member table and its bases, with
// a C3 method resolution order. Members flag privacy explicitly instead of
// encoding it in their name.
package object

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"footnote/internal/source"
)

var (
	ErrInconsistentMRO = errors.New("cannot create a consistent method resolution order")
	ErrNoMember        = errors.New("no such member")
	ErrNotCallable     = errors.New("member is not callable")
	ErrUnbound         = errors.New("routine member has not been compiled")
)

// Kind classifies a member.
type Kind int

const (
	KindValue  Kind = iota // data attribute
	KindMethod             // receives the instance as first argument
	KindStatic             // called without an instance
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindMethod:
		return "method"
	case KindStatic:
		return "static"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsRoutine reports whether members of this kind are callables.
func (k Kind) IsRoutine() bool {
	return k == KindMethod || k == KindStatic
}

// Member is one entry of a class body.
type Member struct {
	Name    string
	Kind    Kind
	Private bool
	Doc     string

	Value   any             // KindValue
	Routine *source.Routine // routine members, as declared
	Func    reflect.Value   // routine members, once compiled
}

// Bound reports whether a routine member has a callable attached.
func (m *Member) Bound() bool {
	return m.Kind.IsRoutine() && m.Func.IsValid()
}

// Class is a class descriptor.
type Class struct {
	Name string

	bases []*Class
	mro   []*Class

	mu      sync.RWMutex
	members []*Member
	index   map[string]*Member
}

// NewClass creates an empty class deriving from bases.
func NewClass(name string, bases ...*Class) (*Class, error) {
	c := &Class{
		Name:  name,
		bases: append([]*Class(nil), bases...),
		index: make(map[string]*Member),
	}
	mro, err := linearize(c)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", name, err)
	}
	c.mro = mro
	return c, nil
}

// linearize computes the C3 linearization of c.
func linearize(c *Class) ([]*Class, error) {
	var seqs [][]*Class
	for _, b := range c.bases {
		seqs = append(seqs, append([]*Class(nil), b.mro...))
	}
	seqs = append(seqs, append([]*Class(nil), c.bases...))

	out := []*Class{c}
	for {
		live := seqs[:0]
		for _, s := range seqs {
			if len(s) > 0 {
				live = append(live, s)
			}
		}
		seqs = live
		if len(seqs) == 0 {
			return out, nil
		}

		var head *Class
		for _, s := range seqs {
			if !inTail(s[0], seqs) {
				head = s[0]
				break
			}
		}
		if head == nil {
			return nil, fmt.Errorf("%w for bases %s", ErrInconsistentMRO, names(c.bases))
		}

		out = append(out, head)
		for i, s := range seqs {
			if s[0] == head {
				seqs[i] = s[1:]
			}
		}
	}
}

func inTail(c *Class, seqs [][]*Class) bool {
	for _, s := range seqs {
		for _, t := range s[1:] {
			if t == c {
				return true
			}
		}
	}
	return false
}

func names(classes []*Class) string {
	parts := make([]string, len(classes))
	for i, c := range classes {
		parts[i] = c.Name
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Bases returns the direct bases.
func (c *Class) Bases() []*Class {
	return append([]*Class(nil), c.bases...)
}

// MRO returns the resolution order, starting with c itself.
func (c *Class) MRO() []*Class {
	return append([]*Class(nil), c.mro...)
}

// IsSubclass reports whether other appears in c's resolution order.
func (c *Class) IsSubclass(other *Class) bool {
	for _, k := range c.mro {
		if k == other {
			return true
		}
	}
	return false
}

// Set adds or replaces an own member. Replacing keeps the original position.
func (c *Class) Set(m Member) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.index[m.Name]; ok {
		*existing = m
		return
	}
	mm := m
	c.members = append(c.members, &mm)
	c.index[m.Name] = &mm
}

// Members returns copies of the own members in declaration order.
func (c *Class) Members() []Member {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Member, len(c.members))
	for i, m := range c.members {
		out[i] = *m
	}
	return out
}

// Own returns an own member.
func (c *Class) Own(name string) (Member, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.index[name]
	if !ok {
		return Member{}, false
	}
	return *m, true
}

// Lookup finds name along the resolution order and reports the class that
// defines it.
func (c *Class) Lookup(name string) (Member, *Class, bool) {
	for _, k := range c.mro {
		if m, ok := k.Own(name); ok {
			return m, k, true
		}
	}
	return Member{}, nil, false
}

// Get returns a value member, or the callable of a bound routine member, or
// nil when name is not found.
func (c *Class) Get(name string) any {
	m, _, ok := c.Lookup(name)
	if !ok {
		return nil
	}
	return memberValue(m)
}

func memberValue(m Member) any {
	if m.Kind == KindValue {
		return m.Value
	}
	if m.Func.IsValid() {
		return m.Func.Interface()
	}
	return nil
}

// Values returns the own value members keyed by name.
func (c *Class) Values() map[string]any {
	out := make(map[string]any)
	for _, m := range c.Members() {
		if m.Kind == KindValue {
			out[m.Name] = m.Value
		}
	}
	return out
}

// Call calls a routine member through the class. Methods called this way
// take the instance as their first explicit argument.
func (c *Class) Call(name string, args ...any) ([]any, error) {
	m, _, ok := c.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", c.Name, name, ErrNoMember)
	}
	if !m.Kind.IsRoutine() {
		return nil, fmt.Errorf("%s.%s: %w", c.Name, name, ErrNotCallable)
	}
	if !m.Func.IsValid() {
		return nil, fmt.Errorf("%s.%s: %w", c.Name, name, ErrUnbound)
	}
	return Invoke(m.Func, args...)
}

// New creates an instance with the given attributes.
func (c *Class) New(attrs map[string]any) *Instance {
	inst := &Instance{class: c, attrs: make(map[string]any, len(attrs))}
	for k, v := range attrs {
		inst.attrs[k] = v
	}
	return inst
}

func (c *Class) String() string {
	return "<class " + c.Name + ">"
}
