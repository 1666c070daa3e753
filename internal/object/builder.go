package object

import (
	"fmt"
	"reflect"

	"footnote/internal/source"
)

// Builder assembles a class from a member table and its bases.
type Builder struct {
	name    string
	bases   []*Class
	members []Member
	err     error
}

// Define starts a class definition.
func Define(name string, bases ...*Class) *Builder {
	return &Builder{name: name, bases: bases}
}

// Value adds a data attribute.
func (b *Builder) Value(name string, v any) *Builder {
	b.members = append(b.members, Member{Name: name, Kind: KindValue, Value: v})
	return b
}

// Private adds a data attribute flagged private.
func (b *Builder) Private(name string, v any) *Builder {
	b.members = append(b.members, Member{Name: name, Kind: KindValue, Value: v, Private: true})
	return b
}

// Method adds an instance method from captured source. The member takes the
// routine's name.
func (b *Builder) Method(r *source.Routine) *Builder {
	return b.routine(KindMethod, r)
}

// Static adds a static routine from captured source.
func (b *Builder) Static(r *source.Routine) *Builder {
	return b.routine(KindStatic, r)
}

func (b *Builder) routine(kind Kind, r *source.Routine) *Builder {
	if r == nil {
		b.fail(fmt.Errorf("nil routine for %s member", kind))
		return b
	}
	b.members = append(b.members, Member{Name: r.Name, Kind: kind, Routine: r, Doc: r.Doc})
	return b
}

// Bind adds an already compiled routine member.
func (b *Builder) Bind(name string, kind Kind, fn any) *Builder {
	v := reflect.ValueOf(fn)
	if !kind.IsRoutine() || v.Kind() != reflect.Func {
		b.fail(fmt.Errorf("member %s: %w", name, ErrNotCallable))
		return b
	}
	b.members = append(b.members, Member{Name: name, Kind: kind, Func: v})
	return b
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build creates the class.
func (b *Builder) Build() (*Class, error) {
	if b.err != nil {
		return nil, fmt.Errorf("class %s: %w", b.name, b.err)
	}
	c, err := NewClass(b.name, b.bases...)
	if err != nil {
		return nil, err
	}
	for _, m := range b.members {
		c.Set(m)
	}
	return c, nil
}
