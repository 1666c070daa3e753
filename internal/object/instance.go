package object

import (
	"fmt"
	"sync"
)

// Instance is an object of a Class. Attribute access is safe for concurrent
// use.
type Instance struct {
	class *Class

	mu    sync.RWMutex
	attrs map[string]any
}

// Class returns the instance's class.
func (i *Instance) Class() *Class {
	return i.class
}

// Get returns an instance attribute, falling back to the class.
func (i *Instance) Get(name string) any {
	i.mu.RLock()
	v, ok := i.attrs[name]
	i.mu.RUnlock()
	if ok {
		return v
	}
	return i.class.Get(name)
}

// Set stores an instance attribute.
func (i *Instance) Set(name string, v any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.attrs[name] = v
}

// Attrs returns a copy of the instance attributes.
func (i *Instance) Attrs() map[string]any {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make(map[string]any, len(i.attrs))
	for k, v := range i.attrs {
		out[k] = v
	}
	return out
}

// Call calls a routine member. Methods receive the instance as their first
// argument.
func (i *Instance) Call(name string, args ...any) ([]any, error) {
	m, _, ok := i.class.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", i.class.Name, name, ErrNoMember)
	}
	switch {
	case !m.Kind.IsRoutine():
		return nil, fmt.Errorf("%s.%s: %w", i.class.Name, name, ErrNotCallable)
	case !m.Func.IsValid():
		return nil, fmt.Errorf("%s.%s: %w", i.class.Name, name, ErrUnbound)
	case m.Kind == KindMethod:
		return Invoke(m.Func, append([]any{i}, args...)...)
	default:
		return Invoke(m.Func, args...)
	}
}
