// Package scope models the Execution Context a rewritten routine is evaluated
// against: an explicit, ordered list of named binding layers where later
// layers override earlier ones.
package scope

import (
	"errors"
	"fmt"
	"go/token"
	"sort"
)

// Standard layer names, in increasing precedence.
const (
	LayerGlobals   = "globals"
	LayerExtra     = "extra"
	LayerFormatter = "formatter"
)

// ErrInvalidKey is returned when a binding name is not a Go identifier.
var ErrInvalidKey = errors.New("invalid binding name")

// Scope maps binding names to values.
type Scope map[string]any

// Clone returns a shallow copy. A nil scope clones to an empty one.
func (s Scope) Clone() Scope {
	out := make(Scope, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Keys returns the binding names in sorted order.
func (s Scope) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate reports the first key (in sorted order) that is not an identifier.
// Keywords and the blank identifier are rejected.
func (s Scope) Validate() error {
	for _, k := range s.Keys() {
		if k == "_" || !token.IsIdentifier(k) {
			return fmt.Errorf("%w: %q", ErrInvalidKey, k)
		}
	}
	return nil
}

// Merge folds scopes left to right; later scopes win on key collision.
func Merge(scopes ...Scope) Scope {
	out := Scope{}
	for _, s := range scopes {
		for k, v := range s {
			out[k] = v
		}
	}
	return out
}

// Layer is one named binding set.
type Layer struct {
	Name     string
	Bindings Scope
}

// Chain is an ordered list of layers, lowest precedence first.
type Chain []Layer

// Merge flattens the chain.
func (c Chain) Merge() Scope {
	scopes := make([]Scope, 0, len(c))
	for _, l := range c {
		scopes = append(scopes, l.Bindings)
	}
	return Merge(scopes...)
}

// Origin returns the name of the layer whose binding for key wins.
func (c Chain) Origin(key string) (string, bool) {
	for i := len(c) - 1; i >= 0; i-- {
		if _, ok := c[i].Bindings[key]; ok {
			return c[i].Name, true
		}
	}
	return "", false
}

// Overrides lists, for every key bound in more than one layer, the layer that
// won. Used for debug logging.
func (c Chain) Overrides() map[string]string {
	seen := make(map[string]int)
	for _, l := range c {
		for k := range l.Bindings {
			seen[k]++
		}
	}
	out := make(map[string]string)
	for k, n := range seen {
		if n > 1 {
			out[k], _ = c.Origin(k)
		}
	}
	return out
}
