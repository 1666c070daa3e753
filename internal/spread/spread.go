// Package spread builds class projections: a copy of a class whose routine
// members have been recompiled with the class itself in scope.
package spread

import (
	"context"
	"fmt"
	"strings"
	"time"

	"footnote/internal/logging"
	"footnote/internal/object"
	"footnote/internal/rebind"
	"footnote/internal/scope"
	"footnote/internal/source"

	"golang.org/x/sync/errgroup"
)

// Injector recompiles one routine against extra bindings. *rebind.Binder
// satisfies it.
type Injector interface {
	Inject(r *source.Routine, extra scope.Scope) (*rebind.Callable, error)
}

// Spreader recompiles every routine member of a class.
type Spreader struct {
	injector Injector
	limit    int
}

// New returns a Spreader. Member routines are compiled concurrently, at most
// limit at a time; limit <= 0 means no limit.
func New(inj Injector, limit int) *Spreader {
	return &Spreader{injector: inj, limit: limit}
}

// Spread binds global, shared by every member, and returns the function that
// projects a class.
func (s *Spreader) Spread(global scope.Scope) func(*object.Class) (*object.Class, error) {
	return func(c *object.Class) (*object.Class, error) {
		return s.Project(context.Background(), c, global)
	}
}

// Project builds the projection of c. Value members are copied with
// class-private names demangled; the projection derives from c's resolution
// order without c itself; each routine member is recompiled with the class
// name bound to the projection, overlaid by global.
func (s *Spreader) Project(ctx context.Context, c *object.Class, global scope.Scope) (*object.Class, error) {
	start := time.Now()
	log := logging.Get(logging.CategorySpread).With("class", c.Name)

	proj, err := object.NewClass(c.Name, c.MRO()[1:]...)
	if err != nil {
		return nil, fmt.Errorf("spread %s: %w", c.Name, err)
	}

	var routines []object.Member
	for _, m := range c.Members() {
		if m.Kind.IsRoutine() {
			routines = append(routines, m)
			continue
		}
		name, private := Demangle(c.Name, m.Name)
		if private {
			log.Debug("demangled %s -> %s", m.Name, name)
		}
		m.Name = name
		m.Private = m.Private || private
		proj.Set(m)
	}

	bindings := scope.Merge(scope.Scope{c.Name: proj}, global)

	compiled := make([]object.Member, len(routines))
	g, gctx := errgroup.WithContext(ctx)
	if s.limit > 0 {
		g.SetLimit(s.limit)
	}
	for i, m := range routines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := s.compile(m, bindings)
			if err != nil {
				return fmt.Errorf("spread %s.%s: %w", c.Name, m.Name, err)
			}
			compiled[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("projection failed: %v", err)
		return nil, err
	}

	for _, m := range compiled {
		proj.Set(m)
	}

	log.Info("projected %s: %d values, %d routines in %v",
		c.Name, len(proj.Members())-len(compiled), len(compiled), time.Since(start))
	return proj, nil
}

// compile recompiles a routine member and keeps its name and kind. Members
// bound without captured source have nothing to rewrite and are copied.
func (s *Spreader) compile(m object.Member, bindings scope.Scope) (object.Member, error) {
	if m.Routine == nil {
		return m, nil
	}
	c, err := s.injector.Inject(m.Routine, bindings)
	if err != nil {
		return object.Member{}, err
	}
	m.Func = c.Func()
	if m.Doc == "" {
		m.Doc = c.Doc
	}
	return m, nil
}

// Demangle strips the class-private prefix _<Class>__ from name. Leading
// underscores of the class name are ignored, as in the mangling scheme. Any
// other underscore pattern is returned unchanged.
func Demangle(class, name string) (string, bool) {
	trimmed := strings.TrimLeft(class, "_")
	if trimmed == "" {
		return name, false
	}
	prefix := "_" + trimmed + "__"
	if len(name) <= len(prefix) || !strings.HasPrefix(name, prefix) {
		return name, false
	}
	return name[len(prefix):], true
}
