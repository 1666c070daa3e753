package format

import (
	"fmt"

	"footnote/internal/scope"

	"go.uber.org/zap"
)

// DefaultLoggerVar is the binding name Zap logs through.
const DefaultLoggerVar = "footnoteLog"

// levels maps directive prefixes to SugaredLogger methods.
var levels = map[string]string{
	"log":   "Infof",
	"info":  "Infof",
	"debug": "Debugf",
	"warn":  "Warnf",
	"error": "Errorf",
}

// Zap renders directives as calls on a *zap.SugaredLogger. The prefix picks
// the level; prefixes without a level are not directives for this formatter.
type Zap struct {
	Prefixes []string
	Var      string
	Logger   *zap.SugaredLogger
}

func (z *Zap) varName() string {
	if z.Var == "" {
		return DefaultLoggerVar
	}
	return z.Var
}

func (z *Zap) Format(prefix, text string, args ...string) string {
	method, ok := levels[prefix]
	if !ok {
		method = "Infof"
	}
	return fmt.Sprintf(`%s.%s("%s"%s)`, z.varName(), method, text, argList(args))
}

func (z *Zap) Accepts(prefix string) bool {
	_, ok := levels[prefix]
	return ok && allowed(z.Prefixes, prefix)
}

func (z *Zap) Context() scope.Scope {
	if z.Logger == nil {
		return nil
	}
	return scope.Scope{z.varName(): z.Logger}
}
