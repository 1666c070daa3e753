package main

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"footnote/internal/scope"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runBindings []string

// runCmd recompiles a function and calls it
var runCmd = &cobra.Command{
	Use:   "run FILE FUNC [ARGS...]",
	Short: "Recompile FUNC from FILE with directives rewritten, then call it",
	Long: `Captures FUNC from FILE, rewrites its directive comments, evaluates it
in an embedded interpreter and calls it with ARGS. Arguments are converted to
the parameter types (strings, booleans and numbers). Extra bindings visible to
the function are given with --set name=value.

Example:
  footnote run demo.go Greet bob --set greeting=hi`,
	Args: cobra.MinimumNArgs(2),
	RunE: runFunc,
}

func runFunc(cmd *cobra.Command, args []string) error {
	file, name, rest := args[0], args[1], args[2:]

	extra, err := parseBindings(runBindings)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	eng, err := newEngine(out)
	if err != nil {
		return err
	}

	fn, err := eng.InjectFile(file, name, extra)
	if err != nil {
		return err
	}

	callArgs, err := convertArgs(fn.Func().Type(), rest)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if logger != nil {
		logger.Debug("calling", zap.String("func", name), zap.Strings("args", rest))
	}

	results, err := fn.Call(callArgs...)
	if err != nil {
		return err
	}
	for _, r := range results {
		if e, ok := r.(error); ok && e != nil {
			return fmt.Errorf("%s returned error: %w", name, e)
		}
		if r == nil {
			continue
		}
		fmt.Fprintln(out, r)
	}
	return nil
}

// parseBindings turns name=value pairs into a scope. Values that parse as an
// int or a float keep that type, true and false are bools, and anything else
// is a string.
func parseBindings(pairs []string) (scope.Scope, error) {
	s := scope.Scope{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid binding %q: want name=value", p)
		}
		s[k] = parseValue(v)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func parseValue(v string) any {
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	switch v {
	case "true":
		return true
	case "false":
		return false
	}
	return v
}

// convertArgs converts command line arguments to the parameter types of t.
func convertArgs(t reflect.Type, raw []string) ([]any, error) {
	n := t.NumIn()
	if t.IsVariadic() {
		if len(raw) < n-1 {
			return nil, fmt.Errorf("want at least %d arguments, got %d", n-1, len(raw))
		}
	} else if len(raw) != n {
		return nil, fmt.Errorf("want %d arguments, got %d", n, len(raw))
	}

	out := make([]any, len(raw))
	for i, s := range raw {
		pt := t.In(min(i, n-1))
		if t.IsVariadic() && i >= n-1 {
			pt = pt.Elem()
		}
		v, err := convertArg(s, pt)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func convertArg(s string, t reflect.Type) (any, error) {
	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(s, 0, t.Bits())
		if err != nil {
			return nil, err
		}
		v.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(s, 0, t.Bits())
		if err != nil {
			return nil, err
		}
		v.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return nil, err
		}
		v.SetFloat(f)
	case reflect.Interface:
		if t.NumMethod() != 0 {
			return nil, fmt.Errorf("cannot pass %q as %s", s, t)
		}
		return parseValue(s), nil
	default:
		return nil, fmt.Errorf("unsupported parameter type %s", t)
	}
	return v.Interface(), nil
}
