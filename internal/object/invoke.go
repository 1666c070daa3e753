package object

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrArguments is returned when arguments do not fit a function's signature.
var ErrArguments = errors.New("bad arguments")

// Invoke calls fn with args. Arguments are assigned when their type allows it
// and converted between numeric kinds otherwise; nil becomes the zero value.
// A panic inside fn is returned as an error.
func Invoke(fn reflect.Value, args ...any) (out []any, err error) {
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %s", ErrNotCallable, fn.Kind())
	}
	t := fn.Type()

	n := t.NumIn()
	if t.IsVariadic() {
		if len(args) < n-1 {
			return nil, fmt.Errorf("%w: want at least %d, got %d", ErrArguments, n-1, len(args))
		}
	} else if len(args) != n {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrArguments, n, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		pt := paramType(t, i)
		v, err := coerce(a, pt)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d: %v", ErrArguments, i, err)
		}
		in[i] = v
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	results := fn.Call(in)
	out = make([]any, len(results))
	for i, r := range results {
		out[i] = r.Interface()
	}
	return out, nil
}

func paramType(t reflect.Type, i int) reflect.Type {
	if t.IsVariadic() && i >= t.NumIn()-1 {
		return t.In(t.NumIn() - 1).Elem()
	}
	return t.In(i)
}

func coerce(a any, pt reflect.Type) (reflect.Value, error) {
	if a == nil {
		return reflect.Zero(pt), nil
	}
	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(pt) {
		return v, nil
	}
	if isNumeric(v.Kind()) && isNumeric(pt.Kind()) {
		return v.Convert(pt), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", v.Type(), pt)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
