package object

import "reflect"

// Symbols exports this package to the interpreter so rewritten routines can
// import it and name *Class and *Instance in their signatures.
var Symbols = map[string]map[string]reflect.Value{}

func init() {
	Symbols["footnote/internal/object/object"] = Exports()
}

// Exports returns the symbol table for this package.
func Exports() map[string]reflect.Value {
	return map[string]reflect.Value{
		// type definitions
		"Builder":  reflect.ValueOf((*Builder)(nil)),
		"Class":    reflect.ValueOf((*Class)(nil)),
		"Instance": reflect.ValueOf((*Instance)(nil)),
		"Kind":     reflect.ValueOf((*Kind)(nil)),
		"Member":   reflect.ValueOf((*Member)(nil)),

		// function, constant and variable definitions
		"Define":             reflect.ValueOf(Define),
		"ErrArguments":       reflect.ValueOf(&ErrArguments).Elem(),
		"ErrInconsistentMRO": reflect.ValueOf(&ErrInconsistentMRO).Elem(),
		"ErrNoMember":        reflect.ValueOf(&ErrNoMember).Elem(),
		"ErrNotCallable":     reflect.ValueOf(&ErrNotCallable).Elem(),
		"ErrUnbound":         reflect.ValueOf(&ErrUnbound).Elem(),
		"Invoke":             reflect.ValueOf(Invoke),
		"KindMethod":         reflect.ValueOf(KindMethod),
		"KindStatic":         reflect.ValueOf(KindStatic),
		"KindValue":          reflect.ValueOf(KindValue),
		"NewClass":           reflect.ValueOf(NewClass),
	}
}
