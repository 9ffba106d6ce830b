package typelower

import (
	"fmt"

	"github.com/tinco/rustc-codegen-clr/pkg/cil"
)

// BaseIR is a single untyped stack operation, used by direct lowering
// paths that work on VariableType descriptors rather than cil trees.
type BaseIR interface {
	implBaseIR()
	String() string
}

// LDIndI loads a native int through a pointer
type LDIndI struct{}

// LDIndIn loads an integer of Size bytes through a pointer
type LDIndIn struct {
	Size uint8
}

// LDIndR4 loads a float32 through a pointer
type LDIndR4 struct{}

// LDIndR8 loads a float64 through a pointer
type LDIndR8 struct{}

// LDObj loads an object of the named type through a pointer
type LDObj struct {
	Name string
}

// STIndI stores a native int through a pointer
type STIndI struct{}

// STIndIn stores an integer of Size bytes through a pointer
type STIndIn struct {
	Size uint8
}

// STIndR4 stores a float32 through a pointer
type STIndR4 struct{}

// STIndR8 stores a float64 through a pointer
type STIndR8 struct{}

// STObj stores an object of the named type through a pointer
type STObj struct {
	Name string
}

// LDConstI8 pushes a small integer constant
type LDConstI8 struct {
	Value int8
}

// SizeOf pushes the size of the named type
type SizeOf struct {
	Name string
}

func (LDIndI) implBaseIR()    {}
func (LDIndIn) implBaseIR()   {}
func (LDIndR4) implBaseIR()   {}
func (LDIndR8) implBaseIR()   {}
func (LDObj) implBaseIR()     {}
func (STIndI) implBaseIR()    {}
func (STIndIn) implBaseIR()   {}
func (STIndR4) implBaseIR()   {}
func (STIndR8) implBaseIR()   {}
func (STObj) implBaseIR()     {}
func (LDConstI8) implBaseIR() {}
func (SizeOf) implBaseIR()    {}

func (LDIndI) String() string      { return "ldind.i" }
func (o LDIndIn) String() string   { return fmt.Sprintf("ldind.i%d", o.Size) }
func (LDIndR4) String() string     { return "ldind.r4" }
func (LDIndR8) String() string     { return "ldind.r8" }
func (o LDObj) String() string     { return "ldobj " + o.Name }
func (STIndI) String() string      { return "stind.i" }
func (o STIndIn) String() string   { return fmt.Sprintf("stind.i%d", o.Size) }
func (STIndR4) String() string     { return "stind.r4" }
func (STIndR8) String() string     { return "stind.r8" }
func (o STObj) String() string     { return "stobj " + o.Name }
func (o LDConstI8) String() string { return fmt.Sprintf("ldc.i4.s %d", o.Value) }
func (o SizeOf) String() string    { return "sizeof " + o.Name }

// intBytes returns the width of a fixed-size integer kind, or 0 for
// native and 128-bit kinds
func intBytes(k cil.Int) uint8 {
	switch k {
	case cil.I8, cil.U8:
		return 1
	case cil.I16, cil.U16:
		return 2
	case cil.I32, cil.U32:
		return 4
	case cil.I64, cil.U64:
		return 8
	}
	return 0
}

func isNative(k cil.Int) bool {
	return k == cil.ISize || k == cil.USize
}

// DerefOp returns the op that loads a value of type v through a v*
func DerefOp(v VariableType) BaseIR {
	switch t := v.(type) {
	case Ref, RefMut:
		return LDIndI{}
	case Bool:
		return LDIndIn{Size: 1}
	case Int:
		if isNative(t.Kind) {
			return LDIndI{}
		}
		if n := intBytes(t.Kind); n != 0 {
			return LDIndIn{Size: n}
		}
		return LDObj{Name: ILName(v)}
	case Float:
		if t.Kind == cil.F32 {
			return LDIndR4{}
		}
		return LDIndR8{}
	case Struct:
		return LDObj{Name: t.Name}
	case Array, Tuple:
		return LDObj{Name: ILName(v)}
	}
	cil.Unsupported("dereference of a pointer to %s", describe(v))
	return nil
}

// SizeofOp returns the op that pushes the size of v
func SizeofOp(v VariableType) BaseIR {
	switch t := v.(type) {
	case Ref, RefMut:
		return SizeOf{Name: "native int"}
	case Bool:
		return LDConstI8{Value: 1}
	case Int:
		if n := intBytes(t.Kind); n != 0 {
			return LDConstI8{Value: int8(n)}
		}
		return SizeOf{Name: ILName(v)}
	case Float:
		if t.Kind == cil.F32 {
			return LDConstI8{Value: 4}
		}
		return LDConstI8{Value: 8}
	case Struct:
		return SizeOf{Name: t.Name}
	case Array, Tuple:
		return SizeOf{Name: ILName(v)}
	}
	cil.Unsupported("size of %s", describe(v))
	return nil
}

// SetPointedOp returns the op that stores a value of type v through a v*
func SetPointedOp(v VariableType) BaseIR {
	switch t := v.(type) {
	case Ref, RefMut:
		return STIndI{}
	case Bool:
		return STIndIn{Size: 1}
	case Int:
		if isNative(t.Kind) {
			return STIndI{}
		}
		if n := intBytes(t.Kind); n != 0 {
			return STIndIn{Size: n}
		}
		return STObj{Name: ILName(v)}
	case Float:
		if t.Kind == cil.F32 {
			return STIndR4{}
		}
		return STIndR8{}
	case Struct:
		return STObj{Name: t.Name}
	case Array, Tuple:
		return STObj{Name: ILName(v)}
	}
	cil.Unsupported("store through a pointer to %s", describe(v))
	return nil
}

func describe(v VariableType) string {
	switch v.(type) {
	case Void:
		return "void"
	case Slice:
		return "unsized slice " + ILName(v)
	case Generic:
		return "generic parameter " + ILName(v)
	}
	return ILName(v)
}
