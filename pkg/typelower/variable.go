// Package typelower maps source types onto the target's type vocabulary.
//
// VariableType is the descriptor used by direct lowering paths and for
// canonical naming. GetType produces interned cil types for the place
// pipeline and statement lowering.
package typelower

import (
	"fmt"
	"strings"

	"github.com/tinco/rustc-codegen-clr/pkg/cil"
	"github.com/tinco/rustc-codegen-clr/pkg/mir"
)

// MaxTupleArity is the largest tuple that maps onto a single ValueTuple
const MaxTupleArity = 7

// VariableType is the interface for target type descriptors
type VariableType interface {
	implVariableType()
}

// Void is the unit type
type Void struct{}

// Int is an integer of a fixed width and signedness
type Int struct {
	Kind cil.Int
}

// Float is a 32 or 64 bit float
type Float struct {
	Kind cil.Float
}

// Bool is a one byte boolean
type Bool struct{}

// Ref is a pointer to an immutable value
type Ref struct {
	Elem VariableType
}

// RefMut is a pointer to a mutable value
type RefMut struct {
	Elem VariableType
}

// Array is a fixed-length array
type Array struct {
	Elem   VariableType
	Length uint64
}

// Slice is a slice; its length lives in the fat pointer metadata
type Slice struct {
	Elem VariableType
}

// Struct is a nominal struct type
type Struct struct {
	Name string
}

// Tuple is a structural tuple of 1 to 7 elements
type Tuple struct {
	Elems []VariableType
}

// Generic is an unresolved generic parameter
type Generic struct {
	Name string
}

func (Void) implVariableType()    {}
func (Int) implVariableType()     {}
func (Float) implVariableType()   {}
func (Bool) implVariableType()    {}
func (Ref) implVariableType()     {}
func (RefMut) implVariableType()  {}
func (Array) implVariableType()   {}
func (Slice) implVariableType()   {}
func (Struct) implVariableType()  {}
func (Tuple) implVariableType()   {}
func (Generic) implVariableType() {}

// IntKind maps a source integer width to a target integer kind
func IntKind(w mir.IntWidth, signed bool) cil.Int {
	kinds := map[mir.IntWidth][2]cil.Int{
		mir.W8:    {cil.I8, cil.U8},
		mir.W16:   {cil.I16, cil.U16},
		mir.W32:   {cil.I32, cil.U32},
		mir.W64:   {cil.I64, cil.U64},
		mir.W128:  {cil.I128, cil.U128},
		mir.WSize: {cil.ISize, cil.USize},
	}
	k, ok := kinds[w]
	if !ok {
		panic(fmt.Sprintf("unknown integer width %d", w))
	}
	if signed {
		return k[0]
	}
	return k[1]
}

// FloatKind maps a source float width to a target float kind.
// Half and quad precision floats have no target representation.
func FloatKind(w mir.FloatWidth) cil.Float {
	switch w {
	case mir.F32:
		return cil.F32
	case mir.F64:
		return cil.F64
	}
	cil.Unsupported("float type %s", w)
	return 0
}

// FromTy lowers a source type. Types with no lowering rule abort with an
// *cil.UnsupportedError.
func FromTy(tcx mir.TyCtxt, ty mir.Ty) VariableType {
	switch t := tcx.Monomorphize(ty).(type) {
	case mir.Int:
		return Int{Kind: IntKind(t.Width, true)}
	case mir.Uint:
		return Int{Kind: IntKind(t.Width, false)}
	case mir.Float:
		return Float{Kind: FloatKind(t.Width)}
	case mir.Bool:
		return Bool{}
	case mir.Char:
		// a unicode scalar value is always 4 bytes wide
		return Int{Kind: cil.U32}
	case mir.Array:
		return Array{Elem: FromTy(tcx, t.Elem), Length: t.Len}
	case mir.Slice:
		return Slice{Elem: FromTy(tcx, t.Elem)}
	case mir.Adt:
		switch t.Def.Kind {
		case mir.StructKind:
			return Struct{Name: t.String()}
		case mir.UnionKind:
			cil.Unsupported("union type %s", t)
		default:
			cil.Unsupported("enum type %s", t)
		}
	case mir.Ref:
		// lifetimes have no target representation
		return pointerTo(tcx, t.Mut, t.Pointee)
	case mir.RawPtr:
		return pointerTo(tcx, t.Mut, t.Pointee)
	case mir.Tuple:
		switch n := len(t.Elems); {
		case n == 0:
			return Void{}
		case n > MaxTupleArity:
			cil.Unsupported("tuple of %d elements", n)
		}
		elems := make([]VariableType, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = FromTy(tcx, e)
		}
		return Tuple{Elems: elems}
	case mir.Param:
		return Generic{Name: t.Name}
	case mir.Str:
		cil.Unsupported("string slice type")
	case mir.Never:
		cil.Unsupported("never type")
	case mir.Closure:
		cil.Unsupported("closure type %s", t.Name)
	case mir.FnPtr:
		cil.Unsupported("function pointer type %s", t)
	case mir.Dynamic:
		cil.Unsupported("trait object type %s", t)
	case mir.Foreign:
		cil.Unsupported("foreign type %s", t.Name)
	default:
		cil.Unsupported("type %v", ty)
	}
	panic("unreachable")
}

func pointerTo(tcx mir.TyCtxt, mut bool, pointee mir.Ty) VariableType {
	if mut {
		return RefMut{Elem: FromTy(tcx, pointee)}
	}
	return Ref{Elem: FromTy(tcx, pointee)}
}

// ILName returns the canonical target name of a type. Two different
// descriptors never share a name, except Ref and RefMut of the same
// element, which are the same target type.
func ILName(v VariableType) string {
	switch t := v.(type) {
	case Void:
		return "void"
	case Int:
		return t.Kind.ILName()
	case Float:
		return t.Kind.ILName()
	case Bool:
		return "bool"
	case Ref:
		return ILName(t.Elem) + "*"
	case RefMut:
		return ILName(t.Elem) + "*"
	case Struct:
		return t.Name
	case Generic:
		return t.Name
	case Array:
		return fmt.Sprintf("'RArray_%s_%d'", strings.ReplaceAll(ILName(t.Elem), "'", ""), t.Length)
	case Slice:
		return fmt.Sprintf("'RSlice_%s'", strings.ReplaceAll(ILName(t.Elem), "'", ""))
	case Tuple:
		if len(t.Elems) > MaxTupleArity {
			cil.Unsupported("tuple of %d elements", len(t.Elems))
		}
		names := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			names[i] = ILName(e)
		}
		return fmt.Sprintf("[System.Runtime]System.ValueTuple`%d<%s>", len(t.Elems), strings.Join(names, ","))
	}
	panic(fmt.Sprintf("unknown variable type %T", v))
}

// ArgName returns the name used in argument and local declarations.
// Tuples carry the valuetype prefix.
func ArgName(v VariableType) string {
	if _, ok := v.(Tuple); ok {
		return "valuetype " + ILName(v)
	}
	return ILName(v)
}

// IsVoid reports whether v is the unit type
func IsVoid(v VariableType) bool {
	_, ok := v.(Void)
	return ok
}

// PointedType returns the element of a Ref or RefMut
func PointedType(v VariableType) (VariableType, bool) {
	switch t := v.(type) {
	case Ref:
		return t.Elem, true
	case RefMut:
		return t.Elem, true
	}
	return nil, false
}
