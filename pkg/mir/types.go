// Package mir defines the source-side program model consumed by the CIL
// backend: a typed, place-based mid-level IR with locals, projections,
// statements and terminators over a control flow graph.
package mir

import (
	"fmt"
	"strings"
)

// Ty is the interface for all source types
type Ty interface {
	implTy()
	String() string
}

// IntWidth is the width of a signed or unsigned integer type
type IntWidth int

const (
	W8 IntWidth = iota
	W16
	W32
	W64
	W128
	WSize // pointer sized
)

func (w IntWidth) String() string {
	names := []string{"8", "16", "32", "64", "128", "size"}
	if int(w) < len(names) {
		return names[w]
	}
	return "?"
}

// Bytes returns the width in bytes, using ptrSize for WSize.
func (w IntWidth) Bytes(ptrSize int64) int64 {
	switch w {
	case W8:
		return 1
	case W16:
		return 2
	case W32:
		return 4
	case W64:
		return 8
	case W128:
		return 16
	}
	return ptrSize
}

// FloatWidth is the width of a floating-point type
type FloatWidth int

const (
	F16 FloatWidth = iota
	F32
	F64
	F128
)

func (w FloatWidth) String() string {
	names := []string{"f16", "f32", "f64", "f128"}
	if int(w) < len(names) {
		return names[w]
	}
	return "?"
}

// Int is a signed integer type (i8 ... i128, isize)
type Int struct {
	Width IntWidth
}

// Uint is an unsigned integer type (u8 ... u128, usize)
type Uint struct {
	Width IntWidth
}

// Float is a floating-point type
type Float struct {
	Width FloatWidth
}

// Bool is the boolean type
type Bool struct{}

// Char is a unicode scalar value, always 4 bytes wide
type Char struct{}

// Str is the unsized string slice type
type Str struct{}

// Never is the type of diverging expressions
type Never struct{}

// Ref is a reference &T or &mut T
type Ref struct {
	Mut     bool
	Pointee Ty
}

// RawPtr is a raw pointer *const T or *mut T
type RawPtr struct {
	Mut     bool
	Pointee Ty
}

// Array is a fixed-length array [T; N]
type Array struct {
	Elem Ty
	Len  uint64
}

// Slice is the unsized slice type [T]
type Slice struct {
	Elem Ty
}

// Tuple is a tuple type; the empty tuple is unit
type Tuple struct {
	Elems []Ty
}

// Adt is an instantiation of a struct, enum or union definition
type Adt struct {
	Def  *AdtDef
	Args []Ty
}

// Closure is a closure type with its captured upvars
type Closure struct {
	Name   string
	Upvars []Ty
}

// FnPtr is a function pointer type
type FnPtr struct {
	Inputs []Ty
	Output Ty
}

// Dynamic is a trait object type dyn Trait
type Dynamic struct {
	Trait string
}

// Param is a generic parameter, resolved by monomorphization
type Param struct {
	Index int
	Name  string
}

// Foreign is an opaque extern type
type Foreign struct {
	Name string
}

// Marker methods for Ty interface
func (Int) implTy()     {}
func (Uint) implTy()    {}
func (Float) implTy()   {}
func (Bool) implTy()    {}
func (Char) implTy()    {}
func (Str) implTy()     {}
func (Never) implTy()   {}
func (Ref) implTy()     {}
func (RawPtr) implTy()  {}
func (Array) implTy()   {}
func (Slice) implTy()   {}
func (Tuple) implTy()   {}
func (Adt) implTy()     {}
func (Closure) implTy() {}
func (FnPtr) implTy()   {}
func (Dynamic) implTy() {}
func (Param) implTy()   {}
func (Foreign) implTy() {}

func (t Int) String() string   { return "i" + t.Width.String() }
func (t Uint) String() string  { return "u" + t.Width.String() }
func (t Float) String() string { return t.Width.String() }
func (Bool) String() string    { return "bool" }
func (Char) String() string    { return "char" }
func (Str) String() string     { return "str" }
func (Never) String() string   { return "!" }

func (t Ref) String() string {
	if t.Mut {
		return "&mut " + tyString(t.Pointee)
	}
	return "&" + tyString(t.Pointee)
}

func (t RawPtr) String() string {
	if t.Mut {
		return "*mut " + tyString(t.Pointee)
	}
	return "*const " + tyString(t.Pointee)
}

func (t Array) String() string {
	return fmt.Sprintf("[%s; %d]", tyString(t.Elem), t.Len)
}

func (t Slice) String() string { return "[" + tyString(t.Elem) + "]" }

func (t Tuple) String() string {
	if len(t.Elems) == 1 {
		return "(" + tyString(t.Elems[0]) + ",)"
	}
	return "(" + joinTys(t.Elems) + ")"
}

func (t Adt) String() string {
	name := "?"
	if t.Def != nil {
		name = t.Def.Name
	}
	if len(t.Args) == 0 {
		return name
	}
	return name + "<" + joinTys(t.Args) + ">"
}

func (t Closure) String() string {
	if len(t.Upvars) == 0 {
		return "closure " + t.Name
	}
	return "closure " + t.Name + "(" + joinTys(t.Upvars) + ")"
}

func (t FnPtr) String() string {
	return "fn(" + joinTys(t.Inputs) + ") -> " + tyString(t.Output)
}

func (t Dynamic) String() string { return "dyn " + t.Trait }
func (t Param) String() string   { return t.Name }
func (t Foreign) String() string { return "extern " + t.Name }

func tyString(t Ty) string {
	if t == nil {
		return "?"
	}
	return t.String()
}

func joinTys(tys []Ty) string {
	parts := make([]string, len(tys))
	for i, t := range tys {
		parts[i] = tyString(t)
	}
	return strings.Join(parts, ", ")
}

// Common type constructors

// Unit returns the empty tuple type
func Unit() Ty {
	return Tuple{}
}

// I32 returns the i32 type
func I32() Ty {
	return Int{Width: W32}
}

// Usize returns the usize type
func Usize() Ty {
	return Uint{Width: WSize}
}

// U8 returns the u8 type
func U8() Ty {
	return Uint{Width: W8}
}

// RefTo returns a shared reference to the given type
func RefTo(t Ty) Ty {
	return Ref{Pointee: t}
}

// IsUnit reports whether t is the empty tuple
func IsUnit(t Ty) bool {
	tup, ok := t.(Tuple)
	return ok && len(tup.Elems) == 0
}

// Equal checks if two types are structurally equal
func Equal(a, b Ty) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch ta := a.(type) {
	case Int:
		tb, ok := b.(Int)
		return ok && ta.Width == tb.Width
	case Uint:
		tb, ok := b.(Uint)
		return ok && ta.Width == tb.Width
	case Float:
		tb, ok := b.(Float)
		return ok && ta.Width == tb.Width
	case Bool:
		_, ok := b.(Bool)
		return ok
	case Char:
		_, ok := b.(Char)
		return ok
	case Str:
		_, ok := b.(Str)
		return ok
	case Never:
		_, ok := b.(Never)
		return ok
	case Ref:
		tb, ok := b.(Ref)
		return ok && ta.Mut == tb.Mut && Equal(ta.Pointee, tb.Pointee)
	case RawPtr:
		tb, ok := b.(RawPtr)
		return ok && ta.Mut == tb.Mut && Equal(ta.Pointee, tb.Pointee)
	case Array:
		tb, ok := b.(Array)
		return ok && ta.Len == tb.Len && Equal(ta.Elem, tb.Elem)
	case Slice:
		tb, ok := b.(Slice)
		return ok && Equal(ta.Elem, tb.Elem)
	case Tuple:
		tb, ok := b.(Tuple)
		return ok && equalList(ta.Elems, tb.Elems)
	case Adt:
		tb, ok := b.(Adt)
		return ok && ta.Def == tb.Def && equalList(ta.Args, tb.Args)
	case Closure:
		tb, ok := b.(Closure)
		return ok && ta.Name == tb.Name && equalList(ta.Upvars, tb.Upvars)
	case FnPtr:
		tb, ok := b.(FnPtr)
		return ok && equalList(ta.Inputs, tb.Inputs) && Equal(ta.Output, tb.Output)
	case Dynamic:
		tb, ok := b.(Dynamic)
		return ok && ta.Trait == tb.Trait
	case Param:
		tb, ok := b.(Param)
		return ok && ta.Index == tb.Index
	case Foreign:
		tb, ok := b.(Foreign)
		return ok && ta.Name == tb.Name
	}
	return false
}

func equalList(a, b []Ty) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
