// Package cil defines the target IR: a stack-oriented bytecode representation
// with interned types, value-producing nodes and statement roots, organised
// into basic blocks with nested exception handler regions.
package cil

import (
	"fmt"
	"strings"
)

// TypeIdx is a handle to an interned Type
type TypeIdx uint32

// TypeList is a handle to an interned list of types
type TypeList uint32

// Int is an integer kind of the target
type Int uint8

const (
	I8 Int = iota
	I16
	I32
	I64
	I128
	ISize
	U8
	U16
	U32
	U64
	U128
	USize
)

// Signed reports whether the kind is signed
func (i Int) Signed() bool {
	return i <= ISize
}

// Is128 reports whether the kind needs runtime helper calls
func (i Int) Is128() bool {
	return i == I128 || i == U128
}

// ILName returns the IL spelling of the integer kind
func (i Int) ILName() string {
	names := []string{
		"int8", "int16", "int32", "int64", "[System.Runtime]System.Int128", "native int",
		"uint8", "uint16", "uint32", "uint64", "[System.Runtime]System.UInt128", "native uint",
	}
	if int(i) < len(names) {
		return names[i]
	}
	return "?"
}

// Float is a floating-point kind of the target
type Float uint8

const (
	F32 Float = iota
	F64
)

// ILName returns the IL spelling of the float kind
func (f Float) ILName() string {
	if f == F32 {
		return "float32"
	}
	return "float64"
}

// Type is the interface for target types. All variants are comparable so
// that types can be interned.
type Type interface {
	implType()
}

// TVoid is the absence of a value
type TVoid struct{}

// TBool is a one byte boolean
type TBool struct{}

// TInt is an integer type
type TInt struct {
	Kind Int
}

// TFloat is a floating-point type
type TFloat struct {
	Kind Float
}

// TPtr is an unmanaged pointer to Elem
type TPtr struct {
	Elem TypeIdx
}

// TClassRef is a nominal type, either a value type or a reference type
type TClassRef struct {
	Assembly  string // defining assembly, empty for the current one
	Name      string
	Valuetype bool
}

func (TVoid) implType()     {}
func (TBool) implType()     {}
func (TInt) implType()      {}
func (TFloat) implType()    {}
func (TPtr) implType()      {}
func (TClassRef) implType() {}

// Names and layout of the fat pointer value type
const (
	DataPointer = "data_pointer"
	Metadata    = "metadata"
)

// FieldDesc describes a field of a class
type FieldDesc struct {
	Owner TypeIdx
	Name  string
	Type  TypeIdx
}

// Sig is a method signature
type Sig struct {
	Inputs TypeList
	Output TypeIdx
}

// MethodRef names a method of a class
type MethodRef struct {
	Class  TypeIdx
	Name   string
	Sig    Sig
	Static bool
}

// Common type constructors

// Void interns the void type
func (a *Assembly) Void() TypeIdx {
	return a.AllocType(TVoid{})
}

// IntType interns an integer type
func (a *Assembly) IntType(k Int) TypeIdx {
	return a.AllocType(TInt{Kind: k})
}

// PtrTo interns a pointer to elem
func (a *Assembly) PtrTo(elem TypeIdx) TypeIdx {
	return a.AllocType(TPtr{Elem: elem})
}

// ValueClass interns a value type defined in the current assembly
func (a *Assembly) ValueClass(name string) TypeIdx {
	return a.AllocType(TClassRef{Name: name, Valuetype: true})
}

// Int128Class interns the runtime helper class for a 128-bit integer kind
func (a *Assembly) Int128Class(k Int) TypeIdx {
	name := "System.Int128"
	if k == U128 {
		name = "System.UInt128"
	}
	return a.AllocType(TClassRef{Assembly: "System.Runtime", Name: name, Valuetype: true})
}

// FatPtr interns the fat pointer value type for pointers to an unsized
// type whose canonical name is pointee
func (a *Assembly) FatPtr(pointee string) TypeIdx {
	return a.ValueClass("FatPtr" + mangle(pointee))
}

// PointedType returns the element type of a pointer type
func (a *Assembly) PointedType(t TypeIdx) (TypeIdx, bool) {
	if p, ok := a.Type(t).(TPtr); ok {
		return p.Elem, true
	}
	return 0, false
}

// TypeName returns the canonical IL spelling of a type
func (a *Assembly) TypeName(t TypeIdx) string {
	switch tt := a.Type(t).(type) {
	case TVoid:
		return "void"
	case TBool:
		return "bool"
	case TInt:
		return tt.Kind.ILName()
	case TFloat:
		return tt.Kind.ILName()
	case TPtr:
		return a.TypeName(tt.Elem) + "*"
	case TClassRef:
		name := tt.Name
		if tt.Assembly != "" {
			name = "[" + tt.Assembly + "]" + name
		}
		if tt.Valuetype {
			return "valuetype " + name
		}
		return "class " + name
	}
	panic("unreachable: unknown type variant")
}

// mangleCodes escapes the characters that are structural in IL names.
// '$' introduces every escape, so the encoding stays reversible.
var mangleCodes = map[byte]byte{
	'$':  '$',
	'*':  'P',
	'<':  'L',
	'>':  'R',
	',':  'C',
	'.':  'D',
	'`':  'G',
	' ':  'S',
	'[':  'B',
	']':  'E',
	'\'': 'Q',
}

// mangle turns a canonical type name into an identifier. Letters, digits
// and '_' are kept; any other byte becomes a '$' escape.
func mangle(name string) string {
	var sb strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_' || '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z':
			sb.WriteByte(c)
		case mangleCodes[c] != 0:
			sb.WriteByte('$')
			sb.WriteByte(mangleCodes[c])
		default:
			fmt.Fprintf(&sb, "$x%02X", c)
		}
	}
	return sb.String()
}
