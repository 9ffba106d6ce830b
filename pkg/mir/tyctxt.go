package mir

import "fmt"

// Layout is the size and alignment of a type
type Layout struct {
	Size  int64
	Align int64
}

// IsZST reports whether values of the type occupy no storage
func (l Layout) IsZST() bool {
	return l.Size == 0
}

// TyCtxt is the type and layout oracle the backend queries.
// It stands in for the host compiler's type checker.
type TyCtxt interface {
	// LayoutOf returns the layout of a sized, monomorphic type
	LayoutOf(t Ty) Layout
	// Monomorphize substitutes the instance's generic arguments into t
	Monomorphize(t Ty) Ty
	// IsFat reports whether a pointer to t carries metadata
	IsFat(pointee Ty) bool
}

// Instance is a TyCtxt for one monomorphic instantiation of a body.
// Layouts follow declaration order with natural alignment padding.
type Instance struct {
	Args    []Ty  // generic arguments, indexed by Param.Index
	PtrSize int64 // pointer size in bytes
}

// NewInstance creates an instance for a 64-bit target
func NewInstance(args ...Ty) *Instance {
	return &Instance{Args: args, PtrSize: 8}
}

// Monomorphize implements TyCtxt
func (in *Instance) Monomorphize(t Ty) Ty {
	return Subst(t, in.Args)
}

// IsFat implements TyCtxt. Slices, str and trait objects are unsized, as are
// structs whose last field is unsized.
func (in *Instance) IsFat(pointee Ty) bool {
	switch t := in.Monomorphize(pointee).(type) {
	case Slice, Str, Dynamic:
		return true
	case Adt:
		if t.Def.Kind != StructKind {
			return false
		}
		fields := t.Def.Fields()
		if len(fields) == 0 {
			return false
		}
		last, _ := t.FieldTy(0, len(fields)-1)
		return in.IsFat(last)
	}
	return false
}

// LayoutOf implements TyCtxt. It panics for unsized or generic types.
func (in *Instance) LayoutOf(t Ty) Layout {
	ptr := in.PtrSize
	if ptr == 0 {
		ptr = 8
	}
	switch tt := in.Monomorphize(t).(type) {
	case Int:
		n := tt.Width.Bytes(ptr)
		return Layout{Size: n, Align: n}
	case Uint:
		n := tt.Width.Bytes(ptr)
		return Layout{Size: n, Align: n}
	case Float:
		n := map[FloatWidth]int64{F16: 2, F32: 4, F64: 8, F128: 16}[tt.Width]
		return Layout{Size: n, Align: n}
	case Bool:
		return Layout{Size: 1, Align: 1}
	case Char:
		return Layout{Size: 4, Align: 4}
	case Never:
		return Layout{Size: 0, Align: 1}
	case Ref:
		return in.pointerLayout(tt.Pointee)
	case RawPtr:
		return in.pointerLayout(tt.Pointee)
	case FnPtr:
		return Layout{Size: ptr, Align: ptr}
	case Array:
		elem := in.LayoutOf(tt.Elem)
		return Layout{Size: elem.Size * int64(tt.Len), Align: elem.Align}
	case Tuple:
		return in.sequenceLayout(tt.Elems)
	case Closure:
		return in.sequenceLayout(tt.Upvars)
	case Adt:
		return in.adtLayout(tt)
	case Param:
		panic(fmt.Sprintf("layout of unresolved generic parameter %s", tt.Name))
	default:
		panic(fmt.Sprintf("layout of unsized type %s", t))
	}
}

func (in *Instance) pointerLayout(pointee Ty) Layout {
	if in.IsFat(pointee) {
		return Layout{Size: 2 * in.PtrSize, Align: in.PtrSize}
	}
	return Layout{Size: in.PtrSize, Align: in.PtrSize}
}

func (in *Instance) sequenceLayout(tys []Ty) Layout {
	var size int64
	align := int64(1)
	for _, t := range tys {
		l := in.LayoutOf(t)
		size = alignTo(size, l.Align) + l.Size
		if l.Align > align {
			align = l.Align
		}
	}
	return Layout{Size: alignTo(size, align), Align: align}
}

func (in *Instance) adtLayout(t Adt) Layout {
	switch t.Def.Kind {
	case StructKind:
		return in.sequenceLayout(in.variantFieldTys(t, 0))
	case UnionKind:
		var size int64
		align := int64(1)
		for _, ft := range in.variantFieldTys(t, 0) {
			l := in.LayoutOf(ft)
			size = max(size, l.Size)
			align = max(align, l.Align)
		}
		return Layout{Size: alignTo(size, align), Align: align}
	default:
		if len(t.Def.Variants) == 0 {
			return Layout{Size: 0, Align: 1}
		}
		tag := TagLayout(t.Def)
		size := tag.Size
		align := tag.Align
		for v := range t.Def.Variants {
			l := in.sequenceLayout(in.variantFieldTys(t, v))
			size = max(size, alignTo(tag.Size, l.Align)+l.Size)
			align = max(align, l.Align)
		}
		if len(t.Def.Variants) == 1 && size == tag.Size {
			// a single dataless variant needs no tag
			return Layout{Size: 0, Align: 1}
		}
		return Layout{Size: alignTo(size, align), Align: align}
	}
}

func (in *Instance) variantFieldTys(t Adt, variant int) []Ty {
	v, ok := t.Def.Variant(variant)
	if !ok {
		return nil
	}
	tys := make([]Ty, len(v.Fields))
	for i := range v.Fields {
		tys[i], _ = t.FieldTy(variant, i)
	}
	return tys
}

// TagLayout returns the layout of an enum's discriminant
func TagLayout(def *AdtDef) Layout {
	if len(def.Variants) <= 256 {
		return Layout{Size: 1, Align: 1}
	}
	return Layout{Size: 4, Align: 4}
}

// TagTy returns the integer type used for an enum's discriminant
func TagTy(def *AdtDef) Ty {
	if len(def.Variants) <= 256 {
		return Uint{Width: W8}
	}
	return Uint{Width: W32}
}

func alignTo(n, align int64) int64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}
