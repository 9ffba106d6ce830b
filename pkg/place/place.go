// Package place lowers MIR places into cil node trees that compute the
// address of a location, load the value stored there, or store into it.
//
// Intermediate projections carry the place in one of three forms: its
// address when the type is passed by address, its fat pointer when the
// type is unsized, and its value otherwise.
package place

import (
	"fmt"

	"github.com/tinco/rustc-codegen-clr/pkg/cil"
	"github.com/tinco/rustc-codegen-clr/pkg/mir"
	"github.com/tinco/rustc-codegen-clr/pkg/typelower"
)

// Ctx is the per-function lowering context
type Ctx struct {
	Asm  *cil.Assembly
	Tcx  mir.TyCtxt
	Body *mir.Body
}

// PlaceTy is the type at some point of a projection chain
type PlaceTy interface {
	implPlaceTy()
}

// TyPlace is an ordinary typed place
type TyPlace struct {
	Ty mir.Ty
}

// VariantPlace is an enum viewed as one of its variants, after Downcast
type VariantPlace struct {
	Enum    mir.Adt
	Variant int
}

func (TyPlace) implPlaceTy()      {}
func (VariantPlace) implPlaceTy() {}

func (p TyPlace) String() string { return p.Ty.String() }

func (p VariantPlace) String() string {
	return fmt.Sprintf("%s as variant#%d", p.Enum, p.Variant)
}

// Ty returns the underlying type; for a variant it is the enum
func Ty(pt PlaceTy) mir.Ty {
	switch p := pt.(type) {
	case TyPlace:
		return p.Ty
	case VariantPlace:
		return p.Enum
	}
	panic(fmt.Sprintf("unknown place type %T", pt))
}

func (c *Ctx) mono(pt PlaceTy) PlaceTy {
	switch p := pt.(type) {
	case TyPlace:
		return TyPlace{Ty: c.Tcx.Monomorphize(p.Ty)}
	case VariantPlace:
		return VariantPlace{Enum: c.Tcx.Monomorphize(p.Enum).(mir.Adt), Variant: p.Variant}
	}
	panic(fmt.Sprintf("unknown place type %T", pt))
}

func (c *Ctx) typeOf(t mir.Ty) cil.TypeIdx {
	return typelower.GetType(c.Asm, c.Tcx, t)
}

// PlaceType returns the monomorphic type of a whole place
func (c *Ctx) PlaceType(p mir.Place) PlaceTy {
	pt := c.mono(TyPlace{Ty: c.Body.LocalTy(p.Local)})
	for _, elem := range p.Projection {
		pt = c.mono(c.ProjectTy(pt, elem))
	}
	return pt
}

// ProjectTy returns the type after applying one projection
func (c *Ctx) ProjectTy(pt PlaceTy, elem mir.PlaceElem) PlaceTy {
	switch e := elem.(type) {
	case mir.Deref:
		return TyPlace{Ty: pointedType(pt)}
	case mir.Field:
		_, fty := c.fieldDesc(pt, e.Index)
		return TyPlace{Ty: fty}
	case mir.Index, mir.ConstantIndex:
		return TyPlace{Ty: elemType(pt)}
	case mir.Subslice:
		return TyPlace{Ty: subsliceType(pt, e)}
	case mir.Downcast:
		return downcast(pt, e)
	}
	cil.Unsupported("projection %T", elem)
	return nil
}

// pointedType returns the pointee of a reference or raw pointer
func pointedType(pt PlaceTy) mir.Ty {
	tp, ok := pt.(TyPlace)
	if !ok {
		panic("can't dereference an enum variant")
	}
	switch t := tp.Ty.(type) {
	case mir.Ref:
		return t.Pointee
	case mir.RawPtr:
		return t.Pointee
	}
	panic(fmt.Sprintf("%s is not a pointer type", tp.Ty))
}

func elemType(pt PlaceTy) mir.Ty {
	switch t := Ty(pt).(type) {
	case mir.Array:
		return t.Elem
	case mir.Slice:
		return t.Elem
	}
	cil.Unsupported("indexing into %s", Ty(pt))
	return nil
}

func subsliceType(pt PlaceTy, e mir.Subslice) mir.Ty {
	switch t := Ty(pt).(type) {
	case mir.Array:
		n := e.To - e.From
		if e.FromEnd {
			n = t.Len - e.From - e.To
		}
		return mir.Array{Elem: t.Elem, Len: n}
	case mir.Slice:
		return t
	}
	cil.Unsupported("subslice of %s", Ty(pt))
	return nil
}

func downcast(pt PlaceTy, e mir.Downcast) PlaceTy {
	adt, ok := Ty(pt).(mir.Adt)
	if !ok || adt.Def.Kind != mir.EnumKind {
		panic(fmt.Sprintf("downcast of non-enum %s", Ty(pt)))
	}
	if _, ok := adt.Def.Variant(e.Variant); !ok {
		panic(fmt.Sprintf("%s has no variant %d", adt, e.Variant))
	}
	return VariantPlace{Enum: adt, Variant: e.Variant}
}

// IsByAddress reports whether places of type t are carried as addresses.
// Non-empty tuples, ADTs, closures, arrays, slices and str are.
func IsByAddress(t mir.Ty) bool {
	switch tt := t.(type) {
	case mir.Tuple:
		return len(tt.Elems) > 0
	case mir.Adt, mir.Closure, mir.Array, mir.Slice, mir.Str, mir.Dynamic:
		return true
	case mir.Int, mir.Uint, mir.Float, mir.Ref, mir.RawPtr, mir.Bool, mir.Char, mir.FnPtr:
		return false
	}
	cil.Unsupported("place of type %s", t)
	return false
}

// Address returns a node computing the address of p. Zero-sized places
// have no storage: their address is the type's alignment cast to a pointer.
func (c *Ctx) Address(p mir.Place) cil.NodeIdx {
	pt := c.PlaceType(p)
	layout := c.layoutOf(pt)
	if layout.IsZST() {
		return c.Asm.AllocNode(cil.PtrCast{
			Value:  c.Asm.ConstUSize(uint64(layout.Align)),
			Target: c.Asm.PtrTo(c.typeOf(Ty(pt))),
		})
	}
	if len(p.Projection) == 0 {
		return c.LocalAddress(p.Local)
	}
	head, ty, node := c.walkBody(p)
	return c.elemAddress(head, ty, node)
}

// AddressRaw is Address, except that a place whose only projection is a
// Deref yields the address of the pointer itself, and a zero-sized place
// yields the bare alignment value.
func (c *Ctx) AddressRaw(p mir.Place) cil.NodeIdx {
	pt := c.PlaceType(p)
	layout := c.layoutOf(pt)
	if layout.IsZST() {
		return c.Asm.ConstUSize(uint64(layout.Align))
	}
	if len(p.Projection) == 0 {
		return c.LocalAddress(p.Local)
	}
	if len(p.Projection) == 1 {
		if _, ok := p.Projection[0].(mir.Deref); ok {
			return c.LocalAddress(p.Local)
		}
	}
	head, ty, node := c.walkBody(p)
	return c.elemAddress(head, ty, node)
}

// Get returns a node loading the value stored at p
func (c *Ctx) Get(p mir.Place) cil.NodeIdx {
	if len(p.Projection) == 0 {
		return c.LocalGet(p.Local)
	}
	head, ty, node := c.walkBody(p)
	return c.elemGet(head, ty, node)
}

// Set returns a root storing value into p
func (c *Ctx) Set(p mir.Place, value cil.NodeIdx) cil.RootIdx {
	if len(p.Projection) == 0 {
		return c.LocalSet(p.Local, value)
	}
	head, ty, node := c.walkBody(p)
	return c.elemSet(head, ty, node, value)
}

func (c *Ctx) layoutOf(pt PlaceTy) mir.Layout {
	t := Ty(pt)
	if c.Tcx.IsFat(t) {
		// unsized places are never zero-sized
		return mir.Layout{Size: -1, Align: 1}
	}
	return c.Tcx.LayoutOf(t)
}

// walkBody folds every projection but the last into a node, starting from
// the local's own representation. It returns the last projection together
// with the type and node it applies to.
func (c *Ctx) walkBody(p mir.Place) (mir.PlaceElem, PlaceTy, cil.NodeIdx) {
	node, ty := c.LocalBody(p.Local)
	pt := c.mono(TyPlace{Ty: ty})
	last := len(p.Projection) - 1
	for _, elem := range p.Projection[:last] {
		pt, node = c.elemBody(elem, pt, node)
		pt = c.mono(pt)
	}
	return p.Projection[last], pt, node
}
