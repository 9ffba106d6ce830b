package place

import (
	"fmt"

	"github.com/tinco/rustc-codegen-clr/pkg/cil"
	"github.com/tinco/rustc-codegen-clr/pkg/mir"
	"github.com/tinco/rustc-codegen-clr/pkg/typelower"
)

// DiscriminantName is the name of the tag field of enum classes
const DiscriminantName = "discriminant"

// fieldInfo resolves field idx of a place type: the type owning the field,
// the field's name in that type and the field's type.
//
// Tuple fields are Item1.., closure upvars f_0.., and enum variant fields
// are prefixed with the variant name.
func fieldInfo(pt PlaceTy, idx int) (owner mir.Ty, name string, fty mir.Ty) {
	switch p := pt.(type) {
	case VariantPlace:
		v, _ := p.Enum.Def.Variant(p.Variant)
		ft, ok := p.Enum.FieldTy(p.Variant, idx)
		if !ok {
			panic(fmt.Sprintf("variant %s of %s has no field %d", v.Name, p.Enum, idx))
		}
		return p.Enum, v.Name + "_" + fieldName(v.Fields[idx], idx), ft
	case TyPlace:
		switch t := p.Ty.(type) {
		case mir.Adt:
			if t.Def.Kind == mir.EnumKind {
				panic(fmt.Sprintf("field %d of enum %s without a downcast", idx, t))
			}
			ft, ok := t.FieldTy(0, idx)
			if !ok {
				panic(fmt.Sprintf("%s has no field %d", t, idx))
			}
			return t, fieldName(t.Def.Fields()[idx], idx), ft
		case mir.Tuple:
			if idx < 0 || idx >= len(t.Elems) {
				panic(fmt.Sprintf("%s has no field %d", t, idx))
			}
			return t, fmt.Sprintf("Item%d", idx+1), t.Elems[idx]
		case mir.Closure:
			if idx < 0 || idx >= len(t.Upvars) {
				panic(fmt.Sprintf("%s has no upvar %d", t, idx))
			}
			return t, fmt.Sprintf("f_%d", idx), t.Upvars[idx]
		}
		cil.Unsupported("field %d of %s", idx, p.Ty)
	}
	panic(fmt.Sprintf("unknown place type %T", pt))
}

func fieldName(f mir.FieldDef, idx int) string {
	if f.Name == "" {
		return fmt.Sprintf("f%d", idx)
	}
	return f.Name
}

// fieldDesc returns the descriptor and monomorphic type of field idx
func (c *Ctx) fieldDesc(pt PlaceTy, idx int) (cil.FieldDesc, mir.Ty) {
	owner, name, fty := fieldInfo(pt, idx)
	fty = c.Tcx.Monomorphize(fty)
	return cil.FieldDesc{Owner: c.typeOf(owner), Name: name, Type: c.typeOf(fty)}, fty
}

// DiscriminantField returns the tag field of an enum class
func (c *Ctx) DiscriminantField(enum mir.Adt) cil.FieldDesc {
	return cil.FieldDesc{
		Owner: c.typeOf(enum),
		Name:  DiscriminantName,
		Type:  c.typeOf(mir.TagTy(enum.Def)),
	}
}

// baseAddress returns the address of the object a place denotes. Unsized
// structs are carried as fat pointers, so their address is the data pointer.
func (c *Ctx) baseAddress(pt PlaceTy, node cil.NodeIdx) cil.NodeIdx {
	t := Ty(pt)
	if !c.Tcx.IsFat(t) {
		return node
	}
	data, _ := typelower.FatPtrFields(c.Asm, c.Tcx, t)
	return c.Asm.AllocNode(cil.LdField{Addr: node, Field: data})
}

// length returns the number of elements of an array or slice place
func (c *Ctx) length(pt PlaceTy, node cil.NodeIdx) cil.NodeIdx {
	switch t := Ty(pt).(type) {
	case mir.Array:
		return c.Asm.ConstUSize(t.Len)
	case mir.Slice:
		_, meta := typelower.FatPtrFields(c.Asm, c.Tcx, t)
		return c.Asm.AllocNode(cil.LdField{Addr: node, Field: meta})
	}
	cil.Unsupported("length of %s", Ty(pt))
	return 0
}

// Len returns a node computing the length of an array or slice place
func (c *Ctx) Len(p mir.Place) cil.NodeIdx {
	pt := c.PlaceType(p)
	if _, ok := Ty(pt).(mir.Array); ok {
		return c.length(pt, 0)
	}
	return c.length(pt, c.Address(p))
}

func (c *Ctx) elemSize(ety mir.Ty) cil.NodeIdx {
	return c.Asm.AllocNode(cil.IntCast{
		Value:  c.Asm.AllocNode(cil.SizeOf{Type: c.typeOf(ety)}),
		Target: cil.USize,
	})
}

// indexAddress returns the element type and the address of element idx
func (c *Ctx) indexAddress(pt PlaceTy, node, idx cil.NodeIdx) (mir.Ty, cil.NodeIdx) {
	ety := c.Tcx.Monomorphize(elemType(pt))
	base := node
	if t, ok := Ty(pt).(mir.Slice); ok {
		data, _ := typelower.FatPtrFields(c.Asm, c.Tcx, t)
		base = c.Asm.AllocNode(cil.LdField{Addr: node, Field: data})
	}
	offset := c.Asm.Binary(cil.OpMul, idx, c.elemSize(ety))
	return ety, c.Asm.Binary(cil.OpAdd, base, offset)
}

// constIndex returns the index selected by a ConstantIndex projection
func (c *Ctx) constIndex(pt PlaceTy, node cil.NodeIdx, e mir.ConstantIndex) cil.NodeIdx {
	if !e.FromEnd {
		return c.Asm.ConstUSize(e.Offset)
	}
	return c.Asm.Binary(cil.OpSub, c.length(pt, node), c.Asm.ConstUSize(e.Offset))
}

// subsliceAddress returns the type and address of an array subslice.
// A subslice of a slice would need a fresh fat pointer.
func (c *Ctx) subsliceAddress(pt PlaceTy, node cil.NodeIdx, e mir.Subslice) (mir.Ty, cil.NodeIdx) {
	if _, ok := Ty(pt).(mir.Array); !ok {
		cil.Unsupported("subslice of %s", Ty(pt))
	}
	sty := subsliceType(pt, e)
	ety := c.Tcx.Monomorphize(elemType(pt))
	offset := c.Asm.Binary(cil.OpMul, c.Asm.ConstUSize(e.From), c.elemSize(ety))
	return sty, c.Asm.Binary(cil.OpAdd, node, offset)
}
