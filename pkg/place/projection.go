package place

import (
	"fmt"

	"github.com/tinco/rustc-codegen-clr/pkg/cil"
	"github.com/tinco/rustc-codegen-clr/pkg/mir"
)

// elemBody applies an intermediate projection. The result is the place in
// its carried representation: an address, a fat pointer or a value.
func (c *Ctx) elemBody(elem mir.PlaceElem, pt PlaceTy, node cil.NodeIdx) (PlaceTy, cil.NodeIdx) {
	switch e := elem.(type) {
	case mir.Deref:
		pointee := c.Tcx.Monomorphize(pointedType(pt))
		if c.Tcx.IsFat(pointee) || IsByAddress(pointee) {
			return TyPlace{Ty: pointee}, node
		}
		return TyPlace{Ty: pointee}, c.DerefOp(TyPlace{Ty: pointee}, node)
	case mir.Field:
		fd, fty := c.fieldDesc(pt, e.Index)
		if c.Tcx.IsFat(fty) {
			cil.Unsupported("projection through unsized field %s", fd.Name)
		}
		addr := c.baseAddress(pt, node)
		if IsByAddress(fty) {
			return TyPlace{Ty: fty}, c.Asm.AllocNode(cil.LdFieldAddr{Addr: addr, Field: fd})
		}
		return TyPlace{Ty: fty}, c.Asm.AllocNode(cil.LdField{Addr: addr, Field: fd})
	case mir.Index:
		ety, addr := c.indexAddress(pt, node, c.LocalGet(e.Local))
		return TyPlace{Ty: ety}, c.valueAt(ety, addr)
	case mir.ConstantIndex:
		ety, addr := c.indexAddress(pt, node, c.constIndex(pt, node, e))
		return TyPlace{Ty: ety}, c.valueAt(ety, addr)
	case mir.Subslice:
		sty, addr := c.subsliceAddress(pt, node, e)
		return TyPlace{Ty: sty}, addr
	case mir.Downcast:
		return downcast(pt, e), node
	}
	cil.Unsupported("projection %T", elem)
	return nil, 0
}

// valueAt converts the address of a sized element into its carried form
func (c *Ctx) valueAt(ety mir.Ty, addr cil.NodeIdx) cil.NodeIdx {
	if IsByAddress(ety) {
		return addr
	}
	return c.DerefOp(TyPlace{Ty: ety}, addr)
}

// elemAddress applies the last projection of an address computation
func (c *Ctx) elemAddress(elem mir.PlaceElem, pt PlaceTy, node cil.NodeIdx) cil.NodeIdx {
	switch e := elem.(type) {
	case mir.Deref:
		// the pointer value is the address; a fat pointer stays whole
		pointedType(pt)
		return node
	case mir.Field:
		fd, _ := c.fieldDesc(pt, e.Index)
		return c.Asm.AllocNode(cil.LdFieldAddr{Addr: c.baseAddress(pt, node), Field: fd})
	case mir.Index:
		_, addr := c.indexAddress(pt, node, c.LocalGet(e.Local))
		return addr
	case mir.ConstantIndex:
		_, addr := c.indexAddress(pt, node, c.constIndex(pt, node, e))
		return addr
	case mir.Subslice:
		_, addr := c.subsliceAddress(pt, node, e)
		return addr
	case mir.Downcast:
		// a variant lives at the address of its enum
		downcast(pt, e)
		return node
	}
	cil.Unsupported("projection %T", elem)
	return 0
}

// elemGet applies the last projection of a load
func (c *Ctx) elemGet(elem mir.PlaceElem, pt PlaceTy, node cil.NodeIdx) cil.NodeIdx {
	switch e := elem.(type) {
	case mir.Deref:
		pointee := c.Tcx.Monomorphize(pointedType(pt))
		if c.Tcx.IsFat(pointee) {
			cil.Unsupported("load of unsized place of type %s", pointee)
		}
		return c.DerefOp(TyPlace{Ty: pointee}, node)
	case mir.Field:
		fd, fty := c.fieldDesc(pt, e.Index)
		if c.Tcx.IsFat(fty) {
			cil.Unsupported("load of unsized field %s", fd.Name)
		}
		return c.Asm.AllocNode(cil.LdField{Addr: c.baseAddress(pt, node), Field: fd})
	case mir.Index:
		ety, addr := c.indexAddress(pt, node, c.LocalGet(e.Local))
		return c.DerefOp(TyPlace{Ty: ety}, addr)
	case mir.ConstantIndex:
		ety, addr := c.indexAddress(pt, node, c.constIndex(pt, node, e))
		return c.DerefOp(TyPlace{Ty: ety}, addr)
	case mir.Subslice:
		sty, addr := c.subsliceAddress(pt, node, e)
		return c.Asm.AllocNode(cil.LdObj{Addr: addr, Type: c.typeOf(sty)})
	case mir.Downcast:
		panic(fmt.Sprintf("can't load enum variant %s", downcast(pt, e)))
	}
	cil.Unsupported("projection %T", elem)
	return 0
}

// elemSet applies the last projection of a store
func (c *Ctx) elemSet(elem mir.PlaceElem, pt PlaceTy, node, value cil.NodeIdx) cil.RootIdx {
	switch e := elem.(type) {
	case mir.Deref:
		pointee := c.Tcx.Monomorphize(pointedType(pt))
		if c.Tcx.IsFat(pointee) {
			cil.Unsupported("store to unsized place of type %s", pointee)
		}
		return c.Asm.AllocRoot(cil.StInd{Addr: node, Value: value, Type: c.typeOf(pointee)})
	case mir.Field:
		fd, fty := c.fieldDesc(pt, e.Index)
		if c.Tcx.IsFat(fty) {
			cil.Unsupported("store to unsized field %s", fd.Name)
		}
		return c.Asm.AllocRoot(cil.SetField{Addr: c.baseAddress(pt, node), Value: value, Field: fd})
	case mir.Index:
		ety, addr := c.indexAddress(pt, node, c.LocalGet(e.Local))
		return c.Asm.AllocRoot(cil.StInd{Addr: addr, Value: value, Type: c.typeOf(ety)})
	case mir.ConstantIndex:
		ety, addr := c.indexAddress(pt, node, c.constIndex(pt, node, e))
		return c.Asm.AllocRoot(cil.StInd{Addr: addr, Value: value, Type: c.typeOf(ety)})
	case mir.Subslice:
		sty, addr := c.subsliceAddress(pt, node, e)
		return c.Asm.AllocRoot(cil.StInd{Addr: addr, Value: value, Type: c.typeOf(sty)})
	case mir.Downcast:
		panic(fmt.Sprintf("can't store to enum variant %s", downcast(pt, e)))
	}
	cil.Unsupported("projection %T", elem)
	return 0
}
