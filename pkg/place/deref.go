package place

import (
	"github.com/tinco/rustc-codegen-clr/pkg/cil"
	"github.com/tinco/rustc-codegen-clr/pkg/mir"
	"github.com/tinco/rustc-codegen-clr/pkg/typelower"
)

// DerefOp returns a node loading a value of type pt through ptr.
//
// Primitives use a typed load of their width, compound types an object
// load. A pointer-typed value is a fat pointer object when its pointee is
// unsized and a plain pointer otherwise, for references and raw pointers
// alike.
func (c *Ctx) DerefOp(pt PlaceTy, ptr cil.NodeIdx) cil.NodeIdx {
	tp, ok := pt.(TyPlace)
	if !ok {
		panic("can't dereference an enum variant")
	}
	ty := c.Tcx.Monomorphize(tp.Ty)
	ldind := func(t cil.TypeIdx) cil.NodeIdx {
		return c.Asm.AllocNode(cil.LdInd{Addr: ptr, Type: t})
	}
	ldobj := func(t cil.TypeIdx) cil.NodeIdx {
		return c.Asm.AllocNode(cil.LdObj{Addr: ptr, Type: t})
	}
	switch t := ty.(type) {
	case mir.Int:
		k := typelower.IntKind(t.Width, true)
		if k.Is128() {
			return ldobj(c.Asm.IntType(k))
		}
		return ldind(c.Asm.IntType(k))
	case mir.Uint:
		k := typelower.IntKind(t.Width, false)
		if k.Is128() {
			return ldobj(c.Asm.IntType(k))
		}
		return ldind(c.Asm.IntType(k))
	case mir.Float:
		return ldind(c.Asm.AllocType(cil.TFloat{Kind: typelower.FloatKind(t.Width)}))
	case mir.Bool:
		return ldind(c.Asm.AllocType(cil.TBool{}))
	case mir.Char:
		return ldind(c.Asm.IntType(cil.U32))
	case mir.Adt, mir.Tuple, mir.Array, mir.Closure:
		return ldobj(c.typeOf(ty))
	case mir.FnPtr:
		return ldind(c.typeOf(ty))
	case mir.Ref:
		if c.Tcx.IsFat(t.Pointee) {
			return ldobj(c.typeOf(ty))
		}
		return ldind(c.typeOf(ty))
	case mir.RawPtr:
		if c.Tcx.IsFat(t.Pointee) {
			return ldobj(c.typeOf(ty))
		}
		return ldind(c.typeOf(ty))
	}
	cil.Unsupported("dereference of %s", ty)
	return 0
}
