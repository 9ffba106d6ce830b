package place

import (
	"github.com/tinco/rustc-codegen-clr/pkg/cil"
	"github.com/tinco/rustc-codegen-clr/pkg/mir"
)

// Slot maps a MIR local to its storage: local 0 is loc 0, locals
// 1..=ArgCount are arguments 0.., every other local l is loc l-ArgCount.
func Slot(body *mir.Body, l mir.Local) (idx uint32, isArg bool) {
	switch {
	case l == 0:
		return 0, false
	case body.IsArg(l):
		return uint32(l - 1), true
	}
	return uint32(int(l) - body.ArgCount), false
}

// LocalAddress returns the address of a local's storage slot
func (c *Ctx) LocalAddress(l mir.Local) cil.NodeIdx {
	idx, isArg := Slot(c.Body, l)
	if isArg {
		return c.Asm.AllocNode(cil.LdArgA{Arg: idx})
	}
	return c.Asm.AllocNode(cil.LdLocA{Local: idx})
}

// LocalGet loads a local's value
func (c *Ctx) LocalGet(l mir.Local) cil.NodeIdx {
	idx, isArg := Slot(c.Body, l)
	if isArg {
		return c.Asm.AllocNode(cil.LdArg{Arg: idx})
	}
	return c.Asm.AllocNode(cil.LdLoc{Local: idx})
}

// LocalSet stores value into a local
func (c *Ctx) LocalSet(l mir.Local, value cil.NodeIdx) cil.RootIdx {
	idx, isArg := Slot(c.Body, l)
	if isArg {
		return c.Asm.AllocRoot(cil.StArg{Arg: idx, Value: value})
	}
	return c.Asm.AllocRoot(cil.StLoc{Local: idx, Value: value})
}

// LocalBody returns a local in the representation projections start
// from, together with its declared type
func (c *Ctx) LocalBody(l mir.Local) (cil.NodeIdx, mir.Ty) {
	ty := c.Tcx.Monomorphize(c.Body.LocalTy(l))
	if IsByAddress(ty) {
		return c.LocalAddress(l), ty
	}
	return c.LocalGet(l), ty
}
