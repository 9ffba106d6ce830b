package cilgen

import (
	"github.com/tinco/rustc-codegen-clr/pkg/cil"
	"github.com/tinco/rustc-codegen-clr/pkg/mir"
)

// unreachableMessage is thrown by blocks control never reaches
const unreachableMessage = "unreachable code reached"

// block lowers the statements and terminator of one basic block
func (b *builder) block(id mir.BlockID) []cil.RootIdx {
	data := b.Body.Blocks[id]
	var roots []cil.RootIdx
	for _, stmt := range data.Statements {
		roots = append(roots, b.statement(stmt)...)
	}
	roots = append(roots, b.terminator(data.Terminator)...)
	b.log.Debug("lowered block", "block", id, "statements", len(data.Statements), "roots", len(roots))
	return roots
}

func (b *builder) spanInfo(span *mir.Span) []cil.RootIdx {
	if span == nil {
		return nil
	}
	return []cil.RootIdx{b.Asm.AllocRoot(cil.SourceFileInfo{
		File:   span.File,
		Line:   span.Line,
		Column: span.Column,
	})}
}

func (b *builder) nop() cil.RootIdx {
	return b.Asm.AllocRoot(cil.Nop{})
}

func (b *builder) statement(stmt mir.Statement) []cil.RootIdx {
	switch s := stmt.(type) {
	case mir.Assign:
		return append(b.spanInfo(s.Span), b.assign(s.Place, s.Rvalue))
	case mir.SetDiscriminant:
		return append(b.spanInfo(s.Span), b.setDiscriminant(s.Place, s.Variant))
	case mir.StorageLive, mir.StorageDead, mir.Nop:
		return []cil.RootIdx{b.nop()}
	}
	cil.Unsupported("statement %T", stmt)
	return nil
}

func (b *builder) assign(p mir.Place, rv mir.Rvalue) cil.RootIdx {
	dest := b.placeTy(p)
	if b.Tcx.IsFat(dest) {
		cil.Unsupported("assignment to unsized place %s", p)
	}
	if b.Tcx.LayoutOf(dest).IsZST() {
		return b.nop()
	}
	return b.Set(p, b.rvalue(rv, dest))
}

func (b *builder) setDiscriminant(p mir.Place, variant int) cil.RootIdx {
	enum, ok := b.placeTy(p).(mir.Adt)
	if !ok || enum.Def.Kind != mir.EnumKind {
		cil.Unsupported("set discriminant of %s", b.placeTy(p))
	}
	if b.Tcx.LayoutOf(enum).IsZST() {
		return b.nop()
	}
	field := b.DiscriminantField(enum)
	kind, ok := b.Asm.Type(field.Type).(cil.TInt)
	if !ok {
		panic("enum tag is not an integer")
	}
	return b.Asm.AllocRoot(cil.SetField{
		Addr:  b.Address(p),
		Value: b.Asm.AllocNode(cil.ConstInt{Kind: kind.Kind, Bits: uint64(variant)}),
		Field: field,
	})
}

func (b *builder) throw(msg string) cil.RootIdx {
	return b.Asm.AllocRoot(cil.Throw{Value: b.Asm.AllocNode(cil.ConstString{Value: msg})})
}

func (b *builder) terminator(term mir.Terminator) []cil.RootIdx {
	switch t := term.(type) {
	case mir.Goto:
		return []cil.RootIdx{b.Asm.Goto(uint32(t.Target))}
	case mir.SwitchInt:
		return b.switchInt(t)
	case mir.Return:
		if mir.IsUnit(b.Tcx.Monomorphize(b.Body.ReturnTy())) {
			return []cil.RootIdx{b.Asm.AllocRoot(cil.VoidRet{})}
		}
		if _, ok := b.Tcx.Monomorphize(b.Body.ReturnTy()).(mir.Never); ok {
			return []cil.RootIdx{b.throw(unreachableMessage)}
		}
		return []cil.RootIdx{b.Asm.AllocRoot(cil.Ret{Value: b.LocalGet(0)})}
	case mir.Unreachable:
		return []cil.RootIdx{b.throw(unreachableMessage)}
	case mir.UnwindResume:
		return []cil.RootIdx{b.Asm.AllocRoot(cil.ReThrow{})}
	case mir.Call:
		return b.call(t)
	case mir.Drop:
		return []cil.RootIdx{b.Asm.Goto(uint32(t.Target))}
	case mir.Assert:
		return b.assert(t)
	}
	cil.Unsupported("terminator %T", term)
	return nil
}

// switchInt tests each target value in order and falls back to otherwise
func (b *builder) switchInt(t mir.SwitchInt) []cil.RootIdx {
	s := b.scalarOf(b.operandTy(t.Discr))
	var roots []cil.RootIdx
	for _, target := range t.Targets {
		discr := b.operand(t.Discr)
		var cond cil.BranchCond
		switch {
		case s.kind == boolScalar && target.Value == 0:
			cond = cil.IfFalse{Value: discr}
		case s.kind == boolScalar:
			cond = cil.IfTrue{Value: discr}
		default:
			cond = cil.IfEq{A: discr, B: b.Asm.AllocNode(cil.ConstInt{Kind: s.ikind, Bits: target.Value})}
		}
		roots = append(roots, b.Asm.AllocRoot(cil.Branch{Target: uint32(target.Target), Cond: cond}))
	}
	return append(roots, b.Asm.Goto(uint32(t.Otherwise)))
}

// call lowers a direct call to a function of the module class. The callee
// signature is taken from the argument and destination types.
func (b *builder) call(t mir.Call) []cil.RootIdx {
	inputs := make([]cil.TypeIdx, len(t.Args))
	args := make([]cil.NodeIdx, len(t.Args))
	for i, arg := range t.Args {
		inputs[i] = b.ty(b.operandTy(arg))
		args[i] = b.operand(arg)
	}
	destTy := b.placeTy(t.Destination)
	ref := cil.MethodRef{
		Class:  b.Asm.AllocType(cil.TClassRef{Name: ModuleClass}),
		Name:   t.Func,
		Sig:    b.Asm.AllocSig(inputs, b.ty(destTy)),
		Static: true,
	}

	var roots []cil.RootIdx
	if b.Tcx.LayoutOf(destTy).IsZST() {
		roots = append(roots, b.Asm.AllocRoot(cil.CallRoot{Method: ref, Args: b.Asm.AllocNodes(args)}))
	} else {
		roots = append(roots, b.Set(t.Destination, b.Asm.CallNode(ref, args...)))
	}
	if t.Target == nil {
		return append(roots, b.throw(unreachableMessage))
	}
	return append(roots, b.Asm.Goto(uint32(*t.Target)))
}

// assert continues to the target when the condition has the expected value
// and throws the message otherwise
func (b *builder) assert(t mir.Assert) []cil.RootIdx {
	cond := b.operand(t.Cond)
	var bc cil.BranchCond = cil.IfTrue{Value: cond}
	if !t.Expected {
		bc = cil.IfFalse{Value: cond}
	}
	return []cil.RootIdx{
		b.Asm.AllocRoot(cil.Branch{Target: uint32(t.Target), Cond: bc}),
		b.throw(t.Msg),
	}
}
