package cilgen

import (
	"github.com/tinco/rustc-codegen-clr/pkg/cil"
	"github.com/tinco/rustc-codegen-clr/pkg/mir"
	"github.com/tinco/rustc-codegen-clr/pkg/place"
	"github.com/tinco/rustc-codegen-clr/pkg/typelower"
)

// scalar classifies the types arithmetic and comparisons apply to
type scalar struct {
	kind  scalarKind
	ikind cil.Int
	fkind cil.Float
}

type scalarKind int

const (
	intScalar scalarKind = iota
	floatScalar
	boolScalar
	ptrScalar
)

func (s scalar) signed() bool {
	return s.kind == intScalar && s.ikind.Signed()
}

// narrow reports whether results must be truncated back from int32
func (s scalar) narrow() bool {
	switch s.ikind {
	case cil.I8, cil.U8, cil.I16, cil.U16:
		return s.kind == intScalar
	}
	return false
}

func (s scalar) is128() bool {
	return s.kind == intScalar && s.ikind.Is128()
}

func (b *builder) scalarOf(t mir.Ty) scalar {
	switch tt := b.Tcx.Monomorphize(t).(type) {
	case mir.Int:
		return scalar{kind: intScalar, ikind: typelower.IntKind(tt.Width, true)}
	case mir.Uint:
		return scalar{kind: intScalar, ikind: typelower.IntKind(tt.Width, false)}
	case mir.Char:
		return scalar{kind: intScalar, ikind: cil.U32}
	case mir.Float:
		return scalar{kind: floatScalar, fkind: typelower.FloatKind(tt.Width)}
	case mir.Bool:
		return scalar{kind: boolScalar}
	case mir.Ref, mir.RawPtr, mir.FnPtr:
		return scalar{kind: ptrScalar, ikind: cil.USize}
	}
	cil.Unsupported("arithmetic on %s", t)
	return scalar{}
}

// operandTy returns the monomorphic type of an operand
func (b *builder) operandTy(op mir.Operand) mir.Ty {
	if c, ok := op.(mir.Constant); ok {
		return b.Tcx.Monomorphize(c.Ty)
	}
	p, _ := mir.OperandPlace(op)
	return b.placeTy(p)
}

func (b *builder) placeTy(p mir.Place) mir.Ty {
	return b.Tcx.Monomorphize(place.Ty(b.PlaceType(p)))
}

func (b *builder) operand(op mir.Operand) cil.NodeIdx {
	switch o := op.(type) {
	case mir.Copy:
		return b.Get(o.Place)
	case mir.Move:
		return b.Get(o.Place)
	case mir.Constant:
		return b.constant(o)
	}
	cil.Unsupported("operand %T", op)
	return 0
}

func (b *builder) constant(c mir.Constant) cil.NodeIdx {
	switch t := b.Tcx.Monomorphize(c.Ty).(type) {
	case mir.Int:
		return b.Asm.AllocNode(cil.ConstInt{Kind: typelower.IntKind(t.Width, true), Bits: c.Bits})
	case mir.Uint:
		return b.Asm.AllocNode(cil.ConstInt{Kind: typelower.IntKind(t.Width, false), Bits: c.Bits})
	case mir.Char:
		return b.Asm.AllocNode(cil.ConstInt{Kind: cil.U32, Bits: c.Bits})
	case mir.Float:
		return b.Asm.AllocNode(cil.ConstFloat{Kind: typelower.FloatKind(t.Width), Bits: c.Bits})
	case mir.Bool:
		return b.Asm.AllocNode(cil.ConstBool{Value: c.Bits != 0})
	}
	cil.Unsupported("constant of type %s", c.Ty)
	return 0
}

// rvalue lowers an rvalue whose result is stored into a place of type dest
func (b *builder) rvalue(rv mir.Rvalue, dest mir.Ty) cil.NodeIdx {
	switch r := rv.(type) {
	case mir.Use:
		return b.operand(r.Operand)
	case mir.UnaryOp:
		return b.unary(r)
	case mir.BinaryOp:
		return b.binary(r)
	case mir.RefOf:
		return b.Address(r.Place)
	case mir.AddressOf:
		return b.Address(r.Place)
	case mir.Len:
		return b.Len(r.Place)
	case mir.Cast:
		return b.cast(r.Operand, b.Tcx.Monomorphize(r.Ty))
	case mir.Discriminant:
		return b.discriminant(r.Place, dest)
	}
	cil.Unsupported("rvalue %T", rv)
	return 0
}

// int128Call calls a static operator method of System.Int128/UInt128
func (b *builder) int128Call(k cil.Int, name string, ret cil.TypeIdx, args ...cil.NodeIdx) cil.NodeIdx {
	class := b.Asm.Int128Class(k)
	inputs := make([]cil.TypeIdx, len(args))
	for i := range inputs {
		inputs[i] = b.Asm.IntType(k)
	}
	if name == "op_LeftShift" || name == "op_RightShift" {
		inputs[1] = b.Asm.IntType(cil.I32)
	}
	return b.Asm.CallNode(cil.MethodRef{
		Class:  class,
		Name:   name,
		Sig:    b.Asm.AllocSig(inputs, ret),
		Static: true,
	}, args...)
}

// truncate converts an int32 stack result back to a narrow kind
func (b *builder) truncate(s scalar, v cil.NodeIdx) cil.NodeIdx {
	if !s.narrow() {
		return v
	}
	return b.Asm.AllocNode(cil.IntCast{Value: v, Target: s.ikind, Signed: s.signed()})
}

func (b *builder) not(v cil.NodeIdx) cil.NodeIdx {
	return b.Asm.Binary(cil.OpEq, v, b.Asm.AllocNode(cil.ConstBool{Value: false}))
}

func (b *builder) unary(r mir.UnaryOp) cil.NodeIdx {
	t := b.operandTy(r.Operand)
	v := b.operand(r.Operand)
	if r.Op == mir.PtrMetadata {
		return b.metadata(t, v)
	}
	s := b.scalarOf(t)
	switch r.Op {
	case mir.Neg:
		if s.is128() {
			return b.int128Call(s.ikind, "op_UnaryNegation", b.Asm.IntType(s.ikind), v)
		}
		return b.truncate(s, b.Asm.AllocNode(cil.UnOp{Op: cil.OpNeg, Value: v}))
	case mir.Not:
		if s.kind == boolScalar {
			return b.not(v)
		}
		if s.is128() {
			return b.int128Call(s.ikind, "op_OnesComplement", b.Asm.IntType(s.ikind), v)
		}
		return b.truncate(s, b.Asm.AllocNode(cil.UnOp{Op: cil.OpNot, Value: v}))
	}
	cil.Unsupported("unary operator %s", r.Op)
	return 0
}

// metadata reads the metadata word of a fat pointer value
func (b *builder) metadata(t mir.Ty, v cil.NodeIdx) cil.NodeIdx {
	var pointee mir.Ty
	switch pt := t.(type) {
	case mir.Ref:
		pointee = pt.Pointee
	case mir.RawPtr:
		pointee = pt.Pointee
	default:
		cil.Unsupported("pointer metadata of %s", t)
	}
	if !b.Tcx.IsFat(pointee) {
		cil.Unsupported("pointer metadata of thin pointer %s", t)
	}
	_, meta := typelower.FatPtrFields(b.Asm, b.Tcx, pointee)
	return b.Asm.AllocNode(cil.LdField{Addr: v, Field: meta})
}

var int128Ops = map[mir.BinOp]string{
	mir.Add:    "op_Addition",
	mir.Sub:    "op_Subtraction",
	mir.Mul:    "op_Multiply",
	mir.Div:    "op_Division",
	mir.Rem:    "op_Modulus",
	mir.BitAnd: "op_BitwiseAnd",
	mir.BitOr:  "op_BitwiseOr",
	mir.BitXor: "op_ExclusiveOr",
	mir.Shl:    "op_LeftShift",
	mir.Shr:    "op_RightShift",
	mir.Eq:     "op_Equality",
	mir.Ne:     "op_Inequality",
	mir.Lt:     "op_LessThan",
	mir.Le:     "op_LessThanOrEqual",
	mir.Gt:     "op_GreaterThan",
	mir.Ge:     "op_GreaterThanOrEqual",
}

func (b *builder) binary(r mir.BinaryOp) cil.NodeIdx {
	s := b.scalarOf(b.operandTy(r.Left))
	lhs := b.operand(r.Left)
	rhs := b.operand(r.Right)
	if r.Op == mir.Shl || r.Op == mir.Shr {
		rhs = b.shiftAmount(r.Right, rhs)
	}

	if s.is128() {
		ret := b.Asm.IntType(s.ikind)
		if r.Op.IsComparison() {
			ret = b.Asm.AllocType(cil.TBool{})
		}
		return b.int128Call(s.ikind, int128Ops[r.Op], ret, lhs, rhs)
	}

	// unsigned integers and pointers compare unsigned; floats compare
	// unordered so that negated comparisons hold for NaN
	unordered := s.kind == floatScalar || s.kind == ptrScalar || (s.kind == intScalar && !s.signed())
	pick := func(signed, unsigned cil.BinOpKind) cil.BinOpKind {
		if s.signed() || s.kind == floatScalar {
			return signed
		}
		return unsigned
	}
	cmp := func(signed, un cil.BinOpKind) cil.BinOpKind {
		if unordered {
			return un
		}
		return signed
	}

	switch r.Op {
	case mir.Add:
		return b.truncate(s, b.Asm.Binary(cil.OpAdd, lhs, rhs))
	case mir.Sub:
		return b.truncate(s, b.Asm.Binary(cil.OpSub, lhs, rhs))
	case mir.Mul:
		return b.truncate(s, b.Asm.Binary(cil.OpMul, lhs, rhs))
	case mir.Div:
		return b.Asm.Binary(pick(cil.OpDiv, cil.OpDivUn), lhs, rhs)
	case mir.Rem:
		return b.Asm.Binary(pick(cil.OpRem, cil.OpRemUn), lhs, rhs)
	case mir.BitAnd:
		return b.Asm.Binary(cil.OpAnd, lhs, rhs)
	case mir.BitOr:
		return b.Asm.Binary(cil.OpOr, lhs, rhs)
	case mir.BitXor:
		return b.Asm.Binary(cil.OpXor, lhs, rhs)
	case mir.Shl:
		return b.truncate(s, b.Asm.Binary(cil.OpShl, lhs, rhs))
	case mir.Shr:
		return b.Asm.Binary(pick(cil.OpShr, cil.OpShrUn), lhs, rhs)
	case mir.Eq:
		return b.Asm.Binary(cil.OpEq, lhs, rhs)
	case mir.Ne:
		return b.not(b.Asm.Binary(cil.OpEq, lhs, rhs))
	case mir.Lt:
		if s.kind == floatScalar {
			return b.Asm.Binary(cil.OpLt, lhs, rhs)
		}
		return b.Asm.Binary(cmp(cil.OpLt, cil.OpLtUn), lhs, rhs)
	case mir.Gt:
		if s.kind == floatScalar {
			return b.Asm.Binary(cil.OpGt, lhs, rhs)
		}
		return b.Asm.Binary(cmp(cil.OpGt, cil.OpGtUn), lhs, rhs)
	case mir.Le:
		return b.not(b.Asm.Binary(cmp(cil.OpGt, cil.OpGtUn), lhs, rhs))
	case mir.Ge:
		return b.not(b.Asm.Binary(cmp(cil.OpLt, cil.OpLtUn), lhs, rhs))
	}
	cil.Unsupported("binary operator %s", r.Op)
	return 0
}

// shiftAmount narrows a shift amount to int32
func (b *builder) shiftAmount(op mir.Operand, v cil.NodeIdx) cil.NodeIdx {
	s := b.scalarOf(b.operandTy(op))
	switch s.ikind {
	case cil.I64, cil.U64, cil.I128, cil.U128, cil.ISize, cil.USize:
		if s.is128() {
			return b.int128Call(s.ikind, "op_Explicit", b.Asm.IntType(cil.I32), v)
		}
		return b.Asm.AllocNode(cil.IntCast{Value: v, Target: cil.I32, Signed: s.signed()})
	}
	return v
}

// cast converts an operand to target
func (b *builder) cast(op mir.Operand, target mir.Ty) cil.NodeIdx {
	src := b.operandTy(op)
	v := b.operand(op)
	if mir.Equal(src, target) {
		return v
	}
	if isPtr(src) && isPtr(target) {
		return b.ptrCast(src, target, v)
	}
	from := b.scalarOf(src)
	to := b.scalarOf(target)

	if from.is128() || to.is128() {
		k := to.ikind
		if from.is128() {
			k = from.ikind
		}
		if from.kind == floatScalar || to.kind == floatScalar {
			cil.Unsupported("cast from %s to %s", src, target)
		}
		return b.Asm.CallNode(cil.MethodRef{
			Class:  b.Asm.Int128Class(k),
			Name:   "op_Explicit",
			Sig:    b.Asm.AllocSig([]cil.TypeIdx{b.ty(src)}, b.ty(target)),
			Static: true,
		}, v)
	}

	switch to.kind {
	case intScalar:
		if from.kind == floatScalar {
			return b.Asm.AllocNode(cil.IntCast{Value: v, Target: to.ikind, Signed: to.signed()})
		}
		return b.Asm.AllocNode(cil.IntCast{Value: v, Target: to.ikind, Signed: from.signed()})
	case floatScalar:
		return b.Asm.AllocNode(cil.FloatCast{
			Value:        v,
			Target:       to.fkind,
			FromUnsigned: from.kind != floatScalar && !from.signed(),
		})
	case ptrScalar:
		if from.kind == intScalar {
			return b.Asm.AllocNode(cil.PtrCast{Value: v, Target: b.ty(target)})
		}
	case boolScalar:
		if from.kind == boolScalar {
			return v
		}
	}
	cil.Unsupported("cast from %s to %s", src, target)
	return 0
}

func isPtr(t mir.Ty) bool {
	switch t.(type) {
	case mir.Ref, mir.RawPtr, mir.FnPtr:
		return true
	}
	return false
}

func pointee(t mir.Ty) (mir.Ty, bool) {
	switch tt := t.(type) {
	case mir.Ref:
		return tt.Pointee, true
	case mir.RawPtr:
		return tt.Pointee, true
	}
	return nil, false
}

// ptrCast converts between pointer types. Fat to thin keeps the data
// pointer; fat to fat needs both pointees to share a metadata kind.
func (b *builder) ptrCast(src, target mir.Ty, v cil.NodeIdx) cil.NodeIdx {
	srcPointee, srcOk := pointee(src)
	dstPointee, dstOk := pointee(target)
	srcFat := srcOk && b.Tcx.IsFat(srcPointee)
	dstFat := dstOk && b.Tcx.IsFat(dstPointee)
	switch {
	case !srcFat && !dstFat:
		return b.Asm.AllocNode(cil.PtrCast{Value: v, Target: b.ty(target)})
	case srcFat && !dstFat:
		data, _ := typelower.FatPtrFields(b.Asm, b.Tcx, srcPointee)
		return b.Asm.AllocNode(cil.PtrCast{
			Value:  b.Asm.AllocNode(cil.LdField{Addr: v, Field: data}),
			Target: b.ty(target),
		})
	case srcFat && dstFat && b.ty(src) == b.ty(target):
		// &mut [T] to *const [T] and the like
		return v
	}
	cil.Unsupported("pointer cast from %s to %s", src, target)
	return 0
}

// discriminant reads the variant index of an enum place as a dest value
func (b *builder) discriminant(p mir.Place, dest mir.Ty) cil.NodeIdx {
	destKind := b.scalarOf(dest).ikind
	enum, ok := b.placeTy(p).(mir.Adt)
	if !ok || enum.Def.Kind != mir.EnumKind || b.Tcx.LayoutOf(enum).IsZST() {
		return b.Asm.AllocNode(cil.ConstInt{Kind: destKind, Bits: 0})
	}
	field := b.DiscriminantField(enum)
	tag := b.Asm.AllocNode(cil.LdField{Addr: b.Address(p), Field: field})
	if b.Asm.IntType(destKind) == field.Type {
		return tag
	}
	return b.Asm.AllocNode(cil.IntCast{Value: tag, Target: destKind})
}
