package cil

// NodeIdx is a handle to an interned Node
type NodeIdx uint32

// NodeList is a handle to an interned list of nodes
type NodeList uint32

// Node is a value-producing instruction tree. Children are referenced by
// handle, so every variant is a comparable value that can be interned.
type Node interface {
	implNode()
}

// ConstInt pushes an integer constant. Bits holds the two's complement value.
type ConstInt struct {
	Kind Int
	Bits uint64
}

// ConstFloat pushes a float constant. Bits holds the IEEE-754 bits.
type ConstFloat struct {
	Kind Float
	Bits uint64
}

// ConstBool pushes a boolean constant
type ConstBool struct {
	Value bool
}

// ConstString pushes a string literal
type ConstString struct {
	Value string
}

// LdLoc loads a local variable
type LdLoc struct {
	Local uint32
}

// LdLocA loads the address of a local variable
type LdLocA struct {
	Local uint32
}

// LdArg loads an argument
type LdArg struct {
	Arg uint32
}

// LdArgA loads the address of an argument
type LdArgA struct {
	Arg uint32
}

// LdInd is a typed load of a primitive or thin pointer through Addr
type LdInd struct {
	Addr NodeIdx
	Type TypeIdx
}

// LdObj loads a whole object of Type through Addr
type LdObj struct {
	Addr NodeIdx
	Type TypeIdx
}

// LdField loads a field from an object or through an address
type LdField struct {
	Addr  NodeIdx
	Field FieldDesc
}

// LdFieldAddr computes the address of a field
type LdFieldAddr struct {
	Addr  NodeIdx
	Field FieldDesc
}

// BinOpKind is a binary stack operation
type BinOpKind uint8

const (
	OpAdd BinOpKind = iota
	OpSub
	OpMul
	OpDiv
	OpDivUn
	OpRem
	OpRemUn
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpShrUn
	OpEq
	OpLt
	OpLtUn
	OpGt
	OpGtUn
)

func (k BinOpKind) String() string {
	names := []string{"add", "sub", "mul", "div", "div.un", "rem", "rem.un", "and", "or", "xor",
		"shl", "shr", "shr.un", "ceq", "clt", "clt.un", "cgt", "cgt.un"}
	if int(k) < len(names) {
		return names[k]
	}
	return "?"
}

// BinOp applies a binary operation to A and B
type BinOp struct {
	Op BinOpKind
	A  NodeIdx
	B  NodeIdx
}

// UnOpKind is a unary stack operation
type UnOpKind uint8

const (
	OpNeg UnOpKind = iota
	OpNot
)

func (k UnOpKind) String() string {
	if k == OpNeg {
		return "neg"
	}
	return "not"
}

// UnOp applies a unary operation
type UnOp struct {
	Op    UnOpKind
	Value NodeIdx
}

// IntCast converts Value to an integer kind, sign or zero extending
type IntCast struct {
	Value  NodeIdx
	Target Int
	Signed bool
}

// FloatCast converts Value to a float kind, treating integer sources as
// unsigned when FromUnsigned is set
type FloatCast struct {
	Value        NodeIdx
	Target       Float
	FromUnsigned bool
}

// PtrCast reinterprets a pointer-sized value as a pointer of type Target
type PtrCast struct {
	Value  NodeIdx
	Target TypeIdx
}

// SizeOf pushes the size of Type
type SizeOf struct {
	Type TypeIdx
}

// Call calls Method and yields its result
type Call struct {
	Method MethodRef
	Args   NodeList
}

func (ConstInt) implNode()    {}
func (ConstFloat) implNode()  {}
func (ConstBool) implNode()   {}
func (ConstString) implNode() {}
func (LdLoc) implNode()       {}
func (LdLocA) implNode()      {}
func (LdArg) implNode()       {}
func (LdArgA) implNode()      {}
func (LdInd) implNode()       {}
func (LdObj) implNode()       {}
func (LdField) implNode()     {}
func (LdFieldAddr) implNode() {}
func (BinOp) implNode()       {}
func (UnOp) implNode()        {}
func (IntCast) implNode()     {}
func (FloatCast) implNode()   {}
func (PtrCast) implNode()     {}
func (SizeOf) implNode()      {}
func (Call) implNode()        {}

// Node constructors that allocate directly into the assembly

// ConstUSize interns a native unsigned integer constant
func (a *Assembly) ConstUSize(v uint64) NodeIdx {
	return a.AllocNode(IntCast{
		Value:  a.AllocNode(ConstInt{Kind: U64, Bits: v}),
		Target: USize,
	})
}

// Binary interns a binary operation
func (a *Assembly) Binary(op BinOpKind, lhs, rhs NodeIdx) NodeIdx {
	return a.AllocNode(BinOp{Op: op, A: lhs, B: rhs})
}

// CallNode interns a call with the given arguments
func (a *Assembly) CallNode(m MethodRef, args ...NodeIdx) NodeIdx {
	return a.AllocNode(Call{Method: m, Args: a.AllocNodes(args)})
}
