package mir

import (
	"fmt"
	"strings"
)

// Local indexes a body's local declarations.
// Local 0 is the return place, locals 1..=ArgCount are the arguments.
type Local int

// BlockID identifies a basic block within a body
type BlockID uint32

// Place is a memory location reached from a local through projections
type Place struct {
	Local      Local
	Projection []PlaceElem
}

// LocalPlace returns a place without projections
func LocalPlace(l Local) Place {
	return Place{Local: l}
}

// Project returns a copy of p extended with elems
func (p Place) Project(elems ...PlaceElem) Place {
	proj := make([]PlaceElem, 0, len(p.Projection)+len(elems))
	proj = append(proj, p.Projection...)
	proj = append(proj, elems...)
	return Place{Local: p.Local, Projection: proj}
}

func (p Place) String() string {
	s := fmt.Sprintf("_%d", p.Local)
	for _, e := range p.Projection {
		switch el := e.(type) {
		case Deref:
			s = "(*" + s + ")"
		case Field:
			s = fmt.Sprintf("%s.%d", s, el.Index)
		case Index:
			s = fmt.Sprintf("%s[_%d]", s, el.Local)
		case ConstantIndex:
			if el.FromEnd {
				s = fmt.Sprintf("%s[-%d of %d]", s, el.Offset, el.MinLength)
			} else {
				s = fmt.Sprintf("%s[%d of %d]", s, el.Offset, el.MinLength)
			}
		case Subslice:
			if el.FromEnd {
				s = fmt.Sprintf("%s[%d:-%d]", s, el.From, el.To)
			} else {
				s = fmt.Sprintf("%s[%d:%d]", s, el.From, el.To)
			}
		case Downcast:
			s = fmt.Sprintf("(%s as variant#%d)", s, el.Variant)
		}
	}
	return s
}

// PlaceElem is one projection step of a place
type PlaceElem interface {
	implPlaceElem()
}

// Deref dereferences a reference or raw pointer
type Deref struct{}

// Field selects field Index of a struct, tuple, closure or enum variant
type Field struct {
	Index int
}

// Index selects an element using the value of a usize local
type Index struct {
	Local Local
}

// ConstantIndex selects an element at a constant offset, counted from the
// end when FromEnd is set
type ConstantIndex struct {
	Offset    uint64
	MinLength uint64
	FromEnd   bool
}

// Subslice selects elements From..To (To counted from the end when FromEnd)
type Subslice struct {
	From    uint64
	To      uint64
	FromEnd bool
}

// Downcast views an enum as one of its variants
type Downcast struct {
	Variant int
}

func (Deref) implPlaceElem()         {}
func (Field) implPlaceElem()         {}
func (Index) implPlaceElem()         {}
func (ConstantIndex) implPlaceElem() {}
func (Subslice) implPlaceElem()      {}
func (Downcast) implPlaceElem()      {}

// --- Operands and rvalues ---

// Operand is a value used by an rvalue or terminator
type Operand interface {
	implOperand()
}

// Copy reads a place by copy
type Copy struct {
	Place Place
}

// Move reads a place by move
type Move struct {
	Place Place
}

// Constant is a scalar constant. Bits holds the raw value: integers are
// two's complement, floats are IEEE bits, bools are 0 or 1.
type Constant struct {
	Ty   Ty
	Bits uint64
}

func (Copy) implOperand()     {}
func (Move) implOperand()     {}
func (Constant) implOperand() {}

// OperandPlace returns the place read by op, if any
func OperandPlace(op Operand) (Place, bool) {
	switch o := op.(type) {
	case Copy:
		return o.Place, true
	case Move:
		return o.Place, true
	}
	return Place{}, false
}

// UnOp is a unary operator
type UnOp int

const (
	Neg UnOp = iota
	Not
	PtrMetadata
)

func (op UnOp) String() string {
	names := []string{"Neg", "Not", "PtrMetadata"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// BinOp is a binary operator
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Rem
	BitAnd
	BitOr
	BitXor
	Shl
	Shr
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
)

func (op BinOp) String() string {
	names := []string{"Add", "Sub", "Mul", "Div", "Rem", "BitAnd", "BitOr", "BitXor",
		"Shl", "Shr", "Eq", "Ne", "Lt", "Le", "Gt", "Ge"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// IsComparison reports whether op produces a bool
func (op BinOp) IsComparison() bool {
	return op >= Eq
}

// Rvalue is the right hand side of an assignment
type Rvalue interface {
	implRvalue()
}

// Use evaluates an operand
type Use struct {
	Operand Operand
}

// UnaryOp applies a unary operator
type UnaryOp struct {
	Op      UnOp
	Operand Operand
}

// BinaryOp applies a binary operator
type BinaryOp struct {
	Op    BinOp
	Left  Operand
	Right Operand
}

// RefOf takes a reference to a place
type RefOf struct {
	Mut   bool
	Place Place
}

// AddressOf takes a raw pointer to a place
type AddressOf struct {
	Mut   bool
	Place Place
}

// Len reads the length of an array or slice place
type Len struct {
	Place Place
}

// Cast converts an operand to Ty
type Cast struct {
	Operand Operand
	Ty      Ty
}

// Discriminant reads the discriminant of an enum place
type Discriminant struct {
	Place Place
}

func (Use) implRvalue()          {}
func (UnaryOp) implRvalue()      {}
func (BinaryOp) implRvalue()     {}
func (RefOf) implRvalue()        {}
func (AddressOf) implRvalue()    {}
func (Len) implRvalue()          {}
func (Cast) implRvalue()         {}
func (Discriminant) implRvalue() {}

// --- Statements ---

// Span is a source location
type Span struct {
	File   string
	Line   uint32
	Column uint32
}

// Statement is a non-terminating statement of a basic block
type Statement interface {
	implStatement()
}

// Assign stores an rvalue into a place
type Assign struct {
	Place  Place
	Rvalue Rvalue
	Span   *Span
}

// SetDiscriminant writes the discriminant of an enum place
type SetDiscriminant struct {
	Place   Place
	Variant int
	Span    *Span
}

// StorageLive marks the start of a local's storage
type StorageLive struct {
	Local Local
}

// StorageDead marks the end of a local's storage
type StorageDead struct {
	Local Local
}

// Nop does nothing
type Nop struct{}

func (Assign) implStatement()          {}
func (SetDiscriminant) implStatement() {}
func (StorageLive) implStatement()     {}
func (StorageDead) implStatement()     {}
func (Nop) implStatement()             {}

// --- Terminators ---

// Terminator ends a basic block
type Terminator interface {
	implTerminator()
	Successors() []BlockID
}

// Goto jumps unconditionally
type Goto struct {
	Target BlockID
}

// SwitchTarget is one arm of a SwitchInt
type SwitchTarget struct {
	Value  uint64
	Target BlockID
}

// SwitchInt branches on the value of an integer or bool operand
type SwitchInt struct {
	Discr     Operand
	Targets   []SwitchTarget
	Otherwise BlockID
}

// Return returns the value in local 0
type Return struct{}

// Unreachable marks a block that can never execute
type Unreachable struct{}

// UnwindResume continues unwinding out of a cleanup block
type UnwindResume struct{}

// Call calls a function by name. Target is nil for diverging calls,
// Cleanup is the block to unwind into, if any.
type Call struct {
	Func        string
	Args        []Operand
	Destination Place
	Target      *BlockID
	Cleanup     *BlockID
}

// Drop drops a place and continues at Target
type Drop struct {
	Place   Place
	Target  BlockID
	Cleanup *BlockID
}

// Assert continues at Target if Cond equals Expected, panics otherwise
type Assert struct {
	Cond     Operand
	Expected bool
	Msg      string
	Target   BlockID
	Cleanup  *BlockID
}

func (Goto) implTerminator()         {}
func (SwitchInt) implTerminator()    {}
func (Return) implTerminator()       {}
func (Unreachable) implTerminator()  {}
func (UnwindResume) implTerminator() {}
func (Call) implTerminator()         {}
func (Drop) implTerminator()         {}
func (Assert) implTerminator()       {}

func (t Goto) Successors() []BlockID { return []BlockID{t.Target} }

func (t SwitchInt) Successors() []BlockID {
	succ := make([]BlockID, 0, len(t.Targets)+1)
	for _, st := range t.Targets {
		succ = append(succ, st.Target)
	}
	return append(succ, t.Otherwise)
}

func (Return) Successors() []BlockID       { return nil }
func (Unreachable) Successors() []BlockID  { return nil }
func (UnwindResume) Successors() []BlockID { return nil }

func (t Call) Successors() []BlockID {
	var succ []BlockID
	if t.Target != nil {
		succ = append(succ, *t.Target)
	}
	if t.Cleanup != nil {
		succ = append(succ, *t.Cleanup)
	}
	return succ
}

func (t Drop) Successors() []BlockID {
	succ := []BlockID{t.Target}
	if t.Cleanup != nil {
		succ = append(succ, *t.Cleanup)
	}
	return succ
}

func (t Assert) Successors() []BlockID {
	succ := []BlockID{t.Target}
	if t.Cleanup != nil {
		succ = append(succ, *t.Cleanup)
	}
	return succ
}

// UnwindTarget returns the cleanup block a terminator unwinds into
func UnwindTarget(t Terminator) (BlockID, bool) {
	var cleanup *BlockID
	switch tt := t.(type) {
	case Call:
		cleanup = tt.Cleanup
	case Drop:
		cleanup = tt.Cleanup
	case Assert:
		cleanup = tt.Cleanup
	}
	if cleanup == nil {
		return 0, false
	}
	return *cleanup, true
}

// --- Bodies ---

// LocalDecl declares a local
type LocalDecl struct {
	Name string
	Ty   Ty
}

// BasicBlockData is a MIR basic block
type BasicBlockData struct {
	Statements []Statement
	Terminator Terminator
	IsCleanup  bool
}

// Body is the MIR of one function
type Body struct {
	Name     string
	Generics []string
	Instance []Ty // generic arguments the body is lowered with
	ArgCount int
	Locals   []LocalDecl // Locals[0] is the return place
	Blocks   []BasicBlockData
}

// ReturnTy returns the type of the return place
func (b *Body) ReturnTy() Ty {
	if len(b.Locals) == 0 {
		return Unit()
	}
	return b.Locals[0].Ty
}

// LocalTy returns the declared type of a local
func (b *Body) LocalTy(l Local) Ty {
	if int(l) < 0 || int(l) >= len(b.Locals) {
		panic(fmt.Sprintf("local _%d out of range in %s", l, b.Name))
	}
	return b.Locals[l].Ty
}

// IsArg reports whether l is one of the function's arguments
func (b *Body) IsArg(l Local) bool {
	return l >= 1 && int(l) <= b.ArgCount
}

// Program is a set of ADT definitions and function bodies
type Program struct {
	Adts      map[string]*AdtDef
	Functions []*Body
}

// FunctionNames returns the names of all functions, comma separated
func (p *Program) FunctionNames() string {
	names := make([]string, len(p.Functions))
	for i, f := range p.Functions {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}
