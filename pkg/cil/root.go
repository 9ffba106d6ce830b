package cil

// RootIdx is a handle to an interned Root
type RootIdx uint32

// Root is a statement: it produces no value and may have side effects
type Root interface {
	implRoot()
}

// Nop does nothing
type Nop struct{}

// Break is a debugger breakpoint
type Break struct{}

// ReThrow re-raises the exception being handled
type ReThrow struct{}

// SourceFileInfo attaches a source location to the following roots
type SourceFileInfo struct {
	File   string
	Line   uint32
	Column uint32
}

// BranchCond is the condition of a Branch
type BranchCond interface {
	implBranchCond()
}

// Always branches unconditionally
type Always struct{}

// IfTrue branches when Value is non-zero
type IfTrue struct {
	Value NodeIdx
}

// IfFalse branches when Value is zero
type IfFalse struct {
	Value NodeIdx
}

// IfEq branches when A equals B
type IfEq struct {
	A NodeIdx
	B NodeIdx
}

// IfNe branches when A differs from B
type IfNe struct {
	A NodeIdx
	B NodeIdx
}

func (Always) implBranchCond()  {}
func (IfTrue) implBranchCond()  {}
func (IfFalse) implBranchCond() {}
func (IfEq) implBranchCond()    {}
func (IfNe) implBranchCond()    {}

// Branch jumps to the block Target when Cond holds
type Branch struct {
	Target uint32
	Cond   BranchCond
}

// IsUnconditional reports whether the branch is always taken
func (b Branch) IsUnconditional() bool {
	_, ok := b.Cond.(Always)
	return ok || b.Cond == nil
}

// ExitSpecialRegion leaves a protected region and jumps to Target
type ExitSpecialRegion struct {
	Target uint32
}

// StLoc stores Value into a local
type StLoc struct {
	Local uint32
	Value NodeIdx
}

// StArg stores Value into an argument
type StArg struct {
	Arg   uint32
	Value NodeIdx
}

// StInd is a typed store of Value through Addr
type StInd struct {
	Addr  NodeIdx
	Value NodeIdx
	Type  TypeIdx
}

// SetField stores Value into a field through Addr
type SetField struct {
	Addr  NodeIdx
	Value NodeIdx
	Field FieldDesc
}

// InitObj zero-initialises an object of Type at Addr
type InitObj struct {
	Addr NodeIdx
	Type TypeIdx
}

// Pop evaluates Value and discards it
type Pop struct {
	Value NodeIdx
}

// Ret returns Value
type Ret struct {
	Value NodeIdx
}

// VoidRet returns without a value
type VoidRet struct{}

// CallRoot calls a method for its side effects
type CallRoot struct {
	Method MethodRef
	Args   NodeList
}

// Throw raises Value as an exception
type Throw struct {
	Value NodeIdx
}

func (Nop) implRoot()               {}
func (Break) implRoot()             {}
func (ReThrow) implRoot()           {}
func (SourceFileInfo) implRoot()    {}
func (Branch) implRoot()            {}
func (ExitSpecialRegion) implRoot() {}
func (StLoc) implRoot()             {}
func (StArg) implRoot()             {}
func (StInd) implRoot()             {}
func (SetField) implRoot()          {}
func (InitObj) implRoot()           {}
func (Pop) implRoot()               {}
func (Ret) implRoot()               {}
func (VoidRet) implRoot()           {}
func (CallRoot) implRoot()          {}
func (Throw) implRoot()             {}

// IsMeaningless reports whether a root has no computational effect
func IsMeaningless(r Root) bool {
	switch r.(type) {
	case Nop, SourceFileInfo:
		return true
	}
	return false
}

// Goto interns an unconditional branch to target
func (a *Assembly) Goto(target uint32) RootIdx {
	return a.AllocRoot(Branch{Target: target, Cond: Always{}})
}
