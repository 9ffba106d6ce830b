package cil

// Local is a method local variable
type Local struct {
	Name string
	Type TypeIdx
}

// Method is a lowered function body
type Method struct {
	Name   string
	Args   []TypeIdx
	Ret    TypeIdx
	Locals []Local
	Blocks []BasicBlock
}

// Block returns the top-level block with the given id
func (m *Method) Block(id uint32) (*BasicBlock, bool) {
	for i := range m.Blocks {
		if m.Blocks[i].BlockID() == id {
			return &m.Blocks[i], true
		}
	}
	return nil, false
}

// MapRoots rewrites every root of every block of the method
func (m *Method) MapRoots(asm *Assembly, rootMap RootMap, nodeMap NodeMap) {
	for i := range m.Blocks {
		m.Blocks[i].MapRoots(asm, rootMap, nodeMap)
	}
}

// RootCount returns the number of roots reachable from the method's blocks
func (m *Method) RootCount() int {
	n := 0
	for i := range m.Blocks {
		for range m.Blocks[i].IterRoots() {
			n++
		}
	}
	return n
}
