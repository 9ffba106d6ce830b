package cil

import (
	"encoding/binary"
	"fmt"
)

// interner stores values of T once and hands out stable 1-based handles.
type interner[T comparable] struct {
	vals []T
	idx  map[T]uint32
}

func (in *interner[T]) alloc(v T) uint32 {
	if in.idx == nil {
		in.idx = make(map[T]uint32)
	}
	if h, ok := in.idx[v]; ok {
		return h
	}
	in.vals = append(in.vals, v)
	h := uint32(len(in.vals))
	in.idx[v] = h
	return h
}

func (in *interner[T]) get(h uint32, what string) T {
	if h == 0 || int(h) > len(in.vals) {
		panic(fmt.Sprintf("invalid %s handle %d (have %d)", what, h, len(in.vals)))
	}
	return in.vals[h-1]
}

// listInterner interns slices of handles. The key is the little-endian
// encoding of the elements, so equal lists share a handle.
type listInterner struct {
	vals [][]uint32
	idx  map[string]uint32
}

func (in *listInterner) alloc(elems []uint32) uint32 {
	if in.idx == nil {
		in.idx = make(map[string]uint32)
	}
	key := make([]byte, 4*len(elems))
	for i, e := range elems {
		binary.LittleEndian.PutUint32(key[4*i:], e)
	}
	if h, ok := in.idx[string(key)]; ok {
		return h
	}
	in.vals = append(in.vals, append([]uint32(nil), elems...))
	h := uint32(len(in.vals))
	in.idx[string(key)] = h
	return h
}

func (in *listInterner) get(h uint32, what string) []uint32 {
	if h == 0 || int(h) > len(in.vals) {
		panic(fmt.Sprintf("invalid %s handle %d (have %d)", what, h, len(in.vals)))
	}
	return in.vals[h-1]
}

// Assembly is the arena that owns every interned type, node and root of a
// compilation unit. Structurally equal values always share a handle.
// An Assembly must not be mutated concurrently.
type Assembly struct {
	types     interner[Type]
	nodes     interner[Node]
	roots     interner[Root]
	nodeLists listInterner
	typeLists listInterner
}

// NewAssembly creates an empty assembly
func NewAssembly() *Assembly {
	return &Assembly{}
}

// AllocType interns a type
func (a *Assembly) AllocType(t Type) TypeIdx {
	return TypeIdx(a.types.alloc(t))
}

// AllocNode interns a node
func (a *Assembly) AllocNode(n Node) NodeIdx {
	return NodeIdx(a.nodes.alloc(n))
}

// AllocRoot interns a root
func (a *Assembly) AllocRoot(r Root) RootIdx {
	if b, ok := r.(Branch); ok && b.Cond == nil {
		b.Cond = Always{}
		r = b
	}
	return RootIdx(a.roots.alloc(r))
}

// AllocNodes interns a list of nodes
func (a *Assembly) AllocNodes(nodes []NodeIdx) NodeList {
	elems := make([]uint32, len(nodes))
	for i, n := range nodes {
		elems[i] = uint32(n)
	}
	return NodeList(a.nodeLists.alloc(elems))
}

// AllocTypes interns a list of types
func (a *Assembly) AllocTypes(types []TypeIdx) TypeList {
	elems := make([]uint32, len(types))
	for i, t := range types {
		elems[i] = uint32(t)
	}
	return TypeList(a.typeLists.alloc(elems))
}

// AllocSig builds a signature from its input and output types
func (a *Assembly) AllocSig(inputs []TypeIdx, output TypeIdx) Sig {
	return Sig{Inputs: a.AllocTypes(inputs), Output: output}
}

// Type returns the type behind a handle
func (a *Assembly) Type(t TypeIdx) Type {
	return a.types.get(uint32(t), "type")
}

// Node returns the node behind a handle
func (a *Assembly) Node(n NodeIdx) Node {
	return a.nodes.get(uint32(n), "node")
}

// Root returns the root behind a handle
func (a *Assembly) Root(r RootIdx) Root {
	return a.roots.get(uint32(r), "root")
}

// Nodes returns the nodes of a list
func (a *Assembly) Nodes(l NodeList) []NodeIdx {
	elems := a.nodeLists.get(uint32(l), "node list")
	nodes := make([]NodeIdx, len(elems))
	for i, e := range elems {
		nodes[i] = NodeIdx(e)
	}
	return nodes
}

// Types returns the types of a list
func (a *Assembly) Types(l TypeList) []TypeIdx {
	elems := a.typeLists.get(uint32(l), "type list")
	types := make([]TypeIdx, len(elems))
	for i, e := range elems {
		types[i] = TypeIdx(e)
	}
	return types
}

// Stats reports the number of interned values per table
type Stats struct {
	Types int
	Nodes int
	Roots int
}

// Stats returns the current table sizes
func (a *Assembly) Stats() Stats {
	return Stats{
		Types: len(a.types.vals),
		Nodes: len(a.nodes.vals),
		Roots: len(a.roots.vals),
	}
}
