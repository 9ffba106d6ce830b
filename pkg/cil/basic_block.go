package cil

import "iter"

// BasicBlock is a straight-line run of roots. A block may own a handler:
// a nested region of blocks that runs when the block raises an exception.
type BasicBlock struct {
	roots   []RootIdx
	blockID uint32
	handler []BasicBlock // nil when the block has no handler
}

// NewBasicBlock creates a block from already lowered roots. Pass a nil
// handler for a block without an exception region.
func NewBasicBlock(roots []RootIdx, blockID uint32, handler []BasicBlock) BasicBlock {
	return BasicBlock{roots: roots, blockID: blockID, handler: handler}
}

// Roots returns the block's own roots, excluding its handler
func (b *BasicBlock) Roots() []RootIdx {
	return b.roots
}

// SetRoots replaces the block's own roots
func (b *BasicBlock) SetRoots(roots []RootIdx) {
	b.roots = roots
}

// BlockID returns the id of the block, unique within its method
func (b *BasicBlock) BlockID() uint32 {
	return b.blockID
}

// Handler returns the handler blocks, or nil
func (b *BasicBlock) Handler() []BasicBlock {
	return b.handler
}

// HasHandler reports whether the block owns a handler region
func (b *BasicBlock) HasHandler() bool {
	return b.handler != nil
}

// RemoveHandler detaches the handler region
func (b *BasicBlock) RemoveHandler() {
	b.handler = nil
}

// IterRoots yields the block's own roots followed by the roots of each
// handler block, recursively, in block order.
func (b *BasicBlock) IterRoots() iter.Seq[RootIdx] {
	return func(yield func(RootIdx) bool) {
		b.walk(yield)
	}
}

func (b *BasicBlock) walk(yield func(RootIdx) bool) bool {
	for _, r := range b.roots {
		if !yield(r) {
			return false
		}
	}
	for i := range b.handler {
		if !b.handler[i].walk(yield) {
			return false
		}
	}
	return true
}

// MeaningfulRoots is IterRoots without roots that have no effect
func (b *BasicBlock) MeaningfulRoots(asm *Assembly) iter.Seq[RootIdx] {
	return func(yield func(RootIdx) bool) {
		for r := range b.IterRoots() {
			if IsMeaningless(asm.Root(r)) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// single returns the only meaningful root of the block
func (b *BasicBlock) single(asm *Assembly) (RootIdx, bool) {
	var only RootIdx
	n := 0
	for r := range b.MeaningfulRoots(asm) {
		n++
		if n > 1 {
			return 0, false
		}
		only = r
	}
	return only, n == 1
}

// IsDirectJump returns the branch target if the block does nothing but
// jump unconditionally to another block.
func (b *BasicBlock) IsDirectJump(asm *Assembly) (uint32, bool) {
	r, ok := b.single(asm)
	if !ok {
		return 0, false
	}
	br, ok := asm.Root(r).(Branch)
	if !ok || !br.IsUnconditional() {
		return 0, false
	}
	return br.Target, true
}

// IsOnlyRethrow reports whether the block does nothing but rethrow
func (b *BasicBlock) IsOnlyRethrow(asm *Assembly) bool {
	r, ok := b.single(asm)
	if !ok {
		return false
	}
	_, ok = asm.Root(r).(ReThrow)
	return ok
}

// MapRoots rewrites every root of the block and of its handler blocks with
// Assembly.MapRoot, replacing the handles in place.
func (b *BasicBlock) MapRoots(asm *Assembly, rootMap RootMap, nodeMap NodeMap) {
	for i, r := range b.roots {
		b.roots[i] = asm.MapRoot(r, rootMap, nodeMap)
	}
	for i := range b.handler {
		b.handler[i].MapRoots(asm, rootMap, nodeMap)
	}
}
