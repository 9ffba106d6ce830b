// Handler and block cleanup for lowered methods.
package cilopt

import "github.com/tinco/rustc-codegen-clr/pkg/cil"

// PruneRethrowHandlers removes handlers that consist of a single rethrow
// block. Such a handler behaves as if the region were unprotected, so the
// region exits of the block become plain branches again. It returns the
// number of handlers removed.
func PruneRethrowHandlers(asm *cil.Assembly, m *cil.Method) int {
	pruned := 0
	for i := range m.Blocks {
		b := &m.Blocks[i]
		if !b.HasHandler() {
			continue
		}
		handler := b.Handler()
		if len(handler) != 1 || !handler[0].IsOnlyRethrow(asm) {
			continue
		}
		b.RemoveHandler()
		b.MapRoots(asm, func(r cil.Root, _ *cil.Assembly) cil.Root {
			if exit, ok := r.(cil.ExitSpecialRegion); ok {
				return cil.Branch{Target: exit.Target, Cond: cil.Always{}}
			}
			return r
		}, cil.IdentityNode)
		pruned++
	}
	return pruned
}

// RemoveUnreachable drops top-level blocks that cannot be reached from the
// entry block. The entry block is always kept. It returns the number of
// blocks removed.
func RemoveUnreachable(asm *cil.Assembly, m *cil.Method) int {
	if len(m.Blocks) == 0 {
		return 0
	}
	reached := map[uint32]bool{m.Blocks[0].BlockID(): true}
	work := []uint32{m.Blocks[0].BlockID()}
	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		b, ok := m.Block(id)
		if !ok {
			continue
		}
		for _, target := range successors(asm, b) {
			if !reached[target] {
				reached[target] = true
				work = append(work, target)
			}
		}
	}

	kept := make([]cil.BasicBlock, 0, len(m.Blocks))
	for _, b := range m.Blocks {
		if reached[b.BlockID()] {
			kept = append(kept, b)
		}
	}
	removed := len(m.Blocks) - len(kept)
	m.Blocks = kept
	return removed
}

// successors returns the targets of every branch and region exit in a
// block, handler included
func successors(asm *cil.Assembly, b *cil.BasicBlock) []uint32 {
	var targets []uint32
	for r := range b.IterRoots() {
		switch rr := asm.Root(r).(type) {
		case cil.Branch:
			targets = append(targets, rr.Target)
		case cil.ExitSpecialRegion:
			targets = append(targets, rr.Target)
		}
	}
	return targets
}
