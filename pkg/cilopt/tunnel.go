// Branch tunneling for lowered methods.
// A branch to a block that does nothing but jump is retargeted to the
// final destination of the jump chain.
package cilopt

import "github.com/tinco/rustc-codegen-clr/pkg/cil"

// Tunnel shortcuts chains of direct-jump blocks. It returns the number of
// branches and region exits that were retargeted.
func Tunnel(asm *cil.Assembly, m *cil.Method) int {
	if len(m.Blocks) == 0 {
		return 0
	}
	resolved := resolveChains(jumpTargets(asm, m))
	if len(resolved) == 0 {
		return 0
	}

	changed := 0
	retarget := func(target uint32) uint32 {
		if final, ok := resolved[target]; ok && final != target {
			changed++
			return final
		}
		return target
	}
	m.MapRoots(asm, func(r cil.Root, _ *cil.Assembly) cil.Root {
		switch rr := r.(type) {
		case cil.Branch:
			rr.Target = retarget(rr.Target)
			return rr
		case cil.ExitSpecialRegion:
			rr.Target = retarget(rr.Target)
			return rr
		}
		return r
	}, cil.IdentityNode)
	return changed
}

// jumpTargets maps every top-level block that only jumps to its target.
// Blocks with a handler are never tunneled through.
func jumpTargets(asm *cil.Assembly, m *cil.Method) map[uint32]uint32 {
	result := make(map[uint32]uint32)
	for i := range m.Blocks {
		b := &m.Blocks[i]
		if b.HasHandler() {
			continue
		}
		if target, ok := b.IsDirectJump(asm); ok {
			result[b.BlockID()] = target
		}
	}
	return result
}

// resolveChains follows each jump chain to its end
func resolveChains(targets map[uint32]uint32) map[uint32]uint32 {
	result := make(map[uint32]uint32, len(targets))
	for id := range targets {
		result[id] = resolve(id, targets)
	}
	return result
}

// resolve follows a jump chain. A cycle resolves to the block where it
// is detected.
func resolve(id uint32, targets map[uint32]uint32) uint32 {
	visited := make(map[uint32]bool)
	current := id
	for {
		if visited[current] {
			return current
		}
		visited[current] = true
		next, ok := targets[current]
		if !ok {
			return current
		}
		current = next
	}
}
