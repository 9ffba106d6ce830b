// Package cilgen lowers MIR function bodies into cil methods.
//
// Each MIR basic block becomes one cil block with the same id. Blocks whose
// terminator can unwind carry a handler made of the cleanup blocks it
// unwinds into; cleanup blocks are not emitted on their own. Regions are
// only ever left through region exits, so conditional jumps out of a region
// go through blocks with fresh ids past the last MIR block.
package cilgen

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/pkg/errors"

	"github.com/tinco/rustc-codegen-clr/pkg/cil"
	"github.com/tinco/rustc-codegen-clr/pkg/mir"
	"github.com/tinco/rustc-codegen-clr/pkg/place"
	"github.com/tinco/rustc-codegen-clr/pkg/typelower"
)

// ModuleClass is the class that holds every lowered function
const ModuleClass = "RustModule"

// Options controls lowering
type Options struct {
	// Logger receives progress at Debug and skipped functions at Warn.
	// Nil discards.
	Logger *slog.Logger
	// KeepGoing makes LowerProgram skip functions it cannot lower instead
	// of failing.
	KeepGoing bool
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// builder holds the state for lowering one function
type builder struct {
	place.Ctx
	log *slog.Logger
	// next is the id of the next block that has no MIR counterpart
	next uint32
}

// LowerProgram lowers every function of prog. Each function is lowered with
// its own instance arguments.
func LowerProgram(asm *cil.Assembly, prog *mir.Program, opts Options) ([]*cil.Method, error) {
	log := opts.logger()
	var methods []*cil.Method
	for _, body := range prog.Functions {
		m, err := LowerFunction(asm, mir.NewInstance(body.Instance...), body, opts)
		if err != nil {
			if !opts.KeepGoing {
				return methods, err
			}
			log.Warn("skipping function", "function", body.Name, "error", err)
			continue
		}
		methods = append(methods, m)
	}
	return methods, nil
}

// LowerFunction lowers a single body. Constructs with no lowering rule
// abort the function with an error wrapping *cil.UnsupportedError.
func LowerFunction(asm *cil.Assembly, tcx mir.TyCtxt, body *mir.Body, opts Options) (m *cil.Method, err error) {
	defer func() {
		if r := recover(); r != nil {
			uerr, ok := r.(*cil.UnsupportedError)
			if !ok {
				panic(r)
			}
			m, err = nil, errors.Wrapf(uerr, "lowering %s", body.Name)
		}
	}()
	if tcx == nil {
		tcx = mir.NewInstance(body.Instance...)
	}
	b := &builder{
		Ctx: place.Ctx{Asm: asm, Tcx: tcx, Body: body},
		log: opts.logger().With("function", body.Name),
	}
	b.log.Debug("lowering function", "blocks", len(body.Blocks), "locals", len(body.Locals))
	return b.method(), nil
}

// ty interns the target type of a source type in this function's instance
func (b *builder) ty(t mir.Ty) cil.TypeIdx {
	return typelower.GetType(b.Asm, b.Tcx, t)
}

func (b *builder) method() *cil.Method {
	body := b.Body
	m := &cil.Method{Name: body.Name, Ret: b.ty(body.ReturnTy())}
	for l := range body.Locals {
		local := mir.Local(l)
		t := b.ty(body.LocalTy(local))
		if body.IsArg(local) {
			m.Args = append(m.Args, t)
			continue
		}
		m.Locals = append(m.Locals, cil.Local{Name: localName(body, local), Type: t})
	}

	b.next = uint32(len(body.Blocks))
	lowered := make([][]cil.RootIdx, len(body.Blocks))
	for i := range body.Blocks {
		lowered[i] = b.block(mir.BlockID(i))
	}
	for i, data := range body.Blocks {
		if data.IsCleanup {
			continue
		}
		id := uint32(i)
		cleanup, ok := mir.UnwindTarget(data.Terminator)
		if !ok {
			m.Blocks = append(m.Blocks, cil.NewBasicBlock(lowered[i], id, nil))
			continue
		}
		roots := lowered[i]
		// conditional jumps stay outside the protected region; statements
		// never unwind, so only the rest of the terminator is protected
		if k := lastConditional(b.Asm, roots); k >= 0 {
			rest := b.freshBlock()
			head := append(slices.Clone(roots[:k+1]), b.Asm.Goto(rest))
			m.Blocks = append(m.Blocks, cil.NewBasicBlock(head, id, nil))
			id, roots = rest, roots[k+1:]
		}
		protected := cil.NewBasicBlock(roots, id, nil)
		protected.MapRoots(b.Asm, leaveRegion(nil, nil), cil.IdentityNode)
		handler := b.handler(cleanup, lowered)
		m.Blocks = append(m.Blocks, cil.NewBasicBlock(protected.Roots(), id, handler))
	}
	return m
}

func localName(body *mir.Body, l mir.Local) string {
	if name := body.Locals[l].Name; name != "" {
		return name
	}
	return fmt.Sprintf("_%d", l)
}

// handler builds the handler region for an unwind into the cleanup block
// start: every cleanup block reachable from it, in discovery order.
// Jumps out of the region become region exits.
func (b *builder) handler(start mir.BlockID, lowered [][]cil.RootIdx) []cil.BasicBlock {
	var order []mir.BlockID
	seen := map[mir.BlockID]bool{}
	stack := []mir.BlockID{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] || !b.Body.Blocks[id].IsCleanup {
			continue
		}
		seen[id] = true
		order = append(order, id)
		succ := b.Body.Blocks[id].Terminator.Successors()
		for i := len(succ) - 1; i >= 0; i-- {
			stack = append(stack, succ[i])
		}
	}

	inside := make([]uint32, len(order))
	for i, id := range order {
		inside[i] = uint32(id)
	}
	// one exit block per outside target of a conditional jump
	exits := map[uint32]uint32{}
	var trampolines []cil.BasicBlock
	exitTo := func(target uint32) uint32 {
		if id, ok := exits[target]; ok {
			return id
		}
		id := b.freshBlock()
		exits[target] = id
		exit := b.Asm.AllocRoot(cil.ExitSpecialRegion{Target: target})
		trampolines = append(trampolines, cil.NewBasicBlock([]cil.RootIdx{exit}, id, nil))
		return id
	}

	handler := make([]cil.BasicBlock, len(order))
	for i, id := range order {
		handler[i] = cil.NewBasicBlock(slices.Clone(lowered[id]), uint32(id), nil)
		handler[i].MapRoots(b.Asm, leaveRegion(inside, exitTo), cil.IdentityNode)
	}
	handler = append(handler, trampolines...)
	b.log.Debug("built handler", "cleanup", start, "blocks", len(handler))
	return handler
}

func (b *builder) freshBlock() uint32 {
	id := b.next
	b.next++
	return id
}

// lastConditional returns the index of the last conditional branch in
// roots, or -1
func lastConditional(asm *cil.Assembly, roots []cil.RootIdx) int {
	for i := len(roots) - 1; i >= 0; i-- {
		if br, ok := asm.Root(roots[i]).(cil.Branch); ok && !br.IsUnconditional() {
			return i
		}
	}
	return -1
}

// leaveRegion rewrites branches to blocks outside the region. Unconditional
// ones become region exits; conditional ones are redirected to the block
// exitTo returns for their target, which exits the region.
func leaveRegion(inside []uint32, exitTo func(uint32) uint32) cil.RootMap {
	return func(r cil.Root, _ *cil.Assembly) cil.Root {
		br, ok := r.(cil.Branch)
		if !ok || slices.Contains(inside, br.Target) {
			return r
		}
		if br.IsUnconditional() {
			return cil.ExitSpecialRegion{Target: br.Target}
		}
		if exitTo == nil {
			panic(fmt.Sprintf("conditional branch to bb%d leaves a protected block", br.Target))
		}
		br.Target = exitTo(br.Target)
		return br
	}
}
