package typelower

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/tinco/rustc-codegen-clr/pkg/cil"
	"github.com/tinco/rustc-codegen-clr/pkg/mir"
)

// Entry is one row of the type lowering table: a monomorphic source type
// with the names both engines give it. A type one engine cannot lower
// carries the reason instead of a name.
type Entry struct {
	Source  string
	ArgName string
	Type    string
}

// Table lowers every local type of every function in prog, each in its
// own instance, and returns one entry per distinct monomorphic type
// sorted by source spelling.
func Table(asm *cil.Assembly, prog *mir.Program) []Entry {
	seen := make(map[string]bool)
	var entries []Entry
	for _, body := range prog.Functions {
		tcx := mir.NewInstance(body.Instance...)
		for _, local := range body.Locals {
			ty := tcx.Monomorphize(local.Ty)
			key := ty.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			entries = append(entries, Entry{
				Source:  key,
				ArgName: try(func() string { return ArgName(FromTy(tcx, ty)) }),
				Type:    try(func() string { return asm.TypeName(GetType(asm, tcx, ty)) }),
			})
		}
	}
	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.Source, b.Source) })
	return entries
}

// try runs a naming function, turning an unsupported construct into its
// message
func try(name func() string) (s string) {
	defer func() {
		if r := recover(); r != nil {
			uerr, ok := r.(*cil.UnsupportedError)
			if !ok {
				panic(r)
			}
			s = uerr.Error()
		}
	}()
	return name()
}

// PrintTable writes the table, one tab separated row per entry
func PrintTable(w io.Writer, entries []Entry) {
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Source, e.ArgName, e.Type)
	}
}
