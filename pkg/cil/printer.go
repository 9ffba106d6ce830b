package cil

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// Printer outputs lowered methods in an IL-like textual form.
// Nodes print in prefix form: op(operands).
type Printer struct {
	w   io.Writer
	asm *Assembly
}

// NewPrinter creates a new CIL printer over the given assembly
func NewPrinter(w io.Writer, asm *Assembly) *Printer {
	return &Printer{w: w, asm: asm}
}

// PrintMethods prints every method, separated by blank lines
func (p *Printer) PrintMethods(methods []*Method) {
	for i, m := range methods {
		p.PrintMethod(m)
		if i < len(methods)-1 {
			fmt.Fprintln(p.w)
		}
	}
}

// PrintMethod prints a method with its locals and blocks
func (p *Printer) PrintMethod(m *Method) {
	args := make([]string, len(m.Args))
	for i, a := range m.Args {
		args[i] = p.asm.TypeName(a)
	}
	fmt.Fprintf(p.w, ".method static %s %s(%s) {\n", p.asm.TypeName(m.Ret), m.Name, strings.Join(args, ", "))
	if len(m.Locals) > 0 {
		fmt.Fprintln(p.w, "  .locals (")
		for i, l := range m.Locals {
			fmt.Fprintf(p.w, "    [%d] %s %s\n", i, p.asm.TypeName(l.Type), l.Name)
		}
		fmt.Fprintln(p.w, "  )")
	}
	for i := range m.Blocks {
		p.printBlock(&m.Blocks[i], "  ")
	}
	fmt.Fprintln(p.w, "}")
}

func (p *Printer) printBlock(b *BasicBlock, indent string) {
	fmt.Fprintf(p.w, "%sbb%d:\n", indent, b.BlockID())
	for _, r := range b.Roots() {
		fmt.Fprintf(p.w, "%s  %s\n", indent, p.RootString(r))
	}
	if b.HasHandler() {
		fmt.Fprintf(p.w, "%s  .handler {\n", indent)
		for i := range b.Handler() {
			p.printBlock(&b.Handler()[i], indent+"    ")
		}
		fmt.Fprintf(p.w, "%s  }\n", indent)
	}
}

// RootString returns the textual form of a root
func (p *Printer) RootString(r RootIdx) string {
	n := p.NodeString
	switch rr := p.asm.Root(r).(type) {
	case Nop:
		return "nop"
	case Break:
		return "break"
	case ReThrow:
		return "rethrow"
	case SourceFileInfo:
		return fmt.Sprintf(".line %s:%d:%d", rr.File, rr.Line, rr.Column)
	case Branch:
		switch c := rr.Cond.(type) {
		case IfTrue:
			return fmt.Sprintf("brtrue bb%d %s", rr.Target, n(c.Value))
		case IfFalse:
			return fmt.Sprintf("brfalse bb%d %s", rr.Target, n(c.Value))
		case IfEq:
			return fmt.Sprintf("beq bb%d %s, %s", rr.Target, n(c.A), n(c.B))
		case IfNe:
			return fmt.Sprintf("bne.un bb%d %s, %s", rr.Target, n(c.A), n(c.B))
		default:
			return fmt.Sprintf("br bb%d", rr.Target)
		}
	case ExitSpecialRegion:
		return fmt.Sprintf("leave bb%d", rr.Target)
	case StLoc:
		return fmt.Sprintf("stloc.%d %s", rr.Local, n(rr.Value))
	case StArg:
		return fmt.Sprintf("starg.%d %s", rr.Arg, n(rr.Value))
	case StInd:
		return fmt.Sprintf("stind %s(%s, %s)", p.asm.TypeName(rr.Type), n(rr.Addr), n(rr.Value))
	case SetField:
		return fmt.Sprintf("stfld %s(%s, %s)", p.fieldString(rr.Field), n(rr.Addr), n(rr.Value))
	case InitObj:
		return fmt.Sprintf("initobj %s(%s)", p.asm.TypeName(rr.Type), n(rr.Addr))
	case Pop:
		return "pop " + n(rr.Value)
	case Ret:
		return "ret " + n(rr.Value)
	case VoidRet:
		return "ret"
	case CallRoot:
		return fmt.Sprintf("call %s(%s)", p.methodString(rr.Method), p.listString(rr.Args))
	case Throw:
		return "throw " + n(rr.Value)
	}
	return "???"
}

// NodeString returns the textual form of a node tree
func (p *Printer) NodeString(idx NodeIdx) string {
	n := p.NodeString
	switch nn := p.asm.Node(idx).(type) {
	case ConstInt:
		if nn.Kind.Signed() {
			return fmt.Sprintf("ldc.%s %d", nn.Kind.ILName(), int64(nn.Bits))
		}
		return fmt.Sprintf("ldc.%s %d", nn.Kind.ILName(), nn.Bits)
	case ConstFloat:
		if nn.Kind == F32 {
			return fmt.Sprintf("ldc.float32 %v", math.Float32frombits(uint32(nn.Bits)))
		}
		return fmt.Sprintf("ldc.float64 %v", math.Float64frombits(nn.Bits))
	case ConstBool:
		return fmt.Sprintf("ldc.bool %t", nn.Value)
	case ConstString:
		return fmt.Sprintf("ldstr %q", nn.Value)
	case LdLoc:
		return fmt.Sprintf("ldloc.%d", nn.Local)
	case LdLocA:
		return fmt.Sprintf("ldloca.%d", nn.Local)
	case LdArg:
		return fmt.Sprintf("ldarg.%d", nn.Arg)
	case LdArgA:
		return fmt.Sprintf("ldarga.%d", nn.Arg)
	case LdInd:
		return fmt.Sprintf("ldind %s(%s)", p.asm.TypeName(nn.Type), n(nn.Addr))
	case LdObj:
		return fmt.Sprintf("ldobj %s(%s)", p.asm.TypeName(nn.Type), n(nn.Addr))
	case LdField:
		return fmt.Sprintf("ldfld %s(%s)", p.fieldString(nn.Field), n(nn.Addr))
	case LdFieldAddr:
		return fmt.Sprintf("ldflda %s(%s)", p.fieldString(nn.Field), n(nn.Addr))
	case BinOp:
		return fmt.Sprintf("%s(%s, %s)", nn.Op, n(nn.A), n(nn.B))
	case UnOp:
		return fmt.Sprintf("%s(%s)", nn.Op, n(nn.Value))
	case IntCast:
		suffix := ""
		if nn.Signed {
			suffix = ".sx"
		}
		return fmt.Sprintf("conv.%s%s(%s)", nn.Target.ILName(), suffix, n(nn.Value))
	case FloatCast:
		if nn.FromUnsigned {
			return fmt.Sprintf("conv.r.un.%s(%s)", nn.Target.ILName(), n(nn.Value))
		}
		return fmt.Sprintf("conv.%s(%s)", nn.Target.ILName(), n(nn.Value))
	case PtrCast:
		return fmt.Sprintf("ptrcast %s(%s)", p.asm.TypeName(nn.Target), n(nn.Value))
	case SizeOf:
		return "sizeof " + p.asm.TypeName(nn.Type)
	case Call:
		return fmt.Sprintf("call %s(%s)", p.methodString(nn.Method), p.listString(nn.Args))
	}
	return "???"
}

func (p *Printer) listString(l NodeList) string {
	args := p.asm.Nodes(l)
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = p.NodeString(a)
	}
	return strings.Join(parts, ", ")
}

func (p *Printer) fieldString(f FieldDesc) string {
	return fmt.Sprintf("%s %s::%s", p.asm.TypeName(f.Type), p.asm.TypeName(f.Owner), f.Name)
}

func (p *Printer) methodString(m MethodRef) string {
	inputs := p.asm.Types(m.Sig.Inputs)
	parts := make([]string, len(inputs))
	for i, t := range inputs {
		parts[i] = p.asm.TypeName(t)
	}
	return fmt.Sprintf("%s %s::%s<%s>", p.asm.TypeName(m.Sig.Output), p.asm.TypeName(m.Class), m.Name, strings.Join(parts, ","))
}
