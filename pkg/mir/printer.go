package mir

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Printer outputs bodies in a rustc-like textual MIR form
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new MIR printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram prints every body, separated by blank lines
func (p *Printer) PrintProgram(prog *Program) {
	for i, b := range prog.Functions {
		p.PrintBody(b)
		if i < len(prog.Functions)-1 {
			fmt.Fprintln(p.w)
		}
	}
}

// PrintBody prints a body with its locals and blocks
func (p *Printer) PrintBody(b *Body) {
	args := make([]string, 0, b.ArgCount)
	for l := 1; l <= b.ArgCount && l < len(b.Locals); l++ {
		args = append(args, fmt.Sprintf("_%d: %s", l, tyString(b.Locals[l].Ty)))
	}
	name := b.Name
	if len(b.Generics) > 0 {
		name += "<" + strings.Join(b.Generics, ", ") + ">"
	}
	fmt.Fprintf(p.w, "fn %s(%s) -> %s {\n", name, strings.Join(args, ", "), tyString(b.ReturnTy()))
	if len(b.Instance) > 0 {
		fmt.Fprintf(p.w, "    // instance <%s>\n", joinTys(b.Instance))
	}
	for l := b.ArgCount + 1; l < len(b.Locals); l++ {
		fmt.Fprintf(p.w, "    let _%d: %s;", l, tyString(b.Locals[l].Ty))
		if n := b.Locals[l].Name; n != "" {
			fmt.Fprintf(p.w, " // %s", n)
		}
		fmt.Fprintln(p.w)
	}
	for i := range b.Blocks {
		p.printBlock(BlockID(i), &b.Blocks[i])
	}
	fmt.Fprintln(p.w, "}")
}

func (p *Printer) printBlock(id BlockID, b *BasicBlockData) {
	if b.IsCleanup {
		fmt.Fprintf(p.w, "    bb%d (cleanup): {\n", id)
	} else {
		fmt.Fprintf(p.w, "    bb%d: {\n", id)
	}
	for _, s := range b.Statements {
		fmt.Fprintf(p.w, "        %s;\n", StatementString(s))
	}
	if b.Terminator != nil {
		fmt.Fprintf(p.w, "        %s;\n", TerminatorString(b.Terminator))
	}
	fmt.Fprintln(p.w, "    }")
}

// StatementString returns the textual form of a statement
func StatementString(s Statement) string {
	switch st := s.(type) {
	case Assign:
		return fmt.Sprintf("%s = %s", st.Place, RvalueString(st.Rvalue))
	case SetDiscriminant:
		return fmt.Sprintf("discriminant(%s) = %d", st.Place, st.Variant)
	case StorageLive:
		return fmt.Sprintf("StorageLive(_%d)", st.Local)
	case StorageDead:
		return fmt.Sprintf("StorageDead(_%d)", st.Local)
	case Nop:
		return "nop"
	}
	return fmt.Sprintf("<%T>", s)
}

// RvalueString returns the textual form of an rvalue
func RvalueString(r Rvalue) string {
	switch rv := r.(type) {
	case Use:
		return OperandString(rv.Operand)
	case UnaryOp:
		return fmt.Sprintf("%s(%s)", rv.Op, OperandString(rv.Operand))
	case BinaryOp:
		return fmt.Sprintf("%s(%s, %s)", rv.Op, OperandString(rv.Left), OperandString(rv.Right))
	case RefOf:
		if rv.Mut {
			return "&mut " + rv.Place.String()
		}
		return "&" + rv.Place.String()
	case AddressOf:
		if rv.Mut {
			return "&raw mut " + rv.Place.String()
		}
		return "&raw const " + rv.Place.String()
	case Len:
		return fmt.Sprintf("Len(%s)", rv.Place)
	case Cast:
		return fmt.Sprintf("%s as %s", OperandString(rv.Operand), tyString(rv.Ty))
	case Discriminant:
		return fmt.Sprintf("discriminant(%s)", rv.Place)
	}
	return fmt.Sprintf("<%T>", r)
}

// OperandString returns the textual form of an operand
func OperandString(op Operand) string {
	switch o := op.(type) {
	case Copy:
		return "copy " + o.Place.String()
	case Move:
		return "move " + o.Place.String()
	case Constant:
		return "const " + constString(o)
	}
	return fmt.Sprintf("<%T>", op)
}

func constString(c Constant) string {
	switch t := c.Ty.(type) {
	case Int:
		bits := t.Width.Bytes(8) * 8
		v := int64(c.Bits)
		if bits < 64 {
			v = v << (64 - bits) >> (64 - bits)
		}
		return fmt.Sprintf("%d_%s", v, t)
	case Uint:
		return fmt.Sprintf("%d_%s", c.Bits, t)
	case Float:
		if t.Width == F32 {
			return strconv.FormatFloat(float64(math.Float32frombits(uint32(c.Bits))), 'g', -1, 32) + "_f32"
		}
		return strconv.FormatFloat(math.Float64frombits(c.Bits), 'g', -1, 64) + "_f64"
	case Bool:
		return strconv.FormatBool(c.Bits != 0)
	case Char:
		return strconv.QuoteRune(rune(c.Bits))
	case Tuple:
		if len(t.Elems) == 0 {
			return "()"
		}
	}
	return fmt.Sprintf("%#x_%s", c.Bits, tyString(c.Ty))
}

// TerminatorString returns the textual form of a terminator
func TerminatorString(t Terminator) string {
	switch tt := t.(type) {
	case Goto:
		return fmt.Sprintf("goto -> bb%d", tt.Target)
	case SwitchInt:
		arms := make([]string, 0, len(tt.Targets)+1)
		for _, st := range tt.Targets {
			arms = append(arms, fmt.Sprintf("%d: bb%d", st.Value, st.Target))
		}
		arms = append(arms, fmt.Sprintf("otherwise: bb%d", tt.Otherwise))
		return fmt.Sprintf("switchInt(%s) -> [%s]", OperandString(tt.Discr), strings.Join(arms, ", "))
	case Return:
		return "return"
	case Unreachable:
		return "unreachable"
	case UnwindResume:
		return "resume"
	case Call:
		args := make([]string, len(tt.Args))
		for i, a := range tt.Args {
			args[i] = OperandString(a)
		}
		s := fmt.Sprintf("%s = %s(%s)", tt.Destination, tt.Func, strings.Join(args, ", "))
		return s + edges(tt.Target, tt.Cleanup)
	case Drop:
		return fmt.Sprintf("drop(%s)", tt.Place) + edges(&tt.Target, tt.Cleanup)
	case Assert:
		cond := OperandString(tt.Cond)
		if !tt.Expected {
			cond = "!" + cond
		}
		return fmt.Sprintf("assert(%s, %q)", cond, tt.Msg) + edges(&tt.Target, tt.Cleanup)
	}
	return fmt.Sprintf("<%T>", t)
}

func edges(target, cleanup *BlockID) string {
	var out []string
	if target != nil {
		out = append(out, fmt.Sprintf("return: bb%d", *target))
	}
	if cleanup != nil {
		out = append(out, fmt.Sprintf("unwind: bb%d", *cleanup))
	}
	if len(out) == 0 {
		return ""
	}
	if target != nil && len(out) == 1 {
		return fmt.Sprintf(" -> bb%d", *target)
	}
	return " -> [" + strings.Join(out, ", ") + "]"
}
