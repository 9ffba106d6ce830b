package mir

import (
	"bytes"
	"math"
	"testing"
)

func TestStatementStrings(t *testing.T) {
	one := Local(1)
	tests := []struct {
		s    Statement
		want string
	}{
		{Assign{Place: LocalPlace(0), Rvalue: BinaryOp{Op: Add, Left: Copy{LocalPlace(1)}, Right: Constant{Ty: I32(), Bits: math.MaxUint64}}}, "_0 = Add(copy _1, const -1_i32)"},
		{Assign{Place: LocalPlace(2), Rvalue: RefOf{Mut: true, Place: LocalPlace(one).Project(Field{Index: 1})}}, "_2 = &mut _1.1"},
		{Assign{Place: LocalPlace(2), Rvalue: Cast{Operand: Move{LocalPlace(1)}, Ty: U8()}}, "_2 = move _1 as u8"},
		{Assign{Place: LocalPlace(3), Rvalue: Use{Constant{Ty: Float{Width: F32}, Bits: uint64(math.Float32bits(1.5))}}}, "_3 = const 1.5_f32"},
		{Assign{Place: LocalPlace(3), Rvalue: Use{Constant{Ty: Char{}, Bits: 'A'}}}, "_3 = const 'A'"},
		{Assign{Place: LocalPlace(3), Rvalue: Discriminant{Place: LocalPlace(1)}}, "_3 = discriminant(_1)"},
		{SetDiscriminant{Place: LocalPlace(0), Variant: 1}, "discriminant(_0) = 1"},
		{StorageLive{Local: 4}, "StorageLive(_4)"},
		{Nop{}, "nop"},
	}
	for _, tt := range tests {
		if got := StatementString(tt.s); got != tt.want {
			t.Errorf("StatementString = %q, want %q", got, tt.want)
		}
	}
}

func TestTerminatorStrings(t *testing.T) {
	target, cleanup := BlockID(1), BlockID(2)
	tests := []struct {
		term Terminator
		want string
	}{
		{Goto{Target: 3}, "goto -> bb3"},
		{SwitchInt{Discr: Move{LocalPlace(3)}, Targets: []SwitchTarget{{0, 2}}, Otherwise: 1}, "switchInt(move _3) -> [0: bb2, otherwise: bb1]"},
		{Call{Func: "f", Args: []Operand{Copy{LocalPlace(1)}}, Destination: LocalPlace(0), Target: &target}, "_0 = f(copy _1) -> bb1"},
		{Call{Func: "g", Destination: LocalPlace(0), Target: &target, Cleanup: &cleanup}, "_0 = g() -> [return: bb1, unwind: bb2]"},
		{Assert{Cond: Copy{LocalPlace(1)}, Msg: "overflow", Target: 1}, `assert(!copy _1, "overflow") -> bb1`},
		{Drop{Place: LocalPlace(1), Target: 1, Cleanup: &cleanup}, "drop(_1) -> [return: bb1, unwind: bb2]"},
		{UnwindResume{}, "resume"},
	}
	for _, tt := range tests {
		if got := TerminatorString(tt.term); got != tt.want {
			t.Errorf("TerminatorString(%T) = %q, want %q", tt.term, got, tt.want)
		}
	}
}

func TestPrintBody(t *testing.T) {
	target := BlockID(1)
	body := &Body{
		Name:     "add",
		ArgCount: 2,
		Locals: []LocalDecl{
			{Ty: I32()}, {Ty: I32()}, {Ty: I32()}, {Name: "sum", Ty: I32()},
		},
		Blocks: []BasicBlockData{
			{
				Statements: []Statement{
					Assign{Place: LocalPlace(3), Rvalue: BinaryOp{Op: Add, Left: Copy{LocalPlace(1)}, Right: Copy{LocalPlace(2)}}},
				},
				Terminator: Call{Func: "black_box", Args: []Operand{Move{LocalPlace(3)}}, Destination: LocalPlace(0), Target: &target},
			},
			{Terminator: Return{}},
		},
	}
	var buf bytes.Buffer
	NewPrinter(&buf).PrintProgram(&Program{Functions: []*Body{body}})
	want := `fn add(_1: i32, _2: i32) -> i32 {
    let _3: i32; // sum
    bb0: {
        _3 = Add(copy _1, copy _2);
        _0 = black_box(move _3) -> bb1;
    }
    bb1: {
        return;
    }
}
`
	if buf.String() != want {
		t.Errorf("PrintBody =\n%s\nwant\n%s", buf.String(), want)
	}
}
