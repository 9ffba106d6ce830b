package mirload

import (
	"strings"
	"testing"

	"github.com/tinco/rustc-codegen-clr/pkg/mir"
)

const program = `
adts:
  - name: Option
    kind: enum
    generics: [T]
    variants:
      - name: None
      - name: Some
        fields:
          - {name: "0", type: T}
  - name: Pair
    fields:
      - {name: a, type: Option<u8>}
      - {name: b, type: "[i32]"}

functions:
  - name: first
    args: 1
    locals:
      - {type: Option<i32>}
      - {name: s, type: "&[i32]"}
      - {type: usize}
      - {type: bool}
      - {type: i32}
    blocks:
      - statements:
          - storage_live: 2
          - assign:
              place: _2
              rvalue: {len: {local: 1, proj: [deref]}}
              span: "src/lib.rs:3:8"
          - assign:
              place: _3
              rvalue:
                binary:
                  op: gt
                  left: {copy: _2}
                  right: {const: {type: usize, value: 0}}
        terminator:
          switch_int:
            discr: {move: _3}
            targets:
              - {value: 0, target: 2}
            otherwise: 1
      - statements:
          - assign:
              place: {local: 0, proj: [{downcast: 1}, {field: 0}]}
              rvalue:
                use:
                  copy:
                    local: 1
                    proj:
                      - deref
                      - const_index: {offset: 0, min_length: 1}
          - set_discriminant: {place: _0, variant: 1, span: "C:\\lib.rs:4:1"}
        terminator: {goto: 3}
      - statements:
          - set_discriminant: {place: _0, variant: 0}
          - nop
        terminator: {goto: 3}
      - statements:
          - storage_dead: 2
          - assign:
              place: _4
              rvalue: {cast: {operand: {const: {type: i8, value: -1}}, type: i32}}
        terminator:
          call:
            func: black_box
            args: [{copy: _4}]
            destination: _4
            target: 4
            cleanup: 5
      - terminator: return
      - cleanup: true
        terminator: unwind_resume
`

func TestLoad(t *testing.T) {
	prog, err := Load(strings.NewReader(program))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(prog.Adts) != 2 || len(prog.Functions) != 1 {
		t.Fatalf("got %d ADTs and %d functions", len(prog.Adts), len(prog.Functions))
	}
	pair := prog.Adts["Pair"]
	if a := pair.Fields()[0].Ty.(mir.Adt); a.Def != prog.Adts["Option"] {
		t.Errorf("Pair.a refers to %s, want the loaded Option", a)
	}

	f := prog.Functions[0]
	if f.Name != "first" || f.ArgCount != 1 || len(f.Locals) != 5 || len(f.Blocks) != 6 {
		t.Fatalf("unexpected body shape: %+v", f)
	}
	if got := f.Locals[1].Ty.String(); got != "&[i32]" {
		t.Errorf("local _1 = %s", got)
	}

	bb0 := f.Blocks[0]
	if _, ok := bb0.Statements[0].(mir.StorageLive); !ok {
		t.Errorf("bb0[0] = %T, want StorageLive", bb0.Statements[0])
	}
	assign := bb0.Statements[1].(mir.Assign)
	if assign.Span == nil || assign.Span.File != "src/lib.rs" || assign.Span.Line != 3 || assign.Span.Column != 8 {
		t.Errorf("span = %+v", assign.Span)
	}
	if l := assign.Rvalue.(mir.Len); l.Place.String() != "(*_1)" {
		t.Errorf("len place = %s", l.Place)
	}
	cmp := bb0.Statements[2].(mir.Assign).Rvalue.(mir.BinaryOp)
	if cmp.Op != mir.Gt {
		t.Errorf("op = %s, want Gt", cmp.Op)
	}
	if c := cmp.Right.(mir.Constant); !mir.Equal(c.Ty, mir.Usize()) || c.Bits != 0 {
		t.Errorf("right = %+v", c)
	}
	sw := bb0.Terminator.(mir.SwitchInt)
	if len(sw.Targets) != 1 || sw.Targets[0].Target != 2 || sw.Otherwise != 1 {
		t.Errorf("switch = %+v", sw)
	}
	if _, ok := sw.Discr.(mir.Move); !ok {
		t.Errorf("discr = %T, want Move", sw.Discr)
	}

	bb1 := f.Blocks[1]
	dest := bb1.Statements[0].(mir.Assign).Place
	if got := dest.String(); got != "(_0 as variant#1).0" {
		t.Errorf("destination = %s", got)
	}
	src := bb1.Statements[0].(mir.Assign).Rvalue.(mir.Use).Operand.(mir.Copy)
	if ci, ok := src.Place.Projection[1].(mir.ConstantIndex); !ok || ci.MinLength != 1 || ci.FromEnd {
		t.Errorf("const index = %#v", src.Place.Projection[1])
	}
	sd := bb1.Statements[1].(mir.SetDiscriminant)
	if sd.Variant != 1 || sd.Span.File != `C:\lib.rs` || sd.Span.Line != 4 {
		t.Errorf("set_discriminant = %+v span %+v", sd, sd.Span)
	}
	if _, ok := f.Blocks[2].Statements[1].(mir.Nop); !ok {
		t.Errorf("bb2[1] = %T, want Nop", f.Blocks[2].Statements[1])
	}

	bb3 := f.Blocks[3]
	cast := bb3.Statements[1].(mir.Assign).Rvalue.(mir.Cast)
	if c := cast.Operand.(mir.Constant); c.Bits != ^uint64(0) {
		t.Errorf("i8 -1 bits = %#x", c.Bits)
	}
	call := bb3.Terminator.(mir.Call)
	if call.Func != "black_box" || len(call.Args) != 1 || *call.Target != 4 || *call.Cleanup != 5 {
		t.Errorf("call = %+v", call)
	}
	if cleanup, ok := mir.UnwindTarget(call); !ok || cleanup != 5 {
		t.Errorf("UnwindTarget = %d, %v", cleanup, ok)
	}
	if !f.Blocks[5].IsCleanup {
		t.Error("bb5 should be a cleanup block")
	}
	if _, ok := f.Blocks[5].Terminator.(mir.UnwindResume); !ok {
		t.Errorf("bb5 terminator = %T", f.Blocks[5].Terminator)
	}
}

func TestLoadConstants(t *testing.T) {
	tests := []struct {
		ty    string
		value string
		bits  uint64
	}{
		{"i32", "-2", 0xffff_ffff_ffff_fffe},
		{"u64", "0x10", 16},
		{"bool", "true", 1},
		{"bool", "false", 0},
		{"f64", "1.5", 0x3ff8_0000_0000_0000},
		{"f32", "1.5", 0x3fc0_0000},
		{"char", "a", 'a'},
		{"char", "955", 955},
		{"()", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.ty+" "+tt.value, func(t *testing.T) {
			ty, err := ParseType(tt.ty, nil)
			if err != nil {
				t.Fatal(err)
			}
			bits, err := constBits(ty, tt.value)
			if err != nil {
				t.Fatalf("constBits: %v", err)
			}
			if bits != tt.bits {
				t.Errorf("bits = %#x, want %#x", bits, tt.bits)
			}
		})
	}

	for _, bad := range []struct{ ty, value string }{
		{"u8", "-1"},
		{"bool", "yes"},
		{"char", "ab"},
		{"&i32", "0"},
	} {
		ty, _ := ParseType(bad.ty, nil)
		if _, err := constBits(ty, bad.value); err == nil {
			t.Errorf("constBits(%s, %q) succeeded", bad.ty, bad.value)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "duplicate ADT",
			src:  "adts: [{name: A}, {name: A}]",
			want: "duplicate ADT A",
		},
		{
			name: "bad ADT kind",
			src:  "adts: [{name: A, kind: class}]",
			want: `unknown kind "class"`,
		},
		{
			name: "struct with variants",
			src:  "adts: [{name: A, variants: [{name: B}]}]",
			want: "only enums have variants",
		},
		{
			name: "no locals",
			src:  "functions: [{name: f, blocks: [{terminator: return}]}]",
			want: "function f: no return place",
		},
		{
			name: "too many args",
			src:  "functions: [{name: f, args: 1, locals: [{type: i32}], blocks: [{terminator: return}]}]",
			want: "1 arguments but 1 locals",
		},
		{
			name: "no blocks",
			src:  "functions: [{name: f, locals: [{type: i32}]}]",
			want: "no basic blocks",
		},
		{
			name: "missing terminator",
			src:  "functions: [{name: f, locals: [{type: i32}], blocks: [{statements: [nop]}]}]",
			want: "bb0: missing terminator",
		},
		{
			name: "jump out of range",
			src:  "functions: [{name: f, locals: [{type: i32}], blocks: [{terminator: {goto: 7}}]}]",
			want: "missing block bb7",
		},
		{
			name: "local out of range",
			src:  "functions: [{name: f, locals: [{type: i32}], blocks: [{statements: [{storage_live: 3}], terminator: return}]}]",
			want: "local _3 out of range",
		},
		{
			name: "index local out of range",
			src:  `functions: [{name: f, locals: [{type: "[i32; 2]"}], blocks: [{statements: [{assign: {place: {local: 0, proj: [{index: 9}]}, rvalue: {use: {copy: _0}}}}], terminator: return}]}]`,
			want: "local _9 out of range",
		},
		{
			name: "bad local",
			src:  "functions: [{name: f, locals: [{type: i32}], blocks: [{statements: [{assign: {place: x0, rvalue: {use: {copy: _0}}}}], terminator: return}]}]",
			want: `bad local "x0"`,
		},
		{
			name: "unknown projection",
			src:  "functions: [{name: f, locals: [{type: i32}], blocks: [{statements: [{assign: {place: {local: 0, proj: [{up: 1}]}, rvalue: {use: {copy: _0}}}}], terminator: return}]}]",
			want: `unknown projection "up"`,
		},
		{
			name: "misspelled key",
			src:  "functions: [{name: f, locals: [{type: i32}], blocks: [{statements: [{assign: {place: {local: 0, projection: [deref]}, rvalue: {use: {copy: _0}}}}], terminator: return}]}]",
			want: `unknown field "projection"`,
		},
		{
			name: "unknown top-level key",
			src:  "function: []",
			want: "field function not found",
		},
		{
			name: "u8 constant out of range",
			src:  `functions: [{name: f, locals: [{type: u8}], blocks: [{statements: [{assign: {place: _0, rvalue: {use: {const: {type: u8, value: "300"}}}}}], terminator: return}]}]`,
			want: `bad u8 constant "300"`,
		},
		{
			name: "i16 constant out of range",
			src:  `functions: [{name: f, locals: [{type: i16}], blocks: [{statements: [{assign: {place: _0, rvalue: {use: {const: {type: i16, value: "-40000"}}}}}], terminator: return}]}]`,
			want: `bad i16 constant "-40000"`,
		},
		{
			name: "field out of range",
			src:  `adts: [{name: Point, fields: [{name: x, type: i32}]}]
functions: [{name: f, locals: [{type: i32}, {type: Point}], blocks: [{statements: [{assign: {place: _0, rvalue: {use: {copy: {local: 1, proj: [{field: 5}]}}}}}], terminator: return}]}]`,
			want: "Point has no field 5",
		},
		{
			name: "enum field without downcast",
			src:  `adts: [{name: E, kind: enum, variants: [{name: A, fields: [{name: "0", type: i32}]}]}]
functions: [{name: f, locals: [{type: i32}, {type: E}], blocks: [{statements: [{assign: {place: _0, rvalue: {use: {copy: {local: 1, proj: [{field: 0}]}}}}}], terminator: return}]}]`,
			want: "without a downcast",
		},
		{
			name: "variant out of range",
			src:  `adts: [{name: E, kind: enum, variants: [{name: A}]}]
functions: [{name: f, locals: [{type: i32}, {type: E}], blocks: [{statements: [{assign: {place: _0, rvalue: {use: {copy: {local: 1, proj: [{downcast: 3}]}}}}}], terminator: return}]}]`,
			want: "E has no variant 3",
		},
		{
			name: "downcast of a struct",
			src:  "functions: [{name: f, locals: [{type: i32}, {type: \"(i32,)\"}], blocks: [{statements: [{assign: {place: _0, rvalue: {use: {copy: {local: 1, proj: [{downcast: 0}]}}}}}], terminator: return}]}]",
			want: "downcast of (i32,)",
		},
		{
			name: "deref of a value",
			src:  "functions: [{name: f, locals: [{type: i32}], blocks: [{statements: [{assign: {place: {local: 0, proj: [deref]}, rvalue: {use: {copy: _0}}}}], terminator: return}]}]",
			want: "deref of i32",
		},
		{
			name: "index into a tuple",
			src:  `functions: [{name: f, locals: [{type: i32}, {type: "(i32, i32)"}, {type: usize}], blocks: [{statements: [{assign: {place: _0, rvalue: {use: {copy: {local: 1, proj: [{index: 2}]}}}}}], terminator: return}]}]`,
			want: "index into (i32, i32)",
		},
		{
			name: "unknown operator",
			src:  "functions: [{name: f, locals: [{type: i32}], blocks: [{statements: [{assign: {place: _0, rvalue: {binary: {op: pow, left: {copy: _0}, right: {copy: _0}}}}}], terminator: return}]}]",
			want: `unknown binary operator "pow"`,
		},
		{
			name: "unknown terminator",
			src:  "functions: [{name: f, locals: [{type: i32}], blocks: [{terminator: {halt: 1}}]}]",
			want: `unknown terminator "halt"`,
		},
		{
			name: "call without destination",
			src:  "functions: [{name: f, locals: [{type: i32}], blocks: [{terminator: {call: {func: g}}}]}]",
			want: "call without a destination",
		},
		{
			name: "bad span",
			src:  "functions: [{name: f, locals: [{type: i32}], blocks: [{statements: [{assign: {place: _0, rvalue: {use: {copy: _0}}, span: lib.rs}}], terminator: return}]}]",
			want: `bad span "lib.rs"`,
		},
		{
			name: "bad local type",
			src:  "functions: [{name: f, locals: [{type: \"Vec<u8>\"}], blocks: [{terminator: return}]}]",
			want: "local _0",
		},
		{
			name: "instance arity",
			src:  "functions: [{name: f, generics: [T, U], instance: [i32], locals: [{type: T}], blocks: [{terminator: return}]}]",
			want: "2 generics but 1 instance arguments",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.src))
			if err == nil {
				t.Fatal("Load succeeded")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadEmpty(t *testing.T) {
	prog, err := Load(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if len(prog.Functions) != 0 || prog.Adts == nil {
		t.Errorf("unexpected program %+v", prog)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile("../../testdata/does-not-exist.yaml"); err == nil {
		t.Error("LoadFile of a missing file succeeded")
	}
}
