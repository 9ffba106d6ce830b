package mirload

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/tinco/rustc-codegen-clr/pkg/mir"
)

// TypeSpec is a test case from types.yaml
type TypeSpec struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	String   string   `yaml:"string"`
	Generics []string `yaml:"generics"`
}

// TypeFile represents the types.yaml file structure
type TypeFile struct {
	Tests []TypeSpec `yaml:"tests"`
}

func TestParseTypeYAML(t *testing.T) {
	data, err := os.ReadFile("../../testdata/types.yaml")
	if err != nil {
		t.Fatalf("failed to read types.yaml: %v", err)
	}
	prog, err := Load(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to load ADTs from types.yaml: %v", err)
	}
	var testFile TypeFile
	if err := yaml.Unmarshal(data, &testFile); err != nil {
		t.Fatalf("failed to parse types.yaml: %v", err)
	}

	for _, tc := range testFile.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			ty, err := ParseType(tc.Type, prog.Adts, tc.Generics...)
			if err != nil {
				t.Fatalf("ParseType(%q): %v", tc.Type, err)
			}
			want := tc.String
			if want == "" {
				want = tc.Type
			}
			if got := ty.String(); got != want {
				t.Errorf("String() = %q, want %q", got, want)
			}
			again, err := ParseType(ty.String(), prog.Adts, tc.Generics...)
			if err != nil {
				t.Fatalf("reparse %q: %v", ty.String(), err)
			}
			if !mir.Equal(ty, again) {
				t.Errorf("reparse of %q gave %s", ty.String(), again)
			}
		})
	}
}

func TestParseTypeShapes(t *testing.T) {
	opt := &mir.AdtDef{Name: "Option", Kind: mir.EnumKind, Generics: []string{"T"}}
	adts := map[string]*mir.AdtDef{"Option": opt}

	ty, err := ParseType("&mut [Option<*const u8>; 3]", adts)
	if err != nil {
		t.Fatal(err)
	}
	ref, ok := ty.(mir.Ref)
	if !ok || !ref.Mut {
		t.Fatalf("expected &mut, got %s", ty)
	}
	arr, ok := ref.Pointee.(mir.Array)
	if !ok || arr.Len != 3 {
		t.Fatalf("expected [_; 3], got %s", ref.Pointee)
	}
	adt, ok := arr.Elem.(mir.Adt)
	if !ok || adt.Def != opt || len(adt.Args) != 1 {
		t.Fatalf("expected Option<_>, got %s", arr.Elem)
	}
	if ptr, ok := adt.Args[0].(mir.RawPtr); !ok || ptr.Mut {
		t.Errorf("expected *const u8, got %s", adt.Args[0])
	}

	ty, err = ParseType("fn(K, V)", nil, "K", "V")
	if err != nil {
		t.Fatal(err)
	}
	fn := ty.(mir.FnPtr)
	if p, ok := fn.Inputs[1].(mir.Param); !ok || p.Index != 1 || p.Name != "V" {
		t.Errorf("second input = %#v, want Param V", fn.Inputs[1])
	}
	if !mir.IsUnit(fn.Output) {
		t.Errorf("output = %s, want ()", fn.Output)
	}

	ty, err = ParseType("[u8; 1_024]", nil)
	if err != nil {
		t.Fatal(err)
	}
	if arr := ty.(mir.Array); arr.Len != 1024 {
		t.Errorf("length = %d, want 1024", arr.Len)
	}

	ty, err = ParseType("dyn core::fmt::Debug", nil)
	if err != nil {
		t.Fatal(err)
	}
	if d := ty.(mir.Dynamic); d.Trait != "core::fmt::Debug" {
		t.Errorf("trait = %q", d.Trait)
	}
}

func TestParseTypeErrors(t *testing.T) {
	adts := map[string]*mir.AdtDef{
		"Option": {Name: "Option", Kind: mir.EnumKind, Generics: []string{"T"}},
	}
	tests := []struct {
		src  string
		want string
	}{
		{"", "unexpected EOF"},
		{"Foo", "unknown type Foo"},
		{"Option", "takes 1 generic arguments, got 0"},
		{"Option<i32, u8>", "takes 1 generic arguments, got 2"},
		{"*u8", "expected const or mut"},
		{"[i32; n]", "expected INT"},
		{"[i32; 4", "expected ]"},
		{"(i32 bool)", "expected , or )"},
		{"i32 i32", "after type"},
		{"&#", "ILLEGAL"},
		{"fn i32", "expected ("},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := ParseType(tt.src, adts)
			if err == nil {
				t.Fatalf("ParseType(%q) succeeded", tt.src)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLexer(t *testing.T) {
	input := "&mut [(i32,); 4] -> *const dyn a::B"
	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenAmpersand, "&"},
		{TokenMut, "mut"},
		{TokenLBracket, "["},
		{TokenLParen, "("},
		{TokenIdent, "i32"},
		{TokenComma, ","},
		{TokenRParen, ")"},
		{TokenSemicolon, ";"},
		{TokenInt, "4"},
		{TokenRBracket, "]"},
		{TokenArrow, "->"},
		{TokenStar, "*"},
		{TokenConst, "const"},
		{TokenDyn, "dyn"},
		{TokenIdent, "a::B"},
		{TokenEOF, ""},
	}

	l := NewLexer(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%s, got=%s", i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}
