package mir

import (
	"testing"
)

func option() *AdtDef {
	return &AdtDef{
		Name:     "Option",
		Kind:     EnumKind,
		Generics: []string{"T"},
		Variants: []VariantDef{
			{Name: "None"},
			{Name: "Some", Fields: []FieldDef{{Name: "0", Ty: Param{Index: 0, Name: "T"}}}},
		},
	}
}

func TestLayoutOf(t *testing.T) {
	in := NewInstance()
	point := NewStruct("Point", FieldDef{Name: "x", Ty: Uint{Width: W8}}, FieldDef{Name: "y", Ty: I32()})
	bits := &AdtDef{Name: "Bits", Kind: UnionKind, Variants: []VariantDef{{Name: "Bits", Fields: []FieldDef{
		{Name: "a", Ty: Uint{Width: W16}}, {Name: "b", Ty: Array{Elem: U8(), Len: 3}},
	}}}}
	unitEnum := NewEnum("Only", VariantDef{Name: "Only"})

	tests := []struct {
		ty   Ty
		want Layout
	}{
		{I32(), Layout{4, 4}},
		{Int{Width: W128}, Layout{16, 16}},
		{Usize(), Layout{8, 8}},
		{Bool{}, Layout{1, 1}},
		{Char{}, Layout{4, 4}},
		{Float{Width: F64}, Layout{8, 8}},
		{Unit(), Layout{0, 1}},
		{Never{}, Layout{0, 1}},
		{RefTo(I32()), Layout{8, 8}},
		{RefTo(Slice{Elem: I32()}), Layout{16, 8}},
		{RawPtr{Pointee: Str{}}, Layout{16, 8}},
		{Array{Elem: I32(), Len: 3}, Layout{12, 4}},
		{Array{Elem: Int{Width: W64}, Len: 0}, Layout{0, 8}},
		{Tuple{Elems: []Ty{U8(), I32(), U8()}}, Layout{12, 4}},
		{Adt{Def: point}, Layout{8, 4}},
		{Adt{Def: bits}, Layout{4, 2}},
		{Adt{Def: option(), Args: []Ty{I32()}}, Layout{8, 4}},
		{Adt{Def: option(), Args: []Ty{U8()}}, Layout{2, 1}},
		{Adt{Def: unitEnum}, Layout{0, 1}},
		{Closure{Name: "c", Upvars: []Ty{RefTo(I32()), Bool{}}}, Layout{16, 8}},
	}
	for _, tt := range tests {
		if got := in.LayoutOf(tt.ty); got != tt.want {
			t.Errorf("LayoutOf(%s) = %+v, want %+v", tt.ty, got, tt.want)
		}
	}
	if !in.LayoutOf(Array{Elem: I32(), Len: 0}).IsZST() {
		t.Error("an empty array should be zero sized")
	}
}

func TestLayoutOfPanics(t *testing.T) {
	for _, ty := range []Ty{Slice{Elem: I32()}, Str{}, Dynamic{Trait: "Any"}, Param{Name: "T"}} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("LayoutOf(%s) did not panic", ty)
				}
			}()
			NewInstance().LayoutOf(ty)
		}()
	}
}

func TestIsFat(t *testing.T) {
	in := NewInstance()
	tail := NewStruct("Tail", FieldDef{Name: "len", Ty: Usize()}, FieldDef{Name: "data", Ty: Slice{Elem: U8()}})
	nested := NewStruct("Nested", FieldDef{Name: "inner", Ty: Adt{Def: tail}})
	generic := &AdtDef{Name: "Box", Kind: StructKind, Generics: []string{"T"},
		Variants: []VariantDef{{Name: "Box", Fields: []FieldDef{{Name: "v", Ty: Param{Index: 0, Name: "T"}}}}}}

	tests := []struct {
		ty   Ty
		want bool
	}{
		{Slice{Elem: I32()}, true},
		{Str{}, true},
		{Dynamic{Trait: "Debug"}, true},
		{Array{Elem: I32(), Len: 4}, false},
		{I32(), false},
		{Adt{Def: tail}, true},
		{Adt{Def: nested}, true},
		{Adt{Def: generic, Args: []Ty{Str{}}}, true},
		{Adt{Def: generic, Args: []Ty{I32()}}, false},
		{Adt{Def: option(), Args: []Ty{I32()}}, false},
		{Adt{Def: NewStruct("Empty")}, false},
	}
	for _, tt := range tests {
		if got := in.IsFat(tt.ty); got != tt.want {
			t.Errorf("IsFat(%s) = %v, want %v", tt.ty, got, tt.want)
		}
	}

	if !NewInstance(Str{}).IsFat(Param{Index: 0, Name: "T"}) {
		t.Error("a parameter instantiated with str should be fat")
	}
}

func TestSubst(t *testing.T) {
	tParam := Param{Index: 0, Name: "T"}
	uParam := Param{Index: 1, Name: "U"}
	ty := Tuple{Elems: []Ty{RefTo(tParam), Array{Elem: uParam, Len: 2}, Adt{Def: option(), Args: []Ty{tParam}}}}
	if !HasParams(ty) {
		t.Fatal("HasParams should see the parameters")
	}
	got := Subst(ty, []Ty{I32(), Bool{}})
	if HasParams(got) {
		t.Errorf("Subst left parameters in %s", got)
	}
	if want := "(&i32, [bool; 2], Option<i32>)"; got.String() != want {
		t.Errorf("Subst = %s, want %s", got, want)
	}

	// out of range parameters are left in place
	if p := Subst(uParam, []Ty{I32()}); !Equal(p, uParam) {
		t.Errorf("Subst(U) = %s", p)
	}
	if p := Subst(tParam, nil); !Equal(p, tParam) {
		t.Errorf("Subst(T, nil) = %s", p)
	}

	in := NewInstance(U8())
	field, ok := Adt{Def: option(), Args: []Ty{tParam}}.FieldTy(1, 0)
	if !ok || !Equal(in.Monomorphize(field), U8()) {
		t.Errorf("Some field = %s, %v", field, ok)
	}
	if _, ok := (Adt{Def: option()}).FieldTy(0, 0); ok {
		t.Error("None has no fields")
	}
}

func TestEqual(t *testing.T) {
	opt := option()
	tests := []struct {
		a, b Ty
		want bool
	}{
		{I32(), I32(), true},
		{I32(), Uint{Width: W32}, false},
		{RefTo(I32()), Ref{Mut: true, Pointee: I32()}, false},
		{Array{Elem: U8(), Len: 2}, Array{Elem: U8(), Len: 3}, false},
		{Adt{Def: opt, Args: []Ty{I32()}}, Adt{Def: opt, Args: []Ty{I32()}}, true},
		{Adt{Def: opt, Args: []Ty{I32()}}, Adt{Def: option(), Args: []Ty{I32()}}, false},
		{Unit(), Tuple{}, true},
		{FnPtr{Inputs: []Ty{I32()}, Output: Unit()}, FnPtr{Inputs: []Ty{I32()}, Output: Bool{}}, false},
		{nil, nil, true},
		{nil, I32(), false},
	}
	for _, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.want {
			t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestPlaceString(t *testing.T) {
	p := LocalPlace(1).Project(Deref{}, Field{Index: 2}, Index{Local: 3}, ConstantIndex{Offset: 1, MinLength: 2, FromEnd: true})
	if got, want := p.String(), "(*_1).2[_3][-1 of 2]"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	base := LocalPlace(4)
	ext := base.Project(Deref{})
	if len(base.Projection) != 0 || len(ext.Projection) != 1 {
		t.Error("Project must not modify its receiver")
	}
}

func TestSuccessors(t *testing.T) {
	target, cleanup := BlockID(1), BlockID(2)
	tests := []struct {
		term Terminator
		want []BlockID
	}{
		{Goto{Target: 3}, []BlockID{3}},
		{SwitchInt{Targets: []SwitchTarget{{0, 4}, {1, 5}}, Otherwise: 6}, []BlockID{4, 5, 6}},
		{Return{}, nil},
		{Call{Target: &target, Cleanup: &cleanup}, []BlockID{1, 2}},
		{Call{}, nil},
		{Drop{Target: 7}, []BlockID{7}},
		{Assert{Target: 8, Cleanup: &cleanup}, []BlockID{8, 2}},
	}
	for _, tt := range tests {
		got := tt.term.Successors()
		if len(got) != len(tt.want) {
			t.Errorf("%T successors = %v, want %v", tt.term, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%T successors = %v, want %v", tt.term, got, tt.want)
				break
			}
		}
	}
	if _, ok := UnwindTarget(Drop{Target: 1}); ok {
		t.Error("drop without cleanup has no unwind target")
	}
}
