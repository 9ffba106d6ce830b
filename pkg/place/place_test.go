package place

import (
	"strings"
	"testing"

	"github.com/tinco/rustc-codegen-clr/pkg/cil"
	"github.com/tinco/rustc-codegen-clr/pkg/mir"
)

var (
	i32   = mir.I32()
	u32   = mir.Uint{Width: mir.W32}
	usize = mir.Usize()
)

// newCtx builds a context for a body with the given arguments and locals.
// Local 0 is the return place of type ret.
func newCtx(ret mir.Ty, args []mir.Ty, locals ...mir.Ty) *Ctx {
	body := &mir.Body{Name: "test", ArgCount: len(args)}
	body.Locals = append(body.Locals, mir.LocalDecl{Name: "ret", Ty: ret})
	for _, t := range args {
		body.Locals = append(body.Locals, mir.LocalDecl{Ty: t})
	}
	for _, t := range locals {
		body.Locals = append(body.Locals, mir.LocalDecl{Ty: t})
	}
	return &Ctx{Asm: cil.NewAssembly(), Tcx: mir.NewInstance(), Body: body}
}

func catch(f func()) (r any) {
	defer func() { r = recover() }()
	f()
	return nil
}

func pointStruct() mir.Adt {
	return mir.Adt{Def: mir.NewStruct("Point",
		mir.FieldDef{Name: "x", Ty: i32},
		mir.FieldDef{Name: "y", Ty: i32},
	)}
}

func optionEnum() mir.Adt {
	def := mir.NewEnum("Option",
		mir.VariantDef{Name: "None"},
		mir.VariantDef{Name: "Some", Fields: []mir.FieldDef{{Name: "0", Ty: mir.Param{Index: 0, Name: "T"}}}},
	)
	def.Generics = []string{"T"}
	return mir.Adt{Def: def, Args: []mir.Ty{i32}}
}

func TestSlot(t *testing.T) {
	body := &mir.Body{ArgCount: 2, Locals: make([]mir.LocalDecl, 5)}
	tests := []struct {
		local mir.Local
		idx   uint32
		isArg bool
	}{
		{0, 0, false},
		{1, 0, true},
		{2, 1, true},
		{3, 1, false},
		{4, 2, false},
	}
	for _, tt := range tests {
		idx, isArg := Slot(body, tt.local)
		if idx != tt.idx || isArg != tt.isArg {
			t.Errorf("Slot(_%d) = (%d, %v), want (%d, %v)", tt.local, idx, isArg, tt.idx, tt.isArg)
		}
	}
}

func TestAddressOfLocal(t *testing.T) {
	c := newCtx(i32, []mir.Ty{i32}, i32)
	if got := c.Asm.Node(c.Address(mir.LocalPlace(1))); got != (cil.LdArgA{Arg: 0}) {
		t.Errorf("address of argument: got %#v", got)
	}
	if got := c.Asm.Node(c.Address(mir.LocalPlace(2))); got != (cil.LdLocA{Local: 1}) {
		t.Errorf("address of local: got %#v", got)
	}
	if got := c.Asm.Node(c.Address(mir.LocalPlace(0))); got != (cil.LdLocA{Local: 0}) {
		t.Errorf("address of return place: got %#v", got)
	}
}

func TestZSTAddress(t *testing.T) {
	zst := mir.Array{Elem: i32, Len: 0}
	c := newCtx(mir.Unit(), nil, zst)

	addr := c.Asm.Node(c.Address(mir.LocalPlace(1)))
	cast, ok := addr.(cil.PtrCast)
	if !ok {
		t.Fatalf("expected PtrCast, got %#v", addr)
	}
	conv := c.Asm.Node(cast.Value).(cil.IntCast)
	if k := c.Asm.Node(conv.Value).(cil.ConstInt); k.Bits != 4 {
		t.Errorf("ZST address = %d, want alignment 4", k.Bits)
	}
	if name := c.Asm.TypeName(cast.Target); name != "valuetype RArray_int32_0*" {
		t.Errorf("ZST pointer type = %s", name)
	}

	raw := c.AddressRaw(mir.LocalPlace(1))
	if raw != c.Asm.ConstUSize(4) {
		t.Errorf("raw ZST address should be the bare alignment, got %s", cil.NewPrinter(nil, c.Asm).NodeString(raw))
	}
}

func TestZSTAddressIgnoresStorage(t *testing.T) {
	c := newCtx(mir.Unit(), []mir.Ty{mir.Unit()}, mir.Unit())
	if c.Address(mir.LocalPlace(1)) != c.Address(mir.LocalPlace(2)) {
		t.Error("ZST addresses must not depend on the local")
	}
}

func TestDerefOpFatThin(t *testing.T) {
	c := newCtx(mir.Unit(), nil)
	ptr := c.Asm.AllocNode(cil.LdLoc{Local: 1})
	u8 := mir.U8()

	tests := []struct {
		name string
		ty   mir.Ty
		obj  bool
		want string
	}{
		{"ref to slice", mir.Ref{Pointee: mir.Slice{Elem: u8}}, true, "valuetype FatPtrRSlice_uint8"},
		{"raw ptr to str", mir.RawPtr{Pointee: mir.Str{}}, true, "valuetype FatPtrRStr"},
		{"mut ref to dyn", mir.Ref{Mut: true, Pointee: mir.Dynamic{Trait: "Debug"}}, true, "valuetype FatPtrDynDebug"},
		{"ref to i32", mir.RefTo(i32), false, "int32*"},
		{"raw ptr to u64", mir.RawPtr{Mut: true, Pointee: mir.Uint{Width: mir.W64}}, false, "uint64*"},
		{"ref to array", mir.RefTo(mir.Array{Elem: u8, Len: 4}), false, "valuetype RArray_uint8_4*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := c.Asm.Node(c.DerefOp(TyPlace{Ty: tt.ty}, ptr))
			var got cil.TypeIdx
			switch nn := n.(type) {
			case cil.LdObj:
				if !tt.obj {
					t.Fatalf("expected typed pointer load, got object load")
				}
				got = nn.Type
			case cil.LdInd:
				if tt.obj {
					t.Fatalf("expected object load, got typed load")
				}
				got = nn.Type
			default:
				t.Fatalf("unexpected node %#v", n)
			}
			if name := c.Asm.TypeName(got); name != tt.want {
				t.Errorf("loaded type = %s, want %s", name, tt.want)
			}
		})
	}
}

func TestDerefOpPrimitives(t *testing.T) {
	c := newCtx(mir.Unit(), nil)
	ptr := c.Asm.AllocNode(cil.LdArg{Arg: 0})
	tests := []struct {
		ty   mir.Ty
		want string
	}{
		{mir.Int{Width: mir.W8}, "ldind int8(ldarg.0)"},
		{u32, "ldind uint32(ldarg.0)"},
		{mir.Char{}, "ldind uint32(ldarg.0)"},
		{mir.Bool{}, "ldind bool(ldarg.0)"},
		{mir.Float{Width: mir.F64}, "ldind float64(ldarg.0)"},
		{mir.Int{Width: mir.W128}, "ldobj [System.Runtime]System.Int128(ldarg.0)"},
		{pointStruct(), "ldobj valuetype Point(ldarg.0)"},
		{mir.Tuple{Elems: []mir.Ty{i32, mir.Bool{}}}, "ldobj valuetype [System.Runtime]System.ValueTuple`2<int32,bool>(ldarg.0)"},
	}
	p := cil.NewPrinter(nil, c.Asm)
	for _, tt := range tests {
		if got := p.NodeString(c.DerefOp(TyPlace{Ty: tt.ty}, ptr)); got != tt.want {
			t.Errorf("DerefOp(%s) = %s, want %s", tt.ty, got, tt.want)
		}
	}
}

func TestDerefOpFailures(t *testing.T) {
	c := newCtx(mir.Unit(), nil)
	ptr := c.Asm.AllocNode(cil.LdArg{Arg: 0})

	r := catch(func() { c.DerefOp(TyPlace{Ty: mir.Float{Width: mir.F16}}, ptr) })
	if _, ok := r.(*cil.UnsupportedError); !ok {
		t.Errorf("f16 load: expected *cil.UnsupportedError, got %v", r)
	}
	r = catch(func() { c.DerefOp(VariantPlace{Enum: optionEnum(), Variant: 1}, ptr) })
	if r == nil {
		t.Fatal("dereferencing an enum variant must panic")
	}
	if _, ok := r.(*cil.UnsupportedError); ok {
		t.Error("dereferencing an enum variant is an invariant violation, not an unsupported construct")
	}
}

func TestRawAddressSingleDeref(t *testing.T) {
	c := newCtx(mir.Unit(), []mir.Ty{mir.RefTo(i32)})
	p := mir.LocalPlace(1).Project(mir.Deref{})

	if got := c.Asm.Node(c.AddressRaw(p)); got != (cil.LdArgA{Arg: 0}) {
		t.Errorf("AddressRaw(*_1) = %#v, want the address of the pointer slot", got)
	}
	if got := c.Asm.Node(c.Address(p)); got != (cil.LdArg{Arg: 0}) {
		t.Errorf("Address(*_1) = %#v, want the pointer value", got)
	}
}

func TestRawAddressDoubleDeref(t *testing.T) {
	c := newCtx(mir.Unit(), []mir.Ty{mir.RefTo(mir.RefTo(i32))})
	p := mir.LocalPlace(1).Project(mir.Deref{}, mir.Deref{})
	if c.AddressRaw(p) != c.Address(p) {
		t.Error("only a single Deref takes the raw path")
	}
	want := "ldind int32*(ldarg.0)"
	if got := cil.NewPrinter(nil, c.Asm).NodeString(c.Address(p)); got != want {
		t.Errorf("Address(**_1) = %s, want %s", got, want)
	}
}

func TestFieldAccess(t *testing.T) {
	c := newCtx(mir.Unit(), nil, pointStruct())
	p := cil.NewPrinter(nil, c.Asm)
	y := mir.LocalPlace(1).Project(mir.Field{Index: 1})

	if got, want := p.NodeString(c.Get(y)), "ldfld int32 valuetype Point::y(ldloca.1)"; got != want {
		t.Errorf("Get = %s, want %s", got, want)
	}
	if got, want := p.NodeString(c.Address(y)), "ldflda int32 valuetype Point::y(ldloca.1)"; got != want {
		t.Errorf("Address = %s, want %s", got, want)
	}
	one := c.Asm.AllocNode(cil.ConstInt{Kind: cil.I32, Bits: 1})
	if got, want := p.RootString(c.Set(y, one)), "stfld int32 valuetype Point::y(ldloca.1, ldc.int32 1)"; got != want {
		t.Errorf("Set = %s, want %s", got, want)
	}
}

func TestFieldNames(t *testing.T) {
	closure := mir.Closure{Name: "main_0", Upvars: []mir.Ty{i32, mir.RefTo(i32)}}
	tuple := mir.Tuple{Elems: []mir.Ty{i32, mir.Bool{}}}
	c := newCtx(mir.Unit(), []mir.Ty{closure, tuple})
	p := cil.NewPrinter(nil, c.Asm)

	tests := []struct {
		place mir.Place
		want  string
	}{
		{mir.LocalPlace(1).Project(mir.Field{Index: 1}), "ldfld int32* valuetype Closure_main_0::f_1(ldarga.0)"},
		{mir.LocalPlace(2).Project(mir.Field{Index: 1}), "ldfld bool valuetype [System.Runtime]System.ValueTuple`2<int32,bool>::Item2(ldarga.1)"},
		{mir.LocalPlace(1).Project(mir.Field{Index: 1}, mir.Deref{}), "ldind int32(ldfld int32* valuetype Closure_main_0::f_1(ldarga.0))"},
	}
	for _, tt := range tests {
		if got := p.NodeString(c.Get(tt.place)); got != tt.want {
			t.Errorf("Get(%s) = %s, want %s", tt.place, got, tt.want)
		}
	}
}

func TestDowncastField(t *testing.T) {
	opt := optionEnum()
	c := newCtx(mir.Unit(), nil, opt)
	p := cil.NewPrinter(nil, c.Asm)
	some := mir.LocalPlace(1).Project(mir.Downcast{Variant: 1}, mir.Field{Index: 0})

	if pt := c.PlaceType(some); !mir.Equal(Ty(pt), i32) {
		t.Errorf("PlaceType = %s, want i32", Ty(pt))
	}
	v := c.Asm.AllocNode(cil.ConstInt{Kind: cil.I32, Bits: 7})
	if got, want := p.RootString(c.Set(some, v)), "stfld int32 valuetype Option<i32>::Some_0(ldloca.1, ldc.int32 7)"; got != want {
		t.Errorf("Set = %s, want %s", got, want)
	}

	variant := mir.LocalPlace(1).Project(mir.Downcast{Variant: 1})
	if _, ok := c.PlaceType(variant).(VariantPlace); !ok {
		t.Error("a downcast place has a variant type")
	}
	if c.Address(variant) != c.LocalAddress(1) {
		t.Error("a variant lives at the address of its enum")
	}
	if r := catch(func() { c.Get(variant) }); r == nil {
		t.Error("loading a variant must panic")
	}
}

func TestSliceIndex(t *testing.T) {
	c := newCtx(u32, []mir.Ty{mir.RefTo(mir.Slice{Elem: u32}), usize})
	p := cil.NewPrinter(nil, c.Asm)
	elem := mir.LocalPlace(1).Project(mir.Deref{}, mir.Index{Local: 2})

	want := "ldind uint32(add(ldfld uint32* valuetype FatPtrRSlice_uint32::data_pointer(ldarg.0), mul(ldarg.1, conv.native uint(sizeof uint32))))"
	if got := p.NodeString(c.Get(elem)); got != want {
		t.Errorf("Get = %s\nwant  %s", got, want)
	}

	last := mir.LocalPlace(1).Project(mir.Deref{}, mir.ConstantIndex{Offset: 1, MinLength: 1, FromEnd: true})
	want = "sub(ldfld native uint valuetype FatPtrRSlice_uint32::metadata(ldarg.0), conv.native uint(ldc.uint64 1))"
	if got := p.NodeString(c.Address(last)); !strings.Contains(got, want) {
		t.Errorf("Address = %s, expected it to index with %s", got, want)
	}

	if got, want := p.NodeString(c.Len(mir.LocalPlace(1).Project(mir.Deref{}))), "ldfld native uint valuetype FatPtrRSlice_uint32::metadata(ldarg.0)"; got != want {
		t.Errorf("Len = %s, want %s", got, want)
	}
}

func TestArrayProjections(t *testing.T) {
	arr := mir.Array{Elem: i32, Len: 8}
	c := newCtx(mir.Unit(), nil, arr)
	p := cil.NewPrinter(nil, c.Asm)

	third := mir.LocalPlace(1).Project(mir.ConstantIndex{Offset: 2, MinLength: 3})
	want := "stind int32(add(ldloca.1, mul(conv.native uint(ldc.uint64 2), conv.native uint(sizeof int32))), ldc.int32 0)"
	zero := c.Asm.AllocNode(cil.ConstInt{Kind: cil.I32})
	if got := p.RootString(c.Set(third, zero)); got != want {
		t.Errorf("Set = %s\nwant  %s", got, want)
	}

	sub := mir.LocalPlace(1).Project(mir.Subslice{From: 2, To: 1, FromEnd: true})
	if pt := c.PlaceType(sub); !mir.Equal(Ty(pt), mir.Array{Elem: i32, Len: 5}) {
		t.Errorf("subslice type = %s, want [i32; 5]", Ty(pt))
	}
	want = "ldobj valuetype RArray_int32_5(add(ldloca.1, mul(conv.native uint(ldc.uint64 2), conv.native uint(sizeof int32))))"
	if got := p.NodeString(c.Get(sub)); got != want {
		t.Errorf("Get = %s\nwant  %s", got, want)
	}
	if got := p.NodeString(c.Len(mir.LocalPlace(1))); got != "conv.native uint(ldc.uint64 8)" {
		t.Errorf("Len = %s", got)
	}
}

func TestSubsliceOfSliceUnsupported(t *testing.T) {
	c := newCtx(mir.Unit(), []mir.Ty{mir.RefTo(mir.Slice{Elem: i32})})
	sub := mir.LocalPlace(1).Project(mir.Deref{}, mir.Subslice{From: 1, To: 3})
	r := catch(func() { c.Address(sub) })
	if _, ok := r.(*cil.UnsupportedError); !ok {
		t.Errorf("expected *cil.UnsupportedError, got %v", r)
	}
}

func TestDerefStore(t *testing.T) {
	c := newCtx(mir.Unit(), []mir.Ty{mir.Ref{Mut: true, Pointee: pointStruct()}, pointStruct()})
	p := cil.NewPrinter(nil, c.Asm)
	target := mir.LocalPlace(1).Project(mir.Deref{})

	got := p.RootString(c.Set(target, c.Get(mir.LocalPlace(2))))
	if want := "stind valuetype Point(ldarg.0, ldarg.1)"; got != want {
		t.Errorf("Set = %s, want %s", got, want)
	}
	// a field behind a reference is addressed through the pointer value
	x := target.Project(mir.Field{Index: 0})
	if got, want := p.NodeString(c.Get(x)), "ldfld int32 valuetype Point::x(ldarg.0)"; got != want {
		t.Errorf("Get = %s, want %s", got, want)
	}
}

func TestDerefNonPointerPanics(t *testing.T) {
	c := newCtx(mir.Unit(), []mir.Ty{i32})
	r := catch(func() { c.Get(mir.LocalPlace(1).Project(mir.Deref{})) })
	if r == nil {
		t.Fatal("expected panic")
	}
	if _, ok := r.(*cil.UnsupportedError); ok {
		t.Error("dereferencing a non-pointer is an invariant violation")
	}
}
