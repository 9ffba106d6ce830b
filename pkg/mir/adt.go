package mir

// AdtKind distinguishes structs, enums and unions
type AdtKind int

const (
	StructKind AdtKind = iota
	EnumKind
	UnionKind
)

func (k AdtKind) String() string {
	switch k {
	case StructKind:
		return "struct"
	case EnumKind:
		return "enum"
	case UnionKind:
		return "union"
	}
	return "?"
}

// AdtDef is the definition of an algebraic data type.
// Structs and unions have exactly one variant.
type AdtDef struct {
	Name     string
	Kind     AdtKind
	Generics []string
	Variants []VariantDef
}

// VariantDef is one variant of an ADT
type VariantDef struct {
	Name   string
	Fields []FieldDef
}

// FieldDef is a named field. Its type may mention the ADT's generic
// parameters as Param{Index: i}.
type FieldDef struct {
	Name string
	Ty   Ty
}

// NewStruct creates a struct definition with the given fields
func NewStruct(name string, fields ...FieldDef) *AdtDef {
	return &AdtDef{
		Name:     name,
		Kind:     StructKind,
		Variants: []VariantDef{{Name: name, Fields: fields}},
	}
}

// NewEnum creates an enum definition with the given variants
func NewEnum(name string, variants ...VariantDef) *AdtDef {
	return &AdtDef{
		Name:     name,
		Kind:     EnumKind,
		Variants: variants,
	}
}

// Fields returns the fields of a struct or union.
// For enums it returns nil; use Variant instead.
func (d *AdtDef) Fields() []FieldDef {
	if d.Kind == EnumKind || len(d.Variants) == 0 {
		return nil
	}
	return d.Variants[0].Fields
}

// Variant returns the variant with the given index
func (d *AdtDef) Variant(idx int) (VariantDef, bool) {
	if idx < 0 || idx >= len(d.Variants) {
		return VariantDef{}, false
	}
	return d.Variants[idx], true
}

// FieldTy returns the type of field idx of variant v, with the ADT's
// generic arguments substituted.
func (t Adt) FieldTy(variant, idx int) (Ty, bool) {
	v, ok := t.Def.Variant(variant)
	if !ok || idx < 0 || idx >= len(v.Fields) {
		return nil, false
	}
	return Subst(v.Fields[idx].Ty, t.Args), true
}

// Subst replaces generic parameters in t with args[param.Index].
// Parameters without a matching argument are left in place.
func Subst(t Ty, args []Ty) Ty {
	if len(args) == 0 || t == nil {
		return t
	}
	switch tt := t.(type) {
	case Param:
		if tt.Index >= 0 && tt.Index < len(args) && args[tt.Index] != nil {
			return args[tt.Index]
		}
		return tt
	case Ref:
		return Ref{Mut: tt.Mut, Pointee: Subst(tt.Pointee, args)}
	case RawPtr:
		return RawPtr{Mut: tt.Mut, Pointee: Subst(tt.Pointee, args)}
	case Array:
		return Array{Elem: Subst(tt.Elem, args), Len: tt.Len}
	case Slice:
		return Slice{Elem: Subst(tt.Elem, args)}
	case Tuple:
		return Tuple{Elems: substList(tt.Elems, args)}
	case Adt:
		return Adt{Def: tt.Def, Args: substList(tt.Args, args)}
	case Closure:
		return Closure{Name: tt.Name, Upvars: substList(tt.Upvars, args)}
	case FnPtr:
		return FnPtr{Inputs: substList(tt.Inputs, args), Output: Subst(tt.Output, args)}
	default:
		return t
	}
}

func substList(tys []Ty, args []Ty) []Ty {
	if tys == nil {
		return nil
	}
	out := make([]Ty, len(tys))
	for i, t := range tys {
		out[i] = Subst(t, args)
	}
	return out
}

// HasParams reports whether t still mentions a generic parameter
func HasParams(t Ty) bool {
	switch tt := t.(type) {
	case Param:
		return true
	case Ref:
		return HasParams(tt.Pointee)
	case RawPtr:
		return HasParams(tt.Pointee)
	case Array:
		return HasParams(tt.Elem)
	case Slice:
		return HasParams(tt.Elem)
	case Tuple:
		return anyParams(tt.Elems)
	case Adt:
		return anyParams(tt.Args)
	case Closure:
		return anyParams(tt.Upvars)
	case FnPtr:
		return anyParams(tt.Inputs) || HasParams(tt.Output)
	}
	return false
}

func anyParams(tys []Ty) bool {
	for _, t := range tys {
		if HasParams(t) {
			return true
		}
	}
	return false
}
