// Package mirload reads MIR programs from YAML.
//
// A document lists ADT definitions and function bodies. Types are written
// in the usual surface syntax (see ParseType); places are either `_N` or a
// mapping with a local and a projection list.
package mirload

import (
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/tinco/rustc-codegen-clr/pkg/mir"
)

type document struct {
	Adts      []adtDoc      `yaml:"adts"`
	Functions []functionDoc `yaml:"functions"`
}

type adtDoc struct {
	Name     string       `yaml:"name"`
	Kind     string       `yaml:"kind"`
	Generics []string     `yaml:"generics"`
	Fields   []fieldDoc   `yaml:"fields"`
	Variants []variantDoc `yaml:"variants"`
}

type fieldDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type variantDoc struct {
	Name   string     `yaml:"name"`
	Fields []fieldDoc `yaml:"fields"`
}

type functionDoc struct {
	Name     string     `yaml:"name"`
	Generics []string   `yaml:"generics"`
	Instance []string   `yaml:"instance"`
	Args     int        `yaml:"args"`
	Locals   []fieldDoc `yaml:"locals"`
	Blocks   []blockDoc `yaml:"blocks"`
}

type blockDoc struct {
	Statements []yaml.Node `yaml:"statements"`
	Terminator yaml.Node   `yaml:"terminator"`
	Cleanup    bool        `yaml:"cleanup"`
}

// LoadFile reads a MIR program from a YAML file
func LoadFile(path string) (*mir.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open MIR file")
	}
	defer f.Close()
	prog, err := Load(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return prog, nil
}

// Load reads a MIR program from YAML
func Load(r io.Reader) (*mir.Program, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return &mir.Program{Adts: map[string]*mir.AdtDef{}}, nil
		}
		return nil, errors.Wrap(err, "decode MIR")
	}
	adts, err := loadAdts(doc.Adts)
	if err != nil {
		return nil, err
	}
	prog := &mir.Program{Adts: adts}
	for _, fd := range doc.Functions {
		body, err := loadFunction(fd, adts)
		if err != nil {
			return nil, errors.Wrapf(err, "function %s", fd.Name)
		}
		prog.Functions = append(prog.Functions, body)
	}
	return prog, nil
}

// loadAdts declares every ADT before parsing any field so that
// definitions may refer to each other in any order.
func loadAdts(docs []adtDoc) (map[string]*mir.AdtDef, error) {
	adts := make(map[string]*mir.AdtDef, len(docs))
	for _, d := range docs {
		if d.Name == "" {
			return nil, errors.New("ADT without a name")
		}
		if _, dup := adts[d.Name]; dup {
			return nil, errors.Errorf("duplicate ADT %s", d.Name)
		}
		def := &mir.AdtDef{Name: d.Name, Generics: d.Generics}
		switch d.Kind {
		case "", "struct":
			def.Kind = mir.StructKind
		case "enum":
			def.Kind = mir.EnumKind
		case "union":
			def.Kind = mir.UnionKind
		default:
			return nil, errors.Errorf("ADT %s: unknown kind %q", d.Name, d.Kind)
		}
		adts[d.Name] = def
	}
	for _, d := range docs {
		def := adts[d.Name]
		if def.Kind == mir.EnumKind {
			for _, vd := range d.Variants {
				fields, err := loadFields(vd.Fields, adts, d.Generics)
				if err != nil {
					return nil, errors.Wrapf(err, "ADT %s variant %s", d.Name, vd.Name)
				}
				def.Variants = append(def.Variants, mir.VariantDef{Name: vd.Name, Fields: fields})
			}
			continue
		}
		if len(d.Variants) > 0 {
			return nil, errors.Errorf("ADT %s: only enums have variants", d.Name)
		}
		fields, err := loadFields(d.Fields, adts, d.Generics)
		if err != nil {
			return nil, errors.Wrapf(err, "ADT %s", d.Name)
		}
		def.Variants = []mir.VariantDef{{Name: d.Name, Fields: fields}}
	}
	return adts, nil
}

func loadFields(docs []fieldDoc, adts map[string]*mir.AdtDef, generics []string) ([]mir.FieldDef, error) {
	fields := make([]mir.FieldDef, len(docs))
	for i, fd := range docs {
		t, err := ParseType(fd.Type, adts, generics...)
		if err != nil {
			return nil, err
		}
		fields[i] = mir.FieldDef{Name: fd.Name, Ty: t}
	}
	return fields, nil
}

// bodyLoader decodes the statements and terminators of one body
type bodyLoader struct {
	adts     map[string]*mir.AdtDef
	generics []string
	locals   []mir.Ty
	nblocks  int
}

func loadFunction(fd functionDoc, adts map[string]*mir.AdtDef) (*mir.Body, error) {
	if len(fd.Locals) == 0 {
		return nil, errors.New("no return place")
	}
	if fd.Args < 0 || fd.Args >= len(fd.Locals) {
		return nil, errors.Errorf("%d arguments but %d locals", fd.Args, len(fd.Locals))
	}
	if len(fd.Blocks) == 0 {
		return nil, errors.New("no basic blocks")
	}
	body := &mir.Body{Name: fd.Name, Generics: fd.Generics, ArgCount: fd.Args}
	for i, s := range fd.Instance {
		t, err := ParseType(s, adts)
		if err != nil {
			return nil, errors.Wrapf(err, "instance argument %d", i)
		}
		body.Instance = append(body.Instance, t)
	}
	if len(body.Instance) != 0 && len(body.Instance) != len(fd.Generics) {
		return nil, errors.Errorf("%d generics but %d instance arguments", len(fd.Generics), len(body.Instance))
	}
	for i, ld := range fd.Locals {
		t, err := ParseType(ld.Type, adts, fd.Generics...)
		if err != nil {
			return nil, errors.Wrapf(err, "local _%d", i)
		}
		body.Locals = append(body.Locals, mir.LocalDecl{Name: ld.Name, Ty: t})
	}
	bl := &bodyLoader{adts: adts, generics: fd.Generics, nblocks: len(fd.Blocks)}
	for _, ld := range body.Locals {
		bl.locals = append(bl.locals, ld.Ty)
	}
	for i, bd := range fd.Blocks {
		block, err := bl.block(bd)
		if err != nil {
			return nil, errors.Wrapf(err, "bb%d", i)
		}
		body.Blocks = append(body.Blocks, block)
	}
	return body, nil
}

func (bl *bodyLoader) block(bd blockDoc) (mir.BasicBlockData, error) {
	block := mir.BasicBlockData{IsCleanup: bd.Cleanup}
	for i := range bd.Statements {
		st, err := bl.statement(&bd.Statements[i])
		if err != nil {
			return block, err
		}
		block.Statements = append(block.Statements, st)
	}
	if bd.Terminator.Kind == 0 {
		return block, errors.New("missing terminator")
	}
	term, err := bl.terminator(&bd.Terminator)
	if err != nil {
		return block, err
	}
	for _, succ := range term.Successors() {
		if int(succ) >= bl.nblocks {
			return block, errors.Errorf("line %d: jump to missing block bb%d", bd.Terminator.Line, succ)
		}
	}
	block.Terminator = term
	return block, nil
}

// oneKey splits a node of the form `key` or `key: value`
func oneKey(n *yaml.Node) (string, *yaml.Node, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value, nil, nil
	case yaml.MappingNode:
		if len(n.Content) == 2 {
			return n.Content[0].Value, n.Content[1], nil
		}
	}
	return "", nil, errors.Errorf("line %d: expected a scalar or a single-key mapping", n.Line)
}

func needValue(key string, n, v *yaml.Node) error {
	if v == nil {
		return errors.Errorf("line %d: %s needs a value", n.Line, key)
	}
	return nil
}

// --- Places ---

// placeNode decodes a place from `_N` or {local: N, proj: [...]}
type placeNode struct {
	mir.Place
}

func (p *placeNode) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		l, err := parseLocal(n.Value)
		if err != nil {
			return errors.Wrapf(err, "line %d", n.Line)
		}
		p.Place = mir.LocalPlace(l)
		return nil
	}
	var raw struct {
		Local mir.Local  `yaml:"local"`
		Proj  []elemNode `yaml:"proj"`
	}
	if err := decodeStrict(n, &raw); err != nil {
		return err
	}
	p.Place = mir.LocalPlace(raw.Local)
	for _, e := range raw.Proj {
		p.Projection = append(p.Projection, e.PlaceElem)
	}
	return nil
}

func parseLocal(s string) (mir.Local, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(s, "_"))
	if err != nil || !strings.HasPrefix(s, "_") {
		return 0, errors.Errorf("bad local %q", s)
	}
	return mir.Local(n), nil
}

// elemNode decodes one projection element
type elemNode struct {
	mir.PlaceElem
}

func (e *elemNode) UnmarshalYAML(n *yaml.Node) error {
	key, v, err := oneKey(n)
	if err != nil {
		return err
	}
	if key == "deref" {
		e.PlaceElem = mir.Deref{}
		return nil
	}
	if err := needValue(key, n, v); err != nil {
		return err
	}
	switch key {
	case "field":
		var idx int
		if err := decodeStrict(v, &idx); err != nil {
			return err
		}
		e.PlaceElem = mir.Field{Index: idx}
	case "index":
		var l mir.Local
		if err := decodeStrict(v, &l); err != nil {
			return err
		}
		e.PlaceElem = mir.Index{Local: l}
	case "downcast":
		var variant int
		if err := decodeStrict(v, &variant); err != nil {
			return err
		}
		e.PlaceElem = mir.Downcast{Variant: variant}
	case "const_index":
		var raw struct {
			Offset    uint64 `yaml:"offset"`
			MinLength uint64 `yaml:"min_length"`
			FromEnd   bool   `yaml:"from_end"`
		}
		if err := decodeStrict(v, &raw); err != nil {
			return err
		}
		e.PlaceElem = mir.ConstantIndex{Offset: raw.Offset, MinLength: raw.MinLength, FromEnd: raw.FromEnd}
	case "subslice":
		var raw struct {
			From    uint64 `yaml:"from"`
			To      uint64 `yaml:"to"`
			FromEnd bool   `yaml:"from_end"`
		}
		if err := decodeStrict(v, &raw); err != nil {
			return err
		}
		e.PlaceElem = mir.Subslice{From: raw.From, To: raw.To, FromEnd: raw.FromEnd}
	default:
		return errors.Errorf("line %d: unknown projection %q", n.Line, key)
	}
	return nil
}

func (bl *bodyLoader) place(n *yaml.Node) (mir.Place, error) {
	var p placeNode
	if err := decodeStrict(n, &p); err != nil {
		return mir.Place{}, err
	}
	if err := bl.checkLocal(n, p.Local); err != nil {
		return mir.Place{}, err
	}
	for _, e := range p.Projection {
		if idx, ok := e.(mir.Index); ok {
			if err := bl.checkLocal(n, idx.Local); err != nil {
				return mir.Place{}, err
			}
		}
	}
	if err := bl.checkProjection(p.Place); err != nil {
		return mir.Place{}, errors.Wrapf(err, "line %d: %s", n.Line, p.Place)
	}
	return p.Place, nil
}

// checkProjection follows the projections of p from the declared type of
// its local and rejects steps the types cannot take. Checking stops at a
// generic parameter.
func (bl *bodyLoader) checkProjection(p mir.Place) error {
	ty := bl.locals[p.Local]
	variant := -1
	for _, e := range p.Projection {
		if _, ok := ty.(mir.Param); ok {
			return nil
		}
		switch e := e.(type) {
		case mir.Deref:
			switch t := ty.(type) {
			case mir.Ref:
				ty = t.Pointee
			case mir.RawPtr:
				ty = t.Pointee
			default:
				return errors.Errorf("deref of %s", ty)
			}
		case mir.Field:
			ft, err := fieldTy(ty, variant, e.Index)
			if err != nil {
				return err
			}
			ty = ft
		case mir.Downcast:
			t, ok := ty.(mir.Adt)
			if !ok || t.Def.Kind != mir.EnumKind {
				return errors.Errorf("downcast of %s", ty)
			}
			if _, ok := t.Def.Variant(e.Variant); !ok {
				return errors.Errorf("%s has no variant %d", ty, e.Variant)
			}
			variant = e.Variant
			continue
		case mir.Index, mir.ConstantIndex:
			switch t := ty.(type) {
			case mir.Array:
				ty = t.Elem
			case mir.Slice:
				ty = t.Elem
			default:
				return errors.Errorf("index into %s", ty)
			}
		case mir.Subslice:
			switch ty.(type) {
			case mir.Array, mir.Slice:
			default:
				return errors.Errorf("subslice of %s", ty)
			}
		}
		variant = -1
	}
	return nil
}

// fieldTy returns the type of field idx of ty, or of its variant when ty
// was downcast
func fieldTy(ty mir.Ty, variant, idx int) (mir.Ty, error) {
	switch t := ty.(type) {
	case mir.Adt:
		if t.Def.Kind == mir.EnumKind && variant < 0 {
			return nil, errors.Errorf("field %d of enum %s without a downcast", idx, ty)
		}
		if ft, ok := t.FieldTy(max(variant, 0), idx); ok {
			return ft, nil
		}
		if variant >= 0 {
			return nil, errors.Errorf("variant %d of %s has no field %d", variant, ty, idx)
		}
	case mir.Tuple:
		if idx >= 0 && idx < len(t.Elems) {
			return t.Elems[idx], nil
		}
	case mir.Closure:
		if idx >= 0 && idx < len(t.Upvars) {
			return t.Upvars[idx], nil
		}
	default:
		return nil, errors.Errorf("field %d of %s", idx, ty)
	}
	return nil, errors.Errorf("%s has no field %d", ty, idx)
}

func (bl *bodyLoader) checkLocal(n *yaml.Node, l mir.Local) error {
	if int(l) < 0 || int(l) >= len(bl.locals) {
		return errors.Errorf("line %d: local _%d out of range", n.Line, l)
	}
	return nil
}

// --- Operands and rvalues ---

func (bl *bodyLoader) operand(n *yaml.Node) (mir.Operand, error) {
	key, v, err := oneKey(n)
	if err != nil {
		return nil, err
	}
	if err := needValue(key, n, v); err != nil {
		return nil, err
	}
	switch key {
	case "copy":
		p, err := bl.place(v)
		return mir.Copy{Place: p}, err
	case "move":
		p, err := bl.place(v)
		return mir.Move{Place: p}, err
	case "const":
		return bl.constant(v)
	}
	return nil, errors.Errorf("line %d: unknown operand %q", n.Line, key)
}

func (bl *bodyLoader) constant(n *yaml.Node) (mir.Operand, error) {
	var raw struct {
		Type  string `yaml:"type"`
		Value string `yaml:"value"`
	}
	if err := decodeStrict(n, &raw); err != nil {
		return nil, err
	}
	t, err := ParseType(raw.Type, bl.adts, bl.generics...)
	if err != nil {
		return nil, err
	}
	bits, err := constBits(t, raw.Value)
	if err != nil {
		return nil, errors.Wrapf(err, "line %d", n.Line)
	}
	return mir.Constant{Ty: t, Bits: bits}, nil
}

// constBits encodes a literal as the raw bits of a constant of type t
func constBits(t mir.Ty, value string) (uint64, error) {
	switch tt := t.(type) {
	case mir.Int:
		v, err := strconv.ParseInt(value, 0, constBitSize(tt.Width))
		if err != nil {
			return 0, errors.Errorf("bad %s constant %q", t, value)
		}
		return uint64(v), nil
	case mir.Uint:
		v, err := strconv.ParseUint(value, 0, constBitSize(tt.Width))
		if err != nil {
			return 0, errors.Errorf("bad %s constant %q", t, value)
		}
		return v, nil
	case mir.Float:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, errors.Errorf("bad %s constant %q", t, value)
		}
		if tt.Width == mir.F32 {
			return uint64(math.Float32bits(float32(v))), nil
		}
		return math.Float64bits(v), nil
	case mir.Bool:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return 0, errors.Errorf("bad bool constant %q", value)
		}
		if v {
			return 1, nil
		}
		return 0, nil
	case mir.Char:
		if v, err := strconv.ParseUint(value, 0, 32); err == nil {
			return v, nil
		}
		r := []rune(value)
		if len(r) != 1 {
			return 0, errors.Errorf("bad char constant %q", value)
		}
		return uint64(r[0]), nil
	case mir.Tuple:
		if len(tt.Elems) == 0 {
			return 0, nil
		}
	}
	return 0, errors.Errorf("constants of type %s are not supported", t)
}

// constBitSize is the range literals of an integer width are checked
// against; constants are stored in 64 bits
func constBitSize(w mir.IntWidth) int {
	return int(min(w.Bytes(8), 8) * 8)
}

var unOps = map[string]mir.UnOp{
	"neg":          mir.Neg,
	"not":          mir.Not,
	"ptr_metadata": mir.PtrMetadata,
}

var binOps = map[string]mir.BinOp{
	"add":     mir.Add,
	"sub":     mir.Sub,
	"mul":     mir.Mul,
	"div":     mir.Div,
	"rem":     mir.Rem,
	"bit_and": mir.BitAnd,
	"bit_or":  mir.BitOr,
	"bit_xor": mir.BitXor,
	"shl":     mir.Shl,
	"shr":     mir.Shr,
	"eq":      mir.Eq,
	"ne":      mir.Ne,
	"lt":      mir.Lt,
	"le":      mir.Le,
	"gt":      mir.Gt,
	"ge":      mir.Ge,
}

func (bl *bodyLoader) rvalue(n *yaml.Node) (mir.Rvalue, error) {
	key, v, err := oneKey(n)
	if err != nil {
		return nil, err
	}
	if err := needValue(key, n, v); err != nil {
		return nil, err
	}
	switch key {
	case "use":
		op, err := bl.operand(v)
		return mir.Use{Operand: op}, err
	case "unary":
		var raw struct {
			Op      string    `yaml:"op"`
			Operand yaml.Node `yaml:"operand"`
		}
		if err := decodeStrict(v, &raw); err != nil {
			return nil, err
		}
		op, ok := unOps[raw.Op]
		if !ok {
			return nil, errors.Errorf("line %d: unknown unary operator %q", v.Line, raw.Op)
		}
		operand, err := bl.operand(&raw.Operand)
		return mir.UnaryOp{Op: op, Operand: operand}, err
	case "binary":
		var raw struct {
			Op    string    `yaml:"op"`
			Left  yaml.Node `yaml:"left"`
			Right yaml.Node `yaml:"right"`
		}
		if err := decodeStrict(v, &raw); err != nil {
			return nil, err
		}
		op, ok := binOps[raw.Op]
		if !ok {
			return nil, errors.Errorf("line %d: unknown binary operator %q", v.Line, raw.Op)
		}
		left, err := bl.operand(&raw.Left)
		if err != nil {
			return nil, err
		}
		right, err := bl.operand(&raw.Right)
		return mir.BinaryOp{Op: op, Left: left, Right: right}, err
	case "ref", "address_of":
		var raw struct {
			Place yaml.Node `yaml:"place"`
			Mut   bool      `yaml:"mut"`
		}
		if err := decodeStrict(v, &raw); err != nil {
			return nil, err
		}
		p, err := bl.place(&raw.Place)
		if err != nil {
			return nil, err
		}
		if key == "ref" {
			return mir.RefOf{Mut: raw.Mut, Place: p}, nil
		}
		return mir.AddressOf{Mut: raw.Mut, Place: p}, nil
	case "len":
		p, err := bl.place(v)
		return mir.Len{Place: p}, err
	case "discriminant":
		p, err := bl.place(v)
		return mir.Discriminant{Place: p}, err
	case "cast":
		var raw struct {
			Operand yaml.Node `yaml:"operand"`
			Type    string    `yaml:"type"`
		}
		if err := decodeStrict(v, &raw); err != nil {
			return nil, err
		}
		t, err := ParseType(raw.Type, bl.adts, bl.generics...)
		if err != nil {
			return nil, err
		}
		op, err := bl.operand(&raw.Operand)
		return mir.Cast{Operand: op, Ty: t}, err
	}
	return nil, errors.Errorf("line %d: unknown rvalue %q", n.Line, key)
}

// --- Statements and terminators ---

// parseSpan parses file:line:col; the file name may itself contain colons
func parseSpan(s string) (*mir.Span, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ":")
	if len(parts) < 3 {
		return nil, errors.Errorf("bad span %q", s)
	}
	line, err1 := strconv.ParseUint(parts[len(parts)-2], 10, 32)
	col, err2 := strconv.ParseUint(parts[len(parts)-1], 10, 32)
	if err1 != nil || err2 != nil {
		return nil, errors.Errorf("bad span %q", s)
	}
	return &mir.Span{
		File:   strings.Join(parts[:len(parts)-2], ":"),
		Line:   uint32(line),
		Column: uint32(col),
	}, nil
}

func (bl *bodyLoader) statement(n *yaml.Node) (mir.Statement, error) {
	key, v, err := oneKey(n)
	if err != nil {
		return nil, err
	}
	if key == "nop" {
		return mir.Nop{}, nil
	}
	if err := needValue(key, n, v); err != nil {
		return nil, err
	}
	switch key {
	case "assign":
		var raw struct {
			Place  yaml.Node `yaml:"place"`
			Rvalue yaml.Node `yaml:"rvalue"`
			Span   string    `yaml:"span"`
		}
		if err := decodeStrict(v, &raw); err != nil {
			return nil, err
		}
		p, err := bl.place(&raw.Place)
		if err != nil {
			return nil, err
		}
		rv, err := bl.rvalue(&raw.Rvalue)
		if err != nil {
			return nil, err
		}
		span, err := parseSpan(raw.Span)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", v.Line)
		}
		return mir.Assign{Place: p, Rvalue: rv, Span: span}, nil
	case "set_discriminant":
		var raw struct {
			Place   yaml.Node `yaml:"place"`
			Variant int       `yaml:"variant"`
			Span    string    `yaml:"span"`
		}
		if err := decodeStrict(v, &raw); err != nil {
			return nil, err
		}
		p, err := bl.place(&raw.Place)
		if err != nil {
			return nil, err
		}
		span, err := parseSpan(raw.Span)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", v.Line)
		}
		return mir.SetDiscriminant{Place: p, Variant: raw.Variant, Span: span}, nil
	case "storage_live", "storage_dead":
		var l mir.Local
		if err := decodeStrict(v, &l); err != nil {
			return nil, err
		}
		if err := bl.checkLocal(v, l); err != nil {
			return nil, err
		}
		if key == "storage_live" {
			return mir.StorageLive{Local: l}, nil
		}
		return mir.StorageDead{Local: l}, nil
	}
	return nil, errors.Errorf("line %d: unknown statement %q", n.Line, key)
}

func (bl *bodyLoader) terminator(n *yaml.Node) (mir.Terminator, error) {
	key, v, err := oneKey(n)
	if err != nil {
		return nil, err
	}
	switch key {
	case "return":
		return mir.Return{}, nil
	case "unreachable":
		return mir.Unreachable{}, nil
	case "unwind_resume":
		return mir.UnwindResume{}, nil
	}
	if err := needValue(key, n, v); err != nil {
		return nil, err
	}
	switch key {
	case "goto":
		var target mir.BlockID
		if err := decodeStrict(v, &target); err != nil {
			return nil, err
		}
		return mir.Goto{Target: target}, nil
	case "switch_int":
		var raw struct {
			Discr   yaml.Node `yaml:"discr"`
			Targets []struct {
				Value  uint64      `yaml:"value"`
				Target mir.BlockID `yaml:"target"`
			} `yaml:"targets"`
			Otherwise mir.BlockID `yaml:"otherwise"`
		}
		if err := decodeStrict(v, &raw); err != nil {
			return nil, err
		}
		discr, err := bl.operand(&raw.Discr)
		if err != nil {
			return nil, err
		}
		sw := mir.SwitchInt{Discr: discr, Otherwise: raw.Otherwise}
		for _, t := range raw.Targets {
			sw.Targets = append(sw.Targets, mir.SwitchTarget{Value: t.Value, Target: t.Target})
		}
		return sw, nil
	case "call":
		var raw struct {
			Func        string       `yaml:"func"`
			Args        []yaml.Node  `yaml:"args"`
			Destination yaml.Node    `yaml:"destination"`
			Target      *mir.BlockID `yaml:"target"`
			Cleanup     *mir.BlockID `yaml:"cleanup"`
		}
		if err := decodeStrict(v, &raw); err != nil {
			return nil, err
		}
		if raw.Func == "" {
			return nil, errors.Errorf("line %d: call without a function", v.Line)
		}
		if raw.Destination.Kind == 0 {
			return nil, errors.Errorf("line %d: call without a destination", v.Line)
		}
		dest, err := bl.place(&raw.Destination)
		if err != nil {
			return nil, err
		}
		call := mir.Call{Func: raw.Func, Destination: dest, Target: raw.Target, Cleanup: raw.Cleanup}
		for i := range raw.Args {
			arg, err := bl.operand(&raw.Args[i])
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
		}
		return call, nil
	case "drop":
		var raw struct {
			Place   yaml.Node    `yaml:"place"`
			Target  mir.BlockID  `yaml:"target"`
			Cleanup *mir.BlockID `yaml:"cleanup"`
		}
		if err := decodeStrict(v, &raw); err != nil {
			return nil, err
		}
		p, err := bl.place(&raw.Place)
		if err != nil {
			return nil, err
		}
		return mir.Drop{Place: p, Target: raw.Target, Cleanup: raw.Cleanup}, nil
	case "assert":
		var raw struct {
			Cond     yaml.Node    `yaml:"cond"`
			Expected bool         `yaml:"expected"`
			Msg      string       `yaml:"msg"`
			Target   mir.BlockID  `yaml:"target"`
			Cleanup  *mir.BlockID `yaml:"cleanup"`
		}
		if err := decodeStrict(v, &raw); err != nil {
			return nil, err
		}
		cond, err := bl.operand(&raw.Cond)
		if err != nil {
			return nil, err
		}
		return mir.Assert{Cond: cond, Expected: raw.Expected, Msg: raw.Msg, Target: raw.Target, Cleanup: raw.Cleanup}, nil
	}
	return nil, errors.Errorf("line %d: unknown terminator %q", n.Line, key)
}
