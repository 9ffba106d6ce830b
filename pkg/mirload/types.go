package mirload

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/tinco/rustc-codegen-clr/pkg/mir"
)

var primitives = map[string]mir.Ty{
	"i8":    mir.Int{Width: mir.W8},
	"i16":   mir.Int{Width: mir.W16},
	"i32":   mir.Int{Width: mir.W32},
	"i64":   mir.Int{Width: mir.W64},
	"i128":  mir.Int{Width: mir.W128},
	"isize": mir.Int{Width: mir.WSize},
	"u8":    mir.Uint{Width: mir.W8},
	"u16":   mir.Uint{Width: mir.W16},
	"u32":   mir.Uint{Width: mir.W32},
	"u64":   mir.Uint{Width: mir.W64},
	"u128":  mir.Uint{Width: mir.W128},
	"usize": mir.Uint{Width: mir.WSize},
	"f16":   mir.Float{Width: mir.F16},
	"f32":   mir.Float{Width: mir.F32},
	"f64":   mir.Float{Width: mir.F64},
	"f128":  mir.Float{Width: mir.F128},
	"bool":  mir.Bool{},
	"char":  mir.Char{},
	"str":   mir.Str{},
}

// typeParser is a recursive descent parser for the type syntax
type typeParser struct {
	l         *Lexer
	curToken  Token
	peekToken Token
	errors    []string
	adts      map[string]*mir.AdtDef
	generics  []string
}

func newTypeParser(src string, adts map[string]*mir.AdtDef, generics []string) *typeParser {
	p := &typeParser{l: NewLexer(src), adts: adts, generics: generics}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *typeParser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *typeParser) addError(msg string) {
	p.errors = append(p.errors, fmt.Sprintf("col %d: %s", p.curToken.Column, msg))
}

func (p *typeParser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

func (p *typeParser) expect(t TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("expected %s, got %s", t, p.curToken.Type))
	return false
}

// ParseType parses a type such as `&mut [u8]`, `(i32, bool)`,
// `Option<u64>` or `[f32; 4]`. Names of ADTs resolve through adts; names
// listed in generics become generic parameters.
func ParseType(src string, adts map[string]*mir.AdtDef, generics ...string) (mir.Ty, error) {
	p := newTypeParser(src, adts, generics)
	t := p.parseType()
	if len(p.errors) == 0 && !p.curTokenIs(TokenEOF) {
		p.addError(fmt.Sprintf("unexpected %q after type", p.curToken.Literal))
	}
	if len(p.errors) > 0 {
		return nil, errors.Errorf("type %q: %s", src, strings.Join(p.errors, "; "))
	}
	return t, nil
}

func (p *typeParser) parseType() mir.Ty {
	switch p.curToken.Type {
	case TokenBang:
		p.nextToken()
		return mir.Never{}
	case TokenAmpersand:
		p.nextToken()
		mut := p.curTokenIs(TokenMut)
		if mut {
			p.nextToken()
		}
		pointee := p.parseType()
		if pointee == nil {
			return nil
		}
		return mir.Ref{Mut: mut, Pointee: pointee}
	case TokenStar:
		p.nextToken()
		var mut bool
		switch p.curToken.Type {
		case TokenMut:
			mut = true
		case TokenConst:
		default:
			p.addError("expected const or mut after *")
			return nil
		}
		p.nextToken()
		pointee := p.parseType()
		if pointee == nil {
			return nil
		}
		return mir.RawPtr{Mut: mut, Pointee: pointee}
	case TokenLParen:
		return p.parseTuple()
	case TokenLBracket:
		return p.parseArrayOrSlice()
	case TokenDyn:
		p.nextToken()
		name := p.curToken.Literal
		if !p.expect(TokenIdent) {
			return nil
		}
		return mir.Dynamic{Trait: name}
	case TokenExtern:
		p.nextToken()
		name := p.curToken.Literal
		if !p.expect(TokenIdent) {
			return nil
		}
		return mir.Foreign{Name: name}
	case TokenFn:
		return p.parseFnPtr()
	case TokenClosure:
		return p.parseClosure()
	case TokenIdent:
		return p.parseNamed()
	}
	p.addError(fmt.Sprintf("unexpected %s in type", p.curToken.Type))
	return nil
}

// parseTypeList parses `T, U, ...` up to (not including) end. A trailing
// comma is allowed; trailing reports whether one was present.
func (p *typeParser) parseTypeList(end TokenType) (tys []mir.Ty, trailing bool, ok bool) {
	for !p.curTokenIs(end) {
		t := p.parseType()
		if t == nil {
			return nil, false, false
		}
		tys = append(tys, t)
		trailing = false
		if p.curTokenIs(TokenComma) {
			p.nextToken()
			trailing = true
			continue
		}
		if !p.curTokenIs(end) {
			p.addError(fmt.Sprintf("expected , or %s, got %s", end, p.curToken.Type))
			return nil, false, false
		}
	}
	p.nextToken()
	return tys, trailing, true
}

func (p *typeParser) parseTuple() mir.Ty {
	p.nextToken() // consume (
	tys, trailing, ok := p.parseTypeList(TokenRParen)
	if !ok {
		return nil
	}
	// (T) is just T; (T,) is a one-element tuple
	if len(tys) == 1 && !trailing {
		return tys[0]
	}
	return mir.Tuple{Elems: tys}
}

func (p *typeParser) parseArrayOrSlice() mir.Ty {
	p.nextToken() // consume [
	elem := p.parseType()
	if elem == nil {
		return nil
	}
	if p.curTokenIs(TokenRBracket) {
		p.nextToken()
		return mir.Slice{Elem: elem}
	}
	if !p.expect(TokenSemicolon) {
		return nil
	}
	lit := p.curToken.Literal
	if !p.expect(TokenInt) {
		return nil
	}
	n, err := strconv.ParseUint(strings.ReplaceAll(lit, "_", ""), 10, 64)
	if err != nil {
		p.addError(fmt.Sprintf("bad array length %q", lit))
		return nil
	}
	if !p.expect(TokenRBracket) {
		return nil
	}
	return mir.Array{Elem: elem, Len: n}
}

func (p *typeParser) parseFnPtr() mir.Ty {
	p.nextToken() // consume fn
	if !p.expect(TokenLParen) {
		return nil
	}
	inputs, _, ok := p.parseTypeList(TokenRParen)
	if !ok {
		return nil
	}
	output := mir.Unit()
	if p.curTokenIs(TokenArrow) {
		p.nextToken()
		if output = p.parseType(); output == nil {
			return nil
		}
	}
	return mir.FnPtr{Inputs: inputs, Output: output}
}

func (p *typeParser) parseClosure() mir.Ty {
	p.nextToken() // consume closure
	name := p.curToken.Literal
	if !p.expect(TokenIdent) {
		return nil
	}
	if !p.curTokenIs(TokenLParen) {
		return mir.Closure{Name: name}
	}
	p.nextToken()
	upvars, _, ok := p.parseTypeList(TokenRParen)
	if !ok {
		return nil
	}
	return mir.Closure{Name: name, Upvars: upvars}
}

func (p *typeParser) parseNamed() mir.Ty {
	name := p.curToken.Literal
	p.nextToken()
	if t, ok := primitives[name]; ok {
		return t
	}
	for i, g := range p.generics {
		if g == name {
			return mir.Param{Index: i, Name: name}
		}
	}
	def, ok := p.adts[name]
	if !ok {
		p.addError(fmt.Sprintf("unknown type %s", name))
		return nil
	}
	var args []mir.Ty
	if p.curTokenIs(TokenLt) {
		p.nextToken()
		var ok bool
		if args, _, ok = p.parseTypeList(TokenGt); !ok {
			return nil
		}
	}
	if len(args) != len(def.Generics) {
		p.addError(fmt.Sprintf("%s takes %d generic arguments, got %d", name, len(def.Generics), len(args)))
		return nil
	}
	return mir.Adt{Def: def, Args: args}
}
