package mirload

// TokenType represents the type of a token in the type syntax
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenIllegal

	// Literals
	TokenIdent // i32, Option, T
	TokenInt   // 4

	// Keywords
	TokenMut     // mut
	TokenConst   // const
	TokenDyn     // dyn
	TokenFn      // fn
	TokenClosure // closure
	TokenExtern  // extern

	// Punctuation
	TokenAmpersand // &
	TokenStar      // *
	TokenBang      // !
	TokenArrow     // ->
	TokenLParen    // (
	TokenRParen    // )
	TokenLBracket  // [
	TokenRBracket  // ]
	TokenLt        // <
	TokenGt        // >
	TokenComma     // ,
	TokenSemicolon // ;
)

var tokenNames = map[TokenType]string{
	TokenEOF:       "EOF",
	TokenIllegal:   "ILLEGAL",
	TokenIdent:     "IDENT",
	TokenInt:       "INT",
	TokenMut:       "mut",
	TokenConst:     "const",
	TokenDyn:       "dyn",
	TokenFn:        "fn",
	TokenClosure:   "closure",
	TokenExtern:    "extern",
	TokenAmpersand: "&",
	TokenStar:      "*",
	TokenBang:      "!",
	TokenArrow:     "->",
	TokenLParen:    "(",
	TokenRParen:    ")",
	TokenLBracket:  "[",
	TokenRBracket:  "]",
	TokenLt:        "<",
	TokenGt:        ">",
	TokenComma:     ",",
	TokenSemicolon: ";",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Token is a lexical token with its position
type Token struct {
	Type    TokenType
	Literal string
	Column  int
}

var keywords = map[string]TokenType{
	"mut":     TokenMut,
	"const":   TokenConst,
	"dyn":     TokenDyn,
	"fn":      TokenFn,
	"closure": TokenClosure,
	"extern":  TokenExtern,
}

// LookupIdent returns the keyword token type for ident, or TokenIdent
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdent
}
