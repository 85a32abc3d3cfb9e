package formula

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// formulaLexer tokenizes formula source text.
// Longer operators are listed first so that "<=" never lexes as "<" "=".
var formulaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `\d+(?:\.\d+)?`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Ident", Pattern: `[a-zA-Z_]\w*`},
	{Name: "Operator", Pattern: `\|\||&&|==|!=|<=|>=|[-+*/%<>!?:(),.]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// expression is the grammar root: a conditional expression.
//
//	expression := or ( "?" expression ":" expression )?
type expression struct {
	Cond *orExpr     `parser:"@@"`
	Then *expression `parser:"( \"?\" @@"`
	Else *expression `parser:"  \":\" @@ )?"`
}

type orExpr struct {
	Head *andExpr   `parser:"@@"`
	Tail []*andExpr `parser:"( \"||\" @@ )*"`
}

type andExpr struct {
	Head *cmpExpr   `parser:"@@"`
	Tail []*cmpExpr `parser:"( \"&&\" @@ )*"`
}

type cmpExpr struct {
	Left  *sumExpr `parser:"@@"`
	Op    string   `parser:"( @(\"==\" | \"!=\" | \"<=\" | \">=\" | \"<\" | \">\")"`
	Right *sumExpr `parser:"  @@ )?"`
}

type sumExpr struct {
	Head *productExpr `parser:"@@"`
	Tail []*sumOp     `parser:"@@*"`
}

type sumOp struct {
	Op   string       `parser:"@(\"+\" | \"-\")"`
	Term *productExpr `parser:"@@"`
}

type productExpr struct {
	Head *unaryExpr   `parser:"@@"`
	Tail []*productOp `parser:"@@*"`
}

type productOp struct {
	Op     string     `parser:"@(\"*\" | \"/\" | \"%\")"`
	Factor *unaryExpr `parser:"@@"`
}

type unaryExpr struct {
	Op      string     `parser:"( @(\"-\" | \"!\")"`
	Operand *unaryExpr `parser:"  @@ )"`
	Primary *primary   `parser:"| @@"`
}

type primary struct {
	Number *float64    `parser:"  @Number"`
	String *string     `parser:"| @String"`
	Bool   *boolean    `parser:"| @(\"true\" | \"false\")"`
	Ref    *reference  `parser:"| @@"`
	Group  *expression `parser:"| \"(\" @@ \")\""`
}

// reference is a bare name, a member access chain (u.hp) or a call (max(a, b)).
type reference struct {
	Name   string     `parser:"@Ident"`
	Args   *arguments `parser:"( @@"`
	Fields []string   `parser:"| ( \".\" @Ident )+ )?"`
}

type arguments struct {
	List []*expression `parser:"\"(\" ( @@ ( \",\" @@ )* )? \")\""`
}

type boolean bool

func (b *boolean) Capture(values []string) error {
	*b = values[0] == "true"
	return nil
}

var formulaParser = participle.MustBuild[expression](
	participle.Lexer(formulaLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)
