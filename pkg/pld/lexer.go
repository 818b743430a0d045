package pld

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// PLDLexer defines the lexical structure of the .pld subset this tool
// emits: a statement-per-line header, pin alias declarations, and
// sum-of-products equations.
var PLDLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Comments - C style block comments (/* ... */)
	{Name: "Comment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},

	// Whitespace
	{Name: "Whitespace", Pattern: `[\s\t\n\r]+`},

	// Bit constants ('b'0 and 'b'1)
	{Name: "BitConst", Pattern: `'b'[01]`},

	// Operators and punctuation
	{Name: "Bang", Pattern: `!`},
	{Name: "Amp", Pattern: `&`},
	{Name: "Hash", Pattern: `#`},
	{Name: "Eq", Pattern: `=`},
	{Name: "Semi", Pattern: `;`},

	// Words: signal names (io12, io12.oe), pin numbers, and free-form
	// header values such as dates and file stems.
	{Name: "Word", Pattern: `[A-Za-z0-9_][A-Za-z0-9_.\-/]*`},
})
