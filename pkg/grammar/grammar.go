// Package grammar parses space-lua source into a concrete syntax tree.
//
// The tree follows the node naming of the lezer Lua grammar the lowering
// pass was written against (Chunk, Block, IfStatement, FuncBody, ...), with
// whitespace between tokens kept as untyped text leaves. Run cst.Clean before
// lowering.
//
// # Grammar Overview
//
//	chunk     → block EOF
//	block     → {stat} [retstat]
//	stat      → ';' | varlist '=' explist | functioncall | label | break
//	          | goto Name | do block end | while exp do block end
//	          | repeat block until exp
//	          | if exp then block {elseif exp then block} [else block] end
//	          | for Name '=' exp ',' exp [',' exp] do block end
//	          | for namelist in explist do block end
//	          | function funcname funcbody | local function Name funcbody
//	          | local attnamelist ['=' explist]
//	exp       → subexp with binary priorities from the reference manual
package grammar

import "github.com/leapstack-labs/spacelua/pkg/cst"

// Grammar produces a CST from source text. Implementations must be safe for
// concurrent use.
type Grammar interface {
	// Parse parses a full chunk. The root node is a Chunk.
	Parse(text string) (*cst.Node, error)
	// ParseExpression parses text as a single expression. The root node is
	// the expression itself.
	ParseExpression(text string) (*cst.Node, error)
	// ParseExpressionList parses text as exp {',' exp}. The root node is
	// an ExpList.
	ParseExpressionList(text string) (*cst.Node, error)
}

type luaGrammar struct{}

// Lua returns the built-in space-lua grammar. It is stateless.
func Lua() Grammar {
	return luaGrammar{}
}

func (luaGrammar) Parse(text string) (*cst.Node, error) {
	p := NewParser(text)
	root := p.ParseChunk()
	if p.err != nil {
		return nil, p.err
	}
	return root, nil
}

func (luaGrammar) ParseExpression(text string) (*cst.Node, error) {
	p := NewParser(text)
	exp := p.ParseExpression()
	if p.err != nil {
		return nil, p.err
	}
	return exp, nil
}

func (luaGrammar) ParseExpressionList(text string) (*cst.Node, error) {
	p := NewParser(text)
	list := p.ParseExpressionList()
	if p.err != nil {
		return nil, p.err
	}
	return list, nil
}
