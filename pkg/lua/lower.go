package lua

import (
	"github.com/leapstack-labs/spacelua/pkg/ast"
	"github.com/leapstack-labs/spacelua/pkg/cst"
)

// lowerer turns a cleaned CST into AST nodes. Every rule addresses CST
// children by position; helpers below check each addressed child once and
// report a *StructuralMismatchError instead of indexing blindly.
type lowerer struct {
	ambient ast.Context
}

// ctx stamps the span record for a node built from n.
func (l *lowerer) ctx(n *cst.Node) ast.Ctx {
	return ast.Ctx{From: n.From, To: n.To, Context: l.ambient}
}

// ---------- Child access helpers ----------

// expectType checks that n is one of types.
func expectType(n *cst.Node, types ...string) error {
	if n == nil {
		return NewStructuralMismatchError(nil, joinTypes(types))
	}
	for _, t := range types {
		if n.Type == t {
			return nil
		}
	}
	return NewStructuralMismatchError(n, joinTypes(types))
}

// child returns n's i-th child, checking its type when types are given.
func child(n *cst.Node, i int, types ...string) (*cst.Node, error) {
	c := n.Child(i)
	if c == nil {
		what := "a child node"
		if len(types) > 0 {
			what = joinTypes(types)
		}
		return nil, newMissingChildError(n, i, what)
	}
	if len(types) > 0 {
		if err := expectType(c, types...); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// tokenText returns the literal text of a token node.
func tokenText(n *cst.Node) (string, error) {
	txt, ok := n.TokenText()
	if !ok {
		return "", NewStructuralMismatchError(n, "a token")
	}
	return txt, nil
}

// nameAt returns the identifier text of n's i-th child, which must be a Name.
func nameAt(n *cst.Node, i int) (string, error) {
	c, err := child(n, i, "Name")
	if err != nil {
		return "", err
	}
	return tokenText(c)
}

func joinTypes(types []string) string {
	switch len(types) {
	case 0:
		return "a node"
	case 1:
		return types[0]
	}
	out := types[0]
	for _, t := range types[1 : len(types)-1] {
		out += ", " + t
	}
	return out + " or " + types[len(types)-1]
}

// ---------- Blocks and statements ----------

func (l *lowerer) lowerChunk(n *cst.Node) (*ast.Block, error) {
	if err := expectType(n, "Chunk"); err != nil {
		return nil, err
	}
	block, err := child(n, 0, "Block")
	if err != nil {
		return nil, err
	}
	return l.lowerBlock(block)
}

func (l *lowerer) lowerBlock(n *cst.Node) (*ast.Block, error) {
	if err := expectType(n, "Block"); err != nil {
		return nil, err
	}
	stmts := make([]ast.Statement, 0, n.Len())
	for _, c := range n.Children {
		s, err := l.lowerStatement(c)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return &ast.Block{Ctx: l.ctx(n), Statements: stmts}, nil
}

// blockAt lowers n's i-th child as a Block.
func (l *lowerer) blockAt(n *cst.Node, i int) (*ast.Block, error) {
	c, err := child(n, i, "Block")
	if err != nil {
		return nil, err
	}
	return l.lowerBlock(c)
}

// expressionAt lowers n's i-th child as an expression.
func (l *lowerer) expressionAt(n *cst.Node, i int) (ast.Expression, error) {
	c, err := child(n, i)
	if err != nil {
		return nil, err
	}
	return l.lowerExpression(c)
}

func (l *lowerer) lowerStatement(n *cst.Node) (ast.Statement, error) {
	switch n.Type {
	case "Block":
		return l.lowerBlock(n)
	case "Semicolon", ";":
		return &ast.Semicolon{Ctx: l.ctx(n)}, nil
	case "Label":
		name, err := nameAt(n, 1)
		if err != nil {
			return nil, err
		}
		return &ast.Label{Ctx: l.ctx(n), Name: name}, nil
	case "Goto":
		name, err := nameAt(n, 1)
		if err != nil {
			return nil, err
		}
		return &ast.Goto{Ctx: l.ctx(n), Name: name}, nil
	case "Break", "break":
		return &ast.Break{Ctx: l.ctx(n)}, nil
	case "Scope":
		return l.blockAt(n, 1)
	case "WhileStatement":
		return l.lowerWhile(n)
	case "RepeatStatement":
		return l.lowerRepeat(n)
	case "IfStatement":
		return l.lowerIf(n)
	case "ForStatement":
		return l.lowerFor(n)
	case "Function":
		return l.lowerFunction(n)
	case "LocalFunction":
		return l.lowerLocalFunction(n)
	case "FunctionCall":
		call, err := l.lowerFunctionCall(n)
		if err != nil {
			return nil, err
		}
		return &ast.FunctionCallStatement{Ctx: l.ctx(n), Call: call}, nil
	case "Assign":
		return l.lowerAssign(n)
	case "Local":
		return l.lowerLocal(n)
	case "ReturnStatement":
		return l.lowerReturn(n)
	default:
		return nil, NewStructuralMismatchError(n, "statement")
	}
}

// lowerWhile: while exp do Block end.
func (l *lowerer) lowerWhile(n *cst.Node) (ast.Statement, error) {
	cond, err := l.expressionAt(n, 1)
	if err != nil {
		return nil, err
	}
	block, err := l.blockAt(n, 3)
	if err != nil {
		return nil, err
	}
	return &ast.While{Ctx: l.ctx(n), Condition: cond, Block: block}, nil
}

// lowerRepeat: repeat Block until exp. The body precedes the condition.
func (l *lowerer) lowerRepeat(n *cst.Node) (ast.Statement, error) {
	block, err := l.blockAt(n, 1)
	if err != nil {
		return nil, err
	}
	cond, err := l.expressionAt(n, 3)
	if err != nil {
		return nil, err
	}
	return &ast.Repeat{Ctx: l.ctx(n), Block: block, Condition: cond}, nil
}

// lowerIf walks clauses in strides of four children:
// keyword, condition, then, block.
func (l *lowerer) lowerIf(n *cst.Node) (ast.Statement, error) {
	stmt := &ast.If{Ctx: l.ctx(n)}

walk:
	for i := 0; i < n.Len(); i += 4 {
		clause := n.Children[i]
		keyword, err := tokenText(clause)
		if err != nil {
			return nil, err
		}

		switch keyword {
		case "if", "elseif":
			cond, err := l.expressionAt(n, i+1)
			if err != nil {
				return nil, err
			}
			block, err := l.blockAt(n, i+3)
			if err != nil {
				return nil, err
			}
			stmt.Conditions = append(stmt.Conditions, &ast.IfClause{
				Ctx:       l.ctx(clause),
				Condition: cond,
				Block:     block,
			})
		case "else":
			block, err := l.blockAt(n, i+1)
			if err != nil {
				return nil, err
			}
			stmt.ElseBlock = block
		case "end":
			break walk
		default:
			return nil, NewUnknownClauseKeywordError(clause, keyword)
		}
	}
	return stmt, nil
}

// lowerFor dispatches on the loop head at child 1.
func (l *lowerer) lowerFor(n *cst.Node) (ast.Statement, error) {
	head, err := child(n, 1, "ForNumeric", "ForGeneric")
	if err != nil {
		return nil, err
	}
	block, err := l.blockAt(n, 3)
	if err != nil {
		return nil, err
	}

	if head.Type == "ForNumeric" {
		// Name = start , end [, step]
		name, err := nameAt(head, 0)
		if err != nil {
			return nil, err
		}
		start, err := l.expressionAt(head, 2)
		if err != nil {
			return nil, err
		}
		end, err := l.expressionAt(head, 4)
		if err != nil {
			return nil, err
		}
		var step ast.Expression
		if head.Child(5) != nil {
			if step, err = l.expressionAt(head, 6); err != nil {
				return nil, err
			}
		}
		return &ast.For{Ctx: l.ctx(n), Name: name, Start: start, End: end, Step: step, Block: block}, nil
	}

	// NameList in ExpList
	nameList, err := child(head, 0)
	if err != nil {
		return nil, err
	}
	names, err := l.lowerNameList(nameList)
	if err != nil {
		return nil, err
	}
	expList, err := child(head, 2)
	if err != nil {
		return nil, err
	}
	exps, err := l.lowerExpList(expList)
	if err != nil {
		return nil, err
	}
	return &ast.ForIn{Ctx: l.ctx(n), Names: names, Expressions: exps, Block: block}, nil
}

// lowerFunction: function FuncName FuncBody.
func (l *lowerer) lowerFunction(n *cst.Node) (ast.Statement, error) {
	nameNode, err := child(n, 1)
	if err != nil {
		return nil, err
	}
	name, err := l.lowerFunctionName(nameNode)
	if err != nil {
		return nil, err
	}
	body, err := l.bodyAt(n, 2)
	if err != nil {
		return nil, err
	}
	return &ast.Function{Ctx: l.ctx(n), Name: name, Body: body}, nil
}

// lowerLocalFunction: local function Name FuncBody.
func (l *lowerer) lowerLocalFunction(n *cst.Node) (ast.Statement, error) {
	name, err := nameAt(n, 2)
	if err != nil {
		return nil, err
	}
	body, err := l.bodyAt(n, 3)
	if err != nil {
		return nil, err
	}
	return &ast.LocalFunction{Ctx: l.ctx(n), Name: name, Body: body}, nil
}

// lowerAssign: VarList = ExpList. Unequal list lengths are left to the evaluator.
func (l *lowerer) lowerAssign(n *cst.Node) (ast.Statement, error) {
	varList, err := child(n, 0)
	if err != nil {
		return nil, err
	}
	targets := varList.Without(",")
	vars := make([]ast.LValue, 0, len(targets))
	for _, t := range targets {
		v, err := l.lowerLValue(t)
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}

	if _, err := child(n, 1, "="); err != nil {
		return nil, err
	}
	expList, err := child(n, 2)
	if err != nil {
		return nil, err
	}
	exps, err := l.lowerExpList(expList)
	if err != nil {
		return nil, err
	}
	return &ast.Assignment{Ctx: l.ctx(n), Variables: vars, Expressions: exps}, nil
}

// lowerLocal: local AttNameList [= ExpList].
func (l *lowerer) lowerLocal(n *cst.Node) (ast.Statement, error) {
	list, err := child(n, 1)
	if err != nil {
		return nil, err
	}
	names, err := l.lowerAttNames(list)
	if err != nil {
		return nil, err
	}

	exps := []ast.Expression{}
	if n.Len() > 2 {
		if _, err := child(n, 2, "="); err != nil {
			return nil, err
		}
		expList, err := child(n, 3, "ExpList")
		if err != nil {
			return nil, err
		}
		if exps, err = l.lowerExpList(expList); err != nil {
			return nil, err
		}
	}
	return &ast.Local{Ctx: l.ctx(n), Names: names, Expressions: exps}, nil
}

// lowerReturn: return [ExpList] [;].
func (l *lowerer) lowerReturn(n *cst.Node) (ast.Statement, error) {
	exps := []ast.Expression{}
	if expList := n.Child(1); expList != nil && expList.Type != ";" {
		var err error
		if exps, err = l.lowerExpList(expList); err != nil {
			return nil, err
		}
	}
	return &ast.Return{Ctx: l.ctx(n), Expressions: exps}, nil
}

// ---------- Lists and function parts ----------

func (l *lowerer) lowerNameList(n *cst.Node) ([]string, error) {
	if err := expectType(n, "NameList"); err != nil {
		return nil, err
	}
	nameNodes := n.Only("Name")
	names := make([]string, 0, len(nameNodes))
	for _, c := range nameNodes {
		txt, err := tokenText(c)
		if err != nil {
			return nil, err
		}
		names = append(names, txt)
	}
	return names, nil
}

func (l *lowerer) lowerExpList(n *cst.Node) ([]ast.Expression, error) {
	if err := expectType(n, "ExpList"); err != nil {
		return nil, err
	}
	items := n.Without(",")
	exps := make([]ast.Expression, 0, len(items))
	for _, c := range items {
		e, err := l.lowerExpression(c)
		if err != nil {
			return nil, err
		}
		exps = append(exps, e)
	}
	return exps, nil
}

func (l *lowerer) lowerAttNames(n *cst.Node) ([]*ast.AttName, error) {
	if err := expectType(n, "AttNameList"); err != nil {
		return nil, err
	}
	items := n.Without(",")
	names := make([]*ast.AttName, 0, len(items))
	for _, c := range items {
		a, err := l.lowerAttName(c)
		if err != nil {
			return nil, err
		}
		names = append(names, a)
	}
	return names, nil
}

// lowerAttName: Name Attrib, where Attrib is empty or < Name >.
func (l *lowerer) lowerAttName(n *cst.Node) (*ast.AttName, error) {
	if err := expectType(n, "AttName"); err != nil {
		return nil, err
	}
	name, err := nameAt(n, 0)
	if err != nil {
		return nil, err
	}
	attrib, err := child(n, 1, "Attrib")
	if err != nil {
		return nil, err
	}
	var attribute string
	if attrib.Child(1) != nil {
		if attribute, err = nameAt(attrib, 1); err != nil {
			return nil, err
		}
	}
	return &ast.AttName{Ctx: l.ctx(n), Name: name, Attribute: attribute}, nil
}

// lowerFunctionName walks Name {. Name} [: Name] in strides of two.
func (l *lowerer) lowerFunctionName(n *cst.Node) (*ast.FunctionName, error) {
	if err := expectType(n, "FuncName"); err != nil {
		return nil, err
	}
	fn := &ast.FunctionName{Ctx: l.ctx(n)}
	for i := 0; i < n.Len(); i += 2 {
		prop, err := nameAt(n, i)
		if err != nil {
			return nil, err
		}
		fn.PropNames = append(fn.PropNames, prop)
		if sep := n.Child(i + 1); sep != nil && sep.Type == ":" {
			if fn.ColonName, err = nameAt(n, i+2); err != nil {
				return nil, err
			}
			break
		}
	}
	return fn, nil
}

func (l *lowerer) bodyAt(n *cst.Node, i int) (*ast.FunctionBody, error) {
	c, err := child(n, i)
	if err != nil {
		return nil, err
	}
	return l.lowerFunctionBody(c)
}

// lowerFunctionBody: ( ParamList ) Block end.
func (l *lowerer) lowerFunctionBody(n *cst.Node) (*ast.FunctionBody, error) {
	if err := expectType(n, "FuncBody"); err != nil {
		return nil, err
	}
	params, err := child(n, 1)
	if err != nil {
		return nil, err
	}
	paramNodes := params.Only("Name", "Ellipsis")
	names := make([]string, 0, len(paramNodes))
	for _, p := range paramNodes {
		txt, err := tokenText(p)
		if err != nil {
			return nil, err
		}
		names = append(names, txt)
	}
	block, err := l.blockAt(n, 3)
	if err != nil {
		return nil, err
	}
	return &ast.FunctionBody{Ctx: l.ctx(n), Parameters: names, Block: block}, nil
}
