package ast

// Inspect traverses the tree rooted at n in depth-first source order,
// calling f for each node. If f returns false, the node's children are
// skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// Children returns the direct child nodes of n in source order.
func Children(n Node) []Node {
	var out []Node
	add := func(ns ...Node) {
		for _, c := range ns {
			if !isNil(c) {
				out = append(out, c)
			}
		}
	}
	addExprs := func(es []Expression) {
		for _, e := range es {
			add(e)
		}
	}

	switch n := n.(type) {
	case *Block:
		for _, s := range n.Statements {
			add(s)
		}
	case *While:
		add(n.Condition, n.Block)
	case *Repeat:
		add(n.Block, n.Condition)
	case *If:
		for _, c := range n.Conditions {
			add(c)
		}
		add(n.ElseBlock)
	case *IfClause:
		add(n.Condition, n.Block)
	case *For:
		add(n.Start, n.End, n.Step, n.Block)
	case *ForIn:
		addExprs(n.Expressions)
		add(n.Block)
	case *Function:
		add(n.Name, n.Body)
	case *LocalFunction:
		add(n.Body)
	case *FunctionCallStatement:
		add(n.Call)
	case *Assignment:
		for _, v := range n.Variables {
			add(v)
		}
		addExprs(n.Expressions)
	case *Local:
		for _, a := range n.Names {
			add(a)
		}
		addExprs(n.Expressions)
	case *Return:
		addExprs(n.Expressions)
	case *Binary:
		add(n.Left, n.Right)
	case *Unary:
		add(n.Argument)
	case *PropertyAccess:
		add(n.Object)
	case *TableAccess:
		add(n.Object, n.Key)
	case *Parenthesized:
		add(n.Expression)
	case *FunctionCall:
		add(n.Prefix)
		addExprs(n.Args)
	case *FunctionDefinition:
		add(n.Body)
	case *TableConstructor:
		for _, f := range n.Fields {
			add(f)
		}
	case *ExpressionField:
		add(n.Value)
	case *PropField:
		add(n.Value)
	case *DynamicField:
		add(n.Key, n.Value)
	case *FunctionBody:
		add(n.Block)
	}
	return out
}

// isNil catches typed nil pointers stored in interfaces (an absent Step or
// ElseBlock).
func isNil(n Node) bool {
	switch v := n.(type) {
	case nil:
		return true
	case *Block:
		return v == nil
	case *FunctionName:
		return v == nil
	case *FunctionBody:
		return v == nil
	case *FunctionCall:
		return v == nil
	}
	return false
}
