package ast

import "encoding/json"

// Object is the JSON-ready form of a node.
type Object map[string]any

// MarshalNode encodes a node tree as JSON objects tagged with a "type" field.
func MarshalNode(n Node) ([]byte, error) {
	return json.Marshal(Encode(n))
}

// Encode converts a node tree into nested Objects, mirroring the node
// structs field for field. Absent optional children are omitted.
func Encode(n Node) any {
	if isNil(n) {
		return nil
	}
	o := Object{"ctx": encodeCtx(n.Span())}
	switch n := n.(type) {
	case *Block:
		o["type"] = "Block"
		stmts := make([]any, len(n.Statements))
		for i, s := range n.Statements {
			stmts[i] = Encode(s)
		}
		o["statements"] = stmts
	case *Semicolon:
		o["type"] = "Semicolon"
	case *Label:
		o["type"] = "Label"
		o["name"] = n.Name
	case *Break:
		o["type"] = "Break"
	case *Goto:
		o["type"] = "Goto"
		o["name"] = n.Name
	case *While:
		o["type"] = "While"
		o["condition"] = Encode(n.Condition)
		o["block"] = Encode(n.Block)
	case *Repeat:
		o["type"] = "Repeat"
		o["block"] = Encode(n.Block)
		o["condition"] = Encode(n.Condition)
	case *If:
		o["type"] = "If"
		conds := make([]any, len(n.Conditions))
		for i, c := range n.Conditions {
			conds[i] = Encode(c)
		}
		o["conditions"] = conds
		if n.ElseBlock != nil {
			o["elseBlock"] = Encode(n.ElseBlock)
		}
	case *IfClause:
		o["type"] = "IfClause"
		o["condition"] = Encode(n.Condition)
		o["block"] = Encode(n.Block)
	case *For:
		o["type"] = "For"
		o["name"] = n.Name
		o["start"] = Encode(n.Start)
		o["end"] = Encode(n.End)
		if n.Step != nil {
			o["step"] = Encode(n.Step)
		}
		o["block"] = Encode(n.Block)
	case *ForIn:
		o["type"] = "ForIn"
		o["names"] = n.Names
		o["expressions"] = encodeExprs(n.Expressions)
		o["block"] = Encode(n.Block)
	case *Function:
		o["type"] = "Function"
		o["name"] = Encode(n.Name)
		o["body"] = Encode(n.Body)
	case *LocalFunction:
		o["type"] = "LocalFunction"
		o["name"] = n.Name
		o["body"] = Encode(n.Body)
	case *FunctionCallStatement:
		o["type"] = "FunctionCallStatement"
		o["call"] = Encode(n.Call)
	case *Assignment:
		o["type"] = "Assignment"
		vars := make([]any, len(n.Variables))
		for i, v := range n.Variables {
			vars[i] = Encode(v)
		}
		o["variables"] = vars
		o["expressions"] = encodeExprs(n.Expressions)
	case *Local:
		o["type"] = "Local"
		names := make([]any, len(n.Names))
		for i, a := range n.Names {
			names[i] = Encode(a)
		}
		o["names"] = names
		o["expressions"] = encodeExprs(n.Expressions)
	case *Return:
		o["type"] = "Return"
		o["expressions"] = encodeExprs(n.Expressions)
	case *String:
		o["type"] = "String"
		o["value"] = n.Value
	case *Number:
		o["type"] = "Number"
		o["value"] = n.Value
	case *Boolean:
		o["type"] = "Boolean"
		o["value"] = n.Value
	case *Nil:
		o["type"] = "Nil"
	case *Variable:
		o["type"] = "Variable"
		o["name"] = n.Name
	case *Binary:
		o["type"] = "Binary"
		o["operator"] = n.Operator
		o["left"] = Encode(n.Left)
		o["right"] = Encode(n.Right)
	case *Unary:
		o["type"] = "Unary"
		o["operator"] = n.Operator
		o["argument"] = Encode(n.Argument)
	case *PropertyAccess:
		o["type"] = "PropertyAccess"
		o["object"] = Encode(n.Object)
		o["property"] = n.Property
	case *TableAccess:
		o["type"] = "TableAccess"
		o["object"] = Encode(n.Object)
		o["key"] = Encode(n.Key)
	case *Parenthesized:
		o["type"] = "Parenthesized"
		o["expression"] = Encode(n.Expression)
	case *FunctionCall:
		o["type"] = "FunctionCall"
		o["prefix"] = Encode(n.Prefix)
		if n.Name != "" {
			o["name"] = n.Name
		}
		o["args"] = encodeExprs(n.Args)
	case *FunctionDefinition:
		o["type"] = "FunctionDefinition"
		o["body"] = Encode(n.Body)
	case *TableConstructor:
		o["type"] = "TableConstructor"
		fields := make([]any, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = Encode(f)
		}
		o["fields"] = fields
	case *ExpressionField:
		o["type"] = "ExpressionField"
		o["value"] = Encode(n.Value)
	case *PropField:
		o["type"] = "PropField"
		o["key"] = n.Key
		o["value"] = Encode(n.Value)
	case *DynamicField:
		o["type"] = "DynamicField"
		o["key"] = Encode(n.Key)
		o["value"] = Encode(n.Value)
	case *FunctionName:
		o["type"] = "FunctionName"
		o["propNames"] = n.PropNames
		if n.ColonName != "" {
			o["colonName"] = n.ColonName
		}
	case *FunctionBody:
		o["type"] = "FunctionBody"
		o["parameters"] = n.Parameters
		o["block"] = Encode(n.Block)
	case *AttName:
		o["type"] = "AttName"
		o["name"] = n.Name
		if n.Attribute != "" {
			o["attribute"] = n.Attribute
		}
	}
	return o
}

func encodeExprs(es []Expression) []any {
	out := make([]any, len(es))
	for i, e := range es {
		out[i] = Encode(e)
	}
	return out
}

func encodeCtx(c Ctx) Object {
	o := Object{"from": c.From, "to": c.To}
	for _, k := range c.Context.Keys() {
		if k == "from" || k == "to" {
			continue
		}
		v, _ := c.Context.Get(k)
		o[k] = v
	}
	return o
}
