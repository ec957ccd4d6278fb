// Package ast defines the typed syntax tree produced by lowering a space-lua
// CST. Nodes are immutable after construction and own their children.
package ast

// Node is implemented by every AST node.
type Node interface {
	Span() Ctx
}

// Statement is a statement node. Block is a statement (do ... end).
type Statement interface {
	Node
	stmtNode()
}

// Expression is an expression node.
type Expression interface {
	Node
	exprNode()
}

// LValue is an expression usable as an assignment target:
// Variable, PropertyAccess or TableAccess.
type LValue interface {
	Expression
	lvalueNode()
}

// PrefixExpression is an expression that can be indexed or called:
// Variable, PropertyAccess, TableAccess, Parenthesized or FunctionCall.
type PrefixExpression interface {
	Expression
	prefixNode()
}

// TableField is a table constructor entry.
type TableField interface {
	Node
	fieldNode()
}

// ---------- Blocks and statements ----------

// Block is an ordered statement list forming a scope body.
type Block struct {
	Ctx
	Statements []Statement
}

// Semicolon is an empty statement.
type Semicolon struct {
	Ctx
}

// Label marks a goto target (::name::).
type Label struct {
	Ctx
	Name string
}

// Break exits the innermost loop.
type Break struct {
	Ctx
}

// Goto jumps to a visible label.
type Goto struct {
	Ctx
	Name string
}

// While is while Condition do Block end.
type While struct {
	Ctx
	Condition Expression
	Block     *Block
}

// Repeat is repeat Block until Condition. The condition sees the block's locals.
type Repeat struct {
	Ctx
	Block     *Block
	Condition Expression
}

// IfClause is one if/elseif arm. Its span covers the clause keyword.
type IfClause struct {
	Ctx
	Condition Expression
	Block     *Block
}

// If holds the if/elseif arms in source order and an optional else block.
type If struct {
	Ctx
	Conditions []*IfClause
	ElseBlock  *Block
}

// For is the numeric for loop. Step is nil when omitted.
type For struct {
	Ctx
	Name  string
	Start Expression
	End   Expression
	Step  Expression
	Block *Block
}

// ForIn is the generic for loop.
type ForIn struct {
	Ctx
	Names       []string
	Expressions []Expression
	Block       *Block
}

// Function is a global (or field) function declaration.
type Function struct {
	Ctx
	Name *FunctionName
	Body *FunctionBody
}

// LocalFunction is local function Name Body.
type LocalFunction struct {
	Ctx
	Name string
	Body *FunctionBody
}

// FunctionCallStatement is a call evaluated for its effects.
type FunctionCallStatement struct {
	Ctx
	Call *FunctionCall
}

// Assignment assigns Expressions to Variables. The lists may differ in length.
type Assignment struct {
	Ctx
	Variables   []LValue
	Expressions []Expression
}

// Local declares local names with optional initializers.
type Local struct {
	Ctx
	Names       []*AttName
	Expressions []Expression
}

// Return returns zero or more values.
type Return struct {
	Ctx
	Expressions []Expression
}

// ---------- Expressions ----------

// String is a string literal with its delimiters removed. Escapes are not decoded.
type String struct {
	Ctx
	Value string
}

// Number is a numeric literal.
type Number struct {
	Ctx
	Value float64
}

// Boolean is true or false.
type Boolean struct {
	Ctx
	Value bool
}

// Nil is the nil literal.
type Nil struct {
	Ctx
}

// Variable is a name reference. The vararg expression is a Variable named "...".
type Variable struct {
	Ctx
	Name string
}

// Binary is a binary operation. Nesting encodes precedence.
type Binary struct {
	Ctx
	Operator string
	Left     Expression
	Right    Expression
}

// Unary is a unary operation.
type Unary struct {
	Ctx
	Operator string
	Argument Expression
}

// PropertyAccess is Object.Property.
type PropertyAccess struct {
	Ctx
	Object   PrefixExpression
	Property string
}

// TableAccess is Object[Key].
type TableAccess struct {
	Ctx
	Object PrefixExpression
	Key    Expression
}

// Parenthesized is (Expression). It truncates multiple results to one.
type Parenthesized struct {
	Ctx
	Expression Expression
}

// FunctionCall calls Prefix, or invokes method Name on Prefix when Name is set.
type FunctionCall struct {
	Ctx
	Prefix PrefixExpression
	Name   string
	Args   []Expression
}

// FunctionDefinition is an anonymous function.
type FunctionDefinition struct {
	Ctx
	Body *FunctionBody
}

// TableConstructor is {fields}.
type TableConstructor struct {
	Ctx
	Fields []TableField
}

// ---------- Table fields ----------

// ExpressionField is a positional field.
type ExpressionField struct {
	Ctx
	Value Expression
}

// PropField is name = value.
type PropField struct {
	Ctx
	Key   string
	Value Expression
}

// DynamicField is [key] = value.
type DynamicField struct {
	Ctx
	Key   Expression
	Value Expression
}

// ---------- Function parts ----------

// FunctionName is a.b.c or a.b:c in a function declaration.
type FunctionName struct {
	Ctx
	PropNames []string
	ColonName string
}

// FunctionBody holds the parameter names ("..." for varargs) and body.
type FunctionBody struct {
	Ctx
	Parameters []string
	Block      *Block
}

// IsVararg reports whether the last parameter is "...".
func (b *FunctionBody) IsVararg() bool {
	return len(b.Parameters) > 0 && b.Parameters[len(b.Parameters)-1] == "..."
}

// AttName is a local name with an optional attribute (const, close).
type AttName struct {
	Ctx
	Name      string
	Attribute string
}

// Marker methods.

func (*Block) stmtNode()                 {}
func (*Semicolon) stmtNode()             {}
func (*Label) stmtNode()                 {}
func (*Break) stmtNode()                 {}
func (*Goto) stmtNode()                  {}
func (*While) stmtNode()                 {}
func (*Repeat) stmtNode()                {}
func (*If) stmtNode()                    {}
func (*For) stmtNode()                   {}
func (*ForIn) stmtNode()                 {}
func (*Function) stmtNode()              {}
func (*LocalFunction) stmtNode()         {}
func (*FunctionCallStatement) stmtNode() {}
func (*Assignment) stmtNode()            {}
func (*Local) stmtNode()                 {}
func (*Return) stmtNode()                {}

func (*String) exprNode()             {}
func (*Number) exprNode()             {}
func (*Boolean) exprNode()            {}
func (*Nil) exprNode()                {}
func (*Variable) exprNode()           {}
func (*Binary) exprNode()             {}
func (*Unary) exprNode()              {}
func (*PropertyAccess) exprNode()     {}
func (*TableAccess) exprNode()        {}
func (*Parenthesized) exprNode()      {}
func (*FunctionCall) exprNode()       {}
func (*FunctionDefinition) exprNode() {}
func (*TableConstructor) exprNode()   {}

func (*Variable) lvalueNode()       {}
func (*PropertyAccess) lvalueNode() {}
func (*TableAccess) lvalueNode()    {}

func (*Variable) prefixNode()       {}
func (*PropertyAccess) prefixNode() {}
func (*TableAccess) prefixNode()    {}
func (*Parenthesized) prefixNode()  {}
func (*FunctionCall) prefixNode()   {}

func (*ExpressionField) fieldNode() {}
func (*PropField) fieldNode()       {}
func (*DynamicField) fieldNode()    {}
