package ast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextIsImmutable(t *testing.T) {
	fields := map[string]any{"page": "index"}
	c := NewContext(fields)
	fields["page"] = "mutated"

	assert.Equal(t, "index", c.Text("page"))

	d := c.With("line", 3)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, []string{"line", "page"}, d.Keys())

	_, ok := c.Get("line")
	assert.False(t, ok)
}

func TestCtxSlice(t *testing.T) {
	src := "x = 1"
	assert.Equal(t, "x", Ctx{From: 0, To: 1}.Slice(src))
	assert.Equal(t, "", Ctx{From: 3, To: 10}.Slice(src))
}

// x = a.b(1)
func sampleBlock() *Block {
	call := &FunctionCall{
		Ctx: Ctx{From: 4, To: 10},
		Prefix: &PropertyAccess{
			Ctx:      Ctx{From: 4, To: 7},
			Object:   &Variable{Ctx: Ctx{From: 4, To: 5}, Name: "a"},
			Property: "b",
		},
		Args: []Expression{&Number{Ctx: Ctx{From: 8, To: 9}, Value: 1}},
	}
	return &Block{
		Ctx: Ctx{From: 0, To: 10},
		Statements: []Statement{
			&Assignment{
				Ctx:         Ctx{From: 0, To: 10},
				Variables:   []LValue{&Variable{Ctx: Ctx{From: 0, To: 1}, Name: "x"}},
				Expressions: []Expression{call},
			},
		},
	}
}

func TestInspectOrder(t *testing.T) {
	var kinds []string
	Inspect(sampleBlock(), func(n Node) bool {
		switch n := n.(type) {
		case *Variable:
			kinds = append(kinds, "var:"+n.Name)
		case *Number:
			kinds = append(kinds, "num")
		case *FunctionCall:
			kinds = append(kinds, "call")
		case *PropertyAccess:
			kinds = append(kinds, "prop:"+n.Property)
		}
		return true
	})
	assert.Equal(t, []string{"var:x", "call", "prop:b", "var:a", "num"}, kinds)
}

func TestInspectSkipsOptionalChildren(t *testing.T) {
	loop := &For{
		Name:  "i",
		Start: &Number{Value: 1},
		End:   &Number{Value: 2},
		Block: &Block{},
	}
	var count int
	Inspect(loop, func(Node) bool {
		count++
		return true
	})
	assert.Equal(t, 4, count, "For, Start, End, Block; no nil Step")

	ifStmt := &If{Conditions: []*IfClause{{Condition: &Boolean{Value: true}, Block: &Block{}}}}
	assert.Len(t, Children(ifStmt), 1)
}

func TestEncode(t *testing.T) {
	ctx := NewContext(map[string]any{"ref": "page"})
	v := &Variable{Ctx: Ctx{From: 0, To: 1, Context: ctx}, Name: "x"}

	data, err := MarshalNode(v)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Variable", got["type"])
	assert.Equal(t, "x", got["name"])
	assert.Equal(t, map[string]any{"from": 0.0, "to": 1.0, "ref": "page"}, got["ctx"])
}

func TestEncodeOmitsAbsentParts(t *testing.T) {
	call := &FunctionCall{Prefix: &Variable{Name: "f"}}
	o := Encode(call).(Object)
	_, hasName := o["name"]
	assert.False(t, hasName)

	body := &FunctionBody{Parameters: []string{"a", "..."}, Block: &Block{}}
	assert.True(t, body.IsVararg())
}
