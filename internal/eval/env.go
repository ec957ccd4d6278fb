package eval

import (
	"fmt"
	"maps"
	"slices"

	"github.com/leapstack-labs/spacelua/pkg/ast"
)

type variable struct {
	value    Value
	constant bool
}

// Env is a lexical scope. Lookups walk outward through parents; the
// outermost Env holds the globals.
type Env struct {
	parent *Env
	vars   map[string]*variable
}

// NewEnv creates a scope nested in parent, which may be nil.
func NewEnv(parent *Env) *Env {
	return &Env{parent: parent, vars: make(map[string]*variable)}
}

// Parent returns the enclosing scope.
func (e *Env) Parent() *Env {
	return e.parent
}

// Root returns the global scope.
func (e *Env) Root() *Env {
	for e.parent != nil {
		e = e.parent
	}
	return e
}

// Define declares name in this scope, shadowing outer declarations.
func (e *Env) Define(name string, v Value) {
	e.vars[name] = &variable{value: v}
}

func (e *Env) defineConst(name string, v Value) {
	e.vars[name] = &variable{value: v, constant: true}
}

func (e *Env) lookup(name string) *variable {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v
		}
	}
	return nil
}

// Get returns the value of the nearest declaration of name.
func (e *Env) Get(name string) (Value, bool) {
	v := e.lookup(name)
	if v == nil {
		return nil, false
	}
	if _, ok := v.value.(*varargs); ok {
		return nil, false
	}
	return v.value, true
}

// Assign updates the nearest declaration of name, or sets a global when
// there is none.
func (e *Env) Assign(name string, v Value) error {
	if found := e.lookup(name); found != nil {
		if found.constant {
			return fmt.Errorf("attempt to assign to const variable '%s'", name)
		}
		found.value = v
		return nil
	}
	e.Root().Define(name, v)
	return nil
}

// Names returns every visible name in sorted order.
func (e *Env) Names() []string {
	seen := map[string]bool{}
	for s := e; s != nil; s = s.parent {
		for name, v := range s.vars {
			if _, ok := v.value.(*varargs); !ok {
				seen[name] = true
			}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

func (e *Env) varargs() ([]Value, bool) {
	v := e.lookup("...")
	if v == nil {
		return nil, false
	}
	va, ok := v.value.(*varargs)
	if !ok || va == nil {
		return nil, false
	}
	return va.values, true
}

// CallFrame records the call site of an active function call. Frames link
// to their caller so errors can carry a traceback.
type CallFrame struct {
	Ctx    ast.Ctx
	Parent *CallFrame

	depth  int
	budget *budget
}

type budget struct {
	steps int
	max   int
}

// Traceback returns the call sites from the innermost frame outward.
func (f *CallFrame) Traceback() []ast.Ctx {
	var out []ast.Ctx
	for ; f != nil; f = f.Parent {
		out = append(out, f.Ctx)
	}
	return out
}

// Steps returns the number of steps taken by the evaluation that owns the
// frame.
func (f *CallFrame) Steps() int {
	if f == nil || f.budget == nil {
		return 0
	}
	return f.budget.steps
}
