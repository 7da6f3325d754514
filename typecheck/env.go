// Package typecheck implements the gradual type inference and checking
// engine. Inference is a pure function over a nested type environment;
// checking walks a module's statements and aggregates every type error
// rather than stopping at the first.
package typecheck

import (
	"github.com/cheetah-lang/cheetah/types"
)

// scope is one level of the environment. Variables, functions, and classes
// live in separate namespaces, looked up in that order.
type scope struct {
	variables map[string]types.Type
	functions map[string]types.Type
	classes   map[string]types.Type
}

func newScope() *scope {
	return &scope{
		variables: map[string]types.Type{},
		functions: map[string]types.Type{},
		classes:   map[string]types.Type{},
	}
}

// Env is a stack of scopes. Name resolution walks from the innermost scope
// outward, trying variables first, then functions, then classes.
type Env struct {
	scopes     []*scope
	returnType types.Type
}

// NewEnv returns an environment containing only the module scope.
func NewEnv() *Env {
	return &Env{scopes: []*scope{newScope()}}
}

// PushScope enters a new innermost scope.
func (e *Env) PushScope() {
	e.scopes = append(e.scopes, newScope())
}

// PopScope leaves the innermost scope. The module scope is never popped.
func (e *Env) PopScope() {
	if len(e.scopes) > 1 {
		e.scopes = e.scopes[:len(e.scopes)-1]
	}
}

func (e *Env) current() *scope {
	return e.scopes[len(e.scopes)-1]
}

// SetReturnType records the declared return type of the function whose body
// is currently being checked.
func (e *Env) SetReturnType(t types.Type) { e.returnType = t }

// ReturnType returns the declared return type of the enclosing function, or
// nil at module level.
func (e *Env) ReturnType() types.Type { return e.returnType }

// DefineVariable binds a variable in the innermost scope.
func (e *Env) DefineVariable(name string, t types.Type) {
	e.current().variables[name] = t
}

// DefineFunction binds a function in the innermost scope.
func (e *Env) DefineFunction(name string, t types.Type) {
	e.current().functions[name] = t
}

// DefineClass binds a class in the innermost scope.
func (e *Env) DefineClass(name string, t types.Type) {
	e.current().classes[name] = t
}

// LookupVariable resolves a variable, walking outward.
func (e *Env) LookupVariable(name string) (types.Type, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if t, ok := e.scopes[i].variables[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// LookupFunction resolves a function, walking outward.
func (e *Env) LookupFunction(name string) (types.Type, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if t, ok := e.scopes[i].functions[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// LookupClass resolves a class, walking outward.
func (e *Env) LookupClass(name string) (types.Type, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if t, ok := e.scopes[i].classes[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// Lookup resolves a name of any kind: variables first, then functions,
// then classes, each walking outward.
func (e *Env) Lookup(name string) (types.Type, bool) {
	if t, ok := e.LookupVariable(name); ok {
		return t, true
	}
	if t, ok := e.LookupFunction(name); ok {
		return t, true
	}
	return e.LookupClass(name)
}

// VisibleNames lists every name bound in any live scope, across all three
// namespaces. Used for near-miss suggestions on unresolved names.
func (e *Env) VisibleNames() []string {
	seen := map[string]struct{}{}
	var names []string
	for i := len(e.scopes) - 1; i >= 0; i-- {
		s := e.scopes[i]
		for _, ns := range []map[string]types.Type{s.variables, s.functions, s.classes} {
			for n := range ns {
				if _, ok := seen[n]; !ok {
					seen[n] = struct{}{}
					names = append(names, n)
				}
			}
		}
	}
	return names
}

// SetVariableType updates an existing binding wherever it is defined,
// creating it in the innermost scope if absent.
func (e *Env) SetVariableType(name string, t types.Type) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if _, ok := e.scopes[i].variables[name]; ok {
			e.scopes[i].variables[name] = t
			return
		}
	}
	e.DefineVariable(name, t)
}

// UpdateFunction replaces a function binding wherever it is defined. Used
// by call-site parameter refinement.
func (e *Env) UpdateFunction(name string, t types.Type) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if _, ok := e.scopes[i].functions[name]; ok {
			e.scopes[i].functions[name] = t
			return
		}
	}
	e.DefineFunction(name, t)
}
