package compiler

import (
	"strings"

	"github.com/cheetah-lang/cheetah/ir"
	"github.com/cheetah-lang/cheetah/types"
)

// ScopeID indexes the context's scope arena. Scopes reference their
// parent by ID only; a parent never references its children.
type ScopeID int

type ScopeKind int

const (
	ScopeModule ScopeKind = iota
	ScopeFunction
	ScopeLoop
	ScopeBlock
)

// Scope tracks name bindings for one lexical region. names preserves
// insertion order so traversal is deterministic.
type Scope struct {
	kind   ScopeKind
	parent ScopeID

	names     []string
	vars      map[string]*Slot
	globals   map[string]struct{}
	nonlocals map[string]struct{}
	aliases   map[string]string // source name -> nonlocal alias cell name
}

// Slot is a stable handle to a variable's storage: a stack cell in the
// current function, a captured cell passed in by pointer, or a module
// global.
type Slot struct {
	Name     string
	Type     types.Type
	IRType   *ir.Type
	Ptr      ir.Value
	Global   bool
	Captured bool // read-only view of an outer cell; assignment shadows
}

func (c *Context) pushScopeRaw(kind ScopeKind, parent ScopeID) ScopeID {
	c.scopes = append(c.scopes, &Scope{
		kind:      kind,
		parent:    parent,
		vars:      map[string]*Slot{},
		globals:   map[string]struct{}{},
		nonlocals: map[string]struct{}{},
		aliases:   map[string]string{},
	})
	return ScopeID(len(c.scopes) - 1)
}

func (c *Context) pushScope(kind ScopeKind) ScopeID {
	c.cur = c.pushScopeRaw(kind, c.cur)
	return c.cur
}

// popScope exits a block or loop scope, promoting its bindings to the
// enclosing scope: variables assigned inside an if arm or loop body stay
// visible after it. Names already bound outside are not overwritten.
func (c *Context) popScope() {
	s := c.scopes[c.cur]
	parent := c.scopes[s.parent]
	if s.kind == ScopeBlock || s.kind == ScopeLoop {
		for _, name := range s.names {
			if _, bound := parent.vars[name]; !bound {
				parent.vars[name] = s.vars[name]
				parent.names = append(parent.names, name)
			}
		}
	}
	c.cur = s.parent
}

func (c *Context) scope() *Scope { return c.scopes[c.cur] }

// define binds a fresh slot in the current scope.
func (c *Context) define(name string, slot *Slot) {
	s := c.scope()
	if _, ok := s.vars[name]; !ok {
		s.names = append(s.names, name)
	}
	s.vars[name] = slot
}

// functionScope returns the nearest enclosing function (or module) scope.
func (c *Context) functionScope() *Scope {
	id := c.cur
	for {
		s := c.scopes[id]
		if s.kind == ScopeFunction || s.kind == ScopeModule {
			return s
		}
		id = s.parent
	}
}

// lookup resolves a name for reading: current function scopes innermost
// first (honoring global and nonlocal declarations), then module globals.
func (c *Context) lookup(name string) (*Slot, bool) {
	id := c.cur
	for {
		s := c.scopes[id]
		if _, ok := s.globals[name]; ok {
			return c.moduleSlot(name)
		}
		if alias, ok := s.aliases[name]; ok {
			return c.lookupLocal(alias)
		}
		if slot, ok := s.vars[name]; ok {
			return slot, true
		}
		if s.kind == ScopeFunction || s.kind == ScopeModule {
			break
		}
		id = s.parent
	}
	return c.moduleSlot(name)
}

// lookupLocal resolves within the current function only.
func (c *Context) lookupLocal(name string) (*Slot, bool) {
	id := c.cur
	for {
		s := c.scopes[id]
		if slot, ok := s.vars[name]; ok {
			return slot, true
		}
		if s.kind == ScopeFunction || s.kind == ScopeModule {
			return nil, false
		}
		id = s.parent
	}
}

// moduleSlot resolves a name in the module scope.
func (c *Context) moduleSlot(name string) (*Slot, bool) {
	root := c.scopes[0]
	slot, ok := root.vars[name]
	return slot, ok
}

// declaredGlobal reports whether name is declared global anywhere between
// the current scope and the enclosing function boundary.
func (c *Context) declaredGlobal(name string) bool {
	id := c.cur
	for {
		s := c.scopes[id]
		if _, ok := s.globals[name]; ok {
			return true
		}
		if s.kind == ScopeFunction || s.kind == ScopeModule {
			return false
		}
		id = s.parent
	}
}

// aliasFor returns the nonlocal alias cell name for name, if declared.
func (c *Context) aliasFor(name string) (string, bool) {
	id := c.cur
	for {
		s := c.scopes[id]
		if alias, ok := s.aliases[name]; ok {
			return alias, true
		}
		if s.kind == ScopeFunction || s.kind == ScopeModule {
			return "", false
		}
		id = s.parent
	}
}

// ensureGlobal returns the module-level global cell for name, creating a
// zero-initialized one of the given type on first sight.
func (c *Context) ensureGlobal(name string, t types.Type) *Slot {
	root := c.scopes[0]
	if slot, ok := root.vars[name]; ok {
		return slot
	}
	irt := irTypeOf(t)
	g := c.mod.NewGlobal(name, irt)
	slot := &Slot{Name: name, Type: t, IRType: irt, Ptr: g, Global: true}
	root.vars[name] = slot
	root.names = append(root.names, name)
	return slot
}

// visibleNames collects every identifier resolvable at the current
// lowering position: scope bindings walking outward, then registered
// functions by their unqualified source name. Used for near-miss
// suggestions on unresolved names.
func (c *Context) visibleNames() []string {
	seen := map[string]struct{}{}
	var names []string
	add := func(n string) {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			names = append(names, n)
		}
	}
	id := c.cur
	for {
		s := c.scopes[id]
		for _, n := range s.names {
			add(n)
		}
		if id == 0 {
			break
		}
		id = s.parent
	}
	for qualified := range c.funcs {
		name := qualified
		if idx := strings.LastIndex(qualified, "."); idx >= 0 {
			name = qualified[idx+1:]
		}
		add(name)
	}
	return names
}

// inModuleScope reports whether lowering is positioned at module level.
func (c *Context) inModuleScope() bool {
	return c.functionScope().kind == ScopeModule
}
