package ir

import (
	"fmt"
	"os"
	"strings"
)

// Module is a compilation unit: an ordered list of globals and functions.
// Ordering is insertion order so that printing and execution are
// deterministic for a given build sequence.
type Module struct {
	Name    string
	Globals []*Global
	Funcs   []*Function

	globalIndex map[string]*Global
	funcIndex   map[string]*Function
}

func NewModule(name string) *Module {
	return &Module{
		Name:        name,
		globalIndex: map[string]*Global{},
		funcIndex:   map[string]*Function{},
	}
}

// NewGlobal adds a zero-initialized module-level cell.
func (m *Module) NewGlobal(name string, typ *Type) *Global {
	if g, ok := m.globalIndex[name]; ok {
		return g
	}
	g := &Global{Name: name, Typ: typ}
	m.Globals = append(m.Globals, g)
	m.globalIndex[name] = g
	return g
}

// Global looks up a module-level cell by name.
func (m *Module) Global(name string) (*Global, bool) {
	g, ok := m.globalIndex[name]
	return g, ok
}

// NewFunction adds a function with a body to be filled in by the builder.
func (m *Module) NewFunction(name string, sig *Signature, paramNames ...string) *Function {
	fn := &Function{Name: name, Sig: sig, module: m}
	for i, pt := range sig.Params {
		pname := fmt.Sprintf("arg%d", i)
		if i < len(paramNames) && paramNames[i] != "" {
			pname = paramNames[i]
		}
		fn.Params = append(fn.Params, &Param{Name: pname, Typ: pt, Index: i})
	}
	m.Funcs = append(m.Funcs, fn)
	m.funcIndex[name] = fn
	return fn
}

// Declare registers an external function resolved at execution time by
// name. Declaring the same name twice returns the first declaration.
func (m *Module) Declare(name string, sig *Signature) *Function {
	if fn, ok := m.funcIndex[name]; ok {
		return fn
	}
	fn := &Function{Name: name, Sig: sig, Extern: true, module: m}
	m.Funcs = append(m.Funcs, fn)
	m.funcIndex[name] = fn
	return fn
}

// Func looks up a function by name.
func (m *Module) Func(name string) (*Function, bool) {
	fn, ok := m.funcIndex[name]
	return fn, ok
}

func (m *Module) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "; module %s\n", m.Name)
	for _, g := range m.Globals {
		b.WriteString(g.String())
		b.WriteByte('\n')
	}
	if len(m.Globals) > 0 {
		b.WriteByte('\n')
	}
	for _, fn := range m.Funcs {
		b.WriteString(fn.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteFile writes the module's textual form to path.
func (m *Module) WriteFile(path string) error {
	return os.WriteFile(path, []byte(m.String()), 0o644)
}

// Function is a named body of basic blocks, or an external declaration.
type Function struct {
	Name   string
	Sig    *Signature
	Params []*Param
	Blocks []*Block
	Extern bool

	module  *Module
	counter int
}

func (f *Function) Type() *Type   { return FuncType(f.Sig) }
func (f *Function) Ident() string { return "@" + f.Name }

// Module is the module the function belongs to.
func (f *Function) Module() *Module { return f.module }

// Entry is the function's first block.
func (f *Function) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// NewBlock appends a basic block. Block names are made unique within the
// function by a numeric suffix when they collide.
func (f *Function) NewBlock(name string) *Block {
	for _, b := range f.Blocks {
		if b.Name == name {
			name = fmt.Sprintf("%s.%d", name, f.nextID())
			break
		}
	}
	blk := &Block{Name: name, fn: f}
	f.Blocks = append(f.Blocks, blk)
	return blk
}

// Block finds a block by name.
func (f *Function) Block(name string) (*Block, bool) {
	for _, b := range f.Blocks {
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}

func (f *Function) nextID() int {
	f.counter++
	return f.counter
}

func (f *Function) String() string {
	var b strings.Builder
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = fmt.Sprintf("%s %%%s", p.Typ, p.Name)
	}
	if f.Extern {
		fmt.Fprintf(&b, "declare %s @%s(%s)\n", f.Sig.Return, f.Name, strings.Join(params, ", "))
		return b.String()
	}
	fmt.Fprintf(&b, "define %s @%s(%s) {\n", f.Sig.Return, f.Name, strings.Join(params, ", "))
	for _, blk := range f.Blocks {
		fmt.Fprintf(&b, "%s:\n", blk.Name)
		for _, in := range blk.Instrs {
			fmt.Fprintf(&b, "  %s\n", in)
		}
	}
	b.WriteString("}\n")
	return b.String()
}

// Block is a basic block: a straight-line instruction sequence ending in
// at most one terminator.
type Block struct {
	Name   string
	Instrs []*Instr

	fn *Function
}

// Parent is the function the block belongs to.
func (b *Block) Parent() *Function { return b.fn }

// Terminator returns the block's terminating instruction, or nil if the
// block is still open.
func (b *Block) Terminator() *Instr {
	if len(b.Instrs) == 0 {
		return nil
	}
	if last := b.Instrs[len(b.Instrs)-1]; last.IsTerminator() {
		return last
	}
	return nil
}

// Terminated reports whether the block already ends in a terminator.
func (b *Block) Terminated() bool { return b.Terminator() != nil }
