// Package cheetah compiles and runs Cheetah source code.
//
// The pipeline is parse, type check, lower to SSA IR, then either print
// the IR or execute it against the tagged-value runtime. Each stage is
// usable on its own through the subpackages; this package wires them
// together behind a small options-based API:
//
//	result, err := cheetah.Eval(ctx, "x = 1 + 2\nprint(x)")
package cheetah

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/cheetah-lang/cheetah/ast"
	"github.com/cheetah-lang/cheetah/compiler"
	"github.com/cheetah-lang/cheetah/ir"
	"github.com/cheetah-lang/cheetah/ir/interp"
	"github.com/cheetah-lang/cheetah/parser"
	"github.com/cheetah-lang/cheetah/runtime"
	"github.com/cheetah-lang/cheetah/typecheck"
)

// Option configures a Cheetah compilation or execution.
type Option func(*options)

type options struct {
	filename  string
	optLevel  int
	logger    zerolog.Logger
	recursive bool
	stdout    io.Writer
	externs   map[string]func(args []any) any
}

func collectOptions(opts ...Option) *options {
	o := &options{
		optLevel: compiler.OptParallel,
		logger:   zerolog.Nop(),
		externs:  map[string]func(args []any) any{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithFilename sets the filename recorded in the module and used in
// error messages.
func WithFilename(filename string) Option {
	return func(o *options) {
		o.filename = filename
	}
}

// WithOptLevel sets the loop optimizer level, one of compiler.OptNone
// through compiler.OptParallel. The default is OptParallel.
func WithOptLevel(level int) Option {
	return func(o *options) {
		o.optLevel = level
	}
}

// WithLogger supplies the logger used by the compiler and the execution
// engine. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRecursiveFrontend selects the recursive statement-lowering
// frontend instead of the default work-stack one. Both emit identical
// IR; the work-stack frontend survives deeper nesting.
func WithRecursiveFrontend() Option {
	return func(o *options) {
		o.recursive = true
	}
}

// WithStdout redirects print output for the duration of a Run or Eval
// call. Print output is process-wide, so concurrent runs with different
// writers interleave.
func WithStdout(w io.Writer) Option {
	return func(o *options) {
		o.stdout = w
	}
}

// WithExtern makes a host function callable from compiled code under the
// given symbol name. This option is additive. Names shadow the built-in
// runtime symbols, so existing symbols can be replaced for testing.
func WithExtern(name string, fn func(args []any) any) Option {
	return func(o *options) {
		o.externs[name] = fn
	}
}

// Parse parses source text into a module without checking or lowering
// it.
func Parse(ctx context.Context, source string, opts ...Option) (*ast.Module, error) {
	o := collectOptions(opts...)
	var parserOpts []parser.Option
	if o.filename != "" {
		parserOpts = append(parserOpts, parser.WithFilename(o.filename))
	}
	return parser.Parse(ctx, source, parserOpts...)
}

// Check parses and type checks source text, returning the inferred
// environment.
func Check(ctx context.Context, source string, opts ...Option) (*typecheck.Env, error) {
	module, err := Parse(ctx, source, opts...)
	if err != nil {
		return nil, err
	}
	return typecheck.Check(module)
}

// Compile parses, checks, and lowers source text to an IR module. The
// returned module is immutable once compilation succeeds and may be
// executed concurrently.
func Compile(ctx context.Context, source string, opts ...Option) (*ir.Module, error) {
	o := collectOptions(opts...)

	module, err := Parse(ctx, source, opts...)
	if err != nil {
		return nil, err
	}
	env, err := typecheck.Check(module)
	if err != nil {
		return nil, err
	}
	return compiler.Compile(module, env, compiler.Options{
		Filename:  o.filename,
		Logger:    o.logger,
		OptLevel:  o.optLevel,
		Recursive: o.recursive,
	})
}

// Run executes a compiled module's main function and returns its exit
// value. Print output is flushed before Run returns.
func Run(ctx context.Context, mod *ir.Module, opts ...Option) (int64, error) {
	o := collectOptions(opts...)
	if o.stdout != nil {
		runtime.SetOutput(o.stdout)
	}
	defer runtime.Flush()

	eng := interp.New(mod, o.logger)
	eng.RegisterAll(runtime.Symbols())
	for name, fn := range o.externs {
		eng.Register(name, fn)
	}
	result, err := eng.Run(ctx, "main")
	if err != nil {
		return 1, err
	}
	code, _ := result.(int64)
	return code, nil
}

// Eval compiles and runs source code. It is equivalent to Compile
// followed by Run.
func Eval(ctx context.Context, source string, opts ...Option) (int64, error) {
	mod, err := Compile(ctx, source, opts...)
	if err != nil {
		return 1, err
	}
	return Run(ctx, mod, opts...)
}
