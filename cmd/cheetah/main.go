package main

import (
	"os"

	"github.com/deepnoodle-ai/wonton/cli"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	app := cli.New("cheetah").
		Description("Compiler and runtime for the Cheetah language").
		Version(version).
		AddCompletionCommand()

	// Global flags
	app.GlobalFlags(
		cli.Bool("no-color", "").Env("NO_COLOR").Help("Disable colored output"),
		cli.Bool("verbose", "").Help("Log compiler activity to stderr"),
	)

	// Root command: runs a file or starts the REPL
	app.Main().
		Args("file?").
		Flags(
			cli.Int("opt", "O").Help("Loop optimizer level (0-3)").Default(3),
			cli.Bool("timing", "").Help("Show execution time"),
			cli.Bool("recursive", "").Help("Use the recursive lowering frontend"),
			cli.Bool("no-repl", "").Help("Disable the REPL"),
		).
		Run(runHandler)

	app.Command("run").
		Description("Compile and run a Cheetah program").
		Args("file").
		Flags(
			cli.Int("opt", "O").Help("Loop optimizer level (0-3)").Default(3),
			cli.Bool("timing", "").Help("Show execution time"),
			cli.Bool("recursive", "").Help("Use the recursive lowering frontend"),
		).
		Run(runHandler)

	app.Command("repl").
		Description("Start an interactive session").
		Run(replHandler)

	app.Command("lex").
		Description("Print the token stream for a source file").
		Args("file").
		Run(lexHandler)

	app.Command("parse").
		Description("Parse a source file and print its syntax tree").
		Args("file").
		Run(parseHandler)

	app.Command("check").
		Description("Type check a source file without running it").
		Args("file").
		Run(checkHandler)

	app.Command("format").
		Alias("fmt").
		Description("Reprint a source file in canonical form").
		Args("file").
		Flags(
			cli.Bool("write", "w").Help("Write result back to the source file"),
		).
		Run(formatHandler)

	app.Command("compile").
		Description("Compile a source file to IR").
		Args("file").
		Flags(
			cli.String("output", "o").Help("Write IR to this path instead of stdout"),
			cli.Int("opt", "O").Help("Loop optimizer level (0-3)").Default(3),
			cli.Bool("object", "").Help("Write an object file next to the source"),
			cli.String("target", "t").Help("Target triple (native only)"),
		).
		Run(compileHandler)

	app.Command("version").
		Description("Print version information").
		Run(versionHandler)

	if err := app.Execute(); err != nil {
		if cli.IsHelpRequested(err) {
			return
		}
		printError(err.Error())
		os.Exit(cli.GetExitCode(err))
	}
}
