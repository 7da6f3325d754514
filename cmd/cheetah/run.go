package main

import (
	goerrors "errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/deepnoodle-ai/wonton/cli"
	"github.com/deepnoodle-ai/wonton/color"
	"github.com/rs/zerolog"

	"github.com/cheetah-lang/cheetah"
	"github.com/cheetah-lang/cheetah/errors"
)

func runHandler(ctx *cli.Context) error {
	if shouldRunRepl(ctx) {
		return runRepl(ctx.Context())
	}

	path, source, err := readSource(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	code, err := cheetah.Eval(ctx.Context(), source, cheetahOptions(ctx, path)...)
	if err != nil {
		return formatCheetahError(ctx, err)
	}
	if ctx.Bool("timing") {
		fmt.Fprintf(os.Stderr, "%v\n", time.Since(start))
	}
	if code != 0 {
		os.Exit(int(code))
	}
	return nil
}

func replHandler(ctx *cli.Context) error {
	return runRepl(ctx.Context())
}

func versionHandler(ctx *cli.Context) error {
	fmt.Println(version)
	return nil
}

func shouldRunRepl(ctx *cli.Context) bool {
	if ctx.Bool("no-repl") {
		return false
	}
	if ctx.Arg(0) != "" {
		return false
	}
	return ctx.Interactive() && isTerminalIO()
}

// normalizePath appends the .ch extension when the argument lacks it.
func normalizePath(path string) string {
	if !strings.HasSuffix(path, ".ch") {
		return path + ".ch"
	}
	return path
}

// readSource loads the file named by the first argument, normalizing its
// extension first.
func readSource(ctx *cli.Context) (string, string, error) {
	arg := ctx.Arg(0)
	if arg == "" {
		return "", "", goerrors.New("no input file provided")
	}
	path := normalizePath(arg)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return path, string(data), nil
}

// cheetahOptions translates CLI flags into driver options.
func cheetahOptions(ctx *cli.Context, path string) []cheetah.Option {
	opts := []cheetah.Option{
		cheetah.WithFilename(path),
		cheetah.WithOptLevel(ctx.Int("opt")),
	}
	if ctx.Bool("recursive") {
		opts = append(opts, cheetah.WithRecursiveFrontend())
	}
	if ctx.Bool("verbose") {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Timestamp().Logger()
		opts = append(opts, cheetah.WithLogger(logger))
	}
	return opts
}

// formatCheetahError renders positioned diagnostics with source excerpts
// and color when stderr is a terminal.
func formatCheetahError(ctx *cli.Context, err error) error {
	useColor := !ctx.Bool("no-color") && color.ShouldColorize(os.Stderr)
	formatter := errors.NewFormatter(useColor)

	if multiErr, ok := err.(interface {
		ToFormattedMultiple() []*errors.FormattedError
	}); ok {
		return goerrors.New(formatter.FormatMultiple(multiErr.ToFormattedMultiple()))
	}

	if formattable, ok := err.(errors.FormattableError); ok {
		return goerrors.New(formatter.Format(formattable.ToFormatted()))
	}

	return err
}
