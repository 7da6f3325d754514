package main

import (
	"fmt"
	"os"

	"github.com/deepnoodle-ai/wonton/cli"

	"github.com/cheetah-lang/cheetah/formatter"
	"github.com/cheetah-lang/cheetah/parser"
)

func formatHandler(ctx *cli.Context) error {
	path, source, err := readSource(ctx)
	if err != nil {
		return err
	}

	module, err := parser.Parse(ctx.Context(), source, parser.WithFilename(path))
	if err != nil {
		return formatCheetahError(ctx, err)
	}

	formatted := formatter.Format(module)

	if ctx.Bool("write") {
		return os.WriteFile(path, []byte(formatted), 0o644)
	}
	fmt.Print(formatted)
	return nil
}
