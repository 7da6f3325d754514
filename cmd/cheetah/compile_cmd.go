package main

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/wonton/cli"

	"github.com/cheetah-lang/cheetah"
	"github.com/cheetah-lang/cheetah/compiler"
)

func compileHandler(ctx *cli.Context) error {
	if target := ctx.String("target"); target != "" && target != "native" {
		return fmt.Errorf("unsupported target %q (only native is available)", target)
	}

	level := ctx.Int("opt")
	if level < compiler.OptNone || level > compiler.OptParallel {
		return fmt.Errorf("optimizer level must be between %d and %d", compiler.OptNone, compiler.OptParallel)
	}

	path, source, err := readSource(ctx)
	if err != nil {
		return err
	}

	mod, err := cheetah.Compile(ctx.Context(), source, cheetahOptions(ctx, path)...)
	if err != nil {
		return formatCheetahError(ctx, err)
	}

	if output := ctx.String("output"); output != "" {
		return mod.WriteFile(output)
	}
	if ctx.Bool("object") {
		return mod.WriteFile(objectPath(path))
	}
	fmt.Print(mod.String())
	return nil
}

// objectPath swaps the .ch extension for .o.
func objectPath(path string) string {
	return strings.TrimSuffix(path, ".ch") + ".o"
}
