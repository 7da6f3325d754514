package main

import (
	"fmt"

	"github.com/deepnoodle-ai/wonton/cli"

	"github.com/cheetah-lang/cheetah"
	"github.com/cheetah-lang/cheetah/internal/lexer"
	"github.com/cheetah-lang/cheetah/parser"
	"github.com/cheetah-lang/cheetah/token"
)

// lexHandler prints one token per line: position, type, literal.
func lexHandler(ctx *cli.Context) error {
	path, source, err := readSource(ctx)
	if err != nil {
		return err
	}
	l := lexer.New(source)
	l.SetFilename(path)
	for {
		tok, err := l.Next()
		if err != nil {
			return formatCheetahError(ctx, err)
		}
		pos := tok.StartPosition
		fmt.Printf("%d:%d\t%s\t%q\n", pos.LineNumber(), pos.ColumnNumber(), tok.Type, tok.Literal)
		if tok.Type == token.EOF {
			return nil
		}
	}
}

func parseHandler(ctx *cli.Context) error {
	path, source, err := readSource(ctx)
	if err != nil {
		return err
	}
	module, err := parser.Parse(ctx.Context(), source, parser.WithFilename(path))
	if err != nil {
		return formatCheetahError(ctx, err)
	}
	for _, stmt := range module.Stmts {
		fmt.Println(stmt.String())
	}
	return nil
}

func checkHandler(ctx *cli.Context) error {
	path, source, err := readSource(ctx)
	if err != nil {
		return err
	}
	if _, err := cheetah.Check(ctx.Context(), source, cheetah.WithFilename(path)); err != nil {
		return formatCheetahError(ctx, err)
	}
	return nil
}
