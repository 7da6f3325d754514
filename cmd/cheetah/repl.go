package main

import (
	"bytes"
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/deepnoodle-ai/wonton/color"
	"github.com/peterh/liner"

	"github.com/cheetah-lang/cheetah"
	"github.com/cheetah-lang/cheetah/ast"
	"github.com/cheetah-lang/cheetah/errors"
	"github.com/cheetah-lang/cheetah/parser"
)

const (
	promptMain  = ">>> "
	promptCont  = "... "
	historyFile = ".cheetah_history"
)

// replSession accumulates accepted statements. Each new entry recompiles
// and reruns the whole session; output already seen is stripped before
// printing, so only the new entry's effects are shown. Programs are
// deterministic, which is what makes the replay well defined.
type replSession struct {
	source  strings.Builder
	lastOut string
}

func (s *replSession) eval(ctx context.Context, input string) (string, error) {
	program := s.source.String() + input
	var buf bytes.Buffer
	_, err := cheetah.Eval(ctx, program,
		cheetah.WithFilename("repl"),
		cheetah.WithStdout(&buf))
	if err != nil {
		return "", err
	}
	out := buf.String()
	fresh := strings.TrimPrefix(out, s.lastOut)
	s.source.WriteString(input)
	s.lastOut = out
	return fresh, nil
}

func runRepl(ctx context.Context) error {
	fmt.Printf("cheetah %s\n", version)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := historyPath()
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	session := &replSession{}
	for {
		input, ok := readInput(ln)
		if !ok {
			fmt.Println()
			break
		}
		if strings.TrimSpace(input) == "" {
			continue
		}

		output, err := session.eval(ctx, echoWrap(ctx, input))
		if err != nil {
			printReplError(err)
			continue
		}
		if output != "" {
			fmt.Print(output)
		}
		ln.AppendHistory(strings.TrimRight(strings.ReplaceAll(input, "\n", " "), " "))
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return nil
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return historyFile
	}
	return filepath.Join(home, historyFile)
}

// readInput reads one logical statement. A line ending in a colon opens
// a block, which continues until an empty line.
func readInput(ln *liner.State) (string, bool) {
	line, err := ln.Prompt(promptMain)
	if goerrors.Is(err, io.EOF) {
		return "", false
	}
	if err != nil {
		// Ctrl+C abandons the current input.
		return "", true
	}

	var b strings.Builder
	b.WriteString(line + "\n")
	if !strings.HasSuffix(strings.TrimSpace(line), ":") {
		return b.String(), true
	}
	for {
		line, err = ln.Prompt(promptCont)
		if err != nil {
			return b.String(), !goerrors.Is(err, io.EOF)
		}
		if strings.TrimSpace(line) == "" {
			return b.String(), true
		}
		b.WriteString(line + "\n")
	}
}

// echoWrap turns a bare expression entry into a print call so its value
// is shown, matching interactive expectations.
func echoWrap(ctx context.Context, input string) string {
	module, err := parser.Parse(ctx, input)
	if err != nil || len(module.Stmts) != 1 {
		return input
	}
	stmt, ok := module.Stmts[0].(*ast.ExprStmt)
	if !ok {
		return input
	}
	if call, ok := stmt.Value.(*ast.Call); ok {
		if name, ok := call.Func.(*ast.Name); ok && name.ID == "print" {
			return input
		}
	}
	return "print(" + strings.TrimSpace(input) + ")\n"
}

func printReplError(err error) {
	useColor := color.ShouldColorize(os.Stderr)
	formatter := errors.NewFormatter(useColor)

	if multiErr, ok := err.(interface {
		ToFormattedMultiple() []*errors.FormattedError
	}); ok {
		fmt.Fprint(os.Stderr, formatter.FormatMultiple(multiErr.ToFormattedMultiple()))
		return
	}
	if formattable, ok := err.(errors.FormattableError); ok {
		fmt.Fprint(os.Stderr, formatter.Format(formattable.ToFormatted()))
		return
	}
	fmt.Fprintln(os.Stderr, err)
}
