package maincmd

import (
	"fmt"
	"os"

	"github.com/kylelemons/godebug/pretty"
	"github.com/mna/mainer"

	"nanocc/internal/preprocess"
	"nanocc/lang/ast"
	"nanocc/lang/parser"
	"nanocc/lang/sema"
	"nanocc/lang/simplify"
)

// frontend runs the shared front half of every command on one file:
// preprocess, parse, simplify, type-check. Debug traces of the
// intermediate forms go to stderr when the debug flag is set.
func (c *Cmd) frontend(stdio mainer.Stdio, file string) (*ast.SemaProgram, error) {
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	src = preprocess.Strip(src)

	raw, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	c.trace(stdio, "raw AST", raw)

	simplified := simplify.Program(raw)
	c.trace(stdio, "simplified AST", simplified)

	typed, err := sema.Resolve(simplified)
	if err != nil {
		return nil, err
	}
	c.trace(stdio, "typed AST", typed)
	return typed, nil
}

// trace pretty-prints an intermediate form to stderr when debugging.
func (c *Cmd) trace(stdio mainer.Stdio, label string, v any) {
	if !c.cfg.Debug {
		return
	}
	fmt.Fprintf(stdio.Stderr, "=== %s ===\n%s\n", label, pretty.Sprint(v))
}

func printError(stdio mainer.Stdio, err error) error {
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
	}
	return err
}
