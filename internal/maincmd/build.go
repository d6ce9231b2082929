package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"nanocc/internal/config"
	"nanocc/internal/writer"
	"nanocc/lang/brainfuck"
	"nanocc/lang/ir"
	"nanocc/lang/irresolve"
	"nanocc/lang/llvmgen"
	"nanocc/lang/vm"
)

func (c *Cmd) Build(ctx context.Context, stdio mainer.Stdio, args []string) error {
	out, err := writer.Open(c.Output, stdio.Stdout)
	if err != nil {
		return printError(stdio, err)
	}
	defer out.Close()

	for _, file := range args {
		typed, err := c.frontend(stdio, file)
		if err != nil {
			return printError(stdio, err)
		}

		if c.cfg.Target == config.TargetLLVM {
			if err := llvmgen.Emit(typed, out); err != nil {
				return printError(stdio, err)
			}
			continue
		}

		prog, err := ir.Generate(typed)
		if err != nil {
			return printError(stdio, err)
		}
		c.trace(stdio, "stack IR", prog)

		insts, err := irresolve.Resolve(prog)
		if err != nil {
			return printError(stdio, err)
		}

		switch c.cfg.Target {
		case config.TargetStack:
			for _, inst := range insts {
				fmt.Fprintln(out, inst)
			}
		case config.TargetBrainfuck:
			fmt.Fprintln(out, brainfuck.Show(brainfuck.Translate(insts)))
		}
	}
	return nil
}

// Run compiles to the stack machine and executes the program with the
// embedded interpreter; main's return value is reported on stderr.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	for _, file := range args {
		typed, err := c.frontend(stdio, file)
		if err != nil {
			return printError(stdio, err)
		}
		prog, err := ir.Generate(typed)
		if err != nil {
			return printError(stdio, err)
		}
		insts, err := irresolve.Resolve(prog)
		if err != nil {
			return printError(stdio, err)
		}

		m := &vm.Machine{In: stdio.Stdin, Out: stdio.Stdout, MaxSteps: c.cfg.TapeSteps}
		if err := m.Run(insts); err != nil {
			return printError(stdio, err)
		}
		fmt.Fprintf(stdio.Stderr, "%s: main returned %d\n", file, int16(m.Top()))
	}
	return nil
}
