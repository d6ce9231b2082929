package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/kylelemons/godebug/pretty"
	"github.com/mna/mainer"

	"nanocc/internal/preprocess"
	"nanocc/lang/parser"
)

func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	for _, file := range args {
		src, err := os.ReadFile(file)
		if err != nil {
			return printError(stdio, err)
		}
		prog, err := parser.Parse(preprocess.Strip(src))
		if err != nil {
			return printError(stdio, err)
		}
		fmt.Fprintln(stdio.Stdout, pretty.Sprint(prog))
	}
	return nil
}

func (c *Cmd) Check(ctx context.Context, stdio mainer.Stdio, args []string) error {
	for _, file := range args {
		if _, err := c.frontend(stdio, file); err != nil {
			return printError(stdio, err)
		}
		fmt.Fprintf(stdio.Stdout, "%s: ok\n", file)
	}
	return nil
}
