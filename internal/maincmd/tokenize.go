package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"nanocc/internal/preprocess"
	"nanocc/lang/lexer"
	"nanocc/lang/token"
)

func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFiles(ctx, stdio, args...)
}

// TokenizeFiles tokenizes every file and prints one token per line.
func TokenizeFiles(_ context.Context, stdio mainer.Stdio, files ...string) error {
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return printError(stdio, err)
		}
		toks, err := lexer.Lex(preprocess.Strip(src))
		if err != nil {
			return printError(stdio, err)
		}
		for _, tv := range toks {
			if tv.Tok == token.EOF {
				break
			}
			fmt.Fprintf(stdio.Stdout, "%s", tv.Tok)
			if tv.Val.Raw != "" && tv.Val.Raw != tv.Tok.String() {
				fmt.Fprintf(stdio.Stdout, " %s", tv.Val.Raw)
			}
			fmt.Fprintln(stdio.Stdout)
		}
	}
	return nil
}
