package builtin

import (
	"fmt"
	"strings"
)

// Echo writes its arguments, space-joined, followed by a newline. It never
// interprets backslash escapes in its arguments: by the time echo sees
// them, the lexer has already resolved all quoting, and echo's contract is
// to print exactly those tokens.
type Echo struct{}

func (Echo) Name() string { return "echo" }

func (Echo) Run(ctx *Context) error {
	fmt.Fprintln(ctx.Stdout, strings.Join(ctx.Args, " "))
	return nil
}
