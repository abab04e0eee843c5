package builtin

import (
	"fmt"
	"os"
)

// Pwd writes the process's current working directory.
type Pwd struct{}

func (Pwd) Name() string { return "pwd" }

func (Pwd) Run(ctx *Context) error {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "pwd: %v\n", err)
		return nil
	}
	fmt.Fprintln(ctx.Stdout, dir)
	return nil
}
