package builtin

import (
	"fmt"
	"os/exec"

	"github.com/marcelocantos/doitsh/internal/dispatch"
)

// Type reports whether its argument is a built-in, resolves on the live
// PATH, or is unknown. It deliberately performs a live PATH walk (via
// exec.LookPath) rather than consulting the startup path cache, so users
// always see the authoritative, current truth.
type Type struct{}

func (Type) Name() string { return "type" }

func (Type) Run(ctx *Context) error {
	if len(ctx.Args) == 0 {
		return nil
	}
	name := ctx.Args[0]

	if dispatch.IsBuiltin(name) {
		fmt.Fprintf(ctx.Stdout, "%s is a shell builtin\n", name)
		return nil
	}

	if path, err := exec.LookPath(name); err == nil {
		fmt.Fprintf(ctx.Stdout, "%s is %s\n", name, path)
		return nil
	}

	fmt.Fprintf(ctx.Stderr, "%s: not found\n", name)
	return nil
}
