package builtin

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// Cd changes the process's working directory. An empty argument or "~"
// maps to $HOME (or "/" if HOME is unset). Failures are categorized the
// same way the original implementation this shell's behavior is modeled on
// categorizes them.
type Cd struct{}

func (Cd) Name() string { return "cd" }

func (Cd) Run(ctx *Context) error {
	target := ""
	if len(ctx.Args) > 0 {
		target = ctx.Args[0]
	}

	if target == "" || target == "~" {
		home := os.Getenv("HOME")
		if home == "" {
			home = "/"
		}
		target = home
	}

	if err := os.Chdir(target); err != nil {
		fmt.Fprintf(ctx.Stderr, "cd: %s: %s\n", target, categorize(err))
	}
	return nil
}

func categorize(err error) string {
	switch {
	case os.IsNotExist(err):
		return "No such file or directory"
	case os.IsPermission(err):
		return "Permission denied"
	case errors.Is(err, syscall.ENOTDIR):
		return "Not a directory"
	default:
		return "Unknown error"
	}
}
