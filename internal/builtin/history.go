package builtin

import (
	"fmt"
	"strconv"
)

// HistoryBuiltin implements "history", "history N", "history -r F",
// "history -w F", and "history -a F". It delegates storage and mutation to
// the Context's History collaborator; this type only interprets arguments
// and formats output.
type HistoryBuiltin struct{}

func (HistoryBuiltin) Name() string { return "history" }

func (HistoryBuiltin) Run(ctx *Context) error {
	if ctx.History == nil {
		return nil
	}

	if len(ctx.Args) >= 2 {
		switch ctx.Args[0] {
		case "-r":
			if _, err := ctx.History.ReadFile(ctx.Args[1]); err != nil {
				fmt.Fprintf(ctx.Stderr, "history: %s: %v\n", ctx.Args[1], err)
			}
			return nil
		case "-w":
			if err := ctx.History.WriteFile(ctx.Args[1]); err != nil {
				fmt.Fprintf(ctx.Stderr, "history: %s: %v\n", ctx.Args[1], err)
			}
			return nil
		case "-a":
			if err := ctx.History.AppendFile(ctx.Args[1]); err != nil {
				fmt.Fprintf(ctx.Stderr, "history: %s: %v\n", ctx.Args[1], err)
			}
			return nil
		}
	}

	entries := ctx.History.Entries()
	start := 0
	if len(ctx.Args) >= 1 {
		if n, err := strconv.Atoi(ctx.Args[0]); err == nil && n >= 0 && n < len(entries) {
			start = len(entries) - n
		}
	}

	for i := start; i < len(entries); i++ {
		fmt.Fprintf(ctx.Stdout, "    %d  %s\n", i+1, entries[i])
	}
	return nil
}
