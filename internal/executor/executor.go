package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/marcelocantos/doitsh/internal/builtin"
	"github.com/marcelocantos/doitsh/internal/dispatch"
	"github.com/marcelocantos/doitsh/internal/redirect"
)

// Execute runs stages as a pipeline. A single stage applies its own
// redirection in the caller's process (the "fork" is only notional: an
// external becomes a child process, a builtin runs in-process). N>=2
// stages are wired through N-1 pipes with one goroutine per stage playing
// the role of a forked child. The returned error is non-nil only for
// *builtin.ExitError (single-stage "exit") or a genuine OS-level failure
// to set up the pipeline; ordinary per-stage failures (unknown command,
// cd errors, non-zero external exit) are reported via exitCodes and stderr
// text, not via the returned error.
func Execute(ctx context.Context, stages []Stage, stdin io.Reader, stdout, stderr io.Writer, hist builtin.History) (exitCodes []int, err error) {
	if len(stages) == 0 {
		return nil, nil
	}
	if len(stages) == 1 {
		code, err := runSingle(ctx, stages[0], stdin, stdout, stderr, hist)
		return []int{code}, err
	}
	return runMulti(ctx, stages, stdin, stdout, stderr, hist)
}

func runSingle(ctx context.Context, st Stage, stdin io.Reader, stdout, stderr io.Writer, hist builtin.History) (int, error) {
	out := stdout
	errw := stderr
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	if st.Redirect.Stdout != nil {
		applies := st.Dispatch.Kind == dispatch.KindExternal ||
			(st.Dispatch.Kind == dispatch.KindBuiltin && (st.Name == "echo" || st.Name == "pwd"))
		if applies {
			if f, ferr := openTarget(st.Redirect.Stdout); ferr == nil {
				closers = append(closers, f)
				out = f
			}
			// On open failure: silently suppress the write (for builtins) or
			// leave the external child's fd as the parent's (documented wart).
		}
	}

	if st.Redirect.Stderr != nil {
		// Created/truncated for every stage kind, even when nothing is
		// ultimately written to it.
		if f, ferr := openTarget(st.Redirect.Stderr); ferr == nil {
			closers = append(closers, f)
			errw = f
		}
	}

	switch st.Dispatch.Kind {
	case dispatch.KindBuiltin:
		return runBuiltinInProcess(0, st, stdin, out, errw, hist, false)
	case dispatch.KindExternal:
		return runExternalStage(ctx, st, stdin, out, errw)
	default:
		fmt.Fprintf(errw, "%s: command not found\n", st.Name)
		return 127, nil
	}
}

type pipePair struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func runMulti(ctx context.Context, stages []Stage, stdin io.Reader, stdout, stderr io.Writer, hist builtin.History) ([]int, error) {
	n := len(stages)
	pipes := make([]pipePair, n-1)
	for i := range pipes {
		pipes[i].r, pipes[i].w = io.Pipe()
	}

	codes := make([]int, n)
	var wg sync.WaitGroup

	for i, st := range stages {
		wg.Add(1)
		go func(i int, st Stage) {
			defer wg.Done()

			var in io.Reader
			var out io.Writer
			if i == 0 {
				in = stdin
			} else {
				in = pipes[i-1].r
			}
			if i == n-1 {
				out = stdout
			} else {
				out = pipes[i].w
			}
			errw := stderr

			var closers []io.Closer
			if st.Redirect.Stdout != nil {
				applies := st.Dispatch.Kind == dispatch.KindExternal ||
					(st.Dispatch.Kind == dispatch.KindBuiltin && (st.Name == "echo" || st.Name == "pwd"))
				if applies {
					if f, ferr := openTarget(st.Redirect.Stdout); ferr == nil {
						closers = append(closers, f)
						out = f
					}
				}
			}
			if st.Redirect.Stderr != nil {
				if f, ferr := openTarget(st.Redirect.Stderr); ferr == nil {
					closers = append(closers, f)
					errw = f
				}
			}

			var code int
			switch st.Dispatch.Kind {
			case dispatch.KindBuiltin:
				code, _ = runBuiltinInProcess(i, st, in, out, errw, hist, true)
			case dispatch.KindExternal:
				code, _ = runExternalStage(ctx, st, in, out, errw)
			default:
				fmt.Fprintf(errw, "%s: command not found\n", st.Name)
				code = 127
				io.Copy(io.Discard, in)
			}
			codes[i] = code

			for _, c := range closers {
				c.Close()
			}
			// Close every pipe fd this stage touched: the writer so the
			// downstream stage observes EOF, the reader once we're done
			// reading from it. Leaving either open anywhere in the chain
			// can hang a downstream reader or an upstream writer.
			if i < n-1 {
				pipes[i].w.Close()
			}
			if i > 0 {
				pipes[i-1].r.Close()
			}
		}(i, st)
	}

	wg.Wait()
	return codes, nil
}

// runBuiltinInProcess runs st as one pipeline stage. i is this stage's
// index; fromUpstream (i > 0) is true only when stdin is one of the
// executor's own io.Pipe reader ends, never the real terminal/process
// stdin that stage 0 reads from.
func runBuiltinInProcess(i int, st Stage, stdin io.Reader, stdout, stderr io.Writer, hist builtin.History, inPipeline bool) (int, error) {
	b, ok := builtin.Lookup(st.Name)
	if !ok {
		fmt.Fprintf(stderr, "%s: command not found\n", st.Name)
		return 127, nil
	}

	fromUpstream := inPipeline && i > 0

	if inPipeline {
		switch st.Name {
		case "exit", "cd", "history":
			// Process-local effects can't propagate out of this goroutine
			// any more than out of a forked child; behave as a no-op. Only
			// drain stdin when it's an upstream pipe writer that would
			// otherwise block; stage 0's stdin is the shell's real input
			// and must never be read here.
			if fromUpstream {
				io.Copy(io.Discard, stdin)
			}
			return 0, nil
		case "type", "pwd":
			// Drain stdin before producing output so an upstream writer
			// never sees a broken pipe — but only when there is an
			// upstream writer to unblock.
			if fromUpstream {
				io.Copy(io.Discard, stdin)
			}
		}
	}

	ctx := &builtin.Context{Args: st.Args, Stdin: stdin, Stdout: stdout, Stderr: stderr, History: hist}
	err := b.Run(ctx)
	if err == nil {
		return 0, nil
	}

	var exitErr *builtin.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, err
	}
	return 1, err
}

func runExternalStage(ctx context.Context, st Stage, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, st.Dispatch.Path, st.Args...)
	cmd.Args[0] = st.Name
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		fmt.Fprintf(stderr, "%s: command not found\n", st.Name)
		return 127, nil
	}
	return 0, nil
}

func openTarget(t *redirect.Target) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if t.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	return os.OpenFile(t.Path, flags, 0o644)
}
