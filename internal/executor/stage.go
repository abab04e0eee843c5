// Package executor runs one or more dispatched stages as a pipeline: a
// single stage applies redirection in-process, while N>=2 stages are wired
// together through N-1 pipes, mirroring fork/dup2/wait semantics using
// os/exec and io.Pipe since Go has no portable raw fork/dup2.
package executor

import (
	"github.com/marcelocantos/doitsh/internal/dispatch"
	"github.com/marcelocantos/doitsh/internal/redirect"
)

// Stage is one fully-parsed pipeline stage ready for execution.
type Stage struct {
	Name     string
	Args     []string
	Redirect redirect.Set
	Dispatch dispatch.Dispatch
}
