// Package readline is the shell's default read-line collaborator: it reads
// one line at a time from a raw terminal with manual backspace, redraw, and
// tab-completion handling, and owns the in-memory (optionally
// file-persisted) history list. The core shell treats this entirely as an
// external collaborator reached through ReadLine/History.
package readline

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrInterrupted is returned by ReadLine when the user pressed Ctrl-C: the
// current input is discarded and the shell should reprompt.
var ErrInterrupted = errors.New("readline: interrupted")

// completionNames lists the identifiers offered for tab completion: the
// closed built-in set, since that is the only vocabulary this collaborator
// has reliable, static knowledge of.
var completionNames = []string{"echo", "exit", "pwd", "type", "cd", "history"}

// Reader reads lines from a terminal in raw mode.
type Reader struct {
	in       *os.File
	bufin    *bufio.Reader
	out      io.Writer
	oldState *term.State
	raw      bool

	History *History
}

// New creates a Reader over in (typically os.Stdin) writing prompts and
// echoed input to out (typically os.Stdout).
func New(in *os.File, out io.Writer) *Reader {
	return &Reader{
		in:      in,
		bufin:   bufio.NewReader(in),
		out:     out,
		History: &History{},
	}
}

// EnableRawMode puts the terminal into raw mode so individual keystrokes
// (backspace, tab) can be handled before a full line is available. It is a
// no-op error if the input is not a terminal (e.g. piped input in tests).
func (r *Reader) EnableRawMode() error {
	if !term.IsTerminal(int(r.in.Fd())) {
		return nil
	}
	state, err := term.MakeRaw(int(r.in.Fd()))
	if err != nil {
		return err
	}
	r.oldState = state
	r.raw = true
	return nil
}

// Close restores the terminal's original mode, if raw mode was entered.
func (r *Reader) Close() error {
	if r.raw && r.oldState != nil {
		return term.Restore(int(r.in.Fd()), r.oldState)
	}
	return nil
}

// ReadLine writes prompt, then reads one line of input, handling backspace
// (erase previous character), tab (complete against the built-in names),
// Ctrl-C (ErrInterrupted), and Ctrl-D on an empty line (io.EOF). The
// trailing newline is stripped from the returned line.
func (r *Reader) ReadLine(prompt string) (string, error) {
	if !r.raw {
		return r.readLineCooked(prompt)
	}

	io.WriteString(r.out, prompt)
	var input strings.Builder

	for {
		b, err := r.bufin.ReadByte()
		if err != nil {
			return "", err
		}

		switch {
		case b == '\r' || b == '\n':
			io.WriteString(r.out, "\r\n")
			return input.String(), nil

		case b == 3: // Ctrl-C
			io.WriteString(r.out, "\r\n")
			return "", ErrInterrupted

		case b == 4 && input.Len() == 0: // Ctrl-D on empty line
			return "", io.EOF

		case b == '\t':
			completed := complete(input.String())
			input.Reset()
			input.WriteString(completed)
			redraw(r.out, prompt, input.String())

		case b == 127 || b == 8: // backspace
			s := input.String()
			if len(s) > 0 {
				input.Reset()
				input.WriteString(s[:len(s)-1])
			}
			redraw(r.out, prompt, input.String())

		default:
			input.WriteByte(b)
			r.out.Write([]byte{b})
		}
	}
}

// readLineCooked is used when stdin is not a terminal (tests, piped
// scripts): ordinary buffered line reading, no raw-mode keystroke handling.
func (r *Reader) readLineCooked(prompt string) (string, error) {
	io.WriteString(r.out, prompt)
	line, err := r.bufin.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func redraw(out io.Writer, prompt, input string) {
	io.WriteString(out, "\r\033[K"+prompt+input)
}

// complete returns input unchanged unless it is a unique prefix of exactly
// one built-in name, in which case it expands to that name.
func complete(input string) string {
	if input == "" {
		return input
	}
	var match string
	matches := 0
	for _, name := range completionNames {
		if strings.HasPrefix(name, input) {
			match = name
			matches++
		}
	}
	if matches == 1 {
		return match
	}
	return input
}
