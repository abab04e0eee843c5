// Package redirect extracts output-redirection operators (>, >>, 1>, 1>>,
// 2>, 2>>) and their filenames from a single pipeline stage string, leaving
// a residual command string for the lexer. Filenames are copied verbatim
// (quotes, if any, are preserved rather than stripped — see the spec's
// resolved open question on this).
package redirect

import "strings"

type quoteState int

const (
	stateNone quoteState = iota
	stateSingle
	stateDouble
)

// Target is one fd's redirection: where to write and whether to append.
type Target struct {
	Path   string
	Append bool
}

// Set holds the per-stage redirection targets for fd 1 and fd 2.
type Set struct {
	Stdout *Target
	Stderr *Target
}

// Parse scans stage and returns the residual command string (with all
// recognized operator/filename pairs removed) and the redirection set.
// When the same fd is redirected more than once, the last operator wins.
func Parse(stage string) (string, Set) {
	var set Set
	var residual strings.Builder

	state := stateNone
	escapeNext := false
	i := 0
	n := len(stage)

	// atTokenStart tracks whether the byte immediately before position i
	// in the *original* string was an unquoted space (or start of string, or
	// the end of a consumed redirection),
	// which is required for '1'/'2' to be recognized as fd-prefix digits
	// belonging to an operator rather than ordinary token characters.
	atTokenStart := true

	for i < n {
		c := stage[i]

		if escapeNext {
			residual.WriteByte(c)
			escapeNext = false
			atTokenStart = false
			i++
			continue
		}

		switch state {
		case stateSingle:
			residual.WriteByte(c)
			if c == '\'' {
				state = stateNone
			}
			atTokenStart = false
			i++
			continue
		case stateDouble:
			residual.WriteByte(c)
			if c == '\\' && i+1 < n && (stage[i+1] == '"' || stage[i+1] == '\\') {
				escapeNext = true
			} else if c == '"' {
				state = stateNone
			}
			atTokenStart = false
			i++
			continue
		}

		switch {
		case c == '\'':
			state = stateSingle
			residual.WriteByte(c)
			atTokenStart = false
			i++
		case c == '"':
			state = stateDouble
			residual.WriteByte(c)
			atTokenStart = false
			i++
		case c == '\\':
			escapeNext = true
			residual.WriteByte(c)
			atTokenStart = false
			i++
		case c == ' ':
			residual.WriteByte(c)
			atTokenStart = true
			i++
		case c == '>' || (atTokenStart && (c == '1' || c == '2') && i+1 < n && stage[i+1] == '>'):
			fd := 1
			j := i
			if c == '1' || c == '2' {
				if c == '2' {
					fd = 2
				}
				j++ // skip the fd digit
			}
			// j now points at '>'
			j++
			appendMode := false
			if j < n && stage[j] == '>' {
				appendMode = true
				j++
			}
			filename, next := extractFilename(stage, j)
			if filename != "" {
				tgt := &Target{Path: filename, Append: appendMode}
				if fd == 1 {
					set.Stdout = tgt
				} else {
					set.Stderr = tgt
				}
			}
			i = next
			atTokenStart = true
		default:
			residual.WriteByte(c)
			atTokenStart = false
			i++
		}
	}

	return strings.TrimSpace(residual.String()), set
}

// extractFilename skips unquoted leading spaces then reads up to the next
// unquoted space or the start of another redirection operator, preserving
// any quote characters verbatim. Returns the filename and the index just
// past it.
func extractFilename(s string, start int) (string, int) {
	i := start
	n := len(s)
	for i < n && s[i] == ' ' {
		i++
	}

	var sb strings.Builder
	state := stateNone
	escapeNext := false

	for i < n {
		c := s[i]

		if escapeNext {
			sb.WriteByte(c)
			escapeNext = false
			i++
			continue
		}

		switch state {
		case stateSingle:
			sb.WriteByte(c)
			if c == '\'' {
				state = stateNone
			}
			i++
			continue
		case stateDouble:
			sb.WriteByte(c)
			if c == '\\' && i+1 < n && (s[i+1] == '"' || s[i+1] == '\\') {
				escapeNext = true
			} else if c == '"' {
				state = stateNone
			}
			i++
			continue
		}

		switch {
		case c == '\'':
			state = stateSingle
			sb.WriteByte(c)
			i++
		case c == '"':
			state = stateDouble
			sb.WriteByte(c)
			i++
		case c == ' ':
			return sb.String(), i
		case c == '>':
			return sb.String(), i
		case (c == '1' || c == '2') && i+1 < n && s[i+1] == '>':
			return sb.String(), i
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), i
}
