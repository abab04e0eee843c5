// Package pipesplit divides a raw shell input line into pipeline stage
// strings on unquoted '|', using the same quote/escape tracking as the
// lexer so that a '|' inside quotes or escaped never splits a stage.
package pipesplit

import "strings"

type quoteState int

const (
	stateNone quoteState = iota
	stateSingle
	stateDouble
)

// Split divides line into stage strings on unquoted '|'. Whitespace around
// each '|' is stripped from the adjoining stages. Empty stages are dropped.
// A line with no unquoted '|' yields a single stage equal to the trimmed
// input.
func Split(line string) []string {
	var stages []string
	var cur strings.Builder
	state := stateNone
	escapeNext := false

	flush := func() {
		s := strings.TrimSpace(cur.String())
		cur.Reset()
		if s != "" {
			stages = append(stages, s)
		}
	}

	for i := 0; i < len(line); i++ {
		c := line[i]

		if escapeNext {
			cur.WriteByte(c)
			escapeNext = false
			continue
		}

		switch state {
		case stateSingle:
			cur.WriteByte(c)
			if c == '\'' {
				state = stateNone
			}
			continue
		case stateDouble:
			cur.WriteByte(c)
			switch {
			case c == '\\' && i+1 < len(line) && (line[i+1] == '"' || line[i+1] == '\\'):
				escapeNext = true
			case c == '"':
				state = stateNone
			}
			continue
		}

		switch c {
		case '\'':
			state = stateSingle
			cur.WriteByte(c)
		case '"':
			state = stateDouble
			cur.WriteByte(c)
		case '\\':
			escapeNext = true
			cur.WriteByte(c)
		case '|':
			flush()
		default:
			cur.WriteByte(c)
		}
	}

	flush()
	return stages
}
