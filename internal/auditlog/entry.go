package auditlog

import "time"

// Entry is one hash-chained audit record for a single accepted input line.
// Logging is strictly observational: it happens after a line has already run
// and never blocks or alters execution.
type Entry struct {
	Seq       uint64    `json:"seq"`
	Time      time.Time `json:"ts"`
	PrevHash  string    `json:"prev_hash"`
	SessionID string    `json:"session_id"`
	Line      string    `json:"line"`               // the raw accepted input line
	Segments  []string  `json:"segments"`            // command name of each pipeline stage
	ExitCodes []int     `json:"exit_codes"`           // exit code of each pipeline stage
	Error     string    `json:"error,omitempty"`     // non-stage-level failure, if any
	Duration  float64   `json:"duration_ms"`
	Cwd       string    `json:"cwd"`
	Assisted  bool      `json:"assisted,omitempty"` // true if the line came from the NL assistant
	Hash      string    `json:"hash"`
}
