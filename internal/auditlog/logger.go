// Package auditlog is an append-only, hash-chained JSONL log of every
// accepted shell line: one entry per line, written after execution
// completes. It never gates or alters what ran.
package auditlog

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const genesisInput = "doitsh-genesis"

// Logger is an append-only, hash-chained audit log writer.
type Logger struct {
	mu        sync.Mutex
	path      string
	sessionID string
	seq       uint64
	prevHash  string
}

// NewLogger opens or creates an audit log at path, resuming the hash chain
// from its last entry if one already exists.
func NewLogger(path, sessionID string) (*Logger, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}

	l := &Logger{
		path:      path,
		sessionID: sessionID,
		prevHash:  genesisHash(),
	}

	if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
		lines := splitLines(data)
		if len(lines) > 0 {
			var last Entry
			if err := json.Unmarshal(lines[len(lines)-1], &last); err == nil {
				l.seq = last.Seq
				l.prevHash = last.Hash
			}
		}
	}

	return l, nil
}

// Log appends one entry describing a completed pipeline line.
func (l *Logger) Log(line string, segments []string, exitCodes []int, errMsg string, duration time.Duration, cwd string, assisted bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	entry := Entry{
		Seq:       l.seq,
		Time:      time.Now().UTC(),
		PrevHash:  l.prevHash,
		SessionID: l.sessionID,
		Line:      line,
		Segments:  segments,
		ExitCodes: exitCodes,
		Error:     errMsg,
		Duration:  float64(duration.Microseconds()) / 1000.0,
		Cwd:       cwd,
		Assisted:  assisted,
	}

	entry.Hash = computeHash(entry)
	l.prevHash = entry.Hash

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	return nil
}

// Path returns the audit log file path.
func (l *Logger) Path() string {
	return l.path
}

func genesisHash() string {
	h := sha256.Sum256([]byte(genesisInput))
	return fmt.Sprintf("%x", h)
}

func computeHash(e Entry) string {
	e.Hash = ""
	data, _ := json.Marshal(e)
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h)
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, data[start:i])
			}
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}
