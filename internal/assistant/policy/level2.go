package policy

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Level2 evaluates commands against the learned policy store.
type Level2 struct {
	entries []PolicyEntry
}

// NewLevel2 creates a Level2 engine from ordered policy entries.
func NewLevel2(entries []PolicyEntry) *Level2 {
	return &Level2{entries: entries}
}

// Evaluate runs per-stage matching against the learned policy store.
//
// When req.Retry is true, Level 2 is bypassed entirely (Escalate) — a
// learned policy is not a hardcoded safety rule and shouldn't stand between
// the user and an explicit retry.
//
// Per-stage matching: for each stage, walk the ordered entry list. The
// first matching approved entry wins; an allow entry whose next review
// time has passed escalates instead. If nothing matches but the stage is
// a known read-only command, it's implicitly safe.
//
// Pipeline-level decision:
//   - Any stage -> Deny: whole pipeline is Deny (short-circuit)
//   - All stages -> Allow: pipeline is Allow
//   - Anything else: pipeline is Escalate
func (l *Level2) Evaluate(req *Request) *Result {
	if req.Retry {
		return &Result{Decision: Escalate, Level: 2, Reason: "retry bypasses Level 2"}
	}

	if len(req.Stages) == 0 {
		return &Result{Decision: Escalate, Level: 2, Reason: "no stages to evaluate"}
	}

	results := make([]*Result, len(req.Stages))
	for i, st := range req.Stages {
		results[i] = l.matchStage(&st)
		if results[i].Decision == Deny {
			return results[i]
		}
	}

	if len(results) == 1 {
		return results[0]
	}

	for _, r := range results {
		if r.Decision != Allow {
			return &Result{Decision: Escalate, Level: 2, Reason: "no learned policy matched all stages"}
		}
	}
	return &Result{Decision: Allow, Level: 2, Reason: "all stages allowed by learned policy"}
}

// matchStage finds the first matching approved entry for a stage.
func (l *Level2) matchStage(st *Stage) *Result {
	for _, entry := range l.entries {
		if !entry.Approved {
			continue
		}
		if matchesCriteria(st, &entry.Match) {
			dec, err := ParseDecision(entry.Decision)
			if err != nil {
				continue
			}
			if dec == Allow && !entry.Review.NextReview.IsZero() && NeedsReview(entry.Review.NextReview) {
				return &Result{
					Decision: Escalate,
					Level:    2,
					Reason:   fmt.Sprintf("learned policy %q is due for review", entry.ID),
					RuleID:   entry.ID,
				}
			}
			return &Result{
				Decision: dec,
				Level:    2,
				Reason:   fmt.Sprintf("matched learned policy %q: %s", entry.ID, entry.Reasoning),
				RuleID:   entry.ID,
			}
		}
	}

	if readOnlyCommands[st.Name] {
		return &Result{
			Decision: Allow,
			Level:    2,
			Reason:   fmt.Sprintf("%s is read-only (implicit allow)", st.Name),
		}
	}

	return &Result{Decision: Escalate, Level: 2, Reason: fmt.Sprintf("no learned policy for %s", st.Name)}
}

// matchesCriteria checks whether a stage satisfies all constraints in the
// match criteria. All specified fields must hold.
func matchesCriteria(st *Stage, m *MatchCriteria) bool {
	if st.Name != m.Command {
		return false
	}

	if m.Subcmd != "" {
		if len(st.Args) == 0 || st.Args[0] != m.Subcmd {
			return false
		}
	}

	if len(m.HasFlags) > 0 {
		args := st.Args
		if m.Subcmd != "" && len(args) > 0 {
			args = args[1:]
		}
		if !hasAnyFlag(args, m.HasFlags...) {
			return false
		}
	}

	if len(m.NoFlags) > 0 {
		args := st.Args
		if m.Subcmd != "" && len(args) > 0 {
			args = args[1:]
		}
		if hasAnyFlag(args, m.NoFlags...) {
			return false
		}
	}

	if len(m.ArgsGlob) > 0 {
		positional := extractPositionalArgs(st.Args, m.Subcmd)
		if len(positional) == 0 {
			return false
		}
		for _, arg := range positional {
			if !matchAnyGlob(arg, m.ArgsGlob) {
				return false
			}
		}
	}

	return true
}

// extractPositionalArgs returns non-flag arguments after the subcmd.
func extractPositionalArgs(args []string, subcmd string) []string {
	start := 0
	if subcmd != "" && len(args) > 0 && args[0] == subcmd {
		start = 1
	}
	var pos []string
	pastDashes := false
	for _, arg := range args[start:] {
		if arg == "--" {
			pastDashes = true
			continue
		}
		if !pastDashes && strings.HasPrefix(arg, "-") {
			continue
		}
		pos = append(pos, arg)
	}
	return pos
}

// matchAnyGlob checks if s matches any of the glob patterns.
func matchAnyGlob(s string, patterns []string) bool {
	for _, p := range patterns {
		if matched, _ := filepath.Match(p, s); matched {
			return true
		}
	}
	return false
}
