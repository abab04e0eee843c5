package policy

import "context"

// Engine chains all three confirmation levels: Level 1's deterministic
// rules run first, then Level 2's learned store, then Level 3's human
// confirmation prompt as the final arbiter. The first level to reach a
// definitive Allow or Deny wins; Escalate falls through to the next level.
type Engine struct {
	Level1 *Level1
	Level2 *Level2
	Level3 *Level3
}

// Evaluate runs the full three-level policy over req.
func (e *Engine) Evaluate(ctx context.Context, req *Request) *Result {
	if e.Level1 != nil {
		if r := e.Level1.Evaluate(req); r.Decision != Escalate {
			return r
		}
	}
	if e.Level2 != nil {
		if r := e.Level2.Evaluate(req); r.Decision != Escalate {
			return r
		}
	}
	if e.Level3 != nil {
		return e.Level3.Evaluate(ctx, req)
	}
	return &Result{Decision: Escalate, Reason: "no level could reach a decision"}
}
