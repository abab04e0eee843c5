package policy

import (
	"context"
	"fmt"
	"strings"
)

// Confirmer abstracts asking the user a yes/no question, so Level 3 can be
// tested without a real terminal. Level 3, like Levels 1 and 2, never
// consults the assistant — the assistant's only role in this system
// is generating the candidate command in the first place; the final
// arbiter of an escalated command is always the human at the keyboard.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (string, error)
}

// Level3 is the final, human-confirmation level of the policy.
type Level3 struct {
	confirmer Confirmer
}

// NewLevel3 creates a Level3 engine using the given Confirmer.
func NewLevel3(confirmer Confirmer) *Level3 {
	return &Level3{confirmer: confirmer}
}

// Evaluate asks the human whether to allow or deny the request. If
// req.Retry is true the command is allowed immediately without prompting
// again — the user has already been asked once this session.
func (l *Level3) Evaluate(ctx context.Context, req *Request) *Result {
	if req.Retry {
		return &Result{Decision: Allow, Level: 3, Reason: "retry bypasses a repeat Level 3 prompt"}
	}

	prompt := buildConfirmationPrompt(req)
	raw, err := l.confirmer.Confirm(ctx, prompt)
	if err != nil {
		return &Result{Decision: Escalate, Level: 3, Reason: fmt.Sprintf("confirmation error: %v", err)}
	}

	dec, err := parseConfirmation(raw)
	if err != nil {
		return &Result{Decision: Escalate, Level: 3, Reason: fmt.Sprintf("unrecognized response: %v", err)}
	}

	reason := "user declined"
	if dec == Allow {
		reason = "user confirmed"
	}
	return &Result{Decision: dec, Level: 3, Reason: reason, RuleID: "human-confirmation"}
}

// buildConfirmationPrompt constructs the message shown to the user before
// running an assistant-proposed command.
func buildConfirmationPrompt(req *Request) string {
	var sb strings.Builder

	sb.WriteString("The assistant proposes running:\n\n")
	fmt.Fprintf(&sb, "  %s\n\n", req.Command)

	if req.Justification != "" {
		fmt.Fprintf(&sb, "Reason: %s\n", req.Justification)
	}
	if req.Cwd != "" {
		fmt.Fprintf(&sb, "Working directory: %s\n", req.Cwd)
	}
	if req.HasRedirectOut {
		sb.WriteString("This command writes to a file.\n")
	}

	sb.WriteString("\nRun it? [y/N] ")
	return sb.String()
}

// parseConfirmation interprets the user's raw response as Allow or Deny.
// An empty response is Deny, so a stray newline never accidentally
// approves a command; an unrecognized response is an error (escalate).
func parseConfirmation(raw string) (Decision, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "y", "yes":
		return Allow, nil
	case "n", "no", "":
		return Deny, nil
	default:
		return 0, fmt.Errorf("expected y or n, got %q", raw)
	}
}
