package assistant

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func TestFilterEnv(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "strips CLAUDECODE prefix",
			input: []string{"CLAUDECODE_SESSION=abc", "HOME=/home/user", "CLAUDECODETOKEN=xyz"},
			want:  []string{"HOME=/home/user"},
		},
		{
			name:  "preserves non-CLAUDECODE vars",
			input: []string{"PATH=/usr/bin", "USER=marcelo"},
			want:  []string{"PATH=/usr/bin", "USER=marcelo"},
		},
		{
			name:  "empty input",
			input: []string{},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterEnv(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseCandidateStripsCodeFence(t *testing.T) {
	raw := "```json\n{\"command\": \"ls -la\", \"justification\": \"lists files\"}\n```"
	c, err := parseCandidate(raw)
	if err != nil {
		t.Fatal(err)
	}
	if c.Command != "ls -la" {
		t.Errorf("Command = %q", c.Command)
	}
}

func TestParseCandidateEmptyCommandErrors(t *testing.T) {
	_, err := parseCandidate(`{"command": "", "justification": "nothing"}`)
	if err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestProposeSuccess(t *testing.T) {
	c := &Client{
		CommandFunc: func(ctx context.Context, name string, args ...string) *exec.Cmd {
			return exec.CommandContext(ctx, "echo", `{"command": "ls -la", "justification": "lists files in the current directory"}`)
		},
	}
	got, err := c.Propose(context.Background(), "list files", "/tmp")
	if err != nil {
		t.Fatal(err)
	}
	if got.Command != "ls -la" {
		t.Errorf("Command = %q", got.Command)
	}
}

func TestProposeTimeout(t *testing.T) {
	c := &Client{
		Timeout: 50 * time.Millisecond,
		CommandFunc: func(ctx context.Context, name string, args ...string) *exec.Cmd {
			return exec.CommandContext(ctx, "sleep", "10")
		},
	}
	_, err := c.Propose(context.Background(), "wait forever", "/tmp")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("err = %v", err)
	}
}

func TestProposeEmptyResponse(t *testing.T) {
	c := &Client{
		CommandFunc: func(ctx context.Context, name string, args ...string) *exec.Cmd {
			return exec.CommandContext(ctx, "echo", "")
		},
	}
	_, err := c.Propose(context.Background(), "do nothing", "/tmp")
	if err == nil {
		t.Fatal("expected error for empty response")
	}
}
