package policy

import "testing"

func defaultLevel1() *Level1 {
	return NewLevel1(map[string]CommandRuleConfig{
		"make": {
			RejectFlags: []string{"-j"},
		},
		"git": {
			Subcommands: map[string]SubcommandRuleConfig{
				"push":  {RejectFlags: []string{"--force", "-f", "--force-with-lease"}},
				"reset": {RejectFlags: []string{"--hard"}},
			},
		},
	})
}

func TestDenyRmCatastrophic(t *testing.T) {
	l1 := defaultLevel1()
	tests := []struct {
		name     string
		stages   []Stage
		wantDeny bool
	}{
		{"rm -rf /", []Stage{{Name: "rm", Args: []string{"-rf", "/"}}}, true},
		{"rm -rf .", []Stage{{Name: "rm", Args: []string{"-rf", "."}}}, true},
		{"rm -rf ..", []Stage{{Name: "rm", Args: []string{"-rf", ".."}}}, true},
		{"rm -rf ~", []Stage{{Name: "rm", Args: []string{"-rf", "~"}}}, true},
		{"rm -rf ~/", []Stage{{Name: "rm", Args: []string{"-rf", "~/"}}}, true},
		{"rm -r /", []Stage{{Name: "rm", Args: []string{"-r", "/"}}}, true},
		{"rm -R /", []Stage{{Name: "rm", Args: []string{"-R", "/"}}}, true},
		{"rm -rf /tmp/safe", []Stage{{Name: "rm", Args: []string{"-rf", "/tmp/safe"}}}, false},
		{"rm file.txt (no recursive flag)", []Stage{{Name: "rm", Args: []string{"file.txt"}}}, false},
		{"grep -rf / (not rm)", []Stage{{Name: "grep", Args: []string{"-rf", "/"}}}, false},
		{"rm -fr /", []Stage{{Name: "rm", Args: []string{"-fr", "/"}}}, true},
		{"rm -rf //", []Stage{{Name: "rm", Args: []string{"-rf", "//"}}}, true},
		{
			"rm -rf in pipeline",
			[]Stage{
				{Name: "grep", Args: []string{"foo"}},
				{Name: "rm", Args: []string{"-rf", "/"}},
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := l1.Evaluate(&Request{Stages: tt.stages})
			if tt.wantDeny {
				if result.Decision != Deny || result.RuleID != "deny-rm-catastrophic" {
					t.Errorf("got decision=%v rule=%q, want deny by deny-rm-catastrophic", result.Decision, result.RuleID)
				}
			} else if result.Decision == Deny && result.RuleID == "deny-rm-catastrophic" {
				t.Errorf("unexpected deny by deny-rm-catastrophic")
			}
		})
	}
}

func TestDenyRmCatastrophicNotBypassable(t *testing.T) {
	l1 := defaultLevel1()
	result := l1.Evaluate(&Request{
		Stages: []Stage{{Name: "rm", Args: []string{"-rf", "/"}}},
		Retry:  true,
	})
	if result.Decision != Deny {
		t.Errorf("got decision=%v, want deny (hardcoded rules cannot be bypassed)", result.Decision)
	}
}

func TestDenyMakeFlags(t *testing.T) {
	l1 := defaultLevel1()
	tests := []struct {
		name     string
		args     []string
		wantDeny bool
	}{
		{"make -j4", []string{"-j4"}, true},
		{"make -j", []string{"-j"}, true},
		{"make clean", []string{"clean"}, false},
		{"make (no args)", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := l1.Evaluate(&Request{Stages: []Stage{{Name: "make", Args: tt.args}}})
			if tt.wantDeny {
				if result.Decision != Deny {
					t.Errorf("got decision=%v, want deny", result.Decision)
				}
			} else if result.Decision == Deny {
				t.Errorf("unexpected deny: %s", result.Reason)
			}
		})
	}
}

func TestDenyGitPushFlags(t *testing.T) {
	l1 := defaultLevel1()
	tests := []struct {
		name     string
		args     []string
		wantDeny bool
	}{
		{"git push --force", []string{"push", "--force"}, true},
		{"git push -f", []string{"push", "-f"}, true},
		{"git push --force-with-lease", []string{"push", "--force-with-lease"}, true},
		{"git push", []string{"push"}, false},
		{"git push origin master", []string{"push", "origin", "master"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := l1.Evaluate(&Request{Stages: []Stage{{Name: "git", Args: tt.args}}})
			if tt.wantDeny {
				if result.Decision != Deny {
					t.Errorf("got decision=%v, want deny", result.Decision)
				}
			} else if result.Decision == Deny {
				t.Errorf("unexpected deny: %s", result.Reason)
			}
		})
	}
}

func TestDenyGitCheckoutAll(t *testing.T) {
	l1 := defaultLevel1()
	tests := []struct {
		name     string
		args     []string
		wantDeny bool
	}{
		{"git checkout .", []string{"checkout", "."}, true},
		{"git checkout -- .", []string{"checkout", "--", "."}, true},
		{"git checkout ./", []string{"checkout", "./"}, true},
		{"git checkout branch", []string{"checkout", "feature"}, false},
		{"git checkout -- file.go", []string{"checkout", "--", "file.go"}, false},
		{"git status", []string{"status"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := l1.Evaluate(&Request{Stages: []Stage{{Name: "git", Args: tt.args}}})
			if tt.wantDeny {
				if result.Decision != Deny || result.RuleID != "deny-git-checkout-all" {
					t.Errorf("got decision=%v rule=%q, want deny by deny-git-checkout-all", result.Decision, result.RuleID)
				}
			} else if result.Decision == Deny && result.RuleID == "deny-git-checkout-all" {
				t.Errorf("unexpected deny by deny-git-checkout-all")
			}
		})
	}
}

func TestAllowSafePipeline(t *testing.T) {
	l1 := defaultLevel1()
	tests := []struct {
		name      string
		stages    []Stage
		redirect  bool
		wantAllow bool
	}{
		{"single read-only", []Stage{{Name: "grep", Args: []string{"foo", "file"}}}, false, true},
		{
			"multi read-only pipeline",
			[]Stage{{Name: "grep", Args: []string{"foo"}}, {Name: "head"}, {Name: "wc"}},
			false,
			true,
		},
		{
			"mixed commands",
			[]Stage{{Name: "grep", Args: []string{"foo"}}, {Name: "tee", Args: []string{"out.txt"}}},
			false,
			false,
		},
		{"read-only with output redirect", []Stage{{Name: "grep", Args: []string{"foo"}}}, true, false},
		{"unknown command", []Stage{{Name: "make"}}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := l1.Evaluate(&Request{Stages: tt.stages, HasRedirectOut: tt.redirect})
			if tt.wantAllow {
				if result.Decision != Allow || result.RuleID != "allow-safe-pipeline" {
					t.Errorf("got decision=%v rule=%q, want allow by allow-safe-pipeline", result.Decision, result.RuleID)
				}
			} else if result.Decision == Allow && result.RuleID == "allow-safe-pipeline" {
				t.Errorf("unexpected allow by allow-safe-pipeline")
			}
		})
	}
}

func TestRetryBypassesConfigRules(t *testing.T) {
	l1 := defaultLevel1()
	tests := []struct {
		name   string
		stages []Stage
	}{
		{"make -j bypassed", []Stage{{Name: "make", Args: []string{"-j4"}}}},
		{"git push --force bypassed", []Stage{{Name: "git", Args: []string{"push", "--force"}}}},
		{"git checkout . bypassed", []Stage{{Name: "git", Args: []string{"checkout", "."}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := l1.Evaluate(&Request{Stages: tt.stages, Retry: true})
			if result.Decision == Deny {
				t.Errorf("got deny, want non-deny (config rules should be bypassed with retry): %s", result.Reason)
			}
		})
	}
}

func TestEscalateWhenNoRuleMatches(t *testing.T) {
	l1 := defaultLevel1()
	result := l1.Evaluate(&Request{Stages: []Stage{{Name: "make"}}})
	if result.Decision != Escalate {
		t.Errorf("got decision=%v, want escalate", result.Decision)
	}
	if result.Level != 1 {
		t.Errorf("got level=%d, want 1", result.Level)
	}
}

func TestDecisionString(t *testing.T) {
	tests := []struct {
		d    Decision
		want string
	}{
		{Allow, "allow"},
		{Deny, "deny"},
		{Escalate, "escalate"},
		{Decision(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("Decision(%d).String() = %q, want %q", int(tt.d), got, tt.want)
		}
	}
}

func TestJustificationPassthrough(t *testing.T) {
	l1 := defaultLevel1()
	result := l1.Evaluate(&Request{
		Stages:        []Stage{{Name: "grep", Args: []string{"foo"}}},
		Justification: "need to search for error patterns",
	})
	if result.Decision != Allow {
		t.Errorf("got decision=%v, want allow", result.Decision)
	}
}

func TestEmptyStages(t *testing.T) {
	l1 := defaultLevel1()
	result := l1.Evaluate(&Request{Stages: nil})
	if result.Decision != Escalate {
		t.Errorf("got decision=%v, want escalate for empty stages", result.Decision)
	}
}

func TestHasAnyFlag(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		flags []string
		want  bool
	}{
		{"exact match", []string{"-f"}, []string{"-f"}, true},
		{"no match", []string{"-v"}, []string{"-f"}, false},
		{"combined short", []string{"-rf"}, []string{"-r"}, true},
		{"value suffix", []string{"-j4"}, []string{"-j"}, true},
		{"long with equals", []string{"--force=yes"}, []string{"--force"}, true},
		{"long exact", []string{"--force"}, []string{"--force"}, true},
		{"non-flag arg", []string{"hello"}, []string{"-f"}, false},
		{"empty args", nil, []string{"-f"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasAnyFlag(tt.args, tt.flags...); got != tt.want {
				t.Errorf("hasAnyFlag(%v, %v) = %v, want %v", tt.args, tt.flags, got, tt.want)
			}
		})
	}
}
