package policy

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Level1 evaluates assistant-proposed commands against deterministic rules.
type Level1 struct {
	rules []Rule
}

// Rule is a named, testable deterministic rule.
type Rule struct {
	ID          string
	Description string
	Bypassable  bool // true = can be bypassed once the user has retried
	Check       func(req *Request) *Result
}

// CommandRuleConfig is one command's argument rules as passed to NewLevel1.
// It carries yaml tags, but internal/config has no field of this type and
// cmd/doitsh builds Level 1 with no such rules.
type CommandRuleConfig struct {
	RejectFlags []string                        `yaml:"reject_flags"`
	Subcommands map[string]SubcommandRuleConfig `yaml:"subcommands"`
}

// SubcommandRuleConfig configures rules for one subcommand of a command
// (e.g. "push" under "git").
type SubcommandRuleConfig struct {
	RejectFlags []string `yaml:"reject_flags"`
}

// readOnlyCommands lists commands Level 1 trusts never to mutate anything,
// used by the safe-pipeline auto-allow rule.
var readOnlyCommands = map[string]bool{
	"echo": true, "pwd": true, "type": true, "history": true,
	"ls": true, "cat": true, "grep": true, "find": true, "wc": true,
	"head": true, "tail": true, "file": true, "stat": true, "which": true,
	"df": true, "du": true, "ps": true, "whoami": true, "date": true, "uname": true,
}

// NewLevel1 creates a Level1 engine with built-in and config-derived rules.
func NewLevel1(cfgRules map[string]CommandRuleConfig) *Level1 {
	l := &Level1{}

	l.rules = append(l.rules, Rule{
		ID:          "deny-rm-catastrophic",
		Description: "block recursive removal of root, home, or current directory",
		Check:       checkRmCatastrophic,
	})

	for name, cfg := range cfgRules {
		l.rules = append(l.rules, compileCommandRules(name, cfg)...)
	}

	l.rules = append(l.rules, Rule{
		ID:          "deny-git-checkout-all",
		Description: "block git checkout . which discards all changes",
		Bypassable:  true,
		Check:       checkGitCheckoutAll,
	})

	l.rules = append(l.rules, Rule{
		ID:          "allow-safe-pipeline",
		Description: "auto-allow pipelines where every stage is read-only and nothing is redirected to a file",
		Check:       checkSafePipeline,
	})

	return l
}

// Evaluate runs all rules in order. The first definitive result wins;
// Escalate means no rule had an opinion.
func (l *Level1) Evaluate(req *Request) *Result {
	for _, r := range l.rules {
		if r.Bypassable && req.Retry {
			continue
		}
		if result := r.Check(req); result != nil {
			return result
		}
	}
	return &Result{
		Decision: Escalate,
		Level:    1,
		Reason:   "no deterministic rule matched",
	}
}

// Rules returns the configured rule list, for inspection and testing.
func (l *Level1) Rules() []Rule {
	return l.rules
}

func checkRmCatastrophic(req *Request) *Result {
	for _, st := range req.Stages {
		if st.Name != "rm" {
			continue
		}
		if !hasAnyFlag(st.Args, "-r", "-R") {
			continue
		}
		for _, arg := range st.Args {
			if arg == "" || arg[0] == '-' {
				continue
			}
			cleaned := filepath.Clean(arg)
			if cleaned == "/" || cleaned == "." || cleaned == ".." {
				return &Result{
					Decision: Deny,
					Level:    1,
					Reason:   fmt.Sprintf("refusing to recursively remove %q (permanently blocked)", arg),
					RuleID:   "deny-rm-catastrophic",
				}
			}
			if arg == "~" || strings.HasPrefix(arg, "~/") {
				return &Result{
					Decision: Deny,
					Level:    1,
					Reason:   fmt.Sprintf("refusing to recursively remove %q (permanently blocked)", arg),
					RuleID:   "deny-rm-catastrophic",
				}
			}
		}
	}
	return nil
}

func checkGitCheckoutAll(req *Request) *Result {
	for _, st := range req.Stages {
		if st.Name != "git" || len(st.Args) == 0 || st.Args[0] != "checkout" {
			continue
		}
		for i, arg := range st.Args[1:] {
			cleaned := filepath.Clean(arg)
			if cleaned == "." {
				return denyCheckoutAll()
			}
			if arg == "--" && i+1 < len(st.Args[1:]) {
				if filepath.Clean(st.Args[i+2]) == "." {
					return denyCheckoutAll()
				}
			}
		}
	}
	return nil
}

func denyCheckoutAll() *Result {
	return &Result{
		Decision: Deny,
		Level:    1,
		Reason:   "checkout: refusing to discard all changes. Ask the user for explicit permission, then confirm and retry.",
		RuleID:   "deny-git-checkout-all",
	}
}

func checkSafePipeline(req *Request) *Result {
	if req.HasRedirectOut {
		return nil
	}
	if len(req.Stages) == 0 {
		return nil
	}
	for _, st := range req.Stages {
		if !readOnlyCommands[st.Name] {
			return nil
		}
	}
	return &Result{
		Decision: Allow,
		Level:    1,
		Reason:   "every stage is read-only and nothing is redirected to a file",
		RuleID:   "allow-safe-pipeline",
	}
}

func compileCommandRules(name string, cfg CommandRuleConfig) []Rule {
	var result []Rule

	if len(cfg.RejectFlags) > 0 {
		flags := cfg.RejectFlags
		result = append(result, Rule{
			ID:          fmt.Sprintf("deny-%s-flags", name),
			Description: fmt.Sprintf("reject flags %v for %s", flags, name),
			Bypassable:  true,
			Check: func(req *Request) *Result {
				for _, st := range req.Stages {
					if st.Name != name {
						continue
					}
					if hasAnyFlag(st.Args, flags...) {
						return &Result{
							Decision: Deny,
							Level:    1,
							Reason:   fmt.Sprintf("rejected flag for %s (config rule); confirm and retry to proceed anyway", name),
							RuleID:   fmt.Sprintf("deny-%s-flags", name),
						}
					}
				}
				return nil
			},
		})
	}

	for subcmd, subRule := range cfg.Subcommands {
		if len(subRule.RejectFlags) == 0 {
			continue
		}
		flags := subRule.RejectFlags
		sub := subcmd
		result = append(result, Rule{
			ID:          fmt.Sprintf("deny-%s-%s-flags", name, sub),
			Description: fmt.Sprintf("reject flags %v for %s %s", flags, name, sub),
			Bypassable:  true,
			Check: func(req *Request) *Result {
				for _, st := range req.Stages {
					if st.Name != name || len(st.Args) == 0 || st.Args[0] != sub {
						continue
					}
					if hasAnyFlag(st.Args[1:], flags...) {
						return &Result{
							Decision: Deny,
							Level:    1,
							Reason:   fmt.Sprintf("%s: rejected flag for %s (config rule); confirm and retry to proceed anyway", sub, name),
							RuleID:   fmt.Sprintf("deny-%s-%s-flags", name, sub),
						}
					}
				}
				return nil
			},
		})
	}

	return result
}

// hasAnyFlag reports whether any element of args matches one of flags,
// handling exact matches, combined short flags ("-rf" matching "-r"),
// short flags with a value suffix ("-j4" matching "-j"), and long flags
// with "=" ("--force=yes" matching "--force").
func hasAnyFlag(args []string, flags ...string) bool {
	for _, arg := range args {
		if arg == "" || arg[0] != '-' {
			continue
		}
		for _, flag := range flags {
			if arg == flag {
				return true
			}
			if len(flag) == 2 && flag[0] == '-' && flag[1] != '-' &&
				len(arg) > 2 && arg[0] == '-' && arg[1] != '-' {
				if strings.ContainsRune(arg[1:], rune(flag[1])) {
					return true
				}
			}
			if len(flag) > 2 && flag[0:2] == "--" && strings.HasPrefix(arg, flag+"=") {
				return true
			}
		}
	}
	return false
}
