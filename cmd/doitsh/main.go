package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marcelocantos/doitsh/internal/assistant"
	"github.com/marcelocantos/doitsh/internal/assistant/policy"
	"github.com/marcelocantos/doitsh/internal/auditlog"
	"github.com/marcelocantos/doitsh/internal/builtin"
	"github.com/marcelocantos/doitsh/internal/config"
	"github.com/marcelocantos/doitsh/internal/dispatch"
	"github.com/marcelocantos/doitsh/internal/executor"
	"github.com/marcelocantos/doitsh/internal/lexer"
	"github.com/marcelocantos/doitsh/internal/pathcache"
	"github.com/marcelocantos/doitsh/internal/pipesplit"
	"github.com/marcelocantos/doitsh/internal/readline"
	"github.com/marcelocantos/doitsh/internal/redirect"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("doitsh %s\n", version)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "doitsh: config: %v\n", err)
		return 1
	}

	if len(os.Args) > 1 && os.Args[1] == "--audit" {
		return runAudit(cfg, os.Args[2:])
	}

	var logger *auditlog.Logger
	if cfg.Audit.Enabled {
		sessionID := uuid.NewString()
		logger, err = auditlog.NewLogger(cfg.Audit.Path, sessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "audit: %v\n", err)
			logger = nil
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sh := newShell(cfg, logger)
	return sh.loop(ctx)
}

// runAudit implements the shell binary's "--audit verify" and "--audit
// tail N" subcommands over the configured audit log.
func runAudit(cfg *config.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: doitsh --audit verify|tail [N]")
		return 1
	}
	switch args[0] {
	case "verify":
		if err := auditlog.Verify(cfg.Audit.Path); err != nil {
			fmt.Fprintf(os.Stderr, "audit: %v\n", err)
			return 1
		}
		fmt.Println("audit log OK")
		return 0
	case "tail":
		n := 10
		if len(args) > 1 {
			fmt.Sscanf(args[1], "%d", &n)
		}
		entries, err := auditlog.Tail(cfg.Audit.Path, n)
		if err != nil {
			fmt.Fprintf(os.Stderr, "audit: %v\n", err)
			return 1
		}
		for _, e := range entries {
			fmt.Printf("%d %s %s %v\n", e.Seq, e.Time.Format(time.RFC3339), e.Line, e.ExitCodes)
		}
		return 0
	default:
		fmt.Fprintln(os.Stderr, "usage: doitsh --audit verify|tail [N]")
		return 1
	}
}

// shell holds every long-lived collaborator the REPL wires together:
// the path cache (built once at startup), the read-line/history
// collaborator, the confirmation policy engine, and the optional
// assistant client.
type shell struct {
	cfg    *config.Config
	logger *auditlog.Logger
	cache  *pathcache.Cache
	rl     *readline.Reader
	policy *policy.Engine
	client *assistant.Client
}

func newShell(cfg *config.Config, logger *auditlog.Logger) *shell {
	rl := readline.New(os.Stdin, os.Stdout)
	if cfg.ReadLine.HistFile == "" {
		cfg.ReadLine.HistFile = os.Getenv("HISTFILE")
	}
	if cfg.ReadLine.HistFile != "" {
		if _, err := rl.History.ReadFile(cfg.ReadLine.HistFile); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "history: %s: %v\n", cfg.ReadLine.HistFile, err)
		}
	}

	entries, _ := policy.LoadStore(cfg.Policy.LearnedStore)
	engine := &policy.Engine{
		Level1: policy.NewLevel1(nil),
		Level2: policy.NewLevel2(entries),
		Level3: policy.NewLevel3(&terminalConfirmer{rl: rl}),
	}
	if !cfg.Policy.Level1Enabled {
		engine.Level1 = nil
	}
	if !cfg.Policy.Level2Enabled {
		engine.Level2 = nil
	}

	client := &assistant.Client{Model: cfg.Prompt.Model, Timeout: cfg.Prompt.TimeoutDuration()}

	return &shell{
		cfg:    cfg,
		logger: logger,
		cache:  pathcache.Build(os.Getenv("PATH")),
		rl:     rl,
		policy: engine,
		client: client,
	}
}

func (sh *shell) loop(ctx context.Context) int {
	defer sh.rl.Close()
	if err := sh.rl.EnableRawMode(); err != nil {
		fmt.Fprintf(os.Stderr, "doitsh: %v\n", err)
	}

	for {
		if ctx.Err() != nil {
			sh.flushHistory()
			return 0
		}

		line, err := sh.rl.ReadLine(sh.prompt())
		switch {
		case err == readline.ErrInterrupted:
			continue
		case err == io.EOF:
			sh.flushHistory()
			return 0
		case err != nil:
			fmt.Fprintf(os.Stderr, "doitsh: %v\n", err)
			sh.flushHistory()
			return 1
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sh.rl.History.Add(line)

		assisted := false
		if req, ok := strings.CutPrefix(line, "# "); ok {
			candidate, ok := sh.runAssistant(ctx, req)
			if !ok {
				continue
			}
			line = candidate
			assisted = true
		}

		sh.runLine(ctx, line, assisted)
	}
}

func (sh *shell) prompt() string {
	display := os.Getenv("ENABLE_CUR_DIR_DISPLAY")
	if sh.cfg.ReadLine.EnableCurDirDisplay != nil {
		if *sh.cfg.ReadLine.EnableCurDirDisplay {
			display = "true"
		} else {
			display = "false"
		}
	}
	if display != "true" {
		return "$ "
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "$ "
	}
	return fmt.Sprintf("[%s] $ ", filepath.Base(cwd))
}

func (sh *shell) flushHistory() {
	if sh.cfg.ReadLine.HistFile == "" {
		return
	}
	if err := sh.rl.History.WriteFile(sh.cfg.ReadLine.HistFile); err != nil {
		fmt.Fprintf(os.Stderr, "history: %s: %v\n", sh.cfg.ReadLine.HistFile, err)
	}
}

// runAssistant turns a natural-language request into a confirmed candidate
// command, or reports false if the request was denied, escalated away, or
// failed outright. It never executes anything itself.
func (sh *shell) runAssistant(ctx context.Context, request string) (string, bool) {
	cwd, _ := os.Getwd()
	candidate, err := sh.client.Propose(ctx, request, cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "assistant: %v\n", err)
		return "", false
	}

	stages := parseForPolicy(candidate.Command, sh.cache)
	hasRedirect := false
	for _, s := range pipesplit.Split(candidate.Command) {
		if _, rset := redirect.Parse(s); rset.Stdout != nil || rset.Stderr != nil {
			hasRedirect = true
		}
	}
	preq := &policy.Request{
		Command:        candidate.Command,
		Stages:         stages,
		Cwd:            cwd,
		HasRedirectOut: hasRedirect,
		Justification:  candidate.Justification,
	}
	result := sh.policy.Evaluate(ctx, preq)
	switch result.Decision {
	case policy.Allow:
		if result.RuleID == "human-confirmation" {
			sh.maybeLearn(stages, candidate.Justification)
		}
		return candidate.Command, true
	case policy.Deny:
		fmt.Fprintf(os.Stderr, "assistant: denied: %s\n", result.Reason)
		return "", false
	default:
		fmt.Fprintf(os.Stderr, "assistant: escalated and not confirmed: %s\n", result.Reason)
		return "", false
	}
}

// maybeLearn offers to persist a just-confirmed candidate's stages as
// approved entries in the learned policy store, so the same pattern is
// auto-allowed by Level 2 in a future session instead of re-prompting.
func (sh *shell) maybeLearn(stages []policy.Stage, justification string) {
	answer, err := sh.rl.ReadLine("Remember this approval for next time? [y/N] ")
	if err != nil || strings.ToLower(strings.TrimSpace(answer)) != "y" {
		return
	}

	existing, _ := policy.LoadStore(sh.cfg.Policy.LearnedStore)
	now := time.Now()
	for _, st := range stages {
		existing = append(existing, policy.PolicyEntry{
			ID:         fmt.Sprintf("assistant-%s-%s", st.Name, uuid.NewString()[:8]),
			Match:      policy.MatchCriteria{Command: st.Name},
			Decision:   "allow",
			Reasoning:  justification,
			Provenance: "assistant",
			Approved:   true,
			Review: policy.ReviewSchedule{
				Created:      now,
				LastReviewed: now,
				NextReview:   policy.NextReviewTime(now, 0),
			},
		})
	}
	if err := policy.SaveStore(sh.cfg.Policy.LearnedStore, existing); err != nil {
		fmt.Fprintf(os.Stderr, "assistant: saving learned policy: %v\n", err)
		return
	}
	sh.policy.Level2 = policy.NewLevel2(existing)
}

// parseForPolicy splits, strips redirections from, and lexes candidate into
// policy.Stage values, mirroring the Pipesplit -> Redirect -> Lexer steps
// runLine uses for real input, so the confirmation policy sees the same
// stage names and arguments the executor will see. Redirection targets are
// dropped here; runAssistant reports their presence via HasRedirectOut.
func parseForPolicy(line string, cache *pathcache.Cache) []policy.Stage {
	raw := pipesplit.Split(line)
	stages := make([]policy.Stage, 0, len(raw))
	for _, s := range raw {
		residual, _ := redirect.Parse(s)
		tokens := lexer.Tokenize(residual)
		if len(tokens) == 0 {
			continue
		}
		stages = append(stages, policy.Stage{Name: tokens[0], Args: tokens[1:]})
	}
	return stages
}

// runLine parses and executes one accepted input line, then records it to
// the audit log. assisted marks a line that originated from the assistant.
func (sh *shell) runLine(ctx context.Context, line string, assisted bool) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "doitsh: panic: %v\n", r)
		}
	}()
	start := time.Now()
	cwd, _ := os.Getwd()

	rawStages := pipesplit.Split(line)
	stages := make([]executor.Stage, 0, len(rawStages))
	names := make([]string, 0, len(rawStages))
	for _, s := range rawStages {
		residual, rset := redirect.Parse(s)
		tokens := lexer.Tokenize(residual)
		if len(tokens) == 0 {
			continue
		}
		name := tokens[0]
		stages = append(stages, executor.Stage{
			Name:     name,
			Args:     tokens[1:],
			Redirect: rset,
			Dispatch: dispatch.Resolve(name, sh.cache),
		})
		names = append(names, name)
	}

	codes, err := executor.Execute(ctx, stages, os.Stdin, os.Stdout, os.Stderr, sh.rl.History)

	var errMsg string
	if err != nil {
		var exitErr *builtin.ExitError
		if errors.As(err, &exitErr) {
			sh.logLine(line, names, codes, "", time.Since(start), cwd, assisted)
			sh.flushHistory()
			os.Exit(exitErr.Code)
		}
		errMsg = err.Error()
	}

	sh.logLine(line, names, codes, errMsg, time.Since(start), cwd, assisted)
}

func (sh *shell) logLine(line string, segments []string, codes []int, errMsg string, dur time.Duration, cwd string, assisted bool) {
	if sh.logger == nil {
		return
	}
	if err := sh.logger.Log(line, segments, codes, errMsg, dur, cwd, assisted); err != nil {
		fmt.Fprintf(os.Stderr, "audit: %v\n", err)
	}
}

// terminalConfirmer implements policy.Confirmer by printing the prompt and
// reading one line of raw yes/no input from the shell's own read-line
// collaborator.
type terminalConfirmer struct {
	rl *readline.Reader
}

func (c *terminalConfirmer) Confirm(ctx context.Context, prompt string) (string, error) {
	line, err := c.rl.ReadLine(prompt)
	if err != nil {
		return "", err
	}
	return line, nil
}
