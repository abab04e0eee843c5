package main

import (
	"testing"

	"github.com/marcelocantos/doitsh/internal/pathcache"
)

func TestParseForPolicySingleStage(t *testing.T) {
	cache := pathcache.Build("")
	stages := parseForPolicy(`git push origin main`, cache)
	if len(stages) != 1 {
		t.Fatalf("got %d stages, want 1", len(stages))
	}
	if stages[0].Name != "git" {
		t.Errorf("name = %q, want git", stages[0].Name)
	}
	if len(stages[0].Args) != 3 || stages[0].Args[0] != "push" {
		t.Errorf("args = %v, want [push origin main]", stages[0].Args)
	}
}

func TestParseForPolicyPipeline(t *testing.T) {
	cache := pathcache.Build("")
	stages := parseForPolicy(`cat file.txt | grep foo | wc -l`, cache)
	if len(stages) != 3 {
		t.Fatalf("got %d stages, want 3", len(stages))
	}
	names := []string{stages[0].Name, stages[1].Name, stages[2].Name}
	want := []string{"cat", "grep", "wc"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("stage %d name = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestParseForPolicyStripsRedirection(t *testing.T) {
	cache := pathcache.Build("")
	stages := parseForPolicy(`echo hi > out.txt`, cache)
	if len(stages) != 1 || stages[0].Name != "echo" {
		t.Fatalf("got %+v", stages)
	}
	if len(stages[0].Args) != 1 || stages[0].Args[0] != "hi" {
		t.Errorf("args = %v, want [hi]", stages[0].Args)
	}
}
