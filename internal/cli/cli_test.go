package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/j840425/plan-estudio/core/state"
	"github.com/j840425/plan-estudio/internal/config"
)

// stubRunner returns a fixed state without touching any collaborator.
type stubRunner struct {
	st    *state.State
	err   error
	level state.Level
	topic string
}

func (s *stubRunner) Run(_ context.Context, topic string, level state.Level) (*state.State, error) {
	s.topic = topic
	s.level = level
	return s.st, s.err
}

// withStubRunner swaps the runner factory for the duration of a test.
func withStubRunner(t *testing.T, runner *stubRunner) {
	t.Helper()
	original := buildRunner
	buildRunner = func(config.Config, *slog.Logger) (planRunner, error) {
		return runner, nil
	}
	t.Cleanup(func() { buildRunner = original })
}

func plannedState(limited bool) *state.State {
	st := state.New("Go", state.LevelBeginner)
	st.FinalOutput = "PLAN DE ESTUDIO PERSONALIZADO\ncontenido"
	st.Limited = limited
	return st
}

func execute(t *testing.T, args ...string) (stdout string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), err
}

func TestRootCommand_WritesPlanFile(t *testing.T) {
	runner := &stubRunner{st: plannedState(false)}
	withStubRunner(t, runner)
	dir := t.TempDir()

	stdout, err := execute(t, "Concurrencia", "en", "Go",
		"--level", "intermediate", "--output-dir", dir, "--quiet")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if runner.topic != "Concurrencia en Go" {
		t.Errorf("topic = %q", runner.topic)
	}
	if runner.level != state.LevelIntermediate {
		t.Errorf("level = %q", runner.level)
	}
	if !strings.Contains(stdout, "PLAN DE ESTUDIO PERSONALIZADO") {
		t.Error("plan not echoed to stdout")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("files written = %d, want 1", len(entries))
	}
	name := entries[0].Name()
	if !strings.HasPrefix(name, "plan_estudio_concurrencia_en_go_") || !strings.HasSuffix(name, ".txt") {
		t.Errorf("file name = %q", name)
	}
	if strings.Contains(name, "_LIMITED") {
		t.Errorf("complete plan must not be marked limited: %q", name)
	}
}

func TestRootCommand_LimitedPlanIsMarkedAndStillSucceeds(t *testing.T) {
	withStubRunner(t, &stubRunner{st: plannedState(true)})
	dir := t.TempDir()

	if _, err := execute(t, "Go", "--output-dir", dir, "--quiet"); err != nil {
		t.Fatalf("Execute() error = %v, want success for limited output", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || !strings.Contains(entries[0].Name(), "_LIMITED") {
		t.Errorf("limited marker missing: %v", entries)
	}
}

func TestRootCommand_ExtraCopy(t *testing.T) {
	withStubRunner(t, &stubRunner{st: plannedState(false)})
	dir := t.TempDir()
	copyPath := filepath.Join(dir, "copia.txt")

	if _, err := execute(t, "Go", "--output-dir", dir, "--output", copyPath, "--quiet"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	content, err := os.ReadFile(copyPath)
	if err != nil {
		t.Fatalf("extra copy not written: %v", err)
	}
	if !strings.Contains(string(content), "PLAN DE ESTUDIO") {
		t.Errorf("copy content = %q", content)
	}
}

func TestRootCommand_Failures(t *testing.T) {
	t.Run("no topic", func(t *testing.T) {
		withStubRunner(t, &stubRunner{st: plannedState(false)})
		if _, err := execute(t); err == nil {
			t.Error("want error without a topic argument")
		}
	})

	t.Run("blank topic", func(t *testing.T) {
		withStubRunner(t, &stubRunner{st: plannedState(false)})
		if _, err := execute(t, "   "); err == nil {
			t.Error("want error for a blank topic")
		}
	})

	t.Run("unknown level", func(t *testing.T) {
		withStubRunner(t, &stubRunner{st: plannedState(false)})
		if _, err := execute(t, "Go", "--level", "expert"); err == nil {
			t.Error("want error for an unknown level")
		}
	})

	t.Run("runner error", func(t *testing.T) {
		withStubRunner(t, &stubRunner{err: errors.New("boom")})
		if _, err := execute(t, "Go", "--quiet"); err == nil {
			t.Error("want the runner error surfaced")
		}
	})

	t.Run("empty output", func(t *testing.T) {
		withStubRunner(t, &stubRunner{st: state.New("Go", state.LevelBeginner)})
		if _, err := execute(t, "Go", "--quiet"); err == nil {
			t.Error("want error when no plan was produced")
		}
	})

	t.Run("missing config file", func(t *testing.T) {
		withStubRunner(t, &stubRunner{st: plannedState(false)})
		if _, err := execute(t, "Go", "--config", "/no/existe.toml"); err == nil {
			t.Error("want error for an explicit missing config file")
		}
	})
}

func TestOutputFilename(t *testing.T) {
	now := time.Date(2026, 8, 23, 15, 4, 5, 0, time.UTC)

	got := outputFilename("Teoría de Grafos", false, now)
	if got != "plan_estudio_teoría_de_grafos_20260823_150405.txt" {
		t.Errorf("outputFilename() = %q", got)
	}

	limited := outputFilename("Go", true, now)
	if limited != "plan_estudio_go_20260823_150405_LIMITED.txt" {
		t.Errorf("outputFilename() = %q", limited)
	}
}
