package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reclone/internal/config"
	"reclone/internal/output"
	"reclone/internal/repo"
	"strings"
	"testing"

	"github.com/chainguard-dev/clog"
	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
)

func init() {
	color.NoColor = true
}

func TestExitCodeForRun(t *testing.T) {
	tests := []struct {
		fatal, partial bool
		want           int
	}{
		{false, false, 0},
		{false, true, 2},
		{true, false, 3},
		{true, true, 3},
	}
	for _, tt := range tests {
		if got := exitCodeForRun(tt.fatal, tt.partial); got != tt.want {
			t.Fatalf("exitCodeForRun(%v, %v) = %d, want %d", tt.fatal, tt.partial, got, tt.want)
		}
	}
}

func staticSource(root string, refs []repo.Ref, err error) Source {
	return Source{
		Name:     "test",
		DestRoot: root,
		Discover: func(context.Context) ([]repo.Ref, error) { return refs, err },
	}
}

func newTestEngine(fc *fakeCloner) (*Engine, *bytes.Buffer, *bytes.Buffer) {
	var stdout, console bytes.Buffer
	e := NewEngine(fc)
	e.Stdout = &stdout
	e.Console = &console
	return e, &stdout, &console
}

func TestEngineRun_AllSucceed(t *testing.T) {
	root := t.TempDir()
	e, _, console := newTestEngine(&fakeCloner{})
	cfg := config.New()
	cfg.Runtime.Workers = 2

	code := e.Run(context.Background(), cfg, staticSource(root, makeRefs(t, 3), nil))
	if code != ExitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if n := strings.Count(console.String(), "[OK]"); n != 3 {
		t.Fatalf("expected 3 [OK] lines, got %d:\n%s", n, console.String())
	}
	for _, name := range []string{"r00", "r01", "r02"} {
		if _, err := os.Stat(filepath.Join(root, name, "README")); err != nil {
			t.Fatalf("expected clone of %s: %v", name, err)
		}
	}
}

func TestEngineRun_OneInvalidOfFive(t *testing.T) {
	refs := makeRefs(t, 5)
	fc := &fakeCloner{failing: map[string]bool{refs[3].URL: true}}
	e, _, console := newTestEngine(fc)
	cfg := config.New()
	cfg.Runtime.Workers = 2

	code := e.Run(context.Background(), cfg, staticSource(t.TempDir(), refs, nil))
	if code != ExitPartial {
		t.Fatalf("expected exit 2, got %d", code)
	}
	out := console.String()
	if strings.Count(out, "[OK]") != 4 || strings.Count(out, "[FAILED]") != 1 {
		t.Fatalf("expected 4 successes and 1 failure:\n%s", out)
	}
	if !strings.Contains(out, "[FAILED] "+refs[3].Name) {
		t.Fatalf("failure line should name %s:\n%s", refs[3].Name, out)
	}
}

func TestEngineRun_LogsFailedNamesSorted(t *testing.T) {
	refs := makeRefs(t, 4)
	fc := &fakeCloner{failing: map[string]bool{refs[3].URL: true, refs[1].URL: true}}
	e, _, _ := newTestEngine(fc)

	var logs bytes.Buffer
	ctx := clog.WithLogger(context.Background(), clog.New(slog.NewTextHandler(&logs, nil)))

	if code := e.Run(ctx, config.New(), staticSource(t.TempDir(), refs, nil)); code != ExitPartial {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !strings.Contains(logs.String(), "Failed repositories: r01, r03") {
		t.Fatalf("expected sorted failure list in logs, got:\n%s", logs.String())
	}
}

func TestEngineRun_EmptyBatch(t *testing.T) {
	e, _, _ := newTestEngine(&fakeCloner{})
	if code := e.Run(context.Background(), config.New(), staticSource(t.TempDir(), nil, nil)); code != ExitOK {
		t.Fatalf("empty batch should exit 0, got %d", code)
	}
}

func TestEngineRun_DiscoveryErrorIsFatal(t *testing.T) {
	fc := &fakeCloner{}
	e, _, _ := newTestEngine(fc)
	code := e.Run(context.Background(), config.New(), staticSource(t.TempDir(), nil, errors.New("no such dir")))
	if code != ExitFatal {
		t.Fatalf("expected exit 3, got %d", code)
	}
	if fc.calls.Load() != 0 {
		t.Fatalf("cloner must not run after a discovery error")
	}
}

func TestEngineRun_DryRun(t *testing.T) {
	fc := &fakeCloner{}
	e, stdout, _ := newTestEngine(fc)
	cfg := config.New()
	cfg.Runtime.DryRun = true
	refs := []repo.Ref{
		{Name: "zeta", URL: "https://x/zeta.git"},
		{Name: "alpha", URL: "https://x/alpha.git"},
	}

	if code := e.Run(context.Background(), cfg, staticSource(t.TempDir(), refs, nil)); code != ExitOK {
		t.Fatalf("dry run should exit 0, got %d", code)
	}
	want := "alpha\thttps://x/alpha.git\nzeta\thttps://x/zeta.git\n"
	if diff := cmp.Diff(want, stdout.String()); diff != "" {
		t.Fatalf("dry run output mismatch (-want +got):\n%s", diff)
	}
	if fc.calls.Load() != 0 {
		t.Fatalf("dry run must not clone")
	}
}

func TestEngineRun_SinkErrorIsFatal(t *testing.T) {
	e, _, _ := newTestEngine(&fakeCloner{})
	cfg := config.New()
	cfg.Output.Out = filepath.Join(t.TempDir(), "out.txt")

	if code := e.Run(context.Background(), cfg, staticSource(t.TempDir(), makeRefs(t, 1), nil)); code != ExitFatal {
		t.Fatalf("expected exit 3 for an unusable --out, got %d", code)
	}
}

func TestEngineRun_NDJSONEmitLifecycle(t *testing.T) {
	refs := makeRefs(t, 2)
	fc := &fakeCloner{failing: map[string]bool{refs[0].URL: true}}
	e, stdout, _ := newTestEngine(fc)
	cfg := config.New()
	cfg.Output.NoConsole = true
	cfg.Output.Emit = []string{"ndjson"}
	cfg.Runtime.Workers = 1

	if code := e.Run(context.Background(), cfg, staticSource(t.TempDir(), refs, nil)); code != ExitPartial {
		t.Fatalf("expected exit 2, got %d", code)
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 events, got %d:\n%s", len(lines), stdout.String())
	}
	var first, last output.Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode first event: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &last); err != nil {
		t.Fatalf("decode last event: %v", err)
	}
	if first.Type != output.EventRunStarted || first.Repos != 2 || first.Workers != 1 || first.RunID == "" {
		t.Fatalf("unexpected run.started: %+v", first)
	}
	if last.Type != output.EventRunFinished || last.Succeeded != 1 || last.Failed != 1 || last.ExitCode == nil || *last.ExitCode != ExitPartial {
		t.Fatalf("unexpected run.finished: %+v", last)
	}
	if last.RunID != first.RunID {
		t.Fatalf("run id changed between events: %q vs %q", first.RunID, last.RunID)
	}
}

func TestEngineRun_FileAndSummarySinks(t *testing.T) {
	e, stdout, _ := newTestEngine(&fakeCloner{})
	cfg := config.New()
	cfg.Output.NoConsole = true
	cfg.Output.Summary = true
	outPath := filepath.Join(t.TempDir(), "results.json")
	cfg.Output.Out = outPath

	if code := e.Run(context.Background(), cfg, staticSource(t.TempDir(), makeRefs(t, 2), nil)); code != ExitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}

	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var outcomes []repo.Outcome
	if err := json.Unmarshal(b, &outcomes); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes in file, got %d", len(outcomes))
	}
	if !strings.Contains(stdout.String(), "2 succeeded, 0 failed") {
		t.Fatalf("expected summary on stdout, got:\n%s", stdout.String())
	}
}

func TestEngineRun_CreatesDestRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "tree_objs")
	e, _, _ := newTestEngine(&fakeCloner{})
	if code := e.Run(context.Background(), config.New(), staticSource(root, makeRefs(t, 1), nil)); code != ExitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if _, err := os.Stat(filepath.Join(root, "r00")); err != nil {
		t.Fatalf("expected clone under nested root: %v", err)
	}
}
