package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"reclone/internal/config"
	"reclone/internal/git"
	"reclone/internal/output"
	"reclone/internal/repo"
	"sort"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
)

const (
	ExitOK      = 0
	ExitPartial = 2
	ExitFatal   = 3
)

func exitCodeForRun(fatal, partial bool) int {
	// Exit code contract:
	// 0 = every clone succeeded (an empty batch included)
	// 2 = partial failure (at least one clone failed)
	// 3 = fatal error (the batch did not run)
	if fatal {
		return ExitFatal
	}
	if partial {
		return ExitPartial
	}
	return ExitOK
}

// Source is one batch: where refs come from and where they are cloned to.
type Source struct {
	// Name labels the batch in events and logs (plugins, parsers, github).
	Name string

	// DestRoot is the directory each ref is cloned under.
	DestRoot string

	Discover func(ctx context.Context) ([]repo.Ref, error)
}

type Engine struct {
	Cloner git.Cloner

	// Stdout receives dry-run listings, --emit streams and the summary.
	// Nil means os.Stdout.
	Stdout io.Writer

	// Console is the console sink writer. Nil means os.Stdout.
	Console io.Writer
}

func NewEngine(cloner git.Cloner) *Engine {
	return &Engine{Cloner: cloner}
}

func (e *Engine) stdout() io.Writer {
	if e.Stdout != nil {
		return e.Stdout
	}
	return os.Stdout
}

func (e *Engine) setupOutputManager(cfg *config.Config) (*output.Manager, error) {
	outMgr := output.NewManager()

	// Console Sink
	if !cfg.Output.NoConsole {
		console := e.Console
		if console == nil {
			console = e.stdout()
		}
		if err := outMgr.AddSink(output.NewConsoleSink(console, cfg.Output.ConsoleFormat)); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Emit Sinks (additional structured streams)
	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(e.stdout(), emit)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(es); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// File Sink
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Summary Sink
	if cfg.Output.Summary {
		ss, err := output.NewSummarySink(e.stdout())
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(ss); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

func (e *Engine) maybeDryRun(cfg *config.Config, refs []repo.Ref) (int, bool) {
	if !cfg.Runtime.DryRun {
		return 0, false
	}

	sorted := append([]repo.Ref(nil), refs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	w := e.stdout()
	for _, r := range sorted {
		fmt.Fprintf(w, "%s\t%s\n", r.Name, r.URL)
	}
	return ExitOK, true
}

// Run discovers src, clones the batch and returns the process exit code.
func (e *Engine) Run(ctx context.Context, cfg *config.Config, src Source) int {
	log := clog.FromContext(ctx).With("source", src.Name)

	if src.Discover == nil {
		log.Error("no discovery configured for source")
		return exitCodeForRun(true, false)
	}

	log.Info("Discovering repositories...")
	refs, err := src.Discover(ctx)
	if err != nil {
		log.Errorf("Error discovering repositories: %v", err)
		return exitCodeForRun(true, false)
	}
	log.Infof("Found %d repositories.", len(refs))

	if code, ok := e.maybeDryRun(cfg, refs); ok {
		return code
	}

	if e.Cloner == nil {
		log.Error("no git cloner configured")
		return exitCodeForRun(true, false)
	}
	if err := os.MkdirAll(src.DestRoot, 0o755); err != nil {
		log.Errorf("Error creating destination %s: %v", src.DestRoot, err)
		return exitCodeForRun(true, false)
	}

	outMgr, err := e.setupOutputManager(cfg)
	if err != nil {
		log.Errorf("Error creating output sinks: %v", err)
		return exitCodeForRun(true, false)
	}
	defer outMgr.Close()

	orch, err := NewOrchestrator(e.Cloner, cfg.Runtime.Workers, WithObserver(func(o repo.Outcome) {
		if o.Succeeded() {
			log.Debugf("cloned %s into %s", o.Ref.Name, o.Destination)
		} else {
			log.Warnf("clone %s failed: %s", o.Ref.Name, o.Message)
		}
		if err := outMgr.Write(o); err != nil {
			log.Warnf("write outcome for %s: %v", o.Ref.Name, err)
		}
	}))
	if err != nil {
		log.Errorf("Error creating orchestrator: %v", err)
		return exitCodeForRun(true, false)
	}

	runID := uuid.NewString()
	_ = outMgr.Write(output.Event{
		Type:    output.EventRunStarted,
		RunID:   runID,
		Source:  src.Name,
		Repos:   len(refs),
		Workers: orch.Workers(),
	})

	results := orch.Run(ctx, refs, src.DestRoot)
	ok, failed := results.Counts()
	code := exitCodeForRun(false, failed > 0)

	_ = outMgr.Write(output.Event{
		Type:      output.EventRunFinished,
		RunID:     runID,
		Source:    src.Name,
		Succeeded: ok,
		Failed:    failed,
		ExitCode:  &code,
	})

	if err := outMgr.Close(); err != nil {
		log.Errorf("Error closing output sinks: %v", err)
		return exitCodeForRun(true, false)
	}

	log.Infof("Cloned %d of %d repositories (%d failed).", ok, ok+failed, failed)
	if failed > 0 {
		log.Warnf("Failed repositories: %s", strings.Join(failedNames(results), ", "))
	}
	return code
}

func failedNames(results repo.Results) []string {
	failed := results.Failed()
	names := make([]string, 0, len(failed))
	for _, o := range failed {
		names = append(names, o.Ref.Name)
	}
	return names
}
