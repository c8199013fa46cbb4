package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"reclone/internal/git"
	"reclone/internal/repo"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const msgDestinationNotEmpty = "destination already exists and is not empty"

// Orchestrator clones a batch of refs on a bounded worker pool.
//
// Every ref gets exactly one Outcome. A failing clone never cancels its
// siblings, and Run does not return until every task has finished.
type Orchestrator struct {
	cloner   git.Cloner
	workers  int
	observer func(repo.Outcome)
}

type OrchestratorOption func(*Orchestrator)

// WithObserver registers fn to receive each outcome as it completes.
// Calls are serialized.
func WithObserver(fn func(repo.Outcome)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.observer = fn
	}
}

// NewOrchestrator returns an Orchestrator running at most workers clones at
// once. workers <= 0 selects runtime.GOMAXPROCS(0).
func NewOrchestrator(cloner git.Cloner, workers int, opts ...OrchestratorOption) (*Orchestrator, error) {
	if cloner == nil {
		return nil, errors.New("cloner is nil")
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	o := &Orchestrator{cloner: cloner, workers: workers}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	return o, nil
}

// Workers reports the effective concurrency limit.
func (o *Orchestrator) Workers() int {
	return o.workers
}

// Run clones every ref into destRoot/<name> and returns the outcomes keyed by
// name. A later ref with a duplicate name overwrites the earlier outcome.
func (o *Orchestrator) Run(ctx context.Context, refs []repo.Ref, destRoot string) repo.Results {
	results := make(repo.Results, len(refs))

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(o.workers)

	for _, ref := range refs {
		g.Go(func() error {
			out := o.cloneOne(ctx, ref, destRoot)

			mu.Lock()
			defer mu.Unlock()
			results[ref.Name] = out
			if o.observer != nil {
				o.observer(out)
			}
			// Tasks never fail the group; the outcome carries the error.
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (o *Orchestrator) cloneOne(ctx context.Context, ref repo.Ref, destRoot string) (out repo.Outcome) {
	dest := ref.Destination(destRoot)
	out = repo.Outcome{Ref: ref, Status: repo.StatusFailure, Destination: dest}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out.Status = repo.StatusFailure
			out.Message = fmt.Sprintf("clone panicked: %v", r)
		}
		out.Duration = time.Since(start)
	}()

	occupied, err := destinationOccupied(dest)
	if err != nil {
		out.Message = fmt.Sprintf("inspect destination: %v", err)
		return out
	}
	if occupied {
		out.Message = msgDestinationNotEmpty
		return out
	}

	if err := o.cloner.Clone(ctx, ref.URL, dest); err != nil {
		out.Message = err.Error()
		return out
	}
	out.Status = repo.StatusSuccess
	return out
}

// destinationOccupied reports whether path exists as a file or a non-empty
// directory.
func destinationOccupied(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !info.IsDir() {
		return true, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
