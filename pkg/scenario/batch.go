package scenario

import (
	"context"
	"fmt"

	"github.com/mandelsoft/goutils/sliceutils"
	"github.com/mandelsoft/logging"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"github.com/mandelsoft/animated/pkg/pool"
)

const CMD_RUN = "run"

// BatchResult is the outcome of a scenario run by RunBatch.
type BatchResult struct {
	Path   string  `json:"path"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// BatchOptions configures RunBatch.
type BatchOptions struct {
	Workers int
	// Frames overrides the frame limit of the scenarios if greater than zero.
	Frames    int
	Variables map[string]string
}

// RunBatch loads and runs scenarios with a pool of workers. Every
// scenario is run by a single worker with its own manager. The
// results are provided in the order of the (deduplicated) paths.
// Failing scenarios are reported in their result entry.
func RunBatch(ctx context.Context, lctx logging.Context, fs vfs.FileSystem, opts BatchOptions, paths ...string) ([]BatchResult, error) {
	if lctx == nil {
		lctx = logging.DefaultContext()
	}
	paths = sliceutils.AppendUnique([]string(nil), paths...)
	if len(paths) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	finished := make(chan BatchResult, len(paths))
	p := pool.NewPool(lctx, "scenarios", opts.Workers, 0)
	p.AddAction(CMD_RUN, pool.ActionFunc(func(_ pool.Pool, log logging.Logger, cmd pool.Command) pool.Status {
		path := cmd.Arg()
		r, err := runFile(lctx, fs, path, opts)
		if err != nil {
			log.LogError(err, "scenario {{path}} failed", "path", path)
			finished <- BatchResult{Path: path, Error: err.Error()}
			return pool.StatusFailed(err)
		}
		finished <- BatchResult{Path: path, Result: r}
		return pool.StatusCompleted()
	}))

	ready, done, err := p.Start(ctx)
	if err != nil {
		return nil, err
	}
	if err := ready.Wait(); err != nil {
		return nil, err
	}
	for _, path := range paths {
		p.EnqueueCommand(pool.NewCommand(CMD_RUN, path))
	}

	results := map[string]BatchResult{}
	for len(results) < len(paths) {
		select {
		case r := <-finished:
			results[r.Path] = r
		case <-ctx.Done():
			cancel()
			done.Wait()
			return nil, fmt.Errorf("batch aborted: %w", ctx.Err())
		}
	}
	cancel()
	if err := done.Wait(); err != nil {
		return nil, err
	}
	return sliceutils.Transform(paths, func(path string) BatchResult { return results[path] }), nil
}

func runFile(lctx logging.Context, fs vfs.FileSystem, path string, opts BatchOptions) (*Result, error) {
	s, err := Load(fs, path, opts.Variables)
	if err != nil {
		return nil, err
	}
	if opts.Frames > 0 {
		s.Frames = opts.Frames
	}
	return s.Run(lctx)
}
