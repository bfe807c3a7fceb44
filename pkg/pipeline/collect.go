package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/wflens/pkg/dax"
	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/kickstart"
	"github.com/matzehuels/wflens/pkg/stampede"
)

// RunRecords are the invocation records of one Pegasus run directory.
type RunRecords struct {
	// RunGroup and Run name the run for CSV output: the parent directory
	// and the run directory itself.
	RunGroup string
	Run      string
	// Records are grouped by transformation in sorted order, and in
	// invocation order within a transformation.
	Records         []*kickstart.Record
	Transformations []string
	// Unreadable lists record paths that could not be parsed.
	Unreadable []string
	Elapsed    time.Duration
}

// CollectOptions configures [Runner.CollectRun].
type CollectOptions struct {
	// Workflow supplies the declared data files of every job. Without it
	// records carry no input or output file statistics.
	Workflow *dax.Workflow
	// MainJobsOnly leaves out auxiliary jobs such as stage-in and cleanup.
	MainJobsOnly bool
}

// CollectRun locates the stampede database in runDir and reads every
// invocation record it lists. Records that fail to parse are skipped and
// reported in [RunRecords.Unreadable].
func (r *Runner) CollectRun(ctx context.Context, runDir string, opts CollectOptions) (*RunRecords, error) {
	start := time.Now()
	path, err := stampede.Find(runDir)
	if err != nil {
		return nil, err
	}
	db, err := stampede.Open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	transformations, err := db.Transformations(ctx, opts.MainJobsOnly)
	if err != nil {
		return nil, err
	}

	var usage map[string]dax.Usage
	if opts.Workflow != nil {
		usage = opts.Workflow.FileUsage()
	}

	abs, _ := filepath.Abs(runDir)
	out := &RunRecords{
		RunGroup:        filepath.Base(filepath.Dir(abs)),
		Run:             filepath.Base(abs),
		Transformations: transformations,
	}
	for _, tr := range transformations {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "collect %s", runDir)
		}
		paths, err := db.InvocationPaths(ctx, tr)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			inv, err := kickstart.ParseFile(p)
			if err != nil {
				r.Logger.Warn("skipping invocation record", "path", p, "error", err)
				out.Unreadable = append(out.Unreadable, p)
				continue
			}
			if len(inv.Missing) > 0 {
				r.Logger.Debug("incomplete invocation record", "path", p, "missing", strings.Join(inv.Missing, ","))
			}
			out.Records = append(out.Records, kickstart.Enrich(inv, usage[inv.JobID]))
		}
	}
	out.Elapsed = time.Since(start)
	r.Logger.Debug("collected run", "dir", runDir, "records", len(out.Records), "unreadable", len(out.Unreadable))
	return out, nil
}
