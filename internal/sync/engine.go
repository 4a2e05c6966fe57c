// Package sync orchestrates the asset pipeline: local scan, remote probe,
// diff, and batched commit. The probe is fail-open (a degraded probe means
// redundant re-uploads at worst); the commit loop is fail-closed (a terminal
// batch halts the run). These policies are asymmetric on purpose.
package sync

import (
	"context"
	"time"

	"github.com/hugeolab/hubsync/internal/config"
	"github.com/hugeolab/hubsync/internal/hub"
	"github.com/hugeolab/hubsync/internal/logging"
	"github.com/hugeolab/hubsync/internal/scan"
	"github.com/hugeolab/hubsync/internal/sync/committer"
	"github.com/hugeolab/hubsync/internal/sync/planner"
	"github.com/hugeolab/hubsync/internal/types"
)

// Engine runs the asset pipeline against a Store.
type Engine struct {
	store  hub.Store
	cfg    *config.Config
	logger logging.Logger
}

// Plan is the outcome of the read-only pipeline half.
type Plan struct {
	Inventory *scan.Inventory
	Remote    map[string]struct{}
	ToUpload  []types.Entry
	Skipped   int
	// Degraded is set when the remote probe failed and the remote was
	// treated as empty.
	Degraded bool
}

// NewEngine creates an engine.
func NewEngine(store hub.Store, cfg *config.Config, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Engine{store: store, cfg: cfg, logger: logger}
}

// Plan scans the dataset root, probes the hub, and diffs the two. A failed
// probe degrades to an empty remote set rather than aborting: the worst
// case is re-uploading files the hub already has.
func (e *Engine) Plan(ctx context.Context) (*Plan, error) {
	inv, err := scan.Scan(ctx, e.cfg.DatasetRoot, scan.Options{
		AssetsDir:       e.cfg.AssetsDir,
		AnnotationsFile: e.cfg.AnnotationsFile,
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("Scanned local dataset",
		logging.F("root", e.cfg.DatasetRoot),
		logging.F("assets", len(inv.Assets)),
		logging.F("ancillary", len(inv.Ancillary)),
	)

	plan := &Plan{Inventory: inv}

	remote, err := e.store.ListPaths(ctx, e.cfg.HubRepo)
	if err != nil {
		e.logger.Warn("Remote probe failed, treating remote as empty",
			logging.F("repo", e.cfg.HubRepo),
			logging.F("error", err.Error()),
		)
		remote = map[string]struct{}{}
		plan.Degraded = true
	} else {
		e.logger.Info("Probed remote state",
			logging.F("repo", e.cfg.HubRepo),
			logging.F("existing", len(remote)),
		)
	}
	plan.Remote = remote

	plan.ToUpload, plan.Skipped = planner.Plan(inv.Assets, remote)
	e.logger.Info("Planned upload",
		logging.F("toUpload", len(plan.ToUpload)),
		logging.F("skipped", plan.Skipped),
	)
	return plan, nil
}

// Apply commits the planned worklist. With dryRun set it only reports what
// would happen. The returned Outcome always satisfies
// Attempted == Skipped + Uploaded when FailedBatch is nil.
func (e *Engine) Apply(ctx context.Context, plan *Plan, dryRun bool) (types.Outcome, error) {
	outcome := types.Outcome{
		Attempted: len(plan.Inventory.Assets),
		Skipped:   plan.Skipped,
	}

	if dryRun {
		e.logger.Info("Dry run, skipping upload",
			logging.F("wouldUpload", len(plan.ToUpload)),
		)
		return outcome, nil
	}

	c := committer.New(e.store, committer.Config{
		BatchSize:  e.cfg.BatchSize,
		MaxRetries: e.cfg.MaxRetries,
		RetryDelay: time.Duration(e.cfg.RetryDelaySecs) * time.Second,
		Message:    e.cfg.CommitMessage,
	}, e.logger)

	result, err := c.Run(ctx, e.cfg.HubRepo, plan.ToUpload)
	outcome.Uploaded = result.Uploaded
	outcome.FailedBatch = result.FailedBatch
	if err != nil {
		return outcome, err
	}
	return outcome, nil
}
