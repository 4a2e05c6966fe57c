// Package committer drives the upload worklist: it partitions entries into
// bounded batches and commits each batch to the hub with a bounded-retry
// loop. Per batch the state machine is
// Pending -> Attempting -> {Committed | Pending (retry < max) | FailedTerminal}.
// A terminal batch halts the run; later batches are never attempted, so the
// hub history stays a clean prefix of successful commits and a re-run
// resumes where this one stopped.
package committer

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hugeolab/hubsync/internal/hub"
	"github.com/hugeolab/hubsync/internal/logging"
	"github.com/hugeolab/hubsync/internal/sync/planner"
	"github.com/hugeolab/hubsync/internal/types"
	"github.com/hugeolab/hubsync/internal/utils"
)

// Config bounds the commit loop.
type Config struct {
	BatchSize  int
	MaxRetries int           // attempts per batch, not retries after the first
	RetryDelay time.Duration // fixed delay between attempts
	Message    string
}

// Committer uploads batches to a Store.
type Committer struct {
	store  hub.Store
	config Config
	logger logging.Logger
}

// Result reports what a run achieved. FailedBatch is the 1-based index of
// the terminal batch, nil when every batch committed.
type Result struct {
	Batches     int
	Committed   int
	Uploaded    int
	FailedBatch *int
}

// New creates a committer. Zero config fields fall back to defaults.
func New(store hub.Store, config Config, logger logging.Logger) *Committer {
	if config.BatchSize <= 0 {
		config.BatchSize = utils.DefaultBatchSize
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = utils.DefaultMaxRetries
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Duration(utils.DefaultRetryDelaySecs) * time.Second
	}
	if config.Message == "" {
		config.Message = utils.DefaultCommitMessage
	}
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Committer{store: store, config: config, logger: logger}
}

// Partition splits entries into contiguous batches of at most size,
// preserving order. len(result) == ceil(len(entries)/size) and the
// concatenation of all batches reconstructs entries exactly.
func Partition(entries []types.Entry, size int) [][]types.Entry {
	if size <= 0 || len(entries) == 0 {
		if len(entries) == 0 {
			return nil
		}
		return [][]types.Entry{entries}
	}
	batches := make([][]types.Entry, 0, (len(entries)+size-1)/size)
	for start := 0; start < len(entries); start += size {
		end := start + size
		if end > len(entries) {
			end = len(entries)
		}
		batches = append(batches, entries[start:end])
	}
	return batches
}

// Run commits the worklist batch by batch. Each successful batch is its own
// atomic hub commit; a batch that exhausts its attempts halts the run and
// the failing index is reported in both the Result and the returned error.
func (c *Committer) Run(ctx context.Context, repo string, entries []types.Entry) (Result, error) {
	batches := Partition(entries, c.config.BatchSize)
	result := Result{Batches: len(batches)}

	if len(batches) == 0 {
		c.logger.Info("Nothing to upload", logging.F("repo", repo))
		return result, nil
	}

	c.logger.Info("Starting batched upload",
		logging.F("repo", repo),
		logging.F("files", len(entries)),
		logging.F("batches", len(batches)),
		logging.F("batchSize", c.config.BatchSize),
	)

	for i, batch := range batches {
		index := i + 1
		message := fmt.Sprintf("%s (batch %d/%d)", c.config.Message, index, len(batches))

		if err := c.commitBatch(ctx, repo, batch, message, index); err != nil {
			result.FailedBatch = &index
			c.logger.Error("Batch failed terminally, halting remaining batches",
				logging.F("batch", index),
				logging.F("remaining", len(batches)-index),
				logging.F("error", err.Error()),
			)
			return result, utils.NewAppError(utils.NewCLIError(utils.ErrCodeTerminalCommit,
				fmt.Sprintf("batch %d/%d failed after %d attempts: %v",
					index, len(batches), c.config.MaxRetries, err)).
				WithContext("failedBatch", index).Build())
		}

		result.Committed++
		result.Uploaded += len(batch)
		c.logger.Info("Batch committed",
			logging.F("batch", index),
			logging.F("files", len(batch)),
		)
	}

	return result, nil
}

// commitBatch attempts one batch up to MaxRetries times with a fixed delay
// between attempts. Non-retryable errors (auth, missing local file) fail
// immediately.
func (c *Committer) commitBatch(ctx context.Context, repo string, batch []types.Entry, message string, index int) error {
	files := make([]hub.CommitFile, len(batch))
	for i, entry := range batch {
		files[i] = hub.CommitFile{
			Path:   planner.Normalize(entry.RelativePath),
			Source: entry.AbsPath,
		}
	}

	attempt := 0
	operation := func() error {
		attempt++
		err := c.store.CommitFiles(ctx, repo, files, message)
		if err == nil {
			return nil
		}
		if !hub.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		c.logger.Warn("Batch commit failed, will retry",
			logging.F("batch", index),
			logging.F("attempt", attempt),
			logging.F("maxAttempts", c.config.MaxRetries),
			logging.F("error", err.Error()),
		)
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(c.config.RetryDelay),
			uint64(c.config.MaxRetries-1),
		),
		ctx,
	)
	return backoff.Retry(operation, policy)
}
