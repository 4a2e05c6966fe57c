package committer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hugeolab/hubsync/internal/hub"
	"github.com/hugeolab/hubsync/internal/types"
	"github.com/hugeolab/hubsync/internal/utils"
)

// fakeStore scripts commit outcomes per call.
type fakeStore struct {
	calls    int
	commits  [][]hub.CommitFile
	failFunc func(call int, files []hub.CommitFile) error
}

func (s *fakeStore) ListPaths(ctx context.Context, repo string) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (s *fakeStore) CommitFiles(ctx context.Context, repo string, files []hub.CommitFile, message string) error {
	s.calls++
	if s.failFunc != nil {
		if err := s.failFunc(s.calls, files); err != nil {
			return err
		}
	}
	s.commits = append(s.commits, files)
	return nil
}

func retryableErr() error {
	return utils.NewAppError(utils.NewCLIError(utils.ErrCodeNetworkError, "hub returned 503").
		WithRetryable(true).Build())
}

func permanentErr() error {
	return utils.NewAppError(utils.NewCLIError(utils.ErrCodeAuthRequired, "invalid token").Build())
}

func makeEntries(n int) []types.Entry {
	entries := make([]types.Entry, n)
	for i := range entries {
		entries[i] = types.Entry{
			RelativePath: fmt.Sprintf("img_%03d.jpg", i),
			AbsPath:      fmt.Sprintf("/data/img_%03d.jpg", i),
			Category:     types.CategoryAsset,
		}
	}
	return entries
}

func fastConfig(batchSize int) Config {
	return Config{
		BatchSize:  batchSize,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
		Message:    "test upload",
	}
}

func TestPartition(t *testing.T) {
	tests := []struct {
		n, size   int
		wantSizes []int
	}{
		{0, 2, nil},
		{1, 2, []int{1}},
		{4, 2, []int{2, 2}},
		{5, 2, []int{2, 2, 1}},
		{500, 500, []int{500}},
		{501, 500, []int{500, 1}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d size=%d", tt.n, tt.size), func(t *testing.T) {
			entries := makeEntries(tt.n)
			batches := Partition(entries, tt.size)

			if len(batches) != len(tt.wantSizes) {
				t.Fatalf("batch count = %d, want %d", len(batches), len(tt.wantSizes))
			}
			var rebuilt []types.Entry
			for i, batch := range batches {
				if len(batch) != tt.wantSizes[i] {
					t.Errorf("batch %d size = %d, want %d", i, len(batch), tt.wantSizes[i])
				}
				rebuilt = append(rebuilt, batch...)
			}
			for i := range rebuilt {
				if rebuilt[i].RelativePath != entries[i].RelativePath {
					t.Fatalf("concatenated batches diverge at %d", i)
				}
			}
		})
	}
}

func TestRun_AllBatchesCommit(t *testing.T) {
	store := &fakeStore{}
	c := New(store, fastConfig(2), nil)

	result, err := c.Run(context.Background(), "acme/images", makeEntries(5))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Batches != 3 || result.Committed != 3 || result.Uploaded != 5 {
		t.Errorf("Result = %+v, want 3 batches, 3 committed, 5 uploaded", result)
	}
	if result.FailedBatch != nil {
		t.Errorf("FailedBatch = %v, want nil", *result.FailedBatch)
	}
	if len(store.commits) != 3 {
		t.Errorf("Expected 3 hub commits, got %d", len(store.commits))
	}
}

func TestRun_EmptyWorklist(t *testing.T) {
	store := &fakeStore{}
	c := New(store, fastConfig(2), nil)

	result, err := c.Run(context.Background(), "acme/images", nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Batches != 0 || store.calls != 0 {
		t.Errorf("Expected no work, got %+v with %d calls", result, store.calls)
	}
}

func TestRun_RetryBoundExhausted(t *testing.T) {
	store := &fakeStore{
		failFunc: func(call int, files []hub.CommitFile) error { return retryableErr() },
	}
	c := New(store, fastConfig(10), nil)

	result, err := c.Run(context.Background(), "acme/images", makeEntries(3))
	if err == nil {
		t.Fatal("Expected terminal error")
	}

	if store.calls != 3 {
		t.Errorf("Expected exactly MaxRetries=3 attempts, got %d", store.calls)
	}
	if utils.CodeOf(err) != utils.ErrCodeTerminalCommit {
		t.Errorf("Expected %s, got %s", utils.ErrCodeTerminalCommit, utils.CodeOf(err))
	}
	if result.FailedBatch == nil || *result.FailedBatch != 1 {
		t.Errorf("FailedBatch = %v, want 1", result.FailedBatch)
	}
	if result.Uploaded != 0 {
		t.Errorf("Uploaded = %d, want 0", result.Uploaded)
	}
}

func TestRun_SucceedsOnSecondAttempt(t *testing.T) {
	store := &fakeStore{
		failFunc: func(call int, files []hub.CommitFile) error {
			if call == 1 {
				return retryableErr()
			}
			return nil
		},
	}
	c := New(store, fastConfig(10), nil)

	result, err := c.Run(context.Background(), "acme/images", makeEntries(3))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if store.calls != 2 {
		t.Errorf("Expected exactly 2 attempts, got %d", store.calls)
	}
	if result.Committed != 1 || result.Uploaded != 3 {
		t.Errorf("Result = %+v", result)
	}
}

func TestRun_HaltsAfterTerminalBatch(t *testing.T) {
	// BatchSize=2 over 5 entries: batches [2,2,1]. Batch 2 fails every
	// attempt; batch 1 commits, batch 3 must never be attempted.
	store := &fakeStore{
		failFunc: func(call int, files []hub.CommitFile) error {
			if files[0].Path == "img_002.jpg" {
				return retryableErr()
			}
			return nil
		},
	}
	c := New(store, fastConfig(2), nil)

	result, err := c.Run(context.Background(), "acme/images", makeEntries(5))
	if err == nil {
		t.Fatal("Expected terminal error")
	}

	if result.FailedBatch == nil || *result.FailedBatch != 2 {
		t.Fatalf("FailedBatch = %v, want 2", result.FailedBatch)
	}
	if result.Committed != 1 || result.Uploaded != 2 {
		t.Errorf("Result = %+v, want 1 committed batch with 2 files", result)
	}
	// 1 call for batch 1 + 3 attempts for batch 2, nothing for batch 3.
	if store.calls != 4 {
		t.Errorf("Expected 4 store calls, got %d", store.calls)
	}
	for _, commit := range store.commits {
		for _, f := range commit {
			if f.Path == "img_004.jpg" {
				t.Error("Batch 3 was attempted after batch 2 failed terminally")
			}
		}
	}
}

func TestRun_PermanentErrorFailsFast(t *testing.T) {
	store := &fakeStore{
		failFunc: func(call int, files []hub.CommitFile) error { return permanentErr() },
	}
	c := New(store, fastConfig(10), nil)

	_, err := c.Run(context.Background(), "acme/images", makeEntries(1))
	if err == nil {
		t.Fatal("Expected error")
	}
	if store.calls != 1 {
		t.Errorf("Non-retryable errors must not be retried, got %d attempts", store.calls)
	}
}
