package sync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hugeolab/hubsync/internal/config"
	"github.com/hugeolab/hubsync/internal/hub"
)

// memStore is an in-memory hub used to exercise the full pipeline.
type memStore struct {
	paths     map[string]struct{}
	listErr   error
	commits   int
	commitErr error
}

func newMemStore(paths ...string) *memStore {
	s := &memStore{paths: make(map[string]struct{})}
	for _, p := range paths {
		s.paths[p] = struct{}{}
	}
	return s
}

func (s *memStore) ListPaths(ctx context.Context, repo string) (map[string]struct{}, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make(map[string]struct{}, len(s.paths))
	for p := range s.paths {
		out[p] = struct{}{}
	}
	return out, nil
}

func (s *memStore) CommitFiles(ctx context.Context, repo string, files []hub.CommitFile, message string) error {
	if s.commitErr != nil {
		return s.commitErr
	}
	s.commits++
	for _, f := range files {
		s.paths[f.Path] = struct{}{}
	}
	return nil
}

func testDataset(t *testing.T, images ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range images {
		full := filepath.Join(root, "images", filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("img"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func testConfig(root string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.DatasetRoot = root
	cfg.HubRepo = "acme/images"
	cfg.BatchSize = 2
	cfg.RetryDelaySecs = 0
	return cfg
}

func TestEngine_PlanAndApply(t *testing.T) {
	root := testDataset(t, "a.jpg", "b.jpg", "c.jpg")
	store := newMemStore("a.jpg")
	engine := NewEngine(store, testConfig(root), nil)

	plan, err := engine.Plan(context.Background())
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if plan.Skipped != 1 || len(plan.ToUpload) != 2 {
		t.Fatalf("Plan skipped=%d toUpload=%d, want 1/2", plan.Skipped, len(plan.ToUpload))
	}
	if plan.Degraded {
		t.Error("Plan should not be degraded with a healthy store")
	}

	outcome, err := engine.Apply(context.Background(), plan, false)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if outcome.Attempted != 3 || outcome.Skipped != 1 || outcome.Uploaded != 2 {
		t.Errorf("Outcome = %+v", outcome)
	}
	if outcome.Attempted != outcome.Skipped+outcome.Uploaded {
		t.Error("Outcome invariant broken")
	}
}

func TestEngine_Idempotent(t *testing.T) {
	root := testDataset(t, "a.jpg", "b.jpg")
	store := newMemStore()
	engine := NewEngine(store, testConfig(root), nil)

	plan, err := engine.Plan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Apply(context.Background(), plan, false); err != nil {
		t.Fatal(err)
	}

	// Second run: the store now holds everything, so nothing uploads.
	plan2, err := engine.Plan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	outcome, err := engine.Apply(context.Background(), plan2, false)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Uploaded != 0 || outcome.Skipped != 2 {
		t.Errorf("Second run outcome = %+v, want 0 uploaded, 2 skipped", outcome)
	}
}

func TestEngine_ProbeFailureDegrades(t *testing.T) {
	root := testDataset(t, "a.jpg")
	store := newMemStore("a.jpg")
	store.listErr = errors.New("connection refused")
	engine := NewEngine(store, testConfig(root), nil)

	plan, err := engine.Plan(context.Background())
	if err != nil {
		t.Fatalf("Probe failure must not abort the pipeline, got %v", err)
	}
	if !plan.Degraded {
		t.Error("Expected degraded plan")
	}
	// Remote treated as empty: the already-present file is re-uploaded.
	if len(plan.ToUpload) != 1 || plan.Skipped != 0 {
		t.Errorf("Degraded plan toUpload=%d skipped=%d, want 1/0", len(plan.ToUpload), plan.Skipped)
	}
}

func TestEngine_DryRun(t *testing.T) {
	root := testDataset(t, "a.jpg", "b.jpg")
	store := newMemStore()
	engine := NewEngine(store, testConfig(root), nil)

	plan, err := engine.Plan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	outcome, err := engine.Apply(context.Background(), plan, true)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Uploaded != 0 || store.commits != 0 {
		t.Errorf("Dry run must not commit, outcome=%+v commits=%d", outcome, store.commits)
	}
}

func TestEngine_MissingRootFailsBeforeProbe(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "absent"))
	store := newMemStore()
	engine := NewEngine(store, cfg, nil)

	if _, err := engine.Plan(context.Background()); err == nil {
		t.Fatal("Expected error for missing dataset root")
	}
}
