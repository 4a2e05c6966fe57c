package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hugeolab/hubsync/internal/auth"
	"github.com/hugeolab/hubsync/internal/config"
	"github.com/hugeolab/hubsync/internal/hub"
	"github.com/hugeolab/hubsync/internal/manifest"
	"github.com/hugeolab/hubsync/internal/mirror"
	"github.com/hugeolab/hubsync/internal/scan"
	syncengine "github.com/hugeolab/hubsync/internal/sync"
	"github.com/hugeolab/hubsync/internal/types"
	"github.com/hugeolab/hubsync/internal/utils"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync assets to the hub and ancillary files to the git mirror",
	Long: `Run the full pipeline: upload new image assets to the dataset hub in
batches, then mirror ancillary files (annotations, scripts, docs) to the git
remote. Each half runs even if the other fails; a single failed half exits
with a partial-failure code.`,
	RunE: runSyncAll,
}

var syncAssetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Upload new image assets to the dataset hub",
	RunE:  runSyncAssets,
}

var syncMirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Push ancillary files to the git mirror",
	RunE:  runSyncMirror,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what a sync would upload, without uploading",
	RunE:  runSyncStatus,
}

var (
	syncRoot        string
	syncRepo        string
	syncAssetsDir   string
	syncAnnotations string
	syncBatchSize   int
	syncMaxRetries  int
	syncRetryDelay  int
	syncMessage     string
	syncMirrorRepo  string
	syncHubBranch   string
	syncEndpoint    string
)

func init() {
	flags := syncCmd.PersistentFlags()
	flags.StringVar(&syncRoot, "root", "", "Dataset root directory (default: current directory)")
	flags.StringVar(&syncRepo, "repo", "", "Hub dataset repository (owner/name)")
	flags.StringVar(&syncAssetsDir, "assets-dir", "", "Assets subdirectory within the root")
	flags.StringVar(&syncAnnotations, "annotations", "", "Annotations sidecar file (json or csv)")
	flags.IntVar(&syncBatchSize, "batch-size", 0, "Files per hub commit")
	flags.IntVar(&syncMaxRetries, "max-retries", 0, "Attempts per batch commit")
	flags.IntVar(&syncRetryDelay, "retry-delay", -1, "Seconds between retry attempts")
	flags.StringVar(&syncMessage, "message", "", "Commit message for hub and mirror commits")
	flags.StringVar(&syncMirrorRepo, "mirror-repo", "", "Git mirror repository (owner/name)")
	flags.StringVar(&syncHubBranch, "branch", "", "Hub branch commits target")
	flags.StringVar(&syncEndpoint, "endpoint", "", "Hub API endpoint")

	syncCmd.AddCommand(syncAssetsCmd)
	syncCmd.AddCommand(syncMirrorCmd)
	syncCmd.AddCommand(syncStatusCmd)
	rootCmd.AddCommand(syncCmd)
}

// assetsReport summarizes the hub half of the pipeline.
type assetsReport struct {
	Repo        string `json:"repo"`
	Attempted   int    `json:"attempted"`
	Skipped     int    `json:"skipped"`
	Uploaded    int    `json:"uploaded"`
	FailedBatch *int   `json:"failedBatch,omitempty"`
	Degraded    bool   `json:"degraded"`
	DryRun      bool   `json:"dryRun,omitempty"`
}

// Headers implements types.TableRenderer
func (r assetsReport) Headers() []string {
	return []string{"Repo", "Attempted", "Skipped", "Uploaded", "Degraded"}
}

// Rows implements types.TableRenderer
func (r assetsReport) Rows() [][]string {
	return [][]string{{
		r.Repo,
		fmt.Sprintf("%d", r.Attempted),
		fmt.Sprintf("%d", r.Skipped),
		fmt.Sprintf("%d", r.Uploaded),
		fmt.Sprintf("%t", r.Degraded),
	}}
}

// EmptyMessage implements types.TableRenderer
func (r assetsReport) EmptyMessage() string {
	return "Nothing to upload"
}

// mirrorReport summarizes the git half of the pipeline.
type mirrorReport struct {
	Transport string `json:"transport,omitempty"`
	Committed bool   `json:"committed"`
	Commit    string `json:"commit,omitempty"`
	Files     int    `json:"files"`
}

// syncReport is the combined pipeline result.
type syncReport struct {
	Assets *assetsReport `json:"assets,omitempty"`
	Mirror *mirrorReport `json:"mirror,omitempty"`
}

func runSyncAssets(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	ctx := context.Background()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	cfg, err := loadSyncConfig(cmd)
	if err != nil {
		return failErr(out, "sync.assets", err, utils.ErrCodeInvalidArgument)
	}

	report, err := syncAssets(ctx, out, cfg, flags.DryRun)
	if err != nil {
		return failErr(out, "sync.assets", err, utils.ErrCodeUnknown)
	}
	return out.WriteSuccess("sync.assets", report)
}

func runSyncMirror(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	ctx := context.Background()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	cfg, err := loadSyncConfig(cmd)
	if err != nil {
		return failErr(out, "sync.mirror", err, utils.ErrCodeInvalidArgument)
	}

	report, err := syncMirror(ctx, cfg, flags.DryRun)
	if err != nil {
		return failErr(out, "sync.mirror", err, utils.ErrCodeUnknown)
	}
	return out.WriteSuccess("sync.mirror", report)
}

func runSyncStatus(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	ctx := context.Background()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	cfg, err := loadSyncConfig(cmd)
	if err != nil {
		return failErr(out, "sync.status", err, utils.ErrCodeInvalidArgument)
	}

	engine := newEngine(cfg)
	plan, err := engine.Plan(ctx)
	if err != nil {
		return failErr(out, "sync.status", err, utils.ErrCodeUnknown)
	}
	if plan.Degraded {
		out.AddWarning(utils.ErrCodeRemoteProbeDegraded,
			"remote probe failed; counts assume an empty remote", "warning")
	}

	return out.WriteSuccess("sync.status", assetsReport{
		Repo:      cfg.HubRepo,
		Attempted: len(plan.Inventory.Assets),
		Skipped:   plan.Skipped,
		Uploaded:  0,
		Degraded:  plan.Degraded,
		DryRun:    true,
	})
}

// runSyncAll runs both pipeline halves. The mirror half runs even when the
// asset half fails; exactly one failed half is a partial failure, both
// failing surfaces the asset error.
func runSyncAll(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	ctx := context.Background()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	cfg, err := loadSyncConfig(cmd)
	if err != nil {
		return failErr(out, "sync", err, utils.ErrCodeInvalidArgument)
	}

	report := syncReport{}
	assets, assetErr := syncAssets(ctx, out, cfg, flags.DryRun)
	report.Assets = assets

	mirrorRes, mirrorErr := syncMirror(ctx, cfg, flags.DryRun)
	report.Mirror = mirrorRes

	switch {
	case assetErr == nil && mirrorErr == nil:
		return out.WriteSuccess("sync", report)
	case assetErr != nil && mirrorErr != nil:
		return failErr(out, "sync", assetErr, utils.ErrCodeUnknown)
	default:
		failed := assetErr
		half := "assets"
		if failed == nil {
			failed = mirrorErr
			half = "mirror"
		}
		return fail(out, "sync", utils.NewCLIError(utils.ErrCodePartialFailure,
			fmt.Sprintf("%s sync failed: %v", half, failed)).
			WithContext("failedHalf", half).
			WithContext("code", utils.CodeOf(failed)).
			Build())
	}
}

func syncAssets(ctx context.Context, out *OutputWriter, cfg *config.Config, dryRun bool) (*assetsReport, error) {
	engine := newEngine(cfg)

	plan, err := engine.Plan(ctx)
	if err != nil {
		return nil, err
	}
	if plan.Degraded {
		out.AddWarning(utils.ErrCodeRemoteProbeDegraded,
			"remote probe failed; uploading against an empty remote set", "warning")
	}

	report := &assetsReport{
		Repo:     cfg.HubRepo,
		Degraded: plan.Degraded,
		DryRun:   dryRun,
	}

	outcome, err := engine.Apply(ctx, plan, dryRun)
	report.Attempted = outcome.Attempted
	report.Skipped = outcome.Skipped
	report.Uploaded = outcome.Uploaded
	report.FailedBatch = outcome.FailedBatch
	if err != nil {
		return report, err
	}
	return report, nil
}

func syncMirror(ctx context.Context, cfg *config.Config, dryRun bool) (*mirrorReport, error) {
	inv, err := scanDataset(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// The manifest is regenerated on every run and rides the mirror as an
	// ancillary file.
	ancillary := inv.Ancillary
	if !dryRun {
		dest, err := manifest.Write(cfg.DatasetRoot, inv.Assets)
		if err != nil {
			return nil, err
		}
		ancillary = withManifest(ancillary, dest)
	}

	report := &mirrorReport{Files: len(ancillary)}
	if dryRun {
		return report, nil
	}

	syncer := mirror.New(mirror.Options{
		Transports:    mirrorTransports(cfg),
		Branch:        cfg.MirrorBranch,
		CommitMessage: cfg.CommitMessage,
		AuthorName:    cfg.CommitterName,
		AuthorEmail:   cfg.CommitterEmail,
	}, GetLogger())

	result, err := syncer.Sync(ctx, ancillary)
	report.Transport = result.Transport
	report.Committed = result.Committed
	report.Commit = result.Commit
	if err != nil {
		return report, err
	}
	return report, nil
}

// withManifest ensures the freshly written manifest is part of the mirrored
// file set even when the scan predates it.
func withManifest(ancillary []types.Entry, dest string) []types.Entry {
	for _, entry := range ancillary {
		if entry.RelativePath == manifest.FileName {
			entry.AbsPath = dest
			return ancillary
		}
	}
	var size int64
	if info, err := os.Stat(dest); err == nil {
		size = info.Size()
	}
	return append(ancillary, types.Entry{
		RelativePath: manifest.FileName,
		AbsPath:      dest,
		Category:     types.CategoryAncillary,
		Size:         size,
	})
}

func newEngine(cfg *config.Config) *syncengine.Engine {
	client := hub.NewClient(hub.ClientConfig{
		Endpoint: cfg.HubEndpoint,
		Branch:   cfg.HubBranch,
		Token:    auth.Token(),
		Logger:   GetLogger(),
	})
	return syncengine.NewEngine(client, cfg, GetLogger())
}

func scanDataset(ctx context.Context, cfg *config.Config) (*scan.Inventory, error) {
	return scan.Scan(ctx, cfg.DatasetRoot, scan.Options{
		AssetsDir:       cfg.AssetsDir,
		AnnotationsFile: cfg.AnnotationsFile,
	})
}

// loadSyncConfig builds the effective config: defaults, config file, env,
// then command flags on top.
func loadSyncConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	set := cmd.Flags()
	if set.Changed("root") {
		cfg.DatasetRoot = syncRoot
	}
	if set.Changed("repo") {
		cfg.HubRepo = syncRepo
	}
	if set.Changed("assets-dir") {
		cfg.AssetsDir = syncAssetsDir
	}
	if set.Changed("annotations") {
		cfg.AnnotationsFile = syncAnnotations
	}
	if set.Changed("batch-size") {
		cfg.BatchSize = syncBatchSize
	}
	if set.Changed("max-retries") {
		cfg.MaxRetries = syncMaxRetries
	}
	if set.Changed("retry-delay") {
		cfg.RetryDelaySecs = syncRetryDelay
	}
	if set.Changed("message") {
		cfg.CommitMessage = syncMessage
	}
	if set.Changed("mirror-repo") {
		cfg.MirrorRepo = syncMirrorRepo
	}
	if set.Changed("branch") {
		cfg.HubBranch = syncHubBranch
	}
	if set.Changed("endpoint") {
		cfg.HubEndpoint = syncEndpoint
	}

	if cfg.DatasetRoot == "" {
		cfg.DatasetRoot = "."
	}
	if cfg.HubRepo == "" {
		return nil, utils.NewAppError(utils.NewCLIError(utils.ErrCodeInvalidArgument,
			"hub repository required (--repo or HUBSYNC_HUB_REPO)").Build())
	}
	if err := cfg.Validate(); err != nil {
		return nil, utils.NewAppError(utils.NewCLIError(utils.ErrCodeInvalidArgument, err.Error()).Build())
	}
	return cfg, nil
}

// mirrorTransports maps the configured remotes onto named transports.
func mirrorTransports(cfg *config.Config) []mirror.Transport {
	var transports []mirror.Transport
	for _, remote := range cfg.MirrorRemotes() {
		name := "https"
		if strings.HasPrefix(remote, "git@") {
			name = "ssh"
		}
		transports = append(transports, mirror.Transport{Name: name, URL: remote})
	}
	return transports
}
