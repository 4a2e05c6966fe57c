package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugeolab/hubsync/internal/types"
	"github.com/hugeolab/hubsync/internal/utils"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List the local dataset inventory",
	Long: `Walk the dataset root and classify files: image files under the assets
directory are assets bound for the hub, everything else is ancillary and
bound for the git mirror. Nothing is uploaded.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&syncRoot, "root", "", "Dataset root directory (default: current directory)")
	scanCmd.Flags().StringVar(&syncAssetsDir, "assets-dir", "", "Assets subdirectory within the root")
	scanCmd.Flags().StringVar(&syncAnnotations, "annotations", "", "Annotations sidecar file (json or csv)")
	rootCmd.AddCommand(scanCmd)
}

// inventoryReport renders the scan result.
type inventoryReport struct {
	Root      string          `json:"root"`
	Assets    []inventoryFile `json:"assets"`
	Ancillary []inventoryFile `json:"ancillary"`
	Annotated int             `json:"annotated"`
}

type inventoryFile struct {
	Path   string            `json:"path"`
	Size   int64             `json:"size"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Headers implements types.TableRenderer
func (r inventoryReport) Headers() []string {
	return []string{"Path", "Category", "Size", "Annotated"}
}

// Rows implements types.TableRenderer
func (r inventoryReport) Rows() [][]string {
	var rows [][]string
	for _, f := range r.Assets {
		annotated := "-"
		if len(f.Fields) > 0 {
			annotated = "yes"
		}
		rows = append(rows, []string{truncate(f.Path, 60), "asset", formatSize(f.Size), annotated})
	}
	for _, f := range r.Ancillary {
		rows = append(rows, []string{truncate(f.Path, 60), "ancillary", formatSize(f.Size), "-"})
	}
	return rows
}

// EmptyMessage implements types.TableRenderer
func (r inventoryReport) EmptyMessage() string {
	return fmt.Sprintf("No files found under %s", r.Root)
}

func runScan(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	ctx := context.Background()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	cfg, err := loadConfig()
	if err != nil {
		return failErr(out, "scan", err, utils.ErrCodeInvalidArgument)
	}
	set := cmd.Flags()
	if set.Changed("root") {
		cfg.DatasetRoot = syncRoot
	}
	if set.Changed("assets-dir") {
		cfg.AssetsDir = syncAssetsDir
	}
	if set.Changed("annotations") {
		cfg.AnnotationsFile = syncAnnotations
	}
	if cfg.DatasetRoot == "" {
		cfg.DatasetRoot = "."
	}

	inv, err := scanDataset(ctx, cfg)
	if err != nil {
		return failErr(out, "scan", err, utils.ErrCodeNotFound)
	}

	report := inventoryReport{Root: cfg.DatasetRoot}
	for _, entry := range inv.Assets {
		if len(entry.Metadata) > 0 {
			report.Annotated++
		}
		report.Assets = append(report.Assets, toInventoryFile(entry))
	}
	for _, entry := range inv.Ancillary {
		report.Ancillary = append(report.Ancillary, toInventoryFile(entry))
	}

	return out.WriteSuccess("scan", report)
}

func toInventoryFile(entry types.Entry) inventoryFile {
	return inventoryFile{
		Path:   entry.RelativePath,
		Size:   entry.Size,
		Fields: entry.Metadata,
	}
}
