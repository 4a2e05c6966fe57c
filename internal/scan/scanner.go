// Package scan builds the local inventory: which files are assets bound for
// the dataset hub and which are ancillary files bound for the git mirror.
// The scan is a pure read of the filesystem and its output order is
// deterministic (lexicographic walk).
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hugeolab/hubsync/internal/types"
	"github.com/hugeolab/hubsync/internal/utils"
)

// Options controls a scan.
type Options struct {
	// AssetsDir is the subdirectory of the root holding images. Asset
	// entry paths are relative to this directory since it maps to the hub
	// repository root.
	AssetsDir string

	// AnnotationsFile is an optional sidecar path (absolute or relative to
	// the root). Missing file means assets carry no metadata.
	AnnotationsFile string
}

// Inventory is the result of one scan. Assets and Ancillary are disjoint
// and each is ordered lexicographically by path.
type Inventory struct {
	Assets    []types.Entry
	Ancillary []types.Entry
}

// Scan walks root and classifies files. Image files (per the extension
// allowlist) under the assets directory become assets; non-image files
// outside it become ancillary. Images outside the assets directory and
// non-images inside it are ignored, as are version-control and build-cache
// directories. A missing root is a NOT_FOUND error, never an empty result.
func Scan(ctx context.Context, root string, opts Options) (*Inventory, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, utils.NewAppError(utils.NewCLIError(utils.ErrCodeNotFound,
			fmt.Sprintf("dataset root does not exist: %s", root)).Build())
	}

	root, err = filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	annotations, err := loadAnnotations(resolveAnnotationsPath(root, opts.AnnotationsFile))
	if err != nil {
		return nil, err
	}

	assetsRel := ""
	if opts.AssetsDir != "" {
		assetsRel = path.Clean(filepath.ToSlash(opts.AssetsDir))
	}
	inv := &Inventory{}

	err = filepath.WalkDir(root, func(current string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, err := filepath.Rel(root, current)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = path.Clean(filepath.ToSlash(rel))

		if d.IsDir() {
			if utils.ExcludedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		ext := strings.ToLower(path.Ext(rel))
		inAssets := assetsRel != "" && (rel == assetsRel || strings.HasPrefix(rel, assetsRel+"/"))

		fileInfo, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case inAssets && utils.ImageExtensions[ext]:
			assetPath := strings.TrimPrefix(rel, assetsRel+"/")
			entry := types.Entry{
				RelativePath: assetPath,
				AbsPath:      current,
				Category:     types.CategoryAsset,
				Size:         fileInfo.Size(),
			}
			if fields, ok := annotations[imageID(assetPath)]; ok {
				entry.Metadata = fields
			}
			inv.Assets = append(inv.Assets, entry)
		case !inAssets && !utils.ImageExtensions[ext]:
			inv.Ancillary = append(inv.Ancillary, types.Entry{
				RelativePath: rel,
				AbsPath:      current,
				Category:     types.CategoryAncillary,
				Size:         fileInfo.Size(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return inv, nil
}

// imageID is the annotation key for an asset: its base name without extension.
func imageID(assetPath string) string {
	base := path.Base(assetPath)
	return strings.TrimSuffix(base, path.Ext(base))
}

func resolveAnnotationsPath(root, file string) string {
	if file == "" {
		return ""
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(root, file)
}
