// Package manifest renders the asset inventory as a JSONL index file. The
// manifest is written into the dataset root, so it is picked up as an
// ancillary file and rides the git mirror sync alongside the code and docs.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hugeolab/hubsync/internal/types"
)

// FileName is the manifest location relative to the dataset root.
const FileName = "dataset_manifest.jsonl"

// Header is the first line of the manifest.
type Header struct {
	Kind       string `json:"kind"`
	AssetCount int    `json:"assetCount"`
	TotalBytes int64  `json:"totalBytes"`
}

// Record describes one asset.
type Record struct {
	ImageID string            `json:"imageId"`
	Path    string            `json:"path"`
	Size    int64             `json:"size"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Build renders the manifest for the given assets. Output is deterministic:
// records follow inventory order and JSON object keys are sorted by the
// encoder, so unchanged inventories produce byte-identical manifests and a
// clean mirror status.
func Build(assets []types.Entry) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	header := Header{Kind: "dataset-manifest", AssetCount: len(assets)}
	for _, entry := range assets {
		header.TotalBytes += entry.Size
	}
	if err := enc.Encode(header); err != nil {
		return nil, err
	}

	for _, entry := range assets {
		record := Record{
			ImageID: imageID(entry.RelativePath),
			Path:    entry.RelativePath,
			Size:    entry.Size,
			Fields:  entry.Metadata,
		}
		if err := enc.Encode(record); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// Write builds the manifest and stores it under root, returning its path.
func Write(root string, assets []types.Entry) (string, error) {
	data, err := Build(assets)
	if err != nil {
		return "", fmt.Errorf("failed to build manifest: %w", err)
	}
	dest := filepath.Join(root, FileName)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return dest, nil
}

func imageID(assetPath string) string {
	base := path.Base(assetPath)
	return strings.TrimSuffix(base, path.Ext(base))
}
