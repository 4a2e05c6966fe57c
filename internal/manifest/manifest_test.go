package manifest

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hugeolab/hubsync/internal/types"
)

func sampleAssets() []types.Entry {
	return []types.Entry{
		{RelativePath: "cat_001.jpg", Size: 100, Metadata: map[string]string{"answer": "cat", "question": "what animal?"}},
		{RelativePath: "sub/dog_002.png", Size: 250},
	}
}

func TestBuild_HeaderAndRecords(t *testing.T) {
	data, err := Build(sampleAssets())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	if len(lines) != 3 {
		t.Fatalf("Expected header + 2 records, got %d lines", len(lines))
	}

	var header Header
	if err := json.Unmarshal(lines[0], &header); err != nil {
		t.Fatalf("Invalid header line: %v", err)
	}
	if header.AssetCount != 2 || header.TotalBytes != 350 {
		t.Errorf("Header = %+v, want assetCount=2 totalBytes=350", header)
	}

	var first Record
	if err := json.Unmarshal(lines[1], &first); err != nil {
		t.Fatalf("Invalid record line: %v", err)
	}
	if first.ImageID != "cat_001" || first.Path != "cat_001.jpg" {
		t.Errorf("First record = %+v", first)
	}
	if first.Fields["answer"] != "cat" {
		t.Errorf("Expected annotation fields in record, got %v", first.Fields)
	}

	var second Record
	if err := json.Unmarshal(lines[2], &second); err != nil {
		t.Fatalf("Invalid record line: %v", err)
	}
	if second.ImageID != "dog_002" {
		t.Errorf("Expected imageId without directory or extension, got %s", second.ImageID)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	first, err := Build(sampleAssets())
	if err != nil {
		t.Fatal(err)
	}
	second, err := Build(sampleAssets())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("Identical inventories produced different manifests")
	}
}

func TestWrite(t *testing.T) {
	root := t.TempDir()
	dest, err := Write(root, sampleAssets())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if dest != filepath.Join(root, FileName) {
		t.Errorf("Unexpected manifest path %s", dest)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("Manifest file missing: %v", err)
	}
}
