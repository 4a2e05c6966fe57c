package types

// Category classifies a scanned file.
type Category string

const (
	// CategoryAsset marks files matched by the image extension allowlist.
	// Assets are synced incrementally against the dataset hub.
	CategoryAsset Category = "asset"
	// CategoryAncillary marks project files (code, docs, configuration)
	// synced to the git mirror instead of the hub.
	CategoryAncillary Category = "ancillary"
)

// Entry is a single file discovered during the local scan. Entries are
// immutable after the scan completes. RelativePath always uses forward
// slashes regardless of host path conventions.
type Entry struct {
	RelativePath string            `json:"relativePath"`
	AbsPath      string            `json:"absPath"`
	Category     Category          `json:"category"`
	Size         int64             `json:"size,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Outcome summarizes one asset pipeline run.
// Attempted == Skipped + Uploaded holds whenever FailedBatch is nil.
type Outcome struct {
	Attempted   int  `json:"attempted"`
	Skipped     int  `json:"skipped"`
	Uploaded    int  `json:"uploaded"`
	FailedBatch *int `json:"failedBatch,omitempty"`
}
