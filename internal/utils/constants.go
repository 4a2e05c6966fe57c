package utils

// ImageExtensions is the asset allowlist. Lowercase, with leading dot.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// ExcludedDirs are directory names never descended into during a scan. The
// assets subdirectory is excluded separately since its name is configurable.
var ExcludedDirs = map[string]bool{
	".git":         true,
	"__pycache__":  true,
	".cache":       true,
	"node_modules": true,
}

// Commit batching
const (
	DefaultBatchSize = 500
	MaxBatchSize     = 25000
)

// Retry configuration. The committer waits a fixed delay between attempts
// rather than backing off exponentially; a long worklist against a stalled
// hub should fail fast, not stretch for hours.
const (
	DefaultMaxRetries     = 3
	DefaultRetryDelaySecs = 5
)

// Hub defaults
const (
	DefaultHubEndpoint = "https://huggingface.co"
	DefaultHubBranch   = "main"
)

// Mirror defaults
const (
	DefaultMirrorBranch  = "main"
	DefaultCommitMessage = "Update dataset files"
)

// KeyringService is the service name used for token storage in the OS keyring
const KeyringService = "hubsync"

// TokenEnvVars are checked in order for a hub access token
var TokenEnvVars = []string{"HUBSYNC_TOKEN", "HF_TOKEN"}

// Schema version for the CLI output envelope
const SchemaVersion = "1.0"
