package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hugeolab/hubsync/internal/utils"
)

const (
	// ConfigFileName is the name of the config file
	ConfigFileName = "config.json"
	// ConfigDirName is the directory where config is stored
	ConfigDirName = ".hubsync"
	// EnvPrefix is the prefix for environment variables
	EnvPrefix = "HUBSYNC_"
)

// Config holds application configuration. It is passed explicitly into each
// component so tests can run against mock remotes without process-wide state.
type Config struct {
	// DatasetRoot is the local dataset directory to scan
	DatasetRoot string `json:"datasetRoot"`

	// AssetsDir is the subdirectory of DatasetRoot holding images
	AssetsDir string `json:"assetsDir"`

	// AnnotationsFile is an optional sidecar (json or csv) keyed by image id
	AnnotationsFile string `json:"annotationsFile"`

	// HubEndpoint is the base URL of the dataset hub
	HubEndpoint string `json:"hubEndpoint"`

	// HubRepo is the dataset repository id (owner/name)
	HubRepo string `json:"hubRepo"`

	// HubBranch is the hub revision commits target
	HubBranch string `json:"hubBranch"`

	// MirrorRepo is the git mirror repository (owner/name)
	MirrorRepo string `json:"mirrorRepo"`

	// MirrorBranch is the branch the mirror sync targets
	MirrorBranch string `json:"mirrorBranch"`

	// CommitterName and CommitterEmail sign mirror commits
	CommitterName  string `json:"committerName"`
	CommitterEmail string `json:"committerEmail"`

	// BatchSize bounds the number of files in one hub commit
	BatchSize int `json:"batchSize"`

	// MaxRetries is the attempt limit per batch commit
	MaxRetries int `json:"maxRetries"`

	// RetryDelaySecs is the fixed delay between attempts, in seconds
	RetryDelaySecs int `json:"retryDelaySecs"`

	// CommitMessage is used for hub and mirror commits
	CommitMessage string `json:"commitMessage"`

	// LogLevel sets the logging verbosity (quiet, normal, verbose, debug)
	LogLevel string `json:"logLevel"`

	// ColorOutput enables color output for console logs
	ColorOutput bool `json:"colorOutput"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		AssetsDir:       "images",
		AnnotationsFile: "annotations.json",
		HubEndpoint:     utils.DefaultHubEndpoint,
		HubBranch:       utils.DefaultHubBranch,
		MirrorBranch:    utils.DefaultMirrorBranch,
		CommitterName:   "hubsync",
		CommitterEmail:  "hubsync@localhost",
		BatchSize:       utils.DefaultBatchSize,
		MaxRetries:      utils.DefaultMaxRetries,
		RetryDelaySecs:  utils.DefaultRetryDelaySecs,
		CommitMessage:   utils.DefaultCommitMessage,
		LogLevel:        "normal",
		ColorOutput:     true,
	}
}

// Load loads configuration with precedence: env vars > config file > defaults.
// An explicit path overrides the default location; CLI flags are applied on
// top by the caller.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.loadFromFile(path); err != nil {
		if path != "" || !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, ConfigDirName, ConfigFileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv(EnvPrefix + "DATASET_ROOT"); v != "" {
		c.DatasetRoot = v
	}
	if v := os.Getenv(EnvPrefix + "ASSETS_DIR"); v != "" {
		c.AssetsDir = v
	}
	if v := os.Getenv(EnvPrefix + "ANNOTATIONS_FILE"); v != "" {
		c.AnnotationsFile = v
	}
	if v := os.Getenv(EnvPrefix + "HUB_ENDPOINT"); v != "" {
		c.HubEndpoint = v
	}
	if v := os.Getenv(EnvPrefix + "HUB_REPO"); v != "" {
		c.HubRepo = v
	}
	if v := os.Getenv(EnvPrefix + "HUB_BRANCH"); v != "" {
		c.HubBranch = v
	}
	if v := os.Getenv(EnvPrefix + "MIRROR_REPO"); v != "" {
		c.MirrorRepo = v
	}
	if v := os.Getenv(EnvPrefix + "MIRROR_BRANCH"); v != "" {
		c.MirrorBranch = v
	}
	if v := os.Getenv(EnvPrefix + "BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BatchSize = n
		}
	}
	if v := os.Getenv(EnvPrefix + "MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv(EnvPrefix + "RETRY_DELAY_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RetryDelaySecs = n
		}
	}
	if v := os.Getenv(EnvPrefix + "COMMIT_MESSAGE"); v != "" {
		c.CommitMessage = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
}

// Validate clamps numeric fields to sane ranges
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		c.BatchSize = utils.DefaultBatchSize
	}
	if c.BatchSize > utils.MaxBatchSize {
		return fmt.Errorf("batchSize %d exceeds maximum %d", c.BatchSize, utils.MaxBatchSize)
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = utils.DefaultMaxRetries
	}
	if c.RetryDelaySecs < 0 {
		c.RetryDelaySecs = utils.DefaultRetryDelaySecs
	}
	return nil
}

// MirrorRemotes returns the clone URLs tried in order: ssh first, then https.
// Generalized as a list so additional transports can be appended.
func (c *Config) MirrorRemotes() []string {
	if c.MirrorRepo == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("git@github.com:%s.git", c.MirrorRepo),
		fmt.Sprintf("https://github.com/%s.git", c.MirrorRepo),
	}
}

// Save writes the configuration to the default location
func (c *Config) Save() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to determine home directory: %w", err)
	}
	dir := filepath.Join(home, ConfigDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, ConfigFileName), data, 0o600)
}
