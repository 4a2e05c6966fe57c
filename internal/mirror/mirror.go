// Package mirror keeps a git remote in step with the local ancillary files.
// It clones the target branch into a throwaway workspace, overlays the
// files, and pushes a single commit when the working tree is dirty. Clone
// transports are tried in order (ssh first, then https), stopping at the
// first success.
package mirror

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/hugeolab/hubsync/internal/logging"
	"github.com/hugeolab/hubsync/internal/types"
	"github.com/hugeolab/hubsync/internal/utils"
)

// Transport is one way to reach the mirror remote.
type Transport struct {
	Name string
	URL  string
}

// Options configures a Syncer.
type Options struct {
	// Transports are tried in order until one clone succeeds.
	Transports []Transport

	// Branch is the branch cloned and pushed.
	Branch string

	// Workdir is the clone workspace. It is removed and recreated on
	// every run so no state leaks between invocations. Empty means a
	// directory under the system temp dir.
	Workdir string

	// CommitMessage is used when the tree is dirty.
	CommitMessage string

	// AuthorName and AuthorEmail sign the commit.
	AuthorName  string
	AuthorEmail string
}

// Result reports what one sync did.
type Result struct {
	Transport string `json:"transport"`
	Committed bool   `json:"committed"`
	Commit    string `json:"commit,omitempty"`
	Files     int    `json:"files"`
}

// Syncer pushes ancillary files to the mirror.
type Syncer struct {
	opts   Options
	logger logging.Logger
}

// New creates a Syncer. Zero option fields fall back to defaults.
func New(opts Options, logger logging.Logger) *Syncer {
	if opts.Branch == "" {
		opts.Branch = utils.DefaultMirrorBranch
	}
	if opts.CommitMessage == "" {
		opts.CommitMessage = utils.DefaultCommitMessage
	}
	if opts.Workdir == "" {
		opts.Workdir = filepath.Join(os.TempDir(), "hubsync-mirror")
	}
	if opts.AuthorName == "" {
		opts.AuthorName = "hubsync"
	}
	if opts.AuthorEmail == "" {
		opts.AuthorEmail = "hubsync@localhost"
	}
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Syncer{opts: opts, logger: logger}
}

// Sync overlays files onto a fresh clone and pushes one commit if anything
// changed. A clean tree is a successful no-op. Failure to clone via every
// transport is fatal for the mirror only; callers must not let it abort the
// asset pipeline.
func (s *Syncer) Sync(ctx context.Context, files []types.Entry) (Result, error) {
	result := Result{Files: len(files)}

	repo, transport, err := s.clone(ctx)
	if err != nil {
		return result, err
	}
	result.Transport = transport

	for _, entry := range files {
		if err := s.overlay(entry); err != nil {
			return result, err
		}
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return result, err
	}
	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return result, fmt.Errorf("failed to stage files: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return result, err
	}
	if status.IsClean() {
		s.logger.Info("Mirror already up to date", logging.F("branch", s.opts.Branch))
		return result, nil
	}

	hash, err := worktree.Commit(s.opts.CommitMessage, &git.CommitOptions{
		Author: &object.Signature{
			Name:  s.opts.AuthorName,
			Email: s.opts.AuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return result, fmt.Errorf("failed to commit: %w", err)
	}

	if err := repo.PushContext(ctx, &git.PushOptions{}); err != nil && err != git.NoErrAlreadyUpToDate {
		return result, fmt.Errorf("failed to push: %w", err)
	}

	result.Committed = true
	result.Commit = hash.String()
	s.logger.Info("Mirror updated",
		logging.F("branch", s.opts.Branch),
		logging.F("commit", hash.String()[:8]),
		logging.F("files", len(files)),
	)
	return result, nil
}

// clone obtains a clean working copy, trying each transport in turn. The
// workspace is wiped before every attempt so a half-finished clone never
// pollutes the next one.
func (s *Syncer) clone(ctx context.Context) (*git.Repository, string, error) {
	if len(s.opts.Transports) == 0 {
		return nil, "", utils.NewAppError(utils.NewCLIError(utils.ErrCodeInvalidArgument,
			"no mirror transports configured").Build())
	}

	var lastErr error
	for _, transport := range s.opts.Transports {
		if err := s.resetWorkdir(); err != nil {
			return nil, "", err
		}

		repo, err := git.PlainCloneContext(ctx, s.opts.Workdir, false, &git.CloneOptions{
			URL:           transport.URL,
			ReferenceName: plumbing.NewBranchReferenceName(s.opts.Branch),
			SingleBranch:  true,
		})
		if err == nil {
			s.logger.Info("Cloned mirror",
				logging.F("transport", transport.Name),
				logging.F("branch", s.opts.Branch),
			)
			return repo, transport.Name, nil
		}

		lastErr = err
		s.logger.Warn("Clone failed, trying next transport",
			logging.F("transport", transport.Name),
			logging.F("error", err.Error()),
		)
	}

	return nil, "", utils.NewAppError(utils.NewCLIError(utils.ErrCodeMirrorTransport,
		fmt.Sprintf("all %d transports failed: %v", len(s.opts.Transports), lastErr)).Build())
}

func (s *Syncer) resetWorkdir() error {
	if err := os.RemoveAll(s.opts.Workdir); err != nil {
		return fmt.Errorf("failed to clear workspace: %w", err)
	}
	return os.MkdirAll(s.opts.Workdir, 0o755)
}

// overlay copies one file into the workspace, preserving its relative path.
func (s *Syncer) overlay(entry types.Entry) error {
	dest := filepath.Join(s.opts.Workdir, filepath.FromSlash(entry.RelativePath))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	src, err := os.Open(entry.AbsPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", entry.AbsPath, err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
