// Package hub talks to the dataset hub: listing the paths a repository
// already holds and creating multi-file commits. The wire protocol is the
// hub's REST API; callers treat it as an opaque content store through the
// Store interface.
package hub

import "context"

// CommitFile pairs a repository path with the local file that backs it.
type CommitFile struct {
	Path   string
	Source string
}

// Store is the remote content store surface the pipeline depends on.
// Tests substitute an in-memory implementation.
type Store interface {
	// ListPaths returns the set of relative paths the repository holds.
	ListPaths(ctx context.Context, repo string) (map[string]struct{}, error)

	// CommitFiles creates one atomic commit containing the given files.
	CommitFiles(ctx context.Context, repo string, files []CommitFile, message string) error
}
