// Package planner diffs the local inventory against the remote path set.
// It is pure set logic with no I/O so it can be tested in isolation.
package planner

import (
	"path/filepath"

	"github.com/hugeolab/hubsync/internal/types"
)

// Plan returns the entries whose normalized relative path is absent from
// remote, preserving input order, together with the number skipped.
// For any local L and remote R: toUpload = {e in L : path(e) not in R} and
// skipped = len(L) - len(toUpload).
func Plan(local []types.Entry, remote map[string]struct{}) (toUpload []types.Entry, skipped int) {
	for _, entry := range local {
		if _, ok := remote[Normalize(entry.RelativePath)]; ok {
			skipped++
			continue
		}
		toUpload = append(toUpload, entry)
	}
	return toUpload, skipped
}

// Normalize converts a relative path to forward-slash form so membership
// checks behave the same on every host.
func Normalize(rel string) string {
	return filepath.ToSlash(rel)
}
