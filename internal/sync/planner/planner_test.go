package planner

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/hugeolab/hubsync/internal/types"
)

func entries(paths ...string) []types.Entry {
	out := make([]types.Entry, len(paths))
	for i, p := range paths {
		out[i] = types.Entry{RelativePath: p, Category: types.CategoryAsset}
	}
	return out
}

func set(paths ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		out[p] = struct{}{}
	}
	return out
}

func paths(entries []types.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.RelativePath
	}
	return out
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name       string
		local      []types.Entry
		remote     map[string]struct{}
		wantUpload []string
		wantSkip   int
	}{
		{
			name:       "partial overlap",
			local:      entries("a.jpg", "b.jpg", "c.jpg"),
			remote:     set("a.jpg"),
			wantUpload: []string{"b.jpg", "c.jpg"},
			wantSkip:   1,
		},
		{
			name:       "empty remote uploads everything",
			local:      entries("a.jpg", "b.jpg"),
			remote:     set(),
			wantUpload: []string{"a.jpg", "b.jpg"},
			wantSkip:   0,
		},
		{
			name:       "remote superset uploads nothing",
			local:      entries("a.jpg", "b.jpg"),
			remote:     set("a.jpg", "b.jpg", "extra.jpg"),
			wantUpload: nil,
			wantSkip:   2,
		},
		{
			name:       "empty local",
			local:      nil,
			remote:     set("a.jpg"),
			wantUpload: nil,
			wantSkip:   0,
		},
		{
			name:       "nested paths",
			local:      entries("sub/a.jpg", "sub/b.jpg"),
			remote:     set("sub/a.jpg"),
			wantUpload: []string{"sub/b.jpg"},
			wantSkip:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toUpload, skipped := Plan(tt.local, tt.remote)
			if got := paths(toUpload); !reflect.DeepEqual(got, tt.wantUpload) && !(len(got) == 0 && len(tt.wantUpload) == 0) {
				t.Errorf("toUpload = %v, want %v", got, tt.wantUpload)
			}
			if skipped != tt.wantSkip {
				t.Errorf("skipped = %d, want %d", skipped, tt.wantSkip)
			}
			if len(tt.local) != len(toUpload)+skipped {
				t.Errorf("invariant broken: %d local != %d upload + %d skipped",
					len(tt.local), len(toUpload), skipped)
			}
		})
	}
}

func TestPlan_PreservesOrder(t *testing.T) {
	var local []types.Entry
	for i := 0; i < 100; i++ {
		local = append(local, types.Entry{RelativePath: fmt.Sprintf("img_%03d.jpg", i)})
	}
	remote := set("img_010.jpg", "img_050.jpg")

	toUpload, skipped := Plan(local, remote)
	if skipped != 2 {
		t.Fatalf("skipped = %d, want 2", skipped)
	}

	prev := ""
	for _, e := range toUpload {
		if e.RelativePath <= prev {
			t.Fatalf("order not preserved: %s after %s", e.RelativePath, prev)
		}
		prev = e.RelativePath
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("sub/a.jpg"); got != "sub/a.jpg" {
		t.Errorf("Normalize = %q", got)
	}
}
