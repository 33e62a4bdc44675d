// Package planner folds discovered overlays into one merged result per
// script path. Overlays are combined by repeated three-way merges against
// the unchanging base, in engine load order, so every overlay's changes are
// judged against the same ground truth. Conflict markers from an earlier
// fold are carried forward verbatim; the planner never re-merges inside an
// already-conflicted region.
package planner

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/modkit/wsmerge/internal/catalog"
	"github.com/modkit/wsmerge/internal/comparator"
	"github.com/modkit/wsmerge/pkg/logger"
)

// MergedLabel tags the accumulated side in conflict markers.
const MergedLabel = "merged"

// Status of one path's merge result.
type Status int

const (
	StatusOK Status = iota
	StatusConflicted
)

func (s Status) String() string {
	if s == StatusConflicted {
		return "conflicted"
	}
	return "ok"
}

// Merger is the three-way merge capability the planner folds overlays with.
type Merger interface {
	Merge3(base, mine, theirs, mineLabel, theirsLabel string) (string, bool, error)
}

// MergerFunc adapts a function to the Merger interface.
type MergerFunc func(base, mine, theirs, mineLabel, theirsLabel string) (string, bool, error)

func (f MergerFunc) Merge3(base, mine, theirs, mineLabel, theirsLabel string) (string, bool, error) {
	return f(base, mine, theirs, mineLabel, theirsLabel)
}

// DefaultMerger is the comparator-backed Merger used outside tests.
var DefaultMerger Merger = MergerFunc(comparator.Merge3)

// MergeResult is the final state of one script path after folding.
type MergeResult struct {
	RelPath       string
	Text          string
	Status        Status
	Contributors  []string // overlay names in fold order
	ConflictsWith []string // overlays whose fold introduced a conflict
	Notes         []string // decode/tool failures surfaced as synthetic conflicts
}

// Conflicted reports whether the result still needs attention.
func (r *MergeResult) Conflicted() bool {
	return r.Status == StatusConflicted
}

// Session is the single-run merge state: the catalog, one MergeResult per
// path, and a scratch directory for artifacts handed to external tools.
// Always Close it; the scratch directory is removed regardless of outcome.
type Session struct {
	Catalog *catalog.Catalog
	Results map[string]*MergeResult

	scratch string
	merger  Merger
}

// NewSession creates a Session with its scratch workspace.
func NewSession(cat *catalog.Catalog, merger Merger) (*Session, error) {
	if merger == nil {
		merger = DefaultMerger
	}
	scratch, err := os.MkdirTemp("", "wsmerge-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Session{
		Catalog: cat,
		Results: make(map[string]*MergeResult),
		scratch: scratch,
		merger:  merger,
	}, nil
}

// ScratchDir returns the session's temporary workspace.
func (s *Session) ScratchDir() string {
	return s.scratch
}

// Close removes the scratch workspace.
func (s *Session) Close() error {
	return os.RemoveAll(s.scratch)
}

// MergeAll folds every path group and records a MergeResult per path.
// Per-path failures never abort the batch.
func (s *Session) MergeAll() {
	for _, group := range s.Catalog.PathGroups() {
		result := s.mergeGroup(group)
		s.Results[group.RelPath] = result
		if result.Conflicted() {
			logger.Warn("Merge conflict",
				logger.String("file", result.RelPath),
				logger.String("mods", strings.Join(result.ConflictsWith, ", ")))
		} else {
			logger.Debug("Merged", logger.String("file", result.RelPath))
		}
	}
}

// mergeGroup runs the fold state machine for one path group.
func (s *Session) mergeGroup(group catalog.PathGroup) *MergeResult {
	result := &MergeResult{RelPath: group.RelPath}
	for _, overlay := range group.Overlays {
		result.Contributors = append(result.Contributors, overlay.Name)
	}

	base := s.Catalog.Base.Get(group.RelPath)
	if base.DecodeErr != nil {
		result.Status = StatusConflicted
		result.Notes = append(result.Notes, fmt.Sprintf("base: %v", base.DecodeErr))
	}

	// Single contributor: direct passthrough, merge engine never invoked.
	if len(group.Overlays) == 1 {
		sf := group.Overlays[0].Files[group.RelPath]
		if sf.DecodeErr != nil {
			result.Status = StatusConflicted
			result.Notes = append(result.Notes, fmt.Sprintf("%s: %v", group.Overlays[0].Name, sf.DecodeErr))
		}
		result.Text = sf.Text
		finishSynthetic(result)
		return result
	}

	acc := base.Text
	adopted := false
	for _, overlay := range group.Overlays {
		sf := overlay.Files[group.RelPath]
		if sf.DecodeErr != nil {
			result.Status = StatusConflicted
			result.Notes = append(result.Notes, fmt.Sprintf("%s: %v", overlay.Name, sf.DecodeErr))
			continue
		}

		mine := base.Text
		if adopted {
			mine = acc
		}
		merged, conflicted, err := s.merger.Merge3(base.Text, mine, sf.Text, MergedLabel, overlay.Name)
		if err != nil {
			result.Status = StatusConflicted
			result.Notes = append(result.Notes, fmt.Sprintf("%s: merge tool: %v", overlay.Name, err))
			continue
		}
		acc = merged
		adopted = true
		if conflicted {
			result.Status = StatusConflicted
			result.ConflictsWith = append(result.ConflictsWith, overlay.Name)
		}
	}

	result.Text = acc
	finishSynthetic(result)
	return result
}

// finishSynthetic prepends a marker block describing tool or decode failures
// so broken paths surface in the output instead of silently passing through.
func finishSynthetic(result *MergeResult) {
	if len(result.Notes) == 0 {
		return
	}
	var block strings.Builder
	block.WriteString(comparator.MarkerMine + " " + MergedLabel + "\n")
	block.WriteString(comparator.MarkerBase + " base\n")
	block.WriteString(comparator.MarkerSeparator + "\n")
	block.WriteString(comparator.MarkerTheirs + " wsmerge: " + strings.Join(result.Notes, "; ") + "\n")
	result.Text = block.String() + result.Text
}

// SortedResults returns all results in deterministic path order.
func (s *Session) SortedResults() []*MergeResult {
	paths := make([]string, 0, len(s.Results))
	for p := range s.Results {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	results := make([]*MergeResult, 0, len(paths))
	for _, p := range paths {
		results = append(results, s.Results[p])
	}
	return results
}

// ConflictedResults returns the still-conflicted results in path order.
func (s *Session) ConflictedResults() []*MergeResult {
	var conflicted []*MergeResult
	for _, result := range s.SortedResults() {
		if result.Conflicted() {
			conflicted = append(conflicted, result)
		}
	}
	return conflicted
}
