// Package materialize writes the consolidated mod directory: every script
// any overlay touched, re-encoded to the game's convention, under a mod name
// that sorts first in the engine load order. A failed write aborts the whole
// run; a half-written merged mod would be silently loaded by the game.
package materialize

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/modkit/wsmerge/internal/encoding"
	"github.com/modkit/wsmerge/internal/planner"
	"github.com/modkit/wsmerge/pkg/logger"
	"github.com/modkit/wsmerge/pkg/safeio"
)

// Summary is what the final console report is built from.
type Summary struct {
	Mods     int
	Scripts  int
	Problems []string // output paths still carrying conflict markers
}

// WriteMerged clears and recreates workDir/mergedModName and writes every
// merge result into its content/ tree. Pre-existing output from an earlier
// run is destroyed first: last run wins, there is no merge of merges.
func WriteMerged(session *planner.Session, workDir, mergedModName string) (Summary, error) {
	summary := Summary{
		Mods:    len(session.Catalog.Overlays),
		Scripts: len(session.Results),
	}

	outRoot := filepath.Join(workDir, mergedModName)
	if info, err := os.Stat(outRoot); err == nil {
		if !info.IsDir() {
			return summary, fmt.Errorf("%s exists and is not a directory", mergedModName)
		}
		logger.Info("Clearing out previous merged mod", logger.String("dir", mergedModName))
		if err := os.RemoveAll(outRoot); err != nil {
			return summary, fmt.Errorf("clear %s: %w", mergedModName, err)
		}
	}

	contentRoot := filepath.Join(outRoot, "content")
	for _, result := range session.SortedResults() {
		data, err := encoding.EncodeGame(result.Text)
		if err != nil {
			return summary, fmt.Errorf("encode %s: %w", result.RelPath, err)
		}
		if err := safeio.WriteFileContained(contentRoot, result.RelPath, data); err != nil {
			return summary, fmt.Errorf("write %s: %w", result.RelPath, err)
		}
		if result.Conflicted() {
			summary.Problems = append(summary.Problems,
				filepath.ToSlash(filepath.Join(mergedModName, "content", result.RelPath)))
		}
	}
	sort.Strings(summary.Problems)

	return summary, nil
}

// PrintSummary writes the end-of-run report.
func PrintSummary(w io.Writer, summary Summary) {
	fmt.Fprintf(w, " -> Merged %d %s with %d %s\n",
		summary.Mods, plural(summary.Mods, "mod"),
		summary.Scripts, plural(summary.Scripts, "script"))
	if len(summary.Problems) > 0 {
		fmt.Fprintf(w, " -> %d %s detected (manual intervention required)\n",
			len(summary.Problems), plural(len(summary.Problems), "problem"))
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Files requiring manual merge fixes:")
		fmt.Fprintln(w)
		for _, problem := range summary.Problems {
			fmt.Fprintln(w, problem)
		}
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// Report is the YAML document written by --report.
type Report struct {
	Mods    []string       `yaml:"mods"`
	Scripts []ScriptReport `yaml:"scripts"`
}

// ScriptReport describes one merged path.
type ScriptReport struct {
	Path          string   `yaml:"path"`
	Status        string   `yaml:"status"`
	Mods          []string `yaml:"mods"`
	ConflictsWith []string `yaml:"conflicts_with,omitempty"`
	Notes         []string `yaml:"notes,omitempty"`
}

// WriteReport dumps the per-path merge outcome as YAML.
func WriteReport(path string, session *planner.Session) error {
	report := Report{}
	for _, overlay := range session.Catalog.Overlays {
		report.Mods = append(report.Mods, overlay.Name)
	}
	for _, result := range session.SortedResults() {
		report.Scripts = append(report.Scripts, ScriptReport{
			Path:          result.RelPath,
			Status:        result.Status.String(),
			Mods:          result.Contributors,
			ConflictsWith: result.ConflictsWith,
			Notes:         result.Notes,
		})
	}

	data, err := yaml.Marshal(&report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
