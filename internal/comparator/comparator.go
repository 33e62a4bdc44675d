// Package comparator wraps the text-comparison capability the merge engine
// needs: line-based unified diffs for reporting and a diff3-style three-way
// merge for folding overlays. Both are built on difflib's SequenceMatcher;
// the package never looks at raw file bytes, only decoded text.
package comparator

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// The four conflict-marker line prefixes, diff3 -m style.
const (
	MarkerMine      = "<<<<<<<"
	MarkerBase      = "|||||||"
	MarkerSeparator = "======="
	MarkerTheirs    = ">>>>>>>"
)

// HasConflictMarkers reports whether any line of text starts with one of the
// four conflict-marker prefixes.
func HasConflictMarkers(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, MarkerMine) ||
			strings.HasPrefix(line, MarkerBase) ||
			strings.HasPrefix(line, MarkerSeparator) ||
			strings.HasPrefix(line, MarkerTheirs) {
			return true
		}
	}
	return false
}

// UnifiedDiff renders a unified diff between two decoded file contents.
// An empty string means the contents are identical.
func UnifiedDiff(base, other, fromLabel, toLabel string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(base),
		B:        difflib.SplitLines(other),
		FromFile: fromLabel,
		ToFile:   toLabel,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("compute unified diff: %w", err)
	}
	return text, nil
}

// ExternalDiff runs a user-supplied diff command against two files, writing
// its output straight to the terminal. Exit status 1 means "files differ"
// for every diff tool worth using and is not an error.
func ExternalDiff(command []string, leftPath, rightPath string) error {
	if len(command) == 0 {
		return fmt.Errorf("empty diff command")
	}
	args := append(append([]string{}, command[1:]...), leftPath, rightPath)
	cmd := exec.Command(command[0], args...) // #nosec G204 -- command is validated by SplitDiffCommand
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
		return nil
	}
	return err
}

// SplitDiffCommand validates and tokenizes a --diff-command string. Shell
// metacharacters are rejected outright since the command is handed to exec
// verbatim, not to a shell.
func SplitDiffCommand(s string) ([]string, error) {
	if strings.ContainsAny(s, "|&<>()[]{}$!*#\"';") {
		return nil, fmt.Errorf("shell metacharacters are not allowed in diff command")
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty diff command")
	}
	return fields, nil
}

// splitLines splits text into lines that keep their trailing newline. A
// final line without a newline is kept as-is so merges don't invent one.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// edit is one contiguous change against the base: base lines [lo,hi) are
// replaced by the side's lines.
type edit struct {
	lo, hi int
	lines  []string
}

// editsAgainstBase diffs one side against the base and returns its edits in
// base order.
func editsAgainstBase(base, side []string) []edit {
	matcher := difflib.NewMatcher(base, side)
	var edits []edit
	for _, op := range matcher.GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		edits = append(edits, edit{lo: op.I1, hi: op.I2, lines: side[op.J1:op.J2]})
	}
	return edits
}

// overlaps reports whether e belongs to the cluster currently spanning base
// lines [lo,hi). Edits that merely touch the cluster boundary stay separate;
// insertions at the exact start of a zero-width cluster join it so that two
// sides inserting at the same spot are seen as competing.
func overlaps(e edit, lo, hi int) bool {
	if e.lo < hi {
		return true
	}
	return e.lo == hi && lo == hi
}

// applyEdits rebuilds base[lo:hi] with the given edits applied.
func applyEdits(base []string, edits []edit, lo, hi int) []string {
	var out []string
	cursor := lo
	for _, e := range edits {
		out = append(out, base[cursor:e.lo]...)
		out = append(out, e.lines...)
		cursor = e.hi
	}
	out = append(out, base[cursor:hi]...)
	return out
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ensureNL makes sure the last emitted line ends with a newline so a
// following marker line starts on its own line.
func ensureNL(lines []string) []string {
	if n := len(lines); n > 0 && !strings.HasSuffix(lines[n-1], "\n") {
		lines = append(lines[:n-1:n-1], lines[n-1]+"\n")
	}
	return lines
}

// Merge3 performs a three-way merge of decoded text: base is the common
// ancestor, mine the accumulated merge so far, theirs the next overlay.
// Regions where both sides changed the same base lines differently are
// bracketed with the four diff3-style markers and reported as conflicted.
// Compatible changes, and regions only one side touched, merge silently.
func Merge3(base, mine, theirs, mineLabel, theirsLabel string) (string, bool, error) {
	baseLines := splitLines(base)
	mineEdits := editsAgainstBase(baseLines, splitLines(mine))
	theirEdits := editsAgainstBase(baseLines, splitLines(theirs))

	var out []string
	conflicted := false
	pos := 0
	im, it := 0, 0

	for im < len(mineEdits) || it < len(theirEdits) {
		lo := len(baseLines)
		if im < len(mineEdits) && mineEdits[im].lo < lo {
			lo = mineEdits[im].lo
		}
		if it < len(theirEdits) && theirEdits[it].lo < lo {
			lo = theirEdits[it].lo
		}

		out = append(out, baseLines[pos:lo]...)
		hi := lo
		firstM, firstT := im, it

		// Grow the cluster until neither side has an overlapping edit left.
		for {
			progressed := false
			if im < len(mineEdits) && overlaps(mineEdits[im], lo, hi) {
				if mineEdits[im].hi > hi {
					hi = mineEdits[im].hi
				}
				im++
				progressed = true
			}
			if it < len(theirEdits) && overlaps(theirEdits[it], lo, hi) {
				if theirEdits[it].hi > hi {
					hi = theirEdits[it].hi
				}
				it++
				progressed = true
			}
			if !progressed {
				break
			}
		}

		mineChanged := im > firstM
		theirsChanged := it > firstT
		mineRepl := applyEdits(baseLines, mineEdits[firstM:im], lo, hi)
		theirsRepl := applyEdits(baseLines, theirEdits[firstT:it], lo, hi)

		switch {
		case mineChanged && theirsChanged && !equalLines(mineRepl, theirsRepl):
			conflicted = true
			out = append(out, fmt.Sprintf("%s %s\n", MarkerMine, mineLabel))
			out = append(out, ensureNL(mineRepl)...)
			out = append(out, fmt.Sprintf("%s base\n", MarkerBase))
			out = append(out, ensureNL(baseLines[lo:hi])...)
			out = append(out, MarkerSeparator+"\n")
			out = append(out, ensureNL(theirsRepl)...)
			out = append(out, fmt.Sprintf("%s %s\n", MarkerTheirs, theirsLabel))
		case mineChanged:
			out = append(out, mineRepl...)
		default:
			// Theirs changed, or both made the identical change.
			out = append(out, theirsRepl...)
		}

		pos = hi
	}

	out = append(out, baseLines[pos:]...)
	return strings.Join(out, ""), conflicted, nil
}
