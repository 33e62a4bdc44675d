// Package resolve walks still-conflicted merge results and lets the user fix
// them in an external editor, one file at a time. The whole loop is
// synchronous: one prompt, one editor session, one re-scan, then the next
// path. An editor that never exits blocks the run; that is the intended
// manual workflow, not a bug.
package resolve

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/modkit/wsmerge/internal/comparator"
	"github.com/modkit/wsmerge/internal/planner"
	"github.com/modkit/wsmerge/pkg/logger"
	"github.com/modkit/wsmerge/pkg/safeio"
)

// Options controls the resolution loop.
type Options struct {
	// Editor is the editor command line, e.g. "vim" or "code -w".
	Editor string
	// Interactive enables prompting; when false every conflict is deferred
	// to the final summary untouched.
	Interactive bool

	// Stdin/Stdout default to the process streams; tests override them.
	Stdin  io.Reader
	Stdout io.Writer
	// LaunchEditor overrides the editor invocation; tests use it to edit
	// files without a terminal.
	LaunchEditor func(editor []string, path string) error
}

func (o *Options) fill() {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.LaunchEditor == nil {
		o.LaunchEditor = launchEditor
	}
}

// launchEditor runs the editor attached to the terminal and blocks until it
// exits. Exit status is not inspected; the re-scan decides the outcome.
func launchEditor(editor []string, path string) error {
	args := append(append([]string{}, editor[1:]...), path)
	cmd := exec.Command(editor[0], args...) // #nosec G204 -- editor comes from user config
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Run processes every conflicted result in deterministic path order.
// Declining one prompt keeps that file's markers and moves on; there is no
// global abort.
func Run(session *planner.Session, opts Options) {
	opts.fill()

	conflicted := session.ConflictedResults()
	if len(conflicted) == 0 || !opts.Interactive {
		return
	}

	editor := strings.Fields(opts.Editor)
	if len(editor) == 0 {
		logger.Warn("No editor configured, skipping interactive resolution")
		return
	}

	reader := bufio.NewReader(opts.Stdin)
	for _, result := range conflicted {
		resolveOne(session, result, editor, reader, opts)
	}
}

func resolveOne(session *planner.Session, result *planner.MergeResult, editor []string, reader *bufio.Reader, opts Options) {
	for result.Conflicted() {
		fmt.Fprintf(opts.Stdout, " ! %s: conflicts in %s. Manually fix now [Y|n]? ",
			strings.Join(conflictSource(result), ", "), result.RelPath)

		response, err := reader.ReadString('\n')
		if err != nil && response == "" {
			// Stdin closed: defer the rest to the summary.
			fmt.Fprintln(opts.Stdout)
			return
		}
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "" && !strings.HasPrefix(response, "y") {
			return
		}

		if err := editSession(session, result, editor, opts); err != nil {
			logger.Error("Editor session failed", logger.String("file", result.RelPath), logger.Err(err))
			return
		}
	}
}

// editSession writes the conflicted content into the scratch workspace,
// blocks on the editor, then re-scans for residual markers.
func editSession(session *planner.Session, result *planner.MergeResult, editor []string, opts Options) error {
	rel := filepath.Join("fix", filepath.FromSlash(result.RelPath))
	if err := safeio.WriteFileContained(session.ScratchDir(), rel, []byte(result.Text)); err != nil {
		return fmt.Errorf("stage conflicted file: %w", err)
	}
	path, err := safeio.JoinContained(session.ScratchDir(), rel)
	if err != nil {
		return err
	}

	if err := opts.LaunchEditor(editor, path); err != nil {
		return fmt.Errorf("run editor: %w", err)
	}

	edited, err := os.ReadFile(path) // #nosec G304 -- path is inside the session scratch dir
	if err != nil {
		return fmt.Errorf("read edited file: %w", err)
	}

	Rescan(result, string(edited))
	return nil
}

// Rescan updates a result with edited content: the conflict stands until no
// marker lines remain.
func Rescan(result *planner.MergeResult, edited string) {
	result.Text = edited
	if comparator.HasConflictMarkers(edited) {
		result.Status = planner.StatusConflicted
	} else {
		result.Status = planner.StatusOK
		result.Notes = nil
	}
}

// conflictSource names the overlays to blame in the prompt, falling back to
// all contributors when attribution is unavailable.
func conflictSource(result *planner.MergeResult) []string {
	if len(result.ConflictsWith) > 0 {
		return result.ConflictsWith
	}
	return result.Contributors
}
