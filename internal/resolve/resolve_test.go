package resolve

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modkit/wsmerge/internal/catalog"
	"github.com/modkit/wsmerge/internal/planner"
)

const conflictedText = "clean line\n" +
	"<<<<<<< merged\nmine\n||||||| base\nold\n=======\ntheirs\n>>>>>>> modB\n" +
	"tail\n"

func newSession(t *testing.T) *planner.Session {
	t.Helper()
	cat := &catalog.Catalog{Base: catalog.NewBaseSet(t.TempDir())}
	session, err := planner.NewSession(cat, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func addConflict(session *planner.Session, rel string) *planner.MergeResult {
	result := &planner.MergeResult{
		RelPath:       rel,
		Text:          conflictedText,
		Status:        planner.StatusConflicted,
		Contributors:  []string{"modA", "modB"},
		ConflictsWith: []string{"modB"},
	}
	session.Results[rel] = result
	return result
}

func TestRescanConvergence(t *testing.T) {
	result := &planner.MergeResult{Status: planner.StatusConflicted}

	Rescan(result, "all markers removed\n")
	assert.Equal(t, planner.StatusOK, result.Status)
	assert.Equal(t, "all markers removed\n", result.Text)

	Rescan(result, "still broken\n=======\n")
	assert.Equal(t, planner.StatusConflicted, result.Status)
}

func TestNonInteractiveDefersEverything(t *testing.T) {
	session := newSession(t)
	result := addConflict(session, "scripts/game.ws")

	Run(session, Options{Interactive: false})

	assert.Equal(t, planner.StatusConflicted, result.Status)
	assert.Equal(t, conflictedText, result.Text)
}

func TestInteractiveResolution(t *testing.T) {
	session := newSession(t)
	result := addConflict(session, "scripts/game.ws")

	var out bytes.Buffer
	edited := "clean line\nresolved\ntail\n"
	Run(session, Options{
		Editor:      "vim",
		Interactive: true,
		Stdin:       strings.NewReader("y\n"),
		Stdout:      &out,
		LaunchEditor: func(editor []string, path string) error {
			assert.Equal(t, []string{"vim"}, editor)
			return os.WriteFile(path, []byte(edited), 0o644)
		},
	})

	assert.Equal(t, planner.StatusOK, result.Status)
	assert.Equal(t, edited, result.Text)
	assert.Contains(t, out.String(), "scripts/game.ws")
	assert.Contains(t, out.String(), "modB")
}

func TestEmptyResponseMeansYes(t *testing.T) {
	session := newSession(t)
	result := addConflict(session, "scripts/game.ws")

	Run(session, Options{
		Editor:      "vim",
		Interactive: true,
		Stdin:       strings.NewReader("\n"),
		Stdout:      &bytes.Buffer{},
		LaunchEditor: func(editor []string, path string) error {
			return os.WriteFile(path, []byte("fixed\n"), 0o644)
		},
	})

	assert.Equal(t, planner.StatusOK, result.Status)
}

func TestDeclineKeepsMarkersAndContinues(t *testing.T) {
	session := newSession(t)
	first := addConflict(session, "scripts/a.ws")
	second := addConflict(session, "scripts/b.ws")

	edits := 0
	Run(session, Options{
		Editor:      "vim",
		Interactive: true,
		Stdin:       strings.NewReader("n\ny\n"),
		Stdout:      &bytes.Buffer{},
		LaunchEditor: func(editor []string, path string) error {
			edits++
			return os.WriteFile(path, []byte("fixed\n"), 0o644)
		},
	})

	// First declined, second resolved.
	assert.Equal(t, planner.StatusConflicted, first.Status)
	assert.Equal(t, conflictedText, first.Text)
	assert.Equal(t, planner.StatusOK, second.Status)
	assert.Equal(t, 1, edits)
}

func TestRepromptUntilMarkersGone(t *testing.T) {
	session := newSession(t)
	result := addConflict(session, "scripts/game.ws")

	attempt := 0
	Run(session, Options{
		Editor:      "vim",
		Interactive: true,
		Stdin:       strings.NewReader("y\ny\n"),
		Stdout:      &bytes.Buffer{},
		LaunchEditor: func(editor []string, path string) error {
			attempt++
			if attempt == 1 {
				// First edit leaves a marker behind.
				return os.WriteFile(path, []byte("oops\n=======\n"), 0o644)
			}
			return os.WriteFile(path, []byte("fixed\n"), 0o644)
		},
	})

	assert.Equal(t, 2, attempt)
	assert.Equal(t, planner.StatusOK, result.Status)
}

func TestEditorSplitsArguments(t *testing.T) {
	session := newSession(t)
	addConflict(session, "scripts/game.ws")

	var got []string
	Run(session, Options{
		Editor:      "code --wait",
		Interactive: true,
		Stdin:       strings.NewReader("y\n"),
		Stdout:      &bytes.Buffer{},
		LaunchEditor: func(editor []string, path string) error {
			got = editor
			return os.WriteFile(path, []byte("fixed\n"), 0o644)
		},
	})

	assert.Equal(t, []string{"code", "--wait"}, got)
}

func TestEditorFailureLeavesConflict(t *testing.T) {
	session := newSession(t)
	result := addConflict(session, "scripts/game.ws")

	Run(session, Options{
		Editor:      "vim",
		Interactive: true,
		Stdin:       strings.NewReader("y\ny\n"),
		Stdout:      &bytes.Buffer{},
		LaunchEditor: func(editor []string, path string) error {
			return fmt.Errorf("editor crashed")
		},
	})

	assert.Equal(t, planner.StatusConflicted, result.Status)
}
