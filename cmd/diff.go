package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modkit/wsmerge/internal/catalog"
	"github.com/modkit/wsmerge/internal/comparator"
	"github.com/modkit/wsmerge/pkg/config"
	"github.com/modkit/wsmerge/pkg/exitcode"
	"github.com/modkit/wsmerge/pkg/logger"
	"github.com/modkit/wsmerge/pkg/safeio"
)

// diffCmd represents the diff command
var diffCmd = &cobra.Command{
	Use:   "diff MOD_DIR",
	Short: "Show what a mod changes versus the stock game scripts",
	Long: `Show a per-file diff of one mod directory against the stock game scripts.

Pure read mode: nothing is merged and nothing is written. The merged output
dir itself can be inspected too (wsmerge diff mod0000_merged). Scripts the
base game does not ship are reported as wholly new files.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().StringP("w3dir", "w", "", "Witcher 3 install directory (overrides config)")
	diffCmd.Flags().String("diff-command", "", "External command to render diffs (e.g. \"diff -u --color=always\")")
}

func runDiff(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fatal(exitcode.ConfigError, err)
	}
	if flagW3Dir, _ := cmd.Flags().GetString("w3dir"); flagW3Dir != "" {
		cfg.W3Dir = flagW3Dir
	}
	if flagDiff, _ := cmd.Flags().GetString("diff-command"); flagDiff != "" {
		cfg.DiffCommand = flagDiff
	}

	var external []string
	if cfg.DiffCommand != "" {
		external, err = comparator.SplitDiffCommand(cfg.DiffCommand)
		if err != nil {
			return fatal(exitcode.ConfigError, err)
		}
	}

	w3dir, err := catalog.ResolveW3Dir(cfg.W3Dir)
	if err != nil {
		return fatal(exitcode.DiscoveryError, err)
	}

	modName := strings.TrimRight(args[0], "/\\")
	overlay, err := catalog.LoadOverlay(".", modName, 0, cfg.ScriptPatterns)
	if err != nil {
		return fatal(exitcode.DiscoveryError, err)
	}

	base := catalog.NewBaseSet(w3dir)

	var scratch string
	if external != nil {
		scratch, err = os.MkdirTemp("", "wsmerge-diff-")
		if err != nil {
			return fatal(exitcode.FileSystemError, err)
		}
		defer func() { _ = os.RemoveAll(scratch) }()
	}

	for _, rel := range overlay.SortedPaths() {
		sf := overlay.Files[rel]
		if sf.DecodeErr != nil {
			logger.Error("Cannot diff file", logger.String("file", rel), logger.Err(sf.DecodeErr))
			continue
		}

		stock := base.Get(rel)
		if stock.DecodeErr != nil {
			logger.Error("Cannot read base file", logger.String("file", rel), logger.Err(stock.DecodeErr))
			continue
		}
		if stock.Missing {
			fmt.Printf("=== %s: new file, not in base game ===\n", rel)
			fmt.Print(sf.Text)
			if !strings.HasSuffix(sf.Text, "\n") {
				fmt.Println()
			}
			continue
		}

		if external != nil {
			if err := externalFileDiff(external, scratch, rel, modName, stock.Text, sf.Text); err != nil {
				return fatal(exitcode.GeneralError, err)
			}
			continue
		}

		diff, err := comparator.UnifiedDiff(stock.Text, sf.Text, "base/"+rel, modName+"/"+rel)
		if err != nil {
			return fatal(exitcode.GeneralError, err)
		}
		fmt.Print(diff)
	}
	return nil
}

// externalFileDiff stages decoded copies in the scratch dir and hands them to
// the user's diff command for display.
func externalFileDiff(command []string, scratch, rel, modName, baseText, modText string) error {
	baseRel := filepath.Join("base", filepath.FromSlash(rel))
	modRel := filepath.Join(modName, filepath.FromSlash(rel))
	if err := safeio.WriteFileContained(scratch, baseRel, []byte(baseText)); err != nil {
		return err
	}
	if err := safeio.WriteFileContained(scratch, modRel, []byte(modText)); err != nil {
		return err
	}
	return comparator.ExternalDiff(command,
		filepath.Join(scratch, baseRel), filepath.Join(scratch, modRel))
}
