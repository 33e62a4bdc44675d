package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/modkit/wsmerge/internal/catalog"
	"github.com/modkit/wsmerge/internal/materialize"
	"github.com/modkit/wsmerge/internal/planner"
	"github.com/modkit/wsmerge/internal/resolve"
	"github.com/modkit/wsmerge/pkg/config"
	"github.com/modkit/wsmerge/pkg/exitcode"
	"github.com/modkit/wsmerge/pkg/logger"
)

// mergeCmd represents the merge command
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge all mods into a single consolidated mod",
	Long: `Merge every mod directory in the working directory into one consolidated
mod that loads before everything else.

Each overridden script is folded mod-by-mod against the stock game version
with a three-way merge. Where two mods change the same region differently,
diff3-style conflict markers are written and, unless --no-fix is given, an
editor is offered per conflicted file. Files still conflicted at the end are
listed in the summary; resolve them by hand before starting the game.`,
	Args: cobra.NoArgs,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringP("w3dir", "w", "", "Witcher 3 install directory (overrides config)")
	mergeCmd.Flags().StringP("editor", "e", "", "Editor for resolving conflicts (overrides $EDITOR)")
	mergeCmd.Flags().BoolP("no-fix", "n", false, "Don't prompt to fix conflicts, just report them")
	mergeCmd.Flags().String("report", "", "Write a YAML merge report to the given file")
}

func runMerge(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fatal(exitcode.ConfigError, err)
	}
	if flagW3Dir, _ := cmd.Flags().GetString("w3dir"); flagW3Dir != "" {
		cfg.W3Dir = flagW3Dir
	}
	if flagEditor, _ := cmd.Flags().GetString("editor"); flagEditor != "" {
		cfg.Editor = flagEditor
	}
	noFix, _ := cmd.Flags().GetBool("no-fix")
	reportPath, _ := cmd.Flags().GetString("report")

	w3dir, err := catalog.ResolveW3Dir(cfg.W3Dir)
	if err != nil {
		return fatal(exitcode.DiscoveryError, err)
	}

	modNames, err := catalog.DiscoverMods(".", cfg.MergedModName)
	if err != nil {
		return fatal(exitcode.DiscoveryError, err)
	}
	if len(modNames) == 0 {
		return fatal(exitcode.DiscoveryError, fmt.Errorf("no mod directories found in the working directory"))
	}
	logger.Info("Discovered mods", logger.Int("count", len(modNames)))

	cat, err := catalog.Load(w3dir, ".", modNames, cfg.ScriptPatterns)
	if err != nil {
		return fatal(exitcode.DiscoveryError, err)
	}

	session, err := planner.NewSession(cat, nil)
	if err != nil {
		return fatal(exitcode.FileSystemError, err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn("Failed to remove scratch dir", logger.Err(cerr))
		}
	}()

	fmt.Println("Merging mods...")
	session.MergeAll()

	resolve.Run(session, resolve.Options{
		Editor:      cfg.Editor,
		Interactive: !noFix,
	})

	summary, err := materialize.WriteMerged(session, ".", cfg.MergedModName)
	if err != nil {
		return fatal(exitcode.FileSystemError, err)
	}

	materialize.PrintSummary(os.Stdout, summary)
	fmt.Println("Done!")

	if reportPath != "" {
		if err := materialize.WriteReport(reportPath, session); err != nil {
			return fatal(exitcode.FileSystemError, err)
		}
		logger.Info("Wrote merge report", logger.String("path", reportPath))
	}
	return nil
}
