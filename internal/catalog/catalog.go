// Package catalog discovers script overlays (mod directories) and the base
// game scripts they override, and groups overridden files by relative path.
package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/modkit/wsmerge/internal/encoding"
	"github.com/modkit/wsmerge/pkg/logger"
	"github.com/modkit/wsmerge/pkg/safeio"
)

// contentDir is the subdirectory inside both the game install and every mod
// that holds script files.
const contentDir = "content"

// baseScriptsDir is where the stock game keeps its scripts, relative to the
// install root.
var baseScriptsDir = filepath.Join("content", "content0")

// ScriptFile is one decoded script variant: a stock file, a modded copy, or
// the eventual merged result.
type ScriptFile struct {
	RelPath string // forward-slash path relative to content/
	Text    string // UTF-8, LF newlines
	Charset encoding.Charset
	// Missing marks a base lookup for a script the stock game does not
	// ship. The empty Text stands in as the common ancestor.
	Missing bool
	// DecodeErr is set when the on-disk bytes could not be decoded. The file
	// still occupies its path so the merge can surface the problem instead
	// of silently dropping the mod's change.
	DecodeErr error
}

// Overlay is one mod directory's set of script overrides. Ordinal reflects
// discovery order, which is the game's load order.
type Overlay struct {
	Name    string
	Ordinal int
	Files   map[string]*ScriptFile
}

// SortedPaths returns the overlay's relative paths in deterministic order.
func (o *Overlay) SortedPaths() []string {
	paths := make([]string, 0, len(o.Files))
	for p := range o.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// BaseSet lazily loads stock game scripts. Scripts the base game does not
// ship (files added wholesale by mods) resolve to an empty dummy so the
// three-way merge sees them as pure additions.
type BaseSet struct {
	root  string // game install dir
	cache map[string]*ScriptFile
}

// NewBaseSet returns a BaseSet rooted at the given install directory.
func NewBaseSet(w3dir string) *BaseSet {
	return &BaseSet{root: w3dir, cache: make(map[string]*ScriptFile)}
}

// Get returns the stock version of a script, an empty dummy if the base game
// has no such file, or a ScriptFile with DecodeErr set when it cannot be read
// as text.
func (b *BaseSet) Get(relPath string) *ScriptFile {
	if sf, ok := b.cache[relPath]; ok {
		return sf
	}

	sf := &ScriptFile{RelPath: relPath, Charset: encoding.UTF16LE}
	data, err := safeio.ReadFileContained(filepath.Join(b.root, baseScriptsDir), relPath)
	switch {
	case os.IsNotExist(err):
		// Mod-added script: empty base makes every mod line an addition.
		sf.Missing = true
	case err != nil:
		sf.DecodeErr = fmt.Errorf("read base script: %w", err)
	default:
		text, charset, derr := encoding.Decode(data)
		if derr != nil {
			sf.DecodeErr = derr
		} else {
			sf.Text = text
			sf.Charset = charset
		}
	}

	b.cache[relPath] = sf
	return sf
}

// ValidateW3Dir checks that dir looks like a Witcher 3 install by probing for
// the game binary.
func ValidateW3Dir(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "bin", "x64", "witcher3.exe"))
	return err == nil
}

// ResolveW3Dir validates the configured install dir, falling back to the
// parent directory when the tool is run from inside the game's mods/ folder.
func ResolveW3Dir(configured string) (string, error) {
	if ValidateW3Dir(configured) {
		return configured, nil
	}
	if ValidateW3Dir("..") {
		parent, err := filepath.Abs("..")
		if err != nil {
			return "", err
		}
		logger.Info("Using Witcher 3 install path from parent directory", logger.String("path", parent))
		return parent, nil
	}
	return "", fmt.Errorf("could not find Witcher 3 install at %s", configured)
}

// loadOrderKey folds a mod name the way the game engine sorts mods:
// case-insensitive ASCII, which places digits before underscore before
// letters. Unresolved-conflict precedence follows this order, so it must
// match the engine exactly.
func loadOrderKey(name string) string {
	return strings.ToLower(name)
}

// LoadOrderLess reports whether mod a loads before mod b.
func LoadOrderLess(a, b string) bool {
	return loadOrderKey(a) < loadOrderKey(b)
}

// SortByLoadOrder sorts mod names in engine load order.
func SortByLoadOrder(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return LoadOrderLess(names[i], names[j])
	})
}

// DiscoverMods enumerates mod directories in workDir, excluding the merged
// output dir and dot-prefixed entries, sorted in engine load order. The
// engine loads every directory under mods/, so discovery does too.
func DiscoverMods(workDir, mergedModName string) ([]string, error) {
	entries, err := os.ReadDir(workDir)
	if err != nil {
		return nil, fmt.Errorf("read mods directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || name == mergedModName {
			continue
		}
		// Follow symlinks so linked-in mod dirs count.
		info, err := os.Stat(filepath.Join(workDir, name))
		if err != nil || !info.IsDir() {
			continue
		}
		names = append(names, name)
	}

	SortByLoadOrder(names)
	return names, nil
}

// validateModName rejects names the tool refuses to treat as mods: anything
// outside the working directory and shell-expansion leftovers.
func validateModName(name string) error {
	if name == "" {
		return fmt.Errorf("empty mod name")
	}
	if strings.HasPrefix(name, "~") {
		return fmt.Errorf("mod name %q: home-relative names not supported", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("mod name %q: only mod dirs in the working directory are supported", name)
	}
	return nil
}

// LoadOverlay reads one mod directory's script files. Every matched file must
// live under <mod>/content/; files that fail to decode are kept with
// DecodeErr set so the merge reports them per path.
func LoadOverlay(workDir, name string, ordinal int, patterns []string) (*Overlay, error) {
	name = strings.TrimRight(name, string(os.PathSeparator))
	if err := validateModName(name); err != nil {
		return nil, err
	}

	modRoot := filepath.Join(workDir, name)
	if info, err := os.Stat(modRoot); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("mod directory %q not found", name)
	}

	overlay := &Overlay{Name: name, Ordinal: ordinal, Files: make(map[string]*ScriptFile)}
	contentRoot := filepath.Join(modRoot, contentDir)

	err := filepath.WalkDir(modRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(modRoot, path)
		if err != nil {
			return err
		}
		relSlash := filepath.ToSlash(rel)

		if !matchesAny(relSlash, patterns) {
			return nil
		}
		if !strings.HasPrefix(relSlash, contentDir+"/") {
			return fmt.Errorf("script %s is outside %s/%s/", relSlash, name, contentDir)
		}

		scriptRel := strings.TrimPrefix(relSlash, contentDir+"/")
		sf := &ScriptFile{RelPath: scriptRel}
		data, rerr := safeio.ReadFileContained(contentRoot, scriptRel)
		if rerr != nil {
			sf.DecodeErr = fmt.Errorf("read %s: %w", relSlash, rerr)
		} else if text, charset, derr := encoding.Decode(data); derr != nil {
			sf.DecodeErr = derr
		} else {
			sf.Text = text
			sf.Charset = charset
		}
		overlay.Files[scriptRel] = sf
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(overlay.Files) == 0 {
		logger.Warn("Mod contains no script files", logger.String("mod", name))
	}
	return overlay, nil
}

// matchesAny reports whether rel matches at least one doublestar pattern.
func matchesAny(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// PathGroup is the ordered list of overlays that define one relative path.
type PathGroup struct {
	RelPath  string
	Overlays []*Overlay
}

// Catalog ties the base set to the discovered overlays.
type Catalog struct {
	Base     *BaseSet
	Overlays []*Overlay
}

// Load builds a Catalog for the named mods under workDir.
func Load(w3dir, workDir string, modNames []string, patterns []string) (*Catalog, error) {
	cat := &Catalog{Base: NewBaseSet(w3dir)}
	seen := make(map[string]bool)
	for i, name := range modNames {
		if seen[name] {
			return nil, fmt.Errorf("duplicate mod %q", name)
		}
		seen[name] = true
		overlay, err := LoadOverlay(workDir, name, i, patterns)
		if err != nil {
			return nil, err
		}
		cat.Overlays = append(cat.Overlays, overlay)
	}
	return cat, nil
}

// PathGroups returns one group per relative path defined by any overlay,
// groups sorted by path and overlays within a group in load order.
func (c *Catalog) PathGroups() []PathGroup {
	byPath := make(map[string][]*Overlay)
	for _, overlay := range c.Overlays {
		for rel := range overlay.Files {
			byPath[rel] = append(byPath[rel], overlay)
		}
	}

	groups := make([]PathGroup, 0, len(byPath))
	for rel, overlays := range byPath {
		sort.SliceStable(overlays, func(i, j int) bool {
			return overlays[i].Ordinal < overlays[j].Ordinal
		})
		groups = append(groups, PathGroup{RelPath: rel, Overlays: overlays})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].RelPath < groups[j].RelPath
	})
	return groups
}

// Find returns the overlay with the given name, or nil.
func (c *Catalog) Find(name string) *Overlay {
	for _, overlay := range c.Overlays {
		if overlay.Name == name {
			return overlay
		}
	}
	return nil
}
