package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"techdoc/pkg/types"
)

// maxFileSize is the largest file considered for indexing (1 MB).
const maxFileSize = 1 << 20

// defaultIgnores always apply, on top of any .gitignore in the root.
var defaultIgnores = []string{
	".git/",
	".svn/",
	".hg/",
	"node_modules/",
	"vendor/",
	"__pycache__/",
	".venv/",
	"venv/",
	".idea/",
	".vscode/",
	".techdoc/",
	"dist/",
	"build/",
}

// Scanner discovers source files under a root directory, filtering by
// extension and ignore patterns. It is the file-enumeration collaborator
// of the orchestrator and owns no persistent state.
type Scanner struct {
	root    string
	exts    map[string]bool
	matcher *ignore.GitIgnore
}

// Config controls scanner behavior.
type Config struct {
	// Extensions restricts discovery to these file extensions (with dot).
	// Empty means every extension the chunker understands.
	Extensions []string
	// IgnorePatterns are extra gitignore-style patterns applied after the
	// defaults and the root's .gitignore.
	IgnorePatterns []string
	// RespectGitignore controls whether the root's .gitignore is honored.
	RespectGitignore bool
}

// New creates a Scanner for the given root. The root's .gitignore (when
// present and enabled) is compiled together with the default and
// configured patterns.
func New(root string, cfg Config) (*Scanner, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = types.CodeExtensions()
	}
	extSet := make(map[string]bool, len(exts))
	for _, e := range exts {
		extSet[strings.ToLower(e)] = true
	}

	patterns := append([]string{}, defaultIgnores...)
	patterns = append(patterns, cfg.IgnorePatterns...)

	var matcher *ignore.GitIgnore
	gitignorePath := filepath.Join(absRoot, ".gitignore")
	if cfg.RespectGitignore {
		if _, statErr := os.Stat(gitignorePath); statErr == nil {
			matcher, err = ignore.CompileIgnoreFileAndLines(gitignorePath, patterns...)
			if err != nil {
				// A malformed .gitignore should not block indexing.
				matcher = ignore.CompileIgnoreLines(patterns...)
			}
		}
	}
	if matcher == nil {
		matcher = ignore.CompileIgnoreLines(patterns...)
	}

	return &Scanner{root: absRoot, exts: extSet, matcher: matcher}, nil
}

// Root returns the absolute root the scanner walks.
func (s *Scanner) Root() string {
	return s.root
}

// Scan walks the tree and returns the relative (slash-separated) paths of
// every candidate source file, sorted for deterministic processing order.
// Unreadable directories are skipped, not fatal.
func (s *Scanner) Scan() ([]string, error) {
	var paths []string

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if s.matcher.MatchesPath(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip symlinks to avoid cycles and files outside the tree.
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if s.matcher.MatchesPath(rel) {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !s.exts[ext] {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		if info.Size() > maxFileSize || info.Size() == 0 {
			return nil
		}

		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}
