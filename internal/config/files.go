package config

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// IsWorkbook reports whether path has a spreadsheet extension regsheet reads.
func IsWorkbook(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// isLockFile matches the ~$name.xlsx owner files Excel leaves next to open
// workbooks.
func isLockFile(path string) bool {
	return strings.HasPrefix(filepath.Base(path), "~$")
}

// ResolveInputs expands the input patterns relative to rootPath, removes
// excluded files and returns the workbook paths sorted.
func (c *Config) ResolveInputs(rootPath string) ([]string, error) {
	included := globAll(rootPath, c.Inputs)
	excluded := globAll(rootPath, c.Exclude)

	var out []string
	for path := range included {
		if excluded[path] || !IsWorkbook(path) || isLockFile(path) {
			continue
		}
		out = append(out, path)
	}
	sort.Strings(out)
	return out, nil
}

// globAll expands every pattern under rootPath into a set of cleaned paths.
// Invalid patterns contribute nothing.
func globAll(rootPath string, patterns []string) map[string]bool {
	set := make(map[string]bool)
	for _, pattern := range patterns {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(rootPath, pattern)
		}
		matches, err := expandGlob(pattern)
		if err != nil {
			continue
		}
		for _, m := range matches {
			set[filepath.Clean(m)] = true
		}
	}
	return set
}

// expandGlob is filepath.Glob plus one recursive ** segment.
func expandGlob(pattern string) ([]string, error) {
	base, rest, ok := strings.Cut(pattern, "**")
	if !ok {
		return filepath.Glob(pattern)
	}
	return walkGlob(filepath.Clean(base), strings.TrimLeft(rest, string(filepath.Separator)))
}

// walkGlob returns files below base whose trailing path segments match
// suffix. Hidden directories (the cache dir among them) are not entered.
func walkGlob(base, suffix string) ([]string, error) {
	var results []string
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != base && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err == nil && matchSuffix(rel, suffix) {
			results = append(results, path)
		}
		return nil
	})
	return results, err
}

// matchSuffix matches pattern against the last segments of rel, one
// segment per pattern segment. An empty pattern matches everything.
func matchSuffix(rel, pattern string) bool {
	if pattern == "" {
		return true
	}
	sep := string(filepath.Separator)
	want := strings.Split(pattern, sep)
	have := strings.Split(rel, sep)
	if len(have) < len(want) {
		return false
	}
	matched, _ := filepath.Match(pattern, strings.Join(have[len(have)-len(want):], sep))
	return matched
}
