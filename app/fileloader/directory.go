package fileloader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IsGlobPattern reports whether path contains doublestar meta characters
func IsGlobPattern(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

// ExpandPaths resolves batch inputs. Literal paths are kept as given (so a
// missing file is reported by the load itself); glob patterns such as
// "data/**/*.csv" are expanded with doublestar into sorted, regular files.
// Each path appears once, at its first position.
func ExpandPaths(inputs []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, input := range inputs {
		if !IsGlobPattern(input) {
			add(input)
			continue
		}

		matches, err := doublestar.FilepathGlob(input)
		if err != nil {
			return nil, fmt.Errorf("pattern matching failed for %q: %w", input, err)
		}
		sort.Strings(matches)

		found := 0
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || info.IsDir() {
				continue
			}
			add(filepath.Clean(match))
			found++
		}
		if found == 0 {
			return nil, fmt.Errorf("%w: pattern %q matched no files", ErrNotFound, input)
		}
	}
	return out, nil
}
