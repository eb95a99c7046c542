package install

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/scruffaluff/binstall/internal/core"
)

// FindExecutable locates the tool's executable inside an extracted archive
// tree. An exact basename match wins outright; otherwise candidates are
// scored by depth and name similarity and the best one is returned.
func FindExecutable(dir, binName string) (string, error) {
	exact, candidates, err := scanExecutables(dir, binName)
	if err != nil {
		return "", fmt.Errorf("%w: scan extracted archive: %v", core.ErrExtractionFailed, err)
	}
	if exact != "" {
		return exact, nil
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no executable named %q in archive", core.ErrExtractionFailed, binName)
	}

	sort.Slice(candidates, func(a, b int) bool {
		return scoreCandidate(candidates[a], binName, dir) > scoreCandidate(candidates[b], binName, dir)
	})
	return candidates[0], nil
}

func scanExecutables(dir, binName string) (exact string, candidates []string, err error) {
	err = filepath.Walk(dir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}

		base := filepath.Base(path)
		if base == binName {
			exact = path
			return filepath.SkipAll
		}

		if !looksExecutable(info, base) {
			return nil
		}
		// Shared libraries are never the main executable
		if strings.HasSuffix(base, ".so") || strings.Contains(base, ".so.") {
			return nil
		}
		candidates = append(candidates, path)
		return nil
	})
	return exact, candidates, err
}

func looksExecutable(info os.FileInfo, base string) bool {
	if info.Mode()&0111 != 0 {
		return true
	}
	// Windows archives carry no mode bits
	return strings.HasSuffix(strings.ToLower(base), ".exe")
}

// scoreCandidate prefers shallow files whose name resembles the tool name.
func scoreCandidate(path, binName, root string) int {
	score := 0

	rel := strings.TrimPrefix(path, root)
	rel = strings.Trim(rel, string(filepath.Separator))
	depth := len(strings.Split(rel, string(filepath.Separator)))
	score += (10 - depth) * 10

	base := strings.ToLower(filepath.Base(path))
	name := strings.ToLower(strings.TrimSuffix(binName, filepath.Ext(binName)))
	switch {
	case strings.TrimSuffix(base, filepath.Ext(base)) == name:
		score += 100
	case strings.HasPrefix(base, name):
		score += 50
	case strings.Contains(base, name):
		score += 25
	}

	if filepath.Base(filepath.Dir(path)) == "bin" {
		score += 20
	}

	return score
}
