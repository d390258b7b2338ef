package reconcile

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/afero"

	"github.com/afi-report/backend/pkg/utils"
)

type candidates struct {
	Pattern    string
	Discovered int
	Files      []string
}

// discover walks the patterns in order and returns the files of the first
// pattern that matches anything. Locations are never merged. Matches are
// sorted so that first-seen-wins deduplication does not depend on directory
// enumeration order, then capped.
func discover(fs afero.Fs, patterns []string, limit int) (candidates, error) {
	for _, pattern := range patterns {
		matches, err := afero.Glob(fs, pattern)
		if err != nil {
			return candidates{}, fmt.Errorf("glob %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			continue
		}

		sort.Strings(matches)
		found := candidates{Pattern: pattern, Discovered: len(matches), Files: matches}
		if limit > 0 && len(found.Files) > limit {
			found.Files = found.Files[:limit]
		}
		return found, nil
	}
	return candidates{}, nil
}

// fingerprint identifies the candidate set by path, size and modification
// time without opening any file.
func fingerprint(fs afero.Fs, files []string) (string, error) {
	parts := make([]string, 0, len(files)*3)
	for _, f := range files {
		info, err := fs.Stat(f)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", f, err)
		}
		parts = append(parts, f, strconv.FormatInt(info.Size(), 10), strconv.FormatInt(info.ModTime().UnixNano(), 10))
	}
	return "mapping:" + utils.HashParts(parts...), nil
}
