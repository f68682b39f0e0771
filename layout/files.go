// Package layout reorganizes raw RGB-D dataset folders into the canonical layouts the association
// tools and downstream reconstruction pipelines expect.
package layout

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// SortAlphanum sorts names so that digit runs compare numerically: "frame2.png" sorts before
// "frame10.png".
func SortAlphanum(names []string) {
	slices.SortStableFunc(names, compareAlphanum)
}

func compareAlphanum(a, b string) int {
	aParts, bParts := splitDigitRuns(a), splitDigitRuns(b)
	for i := 0; i < len(aParts) && i < len(bParts); i++ {
		var c int
		if i%2 == 1 {
			c = compareDigits(aParts[i], bParts[i])
		} else {
			c = strings.Compare(aParts[i], bParts[i])
		}
		if c != 0 {
			return c
		}
	}
	return len(aParts) - len(bParts)
}

// splitDigitRuns splits s into alternating text and digit runs. Even indices hold text (possibly
// empty) and odd indices hold digits.
func splitDigitRuns(s string) []string {
	parts := []string{}
	var cur strings.Builder
	inDigits := false
	for _, r := range s {
		isDigit := r >= '0' && r <= '9'
		if isDigit != inDigits {
			parts = append(parts, cur.String())
			cur.Reset()
			inDigits = isDigit
		}
		cur.WriteRune(r)
	}
	parts = append(parts, cur.String())
	return parts
}

func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}

// ListFiles returns "<rel><name>" for every regular file in dir whose extension is one of exts,
// in alphanumeric order. With no exts every regular file is listed.
func ListFiles(dir, rel string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot list %q", dir)
	}
	files := lo.FilterMap(entries, func(entry os.DirEntry, _ int) (string, bool) {
		if !isFile(filepath.Join(dir, entry.Name())) {
			return "", false
		}
		if len(exts) > 0 && !slices.Contains(exts, filepath.Ext(entry.Name())) {
			return "", false
		}
		return rel + entry.Name(), true
	})
	SortAlphanum(files)
	return files, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
