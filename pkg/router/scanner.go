package router

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// DefaultIgnore lists directory names never descended into while scanning.
var DefaultIgnore = []string{"node_modules", "vendor", "testdata"}

// Scanner lists route entries below a routes root.
type Scanner struct {
	fsys   fs.FS
	root   string
	ignore []string
}

// NewScanner creates a scanner over fsys rooted at root ("." for the
// filesystem root). Directory and file names matching an ignore pattern
// (path.Match syntax) are skipped, as are dot-files.
func NewScanner(fsys fs.FS, root string, ignore ...string) *Scanner {
	if root == "" {
		root = "."
	}
	return &Scanner{
		fsys:   fsys,
		root:   root,
		ignore: append(append([]string(nil), DefaultIgnore...), ignore...),
	}
}

// Scan returns every file below the root as a slash-separated path relative
// to it, sorted. Filtering by extension and grammar is left to the Parser.
func (s *Scanner) Scan() ([]string, error) {
	var entries []string
	err := fs.WalkDir(s.fsys, s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == s.root {
			return nil
		}
		if s.skip(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel := strings.TrimPrefix(p, s.root+"/")
		if s.root == "." {
			rel = p
		}
		entries = append(entries, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", s.root, err)
	}
	sort.Strings(entries)
	return entries, nil
}

func (s *Scanner) skip(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, pattern := range s.ignore {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
