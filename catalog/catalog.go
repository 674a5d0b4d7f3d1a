// Package catalog lists the sample files in a directory.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/towel808/towel"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Dir is a flat directory of samples. It implements towel.Catalog.
type Dir struct {
	Path string
	// Patterns are matched case-insensitively against file names. Nil means
	// DefaultPatterns.
	Patterns []string
}

// DefaultFolder is the folder under the user's music directory samples are
// read from by default.
const DefaultFolder = "Towel Tuned 808s"

var (
	DefaultPatterns = []string{"*.wav", "*.aif", "*.aiff"}
	ErrNotFound     = errors.New("sample not found")
)

// DefaultPath returns <home>/Music/Towel Tuned 808s.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot find the home directory: %w", err)
	}
	return filepath.Join(home, "Music", DefaultFolder), nil
}

// List returns the matching files sorted by name. Subdirectories are not
// searched. A directory that does not exist holds no samples.
func (d Dir) List() ([]towel.SampleFile, error) {
	entries, err := os.ReadDir(d.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot list samples: %w", err)
	}
	patterns := d.Patterns
	if patterns == nil {
		patterns = DefaultPatterns
	}
	var files []towel.SampleFile
	for _, entry := range entries {
		if entry.IsDir() || !matches(entry.Name(), patterns) {
			continue
		}
		files = append(files, towel.SampleFile{
			Name: strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			Path: filepath.Join(d.Path, entry.Name()),
		})
	}
	slices.SortStableFunc(files, func(a, b towel.SampleFile) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
	return files, nil
}

func matches(name string, patterns []string) bool {
	name = strings.ToLower(name)
	for _, p := range patterns {
		if ok, _ := filepath.Match(strings.ToLower(p), name); ok {
			return true
		}
	}
	return false
}

// Find returns the file called name. An exact match is preferred; otherwise
// names are compared case-folded.
func Find(files []towel.SampleFile, name string) (towel.SampleFile, bool) {
	for _, f := range files {
		if f.Name == name {
			return f, true
		}
	}
	fold := cases.Fold()
	want := fold.String(name)
	for _, f := range files {
		if fold.String(f.Name) == want {
			return f, true
		}
	}
	return towel.SampleFile{}, false
}

// Names returns the names of files in order.
func Names(files []towel.SampleFile) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}

// DisplayName turns a file name like "sub_bass-long" into a title such as
// "Sub Bass Long". Letters already in upper case are kept.
func DisplayName(name string) string {
	name = strings.Join(strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	}), " ")
	return cases.Title(language.English, cases.NoLower).String(name)
}
