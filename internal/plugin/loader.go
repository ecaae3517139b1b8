package plugin

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry is a discovered plugin.
type Entry struct {
	Name string
	Path string // the .lua file to run
}

// Discover lists the plugins in dir sorted by name: every name.lua file
// and every subdirectory with an init.lua. A missing dir yields none.
func Discover(dir string) ([]Entry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("discover %s: %w", dir, err)
	}

	seen := make(map[string]bool)
	var found []Entry
	for _, entry := range entries {
		e, err := resolve(filepath.Join(dir, entry.Name()))
		if err != nil || seen[e.Name] {
			continue
		}
		seen[e.Name] = true
		found = append(found, e)
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].Name < found[j].Name
	})
	return found, nil
}

// resolve maps a .lua file or a plugin directory to its Entry.
func resolve(path string) (Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %s", ErrPluginNotFound, path)
	}

	if !info.IsDir() {
		if filepath.Ext(path) != ".lua" {
			return Entry{}, fmt.Errorf("%w: %s is not a .lua file", ErrPluginNotFound, path)
		}
		return Entry{
			Name: strings.TrimSuffix(filepath.Base(path), ".lua"),
			Path: path,
		}, nil
	}

	main := filepath.Join(path, "init.lua")
	if _, err := os.Stat(main); err != nil {
		return Entry{}, fmt.Errorf("%w: %s", ErrNoEntryPoint, path)
	}
	return Entry{Name: filepath.Base(path), Path: main}, nil
}
