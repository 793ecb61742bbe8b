package filewalker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Walker traverses directories and collects files with configured extensions.
type Walker struct {
	extensions map[string]bool
	skipDirs   map[string]bool
}

// NewWalker creates a Walker that accepts the given extensions
// (case-insensitive, leading dot expected).
func NewWalker(extensions []string) *Walker {
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = true
	}
	return &Walker{
		extensions: exts,
		skipDirs: map[string]bool{
			".git":         true,
			"node_modules": true,
			"bin":          true,
			"obj":          true,
		},
	}
}

// FileEntry represents a discovered file ready for processing.
type FileEntry struct {
	Path string
	// Ext is the lower-cased extension including the dot.
	Ext string
}

// Walk discovers all accepted files under the given root directory.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	var entries []FileEntry

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}

		if d.IsDir() {
			if path != root && w.skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !w.extensions[ext] {
			return nil
		}

		entries = append(entries, FileEntry{
			Path: path,
			Ext:  ext,
		})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered files")
	return entries, nil
}

// Read returns the content of a discovered file.
func Read(entry FileEntry) (string, error) {
	data, err := os.ReadFile(entry.Path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", entry.Path, err)
	}
	return string(data), nil
}
