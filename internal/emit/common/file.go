// Package common holds the filesystem writer shared by every emitter
// target, grounded on xxxbrian-openapi-rpc-codegen's internal/emit/common
// (temp-file-plus-rename writes, a check mode that reports drift without
// touching disk).
package common

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ymir-lang/ymir/internal/emit"
)

// WriteOptions controls WriteFile/WriteAll behavior.
type WriteOptions struct {
	// Check, when true, reports whether a file would change without
	// writing anything.
	Check bool
}

// WriteFile writes gf under baseDir via a temp-file-plus-rename, so a
// partially-written file is never observed at its final path. In check
// mode it compares against the existing file and reports drift without
// writing.
func WriteFile(baseDir string, gf emit.GeneratedFile, opts WriteOptions) (changed bool, err error) {
	full := filepath.Join(baseDir, gf.Path)

	if opts.Check {
		existing, err := os.ReadFile(full)
		if err != nil {
			if os.IsNotExist(err) {
				return true, nil
			}
			return false, err
		}
		return !bytes.Equal(existing, gf.Content), nil
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".ymir-*")
	if err != nil {
		return false, fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(gf.Content); err != nil {
		tmp.Close()
		return false, fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		return false, fmt.Errorf("renaming %s to %s: %w", tmpName, full, err)
	}
	return true, nil
}

// WriteAll writes every file in files under baseDir, returning the paths
// that changed (or would change, in check mode).
func WriteAll(baseDir string, files []emit.GeneratedFile, opts WriteOptions) ([]string, error) {
	var changed []string
	for _, gf := range files {
		didChange, err := WriteFile(baseDir, gf, opts)
		if err != nil {
			return changed, err
		}
		if didChange {
			changed = append(changed, gf.Path)
		}
	}
	return changed, nil
}
