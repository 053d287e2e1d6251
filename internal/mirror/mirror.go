// SPDX-License-Identifier: Apache-2.0

// Package mirror copies schema bundles from a source directory tree into a
// destination, creating directories as needed.
package mirror

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// CopyDir mirrors the file tree rooted at from into to. Directories are
// created as needed and regular files are copied by name; existing files in
// the destination are overwritten. The walk is iterative, so arbitrarily
// deep trees do not grow the call stack.
func CopyDir(from, to string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	stack := []string{from}
	for len(stack) > 0 {
		working := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		logger.Debug("processing directory", zap.String("path", working))

		rel, err := filepath.Rel(from, working)
		if err != nil {
			return fmt.Errorf("relativizing %s against %s: %w", working, from, err)
		}
		dest := filepath.Join(to, rel)
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dest, err)
		}

		entries, err := os.ReadDir(working)
		if err != nil {
			return fmt.Errorf("reading directory %s: %w", working, err)
		}
		for _, entry := range entries {
			src := filepath.Join(working, entry.Name())
			if entry.IsDir() {
				stack = append(stack, src)
				continue
			}
			dst := filepath.Join(dest, entry.Name())
			logger.Debug("copying file",
				zap.String("from", src),
				zap.String("to", dst),
			)
			if err := copyFile(src, dst); err != nil {
				return err
			}
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dst, err)
	}
	return nil
}
