package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"talibgen/internal/domain"
)

// Writer persists artifacts as files below an output directory.
type Writer struct {
	dir          string
	ext          string
	manifestName string
}

func NewWriter(dir, ext, manifestName string) *Writer {
	if ext == "" {
		ext = "rs"
	}
	if manifestName == "" {
		manifestName = "mod"
	}
	return &Writer{dir: dir, ext: ext, manifestName: manifestName}
}

// Path returns the file path a module is written to.
func (w *Writer) Path(module string) string {
	return filepath.Join(w.dir, module+"."+w.ext)
}

func (w *Writer) ManifestPath() string {
	return w.Path(w.manifestName)
}

func (w *Writer) WriteArtifact(ctx context.Context, module, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.writeAtomic(w.Path(module), content)
}

func (w *Writer) WriteManifest(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.writeAtomic(w.ManifestPath(), content)
}

// Remove deletes a previously generated module. A missing file is not an error.
func (w *Writer) Remove(module string) error {
	if err := os.Remove(w.Path(module)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", module, err)
	}
	return nil
}

// Exists reports whether the module file is on disk.
func (w *Writer) Exists(module string) bool {
	_, err := os.Stat(w.Path(module))
	return err == nil
}

// FileDigest hashes the module file on disk, in the same form as Digest.
func (w *Writer) FileDigest(module string) (string, bool) {
	data, err := os.ReadFile(w.Path(module))
	if err != nil {
		return "", false
	}
	return digest(data), true
}

// writeAtomic writes content to a temp file in the target directory and
// renames it into place, so readers never see a partial file.
func (w *Writer) writeAtomic(path, content string) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(w.dir, ".talibgen-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Digest is the content hash recorded for a written artifact.
func Digest(a domain.Artifact) string {
	return digest([]byte(a.Source))
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
