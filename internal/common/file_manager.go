package common

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// MaxReadSize bounds files read through FileManager
const MaxReadSize = 10 * 1024 * 1024

// FileManager provides file operations with standardized error handling and logging
type FileManager struct {
	logger zerolog.Logger
}

// NewFileManager creates a new FileManager instance
func NewFileManager(logger zerolog.Logger) *FileManager {
	return &FileManager{
		logger: logger.With().Str("component", "FileManager").Logger(),
	}
}

// FileExists checks if a file or directory exists
func (fm *FileManager) FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// ReadFile reads a whole file, refusing files larger than MaxReadSize
func (fm *FileManager) ReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, NewValidationError("path", path, "is a directory")
	}
	if info.Size() > MaxReadSize {
		return nil, NewValidationError("path", path, "file exceeds maximum read size")
	}
	return os.ReadFile(path)
}

// EnsureDirectory creates a directory and its parents if they don't exist
func (fm *FileManager) EnsureDirectory(path string, perm fs.FileMode) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return NewValidationError("path", path, "exists but is not a directory")
		}
		return nil
	}

	if err := os.MkdirAll(path, perm); err != nil {
		return WrapError(err, "failed to create directory: "+path)
	}

	fm.logger.Debug().Str("path", path).Msg("Created directory")
	return nil
}

// WriteFileAtomic writes data to a temp file in the target directory, syncs it
// and renames it over path. Readers never observe a partial file.
func (fm *FileManager) WriteFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := fm.EnsureDirectory(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return WrapError(err, "failed to create temp file for: "+path)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return WrapError(err, "failed to write temp file for: "+path)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return WrapError(err, "failed to sync temp file for: "+path)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return WrapError(err, "failed to close temp file for: "+path)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return WrapError(err, "failed to chmod temp file for: "+path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return WrapError(err, "failed to replace: "+path)
	}

	syncDir(dir)
	return nil
}

// WriteJSONAtomic marshals v with indentation and writes it atomically
func (fm *FileManager) WriteJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return WrapError(err, "failed to marshal JSON for: "+path)
	}
	return fm.WriteFileAtomic(path, append(data, '\n'), 0o644)
}

// ReadJSON decodes path into v. It returns false when the file does not exist;
// undecodable content yields an error matching ErrCorruptFile.
func (fm *FileManager) ReadJSON(path string, v interface{}) (bool, error) {
	data, err := fm.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, WrapError(err, "failed to read: "+path)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: failed to decode JSON from %s: %w", ErrCorruptFile, path, err)
	}
	return true, nil
}

// syncDir flushes the directory entry after a rename. Best effort: not every
// platform supports fsync on directories.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
