package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrClosed is returned by Append after Close
var ErrClosed = errors.New("hit writer is closed")

// HitWriter appends available usernames to a newline-delimited file.
// Each Append is one write under the mutex, so lines never interleave.
type HitWriter struct {
	path  string
	file  *os.File
	count int
	mu    sync.Mutex
}

// OpenHitWriter opens path for appending, creating it and its parent directory if needed.
// Existing content is kept so repeated runs accumulate.
func OpenHitWriter(path string) (*HitWriter, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}

	return &HitWriter{path: path, file: file}, nil
}

// Append writes username followed by a newline
func (w *HitWriter) Append(username string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return ErrClosed
	}

	if _, err := w.file.WriteString(username + "\n"); err != nil {
		return fmt.Errorf("failed to write %s: %w", username, err)
	}
	w.count++
	return nil
}

// Count returns the number of lines written by this writer
func (w *HitWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Path returns the output file path
func (w *HitWriter) Path() string {
	return w.path
}

// Close syncs and closes the file. Calling it twice is a no-op.
func (w *HitWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}

	syncErr := w.file.Sync()
	closeErr := w.file.Close()
	w.file = nil

	if err := errors.Join(syncErr, closeErr); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}
