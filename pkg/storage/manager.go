package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	errs "dyfetch/pkg/errors"
)

// Manager lays out downloaded videos under one output root, one directory
// per creator.
type Manager struct {
	root string
}

// NewManager creates a storage manager rooted at root, creating the
// directory if needed.
func NewManager(root string) (*Manager, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errs.Newf(errs.ErrorTypeFilesystem, 0, "failed to create output root: %v", err)
	}

	return &Manager{root: root}, nil
}

// Root returns the output root directory
func (m *Manager) Root() string {
	return m.root
}

// CreatorDir ensures the directory for one creator exists and returns it.
// The name must already be sanitized.
func (m *Manager) CreatorDir(name string) (string, error) {
	dir := filepath.Join(m.root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errs.Newf(errs.ErrorTypeFilesystem, 0, "failed to create creator directory: %v", err)
	}

	return dir, nil
}

// PartialPath is where an in-flight download lives: the final name without
// its extension. The extension is the completion marker.
func PartialPath(dir, title string) string {
	return filepath.Join(dir, title)
}

// FinalPath is where a finished download lives.
func FinalPath(dir, title string) string {
	return filepath.Join(dir, title+".mp4")
}

// SaveStream copies r to disk under dir, reporting progress per chunk, and
// marks the file complete by renaming it to its final extension. On any
// failure, including cancellation, the partial file is removed; no partial
// download ever carries the final name.
func (m *Manager) SaveStream(ctx context.Context, dir, title string, r io.Reader, total int64, progress func(written, total int64)) (string, error) {
	partial := PartialPath(dir, title)
	final := FinalPath(dir, title)

	out, err := os.Create(partial)
	if err != nil {
		return "", errs.Newf(errs.ErrorTypeFilesystem, 0, "failed to create file: %v", err)
	}

	if _, err := copyWithProgress(ctx, out, r, total, progress); err != nil {
		out.Close()
		os.Remove(partial)
		return "", err
	}

	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(partial)
		return "", errs.Newf(errs.ErrorTypeFilesystem, 0, "failed to sync file: %v", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(partial)
		return "", errs.Newf(errs.ErrorTypeFilesystem, 0, "failed to close file: %v", err)
	}

	if err := os.Rename(partial, final); err != nil {
		os.Remove(partial)
		return "", errs.Newf(errs.ErrorTypeFilesystem, 0, "failed to finalize file: %v", err)
	}

	return final, nil
}

// copyWithProgress is io.Copy with a cancellation check and a progress
// callback per chunk. Write-side failures are filesystem errors; read-side
// failures keep the transport flavor so the caller can tell them apart.
func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, total int64, progress func(written, total int64)) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64

	for {
		select {
		case <-ctx.Done():
			return written, errs.New(errs.ErrorTypeCanceled, "download canceled", 0)
		default:
		}

		n, rerr := src.Read(buf)
		if n > 0 {
			nw, werr := dst.Write(buf[:n])
			if werr == nil && nw < n {
				werr = io.ErrShortWrite
			}
			if werr != nil {
				return written, errs.Newf(errs.ErrorTypeFilesystem, 0, "failed to write file data: %v", werr)
			}
			written += int64(nw)
			if progress != nil {
				progress(written, total)
			}
		}

		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			if ctx.Err() != nil {
				return written, errs.New(errs.ErrorTypeCanceled, "download canceled", 0)
			}
			return written, errs.Newf(errs.ErrorTypeNetwork, 0, "stream read failed: %v", rerr)
		}
	}
}
