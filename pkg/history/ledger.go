package history

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/blake2b"

	"dyfetch/pkg/logger"
)

// Ledger is the append-only download history. Each line of the backing
// file is one lowercase hex key of an item that finished downloading.
// Lines are never rewritten or removed: a partial ledger can only cause
// a redundant re-download, never a missed one.
type Ledger struct {
	path   string
	file   *os.File
	keys   map[string]struct{}
	logger logger.Logger
	mu     sync.Mutex
}

// Open loads the ledger at path, creating an empty one if none exists.
// Every non-empty line is kept as an opaque key, including lines that no
// current version of the tool would produce.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	// O_APPEND only affects writes, so the same handle scans from the
	// start and appends to the end.
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open history ledger: %w", err)
	}

	keys := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			keys[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read history ledger: %w", err)
	}

	ledger := &Ledger{
		path:   path,
		file:   file,
		keys:   keys,
		logger: logger.GetLogger(),
	}

	ledger.logger.DebugWithFields("History ledger loaded", map[string]interface{}{
		"path":    path,
		"entries": len(keys),
	})

	return ledger, nil
}

// Contains reports whether key has already been recorded.
func (l *Ledger) Contains(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.keys[key]
	return ok
}

// Append records key durably. The line is synced to disk before Append
// returns, so a crash afterwards cannot lose the entry. Appending a key
// that is already present is a no-op.
func (l *Ledger) Append(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.keys[key]; ok {
		return nil
	}

	if _, err := l.file.WriteString(key + "\n"); err != nil {
		return fmt.Errorf("failed to append history key: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync history ledger: %w", err)
	}

	l.keys[key] = struct{}{}
	return nil
}

// Len returns the number of recorded keys.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.keys)
}

// Path returns the location of the backing file.
func (l *Ledger) Path() string {
	return l.path
}

// Close releases the backing file handle.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Key derives the ledger key for one item: the BLAKE2b-256 digest of the
// creator name and the sanitized title, as lowercase hex. The same pair
// always hashes to the same key, which is what lets re-runs skip finished
// work. Two items of one creator sharing a title collide on purpose: the
// duplicate is not worth a second download.
func Key(creatorName, title string) string {
	sum := blake2b.Sum256([]byte(creatorName + "|" + title))
	return hex.EncodeToString(sum[:])
}
