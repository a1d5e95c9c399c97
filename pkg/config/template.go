package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultTemplate is the documented configuration written on first run.
// It mirrors DefaultConfig; keep the two in sync.
const defaultTemplate = `# dyfetch configuration file
#
# Values can also be set with environment variables prefixed with DYFETCH_
# (for example DYFETCH_OUTPUT_ROOT, DYFETCH_LINKS) or overridden with
# command line flags.

# Comma-separated list of shared profile links. The downloader refuses to
# run while this is empty.
# Example: "https://v.douyin.com/abcdef/, https://v.douyin.com/ghijkl/"
links: ""

output:
  # Directory that receives one subdirectory per creator.
  root: ./downloads
  # Character width of the per-file progress bar.
  bar_width: 50

history:
  # Append-only ledger of already-downloaded items, one hash per line.
  path: download_history.txt

download:
  # Per-request network timeout in seconds.
  timeout_seconds: 10
  # Attempts per catalog call or video download before the link fails.
  max_retries: 3
  # Items requested per catalog page.
  page_size: 21
  # How often an empty catalog page is refetched with the same cursor
  # before the link fails. 0 retries forever.
  empty_page_limit: 0

rate_limit:
  requests_per_minute: 60
  burst_size: 5
  # token_bucket or sliding_window
  strategy: token_bucket

notifications:
  enabled: true
  on_complete: true
  on_error: true

logging:
  # debug, info, warn or error
  level: info
  # Optional log file; empty logs to the console only.
  file: ""
`

// WriteDefault writes the documented default configuration to path,
// creating parent directories as needed. It refuses to overwrite an
// existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultTemplate), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// EnsureFile makes sure a configuration file exists. When configPath is
// empty the standard locations are checked and, if none holds a file, a
// documented default is written to the default location. It returns the
// path of a newly created file, or "" when a file was already present.
func EnsureFile(configPath string) (string, error) {
	if configPath == "" {
		if FindFile() != "" {
			return "", nil
		}
		configPath = DefaultFileName
	} else if _, err := os.Stat(configPath); err == nil {
		return "", nil
	}

	if err := WriteDefault(configPath); err != nil {
		return "", err
	}
	return configPath, nil
}
