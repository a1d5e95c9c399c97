package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLedger(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "history.txt")

	t.Run("OpenCreatesMissingFile", func(t *testing.T) {
		ledger, err := Open(path)
		if err != nil {
			t.Fatalf("Failed to open ledger: %v", err)
		}
		defer ledger.Close()

		if ledger.Len() != 0 {
			t.Errorf("Expected empty ledger, got %d entries", ledger.Len())
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Expected ledger file to exist: %v", err)
		}
	})

	t.Run("AppendThenContains", func(t *testing.T) {
		ledger, err := Open(path)
		if err != nil {
			t.Fatalf("Failed to open ledger: %v", err)
		}
		defer ledger.Close()

		key := Key("creator", "title")
		if ledger.Contains(key) {
			t.Error("Expected key to be absent before append")
		}

		if err := ledger.Append(key); err != nil {
			t.Fatalf("Failed to append key: %v", err)
		}
		if !ledger.Contains(key) {
			t.Error("Expected key to be present after append")
		}
		if ledger.Len() != 1 {
			t.Errorf("Expected 1 entry, got %d", ledger.Len())
		}

		// Appending the same key again must not duplicate the line.
		if err := ledger.Append(key); err != nil {
			t.Fatalf("Failed to re-append key: %v", err)
		}
		if ledger.Len() != 1 {
			t.Errorf("Expected 1 entry after duplicate append, got %d", ledger.Len())
		}
	})

	t.Run("PersistsAcrossReopen", func(t *testing.T) {
		ledger, err := Open(path)
		if err != nil {
			t.Fatalf("Failed to reopen ledger: %v", err)
		}
		defer ledger.Close()

		if !ledger.Contains(Key("creator", "title")) {
			t.Error("Expected key appended in earlier run to survive reopen")
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("Failed to read ledger file: %v", err)
		}
		lines := strings.Fields(string(data))
		if len(lines) != 1 {
			t.Errorf("Expected exactly 1 line in ledger file, got %d", len(lines))
		}
	})
}

func TestLedgerKeepsUnknownLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.txt")
	content := "not-a-hash\n\n  \n" + Key("a", "b") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to seed ledger file: %v", err)
	}

	ledger, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open ledger: %v", err)
	}
	defer ledger.Close()

	if ledger.Len() != 2 {
		t.Errorf("Expected 2 entries (garbage kept, blanks dropped), got %d", ledger.Len())
	}
	if !ledger.Contains("not-a-hash") {
		t.Error("Expected garbage line to be kept as an opaque key")
	}
	if !ledger.Contains(Key("a", "b")) {
		t.Error("Expected real key to be loaded")
	}
}

func TestLedgerCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.txt")

	ledger, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open ledger in nested directory: %v", err)
	}
	defer ledger.Close()

	if err := ledger.Append(Key("creator", "video")); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}
}

func TestKey(t *testing.T) {
	k1 := Key("creator", "title")
	k2 := Key("creator", "title")
	if k1 != k2 {
		t.Error("Expected key derivation to be deterministic")
	}

	if len(k1) != 64 {
		t.Errorf("Expected 64 hex chars for a 256-bit digest, got %d", len(k1))
	}
	if k1 != strings.ToLower(k1) {
		t.Error("Expected lowercase hex")
	}

	if Key("creator", "other") == k1 {
		t.Error("Expected different titles to produce different keys")
	}
	if Key("other", "title") == k1 {
		t.Error("Expected different creators to produce different keys")
	}

	// Same title under the same creator is the same key, regardless of
	// which upload it came from. That is the dedup contract.
	if Key("creator", "douyin_20240101_120000") != Key("creator", "douyin_20240101_120000") {
		t.Error("Expected placeholder titles to collide deterministically")
	}
}
