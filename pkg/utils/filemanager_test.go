package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileAtomicReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	if err := WriteFileAtomic(path, []byte("first"), 0644); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0644); err != nil {
		t.Fatalf("second write: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("content = %q, want %q", got, "second")
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestBackup(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "inventory.json")
	if err := os.WriteFile(src, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("Disabled", func(t *testing.T) {
		fm := NewFileManager(dir, "", "")
		got, err := fm.Backup(src)
		if err != nil || got != "" {
			t.Errorf("Backup = %q, %v; want no-op", got, err)
		}
	})

	t.Run("MissingSource", func(t *testing.T) {
		fm := NewFileManager(dir, "", filepath.Join(dir, "bak"))
		got, err := fm.Backup(filepath.Join(dir, "nope.json"))
		if err != nil || got != "" {
			t.Errorf("Backup = %q, %v; want no-op", got, err)
		}
	})

	t.Run("Copies", func(t *testing.T) {
		fm := NewFileManager(dir, "", filepath.Join(dir, "bak"))
		got, err := fm.Backup(src)
		if err != nil {
			t.Fatalf("Backup: %v", err)
		}
		if !strings.HasPrefix(filepath.Base(got), "inventory_") || filepath.Ext(got) != ".json" {
			t.Errorf("backup name = %s", got)
		}
		data, _ := os.ReadFile(got)
		if string(data) != "[]" {
			t.Errorf("backup content = %q", data)
		}
	})
}

func TestReportPath(t *testing.T) {
	fm := NewFileManager("data", "closing", "")
	got := fm.ReportPath("logs", "2025-03-01", ".csv")
	want := filepath.Join("closing", "logs_2025-03-01.csv")
	if got != want {
		t.Errorf("ReportPath = %s, want %s", got, want)
	}
}

func TestWriteShiftSummary(t *testing.T) {
	fm := NewFileManager("", t.TempDir(), "")
	path, err := fm.WriteShiftSummary(ShiftSummary{Day: "2025-03-01", StartCash: 1000, Cash: 550})
	if err != nil {
		t.Fatalf("WriteShiftSummary: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Expected drawer: 1550") {
		t.Errorf("summary missing drawer total:\n%s", data)
	}
}
