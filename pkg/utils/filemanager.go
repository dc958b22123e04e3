// =============================================================================
// Gacha POS - File Manager Utility
// =============================================================================
//
// This module provides the file handling shared by the JSON stores and the
// close-of-shift reports:
//   - Directory management
//   - Atomic whole-file rewrites (write temp file, fsync, rename)
//   - Backup copies before a store is rewritten
//   - Report file naming
//   - Shift summary text files
//
// A crash in the middle of a rewrite leaves either the old file or the new
// one on disk, never a truncated mix.
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager knows where the stores, the reports and the backups live.
type FileManager struct {
	// DataDir holds the JSON stores.
	DataDir string

	// ClosingDir receives close-of-shift reports.
	ClosingDir string

	// BackupDir receives copies of stores before a rewrite. Empty disables
	// backups.
	BackupDir string
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(dataDir, closingDir, backupDir string) *FileManager {
	return &FileManager{
		DataDir:    dataDir,
		ClosingDir: closingDir,
		BackupDir:  backupDir,
	}
}

// EnsureDirectories creates all configured directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.DataDir, fm.ClosingDir, fm.BackupDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// ATOMIC WRITES
// =============================================================================

// WriteFileAtomic replaces path with data. The new content is written to a
// temporary file in the same directory and renamed over the target.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// BACKUPS
// =============================================================================

// Backup copies path into BackupDir and returns the copy's path. It returns
// "" without error when backups are disabled or path does not exist yet.
func (fm *FileManager) Backup(path string) (string, error) {
	if fm == nil || fm.BackupDir == "" {
		return "", nil
	}
	if !FileExists(path) {
		return "", nil
	}

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := GenerateFileName("{name}_{timestamp}_{short}"+ext, map[string]string{
		"name": strings.TrimSuffix(base, ext),
	})
	dst := filepath.Join(fm.BackupDir, name)

	if err := os.MkdirAll(fm.BackupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	if err := copyFile(path, dst); err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", path, err)
	}
	return dst, nil
}

// =============================================================================
// FILE NAMING
// =============================================================================

// GenerateFileName expands placeholders in format.
//
// Placeholders:
//
//	{uuid}      - a random UUID
//	{short}     - the first 8 characters of a random UUID
//	{timestamp} - current time (YYYYMMDD_HHMMSS)
//	{date}      - current date (YYYYMMDD)
//	any key of params, e.g. {day} or {name}
func GenerateFileName(format string, params map[string]string) string {
	now := time.Now()
	id := uuid.New().String()

	replacements := map[string]string{
		"{uuid}":      id,
		"{short}":     id[:8],
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}

// ReportPath returns ClosingDir/<prefix>_<day><ext>.
func (fm *FileManager) ReportPath(prefix, day, ext string) string {
	return filepath.Join(fm.ClosingDir, GenerateFileName("{prefix}_{day}{ext}", map[string]string{
		"prefix": prefix,
		"day":    day,
		"ext":    ext,
	}))
}

// =============================================================================
// SHIFT SUMMARY
// =============================================================================

// ShiftSummary is the close-of-shift cash-up.
type ShiftSummary struct {
	Day           string
	Branch        string
	Staff         string
	ShiftStart    string
	ClosedAt      time.Time
	Transactions  int
	Draws         int
	FreeCount     int
	Gross         int
	Discount      int
	Due           int
	Cash          int
	Transfer      int
	Points        int
	StartCash     int
	ReceiveOpened int
}

// ExpectedDrawer is the cash that should be in the drawer at close.
func (s ShiftSummary) ExpectedDrawer() int {
	return s.StartCash + s.Cash
}

// WriteShiftSummary writes a human-readable summary file into ClosingDir.
func (fm *FileManager) WriteShiftSummary(summary ShiftSummary) (string, error) {
	path := fm.ReportPath("summary", summary.Day, ".txt")
	if err := os.MkdirAll(fm.ClosingDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create closing directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fmt.Fprint(writer, FormatShiftSummary(summary))
	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}
	return path, nil
}

// FormatShiftSummary renders the summary as text.
func FormatShiftSummary(s ShiftSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Shift Summary %s\n", s.Day)
	b.WriteString("================================================================================\n")
	fmt.Fprintf(&b, "  Branch:          %s\n", s.Branch)
	fmt.Fprintf(&b, "  Staff:           %s\n", s.Staff)
	fmt.Fprintf(&b, "  Shift start:     %s\n", s.ShiftStart)
	if !s.ClosedAt.IsZero() {
		fmt.Fprintf(&b, "  Closed at:       %s\n", s.ClosedAt.Format("2006-01-02 15:04:05"))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Transactions:    %d\n", s.Transactions)
	fmt.Fprintf(&b, "  Draws:           %d\n", s.Draws)
	fmt.Fprintf(&b, "  Free:            %d\n", s.FreeCount)
	fmt.Fprintf(&b, "  Gross:           %d\n", s.Gross)
	fmt.Fprintf(&b, "  Discount:        %d\n", s.Discount)
	fmt.Fprintf(&b, "  Due:             %d\n", s.Due)
	fmt.Fprintf(&b, "  Cash:            %d\n", s.Cash)
	fmt.Fprintf(&b, "  Transfer:        %d\n", s.Transfer)
	fmt.Fprintf(&b, "  Points:          %d\n", s.Points)
	fmt.Fprintf(&b, "  Start cash:      %d\n", s.StartCash)
	fmt.Fprintf(&b, "  Expected drawer: %d\n", s.ExpectedDrawer())
	fmt.Fprintf(&b, "  Pickups opened:  %d\n", s.ReceiveOpened)
	b.WriteString("================================================================================\n")
	return b.String()
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

// FileSize returns the size of a file in bytes, 0 if it does not exist.
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
