// =============================================================================
// Gacha POS - Transaction Log
// =============================================================================
//
// The transaction log is an append-only newline-delimited JSON file, one
// TransactionRecord per line, oldest first.
//
// WRITES:
//   - Checkout appends one line (O_APPEND) and gets the previous file size
//     back so a failed checkout can cut the line off again
//   - Edits and deletions rewrite the whole file atomically
//
// READS:
//   Lines that do not decode are skipped with a warning, and keys outside
//   TransactionRecord are reported once per read before a rewrite drops
//   them. Record positions
//   used by Delete and Replace count decoded records only, so a rewrite
//   drops undecodable lines.
//
// =============================================================================

package txlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ginjaninja78/gacha-pos/internal/logger"
	"github.com/ginjaninja78/gacha-pos/internal/types"
	"github.com/ginjaninja78/gacha-pos/pkg/utils"
)

// ErrIndexOutOfRange is returned for a record position past the end of the log.
var ErrIndexOutOfRange = errors.New("transaction index out of range")

// Log is the transaction log file.
type Log struct {
	path string
	fm   *utils.FileManager
	log  logger.Logger
}

// New returns the log at path. fm may be nil to disable backups.
func New(path string, fm *utils.FileManager, log logger.Logger) *Log {
	if log == nil {
		log = logger.Nop()
	}
	return &Log{path: path, fm: fm, log: log}
}

// Path returns the log file location.
func (l *Log) Path() string { return l.path }

// Append writes rec as a new line and returns a function that removes it
// again. The undo function must be called before any other write.
func (l *Log) Append(rec types.TransactionRecord) (undo func() error, err error) {
	prev, err := utils.AppendJSONLine(l.path, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to append transaction: %w", err)
	}
	l.log.Debug("Appended transaction %s to %s", rec.ID, l.path)
	return func() error {
		l.log.Warn("Rolling back transaction %s", rec.ID)
		return utils.TruncateFile(l.path, prev)
	}, nil
}

// List returns every decodable record in file order.
func (l *Log) List() ([]types.TransactionRecord, error) {
	var out []types.TransactionRecord
	dropped := make(map[string]bool)
	err := utils.ReadJSONLines(l.path, func(lineNo int, line []byte) error {
		var rec types.TransactionRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			l.log.Warn("%s line %d: skipping malformed record: %v", l.path, lineNo, err)
			return nil
		}
		unknown, err := types.UnknownKeys(line, knownRecordKeys)
		if err != nil {
			l.log.Warn("%s line %d: skipping malformed record: %v", l.path, lineNo, err)
			return nil
		}
		for _, k := range unknown {
			dropped[k] = true
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction log: %w", err)
	}
	if len(dropped) > 0 {
		keys := make([]string, 0, len(dropped))
		for k := range dropped {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		l.log.Warn("%s: unknown keys will be dropped on the next write: %s", l.path, strings.Join(keys, ", "))
	}
	return out, nil
}

var knownRecordKeys = types.JSONKeys(types.TransactionRecord{})

// LastUnitPrice returns the unit price of the newest record for the given
// item position and board size.
func (l *Log) LastUnitPrice(itemIndex, hole int) (int, bool, error) {
	records, err := l.List()
	if err != nil {
		return 0, false, err
	}
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if r.ItemIndex == itemIndex && r.Hole == hole {
			return r.UnitPrice, true, nil
		}
	}
	return 0, false, nil
}

// Entry is a record with its position in the log.
type Entry struct {
	Index  int
	Record types.TransactionRecord
}

// Filter selects records whose day falls within [from, to] (YYYY-MM-DD,
// either bound may be empty) and, when member is set, whose member equals it.
func Filter(records []types.TransactionRecord, from, to, member string) []Entry {
	var out []Entry
	for i, r := range records {
		day := r.Date()
		if from != "" && day < from {
			continue
		}
		if to != "" && day > to {
			continue
		}
		if member != "" && r.Member != member {
			continue
		}
		out = append(out, Entry{Index: i, Record: r})
	}
	return out
}

// SumDue adds up the amount due of the records at the given positions.
func SumDue(records []types.TransactionRecord, indexes []int) (int, error) {
	total := 0
	for _, i := range indexes {
		if i < 0 || i >= len(records) {
			return 0, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
		}
		total += records[i].Due
	}
	return total, nil
}

// Delete removes the records at the given positions and rewrites the log.
func (l *Log) Delete(indexes ...int) (int, error) {
	records, err := l.List()
	if err != nil {
		return 0, err
	}
	unique := make(map[int]bool)
	for _, i := range indexes {
		if i < 0 || i >= len(records) {
			return 0, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
		}
		unique[i] = true
	}
	order := make([]int, 0, len(unique))
	for i := range unique {
		order = append(order, i)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(order)))
	for _, i := range order {
		records = append(records[:i], records[i+1:]...)
	}
	if err := l.rewrite(records); err != nil {
		return 0, err
	}
	l.log.Info("Deleted %d transaction(s)", len(order))
	return len(order), nil
}

// Replace overwrites the record at index and rewrites the log.
func (l *Log) Replace(index int, rec types.TransactionRecord) error {
	records, err := l.List()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(records) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	records[index] = rec
	if err := l.rewrite(records); err != nil {
		return err
	}
	l.log.Info("Replaced transaction %d (%s)", index, rec.Member)
	return nil
}

func (l *Log) rewrite(records []types.TransactionRecord) error {
	if _, err := l.fm.Backup(l.path); err != nil {
		l.log.Warn("Transaction log backup failed: %v", err)
	}
	if err := utils.WriteJSONLines(l.path, records); err != nil {
		return fmt.Errorf("failed to rewrite transaction log: %w", err)
	}
	return nil
}
