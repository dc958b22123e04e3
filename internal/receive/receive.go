// =============================================================================
// Gacha POS - Receive Log
// =============================================================================
//
// The receive log tracks prize pickup for every checkout. Each record starts
// as a copy of its transaction and is then edited on its own (status, return
// box handling, pickup method, notes).
//
// FILE FORMAT:
//   The canonical form is newline-delimited JSON, one record per line.
//   Older data directories may hold a single JSON array instead. Load sniffs
//   the first non-blank byte: '[' means array. Every write produces NDJSON,
//   so the first write after an upgrade migrates the file.
//
// LEGACY KEYS:
//   已領取: true   -> status "已領取"
//   到期日          -> expire
//   other unknown keys are logged once and dropped on the next write
//
// =============================================================================

package receive

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ginjaninja78/gacha-pos/internal/logger"
	"github.com/ginjaninja78/gacha-pos/internal/types"
	"github.com/ginjaninja78/gacha-pos/internal/validation"
	"github.com/ginjaninja78/gacha-pos/pkg/utils"
)

var (
	// ErrIndexOutOfRange is returned for a record position past the end of
	// the log.
	ErrIndexOutOfRange = errors.New("receive index out of range")

	// ErrUnknownField is returned by UpdateField for a field that cannot be
	// edited.
	ErrUnknownField = errors.New("unknown receive field")
)

// Editable fields.
const (
	FieldStatus         = "status"
	FieldReturnPerson   = "return_person"
	FieldReturnDate     = "return_date"
	FieldPickedSentDate = "picked_sent_date"
	FieldReceiveMethod  = "receive_method"
	FieldNotes          = "notes"
)

// fieldLabels maps the column labels operators know to field names.
var fieldLabels = map[string]string{
	"商品狀態":   FieldStatus,
	"回盒負責人":  FieldReturnPerson,
	"回盒日期":   FieldReturnDate,
	"已取/寄日期": FieldPickedSentDate,
	"領取方式":   FieldReceiveMethod,
	"備註":     FieldNotes,
}

// Options configures validation and display.
type Options struct {
	// Statuses are the allowed status values.
	Statuses []string

	// Methods are the allowed pickup methods.
	Methods []string

	// HoldDays is how long prizes are held, counted from the pickup date.
	HoldDays int
}

// Log is the receive log file.
type Log struct {
	path string
	fm   *utils.FileManager
	log  logger.Logger
	opts Options
}

// New returns the receive log at path. fm may be nil to disable backups.
func New(path string, fm *utils.FileManager, log logger.Logger, opts Options) *Log {
	if log == nil {
		log = logger.Nop()
	}
	return &Log{path: path, fm: fm, log: log, opts: opts}
}

// Path returns the log file location.
func (l *Log) Path() string { return l.path }

// Options returns the configured options.
func (l *Log) Options() Options { return l.opts }

// =============================================================================
// LOADING
// =============================================================================

// List returns every decodable record in file order.
func (l *Log) List() ([]types.ReceiveRecord, error) {
	records, _, err := l.load()
	return records, err
}

// IsLegacy reports whether the file is still in the JSON array form.
func (l *Log) IsLegacy() (bool, error) {
	_, legacy, err := l.load()
	return legacy, err
}

func (l *Log) load() ([]types.ReceiveRecord, bool, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read receive log: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, false, nil
	}

	dropped := make(map[string]bool)
	var records []types.ReceiveRecord
	add := func(where string, raw []byte) {
		rec, unknown, err := decodeRecord(raw)
		if err != nil {
			l.log.Warn("%s %s: skipping malformed record: %v", l.path, where, err)
			return
		}
		for _, k := range unknown {
			dropped[k] = true
		}
		records = append(records, rec)
	}

	legacy := false
	if data[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal(data, &arr); err == nil {
			legacy = true
			for i, raw := range arr {
				add(fmt.Sprintf("element %d", i), raw)
			}
		} else {
			l.log.Warn("%s starts with '[' but is not a JSON array, reading as lines", l.path)
		}
	}
	if !legacy {
		err := utils.ScanJSONLines(bytes.NewReader(data), func(lineNo int, line []byte) error {
			add(fmt.Sprintf("line %d", lineNo), line)
			return nil
		})
		if err != nil {
			return nil, false, fmt.Errorf("failed to read receive log: %w", err)
		}
	}

	if len(dropped) > 0 {
		keys := make([]string, 0, len(dropped))
		for k := range dropped {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		l.log.Warn("%s: unknown keys will be dropped on the next write: %s", l.path, strings.Join(keys, ", "))
	}
	return records, legacy, nil
}

var knownRecordKeys = func() map[string]bool {
	keys := types.JSONKeys(types.ReceiveRecord{})
	keys["到期日"] = true
	return keys
}()

// decodeRecord decodes one record and folds legacy keys into their current
// fields. It also returns the keys it did not recognise.
func decodeRecord(raw []byte) (types.ReceiveRecord, []string, error) {
	var rec types.ReceiveRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, nil, err
	}
	unknown, err := types.UnknownKeys(raw, knownRecordKeys)
	if err != nil {
		return rec, nil, err
	}

	if rec.LegacyCollected {
		if rec.Status == "" {
			rec.Status = types.StatusCollected
		}
		rec.LegacyCollected = false
	}
	if rec.Expire == "" {
		var old struct {
			Expire string `json:"到期日"`
		}
		if json.Unmarshal(raw, &old) == nil {
			rec.Expire = old.Expire
		}
	}
	return rec, unknown, nil
}

// =============================================================================
// WRITING
// =============================================================================

// FromTransaction derives the pickup record for a completed checkout.
func FromTransaction(tx types.TransactionRecord, vendor string, today time.Time) types.ReceiveRecord {
	day := today.Format(types.DateLayout)
	return types.ReceiveRecord{
		TransactionRecord: tx,
		PickupDate:        day,
		Qty:               tx.InventoryQty,
		Expire:            day,
		Vendor:            vendor,
	}
}

// Append writes rec as a new line, migrating a legacy array file first. The
// returned function removes the line again.
func (l *Log) Append(rec types.ReceiveRecord) (undo func() error, err error) {
	legacy, err := l.IsLegacy()
	if err != nil {
		return nil, err
	}
	if legacy {
		if _, err := l.Migrate(); err != nil {
			return nil, err
		}
	}

	prev, err := utils.AppendJSONLine(l.path, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to append receive record: %w", err)
	}
	l.log.Debug("Appended receive record for %s to %s", rec.Member, l.path)
	return func() error { return utils.TruncateFile(l.path, prev) }, nil
}

// Migrate rewrites the file as NDJSON. It reports the number of records
// written, or 0 if the file was already in line form.
func (l *Log) Migrate() (int, error) {
	records, legacy, err := l.load()
	if err != nil {
		return 0, err
	}
	if !legacy {
		return 0, nil
	}
	if err := l.rewrite(records); err != nil {
		return 0, err
	}
	l.log.Info("Migrated %s to line-delimited JSON (%d records)", l.path, len(records))
	return len(records), nil
}

func (l *Log) rewrite(records []types.ReceiveRecord) error {
	if _, err := l.fm.Backup(l.path); err != nil {
		l.log.Warn("Receive log backup failed: %v", err)
	}
	if err := utils.WriteJSONLines(l.path, records); err != nil {
		return fmt.Errorf("failed to rewrite receive log: %w", err)
	}
	return nil
}

// =============================================================================
// QUERIES AND EDITS
// =============================================================================

// Entry is a record with its position in the log.
type Entry struct {
	Index  int
	Record types.ReceiveRecord
}

// PickupDay returns the YYYY-MM-DD part of the pickup date.
func PickupDay(rec types.ReceiveRecord) string {
	fields := strings.Fields(rec.PickupDate)
	if len(fields) == 0 {
		return ""
	}
	day := fields[0]
	if len(day) > len(types.DateLayout) {
		day = day[:len(types.DateLayout)]
	}
	return day
}

// Filter selects records whose pickup day is within [from, to] and whose
// member contains the member substring, ignoring case. Empty bounds match
// anything; a record without a valid date is excluded once a bound is set.
func Filter(records []types.ReceiveRecord, from, to, member string) []Entry {
	member = strings.ToLower(strings.TrimSpace(member))
	var out []Entry
	for i, r := range records {
		if member != "" && !strings.Contains(strings.ToLower(r.Member), member) {
			continue
		}
		day := PickupDay(r)
		if from != "" || to != "" {
			if _, err := time.Parse(types.DateLayout, day); err != nil {
				continue
			}
			if from != "" && day < from {
				continue
			}
			if to != "" && day > to {
				continue
			}
		}
		out = append(out, Entry{Index: i, Record: r})
	}
	return out
}

// PickupDeadline is the pickup date plus the hold period, or "" when the
// record has no valid date.
func (l *Log) PickupDeadline(rec types.ReceiveRecord) string {
	day, err := time.Parse(types.DateLayout, PickupDay(rec))
	if err != nil {
		return ""
	}
	return day.AddDate(0, 0, l.opts.HoldDays).Format(types.DateLayout)
}

// ReturnPersons lists the distinct return_person values in use, sorted.
func ReturnPersons(records []types.ReceiveRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		if r.ReturnPerson != "" && !seen[r.ReturnPerson] {
			seen[r.ReturnPerson] = true
			out = append(out, r.ReturnPerson)
		}
	}
	sort.Strings(out)
	return out
}

// CanonicalField resolves a field name or column label.
func CanonicalField(name string) (string, bool) {
	switch name {
	case FieldStatus, FieldReturnPerson, FieldReturnDate, FieldPickedSentDate, FieldReceiveMethod, FieldNotes:
		return name, true
	}
	f, ok := fieldLabels[name]
	return f, ok
}

// UpdateField sets one editable field of the record at index and rewrites
// the log. An empty value clears the field.
func (l *Log) UpdateField(index int, field, value string) (types.ReceiveRecord, error) {
	key, ok := CanonicalField(field)
	if !ok {
		return types.ReceiveRecord{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	value = strings.TrimSpace(value)

	var verr error
	switch key {
	case FieldStatus:
		verr = validation.ValidateOption(key, value, l.opts.Statuses)
	case FieldReceiveMethod:
		verr = validation.ValidateOption(key, value, l.opts.Methods)
	case FieldReturnDate, FieldPickedSentDate:
		verr = validation.ValidateDate(key, value)
	}
	if verr != nil {
		return types.ReceiveRecord{}, verr
	}

	records, err := l.List()
	if err != nil {
		return types.ReceiveRecord{}, err
	}
	if index < 0 || index >= len(records) {
		return types.ReceiveRecord{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	rec := &records[index]
	switch key {
	case FieldStatus:
		rec.Status = value
	case FieldReturnPerson:
		rec.ReturnPerson = value
	case FieldReturnDate:
		rec.ReturnDate = value
	case FieldPickedSentDate:
		rec.PickedSentDate = value
	case FieldReceiveMethod:
		rec.ReceiveMethod = value
	case FieldNotes:
		rec.Notes = value
	}

	if err := l.rewrite(records); err != nil {
		return types.ReceiveRecord{}, err
	}
	l.log.Info("Receive record %d: %s = %q", index, key, value)
	return *rec, nil
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
	l.log.Info("Deleted %d receive record(s)", len(order))
	return len(order), nil
}
