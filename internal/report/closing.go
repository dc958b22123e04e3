// =============================================================================
// Gacha POS - Closing Report Module
// =============================================================================
//
// This module exports the close-of-shift reports for one calendar day into
// the closing directory:
//
//   logs_<day>.csv       transactions whose time falls on the day
//   receive_<day>.csv    pickup records whose 日期 falls on the day
//   closing_<day>.xlsx   both tables as sheets (optional)
//   summary_<day>.txt    cash-up totals and expected drawer
//
// Re-running an export for the same day overwrites the files.
//
// =============================================================================

package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/gacha-pos/internal/logger"
	"github.com/ginjaninja78/gacha-pos/internal/receive"
	"github.com/ginjaninja78/gacha-pos/internal/types"
	"github.com/ginjaninja78/gacha-pos/pkg/utils"
)

// Column headers of the two CSV reports.
var (
	LogColumns     = []string{"time", "branch", "staff", "member", "item", "hole", "抽數", "大賞", "小賞", "cash", "transfer", "points", "total", "reason"}
	ReceiveColumns = []string{"日期", "member", "item", "qty", "expire", "free", "reason", "已領取"}
)

const collectedMark = "✔"

// =============================================================================
// SOURCES
// =============================================================================

// TransactionSource lists transaction records.
type TransactionSource interface {
	List() ([]types.TransactionRecord, error)
}

// ReceiveSource lists pickup records.
type ReceiveSource interface {
	List() ([]types.ReceiveRecord, error)
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result is the outcome of one closing export.
type Result struct {
	Day string

	// Paths of the files written. XLSXFile is empty when disabled.
	LogsFile    string
	ReceiveFile string
	XLSXFile    string
	SummaryFile string

	Summary utils.ShiftSummary

	ProcessingTime time.Duration
}

// =============================================================================
// EXPORTER
// =============================================================================

// Options control the export.
type Options struct {
	// XLSX also writes closing_<day>.xlsx.
	XLSX bool
}

// Exporter writes the closing reports.
type Exporter struct {
	fm       *utils.FileManager
	tx       TransactionSource
	receipts ReceiveSource
	log      logger.Logger
	opts     Options
}

// New returns an Exporter writing into fm.ClosingDir.
func New(fm *utils.FileManager, tx TransactionSource, receipts ReceiveSource, log logger.Logger, opts Options) *Exporter {
	if log == nil {
		log = logger.Nop()
	}
	return &Exporter{fm: fm, tx: tx, receipts: receipts, log: log, opts: opts}
}

// ExportClosing writes every report for day (YYYY-MM-DD). sess supplies the
// shift header and start cash and may be nil.
func (e *Exporter) ExportClosing(day string, sess *types.Session, closedAt time.Time) (*Result, error) {
	start := time.Now()
	if _, err := time.Parse(types.DateLayout, day); err != nil {
		return nil, fmt.Errorf("invalid report day %q: %w", day, err)
	}

	txs, err := e.tx.List()
	if err != nil {
		return nil, err
	}
	recs, err := e.receipts.List()
	if err != nil {
		return nil, err
	}
	dayTx := TransactionsOn(txs, day)
	dayRecs := ReceiptsOn(recs, day)

	result := &Result{Day: day}

	logRows := LogRows(dayTx)
	result.LogsFile = e.fm.ReportPath("logs", day, ".csv")
	if err := writeCSV(result.LogsFile, LogColumns, logRows); err != nil {
		return nil, err
	}

	receiveRows := ReceiveRows(dayRecs)
	result.ReceiveFile = e.fm.ReportPath("receive", day, ".csv")
	if err := writeCSV(result.ReceiveFile, ReceiveColumns, receiveRows); err != nil {
		return nil, err
	}

	if e.opts.XLSX {
		result.XLSXFile = e.fm.ReportPath("closing", day, ".xlsx")
		if err := writeWorkbook(result.XLSXFile, logRows, receiveRows); err != nil {
			return nil, err
		}
	}

	result.Summary = Summarize(day, dayTx, len(dayRecs), sess)
	result.Summary.ClosedAt = closedAt
	result.SummaryFile, err = e.fm.WriteShiftSummary(result.Summary)
	if err != nil {
		return nil, err
	}

	result.ProcessingTime = time.Since(start)
	e.log.Info("Closing reports for %s: %d transaction(s), %d pickup record(s) in %s",
		day, len(dayTx), len(dayRecs), e.fm.ClosingDir)
	return result, nil
}

// =============================================================================
// ROW SELECTION
// =============================================================================

// TransactionsOn returns the records whose time falls on day.
func TransactionsOn(records []types.TransactionRecord, day string) []types.TransactionRecord {
	var out []types.TransactionRecord
	for _, r := range records {
		if r.Date() == day {
			out = append(out, r)
		}
	}
	return out
}

// ReceiptsOn returns the pickup records dated day.
func ReceiptsOn(records []types.ReceiveRecord, day string) []types.ReceiveRecord {
	var out []types.ReceiveRecord
	for _, r := range records {
		if receive.PickupDay(r) == day {
			out = append(out, r)
		}
	}
	return out
}

// LogRows renders transactions in LogColumns order.
func LogRows(records []types.TransactionRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Time, r.Branch, r.Staff, r.Member, r.Item,
			strconv.Itoa(r.Hole), strconv.Itoa(r.Draws), strconv.Itoa(r.Big), strconv.Itoa(r.Small),
			strconv.Itoa(r.Cash), strconv.Itoa(r.Transfer), strconv.Itoa(r.Points),
			strconv.Itoa(r.Total), r.Reason,
		})
	}
	return rows
}

// ReceiveRows renders pickup records in ReceiveColumns order. qty is the
// handed-over count, falling back to the record's own qty.
func ReceiveRows(records []types.ReceiveRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		qty := r.InventoryQty
		if qty == 0 {
			qty = r.Qty
		}
		mark := ""
		if r.Status == types.StatusCollected {
			mark = collectedMark
		}
		rows = append(rows, []string{
			r.PickupDate, r.Member, r.Item, strconv.Itoa(qty), r.Expire,
			strconv.FormatBool(r.Free), r.Reason, mark,
		})
	}
	return rows
}

// Summarize totals the day's transactions.
func Summarize(day string, records []types.TransactionRecord, receipts int, sess *types.Session) utils.ShiftSummary {
	s := utils.ShiftSummary{Day: day, Transactions: len(records), ReceiveOpened: receipts}
	if sess != nil {
		s.Branch = sess.SelectedBranch
		s.Staff = sess.SelectedStaff
		s.ShiftStart = sess.StartDatetime
		s.StartCash = int(sess.StartCash)
	}
	for _, r := range records {
		s.Draws += r.Draws
		if r.Free {
			s.FreeCount++
		}
		s.Gross += r.Total
		s.Discount += r.Discount
		s.Due += r.Due
		s.Cash += r.Cash
		s.Transfer += r.Transfer
		s.Points += r.Points
	}
	return s
}

// =============================================================================
// WRITERS
// =============================================================================

func writeCSV(path string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := utils.WriteFileAtomic(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func writeWorkbook(path string, logRows, receiveRows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), "logs"); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet("receive"); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}
	if err := writeSheet(f, "logs", LogColumns, logRows); err != nil {
		return err
	}
	if err := writeSheet(f, "receive", ReceiveColumns, receiveRows); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string) error {
	all := append([][]string{header}, rows...)
	for i, row := range all {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
