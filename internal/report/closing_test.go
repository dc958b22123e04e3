package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/gacha-pos/internal/types"
	"github.com/ginjaninja78/gacha-pos/pkg/utils"
)

type txSource []types.TransactionRecord

func (s txSource) List() ([]types.TransactionRecord, error) { return s, nil }

type receiveSource []types.ReceiveRecord

func (s receiveSource) List() ([]types.ReceiveRecord, error) { return s, nil }

func fixtures() (txSource, receiveSource) {
	txs := txSource{
		{Time: "2025-02-28T23:59:00.000000", Member: "1111", Draws: 5, Big: 0, Small: 5, Total: 250, Due: 250, Cash: 250},
		{Time: "2025-03-01T10:00:00.000000", Branch: "Main", Staff: "Amy", Member: "1234", Item: "A", Hole: 20,
			Draws: 11, Big: 1, Small: 10, Total: 550, Discount: 50, Due: 500, Cash: 300, Transfer: 200, Reason: "vip"},
		{Time: "2025-03-01T11:00:00.000000", Member: "5678", Item: "B", Hole: 20,
			Draws: 20, Big: 1, Small: 19, Free: true, InventoryQty: 1},
	}
	recs := receiveSource{
		{TransactionRecord: txs[0], PickupDate: "2025-02-28", Qty: 5},
		{TransactionRecord: types.TransactionRecord{Member: "1234", Item: "A", InventoryQty: 11},
			PickupDate: "2025-03-01", Qty: 11, Expire: "2025-03-01", Status: types.StatusCollected},
		{TransactionRecord: types.TransactionRecord{Member: "5678", Item: "B", Free: true},
			PickupDate: "2025-03-01 18:00", Qty: 1, Expire: "2025-03-01"},
	}
	return txs, recs
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestExportClosing(t *testing.T) {
	dir := t.TempDir()
	fm := utils.NewFileManager(dir, filepath.Join(dir, "closing"), "")
	txs, recs := fixtures()
	sess := &types.Session{SelectedBranch: "Main", SelectedStaff: "Amy", StartCash: 1000, StartDatetime: "2025-03-01 09:00:00"}

	e := New(fm, txs, recs, nil, Options{XLSX: true})
	res, err := e.ExportClosing("2025-03-01", sess, time.Date(2025, 3, 1, 22, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("ExportClosing: %v", err)
	}

	logs := readCSV(t, res.LogsFile)
	if !reflect.DeepEqual(logs[0], LogColumns) || len(logs) != 3 {
		t.Fatalf("logs csv = %v", logs)
	}
	want := []string{"2025-03-01T10:00:00.000000", "Main", "Amy", "1234", "A", "20", "11", "1", "10", "300", "200", "0", "550", "vip"}
	if !reflect.DeepEqual(logs[1], want) {
		t.Errorf("logs row = %v", logs[1])
	}

	receipts := readCSV(t, res.ReceiveFile)
	if len(receipts) != 3 {
		t.Fatalf("receive csv = %v", receipts)
	}
	if receipts[1][7] != "✔" || receipts[1][3] != "11" {
		t.Errorf("collected row = %v", receipts[1])
	}
	if receipts[2][7] != "" || receipts[2][5] != "true" || receipts[2][3] != "1" {
		t.Errorf("pending row = %v", receipts[2])
	}

	s := res.Summary
	if s.Transactions != 2 || s.Draws != 31 || s.FreeCount != 1 || s.Gross != 550 || s.Due != 500 {
		t.Errorf("summary = %+v", s)
	}
	if s.Cash != 300 || s.ExpectedDrawer() != 1300 || s.ReceiveOpened != 2 || s.Branch != "Main" {
		t.Errorf("summary cash = %+v", s)
	}
	text, err := os.ReadFile(res.SummaryFile)
	if err != nil || !strings.Contains(string(text), "Expected drawer: 1300") {
		t.Errorf("summary file = %s, %v", text, err)
	}

	wb, err := excelize.OpenFile(res.XLSXFile)
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()
	rows, err := wb.GetRows("receive")
	if err != nil || len(rows) != 3 || rows[0][0] != "日期" {
		t.Errorf("xlsx receive sheet = %v, %v", rows, err)
	}
}

func TestExportClosingEmptyDay(t *testing.T) {
	dir := t.TempDir()
	fm := utils.NewFileManager(dir, filepath.Join(dir, "closing"), "")
	txs, recs := fixtures()

	res, err := New(fm, txs, recs, nil, Options{}).ExportClosing("2025-04-01", nil, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if rows := readCSV(t, res.LogsFile); len(rows) != 1 {
		t.Errorf("logs csv = %v", rows)
	}
	if res.XLSXFile != "" || utils.FileExists(filepath.Join(dir, "closing", "closing_2025-04-01.xlsx")) {
		t.Error("xlsx written when disabled")
	}
	if res.Summary.Transactions != 0 || res.Summary.ExpectedDrawer() != 0 {
		t.Errorf("summary = %+v", res.Summary)
	}

	if _, err := New(fm, txs, recs, nil, Options{}).ExportClosing("03/01", nil, time.Time{}); err == nil {
		t.Error("malformed day accepted")
	}
}
