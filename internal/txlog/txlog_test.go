package txlog

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ginjaninja78/gacha-pos/internal/logger"
	"github.com/ginjaninja78/gacha-pos/internal/types"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "logs.json"), nil, nil)
}

func rec(idx, hole, price int, day, member string, due int) types.TransactionRecord {
	return types.TransactionRecord{
		ItemIndex: idx, Hole: hole, UnitPrice: price,
		Time: day + "T10:00:00.000000", Member: member, Due: due, Cash: due,
	}
}

func TestLastUnitPrice(t *testing.T) {
	l := newTestLog(t)

	if _, ok, err := l.LastUnitPrice(0, 20); err != nil || ok {
		t.Fatalf("empty log = %v, %v", ok, err)
	}

	for _, r := range []types.TransactionRecord{
		rec(0, 20, 50, "2025-03-01", "1234", 50),
		rec(0, 40, 45, "2025-03-01", "1234", 45),
		rec(1, 20, 99, "2025-03-01", "1234", 99),
		rec(0, 20, 55, "2025-03-02", "1234", 55),
	} {
		if _, err := l.Append(r); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		idx, hole, want int
		found           bool
	}{
		{0, 20, 55, true},
		{0, 40, 45, true},
		{1, 20, 99, true},
		{1, 40, 0, false},
		{2, 20, 0, false},
	}
	for _, tt := range tests {
		got, ok, err := l.LastUnitPrice(tt.idx, tt.hole)
		if err != nil || ok != tt.found || got != tt.want {
			t.Errorf("LastUnitPrice(%d, %d) = %d, %v, %v", tt.idx, tt.hole, got, ok, err)
		}
	}
}

func TestMalformedLinesSkipped(t *testing.T) {
	l := newTestLog(t)
	body := `{"idx":0,"hole":20,"unit_price":50,"time":"2025-03-01T10:00:00"}
not json
{"idx":0,"hole":20,"unit_price":"bad"}

{"idx":0,"hole":20,"unit_price":60,"time":"2025-03-01T11:00:00"}
`
	if err := os.WriteFile(l.Path(), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	records, err := l.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records", len(records))
	}
	if p, ok, _ := l.LastUnitPrice(0, 20); !ok || p != 60 {
		t.Errorf("LastUnitPrice = %d, %v", p, ok)
	}
}

func TestAppendUndo(t *testing.T) {
	l := newTestLog(t)
	if _, err := l.Append(rec(0, 20, 50, "2025-03-01", "1234", 50)); err != nil {
		t.Fatal(err)
	}
	undo, err := l.Append(rec(0, 20, 70, "2025-03-01", "1234", 70))
	if err != nil {
		t.Fatal(err)
	}
	if err := undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	records, _ := l.List()
	if len(records) != 1 || records[0].UnitPrice != 50 {
		t.Errorf("after undo = %+v", records)
	}
}

func TestFilterAndSum(t *testing.T) {
	records := []types.TransactionRecord{
		rec(0, 20, 50, "2025-02-28", "1234", 100),
		rec(0, 20, 50, "2025-03-01", "1234", 200),
		rec(0, 20, 50, "2025-03-01", "5678", 300),
		rec(0, 20, 50, "2025-03-02", "1234", 400),
	}

	got := Filter(records, "2025-03-01", "2025-03-02", "1234")
	if len(got) != 2 || got[0].Index != 1 || got[1].Index != 3 {
		t.Errorf("Filter = %+v", got)
	}
	if all := Filter(records, "", "", ""); len(all) != 4 {
		t.Errorf("unfiltered = %d", len(all))
	}
	if none := Filter(records, "2025-03-01", "2025-03-01", "123"); len(none) != 0 {
		t.Errorf("member match must be exact: %+v", none)
	}

	sum, err := SumDue(records, []int{1, 2})
	if err != nil || sum != 500 {
		t.Errorf("SumDue = %d, %v", sum, err)
	}
	if _, err := SumDue(records, []int{7}); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("SumDue error = %v", err)
	}
}

func TestDeleteAndReplace(t *testing.T) {
	l := newTestLog(t)
	for i := 0; i < 3; i++ {
		if _, err := l.Append(rec(i, 20, 50, "2025-03-01", "1234", 50)); err != nil {
			t.Fatal(err)
		}
	}

	n, err := l.Delete(1)
	if err != nil || n != 1 {
		t.Fatalf("Delete = %d, %v", n, err)
	}
	updated := rec(2, 20, 50, "2025-03-01", "9999", 50)
	if err := l.Replace(1, updated); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := l.Replace(5, updated); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Replace error = %v", err)
	}

	records, _ := l.List()
	if len(records) != 2 || records[0].ItemIndex != 0 || records[1].Member != "9999" {
		t.Errorf("records = %+v", records)
	}
}

func TestUnknownKeysWarnedBeforeRewrite(t *testing.T) {
	var logBuf bytes.Buffer
	l := New(filepath.Join(t.TempDir(), "logs.json"), nil, logger.NewWriter(&logBuf, logger.LevelDebug, time.UTC))
	body := `{"idx":0,"hole":20,"unit_price":50,"time":"2025-03-01T10:00:00","member":"1234","status":"已領取","qty":3}
{"idx":1,"hole":20,"unit_price":50,"time":"2025-03-01T11:00:00","member":"5678"}
`
	if err := os.WriteFile(l.Path(), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := l.Delete(1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !strings.Contains(logBuf.String(), "qty, status") {
		t.Errorf("unknown keys not warned about: %q", logBuf.String())
	}

	data, _ := os.ReadFile(l.Path())
	if strings.Contains(string(data), "status") || strings.Contains(string(data), "5678") {
		t.Errorf("rewritten log = %s", data)
	}
	records, _ := l.List()
	if len(records) != 1 || records[0].Member != "1234" {
		t.Errorf("records = %+v", records)
	}
}
