package inventory

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/gacha-pos/internal/logger"
	"github.com/ginjaninja78/gacha-pos/internal/types"
	"github.com/ginjaninja78/gacha-pos/internal/validation"
	"github.com/ginjaninja78/gacha-pos/pkg/utils"
)

func TestDerivePrices(t *testing.T) {
	tests := []struct {
		cost string
		want Prices
	}{
		{"700", Prices{Point: 840, P20: 100, P40: 100, P60: 66, P80: 50}},
		{"0", Prices{Point: 0, P20: 0, P40: 50, P60: 33, P80: 25}},
		{"1000", Prices{Point: 1200, P20: 142, P40: 121, P60: 80, P80: 60}},
		{"699.9", Prices{Point: 839, P20: 99, P40: 99, P60: 66, P80: 49}},
	}
	for _, tt := range tests {
		got := DerivePrices(decimal.RequireFromString(tt.cost))
		if got != tt.want {
			t.Errorf("DerivePrices(%s) = %+v, want %+v", tt.cost, got, tt.want)
		}
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "inventory.json"), nil, nil)
}

func TestLoadMissingFile(t *testing.T) {
	items, err := newTestStore(t).Load()
	if err != nil || len(items) != 0 {
		t.Fatalf("Load = %v, %v", items, err)
	}
}

func TestLoadLegacyStrings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	legacy := `[
  {"廠商":"良級懸賞","關鍵字IP":"海賊","編碼":"A01","商品名稱":"魯夫","數量":"3","成本":"700",
   "點數價":"840","20洞價格":"100","40洞價格":"","60洞價格":"66","備註":"","商品連結":"","舊欄位":"x"},
  {"商品名稱":"空白","數量":"","成本":""}
]`
	if err := os.WriteFile(path, []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}

	var logBuf bytes.Buffer
	store := NewStore(path, nil, logger.NewWriter(&logBuf, logger.LevelDebug, time.UTC))
	items, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items", len(items))
	}

	it := items[0]
	if it.Quantity != 3 || it.Cost != 700 || it.PointPrice != 840 {
		t.Errorf("numbers not migrated: %+v", it)
	}
	if p, ok := it.TierPrice(20); !ok || p != 100 {
		t.Errorf("20-hole = %d, %v", p, ok)
	}
	if _, ok := it.TierPrice(40); ok {
		t.Error("empty 40-hole price should be absent")
	}
	if _, ok := it.TierPrice(80); ok {
		t.Error("missing 80-hole price should be absent")
	}
	if items[1].Quantity != 0 || items[1].Cost != 0 {
		t.Errorf("empty strings not zero: %+v", items[1])
	}
	if !strings.Contains(logBuf.String(), "舊欄位") {
		t.Errorf("unknown key not warned about: %q", logBuf.String())
	}

	// Saving writes the typed form and drops the unknown key.
	if err := store.Save(items); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "舊欄位") || !strings.Contains(string(data), `"數量": 3`) {
		t.Errorf("saved file:\n%s", data)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	if err := os.WriteFile(path, []byte(`[{"數量":"many"}]`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(path, nil, nil).Load(); err == nil {
		t.Error("non-numeric quantity accepted")
	}
}

func TestAddFillsMissingPrices(t *testing.T) {
	store := newTestStore(t)
	item := types.InventoryItem{Name: "A", Cost: 700}
	item.SetTierPrice(20, 120)

	idx, err := store.Add(item)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if idx != 0 {
		t.Errorf("index = %d", idx)
	}
	got, err := store.Get(0)
	if err != nil {
		t.Fatal(err)
	}
	if got.PointPrice != 840 {
		t.Errorf("PointPrice = %d", got.PointPrice)
	}
	if p, _ := got.TierPrice(20); p != 120 {
		t.Errorf("explicit 20-hole price overwritten: %d", p)
	}
	if p, _ := got.TierPrice(60); p != 66 {
		t.Errorf("60-hole = %d", p)
	}
}

func TestUpdate(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Add(types.InventoryItem{Name: "A", Cost: 700}); err != nil {
		t.Fatal(err)
	}

	got, err := store.Update(0, map[string]string{"name": "B", "數量": "5", "p40": ""})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Name != "B" || got.Quantity != 5 {
		t.Errorf("item = %+v", got)
	}
	if _, ok := got.TierPrice(40); ok {
		t.Error("40-hole price not cleared")
	}

	if _, err := store.Update(0, map[string]string{"colour": "red"}); !errors.Is(err, ErrUnknownField) {
		t.Errorf("unknown field error = %v", err)
	}
	var ve *validation.ValidationError
	if _, err := store.Update(0, map[string]string{"cost": "-3"}); !errors.As(err, &ve) {
		t.Errorf("negative cost error = %v", err)
	}
	if _, err := store.Update(3, map[string]string{"name": "C"}); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("out of range error = %v", err)
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	for _, n := range []string{"A", "B", "C", "D"} {
		if _, err := store.Add(types.InventoryItem{Name: n}); err != nil {
			t.Fatal(err)
		}
	}

	n, err := store.Delete(1, 3, 1)
	if err != nil || n != 2 {
		t.Fatalf("Delete = %d, %v", n, err)
	}
	items, _ := store.Load()
	if len(items) != 2 || items[0].Name != "A" || items[1].Name != "C" {
		t.Errorf("remaining = %+v", items)
	}

	if _, err := store.Delete(0, 9); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("error = %v", err)
	}
	items, _ = store.Load()
	if len(items) != 2 {
		t.Error("partial delete happened despite an invalid index")
	}
}

func TestSearch(t *testing.T) {
	items := []types.InventoryItem{
		{Name: "Luffy Figure", Keyword: "海賊"},
		{Name: "Pikachu", Keyword: "寶可夢"},
	}
	if got := Search(items, "luffy"); len(got) != 1 || got[0].Index != 0 {
		t.Errorf("Search(luffy) = %+v", got)
	}
	if got := Search(items, "寶可"); len(got) != 1 || got[0].Index != 1 {
		t.Errorf("Search(寶可) = %+v", got)
	}
	if got := Search(items, ""); len(got) != 2 {
		t.Errorf("empty search = %d hits", len(got))
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "inventory.json"), nil, nil)
	if _, err := store.Add(types.InventoryItem{Name: "A", Cost: 700, Quantity: 2}); err != nil {
		t.Fatal(err)
	}

	t.Run("JSON", func(t *testing.T) {
		out := filepath.Join(dir, "out.json")
		if n, err := store.Export(out); err != nil || n != 1 {
			t.Fatalf("Export = %d, %v", n, err)
		}
		copyStore := NewStore(out, nil, nil)
		items, err := copyStore.Load()
		if err != nil || len(items) != 1 || items[0].Name != "A" {
			t.Errorf("exported = %+v, %v", items, err)
		}
	})

	t.Run("XLSX", func(t *testing.T) {
		out := filepath.Join(dir, "out.xlsx")
		if _, err := store.Export(out); err != nil {
			t.Fatalf("Export: %v", err)
		}
		f, err := excelize.OpenFile(out)
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		rows, err := f.GetRows("inventory")
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 2 || rows[0][3] != "商品名稱" || rows[1][3] != "A" {
			t.Errorf("rows = %v", rows)
		}
	})
}

func TestSaveTakesBackup(t *testing.T) {
	dir := t.TempDir()
	fm := utils.NewFileManager(dir, "", filepath.Join(dir, "bak"))
	store := NewStore(filepath.Join(dir, "inventory.json"), fm, nil)

	if _, err := store.Add(types.InventoryItem{Name: "A"}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Add(types.InventoryItem{Name: "B"}); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(filepath.Join(dir, "bak"))
	if err != nil || len(entries) != 1 {
		t.Errorf("backups = %d, %v", len(entries), err)
	}
}
