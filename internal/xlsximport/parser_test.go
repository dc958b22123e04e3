package xlsximport

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/gacha-pos/internal/config"
)

// writeSheet builds a workbook whose first sheet holds rows starting at A1.
func writeSheet(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "order.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParse(t *testing.T) {
	path := writeSheet(t, [][]interface{}{
		{"訂購單"},
		{"編碼", "名稱", "連結", "IP"},
		{"A01", "魯夫公仔", "https://example.com/a01", "海賊王 航海", "", "", "", "", 650, 700, "", 5},
		{},
		{"B02", "皮卡丘", "", "寶可夢", "", "", "", "", 350, "", "", "x"},
		{"C03", "小物", "", "", "", "", "", "", "", 700.9, "", 2.0},
	})

	result, err := NewParser(DefaultImportColumns(), nil).Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(result.Items) != 3 {
		t.Fatalf("got %d items: %+v", len(result.Items), result.Items)
	}

	first := result.Items[0]
	if first.Code != "A01" || first.Name != "魯夫公仔" || first.Link != "https://example.com/a01" {
		t.Errorf("text fields = %+v", first)
	}
	if first.Keyword != "海賊王" {
		t.Errorf("Keyword = %q", first.Keyword)
	}
	if first.Vendor != "良級懸賞" {
		t.Errorf("Vendor = %q", first.Vendor)
	}
	if first.Cost != 700 || first.Quantity != 5 || first.PointPrice != 840 {
		t.Errorf("numbers = cost %d qty %d point %d", first.Cost, first.Quantity, first.PointPrice)
	}
	if p, ok := first.TierPrice(60); !ok || p != 66 {
		t.Errorf("60-hole = %d, %v", p, ok)
	}

	second := result.Items[1]
	if second.Cost != 350 {
		t.Errorf("fallback cost = %d, want 350", second.Cost)
	}
	if second.Quantity != 0 || len(result.Warnings) != 1 {
		t.Errorf("bad quantity: qty %d warnings %v", second.Quantity, result.Warnings)
	}

	if third := result.Items[2]; third.Cost != 700 || third.Quantity != 2 {
		t.Errorf("third = cost %d qty %d", third.Cost, third.Quantity)
	}
}

func TestParseWithConfiguredLayout(t *testing.T) {
	path := writeSheet(t, [][]interface{}{
		{"name", "cost", "qty"},
		{"Figure", 140, 3},
	})
	settings := config.Default().Import
	settings.Vendor = "other"
	settings.DataStartRow = 2
	settings.NameColumn = 0
	settings.CostColumn = 1
	settings.FallbackCost = 1
	settings.QuantityColumn = 2
	settings.CodeColumn = 9
	settings.LinkColumn = 9
	settings.KeywordColumn = 9

	result, err := NewParser(ColumnsFromConfig(settings), nil).Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("got %d items", len(result.Items))
	}
	it := result.Items[0]
	if it.Name != "Figure" || it.Cost != 140 || it.Quantity != 3 || it.Vendor != "other" {
		t.Errorf("item = %+v", it)
	}
	if p, _ := it.TierPrice(20); p != 20 {
		t.Errorf("20-hole = %d", p)
	}
}

func TestParseMissingFile(t *testing.T) {
	if _, err := NewParser(DefaultImportColumns(), nil).Parse(filepath.Join(t.TempDir(), "nope.xlsx")); err == nil {
		t.Error("expected an error")
	}
}
