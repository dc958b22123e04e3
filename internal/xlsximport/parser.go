// =============================================================================
// Gacha POS - Supplier Spreadsheet Import
// =============================================================================
//
// This module reads a supplier order sheet (.xlsx) and turns each data row
// into an inventory item with derived prices.
//
// SHEET STRUCTURE (default layout, configurable via ImportColumns):
//
//   | A    | B    | C    | D            | ... | I         | J    | ... | L   |
//   |------|------|------|--------------|-----|-----------|------|-----|-----|
//   | Code | Name | Link | Keyword text |     | Cost (alt)| Cost |     | Qty |
//
//   Rows 1-2 are headers; data starts at row 3. Only the first sheet is read.
//
// ROW RULES:
//   - Empty rows are skipped
//   - Keyword is the first whitespace-separated token of column D
//   - Cost is column J, or column I when J is empty or zero; fractions are
//     truncated
//   - A quantity that is not a number is imported as 0 with a warning
//
// =============================================================================

package xlsximport

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/gacha-pos/internal/config"
	"github.com/ginjaninja78/gacha-pos/internal/inventory"
	"github.com/ginjaninja78/gacha-pos/internal/logger"
	"github.com/ginjaninja78/gacha-pos/internal/types"
)

// =============================================================================
// COLUMN CONFIGURATION
// =============================================================================

// ImportColumns defines which sheet columns hold which item fields.
// Column indices are 0-based (A=0, B=1, ...). DataStartRow is 1-based.
type ImportColumns struct {
	Code         int
	Name         int
	Link         int
	Keyword      int
	Cost         int
	FallbackCost int
	Quantity     int
	DataStartRow int

	// Vendor is written into every imported item.
	Vendor string
}

// DefaultImportColumns returns the supplier order sheet layout.
func DefaultImportColumns() ImportColumns {
	return ImportColumns{
		Code:         0,  // Column A
		Name:         1,  // Column B
		Link:         2,  // Column C
		Keyword:      3,  // Column D
		Cost:         9,  // Column J
		FallbackCost: 8,  // Column I
		Quantity:     11, // Column L
		DataStartRow: 3,
		Vendor:       "良級懸賞",
	}
}

// ColumnsFromConfig converts the configured layout.
func ColumnsFromConfig(s config.ImportSettings) ImportColumns {
	return ImportColumns{
		Code:         s.CodeColumn,
		Name:         s.NameColumn,
		Link:         s.LinkColumn,
		Keyword:      s.KeywordColumn,
		Cost:         s.CostColumn,
		FallbackCost: s.FallbackCost,
		Quantity:     s.QuantityColumn,
		DataStartRow: s.DataStartRow,
		Vendor:       s.Vendor,
	}
}

// =============================================================================
// PARSER
// =============================================================================

// Result is the outcome of parsing one sheet.
type Result struct {
	Items []types.InventoryItem

	// SkippedRows counts empty rows.
	SkippedRows int

	// Warnings lists rows that were imported with a substituted value.
	Warnings []string
}

// Parser reads supplier spreadsheets.
type Parser struct {
	columns ImportColumns
	log     logger.Logger
}

// NewParser creates a parser for the given layout.
func NewParser(columns ImportColumns, log logger.Logger) *Parser {
	if log == nil {
		log = logger.Nop()
	}
	return &Parser{columns: columns, log: log}
}

// Parse reads the first sheet of the workbook at path.
func (p *Parser) Parse(path string) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	// Raw values so number formats ("1,200", "NT$700") do not leak into
	// the parsed numbers.
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	result := &Result{}
	start := p.columns.DataStartRow - 1
	if start < 0 {
		start = 0
	}
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 || isRowEmpty(row) {
			result.SkippedRows++
			continue
		}

		item, warnings := p.parseRow(row, i+1)
		for _, w := range warnings {
			p.log.Warn("%s: %s", path, w)
		}
		result.Warnings = append(result.Warnings, warnings...)
		result.Items = append(result.Items, item)
	}

	p.log.Info("Parsed %d item(s) from %s (%d empty rows skipped)", len(result.Items), path, result.SkippedRows)
	return result, nil
}

// parseRow builds an item from one data row. rowNum is 1-based.
func (p *Parser) parseRow(row []string, rowNum int) (types.InventoryItem, []string) {
	var warnings []string

	getCell := func(index int) string {
		if index >= 0 && index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}
	number := func(field string, index int) int {
		v := getCell(index)
		n, err := types.ParseLegacyInt(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("row %d: %s %q is not a number, using 0", rowNum, field, v))
			return 0
		}
		return n
	}

	cols := p.columns
	item := types.InventoryItem{
		Vendor: cols.Vendor,
		Code:   getCell(cols.Code),
		Name:   getCell(cols.Name),
		Link:   getCell(cols.Link),
	}
	if fields := strings.Fields(getCell(cols.Keyword)); len(fields) > 0 {
		item.Keyword = fields[0]
	}

	item.Cost = number("cost", cols.Cost)
	if item.Cost == 0 {
		item.Cost = number("fallback cost", cols.FallbackCost)
	}
	item.Quantity = number("quantity", cols.Quantity)

	prices := inventory.DerivePrices(decimal.NewFromInt(int64(item.Cost)))
	item.PointPrice = prices.Point
	for _, hole := range types.HoleCounts {
		item.SetTierPrice(hole, prices.Tier(hole))
	}

	return item, warnings
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
