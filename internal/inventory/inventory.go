// =============================================================================
// Gacha POS - Inventory Store
// =============================================================================
//
// The inventory is one JSON array of items. Items are addressed by their
// position in the array, so every mutation is a load, modify, save of the
// whole file.
//
// LEGACY FILES:
//   The previous application wrote every value as a string ("700", "").
//   Load migrates those values explicitly:
//     - numeric strings are parsed, "" is 0
//     - an empty tier price is treated as absent
//     - unknown keys are logged and dropped
//   The next Save writes the typed form.
//
// =============================================================================

package inventory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/gacha-pos/internal/logger"
	"github.com/ginjaninja78/gacha-pos/internal/types"
	"github.com/ginjaninja78/gacha-pos/internal/validation"
	"github.com/ginjaninja78/gacha-pos/pkg/utils"
)

var (
	// ErrIndexOutOfRange is returned for an item position past the end of
	// the inventory.
	ErrIndexOutOfRange = errors.New("inventory index out of range")

	// ErrUnknownField is returned by Update for a field name it does not know.
	ErrUnknownField = errors.New("unknown inventory field")
)

// Columns are the item fields in display order.
var Columns = []string{
	"廠商", "關鍵字IP", "編碼", "商品名稱", "數量", "成本", "點數價",
	"20洞價格", "40洞價格", "60洞價格", "80洞價格", "備註", "商品連結",
}

// Store reads and writes the inventory file.
type Store struct {
	path string
	fm   *utils.FileManager
	log  logger.Logger
}

// NewStore returns a store for the inventory at path. fm may be nil, in
// which case no backups are taken.
func NewStore(path string, fm *utils.FileManager, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{path: path, fm: fm, log: log}
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the whole inventory. A missing file is an empty inventory.
func (s *Store) Load() ([]types.InventoryItem, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []types.InventoryItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []types.InventoryItem{}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse inventory: %w", err)
	}

	items := make([]types.InventoryItem, 0, len(raw))
	for i, r := range raw {
		item, err := s.decodeItem(i, r)
		if err != nil {
			return nil, fmt.Errorf("failed to parse inventory item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// Save writes the whole inventory, taking a backup of the previous file when
// backups are enabled.
func (s *Store) Save(items []types.InventoryItem) error {
	if _, err := s.fm.Backup(s.path); err != nil {
		s.log.Warn("Inventory backup failed: %v", err)
	}
	data, err := encodeItems(items)
	if err != nil {
		return err
	}
	if err := utils.WriteFileAtomic(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to save inventory: %w", err)
	}
	s.log.Debug("Saved %d inventory items to %s", len(items), s.path)
	return nil
}

func encodeItems(items []types.InventoryItem) ([]byte, error) {
	if items == nil {
		items = []types.InventoryItem{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return nil, fmt.Errorf("failed to encode inventory: %w", err)
	}
	return buf.Bytes(), nil
}

var knownItemKeys = types.JSONKeys(types.InventoryItem{})

// decodeItem migrates one item, accepting both the typed and the legacy
// all-strings representation.
func (s *Store) decodeItem(pos int, raw json.RawMessage) (types.InventoryItem, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return types.InventoryItem{}, err
	}

	unknown, _ := types.UnknownKeys(raw, knownItemKeys)
	for _, k := range unknown {
		s.log.Warn("Inventory item %d: dropping unknown key %q", pos, k)
	}

	var item types.InventoryItem
	var err error
	str := func(key string) string {
		if err != nil {
			return ""
		}
		var v string
		v, err = rawString(obj[key])
		if err != nil {
			err = fmt.Errorf("%s: %w", key, err)
		}
		return v
	}
	num := func(key string) int {
		if err != nil {
			return 0
		}
		var n types.FlexInt
		if v, ok := obj[key]; ok {
			if e := json.Unmarshal(v, &n); e != nil {
				err = fmt.Errorf("%s: %w", key, e)
			}
		}
		return int(n)
	}

	item.Vendor = str("廠商")
	item.Keyword = str("關鍵字IP")
	item.Code = str("編碼")
	item.Name = str("商品名稱")
	item.Quantity = num("數量")
	item.Cost = num("成本")
	item.PointPrice = num("點數價")
	item.Notes = str("備註")
	item.Link = str("商品連結")
	for _, hole := range types.HoleCounts {
		key := fmt.Sprintf("%d洞價格", hole)
		v, ok := obj[key]
		if !ok || isBlank(v) {
			continue
		}
		if p := num(key); err == nil {
			item.SetTierPrice(hole, p)
		}
	}
	return item, err
}

// rawString decodes a JSON string, a number (kept as written) or null.
func rawString(v json.RawMessage) (string, error) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || string(v) == "null" {
		return "", nil
	}
	if v[0] == '"' {
		var s string
		err := json.Unmarshal(v, &s)
		return s, err
	}
	return string(v), nil
}

func isBlank(v json.RawMessage) bool {
	s := strings.TrimSpace(string(v))
	return s == "null" || s == `""`
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Get returns the item at index.
func (s *Store) Get(index int) (types.InventoryItem, error) {
	items, err := s.Load()
	if err != nil {
		return types.InventoryItem{}, err
	}
	if err := checkIndex(index, len(items)); err != nil {
		return types.InventoryItem{}, err
	}
	return items[index], nil
}

// Add appends items, filling absent prices from their cost. It returns the
// index of the first new item.
func (s *Store) Add(newItems ...types.InventoryItem) (int, error) {
	items, err := s.Load()
	if err != nil {
		return 0, err
	}
	first := len(items)
	for _, it := range newItems {
		FillMissingPrices(&it)
		items = append(items, it)
	}
	if err := s.Save(items); err != nil {
		return 0, err
	}
	s.log.Info("Added %d inventory item(s) at index %d", len(newItems), first)
	return first, nil
}

// fieldAliases maps accepted field names to the stored JSON key.
var fieldAliases = map[string]string{
	"vendor":   "廠商",
	"keyword":  "關鍵字IP",
	"code":     "編碼",
	"name":     "商品名稱",
	"quantity": "數量",
	"qty":      "數量",
	"cost":     "成本",
	"point":    "點數價",
	"p20":      "20洞價格",
	"p40":      "40洞價格",
	"p60":      "60洞價格",
	"p80":      "80洞價格",
	"notes":    "備註",
	"link":     "商品連結",
}

// CanonicalField resolves an English alias or a stored key to the stored key.
func CanonicalField(name string) (string, bool) {
	if key, ok := fieldAliases[strings.ToLower(name)]; ok {
		return key, true
	}
	for _, c := range Columns {
		if c == name {
			return c, true
		}
	}
	return "", false
}

// Update sets fields of the item at index. Keys may be stored names or
// English aliases; an empty tier price removes the tier.
func (s *Store) Update(index int, fields map[string]string) (types.InventoryItem, error) {
	items, err := s.Load()
	if err != nil {
		return types.InventoryItem{}, err
	}
	if err := checkIndex(index, len(items)); err != nil {
		return types.InventoryItem{}, err
	}

	item := items[index]
	if err := ApplyFields(&item, fields); err != nil {
		return types.InventoryItem{}, err
	}

	items[index] = item
	if err := s.Save(items); err != nil {
		return types.InventoryItem{}, err
	}
	s.log.Info("Updated inventory item %d (%s)", index, item.Name)
	return item, nil
}

// ApplyFields sets fields of item by stored key or alias. Nothing is changed
// when any field is unknown or malformed.
func ApplyFields(item *types.InventoryItem, fields map[string]string) error {
	updated := *item
	for name, value := range fields {
		key, ok := CanonicalField(name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
		if err := setField(&updated, key, value); err != nil {
			return err
		}
	}
	*item = updated
	return nil
}

var tierKeys = map[string]int{"20洞價格": 20, "40洞價格": 40, "60洞價格": 60, "80洞價格": 80}

func setField(item *types.InventoryItem, key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "廠商":
		item.Vendor = value
	case "關鍵字IP":
		item.Keyword = value
	case "編碼":
		item.Code = value
	case "商品名稱":
		item.Name = value
	case "備註":
		item.Notes = value
	case "商品連結":
		item.Link = value
	case "數量":
		n, err := validation.ParseInt(key, value)
		if err != nil {
			return err
		}
		item.Quantity = n
	case "成本", "點數價":
		n, err := validation.ParseNonNegativeInt(key, value)
		if err != nil {
			return err
		}
		if key == "成本" {
			item.Cost = n
		} else {
			item.PointPrice = n
		}
	default:
		hole, ok := tierKeys[key]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, key)
		}
		if value == "" {
			item.ClearTierPrice(hole)
			return nil
		}
		n, err := validation.ParseNonNegativeInt(key, value)
		if err != nil {
			return err
		}
		item.SetTierPrice(hole, n)
	}
	return nil
}

// Delete removes the items at the given positions. Duplicates are ignored.
// It returns the number of items removed.
func (s *Store) Delete(indexes ...int) (int, error) {
	items, err := s.Load()
	if err != nil {
		return 0, err
	}

	unique := make(map[int]bool)
	for _, i := range indexes {
		if err := checkIndex(i, len(items)); err != nil {
			return 0, err
		}
		unique[i] = true
	}
	order := make([]int, 0, len(unique))
	for i := range unique {
		order = append(order, i)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(order)))
	for _, i := range order {
		items = append(items[:i], items[i+1:]...)
	}

	if err := s.Save(items); err != nil {
		return 0, err
	}
	s.log.Info("Deleted %d inventory item(s)", len(order))
	return len(order), nil
}

// Match is a search hit with its inventory position.
type Match struct {
	Index int
	Item  types.InventoryItem
}

// Search returns the items whose JSON text contains keyword, ignoring case.
// An empty keyword matches everything.
func Search(items []types.InventoryItem, keyword string) []Match {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	var out []Match
	for i, it := range items {
		if kw != "" {
			var buf bytes.Buffer
			enc := json.NewEncoder(&buf)
			enc.SetEscapeHTML(false)
			if err := enc.Encode(it); err != nil || !strings.Contains(strings.ToLower(buf.String()), kw) {
				continue
			}
		}
		out = append(out, Match{Index: i, Item: it})
	}
	return out
}

// Export writes the inventory to path. A .xlsx extension produces a
// spreadsheet with one row per item; anything else produces JSON.
func (s *Store) Export(path string) (int, error) {
	items, err := s.Load()
	if err != nil {
		return 0, err
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return len(items), exportXLSX(path, items)
	}
	data, err := encodeItems(items)
	if err != nil {
		return 0, err
	}
	if err := utils.WriteFileAtomic(path, data, 0644); err != nil {
		return 0, fmt.Errorf("failed to export inventory: %w", err)
	}
	return len(items), nil
}

func exportXLSX(path string, items []types.InventoryItem) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "inventory"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, it := range items {
		row := []interface{}{it.Vendor, it.Keyword, it.Code, it.Name, it.Quantity, it.Cost, it.PointPrice}
		for _, hole := range types.HoleCounts {
			if p, ok := it.TierPrice(hole); ok {
				row = append(row, p)
			} else {
				row = append(row, "")
			}
		}
		row = append(row, it.Notes, it.Link)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w: %d (inventory has %d items)", ErrIndexOutOfRange, i, n)
	}
	return nil
}
