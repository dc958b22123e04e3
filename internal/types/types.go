// =============================================================================
// Gacha POS - Shared Types
// =============================================================================
//
// This package contains the record types shared by the stores, the checkout
// flow and the reports. Keeping them here avoids import cycles between:
//   - inventory
//   - txlog
//   - receive
//   - checkout
//   - report
//
// ON-DISK COMPATIBILITY:
//   JSON keys match the files written by the counter's previous desktop
//   application, including the Chinese-language keys, so existing data
//   directories can be used as-is.
//
// =============================================================================

package types

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LAYOUTS AND CONSTANTS
// =============================================================================

const (
	// TimeLayout is the transaction timestamp format (local time, microseconds).
	TimeLayout = "2006-01-02T15:04:05.000000"

	// DateLayout is used for pickup dates, report days and filters.
	DateLayout = "2006-01-02"

	// ShiftTimeLayout is the session start_datetime format.
	ShiftTimeLayout = "2006-01-02 15:04:05"
)

// HoleCounts are the supported board sizes, in display order.
var HoleCounts = []int{20, 40, 60, 80}

// ValidHole reports whether h is a supported board size.
func ValidHole(h int) bool {
	for _, v := range HoleCounts {
		if v == h {
			return true
		}
	}
	return false
}

// =============================================================================
// INVENTORY ITEM
// =============================================================================

// InventoryItem is one prize product. Items are identified by their position
// in the inventory array; there is no stable ID.
type InventoryItem struct {
	// Vendor is the supplier name.
	Vendor string `json:"廠商"`

	// Keyword is the IP / franchise tag used for searching.
	Keyword string `json:"關鍵字IP"`

	// Code is the supplier product code.
	Code string `json:"編碼"`

	// Name is the display name copied into transaction records.
	Name string `json:"商品名稱"`

	// Quantity is the stock on hand.
	Quantity int `json:"數量"`

	// Cost is the purchase cost used to derive the prices below.
	Cost int `json:"成本"`

	// PointPrice is the base point price. It is the fallback draw price and
	// the value of one big-prize discount point.
	PointPrice int `json:"點數價"`

	// Tier prices per draw. A nil tier means the item has no list price for
	// that board size.
	Price20 *int `json:"20洞價格,omitempty"`
	Price40 *int `json:"40洞價格,omitempty"`
	Price60 *int `json:"60洞價格,omitempty"`
	Price80 *int `json:"80洞價格,omitempty"`

	Notes string `json:"備註"`
	Link  string `json:"商品連結"`
}

// TierPrice returns the list price per draw for the given board size.
func (it InventoryItem) TierPrice(hole int) (int, bool) {
	p := it.tier(hole)
	if p == nil || *p == nil {
		return 0, false
	}
	return **p, true
}

// SetTierPrice sets the list price for a board size. Unknown sizes are ignored.
func (it *InventoryItem) SetTierPrice(hole, price int) {
	if p := it.tier(hole); p != nil {
		v := price
		*p = &v
	}
}

// ClearTierPrice removes the list price for a board size.
func (it *InventoryItem) ClearTierPrice(hole int) {
	if p := it.tier(hole); p != nil {
		*p = nil
	}
}

func (it *InventoryItem) tier(hole int) **int {
	switch hole {
	case 20:
		return &it.Price20
	case 40:
		return &it.Price40
	case 60:
		return &it.Price60
	case 80:
		return &it.Price80
	}
	return nil
}

// =============================================================================
// TRANSACTION RECORD
// =============================================================================

// TransactionRecord is one completed checkout. It is written once to the
// transaction log and only ever replaced wholesale by an explicit edit.
type TransactionRecord struct {
	// ID is a random identifier. Records written by the previous application
	// have none.
	ID string `json:"id,omitempty"`

	// ItemIndex is the inventory position at checkout time. It is not updated
	// when the inventory changes.
	ItemIndex int `json:"idx"`

	Time   string `json:"time"`
	Branch string `json:"branch"`
	Staff  string `json:"staff"`
	Member string `json:"member"`
	Item   string `json:"item"`

	Hole  int  `json:"hole"`
	Draws int  `json:"抽數"`
	Big   int  `json:"大賞"`
	Small int  `json:"小賞"`
	Free  bool `json:"free"`

	// InventoryQty is the number of prizes handed over: the big prize only on
	// a free redemption, otherwise every draw.
	InventoryQty int `json:"inventory_qty"`

	Total       int    `json:"total"`
	DisBigCnt   int    `json:"dis_big_cnt"`
	DisSmallCnt int    `json:"dis_small_cnt"`
	ExtraDis    int    `json:"extra_dis"`
	Discount    int    `json:"discount"`
	Reason      string `json:"reason"`
	Due         int    `json:"due"`

	Cash     int `json:"cash"`
	Transfer int `json:"transfer"`
	Points   int `json:"points"`

	UnitPrice int `json:"unit_price"`
}

// Date returns the calendar day of the record, or "" for a malformed time.
func (r TransactionRecord) Date() string {
	if len(r.Time) < len(DateLayout) {
		return ""
	}
	return r.Time[:len(DateLayout)]
}

// Paid is the sum of the payment split.
func (r TransactionRecord) Paid() int {
	return r.Cash + r.Transfer + r.Points
}

// =============================================================================
// RECEIVE RECORD
// =============================================================================

// Fulfillment status values offered for ReceiveRecord.Status.
const (
	StatusCollected = "已領取"
)

// ReceiveRecord tracks the pickup of the prizes from one checkout. It starts
// as a copy of the transaction and is edited independently afterwards.
type ReceiveRecord struct {
	TransactionRecord

	// PickupDate is the checkout day.
	PickupDate string `json:"日期"`
	Qty        int    `json:"qty"`
	Expire     string `json:"expire"`
	Vendor     string `json:"vendor,omitempty"`

	Status         string `json:"status,omitempty"`
	ReturnPerson   string `json:"return_person,omitempty"`
	ReturnDate     string `json:"return_date,omitempty"`
	PickedSentDate string `json:"picked_sent_date,omitempty"`
	ReceiveMethod  string `json:"receive_method,omitempty"`
	Notes          string `json:"notes,omitempty"`

	// LegacyCollected is the old boolean pickup flag. The receive log loader
	// folds it into Status and clears it.
	LegacyCollected bool `json:"已領取,omitempty"`
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the shift context: the roster and the current selection.
type Session struct {
	BranchList     []string `json:"branch_list"`
	StaffList      []string `json:"staff_list"`
	SelectedBranch string   `json:"selected_branch"`
	SelectedStaff  string   `json:"selected_staff"`
	StartCash      FlexInt  `json:"start_cash"`
	StartDatetime  string   `json:"start_datetime"`
}

// =============================================================================
// LEGACY VALUE HELPERS
// =============================================================================

// FlexInt decodes from a JSON number, a numeric string, an empty string or
// null. The previous application stored most numbers as strings.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = str
	}
	v, err := ParseLegacyInt(s)
	if err != nil {
		return err
	}
	*n = FlexInt(v)
	return nil
}

// ParseLegacyInt parses "12", "12.0", "12.9" or "" (as 0). Fractions are
// truncated toward zero.
func ParseLegacyInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return int(d.IntPart()), nil
}

// JSONKeys returns the set of JSON object keys produced by a struct value,
// following embedded structs. It is used to spot unknown keys on load.
func JSONKeys(v interface{}) map[string]bool {
	keys := make(map[string]bool)
	collectKeys(reflect.TypeOf(v), keys)
	return keys
}

func collectKeys(t reflect.Type, keys map[string]bool) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if f.Anonymous && name == "" {
			collectKeys(f.Type, keys)
			continue
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		keys[name] = true
	}
}

// UnknownKeys returns the keys of a JSON object that are not in known.
func UnknownKeys(raw []byte, known map[string]bool) ([]string, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	var out []string
	for k := range obj {
		if !known[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}
