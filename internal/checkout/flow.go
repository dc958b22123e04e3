// =============================================================================
// Gacha POS - Checkout Flow
// =============================================================================
//
// This module is the three-step checkout for one inventory item:
//
//   Step1 (draws)     board size, big / small prize counts, free redemption
//   Step2 (discount)  big / small prize discount points, extra points, reason
//   Step3 (payment)   cash / transfer / points split, member ID, confirm
//   Done              both logs written, completion callback fired
//
// STATE MACHINE:
//
//   Step1 --Next--> Step2 --Next--> Step3 --Confirm--> Done
//     ^               |  ^            |
//     +-----Back------+  +----Back----+
//
//   Entering Step2 (from either side) resets the discount inputs. Going back
//   to Step1 keeps every Step1 value.
//
// PRICING:
//   The unit price is the newest logged price for the same item position and
//   board size, else the item's tier price, else its point price. It is
//   resolved again whenever the board size changes.
//
// PERSISTENCE:
//   Confirm appends the transaction, then the pickup record. If the second
//   append fails the first is cut off again so no half checkout remains.
//
// =============================================================================

package checkout

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/gacha-pos/internal/logger"
	"github.com/ginjaninja78/gacha-pos/internal/receive"
	"github.com/ginjaninja78/gacha-pos/internal/types"
	"github.com/ginjaninja78/gacha-pos/internal/validation"
)

// ErrWrongStep is returned when an operation is not valid in the current step.
var ErrWrongStep = errors.New("operation not allowed in current checkout step")

// DefaultSmallPrizeValue is the point value of one small-prize discount.
const DefaultSmallPrizeValue = 20

// =============================================================================
// STEPS
// =============================================================================

// Step is a checkout state.
type Step int

const (
	Step1 Step = iota + 1
	Step2
	Step3
	Done
)

func (s Step) String() string {
	switch s {
	case Step1:
		return "draws"
	case Step2:
		return "discount"
	case Step3:
		return "payment"
	case Done:
		return "done"
	}
	return "unknown"
}

// =============================================================================
// DEPENDENCIES
// =============================================================================

// PriceLookup finds the last price charged for an item and board size.
type PriceLookup interface {
	LastUnitPrice(itemIndex, hole int) (int, bool, error)
}

// TransactionWriter appends transaction records.
type TransactionWriter interface {
	Append(rec types.TransactionRecord) (undo func() error, err error)
}

// ReceiveWriter appends pickup records.
type ReceiveWriter interface {
	Append(rec types.ReceiveRecord) (undo func() error, err error)
}

// Deps wires a Flow to its stores.
type Deps struct {
	Prices       PriceLookup
	Transactions TransactionWriter
	Receipts     ReceiveWriter
	Log          logger.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// SmallPrizeValue defaults to DefaultSmallPrizeValue.
	SmallPrizeValue int

	// OnDone is called after a successful Confirm.
	OnDone func(tx types.TransactionRecord, rec types.ReceiveRecord)
}

// =============================================================================
// FLOW
// =============================================================================

// Flow is one checkout in progress. It is not safe for concurrent use.
type Flow struct {
	deps Deps

	itemIndex int
	item      types.InventoryItem
	branch    string
	staff     string

	step Step

	// Step1
	hole      int
	big       int
	small     int
	free      bool
	unitPrice int

	// Step2
	disBig   int
	disSmall int
	extra    int
	reason   string

	// Step3
	cash     int
	transfer int
	points   int
}

// New starts a checkout for the item at itemIndex on a 20-hole board.
func New(itemIndex int, item types.InventoryItem, branch, staff string, deps Deps) (*Flow, error) {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.SmallPrizeValue == 0 {
		deps.SmallPrizeValue = DefaultSmallPrizeValue
	}

	f := &Flow{
		deps:      deps,
		itemIndex: itemIndex,
		item:      item,
		branch:    branch,
		staff:     staff,
		step:      Step1,
		hole:      types.HoleCounts[0],
	}
	if err := f.resolvePrice(); err != nil {
		return nil, err
	}
	return f, nil
}

// Step returns the current step.
func (f *Flow) Step() Step { return f.step }

// Item returns the item being checked out.
func (f *Flow) Item() types.InventoryItem { return f.item }

func (f *Flow) require(s Step) error {
	if f.step != s {
		return fmt.Errorf("%w: in %s, need %s", ErrWrongStep, f.step, s)
	}
	return nil
}

// Next advances Step1 to Step2 or Step2 to Step3.
func (f *Flow) Next() error {
	switch f.step {
	case Step1:
		f.enterStep2()
	case Step2:
		f.step = Step3
	default:
		return fmt.Errorf("%w: no next step from %s", ErrWrongStep, f.step)
	}
	return nil
}

// Back returns Step2 to Step1 or Step3 to Step2.
func (f *Flow) Back() error {
	switch f.step {
	case Step2:
		f.step = Step1
	case Step3:
		f.enterStep2()
	default:
		return fmt.Errorf("%w: no previous step from %s", ErrWrongStep, f.step)
	}
	return nil
}

func (f *Flow) enterStep2() {
	f.disBig = 0
	f.disSmall = 0
	f.extra = 0
	f.step = Step2
}

// =============================================================================
// STEP 1: DRAWS
// =============================================================================

// SetHole selects the board size and re-resolves the unit price.
func (f *Flow) SetHole(hole int) error {
	if err := f.require(Step1); err != nil {
		return err
	}
	if err := validation.ValidateHole(hole); err != nil {
		return err
	}
	prev := f.hole
	f.hole = hole
	if err := f.resolvePrice(); err != nil {
		f.hole = prev
		return err
	}
	f.recount()
	return nil
}

// SetBig sets the big prize count, clamped to [0, 1]. It returns the value
// kept.
func (f *Flow) SetBig(n int) (int, error) {
	if err := f.require(Step1); err != nil {
		return 0, err
	}
	f.big = n
	f.recount()
	return f.big, nil
}

// SetSmall sets the small prize count, clamped to [0, hole-big]. It returns
// the value kept.
func (f *Flow) SetSmall(n int) (int, error) {
	if err := f.require(Step1); err != nil {
		return 0, err
	}
	f.small = n
	f.recount()
	return f.small, nil
}

// SetFree marks the checkout as a free redemption. It is only allowed for a
// cleared board: one big prize and every other hole drawn.
func (f *Flow) SetFree(free bool) error {
	if err := f.require(Step1); err != nil {
		return err
	}
	if free && !f.FreeEligible() {
		return validation.NewError("free", "true", validation.RuleFree,
			fmt.Sprintf("free redemption needs 1 big prize and %d small prizes", f.hole-1))
	}
	f.free = free
	return nil
}

// FreeEligible reports whether the current counts allow a free redemption.
func (f *Flow) FreeEligible() bool {
	return f.big == 1 && f.small == f.hole-1
}

// recount clamps the counts and drops the free flag when no longer eligible.
func (f *Flow) recount() {
	f.big = clamp(f.big, 0, 1)
	f.small = clamp(f.small, 0, f.hole-f.big)
	if !f.FreeEligible() {
		f.free = false
	}
}

func (f *Flow) resolvePrice() error {
	if f.deps.Prices != nil {
		price, ok, err := f.deps.Prices.LastUnitPrice(f.itemIndex, f.hole)
		if err != nil {
			return fmt.Errorf("failed to look up last unit price: %w", err)
		}
		if ok {
			f.unitPrice = price
			return nil
		}
	}
	if price, ok := f.item.TierPrice(f.hole); ok {
		f.unitPrice = price
		return nil
	}
	f.unitPrice = f.item.PointPrice
	return nil
}

// Hole returns the board size.
func (f *Flow) Hole() int { return f.hole }

// Big returns the big prize count.
func (f *Flow) Big() int { return f.big }

// Small returns the small prize count.
func (f *Flow) Small() int { return f.small }

// Draws is big + small.
func (f *Flow) Draws() int { return f.big + f.small }

// Free reports whether this is a free redemption.
func (f *Flow) Free() bool { return f.free }

// UnitPrice returns the resolved price per draw.
func (f *Flow) UnitPrice() int { return f.unitPrice }

// Total is the gross amount: 0 when free, otherwise draws × unit price.
func (f *Flow) Total() int {
	if f.free {
		return 0
	}
	return f.Draws() * f.unitPrice
}

// =============================================================================
// STEP 2: DISCOUNT
// =============================================================================

// SetDiscountBig sets how many big prizes are traded for points. A value
// outside [0, big] is clamped and reported as a warning.
func (f *Flow) SetDiscountBig(n int) (*validation.ValidationError, error) {
	if err := f.require(Step2); err != nil {
		return nil, err
	}
	var warn *validation.ValidationError
	f.disBig, warn = clampWarn("dis_big_cnt", n, f.big)
	return warn, nil
}

// SetDiscountSmall sets how many small prizes are traded for points. It is
// rejected on a free redemption; otherwise it clamps like SetDiscountBig.
func (f *Flow) SetDiscountSmall(n int) (*validation.ValidationError, error) {
	if err := f.require(Step2); err != nil {
		return nil, err
	}
	if f.free {
		return nil, validation.NewError("dis_small_cnt", strconv.Itoa(n), validation.RuleFree,
			"small prize discount is not available on a free redemption")
	}
	var warn *validation.ValidationError
	f.disSmall, warn = clampWarn("dis_small_cnt", n, f.small)
	return warn, nil
}

// SetExtra sets the additional discount points.
func (f *Flow) SetExtra(n int) error {
	if err := f.require(Step2); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative("extra_dis", n); err != nil {
		return err
	}
	f.extra = n
	return nil
}

// SetReason records why a discount was given.
func (f *Flow) SetReason(reason string) error {
	if err := f.require(Step2); err != nil {
		return err
	}
	f.reason = reason
	return nil
}

// DiscountBig returns the big prize discount count.
func (f *Flow) DiscountBig() int { return f.disBig }

// DiscountSmall returns the small prize discount count.
func (f *Flow) DiscountSmall() int { return f.disSmall }

// Extra returns the additional discount points.
func (f *Flow) Extra() int { return f.extra }

// Reason returns the discount reason.
func (f *Flow) Reason() string { return f.reason }

// Discount is disBig × point price + disSmall × small prize value + extra.
func (f *Flow) Discount() int {
	return f.disBig*f.item.PointPrice + f.disSmall*f.deps.SmallPrizeValue + f.extra
}

// Due is Total − Discount. It can be negative.
func (f *Flow) Due() int {
	return f.Total() - f.Discount()
}

// =============================================================================
// STEP 3: PAYMENT
// =============================================================================

// SetPayment sets the payment split. Cash and transfer must not be negative;
// points may be.
func (f *Flow) SetPayment(cash, transfer, points int) error {
	if err := f.require(Step3); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative("cash", cash); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative("transfer", transfer); err != nil {
		return err
	}
	f.cash, f.transfer, f.points = cash, transfer, points
	return nil
}

// CheckPayment verifies the split adds up to Due.
func (f *Flow) CheckPayment() error {
	if err := f.require(Step3); err != nil {
		return err
	}
	return validation.CheckPayment(f.cash, f.transfer, f.points, f.Due())
}

// Confirm completes the checkout for member: it writes the transaction and
// the pickup record, moves to Done and fires OnDone.
func (f *Flow) Confirm(member string) (types.TransactionRecord, error) {
	if err := f.CheckPayment(); err != nil {
		return types.TransactionRecord{}, err
	}
	if err := validation.ValidateMemberID(member); err != nil {
		return types.TransactionRecord{}, err
	}
	if f.deps.Transactions == nil || f.deps.Receipts == nil {
		return types.TransactionRecord{}, errors.New("checkout has no log writers")
	}

	now := f.deps.Now()
	tx := f.record(member, now)
	rec := receive.FromTransaction(tx, f.item.Vendor, now)

	undo, err := f.deps.Transactions.Append(tx)
	if err != nil {
		return types.TransactionRecord{}, err
	}
	if _, err := f.deps.Receipts.Append(rec); err != nil {
		if uerr := undo(); uerr != nil {
			f.deps.Log.Error("Rollback of transaction %s failed: %v", tx.ID, uerr)
			return types.TransactionRecord{}, errors.Join(err, uerr)
		}
		return types.TransactionRecord{}, err
	}

	f.step = Done
	f.deps.Log.Info("Checkout %s: item %d (%s) member %s due %d", tx.ID, tx.ItemIndex, tx.Item, tx.Member, tx.Due)
	if f.deps.OnDone != nil {
		f.deps.OnDone(tx, rec)
	}
	return tx, nil
}

func (f *Flow) record(member string, now time.Time) types.TransactionRecord {
	inventoryQty := f.Draws()
	if f.free {
		inventoryQty = f.big
	}
	return types.TransactionRecord{
		ID:           uuid.NewString(),
		ItemIndex:    f.itemIndex,
		Time:         now.Format(types.TimeLayout),
		Branch:       f.branch,
		Staff:        f.staff,
		Member:       member,
		Item:         f.item.Name,
		Hole:         f.hole,
		Draws:        f.Draws(),
		Big:          f.big,
		Small:        f.small,
		Free:         f.free,
		InventoryQty: inventoryQty,
		Total:        f.Total(),
		DisBigCnt:    f.disBig,
		DisSmallCnt:  f.disSmall,
		ExtraDis:     f.extra,
		Discount:     f.Discount(),
		Reason:       f.reason,
		Due:          f.Due(),
		Cash:         f.cash,
		Transfer:     f.transfer,
		Points:       f.points,
		UnitPrice:    f.unitPrice,
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func clampWarn(field string, n, max int) (int, *validation.ValidationError) {
	v := clamp(n, 0, max)
	if v == n {
		return v, nil
	}
	if n < 0 {
		return v, validation.NewWarning(field, strconv.Itoa(n), validation.RuleRange,
			fmt.Sprintf("must not be negative, set to %d", v))
	}
	return v, validation.NewWarning(field, strconv.Itoa(n), validation.RuleRange,
		fmt.Sprintf("must not exceed %d, set to %d", max, v))
}
