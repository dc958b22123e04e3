package checkout

import (
	"strconv"

	"github.com/ginjaninja78/gacha-pos/internal/types"
	"github.com/ginjaninja78/gacha-pos/internal/validation"
)

// Revision holds the operator's changes to a logged transaction. Nil fields
// are left unchanged.
type Revision struct {
	Member      *string
	Big         *int
	Small       *int
	DisBigCnt   *int
	DisSmallCnt *int
	ExtraDis    *int
	Reason      *string
	Cash        *int
	Transfer    *int
	Points      *int
}

// Empty reports whether the revision changes nothing.
func (r Revision) Empty() bool {
	return r == Revision{}
}

// Revise applies rev to rec and recomputes the derived amounts: draws, total
// (kept at 0 for a free redemption), discount, due and inventory_qty. The
// result must pass validation.ValidateTransaction before it is stored.
// basePrice is the item's point price.
func Revise(rec types.TransactionRecord, rev Revision, basePrice, smallPrizeValue int) (types.TransactionRecord, *validation.ValidationResult) {
	if smallPrizeValue == 0 {
		smallPrizeValue = DefaultSmallPrizeValue
	}
	setString(&rec.Member, rev.Member)
	setInt(&rec.Big, rev.Big)
	setInt(&rec.Small, rev.Small)
	setInt(&rec.DisBigCnt, rev.DisBigCnt)
	setInt(&rec.DisSmallCnt, rev.DisSmallCnt)
	setInt(&rec.ExtraDis, rev.ExtraDis)
	setString(&rec.Reason, rev.Reason)
	setInt(&rec.Cash, rev.Cash)
	setInt(&rec.Transfer, rev.Transfer)
	setInt(&rec.Points, rev.Points)

	rec.Draws = rec.Big + rec.Small
	if rec.Free {
		rec.Total = 0
		rec.InventoryQty = rec.Big
	} else {
		rec.Total = rec.Draws * rec.UnitPrice
		rec.InventoryQty = rec.Draws
	}
	rec.Discount = rec.DisBigCnt*basePrice + rec.DisSmallCnt*smallPrizeValue + rec.ExtraDis
	rec.Due = rec.Total - rec.Discount

	result := validation.ValidateTransaction(rec, basePrice, smallPrizeValue)
	if rec.Free && (rec.Big != 1 || rec.Small != rec.Hole-1) {
		result.Add(validation.NewError("free", strconv.Itoa(rec.Draws), validation.RuleFree,
			"a free redemption must keep 1 big prize and every other hole"))
	}
	return rec, result
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
