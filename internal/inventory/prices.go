package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/gacha-pos/internal/types"
)

// Prices are the list prices derived from a purchase cost.
type Prices struct {
	Point int
	P20   int
	P40   int
	P60   int
	P80   int
}

var (
	pointMarkup = decimal.RequireFromString("1.2")
	seven       = decimal.NewFromInt(7)
	hundred     = decimal.NewFromInt(100)
)

// DerivePrices computes the default prices for an item bought at cost:
//
//	point = cost × 1.2
//	p20   = cost / 7
//	pN    = (p20 + 100) / {2, 3, 4} for 40, 60, 80 holes
//
// Every step truncates toward zero.
func DerivePrices(cost decimal.Decimal) Prices {
	p20 := cost.Div(seven).Truncate(0)
	base := p20.Add(hundred)
	return Prices{
		Point: int(cost.Mul(pointMarkup).IntPart()),
		P20:   int(p20.IntPart()),
		P40:   int(base.Div(decimal.NewFromInt(2)).IntPart()),
		P60:   int(base.Div(decimal.NewFromInt(3)).IntPart()),
		P80:   int(base.Div(decimal.NewFromInt(4)).IntPart()),
	}
}

// Tier returns the derived price for a board size.
func (p Prices) Tier(hole int) int {
	switch hole {
	case 20:
		return p.P20
	case 40:
		return p.P40
	case 60:
		return p.P60
	case 80:
		return p.P80
	}
	return 0
}

// FillMissingPrices sets the point price and any absent tier price from the
// item's cost. Prices already present are kept. An item without a cost is
// left alone.
func FillMissingPrices(item *types.InventoryItem) {
	if item.Cost <= 0 {
		return
	}
	prices := DerivePrices(decimal.NewFromInt(int64(item.Cost)))
	if item.PointPrice == 0 {
		item.PointPrice = prices.Point
	}
	for _, hole := range types.HoleCounts {
		if _, ok := item.TierPrice(hole); !ok {
			item.SetTierPrice(hole, prices.Tier(hole))
		}
	}
}
