package certificates

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hptourism/homestay-portal/pkg/config"
	"github.com/hptourism/homestay-portal/pkg/enums"
)

// FeeSchedule holds the registration fee table. Amounts come from config so
// the department can revise them without a release.
type FeeSchedule struct {
	base        map[enums.Category]decimal.Decimal
	ruralRebate decimal.Decimal
}

// FeeQuote is the fee breakdown for one application.
type FeeQuote struct {
	Base     decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

func NewFeeSchedule(cfg config.FeesConfig) (*FeeSchedule, error) {
	diamond, err := decimal.NewFromString(cfg.DiamondBase)
	if err != nil {
		return nil, fmt.Errorf("parse diamond base fee: %w", err)
	}
	gold, err := decimal.NewFromString(cfg.GoldBase)
	if err != nil {
		return nil, fmt.Errorf("parse gold base fee: %w", err)
	}
	silver, err := decimal.NewFromString(cfg.SilverBase)
	if err != nil {
		return nil, fmt.Errorf("parse silver base fee: %w", err)
	}
	rebate, err := decimal.NewFromString(cfg.RuralRebatePC)
	if err != nil {
		return nil, fmt.Errorf("parse rural rebate percent: %w", err)
	}
	if rebate.IsNegative() || rebate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("rural rebate percent %s out of range", rebate)
	}

	return &FeeSchedule{
		base: map[enums.Category]decimal.Decimal{
			enums.CategoryDiamond: diamond,
			enums.CategoryGold:    gold,
			enums.CategorySilver:  silver,
		},
		ruralRebate: rebate,
	}, nil
}

// Quote computes the fee for a category and location. Rural properties get the
// configured percentage off the base amount.
func (s *FeeSchedule) Quote(category enums.Category, location enums.LocationType) (FeeQuote, error) {
	base, ok := s.base[category]
	if !ok {
		return FeeQuote{}, fmt.Errorf("no fee configured for category %q", category)
	}

	discount := decimal.Zero
	if location == enums.LocationTypeRural {
		discount = base.Mul(s.ruralRebate).Div(decimal.NewFromInt(100)).Round(2)
	}

	return FeeQuote{
		Base:     base,
		Discount: discount,
		Total:    base.Sub(discount),
	}, nil
}
