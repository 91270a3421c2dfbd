package rating

import (
	"github.com/sells-group/rating-cli/internal/model"
)

// PlanInfo is a plan as offered to customers.
type PlanInfo struct {
	ID          model.PlanType `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	BasePrice   int64          `json:"base_price"`
}

// AddOnInfo is an add-on as offered to customers.
type AddOnInfo struct {
	ID    model.AddOnID `json:"id"`
	Name  string        `json:"name"`
	Price int64         `json:"price"`
}

// DeductibleInfo is a voluntary deductible option.
type DeductibleInfo struct {
	Amount          int64   `json:"amount"`
	DiscountPercent float64 `json:"discount_percent"`
}

// Catalog is everything a front end needs to build the coverage and
// credit steps.
type Catalog struct {
	Plans              []PlanInfo         `json:"plans"`
	AddOns             []AddOnInfo        `json:"add_ons"`
	Deductibles        []DeductibleInfo   `json:"deductibles"`
	CreditBands        []model.CreditBand `json:"credit_bands"`
	HighRiskSubRegions []string           `json:"high_risk_sub_regions"`
	TaxPercent         float64            `json:"tax_percent"`
}

// NewCatalog builds the catalog from the rating tables.
func NewCatalog() Catalog {
	c := Catalog{
		CreditBands:        append([]model.CreditBand(nil), model.CreditBands...),
		HighRiskSubRegions: append([]string(nil), HighRiskSubRegions...),
		TaxPercent:         TaxRate.Shift(2).InexactFloat64(),
	}
	for _, p := range model.AllPlans() {
		c.Plans = append(c.Plans, PlanInfo{ID: p, Name: p.DisplayName(), Description: p.Description(), BasePrice: BasePremium(p)})
	}
	for _, a := range model.AllAddOns() {
		c.AddOns = append(c.AddOns, AddOnInfo{ID: a, Name: a.DisplayName(), Price: AddOnPrice(a)})
	}
	for _, amt := range model.Deductibles {
		c.Deductibles = append(c.Deductibles, DeductibleInfo{Amount: amt, DiscountPercent: DeductibleRate(amt).Shift(2).InexactFloat64()})
	}
	return c
}
