// Package rating turns a risk profile into a premium breakdown using fixed
// multiplicative factor tables.
//
// The premium is computed as:
//
//	adjusted = base × location × age × experience × credit × vehicleAge
//	pre      = adjusted − base × deductibleRate + addOns
//	final    = round(pre × (1 − verificationRate))
//	tax      = round(final × 0.18)
//	total    = final + tax
//
// Intermediate values are exact decimals; rounding (half up) happens only
// for final and tax.
package rating

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sells-group/rating-cli/internal/model"
)

// Factors are the multipliers applied to the base premium.
type Factors struct {
	Location   float64 `json:"location"`
	Age        float64 `json:"age"`
	Experience float64 `json:"experience"`
	Credit     float64 `json:"credit"`
	VehicleAge float64 `json:"vehicle_age"`
}

// AddOnLine is one priced add-on.
type AddOnLine struct {
	ID   model.AddOnID `json:"id"`
	Name string        `json:"name"`
	Cost int64         `json:"cost"`
}

// QuoteBreakdown is the engine output. Amounts are whole rupees except the
// unrounded intermediates.
type QuoteBreakdown struct {
	PlanType    model.PlanType `json:"plan_type"`
	BasePremium int64          `json:"base_premium"`
	Factors     Factors        `json:"factors"`

	AdjustedPremium        float64 `json:"adjusted_premium"`
	DeductibleDiscountRate float64 `json:"deductible_discount_rate"`
	DeductibleDiscount     float64 `json:"deductible_discount"`

	AddOns    []AddOnLine `json:"add_ons"`
	AddOnCost int64       `json:"add_on_cost"`

	VerificationDiscountRate float64 `json:"verification_discount_rate"`
	PreDiscountPremium       float64 `json:"pre_discount_premium"`

	FinalPremium int64 `json:"final_premium"`
	Tax          int64 `json:"tax"`
	TotalPayable int64 `json:"total_payable"`

	IDV          int64  `json:"idv"`
	IDVEstimated bool   `json:"idv_estimated"`
	VehicleAge   int    `json:"vehicle_age"`
	CreditBand   string `json:"credit_band"`
	HighRisk     bool   `json:"high_risk_location"`
}

// Engine computes quotes. Its only input besides the profile is the clock
// used to age the vehicle. An Engine is safe for concurrent use.
type Engine struct {
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used for the current year.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithYear pins the current year. Zero leaves the clock untouched.
func WithYear(year int) Option {
	return func(e *Engine) {
		if year > 0 {
			e.now = func() time.Time { return time.Date(year, time.July, 1, 0, 0, 0, 0, time.UTC) }
		}
	}
}

// NewEngine returns an Engine using the wall clock unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// CurrentYear returns the year the engine ages vehicles against.
func (e *Engine) CurrentYear() int { return e.now().Year() }

// ComputeQuote prices p. It never fails: unknown plans, add-ons and
// deductibles fall back to their documented defaults. The input is not
// modified, and equal inputs give equal outputs for a fixed clock.
func (e *Engine) ComputeQuote(p model.RiskProfile) QuoteBreakdown {
	year := e.CurrentYear()
	vehicleAge := year - p.Vehicle.Year

	base := BasePremium(p.Coverage.PlanType)
	baseD := decimal.NewFromInt(base)

	loc := LocationFactor(p.Location.SubRegion)
	age := AgeFactor(p.Driver.Age)
	exp := ExperienceFactor(p.Driver.Experience)
	credit := CreditFactor(p.Credit.CreditScore)
	vAge := VehicleAgeFactor(vehicleAge)

	adjusted := baseD.Mul(loc).Mul(age).Mul(exp).Mul(credit).Mul(vAge)

	dedRate := DeductibleRate(p.Coverage.VoluntaryDeductible)
	dedAmount := baseD.Mul(dedRate)

	lines, addOnCost := priceAddOns(p.Coverage.AddOns)

	pre := adjusted.Sub(dedAmount).Add(decimal.NewFromInt(addOnCost))
	verRate := VerificationRate(p.Credit)
	final := roundHalfUp(pre.Mul(one.Sub(verRate)))
	tax := roundHalfUp(decimal.NewFromInt(final).Mul(TaxRate))

	q := QuoteBreakdown{
		PlanType:    p.Coverage.PlanType,
		BasePremium: base,
		Factors: Factors{
			Location:   loc.InexactFloat64(),
			Age:        age.InexactFloat64(),
			Experience: exp.InexactFloat64(),
			Credit:     credit.InexactFloat64(),
			VehicleAge: vAge.InexactFloat64(),
		},
		AdjustedPremium:          adjusted.InexactFloat64(),
		DeductibleDiscountRate:   dedRate.InexactFloat64(),
		DeductibleDiscount:       dedAmount.InexactFloat64(),
		AddOns:                   lines,
		AddOnCost:                addOnCost,
		VerificationDiscountRate: verRate.InexactFloat64(),
		PreDiscountPremium:       pre.InexactFloat64(),
		FinalPremium:             final,
		Tax:                      tax,
		TotalPayable:             final + tax,
		IDV:                      p.Coverage.IDV,
		CreditBand:               model.BandFor(p.Credit.CreditScore).Label,
		HighRisk:                 IsHighRisk(p.Location.SubRegion),
		VehicleAge:               vehicleAge,
	}
	// An unknown model year still prices through its age factor; only the
	// IDV estimate needs a real year.
	if p.Vehicle.Year > 0 && q.IDV <= 0 {
		q.IDV = EstimateIDV(vehicleAge)
		q.IDVEstimated = true
	}
	return q
}

// priceAddOns prices each distinct add-on once, in the order given.
func priceAddOns(ids []model.AddOnID) ([]AddOnLine, int64) {
	lines := make([]AddOnLine, 0, len(ids))
	seen := make(map[model.AddOnID]bool, len(ids))
	var total int64
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		cost := AddOnPrice(id)
		lines = append(lines, AddOnLine{ID: id, Name: id.DisplayName(), Cost: cost})
		total += cost
	}
	return lines, total
}

// EstimateIDV derives an informational insured value from the vehicle's
// age: 800,000 less 50,000 per year, never below 100,000. A model year
// ahead of the clock gives a negative age and so a value above 800,000.
func EstimateIDV(vehicleAge int) int64 {
	v := int64(800000 - vehicleAge*50000)
	if v < 100000 {
		return 100000
	}
	return v
}
