package rating

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/rating-cli/internal/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var (
	one  = decimal.NewFromInt(1)
	half = d("0.5")

	// TaxRate is the GST rate applied to the final premium.
	TaxRate = d("0.18")
)

// basePremiums is the annual base premium per plan.
var basePremiums = map[model.PlanType]int64{
	model.PlanThirdParty:    2500,
	model.PlanComprehensive: 8500,
	model.PlanZeroDep:       12000,
}

// BasePremium returns the plan's base premium. Unknown plans are priced
// as comprehensive.
func BasePremium(plan model.PlanType) int64 {
	if p, ok := basePremiums[plan]; ok {
		return p
	}
	return basePremiums[model.PlanComprehensive]
}

// HighRiskSubRegions attract the location loading.
var HighRiskSubRegions = []string{"Delhi", "Mumbai", "Bangalore", "Chennai"}

// LocationFactor returns 1.20 for a high-risk sub-region, else 1.00.
func LocationFactor(subRegion string) decimal.Decimal {
	if IsHighRisk(subRegion) {
		return d("1.20")
	}
	return one
}

// IsHighRisk reports whether subRegion is in HighRiskSubRegions.
func IsHighRisk(subRegion string) bool {
	for _, s := range HighRiskSubRegions {
		if s == subRegion {
			return true
		}
	}
	return false
}

// AgeFactor loads young drivers and, less so, older ones.
func AgeFactor(age int) decimal.Decimal {
	switch {
	case age < 25:
		return d("1.30")
	case age < 35:
		return one
	case age < 50:
		return d("0.90")
	default:
		return d("1.10")
	}
}

// ExperienceFactor rewards years behind the wheel.
func ExperienceFactor(years int) decimal.Decimal {
	switch {
	case years < 2:
		return d("1.20")
	case years < 5:
		return one
	default:
		return d("0.85")
	}
}

// CreditFactor maps a credit score to its multiplier.
func CreditFactor(score int) decimal.Decimal {
	switch {
	case score >= 800:
		return d("0.85")
	case score >= 750:
		return d("0.90")
	case score >= 700:
		return d("0.95")
	case score >= 650:
		return one
	default:
		return d("1.10")
	}
}

// VehicleAgeFactor loads new vehicles and discounts old ones.
func VehicleAgeFactor(years int) decimal.Decimal {
	switch {
	case years < 2:
		return d("1.10")
	case years < 5:
		return one
	default:
		return d("0.90")
	}
}

var deductibleRates = map[int64]decimal.Decimal{
	0:     decimal.Zero,
	2500:  d("0.15"),
	5000:  d("0.20"),
	7500:  d("0.25"),
	15000: d("0.30"),
}

// DeductibleRate returns the discount, as a fraction of base premium, for
// a voluntary deductible. Amounts that are not offered earn nothing.
func DeductibleRate(amount int64) decimal.Decimal {
	if r, ok := deductibleRates[amount]; ok {
		return r
	}
	return decimal.Zero
}

var addOnPrices = map[model.AddOnID]int64{
	model.AddOnRoadsideAssistance: 500,
	model.AddOnEngineProtection:   2000,
	model.AddOnConsumables:        1500,
	model.AddOnKeyReplacement:     800,
	model.AddOnTyreProtection:     1200,
	model.AddOnPassengerCover:     300,
	model.AddOnReturnToInvoice:    3000,
}

// AddOnPrice returns the flat price of an add-on, or 0 if it is unknown.
func AddOnPrice(id model.AddOnID) int64 {
	return addOnPrices[id]
}

// VerificationRate is 5% when both identity and address documents are
// verified.
func VerificationRate(c model.CreditProfile) decimal.Decimal {
	if c.DocumentsVerified() {
		return d("0.05")
	}
	return decimal.Zero
}

// roundHalfUp rounds to the nearest integer with halves going up.
func roundHalfUp(v decimal.Decimal) int64 {
	return v.Add(half).Floor().IntPart()
}
