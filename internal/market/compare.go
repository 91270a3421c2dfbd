// Package market places a quote against a synthetic panel of competitor
// premiums derived from the same base premium.
package market

import (
	"github.com/shopspring/decimal"
)

// Standing is how one premium compares with another.
type Standing string

const (
	Higher Standing = "higher"
	Lower  Standing = "lower"
	Equal  Standing = "equal"
)

// Competitor is a named insurer and its premium as a multiple of base.
type Competitor struct {
	Name  string
	Ratio decimal.Decimal
}

// Competitors is the fixed panel, in display order.
var Competitors = []Competitor{
	{Name: "ICICI Lombard", Ratio: decimal.RequireFromString("1.15")},
	{Name: "HDFC ERGO", Ratio: decimal.RequireFromString("1.08")},
	{Name: "Bajaj Allianz", Ratio: decimal.RequireFromString("1.12")},
	{Name: "TATA AIG", Ratio: decimal.RequireFromString("1.06")},
	{Name: "New India Insurance", Ratio: decimal.RequireFromString("1.18")},
	{Name: "Oriental Insurance", Ratio: decimal.RequireFromString("1.10")},
}

// Quote is one competitor's synthetic premium. Standing is the
// competitor's premium relative to ours.
type Quote struct {
	Company  string   `json:"company"`
	Premium  int64    `json:"premium"`
	Standing Standing `json:"standing"`
}

// ComparisonResult summarises the panel against our final premium.
// Standing is our premium relative to the market average.
type ComparisonResult struct {
	Competitors       []Quote  `json:"competitors"`
	AvgMarketPremium  int64    `json:"avg_market_premium"`
	Savings           int64    `json:"savings"`
	SavingsPercentage int64    `json:"savings_percentage"`
	Standing          Standing `json:"standing"`
}

// IsLower reports whether our premium is below the market average.
func (c ComparisonResult) IsLower() bool { return c.Standing == Lower }

var half = decimal.RequireFromString("0.5")

func roundHalfUp(v decimal.Decimal) int64 {
	return v.Add(half).Floor().IntPart()
}

// CompareToMarket prices every competitor from basePremium, each rounded
// on its own, and compares the rounded average with finalPremium. A zero
// average yields a zero savings percentage.
func CompareToMarket(basePremium, finalPremium int64) ComparisonResult {
	base := decimal.NewFromInt(basePremium)

	res := ComparisonResult{Competitors: make([]Quote, 0, len(Competitors))}
	var sum int64
	for _, c := range Competitors {
		premium := roundHalfUp(base.Mul(c.Ratio))
		sum += premium
		res.Competitors = append(res.Competitors, Quote{
			Company:  c.Name,
			Premium:  premium,
			Standing: compare(premium, finalPremium),
		})
	}

	res.AvgMarketPremium = roundHalfUp(decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(len(Competitors)))))
	res.Savings = res.AvgMarketPremium - finalPremium
	if res.AvgMarketPremium != 0 {
		pct := decimal.NewFromInt(res.Savings).Div(decimal.NewFromInt(res.AvgMarketPremium)).Shift(2)
		res.SavingsPercentage = roundHalfUp(pct)
	}
	res.Standing = compare(finalPremium, res.AvgMarketPremium)
	return res
}

func compare(a, b int64) Standing {
	switch {
	case a > b:
		return Higher
	case a < b:
		return Lower
	default:
		return Equal
	}
}
