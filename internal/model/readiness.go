package model

import "fmt"

// Readiness issue codes.
const (
	CodeRequired     = "REQUIRED_FIELD_MISSING"
	CodeOutOfRange   = "OUT_OF_RANGE"
	CodeInvalidValue = "INVALID_VALUE"
	CodeDuplicate    = "DUPLICATE_VALUE"
	CodeMismatch     = "LOCATION_MISMATCH"
)

// FieldError describes one reason a profile is not ready to quote.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Readiness returns the issues that make a profile unfit for a meaningful
// quote. It checks required fields and documented ranges only; postal
// consistency needs reference data and is checked by the location resolver.
// currentYear bounds the model year from above; zero skips that bound.
// An empty result means the profile is ready.
func Readiness(p RiskProfile, currentYear int) []FieldError {
	var errs []FieldError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, FieldError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if p.Location.Region == "" {
		add("location.region", CodeRequired, "region is required")
	}
	if p.Location.SubRegion == "" {
		add("location.sub_region", CodeRequired, "sub-region is required")
	}
	if p.Location.PostalCode == "" {
		add("location.postal_code", CodeRequired, "postal code is required")
	}

	switch y := p.Vehicle.Year; {
	case y == 0:
		add("vehicle.year", CodeRequired, "model year is required")
	case y < MinModelYear:
		add("vehicle.year", CodeOutOfRange, "model year must be %d or later (got %d)", MinModelYear, y)
	case currentYear > 0 && y > currentYear+1:
		add("vehicle.year", CodeOutOfRange, "model year must be %d or earlier (got %d)", currentYear+1, y)
	}

	if a := p.Driver.Age; a < MinDriverAge || a > MaxDriverAge {
		add("driver.age", CodeOutOfRange, "driver age must be between %d and %d (got %d)", MinDriverAge, MaxDriverAge, a)
	}
	if x := p.Driver.Experience; x < 0 || x > MaxExperience {
		add("driver.experience", CodeOutOfRange, "experience must be between 0 and %d years (got %d)", MaxExperience, x)
	}
	if c := p.Driver.PreviousClaims; c < 0 || c > MaxPreviousClaims {
		add("driver.previous_claims", CodeOutOfRange, "previous claims must be between 0 and %d (got %d)", MaxPreviousClaims, c)
	}

	switch {
	case p.Coverage.PlanType == "":
		add("coverage.plan_type", CodeRequired, "plan type is required")
	case !p.Coverage.PlanType.IsValid():
		add("coverage.plan_type", CodeInvalidValue, "unknown plan type %q", p.Coverage.PlanType)
	}
	if p.Coverage.IDV <= 0 {
		add("coverage.idv", CodeOutOfRange, "insured declared value must be positive")
	}
	if !IsValidDeductible(p.Coverage.VoluntaryDeductible) {
		add("coverage.voluntary_deductible", CodeInvalidValue, "deductible %d is not offered", p.Coverage.VoluntaryDeductible)
	}
	seen := make(map[AddOnID]bool, len(p.Coverage.AddOns))
	for _, a := range p.Coverage.AddOns {
		if !a.IsValid() {
			add("coverage.add_ons", CodeInvalidValue, "unknown add-on %q", a)
		}
		if seen[a] {
			add("coverage.add_ons", CodeDuplicate, "add-on %q selected twice", a)
		}
		seen[a] = true
	}

	if s := p.Credit.CreditScore; s < MinCreditScore || s > MaxCreditScore {
		add("credit.credit_score", CodeOutOfRange, "credit score must be between %d and %d (got %d)", MinCreditScore, MaxCreditScore, s)
	}

	return errs
}
