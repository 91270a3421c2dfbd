// Package model holds the risk profile value types consumed by the rating
// engine and the location resolver.
package model

// LocationProfile is the customer's declared postal location.
type LocationProfile struct {
	Region     string `json:"region" yaml:"region"`
	SubRegion  string `json:"sub_region" yaml:"sub_region"`
	PostalCode string `json:"postal_code" yaml:"postal_code"`
}

// Complete reports whether all three location fields are set.
func (l LocationProfile) Complete() bool {
	return l.Region != "" && l.SubRegion != "" && l.PostalCode != ""
}

// VehicleProfile describes the insured vehicle.
type VehicleProfile struct {
	RegistrationNumber string   `json:"registration_number" yaml:"registration_number"`
	Make               string   `json:"make" yaml:"make"`
	Model              string   `json:"model" yaml:"model"`
	Year               int      `json:"year" yaml:"year"`
	FuelType           FuelType `json:"fuel_type" yaml:"fuel_type"`
	BodyType           BodyType `json:"body_type" yaml:"body_type"`
	EngineCapacityCC   int      `json:"engine_capacity_cc,omitempty" yaml:"engine_capacity_cc,omitempty"`
	RTOCode            string   `json:"rto_code,omitempty" yaml:"rto_code,omitempty"`
}

// DriverProfile describes the primary driver.
type DriverProfile struct {
	Name           string        `json:"name" yaml:"name"`
	Age            int           `json:"age" yaml:"age"`
	Experience     int           `json:"experience" yaml:"experience"` // years licensed
	Gender         Gender        `json:"gender" yaml:"gender"`
	MaritalStatus  MaritalStatus `json:"marital_status" yaml:"marital_status"`
	Occupation     string        `json:"occupation" yaml:"occupation"`
	PreviousClaims int           `json:"previous_claims" yaml:"previous_claims"` // trailing 5 years
}

// CoverageSelection is the chosen plan and its options.
type CoverageSelection struct {
	PlanType            PlanType  `json:"plan_type" yaml:"plan_type"`
	IDV                 int64     `json:"idv" yaml:"idv"`
	VoluntaryDeductible int64     `json:"voluntary_deductible" yaml:"voluntary_deductible"`
	AddOns              []AddOnID `json:"add_ons" yaml:"add_ons"`
}

// HasAddOn reports whether id is among the selected add-ons.
func (c CoverageSelection) HasAddOn(id AddOnID) bool {
	for _, a := range c.AddOns {
		if a == id {
			return true
		}
	}
	return false
}

// CreditProfile carries the credit score and KYC document flags.
type CreditProfile struct {
	CreditScore     int  `json:"credit_score" yaml:"credit_score"`
	PANVerified     bool `json:"pan_verified" yaml:"pan_verified"`         // identity document
	AadhaarVerified bool `json:"aadhaar_verified" yaml:"aadhaar_verified"` // address document
}

// DocumentsVerified reports whether both identity and address documents are verified.
func (c CreditProfile) DocumentsVerified() bool {
	return c.PANVerified && c.AadhaarVerified
}

// RiskProfile is the full input to a quote. It is passed by value and never
// mutated by the core.
type RiskProfile struct {
	Location LocationProfile   `json:"location" yaml:"location"`
	Vehicle  VehicleProfile    `json:"vehicle" yaml:"vehicle"`
	Driver   DriverProfile     `json:"driver" yaml:"driver"`
	Coverage CoverageSelection `json:"coverage" yaml:"coverage"`
	Credit   CreditProfile     `json:"credit" yaml:"credit"`
}

// Clone returns a deep copy of the profile.
func (p RiskProfile) Clone() RiskProfile {
	out := p
	if p.Coverage.AddOns != nil {
		out.Coverage.AddOns = append([]AddOnID(nil), p.Coverage.AddOns...)
	}
	return out
}
