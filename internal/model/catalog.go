package model

// PlanType identifies a coverage plan.
type PlanType string

const (
	PlanThirdParty    PlanType = "third-party"
	PlanComprehensive PlanType = "comprehensive"
	PlanZeroDep       PlanType = "zero-dep"
)

// AllPlans returns every plan in display order.
func AllPlans() []PlanType {
	return []PlanType{PlanThirdParty, PlanComprehensive, PlanZeroDep}
}

// IsValid checks if the plan type is one of the known plans.
func (p PlanType) IsValid() bool {
	switch p {
	case PlanThirdParty, PlanComprehensive, PlanZeroDep:
		return true
	}
	return false
}

// DisplayName returns a human-readable name for the plan.
func (p PlanType) DisplayName() string {
	switch p {
	case PlanThirdParty:
		return "Third Party Only"
	case PlanComprehensive:
		return "Comprehensive"
	case PlanZeroDep:
		return "Zero Depreciation"
	default:
		return string(p)
	}
}

// Description returns the short marketing description of the plan.
func (p PlanType) Description() string {
	switch p {
	case PlanThirdParty:
		return "Basic legal coverage"
	case PlanComprehensive:
		return "Complete protection"
	case PlanZeroDep:
		return "No depreciation claims"
	default:
		return ""
	}
}

// AddOnID identifies an optional cover purchasable on top of a plan.
type AddOnID string

const (
	AddOnRoadsideAssistance AddOnID = "roadside-assistance"
	AddOnEngineProtection   AddOnID = "engine-protection"
	AddOnConsumables        AddOnID = "consumables"
	AddOnKeyReplacement     AddOnID = "key-replacement"
	AddOnTyreProtection     AddOnID = "tyre-protection"
	AddOnPassengerCover     AddOnID = "passenger-cover"
	AddOnReturnToInvoice    AddOnID = "return-to-invoice"
)

// AllAddOns returns every add-on in display order.
func AllAddOns() []AddOnID {
	return []AddOnID{
		AddOnRoadsideAssistance,
		AddOnEngineProtection,
		AddOnConsumables,
		AddOnKeyReplacement,
		AddOnTyreProtection,
		AddOnPassengerCover,
		AddOnReturnToInvoice,
	}
}

// IsValid checks if the add-on id is known.
func (a AddOnID) IsValid() bool {
	for _, known := range AllAddOns() {
		if a == known {
			return true
		}
	}
	return false
}

// DisplayName returns a human-readable name for the add-on.
func (a AddOnID) DisplayName() string {
	switch a {
	case AddOnRoadsideAssistance:
		return "Roadside Assistance"
	case AddOnEngineProtection:
		return "Engine Protection Cover"
	case AddOnConsumables:
		return "Consumables Cover"
	case AddOnKeyReplacement:
		return "Key Replacement Cover"
	case AddOnTyreProtection:
		return "Tyre & Rim Protection"
	case AddOnPassengerCover:
		return "Personal Accident Cover"
	case AddOnReturnToInvoice:
		return "Return to Invoice"
	default:
		return string(a)
	}
}

// Deductibles lists the voluntary deductible amounts a customer may choose.
var Deductibles = []int64{0, 2500, 5000, 7500, 15000}

// IsValidDeductible checks if amount is one of the offered deductibles.
func IsValidDeductible(amount int64) bool {
	for _, d := range Deductibles {
		if d == amount {
			return true
		}
	}
	return false
}

// CreditBand is a named credit score range.
type CreditBand struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
}

// Credit score bounds accepted by the credit step.
const (
	MinCreditScore = 300
	MaxCreditScore = 900
)

// CreditBands lists the credit bands from best to worst.
var CreditBands = []CreditBand{
	{Label: "Excellent", Min: 800, Max: 900},
	{Label: "Very Good", Min: 750, Max: 799},
	{Label: "Good", Min: 700, Max: 749},
	{Label: "Fair", Min: 650, Max: 699},
	{Label: "Poor", Min: 300, Max: 649},
}

// BandFor returns the credit band containing score. Scores outside every
// band fall into the last (worst) band.
func BandFor(score int) CreditBand {
	for _, b := range CreditBands {
		if score >= b.Min && score <= b.Max {
			return b
		}
	}
	return CreditBands[len(CreditBands)-1]
}

// FuelType is the vehicle's fuel.
type FuelType string

const (
	FuelPetrol   FuelType = "Petrol"
	FuelDiesel   FuelType = "Diesel"
	FuelCNG      FuelType = "CNG"
	FuelLPG      FuelType = "LPG"
	FuelElectric FuelType = "Electric"
	FuelHybrid   FuelType = "Hybrid"
)

// IsValid checks if the fuel type is known.
func (f FuelType) IsValid() bool {
	switch f {
	case FuelPetrol, FuelDiesel, FuelCNG, FuelLPG, FuelElectric, FuelHybrid:
		return true
	}
	return false
}

// BodyType is the vehicle's body style.
type BodyType string

const (
	BodyHatchback   BodyType = "Hatchback"
	BodySedan       BodyType = "Sedan"
	BodySUV         BodyType = "SUV"
	BodyMUV         BodyType = "MUV"
	BodyCoupe       BodyType = "Coupe"
	BodyConvertible BodyType = "Convertible"
	BodyPickup      BodyType = "Pickup Truck"
)

// IsValid checks if the body type is known.
func (b BodyType) IsValid() bool {
	switch b {
	case BodyHatchback, BodySedan, BodySUV, BodyMUV, BodyCoupe, BodyConvertible, BodyPickup:
		return true
	}
	return false
}

// Gender of the driver.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// IsValid checks if the gender is known.
func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// MaritalStatus of the driver.
type MaritalStatus string

const (
	MaritalSingle   MaritalStatus = "Single"
	MaritalMarried  MaritalStatus = "Married"
	MaritalDivorced MaritalStatus = "Divorced"
	MaritalWidowed  MaritalStatus = "Widowed"
)

// IsValid checks if the marital status is known.
func (m MaritalStatus) IsValid() bool {
	switch m {
	case MaritalSingle, MaritalMarried, MaritalDivorced, MaritalWidowed:
		return true
	}
	return false
}

// VehicleMakes lists the makes offered by the vehicle step.
var VehicleMakes = []string{
	"Maruti Suzuki", "Hyundai", "Tata", "Mahindra", "Honda", "Toyota", "Ford",
	"Chevrolet", "Volkswagen", "Skoda", "Nissan", "Renault", "BMW", "Mercedes-Benz",
	"Audi", "Jaguar", "Land Rover", "Volvo", "Kia", "MG Motor",
}

// Occupations lists the occupations offered by the driver step.
var Occupations = []string{
	"Salaried Employee", "Business Owner", "Professional", "Government Employee",
	"Retired", "Student", "Homemaker", "Self-Employed", "Doctor", "Engineer",
	"Teacher", "Lawyer", "Consultant", "Other",
}

// Driver and vehicle bounds.
const (
	MinDriverAge      = 18
	MaxDriverAge      = 100
	MaxExperience     = 50
	MaxPreviousClaims = 20
	MinModelYear      = 1990
)
