package model

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// LocationUpdate changes location fields. Nil fields are left as they are.
type LocationUpdate struct {
	Region     *string `json:"region,omitempty"`
	SubRegion  *string `json:"sub_region,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
}

// VehicleUpdate changes vehicle fields. Nil fields are left as they are.
type VehicleUpdate struct {
	RegistrationNumber *string   `json:"registration_number,omitempty"`
	Make               *string   `json:"make,omitempty"`
	Model              *string   `json:"model,omitempty"`
	Year               *int      `json:"year,omitempty"`
	FuelType           *FuelType `json:"fuel_type,omitempty"`
	BodyType           *BodyType `json:"body_type,omitempty"`
	EngineCapacityCC   *int      `json:"engine_capacity_cc,omitempty"`
	RTOCode            *string   `json:"rto_code,omitempty"`
}

// DriverUpdate changes driver fields. Nil fields are left as they are.
type DriverUpdate struct {
	Name           *string        `json:"name,omitempty"`
	Age            *int           `json:"age,omitempty"`
	Experience     *int           `json:"experience,omitempty"`
	Gender         *Gender        `json:"gender,omitempty"`
	MaritalStatus  *MaritalStatus `json:"marital_status,omitempty"`
	Occupation     *string        `json:"occupation,omitempty"`
	PreviousClaims *int           `json:"previous_claims,omitempty"`
}

// CoverageUpdate changes coverage fields. A non-nil AddOns replaces the whole set.
type CoverageUpdate struct {
	PlanType            *PlanType  `json:"plan_type,omitempty"`
	IDV                 *int64     `json:"idv,omitempty"`
	VoluntaryDeductible *int64     `json:"voluntary_deductible,omitempty"`
	AddOns              *[]AddOnID `json:"add_ons,omitempty"`
}

// CreditUpdate changes credit fields. Nil fields are left as they are.
type CreditUpdate struct {
	CreditScore     *int  `json:"credit_score,omitempty"`
	PANVerified     *bool `json:"pan_verified,omitempty"`
	AadhaarVerified *bool `json:"aadhaar_verified,omitempty"`
}

// ProfileUpdate groups the per-section updates. Sections left nil are untouched.
type ProfileUpdate struct {
	Location *LocationUpdate `json:"location,omitempty"`
	Vehicle  *VehicleUpdate  `json:"vehicle,omitempty"`
	Driver   *DriverUpdate   `json:"driver,omitempty"`
	Coverage *CoverageUpdate `json:"coverage,omitempty"`
	Credit   *CreditUpdate   `json:"credit,omitempty"`
}

// Empty reports whether the update touches no section.
func (u ProfileUpdate) Empty() bool {
	return u.Location == nil && u.Vehicle == nil && u.Driver == nil && u.Coverage == nil && u.Credit == nil
}

// DecodeUpdate parses a JSON profile update and rejects unknown fields.
func DecodeUpdate(r io.Reader) (ProfileUpdate, error) {
	var u ProfileUpdate
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&u); err != nil {
		return ProfileUpdate{}, eris.Wrap(err, "model: decode update")
	}
	if dec.More() {
		return ProfileUpdate{}, eris.New("model: decode update: trailing data after update object")
	}
	return u, nil
}

// DecodeProfile parses a JSON risk profile and rejects unknown fields.
func DecodeProfile(data []byte) (RiskProfile, error) {
	var p RiskProfile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return RiskProfile{}, eris.Wrap(err, "model: decode profile")
	}
	return p, nil
}

// Apply returns a copy of p with u applied. The receiver is not modified.
//
// Choosing a different region clears the sub-region and postal code, since
// both depend on it, unless the same update also sets them.
func (p RiskProfile) Apply(u ProfileUpdate) RiskProfile {
	out := p.Clone()

	if l := u.Location; l != nil {
		if l.Region != nil && *l.Region != out.Location.Region {
			out.Location.Region = *l.Region
			out.Location.SubRegion = ""
			out.Location.PostalCode = ""
		}
		setString(&out.Location.SubRegion, l.SubRegion)
		setString(&out.Location.PostalCode, l.PostalCode)
	}

	if v := u.Vehicle; v != nil {
		setString(&out.Vehicle.RegistrationNumber, v.RegistrationNumber)
		setString(&out.Vehicle.Make, v.Make)
		setString(&out.Vehicle.Model, v.Model)
		setInt(&out.Vehicle.Year, v.Year)
		if v.FuelType != nil {
			out.Vehicle.FuelType = *v.FuelType
		}
		if v.BodyType != nil {
			out.Vehicle.BodyType = *v.BodyType
		}
		setInt(&out.Vehicle.EngineCapacityCC, v.EngineCapacityCC)
		setString(&out.Vehicle.RTOCode, v.RTOCode)
	}

	if d := u.Driver; d != nil {
		setString(&out.Driver.Name, d.Name)
		setInt(&out.Driver.Age, d.Age)
		setInt(&out.Driver.Experience, d.Experience)
		if d.Gender != nil {
			out.Driver.Gender = *d.Gender
		}
		if d.MaritalStatus != nil {
			out.Driver.MaritalStatus = *d.MaritalStatus
		}
		setString(&out.Driver.Occupation, d.Occupation)
		setInt(&out.Driver.PreviousClaims, d.PreviousClaims)
	}

	if c := u.Coverage; c != nil {
		if c.PlanType != nil {
			out.Coverage.PlanType = *c.PlanType
		}
		if c.IDV != nil {
			out.Coverage.IDV = *c.IDV
		}
		if c.VoluntaryDeductible != nil {
			out.Coverage.VoluntaryDeductible = *c.VoluntaryDeductible
		}
		if c.AddOns != nil {
			out.Coverage.AddOns = dedupeAddOns(*c.AddOns)
		}
	}

	if c := u.Credit; c != nil {
		setInt(&out.Credit.CreditScore, c.CreditScore)
		if c.PANVerified != nil {
			out.Credit.PANVerified = *c.PANVerified
		}
		if c.AadhaarVerified != nil {
			out.Credit.AadhaarVerified = *c.AadhaarVerified
		}
	}

	return out
}

// dedupeAddOns keeps the first occurrence of each id, preserving order.
func dedupeAddOns(in []AddOnID) []AddOnID {
	out := make([]AddOnID, 0, len(in))
	seen := make(map[AddOnID]bool, len(in))
	for _, a := range in {
		if seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
