package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func baseProfile() RiskProfile {
	return RiskProfile{
		Location: LocationProfile{Region: "Maharashtra", SubRegion: "Pune", PostalCode: "411001"},
		Vehicle:  VehicleProfile{Make: "Honda", Model: "City", Year: 2021},
		Driver:   DriverProfile{Name: "Asha", Age: 30, Experience: 6},
		Coverage: CoverageSelection{
			PlanType: PlanComprehensive,
			IDV:      500000,
			AddOns:   []AddOnID{AddOnConsumables},
		},
		Credit: CreditProfile{CreditScore: 780},
	}
}

func TestApply_RegionChangeClearsDependents(t *testing.T) {
	t.Parallel()

	p := baseProfile()
	got := p.Apply(ProfileUpdate{Location: &LocationUpdate{Region: ptr("Delhi")}})

	assert.Equal(t, "Delhi", got.Location.Region)
	assert.Empty(t, got.Location.SubRegion)
	assert.Empty(t, got.Location.PostalCode)

	// Receiver is untouched.
	assert.Equal(t, "Maharashtra", p.Location.Region)
	assert.Equal(t, "Pune", p.Location.SubRegion)
}

func TestApply_RegionChangeWithDependentsInSameUpdate(t *testing.T) {
	t.Parallel()

	got := baseProfile().Apply(ProfileUpdate{Location: &LocationUpdate{
		Region:     ptr("Delhi"),
		SubRegion:  ptr("South Delhi"),
		PostalCode: ptr("110025"),
	}})

	assert.Equal(t, LocationProfile{Region: "Delhi", SubRegion: "South Delhi", PostalCode: "110025"}, got.Location)
}

func TestApply_SameRegionKeepsDependents(t *testing.T) {
	t.Parallel()

	got := baseProfile().Apply(ProfileUpdate{Location: &LocationUpdate{Region: ptr("Maharashtra")}})
	assert.Equal(t, "Pune", got.Location.SubRegion)
	assert.Equal(t, "411001", got.Location.PostalCode)
}

func TestApply_SectionsAndAddOnDedupe(t *testing.T) {
	t.Parallel()

	p := baseProfile()
	got := p.Apply(ProfileUpdate{
		Driver:   &DriverUpdate{Age: ptr(24), Gender: ptr(GenderFemale)},
		Coverage: &CoverageUpdate{AddOns: &[]AddOnID{AddOnRoadsideAssistance, AddOnRoadsideAssistance, AddOnKeyReplacement}},
		Credit:   &CreditUpdate{PANVerified: ptr(true)},
		Vehicle:  &VehicleUpdate{Year: ptr(2022), FuelType: ptr(FuelDiesel)},
	})

	assert.Equal(t, 24, got.Driver.Age)
	assert.Equal(t, "Asha", got.Driver.Name)
	assert.Equal(t, GenderFemale, got.Driver.Gender)
	assert.Equal(t, []AddOnID{AddOnRoadsideAssistance, AddOnKeyReplacement}, got.Coverage.AddOns)
	assert.True(t, got.Credit.PANVerified)
	assert.Equal(t, 780, got.Credit.CreditScore)
	assert.Equal(t, 2022, got.Vehicle.Year)
	assert.Equal(t, FuelDiesel, got.Vehicle.FuelType)

	assert.Equal(t, []AddOnID{AddOnConsumables}, p.Coverage.AddOns)
}

func TestDecodeUpdate_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := DecodeUpdate(strings.NewReader(`{"driver":{"age":30,"shoe_size":9}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shoe_size")

	_, err = DecodeUpdate(strings.NewReader(`{"garage":{}}`))
	require.Error(t, err)
}

func TestDecodeUpdate_Valid(t *testing.T) {
	t.Parallel()

	u, err := DecodeUpdate(strings.NewReader(`{"coverage":{"plan_type":"zero-dep","add_ons":[]}}`))
	require.NoError(t, err)
	require.NotNil(t, u.Coverage)
	assert.Equal(t, PlanZeroDep, *u.Coverage.PlanType)
	require.NotNil(t, u.Coverage.AddOns)
	assert.Empty(t, *u.Coverage.AddOns)
	assert.False(t, u.Empty())

	empty, err := DecodeUpdate(strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.True(t, empty.Empty())
}

func TestDecodeProfile(t *testing.T) {
	t.Parallel()

	p, err := DecodeProfile([]byte(`{"location":{"region":"Delhi","sub_region":"South Delhi","postal_code":"110025"},"credit":{"credit_score":810}}`))
	require.NoError(t, err)
	assert.Equal(t, "Delhi", p.Location.Region)
	assert.Equal(t, 810, p.Credit.CreditScore)

	_, err = DecodeProfile([]byte(`{"location":{"state":"Delhi"}}`))
	assert.Error(t, err)
}
