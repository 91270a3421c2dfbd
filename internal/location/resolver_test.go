package location

import (
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rating-cli/internal/model"
	"github.com/sells-group/rating-cli/internal/region"
)

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	tbl, err := region.Embedded()
	require.NoError(t, err)
	return NewResolver(tbl)
}

func TestResolvePrefix(t *testing.T) {
	r := newResolver(t)

	tests := []struct {
		partial string
		want    string
		ok      bool
	}{
		{"", "", false},
		{"4a", "", false},
		{"11", "Delhi", true},
		{"110", "Delhi", true},
		{"1100", "Delhi", true},
		{"400", "Maharashtra", true},
		{"40", "", false},  // Goa and Maharashtra
		{"16", "", false},  // Punjab and Chandigarh
		{"403", "Goa", true},
		{"160", "Punjab", true},
		{"605", "Tamil Nadu", true},
		{"814", "Bihar", true},
		{"999", "", false},
		{"9", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.partial, func(t *testing.T) {
			got, ok := r.ResolvePrefix(tt.partial)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolvePrefix_SharedPrefixFollowsTableOrder(t *testing.T) {
	tbl, err := region.New(region.Data{
		Version: "t",
		Regions: []region.Region{
			{Name: "Zeta", Prefixes: []string{"500"}, SubRegions: []string{"Z"}},
			{Name: "Alpha", Prefixes: []string{"500"}, SubRegions: []string{"A"}},
		},
	})
	require.NoError(t, err)

	got, ok := NewResolver(tbl).ResolvePrefix("500")
	require.True(t, ok)
	assert.Equal(t, "Zeta", got)

	_, ok = NewResolver(tbl).ResolvePrefix("50")
	assert.False(t, ok)
}

func TestResolveExact(t *testing.T) {
	r := newResolver(t)

	res, ok := r.ResolveExact("400051")
	require.True(t, ok)
	assert.Equal(t, Resolution{Region: "Maharashtra", SubRegion: "Mumbai Suburban"}, res)

	res, ok = r.ResolveExact("600001")
	require.True(t, ok)
	assert.Equal(t, Resolution{Region: "Tamil Nadu", SubRegion: "Chennai"}, res)

	_, ok = r.ResolveExact("110099")
	assert.False(t, ok)
	_, ok = r.ResolveExact("4000")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	r := newResolver(t)

	res, ok := r.Resolve("400051")
	require.True(t, ok)
	assert.Equal(t, "Mumbai Suburban", res.SubRegion)

	res, ok = r.Resolve("110099")
	require.True(t, ok)
	assert.Equal(t, Resolution{Region: "Delhi"}, res)

	res, ok = r.Resolve("41")
	require.True(t, ok)
	assert.Equal(t, "Maharashtra", res.Region)

	_, ok = r.Resolve("")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	r := newResolver(t)

	assert.NoError(t, r.Validate("Delhi", "", "110099"))
	assert.NoError(t, r.Validate("Maharashtra", "Mumbai Suburban", "400051"))
	// Both owners of a shared prefix accept it.
	assert.NoError(t, r.Validate("Goa", "North Goa", "403001"))
	assert.NoError(t, r.Validate("Maharashtra", "Kolhapur", "403001"))
	// Sub-region membership is not checked.
	assert.NoError(t, r.Validate("Delhi", "Pune", "110001"))

	tests := []struct {
		region, code string
		reason       Reason
		msg          string
	}{
		{"Delhi", "11009", ReasonLength, "PIN code 11009 must be 6 digits"},
		{"Delhi", "1100991", ReasonLength, "must be 6 digits"},
		{"Delhi", "", ReasonLength, "must be 6 digits"},
		{"Delhi", "11o099", ReasonLength, "must be 6 digits"},
		{"Atlantis", "110099", ReasonUnknownRegion, `unknown region "Atlantis"`},
		{"", "110099", ReasonUnknownRegion, "unknown region"},
		{"Goa", "400051", ReasonPrefix, "PIN code 400051 does not belong to Goa"},
		{"Delhi", "560001", ReasonPrefix, "does not belong to Delhi"},
	}
	for _, tt := range tests {
		t.Run(tt.region+"/"+tt.code, func(t *testing.T) {
			err := r.Validate(tt.region, "", tt.code)
			require.Error(t, err)

			var me *MismatchError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tt.reason, me.Reason)
			assert.Equal(t, tt.code, me.Code)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestValidate_EveryRegionAcceptsItsOwnPrefixes(t *testing.T) {
	r := newResolver(t)
	tbl := r.Table()

	for _, name := range tbl.Names() {
		reg, ok := tbl.Region(name)
		require.True(t, ok)
		for _, p := range reg.Prefixes {
			assert.NoError(t, r.Validate(name, "", p+"000"), "%s %s", name, p)
		}
	}

	// A prefix owned by nobody in the table is rejected for every region.
	for _, name := range tbl.Names() {
		assert.True(t, IsMismatch(r.Validate(name, "", "999999")), name)
	}
}

func TestIsMismatch(t *testing.T) {
	err := &MismatchError{Code: "1", Region: "Goa", Reason: ReasonLength}
	assert.True(t, IsMismatch(err))
	assert.True(t, IsMismatch(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsMismatch(eris.New("other")))
	assert.False(t, IsMismatch(nil))
}

func TestCheck(t *testing.T) {
	r := newResolver(t)

	assert.Empty(t, r.Check(model.LocationProfile{Region: "Delhi"}))
	assert.Empty(t, r.Check(model.LocationProfile{Region: "Delhi", SubRegion: "South Delhi", PostalCode: "110099"}))

	errs := r.Check(model.LocationProfile{Region: "Goa", SubRegion: "Pune", PostalCode: "411001"})
	require.Len(t, errs, 2)
	assert.Equal(t, "location.postal_code", errs[0].Field)
	assert.Equal(t, model.CodeMismatch, errs[0].Code)
	assert.Equal(t, "PIN code 411001 does not belong to Goa", errs[0].Message)
	assert.Equal(t, "location.sub_region", errs[1].Field)

	errs = r.Check(model.LocationProfile{Region: "Atlantis", SubRegion: "X", PostalCode: "411001"})
	require.Len(t, errs, 1)
	assert.Equal(t, "location.region", errs[0].Field)
}
