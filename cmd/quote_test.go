package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rating-cli/internal/model"
	"github.com/sells-group/rating-cli/internal/quote"
	"github.com/sells-group/rating-cli/internal/schema"
)

const profileJSON = `{
	"location": {"region": "Maharashtra", "sub_region": "Pune", "postal_code": "411001"},
	"vehicle": {"make": "Honda", "model": "City", "year": 2024, "fuel_type": "Petrol", "body_type": "Sedan"},
	"driver": {"name": "Asha", "age": 30, "experience": 6},
	"coverage": {"plan_type": "comprehensive", "idv": 650000, "voluntary_deductible": 0, "add_ons": null},
	"credit": {"credit_score": 780, "pan_verified": true, "aadhaar_verified": true}
}`

const profileYAML = `
location:
  region: Tamil Nadu
  sub_region: Chennai
  postal_code: "600001"
vehicle:
  make: Maruti
  model: Swift
  year: 2024
driver:
  age: 30
  experience: 6
coverage:
  plan_type: comprehensive
  idv: 650000
  voluntary_deductible: 5000
  add_ons: [engine-protection, roadside-assistance]
credit:
  credit_score: 780
  pan_verified: true
  aadhaar_verified: false
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadProfile_JSON(t *testing.T) {
	p, err := readProfile(writeTemp(t, "p.json", profileJSON))
	require.NoError(t, err)
	assert.Equal(t, "Pune", p.Location.SubRegion)
	assert.Equal(t, model.PlanComprehensive, p.Coverage.PlanType)
	assert.Nil(t, p.Coverage.AddOns)
}

func TestReadProfile_YAML(t *testing.T) {
	p, err := readProfile(writeTemp(t, "p.yaml", profileYAML))
	require.NoError(t, err)
	assert.Equal(t, "Tamil Nadu", p.Location.Region)
	assert.Equal(t, "600001", p.Location.PostalCode)
	assert.Equal(t, int64(5000), p.Coverage.VoluntaryDeductible)
	assert.Equal(t, []model.AddOnID{model.AddOnEngineProtection, model.AddOnRoadsideAssistance}, p.Coverage.AddOns)
}

func TestReadProfile_Errors(t *testing.T) {
	_, err := readProfile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read profile")

	_, err = readProfile(writeTemp(t, "p.yml", "driver:\n  age: 30\n  shoe_size: 9\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode profile")

	_, err = readProfile(writeTemp(t, "p.json", `{"driver": {"age": "thirty"}}`))
	require.Error(t, err)
	var verr *schema.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestRenderResult_Table(t *testing.T) {
	p, err := readProfile(writeTemp(t, "p.yaml", profileYAML))
	require.NoError(t, err)
	res, err := testService(t, quote.WithStrict(true)).Quote(p)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, res, "table"))
	out := buf.String()

	assert.Contains(t, out, "Comprehensive")
	assert.Contains(t, out, "₹8,500")
	assert.Contains(t, out, "₹8,583.30")
	assert.Contains(t, out, "Engine Protection Cover")
	assert.Contains(t, out, "₹9,383")
	assert.Contains(t, out, "₹1,689")
	assert.Contains(t, out, "₹11,072")
	assert.Contains(t, out, "ICICI Lombard")
	assert.Contains(t, out, "(Higher)")
	assert.NotContains(t, out, "issue(s)")
}

func TestRenderResult_JSON(t *testing.T) {
	p, err := readProfile(writeTemp(t, "p.json", profileJSON))
	require.NoError(t, err)
	res, err := testService(t).Quote(p)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, res, "json"))

	var back quote.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, int64(8018), back.Breakdown.TotalPayable)

	assert.Error(t, renderResult(&buf, res, "xml"))
}

func TestRenderResult_LenientShowsIssues(t *testing.T) {
	p, err := readProfile(writeTemp(t, "p.json", profileJSON))
	require.NoError(t, err)
	p.Coverage.IDV = 0

	res, err := testService(t).Quote(p)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, res, "table"))
	assert.Contains(t, buf.String(), "(estimated)")
	assert.Contains(t, buf.String(), "1 issue(s)")
	assert.Contains(t, buf.String(), "coverage.idv [OUT_OF_RANGE]")
}
