package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rating-cli/internal/location"
	"github.com/sells-group/rating-cli/internal/metrics"
	"github.com/sells-group/rating-cli/internal/quote"
	"github.com/sells-group/rating-cli/internal/rating"
	"github.com/sells-group/rating-cli/internal/region"
	"github.com/sells-group/rating-cli/internal/schema"
)

const readyProfile = `{
	"location": {"region": "Maharashtra", "sub_region": "Pune", "postal_code": "411001"},
	"vehicle": {"make": "Honda", "model": "City", "year": 2024, "fuel_type": "Petrol", "body_type": "Sedan"},
	"driver": {"name": "Asha", "age": 30, "experience": 6},
	"coverage": {"plan_type": "comprehensive", "idv": 650000, "voluntary_deductible": 0, "add_ons": []},
	"credit": {"credit_score": 780, "pan_verified": true, "aadhaar_verified": true}
}`

type harness struct {
	handler http.Handler
	reg     *prometheus.Registry
}

func newHarness(t *testing.T, strict bool, opts Options) *harness {
	t.Helper()
	tbl, err := region.Embedded()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := quote.NewService(
		location.NewResolver(tbl),
		rating.NewEngine(rating.WithYear(2025)),
		quote.WithStrict(strict),
		quote.WithMetrics(m),
		quote.WithIDs(func() string { return "q-test" }),
	)
	opts.Metrics = m
	opts.Gatherer = reg
	return &harness{handler: New(svc, schema.MustNew(), opts).Routes(), reg: reg}
}

func (h *harness) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	h := newHarness(t, true, Options{})

	w := h.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "2024.1", body["region_version"])
}

func TestCatalog(t *testing.T) {
	h := newHarness(t, true, Options{})

	w := h.do(t, http.MethodGet, "/v1/catalog", "")
	require.Equal(t, http.StatusOK, w.Code)

	var c rating.Catalog
	require.NoError(t, json.NewDecoder(w.Body).Decode(&c))
	assert.Len(t, c.Plans, 3)
	assert.Len(t, c.AddOns, 7)
	assert.InDelta(t, 18.0, c.TaxPercent, 1e-9)
}

func TestRegions(t *testing.T) {
	h := newHarness(t, true, Options{})

	w := h.do(t, http.MethodGet, "/v1/regions", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list regionsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Equal(t, "2024.1", list.Version)
	assert.Len(t, list.Regions, 31)
	assert.Equal(t, 720, list.Stats.ExactCodes)

	w = h.do(t, http.MethodGet, "/v1/regions/Goa", "")
	require.Equal(t, http.StatusOK, w.Code)
	var goa region.Region
	require.NoError(t, json.NewDecoder(w.Body).Decode(&goa))
	assert.Equal(t, "Goa", goa.Name)
	assert.Contains(t, goa.Prefixes, "403")
	assert.Contains(t, goa.SubRegions, "North Goa")

	w = h.do(t, http.MethodGet, "/v1/regions/Atlantis", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "Atlantis")
}

func TestResolve(t *testing.T) {
	h := newHarness(t, true, Options{})

	tests := []struct {
		name       string
		code       string
		status     int
		found      bool
		exact      bool
		region     string
		subRegion  string
		stage      string
		candidates []any
	}{
		{"exact code", "400051", http.StatusOK, true, true, "Maharashtra", "Mumbai Suburban", "complete", nil},
		{"prefix only", "110099", http.StatusOK, true, false, "Delhi", "", "complete", nil},
		{"three digits", "560", http.StatusOK, true, false, "Karnataka", "", "prefix", nil},
		{"four digits", "5600", http.StatusOK, true, false, "Karnataka", "", "partial", nil},
		{"shared prefix goes to first region", "403", http.StatusOK, true, false, "Goa", "", "prefix", nil},
		{"ambiguous two digits", "16", http.StatusOK, false, false, "", "", "prefix", []any{"Punjab", "Chandigarh"}},
		{"unknown prefix", "999", http.StatusOK, false, false, "", "", "prefix", nil},
		{"letters", "40A051", http.StatusBadRequest, false, false, "", "", "", nil},
		{"too long", "4000511", http.StatusBadRequest, false, false, "", "", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(t, http.MethodGet, "/v1/location/resolve?code="+tt.code, "")
			require.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				return
			}
			body := decodeBody(t, w)
			assert.Equal(t, tt.found, body["found"])
			assert.Equal(t, tt.exact, body["exact"])
			assert.Equal(t, tt.stage, body["stage"])
			if tt.region != "" {
				assert.Equal(t, tt.region, body["region"])
			} else {
				assert.NotContains(t, body, "region")
			}
			if tt.subRegion != "" {
				assert.Equal(t, tt.subRegion, body["sub_region"])
			}
			if tt.candidates != nil {
				assert.ElementsMatch(t, tt.candidates, body["candidates"])
			}
		})
	}

	w := h.do(t, http.MethodGet, "/v1/location/resolve", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidate(t *testing.T) {
	h := newHarness(t, true, Options{})

	w := h.do(t, http.MethodPost, "/v1/location/validate", `{"region": "Delhi", "code": "110099"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["valid"])

	w = h.do(t, http.MethodPost, "/v1/location/validate", `{"region": "Goa", "sub_region": "Mumbai Suburban", "code": "400051"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, "prefix", body["reason"])
	assert.Equal(t, "PIN code 400051 does not belong to Goa", body["error"])

	w = h.do(t, http.MethodPost, "/v1/location/validate", `{"region": "Delhi", "code": "1100"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "length", decodeBody(t, w)["reason"])

	w = h.do(t, http.MethodPost, "/v1/location/validate", `{"region": "Delhi"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, "request does not match schema", body["error"])
	assert.NotEmpty(t, body["issues"])

	w = h.do(t, http.MethodPost, "/v1/location/validate", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEntry(t *testing.T) {
	h := newHarness(t, true, Options{})

	w := h.do(t, http.MethodPost, "/v1/location/entry", `{"action": "enter_code", "value": "400"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp entryResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Maharashtra", resp.Location.Region)
	assert.Equal(t, "400", resp.Location.PostalCode)
	assert.Equal(t, location.StagePrefix, resp.Stage)
	require.NotNil(t, resp.AutoFill)
	assert.Equal(t, location.FillPrefix, resp.AutoFill.Source)
	assert.Contains(t, resp.SubRegions, "Pune")

	w = h.do(t, http.MethodPost, "/v1/location/entry",
		`{"location": {"region": "Delhi", "sub_region": "New Delhi", "postal_code": ""}, "action": "enter_code", "value": "575001"}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp = entryResponse{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	// A chosen region is not replaced by the prefix owner.
	assert.Equal(t, "Delhi", resp.Location.Region)
	assert.Nil(t, resp.AutoFill)
	assert.Equal(t, "PIN code 575001 does not belong to Delhi", resp.Problem)

	w = h.do(t, http.MethodPost, "/v1/location/entry",
		`{"location": {"region": "Delhi", "sub_region": "New Delhi", "postal_code": "110001"}, "action": "select_region", "value": "Goa"}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp = entryResponse{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Goa", resp.Location.Region)
	assert.Empty(t, resp.Location.SubRegion)
	assert.Empty(t, resp.Location.PostalCode)
	assert.Equal(t, location.StageEmpty, resp.Stage)

	w = h.do(t, http.MethodPost, "/v1/location/entry", `{"action": "teleport", "value": "x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApply(t *testing.T) {
	h := newHarness(t, true, Options{})

	w := h.do(t, http.MethodPost, "/v1/profile/apply",
		fmt.Sprintf(`{"profile": %s, "update": {"driver": {"age": 45}}}`, readyProfile))
	require.Equal(t, http.StatusOK, w.Code)
	var resp applyResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Ready)
	assert.Empty(t, resp.Issues)
	assert.Equal(t, 45, resp.Profile.Driver.Age)

	w = h.do(t, http.MethodPost, "/v1/profile/apply", `{"update": {"location": {"region": "Goa"}}}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp = applyResponse{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Ready)
	assert.Equal(t, "Goa", resp.Profile.Location.Region)
	assert.NotEmpty(t, resp.Issues)

	w = h.do(t, http.MethodPost, "/v1/profile/apply", `{"profile": {}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuote(t *testing.T) {
	h := newHarness(t, true, Options{})

	w := h.do(t, http.MethodPost, "/v1/quote", readyProfile)
	require.Equal(t, http.StatusOK, w.Code)
	var res quote.Result
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Equal(t, "q-test", res.ID)
	assert.True(t, res.Ready)
	assert.Equal(t, int64(6795), res.Breakdown.FinalPremium)
	assert.Equal(t, int64(1223), res.Breakdown.Tax)
	assert.Equal(t, int64(8018), res.Breakdown.TotalPayable)
	assert.Len(t, res.Market.Competitors, 6)
}

func TestQuote_NotReady(t *testing.T) {
	body := strings.Replace(readyProfile, `"age": 30`, `"age": 16`, 1)

	strict := newHarness(t, true, Options{})
	w := strict.do(t, http.MethodPost, "/v1/quote", body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var nr notReadyBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&nr))
	require.Len(t, nr.Issues, 1)
	assert.Equal(t, "driver.age", nr.Issues[0].Field)

	lenient := newHarness(t, false, Options{})
	w = lenient.do(t, http.MethodPost, "/v1/quote", body)
	require.Equal(t, http.StatusOK, w.Code)
	var res quote.Result
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.False(t, res.Ready)
	require.Len(t, res.Issues, 1)
}

func TestQuote_SchemaRejects(t *testing.T) {
	h := newHarness(t, true, Options{})

	tests := []struct {
		name string
		body string
	}{
		{"unknown field", `{"driver": {"age": 30, "shoe_size": 9}}`},
		{"wrong type", `{"driver": {"age": "thirty"}}`},
		{"not json", `{"driver":`},
		{"empty body", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/quote", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.handler.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decodeBody(t, w)["error"])
		})
	}
}

func TestRateLimit(t *testing.T) {
	h := newHarness(t, true, Options{RateLimitRPS: 0.001, RateLimitBurst: 2})

	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/v1/catalog", "").Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/v1/catalog", "").Code)
	w := h.do(t, http.MethodGet, "/v1/catalog", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	// Health checks are not limited.
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/health", "").Code)

	metricsBody := h.do(t, http.MethodGet, "/metrics", "").Body.String()
	assert.Contains(t, metricsBody, "rating_http_rate_limited_total 1")
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, true, Options{})

	h.do(t, http.MethodGet, "/v1/regions/Goa", "")
	h.do(t, http.MethodGet, "/v1/regions/Atlantis", "")
	h.do(t, http.MethodPost, "/v1/quote", readyProfile)

	w := h.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	out := w.Body.String()
	assert.Contains(t, out, `rating_http_requests_total{method="GET",route="/v1/regions/{region}",status="200"} 1`)
	assert.Contains(t, out, `rating_http_requests_total{method="GET",route="/v1/regions/{region}",status="404"} 1`)
	assert.Contains(t, out, `rating_quotes_total{outcome="quoted",plan="comprehensive"} 1`)
}

func TestCORS(t *testing.T) {
	h := newHarness(t, true, Options{CORSOrigins: []string{"https://quotes.example.in"}})

	req := httptest.NewRequest(http.MethodOptions, "/v1/quote", nil)
	req.Header.Set("Origin", "https://quotes.example.in")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	assert.Equal(t, "https://quotes.example.in", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://elsewhere.example.com")
	w = httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
