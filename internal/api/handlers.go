package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rating-cli/internal/location"
	"github.com/sells-group/rating-cli/internal/model"
	"github.com/sells-group/rating-cli/internal/quote"
	"github.com/sells-group/rating-cli/internal/region"
	"github.com/sells-group/rating-cli/internal/schema"
)

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog)
}

type regionsResponse struct {
	Version string       `json:"version"`
	Stats   region.Stats `json:"stats"`
	Regions []string     `json:"regions"`
}

func (s *Server) handleRegions(w http.ResponseWriter, _ *http.Request) {
	t := s.svc.Resolver().Table()
	writeJSON(w, http.StatusOK, regionsResponse{
		Version: t.Version(),
		Stats:   t.Stats(),
		Regions: t.Names(),
	})
}

func (s *Server) handleRegion(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "region")
	reg, ok := s.svc.Resolver().Table().Region(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown region "+name)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

type resolveResponse struct {
	Code      string         `json:"code"`
	Stage     location.Stage `json:"stage"`
	Found     bool           `json:"found"`
	Exact     bool           `json:"exact"`
	Region    string         `json:"region,omitempty"`
	SubRegion string         `json:"sub_region,omitempty"`
	// Candidates lists the regions a one- or two-digit code could still belong to.
	Candidates []string `json:"candidates,omitempty"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("code")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	code := location.Sanitize(raw)
	if code != raw {
		writeError(w, http.StatusBadRequest, "code must be at most six digits")
		return
	}

	res := resolveResponse{Code: code, Stage: location.StageOf(code)}
	rv := s.svc.Resolver()
	if res.Stage == location.StageComplete {
		if exact, ok := rv.ResolveExact(code); ok {
			res.Found, res.Exact = true, true
			res.Region, res.SubRegion = exact.Region, exact.SubRegion
			writeJSON(w, http.StatusOK, res)
			return
		}
	}
	if name, ok := rv.ResolvePrefix(code); ok {
		res.Found, res.Region = true, name
	} else if len(code) < 3 {
		res.Candidates = rv.Table().RegionsMatching(code)
	}
	writeJSON(w, http.StatusOK, res)
}

type validateRequest struct {
	Region    string `json:"region"`
	SubRegion string `json:"sub_region"`
	Code      string `json:"code"`
}

type validateResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !s.decode(w, r, schema.LocationValidate, &req) {
		return
	}

	err := s.svc.Resolver().Validate(req.Region, req.SubRegion, req.Code)
	if err == nil {
		writeJSON(w, http.StatusOK, validateResponse{Valid: true})
		return
	}

	var me *location.MismatchError
	if errors.As(err, &me) {
		s.metrics.IncLocationMismatch(string(me.Reason))
		writeJSON(w, http.StatusUnprocessableEntity, validateResponse{Reason: string(me.Reason), Error: me.Error()})
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

type entryRequest struct {
	Location model.LocationProfile `json:"location"`
	Action   string                `json:"action"`
	Value    string                `json:"value"`
}

type entryResponse struct {
	Location   model.LocationProfile `json:"location"`
	Stage      location.Stage        `json:"stage"`
	AutoFill   *location.AutoFill    `json:"auto_fill,omitempty"`
	SubRegions []string              `json:"sub_regions"`
	Problem    string                `json:"problem,omitempty"`
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if !s.decode(w, r, schema.LocationEntry, &req) {
		return
	}

	rv := s.svc.Resolver()
	e := rv.NewEntry(req.Location)
	var resp entryResponse
	switch req.Action {
	case "select_region":
		e.SelectRegion(req.Value)
	case "select_sub_region":
		e.SelectSubRegion(req.Value)
	case "enter_code":
		if fill := e.EnterCode(req.Value); fill.Source != "" {
			resp.AutoFill = &fill
		}
	}

	resp.Location = e.Profile()
	resp.Stage = e.Stage()
	resp.SubRegions = rv.SubRegions(resp.Location.Region)
	if resp.SubRegions == nil {
		resp.SubRegions = []string{}
	}
	if err := e.Problem(); err != nil {
		resp.Problem = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

type applyRequest struct {
	Profile model.RiskProfile   `json:"profile"`
	Update  model.ProfileUpdate `json:"update"`
}

type applyResponse struct {
	Profile model.RiskProfile  `json:"profile"`
	Ready   bool               `json:"ready"`
	Issues  []model.FieldError `json:"issues"`
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if !s.decode(w, r, schema.Apply, &req) {
		return
	}

	next, issues := s.svc.Apply(req.Profile, req.Update)
	if issues == nil {
		issues = []model.FieldError{}
	}
	writeJSON(w, http.StatusOK, applyResponse{Profile: next, Ready: len(issues) == 0, Issues: issues})
}

type notReadyBody struct {
	Error  string             `json:"error"`
	Issues []model.FieldError `json:"issues"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var p model.RiskProfile
	if !s.decode(w, r, schema.Profile, &p) {
		return
	}

	res, err := s.svc.Quote(p)
	if err != nil {
		var nr *quote.NotReadyError
		if errors.As(err, &nr) {
			writeJSON(w, http.StatusUnprocessableEntity, notReadyBody{Error: "profile not ready", Issues: nr.Issues})
			return
		}
		zap.L().Error("api: quote failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "quote failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// decode reads the body, checks it against the named schema and decodes
// it into dst, rejecting unknown fields. On failure it writes the response
// and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, name string, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "read request body")
		return false
	}

	if err := s.validator.Validate(name, body); err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "request does not match schema", Issues: verr.Issues})
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}

	if err := decodeStrict(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func decodeStrict(body []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return eris.Wrap(err, "api: decode body")
	}
	return nil
}
