// Package quote runs a risk profile through the location check, the rating
// engine and the market comparison, and reports what blocks a quote.
package quote

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rating-cli/internal/location"
	"github.com/sells-group/rating-cli/internal/market"
	"github.com/sells-group/rating-cli/internal/metrics"
	"github.com/sells-group/rating-cli/internal/model"
	"github.com/sells-group/rating-cli/internal/rating"
)

// ErrProfileNotReady is matched by every *NotReadyError.
var ErrProfileNotReady = eris.New("quote: profile not ready")

// NotReadyError carries the issues that kept a profile from being quoted
// in strict mode.
type NotReadyError struct {
	Issues []model.FieldError
}

func (e *NotReadyError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.Error()
	}
	return fmt.Sprintf("quote: profile not ready: %s", strings.Join(parts, "; "))
}

// Is lets errors.Is match ErrProfileNotReady.
func (e *NotReadyError) Is(target error) bool { return target == ErrProfileNotReady }

// Result is a priced profile.
type Result struct {
	ID            string                  `json:"id"`
	QuotedAt      time.Time               `json:"quoted_at"`
	Ready         bool                    `json:"ready"`
	Issues        []model.FieldError      `json:"issues,omitempty"`
	Breakdown     rating.QuoteBreakdown   `json:"breakdown"`
	Market        market.ComparisonResult `json:"market"`
	RegionVersion string                  `json:"region_version"`
}

// Service quotes profiles. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	resolver *location.Resolver
	engine   *rating.Engine
	metrics  *metrics.Metrics
	strict   bool
	now      func() time.Time
	newID    func() string
}

// Option configures a Service.
type Option func(*Service)

// WithStrict refuses to quote profiles that have readiness issues.
func WithStrict(strict bool) Option {
	return func(s *Service) { s.strict = strict }
}

// WithMetrics records quotes and location mismatches.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithIDs replaces the quote ID generator.
func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a quote service.
func NewService(resolver *location.Resolver, engine *rating.Engine, opts ...Option) *Service {
	s := &Service{
		resolver: resolver,
		engine:   engine,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Strict reports whether the service refuses unready profiles.
func (s *Service) Strict() bool { return s.strict }

// Resolver returns the location resolver the service checks against.
func (s *Service) Resolver() *location.Resolver { return s.resolver }

// Issues returns everything that makes p unfit for a meaningful quote:
// missing or out-of-range fields, then location inconsistencies.
func (s *Service) Issues(p model.RiskProfile) []model.FieldError {
	issues := model.Readiness(p, s.engine.CurrentYear())
	return append(issues, s.resolver.Check(p.Location)...)
}

// Quote prices p. In strict mode a profile with issues is refused with a
// *NotReadyError; otherwise it is priced anyway and the issues are
// returned on the result.
func (s *Service) Quote(p model.RiskProfile) (*Result, error) {
	start := time.Now()
	log := zap.L().With(zap.String("component", "quote"))

	issues := s.Issues(p)
	s.countMismatch(p.Location)

	if s.strict && len(issues) > 0 {
		s.metrics.ObserveQuote(planLabel(p.Coverage.PlanType), metrics.OutcomeNotReady, 0, start)
		log.Debug("profile not ready", zap.Int("issues", len(issues)))
		return nil, &NotReadyError{Issues: issues}
	}

	b := s.engine.ComputeQuote(p)
	res := &Result{
		ID:            s.newID(),
		QuotedAt:      s.now().UTC(),
		Ready:         len(issues) == 0,
		Issues:        issues,
		Breakdown:     b,
		Market:        market.CompareToMarket(b.BasePremium, b.FinalPremium),
		RegionVersion: s.resolver.Table().Version(),
	}

	s.metrics.ObserveQuote(planLabel(p.Coverage.PlanType), metrics.OutcomeQuoted, b.FinalPremium, start)
	log.Info("quote computed",
		zap.String("quote_id", res.ID),
		zap.String("plan", string(b.PlanType)),
		zap.Int64("final_premium", b.FinalPremium),
		zap.Int64("total_payable", b.TotalPayable),
		zap.Bool("ready", res.Ready),
	)
	return res, nil
}

// Apply applies u to p and reports the updated profile's issues.
func (s *Service) Apply(p model.RiskProfile, u model.ProfileUpdate) (model.RiskProfile, []model.FieldError) {
	next := p.Apply(u)
	return next, s.Issues(next)
}

func (s *Service) countMismatch(loc model.LocationProfile) {
	if !loc.Complete() {
		return
	}
	err := s.resolver.Validate(loc.Region, loc.SubRegion, loc.PostalCode)
	var me *location.MismatchError
	if errors.As(err, &me) {
		s.metrics.IncLocationMismatch(string(me.Reason))
	}
}

// planLabel bounds the plan metric label to the catalog. An empty plan
// passes through so metrics can report it as none.
func planLabel(p model.PlanType) string {
	if p == "" || p.IsValid() {
		return string(p)
	}
	return "unknown"
}
