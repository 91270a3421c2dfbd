// Package location cross-checks a postal code against a claimed region and
// sub-region, and auto-resolves region and sub-region from a partial or
// complete postal code.
package location

import (
	"errors"
	"fmt"

	"github.com/sells-group/rating-cli/internal/model"
	"github.com/sells-group/rating-cli/internal/region"
)

// CodeLength is the number of digits in a complete postal code.
const CodeLength = 6

// prefixLength is the number of leading digits that identify a region.
const prefixLength = 3

// Reason classifies a MismatchError.
type Reason string

const (
	ReasonLength        Reason = "length"
	ReasonUnknownRegion Reason = "unknown_region"
	ReasonPrefix        Reason = "prefix"
)

// MismatchError reports a postal code that is inconsistent with the
// claimed region. It is a validation result, not a failure of the resolver.
type MismatchError struct {
	Code   string `json:"code"`
	Region string `json:"region"`
	Reason Reason `json:"reason"`
}

func (e *MismatchError) Error() string {
	switch e.Reason {
	case ReasonLength:
		return fmt.Sprintf("PIN code %s must be %d digits", e.Code, CodeLength)
	case ReasonUnknownRegion:
		return fmt.Sprintf("PIN code %s: unknown region %q", e.Code, e.Region)
	default:
		return fmt.Sprintf("PIN code %s does not belong to %s", e.Code, e.Region)
	}
}

// IsMismatch reports whether err (or any error in its chain) is a
// MismatchError.
func IsMismatch(err error) bool {
	var me *MismatchError
	return errors.As(err, &me)
}

// Resolution is a region and sub-region derived from a postal code.
type Resolution struct {
	Region    string `json:"region"`
	SubRegion string `json:"sub_region,omitempty"`
}

// Resolver answers location questions against a region table. It holds no
// mutable state and is safe for concurrent use.
type Resolver struct {
	table *region.Table
}

// NewResolver creates a Resolver over t.
func NewResolver(t *region.Table) *Resolver {
	return &Resolver{table: t}
}

// Table returns the reference table the resolver reads.
func (r *Resolver) Table() *region.Table { return r.table }

// ResolvePrefix returns the region for the leading digits of a postal code.
// Only the first three digits are considered.
//
// With fewer than three digits the match must be unique: when several
// regions own a prefix starting with partial, nothing is returned. A full
// three-digit prefix shared by several regions resolves to the first of
// them in table order.
func (r *Resolver) ResolvePrefix(partial string) (string, bool) {
	if len(partial) > prefixLength {
		partial = partial[:prefixLength]
	}
	if partial == "" || !digitsOnly(partial) {
		return "", false
	}

	if len(partial) == prefixLength {
		owners := r.table.PrefixOwners(partial)
		if len(owners) == 0 {
			return "", false
		}
		return owners[0], true
	}

	matches := r.table.RegionsMatching(partial)
	if len(matches) != 1 {
		return "", false
	}
	return matches[0], true
}

// ResolveExact looks code up in the exact-code table. A miss means no
// auto-fill is available for the code; it is not an error.
func (r *Resolver) ResolveExact(code string) (Resolution, bool) {
	e, ok := r.table.Exact(code)
	if !ok {
		return Resolution{}, false
	}
	return Resolution{Region: e.Region, SubRegion: e.SubRegion}, true
}

// Resolve returns the best resolution available for a partial or complete
// code: the exact entry when there is one, otherwise the prefix region.
func (r *Resolver) Resolve(code string) (Resolution, bool) {
	if len(code) == CodeLength {
		if res, ok := r.ResolveExact(code); ok {
			return res, true
		}
	}
	name, ok := r.ResolvePrefix(code)
	if !ok {
		return Resolution{}, false
	}
	return Resolution{Region: name}, true
}

// Validate checks that code is a 6-digit postal code whose prefix belongs
// to regionName. The sub-region is not checked here; callers that offer a
// sub-region list already constrain it. A failure is always a
// *MismatchError.
func (r *Resolver) Validate(regionName, subRegion, code string) error {
	if len(code) != CodeLength || !digitsOnly(code) {
		return &MismatchError{Code: code, Region: regionName, Reason: ReasonLength}
	}
	if !r.table.HasRegion(regionName) {
		return &MismatchError{Code: code, Region: regionName, Reason: ReasonUnknownRegion}
	}
	if !r.table.HasPrefix(regionName, code[:prefixLength]) {
		return &MismatchError{Code: code, Region: regionName, Reason: ReasonPrefix}
	}
	return nil
}

// SubRegions returns the sub-regions selectable for regionName.
func (r *Resolver) SubRegions(regionName string) []string {
	return r.table.SubRegions(regionName)
}

// Check reports the location problems that block a quote: a postal code
// that does not fit the region, and a sub-region the region does not list.
// Missing fields are left to model.Readiness.
func (r *Resolver) Check(loc model.LocationProfile) []model.FieldError {
	if !loc.Complete() {
		return nil
	}

	var errs []model.FieldError
	if err := r.Validate(loc.Region, loc.SubRegion, loc.PostalCode); err != nil {
		field := "location.postal_code"
		var me *MismatchError
		if errors.As(err, &me) && me.Reason == ReasonUnknownRegion {
			field = "location.region"
		}
		errs = append(errs, model.FieldError{Field: field, Code: model.CodeMismatch, Message: err.Error()})
	}
	if r.table.HasRegion(loc.Region) && !r.table.HasSubRegion(loc.Region, loc.SubRegion) {
		errs = append(errs, model.FieldError{
			Field:   "location.sub_region",
			Code:    model.CodeInvalidValue,
			Message: fmt.Sprintf("%s is not a sub-region of %s", loc.SubRegion, loc.Region),
		})
	}
	return errs
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
