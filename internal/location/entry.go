package location

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rating-cli/internal/model"
)

// Stage is the progress of postal-code entry.
type Stage int

const (
	StageEmpty Stage = iota
	StagePrefix      // 1-3 digits
	StagePartial     // 4-5 digits
	StageComplete    // 6 digits
)

// StageOf returns the entry stage for a sanitised code.
func StageOf(code string) Stage {
	switch n := len(code); {
	case n == 0:
		return StageEmpty
	case n <= prefixLength:
		return StagePrefix
	case n < CodeLength:
		return StagePartial
	default:
		return StageComplete
	}
}

func (s Stage) String() string {
	switch s {
	case StageEmpty:
		return "empty"
	case StagePrefix:
		return "prefix"
	case StagePartial:
		return "partial"
	case StageComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// MarshalText encodes the stage by name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a stage name written by MarshalText.
func (s *Stage) UnmarshalText(b []byte) error {
	for _, st := range []Stage{StageEmpty, StagePrefix, StagePartial, StageComplete} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return eris.Errorf("location: unknown stage %q", b)
}

// Fill sources reported by AutoFill.
const (
	FillPrefix = "prefix"
	FillExact  = "exact"
)

// AutoFill describes what an EnterCode call adopted. A zero value means
// nothing was adopted.
type AutoFill struct {
	Source    string `json:"source,omitempty"`
	Region    string `json:"region,omitempty"`
	SubRegion string `json:"sub_region,omitempty"`
}

// Entry tracks a location while a postal code is typed in. Resolved values
// are adopted as the code grows but are never retracted when it shrinks;
// the caller can always override them with SelectRegion or
// SelectSubRegion. An Entry is not safe for concurrent use.
type Entry struct {
	resolver *Resolver
	loc      model.LocationProfile
}

// NewEntry starts an entry from an existing location.
func (r *Resolver) NewEntry(loc model.LocationProfile) *Entry {
	return &Entry{resolver: r, loc: loc}
}

// SelectRegion sets the region manually. The sub-region and postal code
// depend on it and are cleared.
func (e *Entry) SelectRegion(name string) {
	e.loc = model.LocationProfile{Region: name}
}

// SelectSubRegion sets the sub-region manually.
func (e *Entry) SelectSubRegion(name string) {
	e.loc.SubRegion = name
}

// EnterCode replaces the postal code with raw, keeping only its first six
// digits, and applies any auto-fill the new code allows:
//
//   - three or more digits with no region chosen adopt the prefix region
//     and clear the sub-region;
//   - six digits with an exact-code entry adopt its region and sub-region;
//   - six digits without one adopt the prefix region, and clear the
//     sub-region, only when no region is chosen yet.
func (e *Entry) EnterCode(raw string) AutoFill {
	code := Sanitize(raw)
	e.loc.PostalCode = code

	var fill AutoFill
	switch {
	case len(code) == CodeLength:
		if res, ok := e.resolver.ResolveExact(code); ok {
			e.loc.Region, e.loc.SubRegion = res.Region, res.SubRegion
			return AutoFill{Source: FillExact, Region: res.Region, SubRegion: res.SubRegion}
		}
		fill = e.adoptPrefix(code)
	case len(code) >= prefixLength:
		fill = e.adoptPrefix(code)
	}
	return fill
}

func (e *Entry) adoptPrefix(code string) AutoFill {
	if e.loc.Region != "" {
		return AutoFill{}
	}
	name, ok := e.resolver.ResolvePrefix(code[:prefixLength])
	if !ok {
		return AutoFill{}
	}
	e.loc.Region, e.loc.SubRegion = name, ""
	return AutoFill{Source: FillPrefix, Region: name}
}

// Stage returns the current entry stage.
func (e *Entry) Stage() Stage { return StageOf(e.loc.PostalCode) }

// Profile returns the current location.
func (e *Entry) Profile() model.LocationProfile { return e.loc }

// Problem returns the inline validation failure for the current state, if
// any. It is only reported once the code is complete and a region is set.
func (e *Entry) Problem() error {
	if e.Stage() != StageComplete || e.loc.Region == "" {
		return nil
	}
	return e.resolver.Validate(e.loc.Region, e.loc.SubRegion, e.loc.PostalCode)
}

// Sanitize strips non-digits from raw and truncates it to six digits.
func Sanitize(raw string) string {
	var b strings.Builder
	for _, c := range raw {
		if c < '0' || c > '9' {
			continue
		}
		b.WriteRune(c)
		if b.Len() == CodeLength {
			break
		}
	}
	return b.String()
}
