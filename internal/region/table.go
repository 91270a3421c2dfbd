// Package region holds the postal reference data: which 3-digit postal
// prefixes and sub-regions belong to each region, plus a sparse table of
// exact 6-digit codes for dense metropolitan ranges.
//
// A Table is immutable once built and safe for concurrent readers.
package region

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Region is one region's prefixes and sub-regions as stored in the source.
type Region struct {
	Name       string   `yaml:"name" json:"name"`
	Prefixes   []string `yaml:"prefixes" json:"prefixes"`
	SubRegions []string `yaml:"sub_regions" json:"sub_regions"`
}

// ExactGroup maps a run of exact postal codes to one sub-region.
type ExactGroup struct {
	SubRegion string   `yaml:"sub_region" json:"sub_region"`
	Codes     []string `yaml:"codes" json:"codes"`
}

// Data is the raw, source-format-independent reference document.
type Data struct {
	Version    string       `yaml:"version" json:"version"`
	Regions    []Region     `yaml:"regions" json:"regions"`
	ExactCodes []ExactGroup `yaml:"exact_codes" json:"exact_codes"`
}

// Exact is a resolved exact-code entry.
type Exact struct {
	Code      string `json:"code"`
	Region    string `json:"region"`
	SubRegion string `json:"sub_region"`
}

// Stats summarises table size.
type Stats struct {
	Version    string `json:"version"`
	Regions    int    `json:"regions"`
	Prefixes   int    `json:"prefixes"`
	SubRegions int    `json:"sub_regions"`
	ExactCodes int    `json:"exact_codes"`
}

// Table is the validated, indexed form of Data. Region order is the order
// of the source document and is used to break prefix collisions.
type Table struct {
	version  string
	regions  []Region
	byName   map[string]int
	prefixes []map[string]bool // parallel to regions
	subs     []map[string]bool // parallel to regions
	owners   map[string][]string
	exact    map[string]Exact
	groups   []ExactGroup
}

// New validates d and builds a Table. The input is copied.
func New(d Data) (*Table, error) {
	if strings.TrimSpace(d.Version) == "" {
		return nil, eris.New("region: table version is required")
	}
	if len(d.Regions) == 0 {
		return nil, eris.New("region: table has no regions")
	}

	t := &Table{
		version:  d.Version,
		regions:  make([]Region, 0, len(d.Regions)),
		byName:   make(map[string]int, len(d.Regions)),
		prefixes: make([]map[string]bool, 0, len(d.Regions)),
		subs:     make([]map[string]bool, 0, len(d.Regions)),
		owners:   make(map[string][]string),
		exact:    make(map[string]Exact),
	}

	for _, r := range d.Regions {
		if r.Name == "" {
			return nil, eris.New("region: region with empty name")
		}
		if _, dup := t.byName[r.Name]; dup {
			return nil, eris.Errorf("region: duplicate region %q", r.Name)
		}
		if len(r.Prefixes) == 0 {
			return nil, eris.Errorf("region: %s has no postal prefixes", r.Name)
		}

		ps := make(map[string]bool, len(r.Prefixes))
		for _, p := range r.Prefixes {
			if !isDigits(p, 3) {
				return nil, eris.Errorf("region: %s: prefix %q is not 3 digits", r.Name, p)
			}
			if ps[p] {
				return nil, eris.Errorf("region: %s: duplicate prefix %s", r.Name, p)
			}
			ps[p] = true
			t.owners[p] = append(t.owners[p], r.Name)
		}

		ss := make(map[string]bool, len(r.SubRegions))
		for _, s := range r.SubRegions {
			if s == "" {
				return nil, eris.Errorf("region: %s: empty sub-region", r.Name)
			}
			if ss[s] {
				return nil, eris.Errorf("region: %s: duplicate sub-region %q", r.Name, s)
			}
			ss[s] = true
		}

		t.byName[r.Name] = len(t.regions)
		t.regions = append(t.regions, Region{
			Name:       r.Name,
			Prefixes:   append([]string(nil), r.Prefixes...),
			SubRegions: append([]string(nil), r.SubRegions...),
		})
		t.prefixes = append(t.prefixes, ps)
		t.subs = append(t.subs, ss)
	}

	for _, g := range d.ExactCodes {
		if g.SubRegion == "" {
			return nil, eris.New("region: exact code group with empty sub-region")
		}
		for _, code := range g.Codes {
			if !isDigits(code, 6) {
				return nil, eris.Errorf("region: exact code %q is not 6 digits", code)
			}
			if _, dup := t.exact[code]; dup {
				return nil, eris.Errorf("region: duplicate exact code %s", code)
			}
			owner, ok := t.ownerOf(code[:3], g.SubRegion)
			if !ok {
				return nil, eris.Errorf("region: exact code %s: no region owns both prefix %s and sub-region %q", code, code[:3], g.SubRegion)
			}
			t.exact[code] = Exact{Code: code, Region: owner, SubRegion: g.SubRegion}
		}
		t.groups = append(t.groups, ExactGroup{SubRegion: g.SubRegion, Codes: append([]string(nil), g.Codes...)})
	}

	return t, nil
}

// ownerOf returns the first region, in table order, that lists both the
// prefix and the sub-region.
func (t *Table) ownerOf(prefix, sub string) (string, bool) {
	for _, name := range t.owners[prefix] {
		if t.subs[t.byName[name]][sub] {
			return name, true
		}
	}
	return "", false
}

// Version returns the reference data version.
func (t *Table) Version() string { return t.version }

// Names returns region names in table order.
func (t *Table) Names() []string {
	out := make([]string, len(t.regions))
	for i, r := range t.regions {
		out[i] = r.Name
	}
	return out
}

// Region returns a copy of the named region.
func (t *Table) Region(name string) (Region, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Region{}, false
	}
	r := t.regions[i]
	return Region{
		Name:       r.Name,
		Prefixes:   append([]string(nil), r.Prefixes...),
		SubRegions: append([]string(nil), r.SubRegions...),
	}, true
}

// HasRegion reports whether name is a known region.
func (t *Table) HasRegion(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// HasPrefix reports whether prefix belongs to the named region.
func (t *Table) HasPrefix(region, prefix string) bool {
	i, ok := t.byName[region]
	return ok && t.prefixes[i][prefix]
}

// SubRegions returns the named region's sub-regions in order, or nil.
func (t *Table) SubRegions(region string) []string {
	i, ok := t.byName[region]
	if !ok {
		return nil
	}
	return append([]string(nil), t.regions[i].SubRegions...)
}

// HasSubRegion reports whether sub is listed under region.
func (t *Table) HasSubRegion(region, sub string) bool {
	i, ok := t.byName[region]
	return ok && t.subs[i][sub]
}

// PrefixOwners returns the regions that list the exact 3-digit prefix, in
// table order. More than one entry means the prefix collides.
func (t *Table) PrefixOwners(prefix string) []string {
	return append([]string(nil), t.owners[prefix]...)
}

// RegionsMatching returns, in table order, the regions with at least one
// prefix that starts with partial.
func (t *Table) RegionsMatching(partial string) []string {
	var out []string
	for i, r := range t.regions {
		for p := range t.prefixes[i] {
			if strings.HasPrefix(p, partial) {
				out = append(out, r.Name)
				break
			}
		}
	}
	return out
}

// Exact looks up a full 6-digit code in the sparse exact-code table.
func (t *Table) Exact(code string) (Exact, bool) {
	e, ok := t.exact[code]
	return e, ok
}

// Data returns a copy of the table in its raw document form.
func (t *Table) Data() Data {
	d := Data{Version: t.version}
	for _, name := range t.Names() {
		r, _ := t.Region(name)
		d.Regions = append(d.Regions, r)
	}
	for _, g := range t.groups {
		d.ExactCodes = append(d.ExactCodes, ExactGroup{SubRegion: g.SubRegion, Codes: append([]string(nil), g.Codes...)})
	}
	return d
}

// Stats returns size counters for the table.
func (t *Table) Stats() Stats {
	s := Stats{Version: t.version, Regions: len(t.regions), ExactCodes: len(t.exact)}
	for _, r := range t.regions {
		s.Prefixes += len(r.Prefixes)
		s.SubRegions += len(r.SubRegions)
	}
	return s
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
