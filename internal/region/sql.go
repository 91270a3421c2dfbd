package region

import (
	"github.com/rotisserie/eris"
)

// schemaDDL creates the reference tables. The statements are portable
// between SQLite and Postgres.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS region_meta (
	version TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS regions (
	position INTEGER NOT NULL,
	name     TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS region_prefixes (
	region   TEXT NOT NULL REFERENCES regions(name),
	position INTEGER NOT NULL,
	prefix   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS region_sub_regions (
	region     TEXT NOT NULL REFERENCES regions(name),
	position   INTEGER NOT NULL,
	sub_region TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS exact_codes (
	code       TEXT PRIMARY KEY,
	grp        INTEGER NOT NULL,
	position   INTEGER NOT NULL,
	sub_region TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_region_prefixes_prefix ON region_prefixes(prefix);
`

const (
	selectVersion    = `SELECT version FROM region_meta LIMIT 1`
	selectRegions    = `SELECT name FROM regions ORDER BY position`
	selectPrefixes   = `SELECT region, prefix FROM region_prefixes ORDER BY region, position`
	selectSubRegions = `SELECT region, sub_region FROM region_sub_regions ORDER BY region, position`
	selectExactCodes = `SELECT grp, sub_region, code FROM exact_codes ORDER BY grp, position`
)

// Child tables first so foreign keys never dangle mid-reseed.
var seedTables = []string{"exact_codes", "region_sub_regions", "region_prefixes", "regions", "region_meta"}

var (
	regionColumns    = []string{"position", "name"}
	prefixColumns    = []string{"region", "position", "prefix"}
	subRegionColumns = []string{"region", "position", "sub_region"}
	exactColumns     = []string{"code", "grp", "position", "sub_region"}
)

// pair is a (region, value) row from the prefix or sub-region tables.
type pair struct {
	region string
	value  string
}

type exactRow struct {
	group     int
	subRegion string
	code      string
}

// rawRows is what a SQL source reads before the Table is assembled.
type rawRows struct {
	version    string
	names      []string
	prefixes   []pair
	subRegions []pair
	exact      []exactRow
}

// build assembles the rows into Data and validates it through New.
func (r rawRows) build() (*Table, error) {
	if len(r.names) == 0 {
		return nil, eris.New("region: database holds no regions, run `regions seed` first")
	}

	d := Data{Version: r.version, Regions: make([]Region, len(r.names))}
	idx := make(map[string]int, len(r.names))
	for i, name := range r.names {
		d.Regions[i].Name = name
		idx[name] = i
	}
	for _, p := range r.prefixes {
		i, ok := idx[p.region]
		if !ok {
			return nil, eris.Errorf("region: prefix %s references unknown region %q", p.value, p.region)
		}
		d.Regions[i].Prefixes = append(d.Regions[i].Prefixes, p.value)
	}
	for _, s := range r.subRegions {
		i, ok := idx[s.region]
		if !ok {
			return nil, eris.Errorf("region: sub-region %q references unknown region %q", s.value, s.region)
		}
		d.Regions[i].SubRegions = append(d.Regions[i].SubRegions, s.value)
	}

	last := -1
	for _, e := range r.exact {
		if e.group != last {
			d.ExactCodes = append(d.ExactCodes, ExactGroup{SubRegion: e.subRegion})
			last = e.group
		}
		g := &d.ExactCodes[len(d.ExactCodes)-1]
		g.Codes = append(g.Codes, e.code)
	}

	return New(d)
}

// seedRows flattens a table into insert rows, one slice per SQL table.
type seedRows struct {
	regions    [][]any
	prefixes   [][]any
	subRegions [][]any
	exact      [][]any
}

func rowsFor(t *Table) seedRows {
	var out seedRows
	d := t.Data()
	for i, r := range d.Regions {
		out.regions = append(out.regions, []any{i, r.Name})
		for j, p := range r.Prefixes {
			out.prefixes = append(out.prefixes, []any{r.Name, j, p})
		}
		for j, s := range r.SubRegions {
			out.subRegions = append(out.subRegions, []any{r.Name, j, s})
		}
	}
	for g, grp := range d.ExactCodes {
		for j, code := range grp.Codes {
			out.exact = append(out.exact, []any{code, g, j, grp.SubRegion})
		}
	}
	return out
}
