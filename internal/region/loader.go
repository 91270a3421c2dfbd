package region

import (
	"bytes"
	"context"
	_ "embed"
	"os"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed data/regions.yaml
var embeddedYAML []byte

// Source kinds accepted by NewSource.
const (
	SourceEmbedded = "embedded"
	SourceFile     = "file"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

// Source loads a reference Table from some backing store.
type Source interface {
	Load(ctx context.Context) (*Table, error)
}

// NewSource returns the Source for kind. path is used by the file source,
// dsn by the database sources.
func NewSource(kind, path, dsn string) (Source, error) {
	switch kind {
	case "", SourceEmbedded:
		return EmbeddedSource{}, nil
	case SourceFile:
		if path == "" {
			return nil, eris.New("region: file source requires a path")
		}
		return FileSource{Path: path}, nil
	case SourceSQLite:
		if dsn == "" {
			return nil, eris.New("region: sqlite source requires a dsn")
		}
		return &SQLiteSource{DSN: dsn}, nil
	case SourcePostgres:
		if dsn == "" {
			return nil, eris.New("region: postgres source requires a dsn")
		}
		return &PostgresSource{URL: dsn}, nil
	default:
		return nil, eris.Errorf("region: unknown source %q", kind)
	}
}

// Parse decodes a YAML reference document and builds a Table. Unknown keys
// are rejected.
func Parse(data []byte) (*Table, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var d Data
	if err := dec.Decode(&d); err != nil {
		return nil, eris.Wrap(err, "region: parse yaml")
	}
	return New(d)
}

// EmbeddedSource loads the reference data compiled into the binary.
type EmbeddedSource struct{}

// Load implements Source.
func (EmbeddedSource) Load(context.Context) (*Table, error) {
	return Embedded()
}

var (
	embeddedOnce  sync.Once
	embeddedTable *Table
	embeddedErr   error
)

// Embedded returns the process-wide table built from the embedded YAML.
// It is parsed once; later calls return the same table.
func Embedded() (*Table, error) {
	embeddedOnce.Do(func() {
		embeddedTable, embeddedErr = Parse(embeddedYAML)
		if embeddedErr == nil {
			s := embeddedTable.Stats()
			zap.L().Debug("region: embedded table loaded",
				zap.String("version", s.Version),
				zap.Int("regions", s.Regions),
				zap.Int("exact_codes", s.ExactCodes),
			)
		}
	})
	return embeddedTable, embeddedErr
}

// MustEmbedded is Embedded that panics on error. The embedded document is
// validated by tests, so this only fails on a broken build.
func MustEmbedded() *Table {
	t, err := Embedded()
	if err != nil {
		panic(err)
	}
	return t
}

// FileSource loads reference data from a YAML file on disk.
type FileSource struct {
	Path string
}

// Load implements Source.
func (s FileSource) Load(context.Context) (*Table, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "region: read file %s", s.Path)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "region: load %s", s.Path)
	}
	return t, nil
}
