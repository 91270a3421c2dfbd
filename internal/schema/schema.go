// Package schema validates request documents against the embedded JSON
// Schema before they are decoded. Every object rejects unknown properties.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed rating.schema.json
var document []byte

// Document names, one per request body.
const (
	Profile          = "profile"
	Apply            = "apply"
	LocationValidate = "location_validate"
	LocationEntry    = "location_entry"
)

// Issue is one schema violation.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every violation found in a document.
type ValidationError struct {
	Schema string  `json:"schema"`
	Issues []Issue `json:"issues"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.Field + ": " + is.Message
	}
	return fmt.Sprintf("schema: %s: %s", e.Schema, strings.Join(parts, "; "))
}

// Validator holds the compiled schemas. It is safe for concurrent use.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// New compiles one schema per document name from the embedded file.
func New() (*Validator, error) {
	var root struct {
		Schema      string                     `json:"$schema"`
		Definitions map[string]json.RawMessage `json:"definitions"`
	}
	if err := json.Unmarshal(document, &root); err != nil {
		return nil, eris.Wrap(err, "schema: parse embedded document")
	}

	v := &Validator{schemas: make(map[string]*gojsonschema.Schema)}
	for _, name := range []string{Profile, Apply, LocationValidate, LocationEntry} {
		if _, ok := root.Definitions[name]; !ok {
			return nil, eris.Errorf("schema: definition %q missing", name)
		}
		wrapper := map[string]any{
			"$schema":     root.Schema,
			"definitions": root.Definitions,
			"allOf":       []any{map[string]any{"$ref": "#/definitions/" + name}},
		}
		s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(wrapper))
		if err != nil {
			return nil, eris.Wrapf(err, "schema: compile %s", name)
		}
		v.schemas[name] = s
	}
	return v, nil
}

// MustNew is New that panics on error. The embedded document is covered by
// tests, so this only fails on a broken build.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks doc against the named schema. A document that is not
// JSON is reported as an error; a document that violates the schema is
// reported as a *ValidationError.
func (v *Validator) Validate(name string, doc []byte) error {
	s, ok := v.schemas[name]
	if !ok {
		return eris.Errorf("schema: unknown document %q", name)
	}

	res, err := s.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return eris.Wrapf(err, "schema: read %s document", name)
	}
	if res.Valid() {
		return nil
	}

	verr := &ValidationError{Schema: name}
	for _, re := range res.Errors() {
		// The wrapper's allOf adds a summary error on top of the real ones.
		if re.Type() == "number_all_of" {
			continue
		}
		verr.Issues = append(verr.Issues, Issue{Field: re.Field(), Message: re.Description()})
	}
	sort.SliceStable(verr.Issues, func(i, j int) bool {
		return verr.Issues[i].Field < verr.Issues[j].Field
	})
	return verr
}
