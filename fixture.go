package estester

import "encoding/json"

// Document represents a single Elasticsearch document to be indexed as
// fixture data.
type Document struct {
	Type string         // Document type tag (required)
	ID   string         // Unique identifier within the index (required)
	Body map[string]any // Document fields, passed to the backend verbatim
}

// Validate reports a ConfigurationError if a required field is missing.
// index is only used to annotate the error.
func (d Document) Validate(index string) error {
	switch {
	case d.Type == "":
		return &ConfigurationError{Index: index, Reason: "document is missing type"}
	case d.ID == "":
		return &ConfigurationError{Index: index, Reason: "document is missing id"}
	case d.Body == nil:
		return &ConfigurationError{Index: index, Reason: "document " + d.ID + " has no body"}
	}
	return nil
}

// IndexConfig declares one index: its schema and the fixture documents to
// load into it. Settings and Mappings are forwarded to the backend without
// interpretation; either may be nil.
type IndexConfig struct {
	Settings json.RawMessage // Analyzer definitions etc. (may be nil)
	Mappings json.RawMessage // Field type definitions (may be nil)
	Fixtures []Document      // Loaded in order
}

// Validate checks every fixture document of the index.
func (c IndexConfig) Validate(index string) error {
	if index == "" {
		return &ConfigurationError{Reason: "index name must not be empty"}
	}
	for _, doc := range c.Fixtures {
		if err := doc.Validate(index); err != nil {
			return err
		}
	}
	return nil
}

// FixtureSet maps index names to their configuration. Each index is managed
// independently; key order carries no meaning.
type FixtureSet map[string]IndexConfig

// Validate checks every index declaration in the set.
func (s FixtureSet) Validate() error {
	for name, cfg := range s {
		if err := cfg.Validate(name); err != nil {
			return err
		}
	}
	return nil
}
