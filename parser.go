package estester

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	mappingFile  = "_mapping.json"
	settingsFile = "_settings.json"

	docTypeField = "_type"
	docIDField   = "_id"
)

// ParseFixtureDir builds a FixtureSet from a directory tree. Each
// subdirectory declares one index: _mapping.json and _settings.json are
// optional schema blobs forwarded verbatim, and every *.yml / *.yaml file
// not starting with "_" holds a list of documents. Each document carries
// its type and id in the _type and _id fields; both are required.
func ParseFixtureDir(dir string) (FixtureSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("estester: reading fixtures directory %q: %w", dir, err)
	}

	set := make(FixtureSet)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		cfg, err := parseIndexDir(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("estester: parsing index %q: %w", entry.Name(), err)
		}
		set[entry.Name()] = cfg
	}

	if len(set) == 0 {
		return nil, fmt.Errorf("estester: no index directories found in %q", dir)
	}

	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("estester: %w", err)
	}

	return set, nil
}

// parseIndexDir parses one index directory containing schema and document
// files.
func parseIndexDir(dir string) (IndexConfig, error) {
	var cfg IndexConfig

	mappings, err := readJSONFile(filepath.Join(dir, mappingFile))
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("reading %s: %w", mappingFile, err)
	}
	cfg.Mappings = mappings

	settings, err := readJSONFile(filepath.Join(dir, settingsFile))
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("reading %s: %w", settingsFile, err)
	}
	cfg.Settings = settings

	docs, err := parseDocumentFiles(dir)
	if err != nil {
		return cfg, err
	}
	cfg.Fixtures = docs

	return cfg, nil
}

// readJSONFile reads a JSON file and returns its content as
// json.RawMessage. Returns nil, nil if the file does not exist.
func readJSONFile(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid JSON in %q", path)
	}

	return json.RawMessage(data), nil
}

// parseDocumentFiles finds and parses all YAML document files in the
// directory. Document files are *.yml / *.yaml files that do not start
// with "_".
func parseDocumentFiles(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %q: %w", dir, err)
	}

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yml") && !strings.HasSuffix(name, ".yaml") {
			continue
		}
		if strings.HasPrefix(name, "_") {
			continue
		}

		fileDocs, err := parseYAMLDocuments(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("parsing document file %q: %w", name, err)
		}
		docs = append(docs, fileDocs...)
	}

	return docs, nil
}

// parseYAMLDocuments parses a YAML file containing a list of documents.
// The _type and _id fields are promoted out of the body.
func parseYAMLDocuments(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var rawDocs []map[string]any
	if err := yaml.Unmarshal(data, &rawDocs); err != nil {
		return nil, fmt.Errorf("unmarshaling YAML: %w", err)
	}

	docs := make([]Document, 0, len(rawDocs))
	for _, raw := range rawDocs {
		doc := Document{Body: raw}

		if v, ok := raw[docTypeField]; ok {
			doc.Type = fmt.Sprintf("%v", v)
			delete(raw, docTypeField)
		}
		if v, ok := raw[docIDField]; ok {
			doc.ID = fmt.Sprintf("%v", v)
			delete(raw, docIDField)
		}

		docs = append(docs, doc)
	}

	return docs, nil
}
