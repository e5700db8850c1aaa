package mapping

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/corsair-io/corsair/pkg/config"
)

// Registry holds the loaded mapping set and resolves an input document to
// the mapping that should extract it.
type Registry struct {
	mappings []*Mapping
	generic  *Mapping
}

// LoadError records a single mapping file's load failure. A bad file never
// blocks the others (§4.1: "a parse error on one mapping does not block
// loading of the rest").
type LoadError struct {
	File string
	Err  error
}

func (e LoadError) Error() string {
	return fmt.Sprintf("mapping: %s: %v", e.File, e.Err)
}

// NewRegistry builds a Registry from cfg's mapping directories and files,
// always including the generic fallback mapping. Per-file load errors are
// returned alongside a Registry built from whatever files did load.
func NewRegistry(cfg *config.Config) (*Registry, []LoadError) {
	var files []string
	for _, dir := range cfg.MappingDirs {
		files = append(files, listMappingFiles(dir)...)
	}
	files = append(files, cfg.MappingFiles...)

	r := &Registry{generic: newGenericMapping()}
	var errs []LoadError
	for _, f := range files {
		m, err := loadMappingFile(f)
		if err != nil {
			errs = append(errs, LoadError{File: f, Err: err})
			continue
		}
		r.mappings = append(r.mappings, m)
	}
	r.sort()
	return r, errs
}

// NewRegistryFromMappings builds a Registry directly from already-decoded
// mappings, bypassing the filesystem. Useful for tests and for embedding a
// fixed mapping set.
func NewRegistryFromMappings(mappings []*Mapping) (*Registry, error) {
	r := &Registry{generic: newGenericMapping()}
	for _, m := range mappings {
		if err := validateMapping(m); err != nil {
			return nil, err
		}
		r.mappings = append(r.mappings, m)
	}
	r.sort()
	return r, nil
}

func listMappingFiles(dir string) []string {
	var out []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".json", ".yaml", ".yml":
			out = append(out, path)
		}
		return nil
	})
	return out
}

// LoadMappingFile reads, schema-validates, and semantically validates a
// single mapping definition from path. Exported for `corsair mappings
// validate` and `corsair mappings add`, which operate on one file at a
// time outside of a full Registry load.
func LoadMappingFile(path string) (*Mapping, error) {
	return loadMappingFile(path)
}

func loadMappingFile(path string) (*Mapping, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		raw, err = yamlToJSON(raw)
		if err != nil {
			return nil, err
		}
	}

	if err := ValidateSchema(raw); err != nil {
		return nil, err
	}
	var m Mapping
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	m.filename = filepath.Base(path)
	if err := validateMapping(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// yamlToJSON re-encodes a YAML mapping definition as JSON so the rest of
// the load path (schema validation, json.Unmarshal into Mapping) stays
// format-agnostic.
func yamlToJSON(raw []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("mapping: invalid yaml: %w", err)
	}
	return json.Marshal(v)
}

// sort orders mappings by descending priority, then ascending filename, so
// match resolution and any tie-break is deterministic and reproducible
// across process runs (the Ingestion Mapper's receipt must be stable).
func (r *Registry) sort() {
	sort.SliceStable(r.mappings, func(i, j int) bool {
		pi, pj := r.mappings[i].effectivePriority(), r.mappings[j].effectivePriority()
		if pi != pj {
			return pi > pj
		}
		return r.mappings[i].filename < r.mappings[j].filename
	})
}

// Resolve returns the first mapping (in descending-priority, then
// filename order) whose match predicates are satisfied by doc, falling
// through to the generic mapping when none match (§4.1).
func (r *Registry) Resolve(doc any) *Mapping {
	for _, m := range r.mappings {
		if m.matches(doc) {
			return m
		}
	}
	return r.generic
}

// Mappings returns the loaded non-generic mappings in resolution order.
func (r *Registry) Mappings() []*Mapping {
	out := make([]*Mapping, len(r.mappings))
	copy(out, r.mappings)
	return out
}
