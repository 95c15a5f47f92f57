package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML catalog. Sections left empty in the file keep the
// built-in seed values; roles are merged by name.
func LoadFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML catalog data on top of the seed.
func Parse(data []byte) (Catalog, error) {
	var file Catalog
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Catalog{}, fmt.Errorf("catalog: decode yaml: %w", err)
	}

	merged := Seed()
	if len(file.Models) > 0 {
		for _, m := range file.Models {
			if m.Label == "" {
				return Catalog{}, fmt.Errorf("catalog: model entry without label")
			}
		}
		merged.Models = file.Models
	}
	if len(file.Expertises) > 0 {
		merged.Expertises = file.Expertises
	}
	if len(file.Personalities) > 0 {
		merged.Personalities = file.Personalities
	}
	for _, spec := range file.Roles {
		if !spec.Role.Valid() {
			return Catalog{}, fmt.Errorf("catalog: unknown role %q", spec.Role)
		}
		replaced := false
		for i := range merged.Roles {
			if merged.Roles[i].Role == spec.Role {
				merged.Roles[i].Instructions = spec.Instructions
				replaced = true
			}
		}
		if !replaced {
			merged.Roles = append(merged.Roles, spec)
		}
	}
	return merged, nil
}

// Marshal renders a catalog as YAML.
func Marshal(c Catalog) ([]byte, error) {
	return yaml.Marshal(c)
}
