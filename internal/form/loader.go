package form

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadSchemaFile reads a schema from a .json, .yaml or .yml file and checks
// its structure.
func LoadSchemaFile(path string) (Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, fmt.Errorf("read schema file: %w", err)
	}
	s, err := ParseSchema(b, filepath.Ext(path))
	if err != nil {
		return Schema{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := ValidateSchema(s); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// ParseSchema decodes b according to ext. Anything other than .json is read
// as YAML.
func ParseSchema(b []byte, ext string) (Schema, error) {
	var s Schema
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(b, &s); err != nil {
			return Schema{}, err
		}
		return s, nil
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// MarshalSchemaYAML renders s in the same layout LoadSchemaFile reads.
func MarshalSchemaYAML(s Schema) ([]byte, error) {
	return yaml.Marshal(s)
}
