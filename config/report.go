package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/spektr-org/reportcube/report"
)

// LoadReport loads and validates a report definition from a YAML file.
func LoadReport(path string) (*report.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report config: %w", err)
	}

	def, err := ParseReport(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// SourcePath returns the data file of def, resolving a relative source
// against the directory of the report file at reportPath.
func SourcePath(def *report.Definition, reportPath string) string {
	if def.Source == "" || filepath.IsAbs(def.Source) {
		return def.Source
	}
	return filepath.Join(filepath.Dir(reportPath), def.Source)
}

// ParseReport decodes and validates a YAML report definition.
func ParseReport(data []byte) (*report.Definition, error) {
	var def report.Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse report YAML: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// SaveReport writes a report definition, including persisted pivot column
// orders, back to YAML.
func SaveReport(def *report.Definition, path string) error {
	data, err := yaml.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal report config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report config: %w", err)
	}

	return nil
}
