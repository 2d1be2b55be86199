package terminal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"sales-deck-generator/internal/model"
)

// Prefill holds answers loaded from a YAML file. They become prompt defaults.
//
//	companyName: Acme
//	industry: Tech
//	logo: ./acme.png
type Prefill struct {
	model.FormFields `yaml:",inline"`
	Logo             string `yaml:"logo"`
}

func LoadPrefill(path string) (Prefill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Prefill{}, fmt.Errorf("failed to read prefill file: %w", err)
	}
	var p Prefill
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Prefill{}, fmt.Errorf("failed to parse prefill file %s: %w", path, err)
	}
	return p, nil
}
