package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileSchema is the top-level structure of a catalog YAML file:
//
//	services:
//	  - name: Cricket VIP Tips
//	    plans:
//	      - {label: Join Weekly, tier: VIP, url: https://...}
type fileSchema struct {
	Services []Service `yaml:"services"`
}

// LoadFile reads a YAML catalog. It is called once at startup.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var f fileSchema
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog yaml: %w", err)
	}

	return New(f.Services)
}
