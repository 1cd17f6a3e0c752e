package fields

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultCatalogYAML []byte

type fieldSpec struct {
	Name     string   `yaml:"name"`
	Synonyms []string `yaml:"synonyms"`
}

type tableSpec struct {
	Name   string      `yaml:"name"`
	Fields []fieldSpec `yaml:"fields"`
}

type catalogSpec struct {
	Tables []tableSpec `yaml:"tables"`
}

type registryFile struct {
	Catalogs struct {
		Tenant catalogSpec `yaml:"tenant"`
		Admin  catalogSpec `yaml:"admin"`
	} `yaml:"catalogs"`
}

// Load builds the registry from a YAML definition file, falling back to the
// embedded defaults when path is empty.
func Load(path string) (*Registry, error) {
	data := defaultCatalogYAML
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog file %q: %w", path, err)
		}
		data = fileData
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}

	tenant, err := buildCatalog(file.Catalogs.Tenant)
	if err != nil {
		return nil, fmt.Errorf("tenant catalog: %w", err)
	}
	admin, err := buildCatalog(file.Catalogs.Admin)
	if err != nil {
		return nil, fmt.Errorf("admin catalog: %w", err)
	}
	if len(tenant.Tables) == 0 {
		return nil, fmt.Errorf("tenant catalog must define at least one table")
	}
	return NewRegistry(tenant, admin), nil
}

func buildCatalog(spec catalogSpec) (Catalog, error) {
	catalog := Catalog{Tables: make([]Table, 0, len(spec.Tables))}
	for _, table := range spec.Tables {
		if table.Name == "" {
			return Catalog{}, fmt.Errorf("table name is required")
		}
		built := Table{Name: table.Name, Fields: make([]Field, 0, len(table.Fields))}
		for _, field := range table.Fields {
			if field.Name == "" {
				return Catalog{}, fmt.Errorf("field name is required in table %q", table.Name)
			}
			built.Fields = append(built.Fields, Field{Name: field.Name, Synonyms: field.Synonyms})
		}
		catalog.Tables = append(catalog.Tables, built)
	}
	return catalog, nil
}
