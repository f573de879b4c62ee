package labels

import (
	_ "embed"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var tablesYAML []byte

// Catalog holds every status domain's table, loaded once at process start.
type Catalog map[string]Table

// Load parses the embedded tables and validates every variant tag against
// the closed set. Label tables are static configuration: a bad table is a
// build problem, so Load failing is fatal to startup.
func Load() (Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(tablesYAML, &catalog); err != nil {
		return nil, fmt.Errorf("parse label tables: %w", err)
	}

	if err := validate(catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// Domain returns the table for one status domain.
func (c Catalog) Domain(name string) (Table, bool) {
	table, found := c[name]
	return table, found
}

// variantTags is the closed set of visual variants badges understand.
const variantTags = "primary secondary success warning danger info"

func validate(catalog Catalog) error {
	v := validator.New()
	for domainName, table := range catalog {
		for status, e := range table {
			tags := make([]string, 0, len(e.Variants)+1)
			for _, t := range e.Variants {
				tags = append(tags, t)
			}
			if e.Variant != "" {
				tags = append(tags, e.Variant)
			}
			for _, t := range tags {
				if err := v.Var(t, "oneof="+variantTags); err != nil {
					return fmt.Errorf("label table %s/%s: invalid variant %q", domainName, status, t)
				}
			}
		}
	}
	return nil
}
