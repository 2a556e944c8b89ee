// Package catalog holds the static reference data used for classification:
// basin county membership, tracked-entity supplier names and product lists.
package catalog

import (
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/proppant-cli/internal/model"
)

// Catalogs bundles every reference table for one analysis run.
// Treat a loaded Catalogs as read-only.
type Catalogs struct {
	Basins   []Basin        `yaml:"basins" json:"basins"`
	Entity   EntityCatalog  `yaml:"entity" json:"entity"`
	Products ProductCatalog `yaml:"products" json:"products"`
}

// Basin is a named grouping of counties, keyed by state.
type Basin struct {
	Name   string              `yaml:"name" json:"name"`
	States map[string][]string `yaml:"states" json:"states"`
}

// EntityCatalog describes the tracked supplier.
type EntityCatalog struct {
	Name     string   `yaml:"name" json:"name"`
	Keyword  string   `yaml:"keyword" json:"keyword"`
	Patterns []string `yaml:"patterns" json:"patterns"`
}

// ProductCatalog lists products the tracked supplier is known to produce,
// plus exclusions applied by the heuristic policy.
type ProductCatalog struct {
	Approved         []string `yaml:"approved" json:"approved"`
	Excluded         []string `yaml:"excluded" json:"excluded"`
	ExcludedKeywords []string `yaml:"excluded_keywords" json:"excluded_keywords"`
}

// NameKey normalizes a geographic or company name for lookups: NFKC,
// upper case, trimmed, internal whitespace collapsed.
func NameKey(s string) string {
	// A Caser is stateful and must not be shared across goroutines.
	s = cases.Upper(language.Und).String(norm.NFKC.String(s))
	return strings.Join(strings.Fields(s), " ")
}

// BasinNames returns basin names in catalog order.
func (c *Catalogs) BasinNames() []string {
	names := make([]string, 0, len(c.Basins))
	for _, b := range c.Basins {
		names = append(names, b.Name)
	}
	return names
}

// Validate checks structural integrity. A county listed under two basins
// fails with model.ErrAmbiguousBasinMembership.
func (c *Catalogs) Validate() error {
	if len(c.Basins) == 0 {
		return eris.Wrap(model.ErrInvalidConfig, "catalog: no basins defined")
	}

	owner := make(map[string]string)
	seenBasin := make(map[string]bool, len(c.Basins))
	for _, b := range c.Basins {
		if strings.TrimSpace(b.Name) == "" {
			return eris.Wrap(model.ErrInvalidConfig, "catalog: basin with empty name")
		}
		if seenBasin[b.Name] {
			return eris.Wrapf(model.ErrInvalidConfig, "catalog: duplicate basin %q", b.Name)
		}
		seenBasin[b.Name] = true

		for state, counties := range b.States {
			for _, county := range counties {
				key := NameKey(state) + "|" + NameKey(county)
				if prev, ok := owner[key]; ok && prev != b.Name {
					return eris.Wrapf(model.ErrAmbiguousBasinMembership,
						"catalog: %s, %s listed in both %q and %q", county, state, prev, b.Name)
				}
				owner[key] = b.Name
			}
		}
	}

	if NameKey(c.Entity.Keyword) == "" {
		return eris.Wrap(model.ErrInvalidConfig, "catalog: entity keyword is required")
	}
	if len(c.Products.Approved) == 0 {
		return eris.Wrap(model.ErrInvalidConfig, "catalog: approved product list is empty")
	}
	return nil
}
