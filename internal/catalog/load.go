package catalog

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadFile reads catalogs from a YAML file. Sections left empty in the
// file fall back to the built-in defaults. The result is validated.
func LoadFile(path string) (*Catalogs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}
	return Parse(data)
}

// Parse decodes YAML catalog data, merging with defaults, and validates it.
func Parse(data []byte) (*Catalogs, error) {
	// The file has a top-level "catalog" key.
	var wrapper struct {
		Catalog Catalogs `yaml:"catalog"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "catalog: parse yaml")
	}

	c := &wrapper.Catalog
	def := Default()
	if len(c.Basins) == 0 {
		c.Basins = def.Basins
	}
	if c.Entity.Keyword == "" {
		c.Entity.Keyword = def.Entity.Keyword
	}
	if c.Entity.Name == "" {
		c.Entity.Name = def.Entity.Name
	}
	if len(c.Entity.Patterns) == 0 {
		c.Entity.Patterns = def.Entity.Patterns
	}
	if len(c.Products.Approved) == 0 {
		c.Products.Approved = def.Products.Approved
	}
	if c.Products.Excluded == nil {
		c.Products.Excluded = def.Products.Excluded
	}
	if c.Products.ExcludedKeywords == nil {
		c.Products.ExcludedKeywords = def.Products.ExcludedKeywords
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load returns the catalogs at path, or the validated defaults when path is empty.
func Load(path string) (*Catalogs, error) {
	if path == "" {
		c := Default()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return c, nil
	}
	return LoadFile(path)
}

// WriteYAML encodes c in the same layout LoadFile reads.
func (c *Catalogs) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]*Catalogs{"catalog": c}); err != nil {
		return eris.Wrap(err, "catalog: encode yaml")
	}
	return eris.Wrap(enc.Close(), "catalog: close encoder")
}
