package catalog

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/proppant-cli/internal/model"
)

func TestDefault_Validates(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, []string{"Permian Basin", "Eagle Ford", "Haynesville", "Bakken", "Marcellus"}, c.BasinNames())
}

func TestDefault_ReturnsFreshCopy(t *testing.T) {
	a := Default()
	a.Basins[0].Name = "Mutated"
	b := Default()
	assert.Equal(t, "Permian Basin", b.Basins[0].Name)
}

func TestNameKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Midland", "MIDLAND"},
		{"  tom   green ", "TOM GREEN"},
		{"De Soto", "DE SOTO"},
		{"", ""},
		{"ＡＴＬＡＳ", "ATLAS"}, // full-width folds under NFKC
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NameKey(tt.in))
		})
	}
}

func TestValidate_AmbiguousBasinMembership(t *testing.T) {
	c := Default()
	c.Basins = append(c.Basins, Basin{
		Name:   "Midland Sub-basin",
		States: map[string][]string{"Texas": {"midland"}},
	})

	err := c.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrAmbiguousBasinMembership))
	assert.Contains(t, err.Error(), "Permian Basin")
}

func TestValidate_SameCountyNameDifferentStatesIsFine(t *testing.T) {
	// Harrison appears in Texas (Haynesville) and West Virginia (Marcellus).
	assert.NoError(t, Default().Validate())
}

func TestValidate_StructuralErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Catalogs)
		want   string
	}{
		{"no basins", func(c *Catalogs) { c.Basins = nil }, "no basins"},
		{"empty basin name", func(c *Catalogs) { c.Basins[0].Name = " " }, "empty name"},
		{"duplicate basin", func(c *Catalogs) { c.Basins[1].Name = c.Basins[0].Name }, "duplicate basin"},
		{"no keyword", func(c *Catalogs) { c.Entity.Keyword = "" }, "keyword"},
		{"no products", func(c *Catalogs) { c.Products.Approved = nil }, "approved product"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.True(t, errors.Is(err, model.ErrInvalidConfig))
		})
	}
}

func TestParse_MergesDefaults(t *testing.T) {
	data := []byte(`
catalog:
  basins:
    - name: DJ Basin
      states:
        Colorado: [Weld, Adams]
  entity:
    keyword: ACME
`)
	c, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, c.Basins, 1)
	assert.Equal(t, "DJ Basin", c.Basins[0].Name)
	assert.Equal(t, []string{"Weld", "Adams"}, c.Basins[0].States["Colorado"])
	assert.Equal(t, "ACME", c.Entity.Keyword)
	assert.Equal(t, Default().Entity.Patterns, c.Entity.Patterns)
	assert.Equal(t, Default().Products.Approved, c.Products.Approved)
}

func TestParse_RejectsAmbiguous(t *testing.T) {
	data := []byte(`
catalog:
  basins:
    - name: A
      states:
        Texas: [Reeves]
    - name: B
      states:
        TEXAS: [" reeves "]
`)
	_, err := Parse(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrAmbiguousBasinMembership))
}

func TestParse_BadYAML(t *testing.T) {
	_, err := Parse([]byte("catalog: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog: parse yaml")
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Len(t, c.Basins, 5)
}

func TestLoadFile_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Default().WriteYAML(&buf))

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog: read")
}
