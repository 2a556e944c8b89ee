package classify

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/proppant-cli/internal/catalog"
	"github.com/sells-group/proppant-cli/internal/model"
)

// SupplierPolicy selects how strictly supplier names are matched.
type SupplierPolicy string

const (
	// SupplierPermissive matches the bare entity keyword anywhere in the
	// name, in addition to every curated pattern.
	SupplierPermissive SupplierPolicy = "permissive"
	// SupplierExactPattern matches only curated entity-name variants.
	SupplierExactPattern SupplierPolicy = "exact_pattern"
)

// ProductPolicy selects how product names are matched.
type ProductPolicy string

const (
	// ProductExact requires the normalized name to equal a catalog entry.
	ProductExact ProductPolicy = "exact"
	// ProductHeuristic rejects excluded patterns first, then accepts any
	// name containing an approved entry.
	ProductHeuristic ProductPolicy = "heuristic"
)

// ParseSupplierPolicy validates a configured supplier policy name.
func ParseSupplierPolicy(s string) (SupplierPolicy, error) {
	switch p := SupplierPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case SupplierPermissive, SupplierExactPattern:
		return p, nil
	}
	return "", eris.Wrapf(model.ErrInvalidConfig, "classify: unknown supplier policy %q", s)
}

// ParseProductPolicy validates a configured product policy name.
func ParseProductPolicy(s string) (ProductPolicy, error) {
	switch p := ProductPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case ProductExact, ProductHeuristic:
		return p, nil
	}
	return "", eris.Wrapf(model.ErrInvalidConfig, "classify: unknown product policy %q", s)
}

// corporateSuffixes are trailing tokens dropped from supplier names.
// CO and COMPANY are kept: curated patterns depend on them.
var corporateSuffixes = map[string]bool{
	"LLC":          true,
	"INC":          true,
	"INCORPORATED": true,
	"CORP":         true,
	"CORPORATION":  true,
	"LTD":          true,
	"LP":           true,
	"LLP":          true,
}

var punctuation = strings.NewReplacer(",", "", ".", "")

// NormalizeSupplier upper-cases, trims, strips punctuation and trailing
// corporate suffixes. "Atlas Sand Company, L.L.C." -> "ATLAS SAND COMPANY".
func NormalizeSupplier(name string) string {
	fields := strings.Fields(punctuation.Replace(catalog.NameKey(name)))
	for len(fields) > 0 && corporateSuffixes[fields[len(fields)-1]] {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

var productWrappers = strings.NewReplacer("SAND (", "", ")", "", "SAND - ", "")

// NormalizeProduct upper-cases, trims and drops the "SAND (...)" and
// "SAND - " wrappers disclosures put around mesh sizes.
func NormalizeProduct(name string) string {
	return strings.Join(strings.Fields(productWrappers.Replace(catalog.NameKey(name))), " ")
}

// Decision is the entity classification of one proppant line.
type Decision struct {
	IsTrackedEntity   bool `json:"is_tracked_entity"`
	IsApprovedProduct bool `json:"is_approved_product"`
	Include           bool `json:"include"`
}

// EntityClassifier decides tracked-entity membership for supplier/product
// pairs. It is immutable after construction and safe for concurrent use.
type EntityClassifier struct {
	supplierPolicy SupplierPolicy
	productPolicy  ProductPolicy

	keyword  string
	patterns []string

	approvedSet  map[string]bool
	approvedList []string
	excluded     []string
}

// NewEntityClassifier normalizes the catalogs once so that both sides of
// every comparison pass through the same normalizer.
func NewEntityClassifier(entity catalog.EntityCatalog, products catalog.ProductCatalog, sp SupplierPolicy, pp ProductPolicy) *EntityClassifier {
	ec := &EntityClassifier{
		supplierPolicy: sp,
		productPolicy:  pp,
		keyword:        NormalizeSupplier(entity.Keyword),
		approvedSet:    make(map[string]bool, len(products.Approved)),
	}
	for _, p := range entity.Patterns {
		if n := NormalizeSupplier(p); n != "" {
			ec.patterns = append(ec.patterns, n)
		}
	}
	for _, p := range products.Approved {
		n := NormalizeProduct(p)
		if n == "" || ec.approvedSet[n] {
			continue
		}
		ec.approvedSet[n] = true
		ec.approvedList = append(ec.approvedList, n)
	}
	for _, p := range products.Excluded {
		if n := NormalizeProduct(p); n != "" {
			ec.excluded = append(ec.excluded, n)
		}
	}
	for _, k := range products.ExcludedKeywords {
		if n := NormalizeProduct(k); n != "" {
			ec.excluded = append(ec.excluded, n)
		}
	}
	return ec
}

// SupplierPolicy returns the active supplier policy.
func (ec *EntityClassifier) SupplierPolicy() SupplierPolicy { return ec.supplierPolicy }

// ProductPolicy returns the active product policy.
func (ec *EntityClassifier) ProductPolicy() ProductPolicy { return ec.productPolicy }

// IsTrackedSupplier applies the supplier predicate. Missing names never match.
func (ec *EntityClassifier) IsTrackedSupplier(name string) bool {
	n := NormalizeSupplier(name)
	if n == "" {
		return false
	}
	if ec.supplierPolicy == SupplierExactPattern {
		return matchPatterns(n, ec.patterns)
	}
	return matchPermissive(n, ec.keyword, ec.patterns)
}

// IsApprovedProduct applies the product predicate. Missing names never match.
func (ec *EntityClassifier) IsApprovedProduct(name string) bool {
	n := NormalizeProduct(name)
	if n == "" {
		return false
	}
	if ec.productPolicy == ProductHeuristic {
		return matchProductHeuristic(n, ec.approvedList, ec.excluded)
	}
	return ec.approvedSet[n]
}

// Classify combines both predicates.
func (ec *EntityClassifier) Classify(supplier, product string) Decision {
	d := Decision{
		IsTrackedEntity:   ec.IsTrackedSupplier(supplier),
		IsApprovedProduct: ec.IsApprovedProduct(product),
	}
	d.Include = d.IsTrackedEntity && d.IsApprovedProduct
	return d
}

func matchPatterns(name string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

func matchPermissive(name, keyword string, patterns []string) bool {
	if keyword != "" && strings.Contains(name, keyword) {
		return true
	}
	return matchPatterns(name, patterns)
}

// matchProductHeuristic checks exclusions first; any hit short-circuits.
func matchProductHeuristic(name string, approved, excluded []string) bool {
	for _, x := range excluded {
		if strings.Contains(name, x) {
			return false
		}
	}
	for _, a := range approved {
		if strings.Contains(name, a) {
			return true
		}
	}
	return false
}
