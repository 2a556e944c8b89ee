package classify

import "strings"

// Product categories, most specific first.
const (
	Category4070        = "40/70 Mesh"
	Category100         = "100 Mesh"
	Category40140       = "40/140 Mesh"
	CategoryUnspecified = "Sand (Unspecified)"
	CategoryOther       = "Other Regional Sand"
)

// ProductCategory buckets a trade name into a mesh-size category.
// Rules are evaluated in order; the first hit wins.
func ProductCategory(product string) string {
	n := NormalizeProduct(product)
	switch {
	case strings.Contains(n, "40/70"):
		return Category4070
	case strings.Contains(n, "100"):
		return Category100
	case strings.Contains(n, "40/140"):
		return Category40140
	case strings.Contains(n, "SAND") && !strings.Contains(n, "MESH"):
		return CategoryUnspecified
	default:
		return CategoryOther
	}
}
