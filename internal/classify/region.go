// Package classify assigns jobs to basins and decides whether a proppant
// line belongs to the tracked supplier's product set.
package classify

import (
	"github.com/sells-group/proppant-cli/internal/catalog"
)

// BasinOther is returned for any location outside the catalog.
const BasinOther = "Other"

// RegionClassifier maps (state, county) to a basin name.
// Matching is normalized: trimmed, NFKC, upper-cased, whitespace collapsed.
type RegionClassifier struct {
	index map[regionKey]string
	names []string
}

type regionKey struct {
	state  string
	county string
}

// NewRegionClassifier indexes the basin catalog. Callers validate the
// catalog first; on overlapping entries the first basin listed wins.
func NewRegionClassifier(basins []catalog.Basin) *RegionClassifier {
	rc := &RegionClassifier{index: make(map[regionKey]string)}
	for _, b := range basins {
		rc.names = append(rc.names, b.Name)
		for state, counties := range b.States {
			for _, county := range counties {
				k := regionKey{state: catalog.NameKey(state), county: catalog.NameKey(county)}
				if _, exists := rc.index[k]; !exists {
					rc.index[k] = b.Name
				}
			}
		}
	}
	return rc
}

// Classify returns the basin for a location, or BasinOther when state or
// county is missing or unmatched.
func (rc *RegionClassifier) Classify(state, county string) string {
	s, c := catalog.NameKey(state), catalog.NameKey(county)
	if s == "" || c == "" {
		return BasinOther
	}
	if basin, ok := rc.index[regionKey{state: s, county: c}]; ok {
		return basin
	}
	return BasinOther
}

// BasinNames returns the catalog's basin names in order, without BasinOther.
func (rc *RegionClassifier) BasinNames() []string {
	out := make([]string, len(rc.names))
	copy(out, rc.names)
	return out
}
