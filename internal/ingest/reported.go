package ingest

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/proppant-cli/internal/model"
)

// Reported holds externally reported quarterly figures used to back-solve
// pricing and score volume estimates.
type Reported struct {
	Revenue map[model.Quarter]float64
	Mass    map[model.Quarter]float64
}

type reportedFile struct {
	Revenue map[string]float64 `yaml:"revenue"`
	Mass    map[string]float64 `yaml:"mass"`
}

// LoadReported reads a YAML file of the form
//
//	revenue:
//	  2023Q1: 425.5e6
//	mass:
//	  2023Q1: 6.4e9
func LoadReported(path string) (Reported, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Reported{}, eris.Wrapf(err, "ingest: read %s", path)
	}
	return ParseReported(data)
}

// ParseReported decodes reported figures. Quarter keys must parse.
func ParseReported(data []byte) (Reported, error) {
	var f reportedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Reported{}, eris.Wrap(err, "ingest: parse reported yaml")
	}
	rev, err := quarterMap(f.Revenue)
	if err != nil {
		return Reported{}, eris.Wrap(err, "ingest: revenue")
	}
	m, err := quarterMap(f.Mass)
	if err != nil {
		return Reported{}, eris.Wrap(err, "ingest: mass")
	}
	return Reported{Revenue: rev, Mass: m}, nil
}

func quarterMap(in map[string]float64) (map[model.Quarter]float64, error) {
	out := make(map[model.Quarter]float64, len(in))
	for k, v := range in {
		q, err := model.ParseQuarter(k)
		if err != nil {
			return nil, err
		}
		out[q] = v
	}
	return out, nil
}
