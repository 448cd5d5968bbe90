package dataset

import (
	"strings"

	"github.com/pkg/errors"
)

type Normalization string

const (
	UnitScale Normalization = "unitscale"
	MinMax    Normalization = "minmax"
	None      Normalization = "none"
)

// unitScaleMax maps DN 0..3000 onto 0..1.
const unitScaleMax = 3000.0

func ParseNormalization(s string) (Normalization, error) {
	switch n := Normalization(strings.ToLower(strings.TrimSpace(s))); n {
	case UnitScale, MinMax, None:
		return n, nil
	case "":
		return UnitScale, nil
	}
	return "", errors.Errorf("unknown normalization %q", s)
}

// Normalize returns copies of rows with the band columns rescaled. Index
// columns are left untouched. With MinMax every band column is scaled to
// 0..1 across all rows and a constant column becomes zeros.
func Normalize(rows []Observation, mode Normalization) ([]Observation, error) {
	out := make([]Observation, len(rows))
	copy(out, rows)

	switch mode {
	case None:
	case UnitScale:
		for i := range out {
			for _, b := range out[i].bands() {
				*b /= unitScaleMax
			}
		}
	case MinMax:
		minMax(out)
	default:
		return nil, errors.Errorf("unknown normalization %q", mode)
	}
	return out, nil
}

func minMax(rows []Observation) {
	if len(rows) == 0 {
		return
	}
	columns := len(rows[0].bands())
	for col := 0; col < columns; col++ {
		lo, hi := *rows[0].bands()[col], *rows[0].bands()[col]
		for i := range rows {
			v := *rows[i].bands()[col]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}

		span := hi - lo
		for i := range rows {
			b := rows[i].bands()[col]
			if span == 0 {
				*b = 0
				continue
			}
			*b = (*b - lo) / span
		}
	}
}
