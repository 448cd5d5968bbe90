package indexes

import (
	"github.com/pkg/errors"

	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/sentinel"
)

var (
	ErrMissingBand = errors.New("missing band")
	ErrUnknownBand = errors.New("unknown band")
	ErrUnknownName = errors.New("unknown index")
)

// Names lists the supported indices in output column order.
var Names = []string{"ndvi", "ndwi", "ndmi", "nbr", "ndre", "psri"}

var requiredBands = []string{"B02", "B03", "B04", "B05", "B06", "B08", "B11", "B12"}

type Values struct {
	NDVI float64
	NDWI float64
	NDMI float64
	NBR  float64
	NDRE float64
	PSRI float64
}

// Get returns the index called name, as listed in Names.
func (v Values) Get(name string) (float64, error) {
	switch name {
	case "ndvi":
		return v.NDVI, nil
	case "ndwi":
		return v.NDWI, nil
	case "ndmi":
		return v.NDMI, nil
	case "nbr":
		return v.NBR, nil
	case "ndre":
		return v.NDRE, nil
	case "psri":
		return v.PSRI, nil
	}
	return 0, errors.Wrap(ErrUnknownName, name)
}

// Compute derives every index from one set of band values. A zero
// denominator yields 0.
func Compute(bands sentinel.BandValues) (Values, error) {
	for name := range bands {
		if !sentinel.IsKnownBand(name) {
			return Values{}, errors.Wrap(ErrUnknownBand, name)
		}
	}

	for _, name := range requiredBands {
		if _, ok := bands[name]; !ok {
			return Values{}, errors.Wrap(ErrMissingBand, name)
		}
	}
	b02, b03, b04, b05 := bands["B02"], bands["B03"], bands["B04"], bands["B05"]
	b06, b08, b11, b12 := bands["B06"], bands["B08"], bands["B11"], bands["B12"]

	return Values{
		NDVI: normalizedDifference(b08, b04),
		NDWI: normalizedDifference(b03, b08),
		NDMI: normalizedDifference(b08, b11),
		NBR:  normalizedDifference(b08, b12),
		NDRE: normalizedDifference(b08, b05),
		PSRI: safeDivide(b04-b02, b06),
	}, nil
}

func normalizedDifference(a, b float64) float64 {
	return safeDivide(a-b, a+b)
}

func safeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
