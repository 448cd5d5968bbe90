package composite

import (
	"math"
	"sort"

	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/sentinel"
)

// Composite is the per-band median of the usable samples of one month.
type Composite struct {
	Month      Month
	SceneCount int
	Bands      sentinel.BandValues
}

// Median reduces the valid samples acquired in month to one value per band.
// It returns false when no valid sample exists. A band with no finite value
// across the samples is left out of the composite.
func Median(samples []sentinel.Sample, month Month) (Composite, bool) {
	values := make(map[string][]float64, len(sentinel.Bands))
	count := 0
	for _, s := range samples {
		if !s.Valid || !month.Contains(s.Day) {
			continue
		}
		count++
		for name, v := range s.Bands {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			values[name] = append(values[name], v)
		}
	}
	if count == 0 {
		return Composite{}, false
	}

	c := Composite{Month: month, SceneCount: count, Bands: make(sentinel.BandValues, len(values))}
	for name, vs := range values {
		c.Bands[name] = median(vs)
	}
	return c, true
}

func median(vs []float64) float64 {
	sorted := append([]float64(nil), vs...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
