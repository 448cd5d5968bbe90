package sentinel

import (
	"fmt"
	"strings"
)

// Bands are the Sentinel-2 L2A bands sampled for every scene, in raster order.
var Bands = []string{"B01", "B02", "B03", "B04", "B05", "B06", "B07", "B08", "B8A", "B09", "B11", "B12"}

// Auxiliary layers appended after Bands in the returned raster.
const (
	sclBand      = "SCL"
	dataMaskBand = "dataMask"
)

// Scene classification classes treated as cloudy: cloud shadow, medium and
// high probability cloud, thin cirrus.
var cloudyClasses = map[int]bool{3: true, 8: true, 9: true, 10: true}

// BandValues maps a band name to its value (DN).
type BandValues map[string]float64

// Missing lists the sampled bands absent from b, in raster order.
func (b BandValues) Missing() []string {
	var missing []string
	for _, name := range Bands {
		if _, ok := b[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func IsKnownBand(name string) bool {
	for _, b := range Bands {
		if b == name {
			return true
		}
	}
	return false
}

func rasterBands() []string {
	return append(append([]string{}, Bands...), sclBand, dataMaskBand)
}

// evalscript returns every band in DN plus the scene classification and the
// data mask as FLOAT32.
func evalscript() string {
	names := rasterBands()
	quoted := make([]string, len(names))
	samples := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
		samples[i] = "sample." + n
	}

	return fmt.Sprintf(`
    //VERSION=3
    function setup() {
      return {
        input: [{
          bands: [%s],
          units: "DN"
        }],
        output: {
          id: "default",
          bands: %d,
          sampleType: SampleType.FLOAT32,
        },
      }
    }

    function evaluatePixel(sample) {
      return [%s];
    }
  `, strings.Join(quoted, ", "), len(names), strings.Join(samples, ", "))
}
