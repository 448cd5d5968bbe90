package sentinel

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/catalog"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/copernicus"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/copernicus/copernicustest"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/points"
)

func TestMain(m *testing.M) {
	godal.RegisterAll()
	os.Exit(m.Run())
}

const pixelSize = 0.0001

// writeFixture writes a 3x3 GeoTIFF centered on lon/lat. The center pixel
// holds center[i] in band i, every other pixel holds center[i] + 1000.
func writeFixture(t *testing.T, lon, lat float64, center []float64) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.tif")

	ds, err := godal.Create(godal.GTiff, path, len(center), godal.Float32, 3, 3)
	require.NoError(t, err)
	require.NoError(t, ds.SetGeoTransform([6]float64{lon - 1.5*pixelSize, pixelSize, 0, lat + 1.5*pixelSize, 0, -pixelSize}))

	for i, band := range ds.Bands() {
		data := make([]float64, 9)
		for j := range data {
			data[j] = center[i] + 1000
		}
		data[4] = center[i]
		require.NoError(t, band.Write(0, 0, data, 3, 3))
	}
	require.NoError(t, ds.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

func fixtureValues(scl, dataMask float64) []float64 {
	values := make([]float64, 0, len(Bands)+2)
	for i := range Bands {
		values = append(values, float64(100*(i+1)))
	}
	return append(values, scl, dataMask)
}

func TestCalculatePixels(t *testing.T) {
	assert.Equal(t, 1, calculatePixels(0, 10))
	assert.Equal(t, 11, calculatePixels(0.001, 10))
	assert.Equal(t, 21, calculatePixels(0.002, 10))
	assert.Equal(t, 2499, calculatePixels(10, 10))
}

func TestEvalscript(t *testing.T) {
	script := evalscript()
	for _, b := range Bands {
		assert.Contains(t, script, `"`+b+`"`)
		assert.Contains(t, script, "sample."+b)
	}
	assert.Contains(t, script, `units: "DN"`)
	assert.Contains(t, script, "bands: 14")
	assert.True(t, strings.Index(script, "sample.SCL") < strings.Index(script, "sample.dataMask"))
}

func TestImagePayload(t *testing.T) {
	bound := catalog.BoundAround(orb.Point{-1.52, 12.37}, 10)
	day := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)

	raw, err := json.Marshal(imagePayload(bound, day, 25))
	require.NoError(t, err)

	var payload struct {
		Input struct {
			Data []struct {
				Type       string `json:"type"`
				DataFilter struct {
					TimeRange struct {
						From string `json:"from"`
						To   string `json:"to"`
					} `json:"timeRange"`
					MaxCloudCoverage float64 `json:"maxCloudCoverage"`
				} `json:"dataFilter"`
			} `json:"data"`
		} `json:"input"`
		Output struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"output"`
	}
	require.NoError(t, json.Unmarshal(raw, &payload))

	require.Len(t, payload.Input.Data, 1)
	data := payload.Input.Data[0]
	assert.Equal(t, "sentinel-2-l2a", data.Type)
	assert.Equal(t, "2023-01-03T00:00:00Z", data.DataFilter.TimeRange.From)
	assert.Equal(t, "2023-01-03T23:59:59Z", data.DataFilter.TimeRange.To)
	assert.Equal(t, 25.0, data.DataFilter.MaxCloudCoverage)
	assert.Equal(t, 1, payload.Output.Width%2)
	assert.Equal(t, payload.Output.Width, payload.Output.Height)
}

func TestNewSample(t *testing.T) {
	day := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)

	s := newSample(day, fixtureValues(4, 1), true)
	assert.True(t, s.Valid)
	assert.Equal(t, 100.0, s.Bands["B01"])
	assert.Equal(t, 900.0, s.Bands["B8A"])
	assert.Equal(t, 1200.0, s.Bands["B12"])
	assert.Equal(t, 4.0, s.SCL)

	s = newSample(day, fixtureValues(4, 0), true)
	assert.False(t, s.Valid)
	assert.Equal(t, "no data", s.Reason)

	s = newSample(day, fixtureValues(9, 1), true)
	assert.False(t, s.Valid)
	assert.Equal(t, "cloudy pixel", s.Reason)

	s = newSample(day, fixtureValues(9, 1), false)
	assert.True(t, s.Valid)

	values := fixtureValues(4, 1)
	values[2] = math.NaN()
	s = newSample(day, values, false)
	assert.False(t, s.Valid)

	values = fixtureValues(4, 1)
	values[9] = math.Inf(-1)
	s = newSample(day, values, false)
	assert.False(t, s.Valid)
	assert.Equal(t, "non-finite band value", s.Reason)
}

func TestBandValuesMissing(t *testing.T) {
	s := newSample(time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC), fixtureValues(4, 1), false)
	assert.Empty(t, s.Bands.Missing())

	delete(s.Bands, "B09")
	delete(s.Bands, "B01")
	assert.Equal(t, []string{"B01", "B09"}, s.Bands.Missing())
}

func TestClientSample(t *testing.T) {
	p := points.Point{ID: "p1", Longitude: -1.52, Latitude: 12.37}
	tiff := writeFixture(t, p.Longitude, p.Latitude, fixtureValues(4, 1))

	var gotAccept string
	srv := copernicustest.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, processPath, r.URL.Path)
		gotAccept = r.Header.Get("Accept")
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "image/tiff")
		_, _ = w.Write(tiff)
	}))
	api, err := copernicus.NewClient(context.Background(), srv.Config())
	require.NoError(t, err)

	sampler := NewClient(api, Options{BufferMeters: 10, MaxCloudCover: 30, MaskClouds: true})
	s, err := sampler.Sample(context.Background(), p, time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "image/tiff", gotAccept)
	assert.True(t, s.Valid)
	for i, b := range Bands {
		assert.InDelta(t, float64(100*(i+1)), s.Bands[b], 1e-6, b)
	}
	assert.Equal(t, 4.0, s.SCL)
}

func TestReadPixel_OutOfBounds(t *testing.T) {
	tiff := writeFixture(t, 10, 10, fixtureValues(4, 1))
	_, err := readPixel(tiff, 20, 20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of bounds")
}

func TestReadPixel_WrongBandCount(t *testing.T) {
	tiff := writeFixture(t, 10, 10, []float64{1, 2, 3})
	_, err := readPixel(tiff, 10, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 14")
}
