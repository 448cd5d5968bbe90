package sentinel

import (
	"context"
	"math"
	"os"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/pkg/errors"

	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/catalog"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/points"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/utils"
)

// Sample holds the band values of one acquisition day at one point.
type Sample struct {
	Day    time.Time
	Bands  BandValues
	SCL    float64
	Valid  bool
	Reason string
}

//go:generate mockgen -destination=mocks/sampler.go -package=mocks . Sampler
type Sampler interface {
	Sample(ctx context.Context, p points.Point, day time.Time) (Sample, error)
}

type Options struct {
	BufferMeters  float64
	MaxCloudCover float64
	MaskClouds    bool
}

type Client struct {
	api  poster
	opts Options
}

func NewClient(api poster, opts Options) *Client {
	return &Client{api: api, opts: opts}
}

func (c *Client) Sample(ctx context.Context, p points.Point, day time.Time) (Sample, error) {
	bound := catalog.BoundAround(p.Orb(), c.opts.BufferMeters)

	image, err := requestImage(ctx, c.api, bound, day, c.opts.MaxCloudCover)
	if err != nil {
		return Sample{}, err
	}

	values, err := readPixel(image, p.Longitude, p.Latitude)
	if err != nil {
		return Sample{}, errors.Wrapf(err, "failed to read image for %s", day.Format("2006-01-02"))
	}
	return newSample(day, values, c.opts.MaskClouds), nil
}

func newSample(day time.Time, values []float64, maskClouds bool) Sample {
	s := Sample{Day: day, Bands: make(BandValues, len(Bands)), Valid: true}
	for i, name := range Bands {
		s.Bands[name] = values[i]
	}
	s.SCL = values[len(Bands)]
	dataMask := values[len(Bands)+1]

	switch {
	case dataMask == 0:
		s.Valid, s.Reason = false, "no data"
	case maskClouds && cloudyClasses[int(s.SCL)]:
		s.Valid, s.Reason = false, "cloudy pixel"
	}
	for _, v := range s.Bands {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			s.Valid, s.Reason = false, "non-finite band value"
			break
		}
	}
	return s
}

// readPixel decodes a GeoTIFF and returns every band's value at lon/lat.
func readPixel(image []byte, lon, lat float64) ([]float64, error) {
	tmp, err := os.CreateTemp("", "s2-sample-*.tif")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(image); err != nil {
		tmp.Close()
		return nil, errors.Wrap(err, "failed to write image file")
	}
	if err := tmp.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to close image file")
	}

	var values []float64
	utils.ExecuteWithGDALLock(func() {
		values, err = readPixelFromFile(tmp.Name(), lon, lat)
	})
	return values, err
}

func readPixelFromFile(path string, lon, lat float64) ([]float64, error) {
	ds, err := godal.Open(path, godal.ErrLogger(func(ec godal.ErrorCategory, code int, msg string) error {
		if ec == godal.CE_Warning {
			return nil
		}
		return errors.New(msg)
	}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open TIFF file")
	}
	defer ds.Close()

	expected := len(rasterBands())
	if n := ds.Structure().NBands; n != expected {
		return nil, errors.Errorf("image has %d bands, expected %d", n, expected)
	}

	col, row, err := latLonToXY(ds, lat, lon)
	if err != nil {
		return nil, err
	}

	values := make([]float64, expected)
	buf := make([]float64, 1)
	for i, band := range ds.Bands() {
		if err := band.Read(col, row, buf, 1, 1); err != nil {
			return nil, errors.Wrapf(err, "failed to read band %s", rasterBands()[i])
		}
		values[i] = buf[0]
	}
	return values, nil
}

func latLonToXY(ds *godal.Dataset, lat, lon float64) (int, int, error) {
	geoTransform, err := ds.GeoTransform()
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to get geotransform")
	}

	width := ds.Structure().SizeX
	height := ds.Structure().SizeY

	xMin := geoTransform[0]
	yMax := geoTransform[3]
	xMax := xMin + geoTransform[1]*float64(width)
	yMin := yMax + geoTransform[5]*float64(height)

	if lon < xMin || lon > xMax || lat < yMin || lat > yMax {
		return 0, 0, errors.Errorf("latitude %f and longitude %f are out of bounds for the image", lat, lon)
	}

	col := int(math.Floor((lon - xMin) / geoTransform[1]))
	row := int(math.Floor((lat - yMax) / geoTransform[5]))

	// a point on the right or bottom edge belongs to the last pixel
	if col == width {
		col--
	}
	if row == height {
		row--
	}
	return col, row, nil
}
