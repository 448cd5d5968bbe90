package points

import (
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrEmpty    = errors.New("feature collection is empty")
	ErrNoPoints = errors.New("feature collection has no point features")
)

// Point is a sampling location read from the input file.
type Point struct {
	// Index is the position of the feature in the input file.
	Index     int
	ID        string
	Label     string
	Longitude float64
	Latitude  float64
}

func (p Point) Orb() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

type LoadOptions struct {
	IDProperty    string
	LabelProperty string
}

func readCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s as a GeoJSON FeatureCollection", path)
	}
	if fc.Type != "FeatureCollection" {
		return nil, errors.Errorf("%s is a %q, expected a FeatureCollection", path, fc.Type)
	}
	if len(fc.Features) == 0 {
		return nil, errors.Wrap(ErrEmpty, path)
	}
	return fc, nil
}

// Load reads the point features of a GeoJSON FeatureCollection. Features
// that are not points are skipped with a warning; anything else that is off
// (bad JSON, no features, invalid coordinates, duplicate ids) fails the load.
func Load(path string, opts LoadOptions) ([]Point, error) {
	fc, err := readCollection(path)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int)
	points := make([]Point, 0, len(fc.Features))
	for i, feature := range fc.Features {
		if feature.Geometry == nil {
			logrus.WithField("feature", i).Warn("feature has no geometry, skipping")
			continue
		}
		pt, ok := feature.Geometry.(orb.Point)
		if !ok {
			logrus.WithField("feature", i).Warnf("feature is a %s, not a Point, skipping", feature.Geometry.GeoJSONType())
			continue
		}
		if err := validateCoordinates(pt); err != nil {
			return nil, errors.Wrapf(err, "feature %d", i)
		}

		id := featureID(feature, opts.IDProperty, i)
		if first, dup := seen[id]; dup {
			return nil, errors.Errorf("duplicate point id %q in features %d and %d", id, first, i)
		}
		seen[id] = i

		points = append(points, Point{
			Index:     i,
			ID:        id,
			Label:     propertyString(feature.Properties, opts.LabelProperty),
			Longitude: pt.Lon(),
			Latitude:  pt.Lat(),
		})
	}

	if len(points) == 0 {
		return nil, errors.Wrap(ErrNoPoints, path)
	}

	logrus.Infof("loaded %d points from %s (%d features)", len(points), path, len(fc.Features))
	return points, nil
}

func validateCoordinates(pt orb.Point) error {
	lon, lat := pt.Lon(), pt.Lat()
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return errors.New("coordinates are not finite")
	}
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return errors.Errorf("coordinates (%v, %v) are outside lon/lat bounds", lon, lat)
	}
	return nil
}

func featureID(feature *geojson.Feature, idProperty string, position int) string {
	if id := propertyString(feature.Properties, idProperty); id != "" {
		return id
	}
	if id := formatValue(feature.ID); id != "" {
		return id
	}
	return strconv.Itoa(position)
}

func propertyString(props geojson.Properties, key string) string {
	if key == "" || props == nil {
		return ""
	}
	return formatValue(props[key])
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// Summary describes an input file without sampling it.
type Summary struct {
	Path          string
	Features      int
	GeometryTypes map[string]int
	PropertyKeys  []string
	Bound         orb.Bound
}

func Summarize(path string) (Summary, error) {
	fc, err := readCollection(path)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		Path:          path,
		Features:      len(fc.Features),
		GeometryTypes: make(map[string]int),
	}

	keys := make(map[string]struct{})
	first := true
	for _, feature := range fc.Features {
		for k := range feature.Properties {
			keys[k] = struct{}{}
		}
		if feature.Geometry == nil {
			s.GeometryTypes["null"]++
			continue
		}
		s.GeometryTypes[feature.Geometry.GeoJSONType()]++
		if first {
			s.Bound = feature.Geometry.Bound()
			first = false
		} else {
			s.Bound = s.Bound.Union(feature.Geometry.Bound())
		}
	}

	for k := range keys {
		s.PropertyKeys = append(s.PropertyKeys, k)
	}
	sort.Strings(s.PropertyKeys)
	return s, nil
}
