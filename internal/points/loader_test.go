package points

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "points.geojson")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const mixedCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"id": "forest-1", "landcover": "forest"},
     "geometry": {"type": "Point", "coordinates": [-1.52, 12.37]}},
    {"type": "Feature", "properties": {"landcover": "water"},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}},
    {"type": "Feature", "id": 42, "properties": {"landcover": 3},
     "geometry": {"type": "Point", "coordinates": [-1.60, 12.40]}},
    {"type": "Feature", "properties": {},
     "geometry": {"type": "Point", "coordinates": [-1.70, 12.50]}}
  ]
}`

func TestLoad(t *testing.T) {
	path := writeFile(t, mixedCollection)

	pts, err := Load(path, LoadOptions{IDProperty: "id", LabelProperty: "landcover"})
	require.NoError(t, err)
	require.Len(t, pts, 3)

	assert.Equal(t, Point{Index: 0, ID: "forest-1", Label: "forest", Longitude: -1.52, Latitude: 12.37}, pts[0])
	assert.Equal(t, "42", pts[1].ID)
	assert.Equal(t, "3", pts[1].Label)
	assert.Equal(t, 2, pts[1].Index, "position in the file, the polygon included")
	// no id property and no feature id: position in the file
	assert.Equal(t, "3", pts[2].ID)
	assert.Equal(t, "", pts[2].Label)
	assert.Equal(t, 3, pts[2].Index)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
		wantErr string
	}{
		{name: "malformed json", content: `{"type": "FeatureCollection", "features": [`, wantErr: "failed to decode"},
		{name: "empty collection", content: `{"type": "FeatureCollection", "features": []}`, target: ErrEmpty},
		{name: "no points", content: `{"type": "FeatureCollection", "features": [
			{"type": "Feature", "properties": {}, "geometry": {"type": "LineString", "coordinates": [[0,0],[1,1]]}}]}`, target: ErrNoPoints},
		{name: "out of range", content: `{"type": "FeatureCollection", "features": [
			{"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [200, 10]}}]}`, wantErr: "outside lon/lat bounds"},
		{name: "duplicate ids", content: `{"type": "FeatureCollection", "features": [
			{"type": "Feature", "properties": {"id": "a"}, "geometry": {"type": "Point", "coordinates": [1, 1]}},
			{"type": "Feature", "properties": {"id": "a"}, "geometry": {"type": "Point", "coordinates": [2, 2]}}]}`, wantErr: "duplicate point id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content), LoadOptions{IDProperty: "id"})
			require.Error(t, err)
			if tt.target != nil {
				assert.True(t, errors.Is(err, tt.target), "got %v", err)
			}
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.geojson"), LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestSummarize(t *testing.T) {
	s, err := Summarize(writeFile(t, mixedCollection))
	require.NoError(t, err)

	assert.Equal(t, 4, s.Features)
	assert.Equal(t, map[string]int{"Point": 3, "Polygon": 1}, s.GeometryTypes)
	assert.Equal(t, []string{"id", "landcover"}, s.PropertyKeys)
	assert.InDelta(t, -1.70, s.Bound.Min.Lon(), 1e-9)
	assert.InDelta(t, 12.50, s.Bound.Max.Lat(), 1e-9)
	assert.InDelta(t, 1.0, s.Bound.Max.Lon(), 1e-9)
}
