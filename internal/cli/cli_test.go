package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/copernicus/copernicustest"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/dataset"
)

const pointsGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-1.52, 12.37]}, "properties": {"id": "p1", "landcover": "cropland"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [3.05, 36.75]}, "properties": {"id": "p2", "landcover": "forest"}},
    {"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]}, "properties": {"id": "road"}}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// clearEnv keeps the developer's environment out of the command.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"COPERNICUS_CLIENT_ID", "COPERNICUS_CLIENT_SECRET",
		"DISCORD_ERROR_NOTIFICATION_URL", "DISCORD_SUCCESS_NOTIFICATION_URL",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
		"INPUT", "START", "END", "OUTPUT", "WORKERS", "NORMALIZE",
	} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(viper.New())
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestInspect(t *testing.T) {
	clearEnv(t)
	input := writeFile(t, "points.geojson", pointsGeoJSON)

	out, err := execute(t, "inspect", "--input", input)
	require.NoError(t, err)

	assert.Contains(t, out, "features")
	assert.Contains(t, out, "LineString=1 Point=2")
	assert.Contains(t, out, "cropland=1 forest=1")
	assert.Contains(t, out, "1 features are not points")
}

func TestInspect_Rejected(t *testing.T) {
	clearEnv(t)
	input := writeFile(t, "roads.geojson", `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]},"properties":{}}]}`)

	_, err := execute(t, "inspect", "-i", input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input would be rejected")
}

func TestInspect_MissingInput(t *testing.T) {
	clearEnv(t)
	_, err := execute(t, "inspect")
	assert.EqualError(t, err, "input file is required")
}

func TestPlot(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "rows.csv")
	require.NoError(t, dataset.Export(csvPath, []dataset.Observation{
		{PointID: "p1", Label: "cropland", Year: 2023, Month: 1, Date: "2023-01", NDVI: 0.3},
		{PointID: "p1", Label: "cropland", Year: 2023, Month: 2, Date: "2023-02", NDVI: 0.5},
	}, false))
	charts := filepath.Join(dir, "charts")

	out, err := execute(t, "plot", "--input", csvPath, "--index", "NDVI", "--output-dir", charts)
	require.NoError(t, err)
	assert.Contains(t, out, "1 ndvi charts written")
	assert.FileExists(t, filepath.Join(charts, "p1_ndvi.png"))
}

func TestPlot_UnknownIndex(t *testing.T) {
	clearEnv(t)
	_, err := execute(t, "plot", "--index", "evi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown index "evi"`)
}

func TestDownload_MissingCredentials(t *testing.T) {
	clearEnv(t)
	input := writeFile(t, "points.geojson", pointsGeoJSON)

	_, err := execute(t, "download", "-i", input, "--start", "2023-01-01", "--end", "2023-02-28")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPERNICUS_CLIENT_ID")
}

func TestDownload_InvalidRange(t *testing.T) {
	clearEnv(t)
	input := writeFile(t, "points.geojson", pointsGeoJSON)

	_, err := execute(t, "download", "-i", input, "--start", "2023-03-01", "--end", "2023-02-28")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before start date")
}

func TestDownload_NoImagery(t *testing.T) {
	clearEnv(t)
	var searches atomic.Int32
	srv := copernicustest.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		searches.Add(1)
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[],"context":{"returned":0}}`))
	}))
	t.Setenv("COPERNICUS_CLIENT_ID", "client")
	t.Setenv("COPERNICUS_CLIENT_SECRET", "secret")
	t.Setenv("COPERNICUS_TOKEN_URL", srv.URL+copernicustest.TokenPath)
	t.Setenv("COPERNICUS_BASE_URL", srv.URL)

	input := writeFile(t, "points.geojson", pointsGeoJSON)
	output := filepath.Join(t.TempDir(), "out.csv")

	out, err := execute(t, "download", "-i", input, "-o", output,
		"--start", "2023-01-01", "--end", "2023-02-28", "--workers", "2")
	require.NoError(t, err)

	assert.Equal(t, int32(4), searches.Load(), "two points times two months")
	assert.Contains(t, out, "nothing written")
	assert.NoFileExists(t, output)
}

func TestDownload_MinMaxAppendRejected(t *testing.T) {
	clearEnv(t)
	input := writeFile(t, "points.geojson", pointsGeoJSON)

	_, err := execute(t, "download", "-i", input, "--start", "2023-01-01", "--end", "2023-02-28",
		"--normalize", "minmax", "--append")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be combined with append")
}

func TestDownload_InterruptedRunStillNotifies(t *testing.T) {
	clearEnv(t)
	srv := copernicustest.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no catalog request after cancellation")
	}))
	t.Setenv("COPERNICUS_CLIENT_ID", "client")
	t.Setenv("COPERNICUS_CLIENT_SECRET", "secret")
	t.Setenv("COPERNICUS_TOKEN_URL", srv.URL+copernicustest.TokenPath)
	t.Setenv("COPERNICUS_BASE_URL", srv.URL)

	webhooks := make(chan string, 1)
	discord := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		webhooks <- string(body)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(discord.Close)
	t.Setenv("DISCORD_ERROR_NOTIFICATION_URL", discord.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := writeFile(t, "points.geojson", pointsGeoJSON)
	_, err := executeContext(t, ctx, "download", "-i", input,
		"-o", filepath.Join(t.TempDir(), "out.csv"), "--start", "2023-01-01", "--end", "2023-02-28")
	require.ErrorIs(t, err, context.Canceled)

	require.Len(t, webhooks, 1)
	assert.Contains(t, <-webhooks, "context canceled")
}
