package sentinel

import (
	"context"
	"time"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

const (
	processPath = "/api/v1/process"
	resolution  = 10.0
	maxPixels   = 2500
	crs84       = "http://www.opengis.net/def/crs/OGC/1.3/CRS84"
)

type poster interface {
	PostJSON(ctx context.Context, path string, payload interface{}, accept string) ([]byte, error)
}

// calculatePixels converts a span in degrees of latitude to a pixel count at
// the given resolution in meters. The count is odd so a center pixel exists.
func calculatePixels(distance float64, resolution float64) int {
	pixels := int(distance * (111_000.0 / resolution))
	if pixels < 1 {
		pixels = 1
	}
	if pixels > maxPixels {
		pixels = maxPixels
	}
	if pixels%2 == 0 {
		pixels--
	}
	return pixels
}

func imagePayload(bound orb.Bound, day time.Time, maxCloudCover float64) map[string]interface{} {
	from := day.UTC()
	to := from.Add(time.Hour*23 + time.Minute*59 + time.Second*59)

	pixels := calculatePixels(bound.Max.Lat()-bound.Min.Lat(), resolution)

	return map[string]interface{}{
		"input": map[string]interface{}{
			"bounds": map[string]interface{}{
				"bbox": []float64{bound.Min.Lon(), bound.Min.Lat(), bound.Max.Lon(), bound.Max.Lat()},
				"properties": map[string]string{
					"crs": crs84,
				},
			},
			"data": []map[string]interface{}{
				{
					"type": "sentinel-2-l2a",
					"dataFilter": map[string]interface{}{
						"timeRange": map[string]string{
							"from": from.Format(time.RFC3339),
							"to":   to.Format(time.RFC3339),
						},
						"maxCloudCoverage": maxCloudCover,
						"mosaickingOrder":  "leastCC",
					},
					"processing": map[string]interface{}{
						"harmonizeValues": true,
					},
				},
			},
		},
		"output": map[string]interface{}{
			"width":  pixels,
			"height": pixels,
			"responses": []map[string]interface{}{
				{
					"identifier": "default",
					"format": map[string]string{
						"type": "image/tiff",
					},
				},
			},
		},
		"evalscript": evalscript(),
	}
}

// requestImage fetches the GeoTIFF of one acquisition day over bound.
func requestImage(ctx context.Context, api poster, bound orb.Bound, day time.Time, maxCloudCover float64) ([]byte, error) {
	body, err := api.PostJSON(ctx, processPath, imagePayload(bound, day, maxCloudCover), "image/tiff")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to request image for %s", day.Format("2006-01-02"))
	}
	if len(body) == 0 {
		return nil, errors.Errorf("empty image returned for %s", day.Format("2006-01-02"))
	}
	return body, nil
}
