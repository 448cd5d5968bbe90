package output

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"

	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/dataset"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/utils"
)

const (
	chartWidth  = 900
	chartHeight = 500
	margin      = 60.0
)

// Series is the monthly history of one index at one point.
type Series struct {
	PointID string
	Label   string
	Index   string
	Values  map[time.Time]float64
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// IndexSeries groups rows by point, in order of first appearance.
func IndexSeries(rows []dataset.Observation, index string) ([]Series, error) {
	var (
		series   []Series
		position = make(map[string]int)
	)
	for _, row := range rows {
		v, err := row.Index(index)
		if err != nil {
			return nil, err
		}
		i, ok := position[row.PointID]
		if !ok {
			i = len(series)
			position[row.PointID] = i
			series = append(series, Series{PointID: row.PointID, Label: row.Label, Index: index, Values: make(map[time.Time]float64)})
		}
		month := time.Date(row.Year, time.Month(row.Month), 1, 0, 0, 0, 0, time.UTC)
		series[i].Values[month] = v
	}
	return series, nil
}

// CreateIndexCharts renders one PNG per point into dir and returns the paths.
func CreateIndexCharts(rows []dataset.Observation, index, dir string) ([]string, error) {
	series, err := IndexSeries(rows, index)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, errors.New("no rows to plot")
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "failed to create result folder")
	}

	paths := make([]string, 0, len(series))
	used := make(map[string]bool, len(series))
	for _, s := range series {
		path := filepath.Join(dir, chartName(s.PointID, index, used))
		if err := CreateIndexChart(s, path); err != nil {
			return nil, errors.Wrapf(err, "point %s", s.PointID)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// chartName turns a point id into a file name unique within used. Ids that
// only differ in characters replaced by "_" get a numeric suffix.
func chartName(pointID, index string, used map[string]bool) string {
	base := unsafeName.ReplaceAllString(pointID, "_")
	name := fmt.Sprintf("%s_%s.png", base, index)
	for n := 2; used[name]; n++ {
		name = fmt.Sprintf("%s_%d_%s.png", base, n, index)
	}
	used[name] = true
	return name
}

// CreateIndexChart draws s as a polyline with one marker per month.
func CreateIndexChart(s Series, path string) error {
	months := utils.GetSortedKeys(s.Values, true)
	if len(months) == 0 {
		return errors.New("empty series")
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, m := range months {
		lo = math.Min(lo, s.Values[m])
		hi = math.Max(hi, s.Values[m])
	}
	if hi-lo < 1e-9 {
		lo, hi = lo-1, hi+1
	}
	pad := (hi - lo) * 0.1
	lo, hi = lo-pad, hi+pad

	plotW := chartWidth - 2*margin
	plotH := chartHeight - 2*margin
	x := func(i int) float64 {
		if len(months) == 1 {
			return margin + plotW/2
		}
		return margin + plotW*float64(i)/float64(len(months)-1)
	}
	y := func(v float64) float64 {
		return margin + plotH*(hi-v)/(hi-lo)
	}

	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// axes
	dc.SetRGB(0.2, 0.2, 0.2)
	dc.SetLineWidth(1)
	dc.DrawLine(margin, margin, margin, margin+plotH)
	dc.DrawLine(margin, margin+plotH, margin+plotW, margin+plotH)
	dc.Stroke()

	for _, v := range []float64{lo + pad, (lo + hi) / 2, hi - pad} {
		dc.DrawStringAnchored(fmt.Sprintf("%.2f", v), margin-8, y(v), 1, 0.5)
	}
	for i, m := range months {
		dc.DrawStringAnchored(m.Format("2006-01"), x(i), margin+plotH+16, 0.5, 0.5)
	}

	title := fmt.Sprintf("%s %s", s.PointID, s.Index)
	if s.Label != "" {
		title = fmt.Sprintf("%s (%s) %s", s.PointID, s.Label, s.Index)
	}
	dc.DrawStringAnchored(title, chartWidth/2, margin/2, 0.5, 0.5)

	dc.SetRGB(0, 0.5, 0.2)
	dc.SetLineWidth(2)
	for i, m := range months {
		if i == 0 {
			dc.MoveTo(x(i), y(s.Values[m]))
			continue
		}
		dc.LineTo(x(i), y(s.Values[m]))
	}
	dc.Stroke()

	for i, m := range months {
		dc.DrawCircle(x(i), y(s.Values[m]), 4)
		dc.Fill()
	}

	if err := dc.SavePNG(path); err != nil {
		return errors.Wrap(err, "failed to save image")
	}
	return nil
}
