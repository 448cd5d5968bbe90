package delivery

import (
	"github.com/pkg/errors"

	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/points"
)

type InspectReport struct {
	points.Summary

	// Points is the number of point features that would be sampled.
	Points int
	Labels map[string]int
	// LoadError is set when the file would be rejected by download.
	LoadError error
}

// Inspect describes an input file and checks that download would accept it.
func Inspect(path string, opts points.LoadOptions) (InspectReport, error) {
	summary, err := points.Summarize(path)
	if err != nil {
		return InspectReport{}, errors.Wrapf(err, "failed to inspect %s", path)
	}
	report := InspectReport{Summary: summary, Labels: make(map[string]int)}

	pts, err := points.Load(path, opts)
	if err != nil {
		report.LoadError = err
		return report, nil
	}
	report.Points = len(pts)
	for _, p := range pts {
		report.Labels[p.Label]++
	}
	return report, nil
}
