package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/delivery"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/points"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/ui"
)

func newInspectCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Describe a GeoJSON input file without downloading anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, v)
		},
	}

	flags := cmd.Flags()
	flags.StringP("input", "i", "", "GeoJSON FeatureCollection of points")
	flags.String("id-property", "id", "Feature property holding the point id")
	flags.String("label-property", "landcover", "Feature property holding the land-cover label")
	keys := map[string]string{
		"input":          "input",
		"id-property":    "id_property",
		"label-property": "label_property",
	}
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		return bindFlags(v, cmd.Flags(), keys)
	}
	return cmd
}

func runInspect(cmd *cobra.Command, v *viper.Viper) error {
	cfg, _, err := setup(cmd, v)
	if err != nil {
		return err
	}
	if cfg.Run.Input == "" {
		return errors.New("input file is required")
	}

	report, err := delivery.Inspect(cfg.Run.Input, points.LoadOptions{
		IDProperty:    cfg.Run.IDProperty,
		LabelProperty: cfg.Run.LabelProperty,
	})
	if err != nil {
		return err
	}

	ui.PrintInfo(report.Path)
	ui.PrintField("features", report.Features)
	ui.PrintField("geometries", formatCounts(report.GeometryTypes))
	ui.PrintField("properties", strings.Join(report.PropertyKeys, ", "))
	ui.PrintField("bounds", fmt.Sprintf("[%.6f, %.6f, %.6f, %.6f]",
		report.Bound.Min.Lon(), report.Bound.Min.Lat(), report.Bound.Max.Lon(), report.Bound.Max.Lat()))

	if report.LoadError != nil {
		ui.PrintWarning(report.LoadError.Error())
		return errors.Wrap(report.LoadError, "input would be rejected")
	}
	ui.PrintField("points", report.Points)
	ui.PrintField("labels", formatCounts(report.Labels))
	if skipped := report.Features - report.Points; skipped > 0 {
		ui.PrintWarning(fmt.Sprintf("%d features are not points and will be skipped", skipped))
	}
	return nil
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		name := k
		if name == "" {
			name = "(none)"
		}
		parts = append(parts, fmt.Sprintf("%s=%d", name, counts[k]))
	}
	return strings.Join(parts, " ")
}
