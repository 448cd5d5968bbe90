package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/catalog"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/config"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/copernicus"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/dataset"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/delivery"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/notification"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/sentinel"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/ui"
)

func newDownloadCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Build the monthly composite dataset for a GeoJSON file of points",
		Example: `  s2monthly download --input points.geojson --start 2023-01-01 --end 2023-12-31
  s2monthly download --input points.geojson --start 2023-01-01 --end 2023-06-30 --cloud 20 --workers 4 --append`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, v)
		},
	}

	flags := cmd.Flags()
	flags.StringP("input", "i", "", "GeoJSON FeatureCollection of points")
	flags.String("start", "", "First day of the range (YYYY-MM-DD)")
	flags.String("end", "", "Last day of the range, inclusive (YYYY-MM-DD)")
	flags.Float64("cloud", 30, "Maximum scene cloud cover in percent")
	flags.StringP("output", "o", "all_points_s2.csv", "Output CSV file")
	flags.Float64("buffer", 10, "Half width in meters of the area sampled around each point")
	flags.String("id-property", "id", "Feature property holding the point id")
	flags.String("label-property", "landcover", "Feature property holding the land-cover label")
	flags.String("normalize", "unitscale", "Band normalization: unitscale, minmax or none (minmax cannot be used with --append)")
	flags.Bool("mask-clouds", false, "Discard samples whose scene classification is cloud or shadow")
	flags.IntP("workers", "w", 1, "Number of points processed in parallel")
	flags.Bool("append", false, "Append rows to an existing output file instead of replacing it")
	keys := map[string]string{
		"input":          "input",
		"start":          "start",
		"end":            "end",
		"cloud":          "cloud",
		"output":         "output",
		"buffer":         "buffer",
		"id-property":    "id_property",
		"label-property": "label_property",
		"normalize":      "normalize",
		"mask-clouds":    "mask_clouds",
		"workers":        "workers",
		"append":         "append",
	}
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		return bindFlags(v, cmd.Flags(), keys)
	}
	return cmd
}

func runDownload(cmd *cobra.Command, v *viper.Viper) error {
	cfg, log, err := setup(cmd, v)
	if err != nil {
		return err
	}
	if err := cfg.Run.Validate(); err != nil {
		return err
	}
	if err := cfg.Copernicus.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ui.PrintBanner("S2 monthly")
	result, err := download(ctx, cfg, log, cmd.ErrOrStderr())

	notifier := notification.New(cfg.Notification)
	if err != nil {
		notification.Send(ctx, notifier, log, fmt.Sprintf("%s download of %s", appName, cfg.Run.Input), err)
		return err
	}

	summary := fmt.Sprintf("%s: %d rows for %d points written to %s", appName, result.Rows, result.Points, result.Output)
	if !result.Written {
		summary = fmt.Sprintf("%s: no usable imagery for %d points between %s and %s, nothing written", appName, result.Points, cfg.Run.Start, cfg.Run.End)
		ui.PrintWarning(summary)
	} else {
		ui.PrintSuccess(summary)
	}
	if result.Dropped > 0 {
		ui.PrintWarning(fmt.Sprintf("%d monthly composites dropped because a band was missing", result.Dropped))
	}
	notification.Send(ctx, notifier, log, summary, nil)
	return nil
}

func download(ctx context.Context, cfg *config.Config, log *logrus.Entry, progress io.Writer) (delivery.DownloadResult, error) {
	normalization, err := dataset.ParseNormalization(cfg.Run.Normalize)
	if err != nil {
		return delivery.DownloadResult{}, err
	}

	api, err := copernicus.NewClient(ctx, cfg.Copernicus)
	if err != nil {
		return delivery.DownloadResult{}, errors.Wrap(err, "failed to create Copernicus client")
	}
	searcher := catalog.NewClient(api)
	sampler := sentinel.NewClient(api, sentinel.Options{
		BufferMeters:  cfg.Run.Buffer,
		MaxCloudCover: cfg.Run.Cloud,
		MaskClouds:    cfg.Run.MaskClouds,
	})

	return delivery.NewDownloader(searcher, sampler, log).Download(ctx, delivery.DownloadOptions{
		Input:         cfg.Run.Input,
		Output:        cfg.Run.Output,
		Start:         cfg.Run.StartDate,
		End:           cfg.Run.EndDate,
		MaxCloudCover: cfg.Run.Cloud,
		BufferMeters:  cfg.Run.Buffer,
		IDProperty:    cfg.Run.IDProperty,
		LabelProperty: cfg.Run.LabelProperty,
		Normalization: normalization,
		Workers:       cfg.Run.Workers,
		Append:        cfg.Run.Append,
		Progress:      progress,
	})
}
