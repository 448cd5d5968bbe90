package cli

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/dataset"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/indexes"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/output"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/ui"
)

func newPlotCommand(v *viper.Viper) *cobra.Command {
	var input, index, outputDir string

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Chart one index per point from a downloaded CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, err := setup(cmd, v)
			if err != nil {
				return err
			}

			index = strings.ToLower(index)
			if _, err := (indexes.Values{}).Get(index); err != nil {
				return errors.Errorf("unknown index %q (allowed: %s)", index, strings.Join(indexes.Names, ", "))
			}

			rows, err := dataset.Read(input)
			if err != nil {
				return err
			}
			paths, err := output.CreateIndexCharts(rows, index, outputDir)
			if err != nil {
				return err
			}

			log.WithField("charts", len(paths)).Debug("Charts written")
			ui.PrintSuccess(fmt.Sprintf("%d %s charts written to %s", len(paths), index, outputDir))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "all_points_s2.csv", "CSV written by download")
	cmd.Flags().StringVar(&index, "index", "ndvi", "Index to chart: "+strings.Join(indexes.Names, ", "))
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "charts", "Directory for the PNG charts")
	return cmd
}
