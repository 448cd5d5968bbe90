package cli

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/config"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/logging"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/ui"
)

const appName = "s2monthly"

// NewRootCommand wires every sub command to v. Flags override the
// environment, which overrides the defaults in config.SetDefaults.
func NewRootCommand(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Monthly Sentinel-2 composites for land-cover points",
		Long: `s2monthly samples Sentinel-2 L2A imagery at the points of a GeoJSON
file, reduces every calendar month to a per-band median and writes one CSV
row per point and month with the band values and spectral indices.

Credentials are read from COPERNICUS_CLIENT_ID and COPERNICUS_CLIENT_SECRET,
either in the environment or in a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ui.Out = cmd.OutOrStdout()
		},
	}

	flags := root.PersistentFlags()
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text, json)")
	if err := bindFlags(v, flags, map[string]string{
		"log-level":  "log_level",
		"log-format": "log_format",
	}); err != nil {
		logrus.Fatal(err)
	}

	root.AddCommand(newDownloadCommand(v), newInspectCommand(v), newPlotCommand(v))
	return root
}

// bindFlags maps flag names to configuration keys. Sub commands share keys
// such as input, so each binds its flags only when it runs.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return errors.Wrapf(err, "failed to bind flag %s", name)
		}
	}
	return nil
}

// setup loads the configuration and configures logging for a command.
func setup(cmd *cobra.Command, v *viper.Viper) (*config.Config, *logrus.Entry, error) {
	cfg, err := config.NewConfig(v)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.Setup(cfg.App.LogLevel, cfg.App.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, log.WithField("command", cmd.Name()), nil
}
