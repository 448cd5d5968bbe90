package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const DateLayout = "2006-01-02"

var normalizations = []string{"unitscale", "minmax", "none"}

type Config struct {
	App          App          `mapstructure:",squash"`
	Copernicus   Copernicus   `mapstructure:",squash"`
	Notification Notification `mapstructure:",squash"`
	Run          Run          `mapstructure:",squash"`
}

type App struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Copernicus holds the Data Space credentials. Client ids and secrets are
// comma-separated lists paired by position and tried in order.
type Copernicus struct {
	ClientIDs     []string      `mapstructure:"copernicus_client_id"`
	ClientSecrets []string      `mapstructure:"copernicus_client_secret"`
	TokenURL      string        `mapstructure:"copernicus_token_url"`
	BaseURL       string        `mapstructure:"copernicus_base_url"`
	Retries       int           `mapstructure:"copernicus_retries"`
	RetryWait     time.Duration `mapstructure:"copernicus_retry_wait"`
	Timeout       time.Duration `mapstructure:"copernicus_timeout"`
}

type Notification struct {
	DiscordErrorURL   string `mapstructure:"discord_error_notification_url"`
	DiscordSuccessURL string `mapstructure:"discord_success_notification_url"`
	TelegramBotToken  string `mapstructure:"telegram_bot_token"`
	TelegramChatID    int64  `mapstructure:"telegram_chat_id"`
}

type Run struct {
	Input         string  `mapstructure:"input"`
	Start         string  `mapstructure:"start"`
	End           string  `mapstructure:"end"`
	Cloud         float64 `mapstructure:"cloud"`
	Output        string  `mapstructure:"output"`
	Buffer        float64 `mapstructure:"buffer"`
	IDProperty    string  `mapstructure:"id_property"`
	LabelProperty string  `mapstructure:"label_property"`
	Normalize     string  `mapstructure:"normalize"`
	MaskClouds    bool    `mapstructure:"mask_clouds"`
	Workers       int     `mapstructure:"workers"`
	Append        bool    `mapstructure:"append"`

	StartDate time.Time `mapstructure:"-"`
	EndDate   time.Time `mapstructure:"-"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	v.SetDefault("COPERNICUS_CLIENT_ID", "")
	v.SetDefault("COPERNICUS_CLIENT_SECRET", "")
	v.SetDefault("COPERNICUS_TOKEN_URL", "https://identity.dataspace.copernicus.eu/auth/realms/CDSE/protocol/openid-connect/token")
	v.SetDefault("COPERNICUS_BASE_URL", "https://sh.dataspace.copernicus.eu")
	v.SetDefault("COPERNICUS_RETRIES", 3)
	v.SetDefault("COPERNICUS_RETRY_WAIT", "5s")
	v.SetDefault("COPERNICUS_TIMEOUT", "60s")

	v.SetDefault("DISCORD_ERROR_NOTIFICATION_URL", "")
	v.SetDefault("DISCORD_SUCCESS_NOTIFICATION_URL", "")
	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("TELEGRAM_CHAT_ID", 0)

	v.SetDefault("INPUT", "")
	v.SetDefault("START", "")
	v.SetDefault("END", "")
	v.SetDefault("CLOUD", 30)
	v.SetDefault("OUTPUT", "all_points_s2.csv")
	v.SetDefault("BUFFER", 10)
	v.SetDefault("ID_PROPERTY", "id")
	v.SetDefault("LABEL_PROPERTY", "landcover")
	v.SetDefault("NORMALIZE", "unitscale")
	v.SetDefault("MASK_CLOUDS", false)
	v.SetDefault("WORKERS", 1)
	v.SetDefault("APPEND", false)
}

// NewConfig loads .env (if any), the environment and whatever flags were bound
// to v, in that order of increasing precedence.
func NewConfig(v *viper.Viper) (*Config, error) {
	loadEnvFile()

	SetDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{}
	err := v.Unmarshal(cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode configuration")
	}

	cfg.Copernicus.ClientIDs = trimAll(cfg.Copernicus.ClientIDs)
	cfg.Copernicus.ClientSecrets = trimAll(cfg.Copernicus.ClientSecrets)
	cfg.Run.Normalize = strings.ToLower(strings.TrimSpace(cfg.Run.Normalize))

	return cfg, nil
}

// Validate checks the download parameters and parses the date range.
func (r *Run) Validate() error {
	if r.Input == "" {
		return errors.New("input file is required")
	}
	if r.Output == "" {
		return errors.New("output file is required")
	}

	start, err := time.Parse(DateLayout, r.Start)
	if err != nil {
		return errors.Wrapf(err, "invalid start date %q, expected YYYY-MM-DD", r.Start)
	}
	end, err := time.Parse(DateLayout, r.End)
	if err != nil {
		return errors.Wrapf(err, "invalid end date %q, expected YYYY-MM-DD", r.End)
	}
	if end.Before(start) {
		return errors.Errorf("end date %s is before start date %s", r.End, r.Start)
	}

	if r.Cloud < 0 || r.Cloud > 100 {
		return errors.Errorf("cloud threshold must be between 0 and 100, got %v", r.Cloud)
	}
	if r.Buffer <= 0 {
		return errors.Errorf("buffer must be positive, got %v", r.Buffer)
	}
	if r.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", r.Workers)
	}

	valid := false
	for _, n := range normalizations {
		if r.Normalize == n {
			valid = true
			break
		}
	}
	if !valid {
		return errors.Errorf("unknown normalization %q (allowed: %s)", r.Normalize, strings.Join(normalizations, ", "))
	}
	// minmax rows are scaled per run.
	if r.Append && r.Normalize == "minmax" {
		return errors.New("minmax normalization cannot be combined with append, use unitscale or none")
	}

	r.StartDate, r.EndDate = start, end
	return nil
}

func (c *Copernicus) Validate() error {
	if len(c.ClientIDs) == 0 || len(c.ClientSecrets) == 0 || c.TokenURL == "" {
		return errors.New("missing required environment variables: COPERNICUS_CLIENT_ID, COPERNICUS_CLIENT_SECRET, or COPERNICUS_TOKEN_URL")
	}
	if len(c.ClientIDs) != len(c.ClientSecrets) {
		return errors.New("mismatched number of client IDs and secrets")
	}
	if c.BaseURL == "" {
		return errors.New("COPERNICUS_BASE_URL is empty")
	}
	if c.Retries < 0 {
		return errors.Errorf("COPERNICUS_RETRIES must not be negative, got %d", c.Retries)
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Debugf("could not resolve working directory: %v", err)
		return
	}

	locations := []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(cwd, "..", ".env"),
		filepath.Join(cwd, "..", "..", ".env"),
	}

	for _, location := range locations {
		if err := godotenv.Load(location); err == nil {
			logrus.Debugf("loaded environment from %s", location)
			return
		}
	}
	logrus.Debug("no .env file found, using process environment")
}
