package logging

import (
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Fields is an alias for logrus.Fields
type Fields = logrus.Fields

// Setup configures the standard logrus logger and returns an entry tagged with
// a fresh run id.
func Setup(level, format string, out io.Writer) (*logrus.Entry, error) {
	if out == nil {
		out = os.Stderr
	}
	logrus.SetOutput(out)

	switch strings.ToLower(format) {
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			PadLevelText:  true,
		})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, errors.Errorf("invalid LOG_FORMAT %q (allowed: text, json)", format)
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Warnf("invalid log level %q, using info", level)
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)

	return logrus.WithField("run_id", uuid.New().String()), nil
}

// Discard returns an entry that drops everything, for tests.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
