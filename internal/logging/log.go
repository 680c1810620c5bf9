package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the shared application logger.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.InfoLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// SetLevel adjusts the log level from a string like "debug" or "warn".
// Unknown levels leave the current level in place.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		Logger.Warnf("unknown log level %q, keeping %s", level, Logger.GetLevel())
		return
	}
	Logger.SetLevel(lvl)
}
