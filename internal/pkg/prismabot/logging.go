package prismabot

import (
	"github.com/sirupsen/logrus"
)

// SetupLogging configures the global logrus logger
func SetupLogging(level string, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return ConfigError{Key: "LOG_LEVEL", Msg: err.Error()}
	}
	logrus.SetLevel(lvl)

	switch format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
