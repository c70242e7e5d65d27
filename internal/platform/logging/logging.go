package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"simex/internal/config"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Configure sets up the standard logrus logger. An unknown level falls back
// to info; output is stdout, stderr or a file path rotated by lumberjack.
func Configure(logger *logrus.Logger, cfg config.Logging) error {
	if lvl, err := logrus.ParseLevel(strings.ToLower(cfg.Level)); err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(lvl)
	}

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case "text", "":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	default:
		return fmt.Errorf("invalid log format '%s'", cfg.Format)
	}

	switch cfg.Output {
	case "stdout", "":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		logger.SetOutput(&lumberjack.Logger{
			Filename: cfg.Output,
			MaxAge:   cfg.MaxAgeDays,
			MaxSize:  100,
			Compress: true,
		})
	}
	return nil
}
