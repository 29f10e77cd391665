package logging

import (
	"io"
	"os"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures the global logrus logger from cfg.
// Unknown levels fall back to debug, unknown formats to text.
func Setup(cfg Config) {
	level, err := logger.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = logger.DebugLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(formatter(cfg.LogFormat))
	logger.SetOutput(output(cfg))
}

func formatter(format string) logger.Formatter {
	if strings.EqualFold(format, "json") {
		return &logger.JSONFormatter{TimestampFormat: time.RFC3339}
	}
	return &logger.TextFormatter{
		FullTimestamp: true,
	}
}

func output(cfg Config) io.Writer {
	if cfg.LogFile == "" {
		return os.Stdout
	}
	return &lumberjack.Logger{
		Filename: cfg.LogFile,
		MaxSize:  cfg.LogMaxSize,
		MaxAge:   cfg.LogMaxAge,
		Compress: true,
	}
}
