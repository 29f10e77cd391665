package logging

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LogLevel   string `envconfig:"LOG_LEVEL" default:"debug"` // "debug", "info", "warn", "error"
	LogFormat  string `envconfig:"LOG_FORMAT" default:"text"` // "json" or "text"
	LogFile    string `envconfig:"LOG_FILE" default:""`       // empty logs to stdout
	LogMaxSize int    `envconfig:"LOG_MAX_SIZE_MB" default:"100"`
	LogMaxAge  int    `envconfig:"LOG_MAX_AGE_DAYS" default:"7"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
