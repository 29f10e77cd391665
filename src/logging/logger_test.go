package logging

import (
	"os"
	"path/filepath"
	"testing"

	logger "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

func TestSetupLevelAndFormat(t *testing.T) {
	defer logger.SetOutput(os.Stdout)

	Setup(Config{LogLevel: "WARN", LogFormat: "json"})
	assert.Equal(t, logger.WarnLevel, logger.GetLevel())
	_, isJSON := logger.StandardLogger().Formatter.(*logger.JSONFormatter)
	assert.True(t, isJSON)

	Setup(Config{LogLevel: "nonsense", LogFormat: "whatever"})
	assert.Equal(t, logger.DebugLevel, logger.GetLevel())
	_, isText := logger.StandardLogger().Formatter.(*logger.TextFormatter)
	assert.True(t, isText)
}

func TestOutputRotatesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.log")
	w := output(Config{LogFile: path, LogMaxSize: 1, LogMaxAge: 2})

	lj, ok := w.(*lumberjack.Logger)
	if !ok {
		t.Fatalf("expected lumberjack writer, got %T", w)
	}
	defer lj.Close()

	assert.Equal(t, path, lj.Filename)
	assert.Equal(t, 1, lj.MaxSize)
	assert.Equal(t, 2, lj.MaxAge)
	assert.Equal(t, os.Stdout, output(Config{}))
}
