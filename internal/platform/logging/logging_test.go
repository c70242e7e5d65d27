package logging

import (
	"os"
	"path/filepath"
	"testing"

	"simex/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

func TestConfigure_LevelAndFormat(t *testing.T) {
	logger := logrus.New()

	require.NoError(t, Configure(logger, config.Logging{Level: "DEBUG", Format: "json", Output: "stderr"}))
	require.Equal(t, logrus.DebugLevel, logger.GetLevel())
	require.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
	require.Equal(t, os.Stderr, logger.Out)
}

func TestConfigure_UnknownLevelFallsBackToInfo(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.TraceLevel)

	require.NoError(t, Configure(logger, config.Logging{Level: "loud", Format: "text"}))
	require.Equal(t, logrus.InfoLevel, logger.GetLevel())
	require.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestConfigure_InvalidFormat(t *testing.T) {
	err := Configure(logrus.New(), config.Logging{Level: "info", Format: "xml"})
	require.EqualError(t, err, "invalid log format 'xml'")
}

func TestConfigure_FileOutputRotates(t *testing.T) {
	logger := logrus.New()
	path := filepath.Join(t.TempDir(), "simex.log")

	require.NoError(t, Configure(logger, config.Logging{Level: "info", Format: "text", Output: path, MaxAgeDays: 3}))

	out, ok := logger.Out.(*lumberjack.Logger)
	require.True(t, ok)
	t.Cleanup(func() { _ = out.Close() })
	require.Equal(t, path, out.Filename)
	require.Equal(t, 3, out.MaxAge)

	logger.Info("hello")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "hello")
}
