package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger_File(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	path := filepath.Join(t.TempDir(), "logs", "server.log")
	require.NoError(t, InitLogger(&LogConfig{Level: "debug", Format: "json", Output: "file", FilePath: path}))
	assert.Equal(t, logrus.DebugLevel, GetLogger().GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, GetLogger().Formatter)

	WithFields(map[string]interface{}{"slides": 3}).Info("Presentation saved")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Presentation saved"`)
	assert.Contains(t, string(data), `"slides":3`)
	assert.Contains(t, string(data), "logger_test.go:")
}

func TestInitLogger_Defaults(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	require.NoError(t, InitLogger(&LogConfig{Level: "bogus", Format: "text"}))
	assert.Equal(t, logrus.InfoLevel, Logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, Logger.Formatter)
	assert.Equal(t, os.Stderr, Logger.Out)

	out, err := openOutput(&LogConfig{Output: "file"})
	require.NoError(t, err)
	assert.Equal(t, os.Stderr, out)

	out, err = openOutput(&LogConfig{Output: "STDOUT"})
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, out)
}

func TestGetLogger_Lazy(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	Logger = nil
	l := GetLogger()
	require.NotNil(t, l)
	assert.Same(t, l, GetLogger())
}
