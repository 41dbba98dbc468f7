package logging

import (
	"bytes"
	"errors"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/grovetools/uptask/tui/theme"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Setenv("UPTASK_HOME", t.TempDir())

	logger := NewLogger("test-component")
	require.NotNil(t, logger)
	assert.Equal(t, "test-component", logger.Data["component"])

	// Same component returns the cached entry
	assert.Same(t, logger, NewLogger("test-component"))
}

func TestNewLoggerLevelFromEnv(t *testing.T) {
	t.Setenv("UPTASK_HOME", t.TempDir())
	t.Setenv("UPTASK_LOG_LEVEL", "debug")

	entry := newLogger("env-level", Config{Level: "error"})
	assert.Equal(t, logrus.DebugLevel, entry.Logger.GetLevel())

	t.Setenv("UPTASK_LOG_LEVEL", "")
	entry = newLogger("cfg-level", Config{Level: "error"})
	assert.Equal(t, logrus.ErrorLevel, entry.Logger.GetLevel())
}

func TestFileSink(t *testing.T) {
	home := t.TempDir()
	t.Setenv("UPTASK_HOME", home)
	t.Setenv("UPTASK_LOG_LEVEL", "")

	entry := newLogger("file-sink", Config{Format: FormatConfig{StructuredToStderr: "never"}})
	entry.Info("written to file")

	data, err := os.ReadFile(LogFilePath("file-sink", time.Now()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestLoggerOutput(t *testing.T) {
	var buf bytes.Buffer

	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&TextFormatter{Config: FormatConfig{}})

	entry := logger.WithField("component", "test")
	entry.WithField("task_id", "t1").Info("Test message")

	output := buf.String()
	assert.Contains(t, output, "[INFO]")
	assert.Contains(t, output, "[test]")
	assert.Contains(t, output, "Test message")
	assert.Contains(t, output, "task_id=t1")
}

func TestTextFormatter(t *testing.T) {
	tests := []struct {
		name    string
		config  FormatConfig
		entry   *logrus.Entry
		want    []string
		notWant []string
	}{
		{
			name:   "default format",
			config: FormatConfig{},
			entry: &logrus.Entry{
				Level:   logrus.InfoLevel,
				Message: "test message",
				Data: logrus.Fields{
					"component": "store",
					"key1":      "value1",
				},
			},
			want: []string{"[INFO]", "[store]", "test message", "key1=value1"},
		},
		{
			name: "simple format",
			config: FormatConfig{
				DisableTimestamp: true,
				DisableComponent: true,
			},
			entry: &logrus.Entry{
				Level:   logrus.WarnLevel,
				Message: "warning message",
				Data: logrus.Fields{
					"component": "store",
				},
			},
			want:    []string{"[WARN]", "warning message"},
			notWant: []string{"[store]"},
		},
		{
			name:   "caller information with function name",
			config: FormatConfig{},
			entry: func() *logrus.Entry {
				logger := logrus.New()
				logger.SetReportCaller(true)
				return &logrus.Entry{
					Logger:  logger,
					Level:   logrus.InfoLevel,
					Message: "test message with caller",
					Data:    logrus.Fields{"component": "store"},
					Caller: &runtime.Frame{
						File:     "/path/to/file.go",
						Line:     42,
						Function: "github.com/example/package.TestFunction",
					},
				}
			}(),
			want: []string{"[INFO]", "test message with caller", "[file.go:42 package.TestFunction]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := &TextFormatter{Config: tt.config}
			output, err := formatter.Format(tt.entry)
			require.NoError(t, err)

			for _, want := range tt.want {
				assert.Contains(t, string(output), want)
			}
			for _, notWant := range tt.notWant {
				assert.NotContains(t, string(output), notWant)
			}
		})
	}
}

func TestPrettyLogger(t *testing.T) {
	theme.UseIcons("ascii")
	defer theme.UseIcons("")

	var buf bytes.Buffer
	p := NewPrettyLogger().WithWriter(&buf)

	p.Success("Project Created Successfully")
	p.ErrorPretty("Project not found", errors.New("404"))

	out := buf.String()
	assert.True(t, strings.Contains(out, "✓ Project Created Successfully"), out)
	assert.Contains(t, out, "Project not found")
	assert.Contains(t, out, "404")
}
