package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"culld/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicLogging(t *testing.T) {
	// Capture output
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf))

	// Test basic logging methods
	l.Info("info message")
	assert.Contains(t, buf.String(), "level=info")
	assert.Contains(t, buf.String(), "info message")
	buf.Reset()

	l.Warn("warn message")
	assert.Contains(t, buf.String(), "level=warn")
	assert.Contains(t, buf.String(), "warn message")
	buf.Reset()

	l.Error("error message")
	assert.Contains(t, buf.String(), "level=error")
	assert.Contains(t, buf.String(), "error message")
	buf.Reset()

	// Test formatted logging
	l.Infof("formatted %s", "message")
	assert.Contains(t, buf.String(), "formatted message")
	buf.Reset()
}

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer

	// Default level suppresses debug
	l := NewLogger(WithOutput(&buf))
	l.Debug("debug message")
	assert.Empty(t, buf.String())

	// WithLevel("debug") enables it
	l = NewLogger(WithOutput(&buf), WithLevel("debug"))
	l.Debug("debug message")
	assert.Contains(t, buf.String(), "level=debug")
	assert.Contains(t, buf.String(), "debug message")
	buf.Reset()

	l.Debugf("formatted %s", "debug")
	assert.Contains(t, buf.String(), "formatted debug")
	buf.Reset()

	// Unknown level names fall back to info
	l = NewLogger(WithOutput(&buf), WithLevel("chatty"))
	l.Debug("hidden")
	assert.Empty(t, buf.String())
	l.Info("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestSetDebug(t *testing.T) {
	var buf bytes.Buffer
	Configure(WithOutput(&buf))
	defer func() {
		SetDebug(false)
		Configure()
	}()

	Debug("debug message")
	assert.Empty(t, buf.String())

	SetDebug(true)
	Debug("debug message")
	assert.Contains(t, buf.String(), "debug message")
	buf.Reset()

	SetDebug(false)
	Debug("debug message")
	assert.Empty(t, buf.String())
}

func TestStructuredLogging(t *testing.T) {
	// Capture output
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf))

	// Test with fields
	l.With(F("key1", "value1"), F("key2", 123)).Info("structured message")
	output := buf.String()
	assert.Contains(t, output, "structured message")
	assert.Contains(t, output, "key1=value1")
	assert.Contains(t, output, "key2=123")
	buf.Reset()

	// Test chaining fields
	l.With(F("key1", "value1")).With(F("key2", 123)).Info("chained fields")
	output = buf.String()
	assert.Contains(t, output, "chained fields")
	assert.Contains(t, output, "key1=value1")
	assert.Contains(t, output, "key2=123")
	buf.Reset()

	// Test the package-level entry constructor
	Configure(WithOutput(&buf))
	defer Configure()
	LogWithFields(F("directory", "/photos")).Info("scan complete")
	output = buf.String()
	assert.Contains(t, output, "scan complete")
	assert.Contains(t, output, "directory=/photos")
}

func TestJSONLogging(t *testing.T) {
	// Capture output
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf), WithJSON())

	// Test basic JSON logging
	l.Info("json message")
	output := buf.String()

	// Verify it's valid JSON
	var logEntry map[string]interface{}
	err := json.Unmarshal([]byte(strings.TrimSpace(output)), &logEntry)
	require.NoError(t, err)

	// Check fields
	assert.Equal(t, "info", logEntry["level"])
	assert.Equal(t, "json message", logEntry["msg"])
	assert.Contains(t, logEntry, "time")
	buf.Reset()

	// Test JSON with fields
	l.With(F("key1", "value1"), F("key2", 123)).Info("structured json")
	output = buf.String()

	err = json.Unmarshal([]byte(strings.TrimSpace(output)), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "value1", logEntry["key1"])
	assert.Equal(t, float64(123), logEntry["key2"]) // JSON numbers are float64
}

func TestErrorLogging(t *testing.T) {
	// Capture output on the package-level logger
	var buf bytes.Buffer
	Configure(WithOutput(&buf))
	defer Configure()

	// Test with a kind-tagged file error
	fileErr := errors.NewFileError("cannot write sidecar", "/photos/a.jpg.rating", errors.RatingWriteFailed, nil)
	LogWithError(fileErr).Error("rating not saved")
	output := buf.String()
	assert.Contains(t, output, "rating not saved")
	assert.Contains(t, output, "cannot write sidecar")
	assert.Contains(t, output, "path=/photos/a.jpg.rating")
	assert.Contains(t, output, "error_kind=5") // RatingWriteFailed
	buf.Reset()

	// Test with an untyped error
	LogWithError(errors.New("plain failure")).Error("operation failed")
	output = buf.String()
	assert.Contains(t, output, "operation failed")
	assert.Contains(t, output, "plain failure")
	assert.Contains(t, output, "error_kind=0") // Unknown
	buf.Reset()

	// Test the convenience function
	LogError(fileErr, "convenient error log")
	output = buf.String()
	assert.Contains(t, output, "convenient error log")
	assert.Contains(t, output, "cannot write sidecar: /photos/a.jpg.rating")
	buf.Reset()

	// Nil errors must not panic
	LogWithError(nil).Error("nil error test")
	output = buf.String()
	assert.Contains(t, output, "nil error test")
	assert.Contains(t, output, "<nil>")
}

func TestFileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "culld.log")

	Configure(WithFile(logPath))
	defer Configure()

	Info("file test message")

	fileContent, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(fileContent), "file test message")
}
