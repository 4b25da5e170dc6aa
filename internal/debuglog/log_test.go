package debuglog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// logTo sets up file logging at level and returns a func that closes the
// logger and returns what was written.
func logTo(t *testing.T, level LogLevel) func() string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logs", "gamelib.log")
	require.NoError(t, Setup(level, path))
	t.Cleanup(func() { _ = Setup(LevelOff) })

	return func() string {
		require.NoError(t, Close())
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		return string(data)
	}
}

func TestLevelNames(t *testing.T) {
	for level, name := range map[LogLevel]string{
		LevelDebug:   "DEBUG",
		LevelInfo:    "INFO",
		LevelWarn:    "WARN",
		LevelError:   "ERROR",
		LevelOff:     "OFF",
		LogLevel(99): "UNKNOWN",
	} {
		assert.Equal(t, name, level.String())
		if level <= LevelOff {
			assert.Equal(t, level, ParseLogLevel(name), "round trip of %s", name)
		}
	}

	assert.Equal(t, LevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, LevelOff, ParseLogLevel("  off\n"))
	assert.Equal(t, LevelInfo, ParseLogLevel("verbose"), "unknown names fall back to info")
	assert.Equal(t, LevelInfo, ParseLogLevel(""))
}

func TestSetup_FiltersBelowLevel(t *testing.T) {
	read := logTo(t, LevelWarn)
	assert.Equal(t, LevelWarn, GetLevel())

	Debugf("cache lookup %s", "owned")
	Infof("sync started")
	Warnf("detail lookup failed for %d", 620)
	Errorf("saving sync record: %v", os.ErrPermission)

	out := read()
	assert.NotContains(t, out, "cache lookup")
	assert.NotContains(t, out, "sync started")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "detail lookup failed for 620")
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "permission denied")
}

func TestSetup_Off(t *testing.T) {
	require.NoError(t, Setup(LevelOff, filepath.Join(t.TempDir(), "never.log")))
	assert.Equal(t, LevelOff, GetLevel())
	assert.False(t, L().Core().Enabled(zap.ErrorLevel), "logger must be a no-op while off")

	// must not panic without a file
	Errorf("dropped")
}

func TestWithFields(t *testing.T) {
	read := logTo(t, LevelDebug)

	WithFields(map[string]any{"platform": "steam", "games": 42}).Infof("sync finished")

	out := read()
	assert.Contains(t, out, "sync finished")
	assert.Contains(t, out, `"platform": "steam"`)
	assert.Contains(t, out, `"games": 42`)
}

func TestStructuredLoggerIsNamed(t *testing.T) {
	read := logTo(t, LevelDebug)

	L().Debug("cache miss", zap.String("key", "owned_games_{accountId:1}"))

	out := read()
	assert.Contains(t, out, "cache miss")
	assert.Contains(t, out, "gamelib")
	assert.Contains(t, out, "owned_games_{accountId:1}")
}

func TestSetLevel(t *testing.T) {
	read := logTo(t, LevelError)

	Infof("before")
	SetLevel(LevelInfo)
	assert.Equal(t, LevelInfo, GetLevel())
	Infof("after")

	out := read()
	assert.NotContains(t, out, "before")
	assert.Contains(t, out, "after")
}
