package env

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetAfter removes variables a store exported during a test
func unsetAfter(t *testing.T, keys ...string) {
	t.Helper()
	t.Cleanup(func() {
		for _, k := range keys {
			_ = os.Unsetenv(k)
		}
	})
}

func TestStore_Parse(t *testing.T) {
	unsetAfter(t, "MM_NAME", "MM_QUOTED", "MM_SINGLE", "MM_EMPTY", "MM_EQ", "MM_SPACED")

	input := `
# comment line
MM_NAME=mediamind
MM_QUOTED="hello world"
MM_SINGLE='single'
MM_EMPTY=
not a variable
MM_EQ=a=b=c
  MM_SPACED  =   padded
`
	s := NewStore()
	require.NoError(t, s.Parse(strings.NewReader(input)))

	assert.True(t, s.IsLoaded())
	assert.Equal(t, map[string]string{
		"MM_NAME":   "mediamind",
		"MM_QUOTED": "hello world",
		"MM_SINGLE": "single",
		"MM_EMPTY":  "",
		"MM_EQ":     "a=b=c",
		"MM_SPACED": "padded",
	}, s.All())
	assert.Equal(t, "mediamind", os.Getenv("MM_NAME"))
}

func TestStore_Interpolation(t *testing.T) {
	unsetAfter(t, "MM_BASE", "MM_ASSETS", "MM_LOGS", "MM_UNKNOWN", "MM_BRACED_UNKNOWN", "MM_TWICE")
	t.Setenv("MM_HOME_DIR", "/home/app")

	input := strings.Join([]string{
		"MM_BASE=http://localhost",
		"MM_ASSETS=${MM_BASE}/assets",
		"MM_LOGS=$MM_HOME_DIR/logs",
		"MM_UNKNOWN=$MM_NOT_SET/x",
		"MM_BRACED_UNKNOWN=${MM_NOT_SET}/x",
		"MM_TWICE=${MM_BASE}|${MM_BASE}",
	}, "\n")

	s := NewStore()
	require.NoError(t, s.Parse(strings.NewReader(input)))

	assert.Equal(t, "http://localhost/assets", s.Get("MM_ASSETS", ""))
	assert.Equal(t, "/home/app/logs", s.Get("MM_LOGS", ""))
	assert.Equal(t, "$MM_NOT_SET/x", s.Get("MM_UNKNOWN", ""))
	assert.Equal(t, "${MM_NOT_SET}/x", s.Get("MM_BRACED_UNKNOWN", ""))
	assert.Equal(t, "http://localhost|${MM_BASE}", s.Get("MM_TWICE", ""))
}

func TestStore_Load(t *testing.T) {
	unsetAfter(t, "MM_FROM_FILE")

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("MM_FROM_FILE=yes\n"), 0o600))

	s := NewStore()
	require.NoError(t, s.Load(path))
	assert.Equal(t, "yes", s.Get("MM_FROM_FILE", "no"))

	err := s.Load(filepath.Join(dir, "missing.env"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "missing.env")
}

func TestStore_GetFallsBackToProcessEnvironment(t *testing.T) {
	t.Setenv("MM_PROCESS_ONLY", "from-process")

	s := NewStore()
	assert.Equal(t, "from-process", s.Get("MM_PROCESS_ONLY", "default"))
	assert.Equal(t, "default", s.Get("MM_DEFINITELY_UNSET", "default"))
	assert.True(t, s.Has("MM_PROCESS_ONLY"))
	assert.False(t, s.Has("MM_DEFINITELY_UNSET"))
}

func TestStore_Clear(t *testing.T) {
	unsetAfter(t, "MM_CLEARED")

	s := NewStore()
	require.NoError(t, s.Parse(strings.NewReader("MM_CLEARED=1")))
	s.Clear()

	assert.False(t, s.IsLoaded())
	assert.Empty(t, s.All())
}

func TestStore_Environment(t *testing.T) {
	tests := []struct {
		value    string
		expected Environment
	}{
		{"local", EnvironmentLocal},
		{"testing", EnvironmentTesting},
		{"Staging", EnvironmentStaging},
		{"production", EnvironmentProduction},
		{"nonsense", EnvironmentProduction},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("APP_ENV", tt.value)
			assert.Equal(t, tt.expected, NewStore().Environment())
		})
	}

	t.Run("unset", func(t *testing.T) {
		t.Setenv("APP_ENV", "")
		_ = os.Unsetenv("APP_ENV")
		assert.Equal(t, EnvironmentProduction, NewStore().Environment())
	})
}

func TestEnvironmentString(t *testing.T) {
	e, err := EnvironmentString("testing")
	require.NoError(t, err)
	assert.Equal(t, EnvironmentTesting, e)
	assert.Equal(t, "testing", e.String())

	_, err = EnvironmentString("qa")
	assert.Error(t, err)
	assert.Equal(t, []string{"local", "testing", "staging", "production"}, EnvironmentStrings())
}
