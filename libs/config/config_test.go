package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedGetters(t *testing.T) {
	t.Setenv("CFG_INT", "42")
	t.Setenv("CFG_BAD_INT", "forty")
	t.Setenv("CFG_BOOL", "yes")
	t.Setenv("CFG_DUR", "90s")
	t.Setenv("CFG_NEG_DUR", "-1s")
	t.Setenv("CFG_LIST", " a, ,b ,c")

	assert.Equal(t, 42, Int("CFG_INT", 1))
	assert.Equal(t, 1, Int("CFG_BAD_INT", 1))
	assert.Equal(t, 7, Int("CFG_MISSING", 7))
	assert.True(t, Bool("CFG_BOOL", false))
	assert.True(t, Bool("CFG_MISSING", true))
	assert.Equal(t, 90*time.Second, Duration("CFG_DUR", time.Minute))
	assert.Equal(t, time.Minute, Duration("CFG_NEG_DUR", time.Minute))
	assert.Equal(t, []string{"a", "b", "c"}, List("CFG_LIST", ""))
}

func TestPort(t *testing.T) {
	t.Setenv("CFG_PORT", "70000")
	_, err := Port("CFG_PORT", "8080")
	require.Error(t, err)

	p, err := Port("CFG_PORT_MISSING", "8080")
	require.NoError(t, err)
	assert.Equal(t, "8080", p)
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CFG_DOTENV_NEW=from-file\nCFG_DOTENV_SET=from-file\n"), 0o600))

	t.Setenv("CFG_DOTENV_SET", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("CFG_DOTENV_NEW") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("CFG_DOTENV_NEW"))
	assert.Equal(t, "from-env", os.Getenv("CFG_DOTENV_SET"))
}
