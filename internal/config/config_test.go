package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SDLPACK_PROJECT", "SDLPACK_VENDOR", "SDLPACK_VERSION", "SDLPACK_DOCS",
		"SDLPACK_CONFIGURATION", "SDLPACK_S3_USE_SSL", "SDLPACK_S3_BUCKET",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	c, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "SDL3", c.Project)
	assert.Equal(t, "Release", c.Configuration)
	assert.Equal(t, ArchiverNuGet, c.Archiver)
	assert.Equal(t, []string{"LICENSE.txt", "README.md", "WhatsNew.txt", "BUGS.txt"}, c.Docs)
	assert.True(t, c.Publish.UseSSL)
	require.NoError(t, c.Validate())
}

func TestLoadDotEnvAndEnvPriority(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	dotenv := "SDLPACK_VENDOR=from-file\nSDLPACK_VERSION=1.2.3\nSDLPACK_DOCS=A.txt, B.md\nSDLPACK_S3_USE_SSL=false\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte(dotenv), 0o644))
	t.Setenv("SDLPACK_VERSION", "2.0.0")

	c, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, root, c.Root)
	assert.Equal(t, "from-file", c.Vendor)
	assert.Equal(t, "2.0.0", c.Version, "environment wins over .env")
	assert.Equal(t, []string{"A.txt", "B.md"}, c.Docs)
	assert.False(t, c.Publish.UseSSL)
}

func TestLoadBadBool(t *testing.T) {
	clearEnv(t)
	t.Setenv("SDLPACK_S3_USE_SSL", "maybe")
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"configuration", func(c *Config) { c.Configuration = "RelWithDebInfo" }},
		{"archiver", func(c *Config) { c.Archiver = "tar" }},
		{"project", func(c *Config) { c.Project = "" }},
		{"project path", func(c *Config) { c.Project = "a/b" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			assert.ErrorIs(t, c.Validate(), ErrInvalid)
		})
	}
}
