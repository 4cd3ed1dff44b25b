package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("one descriptor per section in file order", func(t *testing.T) {
		path := writeConfig(t, `
[Repo1]
url = git@host:upstream/repo1.git

[Repository Two]
url = https://example.com/upstream/two.git
owner = someone
`)
		registry, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 2, registry.Len())
		assert.Equal(t, []string{"Repo1", "Repository Two"}, registry.Titles())

		d, ok := registry.Get("Repo1")
		require.True(t, ok)
		assert.Equal(t, "git@host:upstream/repo1.git", d.UpstreamURL)

		d, ok = registry.Get("Repository Two")
		require.True(t, ok)
		assert.Equal(t, "https://example.com/upstream/two.git", d.UpstreamURL)
	})

	t.Run("reloading yields identical mapping", func(t *testing.T) {
		path := writeConfig(t, "[A]\nurl = git@host:a.git\n[B]\nurl: git@host:b.git\n")

		first, err := Load(path)
		require.NoError(t, err)
		second, err := NewManager(path).Load()
		require.NoError(t, err)

		assert.Equal(t, first.Map(), second.Map())
		assert.Equal(t, first.Titles(), second.Titles())
	})

	t.Run("key names are case insensitive", func(t *testing.T) {
		path := writeConfig(t, "[A]\nURL = git@host:a.git\n")
		registry, err := Load(path)
		require.NoError(t, err)

		d, _ := registry.Get("A")
		assert.Equal(t, "git@host:a.git", d.UpstreamURL)
	})

	t.Run("keys outside sections are ignored", func(t *testing.T) {
		path := writeConfig(t, "owner = me\n[A]\nurl = git@host:a.git\n")
		registry, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, registry.Titles())
	})

	t.Run("empty file has no repositories", func(t *testing.T) {
		registry, err := Load(writeConfig(t, ""))
		require.NoError(t, err)
		assert.Equal(t, 0, registry.Len())
	})
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		section string
		target  error
	}{
		{
			name:    "missing url",
			content: "[A]\nurl = git@host:a.git\n[B]\nowner = me\n",
			section: "B",
			target:  ErrMissingURL,
		},
		{
			name:    "empty url",
			content: "[A]\nurl =\n",
			section: "A",
			target:  ErrMissingURL,
		},
		{
			name:    "duplicate title",
			content: "[A]\nurl = git@host:a.git\n[A]\nurl = git@host:other.git\n",
			section: "A",
			target:  ErrDuplicateTitle,
		},
		{
			name:    "duplicate url key",
			content: "[A]\nurl = git@host:a.git\nurl = git@host:b.git\n",
			section: "A",
			target:  ErrDuplicateKey,
		},
		{
			name:    "url with different case twice",
			content: "[A]\nurl = git@host:a.git\nURL = git@host:b.git\n",
			section: "A",
			target:  ErrDuplicateKey,
		},
		{
			name:    "explicit DEFAULT section",
			content: "[DEFAULT]\nurl = git@host:d.git\n[A]\nurl = git@host:a.git\n",
			section: "DEFAULT",
			target:  ErrReservedTitle,
		},
		{
			name:    "url outside any section",
			content: "URL = git@host:d.git\n[A]\nurl = git@host:a.git\n",
			section: "DEFAULT",
			target:  ErrReservedTitle,
		},
		{
			name:    "unparseable url",
			content: "[A]\nurl = http://[::1\n",
			section: "A",
			target:  ErrInvalidURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			require.Error(t, err)

			var ce *ConfigError
			require.True(t, errors.As(err, &ce), "expected ConfigError, got %T", err)
			assert.Equal(t, path, ce.Path)
			assert.Equal(t, tt.section, ce.Section)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	t.Run("DEFAULT without url is not a repository", func(t *testing.T) {
		registry, err := Load(writeConfig(t, "[DEFAULT]\nowner = me\n[A]\nurl = git@host:a.git\n"))
		require.NoError(t, err)
		assert.Equal(t, 1, registry.Len())
	})

	t.Run("malformed content", func(t *testing.T) {
		_, err := Load(writeConfig(t, "[A\nurl = x\n"))
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})

	t.Run("whitespace inside url fails schema", func(t *testing.T) {
		_, err := Load(writeConfig(t, "[A]\nurl = git@host:a b.git\n"))
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
		assert.Contains(t, err.Error(), "schema validation failed")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.ini"))
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestRegistry_LookupURL(t *testing.T) {
	registry, err := Parse("inline", []byte("[A]\nurl = https://example.com/a.git/\n[B]\nurl = git@host:b.git\n"))
	require.NoError(t, err)

	d, ok := registry.LookupURL("https://example.com/a.git")
	require.True(t, ok)
	assert.Equal(t, "A", d.Title)

	d, ok = registry.LookupURL(" git@host:b.git ")
	require.True(t, ok)
	assert.Equal(t, "B", d.Title)

	_, ok = registry.LookupURL("git@host:unknown.git")
	assert.False(t, ok)
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		basedir string
		want    string
	}{
		{"default name under basedir", "", "/forks", filepath.Join("/forks", DefaultFile)},
		{"relative name under basedir", "repos.ini", "/forks", filepath.Join("/forks", "repos.ini")},
		{"absolute path kept", "/etc/forksync.ini", "/forks", "/etc/forksync.ini"},
		{"dot path kept", "./repos.ini", "/forks", "./repos.ini"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePath(tt.config, tt.basedir))
		})
	}
}
