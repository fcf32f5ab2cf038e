package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add klapper index", "add_klapper_index"},
		{"Add-Klapper-Index", "add_klapper_index"},
		{"add__invoice__iban", "add_invoice_iban"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	first, err := Create(dir, "add klapper index", "Speeds up letter lookups", now)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, "000001_add_klapper_index.up.sql", filepath.Base(first.UpPath))
	assert.Equal(t, "000001_add_klapper_index.down.sql", filepath.Base(first.DownPath))

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "Speeds up letter lookups")
	assert.Contains(t, string(up), "2026-02-03T04:05:06Z")

	second, err := Create(dir, "Invoice IBAN", "", now)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
	assert.True(t, strings.HasSuffix(second.UpPath, "000002_invoice_iban.up.sql"))

	_, err = Create(dir, "!!!", "", now)
	assert.Error(t, err)
}

func TestCreate_NestedDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "db", "migrations")
	_, err := Create(nested, "init", "", time.Now())
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestList(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_add_flags.up.sql":     {Data: []byte("--")},
		"000001_init_schema.up.sql":   {Data: []byte("--")},
		"000001_init_schema.down.sql": {Data: []byte("--")},
		"README.md":                   {Data: []byte("docs")},
		"abc_broken.up.sql":           {Data: []byte("--")},
		"subdir.up.sql/file":          {Data: []byte("--")},
	}

	entries, err := List(fsys)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Version: 1, Name: "init_schema", HasDown: true}, entries[0])
	assert.Equal(t, Entry{Version: 2, Name: "add_flags", HasDown: false}, entries[1])
}

func TestList_MissingDirectory(t *testing.T) {
	entries, err := List(os.DirFS(filepath.Join(t.TempDir(), "missing")))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEmbedded_IsContiguousAndReversible(t *testing.T) {
	entries, err := Embedded()
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Version, "migration versions must have no gaps")
		assert.True(t, e.HasDown, "migration %06d_%s has no down file", e.Version, e.Name)
	}
}
