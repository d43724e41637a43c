package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathsFor(t *testing.T) {
	base := t.TempDir()
	p := PathsFor(base)

	assert.Equal(t, base, p.ExecutableDir)
	assert.Equal(t, filepath.Join(base, "data"), p.DataDir)
	assert.Equal(t, filepath.Join(base, "data", "reports"), p.ReportsDir)
	assert.Equal(t, filepath.Join(base, "data", "reports", "memberships.csv"), p.MembershipsCSV)
	assert.Equal(t, filepath.Join(base, "data", "reports", "constituents.csv"), p.ConstituentsCSV)
	assert.Equal(t, filepath.Join(base, "logs"), p.LogsDir)
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	p := PathsFor(base)

	require.NoError(t, p.EnsureDirectories())

	for _, dir := range []string{p.DataDir, p.RawDir, p.ReportsDir, p.CacheDir, p.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err, "directory %s should exist", dir)
		assert.True(t, info.IsDir())
	}
}

func TestPathHelpers(t *testing.T) {
	p := PathsFor("/base")

	assert.Equal(t, filepath.Join("/base", "data", "reports", "x.csv"), p.GetReportPath("x.csv"))
	assert.Equal(t, filepath.Join("/base", "data", "raw", "page.html"), p.GetRawPath("page.html"))
	assert.Equal(t, filepath.Join("/base", "data", "cache", "tmp"), p.GetCachePath("tmp"))
	assert.Equal(t, filepath.Join("/base", "logs", "web.log"), p.GetLogPath("web.log"))

	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t,
		filepath.Join("/base", "data", "raw", "constituents_2024-03-15.html"),
		p.GetRawSnapshotPath(date))
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")

	assert.False(t, FileExists(file))
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir), "directories are not files")
}
