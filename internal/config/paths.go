package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Paths contains all the application paths.
// This is the single source of truth for every file path in the application.
type Paths struct {
	ExecutableDir string
	DataDir       string
	RawDir        string
	ReportsDir    string
	CacheDir      string
	LogsDir       string

	// Well-known artifact files
	ConstituentsCSV string
	ChangesCSV      string
	MembershipsCSV  string
	MembershipsXLSX string
	IndexCSV        string
}

// GetPaths returns the application paths relative to the executable location.
// Paths are always anchored to the executable directory, never the working
// directory, so the tools behave the same regardless of where they are run.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return PathsFor(filepath.Dir(exe)), nil
}

// PathsFor builds the path set anchored at baseDir. Split out from GetPaths
// so tests can anchor everything in a temp dir.
//
// Directory structure:
//
//	baseDir/
//	  ├── data/
//	  │   ├── raw/       (scraped HTML snapshots)
//	  │   ├── reports/   (CSV and XLSX artifacts)
//	  │   └── cache/     (temporary files)
//	  └── logs/
func PathsFor(baseDir string) *Paths {
	dataDir := filepath.Join(baseDir, "data")
	reportsDir := filepath.Join(dataDir, "reports")

	return &Paths{
		ExecutableDir: baseDir,
		DataDir:       dataDir,
		RawDir:        filepath.Join(dataDir, "raw"),
		ReportsDir:    reportsDir,
		CacheDir:      filepath.Join(dataDir, "cache"),
		LogsDir:       filepath.Join(baseDir, "logs"),

		ConstituentsCSV: filepath.Join(reportsDir, "constituents.csv"),
		ChangesCSV:      filepath.Join(reportsDir, "changes.csv"),
		MembershipsCSV:  filepath.Join(reportsDir, "memberships.csv"),
		MembershipsXLSX: filepath.Join(reportsDir, "memberships.xlsx"),
		IndexCSV:        filepath.Join(reportsDir, "indexes.csv"),
	}
}

// EnsureDirectories creates all required directories if they do not exist
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.DataDir,
		p.RawDir,
		p.ReportsDir,
		p.CacheDir,
		p.LogsDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// GetReportPath returns the path to a file in the reports directory
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetRawPath returns the path to a file in the raw snapshots directory
func (p *Paths) GetRawPath(filename string) string {
	return filepath.Join(p.RawDir, filename)
}

// GetCachePath returns the path to a file in the cache directory
func (p *Paths) GetCachePath(filename string) string {
	return filepath.Join(p.CacheDir, filename)
}

// GetLogPath returns the path to a file in the logs directory
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetRawSnapshotPath returns the dated path for a scraped HTML snapshot
func (p *Paths) GetRawSnapshotPath(date time.Time) string {
	return filepath.Join(p.RawDir, fmt.Sprintf("constituents_%s.html", date.Format("2006-01-02")))
}

// FileExists checks if a file exists and is not a directory
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
