// Package conventions has the default locations used by the installer.
package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default instl data directory name (relative to home).
	DefaultDataDir = ".instl"
	// DBFile is the install journal database filename.
	DBFile = "instl.db"
	// LogFile is the log filename used while the terminal UI owns the terminal.
	LogFile = "instl.log"
	// ManifestFile is the payload manifest filename looked up next to the installer.
	ManifestFile = "payload.yaml"
)

// DataDir returns the instl data directory inside a home directory.
func DataDir(home string) string {
	return filepath.Join(home, DefaultDataDir)
}

// DBPath returns the path of the install journal database.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, DBFile)
}

// LogPath returns the path of the log file.
func LogPath(dataDir string) string {
	return filepath.Join(dataDir, LogFile)
}
