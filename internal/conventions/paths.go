package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default phenohunter data directory name (relative to home).
	DefaultDataDir = ".phenohunter"
	// DBFile is the SQLite database filename.
	DBFile = "phenohunter.db"
)

// DataDir returns the data directory for a home directory.
func DataDir(home string) string {
	return filepath.Join(home, DefaultDataDir)
}

// DBPath returns the default database path for a home directory.
func DBPath(home string) string {
	return filepath.Join(DataDir(home), DBFile)
}
