package ports

// Archiver abstracts zip archive operations for testability.
// Production code uses ZipArchiver adapter; tests use MockArchiver.
type Archiver interface {
	// Create writes every regular file directly under sourceDir into a new
	// archive at destPath, replacing any existing archive.
	// Returns the number of files archived.
	Create(destPath, sourceDir string) (fileCount int, err error)

	// Append adds the given files to the archive at zipPath, creating it if absent.
	// Members are stored under their base names.
	Append(zipPath string, files ...string) error

	// Extract extracts a zip archive to destDir.
	Extract(zipPath, destDir string) error

	// List returns a map of member names to their info from the archive.
	List(zipPath string) (map[string]FileInfo, error)

	// ReadFile reads the contents of a member of a zip archive.
	ReadFile(zipPath, member string) ([]byte, error)
}

// FileInfo contains metadata about a file in an archive.
type FileInfo struct {
	Size  int64
	CRC32 uint32
}
