package ports

import "github.com/mcdonaldj/rotlog/internal/config"

// Location tells where a log generation is stored.
type Location string

const (
	LocationDisk    Location = "disk"
	LocationArchive Location = "archive"
)

// Generation is one file in a log's history: the base file (sequence 0)
// or a rotated file, loose on disk or inside the archive.
type Generation struct {
	Name     string
	Sequence int
	Size     int64
	Location Location
}

// HistoryService provides operations needed by the TUI.
// This abstraction allows the TUI to be tested without a real log directory.
type HistoryService interface {
	// LoadConfig loads the application configuration.
	LoadConfig() (*config.Config, error)

	// ListGenerations returns the base file and every rotated file, newest first.
	ListGenerations(cfg *config.Config) ([]Generation, error)

	// ReadGeneration returns the contents of a single generation.
	ReadGeneration(cfg *config.Config, g Generation) ([]byte, error)

	// Rotate forces a rotation of the configured log.
	Rotate(cfg *config.Config) (bool, error)
}
