// Package historysvc provides the real implementation of ports.HistoryService.
package historysvc

import (
	"log/slog"

	"github.com/mcdonaldj/rotlog/internal/adapters/osfs"
	"github.com/mcdonaldj/rotlog/internal/adapters/ziparchiver"
	"github.com/mcdonaldj/rotlog/internal/config"
	"github.com/mcdonaldj/rotlog/internal/ports"
	"github.com/mcdonaldj/rotlog/internal/session"
)

// Service implements ports.HistoryService on top of session.Session.
type Service struct {
	configPath string
	fs         ports.FileSystem
	archiver   ports.Archiver
	log        *slog.Logger
}

// New creates a history service reading the config at configPath (empty for
// the default location) and working through the given dependencies.
func New(configPath string, fs ports.FileSystem, archiver ports.Archiver, log *slog.Logger) *Service {
	return &Service{
		configPath: configPath,
		fs:         fs,
		archiver:   archiver,
		log:        log,
	}
}

// NewDefault creates a history service over the real filesystem.
func NewDefault(configPath string, log *slog.Logger) *Service {
	return New(configPath, osfs.New(), ziparchiver.New(), log)
}

// LoadConfig loads the application configuration.
func (s *Service) LoadConfig() (*config.Config, error) {
	return config.Load(s.configPath)
}

// ListGenerations returns the base file and every rotated file, newest first.
func (s *Service) ListGenerations(cfg *config.Config) ([]ports.Generation, error) {
	sess, err := s.session(cfg)
	if err != nil {
		return nil, err
	}
	return sess.History()
}

// ReadGeneration returns the contents of a single generation.
func (s *Service) ReadGeneration(cfg *config.Config, g ports.Generation) ([]byte, error) {
	sess, err := s.session(cfg)
	if err != nil {
		return nil, err
	}
	return sess.ReadGeneration(g)
}

// Rotate forces a rotation of the configured log.
func (s *Service) Rotate(cfg *config.Config) (bool, error) {
	sess, err := s.session(cfg)
	if err != nil {
		return false, err
	}
	return sess.Rotate()
}

func (s *Service) session(cfg *config.Config) (*session.Session, error) {
	settings, err := session.SettingsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return session.New(settings, s.fs, s.archiver, session.WithLogger(s.log)), nil
}

// Compile-time check that Service implements ports.HistoryService.
var _ ports.HistoryService = (*Service)(nil)
