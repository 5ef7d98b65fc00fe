package mocks

import (
	"fmt"

	"github.com/mcdonaldj/rotlog/internal/config"
	"github.com/mcdonaldj/rotlog/internal/ports"
)

// MockHistoryService implements ports.HistoryService for testing.
type MockHistoryService struct {
	// ConfigResult is the config to return from LoadConfig
	ConfigResult *config.Config
	// ConfigError is the error to return from LoadConfig
	ConfigError error

	// Generations is the history to return from ListGenerations
	Generations []ports.Generation
	// GenerationsError is the error to return from ListGenerations
	GenerationsError error

	// Contents maps generation names to their contents
	Contents map[string][]byte
	// ReadErrors maps generation names to read errors
	ReadErrors map[string]error

	// Rotated is returned from Rotate
	Rotated bool
	// RotateError is the error to return from Rotate
	RotateError error

	// Call tracking
	LoadConfigCalls      int
	ListGenerationsCalls int
	ReadGenerationCalls  []string
	RotateCalls          int
}

// NewMockHistoryService creates a new mock history service.
func NewMockHistoryService() *MockHistoryService {
	return &MockHistoryService{
		ConfigResult: &config.Config{Name: "app", Directory: "/logs"},
		Contents:     make(map[string][]byte),
		ReadErrors:   make(map[string]error),
	}
}

// LoadConfig loads the application configuration.
func (m *MockHistoryService) LoadConfig() (*config.Config, error) {
	m.LoadConfigCalls++
	if m.ConfigError != nil {
		return nil, m.ConfigError
	}
	return m.ConfigResult, nil
}

// ListGenerations returns the configured history.
func (m *MockHistoryService) ListGenerations(cfg *config.Config) ([]ports.Generation, error) {
	m.ListGenerationsCalls++
	if m.GenerationsError != nil {
		return nil, m.GenerationsError
	}
	return m.Generations, nil
}

// ReadGeneration returns the contents registered for g.Name.
func (m *MockHistoryService) ReadGeneration(cfg *config.Config, g ports.Generation) ([]byte, error) {
	m.ReadGenerationCalls = append(m.ReadGenerationCalls, g.Name)
	if err, ok := m.ReadErrors[g.Name]; ok {
		return nil, err
	}
	content, ok := m.Contents[g.Name]
	if !ok {
		return nil, fmt.Errorf("no contents for %s", g.Name)
	}
	return content, nil
}

// Rotate records the call and returns the configured outcome.
func (m *MockHistoryService) Rotate(cfg *config.Config) (bool, error) {
	m.RotateCalls++
	if m.RotateError != nil {
		return false, m.RotateError
	}
	return m.Rotated, nil
}

// Compile-time check that MockHistoryService implements ports.HistoryService.
var _ ports.HistoryService = (*MockHistoryService)(nil)
