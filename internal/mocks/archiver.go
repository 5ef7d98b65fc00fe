package mocks

import (
	"errors"
	"fmt"
	"hash/crc32"
	"path/filepath"
	"sort"

	"github.com/mcdonaldj/rotlog/internal/ports"
)

// ErrNoArchive is returned when an operation targets an archive the mock does not hold.
var ErrNoArchive = errors.New("mock archive not found")

// MockArchiver implements ports.Archiver for testing.
// When FS is set, archives are kept in memory and moved to and from it,
// so Create/Append/Extract behave like the real adapter.
type MockArchiver struct {
	// FS is the filesystem members are read from and extracted into
	FS *MockFileSystem
	// Archives maps zip paths to member name -> content
	Archives map[string]map[string][]byte
	// CreateCalls records calls to Create
	CreateCalls []CreateCall
	// AppendCalls records calls to Append
	AppendCalls []AppendCall
	// ExtractCalls records calls to Extract
	ExtractCalls []ExtractCall
	// Errors maps method names to errors
	Errors map[string]error
}

// CreateCall records parameters of a Create call.
type CreateCall struct {
	DestPath  string
	SourceDir string
}

// AppendCall records parameters of an Append call.
type AppendCall struct {
	ZipPath string
	Files   []string
}

// ExtractCall records parameters of an Extract call.
type ExtractCall struct {
	ZipPath string
	DestDir string
}

// NewMockArchiver creates a new mock archiver backed by fsys (may be nil).
func NewMockArchiver(fsys *MockFileSystem) *MockArchiver {
	return &MockArchiver{
		FS:       fsys,
		Archives: make(map[string]map[string][]byte),
		Errors:   make(map[string]error),
	}
}

// Create archives the regular files directly under sourceDir, replacing destPath.
func (m *MockArchiver) Create(destPath, sourceDir string) (int, error) {
	m.CreateCalls = append(m.CreateCalls, CreateCall{
		DestPath:  destPath,
		SourceDir: sourceDir,
	})
	if err, ok := m.Errors["Create"]; ok {
		return 0, err
	}

	members := make(map[string][]byte)
	if m.FS != nil {
		for path, content := range m.FS.Files {
			if filepath.Dir(path) == sourceDir {
				members[filepath.Base(path)] = append([]byte(nil), content...)
			}
		}
		m.FS.Files[destPath] = []byte("zip")
	}
	m.Archives[destPath] = members
	return len(members), nil
}

// Append adds files to the archive, creating it if absent.
func (m *MockArchiver) Append(zipPath string, files ...string) error {
	m.AppendCalls = append(m.AppendCalls, AppendCall{
		ZipPath: zipPath,
		Files:   files,
	})
	if err, ok := m.Errors["Append"]; ok {
		return err
	}

	members, ok := m.Archives[zipPath]
	if !ok {
		members = make(map[string][]byte)
		m.Archives[zipPath] = members
	}
	for _, f := range files {
		var content []byte
		if m.FS != nil {
			data, err := m.FS.ReadFile(f)
			if err != nil {
				return err
			}
			content = append([]byte(nil), data...)
		}
		members[filepath.Base(f)] = content
	}
	if m.FS != nil {
		m.FS.Files[zipPath] = []byte("zip")
	}
	return nil
}

// Extract writes every member into destDir.
func (m *MockArchiver) Extract(zipPath, destDir string) error {
	m.ExtractCalls = append(m.ExtractCalls, ExtractCall{
		ZipPath: zipPath,
		DestDir: destDir,
	})
	if err, ok := m.Errors["Extract"]; ok {
		return err
	}

	members, ok := m.Archives[zipPath]
	if !ok {
		return fmt.Errorf("%s: %w", zipPath, ErrNoArchive)
	}
	if m.FS != nil {
		for name, content := range members {
			m.FS.Files[filepath.Join(destDir, name)] = append([]byte(nil), content...)
		}
	}
	return nil
}

// List returns a map of member names to their info from the archive.
func (m *MockArchiver) List(zipPath string) (map[string]ports.FileInfo, error) {
	if err, ok := m.Errors["List"]; ok {
		return nil, err
	}
	members, ok := m.Archives[zipPath]
	if !ok {
		return nil, fmt.Errorf("%s: %w", zipPath, ErrNoArchive)
	}
	result := make(map[string]ports.FileInfo, len(members))
	for name, content := range members {
		result[name] = ports.FileInfo{
			Size:  int64(len(content)),
			CRC32: crc32.ChecksumIEEE(content),
		}
	}
	return result, nil
}

// ReadFile returns the contents of a member.
func (m *MockArchiver) ReadFile(zipPath, member string) ([]byte, error) {
	if err, ok := m.Errors["ReadFile"]; ok {
		return nil, err
	}
	members, ok := m.Archives[zipPath]
	if !ok {
		return nil, fmt.Errorf("%s: %w", zipPath, ErrNoArchive)
	}
	content, ok := members[member]
	if !ok {
		return nil, fmt.Errorf("file not found in archive: %s", member)
	}
	return content, nil
}

// Members returns the sorted member names of an archive.
func (m *MockArchiver) Members(zipPath string) []string {
	var names []string
	for name := range m.Archives[zipPath] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compile-time check that MockArchiver implements ports.Archiver.
var _ ports.Archiver = (*MockArchiver)(nil)
