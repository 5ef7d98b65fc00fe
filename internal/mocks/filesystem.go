// Package mocks provides mock implementations for testing.
package mocks

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mcdonaldj/rotlog/internal/ports"
)

// MockFileSystem implements ports.FileSystem for testing.
type MockFileSystem struct {
	// Files maps paths to file contents
	Files map[string][]byte
	// Dirs maps paths to explicit directory entries for ReadDir.
	// Directories without an entry here are synthesized from Files.
	Dirs map[string][]os.DirEntry
	// Stats maps paths to FileInfo for Stat
	Stats map[string]os.FileInfo
	// BirthTimes maps paths to creation times for BirthTime
	BirthTimes map[string]time.Time
	// Errors maps paths to errors (for simulating failures)
	Errors map[string]error
	// AppendErrors is consumed one entry per AppendFile call; a nil entry succeeds.
	AppendErrors []error
	// Calls records mutating operations in order, e.g. "rename a -> b".
	Calls []string
}

// NewMockFileSystem creates a new mock filesystem.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		Files:      make(map[string][]byte),
		Dirs:       make(map[string][]os.DirEntry),
		Stats:      make(map[string]os.FileInfo),
		BirthTimes: make(map[string]time.Time),
		Errors:     make(map[string]error),
	}
}

// ReadDir reads the named directory and returns directory entries.
func (m *MockFileSystem) ReadDir(name string) ([]os.DirEntry, error) {
	if err, ok := m.Errors[name]; ok {
		return nil, err
	}
	if entries, ok := m.Dirs[name]; ok {
		return entries, nil
	}

	var entries []os.DirEntry
	for path, content := range m.Files {
		if filepath.Dir(path) == name {
			entries = append(entries, &DirEntry{
				info: &mockFileInfo{name: filepath.Base(path), size: int64(len(content))},
			})
		}
	}
	if entries == nil {
		if info, ok := m.Stats[name]; ok && info.IsDir() {
			return nil, nil
		}
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// Stat returns file info for the named file.
func (m *MockFileSystem) Stat(name string) (os.FileInfo, error) {
	if err, ok := m.Errors[name]; ok {
		return nil, err
	}
	if info, ok := m.Stats[name]; ok {
		return info, nil
	}
	// Check if we have file content (implies file exists)
	if content, ok := m.Files[name]; ok {
		return &mockFileInfo{name: filepath.Base(name), size: int64(len(content))}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

// BirthTime returns the configured creation time, or the zero time for a file
// that exists without one.
func (m *MockFileSystem) BirthTime(name string) (time.Time, error) {
	if err, ok := m.Errors[name]; ok {
		return time.Time{}, err
	}
	if t, ok := m.BirthTimes[name]; ok {
		return t, nil
	}
	if _, err := m.Stat(name); err != nil {
		return time.Time{}, err
	}
	return time.Time{}, nil
}

// MkdirAll creates a directory along with any necessary parents.
func (m *MockFileSystem) MkdirAll(path string, perm os.FileMode) error {
	if err, ok := m.Errors[path]; ok {
		return err
	}
	m.Calls = append(m.Calls, "mkdir "+path)
	// Mark directory as existing
	m.Stats[path] = &mockFileInfo{name: filepath.Base(path), isDir: true}
	return nil
}

// WriteFile writes data to the named file, creating it if necessary.
func (m *MockFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	if err, ok := m.Errors[name]; ok {
		return err
	}
	m.Calls = append(m.Calls, "write "+name)
	m.Files[name] = append([]byte(nil), data...)
	return nil
}

// AppendFile appends data to the named file, creating it if necessary.
func (m *MockFileSystem) AppendFile(name string, data []byte) error {
	if len(m.AppendErrors) > 0 {
		err := m.AppendErrors[0]
		m.AppendErrors = m.AppendErrors[1:]
		if err != nil {
			return err
		}
	}
	if err, ok := m.Errors[name]; ok {
		return err
	}
	m.Calls = append(m.Calls, "append "+name)
	m.Files[name] = append(m.Files[name], data...)
	return nil
}

// ReadFile reads the named file and returns the contents.
func (m *MockFileSystem) ReadFile(name string) ([]byte, error) {
	if err, ok := m.Errors[name]; ok {
		return nil, err
	}
	if content, ok := m.Files[name]; ok {
		return content, nil
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// Remove removes the named file or empty directory.
func (m *MockFileSystem) Remove(name string) error {
	if err, ok := m.Errors[name]; ok {
		return err
	}
	_, isFile := m.Files[name]
	_, hasStat := m.Stats[name]
	if !isFile && !hasStat {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	m.Calls = append(m.Calls, "remove "+name)
	delete(m.Files, name)
	delete(m.Stats, name)
	delete(m.BirthTimes, name)
	return nil
}

// RemoveAll removes path and any children it contains.
func (m *MockFileSystem) RemoveAll(path string) error {
	if err, ok := m.Errors[path]; ok {
		return err
	}
	m.Calls = append(m.Calls, "removeall "+path)
	prefix := path + string(filepath.Separator)
	for k := range m.Files {
		if k == path || strings.HasPrefix(k, prefix) {
			delete(m.Files, k)
		}
	}
	for k := range m.Stats {
		if k == path || strings.HasPrefix(k, prefix) {
			delete(m.Stats, k)
		}
	}
	return nil
}

// Rename renames (moves) oldpath to newpath.
func (m *MockFileSystem) Rename(oldpath, newpath string) error {
	if err, ok := m.Errors[oldpath]; ok {
		return err
	}
	content, isFile := m.Files[oldpath]
	info, hasStat := m.Stats[oldpath]
	if !isFile && !hasStat {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: fs.ErrNotExist}
	}
	m.Calls = append(m.Calls, "rename "+oldpath+" -> "+newpath)
	if isFile {
		m.Files[newpath] = content
		delete(m.Files, oldpath)
	}
	if hasStat {
		m.Stats[newpath] = info
		delete(m.Stats, oldpath)
	}
	if t, ok := m.BirthTimes[oldpath]; ok {
		m.BirthTimes[newpath] = t
		delete(m.BirthTimes, oldpath)
	}
	return nil
}

// Exists reports whether a file is present at path.
func (m *MockFileSystem) Exists(path string) bool {
	_, ok := m.Files[path]
	return ok
}

// DirEntry implements os.DirEntry for testing.
type DirEntry struct {
	info *mockFileInfo
}

// NewDirEntry returns a directory entry for a file or directory of the given size.
func NewDirEntry(name string, size int64, isDir bool) *DirEntry {
	return &DirEntry{info: &mockFileInfo{name: name, size: size, isDir: isDir}}
}

func (d *DirEntry) Name() string { return d.info.name }
func (d *DirEntry) IsDir() bool  { return d.info.isDir }
func (d *DirEntry) Type() fs.FileMode {
	if d.info.isDir {
		return fs.ModeDir
	}
	return 0
}
func (d *DirEntry) Info() (fs.FileInfo, error) { return d.info, nil }

// NewFileInfo returns a FileInfo for seeding Stats.
func NewFileInfo(name string, size int64, modTime time.Time) os.FileInfo {
	return &mockFileInfo{name: name, size: size, modTime: modTime}
}

// mockFileInfo implements os.FileInfo for testing.
type mockFileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
	isDir   bool
}

func (fi *mockFileInfo) Name() string       { return fi.name }
func (fi *mockFileInfo) Size() int64        { return fi.size }
func (fi *mockFileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *mockFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *mockFileInfo) IsDir() bool        { return fi.isDir }
func (fi *mockFileInfo) Sys() interface{}   { return nil }

// Compile-time check that MockFileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*MockFileSystem)(nil)
