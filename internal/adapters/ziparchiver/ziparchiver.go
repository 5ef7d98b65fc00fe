// Package ziparchiver provides an archiver adapter using the archive/zip package.
package ziparchiver

import (
	"archive/zip"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/flate"

	"github.com/mcdonaldj/rotlog/internal/ports"
)

// ZipArchiver implements ports.Archiver using archive/zip, with deflate
// provided by klauspost/compress.
type ZipArchiver struct {
	level int
}

// Option is a functional option for configuring ZipArchiver.
type Option func(*ZipArchiver)

// WithLevel sets the deflate compression level.
func WithLevel(level int) Option {
	return func(a *ZipArchiver) {
		a.level = level
	}
}

// New creates a new ZipArchiver adapter.
func New(opts ...Option) *ZipArchiver {
	a := &ZipArchiver{level: flate.DefaultCompression}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *ZipArchiver) newWriter(w io.Writer) *zip.Writer {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, a.level)
	})
	return zw
}

func openReader(zipPath string) (*zip.ReadCloser, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, err
	}
	r.RegisterDecompressor(zip.Deflate, flate.NewReader)
	return r, nil
}

// Create writes every regular file directly under sourceDir into a new
// archive at destPath. The archive is built beside destPath and renamed over
// it, so a failed Create leaves any previous archive in place.
// Returns the number of files archived.
func (a *ZipArchiver) Create(destPath, sourceDir string) (int, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return 0, err
	}

	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			files = append(files, filepath.Join(sourceDir, entry.Name()))
		}
	}
	sort.Strings(files)

	err = a.replace(destPath, func(w *zip.Writer) error {
		for _, path := range files {
			if err := addFile(w, path); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(files), nil
}

// Append adds files to the archive at zipPath, creating it if absent.
// A member with the same base name as an added file is replaced.
func (a *ZipArchiver) Append(zipPath string, files ...string) error {
	replaced := make(map[string]bool, len(files))
	for _, f := range files {
		replaced[filepath.Base(f)] = true
	}

	var existing *zip.ReadCloser
	if _, err := os.Stat(zipPath); err == nil {
		if existing, err = openReader(zipPath); err != nil {
			return fmt.Errorf("opening %s: %w", zipPath, err)
		}
		defer func() {
			if existing != nil {
				_ = existing.Close()
			}
		}()
	} else if !os.IsNotExist(err) {
		return err
	}

	return a.replace(zipPath, func(w *zip.Writer) error {
		if existing != nil {
			for _, f := range existing.File {
				if replaced[f.Name] {
					continue
				}
				// Copy keeps the compressed bytes as they are
				if err := w.Copy(f); err != nil {
					return fmt.Errorf("copying %s: %w", f.Name, err)
				}
			}
			// Release the old archive before it is renamed over
			_ = existing.Close()
			existing = nil
		}
		for _, path := range files {
			if err := addFile(w, path); err != nil {
				return err
			}
		}
		return nil
	})
}

// replace builds an archive at zipPath+".tmp" with fill and renames it over zipPath.
func (a *ZipArchiver) replace(zipPath string, fill func(*zip.Writer) error) error {
	tmpPath := zipPath + ".tmp"
	zipFile, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	w := a.newWriter(zipFile)
	if err := fill(w); err != nil {
		_ = w.Close()
		_ = zipFile.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	// Close zip writer first to flush data
	if closeErr := w.Close(); closeErr != nil {
		_ = zipFile.Close() // Best effort cleanup on error path
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing zip writer: %w", closeErr)
	}

	// Then close the file
	if closeErr := zipFile.Close(); closeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing zip file: %w", closeErr)
	}

	return os.Rename(tmpPath, zipPath)
}

// addFile stores path under its base name.
func addFile(w *zip.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(path)
	header.Method = zip.Deflate

	writer, err := w.CreateHeader(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(writer, file); err != nil {
		return fmt.Errorf("adding %s: %w", path, err)
	}
	return nil
}

// Extract extracts a zip archive to destDir.
func (a *ZipArchiver) Extract(zipPath, destDir string) error {
	r, err := openReader(zipPath)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	// Get cleaned absolute path for destination
	absDestDir, err := filepath.Abs(destDir)
	if err != nil {
		return fmt.Errorf("resolving destination path: %w", err)
	}
	absDestDir = filepath.Clean(absDestDir)

	for _, f := range r.File {
		// SECURITY: Block symlinks to prevent symlink attacks
		if f.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("symlinks not supported in archives: %s", f.Name)
		}

		fpath := filepath.Join(destDir, f.Name)

		// SECURITY: Check for ZipSlip vulnerability
		if !isWithinDir(absDestDir, fpath) {
			return fmt.Errorf("invalid file path (path traversal detected): %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, 0755); err != nil {
				return fmt.Errorf("creating directory %s: %w", fpath, err)
			}
			continue
		}

		// Create parent directories
		if err := os.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
			return fmt.Errorf("creating parent directory for %s: %w", fpath, err)
		}

		if err := extractFile(f, fpath); err != nil {
			return fmt.Errorf("extracting %s: %w", f.Name, err)
		}
	}

	return nil
}

// MaxDecompressSize is the maximum allowed uncompressed member size (10GB).
// This prevents decompression bomb attacks (G110).
const MaxDecompressSize = 10 * 1024 * 1024 * 1024 // 10GB

// extractFile extracts a single file from the zip.
func extractFile(f *zip.File, destPath string) error {
	// SECURITY: Limit decompression size to prevent zip bombs (G110)
	declaredSize := f.UncompressedSize64
	if declaredSize > MaxDecompressSize {
		return fmt.Errorf("file too large: %d bytes exceeds limit of %d bytes", declaredSize, MaxDecompressSize)
	}

	perm := f.Mode().Perm()
	if perm == 0 {
		perm = 0644
	}
	outFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() { _ = outFile.Close() }()

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	// Add 1 byte to detect if actual size exceeds declared size
	limitedReader := io.LimitReader(rc, int64(declaredSize)+1)
	written, err := io.Copy(outFile, limitedReader)
	if err != nil {
		return err
	}

	// Check if more data was available than declared (corrupted/malicious zip)
	if written > int64(declaredSize) {
		return fmt.Errorf("decompressed size exceeds declared size")
	}

	return outFile.Close()
}

// isWithinDir checks if the target path is within the base directory.
func isWithinDir(absBaseDir, targetPath string) bool {
	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return false
	}
	absTarget = filepath.Clean(absTarget)

	return strings.HasPrefix(absTarget, absBaseDir+string(filepath.Separator)) ||
		absTarget == absBaseDir
}

// List returns a map of member names to their info from the archive.
func (a *ZipArchiver) List(zipPath string) (map[string]ports.FileInfo, error) {
	r, err := openReader(zipPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	files := make(map[string]ports.FileInfo)
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}

		// Safe conversion: check for overflow before uint64 -> int64
		size := int64(0)
		if f.UncompressedSize64 <= math.MaxInt64 {
			size = int64(f.UncompressedSize64)
		}
		files[f.Name] = ports.FileInfo{
			Size:  size,
			CRC32: f.CRC32,
		}
	}

	return files, nil
}

// ReadFile reads the contents of a member of a zip archive.
func (a *ZipArchiver) ReadFile(zipPath, member string) ([]byte, error) {
	r, err := openReader(zipPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	for _, f := range r.File {
		if f.Name != member {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer func() { _ = rc.Close() }()

		return io.ReadAll(io.LimitReader(rc, MaxDecompressSize))
	}

	return nil, fmt.Errorf("file not found in archive: %s", member)
}

// Compile-time check that ZipArchiver implements ports.Archiver.
var _ ports.Archiver = (*ZipArchiver)(nil)
