// Package logfile names the files that make up one log's history and
// derives them from directory listings.
package logfile

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/mcdonaldj/rotlog/internal/ports"
)

// Ext is the extension shared by the base file and numbered files.
const Ext = ".log"

// Layout locates a log: <Dir>/<Name>.log, <Dir>/<Name>.<N>.log and
// <Dir>/<Name>-archive.zip.
type Layout struct {
	Name string
	Dir  string
}

// BasePath returns the path of the active log file.
func (l Layout) BasePath() string {
	return filepath.Join(l.Dir, BaseName(l.Name))
}

// NumberedPath returns the path of rotated file seq inside dir.
func (l Layout) NumberedPath(dir string, seq int) string {
	return filepath.Join(dir, NumberedName(l.Name, seq))
}

// ArchivePath returns the path of the history archive.
func (l Layout) ArchivePath() string {
	return filepath.Join(l.Dir, l.Name+"-archive.zip")
}

// Base returns a Ref for the base file. Size is left zero.
func (l Layout) Base() Ref {
	return Ref{Name: l.Name, Dir: l.Dir}
}

func BaseName(name string) string {
	return name + Ext
}

func NumberedName(name string, seq int) string {
	return fmt.Sprintf("%s.%d%s", name, seq, Ext)
}

// Ref is a single file in a log's history. Sequence 0 is the base file.
type Ref struct {
	Name     string
	Dir      string
	Sequence int
	Size     int64
}

// Path returns the on-disk location of the file.
func (r Ref) Path() string {
	if r.Sequence == 0 {
		return filepath.Join(r.Dir, BaseName(r.Name))
	}
	return filepath.Join(r.Dir, NumberedName(r.Name, r.Sequence))
}

// Sequence parses a file name of the form <name>.<N>.log and reports N.
// N must be a positive decimal integer.
func Sequence(name, fileName string) (int, bool) {
	m := numberedPattern(name).FindStringSubmatch(fileName)
	if m == nil {
		return 0, false
	}
	seq, err := strconv.Atoi(m[1])
	if err != nil || seq < 1 {
		return 0, false
	}
	return seq, true
}

func numberedPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(name) + `\.(\d+)` + regexp.QuoteMeta(Ext) + `$`)
}

// ListNumbered returns the numbered files for name in dir, sorted ascending
// by sequence. A missing directory yields an empty listing.
func ListNumbered(fsys ports.FileSystem, dir, name string) ([]Ref, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var refs []Ref
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		seq, ok := Sequence(name, entry.Name())
		if !ok {
			continue
		}
		ref := Ref{Name: name, Dir: dir, Sequence: seq}
		if info, err := entry.Info(); err == nil {
			ref.Size = info.Size()
		}
		refs = append(refs, ref)
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Sequence < refs[j].Sequence })
	return refs, nil
}

// FormatSize formats a byte count as human-readable string.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
