// Package archive keeps a log's rotated files inside a single zip archive.
//
// On the first archived rotation the files are rolled on disk and then moved
// into a new archive. Later rotations extract the archive into a scratch
// directory, roll there, and repack the whole directory over the archive.
package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/mcdonaldj/rotlog/internal/logfile"
	"github.com/mcdonaldj/rotlog/internal/ports"
	"github.com/mcdonaldj/rotlog/internal/roller"
)

// Manager performs archive-backed rotations.
type Manager struct {
	fs       ports.FileSystem
	archiver ports.Archiver
	roller   *roller.Roller
	scratch  string
	log      *slog.Logger
}

// New creates a Manager. scratchRoot is the shared directory extractions are
// made under; each log name gets its own subdirectory. A nil logger discards output.
func New(fs ports.FileSystem, archiver ports.Archiver, r *roller.Roller, scratchRoot string, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		fs:       fs,
		archiver: archiver,
		roller:   r,
		scratch:  scratchRoot,
		log:      log,
	}
}

// ScratchDir returns the extraction directory used for layout.
func (m *Manager) ScratchDir(layout logfile.Layout) string {
	return filepath.Join(m.scratch, layout.Name)
}

// Rotate rolls the base file into the archive. Errors are returned as soon as
// they happen; the archive and scratch directory are left as they were at
// that point.
func (m *Manager) Rotate(layout logfile.Layout, ret roller.Retention) (bool, error) {
	exists, err := m.archiveExists(layout)
	if err != nil {
		return false, err
	}
	if !exists {
		return m.firstRotation(layout, ret)
	}
	return m.repack(layout, ret)
}

func (m *Manager) archiveExists(layout logfile.Layout) (bool, error) {
	if _, err := m.fs.Stat(layout.ArchivePath()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("checking archive %s: %w", layout.ArchivePath(), err)
	}
	return true, nil
}

// firstRotation rolls on disk, then moves every numbered file into a new archive.
func (m *Manager) firstRotation(layout logfile.Layout, ret roller.Retention) (bool, error) {
	numbered, err := logfile.ListNumbered(m.fs, layout.Dir, layout.Name)
	if err != nil {
		return false, err
	}
	if _, err := m.roller.Roll(layout.Base(), numbered, layout.Dir, ret); err != nil {
		return false, err
	}

	numbered, err = logfile.ListNumbered(m.fs, layout.Dir, layout.Name)
	if err != nil {
		return false, err
	}
	archivePath := layout.ArchivePath()
	for _, ref := range numbered {
		if err := m.archiver.Append(archivePath, ref.Path()); err != nil {
			return false, fmt.Errorf("archiving %s: %w", ref.Path(), err)
		}
		if err := m.fs.Remove(ref.Path()); err != nil {
			return false, fmt.Errorf("removing archived %s: %w", ref.Path(), err)
		}
	}

	m.log.Info("created log archive", "archive", archivePath, "files", len(numbered))
	return true, nil
}

// repack extracts the archive, rolls inside the scratch directory and packs
// the result back over the archive.
func (m *Manager) repack(layout logfile.Layout, ret roller.Retention) (bool, error) {
	archivePath := layout.ArchivePath()
	scratch := m.ScratchDir(layout)

	// Leftovers from an interrupted run would be packed back in
	if err := m.fs.RemoveAll(scratch); err != nil {
		return false, fmt.Errorf("clearing scratch directory %s: %w", scratch, err)
	}
	if err := m.fs.MkdirAll(scratch, 0755); err != nil {
		return false, fmt.Errorf("creating scratch directory %s: %w", scratch, err)
	}
	if err := m.archiver.Extract(archivePath, scratch); err != nil {
		return false, fmt.Errorf("extracting %s: %w", archivePath, err)
	}

	numbered, err := logfile.ListNumbered(m.fs, scratch, layout.Name)
	if err != nil {
		return false, err
	}
	rotated, err := m.roller.Roll(layout.Base(), numbered, scratch, ret)
	if err != nil {
		return false, err
	}

	count, err := m.archiver.Create(archivePath, scratch)
	if err != nil {
		return false, fmt.Errorf("repacking %s: %w", archivePath, err)
	}
	if err := m.fs.RemoveAll(scratch); err != nil {
		return false, fmt.Errorf("removing scratch directory %s: %w", scratch, err)
	}

	m.log.Info("repacked log archive", "archive", archivePath, "files", count, "rotated", rotated)
	return rotated, nil
}

// History lists the base file, loose numbered files and archive members,
// ordered by sequence with the base file first.
func (m *Manager) History(layout logfile.Layout) ([]ports.Generation, error) {
	var gens []ports.Generation

	if info, err := m.fs.Stat(layout.BasePath()); err == nil {
		gens = append(gens, ports.Generation{
			Name:     logfile.BaseName(layout.Name),
			Size:     info.Size(),
			Location: ports.LocationDisk,
		})
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("checking %s: %w", layout.BasePath(), err)
	}

	numbered, err := logfile.ListNumbered(m.fs, layout.Dir, layout.Name)
	if err != nil {
		return nil, err
	}
	for _, ref := range numbered {
		gens = append(gens, ports.Generation{
			Name:     filepath.Base(ref.Path()),
			Sequence: ref.Sequence,
			Size:     ref.Size,
			Location: ports.LocationDisk,
		})
	}

	exists, err := m.archiveExists(layout)
	if err != nil {
		return nil, err
	}
	if exists {
		members, err := m.archiver.List(layout.ArchivePath())
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", layout.ArchivePath(), err)
		}
		for name, info := range members {
			seq, ok := logfile.Sequence(layout.Name, name)
			if !ok {
				continue
			}
			gens = append(gens, ports.Generation{
				Name:     name,
				Sequence: seq,
				Size:     info.Size,
				Location: ports.LocationArchive,
			})
		}
	}

	sort.SliceStable(gens, func(i, j int) bool {
		if gens[i].Sequence != gens[j].Sequence {
			return gens[i].Sequence < gens[j].Sequence
		}
		return gens[i].Location == ports.LocationDisk && gens[j].Location != ports.LocationDisk
	})
	return gens, nil
}

// ReadGeneration returns the contents of g.
func (m *Manager) ReadGeneration(layout logfile.Layout, g ports.Generation) ([]byte, error) {
	switch g.Location {
	case ports.LocationArchive:
		data, err := m.archiver.ReadFile(layout.ArchivePath(), g.Name)
		if err != nil {
			return nil, fmt.Errorf("reading %s from %s: %w", g.Name, layout.ArchivePath(), err)
		}
		return data, nil
	case ports.LocationDisk:
		return m.fs.ReadFile(filepath.Join(layout.Dir, g.Name))
	default:
		return nil, fmt.Errorf("unknown location %q", g.Location)
	}
}
