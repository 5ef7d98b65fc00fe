// Package roller renumbers a log's rotated files and promotes the base file.
package roller

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/mcdonaldj/rotlog/internal/logfile"
	"github.com/mcdonaldj/rotlog/internal/ports"
)

// DefaultMaxCount is the retention used when none is configured.
const DefaultMaxCount = 5

// Retention limits how many numbered files may exist at once.
type Retention struct {
	MaxCount int
}

func (r Retention) maxCount() int {
	if r.MaxCount < 1 {
		return DefaultMaxCount
	}
	return r.MaxCount
}

// Roller performs the rename/delete chain of a rotation.
type Roller struct {
	fs  ports.FileSystem
	log *slog.Logger
}

// New creates a Roller. A nil logger discards output.
func New(fs ports.FileSystem, log *slog.Logger) *Roller {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Roller{fs: fs, log: log}
}

// Roll shifts every numbered file up by one, deletes those whose sequence is
// at or past the retention count, and moves the base file into dest as
// sequence 1. numbered must be sorted ascending by sequence; each file is
// renamed within its own directory.
//
// Candidates are walked from the highest observed sequence down to 0 so no
// rename lands on a file that has not moved yet. The first failing operation
// stops the chain and is returned.
func (r *Roller) Roll(base logfile.Ref, numbered []logfile.Ref, dest string, ret Retention) (bool, error) {
	first := logfile.Ref{Name: base.Name, Dir: dest, Sequence: 1}

	if len(numbered) == 0 {
		if err := r.move(base, first); err != nil {
			return false, err
		}
		return true, nil
	}

	bySeq := make(map[int]logfile.Ref, len(numbered))
	for _, ref := range numbered {
		bySeq[ref.Sequence] = ref
	}
	highest := numbered[len(numbered)-1].Sequence
	maxCount := ret.maxCount()

	for seq := highest; seq >= 0; seq-- {
		if seq == 0 {
			if err := r.move(base, first); err != nil {
				return false, err
			}
			return true, nil
		}

		ref, ok := bySeq[seq]
		if !ok {
			continue
		}

		if seq >= maxCount {
			if err := r.fs.Remove(ref.Path()); err != nil {
				return false, fmt.Errorf("evicting %s: %w", ref.Path(), err)
			}
			r.log.Debug("evicted rotated log", "path", ref.Path(), "sequence", seq)
			continue
		}

		next := logfile.Ref{Name: ref.Name, Dir: ref.Dir, Sequence: seq + 1}
		if err := r.move(ref, next); err != nil {
			return false, err
		}
	}

	return false, nil
}

func (r *Roller) move(from, to logfile.Ref) error {
	if err := r.fs.Rename(from.Path(), to.Path()); err != nil {
		return fmt.Errorf("renaming %s to %s: %w", from.Path(), to.Path(), err)
	}
	r.log.Debug("renamed log", "from", from.Path(), "to", to.Path())
	return nil
}
