// Package session runs one log call: rotate the base file when the threshold
// is exceeded, write the matching banner, then append the message.
package session

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	retry "github.com/avast/retry-go/v5"
	"golang.org/x/text/encoding"

	"github.com/mcdonaldj/rotlog/internal/adapters/osfs"
	"github.com/mcdonaldj/rotlog/internal/adapters/ziparchiver"
	"github.com/mcdonaldj/rotlog/internal/archive"
	"github.com/mcdonaldj/rotlog/internal/config"
	"github.com/mcdonaldj/rotlog/internal/logfile"
	"github.com/mcdonaldj/rotlog/internal/policy"
	"github.com/mcdonaldj/rotlog/internal/ports"
	"github.com/mcdonaldj/rotlog/internal/roller"
	"github.com/mcdonaldj/rotlog/internal/textenc"
	"github.com/mcdonaldj/rotlog/internal/writer"
)

// Banner lines written into a fresh base file.
const (
	BannerStarted = "Logging started"
	BannerResumed = "Log rotated, logging resumed"
)

// Settings is everything a session needs to know about one log.
type Settings struct {
	Layout      logfile.Layout
	Threshold   policy.Threshold
	Retention   roller.Retention
	Archive     bool
	Retry       writer.RetryPolicy
	Encoding    encoding.Encoding
	Format      writer.FormatOptions
	ScratchRoot string
}

// SettingsFromConfig resolves paths, the threshold and the encoding named in cfg.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	if err := cfg.Validate(); err != nil {
		return Settings{}, err
	}
	dir, err := cfg.LogDir()
	if err != nil {
		return Settings{}, err
	}
	scratch, err := cfg.ScratchRoot()
	if err != nil {
		return Settings{}, err
	}
	enc, err := textenc.Lookup(cfg.Encoding)
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		Layout:      logfile.Layout{Name: cfg.Name, Dir: dir},
		Threshold:   policy.Parse(cfg.Threshold),
		Retention:   roller.Retention{MaxCount: cfg.Retention.KeepLast},
		Archive:     cfg.Archive,
		Retry:       writer.RetryPolicy{MaxAttempts: cfg.Retry.Attempts, Backoff: cfg.Retry.Backoff},
		Encoding:    enc,
		Format:      writer.FormatOptions{TimestampLayout: cfg.TimestampFormat, Raw: cfg.Raw},
		ScratchRoot: scratch,
	}, nil
}

// Result describes a completed log call.
type Result struct {
	// Rotated is set when a rotation ran before the append.
	Rotated bool
	// Banner is the banner line written, if any.
	Banner string
	// Line is the formatted message line, without its newline.
	Line string
	// Ack is the acknowledgement of the message append.
	Ack writer.Ack
	// WriteErr is set when the banner or message could not be written.
	// The message is dropped in that case.
	WriteErr *writer.WriteFailure
}

// Session performs log calls against a single log.
type Session struct {
	settings Settings
	fs       ports.FileSystem
	roller   *roller.Roller
	archive  *archive.Manager
	writer   *writer.Writer
	now      func() time.Time
	log      *slog.Logger
	timer    retry.Timer
}

// Option is a functional option for configuring Session.
type Option func(*Session)

// WithLogger sets the diagnostics logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock replaces time.Now for timestamps and age checks.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithTimer replaces the timer the writer waits on between attempts.
func WithTimer(t retry.Timer) Option {
	return func(s *Session) {
		s.timer = t
	}
}

// New creates a Session with the given dependencies.
func New(settings Settings, fs ports.FileSystem, archiver ports.Archiver, opts ...Option) *Session {
	s := &Session{
		settings: settings,
		fs:       fs,
		now:      time.Now,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.roller = roller.New(fs, s.log)
	s.archive = archive.New(fs, archiver, s.roller, settings.ScratchRoot, s.log)

	writerOpts := []writer.Option{
		writer.WithEncoding(settings.Encoding),
		writer.WithRetry(settings.Retry),
		writer.WithLogger(s.log),
	}
	if s.timer != nil {
		writerOpts = append(writerOpts, writer.WithTimer(s.timer))
	}
	s.writer = writer.New(fs, writerOpts...)
	return s
}

// NewDefault creates a Session backed by the real filesystem and zip archives.
func NewDefault(settings Settings, opts ...Option) *Session {
	return New(settings, osfs.New(), ziparchiver.New(), opts...)
}

// Log appends message at level, rotating first when the base file exceeds
// the threshold. Rotation errors abort the call before anything is written.
// A failed write is reported through Result.WriteErr, not as an error.
func (s *Session) Log(level writer.Level, message string) (Result, error) {
	var result Result

	layout := s.settings.Layout
	if err := s.fs.MkdirAll(layout.Dir, 0755); err != nil {
		return result, fmt.Errorf("creating log directory %s: %w", layout.Dir, err)
	}

	exists, err := s.baseExists()
	if err != nil {
		return result, err
	}

	if !exists {
		result.Banner = BannerStarted
	} else {
		due, err := s.rotationDue()
		if err != nil {
			return result, err
		}
		if due {
			if result.Rotated, err = s.rotate(); err != nil {
				return result, err
			}
			if result.Rotated {
				result.Banner = BannerResumed
			}
		}
	}

	if result.Banner != "" {
		banner := writer.Format(s.now(), writer.LevelInfo, result.Banner, s.settings.Format)
		if _, err := s.writer.Append(banner, layout.BasePath()); err != nil {
			return result, s.writeFailure(&result, err)
		}
	}

	result.Line = writer.Format(s.now(), level, message, s.settings.Format)
	ack, err := s.writer.Append(result.Line, layout.BasePath())
	if err != nil {
		return result, s.writeFailure(&result, err)
	}
	result.Ack = ack
	return result, nil
}

// Rotate rotates the base file now, regardless of the threshold. It reports
// false when there is no base file to rotate.
func (s *Session) Rotate() (bool, error) {
	exists, err := s.baseExists()
	if err != nil || !exists {
		return false, err
	}
	return s.rotate()
}

// History lists the log's generations on disk and in the archive.
func (s *Session) History() ([]ports.Generation, error) {
	return s.archive.History(s.settings.Layout)
}

// ReadGeneration returns the contents of one generation.
func (s *Session) ReadGeneration(g ports.Generation) ([]byte, error) {
	return s.archive.ReadGeneration(s.settings.Layout, g)
}

// Settings returns the settings the session was created with.
func (s *Session) Settings() Settings {
	return s.settings
}

func (s *Session) baseExists() (bool, error) {
	path := s.settings.Layout.BasePath()
	if _, err := s.fs.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("checking %s: %w", path, err)
	}
	return true, nil
}

// rotationDue evaluates the threshold against the live base file.
func (s *Session) rotationDue() (bool, error) {
	path := s.settings.Layout.BasePath()
	info, err := s.fs.Stat(path)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", path, err)
	}
	created, err := s.fs.BirthTime(path)
	if err != nil {
		return false, fmt.Errorf("reading creation time of %s: %w", path, err)
	}
	return s.settings.Threshold.NeedsRotation(policy.FileStat{Size: info.Size(), Created: created}, s.now()), nil
}

func (s *Session) rotate() (bool, error) {
	var (
		rotated bool
		err     error
	)
	layout := s.settings.Layout
	if s.settings.Archive {
		rotated, err = s.archive.Rotate(layout, s.settings.Retention)
	} else {
		var numbered []logfile.Ref
		numbered, err = logfile.ListNumbered(s.fs, layout.Dir, layout.Name)
		if err == nil {
			rotated, err = s.roller.Roll(layout.Base(), numbered, layout.Dir, s.settings.Retention)
		}
	}
	if err != nil {
		s.log.Error("rotation failed", "log", layout.BasePath(), "error", err)
		return false, fmt.Errorf("rotating %s: %w", layout.BasePath(), err)
	}

	s.log.Info("rotated log",
		"log", layout.BasePath(),
		"archive", s.settings.Archive,
		"threshold", s.settings.Threshold.String(),
		"rotated", rotated)
	return rotated, nil
}

// writeFailure records a *writer.WriteFailure on result and swallows it;
// any other error is returned.
func (s *Session) writeFailure(result *Result, err error) error {
	var failure *writer.WriteFailure
	if errors.As(err, &failure) {
		result.WriteErr = failure
		return nil
	}
	return err
}
