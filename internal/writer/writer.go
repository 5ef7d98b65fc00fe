// Package writer appends lines to a log file, retrying failed writes with a
// fixed delay.
package writer

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v5"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"

	"github.com/mcdonaldj/rotlog/internal/ports"
	"github.com/mcdonaldj/rotlog/internal/textenc"
)

// Defaults for RetryPolicy.
const (
	DefaultMaxAttempts = 2
	DefaultBackoff     = 500 * time.Millisecond
)

// RetryPolicy bounds the append loop: at most MaxAttempts tries, with Backoff
// between consecutive tries.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy returns {2, 500ms}.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, Backoff: DefaultBackoff}
}

// Ack reports a successful append.
type Ack struct {
	Attempts int
	Bytes    int
}

// WriteFailure is returned once every attempt has failed. The line is dropped.
type WriteFailure struct {
	Target   string
	Attempts int
	Caller   string
	Err      error
}

func (e *WriteFailure) Error() string {
	return fmt.Sprintf("writing to %s failed after %d attempt(s): %v", e.Target, e.Attempts, e.Err)
}

func (e *WriteFailure) Unwrap() error { return e.Err }

// Writer appends encoded lines through a ports.FileSystem.
type Writer struct {
	fs    ports.FileSystem
	enc   encoding.Encoding
	retry RetryPolicy
	log   *slog.Logger
	timer retry.Timer
}

// Option is a functional option for configuring Writer.
type Option func(*Writer)

// WithEncoding sets the output encoding. The default is UTF-8.
func WithEncoding(enc encoding.Encoding) Option {
	return func(w *Writer) {
		if enc != nil {
			w.enc = enc
		}
	}
}

// WithRetry sets the retry policy. MaxAttempts below 1 is raised to 1.
func WithRetry(p RetryPolicy) Option {
	return func(w *Writer) {
		if p.MaxAttempts < 1 {
			p.MaxAttempts = 1
		}
		if p.Backoff < 0 {
			p.Backoff = 0
		}
		w.retry = p
	}
}

// WithLogger sets the logger that receives retry warnings and failure reports.
func WithLogger(l *slog.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.log = l
		}
	}
}

// WithTimer replaces the timer used to wait between attempts.
func WithTimer(t retry.Timer) Option {
	return func(w *Writer) {
		w.timer = t
	}
}

// New creates a Writer with UTF-8 output and the default retry policy.
func New(fs ports.FileSystem, opts ...Option) *Writer {
	w := &Writer{
		fs:    fs,
		enc:   unicode.UTF8,
		retry: DefaultRetryPolicy(),
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Append writes line plus a trailing newline to the end of target. Failed
// attempts are retried after the fixed backoff until MaxAttempts is reached;
// the calling goroutine blocks for the whole sequence. On exhaustion the
// failure is logged and returned as *WriteFailure.
func (w *Writer) Append(line, target string) (Ack, error) {
	data, err := textenc.Encode(w.enc, line+"\n")
	if err != nil {
		return Ack{}, w.fail(target, 0, fmt.Errorf("encoding line: %w", err))
	}

	attempts := 0
	opts := []retry.Option{
		retry.Attempts(uint(w.retry.MaxAttempts)),
		retry.Delay(w.retry.Backoff),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			// n counts from 0; the final failure is reported by fail instead
			if int(n)+1 < w.retry.MaxAttempts {
				w.log.Warn("log write failed, retrying",
					"target", target,
					"attempt", int(n)+1,
					"max_attempts", w.retry.MaxAttempts,
					"backoff", w.retry.Backoff,
					"error", err)
			}
		}),
	}
	if w.timer != nil {
		opts = append(opts, retry.WithTimer(w.timer))
	}

	err = retry.New(opts...).Do(func() error {
		attempts++
		return w.fs.AppendFile(target, data)
	})
	if err != nil {
		return Ack{}, w.fail(target, attempts, err)
	}
	return Ack{Attempts: attempts, Bytes: len(data)}, nil
}

func (w *Writer) fail(target string, attempts int, err error) *WriteFailure {
	failure := &WriteFailure{Target: target, Attempts: attempts, Caller: callerOutside(), Err: err}
	w.log.Error("log write failed, message dropped",
		"target", target,
		"attempts", attempts,
		"caller", failure.Caller,
		"error", err)
	return failure
}

// callerOutside returns file:line of the first frame outside this package.
func callerOutside() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	first, more := frames.Next()
	self := packageOf(first.Function)
	for more {
		var frame runtime.Frame
		frame, more = frames.Next()
		if packageOf(frame.Function) != self {
			return fmt.Sprintf("%s:%d", frame.File, frame.Line)
		}
	}
	return ""
}

// packageOf trims "pkg/path.(*T).Method" to "pkg/path".
func packageOf(function string) string {
	slash := strings.LastIndex(function, "/")
	if dot := strings.Index(function[slash+1:], "."); dot >= 0 {
		return function[:slash+1+dot]
	}
	return function
}
