// Package cli provides the command-line interface with injectable io.Writer for testing.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	retry "github.com/avast/retry-go/v5"
	"github.com/fatih/color"

	"github.com/mcdonaldj/rotlog/internal/adapters/historysvc"
	"github.com/mcdonaldj/rotlog/internal/adapters/osfs"
	"github.com/mcdonaldj/rotlog/internal/adapters/ziparchiver"
	"github.com/mcdonaldj/rotlog/internal/config"
	"github.com/mcdonaldj/rotlog/internal/logfile"
	"github.com/mcdonaldj/rotlog/internal/logging"
	"github.com/mcdonaldj/rotlog/internal/ports"
	"github.com/mcdonaldj/rotlog/internal/session"
	"github.com/mcdonaldj/rotlog/internal/tui"
	"github.com/mcdonaldj/rotlog/internal/writer"
)

// Exit codes.
const (
	exitSuccess      = 0
	exitError        = 1
	exitWriteFailure = 2
)

// ExitError carries the exit code a command should end the process with.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

// ConfigService provides configuration operations for the CLI.
type ConfigService interface {
	Load(path string) (*config.Config, error)
	Save(cfg *config.Config, path string) error
	ConfigPath() (string, error)
	DefaultConfig() (*config.Config, error)
}

// CLI represents the command-line interface with injectable dependencies.
type CLI struct {
	Out     io.Writer // Standard output
	Err     io.Writer // Standard error
	Version string    // Application version
	Args    []string  // Command arguments (like os.Args)

	// Exit function for testability (defaults to os.Exit)
	Exit func(code int)

	// Injectable dependencies (nil means use defaults)
	ConfigSvc ConfigService
	FS        ports.FileSystem
	Archiver  ports.Archiver
	Logger    *slog.Logger
	Timer     retry.Timer
	RunTUI    func(svc ports.HistoryService) error

	configPath string

	// Color functions (can be disabled for testing)
	green  func(a ...interface{}) string
	yellow func(a ...interface{}) string
	cyan   func(a ...interface{}) string
	gray   func(a ...interface{}) string
	red    func(a ...interface{}) string
}

// New creates a new CLI with default settings.
func New(version string) *CLI {
	return &CLI{
		Out:     os.Stdout,
		Err:     os.Stderr,
		Version: version,
		Args:    os.Args,
		Exit:    os.Exit,
		green:   color.New(color.FgGreen, color.Bold).SprintFunc(),
		yellow:  color.New(color.FgYellow).SprintFunc(),
		cyan:    color.New(color.FgCyan).SprintFunc(),
		gray:    color.New(color.FgHiBlack).SprintFunc(),
		red:     color.New(color.FgRed).SprintFunc(),
	}
}

// NewForTesting creates a CLI configured for testing (no colors, captured output).
func NewForTesting(out, errOut io.Writer, args []string) *CLI {
	noColor := func(a ...interface{}) string { return fmt.Sprint(a...) }
	return &CLI{
		Out:     out,
		Err:     errOut,
		Version: "test",
		Args:    args,
		Exit:    func(code int) {},
		green:   noColor,
		yellow:  noColor,
		cyan:    noColor,
		gray:    noColor,
		red:     noColor,
	}
}

// defaultConfigService wraps the config package functions.
type defaultConfigService struct{}

func (d *defaultConfigService) Load(path string) (*config.Config, error) { return config.Load(path) }
func (d *defaultConfigService) Save(cfg *config.Config, path string) error {
	return cfg.Save(path)
}
func (d *defaultConfigService) ConfigPath() (string, error)            { return config.ConfigPath() }
func (d *defaultConfigService) DefaultConfig() (*config.Config, error) { return config.DefaultConfig() }

func (c *CLI) configSvc() ConfigService {
	if c.ConfigSvc != nil {
		return c.ConfigSvc
	}
	return &defaultConfigService{}
}

func (c *CLI) fs() ports.FileSystem {
	if c.FS != nil {
		return c.FS
	}
	return osfs.New()
}

func (c *CLI) archiver() ports.Archiver {
	if c.Archiver != nil {
		return c.Archiver
	}
	return ziparchiver.New()
}

func (c *CLI) runTUI(svc ports.HistoryService) error {
	if c.RunTUI != nil {
		return c.RunTUI(svc)
	}
	return tui.Run(svc)
}

// commands is the kong grammar.
type commands struct {
	Config string `help:"Config file path." placeholder:"PATH"`

	Write   WriteCmd   `cmd:"" help:"Append a message to the log, rotating it first when over the threshold."`
	Rotate  RotateCmd  `cmd:"" help:"Rotate the log now, regardless of the threshold."`
	List    ListCmd    `cmd:"" help:"List the log's history on disk and in the archive."`
	UI      UICmd      `cmd:"" name:"ui" default:"1" help:"Browse the log's history interactively."`
	Init    InitCmd    `cmd:"" help:"Create the default config file."`
	Version VersionCmd `cmd:"" help:"Show version."`
}

// Run executes the CLI with the configured arguments.
func (c *CLI) Run() {
	var grammar commands
	parser, err := kong.New(&grammar,
		kong.Name("rotlog"),
		kong.Description("Self-rotating append-only log writer."),
		kong.Writers(c.Out, c.Err),
		kong.Exit(c.Exit),
		kong.UsageOnError(),
	)
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(exitError)
		return
	}

	var args []string
	if len(c.Args) > 1 {
		args = c.Args[1:]
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(exitError)
		return
	}

	c.configPath = grammar.Config
	if err := ctx.Run(c); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Message != "" {
				fmt.Fprintln(c.Err, exitErr.Message)
			}
			c.Exit(exitErr.Code)
			return
		}
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(exitError)
	}
}

func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := c.configSvc().Load(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// logger returns the injected logger, or opens the diagnostics file named in cfg.
func (c *CLI) logger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	if c.Logger != nil {
		return c.Logger, nopCloser{}, nil
	}
	return logging.Open(cfg.Diagnostics, slog.LevelInfo)
}

func (c *CLI) session(cfg *config.Config, log *slog.Logger) (*session.Session, error) {
	settings, err := session.SettingsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts := []session.Option{session.WithLogger(log)}
	if c.Timer != nil {
		opts = append(opts, session.WithTimer(c.Timer))
	}
	return session.New(settings, c.fs(), c.archiver(), opts...), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// levelColor picks the console color for a level.
func (c *CLI) levelColor(level writer.Level) func(a ...interface{}) string {
	switch level {
	case writer.LevelError:
		return c.red
	case writer.LevelWarn:
		return c.yellow
	case writer.LevelSuccess:
		return c.green
	case writer.LevelDebug:
		return c.gray
	default:
		return c.cyan
	}
}

// WriteCmd appends one message.
type WriteCmd struct {
	Level     string   `short:"l" default:"info" help:"Level: debug, info, success, warn or error."`
	Name      string   `short:"n" help:"Log name, overriding the config."`
	Dir       string   `short:"d" help:"Log directory, overriding the config."`
	Threshold string   `short:"t" help:"Rotation threshold: <n>K, <n>M, <n>G or <n> days."`
	Keep      int      `short:"k" help:"Number of rotated files to keep."`
	NoArchive bool     `help:"Keep rotated files on disk instead of in the archive."`
	Raw       bool     `help:"Write the message without timestamp and level."`
	Quiet     bool     `short:"q" help:"Do not echo the message to the console."`
	Message   []string `arg:"" help:"Message to write."`
}

// apply overrides cfg with the flags that were given.
func (w *WriteCmd) apply(cfg *config.Config) {
	if w.Name != "" {
		cfg.Name = w.Name
	}
	if w.Dir != "" {
		cfg.Directory = w.Dir
	}
	if w.Threshold != "" {
		cfg.Threshold = w.Threshold
	}
	if w.Keep != 0 {
		cfg.Retention.KeepLast = w.Keep
	}
	if w.NoArchive {
		cfg.Archive = false
	}
	if w.Raw {
		cfg.Raw = true
	}
}

func (w *WriteCmd) Run(c *CLI) error {
	level, err := writer.ParseLevel(w.Level)
	if err != nil {
		return err
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	w.apply(cfg)

	log, closer, err := c.logger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	sess, err := c.session(cfg, log)
	if err != nil {
		return err
	}

	message := strings.Join(w.Message, " ")
	result, err := sess.Log(level, message)
	if err != nil {
		return err
	}

	if result.Rotated {
		fmt.Fprintf(c.Out, "%s %s\n", c.gray("~"), c.gray("rotated "+sess.Settings().Layout.BasePath()))
	}
	if result.WriteErr != nil {
		return &ExitError{
			Code:    exitWriteFailure,
			Message: fmt.Sprintf("%s %v", c.red("x"), result.WriteErr),
		}
	}
	if !w.Quiet {
		fmt.Fprintln(c.Out, c.levelColor(level)(result.Line))
	}
	return nil
}

// RotateCmd forces a rotation.
type RotateCmd struct{}

func (r *RotateCmd) Run(c *CLI) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	log, closer, err := c.logger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	sess, err := c.session(cfg, log)
	if err != nil {
		return err
	}
	rotated, err := sess.Rotate()
	if err != nil {
		return err
	}

	base := sess.Settings().Layout.BasePath()
	if rotated {
		fmt.Fprintf(c.Out, "%s Rotated %s\n", c.green("*"), base)
	} else {
		fmt.Fprintf(c.Out, "%s Nothing to rotate at %s\n", c.gray("-"), base)
	}
	return nil
}

// ListCmd prints the log's history.
type ListCmd struct{}

func (l *ListCmd) Run(c *CLI) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	log, closer, err := c.logger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	sess, err := c.session(cfg, log)
	if err != nil {
		return err
	}
	gens, err := sess.History()
	if err != nil {
		return err
	}

	layout := sess.Settings().Layout
	if len(gens) == 0 {
		fmt.Fprintf(c.Out, "No log files for %s in %s\n", layout.Name, layout.Dir)
		return nil
	}

	fmt.Fprintf(c.Out, "History of %s (%s):\n\n", c.cyan(layout.Name), layout.Dir)
	for _, g := range gens {
		where := c.gray(string(g.Location))
		if g.Location == ports.LocationArchive {
			where = c.yellow(string(g.Location))
		}
		fmt.Fprintf(c.Out, "  %-20s %10s  %s\n", g.Name, logfile.FormatSize(g.Size), where)
	}
	return nil
}

// UICmd launches the history browser.
type UICmd struct{}

func (u *UICmd) Run(c *CLI) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	log, closer, err := c.logger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	return c.runTUI(historysvc.New(c.configPath, c.fs(), c.archiver(), log))
}

// InitCmd writes the default config file.
type InitCmd struct{}

func (i *InitCmd) Run(c *CLI) error {
	svc := c.configSvc()
	cfg, err := svc.DefaultConfig()
	if err != nil {
		return err
	}
	if err := svc.Save(cfg, c.configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	path := c.configPath
	if path == "" {
		if path, err = svc.ConfigPath(); err != nil {
			return err
		}
	}
	fmt.Fprintf(c.Out, "Created config at %s\n", path)
	return nil
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (v *VersionCmd) Run(c *CLI) error {
	fmt.Fprintf(c.Out, "rotlog v%s\n", c.Version)
	return nil
}
