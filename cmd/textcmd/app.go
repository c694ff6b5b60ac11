// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/invowk/textcmd/internal/config"
	"github.com/invowk/textcmd/internal/discovery"
	"github.com/invowk/textcmd/internal/shellbody"
	"github.com/invowk/textcmd/pkg/command"
	"github.com/invowk/textcmd/pkg/dispatch"
	"github.com/invowk/textcmd/pkg/entity"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// App is the composition root of the CLI. Command handlers reach
	// configuration and the standard streams only through it.
	App struct {
		Config ConfigProvider
		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies are the injection points of NewApp. Nil fields get
	// production defaults.
	Dependencies struct {
		Config ConfigProvider
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// session is one loaded registry plus everything needed to invoke it.
	session struct {
		cfg      *config.Config
		verbose  bool
		svc      *dispatch.Service
		loader   *discovery.Loader
		files    []*discovery.LoadedFile
		diags    []discovery.Diagnostic
		logger   *log.Logger
		ictx     command.BasicContext
		services command.ServiceMap
	}
)

// NewApp creates an App with production defaults for nil dependencies.
func NewApp(deps Dependencies) (*App, error) {
	app := &App{
		Config: deps.Config,
		stdin:  deps.Stdin,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdin == nil {
		app.stdin = os.Stdin
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app, nil
}

// openSession loads configuration, discovers descriptors and registers
// them. Descriptor problems are collected as diagnostics; only an unusable
// configuration or pattern is an error.
func (a *App) openSession(ctx context.Context, flags *rootFlagValues, interactive bool) (*session, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, verbose: flags.verbose || cfg.UI.Verbose}
	applyColorMode(cfg.UI.Color)
	s.logger = newLogger(a.stderr, cfg, s.verbose)

	if s.svc, err = dispatch.New(cfg.DispatchOptions()); err != nil {
		return nil, err
	}
	s.svc.OnLog(logSink(s.logger))
	s.svc.OnExecuted(executedSink(s.logger))

	dir := entity.NewMemoryDirectory()
	if s.ictx, err = invocationContext(flags, dir); err != nil {
		return nil, err
	}
	s.services = command.ServiceMap{}
	command.Provide[entity.Directory](s.services, dir)
	command.Provide(s.services, s.logger)

	patterns := cfg.Modules.Paths
	if len(flags.modules) > 0 {
		patterns = flags.modules
	}
	runner := shellbody.Runner{Stdout: a.stdout, Stderr: a.stderr}
	if !interactive {
		runner.Stdin = a.stdin
	}
	s.loader = &discovery.Loader{
		Patterns:        patterns,
		Shell:           runner,
		Workdir:         cfg.Shell.Workdir,
		ScriptsDisabled: !cfg.Shell.Enabled || flags.noScripts,
		Logger:          s.logger,
	}

	res, err := s.loader.Discover(ctx)
	if err != nil {
		return nil, err
	}
	s.files = res.Files
	s.diags = append(res.Diagnostics, discovery.Register(ctx, s.svc, res.Files, s.services)...)
	return s, nil
}

// execute runs one input line and renders a failure to stderr. It returns
// the process exit code for the outcome.
func (s *session) execute(ctx context.Context, input string, stderr io.Writer) int {
	res, err := s.svc.Execute(ctx, s.ictx, input, s.services)
	if err == nil && res.Success() {
		if res.Detached {
			s.logger.Debug("command detached", "command", res.Command, "score", res.Score)
		}
		return 0
	}
	fmt.Fprint(stderr, RenderFailure(res, s.verbose))
	return exitCode(res)
}

func newLogger(w io.Writer, cfg *config.Config, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: config.AppName,
		Level:  cfg.Dispatch.LogLevel.Level(),
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	switch cfg.UI.Color {
	case config.ColorNever:
		logger.SetColorProfile(termenv.Ascii)
	case config.ColorAlways:
		logger.SetColorProfile(termenv.TrueColor)
	}
	return logger
}

func applyColorMode(mode config.ColorMode) {
	switch mode {
	case config.ColorNever:
		lipgloss.SetColorProfile(termenv.Ascii)
	case config.ColorAlways:
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}

func logSink(logger *log.Logger) func(context.Context, dispatch.LogMessage) error {
	return func(_ context.Context, msg dispatch.LogMessage) error {
		kv := []any{"source", msg.Source}
		if msg.Err != nil {
			kv = append(kv, "err", msg.Err)
		}
		switch msg.Severity {
		case dispatch.SeverityDebug:
			logger.Debug(msg.Message, kv...)
		case dispatch.SeverityInfo:
			logger.Info(msg.Message, kv...)
		case dispatch.SeverityWarn:
			logger.Warn(msg.Message, kv...)
		default:
			logger.Error(msg.Message, kv...)
		}
		return nil
	}
}

// executedSink reports detached failures, which never reach the caller.
func executedSink(logger *log.Logger) func(context.Context, dispatch.Executed) error {
	return func(_ context.Context, ev dispatch.Executed) error {
		if ev.Result.Detached && !ev.Result.Success() {
			logger.Error("detached command failed", "input", ev.Input, "err", ev.Result.Err())
			return nil
		}
		logger.Debug("executed", "input", ev.Input, "command", ev.Command, "ok", ev.Result.Success())
		return nil
	}
}

// invocationContext builds the caller identity from --author, --bot and
// --channel, registering each entity in dir so entity parameters can
// resolve them.
func invocationContext(flags *rootFlagValues, dir *entity.MemoryDirectory) (command.BasicContext, error) {
	var ictx command.BasicContext
	if flags.author != "" {
		id, name := splitEntityFlag(flags.author)
		user := entity.BasicUser{UserID: id, UserName: name, IsBot: flags.bot}
		if err := dir.Add(entity.KindUser, user); err != nil {
			return ictx, err
		}
		ictx.User = user
	}
	if flags.channel != "" {
		id, name := splitEntityFlag(flags.channel)
		ch := entity.BasicChannel{ChannelID: id, ChannelName: name}
		if err := dir.Add(entity.KindChannel, ch); err != nil {
			return ictx, err
		}
		ictx.Chan = ch
	}
	return ictx, nil
}

// splitEntityFlag parses "id" or "id:name".
func splitEntityFlag(v string) (id, name string) {
	id, name, ok := strings.Cut(v, ":")
	if !ok || name == "" {
		name = id
	}
	return id, name
}
