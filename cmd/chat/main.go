// Command chat is a terminal chat client for a tool-using Claude agent.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/petasbytes/agent-chat/internal/config"
	"github.com/petasbytes/agent-chat/internal/controller"
	"github.com/petasbytes/agent-chat/internal/provider"
	"github.com/petasbytes/agent-chat/internal/runner"
	"github.com/petasbytes/agent-chat/internal/telemetry"
	"github.com/petasbytes/agent-chat/internal/ui"
	"github.com/petasbytes/agent-chat/memory"
	"github.com/petasbytes/agent-chat/tools"
)

// tuiLogFile receives logs when the terminal UI owns the screen and no log
// file is configured.
const tuiLogFile = "chat.log"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("chat", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	// The SDK reads the key itself; fail early with a clear message.
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		fmt.Fprintln(stderr, "Missing ANTHROPIC_API_KEY; export it before running.")
		return 1
	}

	if !cfg.UI.Plain && !isTerminal(stdin, stdout) {
		cfg.UI.Plain = true
	}

	logger, closeLog, err := openLogger(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer closeLog()

	var events *telemetry.Recorder
	if cfg.Telemetry.Observe {
		events, err = telemetry.Open(cfg.Telemetry.ArtifactsDir)
		if err != nil {
			logger.Warn().Err(err).Msg("telemetry disabled")
		} else {
			defer events.Close()
		}
	}

	client := provider.NewAnthropicClient(provider.Options{
		BaseURL:    cfg.Agent.BaseURL,
		MaxRetries: cfg.Agent.MaxRetries,
	})
	agent := runner.New(client,
		tools.Registry(tools.Options{ProfileName: cfg.Tools.ProfileName, ProfileBio: cfg.Tools.ProfileBio}),
		runner.WithModel(cfg.Agent.Model),
		runner.WithMaxTokens(cfg.Agent.MaxTokens),
		runner.WithTemperature(cfg.Agent.Temperature),
		runner.WithMaxSteps(cfg.Agent.MaxSteps),
		runner.WithContextBudget(cfg.Agent.ContextBudget),
		runner.WithLogger(logger),
		runner.WithRecorder(events),
	)

	store := memory.NewStore(cfg.Memory.StoragePath, logger)
	history := store.Load()
	chat := controller.New(agent, store, history,
		controller.WithMaxHistory(cfg.Memory.MaxHistory),
		controller.WithReplayHistory(cfg.Agent.ReplayHistory),
		controller.WithLogger(logger),
		controller.WithRecorder(events),
	)
	logger.Info().
		Str("model", cfg.Agent.Model).
		Str("storage", store.Path()).
		Int("history_len", len(chat.Log())).
		Bool("plain", cfg.UI.Plain).
		Msg("chat started")

	if cfg.UI.Plain {
		err = ui.RunPlain(ctx, stdin, stdout, chat, chat.Log())
	} else {
		err = ui.Run(ctx, chat, chat.Log())
	}
	if err != nil {
		logger.Error().Err(err).Msg("chat ended with error")
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// openLogger builds the root logger. The terminal UI owns stdout and
// stderr, so without an explicit log file it logs to tuiLogFile.
func openLogger(cfg *config.Config, stderr io.Writer) (zerolog.Logger, func(), error) {
	path := cfg.Log.File
	if path == "" && !cfg.UI.Plain {
		path = tuiLogFile
	}
	if path == "" {
		l, err := telemetry.NewLogger(stderr, cfg.Log.Level, cfg.Log.JSON)
		return l, func() {}, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("open log file: %w", err)
	}
	// Files always get JSON lines; console formatting is for terminals.
	l, err := telemetry.NewLogger(f, cfg.Log.Level, true)
	if err != nil {
		f.Close()
		return zerolog.Nop(), func() {}, err
	}
	return l, func() { f.Close() }, nil
}

// isTerminal reports whether both streams are attached to a terminal.
func isTerminal(streams ...any) bool {
	for _, s := range streams {
		f, ok := s.(*os.File)
		if !ok || !term.IsTerminal(int(f.Fd())) {
			return false
		}
	}
	return true
}
