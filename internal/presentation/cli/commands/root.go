// Package commands implements the CLI commands for ctxprobe.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/ctxprobe/internal/adapters/provider"
	"github.com/jbctechsolutions/ctxprobe/internal/adapters/provider/anthropic"
	"github.com/jbctechsolutions/ctxprobe/internal/adapters/provider/ollama"
	"github.com/jbctechsolutions/ctxprobe/internal/adapters/provider/openai"
	"github.com/jbctechsolutions/ctxprobe/internal/application/ports"
	"github.com/jbctechsolutions/ctxprobe/internal/domain/model"
	"github.com/jbctechsolutions/ctxprobe/internal/infrastructure/config"
	"github.com/jbctechsolutions/ctxprobe/internal/infrastructure/logging"
	"github.com/jbctechsolutions/ctxprobe/internal/infrastructure/storage"
	"github.com/jbctechsolutions/ctxprobe/internal/infrastructure/tokenizer"
	"github.com/jbctechsolutions/ctxprobe/internal/infrastructure/tracing"
	"github.com/jbctechsolutions/ctxprobe/internal/presentation/cli/output"
)

// Version information - set at build time via ldflags.
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// GlobalFlags holds the global CLI flags.
type GlobalFlags struct {
	ConfigFile string
	Output     string
	Verbose    bool
	NoColor    bool
}

// AppContext holds the application runtime context shared by commands.
type AppContext struct {
	Config     *config.Config
	Formatter  *output.Formatter
	Logger     *logging.Logger
	Tracer     *tracing.Tracer
	Models     *model.Registry
	Transports *provider.Registry
	Counters   ports.TokenCounterProvider
	Presets    *config.PresetStore
	History    ports.HistoryStorage
	Watcher    *config.PresetWatcher
}

var (
	globalFlags GlobalFlags
	appCtx      *AppContext
	appCtxMu    sync.RWMutex
)

// NewRootCmd creates the root command for the ctxprobe CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ctxprobe",
		Short: "Ctxprobe - empirical context-limit discovery for LLM endpoints",
		Long: `Ctxprobe discovers the real context-window boundary of an LLM endpoint
by sending synthesized payloads of exact token counts and narrowing in
on the largest one the endpoint still accepts.

The advertised context window and the one an endpoint actually serves
often differ: proxies cap requests, local servers truncate silently,
and providers change limits without notice. Ctxprobe measures instead
of trusting.

Supported providers: Anthropic, OpenAI, Ollama.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip initialization for help, version, and completion commands
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}
			return initializeApp()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigFile, "config", "c", "", "config file path (default: ~/.ctxprobe/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.Output, "output", "o", "text", "output format: text, json, table")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.NoColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(NewVersionCmd())
	rootCmd.AddCommand(NewProbeCmd())
	rootCmd.AddCommand(NewModelsCmd())
	rootCmd.AddCommand(NewHistoryCmd())
	rootCmd.AddCommand(NewPresetsCmd())
	rootCmd.AddCommand(NewWizardCmd())

	return rootCmd
}

// initializeApp initializes the application context.
func initializeApp() error {
	format, err := output.ParseFormat(globalFlags.Output)
	if err != nil {
		return err
	}

	formatter := output.NewFormatter(
		output.WithFormat(format),
		output.WithColor(format != output.FormatJSON && !globalFlags.NoColor),
	)

	cfg, err := loadConfig(globalFlags.ConfigFile)
	if err != nil {
		if globalFlags.Verbose {
			formatter.Warning("Could not load config: %v, using defaults", err)
		}
		cfg = config.NewDefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := buildLogger(cfg)
	tracer, err := buildTracer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	transports, err := buildTransports(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize providers: %w", err)
	}

	presets := config.NewPresetStore(cfg.Presets.Directory)
	if err := presets.Reload(); err != nil {
		formatter.Warning("Could not load presets: %v", err)
	}

	var watcher *config.PresetWatcher
	if cfg.Presets.Watch {
		watcher, err = config.NewPresetWatcher(presets, config.DefaultWatcherConfig())
		if err == nil {
			err = watcher.Start()
		}
		if err != nil {
			if globalFlags.Verbose {
				formatter.Warning("Could not watch preset directory: %v", err)
			}
			watcher = nil
		}
	}

	var history ports.HistoryStorage
	if cfg.History.Enabled {
		history, err = storage.OpenHistory(cfg.History.Path)
		if err != nil {
			formatter.Warning("Could not open history database: %v", err)
			history = nil
		}
	}

	appCtxMu.Lock()
	appCtx = &AppContext{
		Config:     cfg,
		Formatter:  formatter,
		Logger:     logger,
		Tracer:     tracer,
		Models:     model.NewDefaultRegistry(),
		Transports: transports,
		Counters:   tokenizer.NewProvider(),
		Presets:    presets,
		History:    history,
		Watcher:    watcher,
	}
	appCtxMu.Unlock()

	return nil
}

// loadConfig loads configuration from the specified file or default location.
func loadConfig(configPath string) (*config.Config, error) {
	loader, err := config.NewLoader("")
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}

	return loader.Load(configPath)
}

func buildLogger(cfg *config.Config) *logging.Logger {
	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.Level(cfg.Logging.Level)
	logCfg.Format = logging.Format(cfg.Logging.Format)
	if globalFlags.Verbose {
		logCfg.Level = logging.LevelDebug
	} else {
		// Progress rendering covers the run; keep the terminal clean
		// unless verbose output was requested.
		logCfg.Output = io.Discard
	}
	return logging.New(logCfg)
}

func buildTracer(cfg *config.Config) (*tracing.Tracer, error) {
	if !cfg.Tracing.Enabled {
		return tracing.Noop(), nil
	}

	traceCfg := tracing.DefaultConfig()
	traceCfg.Enabled = true
	traceCfg.ExporterType = tracing.ExporterType(cfg.Tracing.ExporterType)
	traceCfg.OTLPEndpoint = cfg.Tracing.OTLPEndpoint
	traceCfg.SampleRate = cfg.Tracing.SampleRate
	if cfg.Tracing.ServiceName != "" {
		traceCfg.ServiceName = cfg.Tracing.ServiceName
	}

	return tracing.New(context.Background(), traceCfg)
}

func buildTransports(cfg *config.Config) (*provider.Registry, error) {
	registry := provider.NewRegistry()

	if cfg.Providers.Ollama.Enabled {
		transport := ollama.NewTransport(
			ollama.WithNumCtx(cfg.Providers.Ollama.NumCtx),
			ollama.WithClientOptions(
				ollama.WithBaseURL(cfg.Providers.Ollama.URL),
				ollama.WithTimeout(cfg.Providers.Ollama.Timeout),
			),
		)
		if err := registry.Register(model.ProviderOllama, transport); err != nil {
			return nil, err
		}
	}

	if cfg.Providers.Anthropic.Enabled {
		if key := cfg.Providers.Anthropic.ResolveAPIKey(config.AnthropicKeyEnv); key != "" {
			anthCfg := anthropic.DefaultConfig(key)
			if cfg.Providers.Anthropic.BaseURL != "" {
				anthCfg.BaseURL = cfg.Providers.Anthropic.BaseURL
			}
			if cfg.Providers.Anthropic.Timeout > 0 {
				anthCfg.Timeout = cfg.Providers.Anthropic.Timeout
			}
			if err := registry.Register(model.ProviderAnthropic, anthropic.NewTransport(anthCfg)); err != nil {
				return nil, err
			}
		}
	}

	if cfg.Providers.OpenAI.Enabled {
		if key := cfg.Providers.OpenAI.ResolveAPIKey(config.OpenAIKeyEnv); key != "" {
			oaCfg := openai.DefaultConfig(key)
			if cfg.Providers.OpenAI.BaseURL != "" {
				oaCfg.BaseURL = cfg.Providers.OpenAI.BaseURL
			}
			if cfg.Providers.OpenAI.Timeout > 0 {
				oaCfg.Timeout = cfg.Providers.OpenAI.Timeout
			}
			if err := registry.Register(model.ProviderOpenAI, openai.NewTransport(oaCfg)); err != nil {
				return nil, err
			}
		}
	}

	return registry, nil
}

// GetAppContext returns the current application context.
// Returns nil if the app hasn't been initialized.
func GetAppContext() *AppContext {
	appCtxMu.RLock()
	defer appCtxMu.RUnlock()
	return appCtx
}

// GetFormatter returns the output formatter.
// Creates a default formatter if app context is not initialized.
func GetFormatter() *output.Formatter {
	appCtxMu.RLock()
	ctx := appCtx
	appCtxMu.RUnlock()

	if ctx != nil {
		return ctx.Formatter
	}
	return output.NewFormatter()
}

// Shutdown releases application resources.
func Shutdown() {
	appCtxMu.Lock()
	defer appCtxMu.Unlock()

	if appCtx == nil {
		return
	}
	if appCtx.Watcher != nil {
		appCtx.Watcher.Close()
	}
	if appCtx.History != nil {
		appCtx.History.Close()
	}
	if appCtx.Tracer != nil {
		appCtx.Tracer.Shutdown(context.Background())
	}
}

// Execute runs the root command. The first interrupt cancels the
// command context so an in-flight probe can finalize a partial result;
// a second interrupt terminates the process.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	Shutdown()

	if err != nil {
		formatter := GetFormatter()
		formatter.Error("%s", err.Error())
		os.Exit(1)
	}
}
