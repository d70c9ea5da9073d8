// cmd/lmbench/root.go
package lmbench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/lmbench/internal/config"
	"github.com/mwiater/lmbench/internal/lmstudio"
	"github.com/mwiater/lmbench/internal/logging"
)

var (
	configPath      string
	experimentsPath string
	logLevel        string
	logFormat       string
	serverURL       string
)

// rootCmd is the base Cobra command for the lmbench application.
// All subcommands are attached to this root to form the complete CLI.
var rootCmd = &cobra.Command{
	Use:   "lmbench",
	Short: "Benchmark local language models served by LM Studio",
	Long: `lmbench drives an LM Studio server through a matrix of prompts, records one
result per request, and analyses the results, optionally alongside power
telemetry captured by a hardware monitor.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root Cobra command and all registered subcommands.
// An interrupt cancels the command context. Any returned error is printed
// and the process exits with a non-zero status code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "configuration file (default: search lmbench.yaml, lmbench.yml, lmbench.json, prompts_config.json)")
	pf.StringVar(&experimentsPath, "experiments", "", "experiments file merged over the configuration (default: experiments.yaml when present)")
	pf.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "text", "log format: text or json")
	pf.StringVar(&serverURL, "url", "", "LM Studio server URL, overrides settings.lm_studio_url")

	// --config may also come from LMBENCH_CONFIG.
	_ = viper.BindPFlag("config", pf.Lookup("config"))
	_ = viper.BindEnv("config", config.EnvPrefix+"_CONFIG")
}

// loadConfig reads the configuration files. When optional is set and no file
// was asked for or found, the built-in defaults are used instead.
func loadConfig(optional bool) (config.Config, error) {
	path := viper.GetString("config")
	cfg, err := config.Load(config.Options{Path: path, ExperimentsPath: experimentsPath})
	if err != nil {
		if !optional || path != "" || !errors.Is(err, config.ErrConfigNotFound) {
			return config.Config{}, err
		}
		if cfg, err = config.Defaults(); err != nil {
			return config.Config{}, err
		}
	}
	if serverURL != "" {
		cfg.Settings.LMStudioURL = serverURL
	}
	return cfg, nil
}

func newLogger(w io.Writer) (*slog.Logger, error) {
	return logging.New(w, logLevel, logFormat)
}

func newClient(cfg config.Config, logger *slog.Logger) *lmstudio.Client {
	return lmstudio.NewClient(cfg.Settings.LMStudioURL,
		lmstudio.WithTimeout(cfg.Settings.RequestTimeout),
		lmstudio.WithLogger(logger),
	)
}

func newManager(cfg config.Config, logger *slog.Logger) *lmstudio.Manager {
	return lmstudio.NewManager(newClient(cfg, logger), cfg.ManagerConfig())
}

// errServerUnreachable is returned by manager commands when the server does
// not answer.
var errServerUnreachable = errors.New("LM Studio server is not reachable")
