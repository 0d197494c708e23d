package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ppiankov/factbot/internal/model"
)

// Version is set at build time
var Version = "dev"

var (
	cfgFile   string
	verbose   bool
	logFormat string

	cfg    *model.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "factbot",
	Short: "factbot - intent classification and reply selection for a closed-domain chatbot",
	Long: `factbot answers questions about one subject from a labeled utterance corpus
and a reference data set.

Every message is classified into an intent, known names and titles are looked
up in the reference data, and a reply is selected from dedicated templates or
the corpus answers. Replies are selected, never generated.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = loadConfig(cmd); err != nil {
			return err
		}
		logger, err = newLogger(cfg.Output)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("config loaded", zap.String("file", used))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command. Cancelling ctx stops long-running commands.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "factbot %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.factbot/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	flags.StringVar(&logFormat, "log-format", "console", "log format (console, json)")
	flags.String("data-dir", "", "directory with corpus and reference files (default: embedded data set)")
	flags.Float64("threshold", 0, "confidence threshold (default from config)")
	flags.Int64("seed", 0, "answer selection seed, 0 for random")
	flags.Bool("no-cache", false, "never load or save trained models")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("output.log_format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("data.dir", flags.Lookup("data-dir"))
	_ = viper.BindPFlag("nlu.confidence_threshold", flags.Lookup("threshold"))
	_ = viper.BindPFlag("nlu.seed", flags.Lookup("seed"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".factbot"))
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// FACTBOT_NLU_CONFIDENCE_THRESHOLD overrides nlu.confidence_threshold
	viper.SetEnvPrefix("FACTBOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

// loadConfig merges defaults, config file, environment and flags. cmd is the
// command being run; persistent flags are visible through its flag set.
func loadConfig(cmd *cobra.Command) (*model.Config, error) {
	c := model.DefaultConfig()
	setDefaults(c)

	if err := viper.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		c.Cache.Enabled = false
	}
	return c, nil
}

// setDefaults registers every key. Unmarshal only sees environment variables
// for keys viper already knows, and defaults rank above unchanged flag values.
func setDefaults(c *model.Config) {
	viper.SetDefault("nlu.confidence_threshold", c.NLU.ConfidenceThreshold)
	viper.SetDefault("nlu.none_intent", c.NLU.NoneIntent)
	viper.SetDefault("nlu.max_ngram", c.NLU.MaxNGram)
	viper.SetDefault("nlu.regularization", c.NLU.Regularization)
	viper.SetDefault("nlu.max_iterations", c.NLU.MaxIterations)
	viper.SetDefault("nlu.seed", c.NLU.Seed)
	viper.SetDefault("data.dir", c.Data.Dir)
	viper.SetDefault("data.corpus_files", c.Data.CorpusFiles)
	viper.SetDefault("data.reference_file", c.Data.ReferenceFile)
	viper.SetDefault("cache.enabled", c.Cache.Enabled)
	viper.SetDefault("cache.dir", c.Cache.Dir)
	viper.SetDefault("cache.memory_ttl", c.Cache.MemoryTTL)
	viper.SetDefault("cache.disk_ttl", c.Cache.DiskTTL)
	viper.SetDefault("cache.cleanup_interval", c.Cache.CleanupInterval)
	viper.SetDefault("concurrency.workers", c.Concurrency.Workers)
	viper.SetDefault("rate_limiting.requests_per_second", c.RateLimiting.RequestsPerSecond)
	viper.SetDefault("rate_limiting.burst_size", c.RateLimiting.BurstSize)
	viper.SetDefault("output.verbose", c.Output.Verbose)
	viper.SetDefault("output.log_format", c.Output.LogFormat)
}

// newLogger builds the process logger. Logs go to stderr so replies on
// stdout stay machine readable.
func newLogger(out model.OutputConfig) (*zap.Logger, error) {
	var config zap.Config
	switch out.LogFormat {
	case "json":
		config = zap.NewProductionConfig()
	case "console", "":
		config = zap.NewDevelopmentConfig()
		config.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("unknown log format %q", out.LogFormat)
	}

	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if out.Verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	return config.Build()
}
