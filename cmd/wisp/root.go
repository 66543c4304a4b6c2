package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	easy "github.com/t-tomalak/logrus-easy-formatter"

	"github.com/wisplang/wisp/internal/cache"
)

// config holds every flag shared across subcommands.
type config struct {
	debug        bool
	disassemble  bool
	noCache      bool
	cacheDir     string
	cacheBackend string
	dynamoTable  string
	dynamoRegion string
}

func newRootCmd() *cobra.Command {
	cfg := &config{}

	root := &cobra.Command{
		Use:           "wisp",
		Short:         "wisp compiles and runs wisp bytecode programs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(cfg.debug)
		},
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runREPL(cfg)
			}
			return runFile(cfg, args[0])
		},
	}

	root.PersistentFlags().BoolVar(&cfg.debug, "debug", false, "enable debug-level compiler/VM tracing")
	root.PersistentFlags().BoolVar(&cfg.disassemble, "disassemble", false, "print chunk disassembly before running")
	root.PersistentFlags().BoolVar(&cfg.noCache, "no-cache", false, "disable the compiled-chunk cache")
	root.PersistentFlags().StringVar(&cfg.cacheDir, "cache-dir", defaultCacheDir(), "directory for the local chunk cache and REPL history")
	root.PersistentFlags().StringVar(&cfg.cacheBackend, "cache-backend", "local", `chunk cache backend: "local" or "dynamodb"`)
	root.PersistentFlags().StringVar(&cfg.dynamoTable, "dynamo-table", "wisp-chunk-cache", "DynamoDB table name when --cache-backend=dynamodb")
	root.PersistentFlags().StringVar(&cfg.dynamoRegion, "dynamo-region", "us-east-1", "AWS region when --cache-backend=dynamodb")

	root.AddCommand(newRunCmd(cfg))
	root.AddCommand(newReplCmd(cfg))
	root.AddCommand(newDisasmCmd(cfg))
	root.AddCommand(newCacheCmd(cfg))

	return root
}

func configureLogging(debug bool) {
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05",
		LogFormat:       "[%lvl%] %msg%\n",
	})
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "wisp")
	}
	return ".wisp-cache"
}

// openCache builds the cache backend cfg names. A dynamodb failure to
// connect is non-fatal: it is logged and the run proceeds with
// caching disabled, per SPEC_FULL.md's "best-effort" remote cache
// contract.
func openCache(cfg *config) *cache.Cache {
	if cfg.noCache {
		return nil
	}

	switch cfg.cacheBackend {
	case "dynamodb":
		backend, err := cache.OpenDynamoDB(context.Background(), cfg.dynamoRegion, cfg.dynamoTable)
		if err != nil {
			logrus.WithError(err).Warn("wisp: could not reach dynamodb cache backend, continuing without a cache")
			return nil
		}
		return cache.New(backend)
	default:
		if err := os.MkdirAll(cfg.cacheDir, 0o755); err != nil {
			logrus.WithError(err).Warn("wisp: could not create cache directory, continuing without a cache")
			return nil
		}
		backend, err := cache.OpenSQLite(cfg.cacheDir)
		if err != nil {
			logrus.WithError(err).Warn("wisp: could not open local cache, continuing without a cache")
			return nil
		}
		return cache.New(backend)
	}
}

func fatalUsage(format string, args ...any) error {
	return newExitError(64, fmt.Errorf(format, args...))
}
