package commands

import (
	"context"
	"dhapi/cmd/dhapi/printer"
	"dhapi/lib/configutil"
	configlibsql "dhapi/lib/configutil/libsql"
	"dhapi/lib/restyutil"
	"dhapi/lib/telemetry"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type Config struct {
	Username string `json:"username"`
	Password string `json:"password"`
	// 0 keeps the client default
	RequestsPerSecond float64 `json:"requests_per_second"`
	// persists discovered scripts between runs, in memory when empty
	ScriptCacheDir string              `json:"script_cache_dir"`
	Database       configlibsql.Struct `json:"database"`
	Port           int                 `json:"port"`
}

const (
	envUsername = "DHLOTTERY_USERNAME"
	envPassword = "DHLOTTERY_PASSWORD"
)

var (
	flagUsername string
	flagConfig   string
	flagVerbose  bool
	flagDebugDir string
	flagFormat   string
	flagYes      bool
)

// state shared by every subcommand, filled in by the root pre run hook
var (
	config    Config
	output    printer.Printer
	debugDump restyutil.InstrumentOutput
	shutdown  = func() {}
)

var rootCmd = &cobra.Command{
	Use:           "dhapi",
	Short:         "dhapi is a CLI for buying lotto 6/45 and managing a dhlottery.co.kr account.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(flagVerbose)

		err := configutil.LoadDotenv()
		if err != nil {
			return err
		}
		config, err = loadConfig(flagConfig)
		if err != nil {
			return err
		}

		format, err := printer.ParseFormat(flagFormat)
		if err != nil {
			return err
		}
		output = printer.New(os.Stdout, format)

		if flagDebugDir != "" {
			out, err := restyutil.NewFilesystemOutput(flagDebugDir)
			if err != nil {
				return err
			}
			debugDump = out
			slog.Debug("writing http dumps", "dir", flagDebugDir)
		}

		tel, err := telemetry.SetupFromEnv(cmd.Context(), "dhapi")
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			slog.Warn("failed to setup telemetry", "err", err)
			return nil
		}
		shutdown = func() {
			err := tel.Shutdown(context.Background())
			if err != nil {
				slog.Warn("telemetry shutdown", "err", err)
			}
		}
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&flagUsername, "username", "u", "", "dhlottery user id, overrides the config and "+envUsername)
	flags.StringVarP(&flagConfig, "config", "c", "dhapi.json5", "path to the json5 config file")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "print debug logs")
	flags.StringVar(&flagDebugDir, "debug-dir", "", "write every http exchange and unparsed payload to this directory")
	flags.StringVarP(&flagFormat, "format", "f", "table", "output format (table, json)")
	flags.BoolVarP(&flagYes, "yes", "y", false, "skip confirmation prompts")
}

// loadConfig reads `path` and its .local override, a missing file is an
// empty config. environment variables win over file values.
func loadConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg.Username = configutil.EnvOr(envUsername, cfg.Username)
	cfg.Password = configutil.EnvOr(envPassword, cfg.Password)
	if flagUsername != "" && !strings.EqualFold(flagUsername, cfg.Username) {
		// a password configured for someone else is of no use
		cfg.Password = ""
	}
	if flagUsername != "" {
		cfg.Username = flagUsername
	}
	if cfg.Database.File == "" {
		cfg.Database.File = "dhapi.db"
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	return cfg, nil
}

func ExecuteContext(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	shutdown()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
