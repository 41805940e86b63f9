package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/casa/internal/casa"
	"github.com/hay-kot/casa/internal/commands"
	"github.com/hay-kot/casa/internal/core/config"
	"github.com/hay-kot/casa/internal/core/push"
	"github.com/hay-kot/casa/internal/integration/pushapi"
	"github.com/hay-kot/casa/internal/printer"
	"github.com/hay-kot/casa/internal/store/jsonfile"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

// shutdownTimeout bounds how long the CLI waits for background writes on exit.
const shutdownTimeout = 5 * time.Second

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func main() {
	if err := setupLogger("info", ""); err != nil {
		panic(err)
	}

	var (
		p     = printer.New(os.Stderr)
		ctx   = printer.NewContext(context.Background(), p)
		flags = &commands.Flags{}
	)

	app := &cli.Command{
		Name:      "casa",
		Usage:     "Keep recent property searches and device registration on this machine",
		UsageText: "casa [global options] command [command options]",
		Description: `Casa keeps the client-side state of a property search app: the ten most
recent searches, the signed-in session, and the device push token.

Run 'casa search <query>' to record a search.
Run 'casa recent ls' to list recent searches, newest first.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("CASA_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (optional)",
				Sources:     cli.EnvVars("CASA_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("CASA_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("CASA_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := setupLogger(flags.LogLevel, flags.LogFile); err != nil {
				return ctx, err
			}

			cfg, err := config.Read(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// config validate reports problems itself; everything else needs a
			// valid config.
			if !commands.IsConfigValidate(c.Args().Slice()) {
				if err := cfg.Validate(); err != nil {
					return ctx, fmt.Errorf("load config: invalid config: %w", err)
				}
			}

			var (
				store  = jsonfile.NewPrefsStore(cfg.PrefsFile())
				logger = log.With().Str("component", "casa").Logger()
				client push.Client
			)

			if cfg.Push.Endpoint != "" {
				client = pushapi.New(cfg.Push.Endpoint, cfg.Push.Timeout)
			}

			flags.Service = casa.New(cfg, store, client, logger)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if flags.Service == nil {
				return nil
			}

			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()

			if err := flags.Service.Close(ctx); err != nil {
				log.Warn().Err(err).Msg("shutdown incomplete")
			}
			return nil
		},
	}

	app = commands.NewSearchCmd(flags).Register(app)
	app = commands.NewRecentCmd(flags).Register(app)
	app = commands.NewSessionCmd(flags).Register(app)
	app = commands.NewPushCmd(flags).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	exitCode := 0
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Println()
		printer.Ctx(ctx).FatalError(err)
		exitCode = 1
	}

	os.Exit(exitCode)
}

func setupLogger(level string, logFile string) error {
	parsedLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	var output io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}

	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}

		output = io.MultiWriter(zerolog.ConsoleWriter{Out: os.Stderr}, file)
	}

	log.Logger = log.Output(output).Level(parsedLevel)

	return nil
}
