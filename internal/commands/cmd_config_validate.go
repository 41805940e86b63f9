package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/casa/internal/core/config"
	"github.com/hay-kot/casa/internal/printer"
)

// ErrInvalidConfig is returned by config validate when the file has errors,
// or warnings under --strict.
var ErrInvalidConfig = errors.New("configuration is invalid")

// IsConfigValidate reports whether args (without global flags) run
// "config validate". That command loads the config unvalidated so it can
// report problems instead of failing at startup.
func IsConfigValidate(args []string) bool {
	return len(args) >= 2 && args[0] == "config" && args[1] == "validate"
}

type ConfigValidateCmd struct {
	flags  *Flags
	format string
	strict bool
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Validate configuration file",
				UsageText: "casa config validate [--format text|json] [--strict]",
				Description: `Checks the config file: recent search capacity, backend and seeding, and
the push platform, timeout and endpoint. Exits non-zero when errors are found.`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
					&cli.BoolFlag{
						Name:        "strict",
						Usage:       "treat warnings as errors",
						Destination: &cmd.strict,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

// problem is one reported config issue.
type problem struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type validationReport struct {
	Path     string                     `json:"path"`
	Valid    bool                       `json:"valid"`
	Errors   []problem                  `json:"errors,omitempty"`
	Warnings []config.ValidationWarning `json:"warnings,omitempty"`
}

func (cmd *ConfigValidateCmd) run(ctx context.Context, c *cli.Command) error {
	if cmd.flags.Config == nil {
		return fmt.Errorf("configuration not loaded")
	}

	report := cmd.check()

	switch cmd.format {
	case "json":
		enc := json.NewEncoder(c.Root().Writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	case "text":
		printReport(printer.Ctx(ctx), report)
	default:
		return fmt.Errorf("unknown format %q", cmd.format)
	}

	if !report.Valid {
		return fmt.Errorf("%w: %d error(s), %d warning(s)", ErrInvalidConfig, len(report.Errors), len(report.Warnings))
	}
	return nil
}

func (cmd *ConfigValidateCmd) check() validationReport {
	cfg := cmd.flags.Config
	report := validationReport{
		Path:     cmd.flags.ConfigPath,
		Warnings: cfg.Warnings(),
	}

	if err := cfg.Validate(); err != nil {
		var fieldErrs criterio.FieldErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				report.Errors = append(report.Errors, problem{Field: fe.Field, Message: fe.Err.Error()})
			}
		} else {
			report.Errors = append(report.Errors, problem{Message: err.Error()})
		}
	}

	report.Valid = len(report.Errors) == 0 && (!cmd.strict || len(report.Warnings) == 0)
	return report
}

func printReport(p *printer.Printer, r validationReport) {
	if r.Path != "" {
		p.Infof("Checked %s", r.Path)
	}

	for _, e := range r.Errors {
		if e.Field == "" {
			p.Errorf("%s", e.Message)
			continue
		}
		p.Errorf("%s: %s", e.Field, e.Message)
	}

	for _, w := range r.Warnings {
		p.Warnf("%s: %s (%s)", w.Item, w.Message, w.Category)
	}

	if r.Valid {
		p.Successf("Configuration is valid")
	}
}
