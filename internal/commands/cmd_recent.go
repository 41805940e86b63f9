package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hay-kot/casa/internal/picker"
	"github.com/hay-kot/casa/internal/printer"
	"github.com/hay-kot/casa/pkg/tmpl"
)

type RecentCmd struct {
	flags *Flags

	// Command-specific flags
	match  string
	asJSON bool
	format string
}

// recentRow is the data passed to a --format template.
type recentRow struct {
	Index int
	Query string
}

// NewRecentCmd creates a new recent command
func NewRecentCmd(flags *Flags) *RecentCmd {
	return &RecentCmd{flags: flags}
}

// Register adds the recent command to the application
func (cmd *RecentCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "recent",
		Usage: "View or manage recent searches",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List recent searches, newest first",
				UsageText: "casa recent ls [options]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "match",
						Aliases:     []string{"m"},
						Usage:       "only show searches matching a glob pattern",
						Destination: &cmd.match,
					},
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "print as a JSON array",
						Destination: &cmd.asJSON,
					},
					&cli.StringFlag{
						Name:        "format",
						Usage:       "render each search with a Go template, e.g. 'casa search {{ shq .Query }}'",
						Destination: &cmd.format,
					},
				},
				Action: cmd.runList,
			},
			{
				Name:      "clear",
				Usage:     "Remove all recent searches",
				UsageText: "casa recent clear",
				Action:    cmd.runClear,
			},
			{
				Name:      "pick",
				Usage:     "Choose a recent search interactively and run it again",
				UsageText: "casa recent pick",
				Action:    cmd.runPick,
			},
		},
	})

	return app
}

func (cmd *RecentCmd) runList(ctx context.Context, c *cli.Command) error {
	entries, err := cmd.flags.Service.RecentSearches(ctx, cmd.match)
	if err != nil {
		return fmt.Errorf("list recent searches: %w", err)
	}

	if cmd.asJSON && cmd.format != "" {
		return fmt.Errorf("--json and --format cannot be combined")
	}

	if cmd.format != "" {
		return cmd.printFormatted(c, entries)
	}

	if cmd.asJSON {
		enc := json.NewEncoder(c.Root().Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		printer.Ctx(ctx).Infof("No recent searches")
		return nil
	}

	printer.New(c.Root().Writer).Numbered(entries)
	return nil
}

func (cmd *RecentCmd) printFormatted(c *cli.Command, entries []string) error {
	tpl, err := tmpl.Compile(cmd.format)
	if err != nil {
		return fmt.Errorf("--format: %w", err)
	}

	w := c.Root().Writer
	for i, e := range entries {
		line, err := tpl.Execute(recentRow{Index: i + 1, Query: e})
		if err != nil {
			return fmt.Errorf("--format: %w", err)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *RecentCmd) runClear(ctx context.Context, c *cli.Command) error {
	if err := cmd.flags.Service.ClearSearches(ctx); err != nil {
		return fmt.Errorf("clear recent searches: %w", err)
	}

	printer.Ctx(ctx).Successf("Recent searches cleared")
	return nil
}

func (cmd *RecentCmd) runPick(ctx context.Context, c *cli.Command) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("recent pick needs an interactive terminal; use 'casa recent ls' instead")
	}

	entries, err := cmd.flags.Service.RecentSearches(ctx, "")
	if err != nil {
		return fmt.Errorf("list recent searches: %w", err)
	}

	choice, err := picker.Pick("Recent searches", entries)
	switch {
	case errors.Is(err, picker.ErrNothingToPick):
		printer.Ctx(ctx).Infof("No recent searches")
		return nil
	case errors.Is(err, huh.ErrUserAborted):
		return nil
	case err != nil:
		return err
	}

	if _, err := cmd.flags.Service.RecordSearch(ctx, choice); err != nil {
		return fmt.Errorf("record search: %w", err)
	}

	_, err = fmt.Fprintln(c.Root().Writer, choice)
	return err
}
