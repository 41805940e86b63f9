package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/casa/internal/printer"
)

type SearchCmd struct {
	flags *Flags
}

// NewSearchCmd creates a new search command
func NewSearchCmd(flags *Flags) *SearchCmd {
	return &SearchCmd{flags: flags}
}

// Register adds the search command to the application
func (cmd *SearchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "search",
		Usage:     "Record a property search",
		UsageText: "casa search <query...>",
		Description: `Records a search query in the recent searches list.

The query moves to the top of the list; if it was already present it is not
duplicated. The oldest entries drop off once the list reaches its capacity.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *SearchCmd) run(ctx context.Context, c *cli.Command) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query is required")
	}

	entries, err := cmd.flags.Service.RecordSearch(ctx, query)
	if err != nil {
		return fmt.Errorf("record search: %w", err)
	}

	printer.Ctx(ctx).Successf("Recorded %q (%d recent)", query, len(entries))
	return nil
}
