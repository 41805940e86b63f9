package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/casa/internal/core/push"
	"github.com/hay-kot/casa/internal/printer"
)

type PushCmd struct {
	flags *Flags
}

// NewPushCmd creates a new push command
func NewPushCmd(flags *Flags) *PushCmd {
	return &PushCmd{flags: flags}
}

// Register adds the push command to the application
func (cmd *PushCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "push",
		Usage: "Manage the push notification token",
		Commands: []*cli.Command{
			{
				Name:      "register",
				Usage:     "Cache a device push token and send it if logged in",
				UsageText: "casa push register <token>",
				Description: `Stores the token locally. When a valid session exists the token is also
sent to the backend; otherwise it is sent on the next login or 'casa push sync'.`,
				Action: cmd.runRegister,
			},
			{
				Name:      "sync",
				Usage:     "Send a cached token that has not reached the backend",
				UsageText: "casa push sync",
				Action:    cmd.runSync,
			},
			{
				Name:      "status",
				Usage:     "Show the cached push token state",
				UsageText: "casa push status",
				Action:    cmd.runStatus,
			},
		},
	})

	return app
}

func (cmd *PushCmd) runRegister(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one token argument")
	}

	if err := cmd.flags.Service.RegisterPushToken(ctx, c.Args().First()); err != nil {
		return fmt.Errorf("register push token: %w", err)
	}

	printer.Ctx(ctx).Successf("Push token cached")
	return nil
}

func (cmd *PushCmd) runSync(ctx context.Context, c *cli.Command) error {
	if err := cmd.flags.Service.SyncPushToken(ctx); err != nil {
		return fmt.Errorf("sync push token: %w", err)
	}

	printer.Ctx(ctx).Infof("Push token sync requested")
	return nil
}

func (cmd *PushCmd) runStatus(ctx context.Context, c *cli.Command) error {
	reg, err := cmd.flags.Service.PushStatus(ctx)
	if errors.Is(err, push.ErrNotFound) {
		printer.Ctx(ctx).Infof("No push token cached")
		return nil
	}
	if err != nil {
		return fmt.Errorf("push status: %w", err)
	}

	status := printer.StatusWarn("pending")
	if reg.Synced {
		status = printer.StatusOK("synced")
	}

	out := printer.New(c.Root().Writer)
	out.Printf("token:   %s", reg.Token)
	out.Printf("status:  %s", status)
	return nil
}
