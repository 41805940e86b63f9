package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/casa/internal/core/session"
	"github.com/hay-kot/casa/internal/printer"
)

type SessionCmd struct {
	flags *Flags

	// login flags
	user  string
	token string
	ttl   time.Duration
}

// NewSessionCmd creates a new session command
func NewSessionCmd(flags *Flags) *SessionCmd {
	return &SessionCmd{flags: flags}
}

// Register adds the session command to the application
func (cmd *SessionCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "session",
		Usage: "Manage the signed-in account",
		Commands: []*cli.Command{
			{
				Name:      "login",
				Usage:     "Store credentials and send any pending push token",
				UsageText: "casa session login --user <id> --token <access-token> [--ttl 24h]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "user",
						Aliases:     []string{"u"},
						Usage:       "user id",
						Required:    true,
						Destination: &cmd.user,
					},
					&cli.StringFlag{
						Name:        "token",
						Aliases:     []string{"t"},
						Usage:       "access token",
						Sources:     cli.EnvVars("CASA_ACCESS_TOKEN"),
						Required:    true,
						Destination: &cmd.token,
					},
					&cli.DurationFlag{
						Name:        "ttl",
						Usage:       "session lifetime (0 never expires)",
						Destination: &cmd.ttl,
					},
				},
				Action: cmd.runLogin,
			},
			{
				Name:      "logout",
				Usage:     "Forget the stored credentials",
				UsageText: "casa session logout",
				Action:    cmd.runLogout,
			},
			{
				Name:      "show",
				Usage:     "Show the signed-in account",
				UsageText: "casa session show",
				Action:    cmd.runShow,
			},
		},
	})

	return app
}

func (cmd *SessionCmd) runLogin(ctx context.Context, c *cli.Command) error {
	sess, err := cmd.flags.Service.Login(ctx, cmd.user, cmd.token, cmd.ttl)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	p := printer.Ctx(ctx)
	if sess.ExpiresAt.IsZero() {
		p.Successf("Logged in as %s", sess.UserID)
	} else {
		p.Successf("Logged in as %s until %s", sess.UserID, sess.ExpiresAt.Format(time.DateTime))
	}
	return nil
}

func (cmd *SessionCmd) runLogout(ctx context.Context, c *cli.Command) error {
	if err := cmd.flags.Service.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	printer.Ctx(ctx).Successf("Logged out")
	return nil
}

func (cmd *SessionCmd) runShow(ctx context.Context, c *cli.Command) error {
	sess, err := cmd.flags.Service.CurrentSession(ctx)
	if errors.Is(err, session.ErrNotFound) {
		printer.Ctx(ctx).Infof("Not logged in")
		return nil
	}
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}

	out := printer.New(c.Root().Writer)
	now := time.Now()

	status := printer.StatusOK("active")
	if sess.Expired(now) {
		status = printer.StatusWarn("expired")
	}

	out.Printf("user:    %s", sess.UserID)
	out.Printf("status:  %s", status)
	if !sess.ExpiresAt.IsZero() {
		out.Printf("expires: %s", sess.ExpiresAt.Format(time.DateTime))
	}
	return nil
}
