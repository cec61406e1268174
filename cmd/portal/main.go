// Portal is a Minecraft Java edition reverse proxy.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/portalmc/portal/pkg/portal"
)

func main() {
	app := &cli.App{
		Name:  "portal",
		Usage: "A Minecraft Java edition reverse proxy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file path",
				EnvVars: []string{"PORTAL_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "bind",
				Usage:   "address to listen for connections, overrides the config",
				EnvVars: []string{"PORTAL_BIND"},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "enable debug logging",
				EnvVars: []string{"PORTAL_DEBUG"},
			},
			&cli.BoolFlag{
				Name:    "no-console",
				Usage:   "disable the interactive console",
				EnvVars: []string{"PORTAL_NO_CONSOLE"},
			},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context,
				os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
			defer stop()
			return portal.Run(ctx, portal.Options{
				ConfigFile: c.String("config"),
				Bind:       c.String("bind"),
				Debug:      c.Bool("debug"),
				NoConsole:  c.Bool("no-console"),
			})
		},
	}
	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
