// Package console provides the interactive terminal of the proxy process.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/gookit/color"
	"go.minekube.com/common/minecraft/component"

	"github.com/portalmc/portal/pkg/proxy"
)

// Console reads commands from a terminal and runs them against the proxy.
type Console struct {
	proxy *proxy.Proxy
	log   logr.Logger
	in    io.Reader
	out   io.Writer
}

// New returns a console for the proxy reading from stdin.
func New(p *proxy.Proxy, log logr.Logger) *Console {
	return &Console{
		proxy: p,
		log:   log.WithName("console"),
		in:    os.Stdin,
		out:   os.Stdout,
	}
}

// Run reads and dispatches console commands until ctx is
// canceled or the input stream ends.
func (c *Console) Run(ctx context.Context) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				// Stdin closed, e.g. running non-interactive.
				return
			}
			if line == "" {
				continue
			}
			if !c.dispatch(ctx, line) {
				return
			}
		}
	}
}

// dispatch runs one console command line.
// Returns false when the console should stop.
func (c *Console) dispatch(ctx context.Context, line string) bool {
	args := strings.Fields(line)
	cmd, args := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "help", "?":
		c.printHelp()
	case "list":
		c.printList()
	case "send":
		c.send(ctx, args)
	case "kick":
		c.kick(args)
	case "alert":
		c.alert(args)
	case "uptime":
		c.printf("up %s, %d players online\n",
			c.proxy.Uptime().Round(time.Second), c.proxy.PlayerCount())
	case "end", "stop", "exit":
		var reason component.Component
		if len(args) != 0 {
			reason = &component.Text{Content: strings.Join(args, " ")}
		}
		c.proxy.Shutdown(reason)
		return false
	default:
		color.Fprintf(c.out, "<red>Unknown command %q, use \"help\"</>\n", cmd)
	}
	return true
}

func (c *Console) printHelp() {
	color.Fprint(c.out, `<cyan>Available commands:</>
  list                    list online players per server
  send <player> <server>  move a player to another server
  kick <player> [reason]  disconnect a player
  alert <message>         broadcast a message to all players
  uptime                  show proxy uptime and player count
  end [reason]            shut down the proxy
`)
}

func (c *Console) printList() {
	servers := c.proxy.Servers()
	sort.Slice(servers, func(i, j int) bool {
		return servers[i].ServerInfo().Name() < servers[j].ServerInfo().Name()
	})
	color.Fprintf(c.out, "<cyan>%d players online</>\n", c.proxy.PlayerCount())
	for _, s := range servers {
		players := s.Players()
		names := make([]string, 0, len(players))
		for _, p := range players {
			names = append(names, p.Username())
		}
		sort.Strings(names)
		color.Fprintf(c.out, "  <green>%s</> (%d): %s\n",
			s.ServerInfo().Name(), len(names), strings.Join(names, ", "))
	}
}

func (c *Console) send(ctx context.Context, args []string) {
	if len(args) != 2 {
		color.Fprintln(c.out, "<red>Usage: send <player> <server></>")
		return
	}
	player := c.proxy.PlayerByName(args[0])
	if player == nil {
		color.Fprintf(c.out, "<red>Player %q not found</>\n", args[0])
		return
	}
	server := c.proxy.Server(args[1])
	if server == nil {
		color.Fprintf(c.out, "<red>Server %q not registered</>\n", args[1])
		return
	}
	go func() {
		dialCtx, cancel := context.WithTimeout(ctx,
			time.Duration(c.proxy.Config().ConnectionTimeout)*time.Millisecond)
		defer cancel()
		if player.CreateConnectionRequest(server).ConnectWithIndication(dialCtx) {
			c.printf("Sent %s to %s\n", player.Username(), server.ServerInfo().Name())
		}
	}()
}

func (c *Console) kick(args []string) {
	if len(args) == 0 {
		color.Fprintln(c.out, "<red>Usage: kick <player> [reason]</>")
		return
	}
	player := c.proxy.PlayerByName(args[0])
	if player == nil {
		color.Fprintf(c.out, "<red>Player %q not found</>\n", args[0])
		return
	}
	var reason component.Component
	if len(args) > 1 {
		reason = &component.Text{Content: strings.Join(args[1:], " ")}
	}
	player.Disconnect(reason)
	c.printf("Kicked %s\n", player.Username())
}

func (c *Console) alert(args []string) {
	if len(args) == 0 {
		color.Fprintln(c.out, "<red>Usage: alert <message></>")
		return
	}
	c.proxy.Alert(&component.Text{Content: strings.Join(args, " ")})
}

func (c *Console) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(c.out, format, a...)
}
