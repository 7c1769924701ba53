package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/recipebook/internal/client/client"
	"github.com/dmitrijs2005/recipebook/internal/client/config"
)

type App struct {
	config *config.Config
	api    client.Client
	email  string
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	if c.ServerURL == "" {
		return nil, fmt.Errorf("server URL is not set")
	}
	api := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	return &App{config: c, api: api, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to the recipe book CLI (type 'help' for commands)")

	pctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	if err := a.api.Ping(pctx); err != nil {
		fmt.Fprintf(a.out, "Warning: %s is not reachable: %v\n", a.config.ServerURL, err)
	}
	cancel()

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.email != ""
}

func (a *App) getStatus() string {
	if a.email == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.email)
}
