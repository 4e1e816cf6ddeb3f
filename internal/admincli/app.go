// Package admincli is the operator console: a one-shot command per
// invocation, operating directly on the ledger store through the same
// services the server uses.
package admincli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/ledgerhouse/internal/server"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/config"
)

type App struct {
	backend *server.App
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	backend, err := server.NewApp(c)
	if err != nil {
		return nil, err
	}

	return &App{
		backend: backend,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

// Close releases the backing store.
func (a *App) Close() error {
	return a.backend.Close()
}

// Run dispatches one subcommand. args holds the positional arguments after
// the global flags, the first one naming the command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return nil
	}

	cmd, rest := args[0], args[1:]

	switch cmd {
	case "register":
		return a.Register(ctx)
	case "pending":
		return a.ListPending(ctx)
	case "users":
		return a.ListActive(ctx)
	case "approve":
		return a.Approve(ctx, rest)
	case "reject":
		return a.Reject(ctx, rest)
	case "activate":
		return a.SetActive(ctx, rest, true)
	case "deactivate":
		return a.SetActive(ctx, rest, false)
	case "activity":
		return a.Activity(ctx, rest)
	case "billing":
		return a.Billing(ctx, rest)
	case "export":
		return a.ExportBilling(ctx, rest)
	case "history":
		return a.History(ctx, rest)
	case "erase":
		return a.Erase(ctx, rest)
	case "maintain":
		return a.Maintain(ctx)
	default:
		a.usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.out, `usage: admin [flags] <command> [args]

commands:
  register                          interactively create an account
  pending                           list accounts awaiting approval
  users                             list active accounts
  approve <user-id> <tier>          approve a pending account into a tier
  reject <user-id>                  reject and remove a pending account
  activate <user-id>                re-enable an account
  deactivate <user-id>              disable an account
  activity <user-id> [limit]        show a user's recent audit events
  billing <user-id> <from> <to>     billing summary for a date range
  export <user-id> <from> <to>      upload a billing statement, print its URL
  history <table>                   show a table's commit history
  erase <user-id>                   GDPR purge of all the user's data
  maintain                          run one sweep/compact/vacuum pass`)
}
