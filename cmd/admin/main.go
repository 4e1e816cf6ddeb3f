package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/ledgerhouse/internal/admincli"
	"github.com/dmitrijs2005/ledgerhouse/internal/flagx"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/config"
)

// configFlags mirrors the flags config.LoadConfig consumes, so the command
// and its arguments can be separated from them.
var configFlags = []string{
	"-l", "-d", "-s", "-t", "-v", "-u", "-p", "-b", "-g", "-e", "-c", "-config",
}

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := admincli.NewApp(cfg)
	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	args := flagx.RemainingArgs(os.Args[1:], configFlags)
	runErr := app.Run(ctx, args)

	if err := app.Close(); err != nil {
		log.Printf("%v", err)
	}
	if runErr != nil {
		log.Printf("%v", runErr)
		os.Exit(1)
	}
}
