// teamvault is the command line client: it saves an API token and downloads
// application vaults as .env files.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/teamvault/teamvault/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.NewApp().Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
