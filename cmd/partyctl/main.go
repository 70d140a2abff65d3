// Command partyctl runs maintenance tasks against a House Party deployment
// and drives the live-score feed for a party.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const releaseVersion = "0.1.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cobra.CheckErr(newRootCmd(os.Stdout).ExecuteContext(ctx))
}
