// Command fundledger runs the organization and investment ledger host.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/fundledger/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
