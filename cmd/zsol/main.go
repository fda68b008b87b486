// Command zsol is a minimal Solana wallet for the terminal.
package main

import (
	"os"

	"github.com/AlexZinkM/zsol/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
