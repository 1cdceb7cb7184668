// Command metroctl inspects a metro network file and plans routes from the terminal.
package main

import (
	"os"

	"github.com/pterm/pterm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(exitCode(err))
	}
}
