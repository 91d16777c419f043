// Command debrief is the terminal client for the DeBrief demand-management
// service.
package main

import (
	"os"

	"github.com/debriefapp/debrief-cli/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
