package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build info - injected via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "fleetpanel",
	Short: "Fleet panel and traffic ledger",
	Long:  `fleetpanel manages proxy users, their traffic accounting and the node fleet serving them.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
