// cmd/zebractl/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var serverURL string

func main() {
	root := &cobra.Command{
		Use:           "zebractl",
		Short:         "Control a zebra-printer-utility server",
		Long:          "zebractl talks to a running zebra-printer-utility server: discover printers, connect, print and adjust device settings.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8090", "base URL of the printer utility server")

	root.AddCommand(
		newDiscoverCmd(),
		newPrintersCmd(),
		newConnectCmd(),
		newDisconnectCmd(),
		newStatusCmd(),
		newPrintCmd(),
		newJobsCmd(),
		newDarknessCmd(),
		newMediaCmd(),
		newCalibrateCmd(),
		newWatchCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
