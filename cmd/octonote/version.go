package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/octonote"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of octonote",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("octonote version %s\n", strings.TrimSpace(octonote.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
