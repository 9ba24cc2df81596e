package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anttttti/DuneBlend"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of duneblend",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("duneblend version %s\n", duneblend.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
