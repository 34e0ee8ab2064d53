package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/ngena"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ngena",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ngena version %s\n", strings.TrimSpace(ngena.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
