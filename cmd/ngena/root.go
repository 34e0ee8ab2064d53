package main

import (
	"fmt"
	"os"

	"github.com/aretw0/ngena/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ngena",
	Short: "Ngena is a WhatsApp menu bot for course enrollment and tutoring",
	Long: `Ngena answers WhatsApp messages with menus, sign-up wizards, course tutorials and
payment links. Each message runs one dispatch cycle against the action table.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFiles, _ := cmd.Flags().GetStringSlice("env-file")
		return config.LoadDotEnv(envFiles...)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().StringSlice("env-file", nil, "Environment files to load (default .env)")
	rootCmd.PersistentFlags().String("log-level", "", "Override logging.level (debug, info, warn, error)")
}
