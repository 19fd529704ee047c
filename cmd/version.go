package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the firmware version",
	Long:  "Query the HackEEG firmware for its version string.",
	Run: func(cmd *cobra.Command, args []string) {
		if board == nil {
			cobra.CheckErr(fmt.Errorf("board not available"))
		}

		version, err := board.Version()
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to read firmware version: %w", err))
		}
		fmt.Printf("HackEEG firmware %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
