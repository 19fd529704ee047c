package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leofor19/hackeeg-go/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the status of the amplifier",
	Long:  "Check the status of the HackEEG amplifier board.",
	Run: func(cmd *cobra.Command, args []string) {
		if board == nil {
			cobra.CheckErr(fmt.Errorf("board not available"))
		}

		resp, err := board.Status()
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to read board status: %w", err))
		}
		fmt.Printf("Status: %d %s\n", resp.StatusCode, resp.StatusText)

		if version, err := board.Version(); err == nil {
			fmt.Printf("Firmware: %s\n", version)
		}
		fmt.Printf("Protocol mode: %s\n", board.Mode())

		fmt.Printf("\nConfiguration script: ~/.hackeeg.toml\n")
		fmt.Printf("Scan: %d SPS, gain %d, %s framing\n",
			config.Speed, config.Gain, config.Mode)
		fmt.Printf("Limits: %d samples, %.1f s\n",
			config.MaxSamples, config.Duration)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
