package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leofor19/hackeeg-go/transport"
)

var resetUSB bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the amplifier",
	Long: `Reset the ADS1299 to its power-on register state. With --usb the
Due's USB device is reset as well, which recovers a wedged serial
connection at the cost of re-enumeration.`,
	Run: func(cmd *cobra.Command, args []string) {
		if board == nil {
			cobra.CheckErr(fmt.Errorf("board not available"))
		}

		if err := board.Reset(); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to reset amplifier: %w", err))
		}
		fmt.Printf("Amplifier reset.\n")

		if resetUSB {
			// The USB reset re-enumerates the device; release the port first.
			board.Close()
			board = nil
			if err := transport.ResetUSB(transport.ArduinoVID, transport.DueNativePID); err != nil {
				cobra.CheckErr(fmt.Errorf("failed to reset USB device: %w", err))
			}
			fmt.Printf("USB device reset.\n")
		}
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetUSB, "usb", false,
		"also reset the Due's USB device")
	rootCmd.AddCommand(resetCmd)
}
