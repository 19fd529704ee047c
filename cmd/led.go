package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ledArduino bool

var ledCmd = &cobra.Command{
	Use:   "led on|off|blink",
	Short: "Control the board LED",
	Long: `Control the blue LED on the HackEEG shield. With --arduino the
LED on the Due itself is switched instead; blink always uses the
shield LED.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if board == nil {
			cobra.CheckErr(fmt.Errorf("board not available"))
		}

		var err error
		switch args[0] {
		case "on":
			if ledArduino {
				err = board.LEDOn()
			} else {
				err = board.BoardLEDOn()
			}
		case "off":
			if ledArduino {
				err = board.LEDOff()
			} else {
				err = board.BoardLEDOff()
			}
		case "blink":
			err = board.BlinkBoardLED()
		default:
			cobra.CheckErr(fmt.Errorf("unknown LED action: %s", args[0]))
		}
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to switch LED: %w", err))
		}
	},
}

func init() {
	ledCmd.Flags().BoolVar(&ledArduino, "arduino", false,
		"switch the LED on the Due instead of the shield")
	rootCmd.AddCommand(ledCmd)
}
