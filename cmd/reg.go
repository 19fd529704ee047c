package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var rregCmd = &cobra.Command{
	Use:   "rreg REGISTER",
	Short: "Read an ADS1299 register",
	Long: `Read the value of an ADS1299 register. REGISTER may be decimal
or hexadecimal with an 0x prefix.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if board == nil {
			cobra.CheckErr(fmt.Errorf("board not available"))
		}

		register, err := strconv.ParseUint(args[0], 0, 8)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("invalid register %q: %w", args[0], err))
		}
		resp, err := board.RReg(int(register))
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to read register: %w", err))
		}

		// The firmware formats the register value into the status text.
		fmt.Printf("%s\n", resp.StatusText)
	},
}

var wregCmd = &cobra.Command{
	Use:   "wreg REGISTER VALUE",
	Short: "Write an ADS1299 register",
	Long: `Write a value to an ADS1299 register. REGISTER and VALUE may be
decimal or hexadecimal with an 0x prefix.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if board == nil {
			cobra.CheckErr(fmt.Errorf("board not available"))
		}

		register, err := strconv.ParseUint(args[0], 0, 8)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("invalid register %q: %w", args[0], err))
		}
		value, err := strconv.ParseUint(args[1], 0, 8)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("invalid value %q: %w", args[1], err))
		}

		if err := board.WReg(int(register), int(value)); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to write register: %w", err))
		}
		fmt.Printf("Register 0x%02x set to 0x%02x.\n", register, value)
	},
}

func init() {
	rootCmd.AddCommand(rregCmd)
	rootCmd.AddCommand(wregCmd)
}
