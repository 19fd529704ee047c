package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/leofor19/hackeeg-go/config"
	"github.com/leofor19/hackeeg-go/hackeeg"
	"github.com/leofor19/hackeeg-go/wire"
)

var (
	board *hackeeg.Board
	log   = logrus.New()

	portFlag   string
	configFlag string
	debugFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "hackeeg",
	Short: "A CLI program which works with a HackEEG bioamplifier via USB",
	Long: "The hackeeg tool is a CLI program which talks to a HackEEG ADS1299 " +
		"bioamplifier shield on an Arduino Due, over the Due's native USB port.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugFlag {
			log.SetLevel(logrus.DebugLevel)
		}

		// Initialize configuration
		if err := config.Initialize(configFlag); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to initialize config: %w", err))
		}

		port := config.Port
		if portFlag != "" {
			port = portFlag
		}

		// Commands talk JSON Lines; a scan switches itself to the
		// configured stream framing.
		var err error
		board, err = hackeeg.Open(port,
			hackeeg.WithBaudRate(config.BaudRate),
			hackeeg.WithTargetMode(wire.ModeJSONLines),
			hackeeg.WithLogger(log),
		)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to open HackEEG board: %w", err))
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if board != nil {
			board.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&portFlag, "port", "",
		"serial port of the board (default: autodetect)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "",
		"path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"enable debug logging")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
