package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/leofor19/hackeeg-go/config"
	"github.com/leofor19/hackeeg-go/hackeeg"
	"github.com/leofor19/hackeeg-go/wire"
)

var (
	scanSamples  int
	scanDuration float64
	scanSpeed    int
	scanGain     int
	scanMode     string
	scanTest     bool
	scanOutput   string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Record a sample stream from the amplifier",
	Long: `Record a continuous sample stream from the ADS1299 and report the
achieved throughput and the number of dropped samples. Flags override
the configuration file. With --output the samples are saved as JSON
Lines, one record per line.`,
	Run: func(cmd *cobra.Command, args []string) {
		if board == nil {
			cobra.CheckErr(fmt.Errorf("board not available"))
		}

		// Settings come from the configuration file unless given here.
		speed := config.Speed
		if cmd.Flags().Changed("speed") {
			speed = scanSpeed
		}
		gain := config.Gain
		if cmd.Flags().Changed("gain") {
			gain = scanGain
		}
		maxSamples := config.MaxSamples
		if cmd.Flags().Changed("samples") {
			maxSamples = scanSamples
		}
		duration := config.Duration
		if cmd.Flags().Changed("duration") {
			duration = scanDuration
		}
		mode := config.Mode
		if cmd.Flags().Changed("mode") {
			m, err := wire.ParseMode(scanMode)
			if err != nil {
				cobra.CheckErr(err)
			}
			mode = m
		}
		channelTest := config.ChannelTest
		if cmd.Flags().Changed("channel-test") {
			channelTest = scanTest
		}

		err := board.Configure(hackeeg.ScanConfig{
			SampleRate:  speed,
			Gain:        gain,
			Mode:        mode,
			ChannelTest: channelTest,
		})
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to configure acquisition: %w", err))
		}

		limit := maxSamples
		if byDuration := int(duration * float64(speed)); byDuration < limit {
			limit = byDuration
		}
		fmt.Printf("Recording %d samples at %d SPS, gain %d, %s framing\n",
			limit, speed, gain, mode)

		bar := progressbar.Default(int64(limit))
		board.SetSampleObserver(func(*wire.Sample) {
			_ = bar.Add(1)
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		rec, err := board.Acquire(ctx, maxSamples,
			time.Duration(duration*float64(time.Second)))
		_ = bar.Exit()
		if err != nil {
			// A degraded run still reports what it achieved.
			fmt.Printf("\nAcquisition ended early: %v\n", err)
		}
		if rec == nil {
			return
		}

		fmt.Printf("\n")
		fmt.Printf("Samples: %d of %d requested\n", len(rec.Samples), rec.Requested)
		fmt.Printf("Duration: %.2f s\n", rec.Elapsed.Seconds())
		fmt.Printf("Throughput: %.1f samples per second\n", rec.Throughput)
		fmt.Printf("Dropped samples: %d\n", rec.Dropped)

		if scanOutput != "" {
			if err := writeRecording(scanOutput, rec, gain); err != nil {
				cobra.CheckErr(fmt.Errorf("failed to save samples: %w", err))
			}
			fmt.Printf("Samples saved to file '%s'.\n", scanOutput)
		}
	},
}

// sampleRecord is one JSON Lines output record.
type sampleRecord struct {
	Timestamp    uint32    `json:"timestamp"`
	SampleNumber uint32    `json:"sample_number"`
	GPIO         uint8     `json:"gpio"`
	LoffStatP    uint8     `json:"loff_statp"`
	LoffStatN    uint8     `json:"loff_statn"`
	Channels     []int32   `json:"channels"`
	MilliVolts   []float64 `json:"millivolts"`
}

// writeRecording saves the recording as JSON Lines, raw channel counts
// alongside their millivolt conversions at the recording gain.
func writeRecording(filename string, rec *hackeeg.Recording, gain int) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, s := range rec.Samples {
		record := sampleRecord{
			Timestamp:    s.Timestamp,
			SampleNumber: s.SampleNumber,
			GPIO:         s.GPIO,
			LoffStatP:    s.LoffStatP,
			LoffStatN:    s.LoffStatN,
			Channels:     s.ChannelData[:],
			MilliVolts:   make([]float64, len(s.ChannelData)),
		}
		for ch := 1; ch <= len(s.ChannelData); ch++ {
			record.MilliVolts[ch-1] = s.Voltage(ch, gain, 1e-3)
		}
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("failed to encode sample %d: %w", s.SampleNumber, err)
		}
	}
	return w.Flush()
}

func init() {
	scanCmd.Flags().IntVar(&scanSamples, "samples", 0,
		"maximum number of samples to record")
	scanCmd.Flags().Float64Var(&scanDuration, "duration", 0,
		"recording duration in seconds")
	scanCmd.Flags().IntVar(&scanSpeed, "speed", 0,
		"sample rate in samples per second")
	scanCmd.Flags().IntVar(&scanGain, "gain", 0,
		"gain applied to every channel")
	scanCmd.Flags().StringVar(&scanMode, "mode", "",
		"stream framing, jsonlines or messagepack")
	scanCmd.Flags().BoolVar(&scanTest, "channel-test", false,
		"route internal test signals instead of electrode inputs")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "",
		"save samples to this file as JSON Lines")
	rootCmd.AddCommand(scanCmd)
}
