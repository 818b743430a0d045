package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose      bool
	profilesPath string
)

// log is the process-wide logger; recover and verify hand it to the
// equation builder for per-pin diagnostics.
var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "pal",
	Short: "PAL/GAL equation recovery from brute-force dumps",
	Long: `Reconstruct Boolean equations for combinatorial PAL/GAL devices from
brute-force EPROM-style dumps captured through an adapter socket.

Examples:
  pal recover dump.bin                               # Auto-detect device, write dump.pld
  pal recover --devicetype pal22v10 --polarity both dump.bin
  pal verify dump.pld dump.bin                       # Re-check equations against the dump
  pal profiles                                       # List known device profiles`,
	Version: "1.0.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetLevel(logrus.WarnLevel)
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&profilesPath, "profiles", "",
		"device profile catalog file (default: built-in catalog)")
}
