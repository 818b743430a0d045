package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePAL/pkg/dump"
	"github.com/OpenTraceLab/OpenTracePAL/pkg/equation"
	"github.com/OpenTraceLab/OpenTracePAL/pkg/pld"
	"github.com/OpenTraceLab/OpenTracePAL/pkg/profile"
	"github.com/OpenTraceLab/OpenTracePAL/pkg/qm"
)

var (
	// Flags for recover command
	recoverDeviceType string
	recoverPolarity   string
	recoverOEPolarity string
	recoverTruthTable bool
	recoverOutput     string
	recoverParallel   int
)

var recoverCmd = &cobra.Command{
	Use:   "recover <dump file>",
	Short: "Reconstruct equations from a brute-force dump",
	Long: `Process a brute-force EPROM dump of a PAL device and produce a
compatible .pld equation file.

The dump is expected to cover the full input address space of the
selected device profile, one output word per input combination. Outputs
wired to a Hi-Z probe line get an independent output-enable equation.

Examples:
  # Auto-detect the device by dump size
  pal recover dump.bin

  # Force a device and equation polarities
  pal recover --devicetype pal22v10 --polarity negative --oepolarity positive dump.bin

  # Also write a raw truth-table listing for manual review
  pal recover --truthtable dump.bin`,
	Args: cobra.ExactArgs(1),
	RunE: runRecover,
}

func init() {
	rootCmd.AddCommand(recoverCmd)

	recoverCmd.Flags().StringVarP(&recoverDeviceType, "devicetype", "d", "auto",
		"device type (auto, pal16l8, pal16v8, pal22v10, ...)")
	recoverCmd.Flags().StringVar(&recoverPolarity, "polarity", "auto",
		"output equation polarity (auto, both, positive, negative)")
	recoverCmd.Flags().StringVar(&recoverOEPolarity, "oepolarity", "auto",
		"output enable equation polarity (auto, both, positive, negative)")
	recoverCmd.Flags().BoolVar(&recoverTruthTable, "truthtable", false,
		"also write a raw truth-table listing next to the .pld file")
	recoverCmd.Flags().StringVarP(&recoverOutput, "output", "o", "",
		"output .pld file path (default: <dump>.pld)")
	recoverCmd.Flags().IntVar(&recoverParallel, "parallel", 0,
		"pins minimized concurrently (0 = all CPUs)")
}

func runRecover(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	dumpPath := args[0]

	catalog, err := profile.LoadCatalog(profilesPath)
	if err != nil {
		return err
	}

	info, err := os.Stat(dumpPath)
	if err != nil {
		return fmt.Errorf("cannot stat dump file: %w", err)
	}

	prof, err := profile.Resolve(catalog, recoverDeviceType, info.Size())
	if err != nil {
		return err
	}
	fmt.Printf("Device detected: %s (%s)\n", prof.Type, prof.DeviceName)

	// Profile defaults apply unless a polarity flag was given explicitly.
	outPol, oePol := prof.OutputPolarity, prof.OEPolarity
	if cmd.Flags().Changed("polarity") {
		if outPol, err = qm.ParsePolarity(recoverPolarity); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("oepolarity") {
		if oePol, err = qm.ParsePolarity(recoverOEPolarity); err != nil {
			return err
		}
	}

	fmt.Printf("Reading dump: %s (%d bytes)\n", dumpPath, info.Size())
	table, err := dump.ReadFile(dumpPath, prof)
	if err != nil {
		return err
	}

	cfg := equation.DefaultConfig()
	cfg.OutputPolarity = outPol
	cfg.OEPolarity = oePol
	cfg.Parallelism = recoverParallel
	cfg.Logger = log

	progressCh := make(chan equation.Progress, 10)
	done := make(chan struct{})
	go func() {
		displayProgress(progressCh)
		close(done)
	}()

	doc, err := equation.Build(context.Background(), prof, table, cfg, progressCh)
	close(progressCh)
	<-done
	if err != nil {
		return fmt.Errorf("equation reconstruction failed: %w", err)
	}

	outPath := recoverOutput
	if outPath == "" {
		outPath = strings.TrimSuffix(dumpPath, filepath.Ext(dumpPath)) + ".pld"
	}

	hdr := pld.Header{
		Name: strings.TrimSuffix(filepath.Base(dumpPath), filepath.Ext(dumpPath)),
		Date: time.Now().Format("2006-01-02"),
	}
	if err := os.WriteFile(outPath, []byte(pld.Render(prof, doc, hdr)), 0644); err != nil {
		return fmt.Errorf("failed to write equations: %w", err)
	}
	fmt.Printf("✓ Equations saved to: %s\n", outPath)

	if recoverTruthTable {
		ttPath := strings.TrimSuffix(outPath, ".pld") + ".truthtable.txt"
		listing, err := pld.RenderTruthTable(prof, table)
		if err != nil {
			return fmt.Errorf("failed to render truth table: %w", err)
		}
		if err := os.WriteFile(ttPath, []byte(listing), 0644); err != nil {
			return fmt.Errorf("failed to write truth table: %w", err)
		}
		fmt.Printf("✓ Truth table saved to: %s\n", ttPath)
	}

	fmt.Printf("\nPins recovered:  %d/%d\n", len(doc.Pins), len(doc.Pins)+len(doc.Errors))
	fmt.Printf("Time elapsed:    %s\n", time.Since(startTime).Round(time.Millisecond))

	if !doc.Complete() {
		for _, pe := range doc.Errors {
			fmt.Fprintf(os.Stderr, "✗ %v\n", pe)
		}
		return fmt.Errorf("%d pin(s) could not be recovered", len(doc.Errors))
	}
	return nil
}

// displayProgress shows per-pin progress while equations are built.
func displayProgress(progressCh <-chan equation.Progress) {
	for p := range progressCh {
		switch p.Phase {
		case "init":
			fmt.Printf("Building equations for %d output pin(s)...\n", p.Total)
		case "building":
			fmt.Printf("\r[%d/%d] pin %d (%s)        ", p.Index+1, p.Total, p.Pin, p.Name)
		case "finalizing":
			fmt.Printf("\r%-40s\r", "")
		}
	}
}
