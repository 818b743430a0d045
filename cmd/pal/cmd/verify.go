package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePAL/pkg/dump"
	"github.com/OpenTraceLab/OpenTracePAL/pkg/pld"
	"github.com/OpenTraceLab/OpenTracePAL/pkg/profile"
)

var verifyDeviceType string

var verifyCmd = &cobra.Command{
	Use:   "verify <pld file> <dump file>",
	Short: "Check a .pld equation file against a brute-force dump",
	Long: `Parse a .pld equation file and re-evaluate every equation against the
original dump, reporting any input combination where the equations and
the dump disagree.

Examples:
  pal verify recovered.pld dump.bin
  pal verify --devicetype pal22v10 recovered.pld dump.bin`,
	Args: cobra.ExactArgs(2),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVarP(&verifyDeviceType, "devicetype", "d", "auto",
		"device type (auto, pal16l8, pal16v8, pal22v10, ...)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	pldPath, dumpPath := args[0], args[1]

	catalog, err := profile.LoadCatalog(profilesPath)
	if err != nil {
		return err
	}

	info, err := os.Stat(dumpPath)
	if err != nil {
		return fmt.Errorf("cannot stat dump file: %w", err)
	}
	prof, err := profile.Resolve(catalog, verifyDeviceType, info.Size())
	if err != nil {
		return err
	}
	fmt.Printf("Device detected: %s (%s)\n", prof.Type, prof.DeviceName)

	parser, err := pld.NewParser()
	if err != nil {
		return err
	}
	f, err := parser.ParseFile(pldPath)
	if err != nil {
		return err
	}
	fmt.Printf("Parsed %s: %d pin(s), %d equation(s)\n",
		pldPath, len(f.PinDecls()), len(f.Equations()))

	table, err := dump.ReadFile(dumpPath, prof)
	if err != nil {
		return err
	}

	mismatches, err := pld.Verify(f, prof, table)
	if err != nil {
		return err
	}
	if len(mismatches) == 0 {
		fmt.Println("✓ All equations match the dump")
		return nil
	}
	for _, m := range mismatches {
		fmt.Fprintf(os.Stderr, "✗ %s\n", m)
	}
	return fmt.Errorf("%d mismatch(es) between equations and dump", len(mismatches))
}
