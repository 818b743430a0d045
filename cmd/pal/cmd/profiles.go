package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePAL/pkg/profile"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List known device profiles",
	Long: `List every device profile in the active catalog along with its
geometry: input address width, output count and the expected brute-force
dump size used for auto-detection.`,
	Args: cobra.NoArgs,
	RunE: runProfiles,
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}

func runProfiles(cmd *cobra.Command, args []string) error {
	catalog, err := profile.LoadCatalog(profilesPath)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tDEVICE\tINPUTS\tOUTPUTS\tDUMP SIZE")
	for _, name := range catalog.Names() {
		p := catalog[name]
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n",
			p.Type, p.DeviceName, p.AddressWidth, p.Outputs(), p.ExpectedDumpSize())
	}
	return w.Flush()
}
