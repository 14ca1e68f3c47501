package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nerrad567/sextet-lights/internal/sextet"
)

var lightsCmd = &cobra.Command{
	Use:   "lights",
	Short: "List the lights carried by the sextet stream",
	Long: `Lists every light of the SextetStream layout with its byte index and bit
mask. Controllers expose lights under these names.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printLights(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(lightsCmd)
}

func printLights(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BYTE\tMASK\tLIGHT")
	for pos, name := range sextet.MappedLights() {
		fmt.Fprintf(tw, "%d\t0x%02X\t%s\n", pos.Index, pos.Mask, name)
	}
	fmt.Fprintf(tw, "-\t-\t%s\n", sextet.MainLight)
	return tw.Flush()
}
