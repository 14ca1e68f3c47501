package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nerrad567/sextet-lights/internal/bridge"
	"github.com/nerrad567/sextet-lights/internal/sextet"
)

var decodeFrames bool

var decodeCmd = &cobra.Command{
	Use:   "decode [path]",
	Short: "Print the light transitions of a sextet stream",
	Long: `Decodes a SextetStream file or pipe and prints every light transition
without contacting any controller. The path defaults to standard input ("-").`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := bridge.StdinPath
		if len(args) == 1 {
			path = args[0]
		}

		input, err := bridge.OpenInput(path)
		if err != nil {
			return err
		}
		defer input.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		stop := context.AfterFunc(ctx, func() { _ = input.Close() })
		defer stop()

		if err := decodeStream(cmd.OutOrStdout(), input, decodeFrames); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		return nil
	},
}

func init() {
	decodeCmd.Flags().BoolVar(&decodeFrames, "frames", false, "also print every raw frame")
	rootCmd.AddCommand(decodeCmd)
}

// decodeStream writes one line per transition, prefixed with the frame
// number, followed by a summary line.
func decodeStream(w io.Writer, r io.Reader, frames bool) error {
	dec := sextet.NewDecoder(r)
	var differ sextet.Differ
	var count, transitions int

	for {
		frame, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		count++

		if frames {
			fmt.Fprintf(w, "%6d  frame % x\n", count, frame[:])
		}
		for t := range differ.Apply(frame) {
			transitions++
			state := "off"
			if t.On {
				state = "on"
			}
			fmt.Fprintf(w, "%6d  %-3s %s\n", count, state, t.Light)
		}
	}

	fmt.Fprintf(w, "%d frames, %d transitions", count, transitions)
	if partial := dec.Partial(); partial > 0 {
		fmt.Fprintf(w, ", %d trailing bytes dropped", partial)
	}
	fmt.Fprintln(w)
	return nil
}
