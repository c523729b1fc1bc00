package cli

import (
	"fmt"
	"strconv"

	"setpace/internal/core/tempo"

	"github.com/spf13/cobra"
)

var tutCmd = &cobra.Command{
	Use:   "tut <notation> [reps]",
	Short: "Print time under tension for a tempo",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runTut,
}

func init() {
	rootCmd.AddCommand(tutCmd)
}

func runTut(cmd *cobra.Command, args []string) error {
	notation := args[0]
	reps := settings.Reps
	if len(args) > 1 {
		parsed, err := strconv.Atoi(args[1])
		if err != nil || parsed < 0 {
			return fmt.Errorf("invalid rep count %q", args[1])
		}
		reps = parsed
	}

	spec := tempo.Parse(notation)
	if !tempo.Valid(notation) {
		cmd.Printf("%q is not a valid tempo, using %s\n", notation, spec)
	}

	cmd.Println(titleStyle.Render("Tempo " + spec.String()))
	cmd.Printf("  Eccentric:    %ds\n", spec.Eccentric)
	cmd.Printf("  Bottom pause: %ds\n", spec.BottomPause)
	cmd.Printf("  Concentric:   %ds\n", spec.Concentric)
	cmd.Printf("  Top pause:    %ds\n", spec.TopPause)
	cmd.Printf("Per rep: %ds\n", tempo.TimeUnderTension(spec))
	cmd.Printf("Per set of %d: %ds\n", reps, tempo.SetTimeUnderTension(spec, reps))
	return nil
}
