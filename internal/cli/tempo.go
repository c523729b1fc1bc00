package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"setpace/internal/core/model"
	"setpace/internal/core/tempo"

	"github.com/spf13/cobra"
)

var tempoTick time.Duration

var tempoCmd = &cobra.Command{
	Use:   "tempo [notation] [reps]",
	Short: "Guide a set at a fixed tempo",
	Long: `Calls out each phase of every rep. Notation is eccentric-bottom-concentric-top
in seconds, e.g. 3-0-1-0 or 3010. Missing arguments come from the settings file.

Controls (type a line and press enter):
  p     pause
  r     resume
  n     skip to the next rep
  gN    go to rep N
  q     stop`,
	Args: cobra.MaximumNArgs(2),
	RunE: runTempo,
}

func init() {
	tempoCmd.Flags().DurationVar(&tempoTick, "tick", 0, "driver interval")
	_ = tempoCmd.Flags().MarkHidden("tick")
	rootCmd.AddCommand(tempoCmd)
}

func runTempo(cmd *cobra.Command, args []string) error {
	notation := settings.Tempo
	if len(args) > 0 {
		notation = args[0]
	}
	reps := settings.Reps
	if len(args) > 1 {
		parsed, err := strconv.Atoi(args[1])
		if err != nil || parsed < 1 {
			return fmt.Errorf("invalid rep count %q: want a positive number", args[1])
		}
		reps = parsed
	}

	out := cmd.OutOrStdout()
	spec := tempo.Parse(notation)
	if !tempo.Valid(notation) {
		fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("Tempo %q not understood, using %s", notation, spec)))
	}

	config := settings.TempoConfig()
	if tempoTick > 0 {
		config.TickInterval = tempoTick
	}
	engine := tempo.New(config)

	signalCtx, stopSignals := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	ctx, quit := context.WithCancel(signalCtx)
	defer quit()

	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Tempo %s x %d (%ds under tension)",
		spec, reps, tempo.SetTimeUnderTension(spec, reps))))

	engine.Start(notation, reps)
	sub := engine.Subscribe(settings.SubscriberBuffer)
	defer sub.Close()
	if beat, ok := engine.CurrentBeat(); ok {
		renderBeat(out, beat, engine.IsPaused())
	}

	commands := readCommands(ctx, cmd.InOrStdin())
	done := ctx.Done()
	stopped := false

	for {
		select {
		case beat, ok := <-sub.C():
			if !ok {
				if stopped {
					fmt.Fprintln(out, warningStyle.Render("Set stopped."))
				} else {
					fmt.Fprintln(out, successStyle.Render("Set complete. Rest up!"))
				}
				return nil
			}
			renderBeat(out, beat, false)

		case line, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			if err := applyTempoCommand(engine, line); err != nil {
				if errors.Is(err, errQuit) {
					quit()
					continue
				}
				fmt.Fprintln(out, errorStyle.Render(err.Error()))
				continue
			}
			if line == "p" || line == "r" {
				if beat, ok := engine.CurrentBeat(); ok {
					renderBeat(out, beat, engine.IsPaused())
				}
			}

		case <-done:
			done = nil
			stopped = true
			engine.Stop()
		}
	}
}

func applyTempoCommand(engine *tempo.Engine, line string) error {
	switch {
	case line == "p":
		engine.Pause()
	case line == "r":
		engine.Resume()
	case line == "n":
		engine.SkipToNextRep()
	case line == "q":
		return errQuit
	case strings.HasPrefix(line, "g"):
		rep, err := strconv.Atoi(line[1:])
		if err != nil {
			return fmt.Errorf("unknown command %q", line)
		}
		engine.SkipToRep(rep)
	default:
		return fmt.Errorf("unknown command %q (p, r, n, gN, q)", line)
	}
	return nil
}

func renderBeat(out io.Writer, beat model.Beat, paused bool) {
	style, ok := phaseStyles[beat.Phase]
	if !ok {
		style = mutedStyle
	}
	line := fmt.Sprintf("%s %s %s %s",
		mutedStyle.Render(fmt.Sprintf("rep %d/%d", beat.CurrentRep, beat.TotalReps)),
		style.Render(fmt.Sprintf("%-6s", phaseLabels[beat.Phase])),
		clockStyle.Render(fmt.Sprintf("%d/%d", beat.SecondsInPhase, beat.TotalSecondsInPhase)),
		mutedStyle.Render(progressBar(beat.Progress)),
	)
	if paused {
		line += " " + warningStyle.Render("paused")
	}
	fmt.Fprintln(out, line)
}
