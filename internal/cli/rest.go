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
	"setpace/internal/core/rest"

	"github.com/spf13/cobra"
)

var restTick time.Duration

var restCmd = &cobra.Command{
	Use:   "rest [seconds]",
	Short: "Run a rest countdown",
	Long: `Counts down the rest between sets. Without an argument the rest length
comes from the settings file.

Controls (type a line and press enter):
  p     pause
  r     resume
  +N    add N seconds
  -N    remove N seconds
  =N    jump to N seconds remaining
  q     cancel`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRest,
}

func init() {
	restCmd.Flags().DurationVar(&restTick, "tick", 0, "driver interval")
	_ = restCmd.Flags().MarkHidden("tick")
	rootCmd.AddCommand(restCmd)
}

func runRest(cmd *cobra.Command, args []string) error {
	seconds := settings.RestSeconds
	if len(args) == 1 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed < 0 {
			return fmt.Errorf("invalid rest length %q: want whole seconds", args[0])
		}
		seconds = parsed
	}

	config := settings.RestConfig()
	if restTick > 0 {
		config.TickInterval = restTick
	}
	engine := rest.New(config)

	signalCtx, stopSignals := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	ctx, quit := context.WithCancel(signalCtx)
	defer quit()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Rest %s", rest.FormattedTime(seconds))))

	engine.Start(seconds)
	sub := engine.Subscribe(settings.SubscriberBuffer)
	defer sub.Close()
	renderRest(out, engine.Snapshot(), engine.Progress())

	commands := readCommands(ctx, cmd.InOrStdin())
	done := ctx.Done()
	cancelled := false

	for {
		select {
		case _, ok := <-sub.C():
			if !ok {
				if cancelled {
					fmt.Fprintln(out, warningStyle.Render("Rest cancelled."))
				} else {
					fmt.Fprintln(out, successStyle.Render("Rest complete. Next set!"))
				}
				return nil
			}
			renderRest(out, engine.Snapshot(), engine.Progress())

		case line, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			if err := applyRestCommand(engine, line); err != nil {
				if errors.Is(err, errQuit) {
					quit()
					continue
				}
				fmt.Fprintln(out, errorStyle.Render(err.Error()))
				continue
			}
			// Time changes arrive through the subscription; pause state does not.
			if line == "p" || line == "r" {
				renderRest(out, engine.Snapshot(), engine.Progress())
			}

		case <-done:
			done = nil
			cancelled = true
			engine.Cancel()
		}
	}
}

var errQuit = errors.New("quit")

func applyRestCommand(engine *rest.Engine, line string) error {
	switch {
	case line == "p":
		engine.Pause()
	case line == "r":
		engine.Resume()
	case line == "q":
		return errQuit
	case strings.HasPrefix(line, "+"), strings.HasPrefix(line, "-"):
		delta, err := strconv.Atoi(line)
		if err != nil {
			return fmt.Errorf("unknown command %q", line)
		}
		engine.AddTime(delta)
	case strings.HasPrefix(line, "="):
		target, err := strconv.Atoi(line[1:])
		if err != nil {
			return fmt.Errorf("unknown command %q", line)
		}
		engine.SkipToTime(target)
	default:
		return fmt.Errorf("unknown command %q (p, r, +N, -N, =N, q)", line)
	}
	return nil
}

func renderRest(out io.Writer, session model.RestSession, progress float64) {
	line := clockStyle.Render(rest.FormattedTime(session.RemainingSeconds)) +
		" " + mutedStyle.Render(progressBar(progress))
	if session.Paused {
		line += " " + warningStyle.Render("paused")
	}
	fmt.Fprintln(out, line)
}
