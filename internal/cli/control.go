package cli

import (
	"bufio"
	"context"
	"io"
	"strings"

	"setpace/internal/log"
)

// readCommands forwards trimmed, non-empty lines from in until EOF, a read
// error or ctx is done. The returned channel is closed when reading stops.
// A read blocked on in cannot be interrupted, so for a terminal the goroutine
// lives until the next line arrives or the process exits.
func readCommands(ctx context.Context, in io.Reader) <-chan string {
	commands := make(chan string)
	go func() {
		defer close(commands)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			select {
			case commands <- line:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			logger := log.WithComponent("cli")
			logger.Warn().
				Err(err).
				Str("event", "cli.stdin_failed").
				Msg("stopped reading controls")
		}
	}()
	return commands
}
