package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/petasbytes/agent-chat/memory"
)

// RunPlain is a line-oriented chat loop for terminals without TUI support.
// It returns when in is exhausted or ctx is cancelled.
func RunPlain(ctx context.Context, in io.Reader, out io.Writer, h TurnHandler, history memory.Log) error {
	if len(history) > 0 {
		fmt.Fprintln(out, plainTranscript(entriesFromLog(history)))
	}
	fmt.Fprintln(out, "Chat with the agent (Ctrl-D or Ctrl-C to quit)")

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		fmt.Fprint(out, "You: ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(out)
			select {
			case err := <-errc:
				if err != nil {
					return fmt.Errorf("read input: %w", err)
				}
			default:
			}
			return nil
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		r, err := h.HandleTurn(ctx, line)
		if e, show := outcome(r, err); show {
			fmt.Fprintln(out, e.String())
		}
	}
}
