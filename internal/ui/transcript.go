package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/petasbytes/agent-chat/internal/controller"
	"github.com/petasbytes/agent-chat/memory"
)

// ErrorText is shown in place of a reply when a turn fails.
const ErrorText = "[error occurred]"

// TurnHandler runs one chat turn. *controller.Controller satisfies it.
type TurnHandler interface {
	HandleTurn(ctx context.Context, text string) (controller.Reply, error)
}

// entry is one rendered line of the transcript.
type entry struct {
	role   memory.Role
	text   string
	failed bool
}

func (e entry) label() string {
	if e.role == memory.RoleUser {
		return "You"
	}
	return "Assistant"
}

func (e entry) body() string {
	if e.failed {
		return ErrorText
	}
	return e.text
}

// String is the uncolored form used by the plain REPL and tests.
func (e entry) String() string { return e.label() + ": " + e.body() }

func entriesFromLog(log memory.Log) []entry {
	out := make([]entry, 0, len(log))
	for _, t := range log {
		out = append(out, entry{role: t.Role, text: t.Content})
	}
	return out
}

// outcome maps a HandleTurn result onto the entry to show, if any.
// Empty input and busy rejections show nothing.
func outcome(r controller.Reply, err error) (entry, bool) {
	switch {
	case err == nil:
		return entry{role: memory.RoleAssistant, text: r.Text}, true
	case errors.Is(err, controller.ErrEmptyInput), errors.Is(err, controller.ErrBusy):
		return entry{}, false
	default:
		return entry{role: memory.RoleAssistant, failed: true}, true
	}
}

func plainTranscript(entries []entry) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}
