package runner

import (
	"context"
	"errors"
	"iter"
)

// Node names carried by Event.
const (
	NodeAgent = "agent"
	NodeTools = "tools"
)

// Message roles understood by Stream. RoleTool only appears in tools events.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a role-tagged piece of text exchanged with the agent.
type Message struct {
	Role    string
	Content string
	// Name is the tool name for RoleTool messages.
	Name string
}

// Event is one incremental output of the agent. Messages may be empty.
type Event struct {
	Node     string
	Messages []Message
}

// Agent produces a finite, lazy event sequence for a conversation whose last
// message is the newest user input. A non-nil error ends the sequence.
type Agent interface {
	Stream(ctx context.Context, msgs []Message) iter.Seq2[Event, error]
}

var (
	ErrNoMessages = errors.New("runner: no messages to send")
	ErrOverBudget = errors.New("runner: newest message exceeds the context budget")
	ErrMaxSteps   = errors.New("runner: step limit reached")
)
