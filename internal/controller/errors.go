package controller

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned for blank input. Nothing is recorded and no
	// output should be shown.
	ErrEmptyInput = errors.New("controller: empty input")
	// ErrBusy is returned when a turn is already in flight.
	ErrBusy = errors.New("controller: a turn is already in progress")
	// ErrAgentInvocation matches every *AgentError.
	ErrAgentInvocation = errors.New("controller: agent invocation failed")
	// ErrNoContent means the agent finished without producing any text.
	ErrNoContent = errors.New("controller: agent returned no content")
)

// AgentError reports a failed turn. The log is unchanged when it is returned.
type AgentError struct {
	TurnID string
	Err    error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("%v: %v", ErrAgentInvocation, e.Err)
}

func (e *AgentError) Unwrap() []error { return []error{ErrAgentInvocation, e.Err} }
