package controller

import (
	"context"
	"iter"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/petasbytes/agent-chat/internal/metrics"
	"github.com/petasbytes/agent-chat/internal/runner"
	"github.com/petasbytes/agent-chat/internal/telemetry"
	"github.com/petasbytes/agent-chat/memory"
)

// Agent is the external collaborator producing the reply.
type Agent interface {
	Stream(ctx context.Context, msgs []runner.Message) iter.Seq2[runner.Event, error]
}

// Saver persists the whole log. It is satisfied by *memory.Store.
type Saver interface {
	Save(log memory.Log) error
}

// Reply is the outcome of an accepted turn.
type Reply struct {
	TurnID string
	Text   string
	Log    memory.Log
}

// Controller owns the conversation log and runs one turn at a time.
type Controller struct {
	agent      Agent
	store      Saver
	maxHistory int
	replay     bool
	logger     zerolog.Logger
	events     *telemetry.Recorder

	inFlight atomic.Bool

	mu  sync.Mutex
	log memory.Log
}

// Option customizes a Controller built by New.
type Option func(*Controller)

// WithMaxHistory sets the number of turns retained after every turn.
func WithMaxHistory(n int) Option { return func(c *Controller) { c.maxHistory = n } }

// WithReplayHistory controls whether the stored log is sent with each new
// message. It is on by default.
func WithReplayHistory(on bool) Option { return func(c *Controller) { c.replay = on } }

// WithLogger sets the logger; the default discards output.
func WithLogger(l zerolog.Logger) Option { return func(c *Controller) { c.logger = l } }

// WithRecorder enables turn_completed and turn_failed events.
func WithRecorder(r *telemetry.Recorder) Option { return func(c *Controller) { c.events = r } }

// New returns a controller seeded with initial, which is capped immediately.
func New(agent Agent, store Saver, initial memory.Log, opts ...Option) *Controller {
	c := &Controller{
		agent:      agent,
		store:      store,
		maxHistory: memory.DefaultMaxHistory,
		replay:     true,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "controller").Logger()
	c.log = memory.EnforceCap(slices.Clone(initial), c.maxHistory)
	if c.log == nil {
		c.log = memory.Log{}
	}
	return c
}

// Log returns a copy of the current conversation.
func (c *Controller) Log() memory.Log {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.log)
}

// Busy reports whether a turn is in flight.
func (c *Controller) Busy() bool { return c.inFlight.Load() }

// HandleTurn sends userText to the agent and records the exchange.
//
// Blank input returns ErrEmptyInput and a concurrent call returns ErrBusy;
// neither touches the log. Agent failures return an *AgentError and the log
// stays as it was. A failed save is logged and the turn still succeeds.
func (c *Controller) HandleTurn(ctx context.Context, userText string) (Reply, error) {
	text := strings.TrimSpace(userText)
	if text == "" {
		return Reply{Log: c.Log()}, ErrEmptyInput
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return Reply{}, ErrBusy
	}
	defer c.inFlight.Store(false)

	ctx, turnID := telemetry.EnsureTurnID(ctx)
	logger := c.logger.With().Str("turn_id", turnID).Logger()
	start := time.Now()

	current := c.Log()
	answer, err := Aggregate(c.agent.Stream(ctx, c.prompt(current, text)))
	if err == nil && strings.TrimSpace(answer) == "" {
		err = ErrNoContent
	}
	if err != nil {
		logger.Error().Err(err).Msg("agent invocation failed")
		c.events.Emit(ctx, "turn_failed", map[string]any{"duration_ms": time.Since(start).Milliseconds()})
		return Reply{TurnID: turnID, Log: current}, &AgentError{TurnID: turnID, Err: err}
	}

	updated := memory.EnforceCap(memory.Append(current, memory.UserTurn(text), memory.AssistantTurn(answer)), c.maxHistory)
	c.mu.Lock()
	c.log = updated
	c.mu.Unlock()

	if err := c.store.Save(updated); err != nil {
		logger.Warn().Err(err).Msg("conversation not persisted; continuing with in-memory history")
	}

	c.events.Emit(ctx, "turn_completed", map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
		"history_len": len(updated),
		"user":        metrics.CountFeatures(text).Map(),
		"assistant":   metrics.CountFeatures(answer).Map(),
	})
	logger.Info().Int("history_len", len(updated)).Dur("elapsed", time.Since(start)).Msg("turn recorded")
	return Reply{TurnID: turnID, Text: answer, Log: slices.Clone(updated)}, nil
}

// prompt maps the log and the new utterance onto agent messages. Replayed
// history starts at the first user turn; an odd cap can leave the log
// opening with an assistant reply.
func (c *Controller) prompt(log memory.Log, text string) []runner.Message {
	var msgs []runner.Message
	if c.replay {
		for len(log) > 0 && log[0].Role != memory.RoleUser {
			log = log[1:]
		}
		msgs = make([]runner.Message, 0, len(log)+1)
		for _, t := range log {
			msgs = append(msgs, runner.Message{Role: string(t.Role), Content: t.Content})
		}
	}
	return append(msgs, runner.Message{Role: runner.RoleUser, Content: text})
}

// Aggregate concatenates, in arrival order, the content of every message
// carried by agent-node events. Other events are ignored. The first error
// ends aggregation.
func Aggregate(events iter.Seq2[runner.Event, error]) (string, error) {
	var b strings.Builder
	for ev, err := range events {
		if err != nil {
			return "", err
		}
		if ev.Node != runner.NodeAgent {
			continue
		}
		for _, m := range ev.Messages {
			b.WriteString(m.Content)
		}
	}
	return b.String(), nil
}
