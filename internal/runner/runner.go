package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/rs/zerolog"

	"github.com/petasbytes/agent-chat/internal/provider"
	"github.com/petasbytes/agent-chat/internal/telemetry"
	"github.com/petasbytes/agent-chat/internal/windowing"
	"github.com/petasbytes/agent-chat/tools"
)

const (
	DefaultMaxTokens     = 1024
	DefaultMaxSteps      = 8
	DefaultContextBudget = 8000
)

// Runner is the Agent backed by the Anthropic Messages API. Fields may be
// set directly or through Options.
type Runner struct {
	Client        *anthropic.Client
	Tools         []tools.ToolDefinition
	Model         anthropic.Model
	MaxTokens     int64
	Temperature   float64
	MaxSteps      int
	ContextBudget int
	Counter       windowing.Counter
	Logger        zerolog.Logger
	Events        *telemetry.Recorder
}

// Option customizes a Runner built by New.
type Option func(*Runner)

func WithModel(m string) Option { return func(r *Runner) { r.Model = anthropic.Model(m) } }
func WithMaxTokens(n int64) Option { return func(r *Runner) { r.MaxTokens = n } }
func WithTemperature(t float64) Option { return func(r *Runner) { r.Temperature = t } }
func WithMaxSteps(n int) Option { return func(r *Runner) { r.MaxSteps = n } }
func WithContextBudget(n int) Option { return func(r *Runner) { r.ContextBudget = n } }
func WithLogger(l zerolog.Logger) Option { return func(r *Runner) { r.Logger = l } }
func WithRecorder(e *telemetry.Recorder) Option { return func(r *Runner) { r.Events = e } }

// New returns a Runner for client with the given tools and defaults for
// everything else.
func New(client *anthropic.Client, toolDefs []tools.ToolDefinition, opts ...Option) *Runner {
	r := &Runner{
		Client:        client,
		Tools:         toolDefs,
		Model:         provider.DefaultModel,
		MaxTokens:     DefaultMaxTokens,
		MaxSteps:      DefaultMaxSteps,
		ContextBudget: DefaultContextBudget,
		Counter:       windowing.Heuristic{},
		Logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Logger = r.Logger.With().Str("component", "runner").Logger()
	return r
}

func (r *Runner) anthropicTools() []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(r.Tools))
	for _, t := range r.Tools {
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: t.InputSchema,
		}})
	}
	return out
}

// Stream runs the agent over msgs. Breaking out of the range loop stops the
// agent before its next model call.
func (r *Runner) Stream(ctx context.Context, msgs []Message) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		ctx, turnID := telemetry.EnsureTurnID(ctx)
		logger := r.Logger.With().Str("turn_id", turnID).Logger()

		conv := ToParams(msgs)
		if len(conv) == 0 {
			yield(Event{}, ErrNoMessages)
			return
		}

		for step := 1; step <= r.MaxSteps; step++ {
			msg, err := r.step(ctx, conv)
			if err != nil {
				yield(Event{}, err)
				return
			}
			conv = append(conv, msg.ToParam())

			text, uses := splitContent(msg)
			logger.Debug().Int("step", step).Int("text_blocks", len(text)).Int("tool_uses", len(uses)).
				Str("stop_reason", string(msg.StopReason)).Msg("agent step")
			if !yield(Event{Node: NodeAgent, Messages: text}, nil) {
				return
			}
			if len(uses) == 0 {
				return
			}

			results := make([]anthropic.ContentBlockParamUnion, 0, len(uses))
			outputs := make([]Message, 0, len(uses))
			for _, u := range uses {
				block, out := r.execTool(ctx, u.ID, u.Name, json.RawMessage(u.JSON.Input.Raw()))
				results = append(results, block)
				outputs = append(outputs, Message{Role: RoleTool, Name: u.Name, Content: out})
			}
			if !yield(Event{Node: NodeTools, Messages: outputs}, nil) {
				return
			}
			// Tool results go back to the model as the next user message.
			conv = append(conv, anthropic.NewUserMessage(results...))
		}
		yield(Event{}, fmt.Errorf("%w (%d)", ErrMaxSteps, r.MaxSteps))
	}
}

// step streams one model response for the budgeted window of conv.
func (r *Runner) step(ctx context.Context, conv []anthropic.MessageParam) (*anthropic.Message, error) {
	window, stats := windowing.Fit(conv, r.ContextBudget, r.Counter)
	r.Events.Emit(ctx, "window_prepared", map[string]any{
		"model":              string(r.Model),
		"budget":             stats.Budget,
		"total_estimated":    stats.Total,
		"included_groups":    stats.IncludedGroups,
		"skipped_groups":     stats.SkippedGroups,
		"demoted_pairs":      stats.DemotedPairs,
		"over_budget_newest": stats.OverBudgetNewest,
	})
	if stats.OverBudgetNewest {
		return nil, ErrOverBudget
	}
	if stats.SkippedGroups > 0 {
		r.Logger.Debug().Int("skipped_groups", stats.SkippedGroups).Int("budget", stats.Budget).Msg("older history left out of the send window")
	}

	params := anthropic.MessageNewParams{
		Model:       r.Model,
		MaxTokens:   r.MaxTokens,
		Messages:    window,
		Temperature: anthropic.Float(r.Temperature),
	}
	if len(r.Tools) > 0 {
		params.Tools = r.anthropicTools()
	}

	stream := r.Client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	msg := anthropic.Message{}
	for stream.Next() {
		if err := msg.Accumulate(stream.Current()); err != nil {
			return nil, fmt.Errorf("runner: accumulate stream: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("runner: model call: %w", err)
	}
	return &msg, nil
}

func splitContent(msg *anthropic.Message) ([]Message, []anthropic.ToolUseBlock) {
	var text []Message
	var uses []anthropic.ToolUseBlock
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			if v.Text != "" {
				text = append(text, Message{Role: RoleAssistant, Content: v.Text})
			}
		case anthropic.ToolUseBlock:
			uses = append(uses, v)
		}
	}
	return text, uses
}

// ToParams maps role-tagged messages onto SDK message params. Empty and
// tool messages are skipped; the provider rejects empty text blocks.
// Assistant messages before the first user message are dropped, since a
// conversation must open with the user.
func ToParams(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		switch m.Role {
		case RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case RoleAssistant:
			if len(out) == 0 {
				continue
			}
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return out
}

// execTool runs one tool call and returns the tool_result block for the model
// and the text shown for the tools event.
func (r *Runner) execTool(ctx context.Context, id, name string, input json.RawMessage) (anthropic.ContentBlockParamUnion, string) {
	emit := func(start time.Time, outputSize int, errStr string) {
		fields := map[string]any{
			"tool_name":   name,
			"duration_ms": time.Since(start).Milliseconds(),
			"input_size":  len(input),
			"output_size": outputSize,
			"error":       nil,
		}
		if errStr != "" {
			fields["error"] = errStr
		}
		r.Events.Emit(ctx, "tool_exec", fields)
	}

	start := time.Now()
	def, ok := tools.Find(r.Tools, name)
	if !ok {
		emit(start, 0, "tool not found")
		r.Logger.Warn().Str("tool", name).Msg("model requested an unknown tool")
		return anthropic.NewToolResultBlock(id, "tool not found", true), "tool not found"
	}

	resp, err := def.Function(input)
	if err != nil {
		// Telemetry gets a generic string; the model gets the detail.
		emit(start, 0, "tool error")
		r.Logger.Warn().Err(err).Str("tool", name).Msg("tool failed")
		return anthropic.NewToolResultBlock(id, err.Error(), true), err.Error()
	}
	emit(start, len(resp), "")
	r.Logger.Debug().Str("tool", name).Int("output_size", len(resp)).Msg("tool has been called")
	return anthropic.NewToolResultBlock(id, resp, false), resp
}
