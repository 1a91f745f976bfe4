// Package runner is the agent collaborator: a ReAct loop over the Anthropic
// Messages streaming API with tool dispatch.
//
// Stream yields one event per node executed:
//
//	agent(text, tool_use) -> tools(tool results) -> agent(text) ...
//
// The loop ends after the first agent step without tool calls.
//
// Invariant:
//   - tool_use and the corresponding tool_result are kept adjacent within a turn
//     and are never split by the send window.
package runner
