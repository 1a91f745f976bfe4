// Package windowing selects the newest slice of a conversation that fits an
// input-token budget without separating a tool_use from its tool_result.
//
// Invariant:
//   - an assistant(tool_use) message and the user(tool_result) message answering
//     it are kept or dropped together.
package windowing
