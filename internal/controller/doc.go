// Package controller turns one user utterance into one recorded
// (user, assistant) pair.
//
// The Controller owns the conversation log. Each accepted turn replays the
// log to the agent, aggregates the agent's streamed text, appends the pair,
// enforces the history cap, and persists the result. Storage failures are
// logged and never interrupt the chat; agent failures leave the log untouched.
package controller
