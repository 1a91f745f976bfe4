// Package ui provides the chat surfaces: a bubbletea terminal UI with a
// read-only transcript, a single-line input and a Send button, and a plain
// line-mode REPL for non-interactive terminals. Both drive the same
// TurnHandler and render turns as "You: ..." and "Assistant: ...".
package ui
