// Package tools defines tool contracts and the tools bound to the chat agent.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, handler.
//   - GenerateSchema[T](): derive JSON Schema from Go structs.
//   - calculator: adds two numbers.
//   - profile_lookup: returns a fixed biography for a configured person.
package tools
