package tools

// Options customizes the tools returned by Registry.
type Options struct {
	ProfileName string
	ProfileBio  string
}

// Registry returns all tool definitions wired for the agent
func Registry(opts Options) []ToolDefinition {
	return []ToolDefinition{CalculatorDefinition, ProfileDefinition(opts.ProfileName, opts.ProfileBio)}
}
