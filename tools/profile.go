package tools

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	DefaultProfileName = "Joshua Ramirez"
	DefaultProfileBio  = "Joshua Ramirez is a Demon King Manipulator, known for his erratic behavior and sus nature."
)

// ProfileInput is empty; the tool always answers about the configured person.
type ProfileInput struct{}

var ProfileInputSchema = GenerateSchema[ProfileInput]()

// ProfileDefinition returns the profile_lookup tool for name. Empty values
// fall back to the defaults.
func ProfileDefinition(name, bio string) ToolDefinition {
	if strings.TrimSpace(name) == "" {
		name = DefaultProfileName
	}
	if strings.TrimSpace(bio) == "" {
		bio = DefaultProfileBio
	}
	return ToolDefinition{
		Name:        "profile_lookup",
		Description: fmt.Sprintf("Returns a brief bio of %s when the user asks about them.", name),
		InputSchema: ProfileInputSchema,
		Function: func(input json.RawMessage) (string, error) {
			// Input is ignored but must still be valid JSON when present.
			if len(input) > 0 && !json.Valid(input) {
				return "", fmt.Errorf("invalid profile_lookup input")
			}
			return bio, nil
		},
	}
}
