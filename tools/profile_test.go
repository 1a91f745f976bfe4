package tools_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/agent-chat/tools"
)

func TestProfile_Defaults(t *testing.T) {
	def := tools.ProfileDefinition("", "  ")
	out, err := def.Function(json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, tools.DefaultProfileBio, out)
	assert.Contains(t, def.Description, tools.DefaultProfileName)
}

func TestProfile_Configured(t *testing.T) {
	def := tools.ProfileDefinition("Ada", "Ada wrote the first program.")
	out, err := def.Function(nil)
	require.NoError(t, err)
	assert.Equal(t, "Ada wrote the first program.", out)
	assert.Contains(t, def.Description, "Ada")
}

func TestProfile_InvalidJSON(t *testing.T) {
	def := tools.ProfileDefinition("", "")
	_, err := def.Function(json.RawMessage(`{oops`))
	assert.Error(t, err)
}
