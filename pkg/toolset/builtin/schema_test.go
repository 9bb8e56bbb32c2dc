package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSchema_MCPInstallerArgs(t *testing.T) {
	schema, err := generateSchema[mcpInstallerArgs]()
	require.NoError(t, err)

	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok, "properties should be an object")
	assert.Contains(t, props, "server_name")
	assert.Contains(t, props, "args")
	assert.Contains(t, props, "env_vars")

	required, ok := schema["required"].([]any)
	require.True(t, ok, "required should be present")
	assert.Contains(t, required, "server_name")
}
