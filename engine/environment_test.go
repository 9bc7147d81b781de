package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func TestNewEnvironment(t *testing.T) {
	env := NewEnvironment("df", testDataset(t))

	assert.Equal(t, "df", env.DatasetName())
	for _, name := range []string{"df", "math", "json", "plot", "table", "open", "read_file", "write_file", "fetch"} {
		assert.True(t, env.Has(name), name)
	}
	assert.False(t, env.Has("pandas"))
}

func TestEnvironmentSet(t *testing.T) {
	env := NewEnvironment("df", testDataset(t))
	env.Set("limit", starlark.MakeInt(10))
	assert.True(t, env.Has("limit"))
}

func TestEnvironmentSnapshotIsPrivate(t *testing.T) {
	env := NewEnvironment("df", testDataset(t))

	snap := env.snapshot()
	delete(snap, "df")
	snap["extra"] = starlark.None

	assert.True(t, env.Has("df"))
	assert.False(t, env.Has("extra"))
}

func TestPermissionError(t *testing.T) {
	err := &PermissionError{Capability: "fetch"}
	require.Contains(t, err.Error(), "permission denied")
	assert.Contains(t, err.Error(), "fetch")
}
