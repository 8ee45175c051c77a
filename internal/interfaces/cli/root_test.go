package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"score", "batch", "health", "train", "migrate"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestGlobalFlagParsing(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"--config", "/etc/aivis.yaml", "--log-level", "debug", "--json", "score", "--help"})

	require.NoError(t, root.Execute())

	cfgFlag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, cfgFlag)
	assert.Equal(t, "/etc/aivis.yaml", cfgFlag.Value.String())
	assert.Equal(t, "debug", root.PersistentFlags().Lookup("log-level").Value.String())
	assert.Equal(t, "true", root.PersistentFlags().Lookup("json").Value.String())
}

func TestScoreRequiresDealerArg(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"score"})

	err := root.Execute()
	require.Error(t, err)
}
