package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCmdRegistersSubcommands(t *testing.T) {
	root := GetRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"put", "status", "list", "cancel", "suspend", "resume"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
