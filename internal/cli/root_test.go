package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "classbook", cmd.Use)
	assert.Contains(t, cmd.Long, "local-only mode")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"sync"}, {"status"}, {"login"}, {"logout"}, {"whoami"},
		{"endpoint", "show"}, {"endpoint", "set"}, {"endpoint", "check"},
		{"students", "list"}, {"students", "add"}, {"students", "import"},
		{"students", "delete"}, {"students", "clear"},
		{"attendance", "mark"}, {"attendance", "show"},
		{"accounts", "list"}, {"accounts", "add"}, {"accounts", "register"},
		{"accounts", "approve"}, {"accounts", "delete"}, {"accounts", "import"},
		{"notices", "list"}, {"notices", "add"}, {"notices", "delete"},
		{"reviews", "list"}, {"reviews", "add"}, {"reviews", "delete"},
		{"note", "show"}, {"note", "set"},
		{"serve"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	// empty means "use the configured path"
	assert.Equal(t, "", dbFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestStudentsAddFlags(t *testing.T) {
	cmd := NewRootCommand()
	addCmd, _, err := cmd.Find([]string{"students", "add"})
	require.NoError(t, err)

	for _, name := range []string{"id", "cccd", "gender", "dob", "address", "parent", "phone"} {
		assert.NotNil(t, addCmd.Flags().Lookup(name), "missing --%s", name)
	}
}

func TestAccountsAddFlags(t *testing.T) {
	cmd := NewRootCommand()
	addCmd, _, err := cmd.Find([]string{"accounts", "add"})
	require.NoError(t, err)

	roleFlag := addCmd.Flags().Lookup("role")
	require.NotNil(t, roleFlag)
	assert.Equal(t, "PARENT", roleFlag.DefValue)

	registerCmd, _, err := cmd.Find([]string{"accounts", "register"})
	require.NoError(t, err)
	// self-registration cannot pick a role
	assert.Nil(t, registerCmd.Flags().Lookup("role"))
}

func TestServeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	serveCmd, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	addrFlag := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, addrFlag)
	assert.Equal(t, "", addrFlag.DefValue)
}

func TestIsValidFormat(t *testing.T) {
	tests := []struct {
		format string
		valid  bool
	}{
		{"text", true},
		{"json", true},
		{"JSON", false},
		{"yaml", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.valid, isValidFormat(tt.format))
		})
	}
}
