package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/classbook/internal/record"
)

func TestResolve_NormalizedMatch(t *testing.T) {
	accounts := []record.Account{{ID: "t1", Username: "co_lan", Password: "pw", Status: record.AccountActive}}

	res, err := Resolve(accounts, "  CO_Lan ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "t1", res.Account.ID)
	assert.False(t, res.Healed)
}

func TestResolve_WrongPassword(t *testing.T) {
	accounts := []record.Account{{ID: "t1", Username: "co_lan", Password: "pw"}}
	_, err := Resolve(accounts, "co_lan", "PW")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolve_PendingIsDistinct(t *testing.T) {
	accounts := []record.Account{{ID: "p", Username: "new_parent", Password: "pw", Status: record.AccountPending}}
	_, err := Resolve(accounts, "new_parent", "pw")
	assert.ErrorIs(t, err, ErrPending)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolve_FallbackHealsEmptySet(t *testing.T) {
	res, err := Resolve(nil, "admin", DefaultPassword)
	require.NoError(t, err)
	assert.True(t, res.Healed)
	assert.Equal(t, "admin_1", res.Account.ID)
	assert.True(t, Contains(res.Accounts, record.Account{Username: "admin"}))
	assert.Equal(t, Dedup(res.Accounts), res.Accounts)
}

func TestResolve_FallbackWithoutHealWhenKeyPresent(t *testing.T) {
	accounts := []record.Account{{ID: "admin_1", Username: "admin", Password: "changed"}}
	res, err := Resolve(accounts, "admin", DefaultPassword)
	require.NoError(t, err)
	assert.False(t, res.Healed)
	assert.Nil(t, res.Accounts)
}

func TestResolve_BlankUsername(t *testing.T) {
	_, err := Resolve(Defaults(), "   ", DefaultPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolve_UnknownUser(t *testing.T) {
	_, err := Resolve(Defaults(), "ghost", "123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
