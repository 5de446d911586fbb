package account

import (
	"errors"

	"github.com/roach88/classbook/internal/record"
)

var (
	// ErrInvalidCredentials means no account matched the username and
	// password, neither in the working set nor among the defaults.
	ErrInvalidCredentials = errors.New("wrong username or password")

	// ErrPending means the credentials matched an account that has not been
	// approved yet.
	ErrPending = errors.New("account is awaiting approval")
)

// LoginResult is the outcome of a successful Resolve.
type LoginResult struct {
	// Account is the matched account as stored (password included).
	Account record.Account

	// Healed is set when the match came from the built-in defaults and the
	// account was missing from the working set. Accounts then holds the
	// repaired set, which the caller must persist.
	Healed   bool
	Accounts []record.Account
}

// Resolve authenticates username/password against accounts.
//
// Resolution order:
//  1. an account with the same key and exactly the same password,
//  2. a built-in default with the same key and password. If the working set
//     lacks that key the default is inserted and the set deduplicated.
//
// A pending match returns ErrPending, which callers must report differently
// from ErrInvalidCredentials.
func Resolve(accounts []record.Account, username, password string) (LoginResult, error) {
	key := NormalizeUsername(username)
	if key == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	for _, a := range accounts {
		if Key(a) == key && a.Password == password {
			if a.Status == record.AccountPending {
				return LoginResult{}, ErrPending
			}
			return LoginResult{Account: a}, nil
		}
	}

	for _, d := range defaults {
		if Key(d) != key || d.Password != password {
			continue
		}
		if Contains(accounts, d) {
			return LoginResult{Account: d}, nil
		}
		healed := make([]record.Account, 0, len(accounts)+1)
		healed = append(healed, accounts...)
		healed = append(healed, d)
		return LoginResult{Account: d, Healed: true, Accounts: Dedup(healed)}, nil
	}

	return LoginResult{}, ErrInvalidCredentials
}
