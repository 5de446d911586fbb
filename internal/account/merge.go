package account

import (
	"strings"

	"github.com/roach88/classbook/internal/record"
)

// Key returns the identity key of an account: its username trimmed and
// lower-cased.
func Key(a record.Account) string {
	return NormalizeUsername(a.Username)
}

// NormalizeUsername trims and lower-cases a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Overlay returns base with every non-empty field of over copied onto it.
// Fields over leaves empty keep base's value.
func Overlay(base, over record.Account) record.Account {
	if over.ID != "" {
		base.ID = over.ID
	}
	if over.Username != "" {
		base.Username = over.Username
	}
	if over.Password != "" {
		base.Password = over.Password
	}
	if over.FullName != "" {
		base.FullName = over.FullName
	}
	if over.Role != "" {
		base.Role = over.Role
	}
	if over.StudentID != "" {
		base.StudentID = over.StudentID
	}
	if over.Department != "" {
		base.Department = over.Department
	}
	if over.Avatar != "" {
		base.Avatar = over.Avatar
	}
	if over.Status != "" {
		base.Status = over.Status
	}
	return base
}

// Dedup normalizes a candidate account set:
//  1. usernames are trimmed,
//  2. every default whose key is missing is appended,
//  3. accounts sharing a key collapse into one, later fields overlaying
//     earlier ones, stored under the normalized username.
//
// The first occurrence of a key fixes its position. Dedup(Dedup(s)) equals
// Dedup(s).
func Dedup(accounts []record.Account) []record.Account {
	candidates := make([]record.Account, 0, len(accounts)+len(defaults))
	present := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		a.Username = strings.TrimSpace(a.Username)
		candidates = append(candidates, a)
		present[Key(a)] = true
	}
	for _, d := range defaults {
		if !present[Key(d)] {
			candidates = append(candidates, d)
			present[Key(d)] = true
		}
	}

	out := make([]record.Account, 0, len(candidates))
	index := make(map[string]int, len(candidates))
	for _, a := range candidates {
		k := Key(a)
		if i, ok := index[k]; ok {
			out[i] = Overlay(out[i], a)
			out[i].Username = k
			continue
		}
		a.Username = k
		index[k] = len(out)
		out = append(out, a)
	}
	return out
}

// MergeRemote reconciles the local account set with accounts read from the
// remote store.
//
// Local non-parent accounts are kept as they are, since role changes and
// activations made locally must survive a resync. Local parent accounts are
// kept only when the remote read produced nothing; otherwise the remote set
// is authoritative for parents. Each remote account is then matched by key:
// a match has the remote fields overlaid on it, anything else is appended.
// The result goes through Dedup.
func MergeRemote(local, remote []record.Account) []record.Account {
	if len(local) == 0 {
		local = Defaults()
	}

	merged := make([]record.Account, 0, len(local)+len(remote))
	for _, a := range local {
		if a.Role == record.RoleParent && len(remote) > 0 {
			continue
		}
		merged = append(merged, a)
	}

	index := make(map[string]int, len(merged))
	for i, a := range merged {
		if _, ok := index[Key(a)]; !ok {
			index[Key(a)] = i
		}
	}
	for _, r := range remote {
		k := Key(r)
		if k == "" {
			continue
		}
		if i, ok := index[k]; ok {
			merged[i] = Overlay(merged[i], r)
			continue
		}
		index[k] = len(merged)
		merged = append(merged, r)
	}
	return Dedup(merged)
}

// Contains reports whether accounts holds an account with a's key.
func Contains(accounts []record.Account, a record.Account) bool {
	k := Key(a)
	for _, existing := range accounts {
		if Key(existing) == k {
			return true
		}
	}
	return false
}
