package memory

import (
	"sort"

	"github.com/xraph/harvest/account"
)

// sortAccounts orders accounts by identity so map iteration order never
// leaks into listings.
func sortAccounts(accounts []*account.Account) {
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Identity < accounts[j].Identity
	})
}

// paginate applies offset/limit to an already-filtered result slice.
// A zero limit means no limit.
func paginate[T any](result []T, offset, limit int) []T {
	start := offset
	if start > len(result) {
		start = len(result)
	}
	end := start + limit
	if limit == 0 || end > len(result) {
		end = len(result)
	}
	return result[start:end]
}
