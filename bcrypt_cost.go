//go:build !race

package accounts

// Matches the work factor the accounts schema was provisioned with;
// changing it only affects newly written hashes.
func passwordHashCost() int {
	return 10
}
