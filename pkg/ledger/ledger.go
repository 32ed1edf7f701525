// Package ledger keeps track of the token addresses that have already been alerted on
package ledger

import "github.com/StudioSol/set"

// Ledger is an insert-only set of alerted addresses. It lives for the whole process and
// is never persisted; entries are never removed. It is not safe for concurrent writers,
// the scan loop is its only user.
type Ledger struct {
	addresses *set.LinkedHashSetString
}

// New creates an empty ledger
func New() *Ledger {
	return &Ledger{addresses: set.NewLinkedHashSetString()}
}

// Has reports whether an alert was already produced for address
func (l *Ledger) Has(address string) bool {
	return l.addresses.InArray(address)
}

// Add records address. Adding an existing or empty address is a no-op.
func (l *Ledger) Add(address string) {
	if address == "" {
		return
	}
	l.addresses.Add(address)
}

// Len returns the number of recorded addresses
func (l *Ledger) Len() int {
	return l.addresses.Length()
}

// Addresses returns the recorded addresses in insertion order
func (l *Ledger) Addresses() []string {
	return l.addresses.AsSlice()
}
