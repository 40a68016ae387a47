// File: delegate/entry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package delegate

import "cmp"

// Entry selects the table a registration targets. Build one with Anonymous or
// Keyed.
type Entry[A any, K cmp.Ordered] struct {
	fn    func(A)
	key   K
	keyed bool
}

// Anonymous addresses the identity-keyed table.
func Anonymous[A any, K cmp.Ordered](fn func(A)) Entry[A, K] {
	return Entry[A, K]{fn: fn}
}

// Keyed addresses the caller-keyed table.
func Keyed[A any, K cmp.Ordered](k K, fn func(A)) Entry[A, K] {
	return Entry[A, K]{fn: fn, key: k, keyed: true}
}

// Register dispatches e to Add or AddKeyed.
func (d *Delegate[A, K]) Register(e Entry[A, K]) error {
	if e.keyed {
		return d.AddKeyed(e.key, e.fn)
	}
	return d.Add(e.fn)
}

// Unregister dispatches e to Remove or RemoveKey. The function of a keyed
// entry is ignored.
func (d *Delegate[A, K]) Unregister(e Entry[A, K]) error {
	if e.keyed {
		return d.RemoveKey(e.key)
	}
	return d.Remove(e.fn)
}
