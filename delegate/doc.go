// File: delegate/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package delegate implements a thread-safe multicast callback registry.
//
// A Delegate holds two independent tables of targets:
//
//   - the anonymous table, keyed by the code address of a plain function.
//     Targets added with Add are later removed by passing the same function to
//     Remove, so the caller never has to keep a handle. Duplicates are allowed.
//   - the keyed table, keyed by a caller-chosen value of type K. Keys are unique.
//
// Invoking a delegate calls every anonymous target in ascending identity order,
// then every keyed target in ascending key order, all under the delegate's lock.
//
// Only named top-level functions and method expressions have a stable identity.
// Function literals and method values are rejected by the anonymous operations
// with ErrKeyGenerationFailed; register them with a key instead:
//
//	d := delegate.New[*api.AsyncInputInfo, int32](lock.Spin)
//	_ = d.Add(logCompletion)                    // removable with d.Remove(logCompletion)
//	_ = d.AddKeyed(1, func(info *api.AsyncInputInfo) { ... })
//	d.Invoke(info)
//
// Targets must not re-enter the delegate that is invoking them: the lock is held
// for the whole traversal and is not reentrant, so Add, Remove, Invoke or any other
// locking call on the same delegate from inside a target deadlocks under the Spin
// and Blocking policies.
package delegate
