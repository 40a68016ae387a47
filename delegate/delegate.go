// File: delegate/delegate.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Delegate registry: registration, removal, merge and invocation.

package delegate

import (
	"cmp"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/btree"

	"github.com/momentics/vee/lock"
)

const treeDegree = 8

// instanceSeq hands out the ids that order dual-lock acquisition.
var instanceSeq atomic.Uint64

type anonEntry[A any] struct {
	target callable[A]
	seq    uint64 // insertion order among equal keys
}

func lessAnon[A any](a, b anonEntry[A]) bool {
	if a.target.key != b.target.key {
		return a.target.key < b.target.key
	}
	return a.seq < b.seq
}

type keyedEntry[A any, K cmp.Ordered] struct {
	key K
	fn  func(A)
}

func lessKeyed[A any, K cmp.Ordered](a, b keyedEntry[A, K]) bool {
	return cmp.Less(a.key, b.key)
}

// Delegate is a multicast registry of func(A) targets. A Delegate must be
// created with New, Of or OfKeyed and is shared by pointer.
type Delegate[A any, K cmp.Ordered] struct {
	id     uint64
	policy lock.Policy
	mu     sync.Locker

	anon    *btree.BTreeG[anonEntry[A]]
	keyed   *btree.BTreeG[keyedEntry[A, K]]
	nextSeq uint64
}

// New creates an empty delegate guarded by a lock built from policy.
func New[A any, K cmp.Ordered](policy lock.Policy) *Delegate[A, K] {
	return &Delegate[A, K]{
		id:     instanceSeq.Add(1),
		policy: policy,
		mu:     policy.New(),
		anon:   btree.NewG(treeDegree, lessAnon[A]),
		keyed:  btree.NewG(treeDegree, lessKeyed[A, K]),
	}
}

// Of creates a delegate holding fn as its single anonymous target.
func Of[A any, K cmp.Ordered](policy lock.Policy, fn func(A)) (*Delegate[A, K], error) {
	d := New[A, K](policy)
	if err := d.Add(fn); err != nil {
		return nil, err
	}
	return d, nil
}

// OfKeyed creates a delegate holding fn under key k.
func OfKeyed[A any, K cmp.Ordered](policy lock.Policy, k K, fn func(A)) (*Delegate[A, K], error) {
	d := New[A, K](policy)
	if err := d.AddKeyed(k, fn); err != nil {
		return nil, err
	}
	return d, nil
}

// Add registers fn anonymously. The same function may be added more than once.
func (d *Delegate[A, K]) Add(fn func(A)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := newCallable(fn)
	if err != nil {
		return err
	}
	d.insertAnon(c)
	return nil
}

// AddKeyed registers fn under k. It fails with ErrKeyAlreadyExists, leaving the
// table untouched, if k is already taken, and with ErrInvalidTarget if fn is nil.
func (d *Delegate[A, K]) AddKeyed(k K, fn func(A)) error {
	if fn == nil {
		return fmt.Errorf("%w: nil function under key %v", ErrInvalidTarget, k)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	e := keyedEntry[A, K]{key: k, fn: fn}
	if d.keyed.Has(e) {
		return fmt.Errorf("%w: %v", ErrKeyAlreadyExists, k)
	}
	d.keyed.ReplaceOrInsert(e)
	return nil
}

// Remove unregisters one anonymous registration of fn, the earliest among
// duplicates.
func (d *Delegate[A, K]) Remove(fn func(A)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := newCallable(fn)
	if err != nil {
		return err
	}
	var (
		victim anonEntry[A]
		found  bool
	)
	d.anon.AscendGreaterOrEqual(anonEntry[A]{target: c}, func(e anonEntry[A]) bool {
		if e.target.key != c.key {
			return false
		}
		if e.target.equal(c) {
			victim, found = e, true
			return false
		}
		return true
	})
	if !found {
		return ErrTargetNotFound
	}
	d.anon.Delete(victim)
	return nil
}

// RemoveKey unregisters the target stored under k.
func (d *Delegate[A, K]) RemoveKey(k K) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.keyed.Delete(keyedEntry[A, K]{key: k}); !ok {
		return fmt.Errorf("%w: key %v", ErrTargetNotFound, k)
	}
	return nil
}

// Invoke calls every target with arg: anonymous targets in identity order, then
// keyed targets in key order. The lock is held for the whole traversal, so
// concurrent invocations never interleave. A panicking target aborts the
// traversal and the panic propagates to the caller.
func (d *Delegate[A, K]) Invoke(arg A) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.anon.Ascend(func(e anonEntry[A]) bool {
		e.target.fn(arg)
		return true
	})
	d.keyed.Ascend(func(e keyedEntry[A, K]) bool {
		e.fn(arg)
		return true
	})
}

// InvokeMove transfers ownership of *arg to the first target and leaves *arg
// zeroed, so every later target receives the zero value. It is only meaningful
// for delegates holding a single target.
func (d *Delegate[A, K]) InvokeMove(arg *A) {
	d.mu.Lock()
	defer d.mu.Unlock()
	call := func(fn func(A)) {
		v := *arg
		var zero A
		*arg = zero
		fn(v)
	}
	d.anon.Ascend(func(e anonEntry[A]) bool {
		call(e.target.fn)
		return true
	})
	d.keyed.Ascend(func(e keyedEntry[A, K]) bool {
		call(e.fn)
		return true
	})
}

// Clear drops every target.
func (d *Delegate[A, K]) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.anon.Clear(false)
	d.keyed.Clear(false)
}

// Empty reports whether both tables are empty.
func (d *Delegate[A, K]) Empty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.anon.Len() == 0 && d.keyed.Len() == 0
}

// Len returns the sizes of the anonymous and keyed tables.
func (d *Delegate[A, K]) Len() (anonymous, keyed int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.anon.Len(), d.keyed.Len()
}

// HasKey reports whether a keyed target is registered under k.
func (d *Delegate[A, K]) HasKey(k K) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.keyed.Has(keyedEntry[A, K]{key: k})
}

// Keys returns the keyed table's keys in ascending order.
func (d *Delegate[A, K]) Keys() []K {
	d.mu.Lock()
	defer d.mu.Unlock()
	keys := make([]K, 0, d.keyed.Len())
	d.keyed.Ascend(func(e keyedEntry[A, K]) bool {
		keys = append(keys, e.key)
		return true
	})
	return keys
}

// Clone returns a new delegate with the same policy and a copy of both tables.
func (d *Delegate[A, K]) Clone() *Delegate[A, K] {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := New[A, K](d.policy)
	c.anon = d.anon.Clone()
	c.keyed = d.keyed.Clone()
	c.nextSeq = d.nextSeq
	return c
}

// Merge copies every target of src into d. Anonymous targets are appended;
// a keyed target whose key is already present in d is skipped, so d's entry
// wins. Unlike AddKeyed, collisions are not reported.
func (d *Delegate[A, K]) Merge(src *Delegate[A, K]) {
	if src == nil || src == d {
		return
	}
	unlock := lockPair(d, src)
	defer unlock()
	d.mergeFrom(src)
}

// MergeMove behaves like Merge and then empties src.
func (d *Delegate[A, K]) MergeMove(src *Delegate[A, K]) {
	if src == nil || src == d {
		return
	}
	unlock := lockPair(d, src)
	defer unlock()
	d.mergeFrom(src)
	src.anon.Clear(false)
	src.keyed.Clear(false)
}

// Assign replaces d's targets with a copy of src's.
func (d *Delegate[A, K]) Assign(src *Delegate[A, K]) {
	if src == nil || src == d {
		return
	}
	unlock := lockPair(d, src)
	defer unlock()
	d.anon = src.anon.Clone()
	d.keyed = src.keyed.Clone()
	d.nextSeq = src.nextSeq
}

// MoveFrom replaces d's targets with src's and leaves src empty.
func (d *Delegate[A, K]) MoveFrom(src *Delegate[A, K]) {
	if src == nil || src == d {
		return
	}
	unlock := lockPair(d, src)
	defer unlock()
	d.anon, src.anon = src.anon, btree.NewG(treeDegree, lessAnon[A])
	d.keyed, src.keyed = src.keyed, btree.NewG(treeDegree, lessKeyed[A, K])
	d.nextSeq = src.nextSeq
}

// mergeFrom requires both locks to be held.
func (d *Delegate[A, K]) mergeFrom(src *Delegate[A, K]) {
	src.anon.Ascend(func(e anonEntry[A]) bool {
		d.insertAnon(e.target)
		return true
	})
	src.keyed.Ascend(func(e keyedEntry[A, K]) bool {
		if !d.keyed.Has(e) {
			d.keyed.ReplaceOrInsert(e)
		}
		return true
	})
}

// insertAnon requires d's lock.
func (d *Delegate[A, K]) insertAnon(c callable[A]) {
	d.nextSeq++
	d.anon.ReplaceOrInsert(anonEntry[A]{target: c, seq: d.nextSeq})
}

// lockPair takes both locks in ascending instance id order, so two goroutines
// pairing the same delegates from opposite sides cannot deadlock.
func lockPair[A any, K cmp.Ordered](a, b *Delegate[A, K]) (unlock func()) {
	first, second := a, b
	if second.id < first.id {
		first, second = second, first
	}
	first.mu.Lock()
	second.mu.Lock()
	return func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}
}
