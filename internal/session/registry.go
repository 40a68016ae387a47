// File: internal/session/registry.go
// Package session
// Author: momentics <momentics@gmail.com>
//
// Sharded, thread-safe registry of live sessions.

package session

import (
	"hash/fnv"
	"sync"
)

// Identified is anything with a stable session id.
type Identified interface {
	ID() string
}

// Registry maps session ids to sessions.
type Registry[S Identified] struct {
	shards []*shard[S]
	mask   uint32
}

type shard[S Identified] struct {
	mu       sync.RWMutex
	sessions map[string]S
}

// NewRegistry constructs a registry with shardCount shards, rounded up to
// a power of two. Zero or less selects 16.
func NewRegistry[S Identified](shardCount int) *Registry[S] {
	if shardCount <= 0 {
		shardCount = 16
	}
	m := nextPowerOfTwo(uint32(shardCount))
	shards := make([]*shard[S], m)
	for i := range shards {
		shards[i] = &shard[S]{sessions: make(map[string]S)}
	}
	return &Registry[S]{shards: shards, mask: m - 1}
}

func (r *Registry[S]) shard(id string) *shard[S] {
	return r.shards[fnv32(id)&r.mask]
}

// Add stores s. It reports false when a session with the same id is
// already present; the stored one is kept.
func (r *Registry[S]) Add(s S) bool {
	sh := r.shard(s.ID())
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.sessions[s.ID()]; ok {
		return false
	}
	sh.sessions[s.ID()] = s
	return true
}

// Get fetches a session if present.
func (r *Registry[S]) Get(id string) (S, bool) {
	sh := r.shard(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	s, ok := sh.sessions[id]
	return s, ok
}

// Remove deletes id and returns what was stored. The boolean is false if
// id was absent, which lets concurrent closers agree on a single owner.
func (r *Registry[S]) Remove(id string) (S, bool) {
	sh := r.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	s, ok := sh.sessions[id]
	if ok {
		delete(sh.sessions, id)
	}
	return s, ok
}

// Len counts the stored sessions.
func (r *Registry[S]) Len() int {
	n := 0
	for _, sh := range r.shards {
		sh.mu.RLock()
		n += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return n
}

// Snapshot returns the stored sessions. Callers may Remove while walking
// the result.
func (r *Registry[S]) Snapshot() []S {
	var out []S
	for _, sh := range r.shards {
		sh.mu.RLock()
		for _, s := range sh.sessions {
			out = append(out, s)
		}
		sh.mu.RUnlock()
	}
	return out
}

// fnv32 hashes a string to uint32.
func fnv32(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32()
}

// nextPowerOfTwo returns the next power-of-two >= v.
func nextPowerOfTwo(v uint32) uint32 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}
