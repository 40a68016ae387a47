package session_test

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/momentics/vee/internal/session"
)

type sess string

func (s sess) ID() string { return string(s) }

func TestRegistryAddRemove(t *testing.T) {
	r := session.NewRegistry[sess](3)

	assert.True(t, r.Add("a"))
	assert.False(t, r.Add("a"))
	assert.True(t, r.Add("b"))
	assert.Equal(t, 2, r.Len())

	got, ok := r.Get("a")
	assert.True(t, ok)
	assert.Equal(t, sess("a"), got)

	_, ok = r.Remove("a")
	assert.True(t, ok)
	_, ok = r.Remove("a")
	assert.False(t, ok)
	_, ok = r.Get("a")
	assert.False(t, ok)
	assert.ElementsMatch(t, []sess{"b"}, r.Snapshot())
}

func TestRegistrySingleRemover(t *testing.T) {
	r := session.NewRegistry[sess](0)
	for i := 0; i < 100; i++ {
		r.Add(sess(strconv.Itoa(i)))
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		removed int
	)
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, s := range r.Snapshot() {
				if _, ok := r.Remove(s.ID()); ok {
					mu.Lock()
					removed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, removed)
	assert.Zero(t, r.Len())
}
