package lock_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/vee/lock"
)

func TestSpinLock_MutualExclusion(t *testing.T) {
	var (
		l       lock.SpinLock
		counter int
		wg      sync.WaitGroup
	)
	const goroutines, iterations = 8, 5000
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				l.Lock()
				counter++
				l.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, goroutines*iterations, counter)
}

func TestSpinLock_TryLock(t *testing.T) {
	var l lock.SpinLock
	require.True(t, l.TryLock())
	assert.False(t, l.TryLock())
	l.Unlock()
	assert.True(t, l.TryLock())
	l.Unlock()
}

func TestSpinLock_UnlockUnlockedPanics(t *testing.T) {
	var l lock.SpinLock
	assert.Panics(t, func() { l.Unlock() })
}

func TestPolicies(t *testing.T) {
	assert.IsType(t, &lock.SpinLock{}, lock.Spin.New())
	assert.IsType(t, &sync.Mutex{}, lock.Blocking.New())

	var nilPolicy lock.Policy
	l := nilPolicy.New()
	require.NotNil(t, l)
	// the no-op lock can be taken repeatedly
	l.Lock()
	l.Lock()
	l.Unlock()
	l.Unlock()
	lock.None.New().Lock()
}
