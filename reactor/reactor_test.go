package reactor_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/vee/api"
	"github.com/momentics/vee/control"
	"github.com/momentics/vee/reactor"
)

type countingOp struct {
	executed atomic.Int32
	aborted  atomic.Int32
	err      atomic.Value
	done     chan struct{}
	block    chan struct{}
}

func newCountingOp() *countingOp {
	return &countingOp{done: make(chan struct{}, 1)}
}

func (o *countingOp) Execute() {
	if o.block != nil {
		<-o.block
	}
	o.executed.Add(1)
	o.done <- struct{}{}
}

func (o *countingOp) Abort(err error) {
	o.err.Store(err)
	o.aborted.Add(1)
	o.done <- struct{}{}
}

func waitDone(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("operation never completed")
	}
}

func TestReactor_ExecutesEachOperationOnce(t *testing.T) {
	m := control.NewMetrics()
	r := reactor.New(reactor.Config{Workers: 4}, reactor.WithMetrics(m))
	defer r.Close()

	ops := make([]*countingOp, 100)
	for i := range ops {
		ops[i] = newCountingOp()
		r.Post(ops[i])
	}
	for _, op := range ops {
		waitDone(t, op.done)
	}
	for _, op := range ops {
		assert.Equal(t, int32(1), op.executed.Load())
		assert.Equal(t, int32(0), op.aborted.Load())
	}
	snap := m.Snapshot()
	assert.Equal(t, int64(100), snap["ops.posted"])
	assert.Equal(t, 4, snap["reactor.workers"])
}

func TestReactor_CloseAbortsQueuedOperations(t *testing.T) {
	r := reactor.New(reactor.Config{Workers: 1})

	gate := make(chan struct{})
	running := newCountingOp()
	running.block = gate
	r.Post(running)
	require.Eventually(t, func() bool { return r.Active() == 1 }, 5*time.Second, time.Millisecond)

	queued := []*countingOp{newCountingOp(), newCountingOp(), newCountingOp()}
	for _, op := range queued {
		r.Post(op)
	}
	assert.Equal(t, 3, r.Pending())

	closed := make(chan struct{})
	go func() {
		_ = r.Close()
		close(closed)
	}()
	// once Post aborts synchronously the reactor has stopped taking work
	require.Eventually(t, func() bool {
		probe := newCountingOp()
		r.Post(probe)
		return probe.aborted.Load() == 1
	}, 5*time.Second, time.Millisecond)
	close(gate)
	waitDone(t, closed)

	assert.Equal(t, int32(1), running.executed.Load())
	for _, op := range queued {
		assert.Equal(t, int32(0), op.executed.Load())
		assert.Equal(t, int32(1), op.aborted.Load())
		assert.ErrorIs(t, op.err.Load().(error), api.ErrReactorClosed)
	}
	assert.True(t, r.Done().Done())
}

func TestReactor_PostAfterCloseAborts(t *testing.T) {
	r := reactor.New(reactor.Config{Workers: 2})
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	op := newCountingOp()
	r.Post(op)
	assert.Equal(t, int32(1), op.aborted.Load())
	assert.Equal(t, int32(0), op.executed.Load())
}

func TestReactor_SurvivesPanickingOperation(t *testing.T) {
	m := control.NewMetrics()
	r := reactor.New(reactor.Config{Workers: 1}, reactor.WithMetrics(m))
	defer r.Close()

	r.Go(func() { panic("target failed") }, nil)
	op := newCountingOp()
	r.Post(op)
	waitDone(t, op.done)
	assert.Equal(t, int64(1), m.Snapshot()["ops.panicked"])
}

func TestReactor_GoRunsOnWorkers(t *testing.T) {
	r := reactor.New(reactor.Config{Workers: 3})
	defer r.Close()

	var wg sync.WaitGroup
	var n atomic.Int32
	for i := 0; i < 30; i++ {
		wg.Add(1)
		r.Go(func() { n.Add(1); wg.Done() }, func(error) { wg.Done() })
	}
	wg.Wait()
	assert.Equal(t, int32(30), n.Load())
}

func TestDefault_IsShared(t *testing.T) {
	assert.Same(t, reactor.Default(), reactor.Default())
}
