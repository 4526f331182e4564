package job

import (
	"testing"
	"time"

	"github.com/phrazzld/imgbatch/internal/uiloop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueuedJob(p Priority) *Job {
	return newJob(Spec{Action: noopAction, Priority: p}, 0.1, uiloop.New(setupTestLogger()))
}

func TestNewQueue(t *testing.T) {
	q := NewQueue(setupTestLogger())

	assert.NotNil(t, q)
	assert.Equal(t, 0, q.Len())
	assert.False(t, q.closed)
}

func TestQueue_PriorityOrder(t *testing.T) {
	q := NewQueue(setupTestLogger())

	n1 := newQueuedJob(PriorityNormal)
	n2 := newQueuedJob(PriorityNormal)
	h1 := newQueuedJob(PriorityHigh)
	h2 := newQueuedJob(PriorityHigh)

	require.NoError(t, q.Push(n1))
	require.NoError(t, q.Push(h1))
	require.NoError(t, q.Push(n2))
	require.NoError(t, q.Push(h2))
	assert.Equal(t, 4, q.Len())

	// high priority goes to the head, so the latest high job comes first
	for _, want := range []*Job{h2, h1, n1, n2} {
		got, ok := q.Pop()
		require.True(t, ok)
		assert.Same(t, want, got)
	}
}

func TestQueue_Remove(t *testing.T) {
	q := NewQueue(setupTestLogger())
	a := newQueuedJob(PriorityNormal)
	b := newQueuedJob(PriorityNormal)
	require.NoError(t, q.Push(a))
	require.NoError(t, q.Push(b))

	assert.True(t, q.Remove(a))
	assert.False(t, q.Remove(a))
	assert.Equal(t, 1, q.Len())

	got, ok := q.Pop()
	require.True(t, ok)
	assert.Same(t, b, got)
}

func TestQueue_PopBlocksUntilPush(t *testing.T) {
	q := NewQueue(setupTestLogger())
	j := newQueuedJob(PriorityNormal)

	popped := make(chan *Job, 1)
	go func() {
		got, _ := q.Pop()
		popped <- got
	}()

	select {
	case <-popped:
		t.Fatal("Pop returned before anything was pushed")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, q.Push(j))

	select {
	case got := <-popped:
		assert.Same(t, j, got)
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake up after Push")
	}
}

func TestQueue_Close(t *testing.T) {
	q := NewQueue(setupTestLogger())

	result := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		result <- ok
	}()

	q.Close()
	select {
	case ok := <-result:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Close did not wake blocked Pop")
	}

	err := q.Push(newQueuedJob(PriorityNormal))
	assert.ErrorIs(t, err, ErrQueueClosed)

	// closing twice is harmless
	q.Close()
}
