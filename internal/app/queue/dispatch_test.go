package queue

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_FIFO(t *testing.T) {
	d := NewDispatcher()
	d.Push("a")
	d.Push("b")
	d.Push("c")

	for _, want := range []string{"a", "b", "c"} {
		id, ok := d.Pop(10 * time.Millisecond)
		require.True(t, ok)
		assert.Equal(t, want, id)
	}
}

func TestDispatcher_PopTimesOutWhenEmpty(t *testing.T) {
	d := NewDispatcher()

	start := time.Now()
	id, ok := d.Pop(30 * time.Millisecond)
	assert.False(t, ok)
	assert.Empty(t, id)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestDispatcher_PushNeverBlocks(t *testing.T) {
	d := NewDispatcher()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10_000; i++ {
			d.Push(fmt.Sprintf("job-%d", i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Push blocked on an unbounded queue")
	}
	assert.Equal(t, 10_000, d.Len())
}

func TestDispatcher_PopWakesOnPush(t *testing.T) {
	d := NewDispatcher()

	got := make(chan string, 1)
	go func() {
		id, ok := d.Pop(5 * time.Second)
		if ok {
			got <- id
		}
	}()

	time.Sleep(20 * time.Millisecond)
	d.Push("late-arrival")

	select {
	case id := <-got:
		assert.Equal(t, "late-arrival", id)
	case <-time.After(time.Second):
		t.Fatal("waiting Pop was not woken by Push")
	}
}

func TestDispatcher_Len(t *testing.T) {
	d := NewDispatcher()
	assert.Equal(t, 0, d.Len())

	d.Push("a")
	d.Push("b")
	assert.Equal(t, 2, d.Len())

	_, ok := d.Pop(10 * time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, 1, d.Len())
}
