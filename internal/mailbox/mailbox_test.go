package mailbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutReplacesPending(t *testing.T) {
	mb := New[int]()
	mb.Put(1)
	mb.Put(2)
	mb.Put(3)

	got, ok := mb.TryTake()
	require.True(t, ok)
	assert.Equal(t, 3, got, "latest trigger wins")

	_, ok = mb.TryTake()
	assert.False(t, ok, "slot is cleared after take")
}

func TestTakeBlocksUntilPut(t *testing.T) {
	mb := New[string]()

	done := make(chan string, 1)
	go func() {
		v, ok := mb.Take(context.Background())
		if ok {
			done <- v
		}
	}()

	time.Sleep(10 * time.Millisecond)
	mb.Put("job")

	select {
	case v := <-done:
		assert.Equal(t, "job", v)
	case <-time.After(time.Second):
		t.Fatal("Take never returned")
	}
}

func TestTakeHonorsContext(t *testing.T) {
	mb := New[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := mb.Take(ctx)
	assert.False(t, ok)
}
