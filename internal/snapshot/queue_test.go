package snapshot

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRearmAfterTimerFiredRunsOnce(t *testing.T) {
	var runs atomic.Int32
	q := newSaveQueue(func() { runs.Add(1) })

	q.schedule(time.Millisecond)

	// the first timer fires while the lock is held and waits on it
	q.mu.Lock()
	time.Sleep(20 * time.Millisecond)
	q.arm(time.Hour)
	q.mu.Unlock()

	assert.Never(t, func() bool { return runs.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.True(t, q.pending(), "rearmed timer must stay visible")

	q.flush()
	assert.Equal(t, int32(1), runs.Load())
	assert.False(t, q.pending())
	assert.False(t, q.stop())
}

func TestStopCancelsArmedTimer(t *testing.T) {
	var runs atomic.Int32
	q := newSaveQueue(func() { runs.Add(1) })

	q.schedule(20 * time.Millisecond)
	assert.True(t, q.stop())
	assert.Never(t, func() bool { return runs.Load() > 0 }, 60*time.Millisecond, 5*time.Millisecond)
}
