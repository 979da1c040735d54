package checkout

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_Runs(t *testing.T) {
	s := NewScheduler()
	var ran atomic.Int32

	require.True(t, s.Schedule("u1", 10*time.Millisecond, func() { ran.Add(1) }))

	require.Eventually(t, func() bool { return ran.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, s.Cancel("u1"), "fired action is released")
}

func TestScheduler_Cancel(t *testing.T) {
	s := NewScheduler()
	var ran atomic.Int32

	s.Schedule("u1", 20*time.Millisecond, func() { ran.Add(1) })
	assert.True(t, s.Cancel("u1"))
	assert.False(t, s.Cancel("u1"))

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, ran.Load())
}

func TestScheduler_ReplaceRunsLatestOnly(t *testing.T) {
	s := NewScheduler()
	var first, second atomic.Int32

	s.Schedule("u1", 20*time.Millisecond, func() { first.Add(1) })
	s.Schedule("u1", 20*time.Millisecond, func() { second.Add(1) })

	require.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, first.Load())
}

func TestScheduler_KeysIndependent(t *testing.T) {
	s := NewScheduler()
	var a, b atomic.Int32

	s.Schedule("a", 10*time.Millisecond, func() { a.Add(1) })
	s.Schedule("b", 10*time.Millisecond, func() { b.Add(1) })
	s.Cancel("a")

	require.Eventually(t, func() bool { return b.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, a.Load())
}

func TestScheduler_Stop(t *testing.T) {
	s := NewScheduler()
	var ran atomic.Int32

	s.Schedule("u1", 20*time.Millisecond, func() { ran.Add(1) })
	s.Stop()

	assert.False(t, s.Schedule("u2", time.Millisecond, func() { ran.Add(1) }))
	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, ran.Load())
}
