package tpool

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJoinReturnsFunctionResult(t *testing.T) {
	p, err := New(2)
	require.NoError(t, err)

	task := NewTask(func() any { return 7 })
	require.NoError(t, p.Push(task))

	result, err := task.Join()
	require.NoError(t, err)
	require.Equal(t, 7, result)
	require.Equal(t, StatusJoined, task.Status())

	require.NoError(t, p.Delete())
}

func TestJoinOnUnpushedTaskFails(t *testing.T) {
	task := NewTask(func() any { return nil })
	_, err := task.Join()
	require.ErrorIs(t, err, ErrTaskNotPushed)
}

func TestDetachBeforeRunCompletesAndFreesPool(t *testing.T) {
	p, err := New(1)
	require.NoError(t, err)

	started := make(chan struct{})
	finish := make(chan struct{})
	var ran int32
	task := NewTask(func() any {
		close(started)
		<-finish
		atomic.StoreInt32(&ran, 1)
		return nil
	})

	require.NoError(t, p.Push(task))
	require.NoError(t, task.Detach())
	require.Equal(t, StatusDetached, task.Status())

	<-started
	close(finish)

	require.Eventually(t, func() bool { return atomic.LoadInt32(&ran) == 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return p.Stat().InProgress == 0 }, time.Second, time.Millisecond)

	require.NoError(t, p.Delete())
}

func TestDeleteRefusesWhileTasksOutstanding(t *testing.T) {
	p, err := New(1)
	require.NoError(t, err)

	block := make(chan struct{})
	task := NewTask(func() any { <-block; return nil })
	require.NoError(t, p.Push(task))

	require.Eventually(t, func() bool { return task.IsRunning() }, time.Second, time.Millisecond)
	require.ErrorIs(t, p.Delete(), ErrHasTasks)

	close(block)
	_, err = task.Join()
	require.NoError(t, err)
	require.NoError(t, p.Delete())
}

func TestLazySpawningBoundsConcurrencyToMax(t *testing.T) {
	p, err := New(2)
	require.NoError(t, err)

	start := time.Now()
	tasks := make([]*Task, 4)
	for i := range tasks {
		tasks[i] = NewTask(func() any {
			time.Sleep(50 * time.Millisecond)
			return nil
		})
		require.NoError(t, p.Push(tasks[i]))
	}
	for _, task := range tasks {
		_, err := task.Join()
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	require.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	require.LessOrEqual(t, elapsed, 200*time.Millisecond)
	require.Equal(t, 2, p.ThreadCount())

	require.NoError(t, p.Delete())
}

func TestPushRejectsOnSaturatedQueue(t *testing.T) {
	p, err := New(1)
	require.NoError(t, err)

	block := make(chan struct{})
	blocker := NewTask(func() any { <-block; return nil })
	require.NoError(t, p.Push(blocker))
	require.Eventually(t, func() bool { return blocker.IsRunning() }, time.Second, time.Millisecond)

	for i := 0; i < MaxTasks; i++ {
		require.NoError(t, p.Push(NewTask(func() any { return nil })))
	}
	err = p.Push(NewTask(func() any { return nil }))
	require.ErrorIs(t, err, ErrTooManyTasks)

	close(block)
	require.Eventually(t, func() bool { return p.Stat().QueueLen == 0 && p.Stat().InProgress == 0 }, time.Second, time.Millisecond)
	require.NoError(t, p.Delete())
}
