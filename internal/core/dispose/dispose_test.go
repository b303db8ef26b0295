package dispose

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispose_ZeroValueUsable(t *testing.T) {
	var d Dispose
	assert.False(t, d.IsClosed())

	result := d.Close()
	assert.True(t, result.ActualDisposal)
	assert.False(t, result.HasErrors())
	assert.True(t, d.IsClosed())
}

func TestDispose_CloseRunsHandlersOnce(t *testing.T) {
	d := NewDispose("serial")
	var calls atomic.Int32
	d.AddCleanHandler(func() error {
		calls.Add(1)
		return nil
	})

	first := d.Close()
	second := d.Close()

	assert.True(t, first.ActualDisposal)
	assert.False(t, second.ActualDisposal)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDispose_HandlerErrors(t *testing.T) {
	d := NewDispose("tcp")
	boom := errors.New("boom")
	var secondRan bool
	d.AddCleanHandler(func() error { return boom })
	d.AddCleanHandler(func() error {
		secondRan = true
		return nil
	})

	err := d.CloseWithError()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, secondRan, "a failing handler should not stop later ones")

	// 第二次关闭不再报告错误
	assert.NoError(t, d.CloseWithError())
}

func TestDispose_DoneClosedOnClose(t *testing.T) {
	d := NewDispose("done")
	select {
	case <-d.Done():
		t.Fatal("Done should not be closed before Close")
	default:
	}
	d.Close()
	<-d.Done()
}

func TestDispose_AddAfterCloseRunsImmediately(t *testing.T) {
	d := NewDispose("late")
	d.Close()

	ran := false
	d.AddCleanHandler(func() error {
		ran = true
		return nil
	})
	assert.True(t, ran)
}

func TestDispose_ConcurrentClose(t *testing.T) {
	d := NewDispose("concurrent")
	var calls atomic.Int32
	d.AddCleanHandler(func() error {
		calls.Add(1)
		return nil
	})

	var wg sync.WaitGroup
	var actual atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d.Close().ActualDisposal {
				actual.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(1), actual.Load())
}
