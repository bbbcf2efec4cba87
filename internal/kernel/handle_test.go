package kernel

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyKeepsBothReferencesLive(t *testing.T) {
	ref := NewProcess(7, "app")

	dup, err := ref.Copy()
	require.NoError(t, err)

	obj, err := ref.Object()
	require.NoError(t, err)
	assert.Equal(t, int64(2), References(obj))

	dup.Release()
	assert.True(t, dup.Released())
	assert.Equal(t, int64(1), References(obj))

	// Releasing the copy leaves the original usable
	_, err = ref.Object()
	assert.NoError(t, err)

	_, err = dup.Object()
	assert.ErrorIs(t, err, ErrHandleClosed)
}

func TestReleaseIsIdempotent(t *testing.T) {
	ref := NewProcess(7, "app")
	defer ref.Close()

	dup, err := ref.Copy()
	require.NoError(t, err)

	dup.Release()
	dup.Release()

	obj, _ := ref.Object()
	assert.Equal(t, int64(1), References(obj))
}

func TestLastReleaseDestroysObject(t *testing.T) {
	ref := NewProcess(9, "app")
	obj, err := ref.Object()
	require.NoError(t, err)
	proc := obj.(*Process)

	dup, err := ref.Copy()
	require.NoError(t, err)

	require.NoError(t, ref.Close())
	assert.False(t, proc.Destroyed())

	dup.Release()
	assert.True(t, proc.Destroyed())
}

func TestMoveInvalidatesSource(t *testing.T) {
	ref := NewProcess(3, "app")

	moved, err := ref.Move()
	require.NoError(t, err)

	_, err = ref.Object()
	assert.ErrorIs(t, err, ErrHandleMoved)
	_, err = ref.Copy()
	assert.ErrorIs(t, err, ErrHandleMoved)
	_, err = ref.Move()
	assert.ErrorIs(t, err, ErrHandleMoved)
	assert.ErrorIs(t, ref.Close(), ErrHandleMoved)

	kind, err := moved.Kind()
	require.NoError(t, err)
	assert.Equal(t, KindProcess, kind)

	taken, err := moved.Take()
	require.NoError(t, err)

	_, err = moved.Take()
	assert.ErrorIs(t, err, ErrHandleMoved)
	_, err = moved.Kind()
	assert.ErrorIs(t, err, ErrHandleMoved)

	obj, err := taken.Object()
	require.NoError(t, err)
	assert.Equal(t, int64(1), References(obj))
	require.NoError(t, taken.Close())
	assert.True(t, obj.(*Process).Destroyed())
}

func TestMoveHandleCloseReleasesUntaken(t *testing.T) {
	ref := NewProcess(3, "app")
	obj, _ := ref.Object()

	moved, err := ref.Move()
	require.NoError(t, err)

	moved.Close()
	moved.Close()

	assert.True(t, obj.(*Process).Destroyed())
	_, err = moved.Take()
	assert.ErrorIs(t, err, ErrHandleClosed)
}

func TestCopyOfDestroyedObjectFails(t *testing.T) {
	ref := NewProcess(3, "app")
	require.NoError(t, ref.Close())

	_, err := ref.Copy()
	assert.ErrorIs(t, err, ErrHandleClosed)
}

func TestAs(t *testing.T) {
	proc := NewProcess(11, "app")
	defer proc.Close()
	event := NewEvent()
	defer event.Close()

	obj, _ := proc.Object()
	p, err := As[*Process](obj)
	require.NoError(t, err)
	assert.Equal(t, ProcessID(11), p.ProcessID())
	assert.Equal(t, "app", p.Name())

	obj, _ = event.Object()
	_, err = As[*Process](obj)
	assert.ErrorIs(t, err, ErrWrongKind)
}

func TestConcurrentCopies(t *testing.T) {
	ref := NewProcess(1, "app")
	obj, _ := ref.Object()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dup, err := ref.Copy()
			if err != nil {
				t.Error(err)
				return
			}
			dup.Release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), References(obj))
	require.NoError(t, ref.Close())
	assert.True(t, obj.(*Process).Destroyed())
}

func TestEvent(t *testing.T) {
	ref := NewEvent()
	defer ref.Close()

	obj, err := ref.Object()
	require.NoError(t, err)
	ev := obj.(*Event)

	assert.False(t, ev.Signaled())
	ev.Signal()
	assert.True(t, ev.Signaled())
	ev.Clear()
	assert.False(t, ev.Signaled())
	assert.Equal(t, "event", ev.Kind().String())
}
