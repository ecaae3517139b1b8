package bus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func echo(_ context.Context, args ...any) (any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	return args[0], nil
}

func TestBus_RegisterAndInvoke(t *testing.T) {
	b := New()

	h, err := b.Register("echo", echo)
	require.NoError(t, err)
	assert.Equal(t, "echo", h.Name())
	assert.True(t, b.Has("echo"))

	v, err := b.Invoke(context.Background(), "echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
}

func TestBus_RegisterValidation(t *testing.T) {
	b := New()

	_, err := b.Register("", echo)
	assert.ErrorIs(t, err, ErrInvalidEndpoint)

	_, err = b.Register("nil", nil)
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
}

func TestBus_NameTaken(t *testing.T) {
	b := New()

	_, err := b.Register("owner", echo)
	require.NoError(t, err)

	_, err = b.Register("owner", echo)
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestBus_InvokeMissing(t *testing.T) {
	b := New()

	_, err := b.Invoke(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrEndpointNotFound)
}

func TestBus_InvokeHandlerError(t *testing.T) {
	b := New()
	cause := errors.New("boom")

	_, err := b.Register("fail", func(context.Context, ...any) (any, error) {
		return nil, cause
	})
	require.NoError(t, err)

	_, err = b.Invoke(context.Background(), "fail")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteHandler)
	assert.ErrorIs(t, err, cause)

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "fail", remote.Name)
}

func TestBus_InvokeHandlerPanic(t *testing.T) {
	b := New()

	_, err := b.Register("panic", func(context.Context, ...any) (any, error) {
		panic("kaboom")
	})
	require.NoError(t, err)

	_, err = b.Invoke(context.Background(), "panic")
	assert.ErrorIs(t, err, ErrRemoteHandler)
	assert.ErrorIs(t, err, ErrHandlerPanic)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestBus_InvokeTimeout(t *testing.T) {
	b := New()
	release := make(chan struct{})
	defer close(release)

	_, err := b.Register("hang", func(context.Context, ...any) (any, error) {
		<-release
		return nil, nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = b.Invoke(ctx, "hang")
	assert.ErrorIs(t, err, ErrInvokeTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestBus_ReleaseFreesName(t *testing.T) {
	b := New()

	h, err := b.Register("owner", echo)
	require.NoError(t, err)

	assert.True(t, h.Release())
	assert.True(t, h.Released())
	assert.False(t, b.Has("owner"))

	// Second release is a no-op.
	assert.False(t, h.Release())

	h2, err := b.Register("owner", echo)
	require.NoError(t, err)
	defer h2.Release()
	assert.True(t, b.Has("owner"))
}

func TestBus_StaleHandleDoesNotReleaseNewOwner(t *testing.T) {
	b := New()

	old, err := b.Register("owner", echo)
	require.NoError(t, err)
	require.True(t, old.Release())

	current, err := b.Register("owner", echo)
	require.NoError(t, err)

	assert.False(t, old.Release())
	assert.True(t, b.Has("owner"))
	assert.True(t, current.Release())
}

func TestBus_NilHandleRelease(t *testing.T) {
	var h *Handle
	assert.False(t, h.Release())
}

func TestBus_Names(t *testing.T) {
	b := New()
	for _, name := range []string{"c", "a", "b"} {
		_, err := b.Register(name, echo)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"a", "b", "c"}, b.Names())
	assert.Equal(t, 3, b.Count())
}

func TestBus_HandlerMayReenterBus(t *testing.T) {
	b := New()

	_, err := b.Register("inner", echo)
	require.NoError(t, err)

	_, err = b.Register("outer", func(ctx context.Context, args ...any) (any, error) {
		if _, err := b.Register("late", echo); err != nil {
			return nil, err
		}
		return b.Invoke(ctx, "inner", args...)
	})
	require.NoError(t, err)

	v, err := b.Invoke(context.Background(), "outer", 42)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.True(t, b.Has("late"))
}

func TestBus_ConcurrentRegisterSingleWinner(t *testing.T) {
	for round := 0; round < 20; round++ {
		b := New()
		var wins atomic.Int32
		var start sync.WaitGroup
		start.Add(1)

		var g errgroup.Group
		for i := 0; i < 16; i++ {
			g.Go(func() error {
				start.Wait()
				_, err := b.Register("owner", echo)
				switch {
				case err == nil:
					wins.Add(1)
				case errors.Is(err, ErrNameTaken):
				default:
					return err
				}
				return nil
			})
		}
		start.Done()

		require.NoError(t, g.Wait())
		assert.Equal(t, int32(1), wins.Load())
	}
}
