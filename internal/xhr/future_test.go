package xhr_test

import (
	"context"
	"testing"
	"time"

	"github.com/brizzai/auto-xhr/internal/transport/transporttest"
	"github.com/brizzai/auto-xhr/internal/xhr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_PendingUntilSettled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mock := transporttest.New(transporttest.Modern)
	f := xhr.Send(ctx, "GET", "/", nil, mock)

	assert.False(t, f.Settled())
	_, err := f.Result()
	assert.ErrorIs(t, err, xhr.ErrPending)

	short, stop := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer stop()
	_, err = f.Await(short)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, f.Settled(), "an expired await must not settle the request")

	mock.FakeComplete(200, "late")
	res, err := await(t, f)
	require.NoError(t, err)
	assert.Equal(t, "late", res.ResponseText)
}

func TestFuture_Then(t *testing.T) {
	t.Run("resolve", func(t *testing.T) {
		resolved := make(chan *xhr.Result, 1)
		xhr.Send(context.Background(), "GET", "/", nil, transporttest.OK(0)).Then(
			func(r *xhr.Result) { resolved <- r },
			func(*xhr.Error) { t.Error("unexpected rejection") },
		)

		select {
		case r := <-resolved:
			assert.Equal(t, 200, r.Status)
		case <-time.After(5 * time.Second):
			t.Fatal("Then never called")
		}
	})

	t.Run("reject", func(t *testing.T) {
		rejected := make(chan *xhr.Error, 1)
		xhr.Send(context.Background(), "GET", "/", nil, transporttest.Fail(0)).Then(
			func(*xhr.Result) { t.Error("unexpected resolution") },
			func(e *xhr.Error) { rejected <- e },
		)

		select {
		case e := <-rejected:
			assert.ErrorIs(t, e, xhr.ErrStatus)
			assert.Equal(t, 404, e.Status)
		case <-time.After(5 * time.Second):
			t.Fatal("Then never called")
		}
	})

	t.Run("nil callbacks", func(t *testing.T) {
		f := xhr.Send(context.Background(), "GET", "/", nil, transporttest.OK(0))
		f.Then(nil, nil)
		_, err := await(t, f)
		require.NoError(t, err)
	})
}
