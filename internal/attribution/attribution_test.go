package attribution

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSDK struct {
	id     string
	fields map[string]string
	err    error
}

func (f fakeSDK) InstallID() string { return f.id }

func (f fakeSDK) Conversion(context.Context) (map[string]string, error) {
	return f.fields, f.err
}

func TestFields_SortedAndStringified(t *testing.T) {
	f := NewFields(map[string]any{"b": 2, "a": "x", "c": nil})
	assert.Equal(t, []string{"a", "b", "c"}, f.Keys())
	assert.Equal(t, 3, f.Len())

	v, ok := f.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	v, _ = f.Get("c")
	assert.Equal(t, "<nil>", v)

	_, ok = f.Get("missing")
	assert.False(t, ok)
}

func TestPromise_FirstResolveWins(t *testing.T) {
	p := NewPromise()
	assert.True(t, p.Resolve(Context{InstallID: "first"}))
	assert.False(t, p.Resolve(Context{InstallID: "second"}))

	select {
	case <-p.Done():
	default:
		t.Fatal("promise not done after Resolve")
	}
	assert.Equal(t, "first", p.Value().InstallID)
}

func TestDeliver_SuccessAndFailure(t *testing.T) {
	p := NewPromise()
	err := Deliver(context.Background(), fakeSDK{id: "uid-1", fields: map[string]string{"campaign": "x"}}, p)
	require.NoError(t, err)
	got := p.Value()
	assert.Equal(t, "uid-1", got.InstallID)
	assert.Equal(t, SourceSDK, got.Source)
	v, _ := got.Fields.Get("campaign")
	assert.Equal(t, "x", v)

	p = NewPromise()
	err = Deliver(context.Background(), fakeSDK{id: "uid-2", err: errors.New("sdk down")}, p)
	require.Error(t, err)
	got = p.Value()
	assert.Equal(t, "uid-2", got.InstallID)
	assert.Equal(t, 0, got.Fields.Len())
}

func TestWaiter_SDKBeatsTimeout(t *testing.T) {
	mock := clock.NewMock()
	p := NewPromise()

	fired := make(chan Context, 2)
	Waiter{Clock: mock, Timeout: 10 * time.Second}.Await(context.Background(), p, func(c Context) { fired <- c })

	p.Resolve(Context{InstallID: "sdk-uid", Source: SourceSDK})

	select {
	case c := <-fired:
		assert.Equal(t, "sdk-uid", c.InstallID)
		assert.Equal(t, SourceSDK, c.Source)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter did not fire on SDK delivery")
	}

	mock.Add(time.Minute)
	select {
	case c := <-fired:
		t.Fatalf("waiter fired twice: %+v", c)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWaiter_TimeoutWinsAndLateDeliveryIgnored(t *testing.T) {
	mock := clock.NewMock()
	p := NewPromise()

	var calls atomic.Int32
	fired := make(chan Context, 2)
	w := Waiter{Clock: mock, Timeout: 10 * time.Second, InstallID: func() string { return "fallback-uid" }}
	w.Await(context.Background(), p, func(c Context) {
		calls.Add(1)
		fired <- c
	})

	mock.Add(10 * time.Second)

	select {
	case c := <-fired:
		assert.Equal(t, SourceTimeout, c.Source)
		assert.Equal(t, "fallback-uid", c.InstallID)
		assert.Equal(t, 0, c.Fields.Len())
	case <-time.After(2 * time.Second):
		t.Fatal("waiter did not fire on timeout")
	}

	assert.False(t, p.Resolve(Context{InstallID: "late"}), "late SDK delivery must lose")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWaiter_AlreadyResolvedFiresImmediately(t *testing.T) {
	p := NewPromise()
	p.Resolve(Context{InstallID: "early"})

	fired := make(chan Context, 1)
	Waiter{Clock: clock.NewMock(), Timeout: time.Hour}.Await(context.Background(), p, func(c Context) { fired <- c })

	select {
	case c := <-fired:
		assert.Equal(t, "early", c.InstallID)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter did not fire for a pre-resolved promise")
	}
}

func TestWaiter_ContextCancelSuppressesFire(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPromise()

	fired := make(chan Context, 1)
	Waiter{Clock: clock.NewMock(), Timeout: time.Hour}.Await(ctx, p, func(c Context) { fired <- c })
	cancel()
	time.Sleep(20 * time.Millisecond)
	p.Resolve(Context{})

	select {
	case <-fired:
		t.Fatal("waiter fired after cancellation")
	case <-time.After(50 * time.Millisecond):
	}
}
