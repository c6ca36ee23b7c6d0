package datacache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeOrigin struct {
	calls   atomic.Int64
	payload []byte
	err     error
	delay   time.Duration
}

func (f *fakeOrigin) Get(ctx context.Context, endpoint string) ([]byte, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

func newTestStore(origin Origin) *Store {
	return New(origin, nil, time.Millisecond, zap.NewNop())
}

func TestFetchCachesAfterFirstCall(t *testing.T) {
	origin := &fakeOrigin{payload: []byte(`{"ok":true}`)}
	store := newTestStore(origin)

	for i := 0; i < 3; i++ {
		res, err := store.Fetch(context.Background(), "bootstrap-static/", CategoryStats)
		require.NoError(t, err)
		assert.Equal(t, origin.payload, res.Payload)
		assert.False(t, res.Stale)
	}

	assert.Equal(t, int64(1), origin.calls.Load())
}

func TestConcurrentFetchesShareOneOriginCall(t *testing.T) {
	origin := &fakeOrigin{payload: []byte("payload"), delay: 20 * time.Millisecond}
	store := newTestStore(origin)

	const waiters = 16
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := store.Fetch(context.Background(), "fixtures/", CategorySchedule)
			assert.NoError(t, err)
			assert.Equal(t, []byte("payload"), res.Payload)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), origin.calls.Load(),
		"all concurrent waiters must share a single origin call")
}

func TestExpiredEntryTriggersRefetch(t *testing.T) {
	origin := &fakeOrigin{payload: []byte("v1")}
	store := newTestStore(origin)

	now := time.Now()
	store.now = func() time.Time { return now }

	_, err := store.Fetch(context.Background(), "bootstrap-static/", CategoryStats)
	require.NoError(t, err)

	// Jump past the stats TTL.
	store.now = func() time.Time { return now.Add(31 * time.Minute) }

	origin.payload = []byte("v2")
	res, err := store.Fetch(context.Background(), "bootstrap-static/", CategoryStats)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), res.Payload)
	assert.Equal(t, int64(2), origin.calls.Load())
}

func TestStaleEntryServedWhenOriginFails(t *testing.T) {
	origin := &fakeOrigin{payload: []byte("stale-but-usable")}
	store := newTestStore(origin)

	now := time.Now()
	store.now = func() time.Time { return now }

	_, err := store.Fetch(context.Background(), "bootstrap-static/", CategoryStats)
	require.NoError(t, err)

	store.now = func() time.Time { return now.Add(time.Hour) }
	origin.err = errors.New("origin down")

	res, err := store.Fetch(context.Background(), "bootstrap-static/", CategoryStats)
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Equal(t, []byte("stale-but-usable"), res.Payload)
}

func TestFetchFailsOnlyWhenEverythingFails(t *testing.T) {
	origin := &fakeOrigin{err: errors.New("origin down")}
	store := newTestStore(origin)

	_, err := store.Fetch(context.Background(), "fixtures/", CategorySchedule)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	// One call plus one retry.
	assert.Equal(t, int64(2), origin.calls.Load())
}

func TestCancelledWaiterStopsWaiting(t *testing.T) {
	origin := &fakeOrigin{payload: []byte("slow"), delay: 200 * time.Millisecond}
	store := newTestStore(origin)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := store.Fetch(ctx, "bootstrap-static/", CategoryStats)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInvalidateForcesOriginCall(t *testing.T) {
	origin := &fakeOrigin{payload: []byte("v")}
	store := newTestStore(origin)

	_, err := store.Fetch(context.Background(), "bootstrap-static/", CategoryReference)
	require.NoError(t, err)

	store.Invalidate("bootstrap-static/", CategoryReference)

	_, err = store.Fetch(context.Background(), "bootstrap-static/", CategoryReference)
	require.NoError(t, err)
	assert.Equal(t, int64(2), origin.calls.Load())
}
