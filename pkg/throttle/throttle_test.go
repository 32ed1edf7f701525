package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeTime struct {
	now    time.Time
	sleeps []time.Duration
}

func (f *fakeTime) clock() time.Time {
	return f.now
}

func (f *fakeTime) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
	return nil
}

func newFakeThrottle(interval time.Duration) (*Throttle, *fakeTime) {
	ft := &fakeTime{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New(interval, WithClock(ft.clock), WithSleeper(ft.sleep)), ft
}

func TestThrottle_FirstCallDoesNotWait(t *testing.T) {
	th, ft := newFakeThrottle(2 * time.Second)

	require.NoError(t, th.Wait(context.Background()))
	require.Empty(t, ft.sleeps)
}

func TestThrottle_WaitsRemainingInterval(t *testing.T) {
	th, ft := newFakeThrottle(2 * time.Second)
	ctx := context.Background()

	require.NoError(t, th.Wait(ctx))
	ft.now = ft.now.Add(500 * time.Millisecond)
	require.NoError(t, th.Wait(ctx))
	require.Equal(t, []time.Duration{1500 * time.Millisecond}, ft.sleeps)

	ft.now = ft.now.Add(3 * time.Second)
	require.NoError(t, th.Wait(ctx))
	require.Len(t, ft.sleeps, 1)
}

func TestThrottle_Touch(t *testing.T) {
	th, ft := newFakeThrottle(2 * time.Second)
	ctx := context.Background()

	require.NoError(t, th.Wait(ctx))
	ft.now = ft.now.Add(5 * time.Second)
	th.Touch()
	require.NoError(t, th.Wait(ctx))
	require.Equal(t, []time.Duration{2 * time.Second}, ft.sleeps)
}

func TestThrottle_Reset(t *testing.T) {
	th, ft := newFakeThrottle(time.Second)
	ctx := context.Background()

	require.NoError(t, th.Wait(ctx))
	th.Reset()
	require.NoError(t, th.Wait(ctx))
	require.Empty(t, ft.sleeps)
}

func TestThrottle_ZeroIntervalNeverWaits(t *testing.T) {
	th, ft := newFakeThrottle(0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, th.Wait(ctx))
	}
	require.Empty(t, ft.sleeps)
}

func TestThrottle_Cancelled(t *testing.T) {
	th, _ := newFakeThrottle(time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, th.Wait(ctx))
	cancel()
	require.ErrorIs(t, th.Wait(ctx), context.Canceled)
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}
