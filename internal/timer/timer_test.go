package timer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTicker struct {
	c        chan time.Time
	stopOnce sync.Once
	stopped  chan struct{}
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }
func (f *fakeTicker) Stop()               { f.stopOnce.Do(func() { close(f.stopped) }) }

type fakeClock struct {
	tickers chan *fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{tickers: make(chan *fakeTicker, 8)}
}

func (f *fakeClock) newTicker(time.Duration) Ticker {
	ft := &fakeTicker{c: make(chan time.Time, 1), stopped: make(chan struct{})}
	f.tickers <- ft
	return ft
}

func (f *fakeClock) next(t *testing.T) *fakeTicker {
	t.Helper()
	select {
	case ft := <-f.tickers:
		return ft
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for ticker")
		return nil
	}
}

type recorder struct {
	ticks    chan Snapshot
	finished chan struct{}
}

func newRecorder() *recorder {
	return &recorder{ticks: make(chan Snapshot, 64), finished: make(chan struct{}, 4)}
}

func (r *recorder) Tick(s Snapshot) { r.ticks <- s }
func (r *recorder) Finished()       { r.finished <- struct{}{} }

func recvTick(t *testing.T, r *recorder) Snapshot {
	t.Helper()
	select {
	case s := <-r.ticks:
		return s
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for tick")
		return Snapshot{}
	}
}

func recvNoTick(t *testing.T, r *recorder, within time.Duration) {
	t.Helper()
	select {
	case s := <-r.ticks:
		t.Fatalf("expected no tick within %v, got %+v", within, s)
	case <-time.After(within):
	}
}

func newTestTimer(seconds int) (*Timer, *fakeClock, *recorder) {
	clock := newFakeClock()
	rec := newRecorder()
	return New(seconds, rec, WithTicker(clock.newTicker)), clock, rec
}

func TestNew(t *testing.T) {
	tm, _, _ := newTestTimer(30)
	assert.Equal(t, Snapshot{Status: StatusReady, Seconds: 30, InitialSeconds: 30}, tm.Snapshot())
}

func TestStart_EmitsImmediatelyAndCountsDown(t *testing.T) {
	tm, clock, rec := newTestTimer(30)

	snap, err := tm.Start()
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, snap.Status)
	assert.Equal(t, snap, recvTick(t, rec))

	ft := clock.next(t)
	for i := 1; i <= 3; i++ {
		ft.c <- time.Now()
		got := recvTick(t, rec)
		assert.Equal(t, 30-i, got.Seconds)
		assert.Equal(t, StatusRunning, got.Status)
	}

	assert.Equal(t, 27, tm.Snapshot().Seconds)
	assert.Equal(t, 30, tm.Snapshot().InitialSeconds)
}

func TestPauseThenStartResumes(t *testing.T) {
	tm, clock, rec := newTestTimer(30)
	_, err := tm.Start()
	require.NoError(t, err)
	recvTick(t, rec)

	first := clock.next(t)
	first.c <- time.Now()
	recvTick(t, rec)

	snap, err := tm.Pause()
	require.NoError(t, err)
	assert.Equal(t, Snapshot{Status: StatusPaused, Seconds: 29, InitialSeconds: 30}, snap)
	recvTick(t, rec)

	// A tick already in flight when the pause lands must not be applied.
	select {
	case first.c <- time.Now():
	default:
	}
	recvNoTick(t, rec, 50*time.Millisecond)
	assert.Equal(t, 29, tm.Snapshot().Seconds)

	snap, err = tm.Start()
	require.NoError(t, err)
	assert.Equal(t, 29, snap.Seconds)
	recvTick(t, rec)

	second := clock.next(t)
	second.c <- time.Now()
	assert.Equal(t, 28, recvTick(t, rec).Seconds)
}

func TestPause_RequiresRunning(t *testing.T) {
	tm, _, _ := newTestTimer(30)

	_, err := tm.Pause()
	assert.ErrorIs(t, err, ErrInvalidState)

	var se *StateError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StatusReady, se.Status)
	assert.Equal(t, "Cannot pause timer in 'ready' state. Must be 'running'.", se.Error())
	assert.Equal(t, StatusReady, tm.Snapshot().Status)
}

func TestStart_RejectsRunningAndFinished(t *testing.T) {
	tm, clock, rec := newTestTimer(1)
	_, err := tm.Start()
	require.NoError(t, err)
	recvTick(t, rec)

	_, err = tm.Start()
	assert.ErrorIs(t, err, ErrInvalidState)

	clock.next(t).c <- time.Now()
	final := recvTick(t, rec)
	assert.Equal(t, StatusFinished, final.Status)

	_, err = tm.Start()
	var se *StateError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StatusFinished, se.Status)
}

func TestFinish_EmitsFinishedOnce(t *testing.T) {
	tm, clock, rec := newTestTimer(2)
	_, err := tm.Start()
	require.NoError(t, err)
	recvTick(t, rec)

	ft := clock.next(t)
	ft.c <- time.Now()
	assert.Equal(t, 1, recvTick(t, rec).Seconds)
	ft.c <- time.Now()
	final := recvTick(t, rec)
	assert.Equal(t, Snapshot{Status: StatusFinished, Seconds: 0, InitialSeconds: 2}, final)

	select {
	case <-rec.finished:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for finished")
	}

	select {
	case <-ft.stopped:
	case <-time.After(time.Second):
		t.Fatalf("ticker was not stopped after finish")
	}
	assert.Empty(t, rec.finished)
}

func TestReset(t *testing.T) {
	cases := []struct {
		name  string
		setup func(t *testing.T, tm *Timer, clock *fakeClock, rec *recorder)
	}{
		{name: "from ready"},
		{
			name: "from running",
			setup: func(t *testing.T, tm *Timer, clock *fakeClock, rec *recorder) {
				_, err := tm.Start()
				require.NoError(t, err)
				recvTick(t, rec)
				clock.next(t).c <- time.Now()
				recvTick(t, rec)
			},
		},
		{
			name: "from paused",
			setup: func(t *testing.T, tm *Timer, clock *fakeClock, rec *recorder) {
				_, _ = tm.Start()
				recvTick(t, rec)
				clock.next(t)
				_, _ = tm.Pause()
				recvTick(t, rec)
			},
		},
		{
			name: "from finished",
			setup: func(t *testing.T, tm *Timer, clock *fakeClock, rec *recorder) {
				tm.Reset(ptr(1))
				recvTick(t, rec)
				_, _ = tm.Start()
				recvTick(t, rec)
				clock.next(t).c <- time.Now()
				recvTick(t, rec)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tm, clock, rec := newTestTimer(30)
			if tc.setup != nil {
				tc.setup(t, tm, clock, rec)
			}

			snap := tm.Reset(ptr(45))
			want := Snapshot{Status: StatusReady, Seconds: 45, InitialSeconds: 45}
			assert.Equal(t, want, snap)
			assert.Equal(t, want, recvTick(t, rec))
			assert.Equal(t, want, tm.Snapshot())
		})
	}
}

func TestReset_KeepsPreviousInitial(t *testing.T) {
	tm, clock, rec := newTestTimer(20)
	_, _ = tm.Start()
	recvTick(t, rec)
	clock.next(t).c <- time.Now()
	recvTick(t, rec)

	snap := tm.Reset(nil)
	assert.Equal(t, Snapshot{Status: StatusReady, Seconds: 20, InitialSeconds: 20}, snap)
}

func TestReset_StaleLoopCannotResurrect(t *testing.T) {
	tm, clock, rec := newTestTimer(30)
	_, _ = tm.Start()
	recvTick(t, rec)
	old := clock.next(t)

	tm.Reset(nil)
	recvTick(t, rec)
	_, _ = tm.Start()
	recvTick(t, rec)
	fresh := clock.next(t)

	select {
	case old.c <- time.Now():
	default:
	}
	recvNoTick(t, rec, 50*time.Millisecond)

	fresh.c <- time.Now()
	assert.Equal(t, 29, recvTick(t, rec).Seconds)
}

func TestHalt(t *testing.T) {
	tm, clock, rec := newTestTimer(10)
	tm.Halt()
	recvNoTick(t, rec, 20*time.Millisecond)

	_, _ = tm.Start()
	recvTick(t, rec)
	ft := clock.next(t)

	tm.Halt()
	assert.Equal(t, StatusPaused, recvTick(t, rec).Status)
	select {
	case <-ft.stopped:
	case <-time.After(time.Second):
		t.Fatalf("loop did not exit after halt")
	}
}

func ptr[T any](v T) *T { return &v }
