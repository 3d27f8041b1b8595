package gate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type fakeSurface struct {
	mu      sync.Mutex
	updates []int
	unlock  []bool
	closed  int
}

func (f *fakeSurface) Update(remaining int, unlockable bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, remaining)
	f.unlock = append(f.unlock, unlockable)
}

func (f *fakeSurface) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
}

func TestNew_InvalidDelay(t *testing.T) {
	for _, d := range []int{0, -1, -3600} {
		g, err := New(d, Options{})
		assert.Nil(t, g)
		assert.ErrorIs(t, err, ErrInvalidDelay)
	}
}

func TestGate_CountdownToUnlockable(t *testing.T) {
	surface := &fakeSurface{}
	g, err := New(3, Options{Surface: surface})
	require.NoError(t, err)
	require.Equal(t, Counting, g.State())
	require.Equal(t, 3, g.Remaining())
	require.NotEmpty(t, g.ID())

	calls := 0
	for i := 0; i < 2; i++ {
		assert.Equal(t, Counting, g.Tick())
		assert.ErrorIs(t, g.Override(func() { calls++ }), ErrLocked)
		assert.Equal(t, Counting, g.State())
	}
	assert.Equal(t, 1, g.Remaining())

	assert.Equal(t, Unlockable, g.Tick())
	assert.Equal(t, 0, g.Remaining())
	select {
	case <-g.Unlocked():
	default:
		t.Fatal("Unlocked channel should be closed")
	}

	require.NoError(t, g.Override(func() { calls++ }))
	assert.Equal(t, 1, calls)
	assert.Equal(t, Overridden, g.State())
	assert.ErrorIs(t, g.Override(func() { calls++ }), ErrClosed)
	assert.Equal(t, 1, calls)

	assert.Equal(t, []int{2, 1, 0}, surface.updates)
	assert.Equal(t, []bool{false, false, true}, surface.unlock)
	assert.Equal(t, 1, surface.closed)
}

func TestGate_Monotonic(t *testing.T) {
	g, err := New(5, Options{})
	require.NoError(t, err)

	prev := g.Remaining()
	for i := 0; i < 10; i++ {
		g.Tick()
		cur := g.Remaining()
		assert.LessOrEqual(t, cur, prev)
		assert.GreaterOrEqual(t, cur, 0)
		if g.State() == Unlockable {
			assert.Equal(t, 0, cur)
		}
		prev = cur
	}
	assert.Equal(t, Unlockable, g.State())
}

func TestGate_Cancel(t *testing.T) {
	surface := &fakeSurface{}
	g, err := New(10, Options{Surface: surface})
	require.NoError(t, err)

	g.Tick()
	require.NoError(t, g.Cancel())
	assert.Equal(t, Cancelled, g.State())
	assert.Equal(t, 9, g.Remaining())

	assert.ErrorIs(t, g.Cancel(), ErrClosed)
	assert.ErrorIs(t, g.Override(nil), ErrClosed)
	assert.Equal(t, Cancelled, g.Tick())
	assert.Equal(t, 9, g.Remaining())
	assert.Equal(t, 1, surface.closed)

	select {
	case <-g.Done():
	default:
		t.Fatal("Done channel should be closed")
	}
}

func TestGate_CancelWhenUnlockable(t *testing.T) {
	g, err := New(1, Options{})
	require.NoError(t, err)
	g.Tick()
	require.NoError(t, g.Cancel())
	assert.Equal(t, Cancelled, g.State())
}

func TestGate_OnChange(t *testing.T) {
	var seen []Snapshot
	g, err := New(2, Options{OnChange: func(s Snapshot) { seen = append(seen, s) }})
	require.NoError(t, err)

	g.Tick()
	g.Tick()
	require.NoError(t, g.Override(nil))

	require.Len(t, seen, 3)
	assert.Equal(t, Counting, seen[0].State)
	assert.Equal(t, 1, seen[0].Remaining)
	assert.Equal(t, Unlockable, seen[1].State)
	assert.Equal(t, Overridden, seen[2].State)
	for _, s := range seen {
		assert.Equal(t, g.ID(), s.ID)
		assert.Equal(t, 2, s.Delay)
	}
}

func TestGate_TickerStopsAtUnlock(t *testing.T) {
	var mu sync.Mutex
	ticks := 0
	g, err := New(3, Options{
		Interval: time.Millisecond,
		OnChange: func(Snapshot) {
			mu.Lock()
			ticks++
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	g.Start()
	g.Start()

	select {
	case <-g.Unlocked():
	case <-time.After(5 * time.Second):
		t.Fatal("countdown never finished")
	}
	assert.Equal(t, Unlockable, g.State())

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 3, ticks)
	mu.Unlock()

	overridden := make(chan State, 1)
	require.NoError(t, g.Override(func() { overridden <- g.State() }))
	assert.Equal(t, Overridden, <-overridden)
}

func TestGate_DispatchRunsTicks(t *testing.T) {
	dispatched := make(chan func(), 8)
	g, err := New(2, Options{
		Interval: time.Millisecond,
		Dispatch: func(fn func()) {
			select {
			case dispatched <- fn:
			default:
			}
		},
	})
	require.NoError(t, err)
	g.Start()

	for g.State() == Counting {
		select {
		case fn := <-dispatched:
			fn()
		case <-time.After(5 * time.Second):
			t.Fatal("no tick dispatched")
		}
	}
	assert.Equal(t, Unlockable, g.State())
}

func TestGate_LateTickAfterCancel(t *testing.T) {
	dispatched := make(chan func(), 8)
	g, err := New(100, Options{
		Interval: time.Millisecond,
		Dispatch: func(fn func()) {
			select {
			case dispatched <- fn:
			default:
			}
		},
	})
	require.NoError(t, err)
	g.Start()

	var late func()
	select {
	case late = <-dispatched:
	case <-time.After(5 * time.Second):
		t.Fatal("no tick dispatched")
	}
	require.NoError(t, g.Cancel())
	late()
	assert.Equal(t, Cancelled, g.State())
	assert.Equal(t, 100, g.Remaining())
}

func TestState_String(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{Counting, "counting"},
		{Unlockable, "unlockable"},
		{Overridden, "overridden"},
		{Cancelled, "cancelled"},
		{State(9), "state(9)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.s.String())
	}
	assert.True(t, Overridden.Terminal())
	assert.False(t, Unlockable.Terminal())
}

func TestSnapshot_YAML(t *testing.T) {
	g, err := New(5, Options{})
	require.NoError(t, err)
	out, err := yaml.Marshal(g.Snapshot())
	require.NoError(t, err)
	assert.Contains(t, string(out), "state: counting")
	assert.Contains(t, string(out), "remaining: 5")
}
