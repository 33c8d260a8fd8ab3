package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestGet_NeverWritten(t *testing.T) {
	c := New[string]()
	items, ok := c.Get("12")
	assert.False(t, ok)
	assert.Nil(t, items)
}

func TestGet_ImmediatelyAfterPut(t *testing.T) {
	c := New[string]()
	c.Put("12", []string{"a", "b"})

	items, ok := c.Get("12")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, items)
}

func TestGet_ExpiresAfterTTL(t *testing.T) {
	for _, ttl := range []time.Duration{time.Millisecond, time.Second, DefaultTTL, 6 * time.Hour} {
		t.Run(ttl.String(), func(t *testing.T) {
			clock := newFakeClock()
			c := New[int](WithTTL(ttl), WithClock(clock.Now))
			c.Put("k", []int{1})

			clock.Advance(ttl - time.Nanosecond)
			_, ok := c.Get("k")
			assert.True(t, ok, "entry should still be fresh just before the ttl")

			clock.Advance(time.Nanosecond)
			_, ok = c.Get("k")
			assert.False(t, ok, "entry should be stale once ttl has elapsed")
		})
	}
}

func TestGet_EmptyListIsMiss(t *testing.T) {
	c := New[int]()
	c.Put("k", nil)
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestGet_BypassedKeyAlwaysMisses(t *testing.T) {
	c := New[int](WithBypass("33"))
	c.Put("33", []int{1, 2})
	c.Put("34", []int{3})

	_, ok := c.Get("33")
	assert.False(t, ok)
	assert.True(t, c.Bypassed("33"))

	items, ok := c.Get("34")
	assert.True(t, ok)
	assert.Equal(t, []int{3}, items)
}

func TestPut_CopiesInputAndOutput(t *testing.T) {
	c := New[int]()
	in := []int{1, 2}
	c.Put("k", in)
	in[0] = 99

	out, _ := c.Get("k")
	assert.Equal(t, []int{1, 2}, out)
	out[1] = 77

	again, _ := c.Get("k")
	assert.Equal(t, []int{1, 2}, again)
}

func TestPut_OverwriteRestampsEntry(t *testing.T) {
	clock := newFakeClock()
	c := New[int](WithTTL(time.Minute), WithClock(clock.Now))
	c.Put("k", []int{1})
	clock.Advance(50 * time.Second)
	c.Put("k", []int{2})
	clock.Advance(50 * time.Second)

	items, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []int{2}, items)
}

func TestInvalidate(t *testing.T) {
	c := New[int]()
	c.Put("a", []int{1})
	c.Put("b", []int{2})

	c.Invalidate("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)

	c.Invalidate("missing")
	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestSetTTL_IsProspective(t *testing.T) {
	clock := newFakeClock()
	c := New[int](WithTTL(10*time.Minute), WithClock(clock.Now))
	c.Put("k", []int{1})
	clock.Advance(5 * time.Minute)

	require.True(t, c.SetTTL(2*time.Minute))
	_, ok := c.Get("k")
	assert.False(t, ok, "shorter ttl applies to existing entries without restamping")

	require.True(t, c.SetTTL(time.Hour))
	_, ok = c.Get("k")
	assert.True(t, ok, "entry becomes visible again under a longer ttl")
}

func TestSetTTL_IgnoresNonPositive(t *testing.T) {
	c := New[int](WithTTL(time.Minute))
	assert.False(t, c.SetTTL(0))
	assert.False(t, c.SetTTL(-time.Second))
	assert.Equal(t, time.Minute, c.TTL())

	c = New[int](WithTTL(0))
	assert.Equal(t, DefaultTTL, c.TTL())
}

func TestSnapshotRestore(t *testing.T) {
	clock := newFakeClock()
	src := New[string](WithTTL(time.Hour), WithClock(clock.Now))
	src.Put("old", []string{"x"})
	clock.Advance(50 * time.Minute)
	src.Put("new", []string{"y"})
	clock.Advance(20 * time.Minute)

	snap := src.Snapshot()
	require.Len(t, snap, 1, "stale entries are not persisted")
	require.Contains(t, snap, "new")

	dst := New[string](WithTTL(time.Hour), WithClock(clock.Now), WithBypass("skip"))
	snap["skip"] = Entry[string]{Items: []string{"z"}, FetchedAt: clock.Now()}
	assert.Equal(t, 1, dst.Restore(snap))

	clock.Advance(39 * time.Minute)
	_, ok := dst.Get("new")
	assert.True(t, ok)
	clock.Advance(time.Minute)
	_, ok = dst.Get("new")
	assert.False(t, ok, "restored entries keep their original fetch time")
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int]()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprint(i % 4)
			for j := 0; j < 200; j++ {
				c.Put(key, []int{i, j})
				c.Get(key)
				if j%50 == 0 {
					c.Invalidate(key)
				}
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 4)
}
