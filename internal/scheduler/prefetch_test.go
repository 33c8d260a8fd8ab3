package scheduler

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeRefresher struct {
	mu       sync.Mutex
	seen     []string
	bypass   map[string]bool
	failing  map[string]bool
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeRefresher) RefreshCategory(_ context.Context, id string) (int, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	f.seen = append(f.seen, id)
	f.mu.Unlock()
	if f.failing[id] {
		return 0, errors.New("backend down")
	}
	return 3, nil
}

func (f *fakeRefresher) CacheBypassed(id string) bool {
	return f.bypass[id]
}

func (f *fakeRefresher) Seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.seen)
	slices.Sort(out)
	return out
}

func TestRunOnce_SkipsBypassedAndBoundsParallelism(t *testing.T) {
	r := &fakeRefresher{bypass: map[string]bool{"33": true}}
	p, err := New(r, Config{Spec: "@every 1h", Categories: []string{"1", "2", "3", "33", "4", "5"}, Parallelism: 2}, nil)
	require.NoError(t, err)

	n, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, r.Seen())
	assert.LessOrEqual(t, r.peak.Load(), int32(2))
}

func TestRunOnce_AttemptsEveryCategoryDespiteErrors(t *testing.T) {
	r := &fakeRefresher{failing: map[string]bool{"1": true}}
	p, err := New(r, Config{Spec: "@every 1h", Categories: []string{"1", "2", "3"}}, nil)
	require.NoError(t, err)

	n, err := p.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"1", "2", "3"}, r.Seen())
}

func TestStartRunOnStartAndStop(t *testing.T) {
	r := &fakeRefresher{}
	p, err := New(r, Config{Spec: "@every 1h", Categories: []string{"7"}, RunOnStart: true}, nil)
	require.NoError(t, err)

	require.NoError(t, p.Start(context.Background()))
	require.Eventually(t, func() bool { return len(r.Seen()) == 1 }, time.Second, 5*time.Millisecond)
	p.Stop()
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, Config{Spec: "@every 1h"}, nil)
	assert.Error(t, err)
	_, err = New(&fakeRefresher{}, Config{}, nil)
	assert.Error(t, err)

	p, err := New(&fakeRefresher{}, Config{Spec: "not a spec"}, nil)
	require.NoError(t, err)
	assert.Error(t, p.Start(context.Background()))
	p.Stop()
}
