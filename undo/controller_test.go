package undo

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"batchgen/database"
	"batchgen/logger"
	"batchgen/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stackRemover pops from an in-memory list of records.
type stackRemover struct {
	mu      sync.Mutex
	batches []model.Batch
	err     error
}

func (s *stackRemover) push(numbers ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range numbers {
		s.batches = append(s.batches, model.Batch{ID: int64(len(s.batches) + 1), BatchNumber: n})
	}
}

func (s *stackRemover) RemoveLatest(ctx context.Context) (*model.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if len(s.batches) == 0 {
		return nil, ErrNothingToUndo
	}
	last := s.batches[len(s.batches)-1]
	s.batches = s.batches[:len(s.batches)-1]
	return &last, nil
}

func (s *stackRemover) Count(ctx context.Context) (int, error) {
	return s.len(), nil
}

func (s *stackRemover) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

type tickers struct {
	mu  sync.Mutex
	all []*ManualTicker
}

func (ts *tickers) new(time.Duration) Ticker {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t := NewManualTicker()
	ts.all = append(ts.all, t)
	return t
}

func (ts *tickers) last() *ManualTicker {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.all[len(ts.all)-1]
}

func newTestController(t *testing.T, window int) (*Controller, *stackRemover, *tickers) {
	t.Helper()
	r := &stackRemover{}
	ts := &tickers{}
	c := New(r, window, time.Second, logger.Discard(), WithTicker(ts.new))
	t.Cleanup(c.Close)
	return c, r, ts
}

func waitRemaining(t *testing.T, c *Controller, want int) {
	t.Helper()
	require.Eventually(t, func() bool { return c.State().Remaining == want },
		time.Second, time.Millisecond, "remaining never reached %d", want)
}

func TestInitiallyDisabled(t *testing.T) {
	c, r, _ := newTestController(t, 10)
	r.push("25101001")

	assert.Equal(t, State{Window: 10}, c.State())

	_, err := c.Undo(context.Background())
	assert.ErrorIs(t, err, ErrUndoUnavailable)
	assert.Equal(t, 1, r.len())
}

func TestArmStartsCountdown(t *testing.T) {
	c, _, ts := newTestController(t, 10)

	c.Arm("25101001")
	assert.Equal(t, State{Enabled: true, Remaining: 10, Window: 10, LastBatch: "25101001"}, c.State())

	tk := ts.last()
	require.True(t, tk.Fire())
	waitRemaining(t, c, 9)
	require.True(t, tk.Fire())
	waitRemaining(t, c, 8)
	assert.True(t, c.State().Enabled)
}

func TestCountdownExpires(t *testing.T) {
	c, r, ts := newTestController(t, 3)
	r.push("25101001")

	c.Arm("25101001")
	tk := ts.last()
	for i := 0; i < 3; i++ {
		require.True(t, tk.Fire())
	}

	require.Eventually(t, func() bool { return !c.State().Enabled }, time.Second, time.Millisecond)
	assert.Equal(t, 0, c.State().Remaining)
	assert.True(t, tk.Stopped())
	assert.False(t, tk.Fire(), "a stopped ticker must not deliver")

	_, err := c.Undo(context.Background())
	assert.ErrorIs(t, err, ErrUndoUnavailable)
	assert.Equal(t, 1, r.len())
}

func TestRearmResetsCountdown(t *testing.T) {
	c, _, ts := newTestController(t, 5)

	c.Arm("25101001")
	first := ts.last()
	require.True(t, first.Fire())
	require.True(t, first.Fire())
	waitRemaining(t, c, 3)

	c.Arm("25101002")
	assert.True(t, first.Stopped())
	assert.Equal(t, State{Enabled: true, Remaining: 5, Window: 5, LastBatch: "25101002"}, c.State())

	second := ts.last()
	require.NotSame(t, first, second)
	require.True(t, second.Fire())
	waitRemaining(t, c, 4)
}

func TestRearmAfterExpiry(t *testing.T) {
	c, r, _ := newTestController(t, 1)
	r.push("25101001", "25101002")

	c.Arm("25101001")
	c.Tick()
	require.False(t, c.State().Enabled)

	c.Arm("25101002")
	removed, err := c.Undo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "25101002", removed.BatchNumber)
}

func TestUndoRemovesNewestAndDisables(t *testing.T) {
	c, r, ts := newTestController(t, 10)
	r.push("25101001", "25101002")

	c.Arm("25101002")
	removed, err := c.Undo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "25101002", removed.BatchNumber)
	assert.Equal(t, 1, r.len())

	st := c.State()
	assert.False(t, st.Enabled)
	assert.Equal(t, 0, st.Remaining)
	assert.True(t, ts.last().Stopped())

	_, err = c.Undo(context.Background())
	assert.ErrorIs(t, err, ErrUndoUnavailable)
	assert.Equal(t, 1, r.len())
}

func TestUndoIsByRecency(t *testing.T) {
	c, r, _ := newTestController(t, 10)
	r.push("25101001", "25202001", "25101002")

	// armed for an older number, the newest record is still the one removed
	c.Arm("25101001")
	removed, err := c.Undo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "25101002", removed.BatchNumber)

	c.Arm("25101001")
	removed, err = c.Undo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "25202001", removed.BatchNumber)
}

func TestUndoNothingToUndo(t *testing.T) {
	c, _, _ := newTestController(t, 10)

	c.Arm("25101001")
	removed, err := c.Undo(context.Background())
	assert.ErrorIs(t, err, ErrNothingToUndo)
	assert.Nil(t, removed)
	assert.True(t, c.State().Enabled, "a notice leaves the countdown running")
}

func TestUndoStoreFailure(t *testing.T) {
	c, r, _ := newTestController(t, 10)
	r.err = errors.New("disk I/O error")

	c.Arm("25101001")
	_, err := c.Undo(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNothingToUndo)
	assert.True(t, c.State().Enabled)
}

func TestUndoEmptyStoreIsNoticeWhileDisabled(t *testing.T) {
	c, r, _ := newTestController(t, 1)

	removed, err := c.Undo(context.Background())
	assert.ErrorIs(t, err, ErrNothingToUndo)
	assert.Nil(t, removed)
	assert.Equal(t, State{Window: 1}, c.State())

	r.push("25101001")
	c.Arm("25101001")
	c.Tick()
	require.False(t, c.State().Enabled)
	_, err = c.Undo(context.Background())
	assert.ErrorIs(t, err, ErrUndoUnavailable)
	assert.Equal(t, 1, r.len())
}

func TestTickWhileDisabledIsNoop(t *testing.T) {
	c, _, _ := newTestController(t, 10)
	c.Tick()
	assert.Equal(t, State{Window: 10}, c.State())
}

func TestStoreRemover(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "batch_data.db"))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	r := NewStoreRemover(db)
	_, err = r.RemoveLatest(ctx)
	assert.ErrorIs(t, err, ErrNothingToUndo)
	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	tx, err := db.Beginx()
	require.NoError(t, err)
	for i, n := range []string{"25101001", "25101002"} {
		_, err := database.InsertBatchInTx(ctx, tx, &model.Batch{
			BatchNumber: n, BatchPrefix: "25101", SequenceNo: i + 1,
			ProductType: "Standard", Color: "Red", Mrp: "120",
			MfdDate: "2025-03-14", DateGenerated: "2025-03-14 09:30:00",
		})
		require.NoError(t, err)
	}
	require.NoError(t, tx.Commit())

	removed, err := r.RemoveLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "25101002", removed.BatchNumber)
	n, err = r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTimeTickerDrivesCountdown(t *testing.T) {
	c := New(&stackRemover{}, 2, 5*time.Millisecond, logger.Discard())
	defer c.Close()

	c.Arm("25101001")
	require.Eventually(t, func() bool { return !c.State().Enabled }, 2*time.Second, time.Millisecond)
	assert.Equal(t, 0, c.State().Remaining)
}
