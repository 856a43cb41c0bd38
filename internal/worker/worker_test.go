package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-fit-analyzer/internal/analysis"
	"github.com/jonathan/job-fit-analyzer/internal/db"
)

// fakeRunStore is an in-memory run queue
type fakeRunStore struct {
	mu       sync.Mutex
	queued   []*db.AnalysisRun
	finals   map[uuid.UUID]string
	claimErr error
	finalErr error
	requeued int
}

func newFakeRunStore(runs ...*db.AnalysisRun) *fakeRunStore {
	return &fakeRunStore{queued: runs, finals: make(map[uuid.UUID]string)}
}

func (s *fakeRunStore) ClaimNextQueued(context.Context) (*db.AnalysisRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return nil, s.claimErr
	}
	if len(s.queued) == 0 {
		return nil, nil
	}
	run := s.queued[0]
	s.queued = s.queued[1:]
	now := time.Now().UTC()
	run.Status = db.RunStatusRunning
	run.StartedAt = &now
	return run, nil
}

func (s *fakeRunStore) FinalizeRun(_ context.Context, runID uuid.UUID, status string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalErr != nil {
		return s.finalErr
	}
	s.finals[runID] = status
	return nil
}

func (s *fakeRunStore) RequeueStuck(context.Context, time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requeued++
	return 0, nil
}

// fakeResultStore records upserts keyed by (run, section)
type fakeResultStore struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]map[string]json.RawMessage
	failAfter map[string]error // section name -> upsert error
}

func newFakeResultStore() *fakeResultStore {
	return &fakeResultStore{
		rows:      make(map[uuid.UUID]map[string]json.RawMessage),
		failAfter: make(map[string]error),
	}
}

func (s *fakeResultStore) UpsertResult(_ context.Context, runID uuid.UUID, section string, content json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failAfter[section]; err != nil {
		return err
	}
	if s.rows[runID] == nil {
		s.rows[runID] = make(map[string]json.RawMessage)
	}
	s.rows[runID][section] = content
	return nil
}

// fakeComputer records invocation order and fails configured sections
type fakeComputer struct {
	mu       sync.Mutex
	order    []string
	failures map[string]error
}

func newFakeComputer() *fakeComputer {
	return &fakeComputer{failures: make(map[string]error)}
}

func (c *fakeComputer) ComputeSection(_ context.Context, _ uuid.UUID, _ *uuid.UUID, section string) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = append(c.order, section)
	if err := c.failures[section]; err != nil {
		return nil, err
	}
	return json.RawMessage(`{"section": "` + section + `"}`), nil
}

func queuedRun() *db.AnalysisRun {
	return &db.AnalysisRun{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		JobID:     uuid.New(),
		Status:    db.RunStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
}

func TestRunOnce_EmptyQueue(t *testing.T) {
	runs := newFakeRunStore()
	results := newFakeResultStore()
	computer := newFakeComputer()
	w := New(runs, results, computer, Config{})

	claimed, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Empty(t, computer.order)
	assert.Empty(t, results.rows)
	assert.Empty(t, runs.finals)
}

func TestRunOnce_AllSectionsSucceed(t *testing.T) {
	run := queuedRun()
	runs := newFakeRunStore(run)
	results := newFakeResultStore()
	computer := newFakeComputer()
	w := New(runs, results, computer, Config{})

	claimed, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, claimed)

	// Sections computed exactly in the fixed order
	assert.Equal(t, analysis.Sections, computer.order)

	// One result row per section
	assert.Len(t, results.rows[run.ID], len(analysis.Sections))

	// A clean run completes
	assert.Equal(t, db.RunStatusCompleted, runs.finals[run.ID])
}

func TestRunOnce_PartialFailureContinues(t *testing.T) {
	run := queuedRun()
	runs := newFakeRunStore(run)
	results := newFakeResultStore()
	computer := newFakeComputer()
	computer.failures[analysis.SectionGaps] = errors.New("parse error: truncated output")
	w := New(runs, results, computer, Config{})

	claimed, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, claimed)

	// All six sections are still attempted, in order
	assert.Equal(t, analysis.Sections, computer.order)

	// Five rows persisted, gaps absent
	rows := results.rows[run.ID]
	assert.Len(t, rows, 5)
	_, hasGaps := rows[analysis.SectionGaps]
	assert.False(t, hasGaps)

	// Any section failure makes the run failed
	assert.Equal(t, db.RunStatusFailed, runs.finals[run.ID])
}

func TestRunOnce_UpsertFailureMarksRunFailed(t *testing.T) {
	run := queuedRun()
	runs := newFakeRunStore(run)
	results := newFakeResultStore()
	results.failAfter[analysis.SectionSkills] = errors.New("storage unavailable")
	computer := newFakeComputer()
	w := New(runs, results, computer, Config{})

	_, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	// Remaining sections still attempted and persisted
	assert.Equal(t, analysis.Sections, computer.order)
	assert.Len(t, results.rows[run.ID], 5)
	assert.Equal(t, db.RunStatusFailed, runs.finals[run.ID])
}

func TestRunOnce_ClaimErrorSurfaces(t *testing.T) {
	runs := newFakeRunStore()
	runs.claimErr = errors.New("connection refused")
	w := New(runs, newFakeResultStore(), newFakeComputer(), Config{})

	claimed, err := w.RunOnce(context.Background())
	assert.Error(t, err)
	assert.False(t, claimed)
}

func TestRunOnce_FinalizeErrorLeavesRunRunning(t *testing.T) {
	run := queuedRun()
	runs := newFakeRunStore(run)
	runs.finalErr = errors.New("connection reset")
	results := newFakeResultStore()
	w := New(runs, results, newFakeComputer(), Config{})

	// Finalize failure is logged, not returned
	claimed, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, claimed)

	assert.Empty(t, runs.finals)
	assert.Equal(t, db.RunStatusRunning, run.Status)
}

func TestRunOnce_AllSectionsFail(t *testing.T) {
	run := queuedRun()
	runs := newFakeRunStore(run)
	results := newFakeResultStore()
	computer := newFakeComputer()
	for _, section := range analysis.Sections {
		computer.failures[section] = errors.New("model unreachable")
	}
	w := New(runs, results, computer, Config{})

	_, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Empty(t, results.rows)
	assert.Equal(t, db.RunStatusFailed, runs.finals[run.ID])
}

func TestRunOnce_RequeueStuckOnlyWhenConfigured(t *testing.T) {
	runs := newFakeRunStore()

	w := New(runs, newFakeResultStore(), newFakeComputer(), Config{})
	_, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, runs.requeued)

	w = New(runs, newFakeResultStore(), newFakeComputer(), Config{MaxRunningAge: time.Minute})
	_, err = w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, runs.requeued)
}

func TestRunN_DrainsQueue(t *testing.T) {
	first, second := queuedRun(), queuedRun()
	runs := newFakeRunStore(first, second)
	results := newFakeResultStore()
	w := New(runs, results, newFakeComputer(), Config{PollInterval: time.Millisecond})

	err := w.RunN(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, db.RunStatusCompleted, runs.finals[first.ID])
	assert.Equal(t, db.RunStatusCompleted, runs.finals[second.ID])
	assert.Len(t, runs.finals, 2)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	runs := newFakeRunStore()
	w := New(runs, newFakeResultStore(), newFakeComputer(), Config{PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestNew_DefaultPollInterval(t *testing.T) {
	w := New(newFakeRunStore(), newFakeResultStore(), newFakeComputer(), Config{})
	assert.Equal(t, DefaultPollInterval, w.cfg.PollInterval)
}
