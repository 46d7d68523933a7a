package watch

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OilTracker/internal/model"
)

func score(id, s int, b model.Bucket) model.GradeScore {
	return model.GradeScore{
		GradeID:     id,
		GradeName:   "RBD Palm Oil",
		ScoreResult: model.ScoreResult{Score: s, Bucket: b},
	}
}

func TestWatcher_FirstObservationIsNotATransition(t *testing.T) {
	w, err := NewWatcher("")
	require.NoError(t, err)

	tr, err := w.Observe(score(1, 55, model.BucketWatch), "2025-03-01")
	require.NoError(t, err)
	assert.Nil(t, tr)

	gw, ok := w.Get(1)
	require.True(t, ok)
	assert.Equal(t, model.BucketWatch, gw.Bucket)
	assert.Equal(t, "2025-03-01", gw.BucketSince)
	assert.Equal(t, 1, gw.ConsecutiveRuns)
}

func TestWatcher_Transitions(t *testing.T) {
	w, err := NewWatcher("")
	require.NoError(t, err)

	steps := []struct {
		day    string
		score  int
		bucket model.Bucket
		from   model.Bucket // empty: no transition expected
	}{
		{"2025-03-01", 55, model.BucketWatch, ""},
		{"2025-03-02", 58, model.BucketWatch, ""},
		{"2025-03-03", 70, model.BucketBuy, model.BucketWatch},
		{"2025-03-04", 88, model.BucketStrongBuy, model.BucketBuy},
		{"2025-03-05", 86, model.BucketStrongBuy, ""},
		{"2025-03-06", 40, model.BucketAvoid, model.BucketStrongBuy},
	}
	for _, s := range steps {
		tr, err := w.Observe(score(1, s.score, s.bucket), s.day)
		require.NoError(t, err)
		if s.from == "" {
			assert.Nil(t, tr, s.day)
			continue
		}
		require.NotNil(t, tr, s.day)
		assert.Equal(t, s.from, tr.From)
		assert.Equal(t, s.bucket, tr.To)
		assert.Equal(t, s.score, tr.Score)
	}

	gw, _ := w.Get(1)
	assert.Equal(t, "2025-03-06", gw.BucketSince)
	assert.Equal(t, 1, gw.ConsecutiveRuns)
	assert.Equal(t, []int{55, 58, 70, 88, 86, 40}, gw.RecentScores)
}

func TestWatcher_ConsecutiveRunsAndTrail(t *testing.T) {
	w, err := NewWatcher("")
	require.NoError(t, err)

	for i := 0; i < 15; i++ {
		_, err := w.Observe(score(2, 60+i%3, model.BucketWatch), "2025-03-01")
		require.NoError(t, err)
	}
	gw, _ := w.Get(2)
	assert.Equal(t, 15, gw.ConsecutiveRuns)
	assert.Len(t, gw.RecentScores, recentLimit)
	assert.Equal(t, "2025-03-01", gw.BucketSince)
}

func TestWatcher_PersistsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watch.json")

	w, err := NewWatcher(path)
	require.NoError(t, err)
	_, err = w.Observe(score(3, 70, model.BucketBuy), "2025-03-01")
	require.NoError(t, err)
	_, err = w.Observe(score(1, 30, model.BucketAvoid), "2025-03-01")
	require.NoError(t, err)

	reloaded, err := NewWatcher(path)
	require.NoError(t, err)
	entries := reloaded.List()
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].GradeID)
	assert.Equal(t, 3, entries[1].GradeID)
	assert.Equal(t, model.BucketAvoid, entries[0].Bucket)
	assert.Equal(t, []int{70}, entries[1].RecentScores)

	tr, err := reloaded.Observe(score(3, 50, model.BucketWatch), "2025-03-02")
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.Equal(t, model.BucketBuy, tr.From)
}

func TestLoadState_EmptyAndMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watch.json")
	require.NoError(t, SaveState(path, &model.WatchState{}))

	st, err := LoadState(path)
	require.NoError(t, err)
	assert.NotNil(t, st.Grades)

	_, err = LoadState(filepath.Join(t.TempDir(), "missing.json"))
	assert.NoError(t, err)
}
