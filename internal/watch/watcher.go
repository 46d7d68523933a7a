package watch

import (
	"sort"
	"sync"

	"github.com/phuslu/log"

	"OilTracker/internal/model"
)

// recentLimit bounds the score trail kept per grade.
const recentLimit = 12

// Watcher follows each grade's bucket across scoring runs.
type Watcher struct {
	mu       sync.Mutex
	state    *model.WatchState
	filePath string
}

// NewWatcher creates a Watcher, loading state from filePath when it exists.
func NewWatcher(filePath string) (*Watcher, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	return &Watcher{state: state, filePath: filePath}, nil
}

// Observe records a fresh score for a grade observed on day (YYYY-MM-DD).
// It returns a Transition when the grade changed bucket since the previous
// observation; the first observation of a grade is never a transition.
func (w *Watcher) Observe(gs model.GradeScore, day string) (*model.Transition, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var tr *model.Transition
	gw, seen := w.state.Grades[gs.GradeID]
	switch {
	case !seen:
		gw = &model.GradeWatch{Bucket: gs.Bucket, BucketSince: day}
		w.state.Grades[gs.GradeID] = gw
	case gw.Bucket != gs.Bucket:
		tr = &model.Transition{
			GradeID:   gs.GradeID,
			GradeName: gs.GradeName,
			From:      gw.Bucket,
			To:        gs.Bucket,
			Score:     gs.Score,
		}
		gw.Bucket = gs.Bucket
		gw.BucketSince = day
		gw.ConsecutiveRuns = 0
	}

	gw.GradeID = gs.GradeID
	gw.GradeName = gs.GradeName
	gw.Score = gs.Score
	gw.ConsecutiveRuns++
	gw.RecentScores = append(gw.RecentScores, gs.Score)
	if len(gw.RecentScores) > recentLimit {
		gw.RecentScores = gw.RecentScores[len(gw.RecentScores)-recentLimit:]
	}

	if tr != nil {
		log.Info().Int("grade_id", tr.GradeID).Str("from", string(tr.From)).
			Str("to", string(tr.To)).Int("score", tr.Score).Msg("bucket transition")
	}
	return tr, SaveState(w.filePath, w.state)
}

// Get returns a copy of the watch entry of one grade.
func (w *Watcher) Get(gradeID int) (model.GradeWatch, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	gw, ok := w.state.Grades[gradeID]
	if !ok {
		return model.GradeWatch{}, false
	}
	return copyEntry(gradeID, gw), true
}

// List returns copies of every watch entry ordered by grade ID.
func (w *Watcher) List() []model.GradeWatch {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]model.GradeWatch, 0, len(w.state.Grades))
	for id, gw := range w.state.Grades {
		out = append(out, copyEntry(id, gw))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GradeID < out[j].GradeID })
	return out
}

func copyEntry(gradeID int, gw *model.GradeWatch) model.GradeWatch {
	cp := *gw
	cp.GradeID = gradeID
	cp.RecentScores = append([]int(nil), gw.RecentScores...)
	return cp
}
