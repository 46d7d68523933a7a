package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OilTracker/internal/analytics"
	"OilTracker/internal/model"
	"OilTracker/internal/store"
	"OilTracker/internal/watch"
)

type captureNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (c *captureNotifier) Send(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, text)
	return nil
}

func (c *captureNotifier) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

var clock = time.Date(2025, 3, 21, 8, 0, 0, 0, time.UTC)

func addPrice(t *testing.T, st store.Store, gradeID int, date string, price int64) {
	t.Helper()
	md := model.MarketData{GradeID: gradeID, Date: date, PriceUSD: decimal.NewFromInt(price)}
	require.NoError(t, st.AddMarketData(context.Background(), &md))
}

// newTestScheduler builds a scheduler over two grades: grade 1 has twenty
// flat days at 1000, grade 2 has no prices.
func newTestScheduler(t *testing.T) (*Scheduler, store.Store, *captureNotifier) {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()
	for _, name := range []string{"RBD Palm Oil", "CDSBO"} {
		g := model.Grade{Name: name}
		require.NoError(t, st.CreateGrade(ctx, &g))
	}
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		addPrice(t, st, 1, start.AddDate(0, 0, i).Format(model.DateLayout), 1000)
	}

	w, err := watch.NewWatcher("")
	require.NoError(t, err)
	n := &captureNotifier{}
	s := NewScheduler(ctx, analytics.NewService(st), st, w, n)
	s.now = func() time.Time { return clock }
	return s, st, n
}

func TestRegisterAll(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	require.NoError(t, s.RegisterAll("0 0 18 * * *", "0 30 7 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 2)

	s2, _, _ := newTestScheduler(t)
	assert.Error(t, s2.RegisterAll("every day", "0 30 7 * * *"))
}

func TestScoreTask_RecordsSnapshotsAndAlertsOnTransition(t *testing.T) {
	s, st, n := newTestScheduler(t)
	ctx := context.Background()

	s.RunScoreNow()
	hist, err := st.ScoreHistory(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, 70, hist[0].Score)
	assert.Equal(t, model.BucketBuy, hist[0].Bucket)
	assert.Equal(t, "2025-03-20", hist[0].AsOf)
	assert.Equal(t, clock.Unix(), hist[0].RecordedAt)

	empty, err := st.ScoreHistory(ctx, 2, 0)
	require.NoError(t, err)
	assert.Empty(t, empty, "grades without prices are skipped")
	assert.Empty(t, n.messages(), "first observation does not alert")

	// A jump above the moving average drops the grade to watch.
	addPrice(t, st, 1, "2025-03-21", 1100)
	s.RunScoreNow()

	hist, err = st.ScoreHistory(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, 50, hist[0].Score)
	assert.Equal(t, model.BucketWatch, hist[0].Bucket)

	msgs := n.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "RBD Palm Oil")
	assert.Contains(t, msgs[0], "BUY → 🟡 WATCH")

	gw, ok := s.Watch.Get(1)
	require.True(t, ok)
	assert.Equal(t, "2025-03-21", gw.BucketSince)
	assert.Equal(t, []int{70, 50}, gw.RecentScores)
}

func TestDigestTask(t *testing.T) {
	s, _, n := newTestScheduler(t)
	s.digestTask()

	msgs := n.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "2025-03-21")
	assert.Contains(t, msgs[0], "<b>RBD Palm Oil</b>: 70/100")
	assert.NotContains(t, msgs[0], "CDSBO")
}

func TestHandleCommand(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	s.RunScoreNow()
	ctx := context.Background()

	tests := []struct {
		command string
		want    string
	}{
		{"/scores", "<b>RBD Palm Oil</b>: 70/100"},
		{"/scores@OilTrackerBot", "buying scores"},
		{"/grade 1", "Score: <b>70/100</b>"},
		{"/grade 1", "👀 🟩 BUY since 2025-03-20 (1 runs) | recent: 70"},
		{"/watch", "<b>RBD Palm Oil</b> (#1): 70/100"},
		{"/watch@OilTrackerBot", "recent: 70"},
		{"/grade 2", "No data for grade 2."},
		{"/grade", "Usage: /grade"},
		{"/grade abc", "Invalid grade id"},
		{"/grade -3", "Invalid grade id"},
		{"/history 1", "<b>RBD Palm Oil</b> score history"},
		{"/history 2", "No snapshots recorded yet."},
		{"/history 9", "Grade 9 not found."},
		{"hello", "Commands:"},
		{"", "Commands:"},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			assert.Contains(t, s.HandleCommand(ctx, tt.command), tt.want)
		})
	}
}

func TestHandleCommand_WatchBeforeFirstRun(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	ctx := context.Background()

	assert.Contains(t, s.HandleCommand(ctx, "/watch"), "No scoring runs observed yet.")
	assert.NotContains(t, s.HandleCommand(ctx, "/grade 1"), "👀")
}
