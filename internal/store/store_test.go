package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OilTracker/internal/model"
)

// backends returns a fresh instance of every Store implementation.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	sqlStore, err := OpenSQL("sqlite", filepath.Join(t.TempDir(), "oiltracker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlStore,
	}
}

func TestStore_Grades(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			a := model.Grade{Name: "RBD Palm Oil", Region: "Malaysia"}
			b := model.Grade{Name: "RBD PKO"}
			require.NoError(t, st.CreateGrade(ctx, &a))
			require.NoError(t, st.CreateGrade(ctx, &b))
			assert.Equal(t, 1, a.ID)
			assert.Equal(t, 2, b.ID)

			explicit := model.Grade{ID: 10, Name: "CDSBO"}
			require.NoError(t, st.CreateGrade(ctx, &explicit))
			dup := model.Grade{ID: 10, Name: "other"}
			assert.ErrorIs(t, st.CreateGrade(ctx, &dup), ErrDuplicate)

			next := model.Grade{Name: "RBD CNO"}
			require.NoError(t, st.CreateGrade(ctx, &next))
			assert.Equal(t, 11, next.ID)

			got, err := st.GetGrade(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, a, *got)

			_, err = st.GetGrade(ctx, 99)
			assert.ErrorIs(t, err, ErrNotFound)

			all, err := st.ListGrades(ctx)
			require.NoError(t, err)
			require.Len(t, all, 4)
			assert.Equal(t, []int{1, 2, 10, 11}, []int{all[0].ID, all[1].ID, all[2].ID, all[3].ID})
		})
	}
}

func TestStore_GradeRejects(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			negative := model.Grade{ID: -3, Name: "Ghost"}
			assert.ErrorIs(t, st.CreateGrade(ctx, &negative), ErrInvalid)

			blank := model.Grade{Name: "   "}
			err := st.CreateGrade(ctx, &blank)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.ErrorContains(t, err, "name is required")

			all, err := st.ListGrades(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestStore_MarketData(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			g := model.Grade{Name: "RBD Palm Oil"}
			require.NoError(t, st.CreateGrade(ctx, &g))
			other := model.Grade{Name: "CDSBO"}
			require.NoError(t, st.CreateGrade(ctx, &other))

			for _, d := range []struct {
				grade int
				date  string
				price string
			}{
				{g.ID, "2025-03-03", "912.5"},
				{g.ID, "2025-03-01", "905"},
				{other.ID, "2025-03-01", "880.25"},
				{g.ID, "2025-03-02", "910.75"},
			} {
				md := model.MarketData{GradeID: d.grade, Date: d.date, PriceUSD: decimal.RequireFromString(d.price), Volume: "1000 MT"}
				require.NoError(t, st.AddMarketData(ctx, &md))
				assert.NotEmpty(t, md.ID)
			}

			items, err := st.MarketDataByGrade(ctx, g.ID)
			require.NoError(t, err)
			require.Len(t, items, 3)
			assert.Equal(t, "2025-03-01", items[0].Date)
			assert.Equal(t, "2025-03-02", items[1].Date)
			assert.Equal(t, "2025-03-03", items[2].Date)
			assert.Equal(t, "RBD Palm Oil", items[0].GradeName)
			assert.True(t, items[2].PriceUSD.Equal(decimal.RequireFromString("912.5")), "got %s", items[2].PriceUSD)
			assert.Equal(t, "1000 MT", items[0].Volume)

			all, err := st.ListMarketData(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 4)
			for i := 1; i < len(all); i++ {
				assert.LessOrEqual(t, all[i-1].Date, all[i].Date)
			}

			none, err := st.MarketDataByGrade(ctx, 42)
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestStore_MarketDataRejects(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			g := model.Grade{Name: "RBD Palm Oil"}
			require.NoError(t, st.CreateGrade(ctx, &g))

			unknown := model.MarketData{GradeID: 7, Date: "2025-03-01", PriceUSD: decimal.NewFromInt(900)}
			assert.ErrorIs(t, st.AddMarketData(ctx, &unknown), ErrNotFound)

			badDate := model.MarketData{GradeID: g.ID, Date: "03/01/2025", PriceUSD: decimal.NewFromInt(900)}
			assert.ErrorIs(t, st.AddMarketData(ctx, &badDate), ErrInvalid)

			zero := model.MarketData{GradeID: g.ID, Date: "2025-03-01"}
			assert.ErrorIs(t, st.AddMarketData(ctx, &zero), ErrInvalid)

			items, err := st.MarketDataByGrade(ctx, g.ID)
			require.NoError(t, err)
			assert.Empty(t, items)
		})
	}
}

func TestStore_Fixings(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			dates := []string{"2025-02-10", "2025-02-14", "2025-02-12"}
			ids := make([]string, len(dates))
			for i, d := range dates {
				f := model.Fixing{
					Date: d, Route: "MAL → TUN", Grade: "RBD Palm Oil", Volume: "5,000 MT",
					PriceUSD: decimal.NewFromInt(980), Counterparty: "Wilmar", Vessel: "Pacific Dawn",
				}
				require.NoError(t, st.CreateFixing(ctx, &f))
				ids[i] = f.ID
			}

			list, err := st.ListFixings(ctx)
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, "2025-02-14", list[0].Date)
			assert.Equal(t, "2025-02-12", list[1].Date)
			assert.Equal(t, "2025-02-10", list[2].Date)

			got, err := st.GetFixing(ctx, ids[0])
			require.NoError(t, err)
			assert.Equal(t, "Wilmar", got.Counterparty)
			assert.True(t, got.PriceUSD.Equal(decimal.NewFromInt(980)))

			_, err = st.GetFixing(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			bad := model.Fixing{Date: "yesterday"}
			assert.ErrorIs(t, st.CreateFixing(ctx, &bad), ErrInvalid)

			negative := model.Fixing{
				Date: "2025-02-15", Route: "MAL → TUN", Grade: "RBD Palm Oil", Volume: "5,000 MT",
				PriceUSD: decimal.NewFromInt(-980), Counterparty: "Wilmar",
			}
			assert.ErrorIs(t, st.CreateFixing(ctx, &negative), ErrInvalid)

			blankRoute := negative
			blankRoute.PriceUSD = decimal.NewFromInt(980)
			blankRoute.Route = "   "
			assert.ErrorIs(t, st.CreateFixing(ctx, &blankRoute), ErrInvalid)

			list, err = st.ListFixings(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 3)
		})
	}
}

func TestStore_Vessels(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			first := model.Vessel{Name: "Pacific Dawn", Type: "Tanker", DWT: 45000, Status: "Laden",
				ETA: "2025-09-02", Origin: "Port Klang", Destination: "Rades"}
			second := model.Vessel{Name: "Eastern Star", Type: "Tanker", DWT: 38000, Status: "Ballast"}
			require.NoError(t, st.CreateVessel(ctx, &first))
			require.NoError(t, st.CreateVessel(ctx, &second))
			assert.NotEmpty(t, first.ID)

			noDWT := model.Vessel{Name: "Ghost", Type: "Tanker", Status: "Laden"}
			assert.ErrorIs(t, st.CreateVessel(ctx, &noDWT), ErrInvalid)
			badETA := model.Vessel{Name: "Ghost", Type: "Tanker", DWT: 1000, Status: "Laden", ETA: "next week"}
			assert.ErrorIs(t, st.CreateVessel(ctx, &badETA), ErrInvalid)

			list, err := st.ListVessels(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, first, list[0])
			assert.Equal(t, "Eastern Star", list[1].Name)

			require.NoError(t, EnsureVessel(ctx, st, "pacific dawn"))
			require.NoError(t, EnsureVessel(ctx, st, ""))
			require.NoError(t, EnsureVessel(ctx, st, "Sea Falcon"))
			list, err = st.ListVessels(ctx)
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, "Sea Falcon", list[2].Name)
			assert.Equal(t, "Planned", list[2].Status)
			assert.Equal(t, 40000, list[2].DWT)
		})
	}
}

func TestStore_Knowledge(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			items := []model.KnowledgeItem{
				{Title: "Spec RBD Palm Oil", Tags: model.Tags{"spec", "quality"}, Excerpt: "FFA < 0.1%", UpdatedAt: 1000},
				{Title: "Contract Template (CIF)", Tags: model.Tags{"contract", "legal"}, Content: "Clause set for CIF deals.", UpdatedAt: 3000},
				{Title: "Ops Checklist: Discharge Rades", Tags: model.Tags{"ops", "port"}, UpdatedAt: 2000},
			}
			for i := range items {
				require.NoError(t, st.CreateKnowledge(ctx, &items[i]))
				assert.NotEmpty(t, items[i].ID)
			}

			untitled := model.KnowledgeItem{Title: "  "}
			assert.ErrorIs(t, st.CreateKnowledge(ctx, &untitled), ErrInvalid)

			all, err := st.ListKnowledge(ctx, "")
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, []string{"Contract Template (CIF)", "Ops Checklist: Discharge Rades", "Spec RBD Palm Oil"},
				[]string{all[0].Title, all[1].Title, all[2].Title})
			assert.Equal(t, model.Tags{"contract", "legal"}, all[0].Tags)

			byTag, err := st.ListKnowledge(ctx, "PORT")
			require.NoError(t, err)
			require.Len(t, byTag, 1)
			assert.Equal(t, items[2].ID, byTag[0].ID)

			byContent, err := st.ListKnowledge(ctx, "clause")
			require.NoError(t, err)
			require.Len(t, byContent, 1)
			assert.Equal(t, "Contract Template (CIF)", byContent[0].Title)

			literal, err := st.ListKnowledge(ctx, "0.1%")
			require.NoError(t, err)
			require.Len(t, literal, 1)
			assert.Equal(t, "Spec RBD Palm Oil", literal[0].Title)

			none, err := st.ListKnowledge(ctx, "%_")
			require.NoError(t, err)
			assert.Empty(t, none)

			stamped := model.KnowledgeItem{Title: "Basis sheet"}
			require.NoError(t, st.CreateKnowledge(ctx, &stamped))
			assert.NotZero(t, stamped.UpdatedAt)
			assert.Equal(t, model.Tags{}, stamped.Tags)
		})
	}
}

func TestStore_ScoreHistory(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, snap := range []model.ScoreSnapshot{
				{GradeID: 1, GradeName: "RBD Palm Oil", AsOf: "2025-03-01", Score: 55, Bucket: model.BucketWatch, RecordedAt: 100},
				{GradeID: 1, GradeName: "RBD Palm Oil", AsOf: "2025-03-03", Score: 85, Bucket: model.BucketStrongBuy, RecordedAt: 300,
					Indicators: model.Indicators{PToday: 880, MA20: 910.5, Volatility: 0.012}},
				{GradeID: 2, GradeName: "CDSBO", AsOf: "2025-03-03", Score: 20, Bucket: model.BucketAvoid, RecordedAt: 250},
				{GradeID: 1, GradeName: "RBD Palm Oil", AsOf: "2025-03-02", Score: 65, Bucket: model.BucketBuy, RecordedAt: 200},
			} {
				s := snap
				require.NoError(t, st.RecordScore(ctx, &s))
				assert.NotEmpty(t, s.ID)
			}

			hist, err := st.ScoreHistory(ctx, 1, 0)
			require.NoError(t, err)
			require.Len(t, hist, 3)
			assert.Equal(t, []int64{300, 200, 100}, []int64{hist[0].RecordedAt, hist[1].RecordedAt, hist[2].RecordedAt})
			assert.Equal(t, model.BucketStrongBuy, hist[0].Bucket)
			assert.InDelta(t, 910.5, hist[0].MA20, 1e-9)
			assert.InDelta(t, 0.012, hist[0].Volatility, 1e-12)

			limited, err := st.ScoreHistory(ctx, 1, 2)
			require.NoError(t, err)
			require.Len(t, limited, 2)
			assert.Equal(t, 85, limited[0].Score)
			assert.Equal(t, 65, limited[1].Score)

			none, err := st.ScoreHistory(ctx, 3, 10)
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC)
	opts := SeedOptions{Days: 30, Now: now, RandomSeed: 42}

	st := NewMemoryStore()
	require.NoError(t, Seed(ctx, st, opts))

	grades, err := st.ListGrades(ctx)
	require.NoError(t, err)
	require.Len(t, grades, 7)
	assert.Equal(t, "RBD Palm Oil", grades[0].Name)
	assert.Equal(t, "2.4+", grades[0].DOBI)
	assert.Equal(t, "CDSBO", grades[6].Name)

	for _, g := range grades {
		items, err := st.MarketDataByGrade(ctx, g.ID)
		require.NoError(t, err)
		require.Len(t, items, 30)
		assert.Equal(t, "2025-02-14", items[0].Date)
		assert.Equal(t, "2025-03-15", items[29].Date)
		base := 900 + float64(g.ID%5)*50
		for _, it := range items {
			p := it.PriceUSD.InexactFloat64()
			assert.InDelta(t, base, p, 27.01, "grade %d on %s", g.ID, it.Date)
		}
	}

	fixings, err := st.ListFixings(ctx)
	require.NoError(t, err)
	require.Len(t, fixings, 3)
	assert.Equal(t, "Wilmar", fixings[0].Counterparty)
	assert.Equal(t, "2025-03-15", fixings[0].Date)
	assert.Equal(t, "2025-03-12", fixings[2].Date)

	vessels, err := st.ListVessels(ctx)
	require.NoError(t, err)
	require.Len(t, vessels, 3)
	assert.Equal(t, "Pacific Dawn", vessels[0].Name)
	assert.Equal(t, "At anchor", vessels[2].Status)

	knowledge, err := st.ListKnowledge(ctx, "")
	require.NoError(t, err)
	require.Len(t, knowledge, 3)
	assert.Equal(t, now.UnixMilli(), knowledge[0].UpdatedAt)
	spec, err := st.ListKnowledge(ctx, "dobi")
	require.NoError(t, err)
	require.Len(t, spec, 1)
	assert.Equal(t, "Spec RBD Palm Oil", spec[0].Title)

	// Populated stores are left alone.
	require.NoError(t, Seed(ctx, st, opts))
	grades, err = st.ListGrades(ctx)
	require.NoError(t, err)
	assert.Len(t, grades, 7)
}

func TestSeed_Deterministic(t *testing.T) {
	ctx := context.Background()
	opts := SeedOptions{Days: 10, Now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), RandomSeed: 7}

	a, b := NewMemoryStore(), NewMemoryStore()
	require.NoError(t, Seed(ctx, a, opts))
	require.NoError(t, Seed(ctx, b, opts))

	for id := 1; id <= 7; id++ {
		left, err := a.MarketDataByGrade(ctx, id)
		require.NoError(t, err)
		right, err := b.MarketDataByGrade(ctx, id)
		require.NoError(t, err)
		require.Len(t, left, 10)
		for i := range left {
			assert.True(t, left[i].PriceUSD.Equal(right[i].PriceUSD))
			assert.Equal(t, left[i].Volume, right[i].Volume)
		}
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("mongo", "")
	assert.Error(t, err)

	st, err := Open("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, st)
}
