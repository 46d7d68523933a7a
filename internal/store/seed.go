package store

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/phuslu/log"
	"github.com/shopspring/decimal"

	"OilTracker/internal/model"
)

// SeedOptions controls the synthetic demo data written by Seed.
type SeedOptions struct {
	Days       int       // price history length per grade
	Now        time.Time // last seeded day; zero means time.Now()
	RandomSeed int64     // same seed, same prices
}

var seedGrades = []model.Grade{
	{Name: "RBD Palm Oil", Region: "Malaysia", FFA: "< 0.1%", Moisture: "< 0.1%", IV: "52-56", DOBI: "2.4+"},
	{Name: "RBD Palm Stearin", Region: "Malaysia", FFA: "< 0.1%"},
	{Name: "RBD Palm Olein IV56", Region: "Malaysia", IV: "56"},
	{Name: "Olein IV64", Region: "Malaysia", IV: "64"},
	{Name: "RBD PKO", Region: "Indonesia"},
	{Name: "RBD CNO", Region: "Philippines"},
	{Name: "CDSBO", Region: "USA"},
}

type seedFixing struct {
	daysAgo      int
	route        string
	grade        string
	volume       string
	price        int64
	counterparty string
	vessel       string
}

var seedFixings = []seedFixing{
	{0, "MAL → TUN", "RBD Palm Oil", "5,000 MT", 980, "Wilmar", "Pacific Dawn"},
	{1, "IDN → TUN", "RBD PKO", "3,000 MT", 1210, "Musim Mas", "Eastern Star"},
	{3, "USA → TUN", "CDSBO", "8,000 MT", 890, "Bunge", "Atlantic Pearl"},
}

var seedVessels = []model.Vessel{
	{Name: "Pacific Dawn", Type: "Tanker", DWT: 45000, Status: "Laden", ETA: "2025-09-02", Origin: "Port Klang", Destination: "Rades"},
	{Name: "Eastern Star", Type: "Tanker", DWT: 38000, Status: "Ballast", ETA: "2025-08-28", Origin: "Belawan", Destination: "Rades"},
	{Name: "Atlantic Pearl", Type: "Tanker", DWT: 52000, Status: "At anchor", ETA: "2025-09-10", Origin: "New Orleans", Destination: "Rades"},
}

var seedKnowledge = []model.KnowledgeItem{
	{Title: "Spec RBD Palm Oil", Tags: model.Tags{"spec", "quality"}, Excerpt: "FFA < 0.1%, Moisture < 0.1%, DOBI 2.4+", Content: "Detailed spec for RBD Palm Oil used by DMA."},
	{Title: "Contract Template (CIF)", Tags: model.Tags{"contract", "legal"}, Excerpt: "Standard CIF template for palm products", Content: "Clause set for CIF DMA imports."},
	{Title: "Ops Checklist: Discharge Rades", Tags: model.Tags{"ops", "port"}, Excerpt: "Pre-arrival docs, draft survey, sampling", Content: "Operational checklist for Rades discharge."},
}

// Seed fills an empty store with demo grades, daily prices, vessels,
// fixings and knowledge base entries.
// A store that already holds grades is left untouched.
func Seed(ctx context.Context, st Store, opts SeedOptions) error {
	existing, err := st.ListGrades(ctx)
	if err != nil {
		return fmt.Errorf("list grades: %w", err)
	}
	if len(existing) > 0 {
		log.Info().Int("grades", len(existing)).Msg("store already populated, seed skipped")
		return nil
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(opts.RandomSeed))

	for _, tmpl := range seedGrades {
		g := tmpl
		if err := st.CreateGrade(ctx, &g); err != nil {
			return fmt.Errorf("seed grade %s: %w", g.Name, err)
		}
		for d := 0; d < opts.Days; d++ {
			md := syntheticDay(rng, g.ID, d)
			md.Date = today.AddDate(0, 0, d-(opts.Days-1)).Format(model.DateLayout)
			if err := st.AddMarketData(ctx, &md); err != nil {
				return fmt.Errorf("seed market data for %s: %w", g.Name, err)
			}
		}
	}

	for _, tmpl := range seedVessels {
		v := tmpl
		if err := st.CreateVessel(ctx, &v); err != nil {
			return fmt.Errorf("seed vessel %s: %w", v.Name, err)
		}
	}

	for _, sf := range seedFixings {
		f := model.Fixing{
			Date:         today.AddDate(0, 0, -sf.daysAgo).Format(model.DateLayout),
			Route:        sf.route,
			Grade:        sf.grade,
			Volume:       sf.volume,
			PriceUSD:     decimal.NewFromInt(sf.price),
			Counterparty: sf.counterparty,
			Vessel:       sf.vessel,
			Currency:     "USD",
		}
		if err := st.CreateFixing(ctx, &f); err != nil {
			return fmt.Errorf("seed fixing %s: %w", sf.counterparty, err)
		}
	}

	for _, tmpl := range seedKnowledge {
		k := tmpl
		k.UpdatedAt = now.UnixMilli()
		if err := st.CreateKnowledge(ctx, &k); err != nil {
			return fmt.Errorf("seed knowledge %q: %w", k.Title, err)
		}
	}

	log.Info().Int("grades", len(seedGrades)).Int("days", opts.Days).Msg("store seeded")
	return nil
}

// syntheticDay draws day d of a grade's demo series: a per-grade base level,
// uniform noise of +/-15 and a slow sine swing of amplitude 12.
func syntheticDay(rng *rand.Rand, gradeID, d int) model.MarketData {
	base := 900 + float64(gradeID%5)*50
	noise := (rng.Float64() - 0.5) * 30
	swing := math.Sin(float64(d)/5) * 12

	return model.MarketData{
		GradeID:   gradeID,
		PriceUSD:  decimal.NewFromFloat(base + noise + swing).Round(2),
		USDTND:    decimal.NewFromFloat(3.1 + rng.Float64()*0.4).Round(3),
		Volume:    fmt.Sprintf("%d MT", rng.Intn(2000)+400),
		Change24h: math.Round((rng.Float64()-0.5)*6*10) / 10,
	}
}
