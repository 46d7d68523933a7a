package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/phuslu/log"

	"OilTracker/internal/model"
	"OilTracker/internal/store"
)

// defaultHistoryLimit applies when ?limit is absent.
const defaultHistoryLimit = 30

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteData(w, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListGrades(w http.ResponseWriter, r *http.Request) {
	grades, err := s.store.ListGrades(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	WriteData(w, nonNil(grades))
}

func (s *Server) handleCreateGrade(w http.ResponseWriter, r *http.Request) {
	var g model.Grade
	if !decodeJSON(w, r, &g) {
		return
	}
	g.Name = strings.TrimSpace(g.Name)
	if err := s.store.CreateGrade(r.Context(), &g); err != nil {
		writeStoreError(w, r, err)
		return
	}
	WriteData(w, g)
}

func (s *Server) handleListMarket(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListMarketData(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	WriteData(w, nonNil(items))
}

// handleLatestMarket returns the most recent price of every grade that has one.
func (s *Server) handleLatestMarket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	grades, err := s.store.ListGrades(ctx)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	latest := make([]model.MarketData, 0, len(grades))
	for _, g := range grades {
		items, err := s.store.MarketDataByGrade(ctx, g.ID)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		if len(items) > 0 {
			latest = append(latest, items[len(items)-1])
		}
	}
	WriteData(w, latest)
}

func (s *Server) handleMarketByGrade(w http.ResponseWriter, r *http.Request) {
	id, ok := gradeIDParam(w, r)
	if !ok {
		return
	}
	items, err := s.store.MarketDataByGrade(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	WriteData(w, nonNil(items))
}

func (s *Server) handleAddMarketData(w http.ResponseWriter, r *http.Request) {
	var md model.MarketData
	if !decodeJSON(w, r, &md) {
		return
	}
	if err := s.store.AddMarketData(r.Context(), &md); err != nil {
		writeStoreError(w, r, err)
		return
	}
	WriteData(w, md)
}

func (s *Server) handleScoreAll(w http.ResponseWriter, r *http.Request) {
	scores, err := s.analytics.ScoreAll(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	WriteData(w, scores)
}

func (s *Server) handleScoreGrade(w http.ResponseWriter, r *http.Request) {
	id, ok := gradeIDParam(w, r)
	if !ok {
		return
	}
	res, err := s.analytics.ScoreGrade(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	WriteData(w, res)
}

func (s *Server) handleInterpretGrade(w http.ResponseWriter, r *http.Request) {
	id, ok := gradeIDParam(w, r)
	if !ok {
		return
	}
	res, err := s.analytics.InterpretGrade(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	WriteData(w, res)
}

// handleWatch reports how long each grade has held its bucket across scoring runs.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	WriteData(w, s.watch.List())
}

func (s *Server) handleScoreHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := gradeIDParam(w, r)
	if !ok {
		return
	}
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			WriteError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}
	snaps, err := s.store.ScoreHistory(r.Context(), id, limit)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	WriteData(w, nonNil(snaps))
}

func (s *Server) handleListFixings(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListFixings(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	WriteData(w, nonNil(rows))
}

func (s *Server) handleCreateFixing(w http.ResponseWriter, r *http.Request) {
	var f model.Fixing
	if !decodeJSON(w, r, &f) {
		return
	}
	if err := s.store.CreateFixing(r.Context(), &f); err != nil {
		writeStoreError(w, r, err)
		return
	}
	// The fixing stands even if the vessel could not be registered.
	if err := store.EnsureVessel(r.Context(), s.store, f.Vessel); err != nil {
		log.Warn().Err(err).Str("vessel", f.Vessel).Msg("failed to register fixing vessel")
	}
	WriteData(w, f)
}

func (s *Server) handleListVessels(w http.ResponseWriter, r *http.Request) {
	vessels, err := s.store.ListVessels(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	WriteData(w, nonNil(vessels))
}

func (s *Server) handleCreateVessel(w http.ResponseWriter, r *http.Request) {
	var v model.Vessel
	if !decodeJSON(w, r, &v) {
		return
	}
	if err := s.store.CreateVessel(r.Context(), &v); err != nil {
		writeStoreError(w, r, err)
		return
	}
	WriteData(w, v)
}

func (s *Server) handleListKnowledge(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListKnowledge(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	WriteData(w, nonNil(items))
}

type knowledgeUpload struct {
	Title string     `json:"title" validate:"notblank"`
	Link  string     `json:"link" validate:"notblank"`
	Tags  model.Tags `json:"tags"`
}

// handleUploadKnowledge files a link as a knowledge base entry; the link
// doubles as excerpt and content.
func (s *Server) handleUploadKnowledge(w http.ResponseWriter, r *http.Request) {
	var up knowledgeUpload
	if !decodeJSON(w, r, &up) {
		return
	}
	k := model.KnowledgeItem{
		Title:   strings.TrimSpace(up.Title),
		Link:    up.Link,
		Tags:    up.Tags,
		Excerpt: up.Link,
		Content: up.Link,
	}
	if err := s.store.CreateKnowledge(r.Context(), &k); err != nil {
		writeStoreError(w, r, err)
		return
	}
	WriteData(w, k)
}

var fixingCSVHeader = []string{"Date", "Route", "Grade", "Volume", "Counterparty", "Vessel", "Price", "Currency", "Notes"}

// handleExportFixing serves one fixing as an Excel-friendly CSV with every value quoted.
func (s *Server) handleExportFixing(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	f, err := s.store.GetFixing(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	values := []string{
		f.Date, f.Route, f.Grade, f.Volume, f.Counterparty,
		f.Vessel, f.PriceUSD.String(), f.Currency, f.Notes,
	}
	for i, v := range values {
		values[i] = `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="fixing-%s.csv"`, id))
	fmt.Fprint(w, strings.Join(fixingCSVHeader, ",")+"\n"+strings.Join(values, ","))
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
