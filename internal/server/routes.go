package server

import "net/http"

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)

	// Grades
	mux.HandleFunc("GET /api/grades", s.handleListGrades)
	mux.HandleFunc("POST /api/grades", s.handleCreateGrade)

	// Market data
	mux.HandleFunc("GET /api/market", s.handleListMarket)
	mux.HandleFunc("GET /api/market/latest", s.handleLatestMarket)
	mux.HandleFunc("GET /api/market/by-grade/{id}", s.handleMarketByGrade)
	mux.HandleFunc("POST /api/market", s.handleAddMarketData)

	// Analytics
	mux.HandleFunc("GET /api/analytics/buying-score", s.handleScoreAll)
	mux.HandleFunc("GET /api/analytics/buying-score/{id}", s.handleScoreGrade)
	mux.HandleFunc("GET /api/analytics/interpret/{id}", s.handleInterpretGrade)
	mux.HandleFunc("GET /api/analytics/history/{id}", s.handleScoreHistory)
	mux.HandleFunc("GET /api/analytics/watch", s.handleWatch)

	// Fixings
	mux.HandleFunc("GET /api/fixings", s.handleListFixings)
	mux.HandleFunc("POST /api/fixings", s.handleCreateFixing)
	mux.HandleFunc("GET /api/fixings/{id}/export", s.handleExportFixing)

	// Operations
	mux.HandleFunc("GET /api/vessels", s.handleListVessels)
	mux.HandleFunc("POST /api/vessels", s.handleCreateVessel)
	mux.HandleFunc("GET /api/knowledge", s.handleListKnowledge)
	mux.HandleFunc("POST /api/knowledge/upload", s.handleUploadKnowledge)

	return mux
}
