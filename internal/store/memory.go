package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"OilTracker/internal/model"
)

// MemoryStore keeps everything in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	grades    map[int]model.Grade
	market    []model.MarketData // insertion order
	fixings   []model.Fixing
	snapshots []model.ScoreSnapshot
	vessels   []model.Vessel
	knowledge []model.KnowledgeItem
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{grades: make(map[int]model.Grade)}
}

func (m *MemoryStore) ListGrades(_ context.Context) ([]model.Grade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Grade, 0, len(m.grades))
	for _, g := range m.grades {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetGrade(_ context.Context, id int) (*model.Grade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.grades[id]
	if !ok {
		return nil, fmt.Errorf("grade %d: %w", id, ErrNotFound)
	}
	return &g, nil
}

// CreateGrade assigns the next free ID when g.ID is zero.
func (m *MemoryStore) CreateGrade(_ context.Context, g *model.Grade) error {
	if err := check(g); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID == 0 {
		for id := range m.grades {
			if id > g.ID {
				g.ID = id
			}
		}
		g.ID++
	} else if _, exists := m.grades[g.ID]; exists {
		return fmt.Errorf("grade %d: %w", g.ID, ErrDuplicate)
	}
	m.grades[g.ID] = *g
	return nil
}

func (m *MemoryStore) ListMarketData(_ context.Context) ([]model.MarketData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.MarketData, len(m.market))
	copy(out, m.market)
	sortByDate(out)
	return out, nil
}

func (m *MemoryStore) MarketDataByGrade(_ context.Context, gradeID int) ([]model.MarketData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.MarketData
	for _, md := range m.market {
		if md.GradeID == gradeID {
			out = append(out, md)
		}
	}
	sortByDate(out)
	return out, nil
}

// AddMarketData stores md under a fresh ID and copies the grade name from the grade.
func (m *MemoryStore) AddMarketData(_ context.Context, md *model.MarketData) error {
	if err := check(md); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.grades[md.GradeID]
	if !ok {
		return fmt.Errorf("grade %d: %w", md.GradeID, ErrNotFound)
	}
	md.ID = uuid.New().String()
	md.GradeName = g.Name
	m.market = append(m.market, *md)
	return nil
}

func (m *MemoryStore) ListFixings(_ context.Context) ([]model.Fixing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Fixing, len(m.fixings))
	copy(out, m.fixings)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (m *MemoryStore) GetFixing(_ context.Context, id string) (*model.Fixing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.fixings {
		if f.ID == id {
			return &f, nil
		}
	}
	return nil, fmt.Errorf("fixing %s: %w", id, ErrNotFound)
}

func (m *MemoryStore) CreateFixing(_ context.Context, f *model.Fixing) error {
	if err := check(f); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f.ID = uuid.New().String()
	m.fixings = append(m.fixings, *f)
	return nil
}

func (m *MemoryStore) RecordScore(_ context.Context, snap *model.ScoreSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	m.snapshots = append(m.snapshots, *snap)
	return nil
}

// ScoreHistory returns up to limit snapshots of a grade, newest first. limit <= 0 means all.
func (m *MemoryStore) ScoreHistory(_ context.Context, gradeID, limit int) ([]model.ScoreSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.ScoreSnapshot
	for i := len(m.snapshots) - 1; i >= 0; i-- {
		if m.snapshots[i].GradeID == gradeID {
			out = append(out, m.snapshots[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt > out[j].RecordedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) ListVessels(_ context.Context) ([]model.Vessel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Vessel, len(m.vessels))
	copy(out, m.vessels)
	return out, nil
}

func (m *MemoryStore) CreateVessel(_ context.Context, v *model.Vessel) error {
	if err := check(v); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = uuid.New().String()
	m.vessels = append(m.vessels, *v)
	return nil
}

func (m *MemoryStore) ListKnowledge(_ context.Context, query string) ([]model.KnowledgeItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.KnowledgeItem
	for i := len(m.knowledge) - 1; i >= 0; i-- {
		if m.knowledge[i].Matches(query) {
			out = append(out, m.knowledge[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt > out[j].UpdatedAt })
	return out, nil
}

// CreateKnowledge stamps UpdatedAt with the current time when it is unset.
func (m *MemoryStore) CreateKnowledge(_ context.Context, k *model.KnowledgeItem) error {
	if err := check(k); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k.ID = uuid.New().String()
	if k.UpdatedAt == 0 {
		k.UpdatedAt = time.Now().UnixMilli()
	}
	if k.Tags == nil {
		k.Tags = model.Tags{}
	}
	m.knowledge = append(m.knowledge, *k)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func sortByDate(items []model.MarketData) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Date < items[j].Date })
}
