package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"OilTracker/internal/model"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when creating a record whose ID is taken.
	ErrDuplicate = errors.New("duplicate id")
	// ErrInvalid is returned when a record fails validation.
	ErrInvalid = errors.New("invalid record")
)

// Store is the persistence boundary of the service. Market data comes back
// sorted ascending by date, fixings descending by date and score history
// newest first.
type Store interface {
	ListGrades(ctx context.Context) ([]model.Grade, error)
	GetGrade(ctx context.Context, id int) (*model.Grade, error)
	CreateGrade(ctx context.Context, g *model.Grade) error

	ListMarketData(ctx context.Context) ([]model.MarketData, error)
	MarketDataByGrade(ctx context.Context, gradeID int) ([]model.MarketData, error)
	AddMarketData(ctx context.Context, md *model.MarketData) error

	ListFixings(ctx context.Context) ([]model.Fixing, error)
	GetFixing(ctx context.Context, id string) (*model.Fixing, error)
	CreateFixing(ctx context.Context, f *model.Fixing) error

	RecordScore(ctx context.Context, snap *model.ScoreSnapshot) error
	ScoreHistory(ctx context.Context, gradeID, limit int) ([]model.ScoreSnapshot, error)

	ListVessels(ctx context.Context) ([]model.Vessel, error)
	CreateVessel(ctx context.Context, v *model.Vessel) error

	// ListKnowledge returns the items matching query, most recently updated first.
	ListKnowledge(ctx context.Context, query string) ([]model.KnowledgeItem, error)
	CreateKnowledge(ctx context.Context, k *model.KnowledgeItem) error

	Close() error
}

// Open returns the backend for driver: "memory", "sqlite" or "postgres".
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite", "postgres":
		return OpenSQL(driver, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// EnsureVessel registers a planned tanker under name unless a vessel of
// that name is already tracked. An empty name is a no-op.
func EnsureVessel(ctx context.Context, st Store, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	vessels, err := st.ListVessels(ctx)
	if err != nil {
		return err
	}
	for _, v := range vessels {
		if strings.EqualFold(v.Name, name) {
			return nil
		}
	}
	return st.CreateVessel(ctx, &model.Vessel{Name: name, Type: "Tanker", DWT: 40000, Status: "Planned"})
}

// check runs the model validation rules and wraps failures in ErrInvalid.
func check(v interface{}) error {
	if err := model.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
