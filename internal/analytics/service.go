package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phuslu/log"

	"OilTracker/internal/calculator"
	"OilTracker/internal/model"
	"OilTracker/internal/strategy"
)

// ErrNoData is returned when a grade has no price history.
var ErrNoData = errors.New("no data for grade")

// SeriesSource supplies grades and their price history sorted ascending by date.
type SeriesSource interface {
	ListGrades(ctx context.Context) ([]model.Grade, error)
	MarketDataByGrade(ctx context.Context, gradeID int) ([]model.MarketData, error)
}

// GetIndicatorsAndScore runs the full scoring pipeline on one series.
func GetIndicatorsAndScore(series []model.PricePoint) model.ScoreResult {
	return strategy.ComputeBuyingScore(calculator.ComputeIndicators(series))
}

// GetInterpretation renders the interpretation notes for computed indicators.
func GetInterpretation(ind model.Indicators) model.InterpretationNotes {
	return strategy.InterpretIndicators(ind)
}

// Service evaluates grades from a SeriesSource.
type Service struct {
	Source SeriesSource
}

// NewService creates a new Service.
func NewService(src SeriesSource) *Service {
	return &Service{Source: src}
}

// ScoreGrade computes the buying score of one grade.
func (s *Service) ScoreGrade(ctx context.Context, gradeID int) (*model.GradeScore, error) {
	items, err := s.history(ctx, gradeID)
	if err != nil {
		return nil, err
	}
	return &model.GradeScore{
		GradeID:     gradeID,
		GradeName:   items[0].GradeName,
		ScoreResult: GetIndicatorsAndScore(model.ToSeries(items)),
	}, nil
}

// InterpretGrade computes indicators and their interpretation for one grade.
func (s *Service) InterpretGrade(ctx context.Context, gradeID int) (*model.GradeInterpretation, error) {
	items, err := s.history(ctx, gradeID)
	if err != nil {
		return nil, err
	}
	ind := calculator.ComputeIndicators(model.ToSeries(items))
	return &model.GradeInterpretation{
		GradeID:    gradeID,
		GradeName:  items[0].GradeName,
		Indicators: ind,
		Notes:      GetInterpretation(ind),
	}, nil
}

// ScoreAll scores every grade that has price history, in grade order.
func (s *Service) ScoreAll(ctx context.Context) ([]model.GradeScore, error) {
	grades, err := s.Source.ListGrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	out := make([]model.GradeScore, 0, len(grades))
	for _, g := range grades {
		items, err := s.Source.MarketDataByGrade(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("market data for grade %d: %w", g.ID, err)
		}
		if len(items) == 0 {
			log.Debug().Int("grade_id", g.ID).Msg("grade has no market data, skipped")
			continue
		}
		out = append(out, model.GradeScore{
			GradeID:     g.ID,
			GradeName:   g.Name,
			ScoreResult: GetIndicatorsAndScore(model.ToSeries(items)),
		})
	}
	return out, nil
}

// Snapshot scores one grade and stamps the result for persistence.
// The ID is left for the store to assign.
func (s *Service) Snapshot(ctx context.Context, gradeID int, now time.Time) (*model.ScoreSnapshot, error) {
	items, err := s.history(ctx, gradeID)
	if err != nil {
		return nil, err
	}
	res := GetIndicatorsAndScore(model.ToSeries(items))
	return &model.ScoreSnapshot{
		GradeID:    gradeID,
		GradeName:  items[0].GradeName,
		AsOf:       items[len(items)-1].Date,
		Score:      res.Score,
		Bucket:     res.Bucket,
		Comment:    res.Comment,
		RecordedAt: now.Unix(),
		Indicators: res.Indicators,
	}, nil
}

func (s *Service) history(ctx context.Context, gradeID int) ([]model.MarketData, error) {
	items, err := s.Source.MarketDataByGrade(ctx, gradeID)
	if err != nil {
		return nil, fmt.Errorf("market data for grade %d: %w", gradeID, err)
	}
	if len(items) == 0 {
		return nil, ErrNoData
	}
	return items, nil
}
