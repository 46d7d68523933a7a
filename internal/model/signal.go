package model

import (
	"encoding/json"
	"fmt"
)

// Bucket is the categorical recommendation derived from a buying score.
type Bucket string

const (
	BucketStrongBuy Bucket = "strong_buy"
	BucketBuy       Bucket = "buy"
	BucketWatch     Bucket = "watch"
	BucketAvoid     Bucket = "avoid"
)

// Valid reports whether b is one of the four known buckets.
func (b Bucket) Valid() bool {
	switch b {
	case BucketStrongBuy, BucketBuy, BucketWatch, BucketAvoid:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown bucket names.
func (b *Bucket) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if !Bucket(s).Valid() {
		return fmt.Errorf("unknown bucket %q", s)
	}
	*b = Bucket(s)
	return nil
}

// ScoreResult is the output of the score engine.
type ScoreResult struct {
	Indicators Indicators `json:"indicators"`
	Score      int        `json:"score"` // 0..100
	Bucket     Bucket     `json:"bucket"`
	Comment    string     `json:"comment"`
}

// InterpretationNotes are human-readable readings of one Indicators value.
type InterpretationNotes struct {
	Bollinger  string `json:"bollinger"`
	Volatility string `json:"volatility"`
	Trend      string `json:"trend"`
	Forecast   string `json:"forecast"`
	Summary    string `json:"summary"`
}

// GradeScore is a ScoreResult labelled with its grade.
type GradeScore struct {
	GradeID   int    `json:"gradeId"`
	GradeName string `json:"gradeName"`
	ScoreResult
}

// GradeInterpretation is the interpretation payload for one grade.
type GradeInterpretation struct {
	GradeID    int                 `json:"gradeId"`
	GradeName  string              `json:"gradeName"`
	Indicators Indicators          `json:"indicators"`
	Notes      InterpretationNotes `json:"notes"`
}

// ScoreSnapshot is a persisted score observation.
type ScoreSnapshot struct {
	ID         string `json:"id" db:"id"`
	GradeID    int    `json:"gradeId" db:"grade_id"`
	GradeName  string `json:"gradeName" db:"grade_name"`
	AsOf       string `json:"asOf" db:"as_of"` // date of the last price used
	Score      int    `json:"score" db:"score"`
	Bucket     Bucket `json:"bucket" db:"bucket"`
	Comment    string `json:"comment" db:"comment"`
	RecordedAt int64  `json:"recordedAt" db:"recorded_at"` // unix seconds
	Indicators
}
