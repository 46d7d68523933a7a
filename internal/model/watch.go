package model

import "time"

// GradeWatch is the last observed scoring state of one grade.
type GradeWatch struct {
	GradeID         int    `json:"grade_id"`
	GradeName       string `json:"grade_name"`
	Score           int    `json:"score"`
	Bucket          Bucket `json:"bucket"`
	BucketSince     string `json:"bucket_since"`
	ConsecutiveRuns int    `json:"consecutive_runs"`
	RecentScores    []int  `json:"recent_scores"`
}

// WatchState tracks bucket membership across scoring runs.
type WatchState struct {
	Grades    map[int]*GradeWatch `json:"grades"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Transition records a grade moving from one bucket to another.
type Transition struct {
	GradeID   int
	GradeName string
	From      Bucket
	To        Bucket
	Score     int
}
