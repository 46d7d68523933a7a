package watch

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"OilTracker/internal/model"
)

// LoadState reads the watch state from a JSON file. A missing file yields an empty state.
func LoadState(filePath string) (*model.WatchState, error) {
	state := &model.WatchState{Grades: make(map[int]*model.GradeWatch)}
	if filePath == "" {
		return state, nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	if state.Grades == nil {
		state.Grades = make(map[int]*model.GradeWatch)
	}
	return state, nil
}

// SaveState writes the watch state to a JSON file. An empty path keeps state in memory only.
func SaveState(filePath string, state *model.WatchState) error {
	state.UpdatedAt = time.Now()
	if filePath == "" {
		return nil
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
