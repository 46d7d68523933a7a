package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Vessel is a tanker tracked by the operations desk.
type Vessel struct {
	ID          string `json:"id" db:"id"`
	Name        string `json:"name" db:"name" validate:"notblank"`
	Type        string `json:"type" db:"type" validate:"notblank"`
	DWT         int    `json:"dwt" db:"dwt" validate:"gt=0"` // deadweight tonnage
	Status      string `json:"status" db:"status" validate:"notblank"`
	ETA         string `json:"eta,omitempty" db:"eta" validate:"omitempty,datetime=2006-01-02"`
	Origin      string `json:"origin,omitempty" db:"origin"`
	Destination string `json:"destination,omitempty" db:"destination"`
}

// Tags is a list of labels stored as a JSON array column.
type Tags []string

func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	return string(b), err
}

func (t *Tags) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scan tags: unsupported type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan tags: %w", err)
	}
	*t = out
	return nil
}

// KnowledgeItem is a reference document of the buyers' knowledge base.
type KnowledgeItem struct {
	ID        string `json:"id" db:"id"`
	Title     string `json:"title" db:"title" validate:"notblank"`
	Link      string `json:"link,omitempty" db:"link"`
	Tags      Tags   `json:"tags" db:"tags"`
	Excerpt   string `json:"excerpt,omitempty" db:"excerpt"`
	Content   string `json:"content,omitempty" db:"content"`
	UpdatedAt int64  `json:"updatedAt" db:"updated_at"` // unix millis
}

// Matches reports whether q occurs, case-insensitively, in the title,
// tags, excerpt or content. An empty query matches everything.
func (k KnowledgeItem) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	fields := append([]string{k.Title, k.Excerpt, k.Content}, k.Tags...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
