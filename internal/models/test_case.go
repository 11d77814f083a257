package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TestCase is an input/expected-output pair attached to a problem.
type TestCase struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	ProblemID      string    `gorm:"size:36;not null;index" json:"problem_id"`
	Input          string    `gorm:"type:text" json:"input"`
	ExpectedOutput string    `gorm:"type:text" json:"expected_output"`
	IsHidden       bool      `gorm:"not null" json:"is_hidden"`
	OrderIndex     int       `gorm:"not null" json:"order_index"`
	CreatedAt      time.Time `json:"created_at"`
}

// BeforeCreate assigns an opaque identifier when none was provided.
func (t *TestCase) BeforeCreate(*gorm.DB) error {
	if strings.TrimSpace(t.ID) == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
