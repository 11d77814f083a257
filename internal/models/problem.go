package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Difficulty levels a problem can carry.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Problem is a coding exercise shown in the IDE navigator.
type Problem struct {
	ID               string     `gorm:"primaryKey;size:36" json:"id"`
	Title            string     `gorm:"size:255;not null" json:"title"`
	Description      string     `gorm:"type:text;not null" json:"description"`
	InputFormat      string     `gorm:"type:text" json:"input_format"`
	OutputFormat     string     `gorm:"type:text" json:"output_format"`
	Constraints      *string    `gorm:"type:text" json:"constraints"`
	Difficulty       string     `gorm:"size:16;not null" json:"difficulty"`
	BoilerplateCode  string     `gorm:"type:text" json:"boilerplate_code"`
	TimeLimitSeconds *int       `json:"time_limit_seconds"`
	OrderIndex       int        `gorm:"not null;index" json:"order_index"`
	IsActive         bool       `gorm:"not null;index" json:"is_active"`
	CreatedBy        *string    `gorm:"size:64" json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	TestCases        []TestCase `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// BeforeCreate assigns an opaque identifier when none was provided.
func (p *Problem) BeforeCreate(*gorm.DB) error {
	if strings.TrimSpace(p.ID) == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// IsValidDifficulty reports whether value is one of the known difficulty levels.
func IsValidDifficulty(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}
