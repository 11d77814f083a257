package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-ide-api/internal/models"
)

// ProblemQuery filters problem listings.
type ProblemQuery struct {
	IncludeInactive bool
	Difficulty      string
	Search          string
}

// ProblemRepository exposes persistence operations for problems.
type ProblemRepository interface {
	List(ctx context.Context, query ProblemQuery) ([]models.Problem, error)
	GetByID(ctx context.Context, id string) (models.Problem, error)
	Create(ctx context.Context, problem *models.Problem) error
	Update(ctx context.Context, problem *models.Problem) error
	Delete(ctx context.Context, id string) error
	UpsertWithTestCases(ctx context.Context, problems []models.Problem) (int64, error)
}

// NewProblemRepository constructs a problem repository.
func NewProblemRepository(db *gorm.DB) ProblemRepository {
	return &problemRepository{db: db}
}

type problemRepository struct {
	db *gorm.DB
}

func (r *problemRepository) List(ctx context.Context, query ProblemQuery) ([]models.Problem, error) {
	db := r.db.WithContext(ctx).Model(&models.Problem{})

	if !query.IncludeInactive {
		db = db.Where("is_active = ?", true)
	}

	if query.Difficulty != "" {
		db = db.Where("LOWER(difficulty) = ?", strings.ToLower(query.Difficulty))
	}

	if query.Search != "" {
		pattern := fmt.Sprintf("%%%s%%", strings.ToLower(query.Search))
		db = db.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var problems []models.Problem
	if err := db.Order("order_index ASC").Order("created_at ASC").Find(&problems).Error; err != nil {
		return nil, err
	}
	return problems, nil
}

func (r *problemRepository) GetByID(ctx context.Context, id string) (models.Problem, error) {
	var problem models.Problem
	if err := r.db.WithContext(ctx).First(&problem, "id = ?", id).Error; err != nil {
		return models.Problem{}, err
	}
	return problem, nil
}

func (r *problemRepository) Create(ctx context.Context, problem *models.Problem) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(problem).Error
}

func (r *problemRepository) Update(ctx context.Context, problem *models.Problem) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(problem).Error
}

// Delete removes the problem together with its test cases.
func (r *problemRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("problem_id = ?", id).Delete(&models.TestCase{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Problem{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// UpsertWithTestCases writes each problem by ID and replaces its test cases.
func (r *problemRepository) UpsertWithTestCases(ctx context.Context, problems []models.Problem) (int64, error) {
	if len(problems) == 0 {
		return 0, nil
	}

	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range problems {
			problem := problems[i]
			cases := problem.TestCases
			problem.TestCases = nil

			result := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"title", "description", "input_format", "output_format", "constraints",
					"difficulty", "boilerplate_code", "time_limit_seconds", "order_index",
					"is_active", "updated_at",
				}),
			}).Create(&problem)
			if result.Error != nil {
				return result.Error
			}
			affected += result.RowsAffected

			if err := tx.Where("problem_id = ?", problem.ID).Delete(&models.TestCase{}).Error; err != nil {
				return err
			}
			for j := range cases {
				cases[j].ProblemID = problem.ID
			}
			if len(cases) > 0 {
				if err := tx.Create(&cases).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}
