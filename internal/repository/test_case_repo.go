package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-ide-api/internal/models"
)

// TestCaseRepository exposes persistence operations for problem test cases.
type TestCaseRepository interface {
	ListByProblem(ctx context.Context, problemID string) ([]models.TestCase, error)
	GetByID(ctx context.Context, id string) (models.TestCase, error)
	Create(ctx context.Context, testCase *models.TestCase) error
	Update(ctx context.Context, testCase *models.TestCase) error
	Delete(ctx context.Context, id string) error
}

// NewTestCaseRepository constructs a test case repository.
func NewTestCaseRepository(db *gorm.DB) TestCaseRepository {
	return &testCaseRepository{db: db}
}

type testCaseRepository struct {
	db *gorm.DB
}

func (r *testCaseRepository) ListByProblem(ctx context.Context, problemID string) ([]models.TestCase, error) {
	var cases []models.TestCase
	err := r.db.WithContext(ctx).
		Where("problem_id = ?", problemID).
		Order("order_index ASC").
		Order("created_at ASC").
		Find(&cases).Error
	if err != nil {
		return nil, err
	}
	return cases, nil
}

func (r *testCaseRepository) GetByID(ctx context.Context, id string) (models.TestCase, error) {
	var testCase models.TestCase
	if err := r.db.WithContext(ctx).First(&testCase, "id = ?", id).Error; err != nil {
		return models.TestCase{}, err
	}
	return testCase, nil
}

func (r *testCaseRepository) Create(ctx context.Context, testCase *models.TestCase) error {
	return r.db.WithContext(ctx).Create(testCase).Error
}

func (r *testCaseRepository) Update(ctx context.Context, testCase *models.TestCase) error {
	return r.db.WithContext(ctx).Save(testCase).Error
}

func (r *testCaseRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.TestCase{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
