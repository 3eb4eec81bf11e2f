package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/lms-quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/lms-quiz-api/internal/pkg/errors"
)

// QuizRepo implements repository.QuizRepository
type QuizRepo struct {
	db *gorm.DB
}

// NewQuizRepo creates a new quiz repository
func NewQuizRepo(db *gorm.DB) *QuizRepo {
	return &QuizRepo{db: db}
}

// Create stores a new quiz definition
func (r *QuizRepo) Create(quiz *entity.Quiz) error {
	return r.db.Create(quiz).Error
}

// GetByID returns a quiz by ID
func (r *QuizRepo) GetByID(id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.First(&quiz, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// GetWithQuestions returns a quiz together with its live questions and
// options, ordered by sort_order
func (r *QuizRepo) GetWithQuestions(id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.sort_order ASC, questions.id ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("answer_options.sort_order ASC, answer_options.id ASC")
		}).
		First(&quiz, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// Update saves quiz metadata changes
func (r *QuizRepo) Update(quiz *entity.Quiz) error {
	return r.db.Save(quiz).Error
}

// Delete removes a quiz definition. Attempts reference quizzes without a
// foreign-key cascade, so history survives; the service layer rejects the
// delete while graded attempts exist.
func (r *QuizRepo) Delete(id uint) error {
	result := r.db.Delete(&entity.Quiz{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SetPublished flips the publish flag without touching other fields
func (r *QuizRepo) SetPublished(quizID uint, published bool) error {
	result := r.db.Model(&entity.Quiz{}).
		Where("id = ?", quizID).
		Update("published", published)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListByCourse returns the course's quizzes with pagination and total count
func (r *QuizRepo) ListByCourse(courseID uint, limit, offset int) ([]entity.Quiz, int64, error) {
	var quizzes []entity.Quiz
	var total int64

	query := r.db.Model(&entity.Quiz{}).Where("course_id = ?", courseID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Limit(limit).Offset(offset).Order("id DESC").Find(&quizzes).Error
	if err != nil {
		return nil, 0, err
	}
	return quizzes, total, nil
}
