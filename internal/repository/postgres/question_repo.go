package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/lms-quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/lms-quiz-api/internal/pkg/errors"
)

// QuestionRepo implements repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo creates a new question repository
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create stores the question together with its options
func (r *QuestionRepo) Create(question *entity.Question) error {
	return r.db.Create(question).Error
}

// GetByID returns the question with its options preloaded
func (r *QuestionRepo) GetByID(id uint) (*entity.Question, error) {
	var question entity.Question
	err := r.db.
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("answer_options.sort_order ASC, answer_options.id ASC")
		}).
		First(&question, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// GetByQuizID returns the quiz's live questions with options, ordered by sort_order
func (r *QuestionRepo) GetByQuizID(quizID uint) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("answer_options.sort_order ASC, answer_options.id ASC")
		}).
		Where("quiz_id = ?", quizID).
		Order("sort_order ASC, id ASC").
		Find(&questions).Error
	return questions, err
}

// CountByQuizID counts the quiz's live questions
func (r *QuestionRepo) CountByQuizID(quizID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Question{}).Where("quiz_id = ?", quizID).Count(&count).Error
	return count, err
}

// Update saves question field changes without touching its options
func (r *QuestionRepo) Update(question *entity.Question) error {
	return r.db.Omit("Options").Save(question).Error
}

// ReplaceOptions swaps the question's options for the given set in one
// transaction. Old options are soft-deleted so historical attempt answers
// keep resolving.
func (r *QuestionRepo) ReplaceOptions(questionID uint, options []entity.AnswerOption) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", questionID).Delete(&entity.AnswerOption{}).Error; err != nil {
			return fmt.Errorf("failed to remove old options: %w", err)
		}
		for i := range options {
			options[i].ID = 0
			options[i].QuestionID = questionID
		}
		if len(options) > 0 {
			if err := tx.Create(&options).Error; err != nil {
				return fmt.Errorf("failed to create options: %w", err)
			}
		}
		return nil
	})
}

// Delete soft-deletes the question and its options
func (r *QuestionRepo) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&entity.Question{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return tx.Where("question_id = ?", id).Delete(&entity.AnswerOption{}).Error
	})
}

// UpdateSortOrder rewrites sort_order for the quiz's questions to match the
// given id sequence
func (r *QuestionRepo) UpdateSortOrder(quizID uint, orderedIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			result := tx.Model(&entity.Question{}).
				Where("id = ? AND quiz_id = ?", id, quizID).
				Update("sort_order", i)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("%w: question #%d does not belong to quiz #%d", apperrors.ErrValidation, id, quizID)
			}
		}
		return nil
	})
}

// IsReferenced reports whether any attempt answer references the question
func (r *QuestionRepo) IsReferenced(questionID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entity.AttemptAnswer{}).
		Where("question_id = ?", questionID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
