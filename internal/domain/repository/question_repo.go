package repository

import (
	"github.com/yourusername/lms-quiz-api/internal/domain/entity"
)

// QuestionRepository defines persistence operations for questions and their
// answer options
type QuestionRepository interface {
	// Create stores the question together with its options.
	Create(question *entity.Question) error
	// GetByID returns the question with its options preloaded.
	GetByID(id uint) (*entity.Question, error)
	// GetByQuizID returns the quiz's live questions with options,
	// ordered by sort_order.
	GetByQuizID(quizID uint) ([]entity.Question, error)
	CountByQuizID(quizID uint) (int64, error)
	Update(question *entity.Question) error
	// ReplaceOptions swaps the question's options for the given set
	// inside one transaction. Referenced options are soft-deleted.
	ReplaceOptions(questionID uint, options []entity.AnswerOption) error
	// Delete soft-deletes the question and its options.
	Delete(id uint) error
	// UpdateSortOrder rewrites sort_order for the quiz's questions to match
	// the given id sequence.
	UpdateSortOrder(quizID uint, orderedIDs []uint) error
	// IsReferenced reports whether any attempt answer references the question.
	IsReferenced(questionID uint) (bool, error)
}
