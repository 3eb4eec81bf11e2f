package repository

import (
	"github.com/yourusername/lms-quiz-api/internal/domain/entity"
)

// QuizRepository defines persistence operations for quiz definitions
type QuizRepository interface {
	Create(quiz *entity.Quiz) error
	GetByID(id uint) (*entity.Quiz, error)
	// GetWithQuestions returns the quiz with its live (non-deleted) questions
	// and their options, ordered by sort_order.
	GetWithQuestions(id uint) (*entity.Quiz, error)
	Update(quiz *entity.Quiz) error
	Delete(id uint) error
	SetPublished(quizID uint, published bool) error
	ListByCourse(courseID uint, limit, offset int) ([]entity.Quiz, int64, error)
}
