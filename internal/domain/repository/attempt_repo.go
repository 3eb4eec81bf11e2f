package repository

import (
	"time"

	"github.com/yourusername/lms-quiz-api/internal/domain/entity"
)

// AttemptStats holds aggregate statistics over a quiz's graded attempts
type AttemptStats struct {
	TotalAttempts     int64   `json:"total_attempts"`
	CompletedAttempts int64   `json:"completed_attempts"`
	TimedOutAttempts  int64   `json:"timed_out_attempts"`
	AbandonedAttempts int64   `json:"abandoned_attempts"`
	AverageScore      float64 `json:"average_score"`
	AveragePercentage float64 `json:"average_percentage"`
	PassRate          float64 `json:"pass_rate"` // 0..1 over graded attempts
}

// QuestionStat holds the per-question correct rate over graded attempts
type QuestionStat struct {
	QuestionID   uint    `json:"question_id"`
	TotalAnswers int64   `json:"total_answers"`
	CorrectCount int64   `json:"correct_count"`
	CorrectRate  float64 `json:"correct_rate"` // 0..1
}

// AttemptRepository defines persistence operations for attempts and their answers
type AttemptRepository interface {
	// Create inserts a new in_progress attempt. A partial unique index
	// guarantees at most one in_progress attempt per (quiz, student);
	// a unique violation is mapped to ErrAttemptAlreadyInProgress.
	Create(attempt *entity.Attempt) error
	// UpdateQuestionOrder freezes the shuffled question order once the
	// attempt id (the shuffle seed) is known.
	UpdateQuestionOrder(attemptID uint, order entity.UintArray) error
	GetByID(id uint) (*entity.Attempt, error)
	// GetWithAnswers returns the attempt with its answers preloaded.
	GetWithAnswers(id uint) (*entity.Attempt, error)
	// GetInProgress returns the student's in_progress attempt for the quiz,
	// or ErrNotFound.
	GetInProgress(quizID, studentID uint) (*entity.Attempt, error)
	// CountNonAbandoned counts the student's attempts that consume the
	// max_attempts budget (everything except abandoned).
	CountNonAbandoned(quizID, studentID uint) (int64, error)
	// UpsertAnswer atomically inserts or updates the answer keyed by
	// (attempt_id, question_id). Last write wins.
	UpsertAnswer(answer *entity.AttemptAnswer) error
	GetAnswers(attemptID uint) ([]entity.AttemptAnswer, error)
	// SaveGraded persists the graded attempt and its graded answers in one
	// transaction. Called exactly once per attempt, at the terminal transition.
	SaveGraded(attempt *entity.Attempt, answers []entity.AttemptAnswer) error
	// UpdateStatus moves the attempt to a terminal status without grading
	// (abandon path).
	UpdateStatus(attemptID uint, status string, completedAt time.Time) error
	// UpdateAnswerGrade overwrites one answer's grade and re-totals the
	// attempt inside a transaction (manual grading).
	UpdateAnswerGrade(attempt *entity.Attempt, answer *entity.AttemptAnswer) error
	ListByStudent(quizID, studentID uint, limit, offset int) ([]entity.Attempt, int64, error)
	ListByQuiz(quizID uint, limit, offset int) ([]entity.Attempt, int64, error)
	// ListOverdue returns in_progress attempts whose deadline passed before
	// the given moment. Used by the expiry sweep.
	ListOverdue(now time.Time, limit int) ([]entity.Attempt, error)
	// Leaderboard returns the quiz's top completed attempts ordered by
	// percentage descending, then time spent ascending.
	Leaderboard(quizID uint, limit int) ([]entity.Attempt, error)
	QuizStats(quizID uint) (*AttemptStats, error)
	QuestionStats(quizID uint) ([]QuestionStat, error)
}
