package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/yourusername/lms-quiz-api/internal/domain/entity"
	"github.com/yourusername/lms-quiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/lms-quiz-api/internal/pkg/errors"
)

// AttemptRepo implements repository.AttemptRepository
type AttemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepo creates a new attempt repository
func NewAttemptRepo(db *gorm.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// Create inserts a new in_progress attempt.
// Partial unique index idx_attempt_single_in_progress guarantees at most one
// in_progress attempt per (quiz_id, student_id):
// - 23505 (unique violation) → ErrAttemptAlreadyInProgress
// - any other DB error is returned as-is
func (r *AttemptRepo) Create(attempt *entity.Attempt) error {
	if err := r.db.Create(attempt).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: quiz #%d student #%d", repository.ErrAttemptAlreadyInProgress, attempt.QuizID, attempt.StudentID)
		}
		return fmt.Errorf("create attempt failed: %w", err)
	}
	return nil
}

// isUniqueViolation checks for a Postgres unique violation (23505) from both
// the pgconn and lib/pq drivers
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}

// UpdateQuestionOrder freezes the shuffled question order for the attempt
func (r *AttemptRepo) UpdateQuestionOrder(attemptID uint, order entity.UintArray) error {
	return r.db.Model(&entity.Attempt{}).
		Where("id = ?", attemptID).
		Update("question_order", order).
		Error
}

// GetByID returns an attempt by ID
func (r *AttemptRepo) GetByID(id uint) (*entity.Attempt, error) {
	var attempt entity.Attempt
	err := r.db.First(&attempt, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// GetWithAnswers returns the attempt with its answers preloaded
func (r *AttemptRepo) GetWithAnswers(id uint) (*entity.Attempt, error) {
	var attempt entity.Attempt
	err := r.db.
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("attempt_answers.question_id ASC")
		}).
		First(&attempt, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// GetInProgress returns the student's in_progress attempt for the quiz
func (r *AttemptRepo) GetInProgress(quizID, studentID uint) (*entity.Attempt, error) {
	var attempt entity.Attempt
	err := r.db.
		Where("quiz_id = ? AND student_id = ? AND status = ?", quizID, studentID, entity.AttemptStatusInProgress).
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// CountNonAbandoned counts the student's attempts that consume the
// max_attempts budget
func (r *AttemptRepo) CountNonAbandoned(quizID, studentID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Attempt{}).
		Where("quiz_id = ? AND student_id = ? AND status <> ?", quizID, studentID, entity.AttemptStatusAbandoned).
		Count(&count).Error
	return count, err
}

// UpsertAnswer atomically inserts or updates the answer keyed by
// (attempt_id, question_id). Last write wins; the unique index makes
// concurrent saves for the same question converge on a single row.
func (r *AttemptRepo) UpsertAnswer(answer *entity.AttemptAnswer) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"selected_option_ids", "text_answer", "updated_at",
		}),
	}).Create(answer).Error
}

// GetAnswers returns all answers of an attempt
func (r *AttemptRepo) GetAnswers(attemptID uint) ([]entity.AttemptAnswer, error) {
	var answers []entity.AttemptAnswer
	err := r.db.Where("attempt_id = ?", attemptID).
		Order("question_id ASC").
		Find(&answers).Error
	return answers, err
}

// SaveGraded persists the graded attempt and its graded answers in one
// transaction. The status transition is guarded: only an in_progress row is
// finalized, so racing submits (or a submit racing the expiry sweep) converge
// on whichever write landed first.
func (r *AttemptRepo) SaveGraded(attempt *entity.Attempt, answers []entity.AttemptAnswer) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Attempt{}).
			Where("id = ? AND status = ?", attempt.ID, entity.AttemptStatusInProgress).
			Updates(map[string]interface{}{
				"status":         attempt.Status,
				"completed_at":   attempt.CompletedAt,
				"time_spent_sec": attempt.TimeSpentSec,
				"score":          attempt.Score,
				"total_points":   attempt.TotalPoints,
				"percentage":     attempt.Percentage,
				"passed":         attempt.Passed,
				"pending_manual": attempt.PendingManual,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to save graded attempt: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: attempt #%d", repository.ErrAttemptAlreadyFinalized, attempt.ID)
		}
		for i := range answers {
			if err := tx.Model(&entity.AttemptAnswer{}).
				Where("id = ?", answers[i].ID).
				Updates(map[string]interface{}{
					"is_correct":     answers[i].IsCorrect,
					"points_earned":  answers[i].PointsEarned,
					"pending_manual": answers[i].PendingManual,
				}).Error; err != nil {
				return fmt.Errorf("failed to save graded answer #%d: %w", answers[i].ID, err)
			}
		}
		return nil
	})
}

// UpdateStatus moves the attempt to a terminal status without grading
func (r *AttemptRepo) UpdateStatus(attemptID uint, status string, completedAt time.Time) error {
	result := r.db.Model(&entity.Attempt{}).
		Where("id = ?", attemptID).
		Updates(map[string]interface{}{
			"status":       status,
			"completed_at": completedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateAnswerGrade overwrites one answer's grade and re-totals the attempt
// inside a transaction (manual grading path)
func (r *AttemptRepo) UpdateAnswerGrade(attempt *entity.Attempt, answer *entity.AttemptAnswer) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.AttemptAnswer{}).
			Where("id = ?", answer.ID).
			Updates(map[string]interface{}{
				"is_correct":     answer.IsCorrect,
				"points_earned":  answer.PointsEarned,
				"pending_manual": answer.PendingManual,
			}).Error; err != nil {
			return fmt.Errorf("failed to update answer grade: %w", err)
		}
		return tx.Model(&entity.Attempt{}).
			Where("id = ?", attempt.ID).
			Updates(map[string]interface{}{
				"score":          attempt.Score,
				"percentage":     attempt.Percentage,
				"passed":         attempt.Passed,
				"pending_manual": attempt.PendingManual,
			}).Error
	})
}

// ListByStudent returns the student's attempts for a quiz, newest first,
// with pagination and total count
func (r *AttemptRepo) ListByStudent(quizID, studentID uint, limit, offset int) ([]entity.Attempt, int64, error) {
	var attempts []entity.Attempt
	var total int64

	query := r.db.Model(&entity.Attempt{}).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("started_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&attempts).Error
	if err != nil {
		return nil, 0, err
	}
	return attempts, total, nil
}

// ListByQuiz returns all attempts for a quiz, newest first, with pagination
// and total count
func (r *AttemptRepo) ListByQuiz(quizID uint, limit, offset int) ([]entity.Attempt, int64, error) {
	var attempts []entity.Attempt
	var total int64

	query := r.db.Model(&entity.Attempt{}).Where("quiz_id = ?", quizID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("started_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&attempts).Error
	if err != nil {
		return nil, 0, err
	}
	return attempts, total, nil
}

// ListOverdue returns in_progress attempts whose deadline passed before the
// given moment
func (r *AttemptRepo) ListOverdue(now time.Time, limit int) ([]entity.Attempt, error) {
	var attempts []entity.Attempt
	err := r.db.
		Where("status = ? AND time_limit_sec > 0 AND started_at + make_interval(secs => time_limit_sec) <= ?",
			entity.AttemptStatusInProgress, now).
		Order("started_at ASC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

// Leaderboard returns the quiz's top completed attempts ordered by percentage
// descending, then time spent ascending as tie-break
func (r *AttemptRepo) Leaderboard(quizID uint, limit int) ([]entity.Attempt, error) {
	var attempts []entity.Attempt
	err := r.db.
		Where("quiz_id = ? AND status = ?", quizID, entity.AttemptStatusCompleted).
		Order("percentage DESC, time_spent_sec ASC, completed_at ASC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

// QuizStats computes aggregate statistics over a quiz's attempts
func (r *AttemptRepo) QuizStats(quizID uint) (*repository.AttemptStats, error) {
	var stats repository.AttemptStats

	err := r.db.Table("attempts").
		Select(`
			COUNT(*) as total_attempts,
			COUNT(*) FILTER (WHERE status = 'completed') as completed_attempts,
			COUNT(*) FILTER (WHERE status = 'timed_out') as timed_out_attempts,
			COUNT(*) FILTER (WHERE status = 'abandoned') as abandoned_attempts,
			COALESCE(AVG(score) FILTER (WHERE status IN ('completed', 'timed_out')), 0) as average_score,
			COALESCE(AVG(percentage) FILTER (WHERE status IN ('completed', 'timed_out')), 0) as average_percentage,
			COALESCE(
				COUNT(*) FILTER (WHERE passed = true)::float /
				NULLIF(COUNT(*) FILTER (WHERE status IN ('completed', 'timed_out')), 0),
				0
			) as pass_rate
		`).
		Where("quiz_id = ?", quizID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// QuestionStats computes the per-question correct rate over graded answers
func (r *AttemptRepo) QuestionStats(quizID uint) ([]repository.QuestionStat, error) {
	var stats []repository.QuestionStat

	err := r.db.Table("attempt_answers").
		Select(`
			attempt_answers.question_id,
			COUNT(*) FILTER (WHERE attempt_answers.is_correct IS NOT NULL) as total_answers,
			COUNT(*) FILTER (WHERE attempt_answers.is_correct = true) as correct_count,
			COALESCE(
				COUNT(*) FILTER (WHERE attempt_answers.is_correct = true)::float /
				NULLIF(COUNT(*) FILTER (WHERE attempt_answers.is_correct IS NOT NULL), 0),
				0
			) as correct_rate
		`).
		Joins("JOIN attempts ON attempts.id = attempt_answers.attempt_id").
		Where("attempts.quiz_id = ?", quizID).
		Group("attempt_answers.question_id").
		Order("attempt_answers.question_id").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
