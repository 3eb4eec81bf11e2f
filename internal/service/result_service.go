package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/lms-quiz-api/internal/domain/entity"
	"github.com/yourusername/lms-quiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/lms-quiz-api/internal/pkg/errors"
)

func leaderboardCacheKey(quizID uint) string {
	return fmt.Sprintf("quiz:%d:leaderboard", quizID)
}

func statsCacheKey(quizID uint) string {
	return fmt.Sprintf("quiz:%d:stats", quizID)
}

// LeaderboardEntry is one row of a quiz leaderboard
type LeaderboardEntry struct {
	Rank         int        `json:"rank"`
	AttemptID    uint       `json:"attempt_id"`
	StudentID    uint       `json:"student_id"`
	Score        int        `json:"score"`
	Percentage   int        `json:"percentage"`
	TimeSpentSec int        `json:"time_spent_sec"`
	CompletedAt  *time.Time `json:"completed_at"`
}

// QuizStatistics aggregates attempt-level and per-question statistics
type QuizStatistics struct {
	Attempts  repository.AttemptStats  `json:"attempts"`
	Questions []repository.QuestionStat `json:"questions"`
}

// ResultService serves graded results, attempt history, leaderboards and
// quiz statistics. Leaderboards and statistics are cached in Redis and
// invalidated whenever an attempt is graded.
type ResultService struct {
	attemptRepo     repository.AttemptRepository
	quizRepo        repository.QuizRepository
	cacheRepo       repository.CacheRepository
	leaderboardSize int
	cacheTTL        time.Duration
}

// NewResultService creates a new result service
func NewResultService(
	attemptRepo repository.AttemptRepository,
	quizRepo repository.QuizRepository,
	cacheRepo repository.CacheRepository,
	leaderboardSize int,
	cacheTTL time.Duration,
) *ResultService {
	if leaderboardSize <= 0 {
		leaderboardSize = 10
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &ResultService{
		attemptRepo:     attemptRepo,
		quizRepo:        quizRepo,
		cacheRepo:       cacheRepo,
		leaderboardSize: leaderboardSize,
		cacheTTL:        cacheTTL,
	}
}

// GetAttempt returns the attempt with its answers plus the owning quiz.
// Students only see their own attempts; instructors see all of them.
func (s *ResultService) GetAttempt(attemptID, requesterID uint, isInstructor bool) (*entity.Attempt, *entity.Quiz, error) {
	attempt, err := s.attemptRepo.GetWithAnswers(attemptID)
	if err != nil {
		return nil, nil, err
	}
	if !isInstructor && attempt.StudentID != requesterID {
		return nil, nil, fmt.Errorf("%w: attempt belongs to another student", apperrors.ErrForbidden)
	}

	quiz, err := s.quizRepo.GetByID(attempt.QuizID)
	if err != nil {
		return nil, nil, err
	}
	return attempt, quiz, nil
}

// GetQuizForAttempt returns the quiz an attempt belongs to
func (s *ResultService) GetQuizForAttempt(attempt *entity.Attempt) (*entity.Quiz, error) {
	return s.quizRepo.GetByID(attempt.QuizID)
}

// ListStudentAttempts returns the student's own attempt history for a quiz
func (s *ResultService) ListStudentAttempts(quizID, studentID uint, limit, offset int) ([]entity.Attempt, int64, error) {
	return s.attemptRepo.ListByStudent(quizID, studentID, normalizeLimit(limit), normalizeOffset(offset))
}

// ListQuizAttempts returns every attempt of a quiz (instructor view)
func (s *ResultService) ListQuizAttempts(quizID uint, limit, offset int) ([]entity.Attempt, int64, error) {
	if _, err := s.quizRepo.GetByID(quizID); err != nil {
		return nil, 0, err
	}
	return s.attemptRepo.ListByQuiz(quizID, normalizeLimit(limit), normalizeOffset(offset))
}

// Leaderboard returns the quiz's top completed attempts, best percentage
// first, fastest time as tie-break. Served from cache when possible.
func (s *ResultService) Leaderboard(quizID uint) ([]LeaderboardEntry, error) {
	if _, err := s.quizRepo.GetByID(quizID); err != nil {
		return nil, err
	}

	cacheKey := leaderboardCacheKey(quizID)
	if s.cacheRepo != nil {
		var cached []LeaderboardEntry
		if err := s.cacheRepo.GetJSON(cacheKey, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[ResultService] Leaderboard cache read failed for quiz #%d: %v", quizID, err)
		}
	}

	attempts, err := s.attemptRepo.Leaderboard(quizID, s.leaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("failed to build leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, len(attempts))
	for i, a := range attempts {
		entries[i] = LeaderboardEntry{
			Rank:         i + 1,
			AttemptID:    a.ID,
			StudentID:    a.StudentID,
			Score:        a.Score,
			Percentage:   a.Percentage,
			TimeSpentSec: a.TimeSpentSec,
			CompletedAt:  a.CompletedAt,
		}
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.SetJSON(cacheKey, entries, s.cacheTTL); err != nil {
			log.Printf("[ResultService] Leaderboard cache write failed for quiz #%d: %v", quizID, err)
		}
	}
	return entries, nil
}

// Statistics returns aggregate attempt and per-question statistics for a
// quiz. Served from cache when possible.
func (s *ResultService) Statistics(quizID uint) (*QuizStatistics, error) {
	if _, err := s.quizRepo.GetByID(quizID); err != nil {
		return nil, err
	}

	cacheKey := statsCacheKey(quizID)
	if s.cacheRepo != nil {
		var cached QuizStatistics
		if err := s.cacheRepo.GetJSON(cacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[ResultService] Statistics cache read failed for quiz #%d: %v", quizID, err)
		}
	}

	attemptStats, err := s.attemptRepo.QuizStats(quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute quiz statistics: %w", err)
	}
	questionStats, err := s.attemptRepo.QuestionStats(quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute question statistics: %w", err)
	}

	stats := &QuizStatistics{
		Attempts:  *attemptStats,
		Questions: questionStats,
	}
	if s.cacheRepo != nil {
		if err := s.cacheRepo.SetJSON(cacheKey, stats, s.cacheTTL); err != nil {
			log.Printf("[ResultService] Statistics cache write failed for quiz #%d: %v", quizID, err)
		}
	}
	return stats, nil
}
