package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/lms-quiz-api/internal/domain/entity"
	"github.com/yourusername/lms-quiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/lms-quiz-api/internal/pkg/errors"
)

func newResultServiceForTest() (*ResultService, *MockAttemptRepository, *MockQuizRepository, *MockCacheRepository) {
	attemptRepo := new(MockAttemptRepository)
	quizRepo := new(MockQuizRepository)
	cacheRepo := new(MockCacheRepository)
	svc := NewResultService(attemptRepo, quizRepo, cacheRepo, 10, time.Minute)
	return svc, attemptRepo, quizRepo, cacheRepo
}

func TestGetAttempt_OwnerCanRead(t *testing.T) {
	svc, attemptRepo, quizRepo, _ := newResultServiceForTest()

	attemptRepo.On("GetWithAnswers", uint(42)).Return(&entity.Attempt{ID: 42, QuizID: 1, StudentID: 7}, nil)
	quizRepo.On("GetByID", uint(1)).Return(&entity.Quiz{ID: 1}, nil)

	attempt, quiz, err := svc.GetAttempt(42, 7, false)

	require.NoError(t, err)
	assert.Equal(t, uint(42), attempt.ID)
	assert.Equal(t, uint(1), quiz.ID)
}

func TestGetAttempt_OtherStudentForbidden(t *testing.T) {
	svc, attemptRepo, _, _ := newResultServiceForTest()

	attemptRepo.On("GetWithAnswers", uint(42)).Return(&entity.Attempt{ID: 42, QuizID: 1, StudentID: 7}, nil)

	_, _, err := svc.GetAttempt(42, 99, false)

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestGetAttempt_InstructorCanReadAny(t *testing.T) {
	svc, attemptRepo, quizRepo, _ := newResultServiceForTest()

	attemptRepo.On("GetWithAnswers", uint(42)).Return(&entity.Attempt{ID: 42, QuizID: 1, StudentID: 7}, nil)
	quizRepo.On("GetByID", uint(1)).Return(&entity.Quiz{ID: 1}, nil)

	_, _, err := svc.GetAttempt(42, 99, true)

	require.NoError(t, err)
}

func TestLeaderboard_CacheMissBuildsAndCaches(t *testing.T) {
	svc, attemptRepo, quizRepo, cacheRepo := newResultServiceForTest()

	quizRepo.On("GetByID", uint(1)).Return(&entity.Quiz{ID: 1}, nil)
	cacheRepo.On("GetJSON", "quiz:1:leaderboard", mock.Anything).Return(apperrors.ErrNotFound)

	completedAt := time.Now()
	attemptRepo.On("Leaderboard", uint(1), 10).Return([]entity.Attempt{
		{ID: 3, StudentID: 30, Percentage: 90, Score: 9, TimeSpentSec: 120, CompletedAt: &completedAt},
		{ID: 1, StudentID: 10, Percentage: 90, Score: 9, TimeSpentSec: 150, CompletedAt: &completedAt},
		{ID: 2, StudentID: 20, Percentage: 70, Score: 7, TimeSpentSec: 60, CompletedAt: &completedAt},
	}, nil)
	cacheRepo.On("SetJSON", "quiz:1:leaderboard", mock.Anything, time.Minute).Return(nil)

	entries, err := svc.Leaderboard(1)

	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, uint(30), entries[0].StudentID, "faster attempt wins the percentage tie")
	assert.Equal(t, uint(10), entries[1].StudentID)
	assert.Equal(t, uint(20), entries[2].StudentID)
	cacheRepo.AssertExpectations(t)
}

func TestLeaderboard_CacheHitSkipsDatabase(t *testing.T) {
	svc, attemptRepo, quizRepo, cacheRepo := newResultServiceForTest()

	quizRepo.On("GetByID", uint(1)).Return(&entity.Quiz{ID: 1}, nil)
	cacheRepo.On("GetJSON", "quiz:1:leaderboard", mock.Anything).
		Run(func(args mock.Arguments) {
			dest := args.Get(1).(*[]LeaderboardEntry)
			*dest = []LeaderboardEntry{{Rank: 1, AttemptID: 5, StudentID: 50, Percentage: 95}}
		}).
		Return(nil)

	entries, err := svc.Leaderboard(1)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint(50), entries[0].StudentID)
	attemptRepo.AssertNotCalled(t, "Leaderboard", mock.Anything, mock.Anything)
}

func TestStatistics_CacheMiss(t *testing.T) {
	svc, attemptRepo, quizRepo, cacheRepo := newResultServiceForTest()

	quizRepo.On("GetByID", uint(1)).Return(&entity.Quiz{ID: 1}, nil)
	cacheRepo.On("GetJSON", "quiz:1:stats", mock.Anything).Return(apperrors.ErrNotFound)
	attemptRepo.On("QuizStats", uint(1)).Return(&repository.AttemptStats{
		TotalAttempts:     10,
		CompletedAttempts: 7,
		TimedOutAttempts:  2,
		AbandonedAttempts: 1,
		AveragePercentage: 74.5,
		PassRate:          0.66,
	}, nil)
	attemptRepo.On("QuestionStats", uint(1)).Return([]repository.QuestionStat{
		{QuestionID: 1, TotalAnswers: 9, CorrectCount: 6, CorrectRate: 0.6667},
	}, nil)
	cacheRepo.On("SetJSON", "quiz:1:stats", mock.Anything, time.Minute).Return(nil)

	stats, err := svc.Statistics(1)

	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.Attempts.TotalAttempts)
	require.Len(t, stats.Questions, 1)
	assert.InDelta(t, 0.6667, stats.Questions[0].CorrectRate, 0.001)
}

func TestListQuizAttempts_UnknownQuiz(t *testing.T) {
	svc, _, quizRepo, _ := newResultServiceForTest()

	quizRepo.On("GetByID", uint(9)).Return(nil, apperrors.ErrNotFound)

	_, _, err := svc.ListQuizAttempts(9, 20, 0)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
