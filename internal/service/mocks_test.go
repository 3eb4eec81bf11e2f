package service

import (
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/yourusername/lms-quiz-api/internal/domain/entity"
	"github.com/yourusername/lms-quiz-api/internal/domain/repository"
)

// ============================================================================
// Shared mocks for the service tests
// ============================================================================

// MockQuizRepository implements repository.QuizRepository
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) Create(quiz *entity.Quiz) error {
	args := m.Called(quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) GetByID(id uint) (*entity.Quiz, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Quiz), args.Error(1)
}

func (m *MockQuizRepository) GetWithQuestions(id uint) (*entity.Quiz, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Quiz), args.Error(1)
}

func (m *MockQuizRepository) Update(quiz *entity.Quiz) error {
	args := m.Called(quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockQuizRepository) SetPublished(quizID uint, published bool) error {
	args := m.Called(quizID, published)
	return args.Error(0)
}

func (m *MockQuizRepository) ListByCourse(courseID uint, limit, offset int) ([]entity.Quiz, int64, error) {
	args := m.Called(courseID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]entity.Quiz), args.Get(1).(int64), args.Error(2)
}

// MockQuestionRepository implements repository.QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) Create(question *entity.Question) error {
	args := m.Called(question)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetByID(id uint) (*entity.Question, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetByQuizID(quizID uint) ([]entity.Question, error) {
	args := m.Called(quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) CountByQuizID(quizID uint) (int64, error) {
	args := m.Called(quizID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuestionRepository) Update(question *entity.Question) error {
	args := m.Called(question)
	return args.Error(0)
}

func (m *MockQuestionRepository) ReplaceOptions(questionID uint, options []entity.AnswerOption) error {
	args := m.Called(questionID, options)
	return args.Error(0)
}

func (m *MockQuestionRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockQuestionRepository) UpdateSortOrder(quizID uint, orderedIDs []uint) error {
	args := m.Called(quizID, orderedIDs)
	return args.Error(0)
}

func (m *MockQuestionRepository) IsReferenced(questionID uint) (bool, error) {
	args := m.Called(questionID)
	return args.Bool(0), args.Error(1)
}

// MockAttemptRepository implements repository.AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) Create(attempt *entity.Attempt) error {
	args := m.Called(attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) UpdateQuestionOrder(attemptID uint, order entity.UintArray) error {
	args := m.Called(attemptID, order)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByID(id uint) (*entity.Attempt, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) GetWithAnswers(id uint) (*entity.Attempt, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) GetInProgress(quizID, studentID uint) (*entity.Attempt, error) {
	args := m.Called(quizID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) CountNonAbandoned(quizID, studentID uint) (int64, error) {
	args := m.Called(quizID, studentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAttemptRepository) UpsertAnswer(answer *entity.AttemptAnswer) error {
	args := m.Called(answer)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetAnswers(attemptID uint) ([]entity.AttemptAnswer, error) {
	args := m.Called(attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.AttemptAnswer), args.Error(1)
}

func (m *MockAttemptRepository) SaveGraded(attempt *entity.Attempt, answers []entity.AttemptAnswer) error {
	args := m.Called(attempt, answers)
	return args.Error(0)
}

func (m *MockAttemptRepository) UpdateStatus(attemptID uint, status string, completedAt time.Time) error {
	args := m.Called(attemptID, status, completedAt)
	return args.Error(0)
}

func (m *MockAttemptRepository) UpdateAnswerGrade(attempt *entity.Attempt, answer *entity.AttemptAnswer) error {
	args := m.Called(attempt, answer)
	return args.Error(0)
}

func (m *MockAttemptRepository) ListByStudent(quizID, studentID uint, limit, offset int) ([]entity.Attempt, int64, error) {
	args := m.Called(quizID, studentID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]entity.Attempt), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptRepository) ListByQuiz(quizID uint, limit, offset int) ([]entity.Attempt, int64, error) {
	args := m.Called(quizID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]entity.Attempt), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptRepository) ListOverdue(now time.Time, limit int) ([]entity.Attempt, error) {
	args := m.Called(now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) Leaderboard(quizID uint, limit int) ([]entity.Attempt, error) {
	args := m.Called(quizID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) QuizStats(quizID uint) (*repository.AttemptStats, error) {
	args := m.Called(quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.AttemptStats), args.Error(1)
}

func (m *MockAttemptRepository) QuestionStats(quizID uint) ([]repository.QuestionStat, error) {
	args := m.Called(quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.QuestionStat), args.Error(1)
}

// MockCacheRepository implements repository.CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) SetJSON(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) GetJSON(key string, dest interface{}) error {
	args := m.Called(key, dest)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}
