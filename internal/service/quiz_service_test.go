package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/lms-quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/lms-quiz-api/internal/pkg/errors"
)

func newQuizServiceForTest() (*QuizService, *MockQuizRepository, *MockQuestionRepository, *MockAttemptRepository) {
	quizRepo := new(MockQuizRepository)
	questionRepo := new(MockQuestionRepository)
	attemptRepo := new(MockAttemptRepository)
	return NewQuizService(quizRepo, questionRepo, attemptRepo), quizRepo, questionRepo, attemptRepo
}

func TestCreateQuiz_Validation(t *testing.T) {
	svc, quizRepo, _, _ := newQuizServiceForTest()
	quizRepo.On("Create", mock.AnythingOfType("*entity.Quiz")).Return(nil)

	tests := []struct {
		name    string
		quiz    entity.Quiz
		wantErr bool
	}{
		{
			name:    "valid quiz",
			quiz:    entity.Quiz{CourseID: 1, Title: "Algebra basics", PassingScore: 70},
			wantErr: false,
		},
		{
			name:    "blank title",
			quiz:    entity.Quiz{CourseID: 1, Title: "   ", PassingScore: 70},
			wantErr: true,
		},
		{
			name:    "missing course",
			quiz:    entity.Quiz{Title: "Algebra basics", PassingScore: 70},
			wantErr: true,
		},
		{
			name:    "passing score above 100",
			quiz:    entity.Quiz{CourseID: 1, Title: "Algebra basics", PassingScore: 101},
			wantErr: true,
		},
		{
			name:    "negative time limit",
			quiz:    entity.Quiz{CourseID: 1, Title: "Algebra basics", TimeLimitMinutes: -1},
			wantErr: true,
		},
		{
			name:    "negative max attempts",
			quiz:    entity.Quiz{CourseID: 1, Title: "Algebra basics", MaxAttempts: -1},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quiz := tt.quiz
			_, err := svc.CreateQuiz(&quiz)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
			} else {
				require.NoError(t, err)
				assert.False(t, quiz.Published, "quizzes are created unpublished")
			}
		})
	}
}

func TestPublishQuiz_RequiresQuestions(t *testing.T) {
	svc, quizRepo, _, _ := newQuizServiceForTest()

	quizRepo.On("GetWithQuestions", uint(1)).Return(&entity.Quiz{ID: 1, CourseID: 1, Title: "Empty"}, nil)

	_, err := svc.PublishQuiz(1)

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	quizRepo.AssertNotCalled(t, "SetPublished", mock.Anything, mock.Anything)
}

func TestPublishQuiz_ValidatesEveryQuestion(t *testing.T) {
	svc, quizRepo, _, _ := newQuizServiceForTest()

	quiz := &entity.Quiz{ID: 1, CourseID: 1, Title: "Broken"}
	// Multiple-choice question with no correct option
	quiz.Questions = []entity.Question{
		{
			ID: 1, QuizID: 1, Text: "Pick some", Type: entity.QuestionTypeMultipleChoice, PointValue: 1,
			Options: []entity.AnswerOption{{ID: 1, Text: "a"}, {ID: 2, Text: "b"}},
		},
	}
	quizRepo.On("GetWithQuestions", uint(1)).Return(quiz, nil)

	_, err := svc.PublishQuiz(1)

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestPublishQuiz_Success(t *testing.T) {
	svc, quizRepo, _, _ := newQuizServiceForTest()

	quiz := &entity.Quiz{ID: 1, CourseID: 1, Title: "Ready"}
	quiz.Questions = []entity.Question{singleChoiceQuestion(1, 5, 10, 11)}
	quiz.Questions[0].Text = "What is 2+2?"
	quizRepo.On("GetWithQuestions", uint(1)).Return(quiz, nil)
	quizRepo.On("SetPublished", uint(1), true).Return(nil)

	published, err := svc.PublishQuiz(1)

	require.NoError(t, err)
	assert.True(t, published.Published)
	quizRepo.AssertExpectations(t)
}

func TestDeleteQuiz_WithAttemptsRejected(t *testing.T) {
	svc, quizRepo, _, attemptRepo := newQuizServiceForTest()

	quizRepo.On("GetByID", uint(1)).Return(&entity.Quiz{ID: 1}, nil)
	attemptRepo.On("ListByQuiz", uint(1), 1, 0).Return([]entity.Attempt{{ID: 9}}, int64(1), nil)

	err := svc.DeleteQuiz(1)

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	quizRepo.AssertNotCalled(t, "Delete", mock.Anything)
}

func TestDeleteQuiz_WithoutAttempts(t *testing.T) {
	svc, quizRepo, _, attemptRepo := newQuizServiceForTest()

	quizRepo.On("GetByID", uint(1)).Return(&entity.Quiz{ID: 1}, nil)
	attemptRepo.On("ListByQuiz", uint(1), 1, 0).Return([]entity.Attempt{}, int64(0), nil)
	quizRepo.On("Delete", uint(1)).Return(nil)

	err := svc.DeleteQuiz(1)

	require.NoError(t, err)
	quizRepo.AssertExpectations(t)
}

func TestValidateQuestion_PerTypeInvariants(t *testing.T) {
	twoOptions := func(correct int) []entity.AnswerOption {
		opts := []entity.AnswerOption{{Text: "a"}, {Text: "b"}}
		for i := 0; i < correct; i++ {
			opts[i].IsCorrect = true
		}
		return opts
	}

	tests := []struct {
		name    string
		q       entity.Question
		wantErr bool
	}{
		{
			name:    "valid single choice",
			q:       entity.Question{Text: "q", Type: entity.QuestionTypeSingleChoice, PointValue: 1, Options: twoOptions(1)},
			wantErr: false,
		},
		{
			name:    "single choice with two correct options",
			q:       entity.Question{Text: "q", Type: entity.QuestionTypeSingleChoice, PointValue: 1, Options: twoOptions(2)},
			wantErr: true,
		},
		{
			name:    "single choice with one option",
			q:       entity.Question{Text: "q", Type: entity.QuestionTypeSingleChoice, PointValue: 1, Options: []entity.AnswerOption{{Text: "a", IsCorrect: true}}},
			wantErr: true,
		},
		{
			name:    "multiple choice without correct options",
			q:       entity.Question{Text: "q", Type: entity.QuestionTypeMultipleChoice, PointValue: 1, Options: twoOptions(0)},
			wantErr: true,
		},
		{
			name:    "valid true/false",
			q:       entity.Question{Text: "q", Type: entity.QuestionTypeTrueFalse, PointValue: 1, Options: twoOptions(1)},
			wantErr: false,
		},
		{
			name: "true/false with three options",
			q: entity.Question{Text: "q", Type: entity.QuestionTypeTrueFalse, PointValue: 1,
				Options: []entity.AnswerOption{{Text: "a", IsCorrect: true}, {Text: "b"}, {Text: "c"}}},
			wantErr: true,
		},
		{
			name:    "zero point value",
			q:       entity.Question{Text: "q", Type: entity.QuestionTypeSingleChoice, PointValue: 0, Options: twoOptions(1)},
			wantErr: true,
		},
		{
			name:    "invalid type",
			q:       entity.Question{Text: "q", Type: "matching", PointValue: 1},
			wantErr: true,
		},
		{
			name:    "essay with options",
			q:       entity.Question{Text: "q", Type: entity.QuestionTypeEssay, PointValue: 1, Options: twoOptions(0)},
			wantErr: true,
		},
		{
			name:    "essay without options",
			q:       entity.Question{Text: "q", Type: entity.QuestionTypeEssay, PointValue: 1},
			wantErr: false,
		},
		{
			name: "short answer accepted answers",
			q: entity.Question{Text: "q", Type: entity.QuestionTypeShortAnswer, PointValue: 1,
				Options: []entity.AnswerOption{{Text: "Paris", IsCorrect: true}}},
			wantErr: false,
		},
		{
			name:    "short answer without accepted answers routes to manual grading",
			q:       entity.Question{Text: "q", Type: entity.QuestionTypeShortAnswer, PointValue: 1},
			wantErr: false,
		},
		{
			name: "short answer with a non-correct option",
			q: entity.Question{Text: "q", Type: entity.QuestionTypeShortAnswer, PointValue: 1,
				Options: []entity.AnswerOption{{Text: "Paris", IsCorrect: true}, {Text: "London"}}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateQuestion(&tt.q)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDeleteQuestion_WrongQuizRejected(t *testing.T) {
	svc, _, questionRepo, _ := newQuizServiceForTest()

	questionRepo.On("GetByID", uint(5)).Return(&entity.Question{ID: 5, QuizID: 2}, nil)

	err := svc.DeleteQuestion(1, 5)

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	questionRepo.AssertNotCalled(t, "Delete", mock.Anything)
}

func TestDeleteQuestion_ReferencedIsSoftDeleted(t *testing.T) {
	svc, _, questionRepo, _ := newQuizServiceForTest()

	questionRepo.On("GetByID", uint(5)).Return(&entity.Question{ID: 5, QuizID: 1}, nil)
	questionRepo.On("IsReferenced", uint(5)).Return(true, nil)
	questionRepo.On("Delete", uint(5)).Return(nil)

	err := svc.DeleteQuestion(1, 5)

	require.NoError(t, err)
	questionRepo.AssertExpectations(t)
}
