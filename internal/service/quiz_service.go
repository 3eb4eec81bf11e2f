package service

import (
	"fmt"
	"log"
	"strings"

	"github.com/yourusername/lms-quiz-api/internal/domain/entity"
	"github.com/yourusername/lms-quiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/lms-quiz-api/internal/pkg/errors"
)

// Answer-option count bounds for choice-type questions
const (
	minChoiceOptions = 2
	maxChoiceOptions = 10
)

// QuizService handles quiz and question authoring
type QuizService struct {
	quizRepo     repository.QuizRepository
	questionRepo repository.QuestionRepository
	attemptRepo  repository.AttemptRepository
}

// NewQuizService creates a new quiz service
func NewQuizService(
	quizRepo repository.QuizRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.AttemptRepository,
) *QuizService {
	return &QuizService{
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
	}
}

// CreateQuiz creates a new unpublished quiz
func (s *QuizService) CreateQuiz(quiz *entity.Quiz) (*entity.Quiz, error) {
	if err := validateQuizConfig(quiz); err != nil {
		return nil, err
	}

	quiz.Published = false
	if err := s.quizRepo.Create(quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}
	return quiz, nil
}

// GetQuiz returns the quiz without its questions
func (s *QuizService) GetQuiz(quizID uint) (*entity.Quiz, error) {
	return s.quizRepo.GetByID(quizID)
}

// GetQuizWithQuestions returns the quiz with its questions and options
func (s *QuizService) GetQuizWithQuestions(quizID uint) (*entity.Quiz, error) {
	return s.quizRepo.GetWithQuestions(quizID)
}

// ListQuizzes returns a page of quizzes for a course
func (s *QuizService) ListQuizzes(courseID uint, limit, offset int) ([]entity.Quiz, int64, error) {
	return s.quizRepo.ListByCourse(courseID, normalizeLimit(limit), normalizeOffset(offset))
}

// UpdateQuiz updates the quiz configuration. Changes never affect attempts
// already started: the time limit is snapshotted into each attempt at start.
func (s *QuizService) UpdateQuiz(quiz *entity.Quiz) (*entity.Quiz, error) {
	existing, err := s.quizRepo.GetByID(quiz.ID)
	if err != nil {
		return nil, err
	}

	if err := validateQuizConfig(quiz); err != nil {
		return nil, err
	}

	quiz.Published = existing.Published
	quiz.CreatedAt = existing.CreatedAt
	if err := s.quizRepo.Update(quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}
	return quiz, nil
}

// DeleteQuiz removes a quiz. Quizzes with recorded attempts cannot be
// deleted; unpublish them instead.
func (s *QuizService) DeleteQuiz(quizID uint) error {
	if _, err := s.quizRepo.GetByID(quizID); err != nil {
		return err
	}

	_, total, err := s.attemptRepo.ListByQuiz(quizID, 1, 0)
	if err != nil {
		return fmt.Errorf("failed to check quiz attempts: %w", err)
	}
	if total > 0 {
		return fmt.Errorf("%w: quiz has recorded attempts, unpublish it instead of deleting", apperrors.ErrConflict)
	}

	return s.quizRepo.Delete(quizID)
}

// PublishQuiz validates the quiz content and makes it available to students
func (s *QuizService) PublishQuiz(quizID uint) (*entity.Quiz, error) {
	quiz, err := s.quizRepo.GetWithQuestions(quizID)
	if err != nil {
		return nil, err
	}

	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("%w: quiz must have at least one question to be published", apperrors.ErrValidation)
	}
	for i := range quiz.Questions {
		if err := validateQuestion(&quiz.Questions[i]); err != nil {
			return nil, fmt.Errorf("question #%d: %w", quiz.Questions[i].ID, err)
		}
	}

	if err := s.quizRepo.SetPublished(quizID, true); err != nil {
		return nil, err
	}
	quiz.Published = true
	log.Printf("[QuizService] Quiz #%d published with %d questions", quizID, len(quiz.Questions))
	return quiz, nil
}

// UnpublishQuiz hides the quiz from students. Running attempts are not
// interrupted.
func (s *QuizService) UnpublishQuiz(quizID uint) error {
	return s.quizRepo.SetPublished(quizID, false)
}

// AddQuestion validates and stores a new question with its options
func (s *QuizService) AddQuestion(quizID uint, question *entity.Question) (*entity.Question, error) {
	if _, err := s.quizRepo.GetByID(quizID); err != nil {
		return nil, err
	}

	question.QuizID = quizID
	if err := validateQuestion(question); err != nil {
		return nil, err
	}

	if question.SortOrder == 0 {
		count, err := s.questionRepo.CountByQuizID(quizID)
		if err != nil {
			return nil, fmt.Errorf("failed to count quiz questions: %w", err)
		}
		question.SortOrder = int(count) + 1
	}

	if err := s.questionRepo.Create(question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	return question, nil
}

// UpdateQuestion updates the question text, type, points and options.
// The option set is replaced wholesale; old options are soft-deleted so
// answers of past attempts keep resolving.
func (s *QuizService) UpdateQuestion(quizID, questionID uint, question *entity.Question) (*entity.Question, error) {
	existing, err := s.questionRepo.GetByID(questionID)
	if err != nil {
		return nil, err
	}
	if existing.QuizID != quizID {
		return nil, fmt.Errorf("%w: question #%d does not belong to quiz #%d", apperrors.ErrValidation, questionID, quizID)
	}

	question.ID = questionID
	question.QuizID = quizID
	if question.SortOrder == 0 {
		question.SortOrder = existing.SortOrder
	}
	if err := validateQuestion(question); err != nil {
		return nil, err
	}

	options := question.Options
	question.Options = nil
	if err := s.questionRepo.Update(question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	if err := s.questionRepo.ReplaceOptions(questionID, options); err != nil {
		return nil, fmt.Errorf("failed to replace question options: %w", err)
	}

	return s.questionRepo.GetByID(questionID)
}

// DeleteQuestion soft-deletes the question and its options. Answers of past
// attempts keep their question reference; scores never change retroactively.
func (s *QuizService) DeleteQuestion(quizID, questionID uint) error {
	question, err := s.questionRepo.GetByID(questionID)
	if err != nil {
		return err
	}
	if question.QuizID != quizID {
		return fmt.Errorf("%w: question #%d does not belong to quiz #%d", apperrors.ErrValidation, questionID, quizID)
	}

	referenced, err := s.questionRepo.IsReferenced(questionID)
	if err != nil {
		return fmt.Errorf("failed to check question references: %w", err)
	}
	if referenced {
		log.Printf("[QuizService] Question #%d is referenced by attempt answers, soft-deleting", questionID)
	}

	return s.questionRepo.Delete(questionID)
}

// ReorderQuestions rewrites the question order of a quiz
func (s *QuizService) ReorderQuestions(quizID uint, orderedIDs []uint) error {
	if _, err := s.quizRepo.GetByID(quizID); err != nil {
		return err
	}
	if len(orderedIDs) == 0 {
		return fmt.Errorf("%w: ordered question id list cannot be empty", apperrors.ErrValidation)
	}
	return s.questionRepo.UpdateSortOrder(quizID, orderedIDs)
}

// validateQuizConfig checks quiz-level settings
func validateQuizConfig(quiz *entity.Quiz) error {
	if strings.TrimSpace(quiz.Title) == "" {
		return fmt.Errorf("%w: quiz title is required", apperrors.ErrValidation)
	}
	if quiz.CourseID == 0 {
		return fmt.Errorf("%w: course id is required", apperrors.ErrValidation)
	}
	if quiz.TimeLimitMinutes < 0 {
		return fmt.Errorf("%w: time limit cannot be negative", apperrors.ErrValidation)
	}
	if quiz.PassingScore < 0 || quiz.PassingScore > 100 {
		return fmt.Errorf("%w: passing score must be between 0 and 100", apperrors.ErrValidation)
	}
	if quiz.MaxAttempts < 0 {
		return fmt.Errorf("%w: max attempts cannot be negative", apperrors.ErrValidation)
	}
	return nil
}

// validateQuestion checks the per-type question invariants. Runs on question
// create/update and again over every question at publish time.
func validateQuestion(q *entity.Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: question text is required", apperrors.ErrValidation)
	}
	if !entity.IsValidQuestionType(q.Type) {
		return fmt.Errorf("%w: invalid question type %q", apperrors.ErrValidation, q.Type)
	}
	if q.PointValue <= 0 {
		return fmt.Errorf("%w: point value must be positive", apperrors.ErrValidation)
	}

	correct := 0
	for _, opt := range q.Options {
		if strings.TrimSpace(opt.Text) == "" {
			return fmt.Errorf("%w: answer option text cannot be empty", apperrors.ErrValidation)
		}
		if opt.IsCorrect {
			correct++
		}
	}

	switch q.Type {
	case entity.QuestionTypeTrueFalse:
		if len(q.Options) != 2 {
			return fmt.Errorf("%w: true/false question must have exactly 2 options", apperrors.ErrValidation)
		}
		if correct != 1 {
			return fmt.Errorf("%w: true/false question must have exactly one correct option", apperrors.ErrValidation)
		}
	case entity.QuestionTypeSingleChoice:
		if len(q.Options) < minChoiceOptions || len(q.Options) > maxChoiceOptions {
			return fmt.Errorf("%w: single-choice question must have between %d and %d options", apperrors.ErrValidation, minChoiceOptions, maxChoiceOptions)
		}
		if correct != 1 {
			return fmt.Errorf("%w: single-choice question must have exactly one correct option", apperrors.ErrValidation)
		}
	case entity.QuestionTypeMultipleChoice:
		if len(q.Options) < minChoiceOptions || len(q.Options) > maxChoiceOptions {
			return fmt.Errorf("%w: multiple-choice question must have between %d and %d options", apperrors.ErrValidation, minChoiceOptions, maxChoiceOptions)
		}
		if correct < 1 {
			return fmt.Errorf("%w: multiple-choice question must have at least one correct option", apperrors.ErrValidation)
		}
	case entity.QuestionTypeShortAnswer:
		// Options hold the accepted answers; all of them must be marked correct.
		// Zero accepted answers is allowed and routes the question to manual grading.
		if correct != len(q.Options) {
			return fmt.Errorf("%w: short-answer accepted answers must all be marked correct", apperrors.ErrValidation)
		}
	case entity.QuestionTypeEssay:
		if len(q.Options) != 0 {
			return fmt.Errorf("%w: essay question cannot have answer options", apperrors.ErrValidation)
		}
	}

	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
