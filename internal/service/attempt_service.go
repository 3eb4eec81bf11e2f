package service

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/yourusername/lms-quiz-api/internal/domain/entity"
	"github.com/yourusername/lms-quiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/lms-quiz-api/internal/pkg/errors"
)

// AnswerSubmission is one answer in a save or submit payload
type AnswerSubmission struct {
	QuestionID        uint   `json:"question_id"`
	SelectedOptionIDs []uint `json:"selected_option_ids"`
	TextAnswer        string `json:"text_answer"`
}

// AttemptService drives the attempt state machine: start, auto-save, submit,
// expiry and abandonment. Grading happens exactly once, at the transition to
// a terminal state.
type AttemptService struct {
	attemptRepo  repository.AttemptRepository
	quizRepo     repository.QuizRepository
	questionRepo repository.QuestionRepository
	cacheRepo    repository.CacheRepository
	emailService EmailService
}

// NewAttemptService creates a new attempt service
func NewAttemptService(
	attemptRepo repository.AttemptRepository,
	quizRepo repository.QuizRepository,
	questionRepo repository.QuestionRepository,
	cacheRepo repository.CacheRepository,
	emailService EmailService,
) *AttemptService {
	return &AttemptService{
		attemptRepo:  attemptRepo,
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		cacheRepo:    cacheRepo,
		emailService: emailService,
	}
}

// StartAttempt begins a new attempt for the student. The question order is
// shuffled (when the quiz asks for it) and frozen; the time limit is
// snapshotted so later quiz edits never affect a running attempt.
func (s *AttemptService) StartAttempt(quizID, studentID uint) (*entity.Attempt, []entity.Question, error) {
	quiz, err := s.quizRepo.GetWithQuestions(quizID)
	if err != nil {
		return nil, nil, err
	}
	if !quiz.IsPublished() {
		return nil, nil, fmt.Errorf("%w: quiz is not published", apperrors.ErrForbidden)
	}
	if len(quiz.Questions) == 0 {
		return nil, nil, fmt.Errorf("%w: quiz has no questions", apperrors.ErrValidation)
	}

	// A running attempt must surface as "already in progress" so the client
	// can resume it, even when it is the last one the budget allows. The
	// limit check below would otherwise swallow it.
	if existing, err := s.attemptRepo.GetInProgress(quizID, studentID); err == nil {
		return nil, nil, fmt.Errorf("%w: attempt #%d", repository.ErrAttemptAlreadyInProgress, existing.ID)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil, fmt.Errorf("failed to check for a running attempt: %w", err)
	}

	if quiz.HasAttemptLimit() {
		count, err := s.attemptRepo.CountNonAbandoned(quizID, studentID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to count attempts: %w", err)
		}
		if count >= int64(quiz.MaxAttempts) {
			return nil, nil, fmt.Errorf("%w: %d of %d used", repository.ErrAttemptLimitExceeded, count, quiz.MaxAttempts)
		}
	}

	attempt := &entity.Attempt{
		QuizID:        quizID,
		StudentID:     studentID,
		Status:        entity.AttemptStatusInProgress,
		StartedAt:     time.Now(),
		QuestionOrder: entity.UintArray{},
		TimeLimitSec:  int(quiz.TimeLimit() / time.Second),
	}
	// The partial unique index rejects a second in_progress attempt here
	if err := s.attemptRepo.Create(attempt); err != nil {
		return nil, nil, err
	}

	// The attempt ID seeds the shuffle, so the order is reproducible from the
	// attempt row alone
	order := questionOrderFor(attempt, quiz)
	if err := s.attemptRepo.UpdateQuestionOrder(attempt.ID, order); err != nil {
		// Don't leave an in_progress attempt with an empty order behind: it
		// would hold the single-attempt slot and consume the budget
		if abandonErr := s.attemptRepo.UpdateStatus(attempt.ID, entity.AttemptStatusAbandoned, time.Now()); abandonErr != nil {
			log.Printf("[AttemptService] Failed to discard attempt #%d after order freeze error: %v", attempt.ID, abandonErr)
		}
		return nil, nil, fmt.Errorf("failed to freeze question order: %w", err)
	}
	attempt.QuestionOrder = order

	questions := s.questionsInAttemptOrder(attempt, quiz)
	log.Printf("[AttemptService] Attempt #%d started: quiz #%d, student #%d, %d questions, limit %ds",
		attempt.ID, quizID, studentID, len(questions), attempt.TimeLimitSec)
	return attempt, questions, nil
}

// questionOrderFor computes the frozen question order of an attempt
func questionOrderFor(attempt *entity.Attempt, quiz *entity.Quiz) entity.UintArray {
	order := make(entity.UintArray, len(quiz.Questions))
	for i := range quiz.Questions {
		order[i] = quiz.Questions[i].ID
	}
	if quiz.ShuffleQuestions {
		rng := rand.New(rand.NewSource(int64(attempt.ID)))
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}
	return order
}

// questionsInAttemptOrder arranges the quiz's questions per the attempt's
// frozen order. Answer options are shuffled deterministically from the same
// seed, so repeated fetches of an attempt always present the same layout.
func (s *AttemptService) questionsInAttemptOrder(attempt *entity.Attempt, quiz *entity.Quiz) []entity.Question {
	byID := make(map[uint]entity.Question, len(quiz.Questions))
	for _, q := range quiz.Questions {
		byID[q.ID] = q
	}

	questions := make([]entity.Question, 0, len(attempt.QuestionOrder))
	for _, id := range attempt.QuestionOrder {
		if q, ok := byID[id]; ok {
			questions = append(questions, q)
		}
	}

	if quiz.ShuffleAnswers {
		rng := rand.New(rand.NewSource(int64(attempt.ID)))
		for i := range questions {
			opts := make([]entity.AnswerOption, len(questions[i].Options))
			copy(opts, questions[i].Options)
			rng.Shuffle(len(opts), func(a, b int) {
				opts[a], opts[b] = opts[b], opts[a]
			})
			questions[i].Options = opts
		}
	}
	return questions
}

// GetActiveAttempt returns the student's running attempt for a quiz together
// with its questions and already saved answers. An attempt past its deadline
// is finalized as timed_out on sight.
func (s *AttemptService) GetActiveAttempt(quizID, studentID uint) (*entity.Attempt, []entity.Question, []entity.AttemptAnswer, error) {
	attempt, err := s.attemptRepo.GetInProgress(quizID, studentID)
	if err != nil {
		return nil, nil, nil, err
	}

	if attempt.Expired(time.Now()) {
		if _, err := s.finalizeAttempt(attempt, entity.AttemptStatusTimedOut); err != nil {
			return nil, nil, nil, err
		}
		return nil, nil, nil, repository.ErrAttemptExpired
	}

	quiz, err := s.quizRepo.GetWithQuestions(attempt.QuizID)
	if err != nil {
		return nil, nil, nil, err
	}
	answers, err := s.attemptRepo.GetAnswers(attempt.ID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load attempt answers: %w", err)
	}
	return attempt, s.questionsInAttemptOrder(attempt, quiz), answers, nil
}

// SaveAnswer upserts one answer of a running attempt (auto-save). Saving is
// idempotent per question; the latest save wins. A save against an expired
// attempt finalizes it as timed_out and fails with ErrAttemptExpired.
func (s *AttemptService) SaveAnswer(attemptID, studentID uint, submission AnswerSubmission) error {
	attempt, err := s.attemptRepo.GetByID(attemptID)
	if err != nil {
		return err
	}
	if attempt.StudentID != studentID {
		return fmt.Errorf("%w: attempt belongs to another student", apperrors.ErrForbidden)
	}
	if !attempt.IsActive() {
		return fmt.Errorf("%w: status is %s", repository.ErrAttemptNotActive, attempt.Status)
	}
	if attempt.Expired(time.Now()) {
		if _, err := s.finalizeAttempt(attempt, entity.AttemptStatusTimedOut); err != nil {
			return err
		}
		return repository.ErrAttemptExpired
	}

	if !attempt.QuestionOrder.Contains(submission.QuestionID) {
		return fmt.Errorf("%w: question #%d is not part of this attempt", apperrors.ErrValidation, submission.QuestionID)
	}
	question, err := s.questionRepo.GetByID(submission.QuestionID)
	if err != nil {
		return err
	}
	if err := validateSubmission(question, &submission); err != nil {
		return err
	}

	answer := &entity.AttemptAnswer{
		AttemptID:         attemptID,
		QuestionID:        submission.QuestionID,
		SelectedOptionIDs: submission.SelectedOptionIDs,
		TextAnswer:        submission.TextAnswer,
	}
	if answer.SelectedOptionIDs == nil {
		answer.SelectedOptionIDs = entity.UintArray{}
	}
	return s.attemptRepo.UpsertAnswer(answer)
}

// validateSubmission checks an answer payload against its question type
func validateSubmission(question *entity.Question, submission *AnswerSubmission) error {
	if question.IsTextType() {
		if len(submission.SelectedOptionIDs) > 0 {
			return fmt.Errorf("%w: %s question takes a text answer, not options", apperrors.ErrValidation, question.Type)
		}
		return nil
	}

	switch question.Type {
	case entity.QuestionTypeSingleChoice, entity.QuestionTypeTrueFalse:
		if len(submission.SelectedOptionIDs) > 1 {
			return fmt.Errorf("%w: %s question allows a single selected option", apperrors.ErrValidation, question.Type)
		}
	}
	for _, optID := range submission.SelectedOptionIDs {
		if !question.HasOption(optID) {
			return fmt.Errorf("%w: option #%d does not belong to question #%d", apperrors.ErrValidation, optID, question.ID)
		}
	}
	return nil
}

// SubmitAttempt completes the attempt and grades it. Submitting an already
// completed or timed-out attempt is idempotent and returns the stored result.
// A submit past the deadline grades only what was auto-saved and lands in
// timed_out. The optional answers payload is upserted before grading.
func (s *AttemptService) SubmitAttempt(attemptID, studentID uint, answers []AnswerSubmission, studentEmail string) (*entity.Attempt, error) {
	attempt, err := s.attemptRepo.GetWithAnswers(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.StudentID != studentID {
		return nil, fmt.Errorf("%w: attempt belongs to another student", apperrors.ErrForbidden)
	}

	switch attempt.Status {
	case entity.AttemptStatusCompleted, entity.AttemptStatusTimedOut:
		return attempt, nil // already graded, return the stored result
	case entity.AttemptStatusAbandoned:
		return nil, fmt.Errorf("%w: attempt was abandoned", repository.ErrAttemptNotActive)
	}

	if attempt.Expired(time.Now()) {
		graded, err := s.finalizeAttempt(attempt, entity.AttemptStatusTimedOut)
		if err != nil {
			return nil, err
		}
		s.notifyResult(graded, studentEmail)
		return graded, nil
	}

	for _, submission := range answers {
		if err := s.SaveAnswer(attemptID, studentID, submission); err != nil {
			return nil, err
		}
	}

	graded, err := s.finalizeAttempt(attempt, entity.AttemptStatusCompleted)
	if err != nil {
		return nil, err
	}
	s.notifyResult(graded, studentEmail)
	return graded, nil
}

// AbandonAttempt discards a running attempt. Abandoned attempts are never
// graded and do not consume the attempt budget. An attempt past its deadline
// is finalized as timed_out instead.
func (s *AttemptService) AbandonAttempt(attemptID, studentID uint) (*entity.Attempt, error) {
	attempt, err := s.attemptRepo.GetByID(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.StudentID != studentID {
		return nil, fmt.Errorf("%w: attempt belongs to another student", apperrors.ErrForbidden)
	}
	if !attempt.IsActive() {
		return nil, fmt.Errorf("%w: status is %s", repository.ErrAttemptNotActive, attempt.Status)
	}

	now := time.Now()
	if attempt.Expired(now) {
		return s.finalizeAttempt(attempt, entity.AttemptStatusTimedOut)
	}

	if err := s.attemptRepo.UpdateStatus(attempt.ID, entity.AttemptStatusAbandoned, now); err != nil {
		return nil, err
	}
	attempt.Status = entity.AttemptStatusAbandoned
	attempt.CompletedAt = &now
	log.Printf("[AttemptService] Attempt #%d abandoned by student #%d", attempt.ID, studentID)
	return attempt, nil
}

// ExpireOverdueAttempts finalizes in_progress attempts whose deadline has
// passed. Called periodically by the background sweep; expiry itself is lazy,
// so the sweep only tidies up attempts nobody touched again.
func (s *AttemptService) ExpireOverdueAttempts(now time.Time, batchSize int) (int, error) {
	overdue, err := s.attemptRepo.ListOverdue(now, batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue attempts: %w", err)
	}

	expired := 0
	for i := range overdue {
		if _, err := s.finalizeAttempt(&overdue[i], entity.AttemptStatusTimedOut); err != nil {
			log.Printf("[AttemptService] Failed to expire attempt #%d: %v", overdue[i].ID, err)
			continue
		}
		expired++
	}
	if expired > 0 {
		log.Printf("[AttemptService] Expiry sweep finalized %d overdue attempts", expired)
	}
	return expired, nil
}

// GradeAnswerManually records an instructor's verdict on one answer that the
// engine could not grade, then re-totals the attempt.
func (s *AttemptService) GradeAnswerManually(attemptID, questionID uint, correct bool, pointsEarned int) (*entity.Attempt, error) {
	attempt, err := s.attemptRepo.GetWithAnswers(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != entity.AttemptStatusCompleted && attempt.Status != entity.AttemptStatusTimedOut {
		return nil, fmt.Errorf("%w: only graded attempts can be graded manually", repository.ErrAttemptNotActive)
	}

	var answer *entity.AttemptAnswer
	for i := range attempt.Answers {
		if attempt.Answers[i].QuestionID == questionID {
			answer = &attempt.Answers[i]
			break
		}
	}
	if answer == nil {
		return nil, fmt.Errorf("%w: no answer for question #%d in attempt #%d", apperrors.ErrNotFound, questionID, attemptID)
	}

	question, err := s.questionRepo.GetByID(questionID)
	if err != nil {
		return nil, err
	}
	if pointsEarned < 0 || pointsEarned > question.PointValue {
		return nil, fmt.Errorf("%w: points must be between 0 and %d", apperrors.ErrValidation, question.PointValue)
	}

	answer.IsCorrect = &correct
	answer.PointsEarned = pointsEarned
	answer.PendingManual = false

	// Re-total from the stored answers; total_points stays frozen
	score := 0
	pending := false
	for i := range attempt.Answers {
		score += attempt.Answers[i].PointsEarned
		if attempt.Answers[i].PendingManual {
			pending = true
		}
	}
	attempt.Score = score
	attempt.Percentage = ScorePercentage(score, attempt.TotalPoints)
	attempt.PendingManual = pending

	quiz, err := s.quizRepo.GetByID(attempt.QuizID)
	if err != nil {
		return nil, err
	}
	attempt.Passed = attempt.Percentage >= quiz.PassingScore

	if err := s.attemptRepo.UpdateAnswerGrade(attempt, answer); err != nil {
		return nil, err
	}
	s.invalidateQuizCaches(attempt.QuizID)
	log.Printf("[AttemptService] Manual grade recorded: attempt #%d question #%d, %d points", attemptID, questionID, pointsEarned)
	return attempt, nil
}

// finalizeAttempt grades the attempt's saved answers and moves it to the
// given terminal state in one transaction. Score fields are written here and
// never change again, except through manual grading.
func (s *AttemptService) finalizeAttempt(attempt *entity.Attempt, status string) (*entity.Attempt, error) {
	quiz, err := s.quizRepo.GetByID(attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz for grading: %w", err)
	}
	questions, err := s.questionRepo.GetByQuizID(attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions for grading: %w", err)
	}
	answers, err := s.attemptRepo.GetAnswers(attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers for grading: %w", err)
	}

	totals := GradeAttempt(questions, answers, quiz.PassingScore)

	now := time.Now()
	completedAt := now
	timeSpent := int(now.Sub(attempt.StartedAt) / time.Second)
	if status == entity.AttemptStatusTimedOut && attempt.HasTimeLimit() {
		// Clamp to the deadline: the student had exactly the limit, no more
		completedAt = attempt.Deadline()
		timeSpent = attempt.TimeLimitSec
	}

	attempt.Status = status
	attempt.CompletedAt = &completedAt
	attempt.TimeSpentSec = timeSpent
	attempt.Score = totals.Score
	attempt.TotalPoints = totals.TotalPoints
	attempt.Percentage = totals.Percentage
	attempt.Passed = totals.Passed
	attempt.PendingManual = totals.PendingManual
	attempt.Answers = nil

	if err := s.attemptRepo.SaveGraded(attempt, answers); err != nil {
		if errors.Is(err, repository.ErrAttemptAlreadyFinalized) {
			// A racing submit or the expiry sweep got there first; the stored
			// result is authoritative
			stored, readErr := s.attemptRepo.GetWithAnswers(attempt.ID)
			if readErr != nil {
				return nil, readErr
			}
			if stored.IsTerminal() {
				log.Printf("[AttemptService] Attempt #%d was already finalized as %s, keeping the stored result", stored.ID, stored.Status)
				return stored, nil
			}
		}
		return nil, err
	}
	attempt.Answers = answers
	s.invalidateQuizCaches(attempt.QuizID)

	log.Printf("[AttemptService] Attempt #%d finalized as %s: %d/%d points (%d%%), passed=%t, pending_manual=%t",
		attempt.ID, status, attempt.Score, attempt.TotalPoints, attempt.Percentage, attempt.Passed, attempt.PendingManual)
	return attempt, nil
}

// notifyResult sends the result email without blocking the request
func (s *AttemptService) notifyResult(attempt *entity.Attempt, studentEmail string) {
	if studentEmail == "" {
		return
	}
	quiz, err := s.quizRepo.GetByID(attempt.QuizID)
	if err != nil {
		log.Printf("[AttemptService] Skipping result email: %v", err)
		return
	}
	go func(title string, a entity.Attempt) {
		if err := s.emailService.SendAttemptResult(studentEmail, title, a.Percentage, a.Passed, a.PendingManual); err != nil {
			log.Printf("[AttemptService] Failed to send result email for attempt #%d: %v", a.ID, err)
		}
	}(quiz.Title, *attempt)
}

// invalidateQuizCaches drops cached leaderboard and statistics entries after
// a grading event
func (s *AttemptService) invalidateQuizCaches(quizID uint) {
	if s.cacheRepo == nil {
		return
	}
	for _, key := range []string{leaderboardCacheKey(quizID), statsCacheKey(quizID)} {
		if err := s.cacheRepo.Delete(key); err != nil {
			log.Printf("[AttemptService] Failed to invalidate cache key %s: %v", key, err)
		}
	}
}
