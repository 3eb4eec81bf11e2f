package dto

import (
	"time"

	"github.com/yourusername/lms-quiz-api/internal/domain/entity"
)

// AttemptAnswerResponse represents one saved answer. The verdict fields are
// only populated when the quiz reveals correctness (or for instructors).
type AttemptAnswerResponse struct {
	QuestionID        uint   `json:"question_id"`
	SelectedOptionIDs []uint `json:"selected_option_ids"`
	TextAnswer        string `json:"text_answer,omitempty"`
	IsCorrect         *bool  `json:"is_correct,omitempty"`
	PointsEarned      *int   `json:"points_earned,omitempty"`
	PendingManual     bool   `json:"pending_manual,omitempty"`
}

// AttemptResponse represents an attempt for the client. Score fields carry
// meaning only once the attempt reached a graded terminal state.
type AttemptResponse struct {
	ID            uint                    `json:"id"`
	QuizID        uint                    `json:"quiz_id"`
	StudentID     uint                    `json:"student_id"`
	Status        string                  `json:"status"`
	StartedAt     time.Time               `json:"started_at"`
	CompletedAt   *time.Time              `json:"completed_at,omitempty"`
	QuestionOrder []uint                  `json:"question_order"`
	TimeLimitSec  int                     `json:"time_limit_sec"`
	RemainingSec  *int                    `json:"remaining_sec,omitempty"`
	TimeSpentSec  int                     `json:"time_spent_sec"`
	Score         int                     `json:"score"`
	TotalPoints   int                     `json:"total_points"`
	Percentage    int                     `json:"percentage"`
	Passed        bool                    `json:"passed"`
	PendingManual bool                    `json:"pending_manual"`
	Answers       []AttemptAnswerResponse `json:"answers,omitempty"`
}

// StartAttemptResponse is the payload returned when an attempt starts:
// the attempt plus its questions in frozen order, sanitized for students
type StartAttemptResponse struct {
	Attempt   *AttemptResponse   `json:"attempt"`
	Questions []QuestionResponse `json:"questions"`
}

// ActiveAttemptResponse is the payload for resuming a running attempt
type ActiveAttemptResponse struct {
	Attempt   *AttemptResponse        `json:"attempt"`
	Questions []QuestionResponse      `json:"questions"`
	Answers   []AttemptAnswerResponse `json:"answers"`
}

// PaginatedAttemptResponse represents a paginated attempt list
type PaginatedAttemptResponse struct {
	Attempts []*AttemptResponse `json:"attempts"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PerPage  int                `json:"per_page"`
}

// NewAttemptAnswerResponse creates an answer DTO. revealVerdict controls
// whether grading details are exposed.
func NewAttemptAnswerResponse(a *entity.AttemptAnswer, revealVerdict bool) AttemptAnswerResponse {
	resp := AttemptAnswerResponse{
		QuestionID:        a.QuestionID,
		SelectedOptionIDs: a.SelectedOptionIDs,
		TextAnswer:        a.TextAnswer,
	}
	if resp.SelectedOptionIDs == nil {
		resp.SelectedOptionIDs = []uint{}
	}
	if revealVerdict {
		resp.IsCorrect = a.IsCorrect
		points := a.PointsEarned
		resp.PointsEarned = &points
		resp.PendingManual = a.PendingManual
	}
	return resp
}

// NewAttemptResponse creates an attempt DTO without answers
func NewAttemptResponse(a *entity.Attempt) *AttemptResponse {
	resp := &AttemptResponse{
		ID:            a.ID,
		QuizID:        a.QuizID,
		StudentID:     a.StudentID,
		Status:        a.Status,
		StartedAt:     a.StartedAt,
		CompletedAt:   a.CompletedAt,
		QuestionOrder: a.QuestionOrder,
		TimeLimitSec:  a.TimeLimitSec,
		TimeSpentSec:  a.TimeSpentSec,
		Score:         a.Score,
		TotalPoints:   a.TotalPoints,
		Percentage:    a.Percentage,
		Passed:        a.Passed,
		PendingManual: a.PendingManual,
	}
	if a.IsActive() && a.HasTimeLimit() {
		remaining := a.RemainingSeconds(time.Now())
		resp.RemainingSec = &remaining
	}
	return resp
}

// NewAttemptDetailResponse creates an attempt DTO including its answers.
// Per-answer verdicts are revealed to instructors always, to students only
// when the quiz allows it and the attempt is terminal.
func NewAttemptDetailResponse(a *entity.Attempt, quiz *entity.Quiz, isInstructor bool) *AttemptResponse {
	resp := NewAttemptResponse(a)
	revealVerdict := isInstructor || (quiz.ShowCorrectAnswers && a.IsTerminal())
	resp.Answers = make([]AttemptAnswerResponse, 0, len(a.Answers))
	for i := range a.Answers {
		resp.Answers = append(resp.Answers, NewAttemptAnswerResponse(&a.Answers[i], revealVerdict))
	}
	return resp
}

// NewPaginatedAttemptResponse creates a paginated attempt list DTO
func NewPaginatedAttemptResponse(attempts []entity.Attempt, total int64, limit, offset int) *PaginatedAttemptResponse {
	items := make([]*AttemptResponse, 0, len(attempts))
	for i := range attempts {
		items = append(items, NewAttemptResponse(&attempts[i]))
	}
	page := 1
	if limit > 0 {
		page = offset/limit + 1
	}
	return &PaginatedAttemptResponse{
		Attempts: items,
		Total:    total,
		Page:     page,
		PerPage:  limit,
	}
}
