package dto

import (
	"time"

	"github.com/yourusername/lms-quiz-api/internal/domain/entity"
)

// AnswerOptionResponse represents an answer option for the client.
// IsCorrect is only populated for instructors.
type AnswerOptionResponse struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	SortOrder int    `json:"sort_order"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

// QuestionResponse represents a question for the client
type QuestionResponse struct {
	ID          uint                   `json:"id"`
	QuizID      uint                   `json:"quiz_id"`
	Text        string                 `json:"text"`
	Explanation string                 `json:"explanation,omitempty"`
	Type        string                 `json:"type"`
	PointValue  int                    `json:"point_value"`
	SortOrder   int                    `json:"sort_order"`
	ImageURL    string                 `json:"image_url,omitempty"`
	Options     []AnswerOptionResponse `json:"options,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// QuizResponse represents a quiz for the client
type QuizResponse struct {
	ID                 uint               `json:"id"`
	CourseID           uint               `json:"course_id"`
	LessonID           uint               `json:"lesson_id,omitempty"`
	Title              string             `json:"title"`
	Description        string             `json:"description,omitempty"`
	TimeLimitMinutes   int                `json:"time_limit_minutes"`
	PassingScore       int                `json:"passing_score"`
	MaxAttempts        int                `json:"max_attempts"`
	ShuffleQuestions   bool               `json:"shuffle_questions"`
	ShuffleAnswers     bool               `json:"shuffle_answers"`
	ShowCorrectAnswers bool               `json:"show_correct_answers"`
	Published          bool               `json:"published"`
	QuestionCount      int                `json:"question_count"`
	Questions          []QuestionResponse `json:"questions,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// PaginatedQuizResponse represents a paginated quiz list
type PaginatedQuizResponse struct {
	Quizzes []*QuizResponse `json:"quizzes"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

// NewAnswerOptionResponse creates an option DTO. Correctness is exposed only
// when includeCorrect is true (instructor views).
func NewAnswerOptionResponse(opt *entity.AnswerOption, includeCorrect bool) AnswerOptionResponse {
	resp := AnswerOptionResponse{
		ID:        opt.ID,
		Text:      opt.Text,
		SortOrder: opt.SortOrder,
	}
	if includeCorrect {
		isCorrect := opt.IsCorrect
		resp.IsCorrect = &isCorrect
	}
	return resp
}

// NewQuestionResponse creates a question DTO. For students the options of
// short-answer questions are hidden entirely: they hold the accepted answers.
func NewQuestionResponse(q *entity.Question, includeCorrect bool) QuestionResponse {
	resp := QuestionResponse{
		ID:          q.ID,
		QuizID:      q.QuizID,
		Text:        q.Text,
		Type:        q.Type,
		PointValue:  q.PointValue,
		SortOrder:   q.SortOrder,
		ImageURL:    q.ImageURL,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
	if includeCorrect {
		resp.Explanation = q.Explanation
	}
	if includeCorrect || q.IsChoiceType() {
		resp.Options = make([]AnswerOptionResponse, 0, len(q.Options))
		for i := range q.Options {
			resp.Options = append(resp.Options, NewAnswerOptionResponse(&q.Options[i], includeCorrect))
		}
	}
	return resp
}

// NewQuizResponse creates a quiz DTO
func NewQuizResponse(quiz *entity.Quiz, includeQuestions, includeCorrect bool) *QuizResponse {
	resp := &QuizResponse{
		ID:                 quiz.ID,
		CourseID:           quiz.CourseID,
		LessonID:           quiz.LessonID,
		Title:              quiz.Title,
		Description:        quiz.Description,
		TimeLimitMinutes:   quiz.TimeLimitMinutes,
		PassingScore:       quiz.PassingScore,
		MaxAttempts:        quiz.MaxAttempts,
		ShuffleQuestions:   quiz.ShuffleQuestions,
		ShuffleAnswers:     quiz.ShuffleAnswers,
		ShowCorrectAnswers: quiz.ShowCorrectAnswers,
		Published:          quiz.Published,
		QuestionCount:      len(quiz.Questions),
		CreatedAt:          quiz.CreatedAt,
		UpdatedAt:          quiz.UpdatedAt,
	}
	if includeQuestions {
		resp.Questions = make([]QuestionResponse, 0, len(quiz.Questions))
		for i := range quiz.Questions {
			resp.Questions = append(resp.Questions, NewQuestionResponse(&quiz.Questions[i], includeCorrect))
		}
	}
	return resp
}

// NewPaginatedQuizResponse creates a paginated quiz list DTO
func NewPaginatedQuizResponse(quizzes []entity.Quiz, total int64, limit, offset int) *PaginatedQuizResponse {
	items := make([]*QuizResponse, 0, len(quizzes))
	for i := range quizzes {
		items = append(items, NewQuizResponse(&quizzes[i], false, false))
	}
	page := 1
	if limit > 0 {
		page = offset/limit + 1
	}
	return &PaginatedQuizResponse{
		Quizzes: items,
		Total:   total,
		Page:    page,
		PerPage: limit,
	}
}
