package entity

import (
	"time"
)

// Quiz is the authored definition of a quiz. Questions live in the questions
// table; everything that governs attempts and scoring lives here.
type Quiz struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	CourseID           uint       `gorm:"not null;index" json:"course_id"`
	LessonID           uint       `gorm:"not null;index" json:"lesson_id"`
	Title              string     `gorm:"size:150;not null" json:"title"`
	Description        string     `gorm:"size:1000;not null;default:''" json:"description"`
	TimeLimitMinutes   int        `gorm:"not null;default:0" json:"time_limit_minutes"` // 0 = unlimited
	PassingScore       int        `gorm:"not null;default:70" json:"passing_score"`     // percentage
	MaxAttempts        int        `gorm:"not null;default:0" json:"max_attempts"`       // 0 = unlimited
	ShuffleQuestions   bool       `gorm:"not null;default:false" json:"shuffle_questions"`
	ShuffleAnswers     bool       `gorm:"not null;default:false" json:"shuffle_answers"`
	ShowCorrectAnswers bool       `gorm:"not null;default:false" json:"show_correct_answers"`
	Published          bool       `gorm:"not null;default:false;index" json:"published"`
	Questions          []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName defines the GORM table name
func (Quiz) TableName() string {
	return "quizzes"
}

// IsPublished reports whether students may start attempts against this quiz
func (q *Quiz) IsPublished() bool {
	return q.Published
}

// HasTimeLimit reports whether attempts against this quiz can expire
func (q *Quiz) HasTimeLimit() bool {
	return q.TimeLimitMinutes > 0
}

// TimeLimit returns the configured time limit as a duration.
// Meaningless when HasTimeLimit is false.
func (q *Quiz) TimeLimit() time.Duration {
	return time.Duration(q.TimeLimitMinutes) * time.Minute
}

// HasAttemptLimit reports whether the attempt-count policy is enforced
func (q *Quiz) HasAttemptLimit() bool {
	return q.MaxAttempts > 0
}
