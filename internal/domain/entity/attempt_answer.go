package entity

import (
	"time"
)

// AttemptAnswer is a student's answer to one question inside one attempt.
// Upserted by auto-save while the attempt is in progress; correctness and
// points are written only at grading time. IsCorrect stays nil for answers
// awaiting manual grading.
type AttemptAnswer struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	AttemptID         uint      `gorm:"not null;index;uniqueIndex:idx_attempt_question" json:"attempt_id"`
	QuestionID        uint      `gorm:"not null;index;uniqueIndex:idx_attempt_question" json:"question_id"`
	SelectedOptionIDs UintArray `gorm:"type:jsonb;not null" json:"selected_option_ids"`
	TextAnswer        string    `gorm:"type:text;not null;default:''" json:"text_answer"`
	IsCorrect         *bool     `json:"is_correct"` // nil until graded, stays nil for manual grading
	PointsEarned      int       `gorm:"not null;default:0" json:"points_earned"`
	PendingManual     bool      `gorm:"not null;default:false" json:"pending_manual"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName defines the GORM table name
func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}

// IsGraded reports whether automatic or manual grading already ran
func (a *AttemptAnswer) IsGraded() bool {
	return a.IsCorrect != nil
}
