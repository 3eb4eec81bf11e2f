package entity

import (
	"time"

	"gorm.io/gorm"
)

// AnswerOption is one selectable option of a choice-type question.
// For short-answer questions options double as the canonical accepted
// answers (always marked correct, never shown to students).
type AnswerOption struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	QuestionID uint           `gorm:"not null;index" json:"question_id"`
	Text       string         `gorm:"size:1000;not null" json:"text"`
	IsCorrect  bool           `gorm:"not null;default:false" json:"-"` // hidden from clients
	SortOrder  int            `gorm:"not null;default:0" json:"sort_order"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TableName defines the GORM table name
func (AnswerOption) TableName() string {
	return "answer_options"
}
