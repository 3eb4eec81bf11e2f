package entity

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Question type constants. The type decides which answer-option invariants
// apply and whether the question can be graded automatically.
const (
	QuestionTypeSingleChoice   = "single_choice"
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeTrueFalse      = "true_false"
	QuestionTypeShortAnswer    = "short_answer"
	QuestionTypeEssay          = "essay"
)

// ValidQuestionTypes lists every accepted question type
var ValidQuestionTypes = []string{
	QuestionTypeSingleChoice,
	QuestionTypeMultipleChoice,
	QuestionTypeTrueFalse,
	QuestionTypeShortAnswer,
	QuestionTypeEssay,
}

// Question is one question inside a quiz. Soft-deleted (never hard-deleted)
// once any attempt answer references it, so historical attempts stay intact.
type Question struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	QuizID      uint           `gorm:"not null;index" json:"quiz_id"`
	Text        string         `gorm:"size:2000;not null" json:"text"`
	Explanation string         `gorm:"size:2000;not null;default:''" json:"explanation,omitempty"`
	Type        string         `gorm:"size:20;not null;default:'single_choice'" json:"type"`
	PointValue  int            `gorm:"not null;default:1" json:"point_value"`
	SortOrder   int            `gorm:"not null;default:0" json:"sort_order"`
	ImageURL    string         `gorm:"size:500;not null;default:''" json:"image_url,omitempty"`
	Options     []AnswerOption `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TableName defines the GORM table name
func (Question) TableName() string {
	return "questions"
}

// IsValidQuestionType reports whether t is one of the accepted types
func IsValidQuestionType(t string) bool {
	for _, v := range ValidQuestionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsChoiceType reports whether the question is answered by selecting options
func (q *Question) IsChoiceType() bool {
	switch q.Type {
	case QuestionTypeSingleChoice, QuestionTypeMultipleChoice, QuestionTypeTrueFalse:
		return true
	}
	return false
}

// IsTextType reports whether the question is answered with free text
func (q *Question) IsTextType() bool {
	return q.Type == QuestionTypeShortAnswer || q.Type == QuestionTypeEssay
}

// IsAutoGradable reports whether the scoring engine can grade this question
// without an instructor. Short-answer questions are auto-gradable only when
// the author supplied at least one accepted answer.
func (q *Question) IsAutoGradable() bool {
	switch q.Type {
	case QuestionTypeSingleChoice, QuestionTypeMultipleChoice, QuestionTypeTrueFalse:
		return true
	case QuestionTypeShortAnswer:
		return len(q.AcceptedAnswers()) > 0
	}
	return false
}

// CorrectOptionIDs returns the set of option IDs marked correct
func (q *Question) CorrectOptionIDs() map[uint]struct{} {
	ids := make(map[uint]struct{})
	for _, opt := range q.Options {
		if opt.IsCorrect {
			ids[opt.ID] = struct{}{}
		}
	}
	return ids
}

// HasOption reports whether the given option ID belongs to this question
func (q *Question) HasOption(optionID uint) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

// AcceptedAnswers returns the canonical accepted answers of a short-answer
// question. They are stored as correct answer options carrying only text.
func (q *Question) AcceptedAnswers() []string {
	if q.Type != QuestionTypeShortAnswer {
		return nil
	}
	answers := make([]string, 0, len(q.Options))
	for _, opt := range q.Options {
		if opt.IsCorrect {
			answers = append(answers, opt.Text)
		}
	}
	return answers
}

// MatchesAcceptedAnswer grades a short-answer response: exact match against
// any accepted answer, case-insensitive, surrounding whitespace ignored.
func (q *Question) MatchesAcceptedAnswer(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return false
	}
	for _, accepted := range q.AcceptedAnswers() {
		if strings.ToLower(strings.TrimSpace(accepted)) == normalized {
			return true
		}
	}
	return false
}
